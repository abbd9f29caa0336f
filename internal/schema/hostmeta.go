package schema

import (
	"crypto/sha1"
	"math"
	"time"

	"google.golang.org/protobuf/encoding/protowire"

	"github.com/GabrielNunesIT/log-payload/internal/model"
)

// EncodeHostMeta validates and encodes the ordered host metadata elements.
// All elements are validated before anything is encoded, so a single bad
// element yields an error and no bytes.
func EncodeHostMeta(elems []model.HostMetaElement) ([]byte, error) {
	for _, e := range elems {
		if err := validateElem(e); err != nil {
			return nil, err.withPrefix("elem")
		}
	}

	var b []byte
	for _, e := range elems {
		b = appendMessage(b, metadataElem, appendElem(nil, e))
	}
	return b, nil
}

func validateElem(e model.HostMetaElement) *ValidationError {
	if e.Key == "" {
		return elemKey.invalid()
	}
	if e.Value.SetCount() != 1 {
		return &ValidationError{Field: "value", Expected: "scalar"}
	}
	return nil
}

// appendElem encodes a pre-validated element.
func appendElem(b []byte, e model.HostMetaElement) []byte {
	b, _ = AppendField(b, elemKey, e.Key)
	return appendMessage(b, elemValue, appendValue(nil, e.Value))
}

func appendValue(b []byte, v model.Value) []byte {
	switch {
	case v.Bool != nil:
		b = protowire.AppendTag(b, valueBool, protowire.VarintType)
		b = protowire.AppendVarint(b, protowire.EncodeBool(*v.Bool))
	case v.Int != nil:
		b = protowire.AppendTag(b, valueInt, protowire.VarintType)
		b = protowire.AppendVarint(b, uint64(*v.Int))
	case v.Str != nil:
		b = protowire.AppendTag(b, valueStr, protowire.BytesType)
		b = protowire.AppendString(b, *v.Str)
	case v.Bytes != nil:
		b = protowire.AppendTag(b, valueBytes, protowire.BytesType)
		b = protowire.AppendBytes(b, v.Bytes)
	case v.Double != nil:
		b = protowire.AppendTag(b, valueDouble, protowire.Fixed64Type)
		b = protowire.AppendFixed64(b, math.Float64bits(*v.Double))
	}
	return b
}

// EncodeHost encodes the host header: host id, checksum of the encoded
// metadata, build timestamp in Unix seconds and the metadata itself.
func EncodeHost(hostID string, elems []model.HostMetaElement, ts time.Time) ([]byte, error) {
	meta, err := EncodeHostMeta(elems)
	if err != nil {
		return nil, err
	}

	sum := sha1.Sum(meta)

	secs := ts.Unix()
	if secs < 0 {
		secs = 0
	}

	var b []byte
	b = protowire.AppendTag(b, hostUUID, protowire.BytesType)
	b = protowire.AppendString(b, hostID)
	b = protowire.AppendTag(b, hostChecksum, protowire.BytesType)
	b = protowire.AppendBytes(b, sum[:])
	b = protowire.AppendTag(b, hostTime, protowire.VarintType)
	b = protowire.AppendVarint(b, uint64(secs))
	b = appendMessage(b, hostData, meta)
	return b, nil
}
