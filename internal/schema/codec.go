package schema

import (
	"encoding/json"
	"math"

	"google.golang.org/protobuf/encoding/protowire"
)

// scalar is a field value checked against its descriptor.
type scalar struct {
	s string
	p []byte
	u uint64
}

// check validates v against f. A nil v is absent: present is false for an
// optional field and a required one fails.
func (f Field) check(v any) (val scalar, present bool, err error) {
	if v == nil {
		if f.Required {
			return val, false, f.invalid()
		}
		return val, false, nil
	}

	switch f.Kind {
	case KindString:
		s, ok := v.(string)
		if !ok || (f.NonEmpty && s == "") {
			return val, false, f.invalid()
		}
		val.s = s
	case KindBytes:
		p, ok := v.([]byte)
		if !ok {
			return val, false, f.invalid()
		}
		val.p = p
	case KindInt32:
		n, ok := asInt64(v)
		if !ok || n < math.MinInt32 || n > math.MaxUint32 {
			return val, false, f.invalid()
		}
		val.u = uint64(uint32(n))
	case KindInt64, KindUint64:
		u, ok := asUint64Bits(v)
		if !ok {
			return val, false, f.invalid()
		}
		val.u = u
	default:
		return val, false, f.invalid()
	}
	return val, true, nil
}

// AppendField validates v against f and appends its wire encoding to b.
// On error b is returned unchanged.
func AppendField(b []byte, f Field, v any) ([]byte, error) {
	val, present, err := f.check(v)
	if err != nil || !present {
		return b, err
	}

	switch f.Kind {
	case KindString:
		b = protowire.AppendTag(b, f.Number, protowire.BytesType)
		return protowire.AppendString(b, val.s), nil
	case KindBytes:
		b = protowire.AppendTag(b, f.Number, protowire.BytesType)
		return protowire.AppendBytes(b, val.p), nil
	case KindInt32:
		b = protowire.AppendTag(b, f.Number, protowire.Fixed32Type)
		return protowire.AppendFixed32(b, uint32(val.u)), nil
	case KindInt64:
		b = protowire.AppendTag(b, f.Number, protowire.Fixed64Type)
		return protowire.AppendFixed64(b, val.u), nil
	default:
		b = protowire.AppendTag(b, f.Number, protowire.VarintType)
		return protowire.AppendVarint(b, val.u), nil
	}
}

// SizeField validates v against f and returns the size AppendField would add.
func SizeField(f Field, v any) (int, error) {
	val, present, err := f.check(v)
	if err != nil || !present {
		return 0, err
	}

	n := protowire.SizeTag(f.Number)
	switch f.Kind {
	case KindString:
		return n + protowire.SizeBytes(len(val.s)), nil
	case KindBytes:
		return n + protowire.SizeBytes(len(val.p)), nil
	case KindInt32:
		return n + protowire.SizeFixed32(), nil
	case KindInt64:
		return n + protowire.SizeFixed64(), nil
	default:
		return n + protowire.SizeVarint(val.u), nil
	}
}

func (f Field) invalid() *ValidationError {
	return &ValidationError{Field: f.Name, Expected: f.Kind.Expected()}
}

// asInt64 accepts every Go integer kind, integral floats (JSON numbers)
// and json.Number.
func asInt64(v any) (int64, bool) {
	switch n := v.(type) {
	case int:
		return int64(n), true
	case int8:
		return int64(n), true
	case int16:
		return int64(n), true
	case int32:
		return int64(n), true
	case int64:
		return n, true
	case uint:
		if uint64(n) > math.MaxInt64 {
			return 0, false
		}
		return int64(n), true
	case uint8:
		return int64(n), true
	case uint16:
		return int64(n), true
	case uint32:
		return int64(n), true
	case uint64:
		if n > math.MaxInt64 {
			return 0, false
		}
		return int64(n), true
	case float32:
		return integralFloat(float64(n))
	case float64:
		return integralFloat(n)
	case json.Number:
		i, err := n.Int64()
		return i, err == nil
	}
	return 0, false
}

// asUint64Bits is asInt64 widened to the full uint64 range, returning
// two's complement bits for negative values.
func asUint64Bits(v any) (uint64, bool) {
	switch n := v.(type) {
	case uint64:
		return n, true
	case uint:
		return uint64(n), true
	}
	i, ok := asInt64(v)
	return uint64(i), ok
}

func integralFloat(f float64) (int64, bool) {
	if math.IsNaN(f) || math.IsInf(f, 0) || f != math.Trunc(f) {
		return 0, false
	}
	if f < -(1<<63) || f >= 1<<63 {
		return 0, false
	}
	return int64(f), true
}

// appendMessage appends a length-delimited nested message.
func appendMessage(b []byte, num protowire.Number, msg []byte) []byte {
	b = protowire.AppendTag(b, num, protowire.BytesType)
	return protowire.AppendBytes(b, msg)
}

// sizeMessage is the encoded size of a nested message of n bytes.
func sizeMessage(num protowire.Number, n int) int {
	return protowire.SizeTag(num) + protowire.SizeBytes(n)
}
