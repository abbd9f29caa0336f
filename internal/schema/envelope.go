package schema

import (
	"google.golang.org/protobuf/encoding/protowire"
)

// AppendBatchHeader appends the batch fields that precede the records:
// the source id and the encoded host header.
func AppendBatchHeader(b []byte, sourceID string, host []byte) []byte {
	b = protowire.AppendTag(b, batchSourceID, protowire.BytesType)
	b = protowire.AppendString(b, sourceID)
	return appendMessage(b, batchHost, host)
}

// AppendBatchRecord appends one encoded record to a batch body.
func AppendBatchRecord(b []byte, rec []byte) []byte {
	return appendMessage(b, batchMessage, rec)
}

// SizeBatchRecord is the number of bytes AppendBatchRecord adds for a record of n bytes.
func SizeBatchRecord(n int) int {
	return sizeMessage(batchMessage, n)
}

// AppendEnvelope wraps a batch body as the single element of the batch list.
func AppendEnvelope(b []byte, batch []byte) []byte {
	return appendMessage(b, listElem, batch)
}

// SizeEnvelope is the size of the envelope around a batch body of n bytes.
func SizeEnvelope(n int) int {
	return sizeMessage(listElem, n)
}
