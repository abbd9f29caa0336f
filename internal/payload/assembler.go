package payload

import (
	"github.com/GabrielNunesIT/log-payload/internal/schema"
)

// Assembler accumulates encoded records behind a batch header and enforces
// the bound on the uncompressed envelope size. One Assembler serves one build.
type Assembler struct {
	body     []byte
	maxBytes int
	records  int

	// reserved counts body bytes admitted by Reserve but not yet appended.
	reserved int
}

// NewAssembler starts a batch with the source id and encoded host header.
// maxBytes <= 0 disables the bound. It fails if the header alone is too large.
func NewAssembler(sourceID string, host []byte, maxBytes int) (*Assembler, error) {
	a := &Assembler{
		body:     schema.AppendBatchHeader(nil, sourceID, host),
		maxBytes: maxBytes,
	}
	if err := a.check(a.Size()); err != nil {
		return nil, err
	}
	return a, nil
}

// Append adds one encoded record. If the envelope would exceed the bound
// the record is not added and a *TooLargeError is returned.
func (a *Assembler) Append(rec []byte) error {
	next := schema.SizeEnvelope(len(a.body) + schema.SizeBatchRecord(len(rec)))
	if err := a.check(next); err != nil {
		return err
	}
	a.body = schema.AppendBatchRecord(a.body, rec)
	a.records++
	return nil
}

// Reserve admits a record of n encoded bytes against the bound before it
// is encoded. The error is the one Append would return for that record.
// Reserved records must be added in order with AppendReserved.
func (a *Assembler) Reserve(n int) error {
	grow := schema.SizeBatchRecord(n)
	if err := a.check(schema.SizeEnvelope(len(a.body) + a.reserved + grow)); err != nil {
		return err
	}
	a.reserved += grow
	return nil
}

// AppendReserved adds a record previously admitted by Reserve.
func (a *Assembler) AppendReserved(rec []byte) {
	a.reserved -= schema.SizeBatchRecord(len(rec))
	a.body = schema.AppendBatchRecord(a.body, rec)
	a.records++
}

func (a *Assembler) check(size int) error {
	if a.maxBytes > 0 && size > a.maxBytes {
		return &TooLargeError{Limit: a.maxBytes, Size: size}
	}
	return nil
}

// Size is the current uncompressed envelope size.
func (a *Assembler) Size() int {
	return schema.SizeEnvelope(len(a.body))
}

// Records returns the number of appended records.
func (a *Assembler) Records() int {
	return a.records
}

// Bytes returns the complete envelope.
func (a *Assembler) Bytes() []byte {
	return schema.AppendEnvelope(make([]byte, 0, a.Size()), a.body)
}
