package schema

import (
	"github.com/GabrielNunesIT/log-payload/internal/model"
)

// EncodeRecord validates a structured log record and returns its encoding.
// Fields are checked in declaration order; the first failure is returned.
// Optional fields are omitted when absent and never defaulted.
func EncodeRecord(rec model.LogRecord) ([]byte, error) {
	b, err := AppendRecord(nil, rec)
	if err != nil {
		return nil, err
	}
	return b, nil
}

// AppendRecord is EncodeRecord appending to b. On error b is returned unchanged.
func AppendRecord(b []byte, rec model.LogRecord) ([]byte, error) {
	start := len(b)
	for _, f := range RecordFields {
		v, _ := rec.Get(f.Name)

		var err error
		b, err = AppendField(b, f, v)
		if err != nil {
			return b[:start], err
		}
	}
	return b, nil
}

// SizeRecord validates rec like EncodeRecord and returns its encoded size
// without encoding it.
func SizeRecord(rec model.LogRecord) (int, error) {
	size := 0
	for _, f := range RecordFields {
		v, _ := rec.Get(f.Name)

		n, err := SizeField(f, v)
		if err != nil {
			return 0, err
		}
		size += n
	}
	return size, nil
}
