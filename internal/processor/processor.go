// Package processor turns raw log content into structured records.
// It holds the message filter, the callback transformer, the config-driven
// mapping callback and the host metadata enricher.
package processor

import (
	"github.com/GabrielNunesIT/log-payload/internal/model"
)

// Parser maps one raw message to a structured log record.
// Implementations are untrusted: the record they return is validated
// against the schema by the caller.
type Parser interface {
	Parse(raw model.RawMessage) (model.LogRecord, error)
}

// ParseFunc adapts a plain function to the Parser interface.
type ParseFunc func(raw model.RawMessage) (model.LogRecord, error)

// Parse calls f(raw).
func (f ParseFunc) Parse(raw model.RawMessage) (model.LogRecord, error) {
	return f(raw)
}
