package processor

import (
	"errors"
	"fmt"

	"github.com/GabrielNunesIT/log-payload/internal/model"
)

// ErrCallback matches every CallbackError via errors.Is.
var ErrCallback = errors.New("parse callback failed")

// CallbackError reports a failure of the caller-supplied parse callback.
// It is distinct from a schema validation error on the record it returned.
type CallbackError struct {
	// Index is the position of the raw message in the input content.
	Index int
	Err   error
}

func (e *CallbackError) Error() string {
	return fmt.Sprintf("parse callback failed on message %d: %v", e.Index, e.Err)
}

func (e *CallbackError) Unwrap() error {
	return e.Err
}

// Is makes errors.Is(err, ErrCallback) hold for any CallbackError.
func (e *CallbackError) Is(target error) bool {
	return target == ErrCallback
}

// Transformer invokes a Parser once per surviving raw message.
type Transformer struct {
	parser Parser
}

// NewTransformer wraps parser. A nil parser is rejected.
func NewTransformer(parser Parser) (*Transformer, error) {
	if parser == nil {
		return nil, errors.New("parse callback is required")
	}
	return &Transformer{parser: parser}, nil
}

// Transform runs the parser on raw. Errors and panics raised by the parser
// are returned as *CallbackError tagged with index.
func (t *Transformer) Transform(index int, raw model.RawMessage) (rec model.LogRecord, err error) {
	defer func() {
		if r := recover(); r != nil {
			rec = nil
			err = &CallbackError{Index: index, Err: fmt.Errorf("panic: %v", r)}
		}
	}()

	rec, err = t.parser.Parse(raw)
	if err != nil {
		return nil, &CallbackError{Index: index, Err: err}
	}
	return rec, nil
}
