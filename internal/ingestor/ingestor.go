// Package ingestor defines the interface and implementations for raw message sources.
package ingestor

import (
	"context"

	"github.com/GabrielNunesIT/log-payload/internal/model"
)

// Batch is the raw content read from one source in one go.
// Each batch becomes one payload.
type Batch struct {
	// Source identifies where the messages came from, e.g. a file path.
	Source   string
	Messages []model.RawMessage
}

// Ingestor defines the contract for raw message sources.
// Each ingestor runs in its own goroutine and pushes batches to the output channel.
type Ingestor interface {
	// Start begins ingesting and sends batches to the output channel.
	// It blocks until the context is cancelled, the source is exhausted or an
	// unrecoverable error occurs. The implementation must close the output channel when done.
	Start(ctx context.Context, out chan<- Batch) error

	// Name returns a unique identifier for this ingestor instance.
	Name() string
}
