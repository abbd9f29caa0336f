package ingestor

import (
	"context"
	"io"
	"os"

	"github.com/rs/zerolog"
)

// ReaderIngestor reads one batch of messages from a reader, stdin by default.
type ReaderIngestor struct {
	name   string
	reader io.Reader // Allows injection for testing
	logger zerolog.Logger
}

// NewStdinIngestor creates an ingestor reading standard input.
func NewStdinIngestor(log zerolog.Logger) *ReaderIngestor {
	return NewReaderIngestor("stdin", os.Stdin, log)
}

// NewReaderIngestor creates an ingestor reading from a custom reader.
func NewReaderIngestor(name string, reader io.Reader, log zerolog.Logger) *ReaderIngestor {
	return &ReaderIngestor{
		name:   name,
		reader: reader,
		logger: log.With().Str("component", "ReaderIngestor").Str("source", name).Logger(),
	}
}

// Name returns the ingestor identifier.
func (s *ReaderIngestor) Name() string {
	return s.name
}

// Start reads until EOF and sends everything read as a single batch.
func (s *ReaderIngestor) Start(ctx context.Context, out chan<- Batch) error {
	defer close(out)

	s.logger.Debug().Msg("reading messages")

	msgs, err := ReadMessages(s.reader)
	if err != nil {
		s.logger.Error().Err(err).Msg("read error")
		return err
	}

	s.logger.Info().Int("messages", len(msgs)).Msg("EOF reached")
	if len(msgs) == 0 {
		return nil
	}

	select {
	case out <- Batch{Source: s.name, Messages: msgs}:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}
