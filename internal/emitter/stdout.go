package emitter

import (
	"context"
	"io"
	"sync"

	"github.com/rs/zerolog"
)

// StdoutEmitter writes payloads to standard output, base64 encoded or raw.
type StdoutEmitter struct {
	raw    bool
	writer io.Writer
	mu     sync.Mutex
	logger zerolog.Logger
}

// NewStdoutEmitter creates an emitter writing to w, normally stdout.
// With raw set, payload bytes are written unmodified.
func NewStdoutEmitter(w io.Writer, raw bool, log zerolog.Logger) *StdoutEmitter {
	return &StdoutEmitter{
		raw:    raw,
		writer: w,
		logger: log.With().Str("component", "StdoutEmitter").Logger(),
	}
}

// Name returns the emitter identifier.
func (s *StdoutEmitter) Name() string {
	return "stdout"
}

// Start initializes the emitter (no-op for stdout).
func (s *StdoutEmitter) Start(ctx context.Context) error {
	s.logger.Debug().Bool("raw", s.raw).Msg("stdout emitter started")
	return nil
}

// Stop gracefully shuts down the emitter (no-op for stdout).
func (s *StdoutEmitter) Stop(ctx context.Context) error {
	s.logger.Debug().Msg("stdout emitter stopped")
	return nil
}

// Emit writes a payload.
func (s *StdoutEmitter) Emit(ctx context.Context, payload []byte) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.raw {
		_, err := s.writer.Write(payload)
		return err
	}
	_, err := s.writer.Write(encodeLine(payload))
	return err
}
