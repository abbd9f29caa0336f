package emitter

import (
	"context"
	"errors"
	"io"
	"sync"

	"github.com/natefinch/lumberjack"

	"github.com/GabrielNunesIT/log-payload/internal/config"
)

// WriterFactory creates a new WriteCloser.
type WriterFactory func(cfg config.SpoolConfig) (io.WriteCloser, error)

// SpoolOption configures the SpoolEmitter.
type SpoolOption func(*SpoolEmitter)

// WithWriterFactory sets a custom factory for creating the writer.
func WithWriterFactory(f WriterFactory) SpoolOption {
	return func(e *SpoolEmitter) {
		e.factory = f
	}
}

// SpoolEmitter appends payloads to rotating spool files, one base64 line each,
// for a separate shipper to pick up.
type SpoolEmitter struct {
	cfg     config.SpoolConfig
	factory WriterFactory
	writer  io.WriteCloser
	mu      sync.Mutex
}

// NewSpoolEmitter creates a new spool emitter.
func NewSpoolEmitter(cfg config.SpoolConfig, opts ...SpoolOption) *SpoolEmitter {
	e := &SpoolEmitter{
		cfg: cfg,
	}

	// Default factory creates lumberjack logger
	e.factory = func(cfg config.SpoolConfig) (io.WriteCloser, error) {
		return &lumberjack.Logger{
			Filename:   cfg.Path,
			MaxSize:    cfg.MaxSizeMB,
			MaxBackups: cfg.MaxBackups,
			MaxAge:     cfg.MaxAgeDays,
			Compress:   cfg.Compress,
		}, nil
	}

	for _, opt := range opts {
		opt(e)
	}

	return e
}

// Name returns the emitter identifier.
func (f *SpoolEmitter) Name() string {
	return "spool"
}

// Start initializes the rotating file writer.
func (f *SpoolEmitter) Start(ctx context.Context) error {
	w, err := f.factory(f.cfg)
	if err != nil {
		return err
	}

	f.mu.Lock()
	f.writer = w
	f.mu.Unlock()
	return nil
}

// Stop closes the file writer.
func (f *SpoolEmitter) Stop(ctx context.Context) error {
	f.mu.Lock()
	defer f.mu.Unlock()

	if f.writer == nil {
		return nil
	}
	err := f.writer.Close()
	f.writer = nil
	return err
}

// Emit appends a payload to the spool.
func (f *SpoolEmitter) Emit(ctx context.Context, payload []byte) error {
	f.mu.Lock()
	defer f.mu.Unlock()

	if f.writer == nil {
		return errors.New("spool emitter not started")
	}

	_, err := f.writer.Write(encodeLine(payload))
	return err
}
