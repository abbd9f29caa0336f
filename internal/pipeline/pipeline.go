// Package pipeline orchestrates the watch flow: ingest batches of raw
// messages, build one payload per batch and emit it.
package pipeline

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"sync"
	"time"

	"github.com/rs/zerolog"
	"golang.org/x/sync/errgroup"

	"github.com/GabrielNunesIT/log-payload/internal/config"
	"github.com/GabrielNunesIT/log-payload/internal/emitter"
	"github.com/GabrielNunesIT/log-payload/internal/ingestor"
	"github.com/GabrielNunesIT/log-payload/internal/metrics"
	"github.com/GabrielNunesIT/log-payload/internal/payload"
	"github.com/GabrielNunesIT/log-payload/internal/processor"
	"github.com/GabrielNunesIT/log-payload/internal/schema"
)

// shutdownTimeout bounds emitter shutdown.
const shutdownTimeout = 5 * time.Second

// stage is everything a build needs that comes from configuration.
// It is replaced as a whole on reconfiguration.
type stage struct {
	builder      *payload.Builder
	parser       processor.Parser
	enricher     *processor.Enricher
	filterJSON   *processor.Match
	filterRegexp string
}

// Pipeline coordinates an ingestor, the payload builder and an emitter.
type Pipeline struct {
	cfg    *config.Config
	logger zerolog.Logger
	mu     sync.RWMutex

	ingestor ingestor.Ingestor
	emitter  emitter.Emitter
	metrics  *metrics.Metrics
	now      func() time.Time

	stage *stage
}

// Option configures a Pipeline.
type Option func(*Pipeline)

// WithIngestor replaces the directory ingestor.
func WithIngestor(i ingestor.Ingestor) Option {
	return func(p *Pipeline) {
		p.ingestor = i
	}
}

// WithEmitter replaces the spool emitter.
func WithEmitter(e emitter.Emitter) Option {
	return func(p *Pipeline) {
		p.emitter = e
	}
}

// WithMetrics sets the metrics sink.
func WithMetrics(m *metrics.Metrics) Option {
	return func(p *Pipeline) {
		p.metrics = m
	}
}

// WithClock sets the time source for host and record timestamps.
func WithClock(now func() time.Time) Option {
	return func(p *Pipeline) {
		p.now = now
	}
}

// New creates a new pipeline from configuration.
func New(cfg *config.Config, log zerolog.Logger, opts ...Option) (*Pipeline, error) {
	p := &Pipeline{
		cfg:    cfg,
		logger: log.With().Str("component", "Pipeline").Logger(),
		now:    time.Now,
	}
	for _, opt := range opts {
		opt(p)
	}

	if p.metrics == nil {
		p.metrics = metrics.New()
	}

	if p.ingestor == nil && cfg.Watch.Dir != "" {
		p.ingestor = ingestor.NewDirIngestor(cfg.Watch, log)
	}
	if p.emitter == nil {
		p.emitter = emitter.NewSpoolEmitter(cfg.Spool)
	}

	st, err := p.buildStage(cfg)
	if err != nil {
		return nil, fmt.Errorf("building stage: %w", err)
	}
	p.stage = st

	return p, nil
}

// buildStage derives the build configuration.
func (p *Pipeline) buildStage(cfg *config.Config) (*stage, error) {
	comp, err := payload.NewCompressor(cfg.Payload.Compression, cfg.Payload.Level)
	if err != nil {
		return nil, err
	}

	var match *processor.Match
	if cfg.Filter.JSON.Enabled() {
		match = &processor.Match{Key: cfg.Filter.JSON.Key, Value: cfg.Filter.JSON.Value}
	}
	if _, err := processor.NewFilter(match, cfg.Filter.Regexp); err != nil {
		return nil, err
	}

	return &stage{
		builder: payload.NewBuilder(
			payload.WithMaxBytes(cfg.Payload.MaxBytes),
			payload.WithCompressor(comp),
			payload.WithWorkers(cfg.Payload.Workers),
			payload.WithClock(p.now),
			payload.WithLogger(p.logger),
		),
		parser:       processor.NewMapper(cfg.Mapping, processor.WithClock(p.now)),
		enricher:     processor.NewEnricher(p.sourceConfig(cfg.Source)),
		filterJSON:   match,
		filterRegexp: cfg.Filter.Regexp,
	}, nil
}

// sourceConfig keeps a generated host id stable across reconfiguration:
// while hostid stays "auto", the id generated at startup is reused.
func (p *Pipeline) sourceConfig(src config.SourceConfig) config.SourceConfig {
	if src.HostID != processor.AutoHostID {
		return src
	}

	p.mu.RLock()
	defer p.mu.RUnlock()
	if p.stage != nil && p.cfg.Source.HostID == processor.AutoHostID {
		src.HostID = p.stage.enricher.HostID()
	}
	return src
}

// Run starts the pipeline and blocks until context is cancelled or the
// ingestor is exhausted.
func (p *Pipeline) Run(ctx context.Context) error {
	if p.ingestor == nil {
		return errors.New("no ingestor: watch.dir is required")
	}
	if err := p.emitter.Start(ctx); err != nil {
		return fmt.Errorf("starting emitter %s: %w", p.emitter.Name(), err)
	}
	p.logger.Debug().Str("emitter", p.emitter.Name()).Msg("started emitter")

	g, gCtx := errgroup.WithContext(ctx)
	batches := make(chan ingestor.Batch)

	g.Go(func() error {
		p.logger.Debug().Str("ingestor", p.ingestor.Name()).Msg("started ingestor")
		return p.ingestor.Start(gCtx, batches)
	})

	drained := make(chan struct{})
	g.Go(func() error {
		defer close(drained)
		for batch := range batches {
			// A bad batch is reported and skipped; watching continues.
			_ = p.Process(gCtx, batch)
		}
		return nil
	})

	if addr := p.cfg.Watch.MetricsAddress; addr != "" {
		p.serveMetrics(gCtx, g, addr, drained)
	}

	// Wait for all goroutines to complete
	err := g.Wait()

	// Graceful shutdown
	p.shutdown()

	return err
}

// serveMetrics runs the metrics endpoint until the batch loop ends or ctx is
// cancelled.
func (p *Pipeline) serveMetrics(ctx context.Context, g *errgroup.Group, addr string, done <-chan struct{}) {
	mux := http.NewServeMux()
	mux.Handle("/metrics", p.metrics.Handler())
	srv := &http.Server{Addr: addr, Handler: mux, ReadHeaderTimeout: 5 * time.Second}

	g.Go(func() error {
		p.logger.Info().Str("address", addr).Msg("serving metrics")
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return fmt.Errorf("metrics server: %w", err)
		}
		return nil
	})

	g.Go(func() error {
		select {
		case <-ctx.Done():
		case <-done:
		}
		shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
		defer cancel()
		return srv.Shutdown(shutdownCtx)
	})
}

// shutdown gracefully stops the emitter.
func (p *Pipeline) shutdown() {
	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()

	if err := p.emitter.Stop(shutdownCtx); err != nil {
		p.logger.Warn().Err(err).Str("emitter", p.emitter.Name()).Msg("emitter stop error")
	}
	p.logger.Debug().Msg("emitter stopped")
}

// Process builds and emits the payload of one batch.
func (p *Pipeline) Process(ctx context.Context, batch ingestor.Batch) error {
	p.mu.RLock()
	st := p.stage
	p.mu.RUnlock()

	start := time.Now()
	res, err := st.builder.Build(ctx, payload.Params{
		HostID:       st.enricher.HostID(),
		SourceID:     st.enricher.SourceID(),
		HostMeta:     st.enricher.HostMeta(),
		Content:      batch.Messages,
		Parse:        st.parser,
		FilterJSON:   st.filterJSON,
		FilterRegexp: st.filterRegexp,
	})
	if err != nil {
		p.metrics.BuildFailed(FailureReason(err), time.Since(start))
		p.logger.Error().Err(err).Str("source", batch.Source).Int("messages", len(batch.Messages)).Msg("payload build failed")
		return err
	}

	if err := p.emitter.Emit(ctx, res.Payload); err != nil {
		p.metrics.BuildFailed(metrics.ReasonEmit, time.Since(start))
		p.logger.Error().Err(err).Str("emitter", p.emitter.Name()).Msg("emit failed")
		return fmt.Errorf("emitting payload: %w", err)
	}

	p.metrics.BuildSucceeded(res.Records, res.Skipped, len(res.Payload), time.Since(start))
	p.logger.Info().
		Str("source", batch.Source).
		Int("records", res.Records).
		Int("skipped", res.Skipped).
		Int("bytes", len(res.Payload)).
		Msg("payload emitted")
	return nil
}

// BuildOnce starts the emitter, processes a single batch and stops the
// emitter. Unlike Run it returns the build error.
func (p *Pipeline) BuildOnce(ctx context.Context, batch ingestor.Batch) error {
	if err := p.emitter.Start(ctx); err != nil {
		return fmt.Errorf("starting emitter %s: %w", p.emitter.Name(), err)
	}
	defer p.shutdown()

	return p.Process(ctx, batch)
}

// FailureReason classifies a build error for metrics.
func FailureReason(err error) string {
	switch {
	case errors.Is(err, schema.ErrValidation):
		return metrics.ReasonSchema
	case errors.Is(err, processor.ErrCallback):
		return metrics.ReasonCallback
	case errors.Is(err, payload.ErrPayloadTooLarge):
		return metrics.ReasonTooLarge
	default:
		return metrics.ReasonOther
	}
}

// Reconfigure applies a new configuration to subsequent builds.
// Watch and spool settings only take effect after a restart.
func (p *Pipeline) Reconfigure(newCfg *config.Config) error {
	st, err := p.buildStage(newCfg)
	if err != nil {
		p.metrics.ConfigReloaded(false)
		return fmt.Errorf("reconfiguring: %w", err)
	}

	p.mu.Lock()
	defer p.mu.Unlock()

	oldCfg := p.cfg
	if oldCfg.Watch.Dir != newCfg.Watch.Dir || oldCfg.Watch.Pattern != newCfg.Watch.Pattern || oldCfg.Spool != newCfg.Spool {
		p.logger.Warn().Msg("watch and spool changes apply after restart")
	}

	p.cfg = newCfg
	p.stage = st
	p.metrics.ConfigReloaded(true)

	p.logger.Info().
		Str("compression", newCfg.Payload.Compression).
		Int("maxbytes", newCfg.Payload.MaxBytes).
		Msg("configuration applied")
	return nil
}

// Metrics returns the metrics sink.
func (p *Pipeline) Metrics() *metrics.Metrics {
	return p.metrics
}
