// Package payload assembles validated log records and host metadata into a
// single compressed envelope.
//
// A build is all or nothing: it returns a complete payload or exactly one
// error, and never both.
package payload

import (
	"context"
	"time"

	"github.com/rs/zerolog"
	"golang.org/x/sync/errgroup"

	"github.com/GabrielNunesIT/log-payload/internal/model"
	"github.com/GabrielNunesIT/log-payload/internal/processor"
	"github.com/GabrielNunesIT/log-payload/internal/schema"
)

// DefaultMaxBytes bounds the uncompressed envelope when no limit is configured.
const DefaultMaxBytes = 700000

// windowSize is the number of records transformed ahead of parallel encoding.
const windowSize = 256

// Params are the inputs of one build.
type Params struct {
	HostID   string
	SourceID string
	HostMeta []model.HostMetaElement
	Content  []model.RawMessage
	Parse    processor.Parser

	// At most one filter may be set.
	FilterJSON   *processor.Match
	FilterRegexp string
}

// Result is a successful build.
type Result struct {
	Payload []byte

	// Records is the number of encoded records, Skipped the number filtered out.
	Records int
	Skipped int
	// Size is the uncompressed envelope size.
	Size int
}

// Builder builds payloads. It holds configuration only, so one Builder may
// serve concurrent builds.
type Builder struct {
	maxBytes   int
	compressor Compressor
	now        func() time.Time
	workers    int
	logger     zerolog.Logger
}

// Option configures a Builder.
type Option func(*Builder)

// WithMaxBytes sets the envelope size bound. n <= 0 disables it.
func WithMaxBytes(n int) Option {
	return func(b *Builder) {
		b.maxBytes = n
	}
}

// WithCompressor replaces the default zlib compressor.
func WithCompressor(c Compressor) Option {
	return func(b *Builder) {
		b.compressor = c
	}
}

// WithClock sets the source of the host timestamp. The default clock
// always reports the Unix epoch, so builds are a pure function of Params.
func WithClock(now func() time.Time) Option {
	return func(b *Builder) {
		b.now = now
	}
}

// WithWorkers encodes records on up to n goroutines. Parse callbacks still
// run one at a time in input order and stop at the first failing record.
func WithWorkers(n int) Option {
	return func(b *Builder) {
		b.workers = n
	}
}

// WithLogger sets the debug logger.
func WithLogger(log zerolog.Logger) Option {
	return func(b *Builder) {
		b.logger = log
	}
}

// NewBuilder creates a Builder with defaults: DefaultMaxBytes, zlib at the
// default level, sequential encoding, no logging.
func NewBuilder(opts ...Option) *Builder {
	b := &Builder{
		maxBytes:   DefaultMaxBytes,
		compressor: zlibCompressor{level: -1},
		now:        func() time.Time { return time.Unix(0, 0) },
		workers:    1,
		logger:     zerolog.Nop(),
	}
	for _, opt := range opts {
		opt(b)
	}
	b.logger = b.logger.With().Str("component", "PayloadBuilder").Logger()
	return b
}

// BuildPayload builds p with a default Builder.
func BuildPayload(ctx context.Context, p Params) (*Result, error) {
	return NewBuilder().Build(ctx, p)
}

// build is the state of one Build call.
type build struct {
	filter      *processor.Filter
	transformer *processor.Transformer
	asm         *Assembler
	skipped     int
}

// Build filters, transforms, validates and encodes p.Content, then
// compresses the envelope.
func (b *Builder) Build(ctx context.Context, p Params) (*Result, error) {
	filter, err := processor.NewFilter(p.FilterJSON, p.FilterRegexp)
	if err != nil {
		return nil, err
	}
	transformer, err := processor.NewTransformer(p.Parse)
	if err != nil {
		return nil, err
	}

	host, err := schema.EncodeHost(p.HostID, p.HostMeta, b.now())
	if err != nil {
		return nil, err
	}
	asm, err := NewAssembler(p.SourceID, host, b.maxBytes)
	if err != nil {
		return nil, err
	}

	st := &build{filter: filter, transformer: transformer, asm: asm}
	if b.workers > 1 {
		err = b.encodeParallel(ctx, st, p.Content)
	} else {
		err = b.encodeSequential(ctx, st, p.Content)
	}
	if err != nil {
		b.logger.Debug().Err(err).Int("records", asm.Records()).Msg("build aborted")
		return nil, err
	}

	envelope := asm.Bytes()
	out, err := b.compressor.Compress(envelope)
	if err != nil {
		return nil, err
	}

	b.logger.Debug().
		Int("records", asm.Records()).
		Int("skipped", st.skipped).
		Int("size", len(envelope)).
		Int("compressed", len(out)).
		Str("filter", filter.Name()).
		Msg("payload built")

	return &Result{
		Payload: out,
		Records: asm.Records(),
		Skipped: st.skipped,
		Size:    len(envelope),
	}, nil
}

func (b *Builder) encodeSequential(ctx context.Context, st *build, content []model.RawMessage) error {
	var scratch []byte
	for i, raw := range content {
		if err := ctx.Err(); err != nil {
			return err
		}
		if !st.filter.Match(raw) {
			st.skipped++
			continue
		}

		rec, err := st.transformer.Transform(i, raw)
		if err != nil {
			return err
		}
		scratch, err = schema.AppendRecord(scratch[:0], rec)
		if err != nil {
			b.logger.Debug().Int("index", i).Err(err).Msg("record rejected")
			return err
		}
		if err := st.asm.Append(scratch); err != nil {
			return err
		}
	}
	return nil
}

// encodeParallel transforms and validates a window of records in input
// order, encodes the window concurrently, then appends it in input order.
// Each record is validated and admitted against the size bound before the
// next callback runs, so the callback sees exactly the calls a sequential
// build makes and the same first error is returned.
func (b *Builder) encodeParallel(ctx context.Context, st *build, content []model.RawMessage) error {
	type slot struct {
		rec model.LogRecord
		enc []byte
	}

	window := make([]slot, 0, windowSize)
	for start := 0; start < len(content); {
		window = window[:0]

		i := start
		for ; i < len(content) && len(window) < windowSize; i++ {
			if err := ctx.Err(); err != nil {
				return err
			}
			raw := content[i]
			if !st.filter.Match(raw) {
				st.skipped++
				continue
			}
			rec, err := st.transformer.Transform(i, raw)
			if err != nil {
				return err
			}
			n, err := schema.SizeRecord(rec)
			if err != nil {
				b.logger.Debug().Int("index", i).Err(err).Msg("record rejected")
				return err
			}
			if err := st.asm.Reserve(n); err != nil {
				return err
			}
			window = append(window, slot{rec: rec})
		}
		start = i

		g, gctx := errgroup.WithContext(ctx)
		g.SetLimit(b.workers)
		for j := range window {
			s := &window[j]
			g.Go(func() error {
				if err := gctx.Err(); err != nil {
					return err
				}
				enc, err := schema.EncodeRecord(s.rec)
				s.enc = enc
				return err
			})
		}
		if err := g.Wait(); err != nil {
			return err
		}

		for j := range window {
			st.asm.AppendReserved(window[j].enc)
		}
	}
	return nil
}
