package processor

import (
	"fmt"
	"math"
	"time"

	"github.com/GabrielNunesIT/log-payload/internal/config"
	"github.com/GabrielNunesIT/log-payload/internal/model"
)

// Mapper is a Parser driven by configuration. Static fields come from
// MappingConfig; the message and timestamp come from the raw message.
type Mapper struct {
	cfg config.MappingConfig
	now func() time.Time
}

// MapperOption configures a Mapper.
type MapperOption func(*Mapper)

// WithClock sets the time source used when a message carries no timestamp.
func WithClock(now func() time.Time) MapperOption {
	return func(m *Mapper) {
		m.now = now
	}
}

// NewMapper creates a mapping parser.
func NewMapper(cfg config.MappingConfig, opts ...MapperOption) *Mapper {
	m := &Mapper{cfg: cfg, now: time.Now}
	for _, opt := range opts {
		opt(m)
	}
	return m
}

// Name returns the parser identifier.
func (m *Mapper) Name() string {
	return "mapper"
}

// Parse maps raw to a record.
func (m *Mapper) Parse(raw model.RawMessage) (model.LogRecord, error) {
	msg, err := m.message(raw)
	if err != nil {
		return nil, err
	}

	ts, err := m.timestamp(raw)
	if err != nil {
		return nil, err
	}

	rec := model.LogRecord{
		model.FieldMessageTs:     ts.Unix(),
		model.FieldMessageTsUs:   int64(ts.Nanosecond() / 1000),
		model.FieldPriority:      m.cfg.Priority,
		model.FieldProgName:      m.cfg.ProgName,
		model.FieldMessage:       msg,
		model.FieldMessageType:   m.cfg.MessageType,
		model.FieldMessageTypeID: m.cfg.MessageTypeID,
	}
	if m.cfg.Pid > 0 {
		rec[model.FieldPid] = m.cfg.Pid
	}
	return rec, nil
}

func (m *Mapper) message(raw model.RawMessage) (string, error) {
	if raw.IsText() {
		return raw.Text(), nil
	}

	if m.cfg.MessageField != "" {
		if v, ok := raw.Get(m.cfg.MessageField); ok {
			if s, ok := v.(string); ok {
				return s, nil
			}
		}
	}

	data, err := raw.JSON()
	if err != nil {
		return "", fmt.Errorf("serializing message: %w", err)
	}
	return string(data), nil
}

func (m *Mapper) timestamp(raw model.RawMessage) (time.Time, error) {
	if m.cfg.TimestampField == "" {
		return m.now(), nil
	}
	v, ok := raw.Get(m.cfg.TimestampField)
	if !ok {
		return m.now(), nil
	}

	switch ts := v.(type) {
	case float64:
		if math.IsNaN(ts) || math.IsInf(ts, 0) || ts < 0 {
			return time.Time{}, fmt.Errorf("field %q: invalid epoch timestamp %v", m.cfg.TimestampField, ts)
		}
		secs, frac := math.Modf(ts)
		return time.Unix(int64(secs), int64(frac*1e9)), nil
	case string:
		t, err := time.Parse(time.RFC3339Nano, ts)
		if err != nil {
			return time.Time{}, fmt.Errorf("field %q: %w", m.cfg.TimestampField, err)
		}
		return t, nil
	default:
		return time.Time{}, fmt.Errorf("field %q: unsupported timestamp type %T", m.cfg.TimestampField, v)
	}
}
