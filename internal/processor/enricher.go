package processor

import (
	"os"

	"github.com/google/uuid"

	"github.com/GabrielNunesIT/log-payload/internal/config"
	"github.com/GabrielNunesIT/log-payload/internal/model"
)

// AutoHostID asks the enricher to generate a random host id.
const AutoHostID = "auto"

// Enricher derives the host id and host metadata of a payload from SourceConfig.
type Enricher struct {
	cfg      config.SourceConfig
	hostname string
	hostID   string
}

// NewEnricher creates a host enricher. The hostname is looked up once.
func NewEnricher(cfg config.SourceConfig) *Enricher {
	e := &Enricher{cfg: cfg, hostID: cfg.HostID}

	// Pre-fetch hostname
	if cfg.AddHostname {
		e.hostname, _ = os.Hostname()
	}

	if cfg.HostID == AutoHostID {
		e.hostID = uuid.NewString()
	}

	return e
}

// WithHostname creates an Enricher that reports a specific hostname.
// Useful for testing or when overriding the detected hostname.
func WithHostname(cfg config.SourceConfig, hostname string) *Enricher {
	e := NewEnricher(cfg)
	e.hostname = hostname
	return e
}

// Name returns the processor identifier.
func (e *Enricher) Name() string {
	return "enricher"
}

// HostID returns the configured host id, or the generated one for "auto".
func (e *Enricher) HostID() string {
	return e.hostID
}

// SourceID returns the configured source id.
func (e *Enricher) SourceID() string {
	return e.cfg.SourceID
}

// HostMeta returns the ordered metadata elements: local hostname, host type,
// then the configured elements. Configured keys override the derived ones.
func (e *Enricher) HostMeta() []model.HostMetaElement {
	configured := make(map[string]bool, len(e.cfg.HostMeta))
	for _, h := range e.cfg.HostMeta {
		configured[h.Key] = true
	}

	var elems []model.HostMetaElement
	if e.cfg.AddHostname && e.hostname != "" && !configured[model.HostMetaLocalHostname] {
		elems = append(elems, model.HostMetaString(model.HostMetaLocalHostname, e.hostname))
	}
	if e.cfg.HostType != "" && !configured[model.HostMetaHostType] {
		elems = append(elems, model.HostMetaString(model.HostMetaHostType, e.cfg.HostType))
	}
	for _, h := range e.cfg.HostMeta {
		elems = append(elems, HostMetaElement(h))
	}
	return elems
}

// HostMetaElement converts one configured element. Pointers are copied so
// the result does not alias the configuration.
func HostMetaElement(h config.HostMetaConfig) model.HostMetaElement {
	var v model.Value
	if h.Str != nil {
		s := *h.Str
		v.Str = &s
	}
	if h.Int != nil {
		i := *h.Int
		v.Int = &i
	}
	if h.Bool != nil {
		b := *h.Bool
		v.Bool = &b
	}
	if h.Double != nil {
		d := *h.Double
		v.Double = &d
	}
	return model.HostMetaElement{Key: h.Key, Value: v}
}
