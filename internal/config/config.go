// Package config provides configuration loading with layered overrides.
// Load order: defaults -> YAML file -> environment variables.
package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/knadh/koanf/parsers/json"
	"github.com/knadh/koanf/parsers/yaml"
	"github.com/knadh/koanf/providers/env"
	"github.com/knadh/koanf/providers/file"
	"github.com/knadh/koanf/providers/structs"
	"github.com/knadh/koanf/v2"
)

// EnvPrefix is the prefix of environment variable overrides.
// LOG_PAYLOAD_PAYLOAD_MAXBYTES -> payload.maxbytes
const EnvPrefix = "LOG_PAYLOAD_"

// DefaultMaxPayloadBytes is the default bound on the uncompressed envelope.
const DefaultMaxPayloadBytes = 700000

// Compression algorithms.
const (
	CompressionZlib = "zlib"
	CompressionGzip = "gzip"
)

// Config is the root configuration structure.
type Config struct {
	LogLevel string        `koanf:"loglevel"`
	Payload  PayloadConfig `koanf:"payload"`
	Source   SourceConfig  `koanf:"source"`
	Filter   FilterConfig  `koanf:"filter"`
	Mapping  MappingConfig `koanf:"mapping"`
	Spool    SpoolConfig   `koanf:"spool"`
	Watch    WatchConfig   `koanf:"watch"`
}

// PayloadConfig controls envelope assembly and compression.
type PayloadConfig struct {
	MaxBytes    int    `koanf:"maxbytes"`    // <= 0 disables the bound
	Compression string `koanf:"compression"` // "zlib" or "gzip"
	Level       int    `koanf:"level"`       // -1 is the library default
	Workers     int    `koanf:"workers"`
}

// SourceConfig describes the reporting host and log source.
type SourceConfig struct {
	HostID      string           `koanf:"hostid"` // "auto" generates a random id
	SourceID    string           `koanf:"sourceid"`
	AddHostname bool             `koanf:"addhostname"`
	HostType    string           `koanf:"hosttype"`
	HostMeta    []HostMetaConfig `koanf:"hostmeta"`
}

// HostMetaConfig is one host metadata element. Exactly one value field should be set.
type HostMetaConfig struct {
	Key    string   `koanf:"key"`
	Str    *string  `koanf:"str"`
	Int    *int64   `koanf:"int"`
	Bool   *bool    `koanf:"bool"`
	Double *float64 `koanf:"double"`
}

// FilterConfig selects at most one message filter.
type FilterConfig struct {
	JSON   JSONFilterConfig `koanf:"json"`
	Regexp string           `koanf:"regexp"`
}

// JSONFilterConfig keeps object messages whose Key equals Value.
type JSONFilterConfig struct {
	Key   string `koanf:"key"`
	Value any    `koanf:"value"`
}

// Enabled reports whether a JSON filter is configured.
func (c JSONFilterConfig) Enabled() bool {
	return c.Key != ""
}

// MappingConfig configures the built-in raw message to record mapping.
type MappingConfig struct {
	ProgName       string `koanf:"progname"`
	Priority       int    `koanf:"priority"`
	Pid            int    `koanf:"pid"` // 0 omits the field
	MessageType    string `koanf:"messagetype"`
	MessageTypeID  string `koanf:"messagetypeid"`
	MessageField   string `koanf:"messagefield"`   // object field used as message text
	TimestampField string `koanf:"timestampfield"` // object field holding the event time
}

// SpoolConfig configures the rotating payload spool.
type SpoolConfig struct {
	Path       string `koanf:"path"`
	MaxSizeMB  int    `koanf:"maxsizemb"`
	MaxBackups int    `koanf:"maxbackups"`
	MaxAgeDays int    `koanf:"maxagedays"`
	Compress   bool   `koanf:"compress"`
}

// WatchConfig configures the directory watch pipeline.
type WatchConfig struct {
	Dir            string        `koanf:"dir"`
	Pattern        string        `koanf:"pattern"`
	Exclude        []string      `koanf:"exclude"`
	Debounce       time.Duration `koanf:"debounce"`
	MetricsAddress string        `koanf:"metricsaddress"`
}

// defaults returns the default configuration values.
func defaults() Config {
	return Config{
		LogLevel: "info",
		Payload: PayloadConfig{
			MaxBytes:    DefaultMaxPayloadBytes,
			Compression: CompressionZlib,
			Level:       -1,
			Workers:     1,
		},
		Source: SourceConfig{
			AddHostname: true,
		},
		Mapping: MappingConfig{
			ProgName:      "log-payload",
			Priority:      14,
			MessageType:   "text/plain",
			MessageTypeID: "log-payload",
		},
		Spool: SpoolConfig{
			Path:       "./spool/payloads.log",
			MaxSizeMB:  100,
			MaxBackups: 3,
			MaxAgeDays: 7,
			Compress:   false,
		},
		Watch: WatchConfig{
			Pattern:  "*.log",
			Debounce: 500 * time.Millisecond,
		},
	}
}

// Default returns the built-in configuration without reading any source.
func Default() *Config {
	cfg := defaults()
	return &cfg
}

// Load reads configuration from all sources with proper override order.
// Order: defaults -> config file -> environment variables.
func Load(configPath string) (*Config, error) {
	k := koanf.New(".")

	if err := k.Load(structs.Provider(defaults(), "koanf"), nil); err != nil {
		return nil, fmt.Errorf("loading defaults: %w", err)
	}

	// Add file source if path provided or if default config exists
	if configPath == "" {
		for _, path := range []string{"./config.yaml", "/etc/log-payload/config.yaml"} {
			if _, err := os.Stat(path); err == nil {
				configPath = path
				break
			}
		}
	}
	if configPath != "" {
		if err := k.Load(file.Provider(configPath), parserFor(configPath)); err != nil {
			return nil, fmt.Errorf("loading config file %s: %w", configPath, err)
		}
	}

	err := k.Load(env.Provider(EnvPrefix, ".", func(s string) string {
		return strings.ReplaceAll(strings.ToLower(strings.TrimPrefix(s, EnvPrefix)), "_", ".")
	}), nil)
	if err != nil {
		return nil, fmt.Errorf("loading environment: %w", err)
	}

	var cfg Config
	if err := k.Unmarshal("", &cfg); err != nil {
		return nil, fmt.Errorf("decoding config: %w", err)
	}

	return &cfg, nil
}

// parserFor picks the file parser from the extension; YAML is the default.
func parserFor(path string) koanf.Parser {
	if strings.EqualFold(filepath.Ext(path), ".json") {
		return json.Parser()
	}
	return yaml.Parser()
}

// Validate checks settings that would otherwise fail on every payload.
func (c *Config) Validate() error {
	var errs []error

	switch c.Payload.Compression {
	case CompressionZlib, CompressionGzip:
	default:
		errs = append(errs, fmt.Errorf("payload.compression: unsupported algorithm %q", c.Payload.Compression))
	}
	if c.Payload.Level < -2 || c.Payload.Level > 9 {
		errs = append(errs, fmt.Errorf("payload.level: %d out of range [-2, 9]", c.Payload.Level))
	}
	if c.Payload.Workers < 0 {
		errs = append(errs, fmt.Errorf("payload.workers: must not be negative"))
	}

	if c.Filter.JSON.Enabled() && c.Filter.Regexp != "" {
		errs = append(errs, errors.New("filter: json and regexp filters are mutually exclusive"))
	}

	if c.Mapping.ProgName == "" {
		errs = append(errs, errors.New("mapping.progname: required"))
	}
	if c.Mapping.MessageType == "" {
		errs = append(errs, errors.New("mapping.messagetype: required"))
	}
	if c.Mapping.MessageTypeID == "" {
		errs = append(errs, errors.New("mapping.messagetypeid: required"))
	}

	for i, h := range c.Source.HostMeta {
		if h.Key == "" {
			errs = append(errs, fmt.Errorf("source.hostmeta[%d].key: required", i))
		}
	}

	return errors.Join(errs...)
}
