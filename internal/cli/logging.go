package cli

import (
	"os"
	"strings"
	"time"

	"github.com/rs/zerolog"
)

// SetupLogging creates and configures a logger with the specified level.
// Returns the configured logger for dependency injection.
func SetupLogging(level string) zerolog.Logger {
	out := zerolog.ConsoleWriter{Out: os.Stderr, TimeFormat: time.RFC3339}
	log := zerolog.New(out).With().Timestamp().Logger()

	switch strings.ToLower(level) {
	case "trace":
		return log.Level(zerolog.TraceLevel)
	case "debug":
		return log.Level(zerolog.DebugLevel)
	case "warn", "warning":
		return log.Level(zerolog.WarnLevel)
	case "error":
		return log.Level(zerolog.ErrorLevel)
	default:
		return log.Level(zerolog.InfoLevel)
	}
}
