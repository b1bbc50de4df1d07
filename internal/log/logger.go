// Package log wraps zerolog with the single base logger used by alcr.
package log

import (
	"io"
	"os"
	"strings"
	"sync"

	"github.com/rs/zerolog"
)

// Config captures options for configuring the base logger.
type Config struct {
	Level  string    // optional log level ("debug", "info", ...)
	Output io.Writer // optional writer (defaults to os.Stderr)
}

var (
	mu   sync.Mutex
	base = zerolog.New(os.Stderr).Level(zerolog.WarnLevel).With().Timestamp().Logger()
)

// Configure replaces the base logger. Unknown levels fall back to warn.
func Configure(cfg Config) {
	level := zerolog.WarnLevel
	if cfg.Level != "" {
		if parsed, err := zerolog.ParseLevel(strings.ToLower(cfg.Level)); err == nil {
			level = parsed
		}
	}

	writer := cfg.Output
	if writer == nil {
		writer = os.Stderr
	}

	mu.Lock()
	defer mu.Unlock()
	base = zerolog.New(zerolog.ConsoleWriter{Out: writer, NoColor: true}).
		Level(level).
		With().
		Timestamp().
		Logger()
}

// Base returns the configured base logger.
func Base() zerolog.Logger {
	mu.Lock()
	defer mu.Unlock()
	return base
}

// WithComponent returns a child logger annotated with the given component name.
func WithComponent(component string) zerolog.Logger {
	return Base().With().Str("component", component).Logger()
}

// LevelFromEnviron returns the ALCR_LOG_LEVEL value from an environ slice.
func LevelFromEnviron(environ []string) string {
	for _, env := range environ {
		if strings.HasPrefix(env, "ALCR_LOG_LEVEL=") {
			return strings.TrimPrefix(env, "ALCR_LOG_LEVEL=")
		}
	}
	return ""
}
