package logger

import (
	"io"
	"os"
	"strings"
	"time"

	"github.com/rs/zerolog"
	"github.com/use-agent/placerank/config"
)

// Default is the process-wide logger. It discards output until Init runs,
// which keeps library code and tests quiet.
var Default = zerolog.Nop()

// Init configures zerolog from the LogConfig. debug forces the debug level.
func Init(cfg config.LogConfig, debug bool) {
	Default = New(os.Stdout, cfg, debug)
	Default.Info().
		Str("level", Default.GetLevel().String()).
		Str("format", cfg.Format).
		Msg("logger initialised")
}

// New builds a logger writing to w.
func New(w io.Writer, cfg config.LogConfig, debug bool) zerolog.Logger {
	zerolog.TimeFieldFormat = time.RFC3339

	level := parseLevel(cfg.Level)
	if debug {
		level = zerolog.DebugLevel
	}

	out := w
	if strings.EqualFold(cfg.Format, "text") {
		out = zerolog.ConsoleWriter{Out: w, TimeFormat: time.RFC3339}
	}

	return zerolog.New(out).Level(level).With().Timestamp().Logger()
}

// For returns a child of Default tagged with a component name.
func For(component string) zerolog.Logger {
	return Default.With().Str("component", component).Logger()
}

func parseLevel(s string) zerolog.Level {
	level, err := zerolog.ParseLevel(strings.ToLower(strings.TrimSpace(s)))
	if err != nil || s == "" {
		return zerolog.InfoLevel
	}
	return level
}
