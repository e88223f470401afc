package logging

import (
	"io"
	"log/slog"
	"os"
	"strings"

	"github.com/p0l0/xknx/internal/infrastructure/config"
)

// Logger is a slog.Logger that always carries service and version.
type Logger struct {
	*slog.Logger
}

// New builds a Logger from the logging section. Output "stderr" selects
// standard error; anything else writes to standard output.
func New(cfg config.LoggingConfig, service, version string) *Logger {
	out := io.Writer(os.Stdout)
	if strings.EqualFold(cfg.Output, "stderr") {
		out = os.Stderr
	}
	return NewWithWriter(out, cfg, service, version)
}

// NewWithWriter is New writing to w. cfg.Output is not consulted.
func NewWithWriter(w io.Writer, cfg config.LoggingConfig, service, version string) *Logger {
	opts := &slog.HandlerOptions{Level: parseLevel(cfg.Level)}

	var h slog.Handler = slog.NewJSONHandler(w, opts)
	if strings.EqualFold(cfg.Format, "text") {
		h = slog.NewTextHandler(w, opts)
	}

	return &Logger{Logger: slog.New(h).With("service", service, "version", version)}
}

// parseLevel accepts slog level names in any case, plus "warning".
// Unknown names mean info.
func parseLevel(name string) slog.Level {
	if strings.EqualFold(name, "warning") {
		return slog.LevelWarn
	}
	var lvl slog.Level
	if name == "" || lvl.UnmarshalText([]byte(name)) != nil {
		return slog.LevelInfo
	}
	return lvl
}

// With returns a child logger, typically tagged with a component:
//
//	log.With("component", "receiver")
func (l *Logger) With(args ...any) *Logger {
	return &Logger{Logger: l.Logger.With(args...)}
}

// Default is the logger used until the config has been read: JSON at
// info level on stderr, leaving stdout to command output.
func Default(service string) *Logger {
	return NewWithWriter(os.Stderr, config.LoggingConfig{}, service, "dev")
}

// Discard drops every record.
func Discard() *Logger {
	return &Logger{Logger: slog.New(slog.DiscardHandler)}
}
