package logger

import (
	"io"
	"log/slog"
	"os"
	"sync"
	"time"

	"skillmart/internal/config"

	"github.com/lmittmann/tint"
)

var (
	singleton *slog.Logger
	once      sync.Once
)

// Init initializes the singleton logger from the provided config.
// It is thread-safe and idempotent - the first successful call wins,
// and subsequent calls return the same logger instance.
func Init(cfg config.Config) (*slog.Logger, error) {
	once.Do(func() {
		singleton = slog.New(newHandler(os.Stdout, cfg))
	})

	return singleton, nil
}

// L returns the singleton logger instance.
// Init must be called first, otherwise this will return nil.
func L() *slog.Logger {
	return singleton
}

// newHandler picks the slog handler for cfg.LogFormat:
// "text" for logfmt, "pretty" for colored tint output, JSON otherwise.
func newHandler(w io.Writer, cfg config.Config) slog.Handler {
	level := parseLevel(cfg.LogLevel)

	switch cfg.LogFormat {
	case "text":
		return slog.NewTextHandler(w, &slog.HandlerOptions{Level: level})
	case "pretty":
		return tint.NewHandler(w, &tint.Options{
			Level:      level,
			TimeFormat: time.Kitchen,
			NoColor:    !cfg.DevMode,
		})
	default:
		return slog.NewJSONHandler(w, &slog.HandlerOptions{Level: level})
	}
}

func parseLevel(s string) slog.Level {
	switch s {
	case "debug":
		return slog.LevelDebug
	case "warn":
		return slog.LevelWarn
	case "error":
		return slog.LevelError
	default:
		return slog.LevelInfo
	}
}
