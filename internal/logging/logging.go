// Package logging initialises a [log/slog] logger from the application
// configuration and provides context-based logger propagation.
//
// Log output goes to stderr unless a log file is configured, in which case
// it is written through a size-rotating lumberjack writer.
package logging

import (
	"context"
	"io"
	"log/slog"
	"os"

	"gopkg.in/natefinch/lumberjack.v2"

	"github.com/hupe1980/subfilter/internal/config"
)

// maxBackups is the number of rotated log files kept next to LogFile.
const maxBackups = 3

type ctxKey struct{}

// Setup creates a *slog.Logger configured according to cfg, writing to stderr
// or the configured log file, and installs it as the process-wide default via
// slog.SetDefault.
func Setup(cfg *config.Config) *slog.Logger {
	return SetupWithWriter(cfg, Writer(cfg, os.Stderr))
}

// Writer returns the log destination for cfg: a rotating file when LogFile
// is set, fallback otherwise. Closing the fallback is a no-op.
func Writer(cfg *config.Config, fallback io.Writer) io.WriteCloser {
	if cfg.LogFile == "" {
		return nopCloser{fallback}
	}

	return &lumberjack.Logger{
		Filename:   cfg.LogFile,
		MaxSize:    cfg.LogMaxSize,
		MaxBackups: maxBackups,
	}
}

type nopCloser struct{ io.Writer }

func (nopCloser) Close() error { return nil }

// SetupWithWriter creates a *slog.Logger configured according to cfg, writing
// to w, and installs it as the process-wide default via slog.SetDefault.
// Use this variant in tests to capture or suppress log output.
func SetupWithWriter(cfg *config.Config, w io.Writer) *slog.Logger {
	level := ParseLevel(cfg.EffectiveLogLevel())
	opts := &slog.HandlerOptions{Level: level}

	var handler slog.Handler

	switch cfg.LogFormat {
	case config.LogFormatJSON:
		handler = slog.NewJSONHandler(w, opts)
	default: // text
		handler = slog.NewTextHandler(w, opts)
	}

	logger := slog.New(handler)
	slog.SetDefault(logger)

	return logger
}

// ParseLevel converts a string log level to slog.Level.
func ParseLevel(level string) slog.Level {
	switch level {
	case config.LogLevelDebug:
		return slog.LevelDebug
	case config.LogLevelWarn:
		return slog.LevelWarn
	case config.LogLevelError:
		return slog.LevelError
	default:
		return slog.LevelInfo
	}
}

// NewContext returns a child context carrying logger.
func NewContext(ctx context.Context, logger *slog.Logger) context.Context {
	return context.WithValue(ctx, ctxKey{}, logger)
}

// FromContext extracts a logger from ctx, falling back to slog.Default().
func FromContext(ctx context.Context) *slog.Logger {
	if l, ok := ctx.Value(ctxKey{}).(*slog.Logger); ok {
		return l
	}

	return slog.Default()
}
