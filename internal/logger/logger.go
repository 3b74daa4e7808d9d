package logger

import (
	"io"
	"log/slog"
	"os"
	"strings"
	"time"

	"github.com/getsentry/sentry-go"
	slogmulti "github.com/samber/slog-multi"
	slogsentry "github.com/samber/slog-sentry/v2"
)

// Log is the global logger instance
var Log *slog.Logger

// Options controls how Init builds the handler chain.
type Options struct {
	Development bool
	Level       string // optional override: debug, info, warn, error
	SentryDSN   string
	Environment string
	Output      io.Writer
}

// Init installs the global logger.
// Development: text format at Debug. Production: JSON at Info.
// Errors are additionally forwarded to Sentry when a DSN is configured.
func Init(opts Options) *slog.Logger {
	out := opts.Output
	if out == nil {
		out = os.Stdout
	}

	level := slog.LevelInfo
	if opts.Development {
		level = slog.LevelDebug
	}
	if opts.Level != "" {
		level = ParseLevel(opts.Level, level)
	}

	var handlers []slog.Handler
	if opts.Development {
		handlers = append(handlers, slog.NewTextHandler(out, &slog.HandlerOptions{Level: level}))
	} else {
		handlers = append(handlers, slog.NewJSONHandler(out, &slog.HandlerOptions{Level: level}))
	}

	if opts.SentryDSN != "" {
		err := sentry.Init(sentry.ClientOptions{
			Dsn:              opts.SentryDSN,
			Environment:      opts.Environment,
			TracesSampleRate: 1.0,
		})
		if err == nil {
			handlers = append(handlers, slogsentry.Option{
				Level: slog.LevelError,
			}.NewSentryHandler())
		} else {
			slog.New(handlers[0]).Warn("sentry init failed, continuing without it", "error", err)
		}
	}

	var handler slog.Handler
	if len(handlers) > 1 {
		handler = slogmulti.Fanout(handlers...)
	} else {
		handler = handlers[0]
	}

	Log = slog.New(handler).With("app", "syfte")
	slog.SetDefault(Log)
	return Log
}

// ParseLevel maps a level name to a slog.Level, returning def when unknown.
func ParseLevel(name string, def slog.Level) slog.Level {
	switch strings.ToLower(strings.TrimSpace(name)) {
	case "debug":
		return slog.LevelDebug
	case "info":
		return slog.LevelInfo
	case "warn", "warning":
		return slog.LevelWarn
	case "error":
		return slog.LevelError
	default:
		return def
	}
}

// Flush waits for buffered Sentry events to be delivered.
func Flush() {
	sentry.Flush(2 * time.Second)
}
