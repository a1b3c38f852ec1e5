package logger

import (
	"io"
	"os"
	"strings"
	"time"

	"github.com/rs/zerolog"

	"github.com/Rahul711sharma/momentum-analysis/pkg/config"
)

// Logger wraps zerolog so call sites never import it directly.
// ⭐ SSOT: 모든 로깅은 이 패키지를 통해서만 수행
type Logger struct {
	z zerolog.Logger
}

// New builds the process logger. Console output goes to stderr so that
// CLI tables on stdout stay clean.
func New(cfg *config.Config) *Logger {
	zerolog.SetGlobalLevel(parseLogLevel(cfg.LogLevel))

	base := zerolog.New(writerFor(cfg.LogFormat)).With().
		Timestamp().
		Str("service", "momentum").
		Str("env", cfg.Env)
	return &Logger{z: base.Logger()}
}

// NewWithWriter returns a JSON logger on w
func NewWithWriter(w io.Writer) *Logger {
	return &Logger{z: zerolog.New(w).With().Timestamp().Logger()}
}

// Nop discards everything
func Nop() *Logger {
	return &Logger{z: zerolog.Nop()}
}

func writerFor(format string) io.Writer {
	switch strings.ToLower(format) {
	case "console", "pretty":
		return zerolog.ConsoleWriter{Out: os.Stderr, TimeFormat: time.RFC3339}
	default:
		return os.Stdout
	}
}

// parseLogLevel falls back to info for unknown names
func parseLogLevel(name string) zerolog.Level {
	name = strings.ToLower(strings.TrimSpace(name))
	if name == "warning" {
		name = "warn"
	}
	lvl, err := zerolog.ParseLevel(name)
	if err != nil || name == "" {
		return zerolog.InfoLevel
	}
	return lvl
}

func (l *Logger) Debug(msg string) { l.z.Debug().Msg(msg) }
func (l *Logger) Info(msg string)  { l.z.Info().Msg(msg) }
func (l *Logger) Warn(msg string)  { l.z.Warn().Msg(msg) }
func (l *Logger) Error(msg string) { l.z.Error().Msg(msg) }

func (l *Logger) Infof(format string, args ...any) { l.z.Info().Msgf(format, args...) }
func (l *Logger) Warnf(format string, args ...any) { l.z.Warn().Msgf(format, args...) }

// WithField returns a child logger carrying key
func (l *Logger) WithField(key string, value any) *Logger {
	return l.child(func(c zerolog.Context) zerolog.Context { return c.Interface(key, value) })
}

// WithFields returns a child logger carrying every entry of fields
func (l *Logger) WithFields(fields map[string]interface{}) *Logger {
	return l.child(func(c zerolog.Context) zerolog.Context { return c.Fields(fields) })
}

// WithError attaches err under the "error" key
func (l *Logger) WithError(err error) *Logger {
	return l.child(func(c zerolog.Context) zerolog.Context { return c.Err(err) })
}

// WithModule tags every entry with the emitting module
func (l *Logger) WithModule(module string) *Logger {
	return l.child(func(c zerolog.Context) zerolog.Context { return c.Str("module", module) })
}

func (l *Logger) child(fn func(zerolog.Context) zerolog.Context) *Logger {
	return &Logger{z: fn(l.z.With()).Logger()}
}
