// Package logger holds the LogService implementations.
package logger

import (
	"io"
	"os"
	"strings"

	"github.com/rs/zerolog"

	"github.com/barapp/sesh/pkg/domain"
)

// ZerologLogger is the production LogService.
type ZerologLogger struct {
	log zerolog.Logger
}

// NewZerologLogger wraps an existing zerolog logger.
func NewZerologLogger(log zerolog.Logger) ZerologLogger {
	return ZerologLogger{log: log.With().Str("component", "sesh").Logger()}
}

// New builds a zerolog logger writing to out. format "console" gives
// human readable output, anything else is JSON. An unknown level falls back to info.
func New(out io.Writer, level, format string) zerolog.Logger {
	if out == nil {
		out = os.Stderr
	}

	if strings.EqualFold(format, "console") {
		out = zerolog.ConsoleWriter{Out: out}
	}

	lvl, err := zerolog.ParseLevel(strings.ToLower(level))
	if err != nil || lvl == zerolog.NoLevel {
		lvl = zerolog.InfoLevel
	}

	return zerolog.New(out).Level(lvl).With().Timestamp().Logger()
}

func (l ZerologLogger) Info(message string, fields domain.LogFields) {
	event := l.log.Info()
	for k, v := range fields {
		event = event.Str(k, v)
	}
	event.Msg(message)
}

func (l ZerologLogger) WarnError(message string, err error, fields domain.LogFields) {
	event := l.log.Warn().Err(err)
	for k, v := range fields {
		event = event.Str(k, v)
	}
	event.Msg(message)
}
