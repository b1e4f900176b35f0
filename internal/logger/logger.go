// Package logger provides a configured zerolog logger.
package logger

import (
	"io"
	"os"
	"strings"

	pkgerrors "github.com/pkg/errors"
	"github.com/rs/zerolog"
	zpkgerrors "github.com/rs/zerolog/pkgerrors"
)

// LevelEnv names the variable that overrides the global log level.
const LevelEnv = "AGENT_SERVER_LOG_LEVEL"

type stackTracer interface{ StackTrace() pkgerrors.StackTrace }

// New returns a zerolog.Logger writing JSON to stdout, tagged with serviceName.
// Call sites should use .Stack() on error events to include stacks.
func New(serviceName string) zerolog.Logger {
	return NewWithWriter(serviceName, os.Stdout)
}

// NewWithWriter is New with an explicit sink.
func NewWithWriter(serviceName string, w io.Writer) zerolog.Logger {
	zerolog.ErrorStackMarshaler = func(err error) interface{} {
		if _, ok := err.(stackTracer); !ok {
			err = pkgerrors.WithStack(err)
		}
		return zpkgerrors.MarshalStack(err)
	}
	zerolog.ErrorMarshalFunc = func(err error) interface{} {
		if _, ok := err.(stackTracer); ok {
			return err
		}
		return pkgerrors.WithStack(err)
	}
	zerolog.SetGlobalLevel(levelFromEnv())

	return zerolog.New(w).With().
		Str("service", serviceName).
		Timestamp().
		Logger()
}

func levelFromEnv() zerolog.Level {
	raw := strings.TrimSpace(os.Getenv(LevelEnv))
	if raw == "" {
		return zerolog.InfoLevel
	}
	lvl, err := zerolog.ParseLevel(strings.ToLower(raw))
	if err != nil {
		return zerolog.InfoLevel
	}
	return lvl
}
