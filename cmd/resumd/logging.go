package main

import (
	"fmt"
	"io"
	"strings"
	"time"

	"github.com/rs/zerolog"
	"go.uber.org/automaxprocs/maxprocs"
)

// resolveLogLevel picks the log level. Priority: --verbose/--quiet >
// RESUMD_LOG_LEVEL > info. An unparsable env level is reported and ignored.
func resolveLogLevel(f commonFlags, envLevel string, warn io.Writer) zerolog.Level {
	switch {
	case f.verbose:
		return zerolog.DebugLevel
	case f.quiet:
		return zerolog.ErrorLevel
	}

	if envLevel != "" {
		lvl, err := zerolog.ParseLevel(strings.ToLower(envLevel))
		if err == nil && lvl != zerolog.NoLevel {
			return lvl
		}
		fmt.Fprintf(warn, "warning: invalid RESUMD_LOG_LEVEL %q, using info\n", envLevel)
	}
	return zerolog.InfoLevel
}

// newLogger returns a human-readable logger writing to w.
func newLogger(w io.Writer, level zerolog.Level) zerolog.Logger {
	return zerolog.New(zerolog.ConsoleWriter{Out: w, TimeFormat: time.TimeOnly}).
		Level(level).
		With().Timestamp().Logger()
}

// setMaxProcs sizes GOMAXPROCS to the container quota, logging at debug.
// Error ignored: maxprocs.Set only fails if GOMAXPROCS env is invalid,
// in which case Go runtime defaults apply and the program continues safely.
func setMaxProcs(log zerolog.Logger) {
	_, _ = maxprocs.Set(maxprocs.Logger(func(format string, args ...any) {
		log.Debug().Msgf(format, args...)
	}))
}
