// Package logging configures the process-wide zerolog logger.
package logging

import (
	"io"
	"os"
	"time"

	"github.com/pkg/errors"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
)

// Configure sets the global level and output. Console output is meant for
// local runs; the default is one JSON object per line on stderr.
func Configure(level string, console bool) error {
	return configure(os.Stderr, level, console)
}

func configure(out io.Writer, level string, console bool) error {
	lvl, err := zerolog.ParseLevel(level)
	if err != nil {
		return errors.Wrapf(err, "log level %q", level)
	}
	if lvl == zerolog.NoLevel {
		lvl = zerolog.InfoLevel
	}

	if console {
		out = zerolog.ConsoleWriter{Out: out, TimeFormat: time.RFC3339}
	}
	log.Logger = zerolog.New(out).With().Timestamp().Logger()
	zerolog.SetGlobalLevel(lvl)
	zerolog.DefaultContextLogger = &log.Logger
	return nil
}
