// Package logger configures the process-wide zerolog logger.
package logger

import (
	"io"
	"os"
	"time"

	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
)

// Setup configures the global zerolog logger for the given environment and
// returns it.  local/dev get a human friendly console writer, everything
// else writes JSON lines to stdout.
func Setup(env, level string) zerolog.Logger {
	zerolog.TimeFieldFormat = time.RFC3339
	lvl, err := zerolog.ParseLevel(level)
	if err != nil || level == "" {
		lvl = zerolog.InfoLevel
	}
	var out io.Writer = os.Stdout
	switch env {
	case "local", "dev", "development":
		out = zerolog.ConsoleWriter{Out: os.Stdout, TimeFormat: "15:04:05"}
	}
	l := zerolog.New(out).Level(lvl).With().Timestamp().Str("service", "kita-magazine").Logger()
	log.Logger = l
	zerolog.DefaultContextLogger = &l
	return l
}
