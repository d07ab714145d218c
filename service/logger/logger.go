package logger

import (
	"fmt"
	"io"
	"os"
	"strings"
	"time"

	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
)

const (
	FormatConsole = "console"
	FormatJson    = "json"
)

// Init configures the global zerolog logger, every package logs through github.com/rs/zerolog/log
func Init(level, format string) (zerolog.Logger, error) {
	return InitWithWriter(level, format, os.Stdout)
}

func InitWithWriter(level, format string, out io.Writer) (zerolog.Logger, error) {
	lvl, err := zerolog.ParseLevel(strings.ToLower(strings.TrimSpace(level)))
	if err != nil {
		return zerolog.Nop(), fmt.Errorf("invalid log level %q: %w", level, err)
	}
	zerolog.SetGlobalLevel(lvl)
	zerolog.TimeFieldFormat = time.RFC3339

	switch strings.ToLower(format) {
	case FormatConsole, "":
		out = zerolog.ConsoleWriter{Out: out, TimeFormat: time.TimeOnly}
	case FormatJson:
	default:
		return zerolog.Nop(), fmt.Errorf("invalid log format %q, expected %s or %s", format, FormatConsole, FormatJson)
	}

	l := zerolog.New(out).With().Timestamp().Logger()
	log.Logger = l
	return l, nil
}
