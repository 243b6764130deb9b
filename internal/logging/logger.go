// Package logging configures the global zerolog logger and emits the
// structured startup event every binary logs once.
package logging

import (
	"io"
	"os"
	"strings"

	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
)

// Output formats accepted by Init.
const (
	FormatConsole = "console"
	FormatJSON    = "json"
)

// Init sets the global level and output format. Unknown levels fall back to
// info. JSON output is used for any format other than console, and always
// inside Lambda where CloudWatch parses structured lines.
func Init(level, format string) {
	initTo(os.Stderr, level, format)
}

func initTo(w io.Writer, level, format string) {
	lvl, err := zerolog.ParseLevel(strings.ToLower(strings.TrimSpace(level)))
	if err != nil || lvl == zerolog.NoLevel {
		lvl = zerolog.InfoLevel
	}
	zerolog.SetGlobalLevel(lvl)

	if format == FormatConsole && os.Getenv("AWS_LAMBDA_FUNCTION_NAME") == "" {
		log.Logger = zerolog.New(zerolog.ConsoleWriter{Out: w, TimeFormat: "15:04:05"}).With().Timestamp().Logger()
		return
	}
	log.Logger = zerolog.New(w).With().Timestamp().Logger()
}
