// Package logging configures the zerolog logger shared by the commands.
package logging

import (
	"fmt"
	"io"
	"strings"
	"time"

	"github.com/rs/zerolog"

	"github.com/papapumpkin/agroplan/internal/planerr"
)

// New returns a logger writing to w at level. format is "console" for
// human-readable lines or "json".
func New(w io.Writer, level, format string) (zerolog.Logger, error) {
	lvl, err := zerolog.ParseLevel(strings.ToLower(level))
	if err != nil || level == "" {
		return zerolog.Nop(), fmt.Errorf("%w: unknown log level %q", planerr.ErrConfiguration, level)
	}

	var out io.Writer
	switch format {
	case "console", "":
		out = zerolog.ConsoleWriter{Out: w, TimeFormat: time.TimeOnly}
	case "json":
		out = w
	default:
		return zerolog.Nop(), fmt.Errorf("%w: unknown log format %q", planerr.ErrConfiguration, format)
	}
	return zerolog.New(out).With().Timestamp().Logger().Level(lvl), nil
}
