// Package logx builds the process-wide zerolog logger.
package logx

import (
	"os"
	"strings"

	"github.com/rs/zerolog"
)

// New returns a timestamped stdout logger at the requested level,
// falling back to info when the level string is unknown.
func New(level string) zerolog.Logger {
	lvl, err := zerolog.ParseLevel(strings.ToLower(level))
	if err != nil {
		lvl = zerolog.InfoLevel
	}
	return zerolog.New(os.Stdout).With().Timestamp().Logger().Level(lvl)
}
