// Package sysutil carries tiny process-level helpers used during startup.
package sysutil

import (
	"strings"

	"github.com/rs/zerolog"
)

var logLevels = map[string]zerolog.Level{
	"debug":   zerolog.DebugLevel,
	"info":    zerolog.InfoLevel,
	"warn":    zerolog.WarnLevel,
	"warning": zerolog.WarnLevel,
	"error":   zerolog.ErrorLevel,
	"fatal":   zerolog.FatalLevel,
	"panic":   zerolog.PanicLevel,
}

// SetLogLevel sets the global zerolog level from a case-insensitive name.
// Unknown or empty values fall back to info.
func SetLogLevel(lvl string) {
	l, ok := logLevels[strings.ToLower(strings.TrimSpace(lvl))]
	if !ok {
		l = zerolog.InfoLevel
	}
	zerolog.SetGlobalLevel(l)
}

// FirstNonEmpty returns the first value that is not blank after trimming,
// or "" when every value is blank.
func FirstNonEmpty(vals ...string) string {
	for _, v := range vals {
		if strings.TrimSpace(v) != "" {
			return v
		}
	}
	return ""
}
