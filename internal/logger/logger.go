// Package logger builds charmbracelet/log loggers that share the process-wide level.
//
// Everything logs to stderr: in stdio mode stdout carries the msgpack protocol.
package logger

import (
	"io"
	"os"
	"strings"

	"github.com/charmbracelet/log"
)

// New creates a prefixed logger that respects the global log level.
func New(prefix string) *log.Logger {
	return log.NewWithOptions(os.Stderr, log.Options{
		Prefix:          prefix,
		ReportCaller:    false,
		ReportTimestamp: true,
		Formatter:       log.TextFormatter,
		Level:           log.GetLevel(),
	})
}

// NewWithConfig creates a logger with explicit output and formatting settings
func NewWithConfig(w io.Writer, prefix string, level log.Level, caller bool, showTimestamp bool, fmt log.Formatter) *log.Logger {
	return log.NewWithOptions(w, log.Options{
		Prefix:          prefix,
		Level:           level,
		ReportCaller:    caller,
		ReportTimestamp: showTimestamp,
		Formatter:       fmt,
	})
}

// ParseFormatter maps a config value to a formatter; unknown names fall back to text.
func ParseFormatter(name string) log.Formatter {
	switch strings.ToLower(strings.TrimSpace(name)) {
	case "json":
		return log.JSONFormatter
	case "logfmt":
		return log.LogfmtFormatter
	default:
		return log.TextFormatter
	}
}

// Setup configures the default logger. It must run before New is called so
// that prefixed loggers pick up the level.
func Setup(level, format string, debug bool) error {
	lvl := log.InfoLevel
	if level != "" {
		parsed, err := log.ParseLevel(level)
		if err != nil {
			return err
		}
		lvl = parsed
	}
	if debug {
		lvl = log.DebugLevel
	}

	log.SetDefault(NewWithConfig(os.Stderr, "", lvl, debug, true, ParseFormatter(format)))
	log.SetLevel(lvl)
	return nil
}
