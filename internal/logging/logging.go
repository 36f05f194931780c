// Package logging configures the logrus loggers used across jsgraph.
package logging

import (
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/sirupsen/logrus"
)

// Supported log formats
const (
	FormatText = "text"
	FormatJSON = "json"
)

// Options controls logger construction
type Options struct {
	// Level is a logrus level name: trace, debug, info, warn, error
	Level string

	// Format is FormatText or FormatJSON
	Format string

	// Output is "stderr", "stdout" or a file path; empty means stderr
	Output string
}

// New builds a logger from options.
// An unknown level falls back to warn and is reported on the returned logger.
func New(opts Options) (*logrus.Logger, error) {
	logger := logrus.New()

	level, levelErr := logrus.ParseLevel(strings.TrimSpace(opts.Level))
	if opts.Level == "" {
		level, levelErr = logrus.WarnLevel, nil
	}
	if levelErr != nil {
		level = logrus.WarnLevel
	}
	logger.SetLevel(level)

	switch strings.ToLower(opts.Format) {
	case FormatJSON:
		logger.SetFormatter(&logrus.JSONFormatter{})
	case "", FormatText:
		logger.SetFormatter(&logrus.TextFormatter{FullTimestamp: true})
	default:
		return nil, fmt.Errorf("unknown log format %q, must be one of: text, json", opts.Format)
	}

	out, err := openOutput(opts.Output)
	if err != nil {
		return nil, err
	}
	logger.SetOutput(out)

	if levelErr != nil {
		logger.Warnf("Invalid log level '%s', using 'warn' instead", opts.Level)
	}
	return logger, nil
}

// Discard returns a logger that drops everything
func Discard() *logrus.Logger {
	logger := logrus.New()
	logger.SetOutput(io.Discard)
	logger.SetLevel(logrus.PanicLevel)
	return logger
}

// OrDiscard returns l, or a discarding logger when l is nil
func OrDiscard(l logrus.FieldLogger) logrus.FieldLogger {
	if l == nil {
		return Discard()
	}
	return l
}

func openOutput(output string) (io.Writer, error) {
	switch strings.ToLower(output) {
	case "", "stderr":
		return os.Stderr, nil
	case "stdout":
		return os.Stdout, nil
	default:
		f, err := os.OpenFile(output, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0o644)
		if err != nil {
			return nil, fmt.Errorf("failed to open log file %s: %w", output, err)
		}
		return f, nil
	}
}
