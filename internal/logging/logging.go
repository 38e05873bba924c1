// Package logging configures the process-wide logrus logger.
package logging

import (
	"fmt"
	"io"
	"os"
	"path/filepath"

	log "github.com/sirupsen/logrus"
	"gopkg.in/natefinch/lumberjack.v2"
)

// Options select the log level and destination.
type Options struct {
	Level string
	Debug bool
	Quiet bool
	// File, when set, receives the log instead of stderr and is rotated.
	File string
}

// Setup configures the standard logrus logger and returns a closer for the
// log file, if any.
func Setup(opts Options, stderr io.Writer) (io.Closer, error) {
	level := log.WarnLevel
	if opts.Level != "" {
		parsed, err := log.ParseLevel(opts.Level)
		if err != nil {
			return nil, fmt.Errorf("invalid log level %q: %w", opts.Level, err)
		}
		level = parsed
	}
	if opts.Quiet {
		level = log.ErrorLevel
	}
	if opts.Debug {
		level = log.DebugLevel
	}
	log.SetLevel(level)

	if opts.File == "" {
		log.SetOutput(stderr)
		log.SetFormatter(&log.TextFormatter{DisableTimestamp: true})
		return nopCloser{}, nil
	}

	if err := os.MkdirAll(filepath.Dir(opts.File), 0o700); err != nil {
		return nil, fmt.Errorf("failed to create log directory: %w", err)
	}
	w := &lumberjack.Logger{
		Filename:   opts.File,
		MaxSize:    10, // megabytes
		MaxBackups: 3,
		MaxAge:     28, // days
	}
	log.SetOutput(w)
	log.SetFormatter(&log.JSONFormatter{})
	return w, nil
}

type nopCloser struct{}

func (nopCloser) Close() error { return nil }
