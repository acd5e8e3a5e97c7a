// Package logging sets up the leveled logger used across the core
// (spec.md §6). It mirrors the teacher's own split between a
// verbosity knob read from the environment and an always-on debug
// file sink: EVENTSLEUTH_LOG gates what reaches stdout, while
// %LOCALAPPDATA%/EventSleuth/logs/eventsleuth.log always receives
// debug-level output regardless of that setting.
package logging

import (
	"io"
	"os"
	"path/filepath"

	"github.com/influxdata/wlog"
	"github.com/sirupsen/logrus"
)

// EnvVar is the Go-native equivalent of the distilled spec's RUST_LOG
// (spec.md §6): an artifact of the original implementation's language,
// renamed to fit this module.
const EnvVar = "EVENTSLEUTH_LOG"

// LogDir returns the directory logs are written to: %LOCALAPPDATA%/
// EventSleuth/logs. Falls back to the current directory if
// LOCALAPPDATA is unset (non-Windows development/test hosts).
func LogDir() string {
	base := os.Getenv("LOCALAPPDATA")
	if base == "" {
		base = "."
	}
	return filepath.Join(base, "EventSleuth", "logs")
}

// Setup wires a *logrus.Logger with two independent sinks:
//   - stdout, gated by wlog at the level named by EVENTSLEUTH_LOG
//     (defaults to INFO when unset or unrecognized).
//   - the debug logfile, always at debug level, never gated.
//
// Setup never fails: if the logfile cannot be opened, logging
// continues to stdout only and the open error is returned for the
// caller to report, per spec.md §7 ("no unwrap/panic in production
// paths").
func Setup() (*logrus.Logger, func() error, error) {
	level := wlog.INFO
	switch os.Getenv(EnvVar) {
	case "ERROR":
		level = wlog.ERROR
	case "WARN":
		level = wlog.WARN
	case "DEBUG":
		level = wlog.DEBUG
	}
	wlog.SetLevel(level)

	logger := logrus.New()
	logger.SetFormatter(&logrus.TextFormatter{FullTimestamp: true})
	logger.SetLevel(logrus.DebugLevel)

	stdout := wlog.NewWriter(os.Stdout)
	logger.SetOutput(stdout)

	dir := LogDir()
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return logger, func() error { return nil }, &setupError{context: "create log directory " + dir, cause: err}
	}

	path := filepath.Join(dir, "eventsleuth.log")
	file, err := os.OpenFile(path, os.O_CREATE|os.O_APPEND|os.O_WRONLY, 0o644)
	if err != nil {
		return logger, func() error { return nil }, &setupError{context: "open log file " + path, cause: err}
	}

	logger.AddHook(&fileHook{writer: file})
	return logger, file.Close, nil
}

// fileHook fans every entry, regardless of level, out to the always-
// debug file sink — stdout stays gated by wlog, the file does not.
type fileHook struct {
	writer io.Writer
}

func (h *fileHook) Levels() []logrus.Level { return logrus.AllLevels }

func (h *fileHook) Fire(entry *logrus.Entry) error {
	line, err := entry.Logger.Formatter.Format(entry)
	if err != nil {
		return err
	}
	_, err = h.writer.Write(line)
	return err
}

type setupError struct {
	context string
	cause   error
}

func (e *setupError) Error() string { return e.context + ": " + e.cause.Error() }
func (e *setupError) Unwrap() error { return e.cause }
