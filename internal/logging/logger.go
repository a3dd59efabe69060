package logging

import (
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/sirupsen/logrus"
)

// NewLogger creates a logger that writes to stderr at the given level.
func NewLogger(level string) *logrus.Logger {
	logger := logrus.New()
	logger.SetOutput(os.Stderr)
	logger.SetFormatter(&logrus.TextFormatter{FullTimestamp: true})
	logger.SetLevel(ParseLevel(level))
	return logger
}

// NewLoggerWithFile creates a logger that writes to both stderr and the log
// file at path. The returned closer releases the file. If the file cannot be
// opened the logger stays console-only and says so.
func NewLoggerWithFile(level, path string) (*logrus.Logger, io.Closer) {
	logger := NewLogger(level)
	if path == "" {
		return logger, io.NopCloser(nil)
	}

	if dir := filepath.Dir(path); dir != "." {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			logger.WithError(err).Warnf("Cannot create log directory %s; logging to console only", dir)
			return logger, io.NopCloser(nil)
		}
	}

	f, err := os.OpenFile(path, os.O_APPEND|os.O_CREATE|os.O_WRONLY, 0o644)
	if err != nil {
		logger.WithError(err).Warnf("Cannot open log file %s; logging to console only", path)
		return logger, io.NopCloser(nil)
	}

	logger.SetOutput(io.MultiWriter(os.Stderr, f))
	return logger, f
}

// ParseLevel maps a config string to a logrus level, defaulting to info.
func ParseLevel(level string) logrus.Level {
	switch strings.ToLower(strings.TrimSpace(level)) {
	case "debug":
		return logrus.DebugLevel
	case "warn", "warning":
		return logrus.WarnLevel
	case "error":
		return logrus.ErrorLevel
	default:
		return logrus.InfoLevel
	}
}
