package logging

import (
	"fmt"
	"os"
	"strings"

	"github.com/sirupsen/logrus"
)

var log = newLogger()

func newLogger() *logrus.Logger {
	l := logrus.New()
	l.SetFormatter(&logrus.TextFormatter{FullTimestamp: true, TimestampFormat: "2006-01-02 15:04:05"})
	l.SetOutput(os.Stderr)
	l.SetLevel(logrus.WarnLevel)
	return l
}

// InitializeLogger configures the package logger. Format is "json" or "text".
func InitializeLogger(level, format string) error {
	lvl, err := logrus.ParseLevel(level)
	if err != nil {
		return fmt.Errorf("invalid log level %q: %w", level, err)
	}
	switch strings.ToLower(format) {
	case "json":
		log.SetFormatter(&logrus.JSONFormatter{}) // Use JSON format for structured logs
	case "", "text":
		log.SetFormatter(&logrus.TextFormatter{FullTimestamp: true, TimestampFormat: "2006-01-02 15:04:05"})
	default:
		return fmt.Errorf("invalid log format %q", format)
	}
	log.SetLevel(lvl)
	return nil
}

// Logger returns the shared logger.
func Logger() *logrus.Logger {
	return log
}

// Info logs informational messages.
func Info(message string, fields map[string]interface{}) {
	log.WithFields(fields).Info(message)
}

// Warn logs warnings.
func Warn(message string, fields map[string]interface{}) {
	log.WithFields(fields).Warn(message)
}

// Error logs error messages.
func Error(message string, fields map[string]interface{}) {
	log.WithFields(fields).Error(message)
}

// Debug logs debug messages.
func Debug(message string, fields map[string]interface{}) {
	log.WithFields(fields).Debug(message)
}

// MaskSecret keeps the first four characters of a credential for log output.
func MaskSecret(s string) string {
	if len(s) <= 4 {
		return strings.Repeat("*", len(s))
	}
	return s[:4] + strings.Repeat("*", len(s)-4)
}
