package logger

import (
	"io"
	"os"
	"strings"

	"github.com/sirupsen/logrus"
)

var Logger *logrus.Logger

// InitLogger initializes the structured logger with proper configuration.
// Output goes to stderr; stdout is reserved for the squad report.
func InitLogger(logLevel string, isDevelopment bool) *logrus.Logger {
	return InitLoggerWithOutput(logLevel, isDevelopment, os.Stderr)
}

// InitLoggerWithOutput is InitLogger writing to out
func InitLoggerWithOutput(logLevel string, isDevelopment bool, out io.Writer) *logrus.Logger {
	log := logrus.New()

	// Override with environment if not provided
	if logLevel == "" {
		logLevel = os.Getenv("LOG_LEVEL")
		if logLevel == "" {
			if isDevelopment {
				logLevel = "debug"
			} else {
				logLevel = "warn"
			}
		}
	}

	if level, err := logrus.ParseLevel(strings.ToLower(logLevel)); err == nil {
		log.SetLevel(level)
	} else {
		log.SetLevel(logrus.InfoLevel)
		log.WithField("invalid_level", logLevel).Warn("Invalid LOG_LEVEL, using INFO")
	}

	if !isDevelopment || strings.ToLower(os.Getenv("LOG_FORMAT")) == "json" {
		log.SetFormatter(&logrus.JSONFormatter{
			TimestampFormat: "2006-01-02T15:04:05.000Z07:00",
		})
	} else {
		log.SetFormatter(&logrus.TextFormatter{
			FullTimestamp:   true,
			TimestampFormat: "2006-01-02 15:04:05",
		})
	}

	log.SetOutput(out)

	Logger = log

	return log
}

// GetLogger returns the global logger instance
func GetLogger() *logrus.Logger {
	if Logger == nil {
		return InitLogger("", false)
	}
	return Logger
}

// WithSolveContext creates a logger with full solve context
func WithSolveContext(log *logrus.Logger, runID string, lambda float64) *logrus.Entry {
	if log == nil {
		log = GetLogger()
	}
	return log.WithFields(logrus.Fields{
		"run_id": runID,
		"lambda": lambda,
	})
}

// WithSource creates a logger tagged with the player data source
func WithSource(source string) *logrus.Entry {
	return GetLogger().WithField("source", source)
}

// Discard returns a logger that drops everything, for tests and quiet runs.
func Discard() *logrus.Logger {
	log := logrus.New()
	log.SetOutput(io.Discard)
	return log
}
