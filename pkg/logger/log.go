// SPDX-License-Identifier: Apache-2.0
// Copyright Authors of Hostlight

package logger

import (
	"fmt"
	"os"

	"github.com/sirupsen/logrus"
)

type LogFormat string

const (
	logFormatText LogFormat = "text"
	logFormatJSON LogFormat = "json"

	defaultLogFormat LogFormat    = logFormatText
	defaultLogLevel  logrus.Level = logrus.InfoLevel
)

// DefaultLogger is the base logrus logger. It is different from the logrus
// default to avoid external dependencies from writing out unexpectedly.
var DefaultLogger = InitializeDefaultLogger()

// InitializeDefaultLogger returns a logrus Logger with a custom text formatter.
func InitializeDefaultLogger() (logger *logrus.Logger) {
	logger = logrus.New()
	fmt, _ := getFormatter(defaultLogFormat)
	logger.SetFormatter(fmt)
	logger.SetLevel(defaultLogLevel)
	logger.SetOutput(os.Stderr)
	return
}

// getFormatter returns a configured logrus.Formatter with some specific values
// we want to have
func getFormatter(format LogFormat) (logrus.Formatter, error) {
	switch format {
	case logFormatText:
		return &logrus.TextFormatter{
			DisableColors: true,
		}, nil
	case logFormatJSON:
		return &logrus.JSONFormatter{}, nil
	default:
		return &logrus.TextFormatter{}, fmt.Errorf("invalid log format '%s'", string(format))
	}
}

// SetLogFormat switches the default logger between text and JSON output.
func SetLogFormat(format string) {
	fmt, err := getFormatter(LogFormat(format))
	if err != nil {
		logrus.WithError(err).Warning("Ignoring user-configured log format")
		return
	}
	DefaultLogger.SetFormatter(fmt)
}

// ParseLevel maps a level name to a logrus level. It is a thin wrapper kept
// so callers do not import logrus for name parsing alone.
func ParseLevel(name string) (logrus.Level, error) {
	return logrus.ParseLevel(name)
}

func GetLogLevel() logrus.Level {
	return DefaultLogger.GetLevel()
}

func SetLogLevel(level logrus.Level) {
	DefaultLogger.SetLevel(level)
}

// GetLogger returns the DefaultLogger that was previously setup
func GetLogger() logrus.FieldLogger {
	return DefaultLogger
}
