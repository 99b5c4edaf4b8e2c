package logging

import (
	"io"
	"strings"

	"github.com/sirupsen/logrus"
)

// NewLogrus builds a logrus logger for level ("debug", "info", "warn",
// "error") and format ("json" or "text"). Unknown levels fall back to info.
// A nil w keeps logrus' default output.
func NewLogrus(level, format string, w io.Writer) *logrus.Logger {
	logger := logrus.New()
	if w != nil {
		logger.SetOutput(w)
	}

	logLevel, err := logrus.ParseLevel(strings.ToLower(level))
	if err != nil {
		logger.Warnf("Invalid log level '%s', using 'info'", level)
		logLevel = logrus.InfoLevel
	}
	logger.SetLevel(logLevel)

	if strings.EqualFold(format, "json") {
		logger.SetFormatter(&logrus.JSONFormatter{})
	} else {
		logger.SetFormatter(&logrus.TextFormatter{FullTimestamp: true})
	}
	return logger
}

// LogrusAdapter implements Logger on top of a logrus entry.
type LogrusAdapter struct {
	entry *logrus.Entry
}

// NewLogrusAdapter creates a Logger with NewLogrus settings.
func NewLogrusAdapter(level, format string) Logger {
	return NewLogrusAdapterFromLogger(NewLogrus(level, format, nil))
}

// NewLogrusAdapterWithOutput is NewLogrusAdapter writing to w.
func NewLogrusAdapterWithOutput(level, format string, w io.Writer) Logger {
	return NewLogrusAdapterFromLogger(NewLogrus(level, format, w))
}

// NewLogrusAdapterFromLogger wraps an existing logrus.Logger. A nil logger
// gets a fresh default one.
func NewLogrusAdapterFromLogger(logger *logrus.Logger) Logger {
	if logger == nil {
		logger = logrus.New()
	}
	return &LogrusAdapter{entry: logrus.NewEntry(logger)}
}

func (l *LogrusAdapter) Debug(msg string, fields ...Field) {
	l.entry.WithFields(convertFields(fields)).Debug(msg)
}

func (l *LogrusAdapter) Info(msg string, fields ...Field) {
	l.entry.WithFields(convertFields(fields)).Info(msg)
}

func (l *LogrusAdapter) Warn(msg string, fields ...Field) {
	l.entry.WithFields(convertFields(fields)).Warn(msg)
}

func (l *LogrusAdapter) Error(msg string, fields ...Field) {
	l.entry.WithFields(convertFields(fields)).Error(msg)
}

func (l *LogrusAdapter) WithError(err error) Logger {
	return &LogrusAdapter{entry: l.entry.WithError(err)}
}

func (l *LogrusAdapter) WithField(key string, value interface{}) Logger {
	return &LogrusAdapter{entry: l.entry.WithField(key, value)}
}

func (l *LogrusAdapter) WithFields(fields ...Field) Logger {
	return &LogrusAdapter{entry: l.entry.WithFields(convertFields(fields))}
}

func convertFields(fields []Field) logrus.Fields {
	out := make(logrus.Fields, len(fields))
	for _, field := range fields {
		out[field.Key] = field.Value
	}
	return out
}
