package logging

import (
	"bytes"
	"errors"
	"testing"

	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newBufferedAdapter(level logrus.Level) (Logger, *bytes.Buffer) {
	base := logrus.New()
	buf := &bytes.Buffer{}
	base.SetOutput(buf)
	base.SetLevel(level)
	base.SetFormatter(&logrus.TextFormatter{DisableTimestamp: true})
	return NewLogrusAdapterFromLogger(base), buf
}

func TestNewLogrusAdapter(t *testing.T) {
	tests := []struct {
		name        string
		level       string
		format      string
		expectLevel logrus.Level
		expectJSON  bool
	}{
		{name: "debug text", level: "debug", format: "text", expectLevel: logrus.DebugLevel},
		{name: "info json", level: "info", format: "json", expectLevel: logrus.InfoLevel, expectJSON: true},
		{name: "warn text", level: "warn", format: "text", expectLevel: logrus.WarnLevel},
		{name: "unknown level falls back to info", level: "loud", format: "text", expectLevel: logrus.InfoLevel},
		{name: "case insensitive", level: "ERROR", format: "JSON", expectLevel: logrus.ErrorLevel, expectJSON: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			adapter, ok := NewLogrusAdapter(tt.level, tt.format).(*LogrusAdapter)
			require.True(t, ok)
			assert.Equal(t, tt.expectLevel, adapter.entry.Logger.Level)

			_, isJSON := adapter.entry.Logger.Formatter.(*logrus.JSONFormatter)
			assert.Equal(t, tt.expectJSON, isJSON)
		})
	}
}

func TestNewLogrusAdapterFromLogger_Nil(t *testing.T) {
	adapter, ok := NewLogrusAdapterFromLogger(nil).(*LogrusAdapter)
	require.True(t, ok)
	assert.NotNil(t, adapter.entry.Logger)
}

func TestNewLogrusAdapterWithOutput(t *testing.T) {
	var buf bytes.Buffer
	logger := NewLogrusAdapterWithOutput("debug", "json", &buf)
	logger.Debug("dialect detected", F(FieldDelimiter, ";"))

	assert.Contains(t, buf.String(), `"delimiter":";"`)
	assert.Contains(t, buf.String(), "dialect detected")
}

func TestLogrusAdapter_Levels(t *testing.T) {
	logger, buf := newBufferedAdapter(logrus.WarnLevel)

	logger.Debug("hidden debug")
	logger.Info("hidden info")
	logger.Warn("shown warn", F(FieldRowNumber, 3))
	logger.Error("shown error")

	out := buf.String()
	assert.NotContains(t, out, "hidden")
	assert.Contains(t, out, "shown warn")
	assert.Contains(t, out, "row_number=3")
	assert.Contains(t, out, "shown error")
}

func TestLogrusAdapter_ChainedContext(t *testing.T) {
	logger, buf := newBufferedAdapter(logrus.InfoLevel)

	logger.
		WithField(FieldState, "preview").
		WithFields(F(FieldCurrency, "EUR"), F(FieldCount, 2)).
		WithError(errors.New("submission rejected")).
		Error("import failed")

	out := buf.String()
	assert.Contains(t, out, "import failed")
	assert.Contains(t, out, "state=preview")
	assert.Contains(t, out, "currency=EUR")
	assert.Contains(t, out, "count=2")
	assert.Contains(t, out, "submission rejected")
}

func TestConvertFields(t *testing.T) {
	out := convertFields([]Field{F("a", "x"), F("b", 42)})
	assert.Len(t, out, 2)
	assert.Equal(t, "x", out["a"])
	assert.Equal(t, 42, out["b"])
	assert.Empty(t, convertFields(nil))
}

func TestFieldConstants(t *testing.T) {
	assert.Equal(t, "file_path", FieldFile)
	assert.Equal(t, "count", FieldCount)
	assert.Equal(t, "delimiter", FieldDelimiter)
	assert.Equal(t, "row_number", FieldRowNumber)
	assert.Equal(t, "state", FieldState)
	assert.Equal(t, "error", FieldError)
}

func TestLogrusAdapter_ImplementsInterface(t *testing.T) {
	var _ Logger = (*LogrusAdapter)(nil)
}
