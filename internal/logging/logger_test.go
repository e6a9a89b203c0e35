package logging

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type captureAdapter struct {
	name    string
	entries []*LogEntry
}

func (a *captureAdapter) Write(entry *LogEntry) error {
	a.entries = append(a.entries, entry)
	return nil
}

func (a *captureAdapter) Close() error { return nil }
func (a *captureAdapter) Name() string { return a.name }

func TestMultiLoggerLevelFiltering(t *testing.T) {
	capture := &captureAdapter{name: "capture"}
	logger := NewMultiLogger()
	require.NoError(t, logger.AddAdapter(capture))
	logger.SetLevel(WarnLevel)

	logger.Debug("debug message")
	logger.Info("info message")
	logger.Warn("warn message")
	logger.Error("error message")

	require.Len(t, capture.entries, 2)
	assert.Equal(t, "warn message", capture.entries[0].Message)
	assert.Equal(t, "error message", capture.entries[1].Message)
}

func TestMultiLoggerMergesFields(t *testing.T) {
	capture := &captureAdapter{name: "capture"}
	logger := NewMultiLogger()
	require.NoError(t, logger.AddAdapter(capture))

	scoped := logger.WithField("run_id", "abc123")
	scoped.Info("stage finished", map[string]interface{}{"scraped": 4})

	require.Len(t, capture.entries, 1)
	fields := capture.entries[0].Fields
	assert.Equal(t, "abc123", fields["run_id"])
	assert.Equal(t, 4, fields["scraped"])

	// The parent logger is unaffected by the scoped fields.
	logger.Info("plain")
	assert.NotContains(t, capture.entries[1].Fields, "run_id")
}

func TestMultiLoggerRejectsDuplicateAdapters(t *testing.T) {
	logger := NewMultiLogger()
	require.NoError(t, logger.AddAdapter(&captureAdapter{name: "capture"}))
	assert.Error(t, logger.AddAdapter(&captureAdapter{name: "capture"}))
}

func TestParseLogLevel(t *testing.T) {
	assert.Equal(t, DebugLevel, ParseLogLevel("debug"))
	assert.Equal(t, WarnLevel, ParseLogLevel("warning"))
	assert.Equal(t, InfoLevel, ParseLogLevel("nonsense"))
}
