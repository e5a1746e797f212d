package internal

import (
	"bytes"
	"log"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
)

func captureLog(t *testing.T) *bytes.Buffer {
	t.Helper()
	var buf bytes.Buffer
	prevOut, prevFlags := log.Writer(), log.Flags()
	log.SetOutput(&buf)
	log.SetFlags(0)
	t.Cleanup(func() {
		log.SetOutput(prevOut)
		log.SetFlags(prevFlags)
	})
	return &buf
}

func TestParseLogLevel(t *testing.T) {
	level, ok := ParseLogLevel("debug")
	assert.True(t, ok)
	assert.Equal(t, LogLevelDebug, level)

	_, ok = ParseLogLevel("loud")
	assert.False(t, ok)

	assert.Equal(t, LogLevelInfo, NewLoggerFromString("loud").GetLevel())
}

func TestLoggerLevelsAndComponent(t *testing.T) {
	buf := captureLog(t)
	logger := NewLogger(LogLevelWarn).With("DataReader")

	logger.Info("hidden %d", 1)
	logger.Warn("coerced %d cells", 3)
	logger.Error("failed")

	lines := strings.Split(strings.TrimSpace(buf.String()), "\n")
	assert.Equal(t, []string{
		"[WARN] [DataReader] coerced 3 cells",
		"[ERROR] [DataReader] failed",
	}, lines)
}
