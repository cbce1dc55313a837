package log

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zaptest/observer"
)

type stringerID int

func (s stringerID) String() string { return "id-7" }

func TestParseLevel(t *testing.T) {
	lvl, ok := ParseLevel("warn")
	assert.True(t, ok)
	assert.Equal(t, LevelWarn, lvl)

	lvl, ok = ParseLevel("loud")
	assert.False(t, ok)
	assert.Equal(t, LevelInfo, lvl)
}

func TestLogger_FieldsReachCore(t *testing.T) {
	core, logs := observer.New(zap.DebugLevel)
	logger := NewWithCore(core)

	logger.With(String("system", "import")).Error("request timed out",
		Entity(stringerID(7)),
		Address("mat/a.json"),
		Error(errors.New("boom")),
	)

	entries := logs.FilterMessage("request timed out").All()
	require.Len(t, entries, 1)
	ctx := entries[0].ContextMap()
	assert.Equal(t, "import", ctx["system"])
	assert.Equal(t, "id-7", ctx["entity"])
	assert.Equal(t, "mat/a.json", ctx["address"])
	assert.Equal(t, "boom", ctx["error"])
}

func TestLogger_SetLevel(t *testing.T) {
	logger := NewWithConfig(Config{Level: "error", Encoding: "console"})
	assert.Equal(t, LevelError, logger.GetLevel())
	logger.SetLevel(LevelDebug)
	assert.Equal(t, LevelDebug, logger.GetLevel())
}
