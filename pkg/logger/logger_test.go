package logger

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap/zapcore"
)

func TestParseLevel(t *testing.T) {
	lvl, err := ParseLevel("")
	require.NoError(t, err)
	assert.Equal(t, zapcore.InfoLevel, lvl)

	lvl, err = ParseLevel(" DEBUG ")
	require.NoError(t, err)
	assert.Equal(t, zapcore.DebugLevel, lvl)

	_, err = ParseLevel("loud")
	require.Error(t, err)
}

func TestObservedNamedLogger(t *testing.T) {
	lggr, logs := TestObserved(t, zapcore.InfoLevel)
	named := lggr.Named("locator").With("component", "test")

	named.Debugw("hidden")
	named.Infow("resolved", "reference", "foo/bar")

	require.Equal(t, 1, logs.Len())
	entry := logs.All()[0]
	assert.Equal(t, "resolved", entry.Message)
	assert.Equal(t, "locator", entry.LoggerName)
	assert.Equal(t, "foo/bar", entry.ContextMap()["reference"])
	assert.Equal(t, "test", entry.ContextMap()["component"])
}

func TestNop(t *testing.T) {
	lggr := Nop()
	lggr.Errorw("ignored", "k", "v")
	assert.Equal(t, "", lggr.Name())
}
