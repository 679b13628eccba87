package logging

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"go.uber.org/zap/zaptest/observer"
)

func observe(t *testing.T, level zapcore.Level) *observer.ObservedLogs {
	t.Helper()
	core, logs := observer.New(level)
	Use(zap.New(core))
	t.Cleanup(func() { Use(nil) })
	return logs
}

func TestCategoryHelpersUseNamedLoggers(t *testing.T) {
	logs := observe(t, zapcore.DebugLevel)

	Scheduler("batch %d of %d", 1, 3)
	ReportsDebug("parsed %s", "Foo.plist")
	GitError("push failed")

	entries := logs.All()
	require.Len(t, entries, 3)
	assert.Equal(t, "scheduler", entries[0].LoggerName)
	assert.Equal(t, "batch 1 of 3", entries[0].Message)
	assert.Equal(t, "reports", entries[1].LoggerName)
	assert.Equal(t, zapcore.DebugLevel, entries[1].Level)
	assert.Equal(t, "git", entries[2].LoggerName)
	assert.Equal(t, zapcore.ErrorLevel, entries[2].Level)
}

func TestLevelFiltering(t *testing.T) {
	logs := observe(t, zapcore.InfoLevel)

	AutopkgDebug("hidden")
	Autopkg("shown")

	require.Equal(t, 1, logs.Len())
	assert.Equal(t, "shown", logs.All()[0].Message)
}

func TestNoopBeforeSetup(t *testing.T) {
	Use(nil)
	assert.NotPanics(t, func() {
		Boot("nothing to see")
		StartTimer(CategoryReports, "noop").Stop()
	})
}

func TestTimerLogsElapsed(t *testing.T) {
	logs := observe(t, zapcore.DebugLevel)

	StartTimer(CategoryOrdering, "order recipes").StopWithInfo()

	require.Equal(t, 1, logs.Len())
	entry := logs.All()[0]
	assert.Equal(t, "order recipes completed", entry.Message)
	assert.Contains(t, entry.ContextMap(), "elapsed")
}

func TestParseLevel(t *testing.T) {
	assert.Equal(t, zapcore.DebugLevel, parseLevel("info", true))
	assert.Equal(t, zapcore.WarnLevel, parseLevel("WARNING", false))
	assert.Equal(t, zapcore.ErrorLevel, parseLevel("error", false))
	assert.Equal(t, zapcore.InfoLevel, parseLevel("bogus", false))
}

func TestSetupBuildsLogger(t *testing.T) {
	l, err := Setup(Options{Level: "error", Format: "json"})
	require.NoError(t, err)
	t.Cleanup(func() { Use(nil) })
	assert.Same(t, l, Root())
	assert.False(t, l.Core().Enabled(zapcore.InfoLevel))
}
