package logger

import (
	"os"
	"path/filepath"
	"runtime"
	"testing"
	"time"

	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCustomFormatter(t *testing.T) {
	entry := &logrus.Entry{
		Time:    time.Date(2025, 3, 1, 8, 30, 0, 0, time.UTC),
		Level:   logrus.WarnLevel,
		Message: "provider skipped",
		Caller:  &runtime.Frame{File: "/src/engine/engine.go", Line: 42},
		Logger:  &logrus.Logger{ReportCaller: true},
	}

	out, err := (&CustomFormatter{}).Format(entry)
	require.NoError(t, err)
	assert.Equal(t, "[2025-03-01 08:30:00] [WARN] [engine.go:42] provider skipped\n", string(out))
}

func TestInitLogger_WritesFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "logs", "agent.log")
	require.NoError(t, InitLogger("debug", path))

	Log.Info("hello file")

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Contains(t, string(data), "hello file")
	assert.Contains(t, string(data), "[INFO]")
	assert.Equal(t, logrus.DebugLevel, Log.GetLevel())
}

func TestInitLogger_BadLevelFallsBackToInfo(t *testing.T) {
	require.NoError(t, InitLogger("verbose", ""))
	assert.Equal(t, logrus.InfoLevel, Log.GetLevel())
}
