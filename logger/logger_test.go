package logger

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

func TestInitLogger_WritesToFile(t *testing.T) {
	prev := zap.L()
	defer zap.ReplaceGlobals(prev)

	path := filepath.Join(t.TempDir(), "deploy.log")
	require.NoError(t, InitLogger(false, path))

	zap.S().Infow("hello", "section", "backend")
	zap.S().Debugw("hidden at info level")
	Sync()

	raw, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Contains(t, string(raw), "hello")
	assert.Contains(t, string(raw), "backend")
	assert.NotContains(t, string(raw), "hidden at info level")
}

func TestInitLogger_DebugLevel(t *testing.T) {
	prev := zap.L()
	defer zap.ReplaceGlobals(prev)

	path := filepath.Join(t.TempDir(), "debug.log")
	require.NoError(t, InitLogger(true, path))

	zap.S().Debugw("visible at debug level")
	Sync()

	raw, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Contains(t, string(raw), "visible at debug level")
}

func TestInitLogger_BadPath(t *testing.T) {
	prev := zap.L()
	defer zap.ReplaceGlobals(prev)

	err := InitLogger(false, filepath.Join(t.TempDir(), "missing", "dir", "x.log"))
	assert.Error(t, err)
}
