package logging_test

import (
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/deevus/instructor-tui/internal/logging"
)

func TestNew_WritesToFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "nested", "dash.log")

	logger, err := logging.New(path, "debug")
	require.NoError(t, err)

	logger.Info("action completed", zap.String("action", "list-course-assignments"))
	require.NoError(t, logger.Sync())

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.True(t, strings.Contains(string(data), "list-course-assignments"))
}

func TestNew_LevelFilters(t *testing.T) {
	path := filepath.Join(t.TempDir(), "dash.log")

	logger, err := logging.New(path, "warn")
	require.NoError(t, err)

	logger.Info("hidden")
	logger.Warn("shown")
	require.NoError(t, logger.Sync())

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.NotContains(t, string(data), "hidden")
	assert.Contains(t, string(data), "shown")
}

func TestNew_EmptyPathIsNop(t *testing.T) {
	logger, err := logging.New("", "info")
	require.NoError(t, err)
	assert.NotNil(t, logger)
}

func TestNew_BadLevel(t *testing.T) {
	_, err := logging.New(filepath.Join(t.TempDir(), "x.log"), "loud")
	assert.Error(t, err)
}
