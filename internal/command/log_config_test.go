package command

import (
	"bytes"
	"log/slog"
	"os"
	"path/filepath"
	"testing"

	"github.com/joeycumines/goap/internal/config"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestResolveLogConfig_Defaults(t *testing.T) {
	t.Parallel()

	lc, err := resolveLogConfig("", "", config.NewConfig())
	require.NoError(t, err)
	assert.Nil(t, lc.logFile)
	assert.Equal(t, slog.LevelInfo, lc.level)
	assert.NoError(t, lc.Close())
}

func TestResolveLogConfig_FlagOverridesConfig(t *testing.T) {
	t.Parallel()

	path := filepath.Join(t.TempDir(), "flag.log")
	cfg := config.NewConfig()
	cfg.SetGlobalOption(config.KeyLogLevel, "warn")
	cfg.SetGlobalOption(config.KeyLogFile, filepath.Join(t.TempDir(), "missing", "config.log"))

	lc, err := resolveLogConfig(path, "debug", cfg)
	require.NoError(t, err)
	defer lc.Close()

	assert.Equal(t, slog.LevelDebug, lc.level)
	require.NotNil(t, lc.logFile)
	assert.Equal(t, path, lc.logFile.Name())
}

func TestResolveLogConfig_FromConfig(t *testing.T) {
	t.Parallel()

	path := filepath.Join(t.TempDir(), "config.log")
	cfg := config.NewConfig()
	cfg.SetGlobalOption(config.KeyLogLevel, "ERROR")
	cfg.SetGlobalOption(config.KeyLogFile, path)

	lc, err := resolveLogConfig("", "", cfg)
	require.NoError(t, err)
	defer lc.Close()

	assert.Equal(t, slog.LevelError, lc.level)
	require.NotNil(t, lc.logFile)

	lc.logger(nil).Error("boom", "n", 1)
	lc.logger(nil).Warn("filtered")
	data, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Contains(t, string(data), `"msg":"boom","n":1`)
	assert.NotContains(t, string(data), "filtered")
}

func TestResolveLogConfig_Errors(t *testing.T) {
	t.Parallel()

	_, err := resolveLogConfig("", "verbose", nil)
	require.EqualError(t, err, "invalid log level: verbose")

	_, err = resolveLogConfig(t.TempDir(), "", nil)
	require.ErrorContains(t, err, "failed to open log file")
}

func TestLogConfig_TextLoggerToStderr(t *testing.T) {
	t.Parallel()

	var stderr bytes.Buffer
	logger := logConfig{level: slog.LevelWarn}.logger(&stderr)
	logger.Info("quiet")
	logger.Warn("loud", "agent", "baker-1")

	assert.NotContains(t, stderr.String(), "quiet")
	assert.Contains(t, stderr.String(), `level=WARN msg=loud agent=baker-1`)
}
