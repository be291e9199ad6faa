package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestGetConfigPath_Env(t *testing.T) {
	want := filepath.Join(t.TempDir(), "custom")
	t.Setenv(EnvConfigPath, want)

	got, err := GetConfigPath()
	require.NoError(t, err)
	assert.Equal(t, want, got)
}

func TestGetConfigPath_Home(t *testing.T) {
	home := t.TempDir()
	t.Setenv(EnvConfigPath, "")
	t.Setenv("HOME", home)
	t.Setenv("USERPROFILE", home)

	got, err := GetConfigPath()
	require.NoError(t, err)
	assert.Equal(t, filepath.Join(home, ".goap", "config"), got)
}

func TestEnsureConfigDir(t *testing.T) {
	dir := filepath.Join(t.TempDir(), "a", "b")
	t.Setenv(EnvConfigPath, filepath.Join(dir, "config"))

	require.NoError(t, EnsureConfigDir())
	fi, err := os.Stat(dir)
	require.NoError(t, err)
	assert.True(t, fi.IsDir())
}
