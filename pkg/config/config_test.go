package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeConfig(t *testing.T, content string) string {
	t.Helper()

	path := filepath.Join(t.TempDir(), "studio.yaml")
	require.NoError(t, os.WriteFile(path, []byte(content), 0o600))

	return path
}

func TestLoadStudio(t *testing.T) {
	path := writeConfig(t, `
port: 8080
engine_url: http://engine:8000
log_level: debug
enable_tracing: true
`)

	studio, err := LoadStudio(path)
	require.NoError(t, err)
	assert.Equal(t, 8080, studio.Port)
	assert.Equal(t, "http://engine:8000", studio.EngineURL)
	assert.Equal(t, "debug", studio.LogLevel)
	assert.True(t, studio.EnableTracing)
}

func TestLoadStudio_Defaults(t *testing.T) {
	path := writeConfig(t, `engine_url: http://engine:8000`)

	studio, err := LoadStudio(path)
	require.NoError(t, err)
	assert.Equal(t, 9090, studio.Port)
	assert.Equal(t, "info", studio.LogLevel)
	assert.False(t, studio.EnableTracing)
}

func TestLoadStudio_RequiresEngineURL(t *testing.T) {
	path := writeConfig(t, `port: 8080`)

	_, err := LoadStudio(path)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "engine_url")
}

func TestLoadStudio_MissingFile(t *testing.T) {
	_, err := LoadStudio(filepath.Join(t.TempDir(), "nope.yaml"))
	require.Error(t, err)
}

func TestLoadStudio_InvalidYAML(t *testing.T) {
	path := writeConfig(t, "port: [broken")

	_, err := LoadStudio(path)
	require.Error(t, err)
}
