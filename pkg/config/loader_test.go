package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type loaderConfig struct {
	Name    string   `mapstructure:"name"`
	Port    int      `mapstructure:"port"`
	Lanes   []string `mapstructure:"lanes"`
	Enabled bool     `mapstructure:"enabled"`
}

func writeConfigFile(t *testing.T, name, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), name)
	require.NoError(t, os.WriteFile(path, []byte(content), 0o600))
	return path
}

func TestLoader_LoadYAML(t *testing.T) {
	path := writeConfigFile(t, "app.yaml", `
name: greeter
port: 50051
lanes:
  - gray
  - blue
enabled: true
`)

	loader := NewLoader()
	require.NoError(t, loader.LoadFile(path, "yaml"))

	var cfg loaderConfig
	require.NoError(t, loader.Unmarshal(&cfg))
	assert.Equal(t, "greeter", cfg.Name)
	assert.Equal(t, 50051, cfg.Port)
	assert.Equal(t, []string{"gray", "blue"}, cfg.Lanes)
	assert.True(t, cfg.Enabled)
}

func TestLoader_UnmarshalKey(t *testing.T) {
	path := writeConfigFile(t, "app.yaml", `
server:
  name: greeter
  port: 9100
client:
  name: caller
`)

	loader := NewLoader()
	require.NoError(t, loader.LoadFile(path, "yaml"))

	var cfg loaderConfig
	require.NoError(t, loader.UnmarshalKey("server", &cfg))
	assert.Equal(t, "greeter", cfg.Name)
	assert.Equal(t, 9100, cfg.Port)
}

func TestLoader_FileNotFound(t *testing.T) {
	loader := NewLoader()
	err := loader.LoadFile(filepath.Join(t.TempDir(), "missing.yaml"), "yaml")
	assert.ErrorIs(t, err, ErrConfigFileNotFound)
}

func TestLoader_InvalidFormat(t *testing.T) {
	path := writeConfigFile(t, "app.toml", `name = "greeter"`)

	loader := NewLoader()
	err := loader.LoadFile(path, "toml")
	assert.ErrorIs(t, err, ErrInvalidConfigFormat)
}

func TestLoader_MalformedContent(t *testing.T) {
	path := writeConfigFile(t, "app.yaml", "name: [unclosed")

	loader := NewLoader()
	assert.Error(t, loader.LoadFile(path, "yaml"))
}
