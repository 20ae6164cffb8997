// SPDX-License-Identifier: EPL-2.0

package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.yaml.in/yaml/v3"
)

func TestLoad_Defaults(t *testing.T) {
	c, err := Load(New())
	require.NoError(t, err)

	assert.Equal(t, 256, c.Stride)
	assert.Equal(t, 44100, c.Rate)
	assert.Equal(t, -40.0, c.DB)
	assert.Equal(t, 1, c.Ears)
	assert.Equal(t, -0.995, c.A1)
	assert.True(t, c.ApplyFilter)
	assert.Equal(t, "cochlear", c.Suffix)
	assert.True(t, c.KeepIntermediate)
	assert.False(t, c.Mono)
	assert.Equal(t, "sinc", c.Resample.Method)
	assert.Equal(t, "veryhigh", c.Resample.Quality)
	assert.Equal(t, ".", c.Executable.Dir)
	assert.Equal(t, "file", c.Executable.Capture)
	assert.Empty(t, c.Cache.Path)
}

func TestLoad_File(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "carfacnap.yaml")

	content := `
stride: 128
rate: 16000
db: -30
timeout: 90s
resample:
  method: cubic
filter:
  local: true
cache:
  path: /tmp/naps.db
`
	require.NoError(t, os.WriteFile(path, []byte(content), 0o600))

	v := New()
	v.SetConfigFile(path)
	require.NoError(t, v.ReadInConfig())

	c, err := Load(v)
	require.NoError(t, err)

	assert.Equal(t, 128, c.Stride)
	assert.Equal(t, 16000, c.Rate)
	assert.Equal(t, -30.0, c.DB)
	assert.Equal(t, 90*time.Second, c.Timeout)
	assert.Equal(t, "cubic", c.Resample.Method)
	assert.True(t, c.Filter.Local)
	assert.Equal(t, "/tmp/naps.db", c.Cache.Path)
	assert.Equal(t, "cochlear", c.Suffix, "unset keys keep defaults")
}

func TestLoad_Env(t *testing.T) {
	t.Setenv("CARFACNAP_STRIDE", "64")
	t.Setenv("CARFACNAP_EXECUTABLE_CAPTURE", "stdout")

	c, err := Load(New())
	require.NoError(t, err)

	assert.Equal(t, 64, c.Stride)
	assert.Equal(t, "stdout", c.Executable.Capture)
}

func TestValidate(t *testing.T) {
	base, err := Load(New())
	require.NoError(t, err)

	tests := []struct {
		name   string
		mutate func(*Config)
	}{
		{"stride", func(c *Config) { c.Stride = 0 }},
		{"rate", func(c *Config) { c.Rate = -1 }},
		{"ears", func(c *Config) { c.Ears = 0 }},
		{"jobs", func(c *Config) { c.Jobs = 0 }},
		{"timeout", func(c *Config) { c.Timeout = -time.Second }},
		{"method", func(c *Config) { c.Resample.Method = "linear" }},
		{"quality", func(c *Config) { c.Resample.Quality = "best" }},
		{"capture", func(c *Config) { c.Executable.Capture = "pipe" }},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			c := base
			tt.mutate(&c)
			assert.ErrorIs(t, c.Validate(), ErrInvalid)
		})
	}
}

func TestYAML(t *testing.T) {
	c, err := Load(New())
	require.NoError(t, err)
	c.Timeout = 2 * time.Minute

	data, err := c.YAML()
	require.NoError(t, err)

	var back map[string]any
	require.NoError(t, yaml.Unmarshal(data, &back))

	assert.Equal(t, "2m0s", back["timeout"])
	assert.Equal(t, 256, back["stride"])
	assert.Equal(t, "cochlear", back["suffix"])
	assert.Equal(t, -0.995, back["a_1"])
	assert.Equal(t, map[string]any{"path": ""}, back["cache"])
}
