// SPDX-License-Identifier: EPL-2.0

package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeFile(t *testing.T, name, content string) string {
	t.Helper()

	path := filepath.Join(t.TempDir(), name)
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))

	return path
}

func TestDefault(t *testing.T) {
	t.Parallel()

	cfg := Default()
	require.NoError(t, cfg.Validate())
	assert.Equal(t, 48000, cfg.Engine.SampleRate)
	assert.Equal(t, 2, cfg.Engine.Channels)
	assert.Equal(t, 512, cfg.Engine.PeriodFrames)
	assert.Equal(t, 2*cfg.Engine.SampleRate, cfg.Stream.CapacityFrames)
	assert.Equal(t, "info", cfg.Logging.Level)
}

func TestLoad(t *testing.T) {
	t.Parallel()

	path := writeFile(t, "pcmbridge.yaml", `
engine:
  sample_rate: 44100
  channels: 1
stream:
  capacity_frames: 8192
logging:
  level: debug
  json: true
`)

	cfg, err := Load(path)
	require.NoError(t, err)
	require.NoError(t, cfg.Validate())

	assert.Equal(t, 44100, cfg.Engine.SampleRate)
	assert.Equal(t, 1, cfg.Engine.Channels)
	assert.Equal(t, 512, cfg.Engine.PeriodFrames, "default kept")
	assert.Equal(t, 8192, cfg.Stream.CapacityFrames)
	assert.Equal(t, 4800, cfg.Stream.ChunkFrames, "default kept")
	assert.Equal(t, "debug", cfg.Logging.Level)
	assert.True(t, cfg.Logging.JSON)
}

func TestLoad_Errors(t *testing.T) {
	t.Parallel()

	_, err := Load(filepath.Join(t.TempDir(), "missing.yaml"))
	assert.ErrorContains(t, err, "read config")

	_, err = Load(writeFile(t, "bad.yaml", "engine: [1, 2"))
	assert.ErrorContains(t, err, "parse yaml")
}

func TestValidate(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name   string
		mutate func(*Config)
	}{
		{"zero sample rate", func(c *Config) { c.Engine.SampleRate = 0 }},
		{"negative channels", func(c *Config) { c.Engine.Channels = -1 }},
		{"zero period", func(c *Config) { c.Engine.PeriodFrames = 0 }},
		{"zero capacity", func(c *Config) { c.Stream.CapacityFrames = 0 }},
		{"zero chunk", func(c *Config) { c.Stream.ChunkFrames = 0 }},
		{"unknown level", func(c *Config) { c.Logging.Level = "loud" }},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			cfg := Default()
			tt.mutate(cfg)
			assert.ErrorIs(t, cfg.Validate(), ErrInvalidConfig)
		})
	}
}

func TestApply(t *testing.T) {
	t.Parallel()

	cfg := Default()
	require.NoError(t, cfg.apply(map[string]string{
		EnvSampleRate:     "22050",
		EnvChannels:       " 1 ",
		EnvCapacityFrames: "1024",
		EnvLogLevel:       "warn",
	}))

	assert.Equal(t, 22050, cfg.Engine.SampleRate)
	assert.Equal(t, 1, cfg.Engine.Channels)
	assert.Equal(t, 512, cfg.Engine.PeriodFrames)
	assert.Equal(t, 1024, cfg.Stream.CapacityFrames)
	assert.Equal(t, "warn", cfg.Logging.Level)

	err := cfg.apply(map[string]string{EnvPeriodFrames: "many"})
	assert.ErrorIs(t, err, ErrInvalidConfig)
}

// LoadEnv reads the process environment, so these tests do not run in
// parallel.
func TestLoadEnv(t *testing.T) {
	path := writeFile(t, ".env", "PCMBRIDGE_SAMPLE_RATE=16000\nPCMBRIDGE_CHANNELS=1\n")
	t.Setenv(EnvChannels, "2")

	cfg := Default()
	require.NoError(t, cfg.LoadEnv(path))

	assert.Equal(t, 16000, cfg.Engine.SampleRate)
	assert.Equal(t, 2, cfg.Engine.Channels, "environment wins over the file")
}

func TestLoadEnv_MissingFile(t *testing.T) {
	t.Setenv(EnvLogLevel, "error")

	cfg := Default()
	require.NoError(t, cfg.LoadEnv(filepath.Join(t.TempDir(), ".env")))
	assert.Equal(t, "error", cfg.Logging.Level)
	assert.Equal(t, 48000, cfg.Engine.SampleRate)
}
