// SPDX-License-Identifier: EPL-2.0

// Package config loads the settings shared by the pcmbridge tools: engine
// format, stream sizing and logging. Values come from a YAML file and can be
// overridden from the environment or a .env file.
package config

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"strconv"
	"strings"

	"github.com/joho/godotenv"
	"github.com/sirupsen/logrus"
	"gopkg.in/yaml.v3"
)

var ErrInvalidConfig = errors.New("invalid configuration")

type Config struct {
	Engine  Engine  `yaml:"engine"`
	Stream  Stream  `yaml:"stream"`
	Logging Logging `yaml:"logging"`
}

type Engine struct {
	SampleRate   int `yaml:"sample_rate"`
	Channels     int `yaml:"channels"`
	PeriodFrames int `yaml:"period_frames"`
}

type Stream struct {
	CapacityFrames int `yaml:"capacity_frames"`
	ChunkFrames    int `yaml:"chunk_frames"`
}

type Logging struct {
	Level string `yaml:"level"`
	JSON  bool   `yaml:"json"`
}

// Environment variables recognised by LoadEnv.
const (
	EnvSampleRate     = "PCMBRIDGE_SAMPLE_RATE"
	EnvChannels       = "PCMBRIDGE_CHANNELS"
	EnvPeriodFrames   = "PCMBRIDGE_PERIOD_FRAMES"
	EnvCapacityFrames = "PCMBRIDGE_CAPACITY_FRAMES"
	EnvLogLevel       = "PCMBRIDGE_LOG_LEVEL"
)

// Default is 48 kHz stereo with a 512-frame period, two seconds of stream
// capacity and 100 ms producer chunks.
func Default() *Config {
	return &Config{
		Engine: Engine{
			SampleRate:   48000,
			Channels:     2,
			PeriodFrames: 512,
		},
		Stream: Stream{
			CapacityFrames: 96000,
			ChunkFrames:    4800,
		},
		Logging: Logging{
			Level: "info",
		},
	}
}

// Load reads a YAML file on top of Default. Keys missing from the file keep
// their default value.
func Load(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read config: %w", err)
	}

	cfg := Default()
	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("parse yaml: %w", err)
	}

	logrus.WithFields(logrus.Fields{
		"function": "config.Load",
		"path":     path,
	}).Debug("Configuration loaded")

	return cfg, nil
}

// LoadEnv applies overrides from the dotenv file at path and from the
// process environment, which wins over the file. A missing file is not an
// error.
func (c *Config) LoadEnv(path string) error {
	vars, err := godotenv.Read(path)
	if err != nil {
		if !errors.Is(err, fs.ErrNotExist) {
			return fmt.Errorf("read %s: %w", path, err)
		}
		vars = map[string]string{}
	}

	for _, key := range []string{EnvSampleRate, EnvChannels, EnvPeriodFrames, EnvCapacityFrames, EnvLogLevel} {
		if v, ok := os.LookupEnv(key); ok {
			vars[key] = v
		}
	}

	return c.apply(vars)
}

func (c *Config) apply(vars map[string]string) error {
	ints := []struct {
		key string
		dst *int
	}{
		{EnvSampleRate, &c.Engine.SampleRate},
		{EnvChannels, &c.Engine.Channels},
		{EnvPeriodFrames, &c.Engine.PeriodFrames},
		{EnvCapacityFrames, &c.Stream.CapacityFrames},
	}

	for _, it := range ints {
		v, ok := vars[it.key]
		if !ok {
			continue
		}

		n, err := strconv.Atoi(strings.TrimSpace(v))
		if err != nil {
			return fmt.Errorf("%s=%q: %w", it.key, v, ErrInvalidConfig)
		}
		*it.dst = n
	}

	if v, ok := vars[EnvLogLevel]; ok {
		c.Logging.Level = strings.TrimSpace(v)
	}

	return nil
}

// Validate rejects non-positive sizes and unknown log levels.
func (c *Config) Validate() error {
	checks := []struct {
		name  string
		value int
	}{
		{"engine.sample_rate", c.Engine.SampleRate},
		{"engine.channels", c.Engine.Channels},
		{"engine.period_frames", c.Engine.PeriodFrames},
		{"stream.capacity_frames", c.Stream.CapacityFrames},
		{"stream.chunk_frames", c.Stream.ChunkFrames},
	}

	for _, ch := range checks {
		if ch.value <= 0 {
			return fmt.Errorf("%s must be positive, got %d: %w", ch.name, ch.value, ErrInvalidConfig)
		}
	}

	if _, err := logrus.ParseLevel(c.Logging.Level); err != nil {
		return fmt.Errorf("logging.level %q: %w", c.Logging.Level, ErrInvalidConfig)
	}

	return nil
}
