// SPDX-License-Identifier: EPL-2.0

// Package config loads carfacnap settings from defaults, a YAML file, the
// environment (CARFACNAP_*) and command-line flags, in increasing order of
// precedence.
package config

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/spf13/viper"
	"go.yaml.in/yaml/v3"

	"github.com/ik5/carfacnap/audio"
	"github.com/ik5/carfacnap/carfac"
)

const (
	FileName  = "carfacnap"
	EnvPrefix = "CARFACNAP"
)

var ErrInvalid = errors.New("invalid configuration")

type Resample struct {
	Method  string `mapstructure:"method" yaml:"method"`
	Quality string `mapstructure:"quality" yaml:"quality"`
}

type Executable struct {
	Dir     string `mapstructure:"dir" yaml:"dir"`
	Capture string `mapstructure:"capture" yaml:"capture"`
}

type Filter struct {
	// Local asks the executable for the raw NAP and smooths and decimates
	// it in-process instead.
	Local bool `mapstructure:"local" yaml:"local"`
}

type Cache struct {
	Path string `mapstructure:"path" yaml:"path"`
}

type Config struct {
	Stride      int     `mapstructure:"stride" yaml:"stride"`
	Rate        int     `mapstructure:"rate" yaml:"rate"`
	DB          float64 `mapstructure:"db" yaml:"db"`
	Ears        int     `mapstructure:"ears" yaml:"ears"`
	A1          float64 `mapstructure:"a_1" yaml:"a_1"`
	ApplyFilter bool    `mapstructure:"apply_filter" yaml:"apply_filter"`
	Suffix      string  `mapstructure:"suffix" yaml:"suffix"`

	Mono             bool          `mapstructure:"mono" yaml:"mono"`
	WriteWAV         bool          `mapstructure:"write_wav" yaml:"write_wav"`
	KeepIntermediate bool          `mapstructure:"keep_intermediate" yaml:"keep_intermediate"`
	Timeout          time.Duration `mapstructure:"timeout" yaml:"-"`
	Jobs             int           `mapstructure:"jobs" yaml:"jobs"`

	Resample   Resample   `mapstructure:"resample" yaml:"resample"`
	Executable Executable `mapstructure:"executable" yaml:"executable"`
	Filter     Filter     `mapstructure:"filter" yaml:"filter"`
	Cache      Cache      `mapstructure:"cache" yaml:"cache"`
}

// SetDefaults registers every key with its default value. Registering the
// keys is also what lets AutomaticEnv find them during Unmarshal.
func SetDefaults(v *viper.Viper) {
	v.SetDefault("stride", 256)
	v.SetDefault("rate", 44100)
	v.SetDefault("db", -40.0)
	v.SetDefault("ears", 1)
	v.SetDefault("a_1", -0.995)
	v.SetDefault("apply_filter", true)
	v.SetDefault("suffix", "cochlear")

	v.SetDefault("mono", false)
	v.SetDefault("write_wav", false)
	v.SetDefault("keep_intermediate", true)
	v.SetDefault("timeout", time.Duration(0))
	v.SetDefault("jobs", 1)

	v.SetDefault("resample.method", string(audio.MethodSinc))
	v.SetDefault("resample.quality", string(audio.QualityVeryHigh))
	v.SetDefault("executable.dir", ".")
	v.SetDefault("executable.capture", string(carfac.CaptureFile))
	v.SetDefault("filter.local", false)
	v.SetDefault("cache.path", "")
}

// New returns a viper instance with defaults and environment binding.
func New() *viper.Viper {
	v := viper.New()
	Configure(v)
	return v
}

// Configure applies defaults, the environment prefix and the config file
// search path to v.
func Configure(v *viper.Viper) {
	SetDefaults(v)

	v.SetConfigName(FileName)
	v.SetConfigType("yaml")
	v.SetEnvPrefix(EnvPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()
}

// Load decodes and validates the settings held by v.
func Load(v *viper.Viper) (Config, error) {
	var c Config
	if err := v.Unmarshal(&c); err != nil {
		return Config{}, fmt.Errorf("%w: %w", ErrInvalid, err)
	}

	if err := c.Validate(); err != nil {
		return Config{}, err
	}

	return c, nil
}

func (c Config) Validate() error {
	var errs []error

	if c.Stride < 1 {
		errs = append(errs, fmt.Errorf("stride must be positive, got %d", c.Stride))
	}
	if c.Rate < 1 {
		errs = append(errs, fmt.Errorf("rate must be positive, got %d", c.Rate))
	}
	if c.Ears < 1 {
		errs = append(errs, fmt.Errorf("ears must be positive, got %d", c.Ears))
	}
	if c.Jobs < 1 {
		errs = append(errs, fmt.Errorf("jobs must be positive, got %d", c.Jobs))
	}
	if c.Timeout < 0 {
		errs = append(errs, fmt.Errorf("timeout must not be negative, got %s", c.Timeout))
	}
	if _, err := audio.ParseMethod(c.Resample.Method); err != nil {
		errs = append(errs, err)
	}
	if _, err := audio.ParseQuality(c.Resample.Quality); err != nil {
		errs = append(errs, err)
	}
	if _, err := carfac.ParseCapture(c.Executable.Capture); err != nil {
		errs = append(errs, err)
	}

	if len(errs) > 0 {
		return fmt.Errorf("%w: %w", ErrInvalid, errors.Join(errs...))
	}

	return nil
}

// YAML renders the effective configuration.
func (c Config) YAML() ([]byte, error) {
	out := struct {
		Config  `yaml:",inline"`
		Timeout string `yaml:"timeout"`
	}{c, c.Timeout.String()}

	data, err := yaml.Marshal(out)
	if err != nil {
		return nil, fmt.Errorf("%w", err)
	}

	return data, nil
}
