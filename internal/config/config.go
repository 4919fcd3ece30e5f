// Package config loads host settings from a YAML file with RTN_*
// environment overrides.
package config

import (
	"errors"
	"fmt"
	"math"
	"os"
	"strings"

	"gopkg.in/yaml.v3"
)

const (
	DefaultSampleRate        = 48000.0
	DefaultBlockSize         = 512
	DefaultLogLevel          = "info"
	DefaultCacheSize         = 16
	DefaultSelfTestThreshold = 1e-5
	DefaultPrerollSamples    = 2048
	DefaultGainMs            = 10.0
	DefaultMasterMs          = 50.0
	DefaultParamMs           = 50.0
	DefaultQueueDepth        = 8
)

// ModelsConfig selects where models come from.
type ModelsConfig struct {
	Dir       string `yaml:"dir"`
	Default   string `yaml:"default"`
	CacheSize int    `yaml:"cache_size"`
}

// LoaderConfig tunes model loading.
type LoaderConfig struct {
	SelfTestThreshold float64 `yaml:"self_test_threshold"`
	PrerollSamples    int     `yaml:"preroll_samples"`
}

// SmoothingConfig holds smoother time constants in milliseconds.
type SmoothingConfig struct {
	GainMs   float64 `yaml:"gain_ms"`
	MasterMs float64 `yaml:"master_ms"`
	ParamMs  float64 `yaml:"param_ms"`
}

// SwapConfig sizes the swap channel.
type SwapConfig struct {
	QueueDepth int `yaml:"queue_depth"`
}

// Config stores the host configuration.
type Config struct {
	SampleRate float64         `yaml:"sample_rate"`
	BlockSize  int             `yaml:"block_size"`
	LogLevel   string          `yaml:"log_level"`
	Models     ModelsConfig    `yaml:"models"`
	Loader     LoaderConfig    `yaml:"loader"`
	Smoothing  SmoothingConfig `yaml:"smoothing"`
	Swap       SwapConfig      `yaml:"swap"`
}

// Default returns the built-in configuration.
func Default() Config {
	return Config{
		SampleRate: DefaultSampleRate,
		BlockSize:  DefaultBlockSize,
		LogLevel:   DefaultLogLevel,
		Models:     ModelsConfig{CacheSize: DefaultCacheSize},
		Loader: LoaderConfig{
			SelfTestThreshold: DefaultSelfTestThreshold,
			PrerollSamples:    DefaultPrerollSamples,
		},
		Smoothing: SmoothingConfig{
			GainMs:   DefaultGainMs,
			MasterMs: DefaultMasterMs,
			ParamMs:  DefaultParamMs,
		},
		Swap: SwapConfig{QueueDepth: DefaultQueueDepth},
	}
}

// LoadFile reads a YAML file over the defaults. Keys absent from the file
// keep their default values.
func LoadFile(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("config: %w", err)
	}

	cfg := Default()
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return nil, fmt.Errorf("config: decode %s: %w", path, err)
	}
	return &cfg, nil
}

var errInvalid = errors.New("config: invalid")

// Validate checks ranges.
func (c *Config) Validate() error {
	var errs []error
	check := func(ok bool, format string, args ...any) {
		if !ok {
			errs = append(errs, fmt.Errorf("%w: "+format, append([]any{errInvalid}, args...)...))
		}
	}

	check(c.SampleRate > 0 && !math.IsInf(c.SampleRate, 0), "sample_rate must be > 0 and finite: %f", c.SampleRate)
	check(c.BlockSize > 0, "block_size must be > 0: %d", c.BlockSize)
	check(validLevel(c.LogLevel), "log_level %q is not one of debug, info, warn, error", c.LogLevel)
	check(c.Models.CacheSize >= 0, "models.cache_size must be >= 0: %d", c.Models.CacheSize)
	check(c.Loader.SelfTestThreshold > 0, "loader.self_test_threshold must be > 0: %g", c.Loader.SelfTestThreshold)
	check(c.Loader.PrerollSamples >= 0, "loader.preroll_samples must be >= 0: %d", c.Loader.PrerollSamples)
	check(c.Smoothing.GainMs >= 0, "smoothing.gain_ms must be >= 0: %f", c.Smoothing.GainMs)
	check(c.Smoothing.MasterMs >= 0, "smoothing.master_ms must be >= 0: %f", c.Smoothing.MasterMs)
	check(c.Smoothing.ParamMs >= 0, "smoothing.param_ms must be >= 0: %f", c.Smoothing.ParamMs)
	check(c.Swap.QueueDepth > 0, "swap.queue_depth must be > 0: %d", c.Swap.QueueDepth)

	return errors.Join(errs...)
}

// IsInvalid reports whether err came from Validate.
func IsInvalid(err error) bool { return errors.Is(err, errInvalid) }

func validLevel(level string) bool {
	switch strings.ToLower(level) {
	case "debug", "info", "warn", "error":
		return true
	}
	return false
}
