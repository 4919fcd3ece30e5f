package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
)

// EnvConfigPath names the variable holding a config file path.
const EnvConfigPath = "RTN_CONFIG"

// Loader builds a Config from an optional file and the environment. Tests
// can override Lookup to inject deterministic maps.
type Loader struct {
	Lookup func(string) (string, bool)
}

// Load reads path (or $RTN_CONFIG when path is empty, or nothing), applies
// RTN_* overrides and validates the result.
func (l Loader) Load(path string) (*Config, error) {
	if l.Lookup == nil {
		l.Lookup = os.LookupEnv
	}

	if path == "" {
		if p, ok := l.Lookup(EnvConfigPath); ok {
			path = strings.TrimSpace(p)
		}
	}

	cfg := Default()
	if path != "" {
		fromFile, err := LoadFile(path)
		if err != nil {
			return nil, err
		}
		cfg = *fromFile
	}

	overrideString(l.Lookup, "RTN_LOG_LEVEL", &cfg.LogLevel)
	overrideString(l.Lookup, "RTN_MODELS_DIR", &cfg.Models.Dir)
	overrideString(l.Lookup, "RTN_MODEL", &cfg.Models.Default)

	floats := []struct {
		key    string
		target *float64
	}{
		{"RTN_SAMPLE_RATE", &cfg.SampleRate},
		{"RTN_SELF_TEST_THRESHOLD", &cfg.Loader.SelfTestThreshold},
		{"RTN_GAIN_MS", &cfg.Smoothing.GainMs},
		{"RTN_MASTER_MS", &cfg.Smoothing.MasterMs},
		{"RTN_PARAM_MS", &cfg.Smoothing.ParamMs},
	}
	for _, f := range floats {
		if err := overrideFloat(l.Lookup, f.key, f.target); err != nil {
			return nil, err
		}
	}

	ints := []struct {
		key    string
		target *int
	}{
		{"RTN_BLOCK_SIZE", &cfg.BlockSize},
		{"RTN_CACHE_SIZE", &cfg.Models.CacheSize},
		{"RTN_PREROLL_SAMPLES", &cfg.Loader.PrerollSamples},
		{"RTN_QUEUE_DEPTH", &cfg.Swap.QueueDepth},
	}
	for _, i := range ints {
		if err := overrideInt(l.Lookup, i.key, i.target); err != nil {
			return nil, err
		}
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

func overrideString(lookup func(string) (string, bool), key string, target *string) {
	if value, ok := lookup(key); ok && strings.TrimSpace(value) != "" {
		*target = strings.TrimSpace(value)
	}
}

func overrideFloat(lookup func(string) (string, bool), key string, target *float64) error {
	if value, ok := lookup(key); ok && strings.TrimSpace(value) != "" {
		parsed, err := strconv.ParseFloat(strings.TrimSpace(value), 64)
		if err != nil {
			return fmt.Errorf("config: invalid value for %s: %w", key, err)
		}
		*target = parsed
	}
	return nil
}

func overrideInt(lookup func(string) (string, bool), key string, target *int) error {
	if value, ok := lookup(key); ok && strings.TrimSpace(value) != "" {
		parsed, err := strconv.Atoi(strings.TrimSpace(value))
		if err != nil {
			return fmt.Errorf("config: invalid value for %s: %w", key, err)
		}
		*target = parsed
	}
	return nil
}
