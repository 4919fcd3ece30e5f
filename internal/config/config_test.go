package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"
)

func mapLookup(m map[string]string) func(string) (string, bool) {
	return func(k string) (string, bool) {
		v, ok := m[k]
		return v, ok
	}
}

func writeFile(t *testing.T, body string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "rtn.yaml")
	require.NoError(t, os.WriteFile(path, []byte(body), 0o600))
	return path
}

func TestDefaultsValidate(t *testing.T) {
	cfg := Default()
	require.NoError(t, cfg.Validate())
}

func TestLoadWithoutFileOrEnv(t *testing.T) {
	cfg, err := Loader{Lookup: mapLookup(nil)}.Load("")
	require.NoError(t, err)
	require.Equal(t, Default(), *cfg)
}

func TestLoadFileKeepsUnsetDefaults(t *testing.T) {
	path := writeFile(t, `
sample_rate: 44100
log_level: debug
models:
  dir: /srv/models
  default: /srv/models/clean.json
smoothing:
  param_ms: 20
`)
	cfg, err := Loader{Lookup: mapLookup(nil)}.Load(path)
	require.NoError(t, err)

	require.Equal(t, 44100.0, cfg.SampleRate)
	require.Equal(t, "debug", cfg.LogLevel)
	require.Equal(t, "/srv/models", cfg.Models.Dir)
	require.Equal(t, "/srv/models/clean.json", cfg.Models.Default)
	require.Equal(t, 20.0, cfg.Smoothing.ParamMs)

	require.Equal(t, DefaultBlockSize, cfg.BlockSize)
	require.Equal(t, DefaultCacheSize, cfg.Models.CacheSize)
	require.Equal(t, DefaultGainMs, cfg.Smoothing.GainMs)
	require.Equal(t, DefaultQueueDepth, cfg.Swap.QueueDepth)
}

func TestEnvOverridesFile(t *testing.T) {
	path := writeFile(t, "block_size: 256\nlog_level: warn\n")
	env := map[string]string{
		EnvConfigPath:             path,
		"RTN_BLOCK_SIZE":          " 128 ",
		"RTN_SAMPLE_RATE":         "96000",
		"RTN_MODEL":               "/tmp/m.json",
		"RTN_QUEUE_DEPTH":         "4",
		"RTN_SELF_TEST_THRESHOLD": "1e-4",
		"RTN_LOG_LEVEL":           "",
	}

	cfg, err := Loader{Lookup: mapLookup(env)}.Load("")
	require.NoError(t, err)
	require.Equal(t, 128, cfg.BlockSize)
	require.Equal(t, 96000.0, cfg.SampleRate)
	require.Equal(t, "/tmp/m.json", cfg.Models.Default)
	require.Equal(t, 4, cfg.Swap.QueueDepth)
	require.Equal(t, 1e-4, cfg.Loader.SelfTestThreshold)
	require.Equal(t, "warn", cfg.LogLevel, "blank override keeps the file value")
}

func TestInvalidOverride(t *testing.T) {
	_, err := Loader{Lookup: mapLookup(map[string]string{"RTN_BLOCK_SIZE": "big"})}.Load("")
	require.ErrorContains(t, err, "RTN_BLOCK_SIZE")

	_, err = Loader{Lookup: mapLookup(map[string]string{"RTN_GAIN_MS": "x"})}.Load("")
	require.ErrorContains(t, err, "RTN_GAIN_MS")
}

func TestValidateCollectsAllProblems(t *testing.T) {
	cfg := Default()
	cfg.SampleRate = 0
	cfg.BlockSize = -1
	cfg.LogLevel = "loud"
	cfg.Swap.QueueDepth = 0

	err := cfg.Validate()
	require.Error(t, err)
	require.True(t, IsInvalid(err))
	for _, key := range []string{"sample_rate", "block_size", "log_level", "swap.queue_depth"} {
		require.ErrorContains(t, err, key)
	}

	_, err = Loader{Lookup: mapLookup(map[string]string{"RTN_QUEUE_DEPTH": "0"})}.Load("")
	require.True(t, IsInvalid(err))
}

func TestLoadFileErrors(t *testing.T) {
	_, err := LoadFile(filepath.Join(t.TempDir(), "missing.yaml"))
	require.Error(t, err)

	_, err = LoadFile(writeFile(t, "sample_rate: [1, 2"))
	require.ErrorContains(t, err, "decode")
}
