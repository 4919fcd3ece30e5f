package model

import (
	"context"
	"errors"
	"fmt"
	"math"
	"os"
	"time"

	"github.com/cwbudde/algo-rtneural/dsp/gain"
	"github.com/cwbudde/algo-rtneural/dsp/nn"
	"github.com/cwbudde/algo-rtneural/dsp/smooth"
	lru "github.com/hashicorp/golang-lru/v2"
	"go.uber.org/zap"
)

const (
	DefaultSelfTestThreshold = 1e-5
	DefaultPrerollSamples    = 2048
	DefaultCacheSize         = 16
	DefaultSampleRate        = 48000.0
	DefaultParamSmoothing    = 0.05
)

// LoaderOption mutates loader construction parameters.
type LoaderOption func(*loaderConfig) error

type loaderConfig struct {
	logger     *zap.Logger
	threshold  float64
	preroll    int
	cacheSize  int
	sampleRate float64
	paramTau   float64
}

func defaultLoaderConfig() loaderConfig {
	return loaderConfig{
		logger:     zap.NewNop(),
		threshold:  DefaultSelfTestThreshold,
		preroll:    DefaultPrerollSamples,
		cacheSize:  DefaultCacheSize,
		sampleRate: DefaultSampleRate,
		paramTau:   DefaultParamSmoothing,
	}
}

// WithLogger sets the logger used for load diagnostics.
func WithLogger(logger *zap.Logger) LoaderOption {
	return func(cfg *loaderConfig) error {
		if logger == nil {
			return errors.New("loader logger must not be nil")
		}
		cfg.logger = logger
		return nil
	}
}

// WithSelfTestThreshold sets the largest tolerated self-test error.
func WithSelfTestThreshold(threshold float64) LoaderOption {
	return func(cfg *loaderConfig) error {
		if threshold <= 0 || math.IsNaN(threshold) || math.IsInf(threshold, 0) {
			return fmt.Errorf("self-test threshold must be > 0 and finite: %g", threshold)
		}
		cfg.threshold = threshold
		return nil
	}
}

// WithPrerollSamples sets how many zero samples settle a model that has no
// reference vectors.
func WithPrerollSamples(n int) LoaderOption {
	return func(cfg *loaderConfig) error {
		if n < 0 {
			return fmt.Errorf("preroll samples must be >= 0: %d", n)
		}
		cfg.preroll = n
		return nil
	}
}

// WithCacheSize sets the capacity of the description and failure caches.
// Zero disables caching.
func WithCacheSize(n int) LoaderOption {
	return func(cfg *loaderConfig) error {
		if n < 0 {
			return fmt.Errorf("cache size must be >= 0: %d", n)
		}
		cfg.cacheSize = n
		return nil
	}
}

// WithSampleRate sets the host sample rate used by conditioning smoothers.
func WithSampleRate(sampleRate float64) LoaderOption {
	return func(cfg *loaderConfig) error {
		if sampleRate <= 0 || math.IsNaN(sampleRate) || math.IsInf(sampleRate, 0) {
			return fmt.Errorf("loader sample rate must be > 0 and finite: %f", sampleRate)
		}
		cfg.sampleRate = sampleRate
		return nil
	}
}

// WithParamSmoothing sets the conditioning smoother time constant in
// seconds.
func WithParamSmoothing(seconds float64) LoaderOption {
	return func(cfg *loaderConfig) error {
		if seconds < 0 || math.IsNaN(seconds) || math.IsInf(seconds, 0) {
			return fmt.Errorf("param smoothing must be >= 0 and finite: %f", seconds)
		}
		cfg.paramTau = seconds
		return nil
	}
}

// fileKey identifies one version of a model file.
type fileKey struct {
	path    string
	modTime int64
	size    int64
}

type cachedDescription struct {
	key  fileKey
	desc *Description
}

// Loader builds instances from model files. It is safe for use by one
// worker goroutine at a time.
type Loader struct {
	cfg    loaderConfig
	logger *zap.Logger

	descriptions *lru.Cache[string, cachedDescription]
	failures     *lru.Cache[fileKey, error]
}

// NewLoader returns a loader with practical defaults and optional overrides.
func NewLoader(opts ...LoaderOption) (*Loader, error) {
	cfg := defaultLoaderConfig()
	for _, opt := range opts {
		if opt == nil {
			continue
		}
		if err := opt(&cfg); err != nil {
			return nil, err
		}
	}

	l := &Loader{cfg: cfg, logger: cfg.logger}
	if cfg.cacheSize > 0 {
		var err error
		if l.descriptions, err = lru.New[string, cachedDescription](cfg.cacheSize); err != nil {
			return nil, err
		}
		if l.failures, err = lru.New[fileKey, error](cfg.cacheSize); err != nil {
			return nil, err
		}
	}
	return l, nil
}

// SampleRate returns the host rate used for conditioning smoothers.
func (l *Loader) SampleRate() float64 { return l.cfg.sampleRate }

// Load reads, validates and constructs the model at path. On error no
// instance is returned.
func (l *Loader) Load(ctx context.Context, path string) (*Instance, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	start := time.Now()

	key, err := statKey(path)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrDescriptionParse, err)
	}

	if l.failures != nil {
		if cached, ok := l.failures.Get(key); ok {
			l.logger.Debug("model failed before, not reparsing", zap.String("path", path))
			return nil, cached
		}
	}

	inst, err := l.load(ctx, key)
	if err != nil {
		if l.failures != nil && ErrorKind(err) != "canceled" {
			l.failures.Add(key, err)
		}
		return nil, err
	}

	l.logger.Info("model loaded",
		zap.String("path", path),
		zap.Stringer("arch", inst.arch),
		zap.Duration("elapsed", time.Since(start)))
	return inst, nil
}

func (l *Loader) load(ctx context.Context, key fileKey) (*Instance, error) {
	desc, err := l.description(key)
	if err != nil {
		return nil, err
	}
	return l.Build(ctx, desc, key.path)
}

func (l *Loader) description(key fileKey) (*Description, error) {
	if l.descriptions != nil {
		if cached, ok := l.descriptions.Get(key.path); ok && cached.key == key {
			l.logger.Debug("model description cache hit", zap.String("path", key.path))
			return cached.desc, nil
		}
	}

	desc, err := ReadDescription(key.path)
	if err != nil {
		return nil, err
	}
	if l.descriptions != nil {
		l.descriptions.Add(key.path, cachedDescription{key: key, desc: desc})
	}
	return desc, nil
}

func statKey(path string) (fileKey, error) {
	fi, err := os.Stat(path)
	if err != nil {
		return fileKey{}, err
	}
	if fi.IsDir() {
		return fileKey{}, fmt.Errorf("%s is a directory", path)
	}
	return fileKey{path: path, modTime: fi.ModTime().UnixNano(), size: fi.Size()}, nil
}

// Build constructs an instance from an already decoded description. path is
// recorded as the instance source.
func (l *Loader) Build(ctx context.Context, desc *Description, path string) (*Instance, error) {
	arch, err := MatchArch(desc)
	if err != nil {
		return nil, err
	}

	out := desc.Layers[len(desc.Layers)-1]
	net, err := nn.NewNetwork(nn.Shape{
		Cell:       arch.Cell,
		Inputs:     arch.Inputs,
		Hidden:     arch.Hidden,
		SigmoidMid: arch.SigmoidMid,
		Outputs:    lastDim(out.Shape),
	})
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrUnsupportedArchitecture, err)
	}
	if err := loadWeights(net, arch, desc); err != nil {
		return nil, err
	}
	net.Reset()

	inst := &Instance{
		arch:       arch,
		net:        net,
		skip:       desc.Skip() == 1,
		inGain:     gain.DBToLinear(desc.InGain),
		outGain:    gain.DBToLinear(desc.OutGain),
		sampleRate: desc.SampleRate,
		path:       path,
		nParams:    arch.Params(),
	}
	for i := range inst.nParams {
		if inst.params[i], err = smooth.NewExponential(l.cfg.sampleRate, l.cfg.paramTau); err != nil {
			return nil, err
		}
	}

	if err := ctx.Err(); err != nil {
		return nil, err
	}

	if desc.SampleRate > 0 && desc.SampleRate != l.cfg.sampleRate {
		l.logger.Warn("model trained at a different sample rate",
			zap.String("path", path),
			zap.Float64("model_rate", desc.SampleRate),
			zap.Float64("rate", l.cfg.sampleRate))
	}

	if desc.HasValidation() {
		maxErr := inst.selfTest(desc.Validation.Input, desc.Validation.Output)
		if maxErr > l.cfg.threshold {
			return nil, fmt.Errorf("%w: max error %g exceeds %g", ErrValidationFailed, maxErr, l.cfg.threshold)
		}
		l.logger.Debug("model self-test passed",
			zap.String("path", path),
			zap.Float64("max_error", maxErr))
		inst.Reset()
	} else {
		inst.preroll(l.cfg.preroll)
	}

	return inst, nil
}

func loadWeights(net *nn.Network, arch Arch, desc *Description) error {
	rec := desc.Layers[0]
	var k, u [][]float64
	var err error

	switch arch.Cell {
	case nn.CellLSTM:
		var b []float64
		if err := decodeWeights(rec, &k, &u, &b); err != nil {
			return err
		}
		err = net.LSTM().SetWeights(k, u, b)
	case nn.CellGRU:
		var b [][]float64
		if err := decodeWeights(rec, &k, &u, &b); err != nil {
			return err
		}
		err = net.GRU().SetWeights(k, u, b)
	}
	if err != nil {
		return fmt.Errorf("%w: %w", ErrDescriptionParse, err)
	}

	if arch.SigmoidMid {
		if err := loadDense(net.Mid(), desc.Layers[1]); err != nil {
			return err
		}
	}
	return loadDense(net.Out(), desc.Layers[len(desc.Layers)-1])
}

func loadDense(d *nn.Dense, l Layer) error {
	var k [][]float64
	var b []float64
	if err := decodeWeights(l, &k, &b); err != nil {
		return err
	}
	if err := d.SetWeights(k, b); err != nil {
		return fmt.Errorf("%w: %w", ErrDescriptionParse, err)
	}
	return nil
}
