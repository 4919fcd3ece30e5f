// Package app wires the processing core into an fx application.
//
// The graph needs a *config.Config. It provides the logger, model loader,
// optional model bank, swap channel and worker, the shared context and an
// unactivated plugin. Starting the application starts the worker and
// requests the configured default model; stopping it stops the worker and
// releases every instance. Audio must be stopped before the application
// is.
package app

import (
	"context"
	"errors"
	"time"

	"github.com/cwbudde/algo-rtneural/internal/config"
	"github.com/cwbudde/algo-rtneural/internal/logging"
	"github.com/cwbudde/algo-rtneural/model"
	"github.com/cwbudde/algo-rtneural/plugin"
	"github.com/cwbudde/algo-rtneural/swap"
	"go.uber.org/fx"
	"go.uber.org/fx/fxevent"
	"go.uber.org/zap"
)

// Module provides the processing core.
var Module = fx.Module("rtneural",
	fx.Provide(
		NewLogger,
		NewLoader,
		NewBank,
		NewChannel,
		plugin.NewShared,
		NewWorker,
		NewPlugin,
	),
	fx.Invoke(registerWorker),
)

// FxLogger routes fx's own events through zap.
func FxLogger(logger *zap.Logger) fxevent.Logger {
	return &fxevent.ZapLogger{Logger: logger.Named("fx")}
}

// NewLogger builds the application logger.
func NewLogger(cfg *config.Config, lc fx.Lifecycle) (*zap.Logger, error) {
	logger, err := logging.New(cfg.LogLevel)
	if err != nil {
		return nil, err
	}
	lc.Append(fx.Hook{
		OnStop: func(context.Context) error {
			_ = logger.Sync()
			return nil
		},
	})
	return logger, nil
}

// NewLoader builds the model loader from the config.
func NewLoader(cfg *config.Config, logger *zap.Logger) (*model.Loader, error) {
	return model.NewLoader(
		model.WithLogger(logger.Named("loader")),
		model.WithSampleRate(cfg.SampleRate),
		model.WithCacheSize(cfg.Models.CacheSize),
		model.WithSelfTestThreshold(cfg.Loader.SelfTestThreshold),
		model.WithPrerollSamples(cfg.Loader.PrerollSamples),
		model.WithParamSmoothing(cfg.Smoothing.ParamMs/1000),
	)
}

// NewBank opens the configured model directory. Without one it returns
// nil and index requests fail.
func NewBank(cfg *config.Config, logger *zap.Logger) (*model.Bank, error) {
	if cfg.Models.Dir == "" {
		return nil, nil
	}
	bank, err := model.OpenBank(cfg.Models.Dir)
	if err != nil {
		return nil, err
	}
	logger.Info("model bank opened", zap.String("dir", bank.Dir()), zap.Int("models", bank.Len()))
	return bank, nil
}

// NewChannel sizes the swap channel.
func NewChannel(cfg *config.Config) (*swap.Channel, error) {
	return swap.NewChannel(cfg.Swap.QueueDepth)
}

// WorkerParams holds dependencies for NewWorker.
type WorkerParams struct {
	fx.In

	Channel *swap.Channel
	Loader  *model.Loader
	Bank    *model.Bank
	Logger  *zap.Logger
}

// NewWorker builds the loading worker.
func NewWorker(p WorkerParams) (*swap.Worker, error) {
	opts := []swap.WorkerOption{swap.WithWorkerLogger(p.Logger.Named("worker"))}
	if p.Bank != nil {
		opts = append(opts, swap.WithResolver(p.Bank))
	}
	return swap.NewWorker(p.Channel, p.Loader, opts...)
}

// NewPlugin builds the processor. The host activates it.
func NewPlugin(cfg *config.Config, shared *plugin.Shared) (*plugin.Plugin, error) {
	return plugin.New(shared, PluginConfig(cfg))
}

// PluginConfig maps the host config onto the processor's.
func PluginConfig(cfg *config.Config) plugin.Config {
	return plugin.Config{
		SampleRate:       cfg.SampleRate,
		MaxBlock:         cfg.BlockSize,
		PreGainSmoothing: cfg.Smoothing.GainMs / 1000,
		MasterRamp:       cfg.Smoothing.MasterMs / 1000,
	}
}

type lifecycleParams struct {
	fx.In

	LC     fx.Lifecycle
	Config *config.Config
	Worker *swap.Worker
	Plugin *plugin.Plugin
	Logger *zap.Logger
}

func registerWorker(p lifecycleParams) {
	var (
		cancel context.CancelFunc
		done   = make(chan error, 1)
	)

	p.LC.Append(fx.Hook{
		OnStart: func(context.Context) error {
			var runCtx context.Context
			runCtx, cancel = context.WithCancel(context.Background())
			go func() { done <- p.Worker.Run(runCtx) }()

			if path := p.Config.Models.Default; path != "" {
				if err := p.Plugin.RestoreState(path); err != nil {
					return err
				}
				p.Logger.Info("default model requested", zap.String("path", path))
			}
			return nil
		},
		OnStop: func(ctx context.Context) error {
			// Close before cancelling: with a full queue it waits for the
			// worker to take a message.
			closeErr := p.Plugin.Close(ctx)

			cancel()
			if err := <-done; err != nil && !errors.Is(err, context.Canceled) {
				p.Logger.Warn("worker stopped", zap.Error(err))
			}
			p.Worker.Drain()

			st := p.Worker.Stats()
			fields := []zap.Field{
				zap.Int64("loads", st.Loads),
				zap.Int64("applies", st.Applies),
				zap.Int64("frees", st.Frees),
				zap.Int64("failures", st.Failures),
				zap.Int64("coalesced", st.Coalesced),
			}
			if st.Loads != st.Frees {
				p.Logger.Error("model instances leaked", fields...)
			} else {
				p.Logger.Info("worker stopped", fields...)
			}
			return closeErr
		},
	})
}

// WaitLoaded handles swap messages on the calling goroutine until no load
// is outstanding or ctx is done. Only for use while no audio callback is
// running, such as before an offline render.
func WaitLoaded(ctx context.Context, p *plugin.Plugin) error {
	ctl := plugin.DefaultControls()
	tick := time.NewTicker(time.Millisecond)
	defer tick.Stop()
	for {
		p.Run(nil, nil, &ctl, nil)
		if !p.Shared().Loading() {
			return nil
		}
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-tick.C:
		}
	}
}
