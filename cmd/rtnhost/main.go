// Command rtnhost runs the neural amp model processor outside a plugin
// host.
//
// With -out it renders mono float32 little-endian PCM offline. Without it
// it plays through the default audio device and takes single-key
// commands: n/p select the next or previous model in the bank, b toggles
// the network bypass, q quits.
//
// Usage:
//
//	rtnhost [flags]
//
// Examples:
//
//	rtnhost -config rtn.yaml -models ./models
//	rtnhost -model crunch.json -in di.f32 -out amp.f32
//	RTN_LOG_LEVEL=debug rtnhost -models ./models -tone 110
package main

import (
	"context"
	"flag"
	"fmt"
	"io"
	"os"
	"time"

	"github.com/cwbudde/algo-rtneural/dsp/gain"
	"github.com/cwbudde/algo-rtneural/internal/app"
	"github.com/cwbudde/algo-rtneural/internal/config"
	"github.com/cwbudde/algo-rtneural/model"
	"github.com/cwbudde/algo-rtneural/plugin"
	"go.uber.org/fx"
	"go.uber.org/zap"
)

type hostFlags struct {
	config    string
	modelsDir string
	model     string
	in        string
	out       string
	loop      bool
	tone      float64
	toneDB    float64
	preGainDB float64
	masterDB  float64
	lpf       float64
	tone3     bool
	dcOff     bool
	index     int
}

func main() {
	var f hostFlags
	flag.StringVar(&f.config, "config", "", "YAML config file (default $RTN_CONFIG)")
	flag.StringVar(&f.modelsDir, "models", "", "model bank directory")
	flag.StringVar(&f.model, "model", "", "model file to load at start")
	flag.IntVar(&f.index, "index", -1, "bank index to load at start")
	flag.StringVar(&f.in, "in", "", "input PCM file (mono float32 LE); default is a test tone")
	flag.StringVar(&f.out, "out", "", "render to this PCM file instead of playing")
	flag.BoolVar(&f.loop, "loop", true, "loop the input file during playback")
	flag.Float64Var(&f.tone, "tone", 220, "test tone frequency in Hz")
	flag.Float64Var(&f.toneDB, "tone-level", -12, "test tone level in dBFS")
	flag.Float64Var(&f.preGainDB, "pre", 0, "pre-gain in dB")
	flag.Float64Var(&f.masterDB, "master", 0, "master gain in dB")
	flag.Float64Var(&f.lpf, "lpf", 0, "input lowpass amount in percent (0 disables)")
	flag.BoolVar(&f.tone3, "eq", false, "enable the tone stack after the model")
	flag.BoolVar(&f.dcOff, "no-dc", false, "disable the DC blocker")
	flag.Parse()

	if err := run(f); err != nil {
		fmt.Fprintf(os.Stderr, "rtnhost: %v\n", err)
		os.Exit(1)
	}
}

func (f hostFlags) controls() plugin.Controls {
	ctl := plugin.DefaultControls()
	ctl.PreGainDB = f.preGainDB
	ctl.MasterDB = f.masterDB
	ctl.InputLPF = f.lpf
	ctl.EQBypass = !f.tone3
	ctl.DCBlockerOff = f.dcOff
	ctl.ModelIndex = f.index
	return ctl
}

func run(f hostFlags) error {
	cfg, err := config.Loader{}.Load(f.config)
	if err != nil {
		return err
	}
	if f.modelsDir != "" {
		cfg.Models.Dir = f.modelsDir
	}
	if f.model != "" {
		cfg.Models.Default = f.model
	}

	var (
		p      *plugin.Plugin
		bank   *model.Bank
		logger *zap.Logger
	)
	fxApp := fx.New(
		fx.Supply(cfg),
		app.Module,
		fx.WithLogger(app.FxLogger),
		fx.Populate(&p, &bank, &logger),
	)
	if err := fxApp.Err(); err != nil {
		return err
	}

	startCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := fxApp.Start(startCtx); err != nil {
		return err
	}
	defer func() {
		stopCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		if err := fxApp.Stop(stopCtx); err != nil {
			logger.Error("shutdown", zap.Error(err))
		}
	}()

	ctl := f.controls()
	if err := p.Activate(cfg.SampleRate, cfg.BlockSize, &ctl); err != nil {
		return err
	}

	src, err := f.source(cfg.SampleRate)
	if err != nil {
		return err
	}

	if f.out != "" {
		return renderFile(p, src, cfg.BlockSize, ctl, f.out, logger)
	}
	return live(p, src, cfg, bank, ctl, logger)
}

func (f hostFlags) source(sampleRate float64) (Source, error) {
	if f.in == "" {
		return newToneSource(f.tone, gain.DBToLinear(f.toneDB), sampleRate), nil
	}
	file, err := os.Open(f.in)
	if err != nil {
		return nil, err
	}
	defer file.Close()
	samples, err := readPCM(file)
	if err != nil {
		return nil, err
	}
	return &bufferSource{samples: samples, loop: f.loop && f.out == ""}, nil
}

func renderFile(p *plugin.Plugin, src Source, block int, ctl plugin.Controls, path string, logger *zap.Logger) error {
	bs, ok := src.(*bufferSource)
	if !ok {
		return fmt.Errorf("offline render needs -in")
	}

	out, err := os.Create(path)
	if err != nil {
		return err
	}
	defer out.Close()

	if err := render(p, bs, block, ctl, out); err != nil {
		return err
	}
	logger.Info("render finished", zap.String("path", path), zap.Int("samples", len(bs.samples)))
	return out.Close()
}

// render waits for any requested model, then writes the processed source.
func render(p *plugin.Plugin, src *bufferSource, block int, ctl plugin.Controls, w io.Writer) error {
	waitCtx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	// The model selected by index is requested by the first block; ask for
	// it before waiting.
	p.Run(nil, nil, &ctl, nil)
	if err := app.WaitLoaded(waitCtx, p); err != nil {
		return fmt.Errorf("waiting for model: %w", err)
	}

	s, err := NewStreamer(p, src, block, ctl)
	if err != nil {
		return err
	}
	_, err = io.CopyN(w, s, int64(len(src.samples))*4)
	return err
}

func live(p *plugin.Plugin, src Source, cfg *config.Config, bank *model.Bank, ctl plugin.Controls, logger *zap.Logger) error {
	s, err := NewStreamer(p, src, cfg.BlockSize, ctl)
	if err != nil {
		return err
	}

	stop, err := playLive(s, cfg.SampleRate, cfg.BlockSize)
	if err != nil {
		return err
	}
	logger.Info("playing", zap.Float64("sample_rate", cfg.SampleRate), zap.Int("block", cfg.BlockSize))

	models := 0
	if bank != nil {
		models = bank.Len()
	}
	keyErr := runKeys(s, models, os.Stderr)

	if err := stop(); err != nil {
		logger.Warn("stopping playback", zap.Error(err))
	}
	return keyErr
}
