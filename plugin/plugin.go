package plugin

import (
	"context"
	"errors"
	"fmt"
	"math"

	"github.com/cwbudde/algo-rtneural/dsp/filter/biquad"
	"github.com/cwbudde/algo-rtneural/dsp/filter/design"
	"github.com/cwbudde/algo-rtneural/dsp/filter/tonestack"
	"github.com/cwbudde/algo-rtneural/dsp/gain"
	"github.com/cwbudde/algo-rtneural/dsp/smooth"
	"github.com/cwbudde/algo-rtneural/model"
	"github.com/cwbudde/algo-rtneural/swap"
)

// Config fixes the processing environment of a Plugin.
type Config struct {
	SampleRate float64
	MaxBlock   int

	// PreGainSmoothing is the time constant of the exponential pre-gain
	// smoother, in seconds.
	PreGainSmoothing float64
	// MasterRamp is the duration of a linear master-gain ramp, in seconds.
	MasterRamp float64
}

// DefaultConfig returns the configuration used by the host.
func DefaultConfig() Config {
	return Config{
		SampleRate:       48000,
		MaxBlock:         512,
		PreGainSmoothing: 0.01,
		MasterRamp:       0.05,
	}
}

func (c Config) validate() error {
	if c.SampleRate <= 0 || math.IsNaN(c.SampleRate) || math.IsInf(c.SampleRate, 0) {
		return fmt.Errorf("plugin: sample rate must be > 0 and finite: %f", c.SampleRate)
	}
	if c.MaxBlock <= 0 {
		return fmt.Errorf("plugin: max block must be > 0: %d", c.MaxBlock)
	}
	return nil
}

// Plugin runs the signal chain. Run, Activate and Close belong to the audio
// goroutine; SaveState and RestoreState may be called from anywhere.
type Plugin struct {
	cfg    Config
	shared *Shared

	lpf     biquad.Section
	lpfPct  float64
	lpfOn   bool
	pre     *gain.Stage
	tone    *tonestack.ToneStack
	dc      *design.DCBlocker
	master  *gain.Stage
	active  bool
	fresh   bool
	index   int
	pending swap.Request
	wanted  bool

	// retiree is a replaced instance whose Free could not be queued yet.
	retiree *model.Instance
}

// New builds a Plugin around shared.
func New(shared *Shared, cfg Config) (*Plugin, error) {
	if shared == nil || shared.ch == nil {
		return nil, errors.New("plugin: shared context without a swap channel")
	}
	if err := cfg.validate(); err != nil {
		return nil, err
	}

	preSmoother, err := smooth.NewExponential(cfg.SampleRate, cfg.PreGainSmoothing)
	if err != nil {
		return nil, fmt.Errorf("plugin: pre-gain: %w", err)
	}
	pre, err := gain.NewStage(preSmoother, cfg.MaxBlock)
	if err != nil {
		return nil, fmt.Errorf("plugin: pre-gain: %w", err)
	}

	masterSmoother, err := smooth.NewLinear(cfg.SampleRate, cfg.MasterRamp)
	if err != nil {
		return nil, fmt.Errorf("plugin: master: %w", err)
	}
	master, err := gain.NewStage(masterSmoother, cfg.MaxBlock)
	if err != nil {
		return nil, fmt.Errorf("plugin: master: %w", err)
	}

	tone, err := tonestack.New(cfg.SampleRate)
	if err != nil {
		return nil, fmt.Errorf("plugin: tone stack: %w", err)
	}

	return &Plugin{
		cfg:    cfg,
		shared: shared,
		lpf:    biquad.Section{Coefficients: biquad.Passthrough()},
		pre:    pre,
		tone:   tone,
		dc:     design.NewDCBlocker(cfg.SampleRate),
		master: master,
		index:  -1,
	}, nil
}

// Shared returns the context the plugin was built with.
func (p *Plugin) Shared() *Shared { return p.shared }

// Config returns the processing configuration.
func (p *Plugin) Config() Config { return p.cfg }

// Activate prepares for processing at sampleRate with blocks of up to
// maxBlock samples. Smoothers jump to the targets given by ctl and filter
// state is cleared. It allocates, so call it before audio starts.
func (p *Plugin) Activate(sampleRate float64, maxBlock int, ctl *Controls) error {
	cfg := p.cfg
	cfg.SampleRate = sampleRate
	cfg.MaxBlock = maxBlock
	if err := cfg.validate(); err != nil {
		return err
	}

	if err := p.pre.Smoother().SetSampleRate(sampleRate); err != nil {
		return err
	}
	if err := p.master.Smoother().SetSampleRate(sampleRate); err != nil {
		return err
	}
	if err := p.tone.SetSampleRate(sampleRate); err != nil {
		return err
	}
	p.dc.SetSampleRate(sampleRate)
	p.pre.Resize(maxBlock)
	p.master.Resize(maxBlock)
	p.cfg = cfg

	p.lpf.Reset()
	p.lpfPct = math.NaN()
	p.dc.Reset()
	p.tone.Reset()

	if ctl != nil {
		p.updateLPF(ctl.InputLPF)
		p.pre.SetTargetDB(ctl.PreGainDB)
		p.tone.Update(ctl.Tone)
		p.setMasterTarget(ctl.MasterDB)
	}
	p.pre.Clear()
	p.master.Clear()
	p.active = true
	return nil
}

// Active reports whether Activate has succeeded.
func (p *Plugin) Active() bool { return p.active }

// Run processes one block. in and out may alias; only the first
// min(len(in), len(out)) samples are touched. Swap messages and events are
// handled even for an empty block. Until Activate succeeds the block is
// copied through unchanged.
func (p *Plugin) Run(in, out []float64, ctl *Controls, events []Event) {
	p.receive()
	p.handleEvents(ctl, events)
	p.request()

	n := min(len(in), len(out))
	if n == 0 {
		return
	}
	in, out = in[:n], out[:n]

	if !ctl.Enabled || !p.active {
		copy(out, in)
		return
	}
	copy(out, in)

	p.updateLPF(ctl.InputLPF)
	if p.lpfOn {
		p.lpf.ProcessBlock(out)
	}

	p.pre.SetTargetDB(ctl.PreGainDB)
	p.pre.ProcessBlock(out)

	eq := !ctl.EQBypass
	if eq {
		p.tone.Update(ctl.Tone)
	}
	if eq && ctl.EQPosition == EQPre {
		p.tone.ProcessBlock(out)
	}

	if m := p.shared.active.Load(); m != nil && !ctl.NetBypass {
		m.SetParams(ctl.Param1, ctl.Param2)
		if p.fresh {
			m.ClearParams()
			p.fresh = false
		}
		m.ProcessBlock(out)
	}

	if !ctl.DCBlockerOff {
		p.dc.ProcessBlock(out)
	}

	if eq && ctl.EQPosition == EQPost {
		p.tone.ProcessBlock(out)
	}

	p.setMasterTarget(ctl.MasterDB)
	p.master.ProcessBlock(out)
}

func (p *Plugin) setMasterTarget(db float64) {
	if p.shared.loading.Load() {
		p.master.SetTarget(0)
		return
	}
	p.master.SetTargetDB(db)
}

func (p *Plugin) updateLPF(pct float64) {
	if math.IsNaN(pct) {
		pct = 0
	}
	if pct == p.lpfPct {
		return
	}
	p.lpfPct = pct
	fc := design.LowpassCutoff(pct, p.cfg.SampleRate)
	if fc <= 0 {
		p.lpfOn = false
		p.lpf.Reset()
		return
	}
	p.lpf.Coefficients = design.Lowpass(fc, biquad.DefaultQ, p.cfg.SampleRate)
	p.lpfOn = true
}

// receive handles worker replies. While a retired instance is waiting for
// room on the worker queue nothing else is received, so at most one
// instance is held at a time.
func (p *Plugin) receive() {
	ch := p.shared.ch
	if !p.retire() {
		return
	}

	for {
		msg, ok := ch.TryReceive()
		if !ok {
			return
		}

		latest := p.shared.seq.Load()
		switch msg.Kind {
		case swap.KindApply:
			if msg.Seq < latest {
				p.retiree = msg.Model
			} else {
				p.retiree = p.shared.active.Swap(msg.Model)
				p.shared.loading.Store(false)
				p.fresh = true
			}
		case swap.KindFailed:
			if msg.Seq == latest {
				p.shared.loading.Store(false)
			}
		}

		if !p.retire() {
			return
		}
	}
}

// retire tries to hand the held instance to the worker. It reports whether
// nothing is held afterwards.
func (p *Plugin) retire() bool {
	if p.retiree == nil {
		return true
	}
	if !p.shared.ch.TrySendFree(p.retiree) {
		return false
	}
	p.retiree = nil
	return true
}

func (p *Plugin) handleEvents(ctl *Controls, events []Event) {
	if req := p.shared.restore.Swap(nil); req != nil {
		p.pending = *req
		p.wanted = true
	}

	for _, ev := range events {
		var req swap.Request
		switch ev.Property {
		case PropertyModelPath:
			req = swap.PathRequest(ev.Path)
		case PropertyModelIndex:
			req = swap.IndexRequest(ev.Index)
		default:
			continue
		}
		if req.Validate() != nil {
			continue
		}
		p.pending = req
		p.wanted = true
	}

	if ctl.ModelIndex >= 0 && ctl.ModelIndex != p.index {
		p.index = ctl.ModelIndex
		p.pending = swap.IndexRequest(ctl.ModelIndex)
		p.wanted = true
	}
}

// request forwards the newest pending request. A full queue leaves it
// pending for the next block. The sequence number advances only once the
// request is queued, so replies to the previous request stay current until
// then.
func (p *Plugin) request() {
	if !p.wanted {
		return
	}
	seq := p.shared.seq.Load() + 1
	if !p.shared.ch.TrySendLoad(p.pending, seq) {
		return
	}
	p.shared.seq.Store(seq)
	p.shared.loading.Store(true)
	p.wanted = false
}

// SaveState returns the source path of the active model.
func (p *Plugin) SaveState() (string, bool) {
	m := p.shared.active.Load()
	if m == nil {
		return "", false
	}
	return m.SourcePath(), true
}

// RestoreState asks for the model at path. The audio goroutine queues the
// request with its next block, so it replaces any request made before this
// call, and a model event or index change handled after that block
// replaces it in turn. Only an invalid path is reported.
func (p *Plugin) RestoreState(path string) error {
	req := swap.PathRequest(path)
	if err := req.Validate(); err != nil {
		return err
	}
	p.shared.restore.Store(&req)
	return nil
}

// Close hands the active and any held instance back to the worker. Call it
// once audio has stopped, while the worker is still serving its queue: with
// a short queue the second hand-over waits for the worker to take the
// first.
func (p *Plugin) Close(ctx context.Context) error {
	var errs []error
	if p.retiree != nil {
		if err := p.shared.ch.SendFree(ctx, p.retiree); err != nil {
			errs = append(errs, err)
		} else {
			p.retiree = nil
		}
	}
	if m := p.shared.active.Swap(nil); m != nil {
		if err := p.shared.ch.SendFree(ctx, m); err != nil {
			p.shared.active.Store(m)
			errs = append(errs, err)
		}
	}
	p.active = false
	return errors.Join(errs...)
}
