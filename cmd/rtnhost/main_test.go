package main

import (
	"bytes"
	"context"
	"encoding/binary"
	"math"
	"sync"
	"testing"

	"github.com/cwbudde/algo-rtneural/internal/testutil"
	"github.com/cwbudde/algo-rtneural/model"
	"github.com/cwbudde/algo-rtneural/plugin"
	"github.com/cwbudde/algo-rtneural/swap"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap/zaptest"
)

func encodePCM(samples []float64) []byte {
	b := make([]byte, len(samples)*4)
	for i, v := range samples {
		binary.LittleEndian.PutUint32(b[i*4:], math.Float32bits(float32(v)))
	}
	return b
}

func newPlugin(t *testing.T) (*plugin.Plugin, *swap.Worker) {
	t.Helper()
	ch, err := swap.NewChannel(swap.DefaultQueueDepth)
	require.NoError(t, err)
	p, err := plugin.New(plugin.NewShared(ch), plugin.DefaultConfig())
	require.NoError(t, err)
	loader, err := model.NewLoader(model.WithLogger(zaptest.NewLogger(t)), model.WithPrerollSamples(32))
	require.NoError(t, err)
	w, err := swap.NewWorker(ch, loader, swap.WithWorkerLogger(zaptest.NewLogger(t)))
	require.NoError(t, err)
	return p, w
}

func neutral() plugin.Controls {
	ctl := plugin.DefaultControls()
	ctl.DCBlockerOff = true
	return ctl
}

func TestApplyKey(t *testing.T) {
	ctl := plugin.DefaultControls()

	next, quit := applyKey('n', ctl, 3)
	require.False(t, quit)
	require.Equal(t, 0, next.ModelIndex)
	next, _ = applyKey('n', next, 3)
	next, _ = applyKey('n', next, 3)
	next, _ = applyKey('n', next, 3)
	require.Equal(t, 0, next.ModelIndex, "wraps past the last model")

	prev, _ := applyKey('p', next, 3)
	require.Equal(t, 2, prev.ModelIndex)
	prev, _ = applyKey('p', ctl, 3)
	require.Equal(t, 2, prev.ModelIndex, "no selection wraps to the last model")

	same, _ := applyKey('n', ctl, 0)
	require.Equal(t, ctl, same)

	b, _ := applyKey('b', ctl, 0)
	require.True(t, b.NetBypass)
	m, _ := applyKey('-', ctl, 0)
	require.Equal(t, -1.0, m.MasterDB)

	for _, k := range []byte{'q', 'Q', 3} {
		_, quit := applyKey(k, ctl, 0)
		require.True(t, quit)
	}
	require.Contains(t, describeControls(b), "bypass=true")
}

func TestSources(t *testing.T) {
	once := &bufferSource{samples: []float64{1, 2, 3}}
	dst := make([]float64, 5)
	once.Fill(dst)
	require.Equal(t, []float64{1, 2, 3, 0, 0}, dst)

	loop := &bufferSource{samples: []float64{1, 2, 3}, loop: true}
	loop.Fill(dst)
	require.Equal(t, []float64{1, 2, 3, 1, 2}, dst)

	empty := &bufferSource{loop: true}
	empty.Fill(dst)
	require.Equal(t, make([]float64, 5), dst)

	tone := newToneSource(1000, 0.5, 48000)
	buf := make([]float64, 480)
	tone.Fill(buf)
	peak := 0.0
	for _, v := range buf {
		peak = math.Max(peak, math.Abs(v))
	}
	require.InDelta(t, 0.5, peak, 1e-9)
}

func TestReadPCM(t *testing.T) {
	in := []float64{0, 0.5, -0.25, 1}
	got, err := readPCM(bytes.NewReader(encodePCM(in)))
	require.NoError(t, err)
	require.Equal(t, in, got)

	_, err = readPCM(bytes.NewReader([]byte{1, 2, 3}))
	require.Error(t, err)
}

func TestStreamerDisabledIsPassthrough(t *testing.T) {
	p, _ := newPlugin(t)
	ctl := neutral()
	require.NoError(t, p.Activate(48000, 64, &ctl))
	ctl.Enabled = false

	in := testutil.DeterministicNoise(5, 0.5, 300)
	s, err := NewStreamer(p, &bufferSource{samples: in}, 64, ctl)
	require.NoError(t, err)

	buf := make([]byte, 300*4)
	n, err := s.Read(buf)
	require.NoError(t, err)
	require.Equal(t, len(buf), n)
	require.Equal(t, encodePCM(in), buf)

	_, err = s.Read(make([]byte, 3))
	require.ErrorIs(t, err, errShortBuffer)

	_, err = NewStreamer(p, &bufferSource{}, 0, ctl)
	require.Error(t, err)
}

func TestStreamerPicksUpControlChanges(t *testing.T) {
	p, _ := newPlugin(t)
	ctl := neutral()
	require.NoError(t, p.Activate(48000, 64, &ctl))

	s, err := NewStreamer(p, &bufferSource{samples: testutil.Ones(10000)}, 64, ctl)
	require.NoError(t, err)

	buf := make([]byte, 64*4)
	_, err = s.Read(buf)
	require.NoError(t, err)
	require.Equal(t, float32(1), math.Float32frombits(binary.LittleEndian.Uint32(buf[63*4:])))

	ctl.MasterDB = -120
	s.SetControls(ctl)
	require.Equal(t, -120.0, s.Controls().MasterDB)
	for range 100 {
		_, err = s.Read(buf)
		require.NoError(t, err)
	}
	last := math.Float32frombits(binary.LittleEndian.Uint32(buf[63*4:]))
	require.InDelta(t, 1e-6, last, 1e-9)
}

func TestRenderWithIdentityModel(t *testing.T) {
	p, w := newPlugin(t)
	dir := t.TempDir()
	path := testutil.WriteModel(t, dir, "id.json", testutil.ModelDoc{Cell: "gru", Inputs: 1, Hidden: 8, Skip: 1})

	ctx, cancel := context.WithCancel(context.Background())
	var wg sync.WaitGroup
	wg.Add(1)
	go func() {
		defer wg.Done()
		_ = w.Run(ctx)
	}()

	ctl := neutral()
	require.NoError(t, p.Activate(48000, 128, &ctl))
	require.NoError(t, p.RestoreState(path))

	in, err := readPCM(bytes.NewReader(encodePCM(testutil.DeterministicSine(330, 48000, 0.7, 1000))))
	require.NoError(t, err)

	var out bytes.Buffer
	require.NoError(t, render(p, &bufferSource{samples: in}, 128, ctl, &out))
	require.Equal(t, encodePCM(in), out.Bytes())

	saved, ok := p.SaveState()
	require.True(t, ok)
	require.Equal(t, path, saved)

	require.NoError(t, p.Close(context.Background()))
	cancel()
	wg.Wait()
	w.Drain()
	st := w.Stats()
	require.Equal(t, st.Loads, st.Frees)
}
