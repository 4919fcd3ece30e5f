package main

import (
	"encoding/binary"
	"errors"
	"fmt"
	"io"
	"math"
	"sync/atomic"

	"github.com/cwbudde/algo-rtneural/plugin"
)

// Source fills dst with the next input samples.
type Source interface {
	Fill(dst []float64)
}

// toneSource is an endless sine.
type toneSource struct {
	phase, step, amp float64
}

func newToneSource(freq, amp, sampleRate float64) *toneSource {
	return &toneSource{step: 2 * math.Pi * freq / sampleRate, amp: amp}
}

func (s *toneSource) Fill(dst []float64) {
	for i := range dst {
		dst[i] = s.amp * math.Sin(s.phase)
		s.phase += s.step
		if s.phase >= 2*math.Pi {
			s.phase -= 2 * math.Pi
		}
	}
}

// bufferSource plays samples once, or forever when loop is set, then
// silence.
type bufferSource struct {
	samples []float64
	pos     int
	loop    bool
}

func (s *bufferSource) Fill(dst []float64) {
	for len(dst) > 0 {
		if s.pos >= len(s.samples) {
			if !s.loop || len(s.samples) == 0 {
				clear(dst)
				return
			}
			s.pos = 0
		}
		n := copy(dst, s.samples[s.pos:])
		s.pos += n
		dst = dst[n:]
	}
}

// Streamer pulls blocks through the plugin and encodes them as mono
// float32 little-endian PCM. Its Read is the audio callback.
type Streamer struct {
	p   *plugin.Plugin
	src Source
	ctl atomic.Pointer[plugin.Controls]

	cur     plugin.Controls
	in, out []float64
}

// NewStreamer returns a streamer processing blocks of up to block samples.
func NewStreamer(p *plugin.Plugin, src Source, block int, ctl plugin.Controls) (*Streamer, error) {
	if block <= 0 {
		return nil, fmt.Errorf("block size must be > 0: %d", block)
	}
	s := &Streamer{
		p:   p,
		src: src,
		in:  make([]float64, block),
		out: make([]float64, block),
	}
	s.SetControls(ctl)
	return s, nil
}

// Controls returns the control set used for the next block.
func (s *Streamer) Controls() plugin.Controls { return *s.ctl.Load() }

// SetControls replaces the control set from any goroutine.
func (s *Streamer) SetControls(ctl plugin.Controls) { s.ctl.Store(&ctl) }

var errShortBuffer = errors.New("read buffer shorter than one sample")

// Read fills p with whole samples.
func (s *Streamer) Read(p []byte) (int, error) {
	frames := len(p) / 4
	if frames == 0 {
		return 0, errShortBuffer
	}

	for off := 0; off < frames; {
		n := min(len(s.in), frames-off)
		in, out := s.in[:n], s.out[:n]
		s.src.Fill(in)
		s.cur = *s.ctl.Load()
		s.p.Run(in, out, &s.cur, nil)
		for i, v := range out {
			binary.LittleEndian.PutUint32(p[(off+i)*4:], math.Float32bits(float32(v)))
		}
		off += n
	}
	return frames * 4, nil
}

// readPCM decodes mono float32 little-endian samples.
func readPCM(r io.Reader) ([]float64, error) {
	data, err := io.ReadAll(r)
	if err != nil {
		return nil, err
	}
	if len(data)%4 != 0 {
		return nil, fmt.Errorf("pcm input length %d is not a multiple of 4", len(data))
	}
	out := make([]float64, len(data)/4)
	for i := range out {
		out[i] = float64(math.Float32frombits(binary.LittleEndian.Uint32(data[i*4:])))
	}
	return out, nil
}
