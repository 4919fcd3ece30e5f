//go:build !headless

package main

import (
	"time"

	"github.com/ebitengine/oto/v3"
)

// playLive starts mono float32 playback pulling from s. The returned
// function stops playback; s is not read after it returns.
func playLive(s *Streamer, sampleRate float64, block int) (func() error, error) {
	ctx, ready, err := oto.NewContext(&oto.NewContextOptions{
		SampleRate:   int(sampleRate),
		ChannelCount: 1,
		Format:       oto.FormatFloat32LE,
		BufferSize:   time.Duration(float64(block) / sampleRate * float64(time.Second)),
	})
	if err != nil {
		return nil, err
	}
	<-ready

	player := ctx.NewPlayer(s)
	player.Play()
	return func() error {
		player.Pause()
		return nil
	}, nil
}
