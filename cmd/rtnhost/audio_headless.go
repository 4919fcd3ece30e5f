//go:build headless

package main

import "errors"

func playLive(*Streamer, float64, int) (func() error, error) {
	return nil, errors.New("built without audio output; render with -out instead")
}
