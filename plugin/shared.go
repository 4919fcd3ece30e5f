package plugin

import (
	"sync/atomic"

	"github.com/cwbudde/algo-rtneural/model"
	"github.com/cwbudde/algo-rtneural/swap"
)

// Shared is the context the audio goroutine shares with the worker and with
// state save/restore.
type Shared struct {
	active  atomic.Pointer[model.Instance]
	loading atomic.Bool
	seq     atomic.Uint64
	ch      *swap.Channel

	// restore holds a request from RestoreState until the audio goroutine
	// picks it up.
	restore atomic.Pointer[swap.Request]
}

// NewShared returns an empty context around ch.
func NewShared(ch *swap.Channel) *Shared {
	return &Shared{ch: ch}
}

// Active returns the model currently used for inference, or nil.
func (s *Shared) Active() *model.Instance { return s.active.Load() }

// Loading reports whether a model request is outstanding.
func (s *Shared) Loading() bool { return s.loading.Load() }

// Channel returns the swap channel.
func (s *Shared) Channel() *swap.Channel { return s.ch }

// LatestSeq returns the sequence number of the most recent request.
func (s *Shared) LatestSeq() uint64 { return s.seq.Load() }
