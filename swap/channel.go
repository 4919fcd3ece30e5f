package swap

import (
	"context"
	"fmt"

	"github.com/cwbudde/algo-rtneural/model"
)

// DefaultQueueDepth is the capacity of each direction of a Channel.
const DefaultQueueDepth = 8

// Channel is a pair of bounded queues, one per direction.
type Channel struct {
	toWorker chan Message
	toAudio  chan Message
}

// NewChannel returns a channel whose queues hold depth messages each.
func NewChannel(depth int) (*Channel, error) {
	if depth <= 0 {
		return nil, fmt.Errorf("swap queue depth must be > 0: %d", depth)
	}
	return &Channel{
		toWorker: make(chan Message, depth),
		toAudio:  make(chan Message, depth),
	}, nil
}

// TrySendLoad enqueues a Load without blocking. It reports false when the
// worker queue is full.
func (c *Channel) TrySendLoad(req Request, seq uint64) bool {
	select {
	case c.toWorker <- Message{Kind: KindLoad, Request: req, Seq: seq}:
		return true
	default:
		return false
	}
}

// TrySendFree enqueues a Free without blocking. On false the caller still
// owns m.
func (c *Channel) TrySendFree(m *model.Instance) bool {
	select {
	case c.toWorker <- Message{Kind: KindFree, Model: m}:
		return true
	default:
		return false
	}
}

// TryReceive dequeues one worker reply without blocking.
func (c *Channel) TryReceive() (Message, bool) {
	select {
	case msg := <-c.toAudio:
		return msg, true
	default:
		return Message{}, false
	}
}

// SendFree enqueues a Free, waiting for room. For callers off the audio
// goroutine.
func (c *Channel) SendFree(ctx context.Context, m *model.Instance) error {
	return send(ctx, c.toWorker, Message{Kind: KindFree, Model: m})
}

// Reply enqueues an Apply or Failed message for the audio side, waiting for
// room. Only the worker side calls it.
func (c *Channel) Reply(ctx context.Context, msg Message) error {
	return send(ctx, c.toAudio, msg)
}

func send(ctx context.Context, ch chan<- Message, msg Message) error {
	select {
	case ch <- msg:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}
