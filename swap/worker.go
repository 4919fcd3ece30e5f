package swap

import (
	"context"
	"errors"
	"sync/atomic"

	"github.com/cwbudde/algo-rtneural/model"
	"go.uber.org/zap"
)

// Loader builds a model instance from a file.
type Loader interface {
	Load(ctx context.Context, path string) (*model.Instance, error)
}

// Resolver maps a bank index to a model file.
type Resolver interface {
	Path(index int) (string, error)
}

// Stats counts worker activity. Loads-Frees is the number of instances
// currently alive outside the worker.
type Stats struct {
	Loads     int64
	Applies   int64
	Frees     int64
	Failures  int64
	Coalesced int64
}

// WorkerOption configures a Worker.
type WorkerOption func(*Worker)

// WithWorkerLogger sets the logger for load results.
func WithWorkerLogger(logger *zap.Logger) WorkerOption {
	return func(w *Worker) {
		if logger != nil {
			w.logger = logger
		}
	}
}

// WithResolver enables index requests.
func WithResolver(r Resolver) WorkerOption {
	return func(w *Worker) { w.resolver = r }
}

// Worker serves Load and Free messages.
type Worker struct {
	ch       *Channel
	loader   Loader
	resolver Resolver
	logger   *zap.Logger

	loads     atomic.Int64
	applies   atomic.Int64
	frees     atomic.Int64
	failures  atomic.Int64
	coalesced atomic.Int64
}

// ErrNoResolver is returned for index requests on a worker without a bank.
var ErrNoResolver = errors.New("index request without a model bank")

// NewWorker returns a worker reading from ch.
func NewWorker(ch *Channel, loader Loader, opts ...WorkerOption) (*Worker, error) {
	if ch == nil || loader == nil {
		return nil, errors.New("swap worker requires a channel and a loader")
	}
	w := &Worker{ch: ch, loader: loader, logger: zap.NewNop()}
	for _, opt := range opts {
		if opt != nil {
			opt(w)
		}
	}
	return w, nil
}

// Stats returns a snapshot of the counters.
func (w *Worker) Stats() Stats {
	return Stats{
		Loads:     w.loads.Load(),
		Applies:   w.applies.Load(),
		Frees:     w.frees.Load(),
		Failures:  w.failures.Load(),
		Coalesced: w.coalesced.Load(),
	}
}

// Run serves messages until ctx is done. Replies still queued for the
// audio side at that point are released by Drain.
func (w *Worker) Run(ctx context.Context) error {
	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case msg := <-w.ch.toWorker:
			w.Handle(ctx, msg)
		}
	}
}

// Poll handles every queued message without waiting and returns how many
// were taken off the queue. Hosts that drive the worker from their own loop,
// such as an offline renderer, call it between blocks.
func (w *Worker) Poll(ctx context.Context) int {
	n := 0
	for {
		select {
		case msg := <-w.ch.toWorker:
			n++
			w.Handle(ctx, msg)
		default:
			return n
		}
	}
}

// Handle processes one message. Queued Load messages behind a Load are
// folded into it so only the most recent request is built.
func (w *Worker) Handle(ctx context.Context, msg Message) {
	switch msg.Kind {
	case KindFree:
		w.free(msg.Model)
	case KindLoad:
		msg = w.coalesce(msg)
		w.load(ctx, msg)
	default:
		w.logger.Warn("unexpected message on worker queue", zap.Stringer("kind", msg.Kind))
	}
}

// coalesce drains the worker queue, releasing Frees and keeping the newest
// Load.
func (w *Worker) coalesce(latest Message) Message {
	for {
		select {
		case msg := <-w.ch.toWorker:
			switch msg.Kind {
			case KindFree:
				w.free(msg.Model)
			case KindLoad:
				w.coalesced.Add(1)
				w.logger.Debug("load superseded",
					zap.Uint64("seq", latest.Seq),
					zap.Uint64("by_seq", msg.Seq))
				latest = msg
			}
		default:
			return latest
		}
	}
}

func (w *Worker) load(ctx context.Context, msg Message) {
	path, err := w.resolve(msg.Request)
	var inst *model.Instance
	if err == nil {
		inst, err = w.loader.Load(ctx, path)
	}

	if err != nil {
		w.failures.Add(1)
		w.logger.Error("model load failed",
			zap.String("path", msg.Request.String()),
			zap.Uint64("seq", msg.Seq),
			zap.String("error_kind", model.ErrorKind(err)),
			zap.Error(err))
		if err := w.ch.Reply(ctx, Message{Kind: KindFailed, Request: msg.Request, Seq: msg.Seq}); err != nil {
			w.logger.Debug("failure notice dropped at shutdown", zap.Uint64("seq", msg.Seq))
		}
		return
	}

	w.loads.Add(1)
	if err := w.ch.Reply(ctx, Message{Kind: KindApply, Request: msg.Request, Seq: msg.Seq, Model: inst}); err != nil {
		w.free(inst)
		return
	}
	w.applies.Add(1)
	w.logger.Info("model ready",
		zap.String("path", path),
		zap.Uint64("seq", msg.Seq),
		zap.Stringer("arch", inst.Arch()))
}

func (w *Worker) resolve(req Request) (string, error) {
	if err := req.Validate(); err != nil {
		return "", errors.Join(model.ErrDescriptionParse, err)
	}
	if req.Path != "" {
		return req.Path, nil
	}
	if w.resolver == nil {
		return "", ErrNoResolver
	}
	return w.resolver.Path(req.Index)
}

func (w *Worker) free(m *model.Instance) {
	if m == nil {
		return
	}
	path := m.SourcePath()
	if err := m.Close(); err != nil {
		w.logger.Warn("closing model", zap.String("path", path), zap.Error(err))
	}
	w.frees.Add(1)
	w.logger.Debug("model freed", zap.String("path", path))
}

// Drain releases every instance still queued in either direction. Call it
// after Run has returned and the audio side has stopped.
func (w *Worker) Drain() {
	for {
		select {
		case msg := <-w.ch.toWorker:
			w.free(msg.Model)
		case msg := <-w.ch.toAudio:
			w.free(msg.Model)
		default:
			return
		}
	}
}
