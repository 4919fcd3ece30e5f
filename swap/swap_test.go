package swap

import (
	"context"
	"errors"
	"strings"
	"testing"
	"time"

	"github.com/cwbudde/algo-rtneural/internal/testutil"
	"github.com/cwbudde/algo-rtneural/model"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"go.uber.org/zap/zaptest"
	"go.uber.org/zap/zaptest/observer"
)

func newLoader(t *testing.T) *model.Loader {
	t.Helper()
	l, err := model.NewLoader(model.WithLogger(zaptest.NewLogger(t)), model.WithPrerollSamples(32))
	require.NoError(t, err)
	return l
}

func writeModels(t *testing.T) (dir string, good, unsupported string) {
	t.Helper()
	dir = t.TempDir()
	good = testutil.WriteModel(t, dir, "a-good.json", testutil.ModelDoc{Cell: "lstm", Inputs: 1, Hidden: 8, Seed: 0.4})
	unsupported = testutil.WriteModel(t, dir, "b-four.json", testutil.ModelDoc{Cell: "lstm", Inputs: 4, Hidden: 8})
	return dir, good, unsupported
}

func TestRequestValidate(t *testing.T) {
	require.NoError(t, PathRequest(strings.Repeat("a", MaxPathLen)).Validate())
	require.Error(t, PathRequest(strings.Repeat("a", MaxPathLen+1)).Validate())
	require.NoError(t, IndexRequest(0).Validate())
	require.Error(t, Request{Index: -1}.Validate())
	require.Equal(t, "#3", IndexRequest(3).String())
	require.Equal(t, "/m.json", PathRequest("/m.json").String())
}

func TestKindString(t *testing.T) {
	require.Equal(t, "apply", KindApply.String())
	require.Equal(t, "Kind(9)", Kind(9).String())
}

func TestChannelNonBlocking(t *testing.T) {
	_, err := NewChannel(0)
	require.Error(t, err)

	ch, err := NewChannel(1)
	require.NoError(t, err)

	_, ok := ch.TryReceive()
	require.False(t, ok)

	require.True(t, ch.TrySendLoad(PathRequest("x"), 1))
	require.False(t, ch.TrySendLoad(PathRequest("y"), 2), "full queue must not block")
	require.False(t, ch.TrySendFree(nil))

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Millisecond)
	defer cancel()
	require.ErrorIs(t, ch.SendFree(ctx, nil), context.DeadlineExceeded)

	require.NoError(t, ch.Reply(context.Background(), Message{Kind: KindFailed, Seq: 1}))
	replyCtx, replyCancel := context.WithTimeout(context.Background(), 10*time.Millisecond)
	defer replyCancel()
	require.ErrorIs(t, ch.Reply(replyCtx, Message{Kind: KindFailed, Seq: 2}), context.DeadlineExceeded)
	msg, ok := ch.TryReceive()
	require.True(t, ok)
	require.Equal(t, uint64(1), msg.Seq)
}

func TestWorkerLoadSendsApply(t *testing.T) {
	_, good, _ := writeModels(t)
	ch, _ := NewChannel(DefaultQueueDepth)
	w, err := NewWorker(ch, newLoader(t))
	require.NoError(t, err)

	require.True(t, ch.TrySendLoad(PathRequest(good), 7))
	w.Handle(context.Background(), <-ch.toWorker)

	msg, ok := ch.TryReceive()
	require.True(t, ok)
	require.Equal(t, KindApply, msg.Kind)
	require.Equal(t, uint64(7), msg.Seq)
	require.NotNil(t, msg.Model)
	require.Equal(t, good, msg.Model.SourcePath())

	require.True(t, ch.TrySendFree(msg.Model))
	w.Handle(context.Background(), <-ch.toWorker)
	require.True(t, msg.Model.Closed())
	require.Equal(t, Stats{Loads: 1, Applies: 1, Frees: 1}, w.Stats())
}

func TestWorkerUnsupportedModelSendsFailedAndLogs(t *testing.T) {
	_, _, four := writeModels(t)
	core, logs := observer.New(zapcore.InfoLevel)
	ch, _ := NewChannel(DefaultQueueDepth)
	w, err := NewWorker(ch, newLoader(t), WithWorkerLogger(zap.New(core)))
	require.NoError(t, err)

	require.True(t, ch.TrySendLoad(PathRequest(four), 1))
	w.Handle(context.Background(), <-ch.toWorker)

	msg, ok := ch.TryReceive()
	require.True(t, ok)
	require.Equal(t, KindFailed, msg.Kind)
	require.Nil(t, msg.Model)
	require.Equal(t, uint64(1), msg.Seq)

	_, ok = ch.TryReceive()
	require.False(t, ok, "no Apply may follow a failed load")

	entries := logs.FilterMessage("model load failed").All()
	require.Len(t, entries, 1)
	require.Equal(t, "unsupported_architecture", entries[0].ContextMap()["error_kind"])
	require.Equal(t, Stats{Failures: 1}, w.Stats())
}

func TestWorkerCoalescesQueuedLoads(t *testing.T) {
	_, good, four := writeModels(t)
	ch, _ := NewChannel(DefaultQueueDepth)
	w, _ := NewWorker(ch, newLoader(t))

	require.True(t, ch.TrySendLoad(PathRequest(four), 1))
	require.True(t, ch.TrySendLoad(PathRequest(four), 2))
	require.True(t, ch.TrySendLoad(PathRequest(good), 3))

	w.Handle(context.Background(), <-ch.toWorker)

	msg, ok := ch.TryReceive()
	require.True(t, ok)
	require.Equal(t, KindApply, msg.Kind)
	require.Equal(t, uint64(3), msg.Seq)
	_, ok = ch.TryReceive()
	require.False(t, ok)

	st := w.Stats()
	require.Equal(t, int64(2), st.Coalesced)
	require.Equal(t, int64(1), st.Loads)
	require.Zero(t, st.Failures)
}

func TestWorkerCoalesceReleasesQueuedFrees(t *testing.T) {
	_, good, _ := writeModels(t)
	ch, _ := NewChannel(DefaultQueueDepth)
	loader := newLoader(t)
	w, _ := NewWorker(ch, loader)

	old, err := loader.Load(context.Background(), good)
	require.NoError(t, err)

	require.True(t, ch.TrySendLoad(PathRequest(good), 1))
	require.True(t, ch.TrySendFree(old))
	w.Handle(context.Background(), <-ch.toWorker)

	require.True(t, old.Closed())
	require.Equal(t, int64(1), w.Stats().Frees)
}

func TestWorkerIndexRequests(t *testing.T) {
	dir, _, _ := writeModels(t)
	bank, err := model.OpenBank(dir)
	require.NoError(t, err)

	ch, _ := NewChannel(DefaultQueueDepth)
	w, _ := NewWorker(ch, newLoader(t), WithResolver(bank))

	require.True(t, ch.TrySendLoad(IndexRequest(0), 1))
	w.Handle(context.Background(), <-ch.toWorker)
	msg, _ := ch.TryReceive()
	require.Equal(t, KindApply, msg.Kind)
	w.free(msg.Model)

	require.True(t, ch.TrySendLoad(IndexRequest(5), 2))
	w.Handle(context.Background(), <-ch.toWorker)
	msg, _ = ch.TryReceive()
	require.Equal(t, KindFailed, msg.Kind)

	noBank, _ := NewWorker(ch, newLoader(t))
	require.True(t, ch.TrySendLoad(IndexRequest(0), 3))
	noBank.Handle(context.Background(), <-ch.toWorker)
	msg, _ = ch.TryReceive()
	require.Equal(t, KindFailed, msg.Kind)
}

func TestWorkerRejectsOverlongPath(t *testing.T) {
	ch, _ := NewChannel(DefaultQueueDepth)
	core, logs := observer.New(zapcore.InfoLevel)
	w, _ := NewWorker(ch, newLoader(t), WithWorkerLogger(zap.New(core)))

	w.Handle(context.Background(), Message{Kind: KindLoad, Request: PathRequest(strings.Repeat("p", 2000)), Seq: 4})
	msg, ok := ch.TryReceive()
	require.True(t, ok)
	require.Equal(t, KindFailed, msg.Kind)
	require.Equal(t, "description_parse", logs.All()[0].ContextMap()["error_kind"])
}

func TestWorkerRunAndDrain(t *testing.T) {
	_, good, _ := writeModels(t)
	ch, _ := NewChannel(DefaultQueueDepth)
	w, _ := NewWorker(ch, newLoader(t))

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- w.Run(ctx) }()

	require.True(t, ch.TrySendLoad(PathRequest(good), 1))
	require.Eventually(t, func() bool { return w.Stats().Applies == 1 }, 5*time.Second, time.Millisecond)

	cancel()
	require.True(t, errors.Is(<-done, context.Canceled))

	// The Apply was never received by an audio side.
	w.Drain()
	st := w.Stats()
	require.Equal(t, st.Loads, st.Frees)
}

func TestNewWorkerValidation(t *testing.T) {
	ch, _ := NewChannel(1)
	_, err := NewWorker(nil, newLoader(t))
	require.Error(t, err)
	_, err = NewWorker(ch, nil)
	require.Error(t, err)
}

func TestWorkerPoll(t *testing.T) {
	_, good, _ := writeModels(t)
	ch, _ := NewChannel(DefaultQueueDepth)
	w, _ := NewWorker(ch, newLoader(t))

	require.Zero(t, w.Poll(context.Background()))

	require.True(t, ch.TrySendFree(nil))
	require.True(t, ch.TrySendLoad(PathRequest(good), 1))
	require.Equal(t, 2, w.Poll(context.Background()))

	msg, ok := ch.TryReceive()
	require.True(t, ok)
	require.Equal(t, KindApply, msg.Kind)
	w.free(msg.Model)
}
