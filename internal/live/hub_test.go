package live

import (
	"context"
	"encoding/json"
	"errors"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/goleak"
	"go.uber.org/zap"

	"github.com/iliyamo/indias-got-voice/internal/model"
)

func TestMain(m *testing.M) {
	goleak.VerifyTestMain(m)
}

type fakeSource struct {
	calls atomic.Int32
	fail  bool
}

func (f *fakeSource) Snapshot(_ context.Context, showID uint64) (model.LiveSnapshot, error) {
	n := f.calls.Add(1)
	if f.fail {
		return model.LiveSnapshot{}, errors.New("db down")
	}
	return model.LiveSnapshot{Show: model.Show{ID: showID}, ViewerCount: int(n)}, nil
}

func recv(t *testing.T, ch <-chan []byte) Frame {
	t.Helper()
	select {
	case raw, ok := <-ch:
		require.True(t, ok, "channel closed")
		var f Frame
		require.NoError(t, json.Unmarshal(raw, &f))
		return f
	case <-time.After(2 * time.Second):
		t.Fatal("no frame received")
	}
	return Frame{}
}

func TestSubscribeReceivesFirstFrameAndTicks(t *testing.T) {
	src := &fakeSource{}
	h := NewHub(src, 20*time.Millisecond, 1024, zap.NewNop())
	defer h.Close()

	p, cleanup, err := h.Subscribe(7, 1)
	require.NoError(t, err)
	defer cleanup()

	first := recv(t, p.Send)
	assert.Equal(t, "snapshot", first.Type)
	assert.Equal(t, uint64(7), first.Data.Show.ID)

	second := recv(t, p.Send)
	assert.Greater(t, second.Data.ViewerCount, first.Data.ViewerCount)
}

func TestOneFeedPerShow(t *testing.T) {
	src := &fakeSource{}
	h := NewHub(src, time.Hour, 1024, zap.NewNop())
	defer h.Close()

	a, cleanA, err := h.Subscribe(1, 1)
	require.NoError(t, err)
	recv(t, a.Send)

	// A late subscriber gets the cached frame without a new snapshot.
	b, cleanB, err := h.Subscribe(1, 2)
	require.NoError(t, err)
	recv(t, b.Send)
	assert.Equal(t, int32(1), src.calls.Load())
	assert.Equal(t, 2, h.PeerCount(1))

	h.Notify(1)
	assert.Equal(t, 2, recv(t, a.Send).Data.ViewerCount)
	assert.Equal(t, 2, recv(t, b.Send).Data.ViewerCount)

	cleanA()
	cleanA()
	assert.Equal(t, 1, h.PeerCount(1))
	cleanB()
	assert.Equal(t, 0, h.PeerCount(1))
	_, ok := <-a.Send
	assert.False(t, ok)
}

func TestSnapshotErrorsKeepFeedAlive(t *testing.T) {
	src := &fakeSource{fail: true}
	h := NewHub(src, 10*time.Millisecond, 1024, zap.NewNop())
	defer h.Close()

	p, cleanup, err := h.Subscribe(3, 1)
	require.NoError(t, err)
	defer cleanup()

	assert.Eventually(t, func() bool { return src.calls.Load() >= 3 }, 2*time.Second, 5*time.Millisecond)
	assert.Len(t, p.Send, 0)
}

func TestCloseStopsFeeds(t *testing.T) {
	h := NewHub(&fakeSource{}, 10*time.Millisecond, 1024, zap.NewNop())
	p, cleanup, err := h.Subscribe(1, 1)
	require.NoError(t, err)

	h.Close()
	for range p.Send {
	}
	cleanup()

	_, _, err = h.Subscribe(1, 1)
	assert.ErrorIs(t, err, ErrHubClosed)
	h.Close()
}

func TestNotifyRefreshesBeforeTick(t *testing.T) {
	src := &fakeSource{}
	h := NewHub(src, time.Hour, 1024, zap.NewNop())
	defer h.Close()

	p, cleanup, err := h.Subscribe(4, 1)
	require.NoError(t, err)
	defer cleanup()
	assert.Equal(t, 1, recv(t, p.Send).Data.ViewerCount)

	h.Notify(4)
	assert.Equal(t, 2, recv(t, p.Send).Data.ViewerCount)

	// Shows nobody watches are ignored.
	h.Notify(99)
	assert.Equal(t, int32(2), src.calls.Load())
}

func TestCloseShowEndsPeers(t *testing.T) {
	src := &fakeSource{}
	h := NewHub(src, time.Hour, 1024, zap.NewNop())
	defer h.Close()

	a, cleanA, err := h.Subscribe(5, 1)
	require.NoError(t, err)
	other, cleanOther, err := h.Subscribe(6, 1)
	require.NoError(t, err)
	defer cleanOther()
	recv(t, a.Send)
	recv(t, other.Send)

	h.CloseShow(5)
	for range a.Send {
	}
	assert.Equal(t, 0, h.PeerCount(5))
	assert.Equal(t, 1, h.PeerCount(6))
	cleanA()
	h.CloseShow(5)

	// A new subscriber starts a fresh feed.
	b, cleanB, err := h.Subscribe(5, 2)
	require.NoError(t, err)
	defer cleanB()
	assert.Equal(t, uint64(5), recv(t, b.Send).Data.Show.ID)
}
