// Package live pushes periodic show snapshots to WebSocket subscribers.
package live

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"sync"
	"time"

	"github.com/gorilla/websocket"
	"go.uber.org/zap"

	"github.com/iliyamo/indias-got-voice/internal/model"
)

// ErrHubClosed is returned by Subscribe after Close.
var ErrHubClosed = errors.New("live hub closed")

// Source builds the public snapshot of a show.
type Source interface {
	Snapshot(ctx context.Context, showID uint64) (model.LiveSnapshot, error)
}

// Frame is the message pushed to subscribers.
type Frame struct {
	Type string             `json:"type"`
	Data model.LiveSnapshot `json:"data"`
	At   time.Time          `json:"at"`
}

// Peer is one WebSocket subscriber of a show.
type Peer struct {
	ShowID uint64
	UserID uint64
	Send   chan []byte
}

type feed struct {
	peers map[*Peer]struct{}
	last  []byte
	poke  chan struct{}
	stop  chan struct{}
}

// Hub keeps one ticker goroutine per show with at least one subscriber.
// Each tick builds the snapshot once and fans the encoded frame out to every
// peer without blocking; slow peers miss frames.
type Hub struct {
	src        Source
	interval   time.Duration
	maxMsgSize int64
	log        *zap.Logger
	upgrader   websocket.Upgrader

	ctx    context.Context
	cancel context.CancelFunc
	wg     sync.WaitGroup

	mu     sync.Mutex
	feeds  map[uint64]*feed
	closed bool
}

// NewHub creates a hub that refreshes every interval.
func NewHub(src Source, interval time.Duration, maxMessageSize int64, log *zap.Logger) *Hub {
	ctx, cancel := context.WithCancel(context.Background())
	return &Hub{
		src:        src,
		interval:   interval,
		maxMsgSize: maxMessageSize,
		log:        log.Named("live-hub"),
		upgrader: websocket.Upgrader{
			ReadBufferSize:  1024,
			WriteBufferSize: 1024 * 4,
			CheckOrigin:     func(*http.Request) bool { return true },
		},
		ctx:    ctx,
		cancel: cancel,
		feeds:  make(map[uint64]*feed),
	}
}

// Upgrader returns the WebSocket upgrader for HTTP handlers.
func (h *Hub) Upgrader() *websocket.Upgrader { return &h.upgrader }

// ReadLimit is the largest client message accepted on a feed connection.
func (h *Hub) ReadLimit() int64 { return h.maxMsgSize }

// Subscribe registers a peer for showID and returns it with a cleanup
// function.  The first subscriber of a show starts its feed; the peer gets
// the latest frame immediately when one exists.
func (h *Hub) Subscribe(showID, userID uint64) (*Peer, func(), error) {
	p := &Peer{ShowID: showID, UserID: userID, Send: make(chan []byte, 8)}

	h.mu.Lock()
	if h.closed {
		h.mu.Unlock()
		return nil, nil, ErrHubClosed
	}
	f, ok := h.feeds[showID]
	if !ok {
		f = &feed{
			peers: make(map[*Peer]struct{}),
			poke:  make(chan struct{}, 1),
			stop:  make(chan struct{}),
		}
		h.feeds[showID] = f
		h.wg.Add(1)
		go h.run(showID, f)
	}
	f.peers[p] = struct{}{}
	if f.last != nil {
		p.Send <- f.last
	}
	h.mu.Unlock()

	h.log.Debug("peer subscribed", zap.Uint64("show_id", showID), zap.Uint64("user_id", userID))
	var once sync.Once
	return p, func() { once.Do(func() { h.unsubscribe(p) }) }, nil
}

func (h *Hub) unsubscribe(p *Peer) {
	h.mu.Lock()
	defer h.mu.Unlock()
	f, ok := h.feeds[p.ShowID]
	if !ok {
		return
	}
	if _, ok := f.peers[p]; !ok {
		return
	}
	delete(f.peers, p)
	close(p.Send)
	if len(f.peers) == 0 {
		close(f.stop)
		delete(h.feeds, p.ShowID)
	}
	h.log.Debug("peer unsubscribed", zap.Uint64("show_id", p.ShowID), zap.Uint64("user_id", p.UserID))
}

// Notify asks the show's feed to refresh now instead of at the next tick.
// It is a no-op when nobody watches the show.
func (h *Hub) Notify(showID uint64) {
	h.mu.Lock()
	defer h.mu.Unlock()
	if f, ok := h.feeds[showID]; ok {
		select {
		case f.poke <- struct{}{}:
		default:
		}
	}
}

// CloseShow stops the show's feed and closes its peers' channels, which
// ends their connections.  Later subscribers start a fresh feed.
func (h *Hub) CloseShow(showID uint64) {
	h.mu.Lock()
	defer h.mu.Unlock()
	f, ok := h.feeds[showID]
	if !ok {
		return
	}
	for p := range f.peers {
		close(p.Send)
	}
	close(f.stop)
	delete(h.feeds, showID)
	h.log.Debug("feed closed", zap.Uint64("show_id", showID), zap.Int("peers", len(f.peers)))
}

// PeerCount returns the number of subscribers of a show.
func (h *Hub) PeerCount(showID uint64) int {
	h.mu.Lock()
	defer h.mu.Unlock()
	if f, ok := h.feeds[showID]; ok {
		return len(f.peers)
	}
	return 0
}

func (h *Hub) run(showID uint64, f *feed) {
	defer h.wg.Done()
	t := time.NewTicker(h.interval)
	defer t.Stop()

	h.push(showID, f)
	for {
		select {
		case <-f.stop:
			return
		case <-h.ctx.Done():
			return
		case <-f.poke:
			h.push(showID, f)
		case <-t.C:
			h.push(showID, f)
		}
	}
}

func (h *Hub) push(showID uint64, f *feed) {
	ctx, cancel := context.WithTimeout(h.ctx, h.interval)
	defer cancel()
	snap, err := h.src.Snapshot(ctx, showID)
	if err != nil {
		if h.ctx.Err() == nil {
			h.log.Warn("snapshot failed", zap.Uint64("show_id", showID), zap.Error(err))
		}
		return
	}
	raw, err := json.Marshal(Frame{Type: "snapshot", Data: snap, At: time.Now().UTC()})
	if err != nil {
		h.log.Error("encode snapshot", zap.Uint64("show_id", showID), zap.Error(err))
		return
	}

	h.mu.Lock()
	defer h.mu.Unlock()
	if h.feeds[showID] != f {
		return
	}
	f.last = raw
	for p := range f.peers {
		select {
		case p.Send <- raw:
		default:
			h.log.Debug("peer buffer full; frame dropped", zap.Uint64("show_id", showID), zap.Uint64("user_id", p.UserID))
		}
	}
}

// Close stops every feed and closes all peer channels.  It waits for the
// feed goroutines to exit.
func (h *Hub) Close() {
	h.mu.Lock()
	if h.closed {
		h.mu.Unlock()
		return
	}
	h.closed = true
	h.cancel()
	for id, f := range h.feeds {
		for p := range f.peers {
			close(p.Send)
		}
		close(f.stop)
		delete(h.feeds, id)
	}
	h.mu.Unlock()
	h.wg.Wait()
}
