package replication

import (
	"bytes"
	"log/slog"
	"net/http"
	"sync"
	"sync/atomic"
	"time"

	"github.com/gorilla/websocket"
)

const defaultOutboxSize = 64

// Hub fans resync frames out to websocket subscribers. Each subscriber has its
// own outbox and writer goroutine; a subscriber whose outbox overflows is
// dropped instead of stalling the tick.
type Hub struct {
	mu          sync.Mutex
	subscribers map[uint64]*subscriber
	nextID      atomic.Uint64
	latest      atomic.Pointer[[][]byte]

	upgrader     websocket.Upgrader
	writeTimeout time.Duration
	outboxSize   int
	wg           sync.WaitGroup
}

type subscriber struct {
	id     uint64
	conn   *websocket.Conn
	outbox chan []byte
}

// NewHub creates a hub. outboxSize <= 0 selects the default.
func NewHub(writeTimeout time.Duration, outboxSize int) *Hub {
	if outboxSize <= 0 {
		outboxSize = defaultOutboxSize
	}
	return &Hub{
		subscribers: make(map[uint64]*subscriber),
		upgrader: websocket.Upgrader{
			ReadBufferSize:  1024,
			WriteBufferSize: 1024,
			CheckOrigin: func(r *http.Request) bool {
				return true
			},
		},
		writeTimeout: writeTimeout,
		outboxSize:   outboxSize,
	}
}

// ServeHTTP upgrades the request and streams frames until the peer leaves.
func (h *Hub) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	conn, err := h.upgrader.Upgrade(w, r, nil)
	if err != nil {
		slog.Warn("replica upgrade failed", "remote", r.RemoteAddr, "err", err)
		return
	}

	sub := h.subscribe(conn)
	slog.Info("replica subscribed", "subscriber", sub.id, "remote", r.RemoteAddr)

	h.wg.Add(1)
	go func() {
		defer h.wg.Done()
		h.writeLoop(sub)
	}()

	// Replicas never send anything meaningful; reading detects disconnects.
	for {
		if _, _, err := conn.ReadMessage(); err != nil {
			break
		}
	}
	h.unsubscribe(sub.id)
	slog.Info("replica unsubscribed", "subscriber", sub.id)
}

func (h *Hub) subscribe(conn *websocket.Conn) *subscriber {
	sub := &subscriber{
		id:     h.nextID.Add(1),
		conn:   conn,
		outbox: make(chan []byte, h.outboxSize),
	}

	h.mu.Lock()
	defer h.mu.Unlock()
	if latest := h.latest.Load(); latest != nil {
		for _, f := range *latest {
			select {
			case sub.outbox <- bytes.Clone(f):
			default:
			}
		}
	}
	h.subscribers[sub.id] = sub
	return sub
}

func (h *Hub) unsubscribe(id uint64) {
	h.mu.Lock()
	sub, ok := h.subscribers[id]
	if ok {
		delete(h.subscribers, id)
		close(sub.outbox)
	}
	h.mu.Unlock()
}

func (h *Hub) writeLoop(sub *subscriber) {
	defer sub.conn.Close()
	for frame := range sub.outbox {
		if h.writeTimeout > 0 {
			_ = sub.conn.SetWriteDeadline(time.Now().Add(h.writeTimeout))
		}
		if err := sub.conn.WriteMessage(websocket.BinaryMessage, frame); err != nil {
			slog.Warn("replica write failed", "subscriber", sub.id, "err", err)
			h.unsubscribe(sub.id)
			// Drain so unsubscribe's close ends the loop.
			for range sub.outbox {
			}
			return
		}
	}
	_ = sub.conn.WriteControl(websocket.CloseMessage,
		websocket.FormatCloseMessage(websocket.CloseNormalClosure, ""),
		time.Now().Add(time.Second))
}

// Broadcast queues frames for every subscriber and remembers them for late
// joiners. Every subscriber receives its own copy.
func (h *Hub) Broadcast(frames [][]byte) {
	kept := make([][]byte, len(frames))
	for i, f := range frames {
		kept[i] = bytes.Clone(f)
	}
	h.latest.Store(&kept)

	h.mu.Lock()
	defer h.mu.Unlock()
	for id, sub := range h.subscribers {
		if len(sub.outbox)+len(frames) > cap(sub.outbox) {
			slog.Warn("replica too slow, dropping", "subscriber", id)
			delete(h.subscribers, id)
			close(sub.outbox)
			continue
		}
		for _, f := range kept {
			sub.outbox <- bytes.Clone(f)
		}
	}
}

// Count returns the number of live subscribers.
func (h *Hub) Count() int {
	h.mu.Lock()
	defer h.mu.Unlock()
	return len(h.subscribers)
}

// Close disconnects every subscriber and waits for their writers to finish.
func (h *Hub) Close() {
	h.mu.Lock()
	for id, sub := range h.subscribers {
		delete(h.subscribers, id)
		close(sub.outbox)
	}
	h.mu.Unlock()
	h.wg.Wait()
}
