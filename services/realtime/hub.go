// Package realtime pushes library events to websocket clients grouped in per-library rooms.
package realtime

import (
	"context"
	"fmt"
	"net/http"
	"sync"
	"time"

	"github.com/coder/websocket"
	"github.com/coder/websocket/wsjson"

	"github.com/trezcool/libdesk/core"
)

const (
	EventJoinLibrary = "join-library"

	sendBuffer   = 16
	writeTimeout = 5 * time.Second
)

// Message is what travels on the socket in both directions.
type Message struct {
	Event string      `json:"event"`
	Data  interface{} `json:"data"`
}

type joinRequest struct {
	Event string `json:"event"`
	Data  string `json:"data"`
}

type client struct {
	send chan Message
}

// Hub fans events out to the clients of a room. Delivery is at most once: a client whose
// buffer is full misses the event.
type Hub struct {
	logger         core.Logger
	originPatterns []string

	mu      sync.RWMutex
	started bool
	rooms   map[string]map[*client]struct{}

	done     chan struct{}
	stopOnce sync.Once
}

var _ core.Notifier = (*Hub)(nil)

func NewHub(logger core.Logger, originPatterns []string) *Hub {
	return &Hub{
		logger:         logger,
		originPatterns: originPatterns,
		rooms:          make(map[string]map[*client]struct{}),
		done:           make(chan struct{}),
	}
}

func roomName(libraryID string) string { return "library_" + libraryID }

// Start makes the hub accept connections and broadcasts.
func (h *Hub) Start() {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.started = true
}

// Stop disconnects every client.
func (h *Hub) Stop() {
	h.mu.Lock()
	h.started = false
	h.mu.Unlock()
	h.stopOnce.Do(func() { close(h.done) })
}

func (h *Hub) Broadcast(libraryID, event string, payload interface{}) error {
	h.mu.RLock()
	defer h.mu.RUnlock()

	if !h.started {
		return core.ErrNotInitialized
	}
	msg := Message{Event: event, Data: payload}
	for c := range h.rooms[roomName(libraryID)] {
		select {
		case c.send <- msg:
		default: // slow client
		}
	}
	return nil
}

func (h *Hub) join(c *client, libraryID string) {
	h.mu.Lock()
	defer h.mu.Unlock()

	room := roomName(libraryID)
	if h.rooms[room] == nil {
		h.rooms[room] = make(map[*client]struct{})
	}
	h.rooms[room][c] = struct{}{}
}

func (h *Hub) leaveAll(c *client) {
	h.mu.Lock()
	defer h.mu.Unlock()

	for room, clients := range h.rooms {
		delete(clients, c)
		if len(clients) == 0 {
			delete(h.rooms, room)
		}
	}
}

// RoomSize returns the number of clients listening to a library.
func (h *Hub) RoomSize(libraryID string) int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.rooms[roomName(libraryID)])
}

func (h *Hub) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	h.mu.RLock()
	started := h.started
	h.mu.RUnlock()
	if !started {
		http.Error(w, core.ErrNotInitialized.Error(), http.StatusServiceUnavailable)
		return
	}

	conn, err := websocket.Accept(w, r, &websocket.AcceptOptions{OriginPatterns: h.originPatterns})
	if err != nil {
		h.logger.Debug(fmt.Sprintf("accepting websocket: %v", err), err)
		return
	}

	ctx, cancel := context.WithCancel(r.Context())
	defer cancel()

	c := &client{send: make(chan Message, sendBuffer)}
	defer h.leaveAll(c)

	go h.readLoop(ctx, cancel, conn, c)

	for {
		select {
		case <-ctx.Done():
			_ = conn.Close(websocket.StatusNormalClosure, "closed")
			return
		case <-h.done:
			_ = conn.Close(websocket.StatusGoingAway, "shutting down")
			return
		case msg := <-c.send:
			writeCtx, cancelWrite := context.WithTimeout(ctx, writeTimeout)
			err := wsjson.Write(writeCtx, conn, msg)
			cancelWrite()
			if err != nil {
				_ = conn.Close(websocket.StatusInternalError, "write failed")
				return
			}
		}
	}
}

func (h *Hub) readLoop(ctx context.Context, cancel context.CancelFunc, conn *websocket.Conn, c *client) {
	defer cancel()
	for {
		var req joinRequest
		if err := wsjson.Read(ctx, conn, &req); err != nil {
			return
		}
		if req.Event == EventJoinLibrary && req.Data != "" {
			h.join(c, req.Data)
		}
	}
}
