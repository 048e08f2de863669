package api

import (
	"encoding/json"
	"log/slog"
	"net/http"
	"sync"
	"time"

	"github.com/gorilla/websocket"

	"github.com/talgya/uprising/internal/protocol"
	"github.com/talgya/uprising/internal/rebellion"
	"github.com/talgya/uprising/internal/store"
)

const (
	writeTimeout  = 5 * time.Second
	readTimeout   = 120 * time.Second
	clientBacklog = 16
)

// Hub accepts WebSocket clients, feeds their updates into the store in
// arrival order, and broadcasts the merged state after every change.
type Hub struct {
	store *store.Store
	log   *slog.Logger

	upgrader websocket.Upgrader

	mu      sync.Mutex
	clients map[*client]struct{}
}

type client struct {
	conn *websocket.Conn
	out  chan []byte
}

// NewHub creates a hub bound to the store and subscribes to its changes.
func NewHub(st *store.Store, log *slog.Logger) *Hub {
	if log == nil {
		log = slog.Default()
	}
	h := &Hub{
		store:   st,
		log:     log,
		clients: make(map[*client]struct{}),
		upgrader: websocket.Upgrader{
			ReadBufferSize:  64 * 1024,
			WriteBufferSize: 64 * 1024,
			CheckOrigin:     func(r *http.Request) bool { return true }, // dev default
		},
	}
	st.Subscribe(h.broadcast)
	return h
}

// HandleWS upgrades the connection and runs the client until it drops.
func (h *Hub) HandleWS(w http.ResponseWriter, r *http.Request) {
	conn, err := h.upgrader.Upgrade(w, r, nil)
	if err != nil {
		return
	}
	defer conn.Close()

	c := &client{conn: conn, out: make(chan []byte, clientBacklog)}
	h.mu.Lock()
	h.clients[c] = struct{}{}
	h.mu.Unlock()
	// Unregister under the lock before closing the channel so broadcast
	// can never send on a closed channel.
	defer func() {
		h.mu.Lock()
		delete(h.clients, c)
		h.mu.Unlock()
		close(c.out)
	}()

	// New clients get the current snapshot before any incremental state.
	if msg, err := h.stateMessage(h.store.Get()); err == nil {
		select {
		case c.out <- msg:
		default:
		}
	}

	// Writer drains until the channel closes on unregister.
	go func() {
		for b := range c.out {
			_ = conn.SetWriteDeadline(time.Now().Add(writeTimeout))
			if err := conn.WriteMessage(websocket.TextMessage, b); err != nil {
				return
			}
		}
	}()

	// Reader loop. Updates apply in the order they arrive on the socket;
	// the store queue keeps that order across concurrent clients too.
	for {
		_ = conn.SetReadDeadline(time.Now().Add(readTimeout))
		_, raw, err := conn.ReadMessage()
		if err != nil {
			break
		}
		msg, err := protocol.ParseUpdate(raw)
		if err != nil {
			h.log.Warn("malformed update message", "error", err)
			continue
		}
		if err := h.store.ApplyMessage(msg); err != nil {
			h.log.Warn("update rejected", "sender", msg.SenderID, "error", err)
		}
	}
}

func (h *Hub) stateMessage(st *rebellion.State) ([]byte, error) {
	raw, err := json.Marshal(st)
	if err != nil {
		return nil, err
	}
	return json.Marshal(protocol.NewStateMsg(st.Week, raw))
}

// broadcast fans the new state out to every connected client. Slow
// clients drop messages rather than stall the rest; they resync on the
// next change.
func (h *Hub) broadcast(st *rebellion.State) {
	msg, err := h.stateMessage(st)
	if err != nil {
		h.log.Error("state broadcast encode failed", "error", err)
		return
	}
	h.mu.Lock()
	defer h.mu.Unlock()
	for c := range h.clients {
		select {
		case c.out <- msg:
		default:
		}
	}
}
