// Package feed streams session snapshots to websocket viewers during play and
// forwards their commands to the realtime loop.
package feed

import (
	"context"
	"encoding/json"
	"log/slog"
	"net/http"
	"sync"

	"github.com/gorilla/websocket"

	"github.com/myorg/lifesim/internal/runner"
	"github.com/myorg/lifesim/internal/session"
)

// Message types sent to viewers.
const (
	TypeSnapshot = "snapshot"
	TypeResult   = "result"
	TypeError    = "error"
)

// Message is the JSON envelope written to viewers.
type Message struct {
	Type     string            `json:"type"`
	Snapshot *session.Snapshot `json:"snapshot,omitempty"`
	Command  string            `json:"command,omitempty"`
	Hours    float64           `json:"hours,omitempty"`
	Error    string            `json:"error,omitempty"`
}

// Hub maintains the set of connected viewers and broadcasts to them.
type Hub struct {
	clients    map[*Client]bool
	broadcast  chan []byte
	register   chan *Client
	unregister chan *Client
	mu         sync.RWMutex
	logger     *slog.Logger
	upgrader   websocket.Upgrader
	commands   chan<- runner.Command
	done       chan struct{}

	lastMu sync.RWMutex
	last   []byte
}

// Option configures a Hub.
type Option func(*Hub)

// WithLogger sets the logger. Defaults to slog.Default().
func WithLogger(l *slog.Logger) Option {
	return func(h *Hub) {
		if l != nil {
			h.logger = l
		}
	}
}

// WithCommands forwards commands sent by viewers to ch. Without it viewer
// input is ignored.
func WithCommands(ch chan<- runner.Command) Option {
	return func(h *Hub) { h.commands = ch }
}

// NewHub creates a hub. Call Run before serving connections.
func NewHub(opts ...Option) *Hub {
	h := &Hub{
		clients:    make(map[*Client]bool),
		broadcast:  make(chan []byte, 64),
		register:   make(chan *Client),
		unregister: make(chan *Client),
		done:       make(chan struct{}),
		logger:     slog.Default(),
		upgrader: websocket.Upgrader{
			ReadBufferSize:  1024,
			WriteBufferSize: 1024,
			CheckOrigin:     func(*http.Request) bool { return true },
		},
	}
	for _, opt := range opts {
		opt(h)
	}
	return h
}

// Run handles registration and broadcasts until ctx is done, then
// disconnects every viewer.
func (h *Hub) Run(ctx context.Context) {
	defer close(h.done)
	for {
		select {
		case <-ctx.Done():
			h.mu.Lock()
			for client := range h.clients {
				delete(h.clients, client)
				close(client.send)
			}
			h.mu.Unlock()
			h.logger.Debug("feed hub stopped")
			return
		case client := <-h.register:
			h.mu.Lock()
			h.clients[client] = true
			h.mu.Unlock()
			h.logger.Info("viewer connected", "remote", client.remote)
			if last := h.Last(); last != nil {
				client.trySend(last)
			}
		case client := <-h.unregister:
			h.mu.Lock()
			if _, ok := h.clients[client]; ok {
				delete(h.clients, client)
				close(client.send)
				h.logger.Info("viewer disconnected", "remote", client.remote)
			}
			h.mu.Unlock()
		case message := <-h.broadcast:
			h.mu.Lock()
			for client := range h.clients {
				if !client.trySend(message) {
					close(client.send)
					delete(h.clients, client)
					h.logger.Warn("dropping slow viewer", "remote", client.remote)
				}
			}
			h.mu.Unlock()
		}
	}
}

// Clients returns the number of connected viewers.
func (h *Hub) Clients() int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.clients)
}

// Last returns the most recent snapshot message, or nil.
func (h *Hub) Last() []byte {
	h.lastMu.RLock()
	defer h.lastMu.RUnlock()
	return h.last
}

// Publish queues snap for every viewer. It never blocks the caller: when the
// queue is full the snapshot is dropped, and viewers catch up on the next one.
func (h *Hub) Publish(snap session.Snapshot) {
	payload, err := json.Marshal(Message{Type: TypeSnapshot, Snapshot: &snap})
	if err != nil {
		h.logger.Error("failed to encode snapshot", "error", err)
		return
	}

	h.lastMu.Lock()
	h.last = payload
	h.lastMu.Unlock()

	h.send(payload)
}

// PublishResult tells viewers how a command went.
func (h *Hub) PublishResult(res runner.CommandResult) {
	msg := Message{
		Type:     TypeResult,
		Command:  res.Command.String(),
		Hours:    res.Hours,
		Snapshot: &res.Snapshot,
	}
	if res.Err != nil {
		msg.Type = TypeError
		msg.Error = res.Err.Error()
	}
	payload, err := json.Marshal(msg)
	if err != nil {
		h.logger.Error("failed to encode result", "error", err)
		return
	}
	h.send(payload)
}

func (h *Hub) send(payload []byte) {
	select {
	case h.broadcast <- payload:
	default:
		h.logger.Debug("feed queue full, dropping message")
	}
}

// ServeHTTP upgrades the request to a websocket and registers the viewer.
func (h *Hub) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	conn, err := h.upgrader.Upgrade(w, r, nil)
	if err != nil {
		h.logger.Warn("websocket upgrade failed", "error", err)
		return
	}

	client := newClient(h, conn, r.RemoteAddr)
	select {
	case h.register <- client:
	case <-h.done:
		conn.Close()
		return
	}

	go client.writePump()
	go client.readPump()
}

// handleInput parses one viewer message as a play command.
func (h *Hub) handleInput(c *Client, text string) {
	cmd, err := runner.ParseCommand(text)
	if err != nil {
		reply, _ := json.Marshal(Message{Type: TypeError, Command: text, Error: err.Error()})
		h.mu.RLock()
		if h.clients[c] {
			c.trySend(reply)
		}
		h.mu.RUnlock()
		return
	}
	if h.commands == nil {
		return
	}
	select {
	case h.commands <- cmd:
	default:
		h.logger.Warn("command dropped, loop busy", "command", cmd.String())
	}
}
