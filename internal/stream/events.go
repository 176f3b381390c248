package stream

import (
	"context"
	"encoding/json"
	"log"
	"net/http"
	"net/url"
	"strings"
	"sync"
	"time"

	"github.com/gorilla/websocket"

	"github.com/satindergrewal/solfeggio/internal/engine"
	"github.com/satindergrewal/solfeggio/internal/fanout"
)

// MessageType tags every event pushed to WebSocket clients.
type MessageType string

const (
	MsgSnapshot MessageType = "snapshot"
	MsgPlaying  MessageType = "playing"
	MsgPreset   MessageType = "preset"
	MsgPan      MessageType = "pan"
)

// Message is the JSON envelope written to clients.
type Message struct {
	Type    MessageType `json:"type"`
	Payload any         `json:"payload"`
}

type PlayingPayload struct {
	Playing bool `json:"playing"`
}

type PresetPayload struct {
	Preset *engine.Preset `json:"preset"`
}

type PanPayload struct {
	Position float64 `json:"position"`
}

// EventSource is the observable playback state. *engine.Coordinator
// implements it.
type EventSource interface {
	Snapshot() engine.Snapshot
	SubscribePlaying() *fanout.Listener[bool]
	UnsubscribePlaying(*fanout.Listener[bool])
	SubscribePreset() *fanout.Listener[*engine.Preset]
	UnsubscribePreset(*fanout.Listener[*engine.Preset])
	SubscribePan() *fanout.Listener[float64]
	UnsubscribePan(*fanout.Listener[float64])
}

// DefaultPanEvery limits pan events per client to one per interval.
const DefaultPanEvery = 100 * time.Millisecond

type client struct {
	conn *websocket.Conn
	send chan []byte
}

func newClient(conn *websocket.Conn) *client {
	c := &client{
		conn: conn,
		send: make(chan []byte, 64),
	}
	go c.writePump()
	return c
}

func (c *client) writePump() {
	defer c.conn.Close()
	for msg := range c.send {
		if err := c.conn.WriteMessage(websocket.TextMessage, msg); err != nil {
			return
		}
	}
}

// EventsHandler pushes playback state changes to WebSocket clients.
type EventsHandler struct {
	source   EventSource
	panEvery time.Duration
	upgrader websocket.Upgrader

	mu      sync.RWMutex
	clients map[*client]bool
}

// NewEventsHandler creates a handler. Call Run to start forwarding events.
func NewEventsHandler(source EventSource) *EventsHandler {
	h := &EventsHandler{
		source:   source,
		panEvery: DefaultPanEvery,
		clients:  make(map[*client]bool),
	}
	h.upgrader = websocket.Upgrader{CheckOrigin: checkOrigin}
	return h
}

// Run forwards source events to all clients until ctx is cancelled or the
// source closes its streams.
func (h *EventsHandler) Run(ctx context.Context) {
	playing := h.source.SubscribePlaying()
	defer h.source.UnsubscribePlaying(playing)
	presets := h.source.SubscribePreset()
	defer h.source.UnsubscribePreset(presets)
	pans := h.source.SubscribePan()
	defer h.source.UnsubscribePan(pans)
	defer h.closeAll()

	var lastPan time.Time
	for {
		select {
		case <-ctx.Done():
			return
		case <-playing.Done():
			return
		case v := <-playing.C:
			h.broadcast(Message{Type: MsgPlaying, Payload: PlayingPayload{Playing: v}})
		case p := <-presets.C:
			h.broadcast(Message{Type: MsgPreset, Payload: PresetPayload{Preset: p}})
		case pos := <-pans.C:
			if now := time.Now(); now.Sub(lastPan) >= h.panEvery {
				lastPan = now
				h.broadcast(Message{Type: MsgPan, Payload: PanPayload{Position: pos}})
			}
		}
	}
}

func (h *EventsHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	conn, err := h.upgrader.Upgrade(w, r, nil)
	if err != nil {
		log.Printf("ws upgrade error: %v", err)
		return
	}

	log.Printf("WebSocket client connected: %s", r.RemoteAddr)
	c := h.addClient(conn)

	go func() {
		defer func() {
			h.removeClient(c)
			log.Printf("WebSocket client disconnected: %s", r.RemoteAddr)
		}()
		for {
			if _, _, err := conn.ReadMessage(); err != nil {
				return
			}
		}
	}()
}

// ClientCount returns the number of connected clients.
func (h *EventsHandler) ClientCount() int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.clients)
}

func (h *EventsHandler) addClient(conn *websocket.Conn) *client {
	c := newClient(conn)

	// The snapshot goes first, before any broadcast can reach c.
	data, err := json.Marshal(Message{Type: MsgSnapshot, Payload: h.source.Snapshot()})
	if err != nil {
		log.Printf("snapshot marshal error: %v", err)
	} else {
		c.send <- data
	}

	h.mu.Lock()
	h.clients[c] = true
	h.mu.Unlock()
	return c
}

func (h *EventsHandler) removeClient(c *client) {
	h.mu.Lock()
	if _, ok := h.clients[c]; ok {
		delete(h.clients, c)
		close(c.send)
	}
	h.mu.Unlock()
}

func (h *EventsHandler) closeAll() {
	h.mu.Lock()
	for c := range h.clients {
		delete(h.clients, c)
		close(c.send)
	}
	h.mu.Unlock()
}

func (h *EventsHandler) broadcast(msg Message) {
	data, err := json.Marshal(msg)
	if err != nil {
		log.Printf("broadcast marshal error: %v", err)
		return
	}

	h.mu.RLock()
	var slow []*client
	for c := range h.clients {
		select {
		case c.send <- data:
		default:
			slow = append(slow, c)
		}
	}
	h.mu.RUnlock()

	for _, c := range slow {
		// Client can't keep up, disconnect it
		log.Printf("ws client too slow, disconnecting")
		h.removeClient(c)
	}
}

// checkOrigin accepts same-host and loopback origins.
func checkOrigin(r *http.Request) bool {
	origin := r.Header.Get("Origin")
	if origin == "" {
		return true
	}
	parsed, err := url.Parse(origin)
	if err != nil || parsed.Host == "" {
		return false
	}
	host := parsed.Host
	if host == r.Host {
		return true
	}
	name := parsed.Hostname()
	return name == "localhost" || name == "127.0.0.1" || name == "::1" || strings.HasSuffix(name, ".localhost")
}
