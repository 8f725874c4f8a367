package ws

import (
	"context"
	"encoding/json"
	"net/http"
	"sync"

	"media-gateway/internal/media"

	"github.com/gorilla/websocket"
	"github.com/rs/zerolog/log"
)

var upgrader = websocket.Upgrader{
	ReadBufferSize:  1024,
	WriteBufferSize: 1024,
	CheckOrigin: func(r *http.Request) bool {
		return true // same policy as the CORS middleware
	},
}

// Client represents a connected WebSocket client
type Client struct {
	hub  *Hub
	conn *websocket.Conn
	send chan []byte
}

// Hub maintains the set of active clients and fans job events out to them
type Hub struct {
	clients    map[*Client]bool
	broadcast  chan []byte
	register   chan *Client
	unregister chan *Client
	done       chan struct{}
	mu         sync.Mutex
}

func NewHub() *Hub {
	return &Hub{
		broadcast:  make(chan []byte, 256),
		register:   make(chan *Client),
		unregister: make(chan *Client),
		done:       make(chan struct{}),
		clients:    make(map[*Client]bool),
	}
}

func (h *Hub) Run(ctx context.Context) {
	defer close(h.done)
	for {
		select {
		case <-ctx.Done():
			h.mu.Lock()
			for client := range h.clients {
				close(client.send)
				delete(h.clients, client)
			}
			h.mu.Unlock()
			return
		case client := <-h.register:
			h.mu.Lock()
			h.clients[client] = true
			h.mu.Unlock()
			log.Debug().Str("op", "ws/hub").Msg("client registered")
		case client := <-h.unregister:
			h.mu.Lock()
			if _, ok := h.clients[client]; ok {
				delete(h.clients, client)
				close(client.send)
			}
			h.mu.Unlock()
			log.Debug().Str("op", "ws/hub").Msg("client unregistered")
		case message := <-h.broadcast:
			h.mu.Lock()
			for client := range h.clients {
				select {
				case client.send <- message:
				default:
					close(client.send)
					delete(h.clients, client)
				}
			}
			h.mu.Unlock()
		}
	}
}

// ClientCount returns the number of registered clients.
func (h *Hub) ClientCount() int {
	h.mu.Lock()
	defer h.mu.Unlock()
	return len(h.clients)
}

type WSEvent struct {
	Type string `json:"type"`
	Data any    `json:"data"`
}

// JobPayload is the data of every job_* event.
type JobPayload struct {
	JobID           string  `json:"job_id"`
	URL             string  `json:"url"`
	Title           string  `json:"title,omitempty"`
	Status          string  `json:"status"`
	File            string  `json:"file,omitempty"`
	Error           string  `json:"error,omitempty"`
	Percent         float64 `json:"percent,omitempty"`
	DownloadedBytes int     `json:"downloaded_bytes,omitempty"`
	TotalBytes      int     `json:"total_bytes,omitempty"`
}

// BroadcastEvent queues an event for all clients. It drops the event rather
// than block the caller when the queue is full.
func (h *Hub) BroadcastEvent(eventType string, data any) {
	payload, err := json.Marshal(WSEvent{Type: eventType, Data: data})
	if err != nil {
		log.Error().Str("op", "ws/hub").Err(err).Msg("error marshaling event")
		return
	}
	select {
	case h.broadcast <- payload:
	default:
		log.Warn().Str("op", "ws/hub").Str("type", eventType).Msg("broadcast queue full, event dropped")
	}
}

// JobUpdated implements media.Observer.
func (h *Hub) JobUpdated(ev media.JobEvent) {
	p := JobPayload{
		JobID:  ev.JobID,
		URL:    ev.URL,
		Title:  ev.Title,
		Status: string(ev.Status),
		File:   ev.File,
		Error:  ev.Error,
	}
	if ev.Progress != nil {
		p.Percent = ev.Progress.Percent
		p.DownloadedBytes = ev.Progress.DownloadedBytes
		p.TotalBytes = ev.Progress.TotalBytes
	}
	h.BroadcastEvent(eventType(ev.Status), p)
}

func eventType(s media.Status) string {
	switch s {
	case media.StatusPending:
		return "job_started"
	case media.StatusCompleted:
		return "job_completed"
	case media.StatusFailed:
		return "job_failed"
	default:
		return "job_progress"
	}
}

func (h *Hub) ServeWs(w http.ResponseWriter, r *http.Request) {
	conn, err := upgrader.Upgrade(w, r, nil)
	if err != nil {
		log.Warn().Str("op", "ws/hub").Err(err).Msg("upgrade error")
		return
	}
	client := &Client{hub: h, conn: conn, send: make(chan []byte, 256)}
	select {
	case h.register <- client:
	case <-h.done:
		conn.Close()
		return
	}

	go client.writePump()
	go client.readPump()
}

func (c *Client) readPump() {
	defer func() {
		select {
		case c.hub.unregister <- c:
		case <-c.hub.done:
		}
		c.conn.Close()
	}()
	for {
		// Clients only listen; reading detects disconnects.
		if _, _, err := c.conn.ReadMessage(); err != nil {
			break
		}
	}
}

func (c *Client) writePump() {
	defer c.conn.Close()
	for message := range c.send {
		if err := c.conn.WriteMessage(websocket.TextMessage, message); err != nil {
			return
		}
	}
	c.conn.WriteMessage(websocket.CloseMessage, []byte{})
}
