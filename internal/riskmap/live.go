package riskmap

import (
	"context"
	"encoding/json"
	"net/http"
	"sync"
	"time"

	"github.com/EmpoweredVote/Barangay-Backend/internal/middleware"
	"github.com/EmpoweredVote/Barangay-Backend/internal/utils"
	"github.com/apex/log"
	"github.com/gorilla/websocket"
)

const (
	EventUpsert = "UPSERT"
	EventDelete = "DELETE"
)

const (
	writeWait  = 10 * time.Second
	pongWait   = 60 * time.Second
	pingPeriod = 54 * time.Second
)

// Event is one change pushed to map clients. Clients apply events in the
// order received; the latest event for a row wins.
type Event struct {
	Type   string      `json:"type"`
	Table  string      `json:"table"`
	Record interface{} `json:"record"`
	At     time.Time   `json:"at"`
}

type envelope struct {
	barangayID string
	data       []byte
}

// Hub fans change events out to the websocket clients of each barangay.
type Hub struct {
	clients    map[*Client]bool
	broadcast  chan envelope
	register   chan *Client
	unregister chan *Client
	done       chan struct{}
	mutex      sync.RWMutex
	upgrader   websocket.Upgrader
}

type Client struct {
	hub        *Hub
	conn       *websocket.Conn
	send       chan []byte
	barangayID string
}

func NewHub() *Hub {
	return &Hub{
		clients:    make(map[*Client]bool),
		broadcast:  make(chan envelope, 256),
		register:   make(chan *Client),
		unregister: make(chan *Client),
		done:       make(chan struct{}),
		upgrader: websocket.Upgrader{
			ReadBufferSize:  1024,
			WriteBufferSize: 1024,
			CheckOrigin: func(r *http.Request) bool {
				return middleware.OriginAllowed(r.Header.Get("Origin"))
			},
		},
	}
}

// Run is the hub's main loop; it returns when ctx is cancelled.
func (h *Hub) Run(ctx context.Context) {
	for {
		select {
		case <-ctx.Done():
			close(h.done)
			h.mutex.Lock()
			for c := range h.clients {
				close(c.send)
				delete(h.clients, c)
			}
			h.mutex.Unlock()
			return

		case c := <-h.register:
			h.mutex.Lock()
			h.clients[c] = true
			n := len(h.clients)
			h.mutex.Unlock()
			log.WithFields(log.Fields{"barangay_id": c.barangayID, "clients": n}).Debug("[riskmap] live client connected")

		case c := <-h.unregister:
			h.mutex.Lock()
			if _, ok := h.clients[c]; ok {
				delete(h.clients, c)
				close(c.send)
			}
			h.mutex.Unlock()

		case env := <-h.broadcast:
			h.mutex.Lock()
			for c := range h.clients {
				if c.barangayID != env.barangayID {
					continue
				}
				select {
				case c.send <- env.data:
				default:
					// Slow client; drop it rather than stall everyone else.
					close(c.send)
					delete(h.clients, c)
				}
			}
			h.mutex.Unlock()
		}
	}
}

// Publish queues evt for the clients of barangayID without blocking the caller.
func (h *Hub) Publish(barangayID string, evt Event) {
	if h == nil {
		return
	}
	if evt.At.IsZero() {
		evt.At = time.Now().UTC()
	}
	data, err := json.Marshal(evt)
	if err != nil {
		log.WithError(err).Error("[riskmap] marshal live event")
		return
	}
	select {
	case h.broadcast <- envelope{barangayID: barangayID, data: data}:
	default:
		log.WithField("table", evt.Table).Warn("[riskmap] live broadcast queue full, event dropped")
	}
}

// Count returns the number of connected clients.
func (h *Hub) Count() int {
	h.mutex.RLock()
	defer h.mutex.RUnlock()
	return len(h.clients)
}

// ServeWS upgrades a session-scoped request and subscribes it to its barangay.
func (h *Hub) ServeWS(w http.ResponseWriter, r *http.Request) {
	brgy, ok := utils.GetBarangayIDFromContext(r.Context())
	if !ok {
		http.Error(w, "Forbidden: no barangay on session", http.StatusForbidden)
		return
	}
	conn, err := h.upgrader.Upgrade(w, r, nil)
	if err != nil {
		log.WithError(err).Warn("[riskmap] websocket upgrade failed")
		return
	}

	c := &Client{hub: h, conn: conn, send: make(chan []byte, 256), barangayID: brgy}
	select {
	case h.register <- c:
	case <-h.done:
		conn.Close()
		return
	}

	go c.writePump()
	go c.readPump()
}

// readPump only watches for close and pong frames; clients do not send data.
func (c *Client) readPump() {
	defer func() {
		select {
		case c.hub.unregister <- c:
		case <-c.hub.done:
		}
		c.conn.Close()
	}()

	c.conn.SetReadLimit(512)
	c.conn.SetReadDeadline(time.Now().Add(pongWait))
	c.conn.SetPongHandler(func(string) error {
		c.conn.SetReadDeadline(time.Now().Add(pongWait))
		return nil
	})

	for {
		if _, _, err := c.conn.ReadMessage(); err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseAbnormalClosure) {
				log.WithError(err).Debug("[riskmap] live read error")
			}
			return
		}
	}
}

func (c *Client) writePump() {
	ticker := time.NewTicker(pingPeriod)
	defer func() {
		ticker.Stop()
		c.conn.Close()
	}()

	for {
		select {
		case message, ok := <-c.send:
			c.conn.SetWriteDeadline(time.Now().Add(writeWait))
			if !ok {
				c.conn.WriteMessage(websocket.CloseMessage, []byte{})
				return
			}
			if err := c.conn.WriteMessage(websocket.TextMessage, message); err != nil {
				return
			}

		case <-ticker.C:
			c.conn.SetWriteDeadline(time.Now().Add(writeWait))
			if err := c.conn.WriteMessage(websocket.PingMessage, nil); err != nil {
				return
			}
		}
	}
}
