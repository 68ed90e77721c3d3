package ws

import (
	"encoding/json"
	"net/http"
	"strconv"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/gorilla/websocket"
)

const (
	readTimeout  = 60 * time.Second
	writeTimeout = 5 * time.Second
	readLimit    = 1024
)

// Logger is shared between hubs.
type Logger interface {
	Infof(format string, args ...interface{})
	Errorf(format string, args ...interface{})
}

// MessageHandler receives non-ping text frames from a connected client.
type MessageHandler func(id int64, msg []byte)

type client struct {
	connID string
	conn   *websocket.Conn
	wmu    sync.Mutex
}

// Hub keeps one websocket per subscriber id. A new connection for the same id
// replaces the old one.
type Hub struct {
	name     string
	param    string
	upgrader websocket.Upgrader
	logger   Logger
	onMsg    MessageHandler

	mu      sync.RWMutex
	clients map[int64]*client
}

// NewHub creates a hub that reads the subscriber id from the param query value
// or the X-<param> header.
func NewHub(name, param string, logger Logger, onMsg MessageHandler) *Hub {
	return &Hub{
		name:     name,
		param:    param,
		upgrader: websocket.Upgrader{CheckOrigin: func(r *http.Request) bool { return true }},
		logger:   logger,
		onMsg:    onMsg,
		clients:  make(map[int64]*client),
	}
}

// ServeWS upgrades the request and registers the connection.
func (h *Hub) ServeWS(w http.ResponseWriter, r *http.Request) {
	id, err := parseIDParam(r, h.param)
	if err != nil {
		http.Error(w, "missing "+h.param, http.StatusUnauthorized)
		return
	}
	conn, err := h.upgrader.Upgrade(w, r, nil)
	if err != nil {
		h.logger.Errorf("%s ws upgrade failed: %v", h.name, err)
		return
	}
	c := &client{connID: uuid.NewString(), conn: conn}

	h.mu.Lock()
	if old, ok := h.clients[id]; ok {
		_ = old.conn.Close()
	}
	h.clients[id] = c
	h.mu.Unlock()

	h.logger.Infof("%s %d connected (%s)", h.name, id, c.connID)
	go h.readLoop(id, c)
}

func (h *Hub) readLoop(id int64, c *client) {
	defer func() {
		c.conn.Close()
		h.mu.Lock()
		if cur, ok := h.clients[id]; ok && cur.connID == c.connID {
			delete(h.clients, id)
		}
		h.mu.Unlock()
		h.logger.Infof("%s %d disconnected (%s)", h.name, id, c.connID)
	}()

	c.conn.SetReadLimit(readLimit)
	c.conn.SetReadDeadline(time.Now().Add(readTimeout))
	c.conn.SetPongHandler(func(string) error {
		c.conn.SetReadDeadline(time.Now().Add(readTimeout))
		return nil
	})

	for {
		mt, msg, err := c.conn.ReadMessage()
		if err != nil {
			return
		}
		c.conn.SetReadDeadline(time.Now().Add(readTimeout))
		if mt != websocket.TextMessage {
			continue
		}
		if strings.EqualFold(strings.TrimSpace(string(msg)), "ping") {
			h.write(c, id, []byte("pong"))
			continue
		}
		if h.onMsg != nil {
			h.onMsg(id, msg)
		}
	}
}

func (h *Hub) write(c *client, id int64, data []byte) {
	c.wmu.Lock()
	defer c.wmu.Unlock()
	c.conn.SetWriteDeadline(time.Now().Add(writeTimeout))
	if err := c.conn.WriteMessage(websocket.TextMessage, data); err != nil {
		h.logger.Errorf("%s %d write failed: %v", h.name, id, err)
	}
}

// Connected reports whether id has a live connection.
func (h *Hub) Connected(id int64) bool {
	h.mu.RLock()
	defer h.mu.RUnlock()
	_, ok := h.clients[id]
	return ok
}

// Push sends event as JSON to id. Offline subscribers are skipped.
func (h *Hub) Push(id int64, event interface{}) {
	h.mu.RLock()
	c := h.clients[id]
	h.mu.RUnlock()
	if c == nil {
		return
	}
	data, err := json.Marshal(event)
	if err != nil {
		h.logger.Errorf("%s %d marshal failed: %v", h.name, id, err)
		return
	}
	h.write(c, id, data)
}

// Broadcast sends the same payload to every connected subscriber.
func (h *Hub) Broadcast(event interface{}) {
	data, err := json.Marshal(event)
	if err != nil {
		return
	}
	h.mu.RLock()
	targets := make(map[int64]*client, len(h.clients))
	for id, c := range h.clients {
		targets[id] = c
	}
	h.mu.RUnlock()
	for id, c := range targets {
		h.write(c, id, data)
	}
}

func parseIDParam(r *http.Request, name string) (int64, error) {
	if v := r.URL.Query().Get(name); v != "" {
		return strconv.ParseInt(v, 10, 64)
	}
	if v := r.Header.Get("X-" + name); v != "" {
		return strconv.ParseInt(v, 10, 64)
	}
	return 0, strconv.ErrSyntax
}
