// Package stream pushes committed engine events to websocket clients, the
// way the dapp used to watch contract events.
package stream

import (
	"context"
	"encoding/json"
	"net/http"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/gorilla/websocket"
	"github.com/labstack/echo/v4"
	"github.com/sirupsen/logrus"

	"github.com/Qiyd81/flightsurety-2/internal/surety"
)

const (
	sendBuffer = 64
	writeWait  = 10 * time.Second
	pongWait   = 60 * time.Second
	pingPeriod = pongWait * 9 / 10
)

var upgrader = websocket.Upgrader{
	ReadBufferSize:  1024,
	WriteBufferSize: 1024,
	CheckOrigin:     func(r *http.Request) bool { return true },
}

type client struct {
	id     uuid.UUID
	conn   *websocket.Conn
	send   chan []byte
	types  map[surety.EventType]bool // empty means all
	closed chan struct{}
}

func (c *client) wants(t surety.EventType) bool {
	return len(c.types) == 0 || c.types[t]
}

// Hub fans events out to connected websocket clients.  A client that
// cannot keep up is disconnected rather than slowing the engine down.
type Hub struct {
	log logrus.FieldLogger

	mu      sync.RWMutex
	clients map[uuid.UUID]*client
}

func NewHub(log logrus.FieldLogger) *Hub {
	return &Hub{log: log, clients: make(map[uuid.UUID]*client)}
}

// Emit implements surety.EventSink.
func (h *Hub) Emit(_ context.Context, ev surety.Event) error {
	payload, err := json.Marshal(ev)
	if err != nil {
		return err
	}
	h.mu.RLock()
	var slow []*client
	for _, c := range h.clients {
		if !c.wants(ev.Type) {
			continue
		}
		select {
		case c.send <- payload:
		default:
			slow = append(slow, c)
		}
	}
	h.mu.RUnlock()

	for _, c := range slow {
		h.log.WithField("client", c.id).Warn("stream: client too slow, dropping")
		h.remove(c)
	}
	return nil
}

// Clients returns the number of connected clients.
func (h *Hub) Clients() int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.clients)
}

// Serve upgrades the request and streams events until the client goes
// away.  ?types=a,b limits the stream to the listed event types.
func (h *Hub) Serve(c echo.Context) error {
	conn, err := upgrader.Upgrade(c.Response(), c.Request(), nil)
	if err != nil {
		return nil
	}
	cl := &client{
		id:     uuid.New(),
		conn:   conn,
		send:   make(chan []byte, sendBuffer),
		types:  parseTypes(c.QueryParam("types")),
		closed: make(chan struct{}),
	}
	h.mu.Lock()
	h.clients[cl.id] = cl
	h.mu.Unlock()
	h.log.WithField("client", cl.id).Debug("stream: client connected")

	go h.writePump(cl)
	h.readPump(cl)
	return nil
}

// readPump only watches for the client closing the socket.
func (h *Hub) readPump(c *client) {
	defer h.remove(c)
	c.conn.SetReadLimit(512)
	_ = c.conn.SetReadDeadline(time.Now().Add(pongWait))
	c.conn.SetPongHandler(func(string) error {
		return c.conn.SetReadDeadline(time.Now().Add(pongWait))
	})
	for {
		if _, _, err := c.conn.ReadMessage(); err != nil {
			return
		}
	}
}

func (h *Hub) writePump(c *client) {
	ticker := time.NewTicker(pingPeriod)
	defer ticker.Stop()
	for {
		select {
		case msg := <-c.send:
			_ = c.conn.SetWriteDeadline(time.Now().Add(writeWait))
			if err := c.conn.WriteMessage(websocket.TextMessage, msg); err != nil {
				h.remove(c)
				return
			}
		case <-ticker.C:
			_ = c.conn.SetWriteDeadline(time.Now().Add(writeWait))
			if err := c.conn.WriteMessage(websocket.PingMessage, nil); err != nil {
				h.remove(c)
				return
			}
		case <-c.closed:
			return
		}
	}
}

func (h *Hub) remove(c *client) {
	h.mu.Lock()
	_, ok := h.clients[c.id]
	delete(h.clients, c.id)
	h.mu.Unlock()
	if ok {
		close(c.closed)
		_ = c.conn.Close()
	}
}
