package ws

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"
	"sync"
	"time"

	"github.com/gorilla/websocket"

	"github.com/mdrdcalc/mdrdcalc/server/internal/api"
	"github.com/mdrdcalc/mdrdcalc/server/internal/egfr"
)

const (
	// writeTimeout is the deadline for a single write to a client.
	writeTimeout = 10 * time.Second

	// pongWait is how long to wait for a pong response before treating the
	// connection as dead.
	pongWait = 60 * time.Second

	// pingPeriod controls how often the server sends WebSocket ping frames.
	// Must be less than pongWait.
	pingPeriod = (pongWait * 9) / 10

	// sendBufSize is the per-client outgoing message buffer depth.
	sendBufSize = 16

	// maxMessageSize caps one incoming calculation request.
	maxMessageSize = 4096

	// closeReasonBufferFull is sent with CloseTryAgainLater when a client
	// stops draining replies.
	closeReasonBufferFull = "reply buffer full"
)

// sendWait is how long a reply may wait for room in a full send buffer
// before the client is disconnected.
var sendWait = 2 * time.Second

var (
	errClientGone = errors.New("ws: client gone")
	errBufferFull = errors.New("ws: send buffer full")
)

var upgrader = websocket.Upgrader{
	ReadBufferSize:  1024,
	WriteBufferSize: 1024,
	// Every origin is allowed, matching the HTTP CORS policy.
	CheckOrigin: func(r *http.Request) bool { return true },
}

// Reply is the frame sent back for every request frame. ID echoes the
// request's "id" unchanged so clients can pipeline requests.
type Reply struct {
	ID     json.RawMessage   `json:"id,omitempty"`
	EGFR   *float64          `json:"egfr,omitempty"`
	Error  string            `json:"error,omitempty"`
	Fields []egfr.FieldError `json:"fields,omitempty"`
}

// Hub serves WebSocket calculator clients. Each text frame a client sends is
// handled independently by the shared api.Service.
type Hub struct {
	svc *api.Service

	mu      sync.RWMutex
	clients map[*client]struct{}
}

// client represents one connected WebSocket client.
type client struct {
	conn *websocket.Conn
	send chan []byte
}

// New creates a Hub that evaluates requests with svc.
func New(svc *api.Service) *Hub {
	return &Hub{
		svc:     svc,
		clients: make(map[*client]struct{}),
	}
}

// Run blocks until ctx is cancelled, then closes all active connections.
func (h *Hub) Run(ctx context.Context) {
	<-ctx.Done()
	h.closeAll()
}

// ServeHTTP upgrades the HTTP connection to WebSocket and serves the client
// until the connection closes.
func (h *Hub) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	conn, err := upgrader.Upgrade(w, r, nil)
	if err != nil {
		// upgrader has already written the error response.
		return
	}

	c := &client{
		conn: conn,
		send: make(chan []byte, sendBufSize),
	}
	go c.writePump()
	// blocks until connection closes
	h.serve(c)
}

// Count returns the number of currently connected clients.
func (h *Hub) Count() int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.clients)
}

// --- internal ---------------------------------------------------------------

// serve registers c and answers its request frames until the connection
// closes or c falls behind on replies.
func (h *Hub) serve(c *client) {
	h.register(c)
	defer h.unregister(c)
	c.readPump(func(msg []byte) error { return h.send(c, h.handle(msg)) })
}

func (h *Hub) register(c *client) {
	h.mu.Lock()
	h.clients[c] = struct{}{}
	h.mu.Unlock()
}

func (h *Hub) unregister(c *client) {
	h.mu.Lock()
	if _, ok := h.clients[c]; ok {
		delete(h.clients, c)
		close(c.send)
	}
	h.mu.Unlock()
}

// handle evaluates one request frame and returns the encoded reply.
func (h *Hub) handle(msg []byte) []byte {
	var reply Reply

	var envelope struct {
		ID json.RawMessage `json:"id"`
	}
	if err := json.Unmarshal(msg, &envelope); err == nil {
		reply.ID = envelope.ID
	}

	fields, err := api.FieldsFromJSON(msg)
	if err == nil {
		var v float64
		v, err = h.svc.Calculate(fields)
		if err == nil {
			reply.EGFR = &v
		}
	}

	if err != nil {
		var verr *egfr.ValidationError
		if errors.As(err, &verr) {
			reply.Error = "validation failed"
			reply.Fields = verr.Fields
		} else {
			reply.Error = err.Error()
		}
	}

	data, _ := json.Marshal(reply)
	return data
}

// send queues data for c, waiting up to sendWait for buffer space.
func (h *Hub) send(c *client, data []byte) error {
	h.mu.RLock()
	defer h.mu.RUnlock()
	if _, ok := h.clients[c]; !ok {
		return errClientGone
	}
	select {
	case c.send <- data:
		return nil
	default:
	}

	timer := time.NewTimer(sendWait)
	defer timer.Stop()
	select {
	case c.send <- data:
		return nil
	case <-timer.C:
		return errBufferFull
	}
}

func (h *Hub) closeAll() {
	h.mu.Lock()
	defer h.mu.Unlock()
	for c := range h.clients {
		close(c.send)
		delete(h.clients, c)
	}
}

// writePump drains the client's send channel and forwards messages to the
// WebSocket connection. It also sends periodic ping frames. Runs in its own
// goroutine per client.
func (c *client) writePump() {
	ticker := time.NewTicker(pingPeriod)
	defer func() {
		ticker.Stop()
		c.conn.Close()
	}()

	for {
		select {
		case msg, ok := <-c.send:
			c.conn.SetWriteDeadline(time.Now().Add(writeTimeout))
			if !ok {
				// Channel was closed (hub is shutting down or client removed).
				c.conn.WriteMessage(websocket.CloseMessage, []byte{}) //nolint:errcheck
				return
			}
			if err := c.conn.WriteMessage(websocket.TextMessage, msg); err != nil {
				return
			}

		case <-ticker.C:
			c.conn.SetWriteDeadline(time.Now().Add(writeTimeout))
			if err := c.conn.WriteMessage(websocket.PingMessage, nil); err != nil {
				return
			}
		}
	}
}

// readPump reads request frames and passes each to serve. Blocks until the
// connection closes or serve fails to queue a reply. A client whose buffer
// stayed full is told so with a CloseTryAgainLater frame.
func (c *client) readPump(serve func([]byte) error) {
	defer c.conn.Close()
	c.conn.SetReadLimit(maxMessageSize)
	c.conn.SetReadDeadline(time.Now().Add(pongWait))
	c.conn.SetPongHandler(func(string) error {
		c.conn.SetReadDeadline(time.Now().Add(pongWait))
		return nil
	})
	for {
		typ, msg, err := c.conn.ReadMessage()
		if err != nil {
			break
		}
		if typ != websocket.TextMessage {
			continue
		}
		c.conn.SetReadDeadline(time.Now().Add(pongWait))
		if err := serve(msg); err != nil {
			if errors.Is(err, errBufferFull) {
				slog.Warn("ws: disconnecting slow client", "remote", c.conn.RemoteAddr().String())
				frame := websocket.FormatCloseMessage(websocket.CloseTryAgainLater, closeReasonBufferFull)
				c.conn.WriteControl(websocket.CloseMessage, frame, time.Now().Add(writeTimeout)) //nolint:errcheck
			}
			break
		}
	}
}
