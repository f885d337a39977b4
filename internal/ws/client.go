package ws

import (
	"log/slog"
	"sync"
	"time"

	"github.com/gorilla/websocket"

	"github.com/nwestbury/digitduel/internal/registry"
)

const (
	// writeWait is the deadline for a single frame write
	writeWait = 10 * time.Second
	// pongWait is how long to wait for a pong before dropping the peer
	pongWait = 60 * time.Second
	// pingPeriod must be shorter than pongWait
	pingPeriod = (pongWait * 9) / 10
	// maxMessageSize bounds inbound frames; game events are tiny
	maxMessageSize = 4096
	// sendBuffer is the outbound queue per client
	sendBuffer = 256
)

// Client is one WebSocket peer
type Client struct {
	ID     registry.ConnID
	conn   *websocket.Conn
	send   chan Envelope
	logger *slog.Logger

	// mu serializes trySend against close. Hub broadcasts hold stale
	// client pointers briefly after unregister, so a send can race the
	// teardown path closing the channel.
	mu     sync.Mutex
	closed bool
}

func newClient(id registry.ConnID, conn *websocket.Conn, logger *slog.Logger) *Client {
	return &Client{
		ID:     id,
		conn:   conn,
		send:   make(chan Envelope, sendBuffer),
		logger: logger,
	}
}

// trySend queues an envelope without blocking. A full buffer means the
// peer is not draining; the frame is dropped and the write pump will
// eventually close the connection on write timeout. Sends after close
// are dropped.
func (c *Client) trySend(env Envelope) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.closed {
		return
	}
	select {
	case c.send <- env:
	default:
		c.logger.Warn("dropping frame for slow client", slog.String("conn_id", string(c.ID)))
	}
}

// writePump serializes all writes to the connection and keeps the peer
// alive with pings. Runs in its own goroutine per client.
func (c *Client) writePump() {
	ticker := time.NewTicker(pingPeriod)
	defer func() {
		ticker.Stop()
		c.conn.Close()
	}()

	for {
		select {
		case env, ok := <-c.send:
			c.conn.SetWriteDeadline(time.Now().Add(writeWait))
			if !ok {
				c.conn.WriteMessage(websocket.CloseMessage, []byte{})
				return
			}
			if err := c.conn.WriteJSON(env); err != nil {
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

// readLoop reads frames and hands them to dispatch until the peer goes
// away. Runs on the handler goroutine.
func (c *Client) readLoop(dispatch func(raw []byte)) {
	c.conn.SetReadLimit(maxMessageSize)
	c.conn.SetReadDeadline(time.Now().Add(pongWait))
	c.conn.SetPongHandler(func(string) error {
		c.conn.SetReadDeadline(time.Now().Add(pongWait))
		return nil
	})

	for {
		_, raw, err := c.conn.ReadMessage()
		if err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseNormalClosure) {
				c.logger.Debug("websocket closed unexpectedly",
					slog.String("conn_id", string(c.ID)),
					slog.String("error", err.Error()),
				)
			}
			return
		}
		dispatch(raw)
	}
}

// close shuts the outbound queue, which ends the write pump. Safe to
// call at most once per client, concurrently with trySend.
func (c *Client) close() {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.closed {
		return
	}
	c.closed = true
	close(c.send)
}
