package hub

import (
	"encoding/json"
	"errors"
	"sync"

	"github.com/google/uuid"
	"github.com/gorilla/websocket"
)

// sendBufferSize bounds the per-client outbound queue.
const sendBufferSize = 256

// ErrClientGone is returned when sending to a closed or stalled client.
var ErrClientGone = errors.New("client closed or send buffer full")

// Client is one connected websocket peer. The send channel preserves FIFO
// order for that peer; no state beyond the channel handle is kept.
type Client struct {
	ID   uuid.UUID
	conn *websocket.Conn

	mu     sync.Mutex
	send   chan []byte
	closed bool
}

// NewClient wraps an upgraded websocket connection.
func NewClient(conn *websocket.Conn) *Client {
	return &Client{
		ID:   uuid.New(),
		conn: conn,
		send: make(chan []byte, sendBufferSize),
	}
}

// Send marshals v and queues it for this client only.
func (c *Client) Send(v any) error {
	b, err := json.Marshal(v)
	if err != nil {
		return err
	}
	return c.trySend(b)
}

// trySend queues raw bytes without blocking. A full buffer counts as a
// failed send; the hub prunes clients that fail.
func (c *Client) trySend(b []byte) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.closed {
		return ErrClientGone
	}
	select {
	case c.send <- b:
		return nil
	default:
		return ErrClientGone
	}
}

// close shuts the send channel exactly once. The write pump drains what
// is already queued and then closes the connection.
func (c *Client) close() {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.closed {
		return
	}
	c.closed = true
	close(c.send)
}

// WritePump sends queued messages to the peer until the send channel is
// closed or a write fails. Run in its own goroutine per client.
func (c *Client) WritePump() {
	defer c.conn.Close()

	for message := range c.send {
		if err := c.conn.WriteMessage(websocket.TextMessage, message); err != nil {
			return
		}
	}
}

// ReadPump delivers inbound messages to handler until the connection
// errors or closes. Run in its own goroutine per client.
func (c *Client) ReadPump(handler func(message []byte)) {
	for {
		_, message, err := c.conn.ReadMessage()
		if err != nil {
			return
		}
		handler(message)
	}
}
