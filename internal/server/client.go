package server

import (
	"encoding/json"
	"sync"
	"sync/atomic"
	"time"

	"github.com/gorilla/websocket"
	"golang.org/x/time/rate"

	"github.com/alnah/go-resumd"
)

// Connection timings.
const (
	writeWait  = 10 * time.Second
	pongWait   = 60 * time.Second
	pingPeriod = pongWait * 9 / 10
	sendQueue  = 32
)

// maxMessageSize leaves room for both document fields at their limit after
// JSON escaping. Larger edits that still fit are rejected with an error
// message rather than by closing the connection.
const maxMessageSize = 8*resumd.MaxFieldSize + 64<<10

// client is one editor connection.
type client struct {
	id      string // editor identity used for the lock
	conn    *websocket.Conn
	limiter *rate.Limiter

	send chan []byte
	done chan struct{}
	once sync.Once

	// frames holds the newest frame apart from send, so a full queue never
	// loses it. lastFrame is the highest request ID offered so far.
	frameMu   sync.Mutex
	lastFrame uint64
	frames    *mailbox[[]byte]

	// edits holds the newest document not yet run through the pipeline.
	edits *mailbox[resumd.Document]

	active atomic.Bool // holds the editor lock
}

func newClient(id string, conn *websocket.Conn, limiter *rate.Limiter) *client {
	return &client{
		id:      id,
		conn:    conn,
		limiter: limiter,
		send:    make(chan []byte, sendQueue),
		done:    make(chan struct{}),
		frames:  newMailbox[[]byte](),
		edits:   newMailbox[resumd.Document](),
	}
}

func (c *client) isActive() bool { return c.active.Load() }

func (c *client) setActive(v bool) { c.active.Store(v) }

// enqueue queues data without blocking. It drops data when the queue is
// full or the client is closed.
func (c *client) enqueue(data []byte) {
	select {
	case <-c.done:
	case c.send <- data:
	default:
	}
}

// offerFrame replaces the pending frame with data unless a newer one was
// already offered.
func (c *client) offerFrame(requestID uint64, data []byte) {
	c.frameMu.Lock()
	defer c.frameMu.Unlock()
	if requestID < c.lastFrame {
		return
	}
	c.lastFrame = requestID
	c.frames.put(data)
}

// sendJSON encodes v and queues it.
func (c *client) sendJSON(v any) {
	data, err := json.Marshal(v)
	if err != nil {
		return
	}
	c.enqueue(data)
}

func (c *client) close() {
	c.once.Do(func() {
		close(c.done)
		_ = c.conn.Close()
	})
}

func (c *client) write(data []byte) bool {
	_ = c.conn.SetWriteDeadline(time.Now().Add(writeWait))
	if err := c.conn.WriteMessage(websocket.TextMessage, data); err != nil {
		c.close()
		return false
	}
	return true
}

// writeLoop drains the pending frame and the queue, and pings until the
// client is closed.
func (c *client) writeLoop() {
	ticker := time.NewTicker(pingPeriod)
	defer ticker.Stop()

	for {
		select {
		case <-c.frames.ready:
			if data, ok := c.frames.take(); ok && !c.write(data) {
				return
			}
		case data := <-c.send:
			if !c.write(data) {
				return
			}
		case <-ticker.C:
			_ = c.conn.SetWriteDeadline(time.Now().Add(writeWait))
			if err := c.conn.WriteMessage(websocket.PingMessage, nil); err != nil {
				c.close()
				return
			}
		case <-c.done:
			return
		}
	}
}

// mailbox holds the newest value of a stream. A put replaces any value not
// yet taken; ready is signalled once per put.
type mailbox[T any] struct {
	mu    sync.Mutex
	val   T
	full  bool
	ready chan struct{}
}

func newMailbox[T any]() *mailbox[T] {
	return &mailbox[T]{ready: make(chan struct{}, 1)}
}

func (m *mailbox[T]) put(v T) {
	m.mu.Lock()
	m.val, m.full = v, true
	m.mu.Unlock()

	select {
	case m.ready <- struct{}{}:
	default:
	}
}

func (m *mailbox[T]) take() (T, bool) {
	m.mu.Lock()
	defer m.mu.Unlock()

	var zero T
	v, ok := m.val, m.full
	m.val, m.full = zero, false
	return v, ok
}
