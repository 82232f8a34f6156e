package server

import (
	"context"
	"errors"
	"io"
	"net"
	"sync"
	"time"

	"github.com/charmbracelet/log"
	"github.com/google/uuid"
	"github.com/gorilla/websocket"

	"github.com/lox/bridgetable/internal/protocol"
)

// sendBufferSize is how many frames may queue for a peer before it is
// treated as a slow consumer and dropped.
const sendBufferSize = 256

var ErrConnectionClosed = errors.New("connection closed")

// Peer is what the table needs from a connection. Send must not block.
type Peer interface {
	ID() string
	Send(text string) error
	Finish()
}

// Handler receives frames read from a connection and learns when it goes
// away.
type Handler interface {
	Handle(p Peer, text string)
	Disconnect(p Peer)
}

// Connection is one client connection over TCP or WebSocket.
type Connection struct {
	id        string
	transport transport
	send      chan string
	handler   Handler
	logger    *log.Logger
	ctx       context.Context
	cancel    context.CancelFunc
	mu        sync.Mutex
	closed    bool
	closeOnce sync.Once
	done      chan struct{}
}

// newConnection wraps a transport with its send queue and pumps.
func newConnection(t transport, handler Handler, logger *log.Logger) *Connection {
	ctx, cancel := context.WithCancel(context.Background())
	id := uuid.NewString()
	return &Connection{
		id:        id,
		transport: t,
		send:      make(chan string, sendBufferSize),
		handler:   handler,
		logger:    logger.WithPrefix("conn").With("conn", id[:8], "remote", t.RemoteAddr()),
		ctx:       ctx,
		cancel:    cancel,
		done:      make(chan struct{}),
	}
}

// NewTCPConnection wraps an accepted TCP connection.
func NewTCPConnection(conn net.Conn, maxFrame int, handler Handler, logger *log.Logger) *Connection {
	return newConnection(newTCPTransport(conn, maxFrame), handler, logger)
}

// NewWSConnection wraps an upgraded WebSocket connection.
func NewWSConnection(conn *websocket.Conn, maxFrame int, handler Handler, logger *log.Logger) *Connection {
	return newConnection(newWSTransport(conn, maxFrame), handler, logger)
}

// ID returns the connection identity.
func (c *Connection) ID() string {
	return c.id
}

// Done is closed once the connection has been torn down and the handler
// told about it.
func (c *Connection) Done() <-chan struct{} {
	return c.done
}

// Start begins handling the connection
func (c *Connection) Start() {
	go c.writePump()
	go c.readPump()
}

// Close tears the connection down immediately, discarding queued frames.
func (c *Connection) Close() error {
	var err error
	c.closeOnce.Do(func() {
		c.mu.Lock()
		c.closed = true
		c.mu.Unlock()
		c.cancel()
		err = c.transport.Close()
	})
	return err
}

// Finish stops accepting frames and closes the connection once everything
// already queued has been written.
func (c *Connection) Finish() {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.closed {
		return
	}
	c.closed = true
	close(c.send)
}

// Send queues a frame for the peer. A peer whose buffer is full is closed.
func (c *Connection) Send(text string) error {
	c.mu.Lock()
	if c.closed {
		c.mu.Unlock()
		return ErrConnectionClosed
	}
	select {
	case c.send <- text:
		c.mu.Unlock()
		return nil
	default:
	}
	c.mu.Unlock()

	c.logger.Warn("Connection send buffer full, closing connection")
	_ = c.Close()
	return ErrConnectionClosed
}

// readPump handles incoming frames from the client
func (c *Connection) readPump() {
	defer func() {
		_ = c.Close()
		c.handler.Disconnect(c)
		close(c.done)
	}()

	for {
		text, err := c.transport.ReadFrame()
		if err != nil {
			switch {
			case protocol.IsFramingError(err):
				c.logger.Warn("Dropping connection", "error", err)
			case errors.Is(err, io.EOF), c.ctx.Err() != nil:
				c.logger.Debug("Connection closed")
			case websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseNormalClosure):
				c.logger.Error("WebSocket error", "error", err)
			default:
				c.logger.Debug("Read failed", "error", err)
			}
			return
		}
		c.handler.Handle(c, text)
	}
}

// writePump handles outgoing frames to the client
func (c *Connection) writePump() {
	ticker := time.NewTicker(pingPeriod)
	defer func() {
		ticker.Stop()
		_ = c.Close()
	}()

	for {
		select {
		case text, ok := <-c.send:
			if !ok {
				return
			}
			if err := c.transport.WriteFrame(text); err != nil {
				c.logger.Debug("Failed to write frame", "error", err)
				return
			}

		case <-ticker.C:
			if err := c.transport.Ping(); err != nil {
				return
			}

		case <-c.ctx.Done():
			return
		}
	}
}
