// Package client connects to a bridge table over TCP or WebSocket and turns
// server frames into typed events.
package client

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"io"
	"net"
	"strings"
	"sync"
	"time"

	"github.com/charmbracelet/log"
	"github.com/gorilla/websocket"

	"github.com/lox/bridgetable/internal/protocol"
)

// Event is one payload received from the server.
type Event struct {
	Kind     protocol.ServerKind
	Text     string
	Snapshot *protocol.Snapshot
}

// Decode classifies a server payload and parses snapshots. A snapshot that
// does not parse is an error rather than a chat line.
func Decode(text string) (Event, error) {
	ev := Event{Kind: protocol.ClassifyServer(text), Text: text}
	if ev.Kind == protocol.ServerSnapshot {
		snap, err := protocol.ParseSnapshot(text)
		if err != nil {
			return Event{}, err
		}
		ev.Snapshot = &snap
	}
	return ev, nil
}

// link moves frames over some connection.
type link interface {
	readFrame() (string, error)
	writeFrame(text string) error
	close() error
}

type tcpLink struct {
	conn   net.Conn
	reader *bufio.Reader
}

func (l *tcpLink) readFrame() (string, error)   { return protocol.ReadFrame(l.reader, 0) }
func (l *tcpLink) writeFrame(text string) error { return protocol.WriteFrame(l.conn, text) }
func (l *tcpLink) close() error                 { return l.conn.Close() }

type wsLink struct {
	conn *websocket.Conn
}

func (l *wsLink) readFrame() (string, error) {
	kind, data, err := l.conn.ReadMessage()
	if err != nil {
		return "", err
	}
	if kind != websocket.BinaryMessage {
		return "", fmt.Errorf("unexpected websocket message type %d", kind)
	}
	return protocol.DecodeFrame(data, 0)
}

func (l *wsLink) writeFrame(text string) error {
	_ = l.conn.SetWriteDeadline(time.Now().Add(10 * time.Second))
	return l.conn.WriteMessage(websocket.BinaryMessage, protocol.EncodeFrame(text))
}

func (l *wsLink) close() error {
	_ = l.conn.WriteControl(websocket.CloseMessage,
		websocket.FormatCloseMessage(websocket.CloseNormalClosure, ""),
		time.Now().Add(time.Second))
	return l.conn.Close()
}

// Client is a connection to a bridge table.
type Client struct {
	addr      string
	link      link
	events    chan Event
	logger    *log.Logger
	ctx       context.Context
	cancel    context.CancelFunc
	writeMu   sync.Mutex
	mu        sync.RWMutex
	err       error
	closeOnce sync.Once
}

// Dial connects to addr. Addresses starting with ws:// or wss:// use
// WebSocket; anything else is a TCP host:port.
func Dial(ctx context.Context, addr string, logger *log.Logger) (*Client, error) {
	logger = logger.WithPrefix("client")
	logger.Info("Connecting to server", "addr", addr)

	var l link
	if strings.HasPrefix(addr, "ws://") || strings.HasPrefix(addr, "wss://") {
		conn, _, err := websocket.DefaultDialer.DialContext(ctx, addr, nil)
		if err != nil {
			return nil, fmt.Errorf("failed to connect: %w", err)
		}
		l = &wsLink{conn: conn}
	} else {
		var d net.Dialer
		conn, err := d.DialContext(ctx, "tcp", addr)
		if err != nil {
			return nil, fmt.Errorf("failed to connect: %w", err)
		}
		l = &tcpLink{conn: conn, reader: bufio.NewReader(conn)}
	}
	return newClient(addr, l, logger), nil
}

// NewFromConn wraps an already established TCP connection.
func NewFromConn(conn net.Conn, logger *log.Logger) *Client {
	return newClient(conn.RemoteAddr().String(), &tcpLink{conn: conn, reader: bufio.NewReader(conn)}, logger.WithPrefix("client"))
}

func newClient(addr string, l link, logger *log.Logger) *Client {
	ctx, cancel := context.WithCancel(context.Background())
	c := &Client{
		addr:   addr,
		link:   l,
		events: make(chan Event, 256),
		logger: logger,
		ctx:    ctx,
		cancel: cancel,
	}
	go c.readPump()
	return c
}

// Events delivers server payloads in order. It is closed when the
// connection ends; Err then reports why.
func (c *Client) Events() <-chan Event {
	return c.events
}

// Err returns the error that ended the connection, or nil after a clean
// close.
func (c *Client) Err() error {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.err
}

// Send writes one payload to the server.
func (c *Client) Send(text string) error {
	if c.ctx.Err() != nil {
		return net.ErrClosed
	}
	c.writeMu.Lock()
	defer c.writeMu.Unlock()
	return c.link.writeFrame(text)
}

// Name asks the server to change this player's display name.
func (c *Client) Name(name string) error {
	return c.Send("!name " + name)
}

// Play plays a card by its code.
func (c *Client) Play(code string) error {
	return c.Send(protocol.CardAction(code))
}

// Close disconnects from the server
func (c *Client) Close() error {
	var err error
	c.closeOnce.Do(func() {
		c.cancel()
		err = c.link.close()
		c.logger.Info("Disconnected from server", "addr", c.addr)
	})
	return err
}

// readPump handles incoming frames from the server
func (c *Client) readPump() {
	defer close(c.events)

	for {
		text, err := c.link.readFrame()
		if err != nil {
			if c.ctx.Err() == nil && !errors.Is(err, io.EOF) &&
				!websocket.IsCloseError(err, websocket.CloseNormalClosure, websocket.CloseGoingAway) {
				c.setErr(err)
				c.logger.Error("Connection lost", "error", err)
			}
			return
		}

		ev, err := Decode(text)
		if err != nil {
			c.logger.Warn("Ignoring malformed snapshot", "error", err)
			continue
		}
		c.logger.Debug("Received", "kind", ev.Kind)

		select {
		case c.events <- ev:
		case <-c.ctx.Done():
			return
		}
	}
}

func (c *Client) setErr(err error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.err = err
}
