package server

import (
	"bufio"
	"errors"
	"net"
	"time"

	"github.com/gorilla/websocket"

	"github.com/lox/bridgetable/internal/protocol"
)

const (
	// Time allowed to write a message to the peer
	writeWait = 10 * time.Second

	// Time allowed to read the next pong message from the peer
	pongWait = 60 * time.Second

	// Send pings to peer with this period. Must be less than pongWait
	pingPeriod = (pongWait * 9) / 10
)

var errNotBinary = errors.New("websocket message is not binary")

// transport moves whole frames over one connection. WriteFrame and Ping are
// only called from the connection's write pump.
type transport interface {
	ReadFrame() (string, error)
	WriteFrame(text string) error
	Ping() error
	Close() error
	RemoteAddr() string
}

// tcpTransport carries length prefixed frames directly on a stream.
type tcpTransport struct {
	conn    net.Conn
	reader  *bufio.Reader
	maxSize int
}

func newTCPTransport(conn net.Conn, maxSize int) *tcpTransport {
	return &tcpTransport{
		conn:    conn,
		reader:  bufio.NewReader(conn),
		maxSize: maxSize,
	}
}

func (t *tcpTransport) ReadFrame() (string, error) {
	return protocol.ReadFrame(t.reader, t.maxSize)
}

func (t *tcpTransport) WriteFrame(text string) error {
	_ = t.conn.SetWriteDeadline(time.Now().Add(writeWait))
	return protocol.WriteFrame(t.conn, text)
}

// Ping is a no-op; a dead TCP peer is detected by the next failed write.
func (t *tcpTransport) Ping() error { return nil }

func (t *tcpTransport) Close() error { return t.conn.Close() }

func (t *tcpTransport) RemoteAddr() string { return t.conn.RemoteAddr().String() }

// wsTransport carries one length prefixed frame per binary WebSocket message.
type wsTransport struct {
	conn    *websocket.Conn
	maxSize int
}

func newWSTransport(conn *websocket.Conn, maxSize int) *wsTransport {
	if maxSize <= 0 {
		maxSize = protocol.DefaultMaxFrameSize
	}
	conn.SetReadLimit(int64(maxSize + protocol.HeaderSize))
	_ = conn.SetReadDeadline(time.Now().Add(pongWait))
	conn.SetPongHandler(func(string) error {
		_ = conn.SetReadDeadline(time.Now().Add(pongWait))
		return nil
	})
	return &wsTransport{conn: conn, maxSize: maxSize}
}

func (t *wsTransport) ReadFrame() (string, error) {
	kind, data, err := t.conn.ReadMessage()
	if err != nil {
		if errors.Is(err, websocket.ErrReadLimit) {
			return "", &protocol.FramingError{Err: protocol.ErrFrameTooLarge}
		}
		return "", err
	}
	if kind != websocket.BinaryMessage {
		return "", &protocol.FramingError{Err: errNotBinary}
	}
	return protocol.DecodeFrame(data, t.maxSize)
}

func (t *wsTransport) WriteFrame(text string) error {
	_ = t.conn.SetWriteDeadline(time.Now().Add(writeWait))
	return t.conn.WriteMessage(websocket.BinaryMessage, protocol.EncodeFrame(text))
}

func (t *wsTransport) Ping() error {
	_ = t.conn.SetWriteDeadline(time.Now().Add(writeWait))
	return t.conn.WriteMessage(websocket.PingMessage, nil)
}

func (t *wsTransport) Close() error {
	_ = t.conn.WriteControl(websocket.CloseMessage,
		websocket.FormatCloseMessage(websocket.CloseNormalClosure, ""),
		time.Now().Add(time.Second))
	return t.conn.Close()
}

func (t *wsTransport) RemoteAddr() string { return t.conn.RemoteAddr().String() }
