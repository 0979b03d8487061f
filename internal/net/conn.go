package net

import (
	"fmt"
	"net"
	"time"

	"github.com/gorilla/websocket"
)

// Conn is a framed, message-oriented connection to a host.
type Conn interface {
	ReadFrame() ([]byte, error)
	WriteFrame(data []byte) error
	RemoteAddr() string
	Close() error
}

// Timeouts bounds blocking I/O on a Conn. Zero disables a deadline.
type Timeouts struct {
	Read  time.Duration
	Write time.Duration
}

func deadline(d time.Duration) time.Time {
	if d <= 0 {
		return time.Time{}
	}
	return time.Now().Add(d)
}

// streamConn frames payloads over a TCP or unix socket with the length codec.
type streamConn struct {
	c        net.Conn
	maxFrame int
	timeouts Timeouts
}

// NewStreamConn wraps a byte-stream connection.
func NewStreamConn(c net.Conn, maxFrame int, t Timeouts) Conn {
	if maxFrame <= 0 {
		maxFrame = DefaultMaxFrameSize
	}
	return &streamConn{c: c, maxFrame: maxFrame, timeouts: t}
}

func (s *streamConn) ReadFrame() ([]byte, error) {
	_ = s.c.SetReadDeadline(deadline(s.timeouts.Read))
	return ReadFrame(s.c, s.maxFrame)
}

func (s *streamConn) WriteFrame(data []byte) error {
	_ = s.c.SetWriteDeadline(deadline(s.timeouts.Write))
	return WriteFrame(s.c, data)
}

func (s *streamConn) RemoteAddr() string {
	if a := s.c.RemoteAddr(); a != nil {
		return a.String()
	}
	return "local"
}

func (s *streamConn) Close() error { return s.c.Close() }

// wsConn carries one payload per binary websocket message.
type wsConn struct {
	c        *websocket.Conn
	timeouts Timeouts
}

// NewWSConn wraps an upgraded websocket connection.
func NewWSConn(c *websocket.Conn, maxFrame int, t Timeouts) Conn {
	if maxFrame <= 0 {
		maxFrame = DefaultMaxFrameSize
	}
	c.SetReadLimit(int64(maxFrame))
	return &wsConn{c: c, timeouts: t}
}

func (w *wsConn) ReadFrame() ([]byte, error) {
	for {
		_ = w.c.SetReadDeadline(deadline(w.timeouts.Read))
		mt, msg, err := w.c.ReadMessage()
		if err != nil {
			return nil, fmt.Errorf("read ws message: %w", err)
		}
		if mt != websocket.BinaryMessage {
			continue
		}
		if len(msg) == 0 {
			return nil, fmt.Errorf("invalid frame length: 0")
		}
		return msg, nil
	}
}

func (w *wsConn) WriteFrame(data []byte) error {
	_ = w.c.SetWriteDeadline(deadline(w.timeouts.Write))
	if err := w.c.WriteMessage(websocket.BinaryMessage, data); err != nil {
		return fmt.Errorf("write ws message: %w", err)
	}
	return nil
}

func (w *wsConn) RemoteAddr() string { return w.c.RemoteAddr().String() }

func (w *wsConn) Close() error {
	_ = w.c.WriteControl(websocket.CloseMessage,
		websocket.FormatCloseMessage(websocket.CloseNormalClosure, "bye"),
		time.Now().Add(time.Second))
	return w.c.Close()
}
