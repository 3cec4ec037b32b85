package stream

import (
	"bytes"
	"io"
	"sync"

	"github.com/gorilla/websocket"
)

// wsConn adapts a websocket connection to the byte stream the STOMP client expects.
//
// Every STOMP frame travels as one text message. Writes are buffered until the frame's NUL
// terminator; a write holding only end-of-line bytes is a heart-beat and goes out as is.
type wsConn struct {
	ws *websocket.Conn

	wmu sync.Mutex
	buf []byte

	r io.Reader // current inbound message, read by a single goroutine

	closeOnce sync.Once
	closeErr  error
}

func newWSConn(ws *websocket.Conn) *wsConn {
	return &wsConn{ws: ws}
}

func (c *wsConn) Read(p []byte) (int, error) {
	for {
		if c.r == nil {
			_, r, err := c.ws.NextReader()
			if err != nil {
				return 0, err
			}
			c.r = r
		}

		n, err := c.r.Read(p)
		if err == io.EOF {
			c.r = nil
			if n > 0 {
				return n, nil
			}
			continue
		}
		return n, err
	}
}

func (c *wsConn) Write(p []byte) (int, error) {
	c.wmu.Lock()
	defer c.wmu.Unlock()

	c.buf = append(c.buf, p...)
	for {
		i := bytes.IndexByte(c.buf, 0)
		if i < 0 {
			break
		}
		if err := c.ws.WriteMessage(websocket.TextMessage, c.buf[:i+1]); err != nil {
			return 0, err
		}
		c.buf = c.buf[i+1:]
	}

	if len(c.buf) > 0 && len(bytes.Trim(c.buf, "\r\n")) == 0 {
		if err := c.ws.WriteMessage(websocket.TextMessage, c.buf); err != nil {
			return 0, err
		}
		c.buf = c.buf[:0]
	}
	return len(p), nil
}

// Close closes the websocket once. Later calls return the first result.
func (c *wsConn) Close() error {
	c.closeOnce.Do(func() { c.closeErr = c.ws.Close() })
	return c.closeErr
}
