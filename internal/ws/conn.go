package ws

import (
	"sync"
	"time"

	"github.com/gorilla/websocket"
)

// connection wraps one socket. Writes are serialized; the close fields are
// guarded by the owning Client's mutex.
type connection struct {
	ws      *websocket.Conn
	writeMu sync.Mutex
	done    chan struct{}

	closed      bool
	closeCode   int
	closeReason string
}

func newConnection(ws *websocket.Conn) *connection {
	return &connection{ws: ws, done: make(chan struct{})}
}

func (c *connection) write(payload []byte) error {
	c.writeMu.Lock()
	defer c.writeMu.Unlock()
	if err := c.ws.SetWriteDeadline(time.Now().Add(writeWait)); err != nil {
		return err
	}
	return c.ws.WriteMessage(websocket.TextMessage, payload)
}

func (c *connection) writeControl(messageType int, data []byte) error {
	c.writeMu.Lock()
	defer c.writeMu.Unlock()
	return c.ws.WriteControl(messageType, data, time.Now().Add(writeWait))
}

func (c *connection) markClosed(code int, reason string) {
	c.closed = true
	c.closeCode = code
	c.closeReason = reason
}

func (c *connection) closedWith() (bool, int, string) {
	return c.closed, c.closeCode, c.closeReason
}

// close sends a close frame and releases the socket. The reader goroutine
// observes the closed socket and exits.
func (c *connection) close(code int, reason string) {
	_ = c.writeControl(websocket.CloseMessage, websocket.FormatCloseMessage(code, reason))
	_ = c.ws.Close()
}
