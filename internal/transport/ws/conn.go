package ws

import (
	"sync"
	"time"

	"github.com/cwrk-planet/signaling-relay/internal/domain"
	"github.com/cwrk-planet/signaling-relay/internal/registry"

	"github.com/google/uuid"
	"github.com/gorilla/websocket"
)

// wsConn is one participant. Reads happen on the handler goroutine, writes on
// writeLoop; send is buffered and never closed.
type wsConn struct {
	id     string
	roomID string
	userID string

	conn *websocket.Conn
	send chan []byte

	closeOnce sync.Once
	closed    chan struct{}
}

var _ registry.Conn = (*wsConn)(nil)

func newWsConn(c *websocket.Conn, roomID, userID string, buffer int) *wsConn {
	return &wsConn{
		id:     uuid.NewString(),
		roomID: roomID,
		userID: userID,
		conn:   c,
		send:   make(chan []byte, buffer),
		closed: make(chan struct{}),
	}
}

func (c *wsConn) ID() string     { return c.id }
func (c *wsConn) UserID() string { return c.userID }
func (c *wsConn) RoomID() string { return c.roomID }

func (c *wsConn) IsOpen() bool {
	select {
	case <-c.closed:
		return false
	default:
		return true
	}
}

// SendRaw queues one text frame without blocking.
func (c *wsConn) SendRaw(data []byte) error {
	if !c.IsOpen() {
		return domain.ErrConnClosed
	}
	select {
	case c.send <- data:
		return nil
	case <-c.closed:
		return domain.ErrConnClosed
	default:
		return domain.ErrSendQueueFull
	}
}

func (c *wsConn) Close() error {
	c.closeOnce.Do(func() { close(c.closed) })
	return c.conn.Close()
}

func (c *wsConn) writeLoop(pingPeriod, writeWait time.Duration) {
	ticker := time.NewTicker(pingPeriod)
	defer func() {
		ticker.Stop()
		_ = c.Close()
	}()

	for {
		select {
		case data := <-c.send:
			_ = c.conn.SetWriteDeadline(time.Now().Add(writeWait))
			if err := c.conn.WriteMessage(websocket.TextMessage, data); err != nil {
				return
			}
		case <-ticker.C:
			if err := c.conn.WriteControl(websocket.PingMessage, nil, time.Now().Add(writeWait)); err != nil {
				return
			}
		case <-c.closed:
			return
		}
	}
}
