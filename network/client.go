package network

import (
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/gorilla/websocket"

	"github.com/lixenwraith/vi-cloth/parameter"
)

// client is one websocket connection with its own bounded send queue
type client struct {
	id   uuid.UUID
	conn *websocket.Conn

	sendCh chan *websocket.PreparedMessage

	closeCh   chan struct{}
	closeOnce sync.Once
}

func newClient(id uuid.UUID, conn *websocket.Conn, queueSize int) *client {
	return &client{
		id:      id,
		conn:    conn,
		sendCh:  make(chan *websocket.PreparedMessage, queueSize),
		closeCh: make(chan struct{}),
	}
}

// send queues a message; returns false when the client is closed or its queue is full
func (c *client) send(msg *websocket.PreparedMessage) bool {
	select {
	case <-c.closeCh:
		return false
	default:
	}

	select {
	case c.sendCh <- msg:
		return true
	default:
		return false
	}
}

func (c *client) close() {
	c.closeOnce.Do(func() {
		close(c.closeCh)
		if c.conn != nil {
			c.conn.Close()
		}
	})
}

// readLoop drains inbound traffic so control frames are processed; clients send nothing else
func (c *client) readLoop() {
	defer c.close()

	c.conn.SetReadLimit(512)
	_ = c.conn.SetReadDeadline(time.Now().Add(parameter.StreamPongWait))
	c.conn.SetPongHandler(func(string) error {
		return c.conn.SetReadDeadline(time.Now().Add(parameter.StreamPongWait))
	})

	for {
		if _, _, err := c.conn.ReadMessage(); err != nil {
			return
		}
	}
}

// writeLoop sends queued frames and keeps the connection alive with pings
func (c *client) writeLoop() {
	ticker := time.NewTicker(parameter.StreamPingEvery)
	defer func() {
		ticker.Stop()
		c.close()
	}()

	for {
		select {
		case <-c.closeCh:
			_ = c.conn.WriteControl(websocket.CloseMessage,
				websocket.FormatCloseMessage(websocket.CloseNormalClosure, ""),
				time.Now().Add(parameter.StreamWriteWait))
			return
		case msg := <-c.sendCh:
			_ = c.conn.SetWriteDeadline(time.Now().Add(parameter.StreamWriteWait))
			if err := c.conn.WritePreparedMessage(msg); err != nil {
				return
			}
		case <-ticker.C:
			_ = c.conn.SetWriteDeadline(time.Now().Add(parameter.StreamWriteWait))
			if err := c.conn.WriteMessage(websocket.PingMessage, nil); err != nil {
				return
			}
		}
	}
}
