package web

import (
	"log/slog"
	"time"

	"github.com/gorilla/websocket"
	"github.com/valerio/go-chip8/chip8/backend"
)

const (
	writeWait      = 5 * time.Second
	pongWait       = 30 * time.Second
	pingPeriod     = pongWait * 9 / 10
	maxMessageSize = 512
	sendBuffer     = 64
)

type client struct {
	hub        *hub
	conn       *websocket.Conn
	send       chan outgoing
	remoteAddr string
	events     chan<- backend.InputEvent
}

// readPump turns browser messages into input events until the connection closes.
func (c *client) readPump() {
	defer func() {
		c.hub.leave(c)
		c.conn.Close()
	}()

	c.conn.SetReadLimit(maxMessageSize)
	_ = c.conn.SetReadDeadline(time.Now().Add(pongWait))
	c.conn.SetPongHandler(func(string) error {
		return c.conn.SetReadDeadline(time.Now().Add(pongWait))
	})

	for {
		_, data, err := c.conn.ReadMessage()
		if err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseNormalClosure) {
				slog.Debug("Web client read failed", "remote", c.remoteAddr, "error", err)
			}
			return
		}

		evt, err := decodeMessage(data)
		if err != nil {
			slog.Debug("Ignoring web message", "remote", c.remoteAddr, "error", err)
			continue
		}
		select {
		case c.events <- evt:
		default:
			slog.Warn("Web input queue full, dropping event", "remote", c.remoteAddr)
		}
	}
}

// writePump sends hub messages and keepalive pings. It owns all writes to conn.
func (c *client) writePump() {
	ticker := time.NewTicker(pingPeriod)
	defer func() {
		ticker.Stop()
		c.conn.Close()
	}()

	for {
		select {
		case msg, ok := <-c.send:
			_ = c.conn.SetWriteDeadline(time.Now().Add(writeWait))
			if !ok {
				// hub closed the channel
				_ = c.conn.WriteMessage(websocket.CloseMessage, []byte{})
				return
			}
			if err := c.conn.WriteMessage(msg.kind, msg.data); err != nil {
				return
			}
		case <-ticker.C:
			_ = c.conn.SetWriteDeadline(time.Now().Add(writeWait))
			if err := c.conn.WriteMessage(websocket.PingMessage, nil); err != nil {
				return
			}
		}
	}
}
