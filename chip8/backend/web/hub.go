package web

import (
	"context"
	"log/slog"
)

// outgoing is a websocket message for every client.
type outgoing struct {
	kind int
	data []byte
}

// hub tracks connected clients and fans out messages. A client that can't keep
// up is disconnected. Clients joining get the latest frame right away.
type hub struct {
	clients    map[*client]bool
	broadcast  chan outgoing
	register   chan *client
	unregister chan *client
	count      chan int
	done       chan struct{}

	lastFrame *outgoing
}

func newHub() *hub {
	return &hub{
		clients:    make(map[*client]bool),
		broadcast:  make(chan outgoing, 16),
		register:   make(chan *client),
		unregister: make(chan *client),
		count:      make(chan int),
		done:       make(chan struct{}),
	}
}

func (h *hub) run(ctx context.Context) {
	defer func() {
		for c := range h.clients {
			h.drop(c)
		}
		close(h.done)
	}()

	for {
		select {
		case <-ctx.Done():
			return
		case c := <-h.register:
			h.clients[c] = true
			if h.lastFrame != nil {
				c.send <- *h.lastFrame
			}
			slog.Info("Web client connected", "remote", c.remoteAddr, "clients", len(h.clients))
		case c := <-h.unregister:
			if h.clients[c] {
				h.drop(c)
				slog.Info("Web client disconnected", "remote", c.remoteAddr, "clients", len(h.clients))
			}
		case msg := <-h.broadcast:
			if len(msg.data) > 0 && msg.data[0] == FrameMessage {
				h.lastFrame = &msg
			}
			for c := range h.clients {
				select {
				case c.send <- msg:
				default:
					slog.Warn("Web client too slow, disconnecting", "remote", c.remoteAddr)
					h.drop(c)
				}
			}
		case h.count <- len(h.clients):
		}
	}
}

func (h *hub) drop(c *client) {
	close(c.send)
	delete(h.clients, c)
}

// join registers c, false when the hub is stopped.
func (h *hub) join(c *client) bool {
	select {
	case h.register <- c:
		return true
	case <-h.done:
		return false
	}
}

func (h *hub) leave(c *client) {
	select {
	case h.unregister <- c:
	case <-h.done:
	}
}

// clientCount returns the amount of connected clients, 0 when stopped.
func (h *hub) clientCount() int {
	select {
	case n := <-h.count:
		return n
	case <-h.done:
		return 0
	}
}

// publish queues msg for all clients, false when the queue is full.
func (h *hub) publish(msg outgoing) bool {
	select {
	case h.broadcast <- msg:
		return true
	default:
		return false
	}
}
