package web

import (
	"context"
	"embed"
	"errors"
	"fmt"
	"io/fs"
	"log/slog"
	"net"
	"net/http"
	"time"

	"github.com/gorilla/websocket"
	"github.com/valerio/go-chip8/chip8/backend"
	"github.com/valerio/go-chip8/chip8/input/action"
	"github.com/valerio/go-chip8/chip8/video"
)

const (
	// DefaultAddress is where the page and websocket are served.
	DefaultAddress = "localhost:8090"

	// statusInterval is how many frames pass between register dumps.
	statusInterval = 6
	eventBuffer    = 256
	shutdownWait   = 2 * time.Second
)

//go:embed static
var static embed.FS

var upgrader = websocket.Upgrader{
	ReadBufferSize:  1024,
	WriteBufferSize: 1024,
	CheckOrigin: func(r *http.Request) bool {
		return true
	},
}

// Backend serves the screen to browsers over a websocket and receives their
// keypad and control input.
type Backend struct {
	address  string
	config   backend.BackendConfig
	listener net.Listener
	server   *http.Server
	hub      *hub
	cancel   context.CancelFunc
	events   chan backend.InputEvent

	lastDigest uint64
	sentFrame  bool
	frameCount int
}

// New creates a web backend listening on address, DefaultAddress when empty.
func New(address string) *Backend {
	if address == "" {
		address = DefaultAddress
	}
	return &Backend{
		address: address,
		hub:     newHub(),
		events:  make(chan backend.InputEvent, eventBuffer),
	}
}

// Init starts the hub and the HTTP server.
func (w *Backend) Init(config backend.BackendConfig) error {
	w.config = config

	listener, err := net.Listen("tcp", w.address)
	if err != nil {
		return fmt.Errorf("failed to listen on %s: %w", w.address, err)
	}
	w.listener = listener

	ctx, cancel := context.WithCancel(context.Background())
	w.cancel = cancel
	go w.hub.run(ctx)

	w.server = &http.Server{
		Handler:           w.Handler(),
		ReadHeaderTimeout: 10 * time.Second,
	}
	go func() {
		if err := w.server.Serve(listener); err != nil && !errors.Is(err, http.ErrServerClosed) {
			slog.Error("Web server failed", "error", err)
		}
	}()

	slog.Info("Web backend initialized", "url", "http://"+listener.Addr().String())
	return nil
}

// Addr returns the address the server listens on, useful with port 0.
func (w *Backend) Addr() string {
	if w.listener == nil {
		return w.address
	}
	return w.listener.Addr().String()
}

// Handler serves the page at / and the websocket at /ws.
func (w *Backend) Handler() http.Handler {
	mux := http.NewServeMux()

	page, err := fs.Sub(static, "static")
	if err != nil {
		panic(err)
	}
	mux.Handle("/", http.FileServer(http.FS(page)))
	mux.HandleFunc("/ws", w.serveWebsocket)

	return mux
}

func (w *Backend) serveWebsocket(rw http.ResponseWriter, r *http.Request) {
	conn, err := upgrader.Upgrade(rw, r, nil)
	if err != nil {
		slog.Debug("Websocket upgrade failed", "error", err)
		return
	}

	c := &client{
		hub:        w.hub,
		conn:       conn,
		send:       make(chan outgoing, sendBuffer),
		remoteAddr: r.RemoteAddr,
		events:     w.events,
	}
	if !w.hub.join(c) {
		conn.Close()
		return
	}

	go c.writePump()
	go c.readPump()
}

// Update sends the frame to browsers when it changed and returns their input.
func (w *Backend) Update(frame *video.Frame) ([]backend.InputEvent, error) {
	w.frameCount++

	if digest := frame.Digest(); !w.sentFrame || digest != w.lastDigest {
		if w.hub.publish(outgoing{kind: websocket.BinaryMessage, data: encodeFrame(frame.Packed())}) {
			w.lastDigest = digest
			w.sentFrame = true
		}
	}

	if w.config.ShowDebug && w.config.DebugProvider != nil && w.frameCount%statusInterval == 0 {
		w.publishStatus()
	}

	var events []backend.InputEvent
	for {
		select {
		case evt := <-w.events:
			events = append(events, evt)
		default:
			return events, nil
		}
	}
}

func (w *Backend) publishStatus() {
	data := w.config.DebugProvider.ExtractDebugData()
	if data == nil || data.Registers == nil {
		return
	}
	msg, err := encodeStatus(data)
	if err != nil {
		slog.Error("Failed to encode status", "error", err)
		return
	}
	w.hub.publish(outgoing{kind: websocket.TextMessage, data: msg})
}

// Cleanup stops the server and disconnects all clients.
func (w *Backend) Cleanup() error {
	if w.server == nil {
		return nil
	}

	ctx, cancel := context.WithTimeout(context.Background(), shutdownWait)
	defer cancel()
	err := w.server.Shutdown(ctx)
	w.server = nil

	w.cancel()
	<-w.hub.done

	if err != nil {
		return fmt.Errorf("failed to stop web server: %w", err)
	}
	return nil
}

// HandleAction processes backend-specific actions
func (w *Backend) HandleAction(act action.Action) {
	if act == action.EmulatorDebugToggle {
		w.config.ShowDebug = !w.config.ShowDebug
		slog.Info("Web status updates", "enabled", w.config.ShowDebug)
	}
}

// Clients returns the amount of connected browsers.
func (w *Backend) Clients() int {
	return w.hub.clientCount()
}
