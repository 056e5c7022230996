// Package panel mirrors the device display to browsers over a websocket and
// turns their button messages into edge interrupts.
package panel

import (
	"context"
	_ "embed"
	"encoding/json"
	"errors"
	"fmt"
	"net"
	"net/http"
	"sync"
	"time"

	"github.com/gorilla/websocket"

	"github.com/muurk/wifistat/internal/display"
	"github.com/muurk/wifistat/internal/logging"
	"go.uber.org/zap"
)

//go:embed panel.html
var panelHTML []byte

const (
	writeWait    = 10 * time.Second
	pongWait     = 60 * time.Second
	pingPeriod   = 50 * time.Second
	maxMessage   = 512
	sendBuffered = 16
)

// EdgeSink receives button level changes. *input.Controller implements it.
type EdgeSink interface {
	HandleEdge(level bool)
}

// EdgeFunc adapts a function to EdgeSink.
type EdgeFunc func(level bool)

// HandleEdge implements EdgeSink.
func (f EdgeFunc) HandleEdge(level bool) { f(level) }

// Message is what the panel sends to browsers.
type Message struct {
	Type  string        `json:"type"`
	Frame display.Frame `json:"frame"`
}

// ButtonMessage is what browsers send.
type ButtonMessage struct {
	Button string `json:"button"` // "down" or "up"
}

// Panel is a display.Display that broadcasts every flushed frame.
type Panel struct {
	sink      EdgeSink
	activeLow bool
	grid      display.Grid
	upgrader  websocket.Upgrader

	mu      sync.Mutex
	clients map[*client]struct{}
	last    []byte
	server  *http.Server
	ln      net.Listener
}

type client struct {
	conn *websocket.Conn
	send chan []byte
}

// New returns a panel forwarding button messages to sink. activeLow matches
// the button wiring so "down" arrives as a pressed level.
func New(sink EdgeSink, activeLow bool) *Panel {
	p := &Panel{
		sink:      sink,
		activeLow: activeLow,
		clients:   make(map[*client]struct{}),
		upgrader: websocket.Upgrader{
			ReadBufferSize:  1024,
			WriteBufferSize: 1024,
		},
	}
	p.grid.Clear()
	return p
}

func (p *Panel) Clear()                 { p.grid.Clear() }
func (p *Panel) SetCursor(col, row int) { p.grid.SetCursor(col, row) }
func (p *Panel) Print(text string)      { p.grid.Print(text) }

func (p *Panel) Flush() error {
	return p.broadcast(display.Frame{Lines: p.grid.Lines()})
}

func (p *Panel) PowerOff() error {
	return p.broadcast(display.Frame{Off: true})
}

func (p *Panel) broadcast(f display.Frame) error {
	data, err := json.Marshal(Message{Type: "frame", Frame: f})
	if err != nil {
		return fmt.Errorf("encode frame: %w", err)
	}

	p.mu.Lock()
	defer p.mu.Unlock()
	p.last = data
	for c := range p.clients {
		select {
		case c.send <- data:
		default:
			// Slow browser; drop it rather than stall the device.
			p.dropLocked(c)
		}
	}
	return nil
}

func (p *Panel) dropLocked(c *client) {
	if _, ok := p.clients[c]; ok {
		delete(p.clients, c)
		close(c.send)
	}
}

// Clients returns the number of connected browsers.
func (p *Panel) Clients() int {
	p.mu.Lock()
	defer p.mu.Unlock()
	return len(p.clients)
}

// Handler serves the page at / and the websocket at /ws.
func (p *Panel) Handler() http.Handler {
	mux := http.NewServeMux()
	mux.HandleFunc("GET /{$}", func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "text/html; charset=utf-8")
		_, _ = w.Write(panelHTML)
	})
	mux.HandleFunc("GET /ws", p.serveWS)
	return mux
}

func (p *Panel) serveWS(w http.ResponseWriter, r *http.Request) {
	conn, err := p.upgrader.Upgrade(w, r, nil)
	if err != nil {
		logging.Warn("Panel websocket upgrade failed", zap.Error(err))
		return
	}
	c := &client{conn: conn, send: make(chan []byte, sendBuffered)}

	p.mu.Lock()
	p.clients[c] = struct{}{}
	if p.last != nil {
		c.send <- p.last
	}
	p.mu.Unlock()
	logging.Info("Panel client connected", zap.String("remote_addr", r.RemoteAddr))

	go p.writePump(c)
	p.readPump(c)
}

func (p *Panel) readPump(c *client) {
	defer func() {
		p.mu.Lock()
		p.dropLocked(c)
		p.mu.Unlock()
		_ = c.conn.Close()
	}()

	c.conn.SetReadLimit(maxMessage)
	_ = c.conn.SetReadDeadline(time.Now().Add(pongWait))
	c.conn.SetPongHandler(func(string) error {
		return c.conn.SetReadDeadline(time.Now().Add(pongWait))
	})

	for {
		var msg ButtonMessage
		if err := c.conn.ReadJSON(&msg); err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseNormalClosure) {
				logging.Debug("Panel read error", zap.Error(err))
			}
			return
		}
		switch msg.Button {
		case "down":
			p.sink.HandleEdge(!p.activeLow)
		case "up":
			p.sink.HandleEdge(p.activeLow)
		default:
			logging.Debug("Panel ignored message", zap.String("button", msg.Button))
		}
	}
}

func (p *Panel) writePump(c *client) {
	ticker := time.NewTicker(pingPeriod)
	defer func() {
		ticker.Stop()
		_ = c.conn.Close()
	}()

	for {
		select {
		case data, ok := <-c.send:
			_ = c.conn.SetWriteDeadline(time.Now().Add(writeWait))
			if !ok {
				_ = c.conn.WriteMessage(websocket.CloseMessage, []byte{})
				return
			}
			if err := c.conn.WriteMessage(websocket.TextMessage, data); err != nil {
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

// Start serves the panel on addr in the background.
func (p *Panel) Start(addr string) error {
	ln, err := net.Listen("tcp", addr)
	if err != nil {
		return fmt.Errorf("panel listen on %s: %w", addr, err)
	}
	srv := &http.Server{Handler: p.Handler(), ReadHeaderTimeout: 5 * time.Second}

	p.mu.Lock()
	p.server, p.ln = srv, ln
	p.mu.Unlock()

	logging.Info("Panel listening", zap.String("addr", ln.Addr().String()))
	go func() {
		if err := srv.Serve(ln); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logging.Error("Panel server stopped", zap.Error(err))
		}
	}()
	return nil
}

// Addr returns the listening address, or "" before Start.
func (p *Panel) Addr() string {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.ln == nil {
		return ""
	}
	return p.ln.Addr().String()
}

// Stop closes the listener and every browser connection.
func (p *Panel) Stop(ctx context.Context) error {
	p.mu.Lock()
	srv := p.server
	p.server = nil
	for c := range p.clients {
		p.dropLocked(c)
	}
	p.mu.Unlock()

	if srv == nil {
		return nil
	}
	return srv.Shutdown(ctx)
}
