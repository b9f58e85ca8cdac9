package api

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"strings"
	"sync"
	"time"

	"PlumbWatch/internal/domain/models"
	domrepo "PlumbWatch/internal/domain/repository"
	applogger "PlumbWatch/pkg/logger"

	"github.com/gorilla/websocket"
	"github.com/labstack/echo/v4"
)

const (
	writeWait      = 10 * time.Second
	pongWait       = 60 * time.Second
	pingPeriod     = (pongWait * 9) / 10
	maxMessageSize = 512
	// sendBuffer is the number of payloads queued per client before it is dropped.
	sendBuffer = 8
)

type streamClient struct {
	send chan []byte
	once sync.Once
}

func (c *streamClient) close() {
	c.once.Do(func() { close(c.send) })
}

// StreamHub pushes every refreshed payload to connected WebSocket clients.
// A client whose queue is full is disconnected.
type StreamHub struct {
	mu       sync.RWMutex
	clients  map[*streamClient]struct{}
	closed   bool
	upgrader websocket.Upgrader
	l        *applogger.Logger
}

var _ domrepo.MarketDataSink = (*StreamHub)(nil)

// NewStreamHub accepts upgrades from the given origins; "*" allows any.
// Requests without an Origin header are always accepted.
func NewStreamHub(l *applogger.Logger, origins []string) *StreamHub {
	if l == nil {
		l = applogger.Nop()
	}
	h := &StreamHub{
		clients: make(map[*streamClient]struct{}),
		l:       l,
	}
	h.upgrader = websocket.Upgrader{
		ReadBufferSize:  1024,
		WriteBufferSize: 4096,
		CheckOrigin: func(r *http.Request) bool {
			origin := r.Header.Get("Origin")
			if origin == "" {
				return true
			}
			for _, o := range origins {
				if o == "*" || strings.EqualFold(o, origin) {
					return true
				}
			}
			return false
		},
	}
	return h
}

func (h *StreamHub) Name() string { return "stream" }

// Consume broadcasts data as one JSON text frame.
func (h *StreamHub) Consume(_ context.Context, data *models.MarketData) error {
	b, err := json.Marshal(data)
	if err != nil {
		return fmt.Errorf("encode payload: %w", err)
	}

	h.mu.Lock()
	defer h.mu.Unlock()
	for c := range h.clients {
		select {
		case c.send <- b:
		default:
			delete(h.clients, c)
			c.close()
			h.l.Warn("stream client dropped", applogger.String("reason", "slow consumer"))
		}
	}
	return nil
}

// Clients returns the number of connected clients.
func (h *StreamHub) Clients() int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.clients)
}

// Close disconnects every client and refuses new ones.
func (h *StreamHub) Close() error {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.closed = true
	for c := range h.clients {
		delete(h.clients, c)
		c.close()
	}
	return nil
}

// Handle upgrades the request and serves the client until it disconnects.
// The latest payload, when present, is sent first.
func (h *StreamHub) Handle(last func() *models.MarketData) echo.HandlerFunc {
	return func(c echo.Context) error {
		conn, err := h.upgrader.Upgrade(c.Response(), c.Request(), nil)
		if err != nil {
			// the upgrader has already written the error response
			h.l.Warn("stream upgrade failed", applogger.Error(err))
			return nil
		}

		client := &streamClient{send: make(chan []byte, sendBuffer)}
		if last != nil {
			if data := last(); data != nil {
				if b, err := json.Marshal(data); err == nil {
					client.send <- b
				}
			}
		}
		if !h.register(client) {
			_ = conn.WriteControl(websocket.CloseMessage,
				websocket.FormatCloseMessage(websocket.CloseGoingAway, "shutting down"),
				time.Now().Add(writeWait))
			return conn.Close()
		}

		h.l.Debug("stream client connected",
			applogger.String("remote_ip", c.RealIP()),
			applogger.Int("clients", h.Clients()),
		)

		go h.writePump(conn, client)
		h.readPump(conn, client)
		return nil
	}
}

func (h *StreamHub) register(c *streamClient) bool {
	h.mu.Lock()
	defer h.mu.Unlock()
	if h.closed {
		return false
	}
	h.clients[c] = struct{}{}
	return true
}

func (h *StreamHub) unregister(c *streamClient) {
	h.mu.Lock()
	defer h.mu.Unlock()
	if _, ok := h.clients[c]; ok {
		delete(h.clients, c)
		c.close()
	}
}

// readPump discards client frames and keeps the read deadline alive via pongs.
func (h *StreamHub) readPump(conn *websocket.Conn, c *streamClient) {
	defer func() {
		h.unregister(c)
		_ = conn.Close()
	}()

	conn.SetReadLimit(maxMessageSize)
	_ = conn.SetReadDeadline(time.Now().Add(pongWait))
	conn.SetPongHandler(func(string) error {
		return conn.SetReadDeadline(time.Now().Add(pongWait))
	})

	for {
		if _, _, err := conn.ReadMessage(); err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseNormalClosure) {
				h.l.Debug("stream read error", applogger.Error(err))
			}
			return
		}
	}
}

func (h *StreamHub) writePump(conn *websocket.Conn, c *streamClient) {
	ticker := time.NewTicker(pingPeriod)
	defer func() {
		ticker.Stop()
		_ = conn.Close()
	}()

	for {
		select {
		case msg, ok := <-c.send:
			_ = conn.SetWriteDeadline(time.Now().Add(writeWait))
			if !ok {
				_ = conn.WriteMessage(websocket.CloseMessage, []byte{})
				return
			}
			if err := conn.WriteMessage(websocket.TextMessage, msg); err != nil {
				return
			}
		case <-ticker.C:
			_ = conn.SetWriteDeadline(time.Now().Add(writeWait))
			if err := conn.WriteMessage(websocket.PingMessage, nil); err != nil {
				return
			}
		}
	}
}
