// Package ws pushes reminder and notification events to connected users over
// WebSockets. Connections are keyed by user id; a user may hold several open
// connections (multiple tabs or devices) and each receives every push.
package ws

import (
	"encoding/json"
	"net/http"
	"sync"
	"time"

	gorillawebsocket "github.com/gorilla/websocket"
	"github.com/labstack/echo/v4"
	"github.com/rs/zerolog"

	"github.com/symptoseek/symptoseek/internal/platform/auth"
)

// Event is a push message delivered to a single user.
type Event struct {
	Kind      string          `json:"kind"` // "reminder" | "notification"
	Title     string          `json:"title"`
	Timestamp time.Time       `json:"timestamp"`
	Data      json.RawMessage `json:"data,omitempty"`
}

type client struct {
	userID string
	send   chan []byte
}

// Hub tracks connected users and fans pushed events out to their connections.
type Hub struct {
	mu      sync.RWMutex
	clients map[string]map[*client]struct{} // user id -> connections
	log     zerolog.Logger
}

// NewHub creates an empty Hub.
func NewHub(log zerolog.Logger) *Hub {
	return &Hub{
		clients: make(map[string]map[*client]struct{}),
		log:     log.With().Str("component", "ws").Logger(),
	}
}

func (h *Hub) register(c *client) {
	h.mu.Lock()
	defer h.mu.Unlock()
	if h.clients[c.userID] == nil {
		h.clients[c.userID] = make(map[*client]struct{})
	}
	h.clients[c.userID][c] = struct{}{}
}

func (h *Hub) unregister(c *client) {
	h.mu.Lock()
	defer h.mu.Unlock()
	conns, ok := h.clients[c.userID]
	if !ok {
		return
	}
	if _, ok := conns[c]; !ok {
		return
	}
	delete(conns, c)
	if len(conns) == 0 {
		delete(h.clients, c.userID)
	}
	close(c.send)
}

// Push sends an event to every open connection of the given user. Connections
// with a full buffer are skipped rather than blocked on.
func (h *Hub) Push(userID string, event Event) {
	if event.Timestamp.IsZero() {
		event.Timestamp = time.Now()
	}
	data, err := json.Marshal(event)
	if err != nil {
		h.log.Error().Err(err).Msg("failed to marshal push event")
		return
	}

	h.mu.RLock()
	defer h.mu.RUnlock()
	for c := range h.clients[userID] {
		select {
		case c.send <- data:
		default:
		}
	}
}

// UserConnections returns the number of open connections for a user.
func (h *Hub) UserConnections(userID string) int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.clients[userID])
}

// ConnectedUsers returns the number of distinct users with open connections.
func (h *Hub) ConnectedUsers() int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.clients)
}

var upgrader = gorillawebsocket.Upgrader{
	ReadBufferSize:  1024,
	WriteBufferSize: 1024,
	CheckOrigin: func(r *http.Request) bool {
		return true // Allow all origins; tighten in production.
	},
}

// Handler upgrades HTTP connections to WebSocket and binds them to the hub.
type Handler struct {
	hub    *Hub
	secret []byte
}

// NewHandler creates a Handler authenticating with the given JWT secret.
func NewHandler(hub *Hub, secret []byte) *Handler {
	return &Handler{hub: hub, secret: secret}
}

// RegisterRoutes registers the WebSocket endpoint on the provided group.
func (wh *Handler) RegisterRoutes(g *echo.Group) {
	g.GET("/ws", wh.HandleConnect)
}

// HandleConnect authenticates the token query parameter, upgrades the
// connection, and starts the read/write pumps. Browsers cannot set an
// Authorization header on a WebSocket handshake, hence the query token.
func (wh *Handler) HandleConnect(c echo.Context) error {
	token := c.QueryParam("token")
	if token == "" {
		return echo.NewHTTPError(http.StatusUnauthorized, "missing token")
	}
	claims, err := auth.ParseToken(wh.secret, token)
	if err != nil {
		return echo.NewHTTPError(http.StatusUnauthorized, "invalid token")
	}

	ws, err := upgrader.Upgrade(c.Response(), c.Request(), nil)
	if err != nil {
		return err
	}

	cl := &client{
		userID: claims.UserID,
		send:   make(chan []byte, 64),
	}
	wh.hub.register(cl)
	wh.hub.log.Info().Str("user_id", cl.userID).Msg("websocket connected")

	go wh.writePump(cl, ws)
	go wh.readPump(cl, ws)

	return nil
}

// readPump drains inbound frames until the peer disconnects. Clients do not
// send application messages; the read loop exists to detect closure.
func (wh *Handler) readPump(cl *client, ws *gorillawebsocket.Conn) {
	defer func() {
		wh.hub.unregister(cl)
		ws.Close()
	}()
	for {
		if _, _, err := ws.ReadMessage(); err != nil {
			return
		}
	}
}

func (wh *Handler) writePump(cl *client, ws *gorillawebsocket.Conn) {
	defer ws.Close()
	for message := range cl.send {
		if err := ws.WriteMessage(gorillawebsocket.TextMessage, message); err != nil {
			return
		}
	}
}
