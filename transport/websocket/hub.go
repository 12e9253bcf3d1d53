package websocket

import (
	"context"
	"encoding/json"
	"log/slog"
	"math"
	"net/http"
	"slices"
	"time"

	"github.com/gorilla/websocket"
	"github.com/wricardo/mcp-training/arcade/game/service"
)

const (
	// Time allowed to write a message to the peer.
	writeWait = 10 * time.Second

	// Time allowed to read the next pong message from the peer.
	pongWait = 60 * time.Second

	// Send pings to peer with this period. Must be less than pongWait.
	pingPeriod = (pongWait * 9) / 10

	// Maximum message size allowed from peer.
	maxMessageSize = 512

	// Pending broadcasts before new ones are dropped.
	broadcastBuffer = 256
)

// Event names sent to clients
const (
	EventStateUpdate = "state_update"
	EventGameEnded   = "game_ended"
)

// Message represents a WebSocket message
type Message struct {
	GameID int64                `json:"gameId"`
	State  *service.SessionView `json:"state,omitempty"`
	Event  string               `json:"event,omitempty"`
	Data   interface{}          `json:"data,omitempty"`
}

// Client represents a WebSocket client
type Client struct {
	hub    *Hub
	conn   *websocket.Conn
	send   chan []byte
	gameID int64
}

// countRequest asks the event loop how many clients watch a game
type countRequest struct {
	gameID int64
	reply  chan int
}

// Hub maintains the set of active clients and broadcasts messages
type Hub struct {
	// Registered clients by game ID
	games map[int64]map[*Client]bool

	// Highest state version sent per watched game
	versions map[int64]int64

	// Outbound messages for a game's clients
	broadcast chan *Message

	// Register requests from clients
	register chan *Client

	// Unregister requests from clients
	unregister chan *Client

	counts   chan countRequest
	upgrader websocket.Upgrader
}

// NewHub creates a new WebSocket hub. allowedOrigins restricts the Origin
// header of upgrade requests; an empty list or "*" allows any origin.
func NewHub(allowedOrigins ...string) *Hub {
	h := &Hub{
		games:      make(map[int64]map[*Client]bool),
		versions:   make(map[int64]int64),
		broadcast:  make(chan *Message, broadcastBuffer),
		register:   make(chan *Client),
		unregister: make(chan *Client),
		counts:     make(chan countRequest),
	}
	h.upgrader = websocket.Upgrader{
		ReadBufferSize:  1024,
		WriteBufferSize: 1024,
		CheckOrigin: func(r *http.Request) bool {
			return originAllowed(allowedOrigins, r.Header.Get("Origin"))
		},
	}
	return h
}

func originAllowed(allowed []string, origin string) bool {
	if len(allowed) == 0 || origin == "" {
		return true
	}
	return slices.Contains(allowed, "*") || slices.Contains(allowed, origin)
}

// Run starts the hub's event loop and blocks until ctx is done
func (h *Hub) Run(ctx context.Context) {
	for {
		select {
		case <-ctx.Done():
			h.closeAll()
			return

		case client := <-h.register:
			h.registerClient(client)

		case client := <-h.unregister:
			h.unregisterClient(client)

		case message := <-h.broadcast:
			h.broadcastMessage(message)

		case req := <-h.counts:
			req.reply <- len(h.games[req.gameID])
		}
	}
}

// ServeWS handles WebSocket requests from clients watching gameID
func (h *Hub) ServeWS(w http.ResponseWriter, r *http.Request, gameID int64) {
	conn, err := h.upgrader.Upgrade(w, r, nil)
	if err != nil {
		slog.Warn("websocket upgrade failed", "game_id", gameID, "error", err)
		return
	}

	client := &Client{
		hub:    h,
		conn:   conn,
		send:   make(chan []byte, 256),
		gameID: gameID,
	}

	client.hub.register <- client

	// Start client goroutines
	go client.writePump()
	go client.readPump()
}

// BroadcastState sends a state update to all clients watching a game
func (h *Hub) BroadcastState(view *service.SessionView) {
	if view == nil {
		return
	}
	h.enqueue(&Message{
		GameID: view.GameID,
		State:  view,
		Event:  EventStateUpdate,
	})
}

// BroadcastEnded tells clients watching a game that it no longer exists
func (h *Hub) BroadcastEnded(gameID int64) {
	h.enqueue(&Message{
		GameID: gameID,
		Event:  EventGameEnded,
	})
}

// BroadcastEvent sends a custom event to all clients watching a game
func (h *Hub) BroadcastEvent(gameID int64, event string, data interface{}) {
	h.enqueue(&Message{
		GameID: gameID,
		Event:  event,
		Data:   data,
	})
}

// ClientCount returns the number of clients watching a game. It must only
// be called while Run is active.
func (h *Hub) ClientCount(gameID int64) int {
	reply := make(chan int, 1)
	h.counts <- countRequest{gameID: gameID, reply: reply}
	return <-reply
}

// enqueue hands a message to the event loop without blocking the caller
func (h *Hub) enqueue(message *Message) {
	select {
	case h.broadcast <- message:
	default:
		slog.Warn("websocket broadcast queue full, dropping message",
			"game_id", message.GameID, "event", message.Event)
	}
}

// registerClient adds a client to a game
func (h *Hub) registerClient(client *Client) {
	if h.games[client.gameID] == nil {
		h.games[client.gameID] = make(map[*Client]bool)
	}
	h.games[client.gameID][client] = true

	slog.Debug("websocket client registered",
		"game_id", client.gameID, "clients", len(h.games[client.gameID]))
}

// unregisterClient removes a client from a game
func (h *Hub) unregisterClient(client *Client) {
	if clients, ok := h.games[client.gameID]; ok {
		if _, ok := clients[client]; ok {
			delete(clients, client)
			close(client.send)

			// Clean up empty games
			if len(clients) == 0 {
				delete(h.games, client.gameID)
				delete(h.versions, client.gameID)
			}

			slog.Debug("websocket client unregistered",
				"game_id", client.gameID, "clients", len(clients))
		}
	}
}

// broadcastMessage sends a message to all clients watching a game. State
// updates that are not newer than the last one sent are dropped, as is
// anything but a game_ended once the game has ended.
func (h *Hub) broadcastMessage(message *Message) {
	if len(h.games[message.GameID]) == 0 {
		return
	}
	if !h.advance(message) {
		slog.Debug("dropping stale websocket update", "game_id", message.GameID, "event", message.Event)
		return
	}

	data, err := json.Marshal(message)
	if err != nil {
		slog.Error("failed to marshal websocket message", "game_id", message.GameID, "error", err)
		return
	}

	for client := range h.games[message.GameID] {
		select {
		case client.send <- data:
		default:
			// Client's send channel is full, drop it
			h.unregisterClient(client)
		}
	}
}

// advance records the version a message carries and reports whether it may be sent
func (h *Hub) advance(message *Message) bool {
	last := h.versions[message.GameID]
	switch {
	case message.Event == EventGameEnded:
		h.versions[message.GameID] = math.MaxInt64
		return true
	case last == math.MaxInt64:
		return false
	case message.State == nil || message.State.Version == 0:
		return true
	case message.State.Version <= last:
		return false
	}
	h.versions[message.GameID] = message.State.Version
	return true
}

// closeAll drops every client when the hub stops
func (h *Hub) closeAll() {
	for _, clients := range h.games {
		for client := range clients {
			h.unregisterClient(client)
		}
	}
}

// readPump pumps messages from the WebSocket connection to the hub
func (c *Client) readPump() {
	defer func() {
		select {
		case c.hub.unregister <- c:
		case <-time.After(writeWait):
		}
		c.conn.Close()
	}()

	c.conn.SetReadLimit(maxMessageSize)
	c.conn.SetReadDeadline(time.Now().Add(pongWait))
	c.conn.SetPongHandler(func(string) error {
		c.conn.SetReadDeadline(time.Now().Add(pongWait))
		return nil
	})

	for {
		// Incoming messages are ignored; reading keeps pongs flowing
		_, _, err := c.conn.ReadMessage()
		if err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseAbnormalClosure) {
				slog.Debug("websocket read error", "game_id", c.gameID, "error", err)
			}
			break
		}
	}
}

// writePump pumps messages from the hub to the WebSocket connection
func (c *Client) writePump() {
	ticker := time.NewTicker(pingPeriod)
	defer func() {
		ticker.Stop()
		c.conn.Close()
	}()

	for {
		select {
		case message, ok := <-c.send:
			c.conn.SetWriteDeadline(time.Now().Add(writeWait))
			if !ok {
				// The hub closed the channel
				c.conn.WriteMessage(websocket.CloseMessage, []byte{})
				return
			}

			// One message per frame
			if err := c.conn.WriteMessage(websocket.TextMessage, message); err != nil {
				return
			}

		case <-ticker.C:
			c.conn.SetWriteDeadline(time.Now().Add(writeWait))
			if err := c.conn.WriteMessage(websocket.PingMessage, nil); err != nil {
				return
			}
		}
	}
}
