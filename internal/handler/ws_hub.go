package handler

import (
	"encoding/json"
	"sync"

	"github.com/gorilla/websocket"
	"github.com/rs/zerolog/log"
)

// WSEvent is the envelope for all WebSocket messages. Type carries either a
// lifecycle event (commands_submitted, turn_resolved, game_ended) or a raw
// engine event type (combat, colonization, fleet_arrived, ...).
type WSEvent struct {
	Type   string `json:"type"`
	GameID string `json:"game_id"`
	Data   any    `json:"data"`
}

// ClientMessage is the envelope for messages sent from the client.
type ClientMessage struct {
	Action string `json:"action"` // "subscribe" or "unsubscribe"
	GameID string `json:"game_id"`
}

// wsClient wraps a WebSocket connection with the faction identity from its
// session token and a buffered outbound queue.
type wsClient struct {
	conn      *websocket.Conn
	gameID    string
	factionID string
	send      chan []byte
}

// Hub manages WebSocket connections and per-game subscriptions. Connections
// are auto-subscribed to the game their token was issued for; spectator
// subscriptions to other games go through ClientMessage.
type Hub struct {
	mu      sync.RWMutex
	clients map[*wsClient]bool
	games   map[string]map[*wsClient]bool // gameID -> subscribers
}

// NewHub creates a new Hub.
func NewHub() *Hub {
	return &Hub{
		clients: make(map[*wsClient]bool),
		games:   make(map[string]map[*wsClient]bool),
	}
}

// Register adds a connection and subscribes it to its own game.
func (h *Hub) Register(c *wsClient) {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.clients[c] = true
	h.subscribeLocked(c, c.gameID)
}

// Unregister removes a connection from the hub and all its subscriptions.
func (h *Hub) Unregister(c *wsClient) {
	h.mu.Lock()
	defer h.mu.Unlock()
	delete(h.clients, c)
	for gameID, subs := range h.games {
		delete(subs, c)
		if len(subs) == 0 {
			delete(h.games, gameID)
		}
	}
	close(c.send)
}

// Subscribe adds a connection to a game channel.
func (h *Hub) Subscribe(c *wsClient, gameID string) {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.subscribeLocked(c, gameID)
}

func (h *Hub) subscribeLocked(c *wsClient, gameID string) {
	if gameID == "" {
		return
	}
	if h.games[gameID] == nil {
		h.games[gameID] = make(map[*wsClient]bool)
	}
	h.games[gameID][c] = true
}

// Unsubscribe removes a connection from a game channel.
func (h *Hub) Unsubscribe(c *wsClient, gameID string) {
	h.mu.Lock()
	defer h.mu.Unlock()
	if subs, ok := h.games[gameID]; ok {
		delete(subs, c)
		if len(subs) == 0 {
			delete(h.games, gameID)
		}
	}
}

// BroadcastToGame sends an event to all connections subscribed to a game.
func (h *Hub) BroadcastToGame(gameID string, event WSEvent) {
	data, err := json.Marshal(event)
	if err != nil {
		log.Error().Err(err).Str("gameId", gameID).Msg("Failed to marshal WebSocket event")
		return
	}

	h.mu.RLock()
	defer h.mu.RUnlock()

	for c := range h.games[gameID] {
		select {
		case c.send <- data:
		default:
			log.Warn().Str("faction", c.factionID).Str("gameId", gameID).Msg("Dropping WebSocket message, buffer full")
		}
	}
}

// BroadcastToFaction sends an event to one faction's connections in a game.
func (h *Hub) BroadcastToFaction(gameID, factionID string, event WSEvent) {
	data, err := json.Marshal(event)
	if err != nil {
		log.Error().Err(err).Str("faction", factionID).Msg("Failed to marshal WebSocket event")
		return
	}

	h.mu.RLock()
	defer h.mu.RUnlock()

	for c := range h.clients {
		if c.gameID == gameID && c.factionID == factionID {
			select {
			case c.send <- data:
			default:
			}
		}
	}
}

// ConnectionCount returns the total number of active connections.
func (h *Hub) ConnectionCount() int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.clients)
}

// GameSubscriberCount returns the number of connections subscribed to a game.
func (h *Hub) GameSubscriberCount(gameID string) int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.games[gameID])
}
