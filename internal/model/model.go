package model

import (
	"encoding/json"
	"time"
)

// Game is the persistent record of a match. The full simulation state
// lives in Redis and in the games.state column; this row carries the
// metadata that survives cache eviction.
type Game struct {
	ID           string        `json:"id"`
	Name         string        `json:"name"`
	Status       string        `json:"status"` // active, finished
	Winner       string        `json:"winner,omitempty"`
	EndReason    string        `json:"end_reason,omitempty"`
	Turn         int           `json:"turn"`
	MaxTurns     int           `json:"max_turns"`
	TruceSeconds int           `json:"truce_seconds"`
	CreatedAt    time.Time     `json:"created_at"`
	FinishedAt   *time.Time    `json:"finished_at,omitempty"`
	Factions     []GameFaction `json:"factions,omitempty"`
}

// GameFaction records a faction slot in a game.
type GameFaction struct {
	GameID    string    `json:"game_id"`
	FactionID string    `json:"faction_id"`
	Name      string    `json:"name"`
	IsAI      bool      `json:"is_ai"`
	JoinedAt  time.Time `json:"joined_at"`
}

// EventRecord is a simulation event archived for replay and history queries.
type EventRecord struct {
	ID        int64           `json:"id"`
	GameID    string          `json:"game_id"`
	Turn      int             `json:"turn"`
	Type      string          `json:"type"`
	Data      json.RawMessage `json:"data"`
	CreatedAt time.Time       `json:"created_at"`
}
