package repository

import (
	"context"
	"encoding/json"
	"time"

	"github.com/starlane-games/expanse/internal/model"
)

// GameRepository defines durable game record operations.
type GameRepository interface {
	Create(ctx context.Context, game *model.Game) error
	FindByID(ctx context.Context, id string) (*model.Game, error)
	ListActive(ctx context.Context) ([]model.Game, error)
	ListFinished(ctx context.Context) ([]model.Game, error)
	AddFaction(ctx context.Context, f *model.GameFaction) error
	FactionsByGame(ctx context.Context, gameID string) ([]model.GameFaction, error)
	UpdateTurn(ctx context.Context, gameID string, turn int, state json.RawMessage) error
	LoadState(ctx context.Context, gameID string) (json.RawMessage, error)
	SetFinished(ctx context.Context, gameID, winner, endReason string) error
	Delete(ctx context.Context, gameID string) error
}

// EventRepository archives simulation events for replay.
type EventRepository interface {
	Append(ctx context.Context, gameID string, turn int, eventType string, data json.RawMessage) error
	ListByGame(ctx context.Context, gameID string, limit int) ([]model.EventRecord, error)
	ListByTurn(ctx context.Context, gameID string, turn int) ([]model.EventRecord, error)
}

// GameCache defines live game state operations (Redis).
type GameCache interface {
	SaveState(ctx context.Context, gameID string, state json.RawMessage) error
	GetState(ctx context.Context, gameID string) (json.RawMessage, error)
	QueueCommands(ctx context.Context, gameID, factionID string, commands json.RawMessage) error
	DrainCommands(ctx context.Context, gameID string, factionIDs []string) (map[string][]json.RawMessage, error)
	SetTurnTimer(ctx context.Context, gameID string, deadline time.Time) error
	GetTurnTimer(ctx context.Context, gameID string) (time.Time, bool, error)
	ClearTurnTimer(ctx context.Context, gameID string) error
	DeleteGameData(ctx context.Context, gameID string, factionIDs []string) error
}
