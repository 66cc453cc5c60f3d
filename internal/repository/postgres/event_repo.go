package postgres

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"

	"github.com/starlane-games/expanse/internal/model"
)

// EventRepo archives simulation events to the game_events table.
type EventRepo struct {
	db *sql.DB
}

// NewEventRepo creates an EventRepo.
func NewEventRepo(db *sql.DB) *EventRepo {
	return &EventRepo{db: db}
}

// Append inserts one event row.
func (r *EventRepo) Append(ctx context.Context, gameID string, turn int, eventType string, data json.RawMessage) error {
	if data == nil {
		data = json.RawMessage(`{}`)
	}
	_, err := r.db.ExecContext(ctx,
		`INSERT INTO game_events (game_id, turn, type, data) VALUES ($1, $2, $3, $4)`,
		gameID, turn, eventType, data)
	if err != nil {
		return fmt.Errorf("append event: %w", err)
	}
	return nil
}

// ListByGame returns the most recent events for a game, newest first.
func (r *EventRepo) ListByGame(ctx context.Context, gameID string, limit int) ([]model.EventRecord, error) {
	if limit <= 0 {
		limit = 100
	}
	rows, err := r.db.QueryContext(ctx,
		`SELECT id, game_id, turn, type, data, created_at
		 FROM game_events WHERE game_id = $1 ORDER BY id DESC LIMIT $2`,
		gameID, limit)
	if err != nil {
		return nil, fmt.Errorf("list events: %w", err)
	}
	defer rows.Close()
	return scanEvents(rows)
}

// ListByTurn returns all events recorded for one turn, in insertion order.
func (r *EventRepo) ListByTurn(ctx context.Context, gameID string, turn int) ([]model.EventRecord, error) {
	rows, err := r.db.QueryContext(ctx,
		`SELECT id, game_id, turn, type, data, created_at
		 FROM game_events WHERE game_id = $1 AND turn = $2 ORDER BY id`,
		gameID, turn)
	if err != nil {
		return nil, fmt.Errorf("list turn events: %w", err)
	}
	defer rows.Close()
	return scanEvents(rows)
}

func scanEvents(rows *sql.Rows) ([]model.EventRecord, error) {
	var events []model.EventRecord
	for rows.Next() {
		var e model.EventRecord
		if err := rows.Scan(&e.ID, &e.GameID, &e.Turn, &e.Type, &e.Data, &e.CreatedAt); err != nil {
			return nil, fmt.Errorf("scan event: %w", err)
		}
		events = append(events, e)
	}
	return events, rows.Err()
}
