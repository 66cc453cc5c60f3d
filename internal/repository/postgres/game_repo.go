package postgres

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"

	"github.com/starlane-games/expanse/internal/model"
)

// GameRepo handles game and game_faction database operations.
type GameRepo struct {
	db *sql.DB
}

// NewGameRepo creates a GameRepo.
func NewGameRepo(db *sql.DB) *GameRepo {
	return &GameRepo{db: db}
}

// Create inserts a new game record.
func (r *GameRepo) Create(ctx context.Context, game *model.Game) error {
	err := r.db.QueryRowContext(ctx,
		`INSERT INTO games (id, name, turn, max_turns, truce_seconds)
		 VALUES ($1, $2, $3, $4, $5)
		 RETURNING status, created_at`,
		game.ID, game.Name, game.Turn, game.MaxTurns, game.TruceSeconds,
	).Scan(&game.Status, &game.CreatedAt)
	if err != nil {
		return fmt.Errorf("create game: %w", err)
	}
	return nil
}

// FindByID returns a game by ID with its factions, or nil if not found.
func (r *GameRepo) FindByID(ctx context.Context, id string) (*model.Game, error) {
	var g model.Game
	var winner, endReason sql.NullString
	err := r.db.QueryRowContext(ctx,
		`SELECT id, name, status, winner, end_reason, turn, max_turns, truce_seconds, created_at, finished_at
		 FROM games WHERE id = $1`, id,
	).Scan(&g.ID, &g.Name, &g.Status, &winner, &endReason, &g.Turn, &g.MaxTurns, &g.TruceSeconds, &g.CreatedAt, &g.FinishedAt)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("find game: %w", err)
	}
	g.Winner = winner.String
	g.EndReason = endReason.String

	factions, err := r.FactionsByGame(ctx, id)
	if err != nil {
		return nil, err
	}
	g.Factions = factions
	return &g, nil
}

// ListActive returns all games still in play, oldest first.
func (r *GameRepo) ListActive(ctx context.Context) ([]model.Game, error) {
	return r.list(ctx,
		`SELECT id, name, status, winner, end_reason, turn, max_turns, truce_seconds, created_at, finished_at
		 FROM games WHERE status = 'active' ORDER BY created_at`)
}

// ListFinished returns finished games, most recent first.
func (r *GameRepo) ListFinished(ctx context.Context) ([]model.Game, error) {
	return r.list(ctx,
		`SELECT id, name, status, winner, end_reason, turn, max_turns, truce_seconds, created_at, finished_at
		 FROM games WHERE status = 'finished' ORDER BY finished_at DESC LIMIT 100`)
}

func (r *GameRepo) list(ctx context.Context, query string) ([]model.Game, error) {
	rows, err := r.db.QueryContext(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("list games: %w", err)
	}
	defer rows.Close()

	var games []model.Game
	for rows.Next() {
		var g model.Game
		var winner, endReason sql.NullString
		if err := rows.Scan(&g.ID, &g.Name, &g.Status, &winner, &endReason, &g.Turn, &g.MaxTurns, &g.TruceSeconds, &g.CreatedAt, &g.FinishedAt); err != nil {
			return nil, fmt.Errorf("scan game: %w", err)
		}
		g.Winner = winner.String
		g.EndReason = endReason.String
		games = append(games, g)
	}
	return games, rows.Err()
}

// AddFaction records a faction slot in a game.
func (r *GameRepo) AddFaction(ctx context.Context, f *model.GameFaction) error {
	err := r.db.QueryRowContext(ctx,
		`INSERT INTO game_factions (game_id, faction_id, name, is_ai)
		 VALUES ($1, $2, $3, $4)
		 ON CONFLICT (game_id, faction_id) DO UPDATE SET name = EXCLUDED.name
		 RETURNING joined_at`,
		f.GameID, f.FactionID, f.Name, f.IsAI,
	).Scan(&f.JoinedAt)
	if err != nil {
		return fmt.Errorf("add faction: %w", err)
	}
	return nil
}

// FactionsByGame returns all faction slots in a game, join order.
func (r *GameRepo) FactionsByGame(ctx context.Context, gameID string) ([]model.GameFaction, error) {
	rows, err := r.db.QueryContext(ctx,
		`SELECT game_id, faction_id, name, is_ai, joined_at
		 FROM game_factions WHERE game_id = $1 ORDER BY joined_at, faction_id`, gameID)
	if err != nil {
		return nil, fmt.Errorf("list factions: %w", err)
	}
	defer rows.Close()

	var factions []model.GameFaction
	for rows.Next() {
		var f model.GameFaction
		if err := rows.Scan(&f.GameID, &f.FactionID, &f.Name, &f.IsAI, &f.JoinedAt); err != nil {
			return nil, fmt.Errorf("scan faction: %w", err)
		}
		factions = append(factions, f)
	}
	return factions, rows.Err()
}

// UpdateTurn persists the turn counter and the full simulation state snapshot.
func (r *GameRepo) UpdateTurn(ctx context.Context, gameID string, turn int, state json.RawMessage) error {
	_, err := r.db.ExecContext(ctx,
		`UPDATE games SET turn = $1, state = $2 WHERE id = $3`,
		turn, state, gameID)
	if err != nil {
		return fmt.Errorf("update turn: %w", err)
	}
	return nil
}

// LoadState returns the last persisted state snapshot, or nil if none exists.
func (r *GameRepo) LoadState(ctx context.Context, gameID string) (json.RawMessage, error) {
	var state []byte
	err := r.db.QueryRowContext(ctx,
		`SELECT state FROM games WHERE id = $1`, gameID,
	).Scan(&state)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("load state: %w", err)
	}
	return state, nil
}

// SetFinished marks a game as finished.
func (r *GameRepo) SetFinished(ctx context.Context, gameID, winner, endReason string) error {
	_, err := r.db.ExecContext(ctx,
		`UPDATE games SET status = 'finished', winner = $1, end_reason = $2, finished_at = now() WHERE id = $3`,
		winner, endReason, gameID)
	if err != nil {
		return fmt.Errorf("set finished: %w", err)
	}
	return nil
}

// Delete removes a game and all associated data (cascades to factions and events).
func (r *GameRepo) Delete(ctx context.Context, gameID string) error {
	_, err := r.db.ExecContext(ctx, `DELETE FROM games WHERE id = $1`, gameID)
	if err != nil {
		return fmt.Errorf("delete game: %w", err)
	}
	return nil
}
