package postgres

import (
	"database/sql"
	"fmt"

	_ "github.com/lib/pq"
)

// Connect opens a connection pool to the PostgreSQL database.
func Connect(databaseURL string) (*sql.DB, error) {
	db, err := sql.Open("postgres", databaseURL)
	if err != nil {
		return nil, fmt.Errorf("postgres open: %w", err)
	}
	db.SetMaxOpenConns(25)
	db.SetMaxIdleConns(5)
	if err := db.Ping(); err != nil {
		return nil, fmt.Errorf("postgres ping: %w", err)
	}
	return db, nil
}

const schema = `
CREATE TABLE IF NOT EXISTS games (
	id            TEXT PRIMARY KEY,
	name          TEXT NOT NULL,
	status        TEXT NOT NULL DEFAULT 'active',
	winner        TEXT,
	end_reason    TEXT,
	turn          INTEGER NOT NULL DEFAULT 0,
	max_turns     INTEGER NOT NULL DEFAULT 200,
	truce_seconds INTEGER NOT NULL DEFAULT 300,
	state         JSONB,
	created_at    TIMESTAMPTZ NOT NULL DEFAULT now(),
	finished_at   TIMESTAMPTZ
);

CREATE TABLE IF NOT EXISTS game_factions (
	game_id    TEXT NOT NULL REFERENCES games(id) ON DELETE CASCADE,
	faction_id TEXT NOT NULL,
	name       TEXT NOT NULL,
	is_ai      BOOLEAN NOT NULL DEFAULT false,
	joined_at  TIMESTAMPTZ NOT NULL DEFAULT now(),
	PRIMARY KEY (game_id, faction_id)
);

CREATE TABLE IF NOT EXISTS game_events (
	id         BIGSERIAL PRIMARY KEY,
	game_id    TEXT NOT NULL REFERENCES games(id) ON DELETE CASCADE,
	turn       INTEGER NOT NULL,
	type       TEXT NOT NULL,
	data       JSONB NOT NULL DEFAULT '{}',
	created_at TIMESTAMPTZ NOT NULL DEFAULT now()
);

CREATE INDEX IF NOT EXISTS idx_game_events_game_turn ON game_events (game_id, turn);
`

// Migrate creates the schema if it does not exist.
func Migrate(db *sql.DB) error {
	if _, err := db.Exec(schema); err != nil {
		return fmt.Errorf("migrate schema: %w", err)
	}
	return nil
}
