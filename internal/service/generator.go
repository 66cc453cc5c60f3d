package service

import (
	"github.com/starlane-games/expanse/pkg/galaxy"
)

// CommandGenerator produces a turn's worth of commands for an AI faction.
// The engine treats AI factions like any other; the generator is consulted
// once per AI faction just before turn resolution.
type CommandGenerator interface {
	Generate(gs *galaxy.GameState, factionID string) []galaxy.Command
}

// NoopGenerator issues no commands. AI factions still grow their economy
// passively through the turn pipeline.
type NoopGenerator struct{}

func (NoopGenerator) Generate(*galaxy.GameState, string) []galaxy.Command { return nil }
