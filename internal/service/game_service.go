package service

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog/log"

	"github.com/starlane-games/expanse/internal/model"
	"github.com/starlane-games/expanse/internal/repository"
	"github.com/starlane-games/expanse/pkg/galaxy"
)

var (
	ErrGameNotFound    = errors.New("game not found")
	ErrGameNotActive   = errors.New("game is not active")
	ErrFactionNotFound = errors.New("faction not in this game")
	ErrStateMissing    = errors.New("game state missing")
)

// snapshotEvents is how many trailing events a world snapshot carries.
// The full log stays in Postgres.
const snapshotEvents = 20

// GameService orchestrates the game lifecycle: creation, command submission,
// turn resolution, and the player-facing fleet operations. All engine access
// goes through a per-game mutex; the engine itself is single-threaded.
type GameService struct {
	games       repository.GameRepository
	events      repository.EventRepository
	cache       repository.GameCache
	broadcaster Broadcaster
	generator   CommandGenerator

	// turnSeconds is the auto-advance deadline; 0 disables timers.
	turnSeconds int

	// gameLocks prevents concurrent turn resolution for the same game.
	// Both the keyspace listener and the poller can fire simultaneously;
	// without locking both would resolve the same turn twice.
	gameLocks sync.Map
}

// NewGameService creates a GameService.
func NewGameService(
	games repository.GameRepository,
	events repository.EventRepository,
	cache repository.GameCache,
	broadcaster Broadcaster,
	generator CommandGenerator,
	turnSeconds int,
) *GameService {
	if broadcaster == nil {
		broadcaster = NoopBroadcaster{}
	}
	if generator == nil {
		generator = NoopGenerator{}
	}
	return &GameService{
		games:       games,
		events:      events,
		cache:       cache,
		broadcaster: broadcaster,
		generator:   generator,
		turnSeconds: turnSeconds,
	}
}

// gameLock returns the mutex for a given game ID.
func (s *GameService) gameLock(gameID string) *sync.Mutex {
	v, _ := s.gameLocks.LoadOrStore(gameID, &sync.Mutex{})
	return v.(*sync.Mutex)
}

// CreateGameParams assembles the inputs for a new game. The caller supplies
// the map; the service seeds factions and persists the initial world.
type CreateGameParams struct {
	Name          string
	Planets       map[string]*galaxy.Planet
	Connections   []galaxy.Edge
	Factions      []galaxy.FactionSeed
	MaxTurns      int
	TruceSeconds  int
	AllowPostgame bool
}

// CreateGame builds the initial world, persists it, and starts the turn timer.
func (s *GameService) CreateGame(ctx context.Context, p CreateGameParams) (*model.Game, *galaxy.GameState, error) {
	gs, err := galaxy.NewGame(galaxy.GameConfig{
		Planets:       p.Planets,
		Connections:   p.Connections,
		Factions:      p.Factions,
		MaxTurns:      p.MaxTurns,
		TruceDuration: time.Duration(p.TruceSeconds) * time.Second,
		AllowPostgame: p.AllowPostgame,
	})
	if err != nil {
		return nil, nil, fmt.Errorf("initialize world: %w", err)
	}

	game := &model.Game{
		ID:           uuid.NewString(),
		Name:         p.Name,
		MaxTurns:     gs.Rules.MaxTurns,
		TruceSeconds: p.TruceSeconds,
	}
	if err := s.games.Create(ctx, game); err != nil {
		return nil, nil, err
	}
	for _, seed := range p.Factions {
		f := &model.GameFaction{
			GameID:    game.ID,
			FactionID: seed.ID,
			Name:      seed.Name,
			IsAI:      seed.IsAI,
		}
		if err := s.games.AddFaction(ctx, f); err != nil {
			return nil, nil, err
		}
		game.Factions = append(game.Factions, *f)
	}

	if err := s.saveState(ctx, game.ID, gs); err != nil {
		return nil, nil, err
	}
	s.archiveEvents(ctx, game.ID, gs.Events)

	if err := s.resetTimer(ctx, game.ID); err != nil {
		log.Warn().Err(err).Str("gameId", game.ID).Msg("Failed to set initial turn timer")
	}

	log.Info().Str("gameId", game.ID).Int("planets", len(p.Planets)).
		Int("factions", len(p.Factions)).Msg("Game created")
	return game, gs, nil
}

// GetGame returns a game record by ID.
func (s *GameService) GetGame(ctx context.Context, gameID string) (*model.Game, error) {
	game, err := s.games.FindByID(ctx, gameID)
	if err != nil {
		return nil, err
	}
	if game == nil {
		return nil, ErrGameNotFound
	}
	return game, nil
}

// ListGames returns active games, or finished ones when filter is "finished".
func (s *GameService) ListGames(ctx context.Context, filter string) ([]model.Game, error) {
	if filter == "finished" {
		return s.games.ListFinished(ctx)
	}
	return s.games.ListActive(ctx)
}

// Snapshot is the externally visible view of a game: the persistent record
// plus the world state with only the trailing events.
type Snapshot struct {
	Game  *model.Game       `json:"game"`
	State *galaxy.GameState `json:"state"`
}

// GetSnapshot returns the current world snapshot for a game.
func (s *GameService) GetSnapshot(ctx context.Context, gameID string) (*Snapshot, error) {
	game, err := s.GetGame(ctx, gameID)
	if err != nil {
		return nil, err
	}
	gs, err := s.loadState(ctx, gameID)
	if err != nil {
		return nil, err
	}

	trimmed := *gs
	trimmed.Events = gs.RecentEvents(snapshotEvents)
	return &Snapshot{Game: game, State: &trimmed}, nil
}

// ListEvents returns the archived event log for a game, newest first.
func (s *GameService) ListEvents(ctx context.Context, gameID string, limit int) ([]model.EventRecord, error) {
	if _, err := s.GetGame(ctx, gameID); err != nil {
		return nil, err
	}
	return s.events.ListByGame(ctx, gameID, limit)
}

// PowerBreakdown returns the itemized power score for one faction.
func (s *GameService) PowerBreakdown(ctx context.Context, gameID, factionID string) (*galaxy.PowerBreakdown, error) {
	gs, err := s.loadState(ctx, gameID)
	if err != nil {
		return nil, err
	}
	faction := gs.Factions[factionID]
	if faction == nil {
		return nil, ErrFactionNotFound
	}
	b := galaxy.FactionPowerBreakdown(gs, faction)
	return &b, nil
}

// SubmitCommands queues a faction's command batch for the next turn. The
// faction field on every command is overwritten with the authenticated
// faction so a client cannot issue commands for others.
func (s *GameService) SubmitCommands(ctx context.Context, gameID, factionID string, commands []galaxy.Command) error {
	game, err := s.GetGame(ctx, gameID)
	if err != nil {
		return err
	}
	if game.Status != "active" {
		return ErrGameNotActive
	}
	gs, err := s.loadState(ctx, gameID)
	if err != nil {
		return err
	}
	if gs.Factions[factionID] == nil {
		return ErrFactionNotFound
	}

	for i := range commands {
		commands[i].Faction = factionID
	}
	data, err := json.Marshal(commands)
	if err != nil {
		return fmt.Errorf("marshal commands: %w", err)
	}
	if err := s.cache.QueueCommands(ctx, gameID, factionID, data); err != nil {
		return fmt.Errorf("queue commands: %w", err)
	}

	s.broadcaster.BroadcastGameEvent(gameID, "commands_submitted", map[string]any{
		"faction": factionID,
		"count":   len(commands),
	})
	return nil
}

// AdvanceTurn drains the pending command queues, resolves one turn, and
// persists the result. Safe against concurrent triggers (timer expiry,
// poller, manual advance) via the per-game lock.
func (s *GameService) AdvanceTurn(ctx context.Context, gameID string) error {
	mu := s.gameLock(gameID)
	mu.Lock()
	defer mu.Unlock()

	game, err := s.games.FindByID(ctx, gameID)
	if err != nil {
		return err
	}
	if game == nil {
		return ErrGameNotFound
	}

	gs, err := s.loadState(ctx, gameID)
	if err != nil {
		return err
	}
	if game.Status != "active" && !gs.AllowPostgame {
		log.Info().Str("gameId", gameID).Str("status", game.Status).
			Msg("Skipping turn resolution for finished game")
		return nil
	}

	commands, err := s.collectCommands(ctx, gameID, gs)
	if err != nil {
		return err
	}

	wasOver := gs.GameOver
	before := len(gs.Events)
	engine := galaxy.NewEngine(gs)
	if err := engine.ProcessTurn(commands); err != nil {
		return fmt.Errorf("process turn: %w", err)
	}

	if err := s.saveState(ctx, gameID, gs); err != nil {
		return err
	}
	s.archiveEvents(ctx, gameID, gs.Events[before:])

	log.Info().Str("gameId", gameID).Int("turn", gs.Turn).
		Int("commands", len(commands)).Int("events", len(gs.Events)-before).
		Msg("Turn resolved")

	s.broadcaster.BroadcastGameEvent(gameID, "turn_resolved", map[string]any{
		"turn": gs.Turn,
	})

	if gs.GameOver && !wasOver {
		if err := s.games.SetFinished(ctx, gameID, gs.Winner, gs.EndReason); err != nil {
			return fmt.Errorf("set finished: %w", err)
		}
		s.broadcaster.BroadcastGameEvent(gameID, "game_ended", map[string]any{
			"winner": gs.Winner,
			"reason": gs.EndReason,
			"scores": gs.FinalScores,
		})
		if !gs.AllowPostgame {
			if err := s.cache.ClearTurnTimer(ctx, gameID); err != nil {
				log.Warn().Err(err).Str("gameId", gameID).Msg("Failed to clear timer after game end")
			}
			return nil
		}
	}

	if err := s.resetTimer(ctx, gameID); err != nil {
		log.Warn().Err(err).Str("gameId", gameID).Msg("Failed to reset turn timer")
	}
	return nil
}

// collectCommands drains the queued player batches and asks the generator
// for AI faction commands, in deterministic faction order.
func (s *GameService) collectCommands(ctx context.Context, gameID string, gs *galaxy.GameState) ([]galaxy.Command, error) {
	factionIDs := gs.FactionIDs()
	drained, err := s.cache.DrainCommands(ctx, gameID, factionIDs)
	if err != nil {
		return nil, err
	}

	var commands []galaxy.Command
	for _, fid := range factionIDs {
		for _, batch := range drained[fid] {
			var cmds []galaxy.Command
			if err := json.Unmarshal(batch, &cmds); err != nil {
				log.Warn().Str("gameId", gameID).Str("faction", fid).
					Msg("Invalid command batch, skipping")
				continue
			}
			for i := range cmds {
				cmds[i].Faction = fid
			}
			commands = append(commands, cmds...)
		}
		if gs.Factions[fid].IsAI {
			generated := s.generator.Generate(gs, fid)
			for i := range generated {
				generated[i].Faction = fid
			}
			commands = append(commands, generated...)
		}
	}
	return commands, nil
}

// AdvanceOverdueGames resolves every active game whose turn timer has
// expired or vanished. Used by the polling fallback when keyspace
// notifications are unavailable.
func (s *GameService) AdvanceOverdueGames(ctx context.Context) {
	if s.turnSeconds <= 0 {
		return
	}
	games, err := s.games.ListActive(ctx)
	if err != nil {
		log.Error().Err(err).Msg("Failed to list active games for deadline check")
		return
	}
	for _, game := range games {
		deadline, ok, err := s.cache.GetTurnTimer(ctx, game.ID)
		if err != nil {
			log.Error().Err(err).Str("gameId", game.ID).Msg("Failed to read turn timer")
			continue
		}
		// A missing key means the TTL fired (timers are restored on startup).
		if ok && time.Now().Before(deadline) {
			continue
		}
		log.Info().Str("gameId", game.ID).Msg("Poller advancing overdue game")
		if err := s.AdvanceTurn(ctx, game.ID); err != nil {
			log.Error().Err(err).Str("gameId", game.ID).Msg("Turn resolution failed from poller")
		}
	}
}

// CreateFleet builds a fleet at an owned planet from faction stockpiles.
func (s *GameService) CreateFleet(ctx context.Context, gameID, factionID, planetID string, ships map[galaxy.ShipType]int) (*galaxy.Fleet, error) {
	var fleet *galaxy.Fleet
	err := s.withEngine(ctx, gameID, func(e *galaxy.Engine) error {
		var err error
		fleet, err = e.CreateFleet(factionID, planetID, ships)
		return err
	})
	return fleet, err
}

// ReinforceFleet buys ships at full cost or scraps them for a 50% refund.
func (s *GameService) ReinforceFleet(ctx context.Context, gameID, factionID, fleetID string, delta map[galaxy.ShipType]int) (refundMinerals, refundEnergy float64, err error) {
	err = s.withEngine(ctx, gameID, func(e *galaxy.Engine) error {
		var err error
		refundMinerals, refundEnergy, err = e.ReinforceFleet(factionID, fleetID, delta)
		return err
	})
	return refundMinerals, refundEnergy, err
}

// SetPatrol stations a fleet on a connection edge.
func (s *GameService) SetPatrol(ctx context.Context, gameID, factionID, fleetID, a, b string) error {
	return s.withEngine(ctx, gameID, func(e *galaxy.Engine) error {
		return e.SetPatrol(factionID, fleetID, a, b)
	})
}

// MoveFleet orders a fleet toward an adjacent planet.
func (s *GameService) MoveFleet(ctx context.Context, gameID, factionID, fleetID, destination string) error {
	return s.withEngine(ctx, gameID, func(e *galaxy.Engine) error {
		return e.OrderMove(factionID, fleetID, destination)
	})
}

// Assault runs a player-triggered capture attempt.
func (s *GameService) Assault(ctx context.Context, gameID, factionID, planetID string) (*galaxy.AssaultReport, error) {
	var report *galaxy.AssaultReport
	err := s.withEngine(ctx, gameID, func(e *galaxy.Engine) error {
		var err error
		report, err = e.Assault(factionID, planetID)
		return err
	})
	return report, err
}

// AssaultPreview reports assault eligibility and odds without mutating state.
func (s *GameService) AssaultPreview(ctx context.Context, gameID, factionID, planetID string) (*galaxy.AssaultReport, error) {
	gs, err := s.loadState(ctx, gameID)
	if err != nil {
		return nil, err
	}
	return galaxy.NewEngine(gs).AssaultPreview(factionID, planetID)
}

// withEngine loads the game state, runs op against an engine bound to it,
// and persists state plus new events when op succeeds.
func (s *GameService) withEngine(ctx context.Context, gameID string, op func(*galaxy.Engine) error) error {
	mu := s.gameLock(gameID)
	mu.Lock()
	defer mu.Unlock()

	gs, err := s.loadState(ctx, gameID)
	if err != nil {
		return err
	}
	before := len(gs.Events)
	if err := op(galaxy.NewEngine(gs)); err != nil {
		return err
	}
	if err := s.saveState(ctx, gameID, gs); err != nil {
		return err
	}
	s.archiveEvents(ctx, gameID, gs.Events[before:])
	return nil
}

// StopGame ends an active game without a winner.
func (s *GameService) StopGame(ctx context.Context, gameID string) error {
	game, err := s.GetGame(ctx, gameID)
	if err != nil {
		return err
	}
	if game.Status != "active" {
		return ErrGameNotActive
	}
	if err := s.games.SetFinished(ctx, gameID, "", "stopped"); err != nil {
		return err
	}
	s.broadcaster.BroadcastGameEvent(gameID, "game_ended", map[string]any{
		"winner": "",
		"reason": "stopped",
	})
	return s.clearCache(ctx, gameID)
}

// DeleteGame removes a game and all its data.
func (s *GameService) DeleteGame(ctx context.Context, gameID string) error {
	if err := s.clearCache(ctx, gameID); err != nil {
		return err
	}
	return s.games.Delete(ctx, gameID)
}

func (s *GameService) clearCache(ctx context.Context, gameID string) error {
	factions, err := s.games.FactionsByGame(ctx, gameID)
	if err != nil {
		return err
	}
	ids := make([]string, 0, len(factions))
	for _, f := range factions {
		ids = append(ids, f.FactionID)
	}
	return s.cache.DeleteGameData(ctx, gameID, ids)
}

// RecoverActiveGames rehydrates Redis state for all active games from
// Postgres. Called on server startup so timers and cached state survive a
// restart.
func (s *GameService) RecoverActiveGames(ctx context.Context) error {
	games, err := s.games.ListActive(ctx)
	if err != nil {
		return fmt.Errorf("list active games: %w", err)
	}
	if len(games) == 0 {
		log.Info().Msg("No active games to recover")
		return nil
	}

	log.Info().Int("count", len(games)).Msg("Recovering active games after restart")
	for _, game := range games {
		state, err := s.games.LoadState(ctx, game.ID)
		if err != nil {
			log.Error().Err(err).Str("gameId", game.ID).Msg("Failed to load state during recovery")
			continue
		}
		if state == nil {
			log.Warn().Str("gameId", game.ID).Msg("Active game has no persisted state, skipping")
			continue
		}
		if err := s.cache.SaveState(ctx, game.ID, state); err != nil {
			log.Error().Err(err).Str("gameId", game.ID).Msg("Failed to restore cached state")
			continue
		}
		if err := s.resetTimer(ctx, game.ID); err != nil {
			log.Warn().Err(err).Str("gameId", game.ID).Msg("Failed to restore turn timer")
		}
		log.Info().Str("gameId", game.ID).Int("turn", game.Turn).Msg("Recovered game state")
	}
	return nil
}

// loadState reads the world from Redis, falling back to Postgres.
func (s *GameService) loadState(ctx context.Context, gameID string) (*galaxy.GameState, error) {
	data, err := s.cache.GetState(ctx, gameID)
	if err != nil {
		return nil, err
	}
	if data == nil {
		data, err = s.games.LoadState(ctx, gameID)
		if err != nil {
			return nil, err
		}
	}
	if data == nil {
		return nil, ErrStateMissing
	}
	var gs galaxy.GameState
	if err := json.Unmarshal(data, &gs); err != nil {
		return nil, fmt.Errorf("unmarshal state: %w", err)
	}
	return &gs, nil
}

// saveState writes the world to both Redis and Postgres.
func (s *GameService) saveState(ctx context.Context, gameID string, gs *galaxy.GameState) error {
	data, err := json.Marshal(gs)
	if err != nil {
		return fmt.Errorf("marshal state: %w", err)
	}
	if err := s.cache.SaveState(ctx, gameID, data); err != nil {
		return fmt.Errorf("cache state: %w", err)
	}
	if err := s.games.UpdateTurn(ctx, gameID, gs.Turn, data); err != nil {
		return fmt.Errorf("persist state: %w", err)
	}
	return nil
}

// archiveEvents appends engine events to the durable log and streams them to
// connected clients. Archive failures are logged, not fatal.
func (s *GameService) archiveEvents(ctx context.Context, gameID string, events []galaxy.Event) {
	for _, ev := range events {
		data, err := json.Marshal(ev.Data)
		if err != nil {
			log.Warn().Err(err).Str("gameId", gameID).Str("type", ev.Type).Msg("Failed to marshal event data")
			continue
		}
		if err := s.events.Append(ctx, gameID, ev.Turn, ev.Type, data); err != nil {
			log.Warn().Err(err).Str("gameId", gameID).Str("type", ev.Type).Msg("Failed to archive event")
		}
		s.broadcaster.BroadcastGameEvent(gameID, ev.Type, ev.Data)
	}
}

// resetTimer arms the next turn deadline when timers are enabled.
func (s *GameService) resetTimer(ctx context.Context, gameID string) error {
	if s.turnSeconds <= 0 {
		return nil
	}
	deadline := time.Now().Add(time.Duration(s.turnSeconds) * time.Second)
	return s.cache.SetTurnTimer(ctx, gameID, deadline)
}
