package service

import (
	"context"
	"encoding/json"
	"sync"
	"time"

	"github.com/starlane-games/expanse/internal/model"
)

type mockGameRepo struct {
	games    map[string]*model.Game
	factions map[string][]model.GameFaction
	states   map[string]json.RawMessage
}

func newMockGameRepo() *mockGameRepo {
	return &mockGameRepo{
		games:    make(map[string]*model.Game),
		factions: make(map[string][]model.GameFaction),
		states:   make(map[string]json.RawMessage),
	}
}

func (m *mockGameRepo) Create(_ context.Context, game *model.Game) error {
	game.Status = "active"
	game.CreatedAt = time.Now()
	cp := *game
	m.games[game.ID] = &cp
	return nil
}

func (m *mockGameRepo) FindByID(_ context.Context, id string) (*model.Game, error) {
	g, ok := m.games[id]
	if !ok {
		return nil, nil
	}
	cp := *g
	cp.Factions = m.factions[id]
	return &cp, nil
}

func (m *mockGameRepo) ListActive(_ context.Context) ([]model.Game, error) {
	var result []model.Game
	for _, g := range m.games {
		if g.Status == "active" {
			result = append(result, *g)
		}
	}
	return result, nil
}

func (m *mockGameRepo) ListFinished(_ context.Context) ([]model.Game, error) {
	var result []model.Game
	for _, g := range m.games {
		if g.Status == "finished" {
			result = append(result, *g)
		}
	}
	return result, nil
}

func (m *mockGameRepo) AddFaction(_ context.Context, f *model.GameFaction) error {
	f.JoinedAt = time.Now()
	m.factions[f.GameID] = append(m.factions[f.GameID], *f)
	return nil
}

func (m *mockGameRepo) FactionsByGame(_ context.Context, gameID string) ([]model.GameFaction, error) {
	return m.factions[gameID], nil
}

func (m *mockGameRepo) UpdateTurn(_ context.Context, gameID string, turn int, state json.RawMessage) error {
	if g, ok := m.games[gameID]; ok {
		g.Turn = turn
	}
	m.states[gameID] = state
	return nil
}

func (m *mockGameRepo) LoadState(_ context.Context, gameID string) (json.RawMessage, error) {
	return m.states[gameID], nil
}

func (m *mockGameRepo) SetFinished(_ context.Context, gameID, winner, endReason string) error {
	if g, ok := m.games[gameID]; ok {
		g.Status = "finished"
		g.Winner = winner
		g.EndReason = endReason
		now := time.Now()
		g.FinishedAt = &now
	}
	return nil
}

func (m *mockGameRepo) Delete(_ context.Context, gameID string) error {
	delete(m.games, gameID)
	delete(m.factions, gameID)
	delete(m.states, gameID)
	return nil
}

type archivedEvent struct {
	GameID string
	Turn   int
	Type   string
	Data   json.RawMessage
}

type mockEventRepo struct {
	events []archivedEvent
}

func newMockEventRepo() *mockEventRepo {
	return &mockEventRepo{}
}

func (m *mockEventRepo) Append(_ context.Context, gameID string, turn int, eventType string, data json.RawMessage) error {
	m.events = append(m.events, archivedEvent{GameID: gameID, Turn: turn, Type: eventType, Data: data})
	return nil
}

func (m *mockEventRepo) ListByGame(_ context.Context, gameID string, limit int) ([]model.EventRecord, error) {
	var result []model.EventRecord
	for i := len(m.events) - 1; i >= 0 && len(result) < limit; i-- {
		if m.events[i].GameID == gameID {
			result = append(result, model.EventRecord{
				GameID: gameID,
				Turn:   m.events[i].Turn,
				Type:   m.events[i].Type,
				Data:   m.events[i].Data,
			})
		}
	}
	return result, nil
}

func (m *mockEventRepo) ListByTurn(_ context.Context, gameID string, turn int) ([]model.EventRecord, error) {
	var result []model.EventRecord
	for _, e := range m.events {
		if e.GameID == gameID && e.Turn == turn {
			result = append(result, model.EventRecord{GameID: gameID, Turn: e.Turn, Type: e.Type, Data: e.Data})
		}
	}
	return result, nil
}

func (m *mockEventRepo) countType(eventType string) int {
	n := 0
	for _, e := range m.events {
		if e.Type == eventType {
			n++
		}
	}
	return n
}

type mockCache struct {
	states map[string]json.RawMessage
	queues map[string][]json.RawMessage // key: "gameID:faction"
	timers map[string]time.Time
}

func newMockCache() *mockCache {
	return &mockCache{
		states: make(map[string]json.RawMessage),
		queues: make(map[string][]json.RawMessage),
		timers: make(map[string]time.Time),
	}
}

func (c *mockCache) SaveState(_ context.Context, gameID string, state json.RawMessage) error {
	c.states[gameID] = state
	return nil
}

func (c *mockCache) GetState(_ context.Context, gameID string) (json.RawMessage, error) {
	return c.states[gameID], nil
}

func (c *mockCache) QueueCommands(_ context.Context, gameID, factionID string, commands json.RawMessage) error {
	key := gameID + ":" + factionID
	c.queues[key] = append(c.queues[key], commands)
	return nil
}

func (c *mockCache) DrainCommands(_ context.Context, gameID string, factionIDs []string) (map[string][]json.RawMessage, error) {
	result := make(map[string][]json.RawMessage)
	for _, id := range factionIDs {
		key := gameID + ":" + id
		if batches, ok := c.queues[key]; ok {
			result[id] = batches
			delete(c.queues, key)
		}
	}
	return result, nil
}

func (c *mockCache) SetTurnTimer(_ context.Context, gameID string, deadline time.Time) error {
	c.timers[gameID] = deadline
	return nil
}

func (c *mockCache) GetTurnTimer(_ context.Context, gameID string) (time.Time, bool, error) {
	deadline, ok := c.timers[gameID]
	return deadline, ok, nil
}

func (c *mockCache) ClearTurnTimer(_ context.Context, gameID string) error {
	delete(c.timers, gameID)
	return nil
}

func (c *mockCache) DeleteGameData(_ context.Context, gameID string, factionIDs []string) error {
	delete(c.states, gameID)
	delete(c.timers, gameID)
	for _, id := range factionIDs {
		delete(c.queues, gameID+":"+id)
	}
	return nil
}

type broadcastCall struct {
	GameID string
	Type   string
	Data   any
}

// recordingBroadcaster captures broadcast calls for assertions.
type recordingBroadcaster struct {
	mu    sync.Mutex
	calls []broadcastCall
}

func (b *recordingBroadcaster) BroadcastGameEvent(gameID, eventType string, data any) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.calls = append(b.calls, broadcastCall{GameID: gameID, Type: eventType, Data: data})
}

func (b *recordingBroadcaster) typesSeen() []string {
	b.mu.Lock()
	defer b.mu.Unlock()
	var types []string
	for _, c := range b.calls {
		types = append(types, c.Type)
	}
	return types
}
