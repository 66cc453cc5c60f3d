package galaxy

// Event is one append-only log entry describing something that happened
// during turn resolution. The log is never truncated; external snapshots
// take a trailing window via RecentEvents.
type Event struct {
	Type string         `json:"type"`
	Turn int            `json:"turn"`
	Data map[string]any `json:"data,omitempty"`
}

// Event types emitted by the engine.
const (
	EvGameStart             = "game_start"
	EvTurnEnd               = "turn_end"
	EvTurnIgnored           = "turn_ignored"
	EvCommandFailed         = "command_failed"
	EvColonization          = "colonization"
	EvColonizationContested = "colonization_contested"
	EvColonizationFailed    = "colonization_failed"
	EvConstruction          = "construction"
	EvFleetCreated          = "fleet_created"
	EvFleetReinforced       = "fleet_reinforced"
	EvFleetPatrol           = "fleet_patrol"
	EvFleetMovement         = "fleet_movement"
	EvFleetArrived          = "fleet_arrived"
	EvFleetIntercepted      = "fleet_intercepted"
	EvGarrisonOverflow      = "garrison_overflow"
	EvResearchStarted       = "research_started"
	EvResearchCompleted     = "research_completed"
	EvDiplomacy             = "diplomacy"
	EvBetrayal              = "betrayal"
	EvStrategy              = "strategy"
	EvPlanetConquered       = "planet_conquered"
	EvDefenseSuccess        = "defense_success"
	EvShieldDefense         = "shield_defense"
	EvCombat                = "combat"
	EvRandomEvent           = "random_event"
	EvGameOver              = "game_over"
)

// AddEvent appends an event stamped with the current turn.
func (gs *GameState) AddEvent(eventType string, data map[string]any) {
	gs.Events = append(gs.Events, Event{Type: eventType, Turn: gs.Turn, Data: data})
}

// RecentEvents returns the trailing n events for external snapshots.
func (gs *GameState) RecentEvents(n int) []Event {
	if n <= 0 || len(gs.Events) == 0 {
		return nil
	}
	if len(gs.Events) <= n {
		out := make([]Event, len(gs.Events))
		copy(out, gs.Events)
		return out
	}
	out := make([]Event, n)
	copy(out, gs.Events[len(gs.Events)-n:])
	return out
}
