package galaxy

import (
	"fmt"
	"time"
)

// DefaultTechnologies returns the standard six-technology tree.
func DefaultTechnologies() map[string]*Technology {
	techs := []*Technology{
		{ID: TechLaser, Name: "Laser Weapons", Cost: 100},
		{ID: TechShields, Name: "Energy Shields", Cost: 1700},
		{ID: TechFTL, Name: "FTL Drive", Cost: 200},
		{ID: TechColonization, Name: "Colonization", Cost: 120},
		{ID: TechMining, Name: "Advanced Mining", Cost: 130},
		{ID: TechPower, Name: "Fusion Power", Cost: 140},
	}
	out := make(map[string]*Technology, len(techs))
	for _, t := range techs {
		out[t.ID] = t
	}
	return out
}

// FactionSeed describes one starting faction for NewGame.
type FactionSeed struct {
	ID         string
	Name       string
	IsAI       bool
	HomePlanet string
}

// GameConfig assembles the inputs for a new game. Galaxy generation is the
// caller's job; the engine only needs the resulting planets and links.
type GameConfig struct {
	Planets     map[string]*Planet
	Connections []Edge
	Factions    []FactionSeed

	MaxTurns                  int
	DesperateCaptureThreshold int
	TruceDuration             time.Duration
	Victory                   VictoryConfig
	AllowPostgame             bool

	// Now overrides the start-of-game clock, mainly for tests.
	Now func() time.Time
}

// Starting stockpile and home-world settings for every faction.
var startingResources = Resources{Energy: 500, Minerals: 500, Research: 100}

const (
	startingPopulation = 100
	defaultMaxTurns    = 200
	defaultThreshold   = 10
)

// NewGame builds the initial world: factions seeded on their home planets
// with a small fleet, a neutral diplomacy mesh, and the standard tech tree.
func NewGame(cfg GameConfig) (*GameState, error) {
	if len(cfg.Planets) == 0 {
		return nil, fmt.Errorf("new game: no planets")
	}
	if len(cfg.Factions) == 0 {
		return nil, fmt.Errorf("new game: no factions")
	}
	now := time.Now
	if cfg.Now != nil {
		now = cfg.Now
	}
	maxTurns := cfg.MaxTurns
	if maxTurns <= 0 {
		maxTurns = defaultMaxTurns
	}
	threshold := cfg.DesperateCaptureThreshold
	if threshold <= 0 {
		threshold = defaultThreshold
	}

	gs := &GameState{
		Planets:      cfg.Planets,
		Factions:     map[string]*Faction{},
		Fleets:       map[string]*Fleet{},
		Technologies: DefaultTechnologies(),
		Connections:  cfg.Connections,
		Rules: Rules{
			DesperateCaptureThreshold: threshold,
			MaxTurns:                  maxTurns,
		},
		Victory:       cfg.Victory,
		EconHistory:   map[string][]float64{},
		Siege:         map[string]map[string]int{},
		GameStartTime: now(),
		AllowPostgame: cfg.AllowPostgame,
	}
	if cfg.TruceDuration > 0 {
		gs.TruceUntil = gs.GameStartTime.Add(cfg.TruceDuration)
	}

	for _, seed := range cfg.Factions {
		if _, exists := gs.Factions[seed.ID]; exists {
			return nil, fmt.Errorf("new game: duplicate faction %q", seed.ID)
		}
		home, ok := gs.Planets[seed.HomePlanet]
		if !ok {
			return nil, fmt.Errorf("new game: faction %q home planet %q not found", seed.ID, seed.HomePlanet)
		}
		if home.Owner != "" {
			return nil, fmt.Errorf("new game: home planet %q already claimed", seed.HomePlanet)
		}

		faction := &Faction{
			ID:               seed.ID,
			Name:             seed.Name,
			IsAI:             seed.IsAI,
			Resources:        startingResources,
			ResearchProgress: map[string]float64{},
			Diplomacy:        map[string]DiplomacyStatus{},
			Reputation:       100,
			StrategyMode:     ModePeace,
		}
		gs.Factions[seed.ID] = faction

		home.Owner = seed.ID
		home.Population = startingPopulation
		faction.Planets = append(faction.Planets, home.ID)

		fleet := &Fleet{
			ID:       fmt.Sprintf("fleet_%s_0", seed.ID),
			Owner:    seed.ID,
			Ships:    map[ShipType]int{Corvette: 3, Scout: 5},
			Position: home.ID,
		}
		gs.Fleets[fleet.ID] = fleet
		faction.Fleets = append(faction.Fleets, fleet.ID)
	}

	for _, a := range gs.FactionIDs() {
		for _, b := range gs.FactionIDs() {
			if a != b {
				gs.Factions[a].Diplomacy[b] = Neutral
			}
		}
	}

	gs.AddEvent(EvGameStart, map[string]any{
		"max_turns":   maxTurns,
		"truce_until": gs.TruceUntil,
		"factions":    gs.FactionIDs(),
	})
	return gs, nil
}
