// Package galaxy implements the world model and turn resolution engine for a
// turn-based space-strategy simulation: factions colonize and fight over a
// graph of planets, advanced one discrete turn at a time.
package galaxy

import (
	"sort"
	"time"
)

// PlanetType classifies a planet's environment. Cosmetic to the engine.
type PlanetType string

const (
	Desert   PlanetType = "desert"
	Oceanic  PlanetType = "oceanic"
	Tropical PlanetType = "tropical"
	Arctic   PlanetType = "arctic"
	Barren   PlanetType = "barren"
	GasGiant PlanetType = "gas_giant"
)

// BuildingType identifies a planetary structure.
type BuildingType string

const (
	EnergyPlant    BuildingType = "energy_plant"
	MiningStation  BuildingType = "mining_station"
	ResearchLab    BuildingType = "research_lab"
	Shipyard       BuildingType = "shipyard"
	DefenseStation BuildingType = "defense_station"
)

// MaxBuildings is the per-planet building cap.
const MaxBuildings = 5

// ShipType identifies a class of warship.
type ShipType string

const (
	Scout      ShipType = "scout"
	Corvette   ShipType = "corvette"
	Destroyer  ShipType = "destroyer"
	Cruiser    ShipType = "cruiser"
	Battleship ShipType = "battleship"
)

// shipPower is the combat strength contributed by one ship of each class.
var shipPower = map[ShipType]int{
	Scout:      1,
	Corvette:   3,
	Destroyer:  8,
	Cruiser:    20,
	Battleship: 50,
}

// ShipCost returns the mineral and energy cost of one ship of the given class.
func ShipCost(st ShipType) (minerals, energy float64) {
	switch st {
	case Scout:
		return 1, 3
	case Corvette:
		return 3, 6
	case Destroyer:
		return 8, 12
	case Cruiser:
		return 20, 30
	case Battleship:
		return 50, 80
	}
	return 0, 0
}

// DiplomacyStatus is the bilateral relationship between two factions.
type DiplomacyStatus string

const (
	Neutral  DiplomacyStatus = "neutral"
	Friendly DiplomacyStatus = "friendly"
	Allied   DiplomacyStatus = "allied"
	Hostile  DiplomacyStatus = "hostile"
	War      DiplomacyStatus = "war"
)

// StrategyMode is a faction's standing military posture.
type StrategyMode string

const (
	ModePeace  StrategyMode = "peace"
	ModeAttack StrategyMode = "attack"
	ModeDefend StrategyMode = "defend"
)

// Resources holds a faction's (or a planet's per-turn) stockpile.
type Resources struct {
	Energy   float64 `json:"energy"`
	Minerals float64 `json:"minerals"`
	Research float64 `json:"research"`
}

// Add accumulates other into r.
func (r *Resources) Add(other Resources) {
	r.Energy += other.Energy
	r.Minerals += other.Minerals
	r.Research += other.Research
}

// Spend deducts cost from r, or returns false untouched if insufficient.
func (r *Resources) Spend(cost Resources) bool {
	if r.Energy < cost.Energy || r.Minerals < cost.Minerals || r.Research < cost.Research {
		return false
	}
	r.Energy -= cost.Energy
	r.Minerals -= cost.Minerals
	r.Research -= cost.Research
	return true
}

// Technology is a researchable advance. Effects are consumed by the
// subsystems that care about them (shields, colonization bonuses, ...).
type Technology struct {
	ID            string         `json:"id"`
	Name          string         `json:"name"`
	Cost          float64        `json:"cost"`
	Prerequisites []string       `json:"prerequisites,omitempty"`
	Effects       map[string]any `json:"effects,omitempty"`
}

// Well-known technology IDs referenced by the engine.
const (
	TechLaser        = "tech_laser"
	TechShields      = "tech_shields"
	TechFTL          = "tech_ftl"
	TechColonization = "tech_colonization"
	TechMining       = "tech_mining"
	TechPower        = "tech_power"
)

// Planet is a colonizable world. Owner changes only through colonization or
// capture; population never goes negative.
type Planet struct {
	ID         string         `json:"id"`
	Name       string         `json:"name"`
	Type       PlanetType     `json:"type"`
	Position   [2]int         `json:"position"`
	Owner      string         `json:"owner,omitempty"`
	Population int            `json:"population"`
	Buildings  []BuildingType `json:"buildings"`
	Production Resources      `json:"production"`

	// ProtectedUntilTurn is the beachhead window: while the current turn is
	// below it, the planet defends at 1.2x against recapture.
	ProtectedUntilTurn int `json:"protected_until_turn,omitempty"`
}

// CalculateProduction returns the planet's per-turn resource output from its
// base yield, buildings, and population.
func (p *Planet) CalculateProduction() Resources {
	prod := Resources{Energy: 5, Minerals: 3, Research: 1}
	for _, b := range p.Buildings {
		switch b {
		case EnergyPlant:
			prod.Energy += 10
		case MiningStation:
			prod.Minerals += 10
		case ResearchLab:
			prod.Research += 10
		}
	}
	prod.Energy += float64(p.Population) * 0.5
	prod.Minerals += float64(p.Population) * 0.3
	prod.Research += float64(p.Population) * 0.2
	return prod
}

// HasBuilding reports whether the planet has at least one building of type b.
func (p *Planet) HasBuilding(b BuildingType) bool {
	return p.BuildingCount(b) > 0
}

// BuildingCount returns how many buildings of type b the planet has.
func (p *Planet) BuildingCount(b BuildingType) int {
	n := 0
	for _, have := range p.Buildings {
		if have == b {
			n++
		}
	}
	return n
}

// Fleet is a group of ships stationed at or traveling between planets.
type Fleet struct {
	ID             string           `json:"id"`
	Owner          string           `json:"owner,omitempty"`
	Ships          map[ShipType]int `json:"ships"`
	Position       string           `json:"position"`
	Destination    string           `json:"destination,omitempty"`
	TravelProgress float64          `json:"travel_progress"`
	Patrol         *Edge            `json:"patrol,omitempty"`
	Proficiency    float64          `json:"proficiency"`
	ExiledFrom     string           `json:"exiled_from,omitempty"`
}

// Strength is the fleet's combat power: the class-weighted ship count.
func (f *Fleet) Strength() int {
	total := 0
	for st, count := range f.Ships {
		total += shipPower[st] * count
	}
	return total
}

// ShipCount is the total number of ships regardless of class.
func (f *Fleet) ShipCount() int {
	total := 0
	for _, count := range f.Ships {
		total += count
	}
	return total
}

// Faction is one competing power, human or AI driven.
type Faction struct {
	ID               string                     `json:"id"`
	Name             string                     `json:"name"`
	IsAI             bool                       `json:"is_ai"`
	Resources        Resources                  `json:"resources"`
	Planets          []string                   `json:"planets"`
	Fleets           []string                   `json:"fleets"`
	Technologies     []string                   `json:"technologies"`
	ResearchProgress map[string]float64         `json:"research_progress"`
	Diplomacy        map[string]DiplomacyStatus `json:"diplomacy"`
	Reputation       float64                    `json:"reputation"`

	StrategyMode   StrategyMode `json:"strategy_mode"`
	WarTarget      string       `json:"war_target,omitempty"`
	DefenseFocus   []string     `json:"defense_focus,omitempty"`
	AttackCharges  int          `json:"attack_charges"`
	DefenseCharges int          `json:"defense_charges"`

	// Optional per-planet / per-edge fleet allocation caps set by the player.
	PlanetAllocCaps map[string]int `json:"planet_alloc_caps,omitempty"`
	EdgeAllocCaps   map[Edge]int   `json:"edge_alloc_caps,omitempty"`
}

// HasTech reports whether the faction has completed the given technology.
func (f *Faction) HasTech(id string) bool {
	for _, t := range f.Technologies {
		if t == id {
			return true
		}
	}
	return false
}

// StatusWith returns the diplomacy status toward the other faction,
// defaulting to neutral.
func (f *Faction) StatusWith(other string) DiplomacyStatus {
	if s, ok := f.Diplomacy[other]; ok {
		return s
	}
	return Neutral
}

// OwnsPlanet reports whether planetID is in the faction's planet list.
func (f *Faction) OwnsPlanet(planetID string) bool {
	for _, p := range f.Planets {
		if p == planetID {
			return true
		}
	}
	return false
}

// Rules are the externally configurable rule constants, read-only to the
// engine after game start.
type Rules struct {
	DesperateCaptureThreshold int `json:"desperate_capture_threshold"`
	MaxTurns                  int `json:"max_turns"`
}

// VictoryConfig gates the optional victory paths. Tech and economic victory
// ship disabled by default.
type VictoryConfig struct {
	TechVictoryEnabled bool      `json:"tech_victory_enabled"`
	TechRequiredIDs    []string  `json:"tech_required_ids,omitempty"`
	TechScoreThreshold float64   `json:"tech_score_threshold,omitempty"`
	EconVictoryEnabled bool      `json:"econ_victory_enabled"`
	EconWindow         int       `json:"econ_window,omitempty"`
	EconThreshold      float64   `json:"econ_threshold,omitempty"`
	EconWeights        Resources `json:"econ_weights"`
}

// GameState is the process-wide mutable world aggregate. It is created once
// at game start and mutated exclusively by the turn pipeline and command
// handlers; callers must serialize access (one ProcessTurn at a time).
type GameState struct {
	Turn         int                    `json:"turn"`
	Planets      map[string]*Planet     `json:"planets"`
	Factions     map[string]*Faction    `json:"factions"`
	Fleets       map[string]*Fleet      `json:"fleets"`
	Technologies map[string]*Technology `json:"technologies"`
	Connections  []Edge                 `json:"connections"`
	Events       []Event                `json:"events"`

	PendingCommands []Command `json:"pending_commands,omitempty"`

	Rules   Rules         `json:"rules"`
	Victory VictoryConfig `json:"victory_config"`

	// EconHistory is per-faction, per-turn economic score, append-only.
	EconHistory map[string][]float64 `json:"econ_history"`
	// PowerHistory holds one power-score snapshot per resolved turn.
	PowerHistory []map[string]float64 `json:"power_history"`

	// Siege maps planet ID -> attacker faction ID -> accumulated siege
	// points. Entries decay by 1 per turn and clear on capture.
	Siege map[string]map[string]int `json:"siege,omitempty"`

	GameStartTime time.Time `json:"game_start_time"`
	TruceUntil    time.Time `json:"truce_until,omitzero"`
	AllowPostgame bool      `json:"allow_postgame"`

	GameOver    bool               `json:"game_over"`
	Winner      string             `json:"winner,omitempty"`
	EndReason   string             `json:"end_reason,omitempty"`
	FinalScores map[string]float64 `json:"final_scores,omitempty"`
}

// FactionIDs returns all faction IDs in sorted order, for deterministic
// iteration over the faction map.
func (gs *GameState) FactionIDs() []string {
	ids := make([]string, 0, len(gs.Factions))
	for id := range gs.Factions {
		ids = append(ids, id)
	}
	sort.Strings(ids)
	return ids
}

// PlanetIDs returns all planet IDs in sorted order.
func (gs *GameState) PlanetIDs() []string {
	ids := make([]string, 0, len(gs.Planets))
	for id := range gs.Planets {
		ids = append(ids, id)
	}
	sort.Strings(ids)
	return ids
}

// FleetIDs returns all fleet IDs in sorted order.
func (gs *GameState) FleetIDs() []string {
	ids := make([]string, 0, len(gs.Fleets))
	for id := range gs.Fleets {
		ids = append(ids, id)
	}
	sort.Strings(ids)
	return ids
}

// FleetsAt returns the fleets stationed at the given planet, sorted by ID.
func (gs *GameState) FleetsAt(planetID string) []*Fleet {
	var fleets []*Fleet
	for _, id := range gs.FleetIDs() {
		if f := gs.Fleets[id]; f.Position == planetID {
			fleets = append(fleets, f)
		}
	}
	return fleets
}

// transferPlanet moves ownership of planet to the faction with the given ID,
// keeping the planet/owner lists bidirectionally consistent. An empty newOwner
// leaves the planet unowned.
func (gs *GameState) transferPlanet(planet *Planet, newOwner string) {
	if planet.Owner != "" {
		if old := gs.Factions[planet.Owner]; old != nil {
			for i, pid := range old.Planets {
				if pid == planet.ID {
					old.Planets = append(old.Planets[:i], old.Planets[i+1:]...)
					break
				}
			}
		}
	}
	planet.Owner = newOwner
	if newOwner == "" {
		return
	}
	if f := gs.Factions[newOwner]; f != nil && !f.OwnsPlanet(planet.ID) {
		f.Planets = append(f.Planets, planet.ID)
	}
}

// clampReputation keeps faction reputation within [0, 100].
func clampReputation(f *Faction) {
	if f.Reputation < 0 {
		f.Reputation = 0
	}
	if f.Reputation > 100 {
		f.Reputation = 100
	}
}
