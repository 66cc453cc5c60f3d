package galaxy

import (
	"errors"
	"fmt"
)

// Errors returned by the player-facing fleet and assault operations.
var (
	ErrNotFound              = errors.New("not found")
	ErrNotOwner              = errors.New("not the owner")
	ErrInsufficientResources = errors.New("insufficient resources")
	ErrGarrisonFull          = errors.New("garrison full")
	ErrNotAdjacent           = errors.New("destination not adjacent")
	ErrNoSuchEdge            = errors.New("no such connection")
	ErrPatrolCapReached      = errors.New("patrol cap reached")
	ErrNotEligible           = errors.New("not eligible for assault")
	ErrNotEnoughShips        = errors.New("not enough ships")
	ErrPlanetUnowned         = errors.New("planet is unowned")
)

// flatStationLimit is the pre-check stationing limit used when issuing
// orders; arrival re-checks against the shipyard-adjusted cap.
const flatStationLimit = 5

// CreateFleet builds a new fleet at an owned planet, paying the per-ship
// mineral and energy costs from the faction stockpile.
func (e *Engine) CreateFleet(factionID, planetID string, ships map[ShipType]int) (*Fleet, error) {
	gs := e.state
	faction := gs.Factions[factionID]
	if faction == nil {
		return nil, fmt.Errorf("faction %q: %w", factionID, ErrNotFound)
	}
	planet := gs.Planets[planetID]
	if planet == nil {
		return nil, fmt.Errorf("planet %q: %w", planetID, ErrNotFound)
	}
	if planet.Owner != factionID {
		return nil, ErrNotOwner
	}

	needMinerals, needEnergy := 0.0, 0.0
	composition := map[ShipType]int{}
	for st, n := range ships {
		if n <= 0 {
			continue
		}
		m, en := ShipCost(st)
		if m == 0 && en == 0 {
			continue
		}
		needMinerals += m * float64(n)
		needEnergy += en * float64(n)
		composition[st] = n
	}
	if faction.Resources.Minerals < needMinerals || faction.Resources.Energy < needEnergy {
		return nil, ErrInsufficientResources
	}

	stationed := 0
	for _, fl := range gs.Fleets {
		if fl.Position == planetID {
			stationed++
		}
	}
	if stationed >= flatStationLimit {
		return nil, ErrGarrisonFull
	}

	faction.Resources.Minerals -= needMinerals
	faction.Resources.Energy -= needEnergy

	fleet := &Fleet{
		ID:       fmt.Sprintf("fleet_%s_%d", factionID, len(gs.Fleets)),
		Owner:    factionID,
		Ships:    composition,
		Position: planetID,
	}
	gs.Fleets[fleet.ID] = fleet
	faction.Fleets = append(faction.Fleets, fleet.ID)

	gs.AddEvent(EvFleetCreated, map[string]any{
		"faction": factionID,
		"planet":  planetID,
		"fleet":   fleet.ID,
	})
	return fleet, nil
}

// ReinforceFleet adds ships at full cost or scraps them for a 50% refund.
// Positive deltas buy, negative deltas scrap. Returns the refunded amounts.
func (e *Engine) ReinforceFleet(factionID, fleetID string, delta map[ShipType]int) (refundMinerals, refundEnergy float64, err error) {
	gs := e.state
	faction := gs.Factions[factionID]
	if faction == nil {
		return 0, 0, fmt.Errorf("faction %q: %w", factionID, ErrNotFound)
	}
	fleet := gs.Fleets[fleetID]
	if fleet == nil {
		return 0, 0, fmt.Errorf("fleet %q: %w", fleetID, ErrNotFound)
	}
	if fleet.Owner != factionID {
		return 0, 0, ErrNotOwner
	}

	needMinerals, needEnergy := 0.0, 0.0
	for st, n := range delta {
		if n == 0 {
			continue
		}
		m, en := ShipCost(st)
		if m == 0 && en == 0 {
			continue
		}
		if n > 0 {
			needMinerals += m * float64(n)
			needEnergy += en * float64(n)
		} else {
			refundMinerals += m * float64(-n) * 0.5
			refundEnergy += en * float64(-n) * 0.5
		}
	}
	if needMinerals > 0 || needEnergy > 0 {
		if faction.Resources.Minerals < needMinerals || faction.Resources.Energy < needEnergy {
			return 0, 0, ErrInsufficientResources
		}
		faction.Resources.Minerals -= needMinerals
		faction.Resources.Energy -= needEnergy
	}
	faction.Resources.Minerals += refundMinerals
	faction.Resources.Energy += refundEnergy

	if fleet.Ships == nil {
		fleet.Ships = map[ShipType]int{}
	}
	for st, n := range delta {
		if n == 0 {
			continue
		}
		if m, en := ShipCost(st); m == 0 && en == 0 {
			continue
		}
		fleet.Ships[st] = max(0, fleet.Ships[st]+n)
	}

	gs.AddEvent(EvFleetReinforced, map[string]any{
		"faction": factionID,
		"fleet":   fleetID,
	})
	return refundMinerals, refundEnergy, nil
}

// SetPatrol stations the fleet on a connection edge so it can intercept
// hostile movement across it. Honors the faction's per-edge allocation cap.
func (e *Engine) SetPatrol(factionID, fleetID, a, b string) error {
	gs := e.state
	faction := gs.Factions[factionID]
	if faction == nil {
		return fmt.Errorf("faction %q: %w", factionID, ErrNotFound)
	}
	fleet := gs.Fleets[fleetID]
	if fleet == nil {
		return fmt.Errorf("fleet %q: %w", fleetID, ErrNotFound)
	}
	if fleet.Owner != factionID {
		return ErrNotOwner
	}
	if !gs.HasEdge(a, b) {
		return ErrNoSuchEdge
	}

	edge := NewEdge(a, b)
	if limit, ok := faction.EdgeAllocCaps[edge]; ok {
		current := 0
		for _, fl := range gs.Fleets {
			if fl.Owner == factionID && fl.Patrol != nil && *fl.Patrol == edge {
				current++
			}
		}
		if current >= limit {
			return ErrPatrolCapReached
		}
	}
	fleet.Patrol = &edge

	gs.AddEvent(EvFleetPatrol, map[string]any{
		"faction": factionID,
		"fleet":   fleetID,
		"edge":    edge.String(),
	})
	return nil
}

// OrderMove sends the fleet toward an adjacent planet. The destination's
// garrison is pre-checked here and re-checked on arrival.
func (e *Engine) OrderMove(factionID, fleetID, destination string) error {
	gs := e.state
	faction := gs.Factions[factionID]
	if faction == nil {
		return fmt.Errorf("faction %q: %w", factionID, ErrNotFound)
	}
	fleet := gs.Fleets[fleetID]
	if fleet == nil {
		return fmt.Errorf("fleet %q: %w", fleetID, ErrNotFound)
	}
	if fleet.Owner != factionID {
		return ErrNotOwner
	}
	if _, ok := gs.Planets[destination]; !ok {
		return fmt.Errorf("planet %q: %w", destination, ErrNotFound)
	}
	if !contains(e.topo.ConnectedPlanets(gs, fleet.Position), destination) {
		return ErrNotAdjacent
	}

	if limit, ok := faction.PlanetAllocCaps[destination]; ok {
		own := 0
		for _, fl := range gs.Fleets {
			if fl.Owner == factionID && fl.Position == destination {
				own++
			}
		}
		if own >= limit {
			return ErrGarrisonFull
		}
	} else {
		stationed := 0
		for _, fl := range gs.Fleets {
			if fl.Position == destination {
				stationed++
			}
		}
		if stationed >= flatStationLimit {
			return ErrGarrisonFull
		}
	}

	fleet.Destination = destination
	fleet.TravelProgress = 0

	gs.AddEvent(EvFleetMovement, map[string]any{
		"faction":     factionID,
		"fleet":       fleetID,
		"destination": destination,
	})
	return nil
}

// AssaultAlwaysFactions returns the factions holding the standing assault
// privilege: once the truce ends, whoever fields the most fleets (ties
// share it).
func (e *Engine) AssaultAlwaysFactions() map[string]bool {
	gs := e.state
	if e.truceActive() {
		return nil
	}
	maxCount := 0
	for _, fid := range gs.FactionIDs() {
		if n := len(gs.Factions[fid].Fleets); n > maxCount {
			maxCount = n
		}
	}
	if maxCount == 0 {
		return nil
	}
	leaders := map[string]bool{}
	for _, fid := range gs.FactionIDs() {
		if len(gs.Factions[fid].Fleets) == maxCount {
			leaders[fid] = true
		}
	}
	return leaders
}

// AssaultReport describes an assault attempt or preview.
type AssaultReport struct {
	Qualified     bool    `json:"qualified"`
	AssaultAlways bool    `json:"assault_always"`
	ShipsHere     int     `json:"ships_here"`
	Threshold     int     `json:"threshold"`
	Defender      string  `json:"defender,omitempty"`
	AttackPower   float64 `json:"attack_power"`
	DefensePower  float64 `json:"defense_power"`
	Probability   float64 `json:"probability"`
	Captured      bool    `json:"captured"`
}

// AssaultPreview reports eligibility and odds for an assault without
// changing anything.
func (e *Engine) AssaultPreview(factionID, planetID string) (*AssaultReport, error) {
	gs := e.state
	attacker := gs.Factions[factionID]
	if attacker == nil {
		return nil, fmt.Errorf("faction %q: %w", factionID, ErrNotFound)
	}
	planet := gs.Planets[planetID]
	if planet == nil {
		return nil, fmt.Errorf("planet %q: %w", planetID, ErrNotFound)
	}

	leaders := e.AssaultAlwaysFactions()
	report := &AssaultReport{
		Qualified:     len(attacker.Planets) == 0 || leaders[factionID],
		AssaultAlways: leaders[factionID],
		ShipsHere:     e.countShipsAt(factionID, planetID),
		Threshold:     gs.Rules.DesperateCaptureThreshold,
		Defender:      planet.Owner,
	}
	if planet.Owner != "" {
		if defender := gs.Factions[planet.Owner]; defender != nil {
			report.AttackPower, report.DefensePower, report.Probability =
				e.CaptureOdds(attacker, defender, planet)
		}
	}
	return report, nil
}

// Assault runs a player-triggered capture attempt outside the war-plan
// phase. Truce and shield defenses still apply inside AttemptCapture.
func (e *Engine) Assault(factionID, planetID string) (*AssaultReport, error) {
	gs := e.state
	attacker := gs.Factions[factionID]
	if attacker == nil {
		return nil, fmt.Errorf("faction %q: %w", factionID, ErrNotFound)
	}
	planet := gs.Planets[planetID]
	if planet == nil {
		return nil, fmt.Errorf("planet %q: %w", planetID, ErrNotFound)
	}

	report, err := e.AssaultPreview(factionID, planetID)
	if err != nil {
		return nil, err
	}
	if !report.Qualified {
		return report, ErrNotEligible
	}
	if planet.Owner == "" {
		return report, ErrPlanetUnowned
	}
	if report.ShipsHere <= gs.Rules.DesperateCaptureThreshold {
		return report, ErrNotEnoughShips
	}
	defender := gs.Factions[planet.Owner]
	if defender == nil {
		return report, ErrPlanetUnowned
	}

	report.Captured = e.AttemptCapture(attacker, defender, planet)
	return report, nil
}
