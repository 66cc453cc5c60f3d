package galaxy

import (
	"math"
	"sort"
)

// resolveCombat fights every hostile pair of fleets sharing a planet. The
// truce window suppresses all fleet combat.
func (e *Engine) resolveCombat() {
	gs := e.state
	if e.truceActive() {
		return
	}

	byPlanet := map[string][]*Fleet{}
	for _, fid := range gs.FleetIDs() {
		fl := gs.Fleets[fid]
		byPlanet[fl.Position] = append(byPlanet[fl.Position], fl)
	}

	planets := make([]string, 0, len(byPlanet))
	for pid := range byPlanet {
		planets = append(planets, pid)
	}
	sort.Strings(planets)

	for _, pid := range planets {
		fleets := byPlanet[pid]
		if len(fleets) < 2 {
			continue
		}
		for i, fleet1 := range fleets {
			for _, fleet2 := range fleets[i+1:] {
				faction1 := gs.Factions[fleet1.Owner]
				if faction1 == nil {
					continue
				}
				status := faction1.StatusWith(fleet2.Owner)
				if status == Hostile || status == War {
					e.fight(fleet1, fleet2, pid)
				}
			}
		}
	}
}

// fight applies one round of mutual attrition. Both fleets lose ships in
// proportion to the opposing strength; proficiency shifts effective strength
// by up to 10% and grows with the experience.
func (e *Engine) fight(fleet1, fleet2 *Fleet, planetID string) {
	s1 := float64(fleet1.Strength()) * (1 + clampFloat(fleet1.Proficiency/100, -0.1, 0.1))
	s2 := float64(fleet2.Strength()) * (1 + clampFloat(fleet2.Proficiency/100, -0.1, 0.1))

	total := s1 + s2
	if total == 0 {
		return
	}

	applyLosses(fleet1, s2/total)
	applyLosses(fleet2, s1/total)

	winner := fleet2.Owner
	winnerFleet, loserFleet := fleet2, fleet1
	if s1 >= s2 {
		winner = fleet1.Owner
		winnerFleet, loserFleet = fleet1, fleet2
	}
	winnerFleet.Proficiency = math.Min(100, winnerFleet.Proficiency+1.5)
	loserFleet.Proficiency = math.Min(100, loserFleet.Proficiency+1.0)

	e.state.AddEvent(EvCombat, map[string]any{
		"planet": planetID,
		"fleet1": fleet1.ID,
		"fleet2": fleet2.ID,
		"winner": winner,
	})
}

// applyLosses removes half the damage-ratio share of each ship class.
func applyLosses(fleet *Fleet, damageRatio float64) {
	types := make([]ShipType, 0, len(fleet.Ships))
	for st := range fleet.Ships {
		types = append(types, st)
	}
	sort.Slice(types, func(i, j int) bool { return types[i] < types[j] })

	for _, st := range types {
		losses := int(float64(fleet.Ships[st]) * damageRatio * 0.5)
		fleet.Ships[st] = max(0, fleet.Ships[st]-losses)
	}
}
