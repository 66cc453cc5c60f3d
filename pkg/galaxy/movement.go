package galaxy

import "math"

// processFleetMovement advances every traveling fleet: patrol interception
// on the crossed edge first, then progress by inverse distance, then arrival
// handling with the garrison cap.
func (e *Engine) processFleetMovement() {
	gs := e.state
	for _, fid := range gs.FleetIDs() {
		fleet := gs.Fleets[fid]
		if fleet.Destination == "" {
			continue
		}

		distance := e.topo.Distance(gs, fleet.Position, fleet.Destination)
		if distance <= 0 {
			continue
		}

		crossing := NewEdge(fleet.Position, fleet.Destination)
		totalStrength := 0
		for _, oid := range gs.FleetIDs() {
			other := gs.Fleets[oid]
			if other.Owner == fleet.Owner {
				continue
			}
			if other.Patrol != nil && *other.Patrol == crossing {
				totalStrength += other.Strength()
			}
		}
		if totalStrength > 0 {
			prob := math.Min(1, float64(totalStrength)*0.02)
			if e.rng.Float64() < prob {
				gs.AddEvent(EvFleetIntercepted, map[string]any{
					"faction": fleet.Owner,
					"fleet":   fleet.ID,
					"edge":    crossing.String(),
					"prob":    prob,
				})
				fleet.Destination = ""
				fleet.TravelProgress = 0
				continue
			}
		}

		fleet.TravelProgress += 1 / float64(distance)
		if fleet.TravelProgress < 1 {
			continue
		}

		fleet.Position = fleet.Destination
		fleet.Destination = ""
		fleet.TravelProgress = 0
		fleet.Proficiency = math.Min(100, fleet.Proficiency+0.5)

		gs.AddEvent(EvFleetArrived, map[string]any{
			"faction": fleet.Owner,
			"fleet":   fleet.ID,
			"planet":  fleet.Position,
		})
		e.enforceGarrisonCap(fleet)
	}
}

// GarrisonCap is the stationing limit at a planet: five fleets plus two per
// shipyard.
func (gs *GameState) GarrisonCap(planetID string) int {
	p := gs.Planets[planetID]
	if p == nil {
		return 5
	}
	return 5 + p.BuildingCount(Shipyard)*2
}

// enforceGarrisonCap relocates the just-arrived fleet to the first neighbor
// when the planet is over capacity. Landless owners are exempt so they can
// mass for a desperate assault.
func (e *Engine) enforceGarrisonCap(arrived *Fleet) {
	gs := e.state
	pid := arrived.Position

	countHere := 0
	for _, fl := range gs.Fleets {
		if fl.Position == pid {
			countHere++
		}
	}

	limit := gs.GarrisonCap(pid)
	if owner := gs.Factions[arrived.Owner]; owner != nil && len(owner.Planets) == 0 {
		return
	}
	if countHere <= limit {
		return
	}

	gs.AddEvent(EvGarrisonOverflow, map[string]any{
		"faction": arrived.Owner,
		"planet":  pid,
		"fleet":   arrived.ID,
	})
	neighbors := e.topo.ConnectedPlanets(gs, pid)
	if len(neighbors) > 0 {
		arrived.Position = neighbors[0]
	}
}
