package galaxy

import "sort"

// colonizeQuota is the per-faction claim limit per turn.
const colonizeQuota = 4

// colonizeConsume returns the population drawn from the origin planet; the
// colonization tech runs a leaner expedition.
func colonizeConsume(f *Faction) int {
	if f.HasTech(TechColonization) {
		return 3
	}
	return 10
}

// originPopFloor is the minimum population an origin planet must keep.
const originPopFloor = 10

type colonizeContender struct {
	power      float64
	originPop  int
	faction    *Faction
	fromPlanet string
}

// resolveColonization settles all colonize commands of the turn at once so
// rival claims on the same planet are compared, not raced. The strongest
// contender wins; losers learn they were outmatched.
func (e *Engine) resolveColonization(commands []Command) {
	if len(commands) == 0 {
		return
	}
	gs := e.state

	batches := map[string][]Command{}
	for _, cmd := range commands {
		if cmd.Colonize == nil || cmd.Colonize.ToPlanet == "" {
			continue
		}
		batches[cmd.Colonize.ToPlanet] = append(batches[cmd.Colonize.ToPlanet], cmd)
	}

	targets := make([]string, 0, len(batches))
	for t := range batches {
		targets = append(targets, t)
	}
	sort.Strings(targets)

	for _, targetID := range targets {
		target := gs.Planets[targetID]
		if target == nil || target.Owner != "" {
			continue
		}

		var contenders []colonizeContender
		for _, cmd := range batches[targetID] {
			faction := gs.Factions[cmd.Faction]
			if faction == nil {
				continue
			}
			from := cmd.Colonize.FromPlanet
			if from == "" || !faction.OwnsPlanet(from) {
				continue
			}
			if !contains(e.topo.ConnectedPlanets(gs, from), targetID) {
				continue
			}
			origin := gs.Planets[from]
			if origin == nil {
				continue
			}
			if e.colonizeCounts[faction.ID] >= colonizeQuota {
				gs.AddEvent(EvColonizationFailed, map[string]any{
					"faction": faction.ID,
					"planet":  targetID,
					"reason":  "quota_exhausted",
				})
				continue
			}
			consume := colonizeConsume(faction)
			if origin.Population < originPopFloor+consume {
				gs.AddEvent(EvColonizationFailed, map[string]any{
					"faction": faction.ID,
					"planet":  targetID,
					"reason":  "insufficient_population",
				})
				continue
			}
			contenders = append(contenders, colonizeContender{
				power:      FactionPower(gs, faction),
				originPop:  origin.Population,
				faction:    faction,
				fromPlanet: from,
			})
		}
		if len(contenders) == 0 {
			continue
		}

		sort.Slice(contenders, func(i, j int) bool {
			a, b := contenders[i], contenders[j]
			if a.power != b.power {
				return a.power < b.power
			}
			if a.originPop != b.originPop {
				return a.originPop < b.originPop
			}
			return a.faction.ID < b.faction.ID
		})
		winner := contenders[len(contenders)-1]

		origin := gs.Planets[winner.fromPlanet]
		consume := colonizeConsume(winner.faction)
		if origin == nil || origin.Population < originPopFloor+consume {
			gs.AddEvent(EvColonizationFailed, map[string]any{
				"faction": winner.faction.ID,
				"planet":  targetID,
				"reason":  "insufficient_population",
			})
			continue
		}

		gs.transferPlanet(target, winner.faction.ID)
		bonusPop := 0
		if winner.faction.HasTech(TechColonization) {
			bonusPop = e.rng.Intn(5) + 1
		}
		target.Population = 10 + bonusPop
		origin.Population = max(originPopFloor, origin.Population-consume)
		e.colonizeCounts[winner.faction.ID]++

		gs.AddEvent(EvColonization, map[string]any{
			"faction": winner.faction.ID,
			"planet":  targetID,
			"from":    winner.fromPlanet,
		})
		for _, loser := range contenders[:len(contenders)-1] {
			gs.AddEvent(EvColonizationContested, map[string]any{
				"faction": loser.faction.ID,
				"planet":  targetID,
				"winner":  winner.faction.ID,
			})
		}
	}
}

func contains(haystack []string, needle string) bool {
	for _, s := range haystack {
		if s == needle {
			return true
		}
	}
	return false
}
