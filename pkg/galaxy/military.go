package galaxy

import (
	"math"
	"sort"
)

// refreshMilitaryCapacity recomputes each faction's attack and defense
// charges for the turn and prunes defense focus entries for lost planets.
func (e *Engine) refreshMilitaryCapacity() {
	gs := e.state
	for _, fid := range gs.FactionIDs() {
		faction := gs.Factions[fid]
		power := FactionPower(gs, faction)
		base := 1 + max(0, gs.Turn/5)

		faction.AttackCharges = clampCharges(base + int(power/600))

		stations := 0
		for _, pid := range faction.Planets {
			if p := gs.Planets[pid]; p != nil {
				stations += p.BuildingCount(DefenseStation)
			}
		}
		faction.DefenseCharges = clampCharges(base + stations/2)

		var kept []string
		for _, pid := range faction.DefenseFocus {
			if faction.OwnsPlanet(pid) {
				kept = append(kept, pid)
			}
		}
		faction.DefenseFocus = kept
	}
}

func clampCharges(n int) int {
	if n < 1 {
		return 1
	}
	if n > 6 {
		return 6
	}
	return n
}

// resolveWarPlans runs every attacking faction's ground campaign against its
// declared war target, spending attack charges on border planets.
func (e *Engine) resolveWarPlans() {
	gs := e.state
	if e.truceActive() {
		return
	}
	for _, fid := range gs.FactionIDs() {
		faction := gs.Factions[fid]
		if faction.StrategyMode != ModeAttack || faction.WarTarget == "" {
			continue
		}
		if faction.AttackCharges <= 0 {
			continue
		}
		target := gs.Factions[faction.WarTarget]
		if target == nil {
			continue
		}

		attackable := e.attackablePlanets(faction, target)
		for faction.AttackCharges > 0 && len(attackable) > 0 {
			planetID := e.selectAttackTarget(target, attackable)
			planet := gs.Planets[planetID]
			if planet == nil {
				attackable = removeString(attackable, planetID)
				continue
			}

			success := e.AttemptCapture(faction, target, planet)
			faction.AttackCharges--

			if success {
				attackable = e.attackablePlanets(faction, target)
			} else {
				gs.AddEvent(EvDefenseSuccess, map[string]any{
					"faction": target.ID,
					"planet":  planetID,
				})
			}
		}
	}
}

// attackablePlanets lists the defender's planets adjacent to at least one of
// the attacker's, sorted by ID.
func (e *Engine) attackablePlanets(attacker, defender *Faction) []string {
	gs := e.state
	var out []string
	for _, pid := range defender.Planets {
		for _, n := range e.topo.ConnectedPlanets(gs, pid) {
			if attacker.OwnsPlanet(n) {
				out = append(out, pid)
				break
			}
		}
	}
	sort.Strings(out)
	return out
}

// selectAttackTarget prefers high-population planets lacking defenses and
// outside the defender's focus; ties go to the lowest planet ID.
func (e *Engine) selectAttackTarget(defender *Faction, candidates []string) string {
	gs := e.state
	bestID := ""
	bestScore := math.Inf(-1)
	for _, pid := range candidates {
		planet := gs.Planets[pid]
		if planet == nil {
			continue
		}
		score := float64(planet.Population)
		if planet.HasBuilding(DefenseStation) {
			score -= 25
		}
		if contains(defender.DefenseFocus, pid) {
			score -= 30
		}
		if score > bestScore {
			bestScore = score
			bestID = pid
		}
	}
	if bestID == "" && len(candidates) > 0 {
		return candidates[0]
	}
	return bestID
}

// CaptureOdds reports the effective attack and defense powers and the
// success probability of an assault on planet, without mutating state.
func (e *Engine) CaptureOdds(attacker, defender *Faction, planet *Planet) (attackPower, defensePower, prob float64) {
	beachhead := 1.0
	if planet.ProtectedUntilTurn > 0 && e.state.Turn < planet.ProtectedUntilTurn {
		beachhead = 1.2
	}
	attackPower, defensePower = e.captureEffectivePowers(attacker, defender, planet, beachhead)
	return attackPower, defensePower, captureProbability(attackPower, defensePower)
}

// captureProbability smooths the power ratio with an exponent so modest
// advantages do not guarantee the outcome.
func captureProbability(attackPower, defensePower float64) float64 {
	const alpha = 1.1
	a := math.Pow(math.Max(0, attackPower), alpha)
	d := math.Pow(math.Max(0, defensePower), alpha)
	if a+d <= 0 {
		return 0
	}
	return a / (a + d)
}

// AttemptCapture runs one assault on planet and reports whether ownership
// changed. Layered defenses are checked before the power roll: the truce
// window, the defender's charges, independent station and tech blocks, and
// the late-game energy shield.
func (e *Engine) AttemptCapture(attacker, defender *Faction, planet *Planet) bool {
	gs := e.state

	if e.truceActive() {
		return false
	}

	beachhead := 1.0
	if planet.ProtectedUntilTurn > 0 && gs.Turn < planet.ProtectedUntilTurn {
		beachhead = 1.2
	}

	// A landless faction that has massed enough ships here takes the planet
	// outright; only the energy shield can stop it.
	if len(attacker.Planets) == 0 {
		shipsHere := e.countShipsAt(attacker.ID, planet.ID)
		if shipsHere > gs.Rules.DesperateCaptureThreshold {
			if e.canUseEnergyShield(defender) {
				gs.AddEvent(EvShieldDefense, map[string]any{
					"faction": defender.ID,
					"planet":  planet.ID,
				})
				return false
			}
			gs.transferPlanet(planet, attacker.ID)
			gs.AddEvent(EvPlanetConquered, map[string]any{
				"faction":    attacker.ID,
				"planet":     planet.ID,
				"ships_used": shipsHere,
				"desperate":  true,
				"threshold":  gs.Rules.DesperateCaptureThreshold,
			})
			return true
		}
	}

	defended := false
	switch {
	case defender.StrategyMode == ModeDefend && defender.DefenseCharges > 0:
		defender.DefenseCharges--
		defended = true
	case planet.HasBuilding(DefenseStation) && defender.DefenseCharges > 0:
		defender.DefenseCharges--
		defended = true
	}

	if !defended {
		if planet.HasBuilding(DefenseStation) && e.rng.Float64() < 0.3 {
			defended = true
		}
		techBlock := 0.0
		if defender.HasTech(TechLaser) {
			techBlock += 0.15
		}
		if defender.HasTech(TechFTL) {
			techBlock += 0.15
		}
		if !defended && techBlock > 0 && e.rng.Float64() < techBlock {
			defended = true
		}
		if !defended && e.canUseEnergyShield(defender) {
			defended = true
			gs.AddEvent(EvShieldDefense, map[string]any{
				"faction": defender.ID,
				"planet":  planet.ID,
			})
		}
	}
	if defended {
		return false
	}

	attackPower, defensePower := e.captureEffectivePowers(attacker, defender, planet, beachhead)
	prob := captureProbability(attackPower, defensePower)

	roll := e.rng.Float64()
	if roll < prob {
		defender.Diplomacy[attacker.ID] = War
		attacker.Diplomacy[defender.ID] = War

		gs.transferPlanet(planet, attacker.ID)
		planet.Population = max(10, int(math.Round(float64(planet.Population)*0.7)))
		planet.ProtectedUntilTurn = gs.Turn + 2
		delete(gs.Siege, planet.ID)

		gs.AddEvent(EvPlanetConquered, map[string]any{
			"faction": attacker.ID,
			"planet":  planet.ID,
			"from":    defender.ID,
			"capture": map[string]any{
				"attack_power":  attackPower,
				"defense_power": defensePower,
				"prob":          prob,
			},
		})
		return true
	}

	if gs.Siege == nil {
		gs.Siege = map[string]map[string]int{}
	}
	if gs.Siege[planet.ID] == nil {
		gs.Siege[planet.ID] = map[string]int{}
	}
	gs.Siege[planet.ID][attacker.ID]++

	gs.AddEvent(EvDefenseSuccess, map[string]any{
		"faction": defender.ID,
		"planet":  planet.ID,
		"capture": map[string]any{
			"attack_power":  attackPower,
			"defense_power": defensePower,
			"prob":          prob,
			"roll":          roll,
		},
	})
	return false
}

// captureEffectivePowers computes both sides' effective strength at planet:
// stationed fleet strength scaled by proficiency, technology, adjacency
// support, defenses, siege wear, and the beachhead window.
func (e *Engine) captureEffectivePowers(attacker, defender *Faction, planet *Planet, beachhead float64) (float64, float64) {
	gs := e.state

	atkRaw := 0.0
	profSum := 0.0
	profSamples := 0
	defRaw := 0.0
	for _, fid := range gs.FleetIDs() {
		fl := gs.Fleets[fid]
		if fl.Position != planet.ID {
			continue
		}
		switch fl.Owner {
		case attacker.ID:
			atkRaw += float64(fl.Strength())
			profSum += fl.Proficiency
			profSamples++
		case defender.ID:
			defRaw += float64(fl.Strength())
		}
	}

	avgProf := 0.0
	if profSamples > 0 {
		avgProf = profSum / float64(profSamples)
	}
	profMult := 1 + clampFloat(avgProf/100, -0.1, 0.1)

	techMult := 1.0
	if attacker.HasTech(TechLaser) {
		techMult += 0.10
	}
	if attacker.HasTech(TechFTL) {
		techMult += 0.05
	}

	adjOwn := 0
	for _, n := range e.topo.ConnectedPlanets(gs, planet.ID) {
		if attacker.OwnsPlanet(n) {
			adjOwn++
		}
	}
	adjMult := 1 + math.Min(0.12, float64(adjOwn)*0.03)

	attackPower := atkRaw * profMult * techMult * adjMult

	defMult := 1.0
	if planet.HasBuilding(DefenseStation) {
		defMult += 0.20
	}
	if defender.HasTech(TechLaser) {
		defMult += 0.10
	}
	if defender.HasTech(TechFTL) {
		defMult += 0.05
	}
	siegeMult := 1.0
	if pts := gs.Siege[planet.ID][attacker.ID]; pts > 0 {
		siegeMult = math.Max(0.4, 1/(1+0.1*float64(pts)))
	}
	defensePower := defRaw * defMult * siegeMult * beachhead

	return attackPower, defensePower
}

// canUseEnergyShield gates the late-game shield: the tech, ten minutes of
// game time, and either a near-eliminated or a near-dominant defender.
func (e *Engine) canUseEnergyShield(defender *Faction) bool {
	gs := e.state
	if !defender.HasTech(TechShields) {
		return false
	}
	if gs.GameStartTime.IsZero() || e.now().Sub(gs.GameStartTime).Seconds() < 600 {
		return false
	}
	if len(defender.Planets) <= 2 {
		return true
	}
	total := max(1, len(gs.Planets))
	return float64(len(defender.Planets))/float64(total) >= 0.9
}

// countShipsAt totals the attacker's ship count across fleets at planetID.
func (e *Engine) countShipsAt(factionID, planetID string) int {
	total := 0
	for _, fl := range e.state.Fleets {
		if fl.Owner == factionID && fl.Position == planetID {
			total += fl.ShipCount()
		}
	}
	return total
}

func clampFloat(v, lo, hi float64) float64 {
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}

func removeString(s []string, v string) []string {
	for i, x := range s {
		if x == v {
			return append(s[:i], s[i+1:]...)
		}
	}
	return s
}
