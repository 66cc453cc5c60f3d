package galaxy

// ProcessTurn executes one full resolution pass: the queued commands, then
// each subsystem in fixed order. Expected failures are recorded as events;
// the returned error is reserved for invariant breaches.
func (e *Engine) ProcessTurn(commands []Command) error {
	gs := e.state

	if gs.GameOver && !gs.AllowPostgame {
		gs.AddEvent(EvTurnIgnored, map[string]any{"reason": "game_over"})
		return nil
	}
	wasOver := gs.GameOver

	gs.Turn++
	e.colonizeCounts = map[string]int{}

	e.executeCommands(commands)
	e.processEconomy()
	e.processPopulationGrowth()
	e.refreshMilitaryCapacity()
	e.processResearch()
	e.resolveWarPlans()
	e.processFleetMovement()
	e.resolveCombat()
	e.processDiplomacy()
	e.processRandomEvents()
	if !wasOver {
		e.checkVictory()
	}
	e.snapshotPower()
	e.decaySiege()

	gs.AddEvent(EvTurnEnd, map[string]any{"turn": gs.Turn})

	if gs.GameOver && !wasOver {
		gs.AddEvent(EvGameOver, map[string]any{
			"winner": gs.Winner,
			"reason": gs.EndReason,
			"scores": gs.FinalScores,
		})
	}
	return nil
}

// executeCommands runs every non-colonize command in submission order, then
// hands the batched colonize commands to the arbiter so simultaneous claims
// on one planet resolve together.
func (e *Engine) executeCommands(commands []Command) {
	var colonize []Command
	for _, cmd := range commands {
		if cmd.Type == CmdColonize {
			colonize = append(colonize, cmd)
			continue
		}
		e.executeCommand(cmd)
	}
	e.resolveColonization(colonize)
}

// snapshotPower appends one power-score row covering every faction.
func (e *Engine) snapshotPower() {
	gs := e.state
	row := make(map[string]float64, len(gs.Factions))
	for _, id := range gs.FactionIDs() {
		row[id] = FactionPower(gs, gs.Factions[id])
	}
	gs.PowerHistory = append(gs.PowerHistory, row)
}

// decaySiege reduces every siege entry by one point per turn, dropping
// planets whose pressure has fully lapsed.
func (e *Engine) decaySiege() {
	gs := e.state
	for planetID, byFaction := range gs.Siege {
		allZero := true
		for factionID, pts := range byFaction {
			if pts > 0 {
				byFaction[factionID] = pts - 1
			}
			if byFaction[factionID] > 0 {
				allZero = false
			}
		}
		if allZero {
			delete(gs.Siege, planetID)
		}
	}
}
