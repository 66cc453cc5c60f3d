package galaxy

// checkVictory evaluates the end-of-turn victory conditions in order:
// domination, the optional economic path, then the turn limit. Tech victory
// is checked during the research phase. No condition fires during the truce.
func (e *Engine) checkVictory() {
	gs := e.state
	if gs.GameOver || e.truceActive() {
		return
	}

	// Domination: every owned planet belongs to one faction.
	owners := map[string]bool{}
	ownerID := ""
	ownedCount := 0
	for _, pid := range gs.PlanetIDs() {
		if p := gs.Planets[pid]; p.Owner != "" {
			owners[p.Owner] = true
			ownerID = p.Owner
			ownedCount++
		}
	}
	if ownedCount > 0 && len(owners) == 1 {
		gs.GameOver = true
		gs.Winner = ownerID
		gs.EndReason = "domination"
		gs.FinalScores = e.allScores()
		return
	}

	if gs.Victory.EconVictoryEnabled {
		e.checkEconomicVictory()
		if gs.GameOver {
			return
		}
	}

	if gs.Rules.MaxTurns > 0 && gs.Turn >= gs.Rules.MaxTurns {
		scores := e.allScores()
		gs.FinalScores = scores

		winner := ""
		best := 0.0
		for _, fid := range gs.FactionIDs() {
			if winner == "" || scores[fid] > best {
				winner = fid
				best = scores[fid]
			}
		}
		if winner != "" {
			gs.Winner = winner
			gs.EndReason = "turn_limit"
			gs.GameOver = true
		}
	}
}

// allScores computes the power score of every faction.
func (e *Engine) allScores() map[string]float64 {
	gs := e.state
	scores := make(map[string]float64, len(gs.Factions))
	for _, fid := range gs.FactionIDs() {
		scores[fid] = FactionPower(gs, gs.Factions[fid])
	}
	return scores
}

// checkTechVictoryFor tests one faction right after a research completion.
func (e *Engine) checkTechVictoryFor(faction *Faction) {
	gs := e.state
	if !gs.Victory.TechVictoryEnabled || gs.GameOver || e.truceActive() {
		return
	}
	if e.techVictorySatisfied(faction) {
		gs.GameOver = true
		gs.Winner = faction.ID
		gs.EndReason = "tech_victory"
		gs.FinalScores = e.allScores()
	}
}

// checkTechVictoryGlobal sweeps all factions after the research phase so a
// win is never missed between per-completion checks.
func (e *Engine) checkTechVictoryGlobal() {
	gs := e.state
	if !gs.Victory.TechVictoryEnabled || gs.GameOver || e.truceActive() {
		return
	}
	for _, fid := range gs.FactionIDs() {
		if e.techVictorySatisfied(gs.Factions[fid]) {
			gs.GameOver = true
			gs.Winner = fid
			gs.EndReason = "tech_victory"
			gs.FinalScores = e.allScores()
			return
		}
	}
}

// techVictorySatisfied tests both tech-victory paths: the required set and
// the accumulated-cost threshold.
func (e *Engine) techVictorySatisfied(faction *Faction) bool {
	gs := e.state
	if len(gs.Victory.TechRequiredIDs) > 0 {
		all := true
		for _, id := range gs.Victory.TechRequiredIDs {
			if !faction.HasTech(id) {
				all = false
				break
			}
		}
		if all {
			return true
		}
	}
	if gs.Victory.TechScoreThreshold > 0 {
		totalCost := 0.0
		for _, tid := range faction.Technologies {
			if t := gs.Technologies[tid]; t != nil {
				totalCost += t.Cost
			}
		}
		if totalCost >= gs.Victory.TechScoreThreshold {
			return true
		}
	}
	return false
}

// checkEconomicVictory tests whether any faction has led production with a
// score at or above the threshold for the whole trailing window.
func (e *Engine) checkEconomicVictory() {
	gs := e.state
	window := gs.Victory.EconWindow
	if window <= 0 {
		window = 3
	}
	if gs.Turn < window {
		return
	}

	recent := map[string][]float64{}
	for _, fid := range gs.FactionIDs() {
		hist := gs.EconHistory[fid]
		if len(hist) < window {
			return
		}
		recent[fid] = hist[len(hist)-window:]
	}

	for _, fid := range gs.FactionIDs() {
		seq := recent[fid]
		satisfied := true
		for i := 0; i < window; i++ {
			maxScore := seq[i]
			for _, other := range recent {
				if other[i] > maxScore {
					maxScore = other[i]
				}
			}
			if seq[i] < gs.Victory.EconThreshold || seq[i] < maxScore {
				satisfied = false
				break
			}
		}
		if satisfied {
			gs.GameOver = true
			gs.Winner = fid
			gs.EndReason = "economic_victory"
			gs.FinalScores = e.allScores()
			return
		}
	}
}
