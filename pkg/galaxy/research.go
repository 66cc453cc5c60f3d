package galaxy

import "sort"

// processResearch advances every in-flight research project. Minerals fund
// the bulk of the speed, research output and labs the rest.
func (e *Engine) processResearch() {
	gs := e.state
	for _, fid := range gs.FactionIDs() {
		faction := gs.Factions[fid]

		labBonus := 0.0
		for _, pid := range faction.Planets {
			if p := gs.Planets[pid]; p != nil {
				labBonus += float64(p.BuildingCount(ResearchLab)) * 5
			}
		}
		speed := faction.Resources.Minerals*0.02 + faction.Resources.Research*0.05 + labBonus

		inFlight := make([]string, 0, len(faction.ResearchProgress))
		for techID := range faction.ResearchProgress {
			inFlight = append(inFlight, techID)
		}
		sort.Strings(inFlight)

		var completed []string
		for _, techID := range inFlight {
			if faction.HasTech(techID) {
				continue
			}
			tech := gs.Technologies[techID]
			if tech == nil {
				continue
			}
			faction.ResearchProgress[techID] += speed
			if faction.ResearchProgress[techID] >= tech.Cost {
				completed = append(completed, techID)
				faction.Technologies = append(faction.Technologies, techID)
				gs.AddEvent(EvResearchCompleted, map[string]any{
					"faction":    faction.ID,
					"technology": techID,
				})
				e.checkTechVictoryFor(faction)
			}
		}
		for _, techID := range completed {
			delete(faction.ResearchProgress, techID)
		}
	}
	e.checkTechVictoryGlobal()
}
