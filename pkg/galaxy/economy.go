package galaxy

// processEconomy credits every faction with its planets' production and
// appends the turn's weighted output to the economic history.
func (e *Engine) processEconomy() {
	gs := e.state
	weights := gs.Victory.EconWeights
	if weights == (Resources{}) {
		weights = Resources{Energy: 1, Minerals: 1, Research: 1}
	}

	for _, fid := range gs.FactionIDs() {
		faction := gs.Factions[fid]
		var total Resources
		for _, pid := range faction.Planets {
			planet := gs.Planets[pid]
			if planet == nil {
				continue
			}
			production := planet.CalculateProduction()
			planet.Production = production
			total.Add(production)
		}
		faction.Resources.Add(total)

		if gs.EconHistory == nil {
			gs.EconHistory = map[string][]float64{}
		}
		score := total.Energy*weights.Energy +
			total.Minerals*weights.Minerals +
			total.Research*weights.Research
		gs.EconHistory[fid] = append(gs.EconHistory[fid], score)
	}
}

// processPopulationGrowth grows every owned planet. Energy plants add a
// steady point, faction energy reserves add up to three, and fusion power
// adds one more.
func (e *Engine) processPopulationGrowth() {
	gs := e.state
	for _, pid := range gs.PlanetIDs() {
		planet := gs.Planets[pid]
		if planet.Owner == "" {
			continue
		}
		faction := gs.Factions[planet.Owner]
		if faction == nil {
			continue
		}
		delta := 0
		if planet.HasBuilding(EnergyPlant) {
			delta++
		}
		if extra := int(faction.Resources.Energy / 500); extra > 0 {
			delta += min(3, extra)
		}
		if faction.HasTech(TechPower) {
			delta++
		}
		planet.Population += delta
	}
}
