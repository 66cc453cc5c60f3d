package galaxy

// PowerBreakdown itemizes a faction's power score by component.
type PowerBreakdown struct {
	Resources    float64 `json:"resources"`
	Planets      float64 `json:"planets"`
	Population   float64 `json:"population"`
	Defenses     float64 `json:"defenses"`
	Fleets       float64 `json:"fleets"`
	Technologies float64 `json:"technologies"`
	RepModifier  float64 `json:"reputation_modifier"`
	Total        float64 `json:"total"`
}

// FactionPowerBreakdown scores a faction's overall strength and returns the
// per-component contributions. Reputation scales the sum by up to 15% in
// either direction.
func FactionPowerBreakdown(gs *GameState, f *Faction) PowerBreakdown {
	var b PowerBreakdown
	b.Resources = f.Resources.Energy*0.6 + f.Resources.Minerals*0.8 + f.Resources.Research*1.0
	b.Planets = float64(len(f.Planets)) * 120
	for _, pid := range f.Planets {
		if p := gs.Planets[pid]; p != nil {
			b.Population += float64(p.Population) * 1.5
			b.Defenses += float64(p.BuildingCount(DefenseStation)) * 50
		}
	}
	for _, fid := range f.Fleets {
		if fl := gs.Fleets[fid]; fl != nil {
			b.Fleets += float64(fl.Strength()) * 2
		}
	}
	b.Technologies = float64(len(f.Technologies)) * 90

	mod := 1 + (f.Reputation-50)/200
	if mod < 0.85 {
		mod = 0.85
	}
	if mod > 1.15 {
		mod = 1.15
	}
	b.RepModifier = mod
	b.Total = (b.Resources + b.Planets + b.Population + b.Defenses + b.Fleets + b.Technologies) * mod
	return b
}

// FactionPower is the scalar power score.
func FactionPower(gs *GameState, f *Faction) float64 {
	return FactionPowerBreakdown(gs, f).Total
}
