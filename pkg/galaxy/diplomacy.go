package galaxy

// processDiplomacy applies the slow natural drift of standing: reputation
// regenerates one point per turn toward the cap.
func (e *Engine) processDiplomacy() {
	gs := e.state
	for _, fid := range gs.FactionIDs() {
		faction := gs.Factions[fid]
		if faction.Reputation < 100 {
			faction.Reputation = min(100, faction.Reputation+1)
		}
	}
}

// randomEventKinds are the flavor incidents rolled at 10% per turn.
var randomEventKinds = []string{
	"ruins_discovery",
	"space_storm",
	"diplomatic_envoy",
	"pirate_raid",
}

// processRandomEvents occasionally stamps one faction with a flavor event.
func (e *Engine) processRandomEvents() {
	gs := e.state
	if e.rng.Float64() <= 0.9 {
		return
	}
	ids := gs.FactionIDs()
	if len(ids) == 0 {
		return
	}
	kind := randomEventKinds[e.rng.Intn(len(randomEventKinds))]
	faction := ids[e.rng.Intn(len(ids))]
	gs.AddEvent(EvRandomEvent, map[string]any{
		"faction":    faction,
		"event_type": kind,
	})
}
