package galaxy

import "fmt"

// executeCommand dispatches one non-colonize command. Commands referencing
// entities that do not exist produce a command_failed event; ownership and
// limit violations are dropped silently.
func (e *Engine) executeCommand(cmd Command) {
	var err error
	switch cmd.Type {
	case CmdBuild:
		err = e.executeBuild(cmd)
	case CmdMove:
		err = e.executeMove(cmd)
	case CmdResearch:
		err = e.executeResearch(cmd)
	case CmdDiplomacy:
		err = e.executeDiplomacy(cmd)
	case CmdStrategy:
		err = e.executeStrategy(cmd)
	default:
		err = fmt.Errorf("unknown command type %q", cmd.Type)
	}
	if err != nil {
		e.state.AddEvent(EvCommandFailed, map[string]any{
			"faction": cmd.Faction,
			"command": string(cmd.Type),
			"error":   err.Error(),
		})
	}
}

func (e *Engine) executeBuild(cmd Command) error {
	gs := e.state
	faction, ok := gs.Factions[cmd.Faction]
	if !ok {
		return fmt.Errorf("unknown faction %q", cmd.Faction)
	}
	if cmd.Build == nil {
		return fmt.Errorf("build command missing parameters")
	}
	planet, ok := gs.Planets[cmd.Build.Planet]
	if !ok {
		return fmt.Errorf("unknown planet %q", cmd.Build.Planet)
	}
	if planet.Owner != faction.ID {
		return nil
	}
	if len(planet.Buildings) >= MaxBuildings {
		return nil
	}
	// Construction is staffed: one population, no resource cost.
	if planet.Population <= 0 {
		return nil
	}
	planet.Population--
	planet.Buildings = append(planet.Buildings, cmd.Build.Building)

	gs.AddEvent(EvConstruction, map[string]any{
		"faction":  faction.ID,
		"planet":   planet.ID,
		"building": string(cmd.Build.Building),
	})
	return nil
}

func (e *Engine) executeMove(cmd Command) error {
	gs := e.state
	faction, ok := gs.Factions[cmd.Faction]
	if !ok {
		return fmt.Errorf("unknown faction %q", cmd.Faction)
	}
	if cmd.Move == nil {
		return fmt.Errorf("move command missing parameters")
	}
	fleet := gs.Fleets[cmd.Move.Fleet]
	if fleet == nil || fleet.Owner != faction.ID {
		return nil
	}
	if _, ok := gs.Planets[cmd.Move.Destination]; !ok {
		return fmt.Errorf("unknown planet %q", cmd.Move.Destination)
	}
	fleet.Destination = cmd.Move.Destination
	fleet.TravelProgress = 0

	gs.AddEvent(EvFleetMovement, map[string]any{
		"faction":     faction.ID,
		"fleet":       fleet.ID,
		"destination": cmd.Move.Destination,
	})
	return nil
}

func (e *Engine) executeResearch(cmd Command) error {
	gs := e.state
	faction, ok := gs.Factions[cmd.Faction]
	if !ok {
		return fmt.Errorf("unknown faction %q", cmd.Faction)
	}
	if cmd.Research == nil {
		return fmt.Errorf("research command missing parameters")
	}
	techID := cmd.Research.Technology
	if _, started := faction.ResearchProgress[techID]; started {
		return nil
	}
	if faction.ResearchProgress == nil {
		faction.ResearchProgress = map[string]float64{}
	}
	faction.ResearchProgress[techID] = 0

	gs.AddEvent(EvResearchStarted, map[string]any{
		"faction":    faction.ID,
		"technology": techID,
	})
	return nil
}

func (e *Engine) executeDiplomacy(cmd Command) error {
	gs := e.state
	faction, ok := gs.Factions[cmd.Faction]
	if !ok {
		return fmt.Errorf("unknown faction %q", cmd.Faction)
	}
	if cmd.Diplomacy == nil {
		return fmt.Errorf("diplomacy command missing parameters")
	}
	if cmd.Diplomacy.Action != ActionChangeStatus {
		return fmt.Errorf("unknown diplomacy action %q", cmd.Diplomacy.Action)
	}
	target, ok := gs.Factions[cmd.Diplomacy.Target]
	if !ok {
		return fmt.Errorf("unknown faction %q", cmd.Diplomacy.Target)
	}

	newStatus := cmd.Diplomacy.Status
	oldStatus := faction.StatusWith(target.ID)

	// Turning on an ally costs reputation.
	if oldStatus == Allied && (newStatus == Hostile || newStatus == War) {
		faction.Reputation -= 30
		clampReputation(faction)
		gs.AddEvent(EvBetrayal, map[string]any{
			"faction":         faction.ID,
			"target":          target.ID,
			"reputation_loss": 30,
		})
	}

	if faction.Diplomacy == nil {
		faction.Diplomacy = map[string]DiplomacyStatus{}
	}
	if target.Diplomacy == nil {
		target.Diplomacy = map[string]DiplomacyStatus{}
	}
	faction.Diplomacy[target.ID] = newStatus
	target.Diplomacy[faction.ID] = newStatus

	gs.AddEvent(EvDiplomacy, map[string]any{
		"faction": faction.ID,
		"target":  target.ID,
		"status":  string(newStatus),
	})
	return nil
}

func (e *Engine) executeStrategy(cmd Command) error {
	gs := e.state
	faction, ok := gs.Factions[cmd.Faction]
	if !ok {
		return fmt.Errorf("unknown faction %q", cmd.Faction)
	}
	if cmd.Strategy == nil {
		return fmt.Errorf("strategy command missing parameters")
	}

	switch cmd.Strategy.Mode {
	case ModeAttack:
		targetID := cmd.Strategy.Target
		if targetID == "" || targetID == faction.ID {
			return nil
		}
		if _, ok := gs.Factions[targetID]; !ok {
			return nil
		}
		faction.StrategyMode = ModeAttack
		faction.WarTarget = targetID
		faction.DefenseFocus = nil
		gs.AddEvent(EvStrategy, map[string]any{
			"faction": faction.ID,
			"mode":    string(ModeAttack),
			"target":  targetID,
		})
	case ModeDefend:
		// Global defense: any attacked planet may trigger an interception,
		// consuming one defense charge.
		faction.StrategyMode = ModeDefend
		faction.WarTarget = ""
		faction.DefenseFocus = nil
		gs.AddEvent(EvStrategy, map[string]any{
			"faction":        faction.ID,
			"mode":           string(ModeDefend),
			"global_defense": true,
		})
	default:
		faction.StrategyMode = ModePeace
		faction.WarTarget = ""
		faction.DefenseFocus = nil
	}
	return nil
}
