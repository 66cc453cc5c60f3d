package galaxy

// CommandType discriminates the Command tagged union.
type CommandType string

const (
	CmdColonize  CommandType = "colonize"
	CmdBuild     CommandType = "build"
	CmdMove      CommandType = "move_fleet"
	CmdResearch  CommandType = "research"
	CmdDiplomacy CommandType = "diplomacy"
	CmdStrategy  CommandType = "strategy"
)

// Command is one faction order for the upcoming turn. Exactly one params
// field matching Type is set; the rest stay nil.
type Command struct {
	Faction string      `json:"faction"`
	Type    CommandType `json:"type"`

	Colonize  *ColonizeParams  `json:"colonize,omitempty"`
	Build     *BuildParams     `json:"build,omitempty"`
	Move      *MoveParams      `json:"move,omitempty"`
	Research  *ResearchParams  `json:"research,omitempty"`
	Diplomacy *DiplomacyParams `json:"diplomacy,omitempty"`
	Strategy  *StrategyParams  `json:"strategy,omitempty"`
}

// ColonizeParams names the origin and the adjacent target planet.
type ColonizeParams struct {
	FromPlanet string `json:"from_planet"`
	ToPlanet   string `json:"to_planet"`
}

// BuildParams requests a structure on an owned planet.
type BuildParams struct {
	Planet   string       `json:"planet"`
	Building BuildingType `json:"building"`
}

// MoveParams sends an owned fleet toward a destination planet.
type MoveParams struct {
	Fleet       string `json:"fleet"`
	Destination string `json:"destination"`
}

// ResearchParams starts progress on a technology.
type ResearchParams struct {
	Technology string `json:"technology"`
}

// DiplomacyAction selects the diplomacy sub-operation.
type DiplomacyAction string

const (
	ActionChangeStatus DiplomacyAction = "change_status"
)

// DiplomacyParams changes the bilateral status with a target faction.
type DiplomacyParams struct {
	Target string          `json:"target"`
	Action DiplomacyAction `json:"action"`
	Status DiplomacyStatus `json:"status"`
}

// StrategyParams switches the faction's military posture.
type StrategyParams struct {
	Mode   StrategyMode `json:"mode"`
	Target string       `json:"target,omitempty"`
}
