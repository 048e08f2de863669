package catalog

import "github.com/talgya/uprising/internal/rebellion"

// BaselineTeamType is the type backfilled when a merge leaves a team
// without a recognizable type.
const BaselineTeamType = "sympathizers"

// TeamDef describes a hireable team type: the check and difficulty to hire
// it, the actions its members may perform, an optional successor type, and
// any passive check bonus granted while the team is operational.
type TeamDef struct {
	Key        string                  `yaml:"key"`
	Name       string                  `yaml:"name"`
	HireDC     int                     `yaml:"hireDC"`
	HireCheck  rebellion.Check         `yaml:"hireCheck"`
	Actions    []string                `yaml:"actions"`
	UpgradesTo string                  `yaml:"upgradesTo,omitempty"`
	Grants     map[rebellion.Check]int `yaml:"grants,omitempty"`
}

// Allows reports whether the team type's capability list permits an action.
func (d TeamDef) Allows(action string) bool {
	for _, a := range d.Actions {
		if a == action {
			return true
		}
	}
	return false
}

func defaultTeams() map[string]TeamDef {
	defs := []TeamDef{
		{
			Key:        "sympathizers",
			Name:       "Sympathizers",
			HireDC:     10,
			HireCheck:  rebellion.CheckLoyalty,
			Actions:    []string{"recruit-supporters", "gather-information"},
			UpgradesTo: "agitators",
		},
		{
			Key:       "agitators",
			Name:      "Agitators",
			HireDC:    15,
			HireCheck: rebellion.CheckLoyalty,
			Actions:   []string{"recruit-supporters", "spread-disinformation", "guarantee-event"},
		},
		{
			Key:        "peddlers",
			Name:       "Peddlers",
			HireDC:     12,
			HireCheck:  rebellion.CheckSecrecy,
			Actions:    []string{"earn-gold", "gather-information"},
			UpgradesTo: "smugglers",
		},
		{
			Key:       "smugglers",
			Name:      "Smugglers",
			HireDC:    18,
			HireCheck: rebellion.CheckSecrecy,
			Actions:   []string{"earn-gold", "establish-cache", "rescue-character"},
		},
		{
			Key:        "infiltrators",
			Name:       "Infiltrators",
			HireDC:     15,
			HireCheck:  rebellion.CheckSecrecy,
			Actions:    []string{"gather-information", "scout-location"},
			UpgradesTo: "spies",
			Grants:     map[rebellion.Check]int{rebellion.CheckSecrecy: 1},
		},
		{
			Key:       "spies",
			Name:      "Spies",
			HireDC:    20,
			HireCheck: rebellion.CheckSecrecy,
			Actions:   []string{"gather-information", "sabotage", "scout-location", "spread-disinformation"},
			Grants:    map[rebellion.Check]int{rebellion.CheckSecrecy: 1},
		},
		{
			Key:       "street-guards",
			Name:      "Street Guards",
			HireDC:    15,
			HireCheck: rebellion.CheckSecurity,
			Actions:   []string{"reduce-danger", "rescue-character", "restore-ally"},
			Grants:    map[rebellion.Check]int{rebellion.CheckSecurity: 1},
		},
		{
			Key:       "saboteurs",
			Name:      "Saboteurs",
			HireDC:    20,
			HireCheck: rebellion.CheckSecurity,
			Actions:   []string{"sabotage", "reduce-danger"},
		},
	}
	out := make(map[string]TeamDef, len(defs))
	for _, d := range defs {
		out[d.Key] = d
	}
	return out
}
