package catalog

import "github.com/talgya/uprising/internal/rebellion"

// RevealGate conditions an ally grant on the ally's revealed toggle.
type RevealGate string

const (
	RevealAny      RevealGate = ""         // applies regardless
	RevealRevealed RevealGate = "revealed" // only while revealed
	RevealHidden   RevealGate = "hidden"   // only while not revealed
)

// AllyGrant is one check delta an ally contributes. Selected grants apply
// to whichever check the ally state's selectedBonus names instead of a
// fixed check. Action-gated grants apply only while resolving that action.
type AllyGrant struct {
	Check    rebellion.Check `yaml:"check,omitempty"`
	Value    int             `yaml:"value"`
	Reveal   RevealGate      `yaml:"reveal,omitempty"`
	Action   string          `yaml:"action,omitempty"`
	Selected bool            `yaml:"selected,omitempty"`
}

// MonthlyAbility is an ally power usable once per four weeks, applied as
// flat resource deltas.
type MonthlyAbility struct {
	Treasury   int `yaml:"treasury,omitempty"`
	Supporters int `yaml:"supporters,omitempty"`
	Danger     int `yaml:"danger,omitempty"`
	Notoriety  int `yaml:"notoriety,omitempty"`
}

// AllyDef describes a catalog ally: its passive grants, an optional weekly
// reroll it sponsors, an optional monthly ability, and an optional bonus
// action it funds for teams managed by its favorite player.
type AllyDef struct {
	Slug        string          `yaml:"slug"`
	Name        string          `yaml:"name"`
	Grants      []AllyGrant     `yaml:"grants,omitempty"`
	RerollCheck rebellion.Check `yaml:"rerollCheck,omitempty"`
	Monthly     *MonthlyAbility `yaml:"monthly,omitempty"`
	BonusAction string          `yaml:"bonusAction,omitempty"`
}

func defaultAllies() map[string]AllyDef {
	defs := []AllyDef{
		{
			Slug:   "veteran-commander",
			Name:   "Veteran Commander",
			Grants: []AllyGrant{{Check: rebellion.CheckLoyalty, Value: 1}},
		},
		{
			Slug: "street-preacher",
			Name: "Street Preacher",
			Grants: []AllyGrant{
				{Check: rebellion.CheckLoyalty, Value: 2, Reveal: RevealRevealed},
				{Check: rebellion.CheckSecrecy, Value: -1, Reveal: RevealRevealed},
			},
			RerollCheck: rebellion.CheckLoyalty,
		},
		{
			Slug: "guard-captain",
			Name: "Guard Captain",
			Grants: []AllyGrant{
				// An exposed informant inside the watch loses their value.
				{Check: rebellion.CheckSecurity, Value: 2, Reveal: RevealHidden},
			},
			RerollCheck: rebellion.CheckSecurity,
		},
		{
			Slug:        "smuggler-queen",
			Name:        "Smuggler Queen",
			Grants:      []AllyGrant{{Check: rebellion.CheckSecrecy, Value: 2}},
			RerollCheck: rebellion.CheckSecrecy,
			Monthly:     &MonthlyAbility{Treasury: 200},
		},
		{
			Slug:   "archivist",
			Name:   "Archivist",
			Grants: []AllyGrant{{Check: rebellion.CheckSecrecy, Value: 2, Action: "gather-information"}},
		},
		{
			Slug:        "benefactor",
			Name:        "Benefactor",
			BonusAction: "earn-gold",
		},
		{
			Slug:   "chosen-blade",
			Name:   "Chosen Blade",
			Grants: []AllyGrant{{Value: 1, Selected: true}},
		},
		{
			Slug:    "healer-matron",
			Name:    "Healer Matron",
			Monthly: &MonthlyAbility{Supporters: 5},
		},
	}
	out := make(map[string]AllyDef, len(defs))
	for _, d := range defs {
		out[d.Slug] = d
	}
	return out
}
