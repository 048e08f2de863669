package catalog

import (
	"sort"

	"github.com/talgya/uprising/internal/dice"
	"github.com/talgya/uprising/internal/rebellion"
)

// SafehouseEventName is the marker event players place per active safehouse.
// Each contributes +1 security, saturating at SafehouseBonusCap.
const SafehouseEventName = "safehouse"

// SafehouseBonusCap bounds the aggregate safehouse security bonus no matter
// how many safehouses are active.
const SafehouseBonusCap = 5

// EventCheckEffect is one check modifier an event applies while active.
// When the event carries a mitigation check and has been mitigated, the
// reduced value applies instead of the full one.
type EventCheckEffect struct {
	Check          rebellion.Check `yaml:"check"`
	Value          int             `yaml:"value"`
	MitigatedValue int             `yaml:"mitigatedValue,omitempty"`
	Action         string          `yaml:"action,omitempty"` // applies only in this action's context
}

// EventDef is a tagged event variant: a named entry with a typed payload
// and explicit behavior flags, looked up by name. Weight 0 keeps an entry
// out of the random draw (marker events like safehouses).
type EventDef struct {
	Name  string `yaml:"name"`
	Title string `yaml:"title"`

	Weight     int  `yaml:"weight"`
	Persistent bool `yaml:"persistent,omitempty"`
	Duration   int  `yaml:"duration,omitempty"`

	MitigateSkill rebellion.Check `yaml:"mitigateSkill,omitempty"`
	MitigateDC    int             `yaml:"mitigateDC,omitempty"`

	Checks          []EventCheckEffect `yaml:"checks,omitempty"`
	DangerReduction int                `yaml:"dangerReduction,omitempty"`
	DangerIncrease  int                `yaml:"dangerIncrease,omitempty"`

	// Immediate effects rolled when the event triggers.
	SupporterGain dice.Spec `yaml:"supporterGain,omitempty"`
	SupporterLoss dice.Spec `yaml:"supporterLoss,omitempty"`
	NotorietyGain dice.Spec `yaml:"notorietyGain,omitempty"`

	Safehouse         bool `yaml:"safehouse,omitempty"`
	Rivalry           bool `yaml:"rivalry,omitempty"`
	Traitor           bool `yaml:"traitor,omitempty"`
	GrantsEventReroll bool `yaml:"grantsEventReroll,omitempty"`
}

// Mitigable reports whether the event exposes a mitigation check.
func (d EventDef) Mitigable() bool {
	return d.MitigateSkill != ""
}

// Instantiate builds an ActiveEvent for this definition starting at week.
func (d EventDef) Instantiate(week int) rebellion.ActiveEvent {
	return rebellion.ActiveEvent{
		Name:            d.Name,
		WeekStarted:     week,
		IsPersistent:    d.Persistent,
		Duration:        d.Duration,
		Mitigate:        string(d.MitigateSkill),
		DC:              d.MitigateDC,
		DangerReduction: d.DangerReduction,
		DangerIncrease:  d.DangerIncrease,
	}
}

func defaultEvents() map[string]EventDef {
	defs := []EventDef{
		{
			Name:   "outpouring-of-support",
			Title:  "Outpouring of Support",
			Weight: 6, Duration: 1,
			Checks: []EventCheckEffect{
				{Check: rebellion.CheckLoyalty, Value: 6},
				{Check: rebellion.CheckSecurity, Value: 6},
				{Check: rebellion.CheckSecrecy, Value: 6},
			},
			SupporterGain: dice.Spec{Count: 2, Sides: 6},
		},
		{
			Name:   "new-converts",
			Title:  "New Converts",
			Weight: 10, Duration: 1,
			Checks:        []EventCheckEffect{{Check: rebellion.CheckLoyalty, Value: 1}},
			SupporterGain: dice.Spec{Count: 2, Sides: 4},
		},
		{
			Name:   "low-morale",
			Title:  "Low Morale",
			Weight: 8, Persistent: true,
			MitigateSkill: rebellion.CheckLoyalty,
			MitigateDC:    15,
			Checks:        []EventCheckEffect{{Check: rebellion.CheckLoyalty, Value: -4, MitigatedValue: -2}},
		},
		{
			Name:   "inquisition",
			Title:  "Inquisition",
			Weight: 5, Persistent: true,
			MitigateSkill:  rebellion.CheckSecrecy,
			MitigateDC:     20,
			Checks:         []EventCheckEffect{{Check: rebellion.CheckSecrecy, Value: -4, MitigatedValue: -2}},
			DangerIncrease: 10,
		},
		{
			Name:   "rivalry",
			Title:  "Rivalry",
			Weight: 7, Duration: 1,
			Rivalry: true,
		},
		{
			Name:   "crackdown",
			Title:  "Crackdown",
			Weight: 6, Duration: 4,
			DangerIncrease: 10,
			NotorietyGain:  dice.Spec{Count: 1, Sides: 4},
		},
		{
			Name:   "sympathetic-official",
			Title:  "Sympathetic Official",
			Weight: 5, Duration: 4,
			DangerReduction: 5,
		},
		{
			Name:   "hidden-archives",
			Title:  "Hidden Archives",
			Weight: 4, Duration: 2,
			Checks: []EventCheckEffect{{Check: rebellion.CheckSecrecy, Value: 4, Action: "gather-information"}},
		},
		{
			Name:   "mysterious-benefactor",
			Title:  "Mysterious Benefactor",
			Weight: 3, Persistent: true,
			GrantsEventReroll: true,
		},
		{
			Name:   "informant-exposed",
			Title:  "Informant Exposed",
			Weight: 6, Duration: 1,
			Checks:        []EventCheckEffect{{Check: rebellion.CheckSecrecy, Value: -1}},
			NotorietyGain: dice.Spec{Count: 1, Sides: 6},
		},
		{
			Name:   "traitor",
			Title:  "Traitor",
			Weight: 4, Persistent: true,
			MitigateSkill: rebellion.CheckLoyalty,
			MitigateDC:    18,
			Traitor:       true,
			Checks:        []EventCheckEffect{{Check: rebellion.CheckLoyalty, Value: -2, MitigatedValue: -1}},
		},
		{
			Name:   "desertion",
			Title:  "Desertion",
			Weight: 5, Duration: 1,
			SupporterLoss: dice.Spec{Count: 2, Sides: 6},
		},
		{
			Name:       SafehouseEventName,
			Title:      "Safehouse",
			Weight:     0, // placed by play, never drawn
			Persistent: true,
			Safehouse:  true,
		},
	}
	out := make(map[string]EventDef, len(defs))
	for _, d := range defs {
		out[d.Name] = d
	}
	return out
}

// WeightedEvents returns the drawable entries (weight > 0) in a stable
// order for deterministic draws under a seeded roller.
func (c *Catalog) WeightedEvents() []EventDef {
	names := make([]string, 0, len(c.Events))
	for name, def := range c.Events {
		if def.Weight > 0 {
			names = append(names, name)
		}
	}
	sort.Strings(names)
	out := make([]EventDef, 0, len(names))
	for _, n := range names {
		out = append(out, c.Events[n])
	}
	return out
}
