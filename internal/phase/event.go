package phase

import (
	"log/slog"

	"github.com/talgya/uprising/internal/bonus"
	"github.com/talgya/uprising/internal/catalog"
	"github.com/talgya/uprising/internal/dice"
	"github.com/talgya/uprising/internal/rebellion"
)

// EffectiveDanger is the base danger adjusted by every active event with a
// danger-affecting payload, never below zero.
func EffectiveDanger(st *rebellion.State) int {
	danger := st.Danger
	for _, ev := range st.Events {
		if !ev.ActiveAt(st.Week) {
			continue
		}
		danger += ev.DangerIncrease - ev.DangerReduction
		if ev.IsCustomModifier && ev.Affects("danger") {
			danger += ev.ModifierValue
		}
	}
	return max(0, danger)
}

// EventChance is the percentage chance an event triggers this week:
// effective danger plus notoriety, clamped to [10, 95], doubled while the
// organization has gone at least a week without one, and forced to 100 by
// the guaranteed-event flag.
func EventChance(st *rebellion.State) int {
	if st.GuaranteedEvent {
		return 100
	}
	chance := clampChance(EffectiveDanger(st) + st.Notoriety)
	if st.WeeksWithoutEvent >= 1 {
		chance = clampChance(chance * 2)
	}
	return chance
}

func clampChance(p int) int {
	if p < 10 {
		return 10
	}
	if p > 95 {
		return 95
	}
	return p
}

// ExposureOutcome records the weekly notoriety exposure check and its
// consequence for an ally, if any.
type ExposureOutcome struct {
	Roll      int    `json:"roll"`
	Threshold int    `json:"threshold"`
	Noticed   bool   `json:"noticed"`
	AllySlug  string `json:"allySlug,omitempty"`
	Captured  bool   `json:"captured,omitempty"`
}

// EventOutcome reports one event-phase run.
type EventOutcome struct {
	Chance    int                    `json:"chance"`
	Roll      int                    `json:"roll"`
	Triggered bool                   `json:"triggered"`
	Event     *rebellion.ActiveEvent `json:"event,omitempty"`
	Title     string                 `json:"title,omitempty"`
	Notes     []string               `json:"notes,omitempty"`
	Exposure  *ExposureOutcome       `json:"exposure,omitempty"`
}

// RunEventPhase rolls for a weekly event and, when one triggers, draws it
// from the weighted catalog and applies its immediate effects. It also
// runs the notoriety exposure check whose failure can cost an ally.
func (c *Controller) RunEventPhase(st *rebellion.State) (*EventOutcome, error) {
	out := &EventOutcome{
		Chance: EventChance(st),
		Roll:   dice.Percentile(c.Roller),
	}
	out.Triggered = out.Roll <= out.Chance

	if !out.Triggered {
		st.WeeksWithoutEvent++
		c.exposureCheck(st, out)
		return out, nil
	}

	def, ok := c.drawEvent()
	if !ok {
		// An empty draw table is a content problem, not a rule branch.
		return nil, ErrUnknownAction
	}
	ev := c.triggerEvent(st, def, out)
	out.Event = &ev
	out.Title = def.Title
	st.WeeksWithoutEvent = 0
	st.GuaranteedEvent = false

	c.exposureCheck(st, out)

	slog.Info("event triggered",
		"week", st.Week,
		"event", def.Name,
		"chance", out.Chance,
		"roll", out.Roll,
	)
	return out, nil
}

// drawEvent picks from the weighted table.
func (c *Controller) drawEvent() (catalog.EventDef, bool) {
	defs := c.Catalog.WeightedEvents()
	total := 0
	for _, d := range defs {
		total += d.Weight
	}
	if total == 0 {
		return catalog.EventDef{}, false
	}
	pick := c.Roller.Roll(total)
	for _, d := range defs {
		pick -= d.Weight
		if pick <= 0 {
			return d, true
		}
	}
	return defs[len(defs)-1], true
}

// triggerEvent instantiates the drawn event, applies its immediate
// effects, and records it for phase-local repetition tracking.
func (c *Controller) triggerEvent(st *rebellion.State, def catalog.EventDef, out *EventOutcome) rebellion.ActiveEvent {
	ev := def.Instantiate(st.Week)

	if gain := c.roll(def.SupporterGain); gain > 0 {
		st.AddSupporters(gain)
		out.Notes = append(out.Notes, def.Title+": supporters gained")
	}
	if loss := c.roll(def.SupporterLoss); loss > 0 {
		st.AddSupporters(-loss)
		out.Notes = append(out.Notes, def.Title+": supporters lost")
	}
	if gain := c.roll(def.NotorietyGain); gain > 0 {
		st.AddNotoriety(gain)
	}

	if def.Rivalry {
		c.applyRivalry(st, &ev, out)
	}
	if def.Traitor {
		ev.Stage = rebellion.TraitorCaptured
		out.Notes = append(out.Notes, "a traitor has been seized")
	}

	st.Events = append(st.Events, ev)
	st.EventsThisPhase = append(st.EventsThisPhase, def.Name)
	return ev
}

// applyRivalry blocks up to two random operational teams. A rivalry
// recurring within the same phase becomes permanent.
func (c *Controller) applyRivalry(st *rebellion.State, ev *rebellion.ActiveEvent, out *EventOutcome) {
	if st.EventSeenThisPhase(ev.Name) {
		ev.IsPersistent = true
		ev.Duration = 0
		out.Notes = append(out.Notes, "the rivalry hardens into a standing feud")
	}

	var candidates []int
	for i, t := range st.Teams {
		if t.Operational() {
			candidates = append(candidates, i)
		}
	}
	blocked := min(2, len(candidates))
	for n := 0; n < blocked; n++ {
		pick := c.Roller.Roll(len(candidates)) - 1
		idx := candidates[pick]
		candidates = append(candidates[:pick], candidates[pick+1:]...)
		ev.AffectedTeams = append(ev.AffectedTeams, idx)
		st.Teams[idx].BlockedByRivalry = true
	}
}

// exposureCheck is the inverted-polarity percentile roll against
// notoriety: at or below the threshold, the organization was noticed and a
// random contributing ally goes missing (captured on a deep result).
func (c *Controller) exposureCheck(st *rebellion.State, out *EventOutcome) {
	if st.Notoriety <= 0 {
		return
	}
	roll := dice.Percentile(c.Roller)
	exp := &ExposureOutcome{Roll: roll, Threshold: st.Notoriety}
	exp.Noticed = dice.NoticedOnPercentile(roll, st.Notoriety)
	out.Exposure = exp
	if !exp.Noticed {
		return
	}

	var candidates []int
	for i, a := range st.Allies {
		if a.Contributing() {
			candidates = append(candidates, i)
		}
	}
	if len(candidates) == 0 {
		return
	}
	idx := candidates[c.Roller.Roll(len(candidates))-1]
	ally := &st.Allies[idx]
	exp.AllySlug = ally.Slug
	if dice.NoticedOnPercentile(roll, st.Notoriety/2) {
		ally.Captured = true
		exp.Captured = true
	} else {
		ally.Missing = true
	}
}

// MitigateEvent rolls the stored event's mitigation check and records the
// mitigated flag on success. The reduced penalty applies from then on.
func (c *Controller) MitigateEvent(st *rebellion.State, eventIndex, manual int) (*dice.CheckResult, error) {
	if eventIndex < 0 || eventIndex >= len(st.Events) {
		return nil, ErrBadEventIndex
	}
	ev := &st.Events[eventIndex]
	if ev.Mitigate == "" || !rebellion.ValidCheck(ev.Mitigate) {
		return nil, ErrNotMitigable
	}

	agg := bonus.Compute(c.Catalog, st, "", c.Actors)
	res := dice.Check(c.Roller, agg.Check(rebellion.Check(ev.Mitigate)).Total, manual, ev.DC, true)
	if res.Success {
		ev.Mitigated = true
	}
	return &res, nil
}

// RedrawEvent consumes a one-time event-reroll grant (a persistent effect
// that removes itself once used), discards the most recently drawn event,
// and draws again.
func (c *Controller) RedrawEvent(st *rebellion.State) (*EventOutcome, error) {
	grant := -1
	for i, ev := range st.Events {
		if !ev.ActiveAt(st.Week) {
			continue
		}
		if def, ok := c.Catalog.Event(ev.Name); ok && def.GrantsEventReroll {
			grant = i
			break
		}
	}
	if grant < 0 {
		return nil, ErrNoEventReroll
	}
	if len(st.EventsThisPhase) == 0 {
		return nil, ErrNoEventReroll
	}

	// Remove the grant, then the event being rerolled.
	st.Events = append(st.Events[:grant], st.Events[grant+1:]...)
	last := st.EventsThisPhase[len(st.EventsThisPhase)-1]
	st.EventsThisPhase = st.EventsThisPhase[:len(st.EventsThisPhase)-1]
	if i := activeEventIndex(st, last); i >= 0 {
		st.Events = append(st.Events[:i], st.Events[i+1:]...)
	}

	out := &EventOutcome{Chance: 100, Roll: 0, Triggered: true}
	def, ok := c.drawEvent()
	if !ok {
		return nil, ErrNoEventReroll
	}
	ev := c.triggerEvent(st, def, out)
	out.Event = &ev
	out.Title = def.Title
	return out, nil
}
