package phase

import (
	"log/slog"

	"github.com/talgya/uprising/internal/bonus"
	"github.com/talgya/uprising/internal/dice"
	"github.com/talgya/uprising/internal/rebellion"
)

// MonthlyActionCooldownWeeks is the window before an ally's monthly
// ability refreshes.
const MonthlyActionCooldownWeeks = 4

// MaintenanceReport summarizes one maintenance run.
type MaintenanceReport struct {
	Week         int              `json:"week"` // week that was settled
	LoyaltyCheck dice.CheckResult `json:"loyaltyCheck"`
	TreasuryLow  bool             `json:"treasuryLow"`
	Attrition    int              `json:"attrition"`
	RankBefore   int              `json:"rankBefore"`
	RankAfter    int              `json:"rankAfter"`
	Expired      []string         `json:"expiredEvents,omitempty"`
	Refreshed    []string         `json:"refreshedMonthly,omitempty"`
	Notes        []string         `json:"notes,omitempty"`
}

// RunMaintenance settles the week: attrition, rank evaluation, monthly
// cooldowns, the traitor machine, rivalry expiry, weekly flag resets, and
// the week advance. Authority-only; callers must hold the canonical state.
func (c *Controller) RunMaintenance(st *rebellion.State) (*MaintenanceReport, error) {
	rep := &MaintenanceReport{Week: st.Week, RankBefore: st.Rank}

	c.settleAttrition(st, rep)
	c.evaluateRank(st, rep)
	c.refreshMonthly(st, rep)
	c.processTraitors(st, rep)

	// Advance the week, then drop events that are no longer active and
	// recompute rivalry blocking from the survivors.
	st.EventsThisPhase = st.EventsThisPhase[:0]
	st.ActionsUsedThisWeek = 0
	st.RecruitedThisPhase = false
	st.Week++
	c.pruneEvents(st, rep)
	c.resetWeeklyFlags(st)

	slog.Info("maintenance complete",
		"week", rep.Week,
		"attrition", rep.Attrition,
		"rank", st.Rank,
		"supporters", st.Supporters,
		"treasury", st.Treasury,
	)
	return rep, nil
}

// settleAttrition rolls the weekly loyalty check; failure costs 1d6
// supporters, critical failure 2d6, doubled while the treasury sits below
// the rank minimum.
func (c *Controller) settleAttrition(st *rebellion.State, rep *MaintenanceReport) {
	agg := bonus.Compute(c.Catalog, st, "", c.Actors)
	res := dice.Check(c.Roller, agg.Check(rebellion.CheckLoyalty).Total, 0, 10+st.Rank, true)
	rep.LoyaltyCheck = res
	rep.TreasuryLow = c.Catalog.TreasuryLow(st.Rank, st.Treasury)

	loss := 0
	switch res.Degree {
	case dice.Failure:
		loss = c.roll(dice.Spec{Count: 1, Sides: 6})
	case dice.CriticalFailure:
		loss = c.roll(dice.Spec{Count: 2, Sides: 6})
	}
	if loss > 0 && rep.TreasuryLow {
		loss *= 2
	}
	if loss > 0 {
		st.AddSupporters(-loss)
		rep.Attrition = loss
	}
}

// evaluateRank raises rank to the highest row the supporter count
// satisfies. Rank never decreases.
func (c *Controller) evaluateRank(st *rebellion.State, rep *MaintenanceReport) {
	earned := c.Catalog.RankForSupporters(st.Supporters)
	if earned > st.Rank {
		st.Rank = min(earned, st.MaxRank)
		rep.Notes = append(rep.Notes, "the movement grows in stature")
	}
	rep.RankAfter = st.Rank
}

// refreshMonthly clears monthly-action records whose cooldown window has
// elapsed, making those abilities available again.
func (c *Controller) refreshMonthly(st *rebellion.State, rep *MaintenanceReport) {
	for slug, use := range st.MonthlyActions {
		if st.Week-use.LastUsedWeek >= MonthlyActionCooldownWeeks {
			delete(st.MonthlyActions, slug)
			rep.Refreshed = append(rep.Refreshed, slug)
		}
	}
}

// processTraitors advances each active traitor event one step: a fresh
// capture moves to imprisonment; an imprisoned traitor gets a containment
// check, escaping on failure. Persuasion, execution, and exile are
// deliberate resolutions recorded via ResolveTraitor, and terminal stages
// are cleaned up here.
func (c *Controller) processTraitors(st *rebellion.State, rep *MaintenanceReport) {
	agg := bonus.Compute(c.Catalog, st, "", c.Actors)
	kept := st.Events[:0]
	for _, ev := range st.Events {
		def, ok := c.Catalog.Event(ev.Name)
		if !ok || !def.Traitor || !ev.ActiveAt(st.Week) {
			kept = append(kept, ev)
			continue
		}
		switch ev.Stage {
		case rebellion.TraitorCaptured:
			ev.Stage = rebellion.TraitorImprisoned
			kept = append(kept, ev)
		case rebellion.TraitorImprisoned:
			res := dice.Check(c.Roller, agg.Check(rebellion.CheckSecurity).Total, 0, 15, true)
			if res.Success {
				kept = append(kept, ev)
			} else {
				st.AddDanger(5)
				rep.Notes = append(rep.Notes, "a traitor escaped confinement")
			}
		case rebellion.TraitorPersuaded, rebellion.TraitorExecuted, rebellion.TraitorExiled, rebellion.TraitorEscaped:
			// Terminal; the event ends.
		default:
			kept = append(kept, ev)
		}
	}
	st.Events = kept
}

// ResolveTraitor records the deliberate fate of an imprisoned traitor.
func (c *Controller) ResolveTraitor(st *rebellion.State, eventIndex int, stage rebellion.TraitorStage) error {
	if eventIndex < 0 || eventIndex >= len(st.Events) {
		return ErrBadEventIndex
	}
	ev := &st.Events[eventIndex]
	def, ok := c.Catalog.Event(ev.Name)
	if !ok || !def.Traitor {
		return ErrBadEventIndex
	}
	switch stage {
	case rebellion.TraitorPersuaded:
		ev.Stage = stage
		st.AddSupporters(1)
	case rebellion.TraitorExecuted:
		ev.Stage = stage
		st.AddNotoriety(2)
	case rebellion.TraitorExiled:
		ev.Stage = stage
	default:
		return ErrBadEventIndex
	}
	return nil
}

// pruneEvents drops events no longer active at the new week and lifts
// rivalry blocks their expiry releases.
func (c *Controller) pruneEvents(st *rebellion.State, rep *MaintenanceReport) {
	kept := st.Events[:0]
	for _, ev := range st.Events {
		if ev.ActiveAt(st.Week) {
			kept = append(kept, ev)
			continue
		}
		rep.Expired = append(rep.Expired, ev.Name)
	}
	st.Events = kept

	// Recompute rivalry blocking from surviving events only.
	for i := range st.Teams {
		st.Teams[i].BlockedByRivalry = false
	}
	for _, ev := range st.Events {
		def, ok := c.Catalog.Event(ev.Name)
		if !ok || !def.Rivalry || !ev.ActiveAt(st.Week) {
			continue
		}
		for _, idx := range ev.AffectedTeams {
			if idx >= 0 && idx < len(st.Teams) {
				st.Teams[idx].BlockedByRivalry = true
			}
		}
	}
}

// resetWeeklyFlags clears the per-week consumables: reroll grants, bonus
// action allowances, team action selections, and auto-recovery of missing
// teams that can find their own way home.
func (c *Controller) resetWeeklyFlags(st *rebellion.State) {
	for i := range st.Allies {
		st.Allies[i].RerollUsedThisWeek = false
		st.Allies[i].BonusActionUsed = false
	}
	for i := range st.Teams {
		st.Teams[i].CurrentAction = ""
		if st.Teams[i].Missing && st.Teams[i].CanAutoRecover {
			st.Teams[i].Missing = false
		}
	}
}

// UseAllyReroll spends a weekly reroll grant for the given check: the
// sponsoring ally must grant rerolls for that check, be contributing, and
// have its grant unspent. The check is re-executed with the same derived
// modifier.
func (c *Controller) UseAllyReroll(st *rebellion.State, check rebellion.Check, prev dice.CheckResult) (*dice.CheckResult, error) {
	for i, ally := range st.Allies {
		if !ally.Contributing() || ally.RerollUsedThisWeek {
			continue
		}
		def, ok := c.Catalog.Ally(ally.Slug)
		if !ok || def.RerollCheck != check {
			continue
		}
		st.Allies[i].RerollUsedThisWeek = true
		res := dice.Reroll(c.Roller, prev)
		return &res, nil
	}
	return nil, ErrNoRerollSponsor
}

// UseMonthlyAction spends an ally's monthly ability, applying its resource
// deltas and starting the four-week cooldown.
func (c *Controller) UseMonthlyAction(st *rebellion.State, slug string) error {
	def, ok := c.Catalog.Ally(slug)
	if !ok {
		return ErrUnknownAlly
	}
	if def.Monthly == nil {
		return ErrNoMonthlyAbility
	}
	if _, found := st.AllyBySlug(slug); !found {
		return ErrUnknownAlly
	}
	if use, on := st.MonthlyActions[slug]; on && st.Week-use.LastUsedWeek < MonthlyActionCooldownWeeks {
		return ErrMonthlyOnCooldown
	}

	st.AddTreasury(def.Monthly.Treasury)
	st.AddSupporters(def.Monthly.Supporters)
	st.AddDanger(def.Monthly.Danger)
	st.AddNotoriety(def.Monthly.Notoriety)
	st.MonthlyActions[slug] = rebellion.MonthlyUse{LastUsedWeek: st.Week}
	return nil
}
