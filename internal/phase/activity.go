package phase

import (
	"fmt"

	"github.com/talgya/uprising/internal/bonus"
	"github.com/talgya/uprising/internal/catalog"
	"github.com/talgya/uprising/internal/dice"
	"github.com/talgya/uprising/internal/rebellion"
)

// ActionRequest selects one weekly action. TeamIndex is nil when the core
// organization acts rather than a hired team.
type ActionRequest struct {
	Action    string              `json:"action"`
	TeamIndex *int                `json:"teamIndex,omitempty"`
	TeamType  string              `json:"teamType,omitempty"` // hire-team
	Manager   string              `json:"manager,omitempty"`  // hire-team
	AllyIndex *int                `json:"allyIndex,omitempty"`
	ActorID   string              `json:"actorId,omitempty"` // level-based DCs
	CacheSize rebellion.CacheSize `json:"cacheSize,omitempty"`
	Location  string              `json:"location,omitempty"`
	Manual    int                 `json:"manual,omitempty"`
}

// ActionOutcome reports a resolved action: the roll (nil for roll-free
// actions), its degree band, and the state deltas applied.
type ActionOutcome struct {
	Action     string            `json:"action"`
	Check      *dice.CheckResult `json:"check,omitempty"`
	Degree     dice.Degree       `json:"degree"`
	Income     int               `json:"income,omitempty"`
	Supporters int               `json:"supporters,omitempty"`
	Notoriety  int               `json:"notoriety,omitempty"`
	Danger     int               `json:"danger,omitempty"`
	Notes      []string          `json:"notes,omitempty"`
	BonusSpent bool              `json:"bonusActionSpent,omitempty"` // ally-funded, not budget
}

func (o *ActionOutcome) note(format string, args ...any) {
	o.Notes = append(o.Notes, fmt.Sprintf(format, args...))
}

// PerformAction resolves one activity-phase action, mutating st with the
// outcome's deltas. The action budget, recruitment limit, and team
// capability lists gate the attempt before any die is rolled.
func (c *Controller) PerformAction(st *rebellion.State, req ActionRequest) (*ActionOutcome, error) {
	def, ok := c.Catalog.Action(req.Action)
	if !ok {
		return nil, ErrUnknownAction
	}

	var team *rebellion.Team
	var teamDef catalog.TeamDef
	if req.TeamIndex != nil {
		i := *req.TeamIndex
		if i < 0 || i >= len(st.Teams) {
			return nil, ErrBadTeamIndex
		}
		team = &st.Teams[i]
		if !team.Operational() {
			return nil, ErrTeamUnavailable
		}
		if team.CurrentAction != "" {
			return nil, ErrTeamActed
		}
		teamDef, ok = c.Catalog.Team(team.Type)
		if !ok {
			return nil, ErrUnknownTeamType
		}
		if !teamDef.Allows(req.Action) && !managesTeam(req.Action) {
			return nil, ErrActionNotAllowed
		}
	}

	if def.Recruitment && st.RecruitedThisPhase {
		return nil, ErrRecruitmentUsed
	}

	agg := bonus.Compute(c.Catalog, st, req.Action, c.Actors)

	// Budget: ally bonus-action allowances are action-restricted and do
	// not count against general capacity.
	sponsor := c.bonusActionSponsor(st, req.Action, team)
	if sponsor < 0 && st.ActionsUsedThisWeek >= agg.MaxActions {
		return nil, ErrNoActionsLeft
	}

	out := &ActionOutcome{Action: req.Action, Degree: dice.Success}

	if def.Policy == catalog.DCNone {
		if err := c.applyRollFree(st, req, out); err != nil {
			return nil, err
		}
	} else {
		if err := c.resolveRolled(st, req, def, team, teamDef, agg, out); err != nil {
			return nil, err
		}
	}

	// Spend the budget only after structural validation has passed.
	if sponsor >= 0 {
		st.Allies[sponsor].BonusActionUsed = true
		out.BonusSpent = true
	} else {
		st.ActionsUsedThisWeek++
	}
	if def.Recruitment {
		st.RecruitedThisPhase = true
	}
	if team != nil && req.Action != "dismiss-team" {
		// The dismissed team is gone; writing through the pointer would
		// hit whatever shifted into its slot.
		team.CurrentAction = req.Action
	}
	return out, nil
}

// managesTeam reports whether the action administers the team itself
// rather than tasking its members; capability lists do not apply.
func managesTeam(action string) bool {
	return action == "upgrade-team" || action == "dismiss-team"
}

// bonusActionSponsor returns the index of an ally funding this action as a
// bonus action, or -1. A sponsor must grant this action, be contributing,
// have its weekly allowance unspent, and the acting team must be managed
// by the sponsor's favorite player.
func (c *Controller) bonusActionSponsor(st *rebellion.State, action string, team *rebellion.Team) int {
	if team == nil {
		return -1
	}
	for i, ally := range st.Allies {
		if !ally.Contributing() || ally.BonusActionUsed {
			continue
		}
		def, ok := c.Catalog.Ally(ally.Slug)
		if !ok || def.BonusAction != action {
			continue
		}
		if ally.FavoritePlayer == "" || team.Manager != ally.FavoritePlayer {
			continue
		}
		return i
	}
	return -1
}

func (c *Controller) applyRollFree(st *rebellion.State, req ActionRequest, out *ActionOutcome) error {
	switch req.Action {
	case "dismiss-team":
		if req.TeamIndex == nil || *req.TeamIndex < 0 || *req.TeamIndex >= len(st.Teams) {
			return ErrBadTeamIndex
		}
		i := *req.TeamIndex
		st.Teams = append(st.Teams[:i], st.Teams[i+1:]...)
		out.note("team %d dismissed", i)
	case "guarantee-event":
		st.GuaranteedEvent = true
		out.note("an event is now guaranteed this week")
	default:
		return ErrUnknownAction
	}
	return nil
}

// resolveRolled derives the DC per the action's policy, rolls the check,
// and applies degree-banded deltas.
func (c *Controller) resolveRolled(st *rebellion.State, req ActionRequest, def catalog.ActionDef, team *rebellion.Team, teamDef catalog.TeamDef, agg bonus.Breakdown, out *ActionOutcome) error {
	check := def.Check
	dc := 0

	switch def.Policy {
	case catalog.DCFixed:
		dc = def.DC
	case catalog.DCRank:
		dc = 10 + st.Rank
	case catalog.DCActorLevel:
		actor, ok := c.Actors.Actor(req.ActorID)
		if !ok {
			return ErrMissingActor
		}
		dc = 10 + actor.Level
	case catalog.DCCacheSize:
		var ok bool
		dc, ok = catalog.CacheDC(req.CacheSize)
		if !ok {
			return ErrInvalidCacheSize
		}
	case catalog.DCTeamType:
		targetType := req.TeamType
		if req.Action == "upgrade-team" {
			if team == nil {
				return ErrBadTeamIndex
			}
			if teamDef.UpgradesTo == "" {
				return ErrNoUpgrade
			}
			targetType = teamDef.UpgradesTo
		}
		target, ok := c.Catalog.Team(targetType)
		if !ok {
			return ErrUnknownTeamType
		}
		dc = target.HireDC
		check = target.HireCheck
	case catalog.DCEarnIncome:
		return c.resolveEarnIncome(st, req, team, out)
	default:
		return ErrUnknownAction
	}

	modifier := agg.Check(check).Total
	if req.Action == "recruit-supporters" {
		// The recruiter's bonus applies to the recruitment roll itself,
		// not to the loyalty check in general.
		modifier += agg.Recruitment
	}
	res := dice.Check(c.Roller, modifier, req.Manual, dc, true)
	out.Check = &res
	out.Degree = res.Degree

	return c.applyOutcome(st, req, team, res.Degree, out)
}

// resolveEarnIncome handles the progressive earn-gold table: the task level
// comes from the managing character (organization rank when unmanaged), the
// earning tier from the team's rank bonus.
func (c *Controller) resolveEarnIncome(st *rebellion.State, req ActionRequest, team *rebellion.Team, out *ActionOutcome) error {
	if team == nil {
		return ErrBadTeamIndex
	}
	level := st.Rank
	if team.Manager != "" {
		if actor, ok := c.Actors.Actor(team.Manager); ok {
			level = actor.Level
		}
	}
	dc := catalog.EarnIncomeDC(level)
	res := dice.Check(c.Roller, team.Bonus, req.Manual, dc, true)
	out.Check = &res
	out.Degree = res.Degree
	income := catalog.CalculateEarnIncome(level, team.Bonus, res.Total, dc)
	out.Income = income
	st.AddTreasury(income)
	if income > 0 {
		out.note("earned %d", income)
	}
	return nil
}

// applyOutcome maps a degree band to the action's state deltas.
func (c *Controller) applyOutcome(st *rebellion.State, req ActionRequest, team *rebellion.Team, degree dice.Degree, out *ActionOutcome) error {
	crit := degree == dice.CriticalSuccess
	success := degree >= dice.Success

	switch req.Action {
	case "recruit-supporters":
		switch degree {
		case dice.CriticalSuccess:
			out.Supporters = c.roll(dice.Spec{Count: 2, Sides: 6})
		case dice.Success:
			out.Supporters = c.roll(dice.Spec{Count: 1, Sides: 6})
		case dice.CriticalFailure:
			out.Supporters = -c.roll(dice.Spec{Count: 1, Sides: 4})
			out.Notoriety = 1
		}
		st.AddSupporters(out.Supporters)
		st.AddNotoriety(out.Notoriety)

	case "hire-team":
		target, ok := c.Catalog.Team(req.TeamType)
		if !ok {
			return ErrUnknownTeamType
		}
		if success {
			st.Teams = append(st.Teams, rebellion.Team{
				Type:           target.Key,
				Manager:        req.Manager,
				Bonus:          1,
				CanAutoRecover: crit,
			})
			out.note("hired %s", target.Name)
		} else if degree == dice.CriticalFailure {
			out.Notoriety = 1
			st.AddNotoriety(1)
		}

	case "upgrade-team":
		if success {
			def, _ := c.Catalog.Team(team.Type)
			team.Type = def.UpgradesTo
			if crit {
				team.Bonus++
			}
			out.note("team upgraded to %s", team.Type)
		} else if degree == dice.CriticalFailure {
			team.Disabled = true
			out.note("team shaken by the failed transition")
		}

	case "gather-information":
		if success {
			out.note("information gathered")
		}
		if degree == dice.CriticalFailure {
			out.Notoriety = 1
			st.AddNotoriety(1)
		}

	case "lie-low":
		if success {
			out.Notoriety = -c.roll(dice.Spec{Count: 1, Sides: 4})
			st.AddNotoriety(out.Notoriety)
			if i := activeEventIndex(st, "inquisition"); i >= 0 {
				st.Events = append(st.Events[:i], st.Events[i+1:]...)
				out.note("the inquisition loses the trail")
			}
		} else if degree == dice.CriticalFailure {
			out.Notoriety = 1
			st.AddNotoriety(1)
		}

	case "reduce-danger":
		switch degree {
		case dice.CriticalSuccess:
			out.Danger = -c.roll(dice.Spec{Count: 2, Sides: 6})
		case dice.Success:
			out.Danger = -c.roll(dice.Spec{Count: 1, Sides: 6})
		case dice.CriticalFailure:
			out.Danger = c.roll(dice.Spec{Count: 1, Sides: 4})
		}
		st.AddDanger(out.Danger)

	case "sabotage":
		switch degree {
		case dice.CriticalSuccess:
			out.Danger = -c.roll(dice.Spec{Count: 2, Sides: 6})
		case dice.Success:
			out.Danger = -c.roll(dice.Spec{Count: 1, Sides: 6})
			out.Notoriety = 1
		case dice.CriticalFailure:
			out.Notoriety = c.roll(dice.Spec{Count: 1, Sides: 4})
			if team != nil {
				team.Missing = true
				out.note("the team vanishes after the botched job")
			}
		}
		st.AddDanger(out.Danger)
		st.AddNotoriety(out.Notoriety)

	case "rescue-character":
		if req.AllyIndex == nil || *req.AllyIndex < 0 || *req.AllyIndex >= len(st.Allies) {
			return ErrBadAllyIndex
		}
		ally := &st.Allies[*req.AllyIndex]
		if success {
			ally.Captured = false
			out.note("%s freed", ally.Slug)
		} else if degree == dice.CriticalFailure && team != nil {
			team.Missing = true
			out.note("the rescue party is lost")
		}

	case "restore-ally":
		if req.AllyIndex == nil || *req.AllyIndex < 0 || *req.AllyIndex >= len(st.Allies) {
			return ErrBadAllyIndex
		}
		ally := &st.Allies[*req.AllyIndex]
		if success {
			ally.Missing = false
			out.note("%s found", ally.Slug)
		} else if degree == dice.CriticalFailure {
			ally.Captured = true
			out.note("%s taken while being sought", ally.Slug)
		}

	case "establish-cache":
		if success {
			st.Caches = append(st.Caches, rebellion.Cache{
				Size:            req.CacheSize,
				Location:        req.Location,
				WeekEstablished: st.Week,
			})
			out.note("%s cache established", req.CacheSize)
		} else if degree == dice.CriticalFailure {
			out.Notoriety = 1
			st.AddNotoriety(1)
		}

	case "scout-location":
		if success {
			out.note("location scouted")
		}
		if degree == dice.CriticalFailure {
			out.Notoriety = 1
			st.AddNotoriety(1)
		}

	case "spread-disinformation":
		switch degree {
		case dice.CriticalSuccess:
			out.Notoriety = -c.roll(dice.Spec{Count: 2, Sides: 4})
		case dice.Success:
			out.Notoriety = -c.roll(dice.Spec{Count: 1, Sides: 4})
		case dice.CriticalFailure:
			out.Notoriety = c.roll(dice.Spec{Count: 1, Sides: 4})
		}
		st.AddNotoriety(out.Notoriety)

	default:
		return ErrUnknownAction
	}
	return nil
}

func activeEventIndex(st *rebellion.State, name string) int {
	for i, ev := range st.Events {
		if ev.Name == name && ev.ActiveAt(st.Week) {
			return i
		}
	}
	return -1
}
