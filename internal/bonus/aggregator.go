// Package bonus computes the dice modifier breakdown for the three
// organization checks. Compute is a pure function over a state snapshot:
// it never mutates state and never rolls dice.
package bonus

import (
	"github.com/talgya/uprising/internal/catalog"
	"github.com/talgya/uprising/internal/rebellion"
)

// Part is one labeled contribution to a check bonus.
type Part struct {
	Label string `json:"label"`
	Value int    `json:"value"`
}

// CheckBonus is the aggregate for one check: the summed total and the
// labeled parts it decomposes into. Addition is commutative, so part order
// affects only the human-readable breakdown.
type CheckBonus struct {
	Total int    `json:"total"`
	Parts []Part `json:"parts"`
}

func (b *CheckBonus) add(label string, value int) {
	if value == 0 {
		return
	}
	b.Total += value
	b.Parts = append(b.Parts, Part{Label: label, Value: value})
}

// Breakdown is the full aggregator output.
type Breakdown struct {
	Checks      map[rebellion.Check]*CheckBonus `json:"checks"`
	MaxActions  int                             `json:"maxActions"`
	Recruitment int                             `json:"recruitmentBonus"`
}

// Check returns the aggregate for one check.
func (b Breakdown) Check(c rebellion.Check) CheckBonus {
	if cb, ok := b.Checks[c]; ok {
		return *cb
	}
	return CheckBonus{}
}

// officerAbilities maps the three ability-derived roles to the ability set
// whose best modifier becomes the officer's value.
var officerAbilities = map[rebellion.OfficerRole][]string{
	rebellion.RoleDemagogue: {"charisma", "constitution"},
	rebellion.RolePartisan:  {"strength", "wisdom"},
	rebellion.RoleSpymaster: {"dexterity", "intelligence"},
}

// officerCheck maps each ability-derived role to the check it boosts.
var officerCheck = map[rebellion.OfficerRole]rebellion.Check{
	rebellion.RoleDemagogue: rebellion.CheckLoyalty,
	rebellion.RolePartisan:  rebellion.CheckSecurity,
	rebellion.RoleSpymaster: rebellion.CheckSecrecy,
}

// abilityRoles fixes the order the ability-derived officer parts are
// emitted in, keeping breakdowns byte-stable across runs.
var abilityRoles = []rebellion.OfficerRole{
	rebellion.RoleDemagogue,
	rebellion.RolePartisan,
	rebellion.RoleSpymaster,
}

// Compute aggregates every modifier source into per-check bonuses.
// actionContext names the action being resolved ("" outside any action);
// context-gated effects apply only when it matches.
func Compute(cat *catalog.Catalog, st *rebellion.State, actionContext string, dir rebellion.ActorDirectory) Breakdown {
	out := Breakdown{Checks: map[rebellion.Check]*CheckBonus{}}
	for _, c := range rebellion.Checks() {
		out.Checks[c] = &CheckBonus{}
	}

	// Rank base: the focused check gets the focus bonus, the others the
	// secondary bonus.
	row := cat.Rank(st.Rank)
	for _, c := range rebellion.Checks() {
		if c == st.Focus {
			out.Checks[c].add("Rank (focus)", row.FocusBonus)
		} else {
			out.Checks[c].add("Rank", row.SecondaryBonus)
		}
	}
	out.MaxActions = row.Actions

	// Temporary bonuses.
	for _, c := range rebellion.Checks() {
		out.Checks[c].add("Temporary", st.TempBonuses[c])
	}

	applyEvents(cat, st, actionContext, &out)
	applyOfficers(st, dir, &out)
	applyAllies(cat, st, actionContext, &out)
	applyTeams(cat, st, &out)

	return out
}

// applyEvents adds modifiers from active events: named catalog effects
// (full or mitigated-reduced), custom modifiers, and the saturating
// safehouse aggregate.
func applyEvents(cat *catalog.Catalog, st *rebellion.State, actionContext string, out *Breakdown) {
	safehouses := 0
	for _, ev := range st.Events {
		if !ev.ActiveAt(st.Week) {
			continue
		}

		if ev.IsCustomModifier {
			for _, c := range rebellion.Checks() {
				if ev.Affects(string(c)) {
					out.Checks[c].add(ev.Name, ev.ModifierValue)
				}
			}
			continue
		}

		def, ok := cat.Event(ev.Name)
		if !ok {
			continue
		}
		if def.Safehouse {
			safehouses++
			continue
		}
		for _, eff := range def.Checks {
			if eff.Action != "" && eff.Action != actionContext {
				continue
			}
			value := eff.Value
			if def.Mitigable() && ev.Mitigated {
				value = eff.MitigatedValue
			}
			out.Checks[eff.Check].add(def.Title, value)
		}
	}

	if safehouses > 0 {
		out.Checks[rebellion.CheckSecurity].add("Safehouses",
			min(safehouses, catalog.SafehouseBonusCap))
	}
}

// applyOfficers adds the officer contributions: the best-valued eligible
// officer per ability role (first in slot order on ties), the sentinel's
// selected checks, the strategist action, and the recruiter bonus.
func applyOfficers(st *rebellion.State, dir rebellion.ActorDirectory, out *Breakdown) {
	type best struct {
		value int
		actor rebellion.Actor
		found bool
	}
	bests := map[rebellion.OfficerRole]best{}

	for _, o := range st.Officers {
		if !o.Eligible() {
			continue
		}
		switch o.Role {
		case rebellion.RoleDemagogue, rebellion.RolePartisan, rebellion.RoleSpymaster:
			actor, ok := rebellion.ResolveOfficerActor(st, o, dir)
			if !ok {
				continue
			}
			value := bestAbility(actor, officerAbilities[o.Role])
			if cur := bests[o.Role]; !cur.found || value > cur.value {
				bests[o.Role] = best{value: value, actor: actor, found: true}
			}
		case rebellion.RoleSentinel:
			// The sentinel needs no bound actor, only its pre-selected
			// pair of checks.
			for _, c := range o.SelectedChecks {
				if cb, ok := out.Checks[c]; ok {
					cb.add("Sentinel", 1)
				}
			}
		case rebellion.RoleStrategist:
			if o.ActorID != "" {
				out.MaxActions++
			}
		case rebellion.RoleRecruiter:
			actor, ok := rebellion.ResolveOfficerActor(st, o, dir)
			if ok && actor.Level > out.Recruitment {
				out.Recruitment = actor.Level
			}
		}
	}

	for _, role := range abilityRoles {
		if b := bests[role]; b.found {
			out.Checks[officerCheck[role]].add(b.actor.Name+" ("+string(role)+")", b.value)
		}
	}
}

// bestAbility returns the highest modifier among the actor's listed
// abilities.
func bestAbility(actor rebellion.Actor, abilities []string) int {
	bestVal := 0
	first := true
	for _, a := range abilities {
		mod, ok := actor.Abilities[a]
		if !ok {
			continue
		}
		if first || mod > bestVal {
			bestVal = mod
			first = false
		}
	}
	return bestVal
}

// applyAllies adds slug-specific deltas from contributing allies.
func applyAllies(cat *catalog.Catalog, st *rebellion.State, actionContext string, out *Breakdown) {
	for _, ally := range st.Allies {
		if !ally.Contributing() {
			continue
		}
		def, ok := cat.Ally(ally.Slug)
		if !ok {
			continue
		}
		for _, g := range def.Grants {
			switch g.Reveal {
			case catalog.RevealRevealed:
				if !ally.Revealed {
					continue
				}
			case catalog.RevealHidden:
				if ally.Revealed {
					continue
				}
			}
			if g.Action != "" && g.Action != actionContext {
				continue
			}
			check := g.Check
			if g.Selected {
				check = ally.SelectedBonus
			}
			if cb, ok := out.Checks[check]; ok {
				cb.add(def.Name, g.Value)
			}
		}
	}
}

// applyTeams adds passive bonuses from operational teams whose type grants
// one.
func applyTeams(cat *catalog.Catalog, st *rebellion.State, out *Breakdown) {
	for _, team := range st.Teams {
		if !team.Operational() {
			continue
		}
		def, ok := cat.Team(team.Type)
		if !ok {
			continue
		}
		for check, value := range def.Grants {
			if cb, ok := out.Checks[check]; ok {
				cb.add(def.Name, value)
			}
		}
	}
}
