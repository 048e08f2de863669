// Package phase drives the weekly progression: the activity phase with its
// bounded action budget, the event phase with its probabilistic draw, and
// the maintenance phase that settles attrition and advances the week.
//
// Die-roll failures are designed branches of the state machine and never
// surface as errors; only structural problems (bad indexes, unknown types,
// missing actor bindings) reject an operation.
package phase

import (
	"errors"

	"github.com/talgya/uprising/internal/catalog"
	"github.com/talgya/uprising/internal/dice"
	"github.com/talgya/uprising/internal/rebellion"
)

// Structural rejections. Rule failures (failed checks, lost supporters)
// are not errors.
var (
	ErrUnknownAction      = errors.New("phase: unknown action")
	ErrUnknownTeamType    = errors.New("phase: unknown team type")
	ErrUnknownAlly        = errors.New("phase: unknown ally")
	ErrBadTeamIndex       = errors.New("phase: no team at index")
	ErrBadAllyIndex       = errors.New("phase: no ally at index")
	ErrBadEventIndex      = errors.New("phase: no event at index")
	ErrTeamUnavailable    = errors.New("phase: team cannot act")
	ErrActionNotAllowed   = errors.New("phase: action not in team capability list")
	ErrTeamActed          = errors.New("phase: team already acted this week")
	ErrNoActionsLeft      = errors.New("phase: weekly action budget exhausted")
	ErrRecruitmentUsed    = errors.New("phase: recruitment already used this phase")
	ErrMissingActor       = errors.New("phase: required actor binding missing")
	ErrNoUpgrade          = errors.New("phase: team type has no upgrade")
	ErrNotMitigable       = errors.New("phase: event has no mitigation check")
	ErrNoRerollSponsor    = errors.New("phase: no ally can sponsor this reroll")
	ErrNoEventReroll      = errors.New("phase: no event reroll available")
	ErrMonthlyOnCooldown  = errors.New("phase: monthly ability still on cooldown")
	ErrNoMonthlyAbility   = errors.New("phase: ally has no monthly ability")
	ErrInvalidCacheSize   = errors.New("phase: invalid cache size")
)

// Controller resolves phase operations against a state snapshot. It holds
// no state of its own; callers own the snapshot and its persistence.
type Controller struct {
	Catalog *catalog.Catalog
	Roller  dice.Roller
	Actors  rebellion.ActorDirectory
}

// New builds a controller.
func New(cat *catalog.Catalog, roller dice.Roller, actors rebellion.ActorDirectory) *Controller {
	return &Controller{Catalog: cat, Roller: roller, Actors: actors}
}

func (c *Controller) roll(spec dice.Spec) int {
	_, total, err := dice.RollSpec(c.Roller, spec)
	if err != nil {
		return 0
	}
	return total
}
