// Defaulting and normalization for the organization snapshot. Stored
// documents evolve across versions and arrive as partial updates, so every
// read coerces the document back into a dense, fully defaulted shape.
package rebellion

// Default returns a fresh organization state: week 1, rank 1, loyalty focus,
// one officer slot per role, no teams or allies.
func Default() *State {
	st := &State{
		Week:        1,
		Rank:        1,
		MaxRank:     20,
		Focus:       CheckLoyalty,
		TempBonuses: map[Check]int{},
		Officers: []Officer{
			{Role: RoleDemagogue},
			{Role: RolePartisan},
			{Role: RoleSpymaster},
			{Role: RoleSentinel},
			{Role: RoleStrategist},
			{Role: RoleRecruiter},
		},
		Teams:           []Team{},
		Allies:          []Ally{},
		Events:          []ActiveEvent{},
		Caches:          []Cache{},
		MonthlyActions:  map[string]MonthlyUse{},
		EventsThisPhase: []string{},
	}
	return st
}

// Normalize repairs a snapshot in place: fills zero-valued structural
// fields, backfills missing officer role slots, and clamps every numeric
// invariant. Safe to call repeatedly.
func (s *State) Normalize() {
	if s.Week < 1 {
		s.Week = 1
	}
	if s.MaxRank < 1 {
		s.MaxRank = 20
	}
	if s.Rank < 1 {
		s.Rank = 1
	}
	if s.Rank > s.MaxRank {
		s.Rank = s.MaxRank
	}
	switch s.Focus {
	case CheckLoyalty, CheckSecurity, CheckSecrecy:
	default:
		s.Focus = CheckLoyalty
	}

	s.Supporters = max(0, s.Supporters)
	s.Population = max(0, s.Population)
	s.Treasury = max(0, s.Treasury)
	s.Danger = max(0, s.Danger)
	s.Notoriety = ClampNotoriety(s.Notoriety)
	s.ActionsUsedThisWeek = max(0, s.ActionsUsedThisWeek)
	s.WeeksWithoutEvent = max(0, s.WeeksWithoutEvent)

	if s.TempBonuses == nil {
		s.TempBonuses = map[Check]int{}
	}
	if s.MonthlyActions == nil {
		s.MonthlyActions = map[string]MonthlyUse{}
	}
	if s.EventsThisPhase == nil {
		s.EventsThisPhase = []string{}
	}
	if s.Teams == nil {
		s.Teams = []Team{}
	}
	if s.Allies == nil {
		s.Allies = []Ally{}
	}
	if s.Events == nil {
		s.Events = []ActiveEvent{}
	}
	if s.Caches == nil {
		s.Caches = []Cache{}
	}

	// Every role gets at least one slot. Extra assignments for a role are
	// legal; the aggregator picks the best-valued eligible one, first in
	// slice order on ties.
	seen := map[OfficerRole]bool{}
	for _, o := range s.Officers {
		seen[o.Role] = true
	}
	for _, role := range OfficerRoles() {
		if !seen[role] {
			s.Officers = append(s.Officers, Officer{Role: role})
		}
	}

	for i := range s.Events {
		if !s.Events[i].IsPersistent && s.Events[i].Duration < 1 {
			s.Events[i].Duration = 1
		}
		if s.Events[i].WeekStarted < 1 {
			s.Events[i].WeekStarted = 1
		}
	}
}

// ClampNotoriety bounds notoriety to [0, 100].
func ClampNotoriety(n int) int {
	if n < 0 {
		return 0
	}
	if n > 100 {
		return 100
	}
	return n
}

// AddSupporters adjusts supporters, clamping at zero.
func (s *State) AddSupporters(delta int) {
	s.Supporters = max(0, s.Supporters+delta)
}

// AddTreasury adjusts treasury, clamping at zero.
func (s *State) AddTreasury(delta int) {
	s.Treasury = max(0, s.Treasury+delta)
}

// AddNotoriety adjusts notoriety within [0, 100].
func (s *State) AddNotoriety(delta int) {
	s.Notoriety = ClampNotoriety(s.Notoriety + delta)
}

// AddDanger adjusts base danger, clamping at zero.
func (s *State) AddDanger(delta int) {
	s.Danger = max(0, s.Danger+delta)
}
