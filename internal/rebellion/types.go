// Package rebellion defines the canonical organization state: the single
// world-scoped document tracking supporters, treasury, notoriety, danger,
// officers, teams, allies, and time-scoped events.
package rebellion

// Check identifies one of the three organization checks.
type Check string

const (
	CheckLoyalty  Check = "loyalty"
	CheckSecurity Check = "security"
	CheckSecrecy  Check = "secrecy"
)

// Checks lists all check kinds in canonical order.
func Checks() []Check {
	return []Check{CheckLoyalty, CheckSecurity, CheckSecrecy}
}

// ValidCheck reports whether s names a known check.
func ValidCheck(s string) bool {
	switch Check(s) {
	case CheckLoyalty, CheckSecurity, CheckSecrecy:
		return true
	}
	return false
}

// OfficerRole identifies an officer slot. Extra assignments beyond the
// default six slots are allowed; the best eligible one counts.
type OfficerRole string

const (
	RoleDemagogue  OfficerRole = "demagogue"  // loyalty, best of Cha/Con
	RolePartisan   OfficerRole = "partisan"   // security, best of Str/Wis
	RoleSpymaster  OfficerRole = "spymaster"  // secrecy, best of Dex/Int
	RoleSentinel   OfficerRole = "sentinel"   // +1 to two selected checks, no actor needed
	RoleStrategist OfficerRole = "strategist" // +1 action per week
	RoleRecruiter  OfficerRole = "recruiter"  // recruitment bonus = bound actor level
)

// OfficerRoles lists all roles in slot order. Slot order doubles as the
// tie-break for equal officer values: first slot wins.
func OfficerRoles() []OfficerRole {
	return []OfficerRole{
		RoleDemagogue, RolePartisan, RoleSpymaster,
		RoleSentinel, RoleStrategist, RoleRecruiter,
	}
}

// Officer is a role assignment. ActorID may reference a live actor or an
// ally slug; an empty ActorID leaves the slot vacant (sentinel excepted).
type Officer struct {
	Role           OfficerRole `json:"role"`
	ActorID        string      `json:"actorId,omitempty"`
	SelectedChecks []Check     `json:"selectedChecks,omitempty"` // sentinel only
	Disabled       bool        `json:"disabled,omitempty"`
	Missing        bool        `json:"missing,omitempty"`
	Captured       bool        `json:"captured,omitempty"`
}

// Eligible reports whether the officer can contribute bonuses this week.
func (o Officer) Eligible() bool {
	return !o.Disabled && !o.Missing && !o.Captured
}

// Team is a hired unit. Position in State.Teams is its stable identity;
// save merges match teams by index, never by name.
type Team struct {
	Type             string `json:"type"`
	Manager          string `json:"manager"` // actor reference, "" = unmanaged
	Bonus            int    `json:"bonus"`
	Disabled         bool   `json:"disabled"`
	Missing          bool   `json:"missing"`
	CanAutoRecover   bool   `json:"canAutoRecover"`
	CurrentAction    string `json:"currentAction"`
	BlockedByRivalry bool   `json:"blockedByRivalry,omitempty"`
}

// Operational reports whether the team can act and grant passive bonuses.
func (t Team) Operational() bool {
	return !t.Disabled && !t.Missing && !t.BlockedByRivalry
}

// Ally is a catalog-defined non-team entity granting passive or
// conditional bonuses.
type Ally struct {
	Slug               string `json:"slug"`
	Enabled            bool   `json:"enabled"`
	Missing            bool   `json:"missing,omitempty"`
	Captured           bool   `json:"captured,omitempty"`
	ActorID            string `json:"actorId,omitempty"`
	SelectedBonus      Check  `json:"selectedBonus,omitempty"`
	Revealed           bool   `json:"revealed,omitempty"`
	FavoritePlayer     string `json:"favoritePlayer,omitempty"`
	RerollUsedThisWeek bool   `json:"rerollUsedThisWeek,omitempty"`
	BonusActionUsed    bool   `json:"bonusActionUsed,omitempty"`
}

// Contributing reports whether the ally's bonuses apply this week.
func (a Ally) Contributing() bool {
	return a.Enabled && !a.Missing && !a.Captured
}

// TraitorStage tracks the nested traitor/imprisonment machine carried on a
// traitor event.
type TraitorStage string

const (
	TraitorCaptured   TraitorStage = "captured"
	TraitorImprisoned TraitorStage = "imprisoned"
	TraitorPersuaded  TraitorStage = "persuaded"
	TraitorExecuted   TraitorStage = "executed"
	TraitorExiled     TraitorStage = "exiled"
	TraitorEscaped    TraitorStage = "escaped"
)

// ActiveEvent is a time-scoped modifier instance. Persistent events stay
// active until explicitly cleared; duration-bound events expire on their own.
// Payload fields are interpreted by the catalog entry matching Name.
type ActiveEvent struct {
	Name         string `json:"name"`
	WeekStarted  int    `json:"weekStarted"`
	IsPersistent bool   `json:"isPersistent,omitempty"`
	Duration     int    `json:"duration,omitempty"`

	Mitigate  string `json:"mitigate,omitempty"` // skill key for the mitigation check
	DC        int    `json:"dc,omitempty"`
	Mitigated bool   `json:"mitigated,omitempty"`

	DangerReduction  int          `json:"dangerReduction,omitempty"`
	DangerIncrease   int          `json:"dangerIncrease,omitempty"`
	AffectedTeams    []int        `json:"affectedTeams,omitempty"` // team indexes
	ModifierValue    int          `json:"modifierValue,omitempty"`
	AffectedChecks   []string     `json:"affectedChecks,omitempty"` // check names, or "danger"
	IsCustomModifier bool         `json:"isCustomModifier,omitempty"`
	Stage            TraitorStage `json:"stage,omitempty"`
}

// ActiveAt reports whether the event applies at week w: it must have
// started, and either be persistent or still be inside its duration window.
func (e ActiveEvent) ActiveAt(w int) bool {
	if e.WeekStarted > w {
		return false
	}
	if e.IsPersistent {
		return true
	}
	return w-e.WeekStarted < e.Duration
}

// Affects reports whether a custom modifier covers the named target
// (a check name or "danger").
func (e ActiveEvent) Affects(target string) bool {
	for _, c := range e.AffectedChecks {
		if c == target {
			return true
		}
	}
	return false
}

// CacheSize categorizes a supply cache.
type CacheSize string

const (
	CacheSmall  CacheSize = "small"
	CacheMedium CacheSize = "medium"
	CacheLarge  CacheSize = "large"
)

// Cache is an established supply cache.
type Cache struct {
	Size            CacheSize `json:"size"`
	Location        string    `json:"location,omitempty"`
	WeekEstablished int       `json:"weekEstablished"`
}

// MonthlyUse records the last week an ally's monthly ability was spent.
type MonthlyUse struct {
	LastUsedWeek int `json:"lastUsedWeek"`
}

// State is the complete organization snapshot. A single instance exists per
// world; all mutation goes through the store's merge contract.
type State struct {
	Week    int `json:"week"`
	Rank    int `json:"rank"`
	MaxRank int `json:"maxRank"`

	Supporters int `json:"supporters"`
	Population int `json:"population"`
	Treasury   int `json:"treasury"`
	Notoriety  int `json:"notoriety"`
	Danger     int `json:"danger"`

	Focus Check `json:"focus"`

	ActionsUsedThisWeek int  `json:"actionsUsedThisWeek"`
	WeeksWithoutEvent   int  `json:"weeksWithoutEvent"`
	GuaranteedEvent     bool `json:"guaranteedEvent,omitempty"`
	RecruitedThisPhase  bool `json:"recruitedThisPhase,omitempty"`

	TempBonuses map[Check]int `json:"tempBonuses"`

	Officers []Officer     `json:"officers"`
	Teams    []Team        `json:"teams"`
	Allies   []Ally        `json:"allies"`
	Events   []ActiveEvent `json:"events"`
	Caches   []Cache       `json:"caches"`

	MonthlyActions  map[string]MonthlyUse `json:"monthlyActions"`
	EventsThisPhase []string              `json:"eventsThisPhase"`
}

// Officer returns the assignment for a role, if present.
func (s *State) Officer(role OfficerRole) (Officer, bool) {
	for _, o := range s.Officers {
		if o.Role == role {
			return o, true
		}
	}
	return Officer{}, false
}

// AllyBySlug returns the ally state for a catalog slug, if present.
func (s *State) AllyBySlug(slug string) (Ally, bool) {
	for _, a := range s.Allies {
		if a.Slug == slug {
			return a, true
		}
	}
	return Ally{}, false
}

// ActiveEvents returns the events active at the current week.
func (s *State) ActiveEvents() []ActiveEvent {
	var out []ActiveEvent
	for _, e := range s.Events {
		if e.ActiveAt(s.Week) {
			out = append(out, e)
		}
	}
	return out
}

// EventSeenThisPhase reports whether the named event already occurred during
// the current event phase.
func (s *State) EventSeenThisPhase(name string) bool {
	for _, n := range s.EventsThisPhase {
		if n == name {
			return true
		}
	}
	return false
}

// Actor is the slice of a host-side character the engine needs: a display
// name, a level, and ability modifiers. Actor storage itself is external.
type Actor struct {
	ID        string
	Name      string
	Level     int
	Abilities map[string]int // ability key → modifier
}

// ActorDirectory resolves actor references. Implementations wrap the host's
// document store; tests use a map.
type ActorDirectory interface {
	Actor(id string) (Actor, bool)
}

// ActorMap is a static ActorDirectory.
type ActorMap map[string]Actor

// Actor implements ActorDirectory.
func (m ActorMap) Actor(id string) (Actor, bool) {
	a, ok := m[id]
	return a, ok
}

// ResolveOfficerActor resolves an officer's binding to a live actor. A
// binding naming an ally slug is followed to that ally's bound actor.
func ResolveOfficerActor(s *State, o Officer, dir ActorDirectory) (Actor, bool) {
	if o.ActorID == "" {
		return Actor{}, false
	}
	if ally, ok := s.AllyBySlug(o.ActorID); ok {
		if ally.ActorID == "" {
			return Actor{}, false
		}
		return dir.Actor(ally.ActorID)
	}
	return dir.Actor(o.ActorID)
}
