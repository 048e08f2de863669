package catalog

import "github.com/talgya/uprising/internal/rebellion"

// DCPolicy names how an action's difficulty is derived.
type DCPolicy string

const (
	DCFixed      DCPolicy = "fixed"       // static DC from the action definition
	DCRank       DCPolicy = "rank"        // 10 + organization rank
	DCActorLevel DCPolicy = "actorLevel"  // 10 + bound character's level
	DCTeamType   DCPolicy = "teamType"    // hire DC of the target team type
	DCCacheSize  DCPolicy = "cacheSize"   // small/medium/large lookup
	DCEarnIncome DCPolicy = "earnIncome"  // level-indexed earn-income DC
	DCNone       DCPolicy = "none"        // no roll
)

// ActionDef describes one entry of the weekly action menu.
type ActionDef struct {
	Key         string          `yaml:"key"`
	Name        string          `yaml:"name"`
	Check       rebellion.Check `yaml:"check,omitempty"`
	Policy      DCPolicy        `yaml:"policy"`
	DC          int             `yaml:"dc,omitempty"` // for DCFixed
	Recruitment bool            `yaml:"recruitment,omitempty"`
}

// CacheDC returns the establishment DC for a cache size.
func CacheDC(size rebellion.CacheSize) (int, bool) {
	switch size {
	case rebellion.CacheSmall:
		return 15, true
	case rebellion.CacheMedium:
		return 20, true
	case rebellion.CacheLarge:
		return 25, true
	}
	return 0, false
}

func defaultActions() map[string]ActionDef {
	defs := []ActionDef{
		{Key: "earn-gold", Name: "Earn Gold", Policy: DCEarnIncome},
		{Key: "recruit-supporters", Name: "Recruit Supporters", Check: rebellion.CheckLoyalty, Policy: DCRank, Recruitment: true},
		{Key: "hire-team", Name: "Hire Team", Policy: DCTeamType, Recruitment: true},
		{Key: "upgrade-team", Name: "Upgrade Team", Policy: DCTeamType},
		{Key: "dismiss-team", Name: "Dismiss Team", Policy: DCNone},
		{Key: "gather-information", Name: "Gather Information", Check: rebellion.CheckSecrecy, Policy: DCFixed, DC: 15},
		{Key: "lie-low", Name: "Lie Low", Check: rebellion.CheckSecrecy, Policy: DCRank},
		{Key: "reduce-danger", Name: "Reduce Danger", Check: rebellion.CheckSecurity, Policy: DCFixed, DC: 15},
		{Key: "sabotage", Name: "Sabotage", Check: rebellion.CheckSecrecy, Policy: DCFixed, DC: 20},
		{Key: "rescue-character", Name: "Rescue Character", Check: rebellion.CheckSecurity, Policy: DCActorLevel},
		{Key: "restore-ally", Name: "Restore Ally", Check: rebellion.CheckLoyalty, Policy: DCFixed, DC: 15},
		{Key: "establish-cache", Name: "Establish Cache", Check: rebellion.CheckSecrecy, Policy: DCCacheSize},
		{Key: "scout-location", Name: "Scout Location", Check: rebellion.CheckSecrecy, Policy: DCFixed, DC: 15},
		{Key: "spread-disinformation", Name: "Spread Disinformation", Check: rebellion.CheckSecrecy, Policy: DCFixed, DC: 20},
		{Key: "guarantee-event", Name: "Guarantee Event", Policy: DCNone},
	}
	out := make(map[string]ActionDef, len(defs))
	for _, d := range defs {
		out[d.Key] = d
	}
	return out
}
