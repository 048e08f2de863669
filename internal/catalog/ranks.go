// Package catalog holds the entity registries the engine rules consult:
// the rank table, team and ally definitions, the tagged event catalog,
// the action menu, and the earn-income table. Built-in defaults can be
// overridden from a YAML content file.
package catalog

// RankRow is one row of the organization rank table.
type RankRow struct {
	Rank           int `yaml:"rank"`
	MinSupporters  int `yaml:"minSupporters"`
	FocusBonus     int `yaml:"focusBonus"`
	SecondaryBonus int `yaml:"secondaryBonus"`
	Actions        int `yaml:"actions"` // base actions per week
	MinTreasury    int `yaml:"minTreasury"`
}

// defaultRanks covers ranks 1..20. Focus grows one ahead of rank, the
// secondary bonus at half rate; action capacity steps up every few ranks.
func defaultRanks() []RankRow {
	minSupporters := []int{
		0, 10, 15, 20, 30, 50, 75, 105, 160, 235,
		330, 475, 665, 955, 1350, 1975, 2600, 3350, 4250, 5350,
	}
	actions := []int{
		1, 2, 2, 2, 3, 3, 3, 3, 3, 4,
		4, 4, 4, 4, 5, 5, 5, 5, 5, 6,
	}
	rows := make([]RankRow, 20)
	for i := range rows {
		rank := i + 1
		rows[i] = RankRow{
			Rank:           rank,
			MinSupporters:  minSupporters[i],
			FocusBonus:     rank + 1,
			SecondaryBonus: rank / 2,
			Actions:        actions[i],
			MinTreasury:    rank * 10,
		}
	}
	return rows
}

// Rank returns the row for a rank, clamping out-of-range ranks to the
// nearest table edge.
func (c *Catalog) Rank(rank int) RankRow {
	if len(c.Ranks) == 0 {
		return RankRow{Rank: rank}
	}
	if rank < c.Ranks[0].Rank {
		return c.Ranks[0]
	}
	for _, row := range c.Ranks {
		if row.Rank == rank {
			return row
		}
	}
	return c.Ranks[len(c.Ranks)-1]
}

// RankForSupporters returns the highest rank whose supporter minimum is
// met. Callers never lower an organization's rank with this; rank-up only.
func (c *Catalog) RankForSupporters(supporters int) int {
	rank := 1
	for _, row := range c.Ranks {
		if supporters >= row.MinSupporters {
			rank = row.Rank
		}
	}
	return rank
}

// MaxRank returns the highest rank the table defines.
func (c *Catalog) MaxRank() int {
	if len(c.Ranks) == 0 {
		return 1
	}
	return c.Ranks[len(c.Ranks)-1].Rank
}

// TreasuryLow reports whether the treasury is below the minimum for the
// given rank. Attrition is amplified while this holds.
func (c *Catalog) TreasuryLow(rank, treasury int) bool {
	return treasury < c.Rank(rank).MinTreasury
}
