package catalog

import "testing"

func TestRankRowLookup(t *testing.T) {
	cat := Default()

	cases := []struct {
		rank          int
		focus         int
		secondary     int
		actions       int
		minSupporters int
	}{
		{1, 2, 0, 1, 0},
		{2, 3, 1, 2, 10},
		{5, 6, 2, 3, 30},
		{10, 11, 5, 4, 235},
		{20, 21, 10, 6, 5350},
	}
	for _, tc := range cases {
		row := cat.Rank(tc.rank)
		if row.FocusBonus != tc.focus {
			t.Errorf("rank %d focus = %d, want %d", tc.rank, row.FocusBonus, tc.focus)
		}
		if row.SecondaryBonus != tc.secondary {
			t.Errorf("rank %d secondary = %d, want %d", tc.rank, row.SecondaryBonus, tc.secondary)
		}
		if row.Actions != tc.actions {
			t.Errorf("rank %d actions = %d, want %d", tc.rank, row.Actions, tc.actions)
		}
		if row.MinSupporters != tc.minSupporters {
			t.Errorf("rank %d minSupporters = %d, want %d", tc.rank, row.MinSupporters, tc.minSupporters)
		}
	}
}

func TestRankClamping(t *testing.T) {
	cat := Default()
	if got := cat.Rank(0).Rank; got != 1 {
		t.Errorf("rank 0 clamps to %d, want 1", got)
	}
	if got := cat.Rank(99).Rank; got != 20 {
		t.Errorf("rank 99 clamps to %d, want 20", got)
	}
}

func TestRankForSupporters(t *testing.T) {
	cat := Default()
	cases := []struct {
		supporters int
		want       int
	}{
		{0, 1},
		{9, 1},
		{10, 2},
		{14, 2},
		{15, 3},
		{5350, 20},
		{100000, 20},
	}
	for _, tc := range cases {
		if got := cat.RankForSupporters(tc.supporters); got != tc.want {
			t.Errorf("RankForSupporters(%d) = %d, want %d", tc.supporters, got, tc.want)
		}
	}
}

func TestTreasuryLow(t *testing.T) {
	cat := Default()
	if !cat.TreasuryLow(3, 29) {
		t.Error("29 treasury at rank 3 should be low")
	}
	if cat.TreasuryLow(3, 30) {
		t.Error("30 treasury at rank 3 should not be low")
	}
}
