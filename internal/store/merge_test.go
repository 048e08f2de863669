package store

import (
	"reflect"
	"testing"

	"github.com/talgya/uprising/internal/catalog"
	"github.com/talgya/uprising/internal/rebellion"
)

func currentWithTeams(teams ...rebellion.Team) *rebellion.State {
	st := rebellion.Default()
	st.Teams = teams
	return st
}

func TestMergeTeamsAllNilIsNoOp(t *testing.T) {
	cur := currentWithTeams(
		rebellion.Team{Type: "peddlers", Manager: "alice", Bonus: 2},
		rebellion.Team{Type: "spies"},
	)
	merged, err := Merge(catalog.Default(), cur, map[string]any{"teams": []any{nil, nil}})
	if err != nil {
		t.Fatalf("Merge() error = %v", err)
	}
	if !reflect.DeepEqual(merged.Teams, cur.Teams) {
		t.Errorf("teams = %+v, want unchanged %+v", merged.Teams, cur.Teams)
	}
}

func TestMergeTeamsShorterArrayReplaces(t *testing.T) {
	cur := currentWithTeams(
		rebellion.Team{Type: "peddlers"},
		rebellion.Team{Type: "spies"},
		rebellion.Team{Type: "saboteurs"},
	)
	partial := map[string]any{"teams": []any{map[string]any{"type": "agitators"}}}
	merged, err := Merge(catalog.Default(), cur, partial)
	if err != nil {
		t.Fatalf("Merge() error = %v", err)
	}
	if len(merged.Teams) != 1 || merged.Teams[0].Type != "agitators" {
		t.Errorf("teams = %+v, want the single replacement", merged.Teams)
	}
}

func TestMergeTeamsEmptyArrayDeletesAll(t *testing.T) {
	cur := currentWithTeams(rebellion.Team{Type: "peddlers"})
	merged, err := Merge(catalog.Default(), cur, map[string]any{"teams": []any{}})
	if err != nil {
		t.Fatalf("Merge() error = %v", err)
	}
	if len(merged.Teams) != 0 {
		t.Errorf("teams = %+v, want none", merged.Teams)
	}
}

func TestMergeTeamsPositional(t *testing.T) {
	cur := currentWithTeams(
		rebellion.Team{Type: "peddlers", Manager: "alice", Bonus: 2},
		rebellion.Team{Type: "spies", Manager: "bram"},
	)
	// Entry 0 omits type and manager, which stick; entry 1 names an
	// unknown type, so the current one wins.
	partial := map[string]any{"teams": []any{
		map[string]any{"bonus": 3},
		map[string]any{"type": "dragons"},
	}}
	merged, err := Merge(catalog.Default(), cur, partial)
	if err != nil {
		t.Fatalf("Merge() error = %v", err)
	}
	if got := merged.Teams[0]; got.Type != "peddlers" || got.Manager != "alice" || got.Bonus != 3 {
		t.Errorf("team 0 = %+v, want peddlers/alice/3", got)
	}
	if got := merged.Teams[1]; got.Type != "spies" || got.Manager != "bram" {
		t.Errorf("team 1 = %+v, want spies/bram", got)
	}
}

func TestMergeTeamsKnownIncomingTypeWins(t *testing.T) {
	cur := currentWithTeams(rebellion.Team{Type: "peddlers"})
	partial := map[string]any{"teams": []any{map[string]any{"type": "smugglers"}}}
	merged, err := Merge(catalog.Default(), cur, partial)
	if err != nil {
		t.Fatalf("Merge() error = %v", err)
	}
	if merged.Teams[0].Type != "smugglers" {
		t.Errorf("type = %s, want smugglers", merged.Teams[0].Type)
	}
}

func TestMergeTeamsUnrecognizableTypeFallsBack(t *testing.T) {
	cur := rebellion.Default()
	partial := map[string]any{"teams": []any{map[string]any{"type": "dragons", "bonus": 1}}}
	merged, err := Merge(catalog.Default(), cur, partial)
	if err != nil {
		t.Fatalf("Merge() error = %v", err)
	}
	if merged.Teams[0].Type != catalog.BaselineTeamType {
		t.Errorf("type = %s, want the baseline", merged.Teams[0].Type)
	}
}

func TestMergeTeamsExplicitEmptyManagerClears(t *testing.T) {
	cur := currentWithTeams(rebellion.Team{Type: "peddlers", Manager: "alice"})
	partial := map[string]any{"teams": []any{map[string]any{"manager": ""}}}
	merged, err := Merge(catalog.Default(), cur, partial)
	if err != nil {
		t.Fatalf("Merge() error = %v", err)
	}
	if merged.Teams[0].Manager != "" {
		t.Errorf("manager = %q, want cleared", merged.Teams[0].Manager)
	}
}

func TestMergeTeamsSparseIndexObject(t *testing.T) {
	cur := currentWithTeams(rebellion.Team{Type: "peddlers", Manager: "alice"})
	partial := map[string]any{"teams": map[string]any{
		"0": map[string]any{"bonus": 2},
		"2": map[string]any{"type": "spies"},
	}}
	merged, err := Merge(catalog.Default(), cur, partial)
	if err != nil {
		t.Fatalf("Merge() error = %v", err)
	}
	// The padding slot between the indexes compacts away on decode.
	if len(merged.Teams) != 2 {
		t.Fatalf("teams = %+v, want 2 entries", merged.Teams)
	}
	if got := merged.Teams[0]; got.Type != "peddlers" || got.Bonus != 2 {
		t.Errorf("team 0 = %+v, want peddlers with bonus 2", got)
	}
	if merged.Teams[1].Type != "spies" {
		t.Errorf("team 1 = %+v, want spies", merged.Teams[1])
	}
}

func TestMergeTeamsBadIndex(t *testing.T) {
	partial := map[string]any{"teams": map[string]any{"north": map[string]any{}}}
	if _, err := Merge(catalog.Default(), rebellion.Default(), partial); err == nil {
		t.Error("non-numeric team index must be rejected")
	}
}

func TestMergeSparseAllies(t *testing.T) {
	cur := rebellion.Default()
	cur.Allies = []rebellion.Ally{
		{Slug: "veteran-commander", Enabled: true},
		{Slug: "smuggler-queen", Enabled: true},
	}
	partial := map[string]any{"allies": map[string]any{"1": map[string]any{"captured": true}}}
	merged, err := Merge(catalog.Default(), cur, partial)
	if err != nil {
		t.Fatalf("Merge() error = %v", err)
	}
	if merged.Allies[0].Captured {
		t.Error("untouched ally must stay free")
	}
	if !merged.Allies[1].Captured {
		t.Error("indexed ally must be captured")
	}
	if merged.Allies[1].Slug != "smuggler-queen" || !merged.Allies[1].Enabled {
		t.Errorf("ally 1 = %+v, other fields must survive the merge", merged.Allies[1])
	}
}

func TestMergeActiveEventsAliasTargetsEvents(t *testing.T) {
	cur := rebellion.Default()
	cur.Events = []rebellion.ActiveEvent{{Name: "low-morale", WeekStarted: 1, IsPersistent: true}}
	partial := map[string]any{"activeEvents": map[string]any{"0": map[string]any{"mitigated": true}}}
	merged, err := Merge(catalog.Default(), cur, partial)
	if err != nil {
		t.Fatalf("Merge() error = %v", err)
	}
	if len(merged.Events) != 1 || !merged.Events[0].Mitigated {
		t.Errorf("events = %+v, want the low-morale entry mitigated", merged.Events)
	}
}

func TestMergeDenseCollectionArrayReplaces(t *testing.T) {
	cur := rebellion.Default()
	cur.Allies = []rebellion.Ally{
		{Slug: "veteran-commander", Enabled: true},
		{Slug: "smuggler-queen", Enabled: true},
	}
	partial := map[string]any{"allies": []any{
		map[string]any{"slug": "benefactor", "enabled": true},
	}}
	merged, err := Merge(catalog.Default(), cur, partial)
	if err != nil {
		t.Fatalf("Merge() error = %v", err)
	}
	if len(merged.Allies) != 1 || merged.Allies[0].Slug != "benefactor" {
		t.Errorf("allies = %+v, want the replacement list", merged.Allies)
	}
}

func TestMergeMonthlyActionsAccumulate(t *testing.T) {
	cur := rebellion.Default()
	cur.MonthlyActions = map[string]rebellion.MonthlyUse{"smuggler-queen": {LastUsedWeek: 1}}
	partial := map[string]any{"monthlyActions": map[string]any{
		"healer-matron": map[string]any{"lastUsedWeek": 3},
	}}
	merged, err := Merge(catalog.Default(), cur, partial)
	if err != nil {
		t.Fatalf("Merge() error = %v", err)
	}
	if merged.MonthlyActions["smuggler-queen"].LastUsedWeek != 1 {
		t.Error("existing record must survive a partial monthly update")
	}
	if merged.MonthlyActions["healer-matron"].LastUsedWeek != 3 {
		t.Error("incoming record must merge in")
	}
}

func TestMergeRankNeverRegresses(t *testing.T) {
	cur := rebellion.Default()
	cur.Rank = 5
	merged, err := Merge(catalog.Default(), cur, map[string]any{"rank": 3})
	if err != nil {
		t.Fatalf("Merge() error = %v", err)
	}
	if merged.Rank != 5 {
		t.Errorf("rank = %d, a stale echo must not lower it", merged.Rank)
	}

	merged, err = Merge(catalog.Default(), cur, map[string]any{"rank": 7})
	if err != nil {
		t.Fatalf("Merge() error = %v", err)
	}
	if merged.Rank != 7 {
		t.Errorf("rank = %d, want the raise applied", merged.Rank)
	}
}

func TestMergeScalarsLeaveRestAlone(t *testing.T) {
	cur := rebellion.Default()
	cur.Supporters = 40
	merged, err := Merge(catalog.Default(), cur, map[string]any{"treasury": 250})
	if err != nil {
		t.Fatalf("Merge() error = %v", err)
	}
	if merged.Treasury != 250 {
		t.Errorf("treasury = %d, want 250", merged.Treasury)
	}
	if merged.Supporters != 40 {
		t.Errorf("supporters = %d, want untouched 40", merged.Supporters)
	}
	if cur.Treasury != 0 {
		t.Error("Merge must not modify its input state")
	}
}

func TestMergeIdempotent(t *testing.T) {
	cur := currentWithTeams(rebellion.Team{Type: "peddlers", Manager: "alice", Bonus: 1})
	cur.Allies = []rebellion.Ally{{Slug: "veteran-commander", Enabled: true}}
	partial := map[string]any{
		"treasury": 90,
		"teams":    []any{map[string]any{"bonus": 2}},
		"allies":   map[string]any{"0": map[string]any{"missing": true}},
	}

	once, err := Merge(catalog.Default(), cur, partial)
	if err != nil {
		t.Fatalf("first Merge() error = %v", err)
	}
	twice, err := Merge(catalog.Default(), once, partial)
	if err != nil {
		t.Fatalf("second Merge() error = %v", err)
	}
	if !reflect.DeepEqual(once, twice) {
		t.Errorf("repeated merge diverged:\nonce:  %+v\ntwice: %+v", once, twice)
	}
}
