package phase

import (
	"testing"

	"github.com/talgya/uprising/internal/dice"
	"github.com/talgya/uprising/internal/rebellion"
)

func TestMaintenanceAttritionFailure(t *testing.T) {
	// Die 5 plus the loyalty focus bonus misses DC 11: lose 1d6 supporters.
	c, _ := testController(5, 4)
	st := baseState()

	rep, err := c.RunMaintenance(st)
	if err != nil {
		t.Fatalf("RunMaintenance() error = %v", err)
	}
	if rep.LoyaltyCheck.Degree != dice.Failure {
		t.Errorf("loyalty degree = %v, want failure", rep.LoyaltyCheck.Degree)
	}
	if rep.Attrition != 4 {
		t.Errorf("attrition = %d, want 4", rep.Attrition)
	}
	if st.Supporters != 1 {
		t.Errorf("supporters = %d, want 1", st.Supporters)
	}
	if rep.TreasuryLow {
		t.Error("treasury 100 is not low at rank 1")
	}
	if rep.Week != 1 || st.Week != 2 {
		t.Errorf("settled week %d, state week %d; want 1 and 2", rep.Week, st.Week)
	}
}

func TestMaintenanceAttritionDoubledWhenPoor(t *testing.T) {
	c, _ := testController(5, 4)
	st := baseState()
	st.Treasury = 5 // below the rank-one minimum

	rep, err := c.RunMaintenance(st)
	if err != nil {
		t.Fatalf("RunMaintenance() error = %v", err)
	}
	if !rep.TreasuryLow {
		t.Error("TreasuryLow must be reported")
	}
	if rep.Attrition != 8 {
		t.Errorf("attrition = %d, want the doubled 8", rep.Attrition)
	}
	if st.Supporters != 0 {
		t.Errorf("supporters = %d, want the clamped 0", st.Supporters)
	}
}

func TestMaintenanceAttritionCriticalFailure(t *testing.T) {
	// With security as focus, loyalty falls to the rank-one secondary
	// bonus of zero; a die of 1 is a critical failure, losing 2d6.
	c, _ := testController(1, 3, 4)
	st := baseState()
	st.Focus = rebellion.CheckSecurity
	st.Supporters = 9

	rep, err := c.RunMaintenance(st)
	if err != nil {
		t.Fatalf("RunMaintenance() error = %v", err)
	}
	if rep.LoyaltyCheck.Degree != dice.CriticalFailure {
		t.Errorf("loyalty degree = %v, want critical failure", rep.LoyaltyCheck.Degree)
	}
	if rep.Attrition != 7 {
		t.Errorf("attrition = %d, want 7", rep.Attrition)
	}
	if st.Supporters != 2 {
		t.Errorf("supporters = %d, want 2", st.Supporters)
	}
}

func TestMaintenanceRankAdvance(t *testing.T) {
	c, _ := testController(20)
	st := baseState()
	st.Supporters = 20

	rep, err := c.RunMaintenance(st)
	if err != nil {
		t.Fatalf("RunMaintenance() error = %v", err)
	}
	if rep.RankBefore != 1 || rep.RankAfter != 4 {
		t.Errorf("rank %d -> %d, want 1 -> 4", rep.RankBefore, rep.RankAfter)
	}
	if st.Rank != 4 {
		t.Errorf("st.Rank = %d, want 4", st.Rank)
	}
}

func TestMaintenanceRankNeverDecreases(t *testing.T) {
	c, _ := testController(20)
	st := baseState()
	st.Rank = 6
	st.Supporters = 0

	rep, err := c.RunMaintenance(st)
	if err != nil {
		t.Fatalf("RunMaintenance() error = %v", err)
	}
	if rep.RankAfter != 6 || st.Rank != 6 {
		t.Errorf("rank after = %d/%d, want 6", rep.RankAfter, st.Rank)
	}
}

func TestMaintenanceMonthlyRefresh(t *testing.T) {
	c, _ := testController(20)
	st := baseState()
	st.Week = 5
	st.MonthlyActions = map[string]rebellion.MonthlyUse{
		"smuggler-queen": {LastUsedWeek: 1}, // window elapsed
		"healer-matron":  {LastUsedWeek: 4}, // still cooling
	}

	rep, err := c.RunMaintenance(st)
	if err != nil {
		t.Fatalf("RunMaintenance() error = %v", err)
	}
	if len(rep.Refreshed) != 1 || rep.Refreshed[0] != "smuggler-queen" {
		t.Errorf("refreshed = %v, want [smuggler-queen]", rep.Refreshed)
	}
	if _, on := st.MonthlyActions["smuggler-queen"]; on {
		t.Error("elapsed record must be cleared")
	}
	if _, on := st.MonthlyActions["healer-matron"]; !on {
		t.Error("cooling record must survive")
	}
}

func TestMaintenanceTraitorImprisonment(t *testing.T) {
	c, _ := testController(20)
	st := baseState()
	def, _ := c.Catalog.Event("traitor")
	ev := def.Instantiate(st.Week)
	ev.Stage = rebellion.TraitorCaptured
	st.Events = []rebellion.ActiveEvent{ev}

	if _, err := c.RunMaintenance(st); err != nil {
		t.Fatalf("RunMaintenance() error = %v", err)
	}
	if len(st.Events) != 1 || st.Events[0].Stage != rebellion.TraitorImprisoned {
		t.Errorf("st.Events = %+v, want the traitor imprisoned", st.Events)
	}
}

func TestMaintenanceTraitorEscapes(t *testing.T) {
	// Attrition die 20 passes; the containment die 5 misses DC 15, so the
	// traitor escapes and danger spikes.
	c, _ := testController(20, 5)
	st := baseState()
	def, _ := c.Catalog.Event("traitor")
	ev := def.Instantiate(st.Week)
	ev.Stage = rebellion.TraitorImprisoned
	st.Events = []rebellion.ActiveEvent{ev}

	rep, err := c.RunMaintenance(st)
	if err != nil {
		t.Fatalf("RunMaintenance() error = %v", err)
	}
	if len(st.Events) != 0 {
		t.Errorf("st.Events = %+v, want the escaped traitor gone", st.Events)
	}
	if st.Danger != 5 {
		t.Errorf("danger = %d, want 5", st.Danger)
	}
	if len(rep.Notes) == 0 {
		t.Error("the escape must be reported")
	}
}

func TestResolveTraitor(t *testing.T) {
	c, _ := testController()
	st := baseState()
	def, _ := c.Catalog.Event("traitor")
	ev := def.Instantiate(st.Week)
	ev.Stage = rebellion.TraitorImprisoned
	st.Events = []rebellion.ActiveEvent{ev, {Name: "crackdown", WeekStarted: st.Week, Duration: 4}}

	if err := c.ResolveTraitor(st, 0, rebellion.TraitorPersuaded); err != nil {
		t.Fatalf("ResolveTraitor() error = %v", err)
	}
	if st.Events[0].Stage != rebellion.TraitorPersuaded {
		t.Errorf("stage = %s, want persuaded", st.Events[0].Stage)
	}
	if st.Supporters != 6 {
		t.Errorf("supporters = %d, want 6 after the convert", st.Supporters)
	}

	if err := c.ResolveTraitor(st, 1, rebellion.TraitorExecuted); err != ErrBadEventIndex {
		t.Errorf("resolving a non-traitor event: err = %v, want ErrBadEventIndex", err)
	}
	if err := c.ResolveTraitor(st, 0, rebellion.TraitorCaptured); err != ErrBadEventIndex {
		t.Errorf("regressing the stage: err = %v, want ErrBadEventIndex", err)
	}
}

func TestMaintenanceExpiryAndFlags(t *testing.T) {
	c, _ := testController(20)
	st := baseState()
	st.Events = []rebellion.ActiveEvent{
		{Name: "new-converts", WeekStarted: 1, Duration: 1},
		{Name: "rivalry", WeekStarted: 1, IsPersistent: true, AffectedTeams: []int{0}},
	}
	st.Teams = []rebellion.Team{
		{Type: "sympathizers", BlockedByRivalry: true},
		{Type: "sympathizers", CurrentAction: "gather-information"},
		{Type: "peddlers", Missing: true, CanAutoRecover: true},
	}
	st.Allies = []rebellion.Ally{
		{Slug: "smuggler-queen", Enabled: true, RerollUsedThisWeek: true, BonusActionUsed: true},
	}
	st.EventsThisPhase = []string{"new-converts"}
	st.ActionsUsedThisWeek = 1
	st.RecruitedThisPhase = true

	rep, err := c.RunMaintenance(st)
	if err != nil {
		t.Fatalf("RunMaintenance() error = %v", err)
	}
	if len(rep.Expired) != 1 || rep.Expired[0] != "new-converts" {
		t.Errorf("expired = %v, want [new-converts]", rep.Expired)
	}
	if len(st.Events) != 1 || st.Events[0].Name != "rivalry" {
		t.Errorf("st.Events = %+v, want only the standing rivalry", st.Events)
	}
	if !st.Teams[0].BlockedByRivalry {
		t.Error("a persistent rivalry keeps its team blocked")
	}
	if st.Teams[1].CurrentAction != "" {
		t.Error("team action selections must reset")
	}
	if st.Teams[2].Missing {
		t.Error("an auto-recovering team must come home")
	}
	if st.Allies[0].RerollUsedThisWeek || st.Allies[0].BonusActionUsed {
		t.Error("weekly ally allowances must reset")
	}
	if len(st.EventsThisPhase) != 0 || st.ActionsUsedThisWeek != 0 || st.RecruitedThisPhase {
		t.Error("phase-local counters must reset")
	}
}

func TestUseAllyReroll(t *testing.T) {
	c, _ := testController(12)
	st := baseState()
	st.Allies = []rebellion.Ally{{Slug: "smuggler-queen", Enabled: true}}
	prev := dice.CheckResult{Die: 3, Modifier: 3, Total: 6, DC: 15, HasDC: true}

	res, err := c.UseAllyReroll(st, rebellion.CheckSecrecy, prev)
	if err != nil {
		t.Fatalf("UseAllyReroll() error = %v", err)
	}
	if res.Die != 12 || res.Modifier != 3 || res.Total != 15 || !res.Success {
		t.Errorf("reroll = %+v, want die 12 with the carried modifier", res)
	}
	if !st.Allies[0].RerollUsedThisWeek {
		t.Error("the grant must be consumed")
	}

	if _, err := c.UseAllyReroll(st, rebellion.CheckSecrecy, prev); err != ErrNoRerollSponsor {
		t.Errorf("spent grant: err = %v, want ErrNoRerollSponsor", err)
	}
}

func TestUseAllyRerollWrongCheck(t *testing.T) {
	c, _ := testController()
	st := baseState()
	st.Allies = []rebellion.Ally{{Slug: "smuggler-queen", Enabled: true}}
	if _, err := c.UseAllyReroll(st, rebellion.CheckLoyalty, dice.CheckResult{}); err != ErrNoRerollSponsor {
		t.Errorf("err = %v, want ErrNoRerollSponsor", err)
	}
}

func TestUseMonthlyAction(t *testing.T) {
	c, _ := testController()
	st := baseState()
	st.Allies = []rebellion.Ally{{Slug: "smuggler-queen", Enabled: true}}

	if err := c.UseMonthlyAction(st, "smuggler-queen"); err != nil {
		t.Fatalf("UseMonthlyAction() error = %v", err)
	}
	if st.Treasury != 300 {
		t.Errorf("treasury = %d, want 300", st.Treasury)
	}
	if _, on := st.MonthlyActions["smuggler-queen"]; !on {
		t.Error("the use must be recorded")
	}

	if err := c.UseMonthlyAction(st, "smuggler-queen"); err != ErrMonthlyOnCooldown {
		t.Errorf("immediate reuse: err = %v, want ErrMonthlyOnCooldown", err)
	}

	st.Week += MonthlyActionCooldownWeeks
	if err := c.UseMonthlyAction(st, "smuggler-queen"); err != nil {
		t.Errorf("reuse after the window: err = %v", err)
	}
}

func TestUseMonthlyActionRejections(t *testing.T) {
	c, _ := testController()
	st := baseState()
	st.Allies = []rebellion.Ally{{Slug: "veteran-commander", Enabled: true}}

	if err := c.UseMonthlyAction(st, "nobody"); err != ErrUnknownAlly {
		t.Errorf("unknown slug: err = %v, want ErrUnknownAlly", err)
	}
	if err := c.UseMonthlyAction(st, "veteran-commander"); err != ErrNoMonthlyAbility {
		t.Errorf("ally without ability: err = %v, want ErrNoMonthlyAbility", err)
	}
	if err := c.UseMonthlyAction(st, "healer-matron"); err != ErrUnknownAlly {
		t.Errorf("ally not in the organization: err = %v, want ErrUnknownAlly", err)
	}
}
