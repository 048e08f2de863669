package store

import (
	"testing"
	"time"
)

func TestPendingRollsClaim(t *testing.T) {
	p := NewPendingRolls()
	m := p.Issue("mitigation", "event:0")

	got, ok := p.Claim(m.ID, time.Now())
	if !ok {
		t.Fatal("fresh marker must be claimable")
	}
	if got.Kind != "mitigation" || got.Context != "event:0" {
		t.Errorf("claimed marker = %+v", got)
	}
	if _, ok := p.Claim(m.ID, time.Now()); ok {
		t.Error("a marker claims at most once")
	}
}

func TestPendingRollsSupersede(t *testing.T) {
	p := NewPendingRolls()
	old := p.Issue("mitigation", "event:0")
	fresh := p.Issue("mitigation", "event:0")
	other := p.Issue("mitigation", "event:1")

	if _, ok := p.Claim(old.ID, time.Now()); ok {
		t.Error("a superseded marker must be unclaimable")
	}
	if _, ok := p.Claim(fresh.ID, time.Now()); !ok {
		t.Error("the superseding marker must be claimable")
	}
	if _, ok := p.Claim(other.ID, time.Now()); !ok {
		t.Error("a marker in a different context must be unaffected")
	}
}

func TestPendingRollsStaleResponse(t *testing.T) {
	p := NewPendingRolls()
	m := p.Issue("attrition", "week:3")

	if _, ok := p.Claim(m.ID, m.Created.Add(-time.Second)); ok {
		t.Error("a response predating the prompt must be rejected")
	}
	// The rejection must not consume the marker.
	if _, ok := p.Claim(m.ID, m.Created); !ok {
		t.Error("a current response must still claim after a stale one")
	}
}

func TestPendingRollsOutstandingAndClear(t *testing.T) {
	p := NewPendingRolls()
	p.Issue("mitigation", "event:0")
	p.Issue("attrition", "week:3")

	if got := len(p.Outstanding()); got != 2 {
		t.Errorf("outstanding = %d, want 2", got)
	}
	p.Clear()
	if got := len(p.Outstanding()); got != 0 {
		t.Errorf("outstanding after clear = %d, want 0", got)
	}
}
