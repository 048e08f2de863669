package phase

import (
	"github.com/talgya/uprising/internal/catalog"
	"github.com/talgya/uprising/internal/rebellion"
)

// scriptRoller returns pre-planned die results in order. Tests use it to
// force a specific path through the probabilistic branches.
type scriptRoller struct {
	rolls []int
	pos   int
}

func (r *scriptRoller) Roll(sides int) int {
	if r.pos >= len(r.rolls) {
		return 1
	}
	v := r.rolls[r.pos]
	r.pos++
	return v
}

func testController(rolls ...int) (*Controller, *scriptRoller) {
	r := &scriptRoller{rolls: rolls}
	return New(catalog.Default(), r, rebellion.ActorMap{}), r
}

func baseState() *rebellion.State {
	st := rebellion.Default()
	st.Treasury = 100
	st.Supporters = 5
	return st
}

func intp(i int) *int { return &i }
