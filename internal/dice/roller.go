// Package dice provides the roll primitives the engine builds on: a
// seedable roller, degree-of-success banding, and the inverted-polarity
// percentile check used for notoriety.
package dice

import (
	"crypto/rand"
	"encoding/binary"
	"errors"
	mrand "math/rand"
)

// ErrInvalidSpec is returned for a dice spec with non-positive sides or count.
var ErrInvalidSpec = errors.New("dice: invalid spec")

// Spec describes a handful of identical dice, e.g. {Count: 2, Sides: 6} = 2d6.
type Spec struct {
	Count int `yaml:"count" json:"count"`
	Sides int `yaml:"sides" json:"sides"`
}

// Zero reports whether the spec rolls nothing.
func (s Spec) Zero() bool {
	return s.Count == 0 && s.Sides == 0
}

// Roller produces single die results. Implementations must be safe for
// single-goroutine use; the engine never rolls concurrently.
type Roller interface {
	Roll(sides int) int
}

type rngRoller struct {
	rng *mrand.Rand
}

// NewRoller returns a deterministic roller seeded with seed. Given the same
// seed and the same call sequence it always produces the same results.
func NewRoller(seed int64) Roller {
	return &rngRoller{rng: mrand.New(mrand.NewSource(seed))}
}

// NewCryptoRoller returns a roller seeded from the operating system's
// entropy source. Used in production where replayability is not needed.
func NewCryptoRoller() Roller {
	var buf [8]byte
	if _, err := rand.Read(buf[:]); err != nil {
		// Entropy exhaustion is not survivable in any useful way; fall
		// back to a fixed seed rather than crash mid-session.
		return NewRoller(1)
	}
	return NewRoller(int64(binary.LittleEndian.Uint64(buf[:])))
}

func (r *rngRoller) Roll(sides int) int {
	if sides < 1 {
		return 0
	}
	return r.rng.Intn(sides) + 1
}

// RollSpec rolls every die in the spec and returns the per-die results and
// their sum. Results appear in roll order.
func RollSpec(r Roller, spec Spec) (results []int, total int, err error) {
	if spec.Zero() {
		return nil, 0, nil
	}
	if spec.Sides <= 0 || spec.Count <= 0 {
		return nil, 0, ErrInvalidSpec
	}
	results = make([]int, spec.Count)
	for i := 0; i < spec.Count; i++ {
		v := r.Roll(spec.Sides)
		results[i] = v
		total += v
	}
	return results, total, nil
}
