package store

import (
	"sync"
	"time"

	"github.com/google/uuid"
)

// RollMarker identifies an outstanding roll prompt. Responses must quote
// the marker ID; a response whose timestamp predates the marker was aimed
// at an earlier prompt and is rejected.
type RollMarker struct {
	ID      string    `json:"id"`
	Kind    string    `json:"kind"`
	Context string    `json:"context"`
	Created time.Time `json:"created"`
}

// PendingRolls tracks roll prompts that have been issued but not yet
// answered. Issuing a new marker for the same kind and context supersedes
// the old one.
type PendingRolls struct {
	mu      sync.Mutex
	markers map[string]RollMarker
}

func NewPendingRolls() *PendingRolls {
	return &PendingRolls{markers: make(map[string]RollMarker)}
}

// Issue creates a marker for a roll prompt, dropping any earlier marker
// with the same kind and context.
func (p *PendingRolls) Issue(kind, context string) RollMarker {
	p.mu.Lock()
	defer p.mu.Unlock()
	for id, m := range p.markers {
		if m.Kind == kind && m.Context == context {
			delete(p.markers, id)
		}
	}
	m := RollMarker{
		ID:      uuid.NewString(),
		Kind:    kind,
		Context: context,
		Created: time.Now().UTC(),
	}
	p.markers[m.ID] = m
	return m
}

// Claim consumes the marker if the response is current. It returns false
// when the marker is unknown (already claimed or superseded) or when the
// response timestamp predates the marker.
func (p *PendingRolls) Claim(id string, responded time.Time) (RollMarker, bool) {
	p.mu.Lock()
	defer p.mu.Unlock()
	m, ok := p.markers[id]
	if !ok {
		return RollMarker{}, false
	}
	if responded.Before(m.Created) {
		return RollMarker{}, false
	}
	delete(p.markers, id)
	return m, true
}

// Outstanding lists unanswered markers, for status reporting.
func (p *PendingRolls) Outstanding() []RollMarker {
	p.mu.Lock()
	defer p.mu.Unlock()
	out := make([]RollMarker, 0, len(p.markers))
	for _, m := range p.markers {
		out = append(out, m)
	}
	return out
}

// Clear drops all markers, used on reset and phase boundaries.
func (p *PendingRolls) Clear() {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.markers = make(map[string]RollMarker)
}
