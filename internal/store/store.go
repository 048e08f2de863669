// Package store holds the authoritative campaign state and serializes all
// mutations through a single queue. Exactly one process runs as the
// authority; every other process forwards its updates there over a channel
// and waits for the merged state to come back as a broadcast.
package store

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"sync"

	"github.com/talgya/uprising/internal/catalog"
	"github.com/talgya/uprising/internal/protocol"
	"github.com/talgya/uprising/internal/rebellion"
)

var (
	// ErrNoAuthority is returned when a non-authority store has no channel
	// to forward an update through. The update is dropped, not queued.
	ErrNoAuthority = errors.New("no authority connected, update dropped")

	// ErrNotAuthority is returned for operations only the authority may
	// perform locally, such as resets and phase runs.
	ErrNotAuthority = errors.New("operation requires the authority")
)

// Channel transmits updates from a non-authority store to the authority.
type Channel interface {
	SendUpdate(msg protocol.UpdateMsg) error
}

// Persister saves merged state after every applied mutation.
type Persister interface {
	SaveState(st *rebellion.State) error
}

// Observer receives a copy of the state after each applied mutation.
type Observer func(st *rebellion.State)

type task struct {
	partial  map[string]any
	override map[string]any
	mutate   func(st *rebellion.State) error
	reset    bool
	reply    chan error
}

// Store is the campaign state container. On the authority it owns the
// merge queue; elsewhere it is a forwarding cache updated by broadcasts.
type Store struct {
	cat       *catalog.Catalog
	authority bool
	senderID  string
	persist   Persister
	channel   Channel
	log       *slog.Logger

	queue chan task

	mu        sync.RWMutex
	state     *rebellion.State
	observers []Observer

	// Pending tracks roll markers so late responses to superseded
	// prompts are rejected instead of applied.
	Pending *PendingRolls
}

// Options configure a Store.
type Options struct {
	Authority bool
	SenderID  string
	Persister Persister
	Channel   Channel
	Logger    *slog.Logger
}

// New creates a store seeded with the given state. A nil initial state
// starts from defaults.
func New(cat *catalog.Catalog, initial *rebellion.State, opts Options) *Store {
	if initial == nil {
		initial = rebellion.Default()
	}
	initial.Normalize()
	log := opts.Logger
	if log == nil {
		log = slog.Default()
	}
	return &Store{
		cat:       cat,
		authority: opts.Authority,
		senderID:  opts.SenderID,
		persist:   opts.Persister,
		channel:   opts.Channel,
		log:       log,
		queue:     make(chan task, 64),
		state:     initial,
		Pending:   NewPendingRolls(),
	}
}

// Authority reports whether this store applies updates itself.
func (s *Store) Authority() bool { return s.authority }

// SenderID identifies this process in outgoing update messages.
func (s *Store) SenderID() string { return s.senderID }

// Run drains the mutation queue until the context is cancelled. Updates
// apply strictly in the order they were enqueued. Only the authority
// needs a running queue; calling Run elsewhere is harmless.
func (s *Store) Run(ctx context.Context) {
	for {
		select {
		case <-ctx.Done():
			return
		case t := <-s.queue:
			t.reply <- s.apply(t)
		}
	}
}

// Get returns a deep copy of the current state.
func (s *Store) Get() *rebellion.State {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.state.Clone()
}

// Update applies a partial update. On the authority it is queued and
// merged; elsewhere it is forwarded over the channel, and the call
// returns once the message is transmitted, not once it is applied.
func (s *Store) Update(partial map[string]any) error {
	if !s.authority {
		return s.forward(partial, false)
	}
	return s.enqueue(task{partial: partial})
}

// Override replaces the whole state with the given document. On the
// authority the document is applied over defaults without merging.
func (s *Store) Override(doc map[string]any) error {
	if !s.authority {
		return s.forward(doc, true)
	}
	return s.enqueue(task{override: doc})
}

// ApplyMessage routes a parsed update message into the queue. Only the
// authority accepts inbound messages.
func (s *Store) ApplyMessage(msg protocol.UpdateMsg) error {
	if !s.authority {
		return ErrNotAuthority
	}
	raw := msg.Partial()
	if len(raw) == 0 {
		return fmt.Errorf("update message carries no document")
	}
	var doc map[string]any
	if err := json.Unmarshal(raw, &doc); err != nil {
		return fmt.Errorf("decode update data: %w", err)
	}
	if msg.Override() {
		return s.enqueue(task{override: doc})
	}
	return s.enqueue(task{partial: doc})
}

// Mutate runs fn against a copy of the state inside the queue; if fn
// returns nil the copy becomes the new state. Authority only.
func (s *Store) Mutate(fn func(st *rebellion.State) error) error {
	if !s.authority {
		return ErrNotAuthority
	}
	return s.enqueue(task{mutate: fn})
}

// Reset discards the state and starts over from defaults. Authority only.
func (s *Store) Reset() error {
	if !s.authority {
		return ErrNotAuthority
	}
	return s.enqueue(task{reset: true})
}

// SetFromBroadcast installs a full state received from the authority.
// Non-authority stores call this when a state broadcast arrives.
func (s *Store) SetFromBroadcast(st *rebellion.State) {
	if st == nil {
		return
	}
	st.Normalize()
	s.mu.Lock()
	s.state = st
	obs := append([]Observer(nil), s.observers...)
	copyForObs := st.Clone()
	s.mu.Unlock()
	for _, fn := range obs {
		fn(copyForObs)
	}
}

// Subscribe registers an observer called after every applied mutation.
func (s *Store) Subscribe(fn Observer) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.observers = append(s.observers, fn)
}

func (s *Store) forward(doc map[string]any, override bool) error {
	if s.channel == nil {
		s.log.Warn("update dropped, no authority connected")
		return ErrNoAuthority
	}
	raw, err := json.Marshal(doc)
	if err != nil {
		return fmt.Errorf("encode update: %w", err)
	}
	msg := protocol.UpdateMsg{Type: protocol.TypeUpdate, Data: raw, SenderID: s.senderID}
	if override {
		msg = protocol.UpdateMsg{Type: protocol.TypeOverrideData, Payload: raw, SenderID: s.senderID}
	}
	return s.channel.SendUpdate(msg)
}

func (s *Store) enqueue(t task) error {
	t.reply = make(chan error, 1)
	s.queue <- t
	return <-t.reply
}

func (s *Store) apply(t task) error {
	s.mu.RLock()
	cur := s.state
	s.mu.RUnlock()

	var (
		next *rebellion.State
		err  error
	)
	switch {
	case t.reset:
		next = rebellion.Default()
	case t.mutate != nil:
		next = cur.Clone()
		if err = t.mutate(next); err != nil {
			return err
		}
		next.Normalize()
	case t.override != nil:
		raw, merr := json.Marshal(t.override)
		if merr != nil {
			return fmt.Errorf("encode override: %w", merr)
		}
		next, err = rebellion.FromDocument(raw)
		if err != nil {
			return err
		}
	default:
		next, err = Merge(s.cat, cur, t.partial)
		if err != nil {
			s.log.Warn("update rejected", "error", err)
			return err
		}
	}

	s.mu.Lock()
	s.state = next
	obs := append([]Observer(nil), s.observers...)
	s.mu.Unlock()

	if s.persist != nil {
		if err := s.persist.SaveState(next); err != nil {
			s.log.Error("state save failed", "error", err)
		}
	}
	copyForObs := next.Clone()
	for _, fn := range obs {
		fn(copyForObs)
	}
	return nil
}
