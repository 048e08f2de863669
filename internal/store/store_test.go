package store

import (
	"context"
	"encoding/json"
	"errors"
	"testing"

	"github.com/talgya/uprising/internal/catalog"
	"github.com/talgya/uprising/internal/protocol"
	"github.com/talgya/uprising/internal/rebellion"
)

type fakePersister struct {
	saves []*rebellion.State
	err   error
}

func (f *fakePersister) SaveState(st *rebellion.State) error {
	f.saves = append(f.saves, st)
	return f.err
}

type fakeChannel struct {
	sent []protocol.UpdateMsg
}

func (f *fakeChannel) SendUpdate(msg protocol.UpdateMsg) error {
	f.sent = append(f.sent, msg)
	return nil
}

func runningStore(t *testing.T, opts Options) *Store {
	t.Helper()
	s := New(catalog.Default(), nil, opts)
	ctx, cancel := context.WithCancel(context.Background())
	t.Cleanup(cancel)
	go s.Run(ctx)
	return s
}

func TestStoreUpdateMergesAndPersists(t *testing.T) {
	persist := &fakePersister{}
	s := runningStore(t, Options{Authority: true, Persister: persist})

	var seen *rebellion.State
	s.Subscribe(func(st *rebellion.State) { seen = st })

	if err := s.Update(map[string]any{"treasury": 75}); err != nil {
		t.Fatalf("Update() error = %v", err)
	}
	if got := s.Get().Treasury; got != 75 {
		t.Errorf("treasury = %d, want 75", got)
	}
	if len(persist.saves) != 1 {
		t.Errorf("saves = %d, want 1", len(persist.saves))
	}
	if seen == nil || seen.Treasury != 75 {
		t.Errorf("observer state = %+v, want the merged snapshot", seen)
	}
}

func TestStoreUpdatesApplyInOrder(t *testing.T) {
	s := runningStore(t, Options{Authority: true})
	for i := 1; i <= 10; i++ {
		if err := s.Update(map[string]any{"supporters": i}); err != nil {
			t.Fatalf("Update(%d) error = %v", i, err)
		}
	}
	if got := s.Get().Supporters; got != 10 {
		t.Errorf("supporters = %d, want the last update to win", got)
	}
}

func TestStoreMutate(t *testing.T) {
	s := runningStore(t, Options{Authority: true})

	err := s.Mutate(func(st *rebellion.State) error {
		st.Danger = 15
		return nil
	})
	if err != nil {
		t.Fatalf("Mutate() error = %v", err)
	}
	if got := s.Get().Danger; got != 15 {
		t.Errorf("danger = %d, want 15", got)
	}

	boom := errors.New("boom")
	if err := s.Mutate(func(st *rebellion.State) error {
		st.Danger = 99
		return boom
	}); !errors.Is(err, boom) {
		t.Fatalf("Mutate() error = %v, want the callback's", err)
	}
	if got := s.Get().Danger; got != 15 {
		t.Errorf("danger = %d, a failed mutation must not apply", got)
	}
}

func TestStoreReset(t *testing.T) {
	s := runningStore(t, Options{Authority: true})
	if err := s.Update(map[string]any{"treasury": 500, "week": 9}); err != nil {
		t.Fatalf("Update() error = %v", err)
	}
	if err := s.Reset(); err != nil {
		t.Fatalf("Reset() error = %v", err)
	}
	st := s.Get()
	if st.Week != 1 || st.Treasury != 0 {
		t.Errorf("state after reset = week %d, treasury %d; want defaults", st.Week, st.Treasury)
	}
}

func TestStoreApplyMessage(t *testing.T) {
	s := runningStore(t, Options{Authority: true})

	raw, _ := json.Marshal(map[string]any{"notoriety": 12})
	msg := protocol.UpdateMsg{Type: protocol.TypeUpdate, Data: raw, SenderID: "table-3"}
	if err := s.ApplyMessage(msg); err != nil {
		t.Fatalf("ApplyMessage() error = %v", err)
	}
	if got := s.Get().Notoriety; got != 12 {
		t.Errorf("notoriety = %d, want 12", got)
	}

	if err := s.ApplyMessage(protocol.UpdateMsg{Type: protocol.TypeUpdate}); err == nil {
		t.Error("a message without a document must be rejected")
	}
}

func TestStoreApplyMessageOverride(t *testing.T) {
	s := runningStore(t, Options{Authority: true})
	if err := s.Update(map[string]any{"treasury": 500}); err != nil {
		t.Fatalf("Update() error = %v", err)
	}

	raw, _ := json.Marshal(map[string]any{"week": 4, "rank": 2})
	msg := protocol.UpdateMsg{Type: protocol.TypeOverrideData, Payload: raw}
	if err := s.ApplyMessage(msg); err != nil {
		t.Fatalf("ApplyMessage() error = %v", err)
	}
	st := s.Get()
	if st.Week != 4 || st.Rank != 2 {
		t.Errorf("state = week %d, rank %d; want the override applied", st.Week, st.Rank)
	}
	if st.Treasury != 0 {
		t.Errorf("treasury = %d, an override must not merge", st.Treasury)
	}
}

func TestStoreNonAuthorityForwards(t *testing.T) {
	ch := &fakeChannel{}
	s := New(catalog.Default(), nil, Options{SenderID: "table-3", Channel: ch})

	if err := s.Update(map[string]any{"treasury": 10}); err != nil {
		t.Fatalf("Update() error = %v", err)
	}
	if err := s.Override(map[string]any{"week": 2}); err != nil {
		t.Fatalf("Override() error = %v", err)
	}
	if len(ch.sent) != 2 {
		t.Fatalf("sent = %d messages, want 2", len(ch.sent))
	}
	if ch.sent[0].Type != protocol.TypeUpdate || ch.sent[0].SenderID != "table-3" {
		t.Errorf("first message = %+v, want a typed update", ch.sent[0])
	}
	if ch.sent[1].Type != protocol.TypeOverrideData {
		t.Errorf("second message type = %s, want overrideData", ch.sent[1].Type)
	}
	for _, msg := range ch.sent {
		if len(msg.Partial()) == 0 {
			t.Errorf("message %s carries no document", msg.Type)
		}
	}

	// Forwarding transmits without applying; the local cache waits for
	// the authority's broadcast.
	if got := s.Get().Treasury; got != 0 {
		t.Errorf("local treasury = %d, want 0 until broadcast", got)
	}
}

func TestStoreNonAuthorityRejections(t *testing.T) {
	s := New(catalog.Default(), nil, Options{})

	if err := s.Update(map[string]any{"treasury": 10}); !errors.Is(err, ErrNoAuthority) {
		t.Errorf("Update() err = %v, want ErrNoAuthority", err)
	}
	if err := s.Mutate(func(*rebellion.State) error { return nil }); !errors.Is(err, ErrNotAuthority) {
		t.Errorf("Mutate() err = %v, want ErrNotAuthority", err)
	}
	if err := s.Reset(); !errors.Is(err, ErrNotAuthority) {
		t.Errorf("Reset() err = %v, want ErrNotAuthority", err)
	}
	if err := s.ApplyMessage(protocol.UpdateMsg{}); !errors.Is(err, ErrNotAuthority) {
		t.Errorf("ApplyMessage() err = %v, want ErrNotAuthority", err)
	}
}

func TestStoreSetFromBroadcast(t *testing.T) {
	s := New(catalog.Default(), nil, Options{})
	var seen *rebellion.State
	s.Subscribe(func(st *rebellion.State) { seen = st })

	st := rebellion.Default()
	st.Week = 7
	s.SetFromBroadcast(st)

	if got := s.Get().Week; got != 7 {
		t.Errorf("week = %d, want the broadcast state", got)
	}
	if seen == nil || seen.Week != 7 {
		t.Errorf("observer state = %+v, want the broadcast snapshot", seen)
	}
}
