// Document-level repair. Stored snapshots and inbound partial updates may
// carry collections as sparse index→value objects (a legacy shape) instead
// of dense arrays; every read coerces them back. Shape drift is repaired,
// never treated as corruption.
package rebellion

import (
	"encoding/json"
	"fmt"
	"sort"
	"strconv"
)

// CollectionFields are the state fields stored as ordered collections and
// subject to sparse-object coercion. "activeEvents" is a legacy alias for
// "events" kept for document compatibility.
var CollectionFields = []string{"officers", "teams", "allies", "events", "activeEvents", "caches"}

// NormalizeDocument repairs a state document in place: every collection
// field stored as an index-keyed object becomes a dense, gap-free array
// (indexes sorted numerically, absent slots dropped), and the legacy
// activeEvents field is folded into events.
func NormalizeDocument(doc map[string]any) {
	for _, field := range CollectionFields {
		v, ok := doc[field]
		if !ok {
			continue
		}
		switch t := v.(type) {
		case map[string]any:
			doc[field] = DenseFromSparse(t)
		case []any:
			doc[field] = compactArray(t)
		}
	}

	// Legacy documents kept duration-bound events under activeEvents.
	if legacy, ok := doc["activeEvents"].([]any); ok {
		if events, ok := doc["events"].([]any); ok {
			doc["events"] = append(events, legacy...)
		} else {
			doc["events"] = legacy
		}
		delete(doc, "activeEvents")
	}
}

// DenseFromSparse converts an index-keyed object into a dense array.
// Non-numeric keys are dropped; "index absent" and "index explicitly
// null" both mean the slot does not survive.
func DenseFromSparse(m map[string]any) []any {
	type slot struct {
		idx int
		val any
	}
	slots := make([]slot, 0, len(m))
	for k, v := range m {
		idx, err := strconv.Atoi(k)
		if err != nil || idx < 0 || v == nil {
			continue
		}
		slots = append(slots, slot{idx: idx, val: v})
	}
	sort.Slice(slots, func(i, j int) bool { return slots[i].idx < slots[j].idx })
	out := make([]any, 0, len(slots))
	for _, s := range slots {
		out = append(out, s.val)
	}
	return out
}

// compactArray drops nil slots, keeping order.
func compactArray(arr []any) []any {
	out := make([]any, 0, len(arr))
	for _, e := range arr {
		if e != nil {
			out = append(out, e)
		}
	}
	return out
}

// FromDocument decodes a stored state document, repairing shape drift and
// merging defaults under the stored partial so the shape stays
// backward-compatible as the document evolves.
func FromDocument(raw []byte) (*State, error) {
	var doc map[string]any
	if err := json.Unmarshal(raw, &doc); err != nil {
		return nil, fmt.Errorf("decode state document: %w", err)
	}
	NormalizeDocument(doc)

	repaired, err := json.Marshal(doc)
	if err != nil {
		return nil, fmt.Errorf("re-encode state document: %w", err)
	}
	st := Default()
	if err := json.Unmarshal(repaired, st); err != nil {
		return nil, fmt.Errorf("decode state: %w", err)
	}
	st.Normalize()
	return st, nil
}

// Document encodes the state as a JSON document map.
func (s *State) Document() (map[string]any, error) {
	raw, err := json.Marshal(s)
	if err != nil {
		return nil, fmt.Errorf("encode state: %w", err)
	}
	var doc map[string]any
	if err := json.Unmarshal(raw, &doc); err != nil {
		return nil, fmt.Errorf("decode state document: %w", err)
	}
	return doc, nil
}

// Clone deep-copies the state.
func (s *State) Clone() *State {
	raw, err := json.Marshal(s)
	if err != nil {
		// State is plain data; marshal cannot fail on a well-formed value.
		panic(fmt.Sprintf("rebellion: clone: %v", err))
	}
	out := &State{}
	if err := json.Unmarshal(raw, out); err != nil {
		panic(fmt.Sprintf("rebellion: clone: %v", err))
	}
	out.Normalize()
	return out
}
