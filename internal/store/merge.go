// Authoritative merge of partial state updates. Clients send only the
// fields they changed; the merge reconciles them against the current state
// so concurrent updates from several clients compose instead of clobbering
// each other. The team list gets structural treatment because clients send
// it whole, while the other collections arrive as sparse index objects.
package store

import (
	"encoding/json"
	"fmt"
	"strconv"

	"github.com/talgya/uprising/internal/catalog"
	"github.com/talgya/uprising/internal/rebellion"
)

// sparseMergeFields are collections where a sparse index→object update
// deep-merges into the element at that index. A dense array for one of
// these replaces the collection outright.
var sparseMergeFields = []string{"officers", "allies", "events", "activeEvents", "caches"}

// Merge applies a partial update document to the current state and returns
// the merged result. The input state is not modified. Merge is idempotent:
// applying the same partial twice yields the same state.
func Merge(cat *catalog.Catalog, current *rebellion.State, partial map[string]any) (*rebellion.State, error) {
	doc, err := current.Document()
	if err != nil {
		return nil, err
	}
	// Work on a copy of the partial so callers can retry or log it intact.
	partial = deepCopyMap(partial)

	if err := mergeTeams(cat, doc, partial); err != nil {
		return nil, err
	}
	mergeSparseCollections(doc, partial)

	// Monthly ability bookkeeping accumulates per ally, so it always
	// deep-merges regardless of how much of the map the client sent.
	if ma, ok := partial["monthlyActions"].(map[string]any); ok {
		cur, _ := doc["monthlyActions"].(map[string]any)
		doc["monthlyActions"] = deepMerge(cur, ma)
		delete(partial, "monthlyActions")
	}

	deepMergeInto(doc, partial)

	raw, err := json.Marshal(doc)
	if err != nil {
		return nil, fmt.Errorf("encode merged state: %w", err)
	}
	merged, err := rebellion.FromDocument(raw)
	if err != nil {
		return nil, err
	}

	// Rank never regresses. A client working from a stale snapshot may
	// echo back an old rank; the authoritative value wins.
	if merged.Rank < current.Rank {
		merged.Rank = current.Rank
	}
	merged.Normalize()
	return merged, nil
}

// mergeTeams reconciles the teams field and removes it from the partial.
//
// A dense incoming array that is entirely nil is a no-op. One shorter than
// the current list is a deliberate deletion and replaces the list wholesale.
// Otherwise entries merge positionally: the existing entry at each index
// keeps its type unless the incoming entry names a known type, and keeps
// its manager unless the incoming entry sets the field explicitly (an
// explicit empty string clears it). A sparse index object merges per index.
func mergeTeams(cat *catalog.Catalog, doc, partial map[string]any) error {
	v, ok := partial["teams"]
	if !ok {
		return nil
	}
	delete(partial, "teams")
	curTeams, _ := doc["teams"].([]any)

	switch inc := v.(type) {
	case []any:
		if allNil(inc) {
			return nil
		}
		if len(inc) < len(curTeams) {
			out := make([]any, 0, len(inc))
			for _, e := range inc {
				out = append(out, mergeTeamEntry(cat, nil, e))
			}
			doc["teams"] = out
			return nil
		}
		out := make([]any, 0, len(inc))
		for i, e := range inc {
			var cur map[string]any
			if i < len(curTeams) {
				cur, _ = curTeams[i].(map[string]any)
			}
			out = append(out, mergeTeamEntry(cat, cur, e))
		}
		doc["teams"] = out
		return nil
	case map[string]any:
		out := append([]any(nil), curTeams...)
		for key, e := range inc {
			idx, err := strconv.Atoi(key)
			if err != nil || idx < 0 {
				return fmt.Errorf("bad team index %q", key)
			}
			for len(out) <= idx {
				out = append(out, nil)
			}
			cur, _ := out[idx].(map[string]any)
			out[idx] = mergeTeamEntry(cat, cur, e)
		}
		doc["teams"] = out
		return nil
	default:
		return fmt.Errorf("teams field must be an array or index object, got %T", v)
	}
}

// mergeTeamEntry merges one incoming team entry over the current one and
// backfills structural defaults so a sparse entry still decodes cleanly.
func mergeTeamEntry(cat *catalog.Catalog, cur map[string]any, incoming any) map[string]any {
	inc, _ := incoming.(map[string]any)
	merged := deepMerge(cur, inc)
	if merged == nil {
		merged = map[string]any{}
	}

	// Type sticks unless the incoming entry names a type the catalog
	// recognizes. Unknown identifiers fall back to the baseline.
	curType, _ := stringField(cur, "type")
	incType, incHasType := stringField(inc, "type")
	_, incKnown := cat.Team(incType)
	_, curKnown := cat.Team(curType)
	switch {
	case incHasType && incKnown:
		merged["type"] = incType
	case curKnown:
		merged["type"] = curType
	default:
		merged["type"] = catalog.BaselineTeamType
	}

	// Manager sticks unless explicitly set. Presence of the key is the
	// signal; deepMerge already honored it, so only backfill the default.
	if _, ok := merged["manager"]; !ok {
		merged["manager"] = ""
	}
	if _, ok := merged["bonus"]; !ok {
		merged["bonus"] = float64(0)
	}
	return merged
}

// mergeSparseCollections handles the index-object collections: a sparse
// object deep-merges per index into the current array, a dense array
// replaces it. Merged fields are removed from the partial.
func mergeSparseCollections(doc, partial map[string]any) {
	for _, field := range sparseMergeFields {
		v, ok := partial[field]
		if !ok {
			continue
		}
		sparse, isSparse := v.(map[string]any)
		if !isSparse {
			continue // dense array, final deep merge replaces it
		}
		delete(partial, field)

		target := field
		cur, _ := doc[target].([]any)
		if field == "activeEvents" {
			// Legacy alias; indexes address the events array.
			target = "events"
			cur, _ = doc[target].([]any)
		}
		out := append([]any(nil), cur...)
		for key, e := range sparse {
			idx, err := strconv.Atoi(key)
			if err != nil || idx < 0 {
				continue
			}
			for len(out) <= idx {
				out = append(out, nil)
			}
			curEntry, _ := out[idx].(map[string]any)
			incEntry, _ := e.(map[string]any)
			if e == nil {
				out[idx] = nil
				continue
			}
			out[idx] = deepMerge(curEntry, incEntry)
		}
		doc[target] = out
	}
}

// deepMerge merges src over dst recursively and returns a new map. Nested
// maps merge key by key; any other value, arrays included, replaces the
// destination. Neither input is modified.
func deepMerge(dst, src map[string]any) map[string]any {
	if dst == nil && src == nil {
		return nil
	}
	out := deepCopyMap(dst)
	if out == nil {
		out = map[string]any{}
	}
	for k, v := range src {
		if sv, ok := v.(map[string]any); ok {
			if dv, ok := out[k].(map[string]any); ok {
				out[k] = deepMerge(dv, sv)
				continue
			}
		}
		out[k] = deepCopyValue(v)
	}
	return out
}

// deepMergeInto merges src over dst in place.
func deepMergeInto(dst, src map[string]any) {
	for k, v := range src {
		if sv, ok := v.(map[string]any); ok {
			if dv, ok := dst[k].(map[string]any); ok {
				dst[k] = deepMerge(dv, sv)
				continue
			}
		}
		dst[k] = deepCopyValue(v)
	}
}

func deepCopyMap(m map[string]any) map[string]any {
	if m == nil {
		return nil
	}
	out := make(map[string]any, len(m))
	for k, v := range m {
		out[k] = deepCopyValue(v)
	}
	return out
}

func deepCopyValue(v any) any {
	switch t := v.(type) {
	case map[string]any:
		return deepCopyMap(t)
	case []any:
		out := make([]any, len(t))
		for i, e := range t {
			out[i] = deepCopyValue(e)
		}
		return out
	default:
		return v
	}
}

func allNil(arr []any) bool {
	for _, e := range arr {
		if e != nil {
			return false
		}
	}
	return len(arr) > 0
}

func stringField(m map[string]any, key string) (string, bool) {
	if m == nil {
		return "", false
	}
	v, ok := m[key]
	if !ok {
		return "", false
	}
	s, _ := v.(string)
	return s, true
}
