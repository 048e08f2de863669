// Manual roll correlation. Some tables roll physical dice: the GM prompts
// for a roll, the answer arrives later, and by then the prompt may have
// been superseded or the week settled. Prompts issue markers through the
// store's pending registry; a resolution must quote its marker, and
// answers to unknown, superseded, or backdated markers are rejected
// without touching state.
package api

import (
	"encoding/json"
	"net/http"
	"strconv"
	"time"

	"github.com/talgya/uprising/internal/dice"
	"github.com/talgya/uprising/internal/phase"
	"github.com/talgya/uprising/internal/rebellion"
)

// Marker kinds the prompt endpoint accepts. The kind decides which phase
// operation the resolution feeds.
const (
	rollKindAction   = "action"
	rollKindMitigate = "mitigate"
)

// handleRollPrompt serves POST /api/v1/roll/prompt. For an action prompt
// the context is the action name; for a mitigation prompt it is the event
// index. A new prompt for the same kind and context supersedes the old
// marker, so only the latest answer counts.
func (s *Server) handleRollPrompt(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		http.Error(w, "method not allowed", http.StatusMethodNotAllowed)
		return
	}
	var req struct {
		Kind    string `json:"kind"`
		Context string `json:"context"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, "invalid json", http.StatusBadRequest)
		return
	}
	if req.Kind != rollKindAction && req.Kind != rollKindMitigate {
		http.Error(w, "unknown roll kind", http.StatusBadRequest)
		return
	}
	if req.Context == "" {
		http.Error(w, "missing roll context", http.StatusBadRequest)
		return
	}

	marker := s.Store.Pending.Issue(req.Kind, req.Context)
	s.journal("roll-prompt", req.Kind+": "+req.Context)
	writeJSON(w, marker)
}

// handleRollResolve serves POST /api/v1/roll/resolve. The marker is
// claimed before the operation runs, so a stale answer never consumes the
// marker and a claimed marker is spent even when the payload is rejected;
// a badly answered prompt must be reissued.
func (s *Server) handleRollResolve(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		http.Error(w, "method not allowed", http.StatusMethodNotAllowed)
		return
	}
	var req struct {
		MarkerID    string               `json:"markerId"`
		RespondedAt time.Time            `json:"respondedAt,omitempty"`
		Manual      int                  `json:"manual,omitempty"`
		Action      *phase.ActionRequest `json:"action,omitempty"`
		EventIndex  *int                 `json:"eventIndex,omitempty"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, "invalid json", http.StatusBadRequest)
		return
	}

	responded := req.RespondedAt
	if responded.IsZero() {
		responded = time.Now().UTC()
	}
	marker, ok := s.Store.Pending.Claim(req.MarkerID, responded)
	if !ok {
		http.Error(w, "roll marker unknown, superseded, or stale", http.StatusConflict)
		return
	}

	switch marker.Kind {
	case rollKindAction:
		if req.Action == nil || req.Action.Action != marker.Context {
			http.Error(w, "resolution does not match the prompted action", http.StatusUnprocessableEntity)
			return
		}
		areq := *req.Action
		areq.Manual = req.Manual

		var outcome *phase.ActionOutcome
		err := s.Store.Mutate(func(st *rebellion.State) error {
			var merr error
			outcome, merr = s.Phase.PerformAction(st, areq)
			return merr
		})
		if err != nil {
			http.Error(w, err.Error(), http.StatusUnprocessableEntity)
			return
		}
		s.journal(outcome.Action, "resolved from prompted roll")
		writeJSON(w, outcome)

	case rollKindMitigate:
		if req.EventIndex == nil || strconv.Itoa(*req.EventIndex) != marker.Context {
			http.Error(w, "resolution does not match the prompted event", http.StatusUnprocessableEntity)
			return
		}

		var result *dice.CheckResult
		err := s.Store.Mutate(func(st *rebellion.State) error {
			var merr error
			result, merr = s.Phase.MitigateEvent(st, *req.EventIndex, req.Manual)
			return merr
		})
		if err != nil {
			http.Error(w, err.Error(), http.StatusUnprocessableEntity)
			return
		}
		s.journal("mitigate", "resolved from prompted roll")
		writeJSON(w, result)

	default:
		http.Error(w, "unknown roll kind", http.StatusUnprocessableEntity)
	}
}
