// Package api provides the HTTP API for querying and driving the campaign.
// GET endpoints are public (read-only observation).
// POST endpoints require a bearer token (GM control plane).
package api

import (
	"encoding/json"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/talgya/uprising/internal/bonus"
	"github.com/talgya/uprising/internal/dice"
	"github.com/talgya/uprising/internal/persistence"
	"github.com/talgya/uprising/internal/phase"
	"github.com/talgya/uprising/internal/rebellion"
	"github.com/talgya/uprising/internal/store"
)

// Server serves the campaign state over HTTP and WebSocket.
type Server struct {
	Store    *store.Store
	Phase    *phase.Controller
	DB       *persistence.DB
	Archive  *persistence.Archiver
	Hub      *Hub
	Port     int
	AdminKey string // Bearer token for POST endpoints. Empty = POST disabled.
}

// Start begins serving the HTTP API in a goroutine.
func (s *Server) Start() {
	// Action endpoints roll dice and mutate state; keep bursts in check.
	actionLimiter := NewRateLimiter(120, time.Hour)

	mux := http.NewServeMux()

	// Public endpoints (GET, read-only).
	mux.HandleFunc("/api/v1/status", s.handleStatus)
	mux.HandleFunc("/api/v1/state", s.handleState)
	mux.HandleFunc("/api/v1/bonuses", s.handleBonuses)
	mux.HandleFunc("/api/v1/events", s.handleEvents)
	mux.HandleFunc("/api/v1/journal", s.handleJournal)
	mux.HandleFunc("/api/v1/archive", s.handleArchiveWeeks)
	mux.HandleFunc("/api/v1/archive/", s.handleArchiveWeek)

	// WebSocket endpoint for live clients.
	if s.Hub != nil {
		mux.HandleFunc("/ws", s.Hub.HandleWS)
	}

	// GM endpoints (POST, require bearer token).
	mux.HandleFunc("/api/v1/action", s.adminOnly(RateLimitMiddleware(actionLimiter, s.handleAction)))
	mux.HandleFunc("/api/v1/phase/event", s.adminOnly(s.handleEventPhase))
	mux.HandleFunc("/api/v1/phase/maintenance", s.adminOnly(s.handleMaintenance))
	mux.HandleFunc("/api/v1/mitigate", s.adminOnly(s.handleMitigate))
	mux.HandleFunc("/api/v1/redraw", s.adminOnly(s.handleRedraw))
	mux.HandleFunc("/api/v1/reroll", s.adminOnly(s.handleReroll))
	mux.HandleFunc("/api/v1/roll/prompt", s.adminOnly(s.handleRollPrompt))
	mux.HandleFunc("/api/v1/roll/resolve", s.adminOnly(RateLimitMiddleware(actionLimiter, s.handleRollResolve)))
	mux.HandleFunc("/api/v1/monthly", s.adminOnly(s.handleMonthly))
	mux.HandleFunc("/api/v1/traitor", s.adminOnly(s.handleTraitor))
	mux.HandleFunc("/api/v1/update", s.adminOnly(s.handleUpdate))
	mux.HandleFunc("/api/v1/reset", s.adminOnly(s.handleReset))

	addr := fmt.Sprintf(":%d", s.Port)
	slog.Info("HTTP API starting", "addr", addr, "admin_auth", s.AdminKey != "")

	go func() {
		handler := corsMiddleware(mux)
		if err := http.ListenAndServe(addr, handler); err != nil {
			slog.Error("HTTP server error", "error", err)
		}
	}()
}

// corsMiddleware adds CORS headers for allowed frontend origins.
// Set CORS_ORIGINS to a comma-separated list of allowed origins.
// Localhost dev servers are always allowed.
func corsMiddleware(next http.Handler) http.Handler {
	allowedOrigins := map[string]bool{
		"http://localhost:5173": true,
		"http://localhost:3000": true,
	}
	if env := os.Getenv("CORS_ORIGINS"); env != "" {
		for _, origin := range strings.Split(env, ",") {
			origin = strings.TrimSpace(origin)
			if origin != "" {
				allowedOrigins[origin] = true
			}
		}
	}

	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		origin := r.Header.Get("Origin")
		if allowedOrigins[origin] {
			w.Header().Set("Access-Control-Allow-Origin", origin)
			w.Header().Set("Access-Control-Allow-Methods", "GET, POST, OPTIONS")
			w.Header().Set("Access-Control-Allow-Headers", "Content-Type, Authorization")
		}
		if r.Method == http.MethodOptions {
			w.WriteHeader(http.StatusNoContent)
			return
		}
		next.ServeHTTP(w, r)
	})
}

func (s *Server) checkBearerToken(r *http.Request) bool {
	auth := r.Header.Get("Authorization")
	return strings.HasPrefix(auth, "Bearer ") && strings.TrimPrefix(auth, "Bearer ") == s.AdminKey
}

// adminOnly wraps a handler to require bearer token auth on POST requests.
func (s *Server) adminOnly(next http.HandlerFunc) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if r.Method == http.MethodPost {
			if s.AdminKey == "" {
				http.Error(w, "admin endpoints disabled (no ADMIN_KEY set)", http.StatusForbidden)
				return
			}

			if !s.checkBearerToken(r) {
				http.Error(w, "unauthorized", http.StatusUnauthorized)
				return
			}
		}

		next(w, r)
	}
}

func (s *Server) handleStatus(w http.ResponseWriter, r *http.Request) {
	st := s.Store.Get()
	agg := bonus.Compute(s.Phase.Catalog, st, "", s.Phase.Actors)

	writeJSON(w, map[string]any{
		"week":              st.Week,
		"rank":              st.Rank,
		"supporters":        st.Supporters,
		"population":        st.Population,
		"treasury":          st.Treasury,
		"notoriety":         st.Notoriety,
		"danger":            phase.EffectiveDanger(st),
		"focus":             st.Focus,
		"actionsUsed":       st.ActionsUsedThisWeek,
		"maxActions":        agg.MaxActions,
		"eventChance":       phase.EventChance(st),
		"activeEvents":      len(st.ActiveEvents()),
		"pendingRolls":      s.Store.Pending.Outstanding(),
		"authority":         s.Store.Authority(),
	})
}

func (s *Server) handleState(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, s.Store.Get())
}

// handleBonuses returns the aggregated bonus breakdown. The optional
// ?action= query gives action-gated modifiers their context.
func (s *Server) handleBonuses(w http.ResponseWriter, r *http.Request) {
	st := s.Store.Get()
	action := r.URL.Query().Get("action")
	agg := bonus.Compute(s.Phase.Catalog, st, action, s.Phase.Actors)

	type checkEntry struct {
		Total int          `json:"total"`
		Parts []bonus.Part `json:"parts"`
	}
	checks := map[string]checkEntry{}
	for _, c := range rebellion.Checks() {
		cb := agg.Check(c)
		checks[string(c)] = checkEntry{Total: cb.Total, Parts: cb.Parts}
	}

	writeJSON(w, map[string]any{
		"checks":      checks,
		"maxActions":  agg.MaxActions,
		"recruitment": agg.Recruitment,
	})
}

func (s *Server) handleEvents(w http.ResponseWriter, r *http.Request) {
	st := s.Store.Get()
	type eventEntry struct {
		Index int                   `json:"index"`
		Event rebellion.ActiveEvent `json:"event"`
	}
	active := []eventEntry{}
	for i, ev := range st.Events {
		if ev.ActiveAt(st.Week) {
			active = append(active, eventEntry{Index: i, Event: ev})
		}
	}
	writeJSON(w, map[string]any{
		"week":   st.Week,
		"active": active,
		"drawn":  st.EventsThisPhase,
	})
}

func (s *Server) handleJournal(w http.ResponseWriter, r *http.Request) {
	if s.DB == nil {
		writeJSON(w, []persistence.JournalEntry{})
		return
	}
	limit := 50
	if v := r.URL.Query().Get("limit"); v != "" {
		if n, err := strconv.Atoi(v); err == nil && n > 0 && n <= 500 {
			limit = n
		}
	}
	entries, err := s.DB.RecentJournal(limit)
	if err != nil {
		http.Error(w, "journal read failed", http.StatusInternalServerError)
		return
	}
	writeJSON(w, entries)
}

func (s *Server) handleArchiveWeeks(w http.ResponseWriter, r *http.Request) {
	if s.Archive == nil {
		writeJSON(w, []int{})
		return
	}
	weeks, err := s.Archive.Weeks()
	if err != nil {
		http.Error(w, "archive read failed", http.StatusInternalServerError)
		return
	}
	writeJSON(w, weeks)
}

// handleArchiveWeek serves GET /api/v1/archive/:week.
func (s *Server) handleArchiveWeek(w http.ResponseWriter, r *http.Request) {
	if s.Archive == nil {
		http.Error(w, "archive disabled", http.StatusNotFound)
		return
	}
	raw := strings.TrimPrefix(r.URL.Path, "/api/v1/archive/")
	week, err := strconv.Atoi(raw)
	if err != nil {
		http.Error(w, "invalid week", http.StatusBadRequest)
		return
	}
	st, err := s.Archive.LoadWeek(week)
	if err != nil {
		http.Error(w, "week not archived", http.StatusNotFound)
		return
	}
	writeJSON(w, st)
}

func (s *Server) handleAction(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		http.Error(w, "method not allowed", http.StatusMethodNotAllowed)
		return
	}
	var req phase.ActionRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, "invalid json", http.StatusBadRequest)
		return
	}

	var outcome *phase.ActionOutcome
	err := s.Store.Mutate(func(st *rebellion.State) error {
		var merr error
		outcome, merr = s.Phase.PerformAction(st, req)
		return merr
	})
	if err != nil {
		http.Error(w, err.Error(), http.StatusUnprocessableEntity)
		return
	}
	s.journal(outcome.Action, strings.Join(outcome.Notes, "; "))
	writeJSON(w, outcome)
}

func (s *Server) handleEventPhase(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		http.Error(w, "method not allowed", http.StatusMethodNotAllowed)
		return
	}
	var outcome *phase.EventOutcome
	err := s.Store.Mutate(func(st *rebellion.State) error {
		var merr error
		outcome, merr = s.Phase.RunEventPhase(st)
		return merr
	})
	if err != nil {
		http.Error(w, err.Error(), http.StatusUnprocessableEntity)
		return
	}
	if outcome.Triggered {
		s.journal("event", outcome.Event.Name)
	}
	writeJSON(w, outcome)
}

func (s *Server) handleMaintenance(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		http.Error(w, "method not allowed", http.StatusMethodNotAllowed)
		return
	}
	var report *phase.MaintenanceReport
	err := s.Store.Mutate(func(st *rebellion.State) error {
		var merr error
		report, merr = s.Phase.RunMaintenance(st)
		return merr
	})
	if err != nil {
		http.Error(w, err.Error(), http.StatusUnprocessableEntity)
		return
	}

	// Week is over; markers for its prompts no longer apply.
	s.Store.Pending.Clear()

	if s.Archive != nil {
		st := s.Store.Get()
		if aerr := s.Archive.ArchiveWeek(st); aerr != nil {
			slog.Error("weekly archive failed", "week", st.Week, "error", aerr)
		}
	}
	s.journal("maintenance", fmt.Sprintf("week %d settled, attrition %d", report.Week, report.Attrition))
	writeJSON(w, report)
}

func (s *Server) handleMitigate(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		http.Error(w, "method not allowed", http.StatusMethodNotAllowed)
		return
	}
	var req struct {
		EventIndex int `json:"eventIndex"`
		Manual     int `json:"manual"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, "invalid json", http.StatusBadRequest)
		return
	}

	var result *dice.CheckResult
	err := s.Store.Mutate(func(st *rebellion.State) error {
		var merr error
		result, merr = s.Phase.MitigateEvent(st, req.EventIndex, req.Manual)
		return merr
	})
	if err != nil {
		http.Error(w, err.Error(), http.StatusUnprocessableEntity)
		return
	}
	writeJSON(w, result)
}

func (s *Server) handleRedraw(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		http.Error(w, "method not allowed", http.StatusMethodNotAllowed)
		return
	}
	var outcome *phase.EventOutcome
	err := s.Store.Mutate(func(st *rebellion.State) error {
		var merr error
		outcome, merr = s.Phase.RedrawEvent(st)
		return merr
	})
	if err != nil {
		http.Error(w, err.Error(), http.StatusUnprocessableEntity)
		return
	}
	writeJSON(w, outcome)
}

func (s *Server) handleReroll(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		http.Error(w, "method not allowed", http.StatusMethodNotAllowed)
		return
	}
	var req struct {
		Check    string           `json:"check"`
		Previous dice.CheckResult `json:"previous"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, "invalid json", http.StatusBadRequest)
		return
	}
	if !rebellion.ValidCheck(req.Check) {
		http.Error(w, "unknown check", http.StatusBadRequest)
		return
	}
	check := rebellion.Check(req.Check)

	var result *dice.CheckResult
	err := s.Store.Mutate(func(st *rebellion.State) error {
		var merr error
		result, merr = s.Phase.UseAllyReroll(st, check, req.Previous)
		return merr
	})
	if err != nil {
		http.Error(w, err.Error(), http.StatusUnprocessableEntity)
		return
	}
	writeJSON(w, result)
}

func (s *Server) handleMonthly(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		http.Error(w, "method not allowed", http.StatusMethodNotAllowed)
		return
	}
	var req struct {
		Ally string `json:"ally"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, "invalid json", http.StatusBadRequest)
		return
	}

	err := s.Store.Mutate(func(st *rebellion.State) error {
		return s.Phase.UseMonthlyAction(st, req.Ally)
	})
	if err != nil {
		http.Error(w, err.Error(), http.StatusUnprocessableEntity)
		return
	}
	s.journal("monthly", req.Ally)
	writeJSON(w, map[string]string{"status": "ok"})
}

func (s *Server) handleTraitor(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		http.Error(w, "method not allowed", http.StatusMethodNotAllowed)
		return
	}
	var req struct {
		EventIndex int    `json:"eventIndex"`
		Resolution string `json:"resolution"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, "invalid json", http.StatusBadRequest)
		return
	}

	err := s.Store.Mutate(func(st *rebellion.State) error {
		return s.Phase.ResolveTraitor(st, req.EventIndex, rebellion.TraitorStage(req.Resolution))
	})
	if err != nil {
		http.Error(w, err.Error(), http.StatusUnprocessableEntity)
		return
	}
	s.journal("traitor", req.Resolution)
	writeJSON(w, map[string]string{"status": "ok"})
}

// handleUpdate applies a raw partial state update, same path the
// WebSocket clients use. Useful for scripts and manual GM fixes.
func (s *Server) handleUpdate(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		http.Error(w, "method not allowed", http.StatusMethodNotAllowed)
		return
	}
	var doc map[string]any
	if err := json.NewDecoder(r.Body).Decode(&doc); err != nil {
		http.Error(w, "invalid json", http.StatusBadRequest)
		return
	}
	if err := s.Store.Update(doc); err != nil {
		http.Error(w, err.Error(), http.StatusUnprocessableEntity)
		return
	}
	writeJSON(w, s.Store.Get())
}

func (s *Server) handleReset(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		http.Error(w, "method not allowed", http.StatusMethodNotAllowed)
		return
	}
	if err := s.Store.Reset(); err != nil {
		http.Error(w, err.Error(), http.StatusUnprocessableEntity)
		return
	}
	s.Store.Pending.Clear()
	s.journal("reset", "campaign reset to defaults")
	writeJSON(w, s.Store.Get())
}

func (s *Server) journal(kind, description string) {
	if s.DB == nil || description == "" {
		return
	}
	st := s.Store.Get()
	err := s.DB.AppendJournal([]persistence.JournalEntry{{
		Week:        st.Week,
		Kind:        kind,
		Description: description,
	}})
	if err != nil {
		slog.Error("journal append failed", "error", err)
	}
}

func writeJSON(w http.ResponseWriter, data any) {
	w.Header().Set("Content-Type", "application/json")
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	enc.Encode(data)
}
