package api

import (
	"encoding/json"
	"fmt"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/qwertyasvishwa/Memory-Router/internal/enhance"
	"github.com/qwertyasvishwa/Memory-Router/internal/tracker"
)

func (s *Server) processWeekly(w http.ResponseWriter, r *http.Request) {
	var sub tracker.Submission
	if err := json.NewDecoder(r.Body).Decode(&sub); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	if sub.ActivityType != "" && !sub.ActivityType.Valid() {
		writeError(w, http.StatusBadRequest, fmt.Sprintf("unknown activity type %q", sub.ActivityType))
		return
	}

	summary, err := s.deps.Tracker.ProcessUpdate(sub)
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}

	writeJSON(w, http.StatusCreated, summary)
}

func (s *Server) weeklyHistory(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()

	limit := 50
	if l := q.Get("limit"); l != "" {
		if n, err := strconv.Atoi(l); err == nil && n > 0 {
			limit = n
		}
	}

	entries, err := s.deps.Tracker.History(0)
	if err != nil {
		writeError(w, http.StatusInternalServerError, err.Error())
		return
	}

	opts := tracker.FilterOptions{
		Project: q.Get("project"),
		Keyword: q.Get("keyword"),
	}
	for _, a := range strings.Split(q.Get("activity_types"), ",") {
		if a = strings.TrimSpace(a); a != "" {
			opts.ActivityTypes = append(opts.ActivityTypes, tracker.ActivityType(a))
		}
	}
	if from := q.Get("from"); from != "" {
		t, err := time.Parse("2006-01-02", from)
		if err != nil {
			writeError(w, http.StatusBadRequest, "invalid 'from' date, want YYYY-MM-DD")
			return
		}
		opts.DateFrom = t
	}
	if to := q.Get("to"); to != "" {
		t, err := time.Parse("2006-01-02", to)
		if err != nil {
			writeError(w, http.StatusBadRequest, "invalid 'to' date, want YYYY-MM-DD")
			return
		}
		opts.DateTo = t.Add(24*time.Hour - time.Nanosecond)
	}

	entries = tracker.Filter(entries, opts)
	if len(entries) > limit {
		entries = entries[:limit]
	}

	writeJSON(w, http.StatusOK, map[string]any{
		"entries":          entries,
		"count":            len(entries),
		"projects":         tracker.Projects(entries),
		"project_summary":  tracker.ProjectSummary(entries),
		"activity_summary": tracker.ActivitySummary(entries),
	})
}

func (s *Server) addEnhancement(w http.ResponseWriter, r *http.Request) {
	var sub enhance.Submission
	if err := json.NewDecoder(r.Body).Decode(&sub); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	entry, err := s.deps.Enhance.Record(sub)
	if err != nil {
		writeServiceError(w, err)
		return
	}

	writeJSON(w, http.StatusCreated, entry)
}

func (s *Server) listEnhancements(w http.ResponseWriter, r *http.Request) {
	limit := 50
	if l := r.URL.Query().Get("limit"); l != "" {
		if n, err := strconv.Atoi(l); err == nil && n > 0 {
			limit = n
		}
	}

	entries := s.deps.Enhance.List(limit)
	writeJSON(w, http.StatusOK, map[string]any{
		"entries": entries,
		"count":   len(entries),
	})
}

func (s *Server) enhancementSuggestions(w http.ResponseWriter, r *http.Request) {
	limit := 5
	if l := r.URL.Query().Get("limit"); l != "" {
		if n, err := strconv.Atoi(l); err == nil && n > 0 {
			limit = n
		}
	}

	writeJSON(w, http.StatusOK, map[string]any{
		"suggestions": s.deps.Enhance.Suggestions(limit),
	})
}
