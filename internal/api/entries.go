package api

import (
	"encoding/json"
	"net/http"
	"strconv"

	"github.com/qwertyasvishwa/Memory-Router/internal/domain"
	"github.com/qwertyasvishwa/Memory-Router/internal/normalize"
)

// AddEntryRequest is the request body for adding an entry
type AddEntryRequest struct {
	Project       string   `json:"project,omitempty"`
	Category      string   `json:"category,omitempty"`
	Content       string   `json:"content"`
	Tags          []string `json:"tags,omitempty"`
	ProgressStage string   `json:"progress_stage,omitempty"`
	ProgressNotes string   `json:"progress_notes,omitempty"`
}

func (s *Server) addEntry(w http.ResponseWriter, r *http.Request) {
	var req AddEntryRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	res, err := s.deps.Intake.AcceptEntry(r.Context(), normalize.EntryInput{
		Project:       req.Project,
		Category:      domain.Category(req.Category),
		ContentRaw:    req.Content,
		Tags:          req.Tags,
		ProgressStage: req.ProgressStage,
		ProgressNotes: req.ProgressNotes,
	}, domain.SourceAPI)
	if err != nil {
		writeServiceError(w, err)
		return
	}

	writeJSON(w, http.StatusCreated, res)
}

func (s *Server) listEntries(w http.ResponseWriter, r *http.Request) {
	limit := 20
	if l := r.URL.Query().Get("limit"); l != "" {
		if n, err := strconv.Atoi(l); err == nil && n > 0 {
			limit = n
		}
	}

	entries := s.deps.Recent.Recent(limit)
	writeJSON(w, http.StatusOK, map[string]any{
		"entries": entries,
		"limit":   limit,
		"count":   len(entries),
	})
}

// ProgressRequest is the request body for a project progress update
type ProgressRequest struct {
	Stage   string   `json:"stage"`
	Notes   string   `json:"notes,omitempty"`
	Content string   `json:"content"`
	Tags    []string `json:"tags,omitempty"`
}

func (s *Server) addProgress(w http.ResponseWriter, r *http.Request) {
	project := r.PathValue("project")

	var req ProgressRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	res, err := s.deps.Intake.Accept(r.Context(), domain.ProgressSubmission{
		Project: project,
		Stage:   req.Stage,
		Notes:   req.Notes,
		Content: req.Content,
		Tags:    req.Tags,
	}, domain.SourceAPIProgress)
	if err != nil {
		writeServiceError(w, err)
		return
	}

	writeJSON(w, http.StatusCreated, res)
}

// LedgerRequest is the request body for a ledger record
type LedgerRequest struct {
	Title        string   `json:"title"`
	Summary      string   `json:"summary"`
	Theme        string   `json:"theme,omitempty"`
	Lens         string   `json:"lens,omitempty"`
	Project      string   `json:"project,omitempty"`
	ValueTags    []string `json:"value_tags,omitempty"`
	ArtifactTags []string `json:"artifact_tags,omitempty"`
	References   []string `json:"references,omitempty"`
	Actor        string   `json:"actor,omitempty"`
}

func (r LedgerRequest) submission() domain.LedgerSubmission {
	sub := domain.LedgerSubmission{
		Title:      r.Title,
		Summary:    r.Summary,
		Theme:      r.Theme,
		Lens:       r.Lens,
		Project:    r.Project,
		References: r.References,
		Actor:      r.Actor,
	}
	for _, v := range r.ValueTags {
		sub.ValueTags = append(sub.ValueTags, domain.ValueTag(v))
	}
	for _, a := range r.ArtifactTags {
		sub.ArtifactTags = append(sub.ArtifactTags, domain.ArtifactType(a))
	}
	return sub
}

func (s *Server) addLedger(w http.ResponseWriter, r *http.Request) {
	var req LedgerRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	res, err := s.deps.Intake.Accept(r.Context(), req.submission(), domain.SourceAPILedger)
	if err != nil {
		writeServiceError(w, err)
		return
	}

	writeJSON(w, http.StatusCreated, res)
}

func (s *Server) listLedger(w http.ResponseWriter, r *http.Request) {
	records := s.deps.Ledger.List()
	writeJSON(w, http.StatusOK, map[string]any{
		"records": records,
		"count":   len(records),
	})
}

// TodoRequest is the request body for a todo
type TodoRequest struct {
	Title   string   `json:"title"`
	Details string   `json:"details,omitempty"`
	DueDate string   `json:"due_date,omitempty"`
	Tags    []string `json:"tags,omitempty"`
}

func (s *Server) addTodo(w http.ResponseWriter, r *http.Request) {
	var req TodoRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	res, err := s.deps.Intake.Accept(r.Context(), domain.TaskSubmission{
		Title:   req.Title,
		Details: req.Details,
		DueDate: req.DueDate,
		Tags:    req.Tags,
	}, domain.SourceAPI)
	if err != nil {
		writeServiceError(w, err)
		return
	}

	writeJSON(w, http.StatusCreated, res)
}

func (s *Server) listTodos(w http.ResponseWriter, r *http.Request) {
	todos := s.deps.Todos.List()
	writeJSON(w, http.StatusOK, map[string]any{
		"todos": todos,
		"count": len(todos),
	})
}
