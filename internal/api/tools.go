package api

import (
	"encoding/json"
	"net/http"

	"go.uber.org/zap"

	"github.com/qwertyasvishwa/Memory-Router/internal/tools"
)

func (s *Server) listTools(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]any{"tools": s.deps.Tools.List()})
}

func (s *Server) getTool(w http.ResponseWriter, r *http.Request) {
	spec, ok := s.deps.Tools.Get(r.PathValue("id"))
	if !ok {
		writeError(w, http.StatusNotFound, "tool not found")
		return
	}
	writeJSON(w, http.StatusOK, spec)
}

func (s *Server) upsertTool(w http.ResponseWriter, r *http.Request) {
	var spec tools.Spec
	if err := json.NewDecoder(r.Body).Decode(&spec); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	spec, err := s.deps.Tools.Upsert(spec)
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}
	s.persistTools()

	writeJSON(w, http.StatusCreated, spec)
}

func (s *Server) deleteTool(w http.ResponseWriter, r *http.Request) {
	s.deps.Tools.Delete(r.PathValue("id"))
	s.persistTools()
	w.WriteHeader(http.StatusNoContent)
}

func (s *Server) runTool(w http.ResponseWriter, r *http.Request) {
	var input map[string]any
	if r.ContentLength > 0 {
		if err := json.NewDecoder(r.Body).Decode(&input); err != nil {
			writeError(w, http.StatusBadRequest, "invalid request body")
			return
		}
	}

	result := s.deps.Tools.Run(r.PathValue("id"), input)
	status := http.StatusOK
	if !result.OK {
		status = http.StatusUnprocessableEntity
		if result.Error == "tool not found" {
			status = http.StatusNotFound
		}
	}
	writeJSON(w, status, result)
}

func (s *Server) persistTools() {
	if s.deps.SaveTools == nil {
		return
	}
	if err := s.deps.SaveTools(); err != nil {
		s.log.Warn("persist tools failed", zap.Error(err))
	}
}
