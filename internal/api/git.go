package api

import (
	"context"
	"net/http"

	"github.com/qwertyasvishwa/Memory-Router/internal/gitsync"
)

func (s *Server) requireGit(w http.ResponseWriter) *gitsync.Service {
	if s.deps.Git == nil {
		writeError(w, http.StatusServiceUnavailable, "git sync is not configured")
		return nil
	}
	return s.deps.Git
}

func (s *Server) gitStatus(w http.ResponseWriter, r *http.Request) {
	git := s.requireGit(w)
	if git == nil {
		return
	}
	status, err := git.Status(r.Context())
	if err != nil {
		writeError(w, http.StatusBadGateway, err.Error())
		return
	}
	writeJSON(w, http.StatusOK, status)
}

func (s *Server) gitFetch(w http.ResponseWriter, r *http.Request) {
	s.gitAction(w, r, (*gitsync.Service).Fetch)
}

func (s *Server) gitPull(w http.ResponseWriter, r *http.Request) {
	s.gitAction(w, r, (*gitsync.Service).PullRebase)
}

func (s *Server) gitPush(w http.ResponseWriter, r *http.Request) {
	s.gitAction(w, r, (*gitsync.Service).Push)
}

func (s *Server) gitAction(w http.ResponseWriter, r *http.Request, fn func(*gitsync.Service, context.Context) (gitsync.SyncResult, error)) {
	git := s.requireGit(w)
	if git == nil {
		return
	}
	result, err := fn(git, r.Context())
	if err != nil {
		// expose the hint alongside the failure when there is one
		if result.Hint != "" {
			writeJSON(w, http.StatusConflict, map[string]string{
				"error": err.Error(),
				"hint":  result.Hint,
			})
			return
		}
		writeError(w, http.StatusBadGateway, err.Error())
		return
	}
	writeJSON(w, http.StatusOK, result)
}

func (s *Server) gitConflicts(w http.ResponseWriter, r *http.Request) {
	git := s.requireGit(w)
	if git == nil {
		return
	}
	files, err := git.ConflictFiles(r.Context())
	if err != nil {
		writeError(w, http.StatusBadGateway, err.Error())
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"conflicts": files})
}
