// Package api exposes the router over HTTP: a small HTML surface for
// humans and a JSON API for scripts.
package api

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"

	"go.uber.org/zap"

	"github.com/qwertyasvishwa/Memory-Router/internal/domain"
	"github.com/qwertyasvishwa/Memory-Router/internal/enhance"
	"github.com/qwertyasvishwa/Memory-Router/internal/gitsync"
	"github.com/qwertyasvishwa/Memory-Router/internal/graph"
	"github.com/qwertyasvishwa/Memory-Router/internal/intake"
	"github.com/qwertyasvishwa/Memory-Router/internal/ledger"
	"github.com/qwertyasvishwa/Memory-Router/internal/recent"
	"github.com/qwertyasvishwa/Memory-Router/internal/todo"
	"github.com/qwertyasvishwa/Memory-Router/internal/tools"
	"github.com/qwertyasvishwa/Memory-Router/internal/tracker"
)

// DriveBrowser is the slice of the Graph client the server needs for
// browsing, exporting, and health checks.
type DriveBrowser interface {
	ListDrives(ctx context.Context) ([]graph.Drive, error)
	ListChildren(ctx context.Context, path, driveID string, baseFolder *string) ([]graph.DriveItem, error)
	DownloadItem(ctx context.Context, itemID, driveID string) (content []byte, contentType, name string, err error)
	UploadText(ctx context.Context, content, filename, subfolder, contentType string) (string, error)
	HealthCheck(ctx context.Context) error
}

// Deps bundles the services the server routes to.
type Deps struct {
	Intake  *intake.Service
	Ledger  *ledger.Service
	Todos   *todo.Service
	Tracker *tracker.Tracker
	Enhance *enhance.Service
	Tools   *tools.Registry
	Git     *gitsync.Service // nil when no repo is configured
	Drive   DriveBrowser
	Recent  *recent.List
	Log     *zap.Logger

	// SaveTools persists the tool registry after a mutation; nil
	// disables persistence.
	SaveTools func() error
}

// Server handles HTTP requests for the memory router.
type Server struct {
	deps Deps
	addr string
	log  *zap.Logger
}

// New creates an API server bound to addr.
func New(deps Deps, addr string) *Server {
	log := deps.Log
	if log == nil {
		log = zap.NewNop()
	}
	return &Server{deps: deps, addr: addr, log: log}
}

// Handler builds the route table.
func (s *Server) Handler() http.Handler {
	mux := http.NewServeMux()

	// HTML pages
	mux.HandleFunc("GET /{$}", s.indexPage)
	mux.HandleFunc("GET /entries", s.entriesPage)
	mux.HandleFunc("POST /submit", s.submitForm)
	mux.HandleFunc("GET /ledger", s.ledgerPage)
	mux.HandleFunc("POST /ledger", s.ledgerForm)
	mux.HandleFunc("GET /todos", s.todosPage)
	mux.HandleFunc("POST /todos", s.todoForm)
	mux.HandleFunc("GET /drive", s.drivePage)
	mux.HandleFunc("GET /weekly-tasks", s.weeklyPage)
	mux.HandleFunc("POST /weekly-tasks", s.weeklyForm)
	mux.HandleFunc("POST /weekly-tasks/export", s.weeklyExport)
	mux.HandleFunc("GET /enhancements", s.enhancementsPage)
	mux.HandleFunc("POST /enhancements", s.enhancementForm)
	mux.HandleFunc("POST /enhancements/export", s.enhancementExport)

	// Entries
	mux.HandleFunc("GET /api/entries", s.listEntries)
	mux.HandleFunc("POST /api/entries", s.addEntry)
	mux.HandleFunc("POST /api/projects/{project}/progress", s.addProgress)

	// Ledger and todos
	mux.HandleFunc("GET /api/ledger", s.listLedger)
	mux.HandleFunc("POST /api/ledger", s.addLedger)
	mux.HandleFunc("GET /api/todos", s.listTodos)
	mux.HandleFunc("POST /api/todos", s.addTodo)

	// Weekly tracker
	mux.HandleFunc("POST /api/weekly-tasks", s.processWeekly)
	mux.HandleFunc("GET /api/weekly-tasks/history", s.weeklyHistory)

	// Enhancements
	mux.HandleFunc("GET /api/enhancements", s.listEnhancements)
	mux.HandleFunc("POST /api/enhancements", s.addEnhancement)
	mux.HandleFunc("GET /api/enhancements/suggestions", s.enhancementSuggestions)

	// Drive
	mux.HandleFunc("GET /api/drives", s.listDrives)
	mux.HandleFunc("GET /api/drive/children", s.listDriveChildren)
	mux.HandleFunc("GET /drive/download/{itemID}", s.downloadItem)

	// Tools
	mux.HandleFunc("GET /api/tools", s.listTools)
	mux.HandleFunc("POST /api/tools", s.upsertTool)
	mux.HandleFunc("GET /api/tools/{id}", s.getTool)
	mux.HandleFunc("DELETE /api/tools/{id}", s.deleteTool)
	mux.HandleFunc("POST /api/tools/{id}/run", s.runTool)

	// Git passthrough
	mux.HandleFunc("GET /api/git/status", s.gitStatus)
	mux.HandleFunc("POST /api/git/fetch", s.gitFetch)
	mux.HandleFunc("POST /api/git/pull", s.gitPull)
	mux.HandleFunc("POST /api/git/push", s.gitPush)
	mux.HandleFunc("GET /api/git/conflicts", s.gitConflicts)

	// Health check
	mux.HandleFunc("GET /health", s.health)

	return withCORS(mux)
}

// Run starts the HTTP server and shuts it down when ctx is cancelled.
func (s *Server) Run(ctx context.Context) error {
	srv := &http.Server{Addr: s.addr, Handler: s.Handler()}

	errCh := make(chan error, 1)
	go func() {
		errCh <- srv.ListenAndServe()
	}()
	s.log.Info("server started", zap.String("addr", s.addr))

	select {
	case <-ctx.Done():
		return srv.Shutdown(context.Background())
	case err := <-errCh:
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return err
	}
}

// withCORS adds CORS headers for frontend development
func withCORS(h http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Access-Control-Allow-Origin", "*")
		w.Header().Set("Access-Control-Allow-Methods", "GET, POST, DELETE, OPTIONS")
		w.Header().Set("Access-Control-Allow-Headers", "Content-Type")

		if r.Method == "OPTIONS" {
			w.WriteHeader(http.StatusOK)
			return
		}

		h.ServeHTTP(w, r)
	})
}

func (s *Server) health(w http.ResponseWriter, r *http.Request) {
	resp := map[string]any{"status": "ok"}
	if s.deps.Drive != nil {
		if err := s.deps.Drive.HealthCheck(r.Context()); err != nil {
			resp["graph"] = "unreachable"
			resp["graph_error"] = err.Error()
		} else {
			resp["graph"] = "ok"
		}
	}
	writeJSON(w, http.StatusOK, resp)
}

func writeJSON(w http.ResponseWriter, status int, data any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(data)
}

func writeError(w http.ResponseWriter, status int, message string) {
	writeJSON(w, status, map[string]string{"error": message})
}

// writeServiceError maps validation failures to 400 and anything else
// (a remote or subprocess failure surfacing unchanged) to 502.
func writeServiceError(w http.ResponseWriter, err error) {
	if errors.Is(err, domain.ErrInvalidInput) || errors.Is(err, domain.ErrUnsupportedCategory) {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}
	writeError(w, http.StatusBadGateway, err.Error())
}
