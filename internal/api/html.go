package api

import (
	"embed"
	"fmt"
	"html/template"
	"io"
	"net/http"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/qwertyasvishwa/Memory-Router/internal/domain"
	"github.com/qwertyasvishwa/Memory-Router/internal/enhance"
	"github.com/qwertyasvishwa/Memory-Router/internal/tracker"
)

//go:embed templates/*.html
var templateFS embed.FS

var pageTemplates = template.Must(template.ParseFS(templateFS, "templates/*.html"))

func (s *Server) renderPage(w http.ResponseWriter, name string, data any) {
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	if err := pageTemplates.ExecuteTemplate(w, name, data); err != nil {
		s.log.Error("render page failed", zap.String("template", name), zap.Error(err))
	}
}

func splitCommaTags(raw string) []string {
	var tags []string
	for _, t := range strings.Split(raw, ",") {
		if t = strings.TrimSpace(t); t != "" {
			tags = append(tags, t)
		}
	}
	return tags
}

func (s *Server) indexPage(w http.ResponseWriter, r *http.Request) {
	s.renderPage(w, "index.html", map[string]any{
		"Todos":  s.deps.Todos.List(),
		"Ledger": s.deps.Ledger.List(),
		"Recent": s.deps.Recent.Recent(10),
	})
}

func (s *Server) entriesPage(w http.ResponseWriter, r *http.Request) {
	s.renderPage(w, "entries.html", map[string]any{
		"Entries": s.deps.Recent.Recent(50),
		"Flash":   r.URL.Query().Get("msg"),
	})
}

func (s *Server) submitForm(w http.ResponseWriter, r *http.Request) {
	if err := r.ParseForm(); err != nil {
		writeError(w, http.StatusBadRequest, "invalid form")
		return
	}

	project := r.FormValue("project")
	content := r.FormValue("content")
	tags := splitCommaTags(r.FormValue("tags"))

	var sub domain.Submission
	if r.FormValue("category") == string(domain.CategoryProgress) {
		sub = domain.ProgressSubmission{
			Project: project,
			Stage:   r.FormValue("stage"),
			Notes:   r.FormValue("notes"),
			Content: content,
			Tags:    tags,
		}
	} else {
		sub = domain.NoteSubmission{Project: project, Content: content, Tags: tags}
	}

	if _, err := s.deps.Intake.Accept(r.Context(), sub, domain.SourceWebForm); err != nil {
		writeServiceError(w, err)
		return
	}

	http.Redirect(w, r, "/entries?msg=saved", http.StatusSeeOther)
}

func (s *Server) ledgerPage(w http.ResponseWriter, r *http.Request) {
	s.renderPage(w, "ledger.html", map[string]any{
		"Records":   s.deps.Ledger.List(),
		"Values":    domain.ValueTags(),
		"Artifacts": domain.ArtifactTypes(),
		"Flash":     r.URL.Query().Get("msg"),
	})
}

func (s *Server) ledgerForm(w http.ResponseWriter, r *http.Request) {
	if err := r.ParseForm(); err != nil {
		writeError(w, http.StatusBadRequest, "invalid form")
		return
	}

	sub := domain.LedgerSubmission{
		Title:      r.FormValue("title"),
		Summary:    r.FormValue("summary"),
		Theme:      r.FormValue("theme"),
		Lens:       r.FormValue("lens"),
		Project:    r.FormValue("project"),
		References: splitCommaTags(r.FormValue("references")),
		Actor:      r.FormValue("actor"),
	}
	for _, v := range r.Form["value_tags"] {
		sub.ValueTags = append(sub.ValueTags, domain.ValueTag(v))
	}
	for _, a := range r.Form["artifact_tags"] {
		sub.ArtifactTags = append(sub.ArtifactTags, domain.ArtifactType(a))
	}

	if _, err := s.deps.Intake.Accept(r.Context(), sub, domain.SourceWebLedger); err != nil {
		writeServiceError(w, err)
		return
	}

	http.Redirect(w, r, "/ledger?msg=saved", http.StatusSeeOther)
}

func (s *Server) todosPage(w http.ResponseWriter, r *http.Request) {
	s.renderPage(w, "todos.html", map[string]any{
		"Todos": s.deps.Todos.List(),
		"Flash": r.URL.Query().Get("msg"),
	})
}

func (s *Server) todoForm(w http.ResponseWriter, r *http.Request) {
	if err := r.ParseForm(); err != nil {
		writeError(w, http.StatusBadRequest, "invalid form")
		return
	}

	sub := domain.TaskSubmission{
		Title:   r.FormValue("title"),
		Details: r.FormValue("details"),
		DueDate: r.FormValue("due_date"),
		Tags:    splitCommaTags(r.FormValue("tags")),
	}

	if _, err := s.deps.Intake.Accept(r.Context(), sub, domain.SourceWebForm); err != nil {
		writeServiceError(w, err)
		return
	}

	http.Redirect(w, r, "/todos?msg=saved", http.StatusSeeOther)
}

func (s *Server) drivePage(w http.ResponseWriter, r *http.Request) {
	path := r.URL.Query().Get("path")
	driveID := r.URL.Query().Get("drive_id")

	items, err := s.deps.Drive.ListChildren(r.Context(), path, driveID, nil)
	if err != nil {
		writeError(w, http.StatusBadGateway, err.Error())
		return
	}

	var parent string
	if path != "" {
		if i := strings.LastIndex(path, "/"); i >= 0 {
			parent = path[:i]
		}
	}

	s.renderPage(w, "drive.html", map[string]any{
		"Path":    path,
		"Parent":  parent,
		"DriveID": driveID,
		"Items":   items,
	})
}

func (s *Server) weeklyPage(w http.ResponseWriter, r *http.Request) {
	history, err := s.deps.Tracker.History(20)
	if err != nil {
		writeError(w, http.StatusInternalServerError, err.Error())
		return
	}
	s.renderPage(w, "weekly.html", map[string]any{
		"History":    history,
		"Activities": tracker.ActivityTypes(),
		"Flash":      r.URL.Query().Get("msg"),
	})
}

func (s *Server) weeklyForm(w http.ResponseWriter, r *http.Request) {
	sub, err := s.weeklySubmission(r)
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}

	if _, err := s.deps.Tracker.ProcessUpdate(sub); err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}

	http.Redirect(w, r, "/weekly-tasks?msg=processed", http.StatusSeeOther)
}

// weeklySubmission reads either form fields or an uploaded .eml file.
func (s *Server) weeklySubmission(r *http.Request) (tracker.Submission, error) {
	ct := r.Header.Get("Content-Type")
	if strings.HasPrefix(ct, "multipart/form-data") {
		if err := r.ParseMultipartForm(10 << 20); err != nil {
			return tracker.Submission{}, fmt.Errorf("invalid form")
		}
		if file, header, err := r.FormFile("email"); err == nil {
			defer file.Close()
			content, err := io.ReadAll(file)
			if err != nil {
				return tracker.Submission{}, fmt.Errorf("read upload: %w", err)
			}
			project, context, update, err := tracker.ParseEmail(header.Filename, content)
			if err != nil {
				return tracker.Submission{}, err
			}
			return tracker.Submission{
				Project:      project,
				Context:      context,
				ActivityType: tracker.ActivityType(r.FormValue("activity_type")),
				Update:       update,
			}, nil
		}
	} else if err := r.ParseForm(); err != nil {
		return tracker.Submission{}, fmt.Errorf("invalid form")
	}

	return tracker.Submission{
		Project:      r.FormValue("project"),
		Context:      r.FormValue("context"),
		ActivityType: tracker.ActivityType(r.FormValue("activity_type")),
		Update:       r.FormValue("update"),
	}, nil
}

func (s *Server) weeklyExport(w http.ResponseWriter, r *http.Request) {
	history, err := s.deps.Tracker.History(0)
	if err != nil {
		writeError(w, http.StatusInternalServerError, err.Error())
		return
	}

	report := tracker.BuildReport(history)
	filename := fmt.Sprintf("weekly-tracker-%s.md", time.Now().UTC().Format("2006-01-02"))
	if _, err := s.deps.Drive.UploadText(r.Context(), report, filename, "reports/weekly-tracker", "text/markdown"); err != nil {
		writeError(w, http.StatusBadGateway, err.Error())
		return
	}

	http.Redirect(w, r, "/weekly-tasks?msg=exported", http.StatusSeeOther)
}

func (s *Server) enhancementsPage(w http.ResponseWriter, r *http.Request) {
	s.renderPage(w, "enhance.html", map[string]any{
		"Entries":     s.deps.Enhance.List(50),
		"Suggestions": s.deps.Enhance.Suggestions(5),
		"Flash":       r.URL.Query().Get("msg"),
	})
}

func (s *Server) enhancementForm(w http.ResponseWriter, r *http.Request) {
	if err := r.ParseForm(); err != nil {
		writeError(w, http.StatusBadRequest, "invalid form")
		return
	}

	sub := enhance.Submission{
		Title:       r.FormValue("title"),
		Description: r.FormValue("description"),
		Reason:      r.FormValue("reason"),
		Area:        r.FormValue("area"),
		Impact:      r.FormValue("impact"),
		Tags:        splitCommaTags(r.FormValue("tags")),
		Links:       splitCommaTags(r.FormValue("links")),
	}

	if _, err := s.deps.Enhance.Record(sub); err != nil {
		writeServiceError(w, err)
		return
	}

	http.Redirect(w, r, "/enhancements?msg=saved", http.StatusSeeOther)
}

func (s *Server) enhancementExport(w http.ResponseWriter, r *http.Request) {
	report := enhance.BuildReport(s.deps.Enhance.List(0))
	filename := fmt.Sprintf("enhancements-%s.md", time.Now().UTC().Format("2006-01-02"))
	if _, err := s.deps.Drive.UploadText(r.Context(), report, filename, "reports/enhancements", "text/markdown"); err != nil {
		writeError(w, http.StatusBadGateway, err.Error())
		return
	}

	http.Redirect(w, r, "/enhancements?msg=exported", http.StatusSeeOther)
}
