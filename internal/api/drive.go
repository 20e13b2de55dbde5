package api

import (
	"fmt"
	"net/http"
)

func (s *Server) listDrives(w http.ResponseWriter, r *http.Request) {
	drives, err := s.deps.Drive.ListDrives(r.Context())
	if err != nil {
		writeError(w, http.StatusBadGateway, err.Error())
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"drives": drives})
}

func (s *Server) listDriveChildren(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	path := q.Get("path")
	driveID := q.Get("drive_id")

	var baseFolder *string
	if b := q.Get("base_folder"); b != "" {
		baseFolder = &b
	}

	items, err := s.deps.Drive.ListChildren(r.Context(), path, driveID, baseFolder)
	if err != nil {
		writeError(w, http.StatusBadGateway, err.Error())
		return
	}

	writeJSON(w, http.StatusOK, map[string]any{
		"path":  path,
		"items": items,
	})
}

func (s *Server) downloadItem(w http.ResponseWriter, r *http.Request) {
	itemID := r.PathValue("itemID")
	driveID := r.URL.Query().Get("drive_id")

	content, contentType, name, err := s.deps.Drive.DownloadItem(r.Context(), itemID, driveID)
	if err != nil {
		writeError(w, http.StatusBadGateway, err.Error())
		return
	}

	if contentType == "" {
		contentType = "application/octet-stream"
	}
	w.Header().Set("Content-Type", contentType)
	if name != "" {
		w.Header().Set("Content-Disposition", fmt.Sprintf("attachment; filename=%q", name))
	}
	w.WriteHeader(http.StatusOK)
	w.Write(content)
}
