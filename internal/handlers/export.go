package handlers

import (
	"fmt"
	"io"
	"net/http"
	"path"
	"strings"

	"github.com/go-chi/chi/v5"
	"github.com/ugel06/registry/internal/services"
)

const exportsPath = "/api/exports/"

// ExportHandler archives exports in object storage and serves them back.
type ExportHandler struct {
	archives *services.ArchiveService
}

func NewExportHandler(archives *services.ArchiveService) *ExportHandler {
	return &ExportHandler{archives: archives}
}

// ArchiveRouter registers the archive route next to the institution routes.
func ArchiveRouter(r chi.Router, archives *services.ArchiveService, authMiddleware func(http.Handler) http.Handler) {
	handler := NewExportHandler(archives)
	r.With(authMiddleware).Post("/export/archive", handler.ArchiveExport)
}

// ExportDownloadRouter registers the download route for archived exports.
// Keys contain slashes, so the route is a wildcard.
func ExportDownloadRouter(r chi.Router, archives *services.ArchiveService, authMiddleware func(http.Handler) http.Handler) {
	handler := NewExportHandler(archives)
	r.With(authMiddleware).Get("/*", handler.DownloadExport)
}

func (h *ExportHandler) ArchiveExport(w http.ResponseWriter, r *http.Request) {
	key, err := h.archives.Archive(r.Context(), r.URL.Query().Get("q"))
	if err != nil {
		writeServiceError(w, r, err)
		return
	}
	writeJSON(w, http.StatusCreated, ArchiveResponse{
		Key:          key,
		DownloadPath: exportsPath + strings.TrimPrefix(key, "exports/"),
	})
}

func (h *ExportHandler) DownloadExport(w http.ResponseWriter, r *http.Request) {
	key := "exports/" + chi.URLParam(r, "*")

	rc, err := h.archives.Open(r.Context(), key)
	if err != nil {
		writeServiceError(w, r, err)
		return
	}
	defer func() {
		_ = rc.Close()
	}()

	w.Header().Set("Content-Type", services.SpreadsheetContentType)
	w.Header().Set("Content-Disposition", fmt.Sprintf("attachment; filename=%q", path.Base(key)))
	w.WriteHeader(http.StatusOK)
	_, _ = io.Copy(w, rc)
}

type ArchiveResponse struct {
	Key          string `json:"key"`
	DownloadPath string `json:"download_path"`
}
