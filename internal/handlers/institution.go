package handlers

import (
	"bytes"
	"fmt"
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/ugel06/registry/internal/services"
	"github.com/ugel06/registry/internal/store"
	"github.com/ugel06/registry/types"
)

const (
	maxUploadBytes = 10 << 20
	formFieldFile  = "file"
)

// InstitutionHandler serves the institution registry.
type InstitutionHandler struct {
	institutions *services.InstitutionService
	now          func() time.Time
}

func NewInstitutionHandler(institutions *services.InstitutionService) *InstitutionHandler {
	return &InstitutionHandler{institutions: institutions, now: time.Now}
}

// InstitutionRouter registers institution routes on the given router.
// Registration and reads are public; changes need an admin token.
func InstitutionRouter(r chi.Router, institutions *services.InstitutionService, authMiddleware func(http.Handler) http.Handler) {
	handler := NewInstitutionHandler(institutions)

	r.Get("/", handler.ListInstitutions)
	r.Post("/", handler.CreateInstitution)
	r.With(authMiddleware).Get("/export", handler.ExportInstitutions)
	r.With(authMiddleware).Post("/import", handler.ImportInstitutions)
	r.Route("/{institutionID}", func(r chi.Router) {
		r.Get("/", handler.GetInstitution)
		r.With(authMiddleware).Put("/", handler.UpdateInstitution)
		r.With(authMiddleware).Delete("/", handler.DeleteInstitution)
	})
}

func (h *InstitutionHandler) ListInstitutions(w http.ResponseWriter, r *http.Request) {
	items, err := h.institutions.Search(r.Context(), r.URL.Query().Get("q"))
	if err != nil {
		writeServiceError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, items)
}

func (h *InstitutionHandler) GetInstitution(w http.ResponseWriter, r *http.Request) {
	id, err := parseInstitutionID(r)
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}

	institution, err := h.institutions.Get(r.Context(), id)
	if err != nil {
		writeServiceError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, institution)
}

func (h *InstitutionHandler) CreateInstitution(w http.ResponseWriter, r *http.Request) {
	var input types.Institution
	if err := decodeJSON(w, r, &input); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request")
		return
	}

	created, err := h.institutions.Create(r.Context(), input)
	if err != nil {
		writeServiceError(w, r, err)
		return
	}
	writeJSON(w, http.StatusCreated, CreateInstitutionResponse{ID: created.ID, Institution: created})
}

func (h *InstitutionHandler) UpdateInstitution(w http.ResponseWriter, r *http.Request) {
	id, err := parseInstitutionID(r)
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}

	var input types.Institution
	if err := decodeJSON(w, r, &input); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request")
		return
	}

	updated, err := h.institutions.Update(r.Context(), id, input)
	if err != nil {
		writeServiceError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, updated)
}

func (h *InstitutionHandler) DeleteInstitution(w http.ResponseWriter, r *http.Request) {
	id, err := parseInstitutionID(r)
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}

	removed, err := h.institutions.Delete(r.Context(), id)
	if err != nil {
		writeServiceError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, DeleteInstitutionResponse{Deleted: removed})
}

func (h *InstitutionHandler) ExportInstitutions(w http.ResponseWriter, r *http.Request) {
	var buf bytes.Buffer
	if _, err := h.institutions.Export(r.Context(), r.URL.Query().Get("q"), &buf); err != nil {
		writeServiceError(w, r, err)
		return
	}

	w.Header().Set("Content-Type", services.SpreadsheetContentType)
	w.Header().Set("Content-Disposition", fmt.Sprintf("attachment; filename=%q", services.ExportFilename(h.now())))
	w.Header().Set("Content-Length", strconv.Itoa(buf.Len()))
	w.WriteHeader(http.StatusOK)
	_, _ = buf.WriteTo(w)
}

func (h *InstitutionHandler) ImportInstitutions(w http.ResponseWriter, r *http.Request) {
	r.Body = http.MaxBytesReader(w, r.Body, maxUploadBytes)
	if err := r.ParseMultipartForm(maxUploadBytes); err != nil {
		writeError(w, http.StatusBadRequest, "invalid multipart form")
		return
	}
	file, _, err := r.FormFile(formFieldFile)
	if err != nil {
		writeError(w, http.StatusBadRequest, "file is required")
		return
	}
	defer func() {
		_ = file.Close()
	}()

	result, err := h.institutions.Import(r.Context(), file)
	if err != nil {
		if store.IsStorageError(err) || r.Context().Err() != nil {
			writeServiceError(w, r, err)
			return
		}
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}
	writeJSON(w, http.StatusOK, result)
}

type CreateInstitutionResponse struct {
	ID          int               `json:"id"`
	Institution types.Institution `json:"institution"`
}

type DeleteInstitutionResponse struct {
	Deleted int64 `json:"deleted"`
}
