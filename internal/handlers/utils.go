package handlers

import (
	"encoding/json"
	"errors"
	"log"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"
	"github.com/ugel06/registry/internal/auth"
	"github.com/ugel06/registry/internal/services"
	"github.com/ugel06/registry/internal/storage"
	"github.com/ugel06/registry/internal/store"
)

const maxJSONBody = 1 << 20

// ErrorResponse is the body of every error reply. Fields is set for
// validation failures only.
type ErrorResponse struct {
	Error  string            `json:"error"`
	Fields map[string]string `json:"fields,omitempty"`
}

func writeJSON(w http.ResponseWriter, status int, value any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(value)
}

func writeError(w http.ResponseWriter, status int, message string) {
	writeJSON(w, status, ErrorResponse{Error: message})
}

// writeServiceError maps a service or store error to its HTTP reply.
func writeServiceError(w http.ResponseWriter, r *http.Request, err error) {
	var verr *services.ValidationError
	switch {
	case errors.As(err, &verr):
		writeJSON(w, http.StatusBadRequest, ErrorResponse{Error: "invalid institution", Fields: verr.Fields})
	case errors.Is(err, store.ErrConflict):
		writeError(w, http.StatusConflict, "an institution with this national id is already registered")
	case errors.Is(err, store.ErrNotFound):
		writeError(w, http.StatusNotFound, "institution not found")
	case errors.Is(err, storage.ErrObjectNotFound):
		writeError(w, http.StatusNotFound, "export not found")
	case errors.Is(err, services.ErrInvalidArchiveKey):
		writeError(w, http.StatusBadRequest, err.Error())
	case errors.Is(err, auth.ErrUnauthenticated),
		errors.Is(err, auth.ErrInvalidToken),
		errors.Is(err, auth.ErrInvalidCredentials):
		writeError(w, http.StatusUnauthorized, err.Error())
	default:
		log.Printf("%s %s: %v", r.Method, r.URL.Path, err)
		writeError(w, http.StatusInternalServerError, "internal server error")
	}
}

func decodeJSON(w http.ResponseWriter, r *http.Request, dst any) error {
	return json.NewDecoder(http.MaxBytesReader(w, r.Body, maxJSONBody)).Decode(dst)
}

func parseInstitutionID(r *http.Request) (int, error) {
	id, err := strconv.Atoi(chi.URLParam(r, "institutionID"))
	if err != nil || id < 1 {
		return 0, errors.New("invalid institution id")
	}
	return id, nil
}
