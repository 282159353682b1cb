package handlers

import (
	"context"
	"net/http"
	"time"
)

// Pinger reports whether the storage backend is reachable.
type Pinger interface {
	Ping(ctx context.Context) error
	Driver() string
}

type HealthResponse struct {
	Status string `json:"status"`
	Driver string `json:"driver"`
}

// Healthz returns a handler that pings the backend.
func Healthz(backend Pinger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx, cancel := context.WithTimeout(r.Context(), 2*time.Second)
		defer cancel()

		if err := backend.Ping(ctx); err != nil {
			writeJSON(w, http.StatusServiceUnavailable, HealthResponse{Status: "unavailable", Driver: backend.Driver()})
			return
		}
		writeJSON(w, http.StatusOK, HealthResponse{Status: "ok", Driver: backend.Driver()})
	}
}
