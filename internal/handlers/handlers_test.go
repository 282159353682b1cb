package handlers

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/ugel06/registry/internal/auth"
	"github.com/ugel06/registry/internal/services"
	"github.com/ugel06/registry/internal/storage"
	"github.com/ugel06/registry/internal/store"
	"github.com/ugel06/registry/types"
)

func TestWriteServiceErrorMapping(t *testing.T) {
	tests := []struct {
		name string
		err  error
		want int
	}{
		{"validation", &services.ValidationError{Fields: map[string]string{"email": "email is not valid"}}, http.StatusBadRequest},
		{"conflict", store.ErrConflict, http.StatusConflict},
		{"wrapped not found", fmt.Errorf("get: %w", store.ErrNotFound), http.StatusNotFound},
		{"missing export", storage.ErrObjectNotFound, http.StatusNotFound},
		{"bad archive key", services.ErrInvalidArchiveKey, http.StatusBadRequest},
		{"unauthenticated", auth.ErrUnauthenticated, http.StatusUnauthorized},
		{"invalid token", auth.ErrInvalidToken, http.StatusUnauthorized},
		{"invalid credentials", auth.ErrInvalidCredentials, http.StatusUnauthorized},
		{"storage", store.Wrap("list institutions", errors.New("connection refused")), http.StatusInternalServerError},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rec := httptest.NewRecorder()
			writeServiceError(rec, httptest.NewRequest(http.MethodGet, "/", nil), tt.err)
			if rec.Code != tt.want {
				t.Fatalf("status = %d, want %d", rec.Code, tt.want)
			}
			var body ErrorResponse
			if err := json.NewDecoder(rec.Body).Decode(&body); err != nil {
				t.Fatalf("decode: %v", err)
			}
			if body.Error == "" {
				t.Fatalf("expected error message")
			}
		})
	}
}

func TestStorageErrorsHideDetails(t *testing.T) {
	rec := httptest.NewRecorder()
	writeServiceError(rec, httptest.NewRequest(http.MethodGet, "/", nil), store.Wrap("get admin", errors.New("password authentication failed for user postgres")))

	var body ErrorResponse
	if err := json.NewDecoder(rec.Body).Decode(&body); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if body.Error != "internal server error" {
		t.Fatalf("leaked storage detail: %q", body.Error)
	}
}

type adminFinder map[string]types.Admin

func (f adminFinder) FindByUsername(_ context.Context, username string) (types.Admin, error) {
	admin, ok := f[username]
	if !ok {
		return types.Admin{}, store.ErrNotFound
	}
	return admin, nil
}

func TestRequireAuth(t *testing.T) {
	hash, err := auth.HashPassword("pw")
	if err != nil {
		t.Fatalf("hash: %v", err)
	}
	authenticator := auth.New(adminFinder{
		"admin":  {ID: 1, Username: "admin", Role: types.RoleAdmin, PasswordHash: hash},
		"viewer": {ID: 2, Username: "viewer", Role: "viewer", PasswordHash: hash},
	}, "secret")

	tokenFor := func(username string) string {
		session, err := authenticator.Login(context.Background(), username, "pw")
		if err != nil {
			t.Fatalf("login %s: %v", username, err)
		}
		return session.Token
	}

	var seen *auth.Claims
	protected := RequireAuth(authenticator)(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		seen, _ = ClaimsFromContext(r.Context())
		w.WriteHeader(http.StatusNoContent)
	}))

	tests := []struct {
		name   string
		header string
		want   int
	}{
		{"missing", "", http.StatusUnauthorized},
		{"scheme without token", "Bearer ", http.StatusUnauthorized},
		{"garbage", "Bearer abc.def.ghi", http.StatusUnauthorized},
		{"viewer role", "Bearer " + tokenFor("viewer"), http.StatusForbidden},
		{"admin", "Bearer " + tokenFor("admin"), http.StatusNoContent},
		{"admin without scheme", tokenFor("admin"), http.StatusNoContent},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			seen = nil
			req := httptest.NewRequest(http.MethodPut, "/api/instituciones/1", nil)
			if tt.header != "" {
				req.Header.Set("Authorization", tt.header)
			}
			rec := httptest.NewRecorder()
			protected.ServeHTTP(rec, req)
			if rec.Code != tt.want {
				t.Fatalf("status = %d, want %d", rec.Code, tt.want)
			}
			if tt.want == http.StatusNoContent && (seen == nil || seen.Username != "admin") {
				t.Fatalf("claims not propagated: %+v", seen)
			}
		})
	}
}
