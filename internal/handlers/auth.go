package handlers

import (
	"context"
	"errors"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/ugel06/registry/internal/auth"
	"github.com/ugel06/registry/types"
)

type contextKey string

const contextClaimsKey contextKey = "claims"

// AuthHandler serves login and token verification.
type AuthHandler struct {
	authenticator *auth.Authenticator
}

func NewAuthHandler(authenticator *auth.Authenticator) *AuthHandler {
	return &AuthHandler{authenticator: authenticator}
}

// AuthRouter registers auth routes on the given router.
func AuthRouter(r chi.Router, authenticator *auth.Authenticator) {
	handler := NewAuthHandler(authenticator)

	r.Post("/login", handler.Login)
	r.With(RequireAuth(authenticator)).Get("/verify", handler.Verify)
}

// RequireAuth rejects requests without a valid admin token and stores the
// decoded claims in the request context.
func RequireAuth(authenticator *auth.Authenticator) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			claims, err := authenticator.Authorize(r.Header.Get("Authorization"))
			if err != nil {
				writeServiceError(w, r, err)
				return
			}
			if claims.Role != types.RoleAdmin {
				writeError(w, http.StatusForbidden, "administrator role required")
				return
			}

			ctx := context.WithValue(r.Context(), contextClaimsKey, claims)
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}

// ClaimsFromContext returns the claims stored by RequireAuth.
func ClaimsFromContext(ctx context.Context) (*auth.Claims, bool) {
	claims, ok := ctx.Value(contextClaimsKey).(*auth.Claims)
	return claims, ok
}

func (h *AuthHandler) Login(w http.ResponseWriter, r *http.Request) {
	var req LoginRequest
	if err := decodeJSON(w, r, &req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request")
		return
	}

	session, err := h.authenticator.Login(r.Context(), req.Username, req.Password)
	if err != nil {
		writeServiceError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, session)
}

func (h *AuthHandler) Verify(w http.ResponseWriter, r *http.Request) {
	claims, ok := ClaimsFromContext(r.Context())
	if !ok {
		writeServiceError(w, r, errors.New("claims missing from verified request"))
		return
	}
	writeJSON(w, http.StatusOK, VerifyResponse{
		Valid: true,
		User: VerifiedUser{
			ID:       claims.AdminID,
			Username: claims.Username,
			Role:     claims.Role,
		},
	})
}

type LoginRequest struct {
	Username string `json:"username"`
	Password string `json:"password"`
}

type VerifiedUser struct {
	ID       int    `json:"id"`
	Username string `json:"username"`
	Role     string `json:"role"`
}

type VerifyResponse struct {
	Valid bool         `json:"valid"`
	User  VerifiedUser `json:"user"`
}
