package auth

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/ugel06/registry/internal/store"
	"github.com/ugel06/registry/types"
)

type credentialsStub struct {
	admins map[string]types.Admin
	err    error
}

func (s credentialsStub) FindByUsername(_ context.Context, username string) (types.Admin, error) {
	if s.err != nil {
		return types.Admin{}, s.err
	}
	admin, ok := s.admins[username]
	if !ok {
		return types.Admin{}, store.ErrNotFound
	}
	return admin, nil
}

func newStub(t *testing.T) credentialsStub {
	t.Helper()
	hash, err := HashPassword("ugel06admin")
	if err != nil {
		t.Fatalf("hash: %v", err)
	}
	return credentialsStub{admins: map[string]types.Admin{
		"admin": {ID: 1, Username: "admin", PasswordHash: hash, Role: types.RoleAdmin},
	}}
}

type clock struct {
	now time.Time
}

func (c *clock) Now() time.Time {
	return c.now
}

func TestLoginIssuesVerifiableToken(t *testing.T) {
	a := New(newStub(t), "secret")

	session, err := a.Login(context.Background(), "admin", "ugel06admin")
	if err != nil {
		t.Fatalf("login: %v", err)
	}
	if session.Admin.PasswordHash != "" {
		t.Fatalf("password hash leaked in session")
	}
	if session.Admin.Username != "admin" || session.Admin.Role != types.RoleAdmin {
		t.Fatalf("unexpected admin %+v", session.Admin)
	}

	claims, err := a.Authorize("Bearer " + session.Token)
	if err != nil {
		t.Fatalf("authorize: %v", err)
	}
	if claims.AdminID != 1 || claims.Username != "admin" || claims.Role != types.RoleAdmin {
		t.Fatalf("unexpected claims %+v", claims)
	}
}

func TestLoginFailuresAreIndistinguishable(t *testing.T) {
	a := New(newStub(t), "secret")

	_, wrongPassword := a.Login(context.Background(), "admin", "nope")
	_, unknownUser := a.Login(context.Background(), "ghost", "ugel06admin")

	if !errors.Is(wrongPassword, ErrInvalidCredentials) {
		t.Fatalf("wrong password: expected ErrInvalidCredentials, got %v", wrongPassword)
	}
	if !errors.Is(unknownUser, ErrInvalidCredentials) {
		t.Fatalf("unknown user: expected ErrInvalidCredentials, got %v", unknownUser)
	}
	if wrongPassword.Error() != unknownUser.Error() {
		t.Fatalf("messages differ: %q vs %q", wrongPassword, unknownUser)
	}
}

func TestLoginSurfacesStorageErrors(t *testing.T) {
	failure := &store.StorageError{Op: "get admin", Err: errors.New("connection refused")}
	a := New(credentialsStub{err: failure}, "secret")

	_, err := a.Login(context.Background(), "admin", "ugel06admin")
	if !store.IsStorageError(err) {
		t.Fatalf("expected storage error, got %v", err)
	}
}

func TestAuthorizeWithoutToken(t *testing.T) {
	a := New(newStub(t), "secret")
	for _, header := range []string{"", "   ", "Bearer ", "bearer", "Bearer    "} {
		if _, err := a.Authorize(header); !errors.Is(err, ErrUnauthenticated) {
			t.Fatalf("header %q: expected ErrUnauthenticated, got %v", header, err)
		}
	}
}

func TestAuthorizeAcceptsRawToken(t *testing.T) {
	a := New(newStub(t), "secret")
	session, err := a.Login(context.Background(), "admin", "ugel06admin")
	if err != nil {
		t.Fatalf("login: %v", err)
	}
	if _, err := a.Authorize(session.Token); err != nil {
		t.Fatalf("authorize raw token: %v", err)
	}
	if _, err := a.Authorize("bearer " + session.Token); err != nil {
		t.Fatalf("authorize lowercase scheme: %v", err)
	}
}

func TestAuthorizeRejectsForeignSignature(t *testing.T) {
	stub := newStub(t)
	issuer := New(stub, "other-secret")
	verifier := New(stub, "secret")

	session, err := issuer.Login(context.Background(), "admin", "ugel06admin")
	if err != nil {
		t.Fatalf("login: %v", err)
	}
	if _, err := verifier.Authorize(session.Token); !errors.Is(err, ErrInvalidToken) {
		t.Fatalf("expected ErrInvalidToken, got %v", err)
	}
	if _, err := verifier.Authorize("Bearer not-a-jwt"); !errors.Is(err, ErrInvalidToken) {
		t.Fatalf("expected ErrInvalidToken for garbage, got %v", err)
	}
}

func TestAuthorizeRejectsNoneAlgorithm(t *testing.T) {
	a := New(newStub(t), "secret")
	claims := Claims{
		AdminID:  1,
		Username: "admin",
		Role:     types.RoleAdmin,
		RegisteredClaims: jwt.RegisteredClaims{
			ExpiresAt: jwt.NewNumericDate(time.Now().Add(time.Hour)),
		},
	}
	unsigned, err := jwt.NewWithClaims(jwt.SigningMethodNone, claims).SignedString(jwt.UnsafeAllowNoneSignatureType)
	if err != nil {
		t.Fatalf("sign: %v", err)
	}
	if _, err := a.Authorize(unsigned); !errors.Is(err, ErrInvalidToken) {
		t.Fatalf("expected ErrInvalidToken, got %v", err)
	}
}

func TestTokenExpiresAfterTTL(t *testing.T) {
	c := &clock{now: time.Date(2026, 3, 1, 8, 0, 0, 0, time.UTC)}
	a := New(newStub(t), "secret", WithClock(c.Now))

	session, err := a.Login(context.Background(), "admin", "ugel06admin")
	if err != nil {
		t.Fatalf("login: %v", err)
	}
	if want := c.now.Add(24 * time.Hour); !session.ExpiresAt.Equal(want) {
		t.Fatalf("expires at = %s, want %s", session.ExpiresAt, want)
	}

	c.now = c.now.Add(23 * time.Hour)
	if _, err := a.Authorize(session.Token); err != nil {
		t.Fatalf("authorize before expiry: %v", err)
	}

	c.now = c.now.Add(time.Hour + time.Second)
	if _, err := a.Authorize(session.Token); !errors.Is(err, ErrInvalidToken) {
		t.Fatalf("expected ErrInvalidToken after expiry, got %v", err)
	}
}

func TestWithTTL(t *testing.T) {
	c := &clock{now: time.Date(2026, 3, 1, 8, 0, 0, 0, time.UTC)}
	a := New(newStub(t), "secret", WithClock(c.Now), WithTTL(time.Minute))

	session, err := a.Login(context.Background(), "admin", "ugel06admin")
	if err != nil {
		t.Fatalf("login: %v", err)
	}
	c.now = c.now.Add(2 * time.Minute)
	if _, err := a.Authorize(session.Token); !errors.Is(err, ErrInvalidToken) {
		t.Fatalf("expected ErrInvalidToken, got %v", err)
	}
}
