// Package auth issues and verifies administrator session tokens.
//
// Tokens are stateless HS256 JWTs: nothing is stored server-side, so a token
// stays valid until it expires.
package auth

import (
	"context"
	"errors"
	"strconv"
	"strings"
	"sync"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/ugel06/registry/internal/store"
	"github.com/ugel06/registry/types"
)

const DefaultTokenTTL = 24 * time.Hour

var (
	// ErrInvalidCredentials is returned by Login for an unknown username
	// and for a wrong password alike.
	ErrInvalidCredentials = errors.New("invalid username or password")
	// ErrUnauthenticated is returned by Authorize when no token is presented.
	ErrUnauthenticated = errors.New("authentication token required")
	// ErrInvalidToken is returned by Authorize for a bad signature or an expired token.
	ErrInvalidToken = errors.New("invalid or expired token")
)

// dummyHash is compared against when the username does not exist so both
// failure paths spend the same bcrypt time.
var dummyHash = sync.OnceValue(func() string {
	hash, _ := HashPassword("registry-unknown-user")
	return hash
})

// CredentialFinder looks up administrator credentials.
type CredentialFinder interface {
	FindByUsername(ctx context.Context, username string) (types.Admin, error)
}

// Claims is the payload of a session token.
type Claims struct {
	AdminID  int    `json:"id"`
	Username string `json:"username"`
	Role     string `json:"role"`
	jwt.RegisteredClaims
}

// Session is the result of a successful login.
type Session struct {
	Token     string      `json:"token"`
	ExpiresAt time.Time   `json:"expires_at"`
	Admin     types.Admin `json:"user"`
}

// Authenticator verifies credentials and the tokens it issues.
type Authenticator struct {
	creds  CredentialFinder
	secret []byte
	ttl    time.Duration
	now    func() time.Time
}

type Option func(*Authenticator)

// WithTTL overrides the token lifetime.
func WithTTL(ttl time.Duration) Option {
	return func(a *Authenticator) {
		if ttl > 0 {
			a.ttl = ttl
		}
	}
}

// WithClock overrides the time source used to issue and verify tokens.
func WithClock(now func() time.Time) Option {
	return func(a *Authenticator) {
		if now != nil {
			a.now = now
		}
	}
}

func New(creds CredentialFinder, secret string, opts ...Option) *Authenticator {
	a := &Authenticator{
		creds:  creds,
		secret: []byte(secret),
		ttl:    DefaultTokenTTL,
		now:    time.Now,
	}
	for _, opt := range opts {
		opt(a)
	}
	return a
}

// Login checks username and password and issues a token for the admin.
// Storage failures are returned as they are; only the two credential
// failures collapse into ErrInvalidCredentials.
func (a *Authenticator) Login(ctx context.Context, username, password string) (Session, error) {
	username = strings.TrimSpace(username)
	if username == "" || password == "" {
		return Session{}, ErrInvalidCredentials
	}

	admin, err := a.creds.FindByUsername(ctx, username)
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			_ = CheckPassword(dummyHash(), password)
			return Session{}, ErrInvalidCredentials
		}
		return Session{}, err
	}

	if err := CheckPassword(admin.PasswordHash, password); err != nil {
		return Session{}, ErrInvalidCredentials
	}

	token, expiresAt, err := a.issueToken(admin)
	if err != nil {
		return Session{}, err
	}

	admin.PasswordHash = ""
	return Session{Token: token, ExpiresAt: expiresAt, Admin: admin}, nil
}

// Authorize verifies the value of an Authorization header. The "Bearer"
// scheme is optional.
func (a *Authenticator) Authorize(header string) (*Claims, error) {
	token := stripScheme(header)
	if token == "" {
		return nil, ErrUnauthenticated
	}
	return a.ParseToken(token)
}

// ParseToken verifies a raw token string.
func (a *Authenticator) ParseToken(tokenString string) (*Claims, error) {
	claims := &Claims{}
	token, err := jwt.ParseWithClaims(tokenString, claims, func(token *jwt.Token) (any, error) {
		if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, errors.New("invalid signing method")
		}
		return a.secret, nil
	},
		jwt.WithTimeFunc(a.now),
		jwt.WithExpirationRequired(),
		jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}),
	)
	if err != nil || !token.Valid {
		return nil, ErrInvalidToken
	}
	if claims.AdminID < 1 || strings.TrimSpace(claims.Username) == "" {
		return nil, ErrInvalidToken
	}
	return claims, nil
}

func (a *Authenticator) issueToken(admin types.Admin) (string, time.Time, error) {
	now := a.now()
	expiresAt := now.Add(a.ttl)
	claims := Claims{
		AdminID:  admin.ID,
		Username: admin.Username,
		Role:     admin.Role,
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   strconv.Itoa(admin.ID),
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(expiresAt),
		},
	}
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	signed, err := token.SignedString(a.secret)
	if err != nil {
		return "", time.Time{}, err
	}
	return signed, expiresAt, nil
}

func stripScheme(header string) string {
	header = strings.TrimSpace(header)
	if header == "" {
		return ""
	}
	parts := strings.SplitN(header, " ", 2)
	if !strings.EqualFold(parts[0], "Bearer") {
		return header
	}
	if len(parts) == 1 {
		return ""
	}
	return strings.TrimSpace(parts[1])
}
