package services

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/ugel06/registry/internal/auth"
	"github.com/ugel06/registry/internal/store"
	"github.com/ugel06/registry/types"
)

// AdminService encapsulates administrator credential use-cases.
type AdminService struct {
	repo store.AdminRepository
}

func NewAdminService(repo store.AdminRepository) *AdminService {
	return &AdminService{repo: repo}
}

func (s *AdminService) FindByUsername(ctx context.Context, username string) (types.Admin, error) {
	return s.repo.GetByUsername(ctx, username)
}

// EnsureBootstrapAdmin creates the bootstrap administrator when username is
// absent and leaves an existing account untouched. It reports whether an
// account was created.
func (s *AdminService) EnsureBootstrapAdmin(ctx context.Context, username, password string) (bool, error) {
	username = strings.TrimSpace(username)
	if username == "" || password == "" {
		return false, errors.New("bootstrap admin username and password are required")
	}

	if _, err := s.repo.GetByUsername(ctx, username); err == nil {
		return false, nil
	} else if !errors.Is(err, store.ErrNotFound) {
		return false, err
	}

	hash, err := auth.HashPassword(password)
	if err != nil {
		return false, fmt.Errorf("hash bootstrap password: %w", err)
	}

	return s.repo.CreateIfAbsent(ctx, types.Admin{
		Username:     username,
		PasswordHash: hash,
		Role:         types.RoleAdmin,
	})
}
