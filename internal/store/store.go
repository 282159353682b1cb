package store

import (
	"context"

	"github.com/ugel06/registry/types"
)

// InstitutionRepository defines persistence operations for institutions.
// Both backends implement it with the same semantics.
type InstitutionRepository interface {
	// List returns every institution, most recently registered first.
	List(ctx context.Context) ([]types.Institution, error)
	Get(ctx context.Context, id int) (types.Institution, error)
	// Create assigns ID and RegisteredAt. A duplicate national ID yields ErrConflict.
	Create(ctx context.Context, institution types.Institution) (types.Institution, error)
	// Update overwrites the mutable fields and keeps RegisteredAt.
	Update(ctx context.Context, institution types.Institution) (types.Institution, error)
	// Delete returns the number of removed rows (0 or 1).
	Delete(ctx context.Context, id int) (int64, error)
	// ExistsWithNationalID ignores the record with excludeID. Zero excludes nothing.
	ExistsWithNationalID(ctx context.Context, nationalID string, excludeID int) (bool, error)
}

// AdminRepository defines persistence operations for administrator credentials.
type AdminRepository interface {
	GetByUsername(ctx context.Context, username string) (types.Admin, error)
	// CreateIfAbsent inserts the admin unless the username exists and
	// reports whether a row was written.
	CreateIfAbsent(ctx context.Context, admin types.Admin) (bool, error)
}

// Backend is a concrete storage engine. Callers select one at startup and
// only ever see this interface.
type Backend interface {
	Driver() string
	Institutions() InstitutionRepository
	Admins() AdminRepository
	Ping(ctx context.Context) error
	Close() error
}
