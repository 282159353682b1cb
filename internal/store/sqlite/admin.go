package sqlite

import (
	"context"
	"database/sql"
	"errors"
	"time"

	"github.com/ugel06/registry/internal/store"
	"github.com/ugel06/registry/types"
)

// AdminRepository handles persistence for administrator credentials.
type AdminRepository struct {
	db *sql.DB
}

func (r *AdminRepository) GetByUsername(ctx context.Context, username string) (types.Admin, error) {
	const query = `
		SELECT id, username, password_hash, role, created_at
		FROM admins
		WHERE username = ?`
	var admin types.Admin
	var createdAt int64
	err := r.db.QueryRowContext(ctx, query, username).Scan(
		&admin.ID,
		&admin.Username,
		&admin.PasswordHash,
		&admin.Role,
		&createdAt,
	)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return types.Admin{}, store.ErrNotFound
		}
		return types.Admin{}, store.Wrap("get admin", err)
	}
	admin.CreatedAt = fromMillis(createdAt)
	return admin, nil
}

func (r *AdminRepository) CreateIfAbsent(ctx context.Context, admin types.Admin) (bool, error) {
	if admin.Role == "" {
		admin.Role = types.RoleAdmin
	}

	const query = `
		INSERT INTO admins (username, password_hash, role, created_at)
		VALUES (?, ?, ?, ?)
		ON CONFLICT (username) DO NOTHING`
	result, err := r.db.ExecContext(ctx, query, admin.Username, admin.PasswordHash, admin.Role, toMillis(time.Now()))
	if err != nil {
		return false, store.Wrap("create admin", err)
	}
	affected, err := result.RowsAffected()
	if err != nil {
		return false, store.Wrap("create admin", err)
	}
	return affected == 1, nil
}
