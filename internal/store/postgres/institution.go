package postgres

import (
	"context"
	"database/sql"
	"errors"

	"github.com/ugel06/registry/internal/store"
	"github.com/ugel06/registry/types"
)

// InstitutionRepository handles persistence for institutions.
type InstitutionRepository struct {
	db *sql.DB
}

const institutionColumns = `id, name, director_name, national_id, appointment, classroom, phone, email, registered_at`

type rowScanner interface {
	Scan(dest ...any) error
}

func scanInstitution(row rowScanner) (types.Institution, error) {
	var institution types.Institution
	if err := row.Scan(
		&institution.ID,
		&institution.Name,
		&institution.DirectorName,
		&institution.NationalID,
		&institution.Appointment,
		&institution.Classroom,
		&institution.Phone,
		&institution.Email,
		&institution.RegisteredAt,
	); err != nil {
		return types.Institution{}, err
	}
	institution.RegisteredAt = institution.RegisteredAt.UTC()
	return institution, nil
}

func (r *InstitutionRepository) List(ctx context.Context) ([]types.Institution, error) {
	const query = `
		SELECT ` + institutionColumns + `
		FROM institutions
		ORDER BY registered_at DESC, id DESC`
	rows, err := r.db.QueryContext(ctx, query)
	if err != nil {
		return nil, store.Wrap("list institutions", err)
	}
	defer rows.Close()

	institutions := make([]types.Institution, 0)
	for rows.Next() {
		institution, err := scanInstitution(rows)
		if err != nil {
			return nil, store.Wrap("list institutions", err)
		}
		institutions = append(institutions, institution)
	}
	if err := rows.Err(); err != nil {
		return nil, store.Wrap("list institutions", err)
	}
	return institutions, nil
}

func (r *InstitutionRepository) Get(ctx context.Context, id int) (types.Institution, error) {
	const query = `
		SELECT ` + institutionColumns + `
		FROM institutions
		WHERE id = $1`
	institution, err := scanInstitution(r.db.QueryRowContext(ctx, query, id))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return types.Institution{}, store.ErrNotFound
		}
		return types.Institution{}, store.Wrap("get institution", err)
	}
	return institution, nil
}

func (r *InstitutionRepository) Create(ctx context.Context, institution types.Institution) (types.Institution, error) {
	const query = `
		INSERT INTO institutions (name, director_name, national_id, appointment, classroom, phone, email)
		VALUES ($1, $2, $3, $4, $5, $6, $7)
		RETURNING id, registered_at`
	err := r.db.QueryRowContext(
		ctx,
		query,
		institution.Name,
		institution.DirectorName,
		institution.NationalID,
		string(institution.Appointment),
		string(institution.Classroom),
		institution.Phone,
		institution.Email,
	).Scan(&institution.ID, &institution.RegisteredAt)
	if err != nil {
		if isUniqueViolation(err) {
			return types.Institution{}, store.ErrConflict
		}
		return types.Institution{}, store.Wrap("create institution", err)
	}
	institution.RegisteredAt = institution.RegisteredAt.UTC()
	return institution, nil
}

func (r *InstitutionRepository) Update(ctx context.Context, institution types.Institution) (types.Institution, error) {
	const query = `
		UPDATE institutions
		SET name = $1,
			director_name = $2,
			national_id = $3,
			appointment = $4,
			classroom = $5,
			phone = $6,
			email = $7
		WHERE id = $8
		RETURNING registered_at`
	err := r.db.QueryRowContext(
		ctx,
		query,
		institution.Name,
		institution.DirectorName,
		institution.NationalID,
		string(institution.Appointment),
		string(institution.Classroom),
		institution.Phone,
		institution.Email,
		institution.ID,
	).Scan(&institution.RegisteredAt)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return types.Institution{}, store.ErrNotFound
		}
		if isUniqueViolation(err) {
			return types.Institution{}, store.ErrConflict
		}
		return types.Institution{}, store.Wrap("update institution", err)
	}
	institution.RegisteredAt = institution.RegisteredAt.UTC()
	return institution, nil
}

func (r *InstitutionRepository) Delete(ctx context.Context, id int) (int64, error) {
	const query = `DELETE FROM institutions WHERE id = $1`
	result, err := r.db.ExecContext(ctx, query, id)
	if err != nil {
		return 0, store.Wrap("delete institution", err)
	}
	affected, err := result.RowsAffected()
	if err != nil {
		return 0, store.Wrap("delete institution", err)
	}
	return affected, nil
}

func (r *InstitutionRepository) ExistsWithNationalID(ctx context.Context, nationalID string, excludeID int) (bool, error) {
	const query = `
		SELECT EXISTS (
			SELECT 1 FROM institutions
			WHERE national_id = $1 AND id <> $2
		)`
	var exists bool
	if err := r.db.QueryRowContext(ctx, query, nationalID, excludeID).Scan(&exists); err != nil {
		return false, store.Wrap("check national id", err)
	}
	return exists, nil
}
