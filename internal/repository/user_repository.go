package repository

import (
	"context"
	"database/sql"
	"errors"

	"github.com/sekoucamara/bus-reservation/internal/model"
)

// UserRepo provides access to staff accounts: lookup for login and
// creation for admin provisioning. Role changes and deactivation are
// handled outside this service.
type UserRepo struct {
	db *sql.DB
}

// NewUserRepo returns a UserRepo bound to the given database.
func NewUserRepo(db *sql.DB) *UserRepo { return &UserRepo{db: db} }

// GetByEmail returns the active staff account with the given email, or
// ErrUserNotFound. Login treats a disabled account the same as a missing
// one.
func (r *UserRepo) GetByEmail(ctx context.Context, email string) (*model.User, error) {
	const q = `SELECT id, agency_id, full_name, email, password_hash, role, active, created_at
	           FROM users WHERE email = ? AND active = 1`
	var u model.User
	err := r.db.QueryRowContext(ctx, q, email).Scan(
		&u.ID, &u.AgencyID, &u.FullName, &u.Email, &u.PasswordHash, &u.Role,
		&u.Active, &u.CreatedAt,
	)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrUserNotFound
	}
	if err != nil {
		return nil, err
	}
	return &u, nil
}

// Create inserts a new active staff account. A duplicate email surfaces as
// ErrConflict through the users.email unique index.
func (r *UserRepo) Create(ctx context.Context, u *model.User) error {
	const q = `INSERT INTO users (agency_id, full_name, email, password_hash, role, active, created_at)
	           VALUES (?, ?, ?, ?, ?, 1, UTC_TIMESTAMP())`
	res, err := r.db.ExecContext(ctx, q, u.AgencyID, u.FullName, u.Email, u.PasswordHash, u.Role)
	if err != nil {
		if IsDuplicateKey(err) {
			return ErrConflict
		}
		return err
	}
	id, err := res.LastInsertId()
	if err != nil {
		return err
	}
	u.ID = uint64(id)
	return nil
}
