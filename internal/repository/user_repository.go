package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/iliyamo/kita-magazine-reservation/internal/database"
	"github.com/iliyamo/kita-magazine-reservation/internal/model"
)

type UserRepo struct{ db *database.DB }

func NewUserRepo(db *database.DB) *UserRepo { return &UserRepo{db: db} }

// NormalizeEmail lower-cases and trims an address; every lookup goes
// through it so "Anna@Kita.de " and "anna@kita.de" are the same parent.
func NormalizeEmail(email string) string { return strings.ToLower(strings.TrimSpace(email)) }

const userColumns = "id,email,first_name,last_name,phone,created_at,updated_at"

type queryer interface {
	execer
	QueryRowContext(ctx context.Context, query string, args ...any) *sql.Row
}

// GetByEmail fetches a user by normalized email.
func (r *UserRepo) GetByEmail(ctx context.Context, email string) (model.User, error) {
	u, err := r.getByEmail(ctx, r.db, email)
	if err != nil && !errors.Is(err, ErrNotFound) {
		return model.User{}, fmt.Errorf("users.GetByEmail: %w", err)
	}
	return u, err
}

func (r *UserRepo) getByEmail(ctx context.Context, q queryer, email string) (model.User, error) {
	var u model.User
	err := q.QueryRowContext(ctx,
		r.db.Rebind("SELECT "+userColumns+" FROM users WHERE email=?"),
		NormalizeEmail(email)).Scan(&u.ID, &u.Email, &u.FirstName, &u.LastName, &u.Phone, &u.CreatedAt, &u.UpdatedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return model.User{}, ErrNotFound
	}
	return u, err
}

// create inserts a user and fills in its id and timestamps.
func (r *UserRepo) create(ctx context.Context, ex execer, u *model.User) error {
	now := time.Now().UTC()
	u.ID = uuid.NewString()
	u.Email = NormalizeEmail(u.Email)
	u.CreatedAt, u.UpdatedAt = now, now
	_, err := ex.ExecContext(ctx,
		r.db.Rebind("INSERT INTO users (id,email,first_name,last_name,phone,created_at,updated_at) VALUES (?,?,?,?,?,?,?)"),
		u.ID, u.Email, u.FirstName, u.LastName, u.Phone, u.CreatedAt, u.UpdatedAt)
	if err != nil {
		if isUniqueViolation(err) {
			return ErrEmailExists
		}
		return err
	}
	return nil
}

// updateContact overwrites name and phone with the latest form values.
func (r *UserRepo) updateContact(ctx context.Context, ex execer, u *model.User) error {
	u.UpdatedAt = time.Now().UTC()
	_, err := ex.ExecContext(ctx,
		r.db.Rebind("UPDATE users SET first_name=?, last_name=?, phone=?, updated_at=? WHERE id=?"),
		u.FirstName, u.LastName, u.Phone, u.UpdatedAt, u.ID)
	return err
}

// UpsertTx returns the user with the given email, creating it when missing
// and refreshing its contact details otherwise.  Nothing persists unless tx
// commits.  A concurrent insert of the same address yields ErrEmailExists;
// the transaction is unusable afterwards on Postgres, so callers roll back.
func (r *UserRepo) UpsertTx(ctx context.Context, tx *sql.Tx, in model.User) (model.User, error) {
	existing, err := r.getByEmail(ctx, tx, in.Email)
	switch {
	case err == nil:
		existing.FirstName, existing.LastName, existing.Phone = in.FirstName, in.LastName, in.Phone
		if err := r.updateContact(ctx, tx, &existing); err != nil {
			return model.User{}, fmt.Errorf("users.UpsertTx: %w", err)
		}
		return existing, nil
	case !errors.Is(err, ErrNotFound):
		return model.User{}, fmt.Errorf("users.UpsertTx: %w", err)
	}
	if err := r.create(ctx, tx, &in); err != nil {
		return model.User{}, fmt.Errorf("users.UpsertTx: %w", err)
	}
	return in, nil
}

// DeleteTx removes the user row.  Dependent rows must be gone already.
func (r *UserRepo) DeleteTx(ctx context.Context, tx *sql.Tx, id string) error {
	if _, err := tx.ExecContext(ctx, r.db.Rebind("DELETE FROM users WHERE id=?"), id); err != nil {
		return fmt.Errorf("users.DeleteTx: %w", err)
	}
	return nil
}

// isUniqueViolation recognises duplicate-key errors of the supported
// drivers by their codes: MySQL 1062, Postgres 23505, SQLite "UNIQUE constraint".
func isUniqueViolation(err error) bool {
	msg := strings.ToLower(err.Error())
	return strings.Contains(msg, "1062") || strings.Contains(msg, "23505") || strings.Contains(msg, "unique constraint")
}
