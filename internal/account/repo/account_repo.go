package repo

import (
	"context"
	"database/sql"
	"errors"
	"time"

	"github.com/jmoiron/sqlx"
	"github.com/lib/pq"
	pkgerrors "github.com/pkg/errors"

	"github.com/M0byNick/bookandacoffee/internal/account/entity"
)

var (
	ErrNotFound  = errors.New("account not found")
	ErrDuplicate = errors.New("username or email already taken")
)

const uniqueViolation = "23505"

const accountColumns = `id, username, email, password, is_email_confirmed, biography,
	favorite_subjects, profile_pic_url, created_at, updated_at`

// AccountRepo provides data access for the accounts table using sqlx.
type AccountRepo struct {
	db *sqlx.DB
}

func NewAccountRepo(db *sqlx.DB) *AccountRepo { return &AccountRepo{db: db} }

// EnsureTable creates the accounts table if not exists (idempotent).
// This is a convenience for early development; prefer migrations in production.
func (r *AccountRepo) EnsureTable(ctx context.Context) error {
	const ddl = `
CREATE EXTENSION IF NOT EXISTS citext;
CREATE TABLE IF NOT EXISTS accounts (
  id TEXT PRIMARY KEY,
  username TEXT NOT NULL UNIQUE,
  email CITEXT NOT NULL UNIQUE,
  password TEXT NOT NULL,
  is_email_confirmed BOOLEAN NOT NULL DEFAULT false,
  biography TEXT NOT NULL DEFAULT '',
  favorite_subjects TEXT[] NOT NULL DEFAULT '{}',
  profile_pic_url TEXT NOT NULL DEFAULT '',
  created_at TIMESTAMPTZ NOT NULL DEFAULT NOW(),
  updated_at TIMESTAMPTZ NOT NULL DEFAULT NOW()
);
`
	_, err := r.db.ExecContext(ctx, ddl)
	return pkgerrors.Wrap(err, "ensure accounts table")
}

// Create inserts a new account. The caller assigns ID and has already run the
// pre-persist hook on Password.
func (r *AccountRepo) Create(ctx context.Context, a *entity.Account) error {
	const q = `INSERT INTO accounts (id, username, email, password, is_email_confirmed, biography, favorite_subjects, profile_pic_url, created_at, updated_at)
		VALUES (:id, :username, :email, :password, :is_email_confirmed, :biography, :favorite_subjects, :profile_pic_url, :created_at, :updated_at)`
	now := time.Now().UTC()
	if a.CreatedAt.IsZero() {
		a.CreatedAt = now
	}
	a.UpdatedAt = now
	if a.FavoriteSubjects == nil {
		a.FavoriteSubjects = pq.StringArray{}
	}
	if _, err := r.db.NamedExecContext(ctx, q, a); err != nil {
		return mapError(err, "insert account")
	}
	return nil
}

// GetByID fetches a full account row.
func (r *AccountRepo) GetByID(ctx context.Context, id string) (*entity.Account, error) {
	return r.getOne(ctx, `SELECT `+accountColumns+` FROM accounts WHERE id=$1`, id)
}

// GetByEmail matches case-insensitively due to citext.
func (r *AccountRepo) GetByEmail(ctx context.Context, email string) (*entity.Account, error) {
	return r.getOne(ctx, `SELECT `+accountColumns+` FROM accounts WHERE email=$1`, email)
}

func (r *AccountRepo) GetByUsername(ctx context.Context, username string) (*entity.Account, error) {
	return r.getOne(ctx, `SELECT `+accountColumns+` FROM accounts WHERE username=$1`, username)
}

func (r *AccountRepo) getOne(ctx context.Context, q string, arg any) (*entity.Account, error) {
	var a entity.Account
	if err := r.db.GetContext(ctx, &a, q, arg); err != nil {
		return nil, mapError(err, "get account")
	}
	return &a, nil
}

// Update writes every mutable column, password included. The password value is
// written as-is; hashing is the caller's pre-persist concern.
func (r *AccountRepo) Update(ctx context.Context, a *entity.Account) error {
	const q = `UPDATE accounts SET username=:username, email=:email, password=:password,
		biography=:biography, favorite_subjects=:favorite_subjects, profile_pic_url=:profile_pic_url,
		updated_at=:updated_at WHERE id=:id`
	a.UpdatedAt = time.Now().UTC()
	if a.FavoriteSubjects == nil {
		a.FavoriteSubjects = pq.StringArray{}
	}
	res, err := r.db.NamedExecContext(ctx, q, a)
	if err != nil {
		return mapError(err, "update account")
	}
	return requireRow(res, "update account")
}

// MarkEmailConfirmed flips is_email_confirmed once. It returns false when the
// account exists but was already confirmed.
func (r *AccountRepo) MarkEmailConfirmed(ctx context.Context, id string) (bool, error) {
	const q = `UPDATE accounts SET is_email_confirmed=true, updated_at=NOW()
		WHERE id=$1 AND is_email_confirmed=false RETURNING 1`
	var one int
	err := r.db.GetContext(ctx, &one, q, id)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return false, nil
		}
		return false, pkgerrors.Wrap(err, "confirm email")
	}
	return true, nil
}

// Delete removes an account by id.
func (r *AccountRepo) Delete(ctx context.Context, id string) error {
	res, err := r.db.ExecContext(ctx, `DELETE FROM accounts WHERE id=$1`, id)
	if err != nil {
		return pkgerrors.Wrap(err, "delete account")
	}
	return requireRow(res, "delete account")
}

func requireRow(res sql.Result, op string) error {
	n, err := res.RowsAffected()
	if err != nil {
		return pkgerrors.Wrap(err, op)
	}
	if n == 0 {
		return ErrNotFound
	}
	return nil
}

func mapError(err error, op string) error {
	if errors.Is(err, sql.ErrNoRows) {
		return ErrNotFound
	}
	var pqErr *pq.Error
	if errors.As(err, &pqErr) && pqErr.Code == uniqueViolation {
		return pkgerrors.Wrapf(ErrDuplicate, "%s: %s", op, pqErr.Constraint)
	}
	return pkgerrors.Wrap(err, op)
}
