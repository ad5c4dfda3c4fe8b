package auth

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"
)

var ErrAdminNotFound = errors.New("admin not found")

// Admin is a CMS account. Shoppers are anonymous and never stored here.
type Admin struct {
	ID           string
	Username     string
	Email        string
	PasswordHash string
	TokenVersion int
	CreatedAt    time.Time
}

type Repo struct {
	DB *sql.DB
}

func NewRepo(db *sql.DB) *Repo {
	return &Repo{DB: db}
}

func (r *Repo) CreateAdmin(ctx context.Context, a Admin) error {
	_, err := r.DB.ExecContext(ctx, `
		INSERT INTO admins (id, username, email, password_hash)
		VALUES (?, ?, ?, ?)
	`, a.ID, a.Username, a.Email, a.PasswordHash)
	if err != nil {
		return fmt.Errorf("create admin: %w", err)
	}
	return nil
}

func (r *Repo) Count(ctx context.Context) (int, error) {
	var n int
	if err := r.DB.QueryRowContext(ctx, `SELECT COUNT(*) FROM admins`).Scan(&n); err != nil {
		return 0, fmt.Errorf("count admins: %w", err)
	}
	return n, nil
}

const adminColumns = `id, username, email, password_hash, token_version, created_at`

func (r *Repo) getOne(ctx context.Context, op, where string, arg any) (*Admin, error) {
	row := r.DB.QueryRowContext(ctx, `SELECT `+adminColumns+` FROM admins WHERE `+where, arg)

	var a Admin
	if err := row.Scan(&a.ID, &a.Username, &a.Email, &a.PasswordHash, &a.TokenVersion, &a.CreatedAt); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, nil
		}
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	return &a, nil
}

func (r *Repo) GetByEmail(ctx context.Context, email string) (*Admin, error) {
	return r.getOne(ctx, "get by email", `LOWER(email) = ?`, strings.TrimSpace(strings.ToLower(email)))
}

func (r *Repo) GetByUsername(ctx context.Context, username string) (*Admin, error) {
	return r.getOne(ctx, "get by username", `username = ?`, strings.TrimSpace(username))
}

func (r *Repo) GetByID(ctx context.Context, id string) (*Admin, error) {
	return r.getOne(ctx, "get by id", `id = ?`, id)
}

// GetByLogin accepts either the username or the email.
func (r *Repo) GetByLogin(ctx context.Context, login string) (*Admin, error) {
	if strings.Contains(login, "@") {
		return r.GetByEmail(ctx, login)
	}
	return r.GetByUsername(ctx, login)
}

func (r *Repo) GetTokenVersion(ctx context.Context, id string) (int, error) {
	var version int
	err := r.DB.QueryRowContext(ctx, `
		SELECT token_version FROM admins WHERE id = ?
	`, id).Scan(&version)
	if errors.Is(err, sql.ErrNoRows) {
		return 0, ErrAdminNotFound
	}
	if err != nil {
		return 0, fmt.Errorf("get token version: %w", err)
	}
	return version, nil
}

// UpdatePasswordAndBumpTokenVersion invalidates every token issued before
// the change.
func (r *Repo) UpdatePasswordAndBumpTokenVersion(ctx context.Context, id string, passwordHash string) error {
	res, err := r.DB.ExecContext(ctx, `
		UPDATE admins
		SET password_hash = ?, token_version = token_version + 1
		WHERE id = ?
	`, passwordHash, id)
	if err != nil {
		return fmt.Errorf("update password: %w", err)
	}
	return requireOne(res, "update password")
}

func (r *Repo) BumpTokenVersion(ctx context.Context, id string) error {
	res, err := r.DB.ExecContext(ctx, `
		UPDATE admins
		SET token_version = token_version + 1
		WHERE id = ?
	`, id)
	if err != nil {
		return fmt.Errorf("bump token version: %w", err)
	}
	return requireOne(res, "bump token version")
}

func requireOne(res sql.Result, op string) error {
	affected, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("%s rows: %w", op, err)
	}
	if affected == 0 {
		return fmt.Errorf("%s: %w", op, ErrAdminNotFound)
	}
	return nil
}
