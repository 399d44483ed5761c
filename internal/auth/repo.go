package auth

import (
	"context"
	"database/sql"
	"fmt"
	"strings"
	"time"
)

// User is one household member. Membership only controls access: the
// recipe and shopping collections themselves are shared.
type User struct {
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

func (r *Repo) CreateUser(ctx context.Context, u User) error {
	_, err := r.DB.ExecContext(ctx, `
		INSERT INTO users (id, username, email, password_hash)
		VALUES (?, ?, ?, ?)
	`, u.ID, u.Username, u.Email, u.PasswordHash)

	if err != nil {
		return fmt.Errorf("create user: %w", err)
	}
	return nil
}

func (r *Repo) GetByEmail(ctx context.Context, email string) (*User, error) {
	email = strings.TrimSpace(strings.ToLower(email))
	row := r.DB.QueryRowContext(ctx, `
		SELECT id, username, email, password_hash, token_version, created_at
		FROM users
		WHERE LOWER(email) = ?
	`, email)
	return scanUser(row, "get by email")
}

func (r *Repo) GetByUsername(ctx context.Context, username string) (*User, error) {
	username = strings.TrimSpace(username)
	row := r.DB.QueryRowContext(ctx, `
		SELECT id, username, email, password_hash, token_version, created_at
		FROM users
		WHERE username = ?
	`, username)
	return scanUser(row, "get by username")
}

func (r *Repo) GetByID(ctx context.Context, id string) (*User, error) {
	row := r.DB.QueryRowContext(ctx, `
		SELECT id, username, email, password_hash, token_version, created_at
		FROM users
		WHERE id = ?
	`, id)
	return scanUser(row, "get by id")
}

func scanUser(row *sql.Row, op string) (*User, error) {
	var u User
	if err := row.Scan(&u.ID, &u.Username, &u.Email, &u.PasswordHash, &u.TokenVersion, &u.CreatedAt); err != nil {
		if err == sql.ErrNoRows {
			return nil, nil
		}
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	return &u, nil
}

// ListMembers returns the household roster, oldest member first.
func (r *Repo) ListMembers(ctx context.Context) ([]User, error) {
	rows, err := r.DB.QueryContext(ctx, `
		SELECT id, username, email, password_hash, token_version, created_at
		FROM users
		ORDER BY created_at
	`)
	if err != nil {
		return nil, fmt.Errorf("list members: %w", err)
	}
	defer rows.Close()

	var out []User
	for rows.Next() {
		var u User
		if err := rows.Scan(&u.ID, &u.Username, &u.Email, &u.PasswordHash, &u.TokenVersion, &u.CreatedAt); err != nil {
			return nil, fmt.Errorf("scan member: %w", err)
		}
		out = append(out, u)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("members rows: %w", err)
	}
	return out, nil
}

func (r *Repo) GetTokenVersion(ctx context.Context, id string) (int, error) {
	row := r.DB.QueryRowContext(ctx, `
		SELECT token_version
		FROM users
		WHERE id = ?
	`, id)

	var version int
	if err := row.Scan(&version); err != nil {
		if err == sql.ErrNoRows {
			return 0, nil
		}
		return 0, fmt.Errorf("get token version: %w", err)
	}
	return version, nil
}

func (r *Repo) UpdatePasswordAndBumpTokenVersion(ctx context.Context, id string, passwordHash string) error {
	res, err := r.DB.ExecContext(ctx, `
		UPDATE users
		SET password_hash = ?, token_version = token_version + 1
		WHERE id = ?
	`, passwordHash, id)
	if err != nil {
		return fmt.Errorf("update password: %w", err)
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("update password rows: %w", err)
	}
	if affected == 0 {
		return fmt.Errorf("update password: user not found")
	}
	return nil
}

func (r *Repo) BumpTokenVersion(ctx context.Context, id string) error {
	res, err := r.DB.ExecContext(ctx, `
		UPDATE users
		SET token_version = token_version + 1
		WHERE id = ?
	`, id)
	if err != nil {
		return fmt.Errorf("bump token version: %w", err)
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("bump token version rows: %w", err)
	}
	if affected == 0 {
		return fmt.Errorf("bump token version: user not found")
	}
	return nil
}
