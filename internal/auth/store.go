package auth

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
)

// CredentialStore defines the interface for user account persistence.
// It is the sole owner of user records; all mutations are durable before
// the call returns.
type CredentialStore interface {
	// Insert creates a new account atomically. The ID is generated if
	// empty. Returns ErrDuplicateUsername if the username is taken;
	// a failed insert leaves no partial row.
	Insert(ctx context.Context, user *User) error

	// GetByUsername retrieves an account. Returns ErrUserNotFound.
	GetByUsername(ctx context.Context, username string) (*User, error)

	// UpdateRoles overwrites the account's role set wholesale.
	// Returns ErrUserNotFound if the username does not exist.
	UpdateRoles(ctx context.Context, username string, roles RoleSet) error

	// UpdatePassword replaces the stored password hash.
	// Returns ErrUserNotFound if the username does not exist.
	UpdatePassword(ctx context.Context, username, passwordHash string) error

	// Delete removes an account. Returns ErrUserNotFound.
	Delete(ctx context.Context, username string) error

	// List returns every account ordered by created_at ascending for
	// stable display in management views.
	List(ctx context.Context) ([]User, error)

	// Count returns the total number of accounts.
	Count(ctx context.Context) (int, error)
}

// SQLiteCredentialStore implements CredentialStore using SQLite.
//
// Uniqueness is enforced by the UNIQUE index on users.username, so a
// duplicate insert fails atomically inside a single statement rather than
// through a racy check-then-insert.
type SQLiteCredentialStore struct {
	db *sql.DB
}

// NewCredentialStore creates a new SQLite-backed credential store.
func NewCredentialStore(db *sql.DB) *SQLiteCredentialStore {
	return &SQLiteCredentialStore{db: db}
}

// Insert creates a new account. The ID is generated if empty.
func (s *SQLiteCredentialStore) Insert(ctx context.Context, user *User) error {
	if user.ID == "" {
		user.ID = "usr-" + uuid.NewString()[:8]
	}

	now := time.Now().UTC().Format(time.RFC3339)
	user.CreatedAt, _ = time.Parse(time.RFC3339, now) //nolint:errcheck // format is controlled
	user.UpdatedAt = user.CreatedAt

	_, err := s.db.ExecContext(ctx,
		`INSERT INTO users (id, username, password_hash, roles, created_at, updated_at)
		 VALUES (?, ?, ?, ?, ?, ?)`,
		user.ID, user.Username, user.PasswordHash, EncodeRoles(user.Roles), now, now,
	)
	if err != nil {
		if isUniqueViolation(err) {
			return ErrDuplicateUsername
		}
		return fmt.Errorf("inserting user: %w", err)
	}

	return nil
}

// GetByUsername retrieves an account by username.
func (s *SQLiteCredentialStore) GetByUsername(ctx context.Context, username string) (*User, error) {
	row := s.db.QueryRowContext(ctx,
		"SELECT id, username, password_hash, roles, created_at, updated_at FROM users WHERE username = ?",
		username,
	)
	return scanUserFrom(row)
}

// UpdateRoles overwrites the account's role set.
func (s *SQLiteCredentialStore) UpdateRoles(ctx context.Context, username string, roles RoleSet) error {
	now := time.Now().UTC().Format(time.RFC3339)

	result, err := s.db.ExecContext(ctx,
		"UPDATE users SET roles = ?, updated_at = ? WHERE username = ?",
		EncodeRoles(roles), now, username,
	)
	if err != nil {
		return fmt.Errorf("updating roles: %w", err)
	}

	rows, _ := result.RowsAffected() //nolint:errcheck // always succeeds on SQLite
	if rows == 0 {
		return ErrUserNotFound
	}
	return nil
}

// UpdatePassword replaces the stored password hash.
func (s *SQLiteCredentialStore) UpdatePassword(ctx context.Context, username, passwordHash string) error {
	now := time.Now().UTC().Format(time.RFC3339)

	result, err := s.db.ExecContext(ctx,
		"UPDATE users SET password_hash = ?, updated_at = ? WHERE username = ?",
		passwordHash, now, username,
	)
	if err != nil {
		return fmt.Errorf("updating password: %w", err)
	}

	rows, _ := result.RowsAffected() //nolint:errcheck // always succeeds on SQLite
	if rows == 0 {
		return ErrUserNotFound
	}
	return nil
}

// Delete removes an account by username.
func (s *SQLiteCredentialStore) Delete(ctx context.Context, username string) error {
	result, err := s.db.ExecContext(ctx, "DELETE FROM users WHERE username = ?", username)
	if err != nil {
		return fmt.Errorf("deleting user: %w", err)
	}

	rows, _ := result.RowsAffected() //nolint:errcheck // always succeeds on SQLite
	if rows == 0 {
		return ErrUserNotFound
	}
	return nil
}

// List returns all accounts ordered by creation date.
func (s *SQLiteCredentialStore) List(ctx context.Context) ([]User, error) {
	rows, err := s.db.QueryContext(ctx,
		"SELECT id, username, password_hash, roles, created_at, updated_at FROM users ORDER BY created_at ASC, rowid ASC")
	if err != nil {
		return nil, fmt.Errorf("listing users: %w", err)
	}
	defer rows.Close()

	var users []User
	for rows.Next() {
		u, err := scanUserFrom(rows)
		if err != nil {
			return nil, err
		}
		users = append(users, *u)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterating users: %w", err)
	}

	if users == nil {
		users = []User{}
	}
	return users, nil
}

// Count returns the total number of accounts.
func (s *SQLiteCredentialStore) Count(ctx context.Context) (int, error) {
	var count int
	if err := s.db.QueryRowContext(ctx, "SELECT COUNT(*) FROM users").Scan(&count); err != nil {
		return 0, fmt.Errorf("counting users: %w", err)
	}
	return count, nil
}

// scanner is an interface over sql.Row and sql.Rows Scan methods.
type scanner interface {
	Scan(dest ...any) error
}

// scanUserFrom scans a user from any scanner (Row or Rows).
func scanUserFrom(sc scanner) (*User, error) {
	var u User
	var roles, createdAt, updatedAt string

	err := sc.Scan(&u.ID, &u.Username, &u.PasswordHash, &roles, &createdAt, &updatedAt)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrUserNotFound
		}
		return nil, fmt.Errorf("scanning user: %w", err)
	}

	u.Roles = DecodeRoles(roles)
	u.CreatedAt, _ = time.Parse(time.RFC3339, createdAt) //nolint:errcheck // format is controlled
	u.UpdatedAt, _ = time.Parse(time.RFC3339, updatedAt) //nolint:errcheck // format is controlled

	return &u, nil
}

// isUniqueViolation checks if a SQLite error is a UNIQUE constraint violation.
func isUniqueViolation(err error) bool {
	if err == nil {
		return false
	}
	msg := err.Error()
	return strings.Contains(msg, "UNIQUE constraint failed") ||
		strings.Contains(msg, "unique constraint")
}
