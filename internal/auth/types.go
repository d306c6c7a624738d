package auth

import (
	"errors"
	"strings"
	"time"
)

// maxUsernameLength is the maximum allowed username length.
const maxUsernameLength = 64

// NormalizeUsername trims surrounding whitespace from a username.
func NormalizeUsername(username string) string {
	return strings.TrimSpace(username)
}

// IsValidUsername checks whether a (normalised) username is acceptable:
// non-empty and at most 64 characters. Content is otherwise unrestricted,
// matching the historical registration behaviour.
func IsValidUsername(username string) bool {
	return username != "" && len(username) <= maxUsernameLength
}

// User represents a stored account.
//
// Username is immutable after creation. PasswordHash is opaque and never
// serialised or logged.
type User struct {
	ID           string    `json:"id"`
	Username     string    `json:"username"`
	PasswordHash string    `json:"-"` // never serialised
	Roles        RoleSet   `json:"-"` // serialised via RoleNames
	CreatedAt    time.Time `json:"created_at"`
	UpdatedAt    time.Time `json:"updated_at"`
}

// RoleNames returns the user's roles sorted for stable display.
func (u *User) RoleNames() []Role {
	return u.Roles.Roles()
}

// Sentinel errors for auth operations. All are recoverable and user-facing.
var (
	// ErrDuplicateUsername is returned when a registration or admin
	// creation targets a username that already exists.
	ErrDuplicateUsername = errors.New("username already exists")

	// ErrInvalidCredentials covers both "no such user" and "wrong
	// password"; the two are deliberately indistinguishable.
	ErrInvalidCredentials = errors.New("invalid credentials")

	// ErrInvalidInput is returned for empty usernames or passwords, or a
	// password below the configured minimum length.
	ErrInvalidInput = errors.New("invalid input")

	// ErrUserNotFound is returned when a lookup or role update targets a
	// username that does not exist.
	ErrUserNotFound = errors.New("user not found")

	// ErrForbidden is returned when a non-admin attempts an admin-only
	// operation, or an operation targets the protected bootstrap account.
	ErrForbidden = errors.New("insufficient permissions")

	// ErrTokenInvalid is returned for malformed, forged, or expired
	// session tokens.
	ErrTokenInvalid = errors.New("invalid session token")
)
