package auth

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/google/uuid"
)

// decoyHashFallback is a syntactically valid PHC string used to equalise
// login timing if generating a random decoy at startup fails. It hashes a
// random value nobody knows.
const decoyHashFallback = "$argon2id$v=19$m=65536,t=3,p=1$AAAAAAAAAAAAAAAAAAAAAA$JHC5Ck7perGWggVkb0xEo2g7J5LhmRzFDe8hDHJXsSQ"

// Service implements registration, login, and role management over a
// CredentialStore. It is the only writer of user records.
type Service struct {
	store     CredentialStore
	logger    *slog.Logger
	minPwLen  int
	decoyHash string
}

// NewService creates an auth service.
//
// minPasswordLength is the registration password policy; zero disables the
// check, matching the historical leniency.
func NewService(store CredentialStore, logger *slog.Logger, minPasswordLength int) *Service {
	// Pre-hash a random value so logins against unknown usernames spend
	// the same time in verification as logins against real ones.
	decoy, err := HashPassword(uuid.NewString())
	if err != nil {
		decoy = decoyHashFallback
	}

	return &Service{
		store:     store,
		logger:    logger,
		minPwLen:  minPasswordLength,
		decoyHash: decoy,
	}
}

// Register creates a new account with no roles (stored sentinel "none").
// Returns ErrInvalidInput for an empty username or password, or a password
// below the configured minimum length; ErrDuplicateUsername if the
// username is taken.
func (s *Service) Register(ctx context.Context, username, password string) (*User, error) {
	username = NormalizeUsername(username)
	if !IsValidUsername(username) || password == "" {
		return nil, fmt.Errorf("%w: username and password are required", ErrInvalidInput)
	}
	if s.minPwLen > 0 && len(password) < s.minPwLen {
		return nil, fmt.Errorf("%w: password must be at least %d characters", ErrInvalidInput, s.minPwLen)
	}

	hash, err := HashPassword(password)
	if err != nil {
		return nil, fmt.Errorf("hashing password: %w", err)
	}

	user := &User{
		Username:     username,
		PasswordHash: hash,
		Roles:        NewRoleSet(),
	}
	if err := s.store.Insert(ctx, user); err != nil {
		return nil, err
	}

	s.logger.Info("user registered", "username", username)
	return user, nil
}

// Login validates credentials and returns a fresh SessionContext populated
// with a point-in-time copy of the user's roles.
//
// Unknown usernames and wrong passwords both fail with
// ErrInvalidCredentials; the unknown-username path verifies against a decoy
// hash so the two cases are not observably different.
func (s *Service) Login(ctx context.Context, username, password string) (*SessionContext, error) {
	username = NormalizeUsername(username)
	if username == "" || password == "" {
		return nil, ErrInvalidCredentials
	}

	user, err := s.store.GetByUsername(ctx, username)
	if err != nil {
		if errors.Is(err, ErrUserNotFound) {
			VerifyPassword(password, s.decoyHash)
			return nil, ErrInvalidCredentials
		}
		return nil, err
	}

	if !VerifyPassword(password, user.PasswordHash) {
		return nil, ErrInvalidCredentials
	}

	sc := newSessionContext(newSessionID())
	sc.establish(user.Username, user.Roles)

	s.logger.Info("user logged in", "username", user.Username)
	return sc, nil
}

// Logout clears the given session context back to its empty initial state.
// Idempotent; a nil session is a no-op.
func (s *Service) Logout(sc *SessionContext) {
	if sc == nil {
		return
	}
	sc.Clear()
}

// PromoteRole overwrites the target user's role set wholesale (not
// additive). Requires the acting session to hold admin; fails with
// ErrForbidden otherwise and ErrUserNotFound if the target is missing.
func (s *Service) PromoteRole(ctx context.Context, actingRoles RoleSet, targetUsername string, roles RoleSet) error {
	if !actingRoles.IsAdmin() {
		return ErrForbidden
	}

	targetUsername = NormalizeUsername(targetUsername)
	if err := s.store.UpdateRoles(ctx, targetUsername, roles); err != nil {
		return err
	}

	s.logger.Info("roles updated", "username", targetUsername, "roles", roles.String())
	return nil
}

// CreateUser is the admin path that creates an account with roles assigned
// up front, in one atomic insert.
func (s *Service) CreateUser(ctx context.Context, actingRoles RoleSet, username, password string, roles RoleSet) (*User, error) {
	if !actingRoles.IsAdmin() {
		return nil, ErrForbidden
	}

	username = NormalizeUsername(username)
	if !IsValidUsername(username) || password == "" {
		return nil, fmt.Errorf("%w: username and password are required", ErrInvalidInput)
	}

	hash, err := HashPassword(password)
	if err != nil {
		return nil, fmt.Errorf("hashing password: %w", err)
	}

	user := &User{
		Username:     username,
		PasswordHash: hash,
		Roles:        roles.Clone(),
	}
	if err := s.store.Insert(ctx, user); err != nil {
		return nil, err
	}

	s.logger.Info("user created", "username", username, "roles", roles.String())
	return user, nil
}

// ChangePassword replaces the target user's password. Admin only.
func (s *Service) ChangePassword(ctx context.Context, actingRoles RoleSet, targetUsername, newPassword string) error {
	if !actingRoles.IsAdmin() {
		return ErrForbidden
	}
	if newPassword == "" {
		return fmt.Errorf("%w: password is required", ErrInvalidInput)
	}

	hash, err := HashPassword(newPassword)
	if err != nil {
		return fmt.Errorf("hashing password: %w", err)
	}

	targetUsername = NormalizeUsername(targetUsername)
	if err := s.store.UpdatePassword(ctx, targetUsername, hash); err != nil {
		return err
	}

	s.logger.Info("password changed", "username", targetUsername)
	return nil
}

// DeleteUser removes an account. Admin only; the bootstrap admin account
// cannot be deleted.
func (s *Service) DeleteUser(ctx context.Context, actingRoles RoleSet, targetUsername string) error {
	if !actingRoles.IsAdmin() {
		return ErrForbidden
	}

	targetUsername = NormalizeUsername(targetUsername)
	if targetUsername == BootstrapUsername {
		return ErrForbidden
	}

	if err := s.store.Delete(ctx, targetUsername); err != nil {
		return err
	}

	s.logger.Info("user deleted", "username", targetUsername)
	return nil
}

// ListUsers returns every account ordered by creation time. Admin only.
func (s *Service) ListUsers(ctx context.Context, actingRoles RoleSet) ([]User, error) {
	if !actingRoles.IsAdmin() {
		return nil, ErrForbidden
	}
	return s.store.List(ctx)
}
