package auth

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
)

// Bootstrap account credentials. The admin/admin pair must exist after
// first initialisation so the system is reachable before any
// self-registration; the password should be changed immediately.
const (
	BootstrapUsername = "admin"
	bootstrapPassword = "admin"
)

// EnsureAdmin seeds the bootstrap admin account if it does not exist.
// Idempotent, including against a concurrent seed from another startup.
func EnsureAdmin(ctx context.Context, store CredentialStore, logger *slog.Logger) error {
	_, err := store.GetByUsername(ctx, BootstrapUsername)
	if err == nil {
		return nil
	}
	if !errors.Is(err, ErrUserNotFound) {
		return fmt.Errorf("checking bootstrap admin: %w", err)
	}

	hash, err := HashPassword(bootstrapPassword)
	if err != nil {
		return fmt.Errorf("hashing bootstrap password: %w", err)
	}

	user := &User{
		Username:     BootstrapUsername,
		PasswordHash: hash,
		Roles:        NewRoleSet(RoleAdmin),
	}
	if err := store.Insert(ctx, user); err != nil {
		if errors.Is(err, ErrDuplicateUsername) {
			return nil // lost a race with another seeder
		}
		return fmt.Errorf("creating bootstrap admin: %w", err)
	}

	logger.Warn("bootstrap admin account created",
		"username", BootstrapUsername,
		"action_required", "change the default password immediately",
	)
	return nil
}
