package db

import (
	"context"
	"errors"

	"github.com/geotours/tourhub/internal/config"
	"github.com/geotours/tourhub/internal/domain/user"
	"github.com/geotours/tourhub/internal/repo/mongodb"
	"github.com/geotours/tourhub/internal/security"
)

// EnsureAdminUser seeds the configured admin account if it does not exist yet.
func EnsureAdminUser(ctx context.Context, users *mongodb.UsersRepo, cfg config.Config) error {
	if cfg.AdminEmail == "" || cfg.AdminPassword == "" {
		return nil
	}

	// check if the user exists

	_, err := users.GetByEmail(ctx, cfg.AdminEmail)

	if err == nil {
		return nil
	}

	if !errors.Is(err, mongodb.ErrUserNotFound) {
		return err
	}

	hash, err := security.HashPassword(cfg.AdminPassword)

	if err != nil {
		return err
	}

	_, err = users.Create(ctx, user.User{
		Name:         cfg.AdminName,
		Email:        cfg.AdminEmail,
		PasswordHash: hash,
		Role:         user.RoleAdmin,
	})

	return err
}
