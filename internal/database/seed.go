package database

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/jmoiron/sqlx"
	"golang.org/x/crypto/bcrypt"

	"blogcms/internal/config"
)

// Seed creates the admin user described by cfg if no user with that email
// exists. The unknown author and the root category are created by the
// migrations themselves.
func Seed(ctx context.Context, db *sqlx.DB, cfg config.AdminConfig) error {
	var exists bool
	if err := db.GetContext(ctx, &exists,
		`SELECT EXISTS (SELECT 1 FROM users WHERE email = $1)`, cfg.Email); err != nil {
		return fmt.Errorf("seed check admin: %w", err)
	}
	if exists {
		slog.Debug("admin user already seeded, skipping", "email", cfg.Email)
		return nil
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(cfg.Password), bcrypt.DefaultCost)
	if err != nil {
		return fmt.Errorf("seed bcrypt: %w", err)
	}

	_, err = db.ExecContext(ctx, `
		INSERT INTO users (name, email, password_hash)
		VALUES ($1, $2, $3)
	`, cfg.Name, cfg.Email, string(hash))
	if err != nil {
		return fmt.Errorf("seed insert admin: %w", err)
	}

	slog.Info("database seeded with admin user", "email", cfg.Email)
	return nil
}
