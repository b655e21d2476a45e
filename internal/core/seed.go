package core

import (
	"context"
	"fmt"
	"log"

	"admin-console/internal/auth"

	"github.com/jackc/pgx/v5/pgxpool"
)

// SeedConfig is the bootstrap administrator read from the environment.
type SeedConfig struct {
	Name     string
	Email    string
	Password string
}

// SeedAdmin creates the first ADMIN account on an empty install. It is a
// no-op when the config is incomplete or when any ADMIN already exists, so
// running it on every boot is safe.
func SeedAdmin(ctx context.Context, pool *pgxpool.Pool, cfg SeedConfig) error {
	if cfg.Email == "" || cfg.Password == "" {
		log.Printf("ADMIN_EMAIL / ADMIN_PASSWORD not set, skipping admin seed")
		return nil
	}
	if cfg.Name == "" {
		cfg.Name = "Admin"
	}

	var exists bool
	err := pool.QueryRow(ctx,
		`SELECT EXISTS (SELECT 1 FROM users WHERE role = $1)`, RoleAdmin,
	).Scan(&exists)
	if err != nil {
		return fmt.Errorf("check for existing admin: %w", err)
	}
	if exists {
		log.Printf("admin already exists, seed skipped")
		return nil
	}

	hash, err := auth.HashPassword(cfg.Password)
	if err != nil {
		return fmt.Errorf("hash admin password: %w", err)
	}

	_, err = pool.Exec(ctx, `
		INSERT INTO users (name, email, password_hash, role, department_id, is_active)
		VALUES ($1, $2, $3, $4, NULL, true)`,
		cfg.Name, cfg.Email, hash, RoleAdmin)
	if err != nil {
		return fmt.Errorf("seed admin user: %w", err)
	}

	log.Printf("seeded first ADMIN user: %s", cfg.Email)
	return nil
}
