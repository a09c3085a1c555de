package main

import (
	"context"
	"fmt"
	"log"
	"os"

	"github.com/jackc/pgx/v5"
	"github.com/joho/godotenv"

	"github.com/oksasatya/creator-marketplace/config"
	"github.com/oksasatya/creator-marketplace/internal/domain/entity"
	pginfra "github.com/oksasatya/creator-marketplace/internal/infrastructure/postgres"
	"github.com/oksasatya/creator-marketplace/pkg/helpers"
)

func getenv(key, def string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return def
}

func main() {
	_ = godotenv.Load()
	cfg := config.Load()
	ctx := context.Background()

	pool, err := pginfra.NewPool(ctx, pginfra.PoolConfig{DSN: cfg.PostgresDSN(), AppName: cfg.AppName + "-seed", MaxConns: 2})
	if err != nil {
		log.Fatalf("failed to connect to postgres: %v", err)
	}
	defer pool.Close()

	// Ensure base roles exist
	for _, role := range []string{entity.RoleAdmin, entity.RoleCreator} {
		if _, err := pool.Exec(ctx, `INSERT INTO roles (name) VALUES ($1) ON CONFLICT (name) DO UPDATE SET updated_at = now()`, role); err != nil {
			log.Fatalf("failed to upsert role %s: %v", role, err)
		}
	}
	fmt.Println("roles ensured: admin, creator")

	password := getenv("SEED_PASSWORD", "password123")
	hash, err := helpers.HashPassword(password)
	if err != nil {
		log.Fatalf("failed to hash password: %v", err)
	}

	err = pgx.BeginFunc(ctx, pool, func(tx pgx.Tx) error {
		adminID, err := seedUser(ctx, tx, getenv("SEED_ADMIN_EMAIL", "admin@example.com"), hash, "Marketplace Admin", entity.RoleAdmin, entity.RoleCreator)
		if err != nil {
			return fmt.Errorf("seed admin: %w", err)
		}
		fmt.Printf("seeded admin: id=%s password=%s\n", adminID, password)

		creatorID, err := seedUser(ctx, tx, getenv("SEED_CREATOR_EMAIL", "creator@example.com"), hash, "Demo Creator", entity.RoleCreator)
		if err != nil {
			return fmt.Errorf("seed creator: %w", err)
		}
		var profileID string
		if err := tx.QueryRow(ctx, `
			INSERT INTO creators (user_id, username, display_name, bio)
			VALUES ($1, 'democreator', 'Demo Creator', 'Pre-loved pieces with a story.')
			ON CONFLICT (user_id) DO UPDATE SET display_name = EXCLUDED.display_name
			RETURNING id
		`, creatorID).Scan(&profileID); err != nil {
			return fmt.Errorf("seed creator profile: %w", err)
		}
		fmt.Printf("seeded creator: user=%s profile=%s username=democreator\n", creatorID, profileID)
		return nil
	})
	if err != nil {
		log.Fatalf("seed failed: %v", err)
	}
}

// seedUser upserts a verified user and assigns roles.
func seedUser(ctx context.Context, tx pgx.Tx, email, hash, name string, roles ...string) (string, error) {
	var id string
	err := tx.QueryRow(ctx, `
		INSERT INTO users (email, password_hash, name, is_verified)
		VALUES ($1, $2, $3, TRUE)
		ON CONFLICT (email) DO UPDATE SET name = EXCLUDED.name, is_verified = TRUE
		RETURNING id
	`, email, hash, name).Scan(&id)
	if err != nil {
		return "", err
	}
	for _, role := range roles {
		if _, err := tx.Exec(ctx, `
			INSERT INTO user_roles (user_id, role_id)
			SELECT $1, id FROM roles WHERE name = $2
			ON CONFLICT (user_id, role_id) DO NOTHING
		`, id, role); err != nil {
			return "", err
		}
	}
	return id, nil
}
