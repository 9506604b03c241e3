// seed inserts development sample data for local testing.
// Idempotent: skips inserts when the dev account (dev@example.com) already
// exists.
package main

import (
	"context"
	"log"
	"time"

	"github.com/google/uuid"

	accountdomain "credential-auth-service/internal/account/domain"
	accountrepo "credential-auth-service/internal/account/repository"
	"credential-auth-service/internal/config"
	"credential-auth-service/internal/db"
	roledomain "credential-auth-service/internal/role/domain"
	rolerepo "credential-auth-service/internal/role/repository"
	"credential-auth-service/internal/security"
)

const (
	devUsername = "dev"
	devEmail    = "dev@example.com"
	devPassword = "password123"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("config: %v", err)
	}
	if cfg.DatabaseURL == "" {
		log.Fatal("DATABASE_URL is not set")
	}

	ctx := context.Background()
	pool, err := db.Open(ctx, cfg.DatabaseURL)
	if err != nil {
		log.Fatalf("db: %v", err)
	}
	defer pool.Close()

	roles := rolerepo.NewPostgresRepository(pool)
	accounts := accountrepo.NewPostgresRepository(pool)

	for _, name := range []string{"USER", "ADMIN"} {
		existing, err := roles.GetByName(ctx, name)
		if err != nil {
			log.Fatalf("seed: lookup role %s: %v", name, err)
		}
		if existing != nil {
			continue
		}
		if err := roles.Create(ctx, &roledomain.Role{Name: name, CreatedAt: time.Now().UTC()}); err != nil {
			log.Fatalf("seed: create role %s: %v", name, err)
		}
		log.Printf("seed: created role %s", name)
	}

	taken, err := accounts.ExistsByEmail(ctx, devEmail)
	if err != nil {
		log.Fatalf("seed: lookup dev account: %v", err)
	}
	if taken {
		log.Println("seed: dev account already exists, nothing to do")
		return
	}

	role, err := roles.GetByName(ctx, "ADMIN")
	if err != nil || role == nil {
		log.Fatalf("seed: ADMIN role missing: %v", err)
	}
	hasher := security.NewHasher(cfg.BcryptCost)
	hashed, err := hasher.Hash([]byte(devPassword))
	if err != nil {
		log.Fatalf("seed: hash dev password: %v", err)
	}
	now := time.Now().UTC()
	acct := &accountdomain.Account{
		UUID:         uuid.New().String(),
		Username:     devUsername,
		Email:        devEmail,
		FirstName:    "Dev",
		LastName:     "User",
		PasswordHash: hashed,
		RoleID:       role.ID,
		BirthDate:    time.Date(1990, 1, 1, 0, 0, 0, 0, time.UTC),
		LastLoginAt:  now,
		CreatedAt:    now,
		UpdatedAt:    now,
	}
	if err := accounts.Create(ctx, acct); err != nil {
		log.Fatalf("seed: create dev account: %v", err)
	}
	log.Printf("seed: created dev account %s (%s)", devUsername, devEmail)
}
