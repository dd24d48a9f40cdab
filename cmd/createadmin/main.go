// Command createadmin provisions an admin account out-of-band.
// Self-registration only ever yields customer accounts; this is the one
// path that creates admins.
package main

import (
	"context"
	"flag"
	"log"

	"github.com/jackc/pgx/v5"

	"github.com/spec-kit/print-order-service/internal/auth"
	"github.com/spec-kit/print-order-service/internal/config"
	"github.com/spec-kit/print-order-service/internal/domain"
	"github.com/spec-kit/print-order-service/internal/observability"
	"github.com/spec-kit/print-order-service/internal/persistence"
	"github.com/spec-kit/print-order-service/internal/repository"
)

func main() {
	email := flag.String("email", "", "admin email address")
	password := flag.String("password", "", "admin password")
	flag.Parse()

	if *email == "" || *password == "" {
		log.Fatal("both -email and -password are required")
	}

	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("failed to load config: %v", err)
	}

	logger, err := observability.NewLogger(cfg.Logger)
	if err != nil {
		log.Fatalf("failed to init logger: %v", err)
	}
	defer logger.Sync() //nolint:errcheck

	ctx := context.Background()
	pg, err := persistence.NewPostgres(ctx, cfg.Postgres, logger)
	if err != nil {
		log.Fatalf("failed to connect postgres: %v", err)
	}
	defer pg.Close()

	if cfg.Postgres.RunMigrations {
		if err := persistence.RunMigrations(ctx, pg.PoolHandle(), logger); err != nil {
			log.Fatalf("failed to run migrations: %v", err)
		}
	}

	users := repository.NewUserRepository(pg.PoolHandle())

	if _, err := users.GetByEmail(ctx, *email); err == nil {
		log.Printf("admin %s already exists", *email)
		return
	} else if err != pgx.ErrNoRows {
		log.Fatalf("failed to look up %s: %v", *email, err)
	}

	hash, err := auth.HashPassword(*password, cfg.Auth.BcryptCost)
	if err != nil {
		log.Fatalf("failed to hash password: %v", err)
	}

	admin := &domain.User{
		Email:        *email,
		PasswordHash: hash,
		Role:         domain.RoleAdmin,
	}
	if err := users.Create(ctx, admin); err != nil {
		log.Fatalf("failed to create admin: %v", err)
	}

	log.Printf("admin %s created (id %s)", admin.Email, admin.ID)
}
