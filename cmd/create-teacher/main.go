// Command create-teacher provisions a teacher account.
//
// Usage:
//
//	go run ./cmd/create-teacher --email teacher@example.com --name "Mrs. Rehman" --password '...'
package main

import (
	"context"
	"flag"
	"log"
	"time"

	"go.uber.org/zap"

	"github.com/noah-isme/gradebook-api/internal/repository"
	"github.com/noah-isme/gradebook-api/internal/service"
	"github.com/noah-isme/gradebook-api/pkg/config"
	"github.com/noah-isme/gradebook-api/pkg/database"
	"github.com/noah-isme/gradebook-api/pkg/logger"
)

func main() {
	email := flag.String("email", "", "Teacher email (login)")
	name := flag.String("name", "", "Display name")
	password := flag.String("password", "", "Initial password, at least 8 characters")
	flag.Parse()

	if *email == "" || *name == "" || *password == "" {
		flag.Usage()
		log.Fatal("email, name and password are required")
	}

	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("failed to load config: %v", err)
	}
	logr, err := logger.New(cfg)
	if err != nil {
		log.Fatalf("failed to init logger: %v", err)
	}
	defer logr.Sync() //nolint:errcheck

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	db, err := database.NewPostgres(ctx, cfg.Database)
	if err != nil {
		logr.Fatal("connect postgres", zap.Error(err))
	}
	defer db.Close() //nolint:errcheck

	if err := database.Migrate(ctx, db, logr); err != nil {
		logr.Fatal("migrate", zap.Error(err))
	}

	auth := service.NewAuthService(repository.NewTeacherRepository(db), nil, logr, service.AuthConfig{
		AccessTokenSecret: cfg.JWT.Secret,
		AccessTokenExpiry: cfg.JWT.Expiration,
		Issuer:            cfg.JWT.Issuer,
	})
	teacher, err := auth.Register(ctx, *email, *name, *password)
	if err != nil {
		logr.Fatal("create teacher", zap.Error(err))
	}
	logr.Info("teacher created",
		zap.String("teacher_id", teacher.ID),
		zap.String("email", teacher.Email),
		zap.String("theme", teacher.ResolvedTheme().Key))
}
