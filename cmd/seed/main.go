package main

import (
	"context"
	"errors"
	"fmt"
	"log"

	"github.com/spf13/viper"
	"go.uber.org/zap"

	"paperless/internal/config"
	"paperless/internal/db"
	apperrors "paperless/internal/errors"
	"paperless/internal/logger"
	"paperless/internal/model"
	"paperless/internal/repository"
)

// seedAccount describes one account the seed script ensures exists.
type seedAccount struct {
	Username   string
	Email      string
	Password   string
	Department string
	Role       model.Role
}

func main() {
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("config: %v", err)
	}
	zl, err := logger.New(cfg.Environment, cfg.LogLevel)
	if err != nil {
		log.Fatalf("logger init: %v", err)
	}
	defer func() { _ = zl.Sync() }()

	accounts, err := accountsFromEnv()
	if err != nil {
		zl.Fatal("invalid seed configuration", zap.Error(err))
	}

	ctx := context.Background()
	gormDB, err := db.Connect(ctx, db.Options{
		Driver:  cfg.DBDriver,
		DSN:     cfg.DBDSN,
		Retries: cfg.DBConnectRetries,
		Backoff: cfg.DBConnectBackoff,
		Logger:  zl,
	})
	if err != nil {
		zl.Fatal("failed to connect to database", zap.Error(err))
	}
	if err := db.Migrate(gormDB); err != nil {
		zl.Fatal("failed to run migrations", zap.Error(err))
	}

	repo := repository.NewUserRepository(gormDB)
	created, err := seedAccounts(ctx, repo, accounts, zl)
	if err != nil {
		zl.Fatal("seed failed", zap.Error(err))
	}
	zl.Info("seed completed", zap.Int("created", created), zap.Int("processed", len(accounts)))
}

// accountsFromEnv reads SEED_BOSS_* (required) and SEED_EMPLOYEE_*
// (optional demo account).
func accountsFromEnv() ([]seedAccount, error) {
	v := viper.New()
	v.AutomaticEnv()
	v.SetDefault("SEED_BOSS_USERNAME", "boss")
	v.SetDefault("SEED_BOSS_DEPARTMENT", "management")
	v.SetDefault("SEED_EMPLOYEE_DEPARTMENT", "general")

	boss := seedAccount{
		Username:   v.GetString("SEED_BOSS_USERNAME"),
		Email:      v.GetString("SEED_BOSS_EMAIL"),
		Password:   v.GetString("SEED_BOSS_PASSWORD"),
		Department: v.GetString("SEED_BOSS_DEPARTMENT"),
		Role:       model.RoleBoss,
	}
	if boss.Email == "" || boss.Password == "" {
		return nil, errors.New("SEED_BOSS_EMAIL and SEED_BOSS_PASSWORD are required")
	}
	accounts := []seedAccount{boss}

	if email := v.GetString("SEED_EMPLOYEE_EMAIL"); email != "" {
		accounts = append(accounts, seedAccount{
			Username:   v.GetString("SEED_EMPLOYEE_USERNAME"),
			Email:      email,
			Password:   v.GetString("SEED_EMPLOYEE_PASSWORD"),
			Department: v.GetString("SEED_EMPLOYEE_DEPARTMENT"),
			Role:       model.RoleEmployee,
		})
	}
	for _, a := range accounts {
		if a.Username == "" || len(a.Password) < 6 {
			return nil, fmt.Errorf("account %s needs a username and a password of at least 6 characters", a.Email)
		}
	}
	return accounts, nil
}

// seedAccounts creates every account whose email is not registered yet.
// Existing accounts are left untouched, including their role.
func seedAccounts(ctx context.Context, repo repository.UserRepository, accounts []seedAccount, zl *zap.Logger) (int, error) {
	created := 0
	for _, a := range accounts {
		existing, err := repo.FindByEmail(ctx, a.Email)
		if err != nil && !errors.Is(err, apperrors.ErrUserNotFound) {
			return created, fmt.Errorf("check %s: %w", a.Email, err)
		}
		if existing != nil {
			zl.Info("account already exists, skipping",
				zap.String("email", existing.Email),
				zap.String("role", string(existing.Role)),
			)
			continue
		}

		user := &model.User{
			Username:   a.Username,
			Email:      a.Email,
			Department: a.Department,
			Role:       a.Role,
			Active:     true,
		}
		if err := user.SetPassword(a.Password); err != nil {
			return created, err
		}
		if err := repo.Create(ctx, user); err != nil {
			return created, fmt.Errorf("create %s: %w", a.Email, err)
		}
		zl.Info("account created", zap.String("email", user.Email), zap.String("role", string(user.Role)))
		created++
	}
	return created, nil
}
