package db

import (
	"context"
	"fmt"
	"time"

	"go.uber.org/zap"
	"gorm.io/driver/mysql"
	"gorm.io/driver/postgres"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	gormlogger "gorm.io/gorm/logger"

	"paperless/internal/model"
)

// Options configures a database connection.
type Options struct {
	Driver  string
	DSN     string
	Retries int
	Backoff time.Duration
	Logger  *zap.Logger
	// Verbose enables GORM's SQL logging.
	Verbose bool
}

// Dialector returns the GORM dialector for driver.
func Dialector(driver, dsn string) (gorm.Dialector, error) {
	switch driver {
	case "mysql":
		return mysql.Open(dsn), nil
	case "postgres":
		return postgres.Open(dsn), nil
	case "sqlite":
		return sqlite.Open(dsn), nil
	default:
		return nil, fmt.Errorf("unsupported database driver %q", driver)
	}
}

// Connect opens the database, retrying a fixed number of times with a fixed
// backoff. Retries only happen here, never per request.
func Connect(ctx context.Context, opts Options) (*gorm.DB, error) {
	dialector, err := Dialector(opts.Driver, opts.DSN)
	if err != nil {
		return nil, err
	}
	log := opts.Logger
	if log == nil {
		log = zap.NewNop()
	}

	level := gormlogger.Silent
	if opts.Verbose {
		level = gormlogger.Info
	}
	gormCfg := &gorm.Config{
		TranslateError: true,
		Logger:         gormlogger.Default.LogMode(level),
	}

	attempts := opts.Retries + 1
	for attempt := 1; ; attempt++ {
		conn, openErr := gorm.Open(dialector, gormCfg)
		if openErr == nil {
			openErr = ping(ctx, conn)
			if openErr == nil {
				log.Info("database connected", zap.String("driver", opts.Driver), zap.Int("attempt", attempt))
				return conn, nil
			}
		}
		if attempt >= attempts {
			return nil, fmt.Errorf("connect %s after %d attempts: %w", opts.Driver, attempt, openErr)
		}
		log.Warn("database connection failed, retrying",
			zap.String("driver", opts.Driver),
			zap.Int("attempt", attempt),
			zap.Duration("backoff", opts.Backoff),
			zap.Error(openErr),
		)
		select {
		case <-ctx.Done():
			return nil, ctx.Err()
		case <-time.After(opts.Backoff):
		}
	}
}

func ping(ctx context.Context, conn *gorm.DB) error {
	sqlDB, err := conn.DB()
	if err != nil {
		return err
	}
	return sqlDB.PingContext(ctx)
}

// Migrate creates or updates the schema.
func Migrate(conn *gorm.DB) error {
	if err := conn.AutoMigrate(&model.User{}, &model.Document{}); err != nil {
		return fmt.Errorf("migrate: %w", err)
	}
	return nil
}
