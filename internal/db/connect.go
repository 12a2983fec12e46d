// Package db opens the relational store, applies the schema and seeds the first
// administrator.
package db

import (
	"context"
	"fmt"
	"time"

	"github.com/diewo77/go-lawfirm/internal/config"
	"go.uber.org/zap"
	"gorm.io/driver/postgres"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

const (
	connectAttempts = 10
	connectBackoff  = 2 * time.Second
)

// Dialector returns the gorm dialector for the configured driver and the DSN it uses.
func Dialector(cfg config.DatabaseConfig) (gorm.Dialector, string, error) {
	switch cfg.Driver {
	case "sqlite":
		dsn := SQLiteDSN(cfg.DSN())
		return sqlite.Open(dsn), dsn, nil
	case "postgres", "":
		dsn := NormalizeDSN(cfg.DSN())
		if dsn == "" {
			return nil, "", fmt.Errorf("empty postgres DSN")
		}
		return postgres.Open(dsn), dsn, nil
	default:
		return nil, "", fmt.Errorf("unsupported database driver %q", cfg.Driver)
	}
}

// GormConfig returns the gorm settings shared by the server, the CLI and tests.
// TranslateError makes unique and foreign key violations comparable with
// gorm.ErrDuplicatedKey and gorm.ErrForeignKeyViolated.
func GormConfig(log *zap.Logger, debug bool) *gorm.Config {
	level := logger.Warn
	if debug {
		level = logger.Info
	}
	if log == nil {
		log = zap.L()
	}
	return &gorm.Config{
		TranslateError: true,
		Logger: logger.New(zap.NewStdLog(log.Named("gorm")), logger.Config{
			SlowThreshold:             500 * time.Millisecond,
			LogLevel:                  level,
			IgnoreRecordNotFoundError: true,
		}),
	}
}

// Connect opens the database, retrying while PostgreSQL starts up.
func Connect(ctx context.Context, cfg config.DatabaseConfig, log *zap.Logger) (*gorm.DB, error) {
	if log == nil {
		log = zap.L()
	}
	dialector, dsn, err := Dialector(cfg)
	if err != nil {
		return nil, err
	}
	attempts := connectAttempts
	if cfg.Driver == "sqlite" {
		attempts = 1
	}
	var conn *gorm.DB
	for i := 1; i <= attempts; i++ {
		conn, err = gorm.Open(dialector, GormConfig(log, cfg.Debug))
		if err == nil {
			err = conn.WithContext(ctx).Exec("SELECT 1").Error
		}
		if err == nil {
			break
		}
		log.Warn("database connection failed", zap.Int("attempt", i), zap.Error(err))
		if i == attempts {
			break
		}
		select {
		case <-ctx.Done():
			return nil, ctx.Err()
		case <-time.After(connectBackoff):
		}
	}
	if err != nil {
		return nil, fmt.Errorf("connect database after %d attempts: %w", attempts, err)
	}
	log.Info("database connected", zap.String("driver", cfg.Driver), zap.String("dsn", MaskDSN(dsn)))
	return conn, nil
}
