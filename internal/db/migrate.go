package db

import (
	"errors"
	"fmt"
	"path/filepath"

	"github.com/diewo77/go-lawfirm/internal/models"
	migrate "github.com/golang-migrate/migrate/v4"
	// Register the postgres driver and file source for golang-migrate.
	_ "github.com/golang-migrate/migrate/v4/database/postgres"
	_ "github.com/golang-migrate/migrate/v4/source/file"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

// coreTables must exist after migration; a missing one means the schema is unusable.
var coreTables = []string{"users", "clients", "matters", "invoices", "audit_logs"}

// MigrateOptions selects how the schema is applied.
type MigrateOptions struct {
	// SQL runs the versioned files in Dir with golang-migrate (PostgreSQL only).
	// Otherwise the models are auto-migrated.
	SQL bool
	Dir string
	URL string
}

// Migrate brings the schema up to date and checks that the core tables exist.
func Migrate(conn *gorm.DB, opts MigrateOptions) error {
	if opts.SQL && conn.Dialector.Name() == "postgres" {
		if err := RunSQLMigrations(opts.URL, opts.Dir); err != nil {
			return fmt.Errorf("sql migrations: %w", err)
		}
	} else {
		for _, m := range models.All() {
			if err := conn.AutoMigrate(m); err != nil {
				zap.L().Error("automigrate failed", zap.String("model", fmt.Sprintf("%T", m)), zap.Error(err))
				return fmt.Errorf("automigrate %T: %w", m, err)
			}
		}
	}
	for _, table := range coreTables {
		if !conn.Migrator().HasTable(table) {
			return errors.New("missing table after migration: " + table)
		}
	}
	return nil
}

// RunSQLMigrations applies every pending up migration found in dir.
func RunSQLMigrations(dbURL, dir string) error {
	m, err := newMigrator(dbURL, dir)
	if err != nil {
		return err
	}
	defer m.Close()
	if err := m.Up(); err != nil && !errors.Is(err, migrate.ErrNoChange) {
		return err
	}
	return nil
}

// RollbackSQLMigrations reverts the last steps migrations.
func RollbackSQLMigrations(dbURL, dir string, steps int) error {
	m, err := newMigrator(dbURL, dir)
	if err != nil {
		return err
	}
	defer m.Close()
	if err := m.Steps(-steps); err != nil && !errors.Is(err, migrate.ErrNoChange) {
		return err
	}
	return nil
}

// SQLMigrationVersion reports the applied version and whether the last run left it dirty.
func SQLMigrationVersion(dbURL, dir string) (uint, bool, error) {
	m, err := newMigrator(dbURL, dir)
	if err != nil {
		return 0, false, err
	}
	defer m.Close()
	v, dirty, err := m.Version()
	if errors.Is(err, migrate.ErrNilVersion) {
		return 0, false, nil
	}
	return v, dirty, err
}

func newMigrator(dbURL, dir string) (*migrate.Migrate, error) {
	if dir == "" {
		dir = "migrations"
	}
	abs, err := filepath.Abs(dir)
	if err != nil {
		return nil, err
	}
	return migrate.New("file://"+filepath.ToSlash(abs), ToURLDSN(dbURL))
}
