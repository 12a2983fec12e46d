// Package dbtest opens isolated in-memory SQLite databases with the full schema for tests.
package dbtest

import (
	"fmt"
	"regexp"
	"testing"

	"github.com/diewo77/go-lawfirm/internal/db"
	"go.uber.org/zap"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
)

var unsafeChars = regexp.MustCompile(`[^A-Za-z0-9_]`)

// Open returns a migrated database private to t. Foreign keys are enforced so
// cascade and set-null rules behave as on PostgreSQL.
func Open(t testing.TB) *gorm.DB {
	t.Helper()
	dsn := fmt.Sprintf("file:%s?mode=memory&cache=shared&_foreign_keys=on", unsafeChars.ReplaceAllString(t.Name(), "_"))
	conn, err := gorm.Open(sqlite.Open(dsn), db.GormConfig(zap.NewNop(), false))
	if err != nil {
		t.Fatalf("open sqlite: %v", err)
	}
	if err := db.Migrate(conn, db.MigrateOptions{}); err != nil {
		t.Fatalf("migrate: %v", err)
	}
	t.Cleanup(func() { _ = db.Close(conn) })
	return conn
}
