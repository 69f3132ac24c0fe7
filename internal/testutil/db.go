// Package testutil opens throwaway databases for package tests.
package testutil

import (
	"fmt"
	"path/filepath"
	"testing"

	"volt-inventory/internal/repository"
	"volt-inventory/pkg/database"

	"gorm.io/gorm"
)

// NewDB returns a migrated SQLite database in the test's temp dir. The pool
// holds a single connection so transactions serialize the way row locks do
// on postgres.
func NewDB(t *testing.T) *gorm.DB {
	t.Helper()

	path := filepath.Join(t.TempDir(), "volt.db")
	db, err := database.Connect(database.Config{
		URL:          fmt.Sprintf("sqlite:file:%s?_busy_timeout=5000&_journal_mode=WAL&_foreign_keys=off", path),
		MaxOpenConns: 1,
		LogLevel:     "silent",
	})
	if err != nil {
		t.Fatalf("open test database: %v", err)
	}
	t.Cleanup(func() {
		_ = database.Close(db)
	})

	if err := repository.Migrate(db); err != nil {
		t.Fatalf("migrate test database: %v", err)
	}
	return db
}
