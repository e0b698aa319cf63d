// Package testdb opens migrated databases for tests.
package testdb

import (
	"context"
	"fmt"
	"os"
	"strings"
	"testing"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/Skotchmaster/courses/internal/models"
	"github.com/Skotchmaster/courses/pkg/db"
)

const PostgresEnv = "COURSES_TEST_DATABASE_URL"

var tables = []string{
	"feedback",
	"homework",
	"enrollments",
	"lessons",
	"courses",
	"tokens",
	"users",
}

// Open returns a private in-memory sqlite database with every table migrated.
func Open(t testing.TB) *gorm.DB {
	t.Helper()

	dsn := fmt.Sprintf("file:%s?mode=memory&cache=shared", uuid.NewString())
	gdb, err := db.Open(context.Background(), db.DriverSQLite, dsn)
	if err != nil {
		t.Fatalf("open sqlite: %v", err)
	}
	t.Cleanup(func() { _ = db.Close(gdb) })

	migrate(t, gdb)
	return gdb
}

// OpenPostgres connects to the database named by COURSES_TEST_DATABASE_URL and
// empties it. The test is skipped when the variable is unset.
func OpenPostgres(t testing.TB) *gorm.DB {
	t.Helper()

	dsn := os.Getenv(PostgresEnv)
	if dsn == "" {
		t.Skipf("%s not set", PostgresEnv)
	}
	gdb, err := db.Open(context.Background(), db.DriverPostgres, dsn)
	if err != nil {
		t.Fatalf("open postgres: %v", err)
	}
	t.Cleanup(func() { _ = db.Close(gdb) })

	migrate(t, gdb)
	ClearDB(t, gdb)
	return gdb
}

func ClearDB(t testing.TB, gdb *gorm.DB) {
	t.Helper()

	query := fmt.Sprintf("TRUNCATE TABLE %s RESTART IDENTITY CASCADE", strings.Join(tables, ", "))
	if err := gdb.Exec(query).Error; err != nil {
		t.Fatalf("clear db: %v", err)
	}
}

func migrate(t testing.TB, gdb *gorm.DB) {
	t.Helper()

	if err := gdb.AutoMigrate(models.All()...); err != nil {
		t.Fatalf("failed to migrate tables: %v", err)
	}
}
