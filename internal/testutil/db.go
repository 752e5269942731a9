package testutil

import (
	"testing"

	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"

	"github.com/yukikurage/taskboard-api/internal/database"
)

// Option adjusts the test database.
type Option func(dsn string) string

// WithForeignKeys makes sqlite enforce foreign keys, which it skips by default.
func WithForeignKeys() Option {
	return func(dsn string) string {
		return dsn + "?_foreign_keys=on"
	}
}

// NewDB opens a migrated in-memory sqlite database that lives for the test.
func NewDB(t *testing.T, opts ...Option) *gorm.DB {
	t.Helper()

	dsn := ":memory:"
	for _, opt := range opts {
		dsn = opt(dsn)
	}

	db, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{
		Logger: logger.Default.LogMode(logger.Silent),
	})
	require.NoError(t, err)

	// every connection to :memory: is a separate database
	sqlDB, err := db.DB()
	require.NoError(t, err)
	sqlDB.SetMaxOpenConns(1)

	require.NoError(t, database.MigrateDatabase(db))

	t.Cleanup(func() { _ = sqlDB.Close() })
	return db
}
