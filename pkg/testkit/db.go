// Package testkit holds helpers shared by decorhub's package tests: a migrated
// in-memory database, JSON request helpers and testify mocks for outbound
// side effects.
package testkit

import (
	"context"
	"io"
	"regexp"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
	"gorm.io/gorm"

	"github.com/decorhub/decorhub/config"
	_ "github.com/decorhub/decorhub/database/migrations"
	"github.com/decorhub/decorhub/pkg/database"
	"github.com/decorhub/decorhub/pkg/migration"
)

var unsafeName = regexp.MustCompile(`[^A-Za-z0-9_]`)

// NewDB opens a private in-memory sqlite database with foreign keys on and
// every migration applied. It is closed when the test ends.
func NewDB(t testing.TB) *gorm.DB {
	t.Helper()

	dsn := "file:" + unsafeName.ReplaceAllString(t.Name(), "_") + "?mode=memory&cache=shared"
	db, err := database.Connect(context.Background(), config.DatabaseConfig{
		Driver:         "sqlite",
		DSN:            dsn,
		MaxOpenConns:   1,
		MaxIdleConns:   1,
		AcquireTimeout: 5 * time.Second,
	})
	require.NoError(t, err)
	t.Cleanup(func() { _ = database.Close(db) })

	require.NoError(t, migration.New(db).WithOutput(io.Discard).Run())
	return db
}
