package database_test

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/decorhub/decorhub/config"
	"github.com/decorhub/decorhub/pkg/database"
)

func TestSQLiteDSNEnablesForeignKeys(t *testing.T) {
	assert.Equal(t, "decorhub.db?_foreign_keys=on", database.SQLiteDSN("decorhub.db"))
	assert.Equal(t, "file:x?mode=memory&_foreign_keys=on", database.SQLiteDSN("file:x?mode=memory"))
	assert.Equal(t, "file:x?_foreign_keys=off", database.SQLiteDSN("file:x?_foreign_keys=off"))
}

func TestConnectSQLite(t *testing.T) {
	db, err := database.Connect(context.Background(), config.DatabaseConfig{
		Driver:         "sqlite",
		DSN:            "file:connect_test?mode=memory&cache=shared",
		MaxOpenConns:   4,
		AcquireTimeout: time.Second,
	})
	require.NoError(t, err)
	t.Cleanup(func() { _ = database.Close(db) })

	var fk int
	require.NoError(t, db.Raw("PRAGMA foreign_keys").Scan(&fk).Error)
	assert.Equal(t, 1, fk)
}

func TestConnectUnknownDriver(t *testing.T) {
	_, err := database.Connect(context.Background(), config.DatabaseConfig{Driver: "oracle"})
	assert.ErrorContains(t, err, "unsupported DB_DRIVER")
}
