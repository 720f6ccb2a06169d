//go:build integration

package repositories_test

import (
	"context"
	"errors"
	"io"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/testcontainers/testcontainers-go"
	"github.com/testcontainers/testcontainers-go/modules/postgres"
	"github.com/testcontainers/testcontainers-go/wait"

	"github.com/decorhub/decorhub/app/models"
	"github.com/decorhub/decorhub/app/repositories"
	"github.com/decorhub/decorhub/config"
	"github.com/decorhub/decorhub/pkg/apperr"
	"github.com/decorhub/decorhub/pkg/database"
	"github.com/decorhub/decorhub/pkg/migration"
)

// newPostgresStore runs the migrations against a throwaway postgres container.
func newPostgresStore(t *testing.T) *repositories.Store {
	t.Helper()
	ctx := context.Background()

	pg, err := postgres.Run(ctx,
		"postgres:16-alpine",
		postgres.WithDatabase("decorhub"),
		postgres.WithUsername("decorhub"),
		postgres.WithPassword("decorhub"),
		testcontainers.WithWaitStrategy(
			wait.ForLog("database system is ready to accept connections").
				WithOccurrence(2).
				WithStartupTimeout(60*time.Second)),
	)
	require.NoError(t, err)
	t.Cleanup(func() {
		if err := pg.Terminate(ctx); err != nil {
			t.Logf("terminate postgres: %v", err)
		}
	})

	dsn, err := pg.ConnectionString(ctx, "sslmode=disable")
	require.NoError(t, err)

	db, err := database.Connect(ctx, config.DatabaseConfig{
		Driver:         "postgres",
		DSN:            dsn,
		MaxOpenConns:   5,
		AcquireTimeout: 10 * time.Second,
	})
	require.NoError(t, err)
	t.Cleanup(func() { _ = database.Close(db) })
	require.NoError(t, migration.New(db).WithOutput(io.Discard).Run())

	return repositories.New(db, repositories.Options{AcquireTimeout: 10 * time.Second})
}

func TestPostgresConstraints(t *testing.T) {
	s := newPostgresStore(t)

	cat, err := s.CreateCategory(ctx, arches())
	require.NoError(t, err)
	_, err = s.CreateProduct(ctx, archProduct(cat.ID))
	require.NoError(t, err)

	var ce *apperr.ConstraintError

	_, err = s.DeleteCategory(ctx, cat.ID)
	require.True(t, errors.As(err, &ce), "got %v", err)

	_, err = s.CreateProduct(ctx, archProduct(cat.ID+100))
	require.True(t, errors.As(err, &ce), "got %v", err)

	_, err = s.CreateUser(ctx, models.User{Username: "admin", Password: "x", Role: models.RoleAdmin})
	require.NoError(t, err)
	_, err = s.CreateUser(ctx, models.User{Username: "admin", Password: "y", Role: models.RoleAdmin})
	require.True(t, errors.As(err, &ce), "got %v", err)
}

func TestPostgresContactSettingsRoundTrip(t *testing.T) {
	s := newPostgresStore(t)

	_, found, err := s.GetContactSettings(ctx)
	require.NoError(t, err)
	assert.False(t, found)

	saved, err := s.UpsertContactSettings(ctx, models.ContactSettings{
		Phone:        "+1 555 0100",
		Email:        "hello@decor.example",
		Address:      "12 Market St",
		MapURL:       "https://maps.example.com/x",
		SocialLinks:  map[string]string{"instagram": "https://instagram.com/decor"},
		WorkingHours: map[string]string{"mon": "9-18"},
	})
	require.NoError(t, err)
	assert.Equal(t, uint(1), saved.ID)

	got, found, err := s.GetContactSettings(ctx)
	require.NoError(t, err)
	require.True(t, found)
	assert.Equal(t, "9-18", got.WorkingHours["mon"])
	assert.Equal(t, "https://instagram.com/decor", got.SocialLinks["instagram"])
}
