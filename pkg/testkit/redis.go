//go:build integration

package testkit

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
	"github.com/testcontainers/testcontainers-go"
	"github.com/testcontainers/testcontainers-go/wait"

	"github.com/decorhub/decorhub/config"
	"github.com/decorhub/decorhub/pkg/cache"
)

// NewRedis starts a throwaway Redis container, points REDIS_ADDR at it and
// returns a connected cache. Everything is torn down when the test ends.
func NewRedis(t testing.TB) *cache.Cache {
	t.Helper()
	ctx := context.Background()

	rc, err := testcontainers.GenericContainer(ctx, testcontainers.GenericContainerRequest{
		ContainerRequest: testcontainers.ContainerRequest{
			Image:        "redis:7-alpine",
			ExposedPorts: []string{"6379/tcp"},
			WaitingFor: wait.ForLog("Ready to accept connections").
				WithStartupTimeout(60 * time.Second),
		},
		Started: true,
	})
	require.NoError(t, err)
	t.Cleanup(func() {
		if err := rc.Terminate(ctx); err != nil {
			t.Logf("terminate redis: %v", err)
		}
	})

	addr, err := rc.Endpoint(ctx, "")
	require.NoError(t, err)
	config.Set("REDIS_ADDR", addr)
	t.Cleanup(func() { config.Set("REDIS_ADDR", "") })

	c, err := cache.Connect(ctx)
	require.NoError(t, err)
	t.Cleanup(func() { _ = c.Close() })
	return c
}
