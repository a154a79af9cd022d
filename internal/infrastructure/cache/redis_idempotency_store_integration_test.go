//go:build integration

package cache

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/testcontainers/testcontainers-go"
	"github.com/testcontainers/testcontainers-go/wait"
)

func newRedisStore(t *testing.T) *RedisIdempotencyStore {
	t.Helper()
	ctx := context.Background()

	container, err := testcontainers.GenericContainer(ctx, testcontainers.GenericContainerRequest{
		ContainerRequest: testcontainers.ContainerRequest{
			Image:        "redis:7-alpine",
			ExposedPorts: []string{"6379/tcp"},
			WaitingFor:   wait.ForLog("Ready to accept connections").WithStartupTimeout(60 * time.Second),
		},
		Started: true,
	})
	require.NoError(t, err, "Failed to start Redis container")
	t.Cleanup(func() { _ = container.Terminate(context.Background()) })

	host, err := container.Host(ctx)
	require.NoError(t, err)
	port, err := container.MappedPort(ctx, "6379")
	require.NoError(t, err)

	store, err := NewRedisIdempotencyStore(RedisConfig{Host: host, Port: port.Int()})
	require.NoError(t, err)
	t.Cleanup(func() { _ = store.Close() })
	return store
}

func TestRedisIdempotencyStore(t *testing.T) {
	store := newRedisStore(t)
	ctx := context.Background()
	key := "shipment:demo.myshopify.com:450789469"

	isNew, err := store.MarkProcessed(ctx, key, time.Minute)
	require.NoError(t, err)
	assert.True(t, isNew)

	isNew, err = store.MarkProcessed(ctx, key, time.Minute)
	require.NoError(t, err)
	assert.False(t, isNew)

	held, err := store.IsProcessed(ctx, key)
	require.NoError(t, err)
	assert.True(t, held)

	require.NoError(t, store.Release(ctx, key))

	held, err = store.IsProcessed(ctx, key)
	require.NoError(t, err)
	assert.False(t, held)
}

func TestRedisIdempotencyStore_TTL(t *testing.T) {
	store := newRedisStore(t)
	ctx := context.Background()

	_, err := store.MarkProcessed(ctx, "short", time.Second)
	require.NoError(t, err)

	assert.Eventually(t, func() bool {
		held, err := store.IsProcessed(ctx, "short")
		return err == nil && !held
	}, 5*time.Second, 100*time.Millisecond)
}
