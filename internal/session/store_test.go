package session

import (
	"context"
	"testing"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/testcontainers/testcontainers-go"
	testRedis "github.com/testcontainers/testcontainers-go/modules/redis"
)

func setupRedis(t *testing.T, c context.Context) (*redis.Client, func()) {
	t.Helper()

	redisContainer, err := testRedis.Run(
		c,
		"redis:7.4.2-alpine3.21",
		testRedis.WithLogLevel(testRedis.LogLevelVerbose),
	)
	if err != nil {
		t.Fatalf("failed running redis container with error: %s", err)
	}

	redisConnStr, err := redisContainer.ConnectionString(c)
	if err != nil {
		t.Fatalf("failed getting redis connection string with error: %s", err)
	}

	redisOpt, err := redis.ParseURL(redisConnStr)
	if err != nil {
		t.Fatalf("failed parsing redis connection string with error: %s", err)
	}

	client := redis.NewClient(redisOpt)
	if err = client.Ping(c).Err(); err != nil {
		t.Fatalf("failed ping redis client with error: %s", err)
	}

	cleanup := func() {
		client.Close()
		if err := testcontainers.TerminateContainer(redisContainer); err != nil {
			t.Fatalf("failed to terminate container: %s", err)
		}
	}
	return client, cleanup
}

func TestRedisStoreRoundTrip(t *testing.T) {
	if testing.Short() {
		t.Skip("skipping container test in short mode")
	}
	c := context.Background()
	client, cleanup := setupRedis(t, c)
	defer cleanup()

	store := NewRedisStore(client)

	t.Run("missing token is reported as not found", func(t *testing.T) {
		_, found, err := store.Find("never-committed")
		require.NoError(t, err)
		assert.False(t, found)
	})

	t.Run("committed session is found until deleted", func(t *testing.T) {
		payload := []byte("session-payload")
		require.NoError(t, store.Commit("tok-1", payload, time.Now().Add(time.Hour)))

		b, found, err := store.Find("tok-1")
		require.NoError(t, err)
		require.True(t, found)
		assert.Equal(t, payload, b)

		require.NoError(t, store.Delete("tok-1"))
		_, found, err = store.Find("tok-1")
		require.NoError(t, err)
		assert.False(t, found)
	})

	t.Run("expired session disappears", func(t *testing.T) {
		require.NoError(t, store.Commit("tok-2", []byte("stale"), time.Now().Add(time.Second)))
		time.Sleep(1500 * time.Millisecond)

		_, found, err := store.Find("tok-2")
		require.NoError(t, err)
		assert.False(t, found)
	})
}
