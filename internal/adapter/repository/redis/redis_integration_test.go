//go:build integration

package redis

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/testcontainers/testcontainers-go"
	"github.com/testcontainers/testcontainers-go/wait"

	"github.com/indicina/url-shortener/internal/entity"
)

func setupRedis(t testing.TB) *redis.Client {
	t.Helper()

	ctx := context.Background()

	redisCont, err := testcontainers.GenericContainer(ctx, testcontainers.GenericContainerRequest{
		ContainerRequest: testcontainers.ContainerRequest{
			Image:        "redis:7-alpine",
			ExposedPorts: []string{"6379/tcp"},
			WaitingFor:   wait.ForLog("Ready to accept connections"),
		},
		Started: true,
	})
	if err != nil {
		t.Fatalf("Failed to start redis container: %v", err)
	}
	t.Cleanup(func() {
		if err := redisCont.Terminate(ctx); err != nil {
			t.Fatalf("Failed to terminate redis container: %v", err)
		}
	})

	endpoint, err := redisCont.Endpoint(ctx, "")
	if err != nil {
		t.Fatalf("Failed to get container endpoint: %v", err)
	}

	client := redis.NewClient(&redis.Options{Addr: endpoint})
	t.Cleanup(func() {
		client.Close()
	})

	return client
}

func TestURLRepositoryIntegration(t *testing.T) {
	repo := NewURLRepository(setupRedis(t))
	ctx := context.Background()

	require.NoError(t, repo.Ping(ctx))

	url := &entity.URL{
		ID:          uuid.New(),
		ShortCode:   "abc123",
		OriginalURL: "https://indicina.co",
		Status:      entity.StatusActive,
		CreatedAt:   time.Now().UTC(),
	}

	require.NoError(t, repo.Create(ctx, url))
	assert.ErrorIs(t, repo.Create(ctx, url), entity.ErrShortCodeExists)

	ok, err := repo.Has(ctx, "abc123")
	require.NoError(t, err)
	assert.True(t, ok)

	_, err = repo.IncrementVisits(ctx, "zzz999")
	assert.ErrorIs(t, err, entity.ErrURLNotFound)

	ok, err = repo.Has(ctx, "zzz999")
	require.NoError(t, err)
	assert.False(t, ok)

	var wg sync.WaitGroup
	for range 50 {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_, err := repo.IncrementVisits(ctx, "abc123")
			assert.NoError(t, err)
		}()
	}
	wg.Wait()

	require.NoError(t, repo.IncrementSearches(ctx, "abc123", "zzz999"))

	got, err := repo.SetStatus(ctx, "abc123", entity.StatusInactive)
	require.NoError(t, err)
	assert.Equal(t, url.ID, got.ID)
	assert.Equal(t, int64(50), got.VisitCount)
	assert.Equal(t, int64(1), got.SearchCount)
	assert.Equal(t, entity.StatusInactive, got.Status)
	assert.True(t, url.CreatedAt.Equal(got.CreatedAt))

	url.ShortCode = "def456"
	require.NoError(t, repo.Save(ctx, url))

	urls, err := repo.Values(ctx)
	require.NoError(t, err)
	assert.Len(t, urls, 2)

	require.NoError(t, repo.Clear(ctx))

	_, err = repo.Get(ctx, "abc123")
	assert.ErrorIs(t, err, entity.ErrURLNotFound)
}
