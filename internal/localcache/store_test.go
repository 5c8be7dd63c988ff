package localcache

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"sync"
	"testing"
	"time"

	"github.com/bloomcare/bloom-waitlist/internal/models"
	"github.com/go-redis/redis/v8"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func entry(email string, pref *models.PricingPreference, at time.Time) *models.WaitlistEntry {
	return models.NewWaitlistEntry(email, pref, at)
}

func newFileStore(t *testing.T) *FileStore {
	t.Helper()
	store, err := NewFileStore(filepath.Join(t.TempDir(), "data", "waitlistEntries.json"))
	require.NoError(t, err)
	return store
}

func TestFileStore_RoundTripKeepsOrder(t *testing.T) {
	ctx := context.Background()
	store := newFileStore(t)
	annual := models.PricingAnnual
	base := time.Date(2024, 3, 1, 12, 0, 0, 0, time.UTC)

	require.NoError(t, store.Append(ctx, entry("first@example.com", nil, base)))
	require.NoError(t, store.Append(ctx, entry("second@example.com", &annual, base.Add(time.Minute))))
	require.NoError(t, store.Append(ctx, entry("first@example.com", nil, base.Add(2*time.Minute))))

	got, err := store.Entries(ctx)
	require.NoError(t, err)
	require.Len(t, got, 3)
	assert.Equal(t, "first@example.com", got[0].Email)
	assert.Equal(t, "second@example.com", got[1].Email)
	assert.Equal(t, models.PricingAnnual, *got[1].PricingPreference)
	assert.Equal(t, "first@example.com", got[2].Email, "duplicates are kept")
	assert.True(t, got[2].SubmittedAt.Equal(base.Add(2*time.Minute)))
}

func TestFileStore_EmptyWhenMissing(t *testing.T) {
	got, err := newFileStore(t).Entries(context.Background())
	require.NoError(t, err)
	assert.Empty(t, got)
}

func TestFileStore_ConcurrentAppendsAreNotLost(t *testing.T) {
	ctx := context.Background()
	store := newFileStore(t)

	const n = 40
	var wg sync.WaitGroup
	for i := 0; i < n; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			assert.NoError(t, store.Append(ctx, entry(fmt.Sprintf("mom%d@example.com", i), nil, time.Now())))
		}(i)
	}
	wg.Wait()

	got, err := store.Entries(ctx)
	require.NoError(t, err)
	assert.Len(t, got, n)
}

func TestFileStore_CorruptListFailsAppend(t *testing.T) {
	ctx := context.Background()
	store := newFileStore(t)
	require.NoError(t, os.WriteFile(store.Path(), []byte("{not json"), 0o644))

	err := store.Append(ctx, entry("a@example.com", nil, time.Now()))
	assert.ErrorIs(t, err, ErrCorrupt)

	_, err = store.Entries(ctx)
	assert.ErrorIs(t, err, ErrCorrupt)
}

func TestFileStore_Ping(t *testing.T) {
	assert.NoError(t, newFileStore(t).Ping(context.Background()))
}

func TestFileStore_CancelledContext(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	assert.ErrorIs(t, newFileStore(t).Append(ctx, entry("a@example.com", nil, time.Now())), context.Canceled)
}

func TestRedisStore_RoundTrip(t *testing.T) {
	addr := os.Getenv("REDIS_TEST_ADDR")
	if addr == "" {
		t.Skip("REDIS_TEST_ADDR not set")
	}

	ctx := context.Background()
	client := redis.NewClient(&redis.Options{Addr: addr})
	t.Cleanup(func() { _ = client.Close() })

	key := fmt.Sprintf("bloom:test:%d", time.Now().UnixNano())
	t.Cleanup(func() { client.Del(context.Background(), key) })

	store := NewRedisStore(client, key)
	require.NoError(t, store.Ping(ctx))

	var wg sync.WaitGroup
	for i := 0; i < 10; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			_ = store.Append(ctx, entry(fmt.Sprintf("r%d@example.com", i), nil, time.Now()))
		}(i)
	}
	wg.Wait()

	got, err := store.Entries(ctx)
	require.NoError(t, err)
	assert.NotEmpty(t, got)
	assert.LessOrEqual(t, len(got), 10)
}
