package session

import (
	"context"
	"os"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// exerciseStore runs the behaviour every Store must share
func exerciseStore(t *testing.T, store Store, chatID int64) {
	t.Helper()
	ctx := context.Background()

	got, err := store.Get(ctx, chatID)
	require.NoError(t, err)
	assert.Nil(t, got)

	s := &State{Step: "topic"}
	s.Put("doc_type", "referat")
	require.NoError(t, store.Set(ctx, chatID, s))

	// later mutations of the caller's copy are not visible
	s.Put("doc_type", "taqdimot")

	got, err = store.Get(ctx, chatID)
	require.NoError(t, err)
	require.NotNil(t, got)
	assert.Equal(t, "topic", got.Step)
	assert.Equal(t, "referat", got.Get("doc_type"))
	assert.Equal(t, "", got.Get("missing"))

	require.NoError(t, store.Clear(ctx, chatID))
	got, err = store.Get(ctx, chatID)
	require.NoError(t, err)
	assert.Nil(t, got)
}

func TestMemoryStore(t *testing.T) {
	exerciseStore(t, NewMemoryStore(0), 42)
}

func TestMemoryStore_Expiry(t *testing.T) {
	store := NewMemoryStore(time.Minute)
	now := time.Date(2025, 1, 1, 12, 0, 0, 0, time.UTC)
	store.now = func() time.Time { return now }

	require.NoError(t, store.Set(context.Background(), 1, &State{Step: "student"}))

	now = now.Add(59 * time.Second)
	got, err := store.Get(context.Background(), 1)
	require.NoError(t, err)
	assert.NotNil(t, got)

	now = now.Add(2 * time.Second)
	got, err = store.Get(context.Background(), 1)
	require.NoError(t, err)
	assert.Nil(t, got)
}

func TestState_NilSafe(t *testing.T) {
	var s *State
	assert.Equal(t, "", s.Get("x"))
}

func TestKey(t *testing.T) {
	assert.Equal(t, "referat:session:123", key(123))
}

func TestRedisStore(t *testing.T) {
	url := os.Getenv("TEST_REDIS_URL")
	if url == "" {
		t.Skip("TEST_REDIS_URL not set, skipping redis test")
	}

	store, err := NewRedisStore(context.Background(), url, time.Minute)
	require.NoError(t, err)
	defer store.Close()

	exerciseStore(t, store, 900000042)
}

func TestNewRedisStore_BadURL(t *testing.T) {
	_, err := NewRedisStore(context.Background(), "not a url", 0)
	assert.Error(t, err)
}
