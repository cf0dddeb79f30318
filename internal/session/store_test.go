package session

import (
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/reservasegura/monitor/internal/model"
)

func testBundle(airline, email string, expiresAt time.Time) *model.SessionBundle {
	return &model.SessionBundle{
		Airline:      airline,
		AccountEmail: email,
		Cookies:      []byte(`[{"name":"session","value":"abc"}]`),
		UserAgent:    "test-agent",
		ExpiresAt:    expiresAt,
	}
}

func TestStorePutGet(t *testing.T) {
	now := time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC)
	store := NewStore()
	store.now = func() time.Time { return now }

	store.Put(testBundle("GOL", "user@example.com", now.Add(24*time.Hour)))

	got, ok := store.Get("GOL", "user@example.com")
	require.True(t, ok)
	require.Equal(t, "GOL", got.Airline)
}

func TestStoreKeyNormalization(t *testing.T) {
	now := time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC)
	store := NewStore()
	store.now = func() time.Time { return now }

	store.Put(testBundle("gol", "User@Example.com", now.Add(time.Hour)))

	_, ok := store.Get("GOL", "user@example.com")
	require.True(t, ok)
}

func TestStoreMiss(t *testing.T) {
	store := NewStore()
	_, ok := store.Get("GOL", "nobody@example.com")
	require.False(t, ok)
}

func TestStoreExpiredBundleEvicted(t *testing.T) {
	now := time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC)
	store := NewStore()
	store.now = func() time.Time { return now }

	store.Put(testBundle("GOL", "user@example.com", now.Add(24*time.Hour)))

	// Jump past the expiry.
	now = now.Add(25 * time.Hour)
	_, ok := store.Get("GOL", "user@example.com")
	require.False(t, ok)

	// Rewinding the clock does not resurrect it: the read evicted it.
	now = now.Add(-25 * time.Hour)
	_, ok = store.Get("GOL", "user@example.com")
	require.False(t, ok)
}

func TestStorePutOverwrites(t *testing.T) {
	now := time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC)
	store := NewStore()
	store.now = func() time.Time { return now }

	store.Put(testBundle("GOL", "user@example.com", now.Add(time.Hour)))

	fresh := testBundle("GOL", "user@example.com", now.Add(48*time.Hour))
	fresh.UserAgent = "fresh-agent"
	store.Put(fresh)

	got, ok := store.Get("GOL", "user@example.com")
	require.True(t, ok)
	require.Equal(t, "fresh-agent", got.UserAgent)
}

func TestStoreInvalidate(t *testing.T) {
	now := time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC)
	store := NewStore()
	store.now = func() time.Time { return now }

	store.Put(testBundle("GOL", "user@example.com", now.Add(time.Hour)))
	store.Invalidate("GOL", "user@example.com")

	_, ok := store.Get("GOL", "user@example.com")
	require.False(t, ok)
}
