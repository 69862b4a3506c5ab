package cache

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMemoryStore_SetGet(t *testing.T) {
	t.Parallel()

	ctx := context.Background()
	store := NewMemoryStore()

	_, err := store.Get(ctx, "missing")
	assert.ErrorIs(t, err, ErrMiss)

	require.NoError(t, store.Set(ctx, "k", []byte("v"), time.Minute))
	data, err := store.Get(ctx, "k")
	require.NoError(t, err)
	assert.Equal(t, []byte("v"), data)

	require.NoError(t, store.Delete(ctx, "k"))
	_, err = store.Get(ctx, "k")
	assert.ErrorIs(t, err, ErrMiss)
}

func TestMemoryStore_TTLExpiry(t *testing.T) {
	t.Parallel()

	ctx := context.Background()
	store := NewMemoryStore()

	base := time.Now()
	store.now = func() time.Time { return base }

	require.NoError(t, store.Set(ctx, "short", []byte("v"), 5*time.Minute))
	require.NoError(t, store.Set(ctx, "forever", []byte("v"), 0))

	// Just before expiry
	store.now = func() time.Time { return base.Add(5*time.Minute - time.Second) }
	_, err := store.Get(ctx, "short")
	assert.NoError(t, err)

	// Past expiry
	store.now = func() time.Time { return base.Add(6 * time.Minute) }
	_, err = store.Get(ctx, "short")
	assert.ErrorIs(t, err, ErrMiss)

	// Zero TTL never expires
	store.now = func() time.Time { return base.Add(24 * time.Hour) }
	_, err = store.Get(ctx, "forever")
	assert.NoError(t, err)
}

func TestMemoryStore_Increment(t *testing.T) {
	t.Parallel()

	ctx := context.Background()
	store := NewMemoryStore()

	n, err := store.Increment(ctx, "counter")
	require.NoError(t, err)
	assert.Equal(t, int64(1), n)

	n, err = store.Increment(ctx, "counter")
	require.NoError(t, err)
	assert.Equal(t, int64(2), n)

	data, err := store.Get(ctx, "counter")
	require.NoError(t, err)
	assert.Equal(t, []byte("2"), data)
}

func TestScope_KeyDeterminism(t *testing.T) {
	t.Parallel()

	ctx := context.Background()
	scope := NewScope(NewMemoryStore(), "things:list", time.Minute)

	type params struct {
		Page   int    `json:"page"`
		Search string `json:"search"`
	}

	a := scope.Key(ctx, params{Page: 1, Search: "abc"})
	b := scope.Key(ctx, params{Page: 1, Search: "abc"})
	c := scope.Key(ctx, params{Page: 2, Search: "abc"})

	assert.Equal(t, a, b)
	assert.NotEqual(t, a, c)
}

func TestScope_GetSetRoundTrip(t *testing.T) {
	t.Parallel()

	ctx := context.Background()
	scope := NewScope(NewMemoryStore(), "things:list", time.Minute)

	type page struct {
		IDs []int `json:"ids"`
	}

	key := scope.Key(ctx, map[string]int{"page": 1})

	var out page
	assert.False(t, scope.Get(ctx, key, &out))

	scope.Set(ctx, key, page{IDs: []int{1, 2, 3}})
	require.True(t, scope.Get(ctx, key, &out))
	assert.Equal(t, []int{1, 2, 3}, out.IDs)
}

func TestScope_FlushInvalidatesAllKeys(t *testing.T) {
	t.Parallel()

	ctx := context.Background()
	scope := NewScope(NewMemoryStore(), "things:list", time.Minute)

	key := scope.Key(ctx, map[string]int{"page": 1})
	scope.Set(ctx, key, "cached")

	scope.Flush(ctx)

	// The same parameters now map to a different key
	fresh := scope.Key(ctx, map[string]int{"page": 1})
	assert.NotEqual(t, key, fresh)

	var out string
	assert.False(t, scope.Get(ctx, fresh, &out))
}

func TestScope_IsolatedByName(t *testing.T) {
	t.Parallel()

	ctx := context.Background()
	store := NewMemoryStore()
	a := NewScope(store, "scope-a", time.Minute)
	b := NewScope(store, "scope-b", time.Minute)

	keyA := a.Key(ctx, map[string]int{"page": 1})
	a.Set(ctx, keyA, "value-a")

	// Flushing one scope leaves the other untouched
	b.Flush(ctx)

	var out string
	require.True(t, a.Get(ctx, a.Key(ctx, map[string]int{"page": 1}), &out))
	assert.Equal(t, "value-a", out)
}
