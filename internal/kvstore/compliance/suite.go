package compliance

import (
	"context"
	"fmt"
	"sync"
	"testing"

	"github.com/google/uuid"
	"github.com/rezkam/taskdeck/internal/kvstore"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// RunStoreComplianceTest runs a standard set of tests against a kvstore.Store implementation.
// setup is a function that returns a fresh Store instance for the test.
// cleanup is called after the test to clean up resources (if any).
//
// Keys are randomised so the suite can run against shared external services.
func RunStoreComplianceTest(t *testing.T, setup func(t *testing.T) (kvstore.Store, func())) {
	newKey := func() string { return "k-" + uuid.NewString() }

	t.Run("SetAndGet", func(t *testing.T) {
		store, teardown := setup(t)
		defer teardown()
		ctx := context.Background()

		key := newKey()
		require.NoError(t, store.Set(ctx, key, []byte("eyJhbGciOiJIUzI1NiJ9.payload.sig")))

		got, err := store.Get(ctx, key)
		require.NoError(t, err)
		assert.Equal(t, "eyJhbGciOiJIUzI1NiJ9.payload.sig", string(got))
	})

	t.Run("Overwrite", func(t *testing.T) {
		store, teardown := setup(t)
		defer teardown()
		ctx := context.Background()

		key := newKey()
		require.NoError(t, store.Set(ctx, key, []byte("first")))
		require.NoError(t, store.Set(ctx, key, []byte("second")))

		got, err := store.Get(ctx, key)
		require.NoError(t, err)
		assert.Equal(t, "second", string(got))
	})

	t.Run("GetMissing", func(t *testing.T) {
		store, teardown := setup(t)
		defer teardown()

		_, err := store.Get(context.Background(), newKey())
		assert.ErrorIs(t, err, kvstore.ErrNotFound)
	})

	t.Run("RemoveMissingIsNoop", func(t *testing.T) {
		store, teardown := setup(t)
		defer teardown()

		assert.NoError(t, store.Remove(context.Background(), newKey()))
	})

	t.Run("RemoveThenGet", func(t *testing.T) {
		store, teardown := setup(t)
		defer teardown()
		ctx := context.Background()

		key := newKey()
		require.NoError(t, store.Set(ctx, key, []byte("v")))
		require.NoError(t, store.Remove(ctx, key))
		require.NoError(t, store.Remove(ctx, key))

		_, err := store.Get(ctx, key)
		assert.ErrorIs(t, err, kvstore.ErrNotFound)
	})

	t.Run("KeysAreIsolated", func(t *testing.T) {
		store, teardown := setup(t)
		defer teardown()
		ctx := context.Background()

		a, b := newKey(), newKey()
		require.NoError(t, store.Set(ctx, a, []byte("A")))
		require.NoError(t, store.Set(ctx, b, []byte("B")))
		require.NoError(t, store.Remove(ctx, a))

		got, err := store.Get(ctx, b)
		require.NoError(t, err)
		assert.Equal(t, "B", string(got))
	})

	t.Run("BinarySafe", func(t *testing.T) {
		store, teardown := setup(t)
		defer teardown()
		ctx := context.Background()

		key := newKey()
		value := []byte("{\"email\":\"zoë@example.com\"}\n\x00\xff tail")
		require.NoError(t, store.Set(ctx, key, value))

		got, err := store.Get(ctx, key)
		require.NoError(t, err)
		assert.Equal(t, value, got)
	})

	t.Run("EmptyValue", func(t *testing.T) {
		store, teardown := setup(t)
		defer teardown()
		ctx := context.Background()

		key := newKey()
		require.NoError(t, store.Set(ctx, key, nil))

		got, err := store.Get(ctx, key)
		require.NoError(t, err, "an empty value is still present")
		assert.Empty(t, got)
	})

	t.Run("ReturnedValueIsACopy", func(t *testing.T) {
		store, teardown := setup(t)
		defer teardown()
		ctx := context.Background()

		key := newKey()
		value := []byte("original")
		require.NoError(t, store.Set(ctx, key, value))
		value[0] = 'X'

		got, err := store.Get(ctx, key)
		require.NoError(t, err)
		assert.Equal(t, "original", string(got))
	})

	t.Run("InvalidKey", func(t *testing.T) {
		store, teardown := setup(t)
		defer teardown()
		ctx := context.Background()

		assert.ErrorIs(t, store.Set(ctx, "", []byte("v")), kvstore.ErrInvalidKey)
		assert.ErrorIs(t, store.Set(ctx, "../escape", []byte("v")), kvstore.ErrInvalidKey)
		_, err := store.Get(ctx, "a/b")
		assert.ErrorIs(t, err, kvstore.ErrInvalidKey)
	})

	t.Run("ConcurrentWriters", func(t *testing.T) {
		store, teardown := setup(t)
		defer teardown()
		ctx := context.Background()

		key := newKey()
		const writers = 8

		var wg sync.WaitGroup
		errs := make(chan error, writers)
		for i := range writers {
			wg.Add(1)
			go func(n int) {
				defer wg.Done()
				errs <- store.Set(ctx, key, []byte(fmt.Sprintf("writer-%d", n)))
			}(i)
		}
		wg.Wait()
		close(errs)

		for err := range errs {
			require.NoError(t, err)
		}

		got, err := store.Get(ctx, key)
		require.NoError(t, err)
		assert.Regexp(t, `^writer-\d$`, string(got), "last write wins, never a torn value")
	})

	t.Run("JSONHelpers", func(t *testing.T) {
		store, teardown := setup(t)
		defer teardown()
		ctx := context.Background()

		type user struct {
			ID    int    `json:"id"`
			Email string `json:"email"`
		}

		key := newKey()
		require.NoError(t, kvstore.SetJSON(ctx, store, key, user{ID: 9, Email: "x@y.z"}))

		got, err := kvstore.GetJSON[user](ctx, store, key)
		require.NoError(t, err)
		assert.Equal(t, user{ID: 9, Email: "x@y.z"}, got)
	})
}
