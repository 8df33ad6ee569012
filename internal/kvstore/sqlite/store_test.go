package sqlite

import (
	"context"
	"path/filepath"
	"testing"

	"github.com/rezkam/taskdeck/internal/kvstore"
	"github.com/rezkam/taskdeck/internal/kvstore/compliance"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSQLiteStore_Compliance(t *testing.T) {
	compliance.RunStoreComplianceTest(t, func(t *testing.T) (kvstore.Store, func()) {
		store, err := NewStore(context.Background(), filepath.Join(t.TempDir(), "kv.db"))
		require.NoError(t, err)

		return store, func() {
			assert.NoError(t, store.Close())
		}
	})
}

func TestSQLiteStore_ReopenKeepsDataAndSkipsAppliedMigrations(t *testing.T) {
	ctx := context.Background()
	path := filepath.Join(t.TempDir(), "nested", "kv.db")

	store, err := NewStore(ctx, path)
	require.NoError(t, err)
	require.NoError(t, store.Set(ctx, "user", []byte(`{"id":1}`)))
	require.NoError(t, store.Close())

	reopened, err := NewStore(ctx, path)
	require.NoError(t, err)
	defer reopened.Close()

	got, err := reopened.Get(ctx, "user")
	require.NoError(t, err)
	assert.JSONEq(t, `{"id":1}`, string(got))
}
