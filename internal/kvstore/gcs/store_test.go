package gcs

import (
	"context"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/rezkam/taskdeck/internal/config"
	"github.com/rezkam/taskdeck/internal/kvstore"
	"github.com/rezkam/taskdeck/internal/kvstore/compliance"
	"github.com/stretchr/testify/require"
)

func TestGCSStore_Compliance(t *testing.T) {
	cfg, err := config.LoadTestConfig()
	require.NoError(t, err)
	if cfg.GCSBucket == "" {
		t.Skip("TASKDECK_TEST_GCS_BUCKET not set, skipping GCS tests")
	}

	compliance.RunStoreComplianceTest(t, func(t *testing.T) (kvstore.Store, func()) {
		// Note: without TASKDECK_TEST_GCS_ENDPOINT this assumes Application
		// Default Credentials with access to the bucket.
		prefix := "taskdeck-test/" + uuid.NewString() + "/"
		store, err := NewStore(context.Background(), cfg.GCSBucket, prefix, cfg.GCSEndpoint)
		require.NoError(t, err)

		// Deletes every object under the per-test prefix.
		cleanup := func() {
			cleanupCtx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
			defer cancel()

			keys, err := store.Keys(cleanupCtx)
			if err != nil {
				t.Logf("Warning: failed to list objects during cleanup: %v", err)
			}
			for _, key := range keys {
				if err := store.Remove(cleanupCtx, key); err != nil {
					t.Logf("Warning: failed to delete object %s: %v", key, err)
				}
			}
			store.Close()
		}

		return store, cleanup
	})
}
