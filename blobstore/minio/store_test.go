package minio

import (
	"context"
	"fmt"
	"io"
	"os"
	"testing"
	"time"

	"github.com/hupe1980/distkmeans/blobstore"
	"github.com/minio/minio-go/v7"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestStore_Key(t *testing.T) {
	s := NewStore(nil, "bucket", "datasets/")
	assert.Equal(t, "datasets/points.csv", s.key("points.csv"))
	assert.Equal(t, "points.csv", NewStore(nil, "bucket", "").key("points.csv"))
}

// TestStore_Integration requires a running MinIO instance at MINIO_ENDPOINT.
func TestStore_Integration(t *testing.T) {
	endpoint := os.Getenv("MINIO_ENDPOINT")
	if endpoint == "" {
		t.Skip("Skipping MinIO integration test: MINIO_ENDPOINT not set")
	}

	bucket := "test-distkmeans"
	store, err := New(endpoint, "minioadmin", "minioadmin", false, bucket, fmt.Sprintf("run-%d/", time.Now().UnixNano()))
	require.NoError(t, err)

	ctx := context.Background()
	exists, err := store.client.BucketExists(ctx, bucket)
	require.NoError(t, err)
	if !exists {
		require.NoError(t, store.client.MakeBucket(ctx, bucket, minio.MakeBucketOptions{}))
	}

	data := []byte("0,0\n0,1\n10,10\n")
	require.NoError(t, store.Put(ctx, "points.csv", data))

	blob, err := store.Open(ctx, "points.csv")
	require.NoError(t, err)
	defer blob.Close()
	require.Equal(t, int64(len(data)), blob.Size())

	r, err := blobstore.NewReader(ctx, blob)
	require.NoError(t, err)
	got, err := io.ReadAll(r)
	require.NoError(t, err)
	require.NoError(t, r.Close())
	assert.Equal(t, data, got)

	_, err = store.Open(ctx, "missing.csv")
	assert.ErrorIs(t, err, blobstore.ErrNotFound)
}
