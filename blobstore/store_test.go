package blobstore

import (
	"context"
	"io"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLocalStore_Lifecycle(t *testing.T) {
	tmpDir := t.TempDir()
	store := NewLocalStore(tmpDir)
	ctx := context.Background()

	data := []byte("0,0\n0,1\n10,10\n")
	require.NoError(t, store.Put(ctx, "nested/points.csv", data))

	_, err := os.Stat(filepath.Join(tmpDir, "nested", "points.csv"))
	require.NoError(t, err)

	blob, err := store.Open(ctx, "nested/points.csv")
	require.NoError(t, err)
	defer blob.Close()

	require.Equal(t, int64(len(data)), blob.Size())

	buf := make([]byte, 3)
	n, err := blob.ReadAt(ctx, buf, 4)
	require.NoError(t, err)
	assert.Equal(t, "0,1", string(buf[:n]))

	all, err := ReadAll(ctx, blob)
	require.NoError(t, err)
	assert.Equal(t, data, all)

	r, err := NewReader(ctx, blob)
	require.NoError(t, err)
	streamed, err := io.ReadAll(r)
	require.NoError(t, err)
	require.NoError(t, r.Close())
	assert.Equal(t, data, streamed)
}

func TestLocalStore_AbsolutePath(t *testing.T) {
	tmpDir := t.TempDir()
	path := filepath.Join(tmpDir, "abs.csv")
	require.NoError(t, os.WriteFile(path, []byte("1,2\n"), 0o600))

	blob, err := NewLocalStore("/does/not/matter").Open(context.Background(), path)
	require.NoError(t, err)
	defer blob.Close()
	assert.Equal(t, int64(4), blob.Size())
}

func TestLocalStore_NotFound(t *testing.T) {
	_, err := NewLocalStore(t.TempDir()).Open(context.Background(), "missing.csv")
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestMemoryStore(t *testing.T) {
	ctx := context.Background()
	store := NewMemoryStore()

	_, err := store.Open(ctx, "a")
	assert.ErrorIs(t, err, ErrNotFound)

	src := []byte("hello world")
	require.NoError(t, store.Put(ctx, "reports/a", src))
	src[0] = 'X'

	blob, err := store.Open(ctx, "reports/a")
	require.NoError(t, err)

	r, err := NewReader(ctx, blob)
	require.NoError(t, err)
	got, err := io.ReadAll(r)
	require.NoError(t, err)
	assert.Equal(t, "hello world", string(got))

	data, ok := store.Get("reports/a")
	require.True(t, ok)
	assert.Equal(t, "hello world", string(data))
	assert.Equal(t, []string{"reports/a"}, store.List("reports/"))
}

func TestNewReader_EmptyBlob(t *testing.T) {
	ctx := context.Background()
	store := NewMemoryStore()
	require.NoError(t, store.Put(ctx, "empty", nil))

	blob, err := store.Open(ctx, "empty")
	require.NoError(t, err)

	r, err := NewReader(ctx, blob)
	require.NoError(t, err)
	got, err := io.ReadAll(r)
	require.NoError(t, err)
	assert.Empty(t, got)
}
