package blob_test

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/dnvriend/aws-primitives-tool/internal/blob"
	"github.com/dnvriend/aws-primitives-tool/internal/blobtest"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSyncUpOnlyUploadsChangedFiles(t *testing.T) {
	fake := blobtest.New()
	tr := blob.NewTransferWithClient(fake, 2)
	ctx := context.Background()
	dir := t.TempDir()
	writeTempFile(t, dir, "a.txt", 10)
	writeTempFile(t, dir, "b.txt", 20)

	dst := blob.URI{Bucket: "b", Key: "mirror"}
	_, err := tr.SyncUp(ctx, dir, dst, blob.SyncOptions{})
	require.NoError(t, err)

	// unchanged re-sync should be a no-op
	results, err := tr.SyncUp(ctx, dir, dst, blob.SyncOptions{})
	require.NoError(t, err)
	assert.Empty(t, results)

	// modify one file, expect exactly one upload
	require.NoError(t, os.WriteFile(filepath.Join(dir, "a.txt"), []byte("changed-content-now"), 0o644))
	results, err = tr.SyncUp(ctx, dir, dst, blob.SyncOptions{})
	require.NoError(t, err)
	require.Len(t, results, 1)
	assert.Equal(t, "a.txt", results[0].RelPath)
}

func TestSyncUpWithDeleteRemovesOrphanedDestKeys(t *testing.T) {
	fake := blobtest.New()
	tr := blob.NewTransferWithClient(fake, 2)
	ctx := context.Background()
	dir := t.TempDir()
	writeTempFile(t, dir, "a.txt", 10)

	dst := blob.URI{Bucket: "b", Key: "mirror"}
	_, err := tr.SyncUp(ctx, dir, dst, blob.SyncOptions{})
	require.NoError(t, err)

	require.NoError(t, os.Remove(filepath.Join(dir, "a.txt")))
	writeTempFile(t, dir, "c.txt", 5)

	results, err := tr.SyncUp(ctx, dir, dst, blob.SyncOptions{Delete: true})
	require.NoError(t, err)

	var sawUpload, sawDelete bool
	for _, r := range results {
		if r.RelPath == "c.txt" {
			sawUpload = true
		}
		if r.RelPath == "a.txt" {
			sawDelete = true
		}
	}
	assert.True(t, sawUpload)
	assert.True(t, sawDelete)
}
