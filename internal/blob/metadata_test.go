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

func TestHeadReturnsMetadata(t *testing.T) {
	fake := blobtest.New()
	tr := blob.NewTransferWithClient(fake, 2)
	ctx := context.Background()
	dir := t.TempDir()
	path := filepath.Join(dir, "f.txt")
	require.NoError(t, os.WriteFile(path, []byte("hello"), 0o644))

	_, err := tr.Put(ctx, path, blob.URI{Bucket: "b", Key: "f.txt"}, blob.PutOptions{})
	require.NoError(t, err)

	head, err := tr.Head(ctx, blob.URI{Bucket: "b", Key: "f.txt"}, "")
	require.NoError(t, err)
	assert.Equal(t, int64(5), head.Size)
	assert.NotEmpty(t, head.ETag)
}

func TestTagAndUntagRoundTrip(t *testing.T) {
	fake := blobtest.New()
	tr := blob.NewTransferWithClient(fake, 2)
	ctx := context.Background()
	dir := t.TempDir()
	path := filepath.Join(dir, "f.txt")
	require.NoError(t, os.WriteFile(path, []byte("hi"), 0o644))
	_, err := tr.Put(ctx, path, blob.URI{Bucket: "b", Key: "f.txt"}, blob.PutOptions{})
	require.NoError(t, err)

	require.NoError(t, tr.Tag(ctx, blob.URI{Bucket: "b", Key: "f.txt"}, map[string]string{"env": "test"}))
	require.NoError(t, tr.Untag(ctx, blob.URI{Bucket: "b", Key: "f.txt"}))
}
