package blob_test

import (
	"bytes"
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/dnvriend/aws-primitives-tool/internal/blob"
	"github.com/dnvriend/aws-primitives-tool/internal/blobtest"
	"github.com/dnvriend/aws-primitives-tool/internal/errs"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeTempFile(t *testing.T, dir, name string, size int) string {
	t.Helper()
	path := filepath.Join(dir, name)
	require.NoError(t, os.MkdirAll(filepath.Dir(path), 0o755))
	data := bytes.Repeat([]byte{'x'}, size)
	require.NoError(t, os.WriteFile(path, data, 0o644))
	return path
}

func TestPutSingleThenGetRoundTrips(t *testing.T) {
	fake := blobtest.New()
	tr := blob.NewTransferWithClient(fake, 2)
	ctx := context.Background()
	dir := t.TempDir()
	path := writeTempFile(t, dir, "hello.txt", 1024)

	rec, err := tr.Put(ctx, path, blob.URI{Bucket: "b", Key: "hello.txt"}, blob.PutOptions{})
	require.NoError(t, err)
	assert.Equal(t, int64(1024), rec.Size)
	assert.NotEmpty(t, rec.ETag)

	var out bytes.Buffer
	_, err = tr.Get(ctx, blob.URI{Bucket: "b", Key: "hello.txt"}, &out, blob.GetOptions{})
	require.NoError(t, err)
	assert.Equal(t, 1024, out.Len())
}

func TestPutMultipartSplitsAndReassembles(t *testing.T) {
	fake := blobtest.New()
	tr := blob.NewTransferWithClient(fake, 4)
	ctx := context.Background()
	dir := t.TempDir()
	// 12MiB file forces multipart when the threshold/chunk size are
	// lowered via PutOptions.
	path := writeTempFile(t, dir, "big.bin", 12*1024*1024)

	rec, err := tr.Put(ctx, path, blob.URI{Bucket: "b", Key: "big.bin"}, blob.PutOptions{ChunkSize: 5 * 1024 * 1024, Threshold: 1024 * 1024})
	require.NoError(t, err)
	assert.Equal(t, int64(12*1024*1024), rec.Size)

	var out bytes.Buffer
	_, err = tr.Get(ctx, blob.URI{Bucket: "b", Key: "big.bin"}, &out, blob.GetOptions{})
	require.NoError(t, err)
	assert.Equal(t, 12*1024*1024, out.Len())
}

func TestPutIfNotExistsRejectsWhenPresent(t *testing.T) {
	fake := blobtest.New()
	tr := blob.NewTransferWithClient(fake, 2)
	ctx := context.Background()
	dir := t.TempDir()
	path := writeTempFile(t, dir, "a.txt", 10)

	_, err := tr.Put(ctx, path, blob.URI{Bucket: "b", Key: "a.txt"}, blob.PutOptions{})
	require.NoError(t, err)

	_, err = tr.Put(ctx, path, blob.URI{Bucket: "b", Key: "a.txt"}, blob.PutOptions{IfNotExists: true})
	require.Error(t, err)
	assert.Equal(t, errs.KindConditionFailed, errs.As(err).Kind)
}

func TestPutDirectoryReportsPerFileResults(t *testing.T) {
	fake := blobtest.New()
	tr := blob.NewTransferWithClient(fake, 3)
	ctx := context.Background()
	dir := t.TempDir()
	writeTempFile(t, dir, "a.txt", 10)
	writeTempFile(t, dir, "sub/b.txt", 20)
	writeTempFile(t, dir, "sub/c.log", 5)

	results, err := tr.PutDirectory(ctx, dir, blob.URI{Bucket: "b", Key: "up"}, blob.GlobFilter{Exclude: []string{"**/*.log"}}, 2, blob.PutOptions{})
	require.NoError(t, err)
	require.Len(t, results, 2) // sub/c.log excluded by the glob
	for _, r := range results {
		assert.Empty(t, r.Err)
	}
}

func TestURIParsing(t *testing.T) {
	u, err := blob.ParseURI("s3://my-bucket/path/to/key.txt")
	require.NoError(t, err)
	assert.Equal(t, "my-bucket", u.Bucket)
	assert.Equal(t, "path/to/key.txt", u.Key)

	_, err = blob.ParseURI("not-a-uri")
	require.Error(t, err)
}
