package blob_test

import (
	"context"
	"testing"

	"github.com/dnvriend/aws-primitives-tool/internal/blob"
	"github.com/dnvriend/aws-primitives-tool/internal/blobtest"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestBucketLifecycle(t *testing.T) {
	fake := blobtest.New()
	tr := blob.NewTransferWithClient(fake, 2)
	ctx := context.Background()

	rec, err := tr.CreateBucket(ctx, "my-bucket", "")
	require.NoError(t, err)
	assert.Equal(t, "my-bucket", rec.Bucket)

	v, err := tr.EnableVersioning(ctx, "my-bucket")
	require.NoError(t, err)
	assert.True(t, v.VersioningEnabled)

	require.NoError(t, tr.DeleteBucket(ctx, "my-bucket"))
}
