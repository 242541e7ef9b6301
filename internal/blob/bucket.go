package blob

import (
	"context"

	"github.com/aws/aws-sdk-go/aws"
	"github.com/aws/aws-sdk-go/service/s3"
)

// BucketRecord is the canonical response for bucket lifecycle operations,
// supplementing  "blob bucket
// create|delete|enable-versioning".
type BucketRecord struct {
	Bucket            string `json:"bucket"`
	VersioningEnabled bool   `json:"versioningEnabled,omitempty"`
}

func (r BucketRecord) PrimaryScalar() interface{} { return r.Bucket }

func (t *Transfer) CreateBucket(ctx context.Context, bucket, region string) (*BucketRecord, error) {
	in := &s3.CreateBucketInput{Bucket: aws.String(bucket)}
	if region != "" && region != "us-east-1" {
		in.CreateBucketConfiguration = &s3.CreateBucketConfiguration{LocationConstraint: aws.String(region)}
	}
	if _, err := t.svc.CreateBucketWithContext(ctx, in); err != nil {
		return nil, classify("CreateBucket", err)
	}
	return &BucketRecord{Bucket: bucket}, nil
}

func (t *Transfer) DeleteBucket(ctx context.Context, bucket string) error {
	_, err := t.svc.DeleteBucketWithContext(ctx, &s3.DeleteBucketInput{Bucket: aws.String(bucket)})
	return classify("DeleteBucket", err)
}

// EnableVersioning turns on object versioning so list-versions has more
// than one version to enumerate.
func (t *Transfer) EnableVersioning(ctx context.Context, bucket string) (*BucketRecord, error) {
	_, err := t.svc.PutBucketVersioningWithContext(ctx, &s3.PutBucketVersioningInput{
		Bucket:                  aws.String(bucket),
		VersioningConfiguration: &s3.VersioningConfiguration{Status: aws.String(s3.BucketVersioningStatusEnabled)},
	})
	if err != nil {
		return nil, classify("PutBucketVersioning", err)
	}
	return &BucketRecord{Bucket: bucket, VersioningEnabled: true}, nil
}
