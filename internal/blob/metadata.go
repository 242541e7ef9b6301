package blob

import (
	"context"
	"strings"
	"time"

	"github.com/aws/aws-sdk-go/aws"
	"github.com/aws/aws-sdk-go/aws/request"
	"github.com/aws/aws-sdk-go/service/s3"
	"github.com/dnvriend/aws-primitives-tool/internal/errs"
)

// Head returns metadata-only information about an object without
// transferring its body.
func (t *Transfer) Head(ctx context.Context, uri URI, versionID string) (*ObjectRecord, error) {
	in := &s3.HeadObjectInput{Bucket: aws.String(uri.Bucket), Key: aws.String(uri.Key)}
	if versionID != "" {
		in.VersionId = aws.String(versionID)
	}
	out, err := t.svc.HeadObjectWithContext(ctx, in)
	if err != nil {
		return nil, classify("HeadObject", err)
	}
	md := make(map[string]string, len(out.Metadata))
	for k, v := range out.Metadata {
		md[k] = aws.StringValue(v)
	}
	return &ObjectRecord{
		URI: uri.String(), Size: aws.Int64Value(out.ContentLength),
		ETag: strings.Trim(aws.StringValue(out.ETag), `"`), VersionID: aws.StringValue(out.VersionId),
		ContentType: aws.StringValue(out.ContentType), StorageClass: aws.StringValue(out.StorageClass),
		LastModified: aws.TimeValue(out.LastModified), Metadata: md,
	}, nil
}

// Tag fully replaces an object's tag set.
func (t *Transfer) Tag(ctx context.Context, uri URI, tags map[string]string) error {
	tagSet := make([]*s3.Tag, 0, len(tags))
	for k, v := range tags {
		tagSet = append(tagSet, &s3.Tag{Key: aws.String(k), Value: aws.String(v)})
	}
	_, err := t.svc.PutObjectTaggingWithContext(ctx, &s3.PutObjectTaggingInput{
		Bucket: aws.String(uri.Bucket), Key: aws.String(uri.Key),
		Tagging: &s3.Tagging{TagSet: tagSet},
	})
	return classify("PutObjectTagging", err)
}

// Untag removes an object's entire tag set.
func (t *Transfer) Untag(ctx context.Context, uri URI) error {
	_, err := t.svc.DeleteObjectTaggingWithContext(ctx, &s3.DeleteObjectTaggingInput{
		Bucket: aws.String(uri.Bucket), Key: aws.String(uri.Key),
	})
	return classify("DeleteObjectTagging", err)
}

// VersionRecord describes one entry in a list-versions response.
type VersionRecord struct {
	VersionID    string    `json:"versionId"`
	IsLatest     bool      `json:"isLatest"`
	Size         int64     `json:"size"`
	ETag         string    `json:"etag"`
	LastModified time.Time `json:"lastModified"`
}

func (r VersionRecord) PrimaryScalar() interface{} { return r.VersionID }

// ListVersions enumerates an object's versions newest-first, marking the
// latest, 
func (t *Transfer) ListVersions(ctx context.Context, uri URI, limit int) ([]VersionRecord, error) {
	in := &s3.ListObjectVersionsInput{Bucket: aws.String(uri.Bucket), Prefix: aws.String(uri.Key)}
	if limit > 0 {
		in.MaxKeys = aws.Int64(int64(limit))
	}
	out, err := t.svc.ListObjectVersionsWithContext(ctx, in)
	if err != nil {
		return nil, classify("ListObjectVersions", err)
	}
	var records []VersionRecord
	for _, v := range out.Versions {
		if aws.StringValue(v.Key) != uri.Key {
			continue
		}
		records = append(records, VersionRecord{
			VersionID: aws.StringValue(v.VersionId), IsLatest: aws.BoolValue(v.IsLatest),
			Size: aws.Int64Value(v.Size), ETag: strings.Trim(aws.StringValue(v.ETag), `"`),
			LastModified: aws.TimeValue(v.LastModified),
		})
		if limit > 0 && len(records) >= limit {
			break
		}
	}
	return records, nil
}

// PresignRecord is the canonical response for a presigned URL request.
type PresignRecord struct {
	URL       string    `json:"url"`
	Method    string    `json:"method"`
	ExpiresAt time.Time `json:"expiresAt"`
}

func (r PresignRecord) PrimaryScalar() interface{} { return r.URL }

// Presign produces a time-limited URL signed with the caller's current
// credentials, ; SDK request signing is local (HMAC over
// the request), so this never needs network access.
func (t *Transfer) Presign(uri URI, method string, expiresIn time.Duration) (*PresignRecord, error) {
	var req *request.Request
	switch strings.ToUpper(method) {
	case "GET":
		req, _ = t.svc.GetObjectRequest(&s3.GetObjectInput{Bucket: aws.String(uri.Bucket), Key: aws.String(uri.Key)})
	case "PUT":
		req, _ = t.svc.PutObjectRequest(&s3.PutObjectInput{Bucket: aws.String(uri.Bucket), Key: aws.String(uri.Key)})
	default:
		return nil, errs.InvalidArgument("unsupported presign method "+method, "use GET or PUT")
	}
	url, err := req.Presign(expiresIn)
	if err != nil {
		return nil, errs.Wrap(errs.KindServiceError, "could not sign request for "+uri.String(), "check the caller's credentials", err)
	}
	return &PresignRecord{URL: url, Method: strings.ToUpper(method), ExpiresAt: time.Now().Add(expiresIn)}, nil
}

// SelectRow is one server-side-filtered record from a select query.
type SelectRow struct {
	Data string `json:"data"`
}

func (r SelectRow) PrimaryScalar() interface{} { return r.Data }

// Select runs server-side content selection and streams results record by
// record via yield, select(uri, query, inputFormat,
// outputFormat).
func (t *Transfer) Select(ctx context.Context, uri URI, query, inputFormat, outputFormat string, yield func(SelectRow) error) error {
	in := &s3.SelectObjectContentInput{
		Bucket:              aws.String(uri.Bucket),
		Key:                 aws.String(uri.Key),
		Expression:          aws.String(query),
		ExpressionType:      aws.String(s3.ExpressionTypeSql),
		InputSerialization:  inputSerialization(inputFormat),
		OutputSerialization: outputSerialization(outputFormat),
	}
	out, err := t.svc.SelectObjectContentWithContext(ctx, in)
	if err != nil {
		return classify("SelectObjectContent", err)
	}
	defer out.EventStream.Close()
	for event := range out.EventStream.Events() {
		rec, ok := event.(*s3.RecordsEvent)
		if !ok {
			continue
		}
		if err := yield(SelectRow{Data: string(rec.Payload)}); err != nil {
			return err
		}
	}
	return classify("SelectObjectContent", out.EventStream.Err())
}

func inputSerialization(format string) *s3.InputSerialization {
	switch strings.ToLower(format) {
	case "csv":
		return &s3.InputSerialization{CSV: &s3.CSVInput{FileHeaderInfo: aws.String(s3.FileHeaderInfoUse)}}
	case "json", "jsonl":
		t := s3.JSONTypeDocument
		if strings.ToLower(format) == "jsonl" {
			t = s3.JSONTypeLines
		}
		return &s3.InputSerialization{JSON: &s3.JSONInput{Type: aws.String(t)}}
	case "parquet":
		return &s3.InputSerialization{Parquet: &s3.ParquetInput{}}
	default:
		return &s3.InputSerialization{CSV: &s3.CSVInput{}}
	}
}

func outputSerialization(format string) *s3.OutputSerialization {
	switch strings.ToLower(format) {
	case "csv":
		return &s3.OutputSerialization{CSV: &s3.CSVOutput{}}
	default:
		return &s3.OutputSerialization{JSON: &s3.JSONOutput{}}
	}
}
