// Package blob implements the Blob Transfer Engine (C10) and Blob Metadata
// Surface (C11) over Amazon S3, grounded on ais/cloud/aws.go's split
// between s3manager (bulk transfer) and a direct *s3.S3 client
// (metadata-only calls).
/*
 * Copyright (c) 2018-2020, NVIDIA CORPORATION. All rights reserved.
 */
package blob

import (
	"bufio"
	"context"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"time"

	"github.com/aws/aws-sdk-go/aws"
	"github.com/aws/aws-sdk-go/aws/session"
	"github.com/aws/aws-sdk-go/service/s3"
	"github.com/aws/aws-sdk-go/service/s3/s3iface"
	"github.com/aws/aws-sdk-go/service/s3/s3manager"
	"github.com/bmatcuk/doublestar/v4"
	backoffpkg "github.com/dnvriend/aws-primitives-tool/internal/backoff"
	"github.com/dnvriend/aws-primitives-tool/internal/errs"
)

// Defaults from 
const (
	defaultThreshold  = 100 * 1024 * 1024
	defaultChunkSize  = 100 * 1024 * 1024
	minChunkSize      = 5 * 1024 * 1024
	maxChunkSize      = 5 * 1024 * 1024 * 1024
	maxParts          = 10000
	defaultWorkers    = 10
	minStreamChunk    = 8 * 1024
)

// Transfer is constructed once per process over s3iface.S3API so tests can
// substitute a fake, "C10-C11, both over s3iface.S3API".
type Transfer struct {
	svc     s3iface.S3API
	manager *s3manager.Uploader
	threshold int64
	chunkSize int64
	workers   int
}

// NewTransfer binds a session the same way store.NewDynamoDriver binds one
// for DynamoDB: once, at process start, region resolved from the caller's
// config layer.
func NewTransfer(sess *session.Session, region string, workers int) *Transfer {
	cfg := &aws.Config{}
	if region != "" {
		cfg.Region = aws.String(region)
	}
	svc := s3.New(sess, cfg)
	if workers <= 0 {
		workers = defaultWorkers
	}
	return &Transfer{
		svc:       svc,
		manager:   s3manager.NewUploaderWithClient(svc),
		threshold: defaultThreshold,
		chunkSize: defaultChunkSize,
		workers:   workers,
	}
}

// NewTransferWithClient builds a Transfer over an already-constructed
// s3iface.S3API, the seam transfer_test.go substitutes blobtest.Fake
// through.
func NewTransferWithClient(svc s3iface.S3API, workers int) *Transfer {
	if workers <= 0 {
		workers = defaultWorkers
	}
	return &Transfer{
		svc:       svc,
		manager:   s3manager.NewUploaderWithClient(svc),
		threshold: defaultThreshold,
		chunkSize: defaultChunkSize,
		workers:   workers,
	}
}

// ObjectRecord is the canonical response shape for transfer and metadata
// operations.
type ObjectRecord struct {
	URI          string            `json:"uri"`
	Size         int64             `json:"size,omitempty"`
	ETag         string            `json:"etag,omitempty"`
	VersionID    string            `json:"versionId,omitempty"`
	ContentType  string            `json:"contentType,omitempty"`
	StorageClass string            `json:"storageClass,omitempty"`
	LastModified time.Time         `json:"lastModified,omitempty"`
	Metadata     map[string]string `json:"metadata,omitempty"`
	Parts        int               `json:"parts,omitempty"`
}

func (r ObjectRecord) PrimaryScalar() interface{} { return r.ETag }

// PutOptions carries the single-PUT/multipart knobs specifies.
type PutOptions struct {
	ContentType  string
	Metadata     map[string]string
	Tags         map[string]string
	StorageClass string
	IfNotExists  bool
	IfMatch      string
	ChunkSize    int64
	Threshold    int64 // overrides the Transfer's default single-PUT/multipart cutoff when nonzero
	Workers      int
}

// Put classifies by size and dispatches to a single PUT or a multipart
// upload, step 1-2.
func (t *Transfer) Put(ctx context.Context, localPath string, dst URI, opts PutOptions) (*ObjectRecord, error) {
	f, err := os.Open(localPath)
	if err != nil {
		return nil, errs.NotFound(localPath+" could not be opened", "check the path and file permissions")
	}
	defer f.Close()
	info, err := f.Stat()
	if err != nil {
		return nil, errs.InvalidArgument(localPath+" could not be stat'd", "check the path")
	}
	if opts.ContentType == "" {
		opts.ContentType = detectContentType(localPath)
	}
	if opts.IfNotExists || opts.IfMatch != "" {
		if err := t.checkPrecondition(ctx, dst, opts); err != nil {
			return nil, err
		}
	}
	threshold := t.threshold
	if opts.Threshold > 0 {
		threshold = opts.Threshold
	}
	if info.Size() < threshold {
		return t.putSingle(ctx, f, info.Size(), dst, opts)
	}
	return t.putMultipart(ctx, f, info.Size(), dst, opts)
}

// checkPrecondition implements if-not-exists/if-match as a HEAD check
// before the PUT. aws-sdk-go's PutObjectInput has no native IfNoneMatch in
// the SDK version this tool targets, so the guarantee is best-effort
// (there is a race between the HEAD and the PUT) rather than atomic; a
// future SDK upgrade exposing S3's native conditional-write headers should
// replace this with a single conditional PutObject call.
func (t *Transfer) checkPrecondition(ctx context.Context, dst URI, opts PutOptions) error {
	out, err := t.svc.HeadObjectWithContext(ctx, &s3.HeadObjectInput{Bucket: aws.String(dst.Bucket), Key: aws.String(dst.Key)})
	exists := err == nil
	if err != nil {
		if errs.As(classify("HeadObject", err)).Kind != errs.KindNotFound {
			return classify("HeadObject", err)
		}
	}
	if opts.IfNotExists && exists {
		return errs.ConditionFailed(dst.String()+" already exists", "remove --if-not-exists, or delete the object first")
	}
	if opts.IfMatch != "" {
		if !exists {
			return errs.ConditionFailed(dst.String()+" does not exist", "remove --if-match, or upload without a precondition first")
		}
		if strings.Trim(aws.StringValue(out.ETag), `"`) != strings.Trim(opts.IfMatch, `"`) {
			return errs.ConditionFailed(dst.String()+"'s ETag does not match --if-match", "re-read the object's current ETag and retry")
		}
	}
	return nil
}

// putSingle delegates to s3manager.Uploader the same way ais/cloud/aws.go's
// PutObj does (uploader.Upload(&s3manager.UploadInput{...})); any
// if-not-exists/if-match precondition was already checked by
// checkPrecondition, since UploadInput carries no conditional headers.
func (t *Transfer) putSingle(ctx context.Context, r io.ReadSeeker, size int64, dst URI, opts PutOptions) (*ObjectRecord, error) {
	in := &s3manager.UploadInput{
		Bucket:      aws.String(dst.Bucket),
		Key:         aws.String(dst.Key),
		Body:        r,
		ContentType: aws.String(opts.ContentType),
	}
	if len(opts.Metadata) > 0 {
		md := make(map[string]*string, len(opts.Metadata))
		for k, v := range opts.Metadata {
			md[k] = aws.String(v)
		}
		in.Metadata = md
	}
	if opts.StorageClass != "" {
		in.StorageClass = aws.String(opts.StorageClass)
	}
	if len(opts.Tags) > 0 {
		in.Tagging = aws.String(encodeTagging(opts.Tags))
	}
	out, err := t.manager.UploadWithContext(ctx, in)
	if err != nil {
		return nil, classify("Upload", err)
	}
	return &ObjectRecord{
		URI: dst.String(), Size: size, ETag: strings.Trim(aws.StringValue(out.ETag), `"`),
		VersionID: aws.StringValue(out.VersionID), ContentType: opts.ContentType, StorageClass: opts.StorageClass,
	}, nil
}

// putMultipart implements the multipart upload path: initiate, split into
// chunkSize parts (floor minChunkSize, ceiling maxChunkSize, at most
// maxParts), upload up to Workers in parallel with per-part backoff retry,
// abort on unrecoverable failure, complete with the ordered {part, etag}
// list.
func (t *Transfer) putMultipart(ctx context.Context, r io.ReaderAt, size int64, dst URI, opts PutOptions) (*ObjectRecord, error) {
	chunkSize := opts.ChunkSize
	if chunkSize == 0 {
		chunkSize = t.chunkSize
	}
	if chunkSize < minChunkSize {
		chunkSize = minChunkSize
	}
	if chunkSize > maxChunkSize {
		chunkSize = maxChunkSize
	}
	parts := partRanges(size, chunkSize)
	if len(parts) > maxParts {
		return nil, errs.InvalidArgument(fmt.Sprintf("%s would require %d parts, exceeding the 10000 part maximum", dst, len(parts)), "increase --chunk-size")
	}

	create := &s3.CreateMultipartUploadInput{Bucket: aws.String(dst.Bucket), Key: aws.String(dst.Key), ContentType: aws.String(opts.ContentType)}
	if opts.StorageClass != "" {
		create.StorageClass = aws.String(opts.StorageClass)
	}
	if len(opts.Metadata) > 0 {
		md := make(map[string]*string, len(opts.Metadata))
		for k, v := range opts.Metadata {
			md[k] = aws.String(v)
		}
		create.Metadata = md
	}
	cmu, err := t.svc.CreateMultipartUploadWithContext(ctx, create)
	if err != nil {
		return nil, classify("CreateMultipartUpload", err)
	}
	uploadID := cmu.UploadId

	workers := opts.Workers
	if workers <= 0 {
		workers = t.workers
	}
	pool := newWorkerPool(workers)
	results := make([]*s3.CompletedPart, len(parts))
	errCh := make(chan error, len(parts))

	for i, rng := range parts {
		i, rng := i, rng
		pool.Go(func() {
			etag, err := t.uploadPartWithRetry(ctx, dst, uploadID, int64(i+1), r, rng)
			if err != nil {
				errCh <- err
				return
			}
			results[i] = &s3.CompletedPart{PartNumber: aws.Int64(int64(i + 1)), ETag: aws.String(etag)}
		})
	}
	pool.Wait()
	close(errCh)
	if firstErr := <-errCh; firstErr != nil {
		_, _ = t.svc.AbortMultipartUploadWithContext(ctx, &s3.AbortMultipartUploadInput{
			Bucket: aws.String(dst.Bucket), Key: aws.String(dst.Key), UploadId: uploadID,
		})
		return nil, firstErr
	}

	out, err := t.svc.CompleteMultipartUploadWithContext(ctx, &s3.CompleteMultipartUploadInput{
		Bucket: aws.String(dst.Bucket), Key: aws.String(dst.Key), UploadId: uploadID,
		MultipartUpload: &s3.CompletedMultipartUpload{Parts: results},
	})
	if err != nil {
		return nil, classify("CompleteMultipartUpload", err)
	}
	return &ObjectRecord{
		URI: dst.String(), Size: size, ETag: strings.Trim(aws.StringValue(out.ETag), `"`),
		VersionID: aws.StringValue(out.VersionId), ContentType: opts.ContentType, StorageClass: opts.StorageClass,
		Parts: len(parts),
	}, nil
}

type byteRange struct{ start, length int64 }

func partRanges(size, chunkSize int64) []byteRange {
	var ranges []byteRange
	for off := int64(0); off < size; off += chunkSize {
		length := chunkSize
		if off+length > size {
			length = size - off
		}
		ranges = append(ranges, byteRange{start: off, length: length})
	}
	if len(ranges) == 0 {
		ranges = append(ranges, byteRange{})
	}
	return ranges
}

// uploadPartWithRetry uploads one part, retrying ServiceThrottled failures
// with exponential backoff "retry the part with
// exponential backoff" and C14's shared retry policy.
func (t *Transfer) uploadPartWithRetry(ctx context.Context, dst URI, uploadID *string, partNum int64, r io.ReaderAt, rng byteRange) (string, error) {
	var etag string
	err := backoffpkg.Retry(ctx, backoffpkg.DefaultPolicy(), func() error {
		section := io.NewSectionReader(r, rng.start, rng.length)
		out, err := t.svc.UploadPartWithContext(ctx, &s3.UploadPartInput{
			Bucket: aws.String(dst.Bucket), Key: aws.String(dst.Key), UploadId: uploadID,
			PartNumber: aws.Int64(partNum), Body: section,
		})
		if err != nil {
			return classify("UploadPart", err)
		}
		etag = strings.Trim(aws.StringValue(out.ETag), `"`)
		return nil
	})
	return etag, err
}

// GetOptions carries the download modifiers a get/get-dir call accepts.
type GetOptions struct {
	RangeStart, RangeEnd *int64
	IfMatch              string
	IfModifiedSince      *time.Time
	VersionID            string
}

// Get issues a single GET and streams the body to w in >=8KiB chunks
// without buffering the whole object, step 2.
func (t *Transfer) Get(ctx context.Context, src URI, w io.Writer, opts GetOptions) (*ObjectRecord, error) {
	in := &s3.GetObjectInput{Bucket: aws.String(src.Bucket), Key: aws.String(src.Key)}
	if opts.RangeStart != nil {
		end := ""
		if opts.RangeEnd != nil {
			end = fmt.Sprintf("%d", *opts.RangeEnd)
		}
		in.Range = aws.String(fmt.Sprintf("bytes=%d-%s", *opts.RangeStart, end))
	}
	if opts.IfMatch != "" {
		in.IfMatch = aws.String(opts.IfMatch)
	}
	if opts.IfModifiedSince != nil {
		in.IfModifiedSince = opts.IfModifiedSince
	}
	if opts.VersionID != "" {
		in.VersionId = aws.String(opts.VersionID)
	}
	out, err := t.svc.GetObjectWithContext(ctx, in)
	if err != nil {
		return nil, classify("GetObject", err)
	}
	defer out.Body.Close()

	buf := bufio.NewWriterSize(w, minStreamChunk)
	n, err := io.CopyBuffer(buf, out.Body, make([]byte, minStreamChunk))
	if err != nil {
		return nil, errs.Wrap(errs.KindServiceError, "streaming "+src.String()+" failed", "retry the download", err)
	}
	if err := buf.Flush(); err != nil {
		return nil, errs.Wrap(errs.KindServiceError, "flushing "+src.String()+" failed", "retry the download", err)
	}
	return &ObjectRecord{
		URI: src.String(), Size: n, ETag: strings.Trim(aws.StringValue(out.ETag), `"`),
		ContentType: aws.StringValue(out.ContentType), LastModified: aws.TimeValue(out.LastModified),
	}, nil
}

func encodeTagging(tags map[string]string) string {
	var sb strings.Builder
	first := true
	for k, v := range tags {
		if !first {
			sb.WriteByte('&')
		}
		first = false
		sb.WriteString(k)
		sb.WriteByte('=')
		sb.WriteString(v)
	}
	return sb.String()
}

// FileResult reports one file's outcome within a directory or sync batch,
// "report per-file results; one file's failure does
// not abort others".
type FileResult struct {
	RelPath string `json:"relPath"`
	URI     string `json:"uri"`
	Err     string `json:"error,omitempty"`
}

func (r FileResult) PrimaryScalar() interface{} { return r.RelPath }

// GlobFilter selects files by include/exclude glob patterns, evaluated
// against the path relative to the walked root.
type GlobFilter struct {
	Include []string
	Exclude []string
}

func (f GlobFilter) allows(rel string) bool {
	if len(f.Include) > 0 {
		matched := false
		for _, pat := range f.Include {
			if ok, _ := doublestar.Match(pat, rel); ok {
				matched = true
				break
			}
		}
		if !matched {
			return false
		}
	}
	for _, pat := range f.Exclude {
		if ok, _ := doublestar.Match(pat, rel); ok {
			return false
		}
	}
	return true
}

// PutDirectory walks localDir, applies filter, and dispatches uploads to a
// worker pool of size workers (default 10), directory
// upload algorithm.
func (t *Transfer) PutDirectory(ctx context.Context, localDir string, dst URI, filter GlobFilter, workers int, opts PutOptions) ([]FileResult, error) {
	files, err := walkLocal(localDir, filter)
	if err != nil {
		return nil, err
	}
	if workers <= 0 {
		workers = t.workers
	}
	pool := newWorkerPool(workers)
	results := make([]FileResult, len(files))
	for i, rel := range files {
		i, rel := i, rel
		pool.Go(func() {
			full := filepath.Join(localDir, rel)
			objURI := dst.Join(filepath.ToSlash(rel))
			_, err := t.Put(ctx, full, objURI, opts)
			res := FileResult{RelPath: rel, URI: objURI.String()}
			if err != nil {
				res.Err = errs.As(err).Cause
			}
			results[i] = res
		})
	}
	pool.Wait()
	return results, nil
}

// GetDirectory lists objects under src's prefix and downloads them to
// localDir, one per pooled worker.
func (t *Transfer) GetDirectory(ctx context.Context, src URI, localDir string, filter GlobFilter, workers int) ([]FileResult, error) {
	objects, err := t.listPrefix(ctx, src)
	if err != nil {
		return nil, err
	}
	if workers <= 0 {
		workers = t.workers
	}
	pool := newWorkerPool(workers)
	collector := &resultCollector{}
	for _, obj := range objects {
		rel := strings.TrimPrefix(obj.key, strings.TrimSuffix(src.Key, "/")+"/")
		if !filter.allows(rel) {
			continue
		}
		obj, rel := obj, rel
		pool.Go(func() {
			destPath := filepath.Join(localDir, filepath.FromSlash(rel))
			res := FileResult{RelPath: rel, URI: (URI{Bucket: src.Bucket, Key: obj.key}).String()}
			if err := downloadToFile(ctx, t, URI{Bucket: src.Bucket, Key: obj.key}, destPath); err != nil {
				res.Err = errs.As(err).Cause
			}
			collector.add(res)
		})
	}
	pool.Wait()
	return collector.results, nil
}

// resultCollector gathers FileResults from concurrent workers; a plain
// pre-sized slice (as PutDirectory uses) doesn't fit here because
// GetDirectory's final count is only known after filtering the listed keys.
type resultCollector struct {
	mu      sync.Mutex
	results []FileResult
}

func (c *resultCollector) add(r FileResult) {
	c.mu.Lock()
	c.results = append(c.results, r)
	c.mu.Unlock()
}

func downloadToFile(ctx context.Context, t *Transfer, src URI, destPath string) error {
	if err := os.MkdirAll(filepath.Dir(destPath), 0o755); err != nil {
		return errs.InvalidArgument("could not create "+filepath.Dir(destPath), "check local directory permissions")
	}
	f, err := os.Create(destPath)
	if err != nil {
		return errs.InvalidArgument("could not create "+destPath, "check local directory permissions")
	}
	defer f.Close()
	_, err = t.Get(ctx, src, f, GetOptions{})
	return err
}

func walkLocal(root string, filter GlobFilter) ([]string, error) {
	var out []string
	err := filepath.Walk(root, func(path string, info os.FileInfo, err error) error {
		if err != nil {
			return err
		}
		if info.IsDir() {
			return nil
		}
		rel, err := filepath.Rel(root, path)
		if err != nil {
			return err
		}
		rel = filepath.ToSlash(rel)
		if filter.allows(rel) {
			out = append(out, rel)
		}
		return nil
	})
	if err != nil {
		return nil, errs.InvalidArgument(root+" could not be walked", "check the path exists and is readable")
	}
	return out, nil
}
