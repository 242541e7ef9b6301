package blob

import (
	"context"
	"crypto/md5"
	"encoding/hex"
	"io"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/aws/aws-sdk-go/aws"
	"github.com/aws/aws-sdk-go/service/s3"
	"github.com/dnvriend/aws-primitives-tool/internal/errs"
)

// objectInfo is the (relativeKey, size, etag, lastModified) tuple the
// sync algorithm enumerates both sides to.
type objectInfo struct {
	key          string
	size         int64
	etag         string
	lastModified time.Time
}

// listPrefix enumerates every object under src's key prefix, paging
// through ListObjectsV2 until the bucket is exhausted.
func (t *Transfer) listPrefix(ctx context.Context, src URI) ([]objectInfo, error) {
	var out []objectInfo
	in := &s3.ListObjectsV2Input{Bucket: aws.String(src.Bucket), Prefix: aws.String(src.Key)}
	err := t.svc.ListObjectsV2PagesWithContext(ctx, in, func(page *s3.ListObjectsV2Output, lastPage bool) bool {
		for _, obj := range page.Contents {
			out = append(out, objectInfo{
				key: aws.StringValue(obj.Key), size: aws.Int64Value(obj.Size),
				etag: strings.Trim(aws.StringValue(obj.ETag), `"`), lastModified: aws.TimeValue(obj.LastModified),
			})
		}
		return true
	})
	if err != nil {
		return nil, classify("ListObjectsV2", err)
	}
	return out, nil
}

func listLocal(root string) (map[string]objectInfo, error) {
	out := map[string]objectInfo{}
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
		etag, _ := localMD5(path)
		out[rel] = objectInfo{key: rel, size: info.Size(), lastModified: info.ModTime(), etag: etag}
		return nil
	})
	return out, err
}

// localMD5 computes the plain MD5 hex digest S3 uses as the ETag for
// objects uploaded with a single PUT. Objects that were multipart-uploaded
// on the remote side have a "<md5>-<parts>" ETag that never matches this,
// which is why SyncOptions.SizeOnly exists as a fallback.
func localMD5(path string) (string, error) {
	f, err := os.Open(path)
	if err != nil {
		return "", err
	}
	defer f.Close()
	h := md5.New()
	if _, err := io.Copy(h, f); err != nil {
		return "", err
	}
	return hex.EncodeToString(h.Sum(nil)), nil
}

// SyncOptions controls the sync algorithm's comparison and deletion
// behavior, step 2-3.
type SyncOptions struct {
	SizeOnly bool
	Delete   bool
	Workers  int
	Filter   GlobFilter
}

// SyncUp copies a local directory to an S3 prefix, skipping keys whose
// ETag (or size, under --size-only) already matches. Each local file's MD5
// is recomputed and compared with the remote ETag; an object uploaded in
// multiple parts has an ETag that is not a plain MD5 digest, so it never
// matches, and --size-only avoids the re-upload this produces for large
// files.
func (t *Transfer) SyncUp(ctx context.Context, localDir string, dst URI, opts SyncOptions) ([]FileResult, error) {
	local, err := listLocal(localDir)
	if err != nil {
		return nil, classify("walk", err)
	}
	remote, err := t.listPrefix(ctx, dst)
	if err != nil {
		return nil, err
	}
	remoteByRel := map[string]objectInfo{}
	prefix := strings.TrimSuffix(dst.Key, "/") + "/"
	for _, r := range remote {
		remoteByRel[strings.TrimPrefix(r.key, prefix)] = r
	}

	workers := opts.Workers
	if workers <= 0 {
		workers = t.workers
	}
	pool := newWorkerPool(workers)
	collector := &resultCollector{}

	for rel, li := range local {
		if !opts.Filter.allows(rel) {
			continue
		}
		rel, li := rel, li
		ri, exists := remoteByRel[rel]
		if exists && sameObject(li, ri, opts.SizeOnly) {
			continue
		}
		pool.Go(func() {
			full := filepath.Join(localDir, filepath.FromSlash(rel))
			objURI := dst.Join(rel)
			res := FileResult{RelPath: rel, URI: objURI.String()}
			if _, err := t.Put(ctx, full, objURI, PutOptions{}); err != nil {
				res.Err = errs.As(err).Cause
			}
			collector.add(res)
		})
	}

	if opts.Delete {
		for rel, ri := range remoteByRel {
			if _, ok := local[rel]; ok {
				continue
			}
			ri := ri
			pool.Go(func() {
				res := FileResult{RelPath: rel, URI: (URI{Bucket: dst.Bucket, Key: ri.key}).String()}
				if _, err := t.svc.DeleteObjectWithContext(ctx, &s3.DeleteObjectInput{Bucket: aws.String(dst.Bucket), Key: aws.String(ri.key)}); err != nil {
					res.Err = errs.As(classify("DeleteObject", err)).Cause
				}
				collector.add(res)
			})
		}
	}
	pool.Wait()
	return collector.results, nil
}

// SyncDown mirrors SyncUp in the opposite direction: S3 prefix to local
// directory.
func (t *Transfer) SyncDown(ctx context.Context, src URI, localDir string, opts SyncOptions) ([]FileResult, error) {
	remote, err := t.listPrefix(ctx, src)
	if err != nil {
		return nil, err
	}
	local, err := listLocal(localDir)
	if err != nil && !os.IsNotExist(err) {
		return nil, classify("walk", err)
	}

	workers := opts.Workers
	if workers <= 0 {
		workers = t.workers
	}
	pool := newWorkerPool(workers)
	collector := &resultCollector{}
	prefix := strings.TrimSuffix(src.Key, "/") + "/"
	seen := map[string]bool{}

	for _, ri := range remote {
		rel := strings.TrimPrefix(ri.key, prefix)
		if !opts.Filter.allows(rel) {
			continue
		}
		seen[rel] = true
		ri, rel := ri, rel
		if li, ok := local[rel]; ok && sameObject(li, ri, opts.SizeOnly) {
			continue
		}
		pool.Go(func() {
			destPath := filepath.Join(localDir, filepath.FromSlash(rel))
			res := FileResult{RelPath: rel, URI: (URI{Bucket: src.Bucket, Key: ri.key}).String()}
			if err := downloadToFile(ctx, t, URI{Bucket: src.Bucket, Key: ri.key}, destPath); err != nil {
				res.Err = errs.As(err).Cause
			}
			collector.add(res)
		})
	}

	if opts.Delete {
		for rel := range local {
			if seen[rel] {
				continue
			}
			rel := rel
			pool.Go(func() {
				destPath := filepath.Join(localDir, filepath.FromSlash(rel))
				res := FileResult{RelPath: rel, URI: destPath}
				if err := os.Remove(destPath); err != nil {
					res.Err = err.Error()
				}
				collector.add(res)
			})
		}
	}
	pool.Wait()
	return collector.results, nil
}

func sameObject(local, remote objectInfo, sizeOnly bool) bool {
	if local.size != remote.size {
		return false
	}
	if sizeOnly {
		return true
	}
	return remote.etag != "" && remote.etag == local.etag
}
