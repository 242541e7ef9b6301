// Package blobtest provides an in-memory s3iface.S3API substitute, the
// same interface-substitution testing pattern storetest.Fake plays for
// store.Driver.
package blobtest

import (
	"bytes"
	"crypto/md5"
	"encoding/hex"
	"fmt"
	"io/ioutil"
	"sort"
	"sync"

	"github.com/aws/aws-sdk-go/aws"
	"github.com/aws/aws-sdk-go/aws/awserr"
	"github.com/aws/aws-sdk-go/aws/client/metadata"
	"github.com/aws/aws-sdk-go/aws/request"
	"github.com/aws/aws-sdk-go/service/s3"
	"github.com/aws/aws-sdk-go/service/s3/s3iface"
)

type object struct {
	body        []byte
	etag        string
	contentType string
	metadata    map[string]*string
	tags        map[string]string
}

type multipart struct {
	bucket, key string
	parts       map[int64][]byte
}

// Fake is a minimal in-memory S3, covering exactly the s3iface.S3API
// methods internal/blob exercises. Embedding the interface satisfies the
// remaining ~900 methods with a nil implementation that panics if called,
// which documents that nothing else should be reached from tests.
type Fake struct {
	s3iface.S3API

	mu         sync.Mutex
	objects    map[string]map[string]*object
	multiparts map[string]*multipart
	buckets    map[string]bool
	nextUpload int
}

func New() *Fake {
	return &Fake{objects: map[string]map[string]*object{}, multiparts: map[string]*multipart{}}
}

func etagOf(b []byte) string {
	sum := md5.Sum(b)
	return hex.EncodeToString(sum[:])
}

func (f *Fake) bucket(name string) map[string]*object {
	if f.objects[name] == nil {
		f.objects[name] = map[string]*object{}
	}
	return f.objects[name]
}

func (f *Fake) PutObjectWithContext(_ aws.Context, in *s3.PutObjectInput, _ ...request.Option) (*s3.PutObjectOutput, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	body, err := ioutil.ReadAll(in.Body)
	if err != nil {
		return nil, err
	}
	md := map[string]*string{}
	for k, v := range in.Metadata {
		md[k] = v
	}
	obj := &object{body: body, etag: etagOf(body), contentType: aws.StringValue(in.ContentType), metadata: md}
	f.bucket(aws.StringValue(in.Bucket))[aws.StringValue(in.Key)] = obj
	return &s3.PutObjectOutput{ETag: aws.String(`"` + obj.etag + `"`)}, nil
}

// PutObjectRequest is the call s3manager.Uploader makes for a single-part
// upload; its Send handler stores the object through PutObjectWithContext.
func (f *Fake) PutObjectRequest(in *s3.PutObjectInput) (*request.Request, *s3.PutObjectOutput) {
	out := &s3.PutObjectOutput{}
	op := &request.Operation{Name: "PutObject", HTTPMethod: "PUT", HTTPPath: "/"}
	req := request.New(aws.Config{}, metadata.ClientInfo{}, request.Handlers{}, nil, op, in, out)
	req.Handlers.Send.PushBack(func(r *request.Request) {
		res, err := f.PutObjectWithContext(r.Context(), in)
		if err != nil {
			r.Error = err
			return
		}
		*out = *res
	})
	return req, out
}

func (f *Fake) HeadObjectWithContext(_ aws.Context, in *s3.HeadObjectInput, _ ...request.Option) (*s3.HeadObjectOutput, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	obj, ok := f.bucket(aws.StringValue(in.Bucket))[aws.StringValue(in.Key)]
	if !ok {
		return nil, awserr.New("NotFound", "key does not exist", nil)
	}
	return &s3.HeadObjectOutput{
		ContentLength: aws.Int64(int64(len(obj.body))), ETag: aws.String(`"` + obj.etag + `"`),
		ContentType: aws.String(obj.contentType), Metadata: obj.metadata,
	}, nil
}

func (f *Fake) GetObjectWithContext(_ aws.Context, in *s3.GetObjectInput, _ ...request.Option) (*s3.GetObjectOutput, error) {
	f.mu.Lock()
	obj, ok := f.bucket(aws.StringValue(in.Bucket))[aws.StringValue(in.Key)]
	f.mu.Unlock()
	if !ok {
		return nil, awserr.New("NoSuchKey", "key does not exist", nil)
	}
	return &s3.GetObjectOutput{
		Body: ioutil.NopCloser(bytes.NewReader(obj.body)), ETag: aws.String(`"` + obj.etag + `"`),
		ContentType: aws.String(obj.contentType), ContentLength: aws.Int64(int64(len(obj.body))),
	}, nil
}

func (f *Fake) DeleteObjectWithContext(_ aws.Context, in *s3.DeleteObjectInput, _ ...request.Option) (*s3.DeleteObjectOutput, error) {
	f.mu.Lock()
	delete(f.bucket(aws.StringValue(in.Bucket)), aws.StringValue(in.Key))
	f.mu.Unlock()
	return &s3.DeleteObjectOutput{}, nil
}

func (f *Fake) PutObjectTaggingWithContext(_ aws.Context, in *s3.PutObjectTaggingInput, _ ...request.Option) (*s3.PutObjectTaggingOutput, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	obj, ok := f.bucket(aws.StringValue(in.Bucket))[aws.StringValue(in.Key)]
	if !ok {
		return nil, awserr.New("NoSuchKey", "key does not exist", nil)
	}
	obj.tags = map[string]string{}
	for _, t := range in.Tagging.TagSet {
		obj.tags[aws.StringValue(t.Key)] = aws.StringValue(t.Value)
	}
	return &s3.PutObjectTaggingOutput{}, nil
}

func (f *Fake) DeleteObjectTaggingWithContext(_ aws.Context, in *s3.DeleteObjectTaggingInput, _ ...request.Option) (*s3.DeleteObjectTaggingOutput, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if obj, ok := f.bucket(aws.StringValue(in.Bucket))[aws.StringValue(in.Key)]; ok {
		obj.tags = nil
	}
	return &s3.DeleteObjectTaggingOutput{}, nil
}

func (f *Fake) ListObjectsV2PagesWithContext(_ aws.Context, in *s3.ListObjectsV2Input, fn func(*s3.ListObjectsV2Output, bool) bool, _ ...request.Option) error {
	f.mu.Lock()
	var keys []string
	for k := range f.bucket(aws.StringValue(in.Bucket)) {
		if aws.StringValue(in.Prefix) == "" || len(k) >= len(aws.StringValue(in.Prefix)) && k[:len(aws.StringValue(in.Prefix))] == aws.StringValue(in.Prefix) {
			keys = append(keys, k)
		}
	}
	sort.Strings(keys)
	var contents []*s3.Object
	for _, k := range keys {
		obj := f.bucket(aws.StringValue(in.Bucket))[k]
		contents = append(contents, &s3.Object{Key: aws.String(k), Size: aws.Int64(int64(len(obj.body))), ETag: aws.String(`"` + obj.etag + `"`)})
	}
	f.mu.Unlock()
	fn(&s3.ListObjectsV2Output{Contents: contents}, true)
	return nil
}

func (f *Fake) CreateMultipartUploadWithContext(_ aws.Context, in *s3.CreateMultipartUploadInput, _ ...request.Option) (*s3.CreateMultipartUploadOutput, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.nextUpload++
	id := fmt.Sprintf("upload-%d", f.nextUpload)
	f.multiparts[id] = &multipart{bucket: aws.StringValue(in.Bucket), key: aws.StringValue(in.Key), parts: map[int64][]byte{}}
	return &s3.CreateMultipartUploadOutput{UploadId: aws.String(id)}, nil
}

func (f *Fake) UploadPartWithContext(_ aws.Context, in *s3.UploadPartInput, _ ...request.Option) (*s3.UploadPartOutput, error) {
	body, err := ioutil.ReadAll(in.Body)
	if err != nil {
		return nil, err
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	mp, ok := f.multiparts[aws.StringValue(in.UploadId)]
	if !ok {
		return nil, awserr.New("NoSuchUpload", "no such upload", nil)
	}
	mp.parts[aws.Int64Value(in.PartNumber)] = body
	return &s3.UploadPartOutput{ETag: aws.String(`"` + etagOf(body) + `"`)}, nil
}

func (f *Fake) CompleteMultipartUploadWithContext(_ aws.Context, in *s3.CompleteMultipartUploadInput, _ ...request.Option) (*s3.CompleteMultipartUploadOutput, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	mp, ok := f.multiparts[aws.StringValue(in.UploadId)]
	if !ok {
		return nil, awserr.New("NoSuchUpload", "no such upload", nil)
	}
	var buf bytes.Buffer
	nums := make([]int64, 0, len(mp.parts))
	for n := range mp.parts {
		nums = append(nums, n)
	}
	sort.Slice(nums, func(i, j int) bool { return nums[i] < nums[j] })
	for _, n := range nums {
		buf.Write(mp.parts[n])
	}
	obj := &object{body: buf.Bytes(), etag: etagOf(buf.Bytes())}
	f.bucket(mp.bucket)[mp.key] = obj
	delete(f.multiparts, aws.StringValue(in.UploadId))
	return &s3.CompleteMultipartUploadOutput{ETag: aws.String(`"` + obj.etag + `"`)}, nil
}

func (f *Fake) AbortMultipartUploadWithContext(_ aws.Context, in *s3.AbortMultipartUploadInput, _ ...request.Option) (*s3.AbortMultipartUploadOutput, error) {
	f.mu.Lock()
	delete(f.multiparts, aws.StringValue(in.UploadId))
	f.mu.Unlock()
	return &s3.AbortMultipartUploadOutput{}, nil
}

func (f *Fake) CreateBucketWithContext(_ aws.Context, in *s3.CreateBucketInput, _ ...request.Option) (*s3.CreateBucketOutput, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.buckets == nil {
		f.buckets = map[string]bool{}
	}
	f.buckets[aws.StringValue(in.Bucket)] = true
	return &s3.CreateBucketOutput{}, nil
}

func (f *Fake) DeleteBucketWithContext(_ aws.Context, in *s3.DeleteBucketInput, _ ...request.Option) (*s3.DeleteBucketOutput, error) {
	f.mu.Lock()
	delete(f.buckets, aws.StringValue(in.Bucket))
	delete(f.objects, aws.StringValue(in.Bucket))
	f.mu.Unlock()
	return &s3.DeleteBucketOutput{}, nil
}

func (f *Fake) PutBucketVersioningWithContext(_ aws.Context, _ *s3.PutBucketVersioningInput, _ ...request.Option) (*s3.PutBucketVersioningOutput, error) {
	return &s3.PutBucketVersioningOutput{}, nil
}
