package blob

import (
	"mime"
	"path/filepath"
	"strings"

	"github.com/dnvriend/aws-primitives-tool/internal/errs"
)

// URI is a parsed s3://bucket/key reference, the addressing scheme every
// C10/C11 operation accepts 
type URI struct {
	Bucket string
	Key    string
}

func ParseURI(raw string) (URI, error) {
	const scheme = "s3://"
	if !strings.HasPrefix(raw, scheme) {
		return URI{}, errs.InvalidArgument(raw+" is not an s3:// URI", "pass a URI of the form s3://bucket/key")
	}
	rest := raw[len(scheme):]
	parts := strings.SplitN(rest, "/", 2)
	if len(parts) != 2 || parts[0] == "" || parts[1] == "" {
		return URI{}, errs.InvalidArgument(raw+" is missing a bucket or key", "pass a URI of the form s3://bucket/key")
	}
	return URI{Bucket: parts[0], Key: parts[1]}, nil
}

func (u URI) String() string { return "s3://" + u.Bucket + "/" + u.Key }

// Join returns a copy of u with rel appended to Key using "/" separators,
// used when expanding a directory URI to its member objects.
func (u URI) Join(rel string) URI {
	rel = strings.TrimPrefix(rel, "/")
	if u.Key == "" {
		return URI{Bucket: u.Bucket, Key: rel}
	}
	return URI{Bucket: u.Bucket, Key: strings.TrimSuffix(u.Key, "/") + "/" + rel}
}

// detectContentType guesses a MIME type from a file's extension, the
// fallback is required when none is supplied explicitly.
func detectContentType(name string) string {
	if ct := mime.TypeByExtension(filepath.Ext(name)); ct != "" {
		return ct
	}
	return "application/octet-stream"
}
