package pfsurvey

import (
	"context"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"cloud.google.com/go/storage"
	"github.com/carbocation/pfx"
)

// GSPrefix marks a path as a Google Storage object
const GSPrefix = "gs://"

// IsGS reports whether path names a Google Storage object.
func IsGS(path string) bool {
	return strings.HasPrefix(path, GSPrefix)
}

// SplitGSPath splits gs://bucket/some/object into its bucket and object name.
func SplitGSPath(path string) (bucket, object string, err error) {
	pathParts := strings.SplitN(strings.TrimPrefix(path, GSPrefix), "/", 2)
	if len(pathParts) != 2 {
		return "", "", fmt.Errorf("Tried to split your google storage path into 2 parts, but got %d: %v", len(pathParts), pathParts)
	}

	return pathParts[0], pathParts[1], nil
}

// Open opens a pipeline result file for reading. Paths beginning with gs://
// are read from Google Storage when client is non-nil; everything else is read
// from the local filesystem. Compressed content is decompressed transparently.
func Open(ctx context.Context, path string, client *storage.Client) (io.ReadCloser, error) {
	var (
		rc  io.ReadCloser
		err error
	)

	if client != nil && IsGS(path) {
		bucketName, objectName, err := SplitGSPath(path)
		if err != nil {
			return nil, err
		}

		rc, err = client.Bucket(bucketName).Object(objectName).NewReader(ctx)
		if err != nil {
			return nil, pfx.Err(fmt.Errorf("%s: %s", path, err))
		}
	} else {
		rc, err = os.Open(path)
		if err != nil {
			return nil, err
		}
	}

	return MaybeDecompressReadCloser(rc)
}

// Base returns the last element of a local or gs:// path.
func Base(path string) string {
	if IsGS(path) {
		return path[strings.LastIndex(path, "/")+1:]
	}

	return filepath.Base(path)
}
