// Package storage publishes finished overlay videos to remote object storage.
package storage

import (
	"context"
	"errors"
	"path"
	"path/filepath"
	"strings"
)

// ErrS3NotConfigured is returned when publishing is requested without an
// S3 bucket and region.
var ErrS3NotConfigured = errors.New("S3 storage is not configured")

// Publisher uploads a local file and returns the URL it can be fetched from.
type Publisher interface {
	Publish(ctx context.Context, key, localPath string) (url string, err error)
}

// ObjectKey builds the object key for an output file: <prefix><runID>/<base name>.
func ObjectKey(prefix, runID, localPath string) string {
	prefix = strings.TrimLeft(prefix, "/")
	if prefix != "" && !strings.HasSuffix(prefix, "/") {
		prefix += "/"
	}
	return prefix + path.Join(runID, filepath.Base(localPath))
}
