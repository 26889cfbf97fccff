// Package storage holds the object store adapters used for listing images.
package storage

import (
	"context"
	"errors"
	"io"
	"strings"
)

var ErrObjectNotFound = errors.New("object not found")

// Object is a stored blob opened for reading. Callers must close Body.
type Object struct {
	Key         string
	ContentType string
	Size        int64
	Body        io.ReadCloser
}

// ObjectStore stores blobs by key.
type ObjectStore interface {
	Put(ctx context.Context, key string, r io.Reader, contentType string) error
	Get(ctx context.Context, key string) (*Object, error)
	Delete(ctx context.Context, key string) error
}

// PublicURL is the address under which the API serves the image name.
func PublicURL(baseURL, name string) string {
	return strings.TrimSuffix(baseURL, "/") + "/images/" + name
}
