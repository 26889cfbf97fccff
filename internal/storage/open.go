package storage

import (
	"context"
	"fmt"
)

const (
	DriverGridFS = "gridfs"
	DriverMemory = "memory"
)

// GridFSOptions locate the bucket used by the gridfs driver.
type GridFSOptions struct {
	URI      string
	Database string
	Bucket   string
}

// Open returns the object store for driver. The returned close function
// releases the underlying connection.
func Open(ctx context.Context, driver string, opts GridFSOptions) (ObjectStore, func() error, error) {
	switch driver {
	case DriverMemory:
		return NewMemoryStore(), func() error { return nil }, nil
	case DriverGridFS, "":
		client, err := Connect(ctx, opts.URI)
		if err != nil {
			return nil, nil, err
		}
		store := NewGridFSStore(client.Database(opts.Database), opts.Bucket)
		return store, func() error { return client.Disconnect(context.Background()) }, nil
	default:
		return nil, nil, fmt.Errorf("unknown storage driver %q", driver)
	}
}
