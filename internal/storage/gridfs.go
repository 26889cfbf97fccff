package storage

import (
	"context"
	"errors"
	"fmt"
	"io"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/gridfs"
	"go.mongodb.org/mongo-driver/mongo/options"
)

const defaultDeadline = 30 * time.Second

// GridFSStore keeps objects in a MongoDB GridFS bucket, one file per key.
type GridFSStore struct {
	db     *mongo.Database
	bucket string
}

func NewGridFSStore(db *mongo.Database, bucket string) *GridFSStore {
	return &GridFSStore{db: db, bucket: bucket}
}

// Connect opens a MongoDB client and verifies it with a ping.
func Connect(ctx context.Context, uri string) (*mongo.Client, error) {
	client, err := mongo.Connect(ctx, options.Client().ApplyURI(uri))
	if err != nil {
		return nil, fmt.Errorf("failed to connect to mongo: %w", err)
	}
	if err := client.Ping(ctx, nil); err != nil {
		_ = client.Disconnect(context.Background())
		return nil, fmt.Errorf("failed to ping mongo: %w", err)
	}
	return client, nil
}

func (s *GridFSStore) openBucket() (*gridfs.Bucket, error) {
	bucket, err := gridfs.NewBucket(s.db, options.GridFSBucket().SetName(s.bucket))
	if err != nil {
		return nil, fmt.Errorf("failed to open bucket: %w", err)
	}
	return bucket, nil
}

// Put uploads r under key. An existing object with the same key is replaced.
func (s *GridFSStore) Put(ctx context.Context, key string, r io.Reader, contentType string) error {
	bucket, err := s.openBucket()
	if err != nil {
		return err
	}

	opts := options.GridFSUpload().SetMetadata(bson.D{{Key: "contentType", Value: contentType}})
	stream, err := bucket.OpenUploadStream(key, opts)
	if err != nil {
		return fmt.Errorf("failed to open upload stream: %w", err)
	}
	if err := stream.SetWriteDeadline(deadline(ctx)); err != nil {
		_ = stream.Abort()
		return fmt.Errorf("failed to set write deadline: %w", err)
	}

	if _, err := io.Copy(stream, r); err != nil {
		_ = stream.Abort()
		return fmt.Errorf("failed to upload %s: %w", key, err)
	}
	if err := stream.Close(); err != nil {
		return fmt.Errorf("failed to finalize %s: %w", key, err)
	}
	newID := stream.FileID

	// Older revisions under the same key are dropped once the new one is complete.
	ids, err := s.fileIDs(ctx, bucket, key)
	if err != nil {
		return err
	}
	for _, id := range ids {
		if id == newID {
			continue
		}
		if err := bucket.DeleteContext(ctx, id); err != nil && !errors.Is(err, gridfs.ErrFileNotFound) {
			return fmt.Errorf("failed to replace %s: %w", key, err)
		}
	}
	return nil
}

func (s *GridFSStore) Get(ctx context.Context, key string) (*Object, error) {
	bucket, err := s.openBucket()
	if err != nil {
		return nil, err
	}

	stream, err := bucket.OpenDownloadStreamByName(key)
	if err != nil {
		if errors.Is(err, gridfs.ErrFileNotFound) {
			return nil, ErrObjectNotFound
		}
		return nil, fmt.Errorf("failed to open %s: %w", key, err)
	}
	if err := stream.SetReadDeadline(deadline(ctx)); err != nil {
		_ = stream.Close()
		return nil, fmt.Errorf("failed to set read deadline: %w", err)
	}

	file := stream.GetFile()
	obj := &Object{Key: key, Size: file.Length, Body: stream}
	if file.Metadata != nil {
		if ct, ok := file.Metadata.Lookup("contentType").StringValueOK(); ok {
			obj.ContentType = ct
		}
	}
	return obj, nil
}

// Delete removes every revision stored under key.
func (s *GridFSStore) Delete(ctx context.Context, key string) error {
	bucket, err := s.openBucket()
	if err != nil {
		return err
	}

	ids, err := s.fileIDs(ctx, bucket, key)
	if err != nil {
		return err
	}
	if len(ids) == 0 {
		return ErrObjectNotFound
	}

	for _, id := range ids {
		if err := bucket.DeleteContext(ctx, id); err != nil {
			return fmt.Errorf("failed to delete %s: %w", key, err)
		}
	}
	return nil
}

func (s *GridFSStore) fileIDs(ctx context.Context, bucket *gridfs.Bucket, key string) ([]primitive.ObjectID, error) {
	cursor, err := bucket.FindContext(ctx, bson.D{{Key: "filename", Value: key}})
	if err != nil {
		return nil, fmt.Errorf("failed to look up %s: %w", key, err)
	}
	defer cursor.Close(ctx)

	var files []struct {
		ID primitive.ObjectID `bson:"_id"`
	}
	if err := cursor.All(ctx, &files); err != nil {
		return nil, fmt.Errorf("failed to decode %s: %w", key, err)
	}

	ids := make([]primitive.ObjectID, 0, len(files))
	for _, f := range files {
		ids = append(ids, f.ID)
	}
	return ids, nil
}

func deadline(ctx context.Context) time.Time {
	if d, ok := ctx.Deadline(); ok {
		return d
	}
	return time.Now().Add(defaultDeadline)
}
