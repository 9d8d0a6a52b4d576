package persistence

import (
	"context"
	"errors"
	"fmt"
	"io"

	"cloud.google.com/go/storage"
	"go.uber.org/zap"
)

// GCSStorage reads objects from Google Cloud Storage using the ambient
// application default credentials.
type GCSStorage struct {
	client *storage.Client
	logger *zap.Logger
}

func NewGCSStorage(ctx context.Context, logger *zap.Logger) (*GCSStorage, error) {
	client, err := storage.NewClient(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to create GCS client: %w", err)
	}
	return &GCSStorage{client: client, logger: logger}, nil
}

// ObjectMetadata returns the custom metadata of an object. GCS nests it under
// the object's "metadata" field.
func (g *GCSStorage) ObjectMetadata(ctx context.Context, bucket, object string) (map[string]string, error) {
	attrs, err := g.client.Bucket(bucket).Object(object).Attrs(ctx)
	if err != nil {
		return nil, g.wrap(err, "read attributes of", bucket, object)
	}
	if attrs.Metadata == nil {
		return map[string]string{}, nil
	}
	return attrs.Metadata, nil
}

func (g *GCSStorage) Download(ctx context.Context, bucket, object string) ([]byte, error) {
	reader, err := g.client.Bucket(bucket).Object(object).NewReader(ctx)
	if err != nil {
		return nil, g.wrap(err, "open", bucket, object)
	}
	defer func() {
		if err := reader.Close(); err != nil {
			g.logger.Error("failed to close GCS object reader", zap.String("bucket", bucket), zap.String("object", object), zap.Error(err))
		}
	}()

	data, err := io.ReadAll(reader)
	if err != nil {
		return nil, fmt.Errorf("failed to read GCS object %s/%s: %w", bucket, object, err)
	}
	return data, nil
}

func (g *GCSStorage) Close() error {
	return g.client.Close()
}

func (g *GCSStorage) wrap(err error, op, bucket, object string) error {
	if errors.Is(err, storage.ErrObjectNotExist) || errors.Is(err, storage.ErrBucketNotExist) {
		return fmt.Errorf("%w: gs://%s/%s", ErrObjectNotFound, bucket, object)
	}
	return fmt.Errorf("failed to %s GCS object %s/%s: %w", op, bucket, object, err)
}
