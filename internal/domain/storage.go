package domain

import "context"

// ObjectStore is the subset of an object storage API the relay needs.
type ObjectStore interface {
	// ObjectMetadata returns the user metadata attached to an object.
	ObjectMetadata(ctx context.Context, bucket, object string) (map[string]string, error)
	// Download returns the full contents of an object.
	Download(ctx context.Context, bucket, object string) ([]byte, error)
}
