package secrets

import (
	"context"
	"fmt"
	"strings"

	"github.com/spounge-ai/logshipper/internal/domain"
)

// ObjectMetadataProvider reads secrets from the user metadata of a single
// object. Access to the key is controlled by the ACLs on that object, and
// reading metadata avoids downloading the object itself.
type ObjectMetadataProvider struct {
	store  domain.ObjectStore
	bucket string
	object string
}

func NewObjectMetadataProvider(store domain.ObjectStore, bucket, object string) *ObjectMetadataProvider {
	return &ObjectMetadataProvider{store: store, bucket: bucket, object: object}
}

// GetSecret returns the metadata value stored under name. Keys are matched
// case-insensitively since S3 lowercases user metadata keys.
func (p *ObjectMetadataProvider) GetSecret(ctx context.Context, name string) (string, error) {
	if name == "" {
		return "", fmt.Errorf("secret name cannot be empty")
	}

	metadata, err := p.store.ObjectMetadata(ctx, p.bucket, p.object)
	if err != nil {
		return "", fmt.Errorf("failed to read metadata of %s/%s: %w", p.bucket, p.object, err)
	}

	if value, ok := metadata[name]; ok {
		return value, nil
	}
	for key, value := range metadata {
		if strings.EqualFold(key, name) {
			return value, nil
		}
	}

	return "", fmt.Errorf("metadata key %q not found on %s/%s", name, p.bucket, p.object)
}
