package secrets

import "context"

// Provider is an interface for retrieving the log ingestion api key.
type Provider interface {
	GetSecret(ctx context.Context, name string) (string, error)
}
