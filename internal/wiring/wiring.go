package wiring

import (
	"context"
	"fmt"
	"io"

	awsconfig "github.com/aws/aws-sdk-go-v2/config"
	"github.com/spounge-ai/logshipper/internal/domain"
	"github.com/spounge-ai/logshipper/internal/forwarder"
	"github.com/spounge-ai/logshipper/internal/identity"
	infra_config "github.com/spounge-ai/logshipper/internal/infra/config"
	"github.com/spounge-ai/logshipper/internal/infra/persistence"
	infra_secrets "github.com/spounge-ai/logshipper/internal/infra/secrets"
	"github.com/spounge-ai/logshipper/internal/secrets"
	"github.com/spounge-ai/logshipper/internal/service"
	"go.uber.org/zap"
)

// Dependencies holds the constructed relay components.
type Dependencies struct {
	Store   domain.ObjectStore
	Shipper service.LogShipper
	closers []io.Closer
}

// Close releases clients that hold connections.
func (d *Dependencies) Close() error {
	var firstErr error
	for _, c := range d.closers {
		if err := c.Close(); err != nil && firstErr == nil {
			firstErr = err
		}
	}
	return firstErr
}

// ProvideDependencies constructs the object store, both caches, the
// forwarder and the shipper. Nothing is fetched here; the caches fill on the
// first event.
func ProvideDependencies(ctx context.Context, cfg *infra_config.Config, logger *zap.Logger) (*Dependencies, error) {
	deps := &Dependencies{}

	store, err := provideObjectStore(ctx, cfg, logger, deps)
	if err != nil {
		return nil, err
	}
	deps.Store = store

	provider, secretName, err := provideSecretProvider(ctx, cfg, store)
	if err != nil {
		return nil, err
	}

	secretCache := secrets.NewCache(provider, secretName, logger.Named("secrets"))
	tables := identity.NewTableCache(store, cfg.Identity.Bucket, cfg.Identity.Object, logger.Named("identity"))
	fwd := forwarder.New(nil, forwarder.Options{
		Endpoint:        cfg.Forwarder.Endpoint,
		LogType:         cfg.Forwarder.LogType,
		MaxIdleConns:    cfg.Forwarder.MaxIdleConns,
		IdleConnTimeout: cfg.Forwarder.IdleConnTimeout,
	}, logger.Named("forwarder"))

	deps.Shipper = service.NewShipper(secretCache, tables, fwd, logger.Named("shipper"))
	return deps, nil
}

func provideObjectStore(ctx context.Context, cfg *infra_config.Config, logger *zap.Logger, deps *Dependencies) (domain.ObjectStore, error) {
	switch cfg.Storage.Provider {
	case infra_config.StorageGCS:
		store, err := persistence.NewGCSStorage(ctx, logger.Named("gcs"))
		if err != nil {
			return nil, err
		}
		deps.closers = append(deps.closers, store)
		return store, nil
	case infra_config.StorageS3:
		awsCfg, err := awsconfig.LoadDefaultConfig(ctx, awsconfig.WithRegion(cfg.Storage.Region))
		if err != nil {
			return nil, fmt.Errorf("failed to load aws config: %w", err)
		}
		return persistence.NewS3Storage(awsCfg, logger.Named("s3")), nil
	default:
		return nil, fmt.Errorf("invalid storage provider: %s", cfg.Storage.Provider)
	}
}

func provideSecretProvider(ctx context.Context, cfg *infra_config.Config, store domain.ObjectStore) (secrets.Provider, string, error) {
	switch cfg.Secret.Source {
	case infra_config.SecretSourceObjectMetadata:
		return secrets.NewObjectMetadataProvider(store, cfg.Secret.Bucket, cfg.Secret.Object), cfg.Secret.MetadataKey, nil
	case infra_config.SecretSourceParameterStore:
		awsCfg, err := awsconfig.LoadDefaultConfig(ctx, awsconfig.WithRegion(cfg.Secret.Region))
		if err != nil {
			return nil, "", fmt.Errorf("failed to load aws config: %w", err)
		}
		return infra_secrets.NewParameterStore(awsCfg), cfg.Secret.ParameterName, nil
	default:
		return nil, "", fmt.Errorf("invalid secret source: %s", cfg.Secret.Source)
	}
}
