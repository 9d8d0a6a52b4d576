package secrets

import (
	"context"
	"fmt"

	app_errors "github.com/spounge-ai/logshipper/internal/errors"
	"github.com/spounge-ai/logshipper/internal/metrics"
	"github.com/spounge-ai/logshipper/pkg/cache"
	"go.uber.org/zap"
)

// Cache holds the api key for the lifetime of the process. It is fetched on
// first use and never refreshed.
type Cache struct {
	provider Provider
	name     string
	value    *cache.Lazy[string]
	logger   *zap.Logger
}

func NewCache(provider Provider, name string, logger *zap.Logger) *Cache {
	c := &Cache{
		provider: provider,
		name:     name,
		logger:   logger,
	}
	c.value = cache.NewLazy(cache.WithOnLoad(func(string) {
		c.logger.Info("api key cached", zap.String("secret", c.name))
	}))
	return c
}

// Ensure returns the api key, fetching it first if it is not cached yet.
// A failed fetch is returned as ErrSecretUnavailable and not retried.
func (c *Cache) Ensure(ctx context.Context) (string, error) {
	return c.value.Ensure(ctx, c.fetch)
}

// Loaded reports whether the api key has been cached.
func (c *Cache) Loaded() bool {
	return c.value.Loaded()
}

func (c *Cache) fetch(ctx context.Context) (string, error) {
	c.logger.Debug("api key lookup in progress", zap.String("secret", c.name))

	secret, err := c.provider.GetSecret(ctx, c.name)
	if err == nil && secret == "" {
		err = fmt.Errorf("secret %q is empty", c.name)
	}
	metrics.SecretFetches.WithLabelValues(metrics.Result(err)).Inc()
	if err != nil {
		c.logger.Error("failed to retrieve api key", zap.String("secret", c.name), zap.Error(err))
		return "", fmt.Errorf("%w: %w", app_errors.ErrSecretUnavailable, err)
	}

	return secret, nil
}
