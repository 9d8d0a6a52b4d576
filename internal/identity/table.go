package identity

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/spounge-ai/logshipper/internal/domain"
	app_errors "github.com/spounge-ai/logshipper/internal/errors"
	"github.com/spounge-ai/logshipper/internal/metrics"
	"github.com/spounge-ai/logshipper/pkg/cache"
	"go.uber.org/zap"
)

// Table maps a principal email to a subject id.
type Table map[string]string

// Lookup returns the subject id mapped to principal.
func (t Table) Lookup(principal string) (string, bool) {
	subjectID, ok := t[principal]
	return subjectID, ok
}

// TableCache holds the identity table for the lifetime of the process. The
// table is downloaded the first time a principal needs a manual lookup and
// never refreshed.
type TableCache struct {
	store  domain.ObjectStore
	bucket string
	object string
	table  *cache.Lazy[Table]
	logger *zap.Logger
}

func NewTableCache(store domain.ObjectStore, bucket, object string, logger *zap.Logger) *TableCache {
	tc := &TableCache{
		store:  store,
		bucket: bucket,
		object: object,
		logger: logger,
	}
	tc.table = cache.NewLazy(cache.WithOnLoad(func(t Table) {
		tc.logger.Info("identity table cached", zap.Int("entries", len(t)))
	}))
	return tc
}

// Table returns the cached table without doing any I/O.
func (tc *TableCache) Table() (Table, bool) {
	return tc.table.Get()
}

// Loaded reports whether the table has been cached.
func (tc *TableCache) Loaded() bool {
	return tc.table.Loaded()
}

// Ensure returns the table, downloading it first if it is not cached yet.
// A failed download or parse is returned as ErrIdentityTableUnavailable.
func (tc *TableCache) Ensure(ctx context.Context) (Table, error) {
	return tc.table.Ensure(ctx, tc.fetch)
}

func (tc *TableCache) fetch(ctx context.Context) (Table, error) {
	tc.logger.Info("identity table read in progress",
		zap.String("bucket", tc.bucket),
		zap.String("object", tc.object),
	)

	table, err := tc.download(ctx)
	metrics.IdentityTableFetches.WithLabelValues(metrics.Result(err)).Inc()
	if err != nil {
		tc.logger.Error("failed to load identity table", zap.Error(err))
		return nil, fmt.Errorf("%w: %w", app_errors.ErrIdentityTableUnavailable, err)
	}
	return table, nil
}

func (tc *TableCache) download(ctx context.Context) (Table, error) {
	data, err := tc.store.Download(ctx, tc.bucket, tc.object)
	if err != nil {
		return nil, fmt.Errorf("failed to download %s/%s: %w", tc.bucket, tc.object, err)
	}

	var table Table
	if err := json.Unmarshal(data, &table); err != nil {
		return nil, fmt.Errorf("failed to parse %s/%s: %w", tc.bucket, tc.object, err)
	}
	if table == nil {
		return nil, fmt.Errorf("%s/%s does not contain a JSON object", tc.bucket, tc.object)
	}
	return table, nil
}
