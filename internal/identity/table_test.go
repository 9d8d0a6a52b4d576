package identity_test

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	app_errors "github.com/spounge-ai/logshipper/internal/errors"
	"github.com/spounge-ai/logshipper/internal/identity"
	mockpersistence "github.com/spounge-ai/logshipper/tests/mocks/persistence"
)

func TestTableCache_DownloadsOnce(t *testing.T) {
	store := mockpersistence.NewMockObjectStore()
	store.PutObject("secret-storage", "userLookups.json", []byte(`{"alice@example.org":"s-1"}`))
	tc := identity.NewTableCache(store, "secret-storage", "userLookups.json", zap.NewNop())

	_, ok := tc.Table()
	assert.False(t, ok)

	for i := 0; i < 2; i++ {
		table, err := tc.Ensure(context.Background())
		require.NoError(t, err)
		subject, found := table.Lookup("alice@example.org")
		assert.True(t, found)
		assert.Equal(t, "s-1", subject)
	}

	_, downloads := store.Calls()
	assert.Equal(t, 1, downloads)
	assert.True(t, tc.Loaded())

	table, ok := tc.Table()
	assert.True(t, ok)
	assert.Len(t, table, 1)
}

func TestTableCache_ParseFailure(t *testing.T) {
	for name, body := range map[string]string{
		"not json":       `{"alice":`,
		"array":          `["alice"]`,
		"null":           `null`,
		"non string ids": `{"alice@example.org": 42}`,
	} {
		t.Run(name, func(t *testing.T) {
			store := mockpersistence.NewMockObjectStore()
			store.PutObject("b", "o", []byte(body))
			tc := identity.NewTableCache(store, "b", "o", zap.NewNop())

			_, err := tc.Ensure(context.Background())
			require.ErrorIs(t, err, app_errors.ErrIdentityTableUnavailable)
			assert.False(t, tc.Loaded())
		})
	}
}

func TestTableCache_DownloadFailure(t *testing.T) {
	store := mockpersistence.NewMockObjectStore()
	tc := identity.NewTableCache(store, "b", "missing.json", zap.NewNop())

	_, err := tc.Ensure(context.Background())
	require.ErrorIs(t, err, app_errors.ErrIdentityTableUnavailable)
}
