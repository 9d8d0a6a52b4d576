package secrets_test

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	app_errors "github.com/spounge-ai/logshipper/internal/errors"
	"github.com/spounge-ai/logshipper/internal/secrets"
	mockpersistence "github.com/spounge-ai/logshipper/tests/mocks/persistence"
)

func TestObjectMetadataProvider_CaseInsensitiveKey(t *testing.T) {
	store := mockpersistence.NewMockObjectStore()
	store.PutMetadata("secret-storage", "dev-logit.json", map[string]string{"api-key": "abc"})

	p := secrets.NewObjectMetadataProvider(store, "secret-storage", "dev-logit.json")
	v, err := p.GetSecret(context.Background(), "Api-Key")
	require.NoError(t, err)
	assert.Equal(t, "abc", v)
}

func TestObjectMetadataProvider_MissingKey(t *testing.T) {
	store := mockpersistence.NewMockObjectStore()
	store.PutMetadata("secret-storage", "dev-logit.json", map[string]string{"other": "x"})

	p := secrets.NewObjectMetadataProvider(store, "secret-storage", "dev-logit.json")
	_, err := p.GetSecret(context.Background(), "Api-Key")
	require.Error(t, err)
}

func TestCache_FetchesOnce(t *testing.T) {
	store := mockpersistence.NewMockObjectStore()
	store.PutMetadata("secret-storage", "dev-logit.json", map[string]string{"Api-Key": "abc"})
	c := secrets.NewCache(secrets.NewObjectMetadataProvider(store, "secret-storage", "dev-logit.json"), "Api-Key", zap.NewNop())

	assert.False(t, c.Loaded())
	for i := 0; i < 3; i++ {
		v, err := c.Ensure(context.Background())
		require.NoError(t, err)
		assert.Equal(t, "abc", v)
	}

	md, _ := store.Calls()
	assert.Equal(t, 1, md)
	assert.True(t, c.Loaded())
}

func TestCache_FailureIsSecretUnavailableAndNotCached(t *testing.T) {
	store := mockpersistence.NewMockObjectStore()
	store.MetadataErr = errors.New("permission denied")
	c := secrets.NewCache(secrets.NewObjectMetadataProvider(store, "secret-storage", "dev-logit.json"), "Api-Key", zap.NewNop())

	_, err := c.Ensure(context.Background())
	require.ErrorIs(t, err, app_errors.ErrSecretUnavailable)
	assert.False(t, c.Loaded())

	store.MetadataErr = nil
	store.PutMetadata("secret-storage", "dev-logit.json", map[string]string{"Api-Key": "abc"})
	v, err := c.Ensure(context.Background())
	require.NoError(t, err)
	assert.Equal(t, "abc", v)

	md, _ := store.Calls()
	assert.Equal(t, 2, md)
}

func TestCache_EmptySecretIsUnavailable(t *testing.T) {
	store := mockpersistence.NewMockObjectStore()
	store.PutMetadata("secret-storage", "dev-logit.json", map[string]string{"Api-Key": ""})
	c := secrets.NewCache(secrets.NewObjectMetadataProvider(store, "secret-storage", "dev-logit.json"), "Api-Key", zap.NewNop())

	_, err := c.Ensure(context.Background())
	require.ErrorIs(t, err, app_errors.ErrSecretUnavailable)
	assert.False(t, c.Loaded())
}
