package service_test

import (
	"context"
	"encoding/base64"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/spounge-ai/logshipper/internal/domain"
	app_errors "github.com/spounge-ai/logshipper/internal/errors"
	"github.com/spounge-ai/logshipper/internal/forwarder"
	"github.com/spounge-ai/logshipper/internal/identity"
	"github.com/spounge-ai/logshipper/internal/secrets"
	"github.com/spounge-ai/logshipper/internal/service"
	mockpersistence "github.com/spounge-ai/logshipper/tests/mocks/persistence"
)

const (
	bucket       = "secret-storage"
	secretObject = "dev-logit.json"
	lookupObject = "userLookups.json"
	metadataKey  = "Api-Key"
)

type ingest struct {
	mu      sync.Mutex
	bodies  []map[string]interface{}
	apiKeys []string
	status  int
}

func (i *ingest) handler() http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		i.mu.Lock()
		defer i.mu.Unlock()
		raw, _ := io.ReadAll(r.Body)
		var body map[string]interface{}
		_ = json.Unmarshal(raw, &body)
		i.bodies = append(i.bodies, body)
		i.apiKeys = append(i.apiKeys, r.Header.Get("ApiKey"))
		if i.status != 0 {
			w.WriteHeader(i.status)
		}
	})
}

func (i *ingest) count() int {
	i.mu.Lock()
	defer i.mu.Unlock()
	return len(i.bodies)
}

type fixture struct {
	store   *mockpersistence.MockObjectStore
	ingest  *ingest
	shipper service.LogShipper
	tables  *identity.TableCache
}

func newFixture(t *testing.T) *fixture {
	t.Helper()

	store := mockpersistence.NewMockObjectStore()
	store.PutMetadata(bucket, secretObject, map[string]string{metadataKey: "k3y"})
	store.PutObject(bucket, lookupObject, []byte(`{"alice@example.org":"subject-alice"}`))

	in := &ingest{}
	srv := httptest.NewServer(in.handler())
	t.Cleanup(srv.Close)

	logger := zap.NewNop()
	secretCache := secrets.NewCache(secrets.NewObjectMetadataProvider(store, bucket, secretObject), metadataKey, logger)
	tables := identity.NewTableCache(store, bucket, lookupObject, logger)
	fwd := forwarder.New(srv.Client(), forwarder.Options{Endpoint: srv.URL}, logger)

	return &fixture{
		store:   store,
		ingest:  in,
		shipper: service.NewShipper(secretCache, tables, fwd, logger),
		tables:  tables,
	}
}

func auditEvent(principal string) *domain.Event {
	body := `{"timestamp":"T1","protoPayload":{"authenticationInfo":{"principalEmail":"` + principal + `"}}}`
	return &domain.Event{Data: &domain.Message{Data: base64.StdEncoding.EncodeToString([]byte(body))}}
}

func TestHandle_PetPrincipalEndToEnd(t *testing.T) {
	f := newFixture(t)

	res, err := f.shipper.Handle(context.Background(), auditEvent("pet-abc123@project.iam.gserviceaccount.com"))
	require.NoError(t, err)
	require.NotNil(t, res)
	assert.NotEmpty(t, res.InvocationID)
	assert.Equal(t, identity.MethodPrefix, res.Method)

	require.Equal(t, 1, f.ingest.count())
	assert.Equal(t, map[string]interface{}{
		"timestamp":      "T1",
		"principalEmail": "pet-abc123@project.iam.gserviceaccount.com",
		"subjectId":      "abc123",
		"manualLookup":   false,
	}, f.ingest.bodies[0])
	assert.Equal(t, "k3y", f.ingest.apiKeys[0])

	_, downloads := f.store.Calls()
	assert.Zero(t, downloads, "fast path must not touch the identity table")
	assert.False(t, f.tables.Loaded())
}

func TestHandle_SecretFetchedOnce(t *testing.T) {
	f := newFixture(t)
	assert.False(t, f.shipper.Ready())

	_, err := f.shipper.Handle(context.Background(), auditEvent("pet-a@x.com"))
	require.NoError(t, err)
	md, _ := f.store.Calls()
	assert.Equal(t, 1, md)
	assert.True(t, f.shipper.Ready())

	_, err = f.shipper.Handle(context.Background(), auditEvent("pet-b@x.com"))
	require.NoError(t, err)
	md, _ = f.store.Calls()
	assert.Equal(t, 1, md)
	assert.Equal(t, 2, f.ingest.count())
}

func TestHandle_TableLoadedOnceThenReused(t *testing.T) {
	f := newFixture(t)

	res, err := f.shipper.Handle(context.Background(), auditEvent("alice@example.org"))
	require.NoError(t, err)
	assert.Equal(t, identity.MethodLookup, res.Method)
	assert.Equal(t, "subject-alice", res.Payload.SubjectID)
	assert.True(t, res.Payload.ManualLookup)

	res, err = f.shipper.Handle(context.Background(), auditEvent("bob@example.org"))
	require.NoError(t, err)
	assert.Equal(t, identity.MethodUnresolved, res.Method)
	assert.Equal(t, domain.UnknownSubject, res.Payload.SubjectID)
	assert.False(t, res.Payload.ManualLookup)

	_, downloads := f.store.Calls()
	assert.Equal(t, 1, downloads)
	require.Equal(t, 2, f.ingest.count())
	assert.Equal(t, true, f.ingest.bodies[0]["manualLookup"])
	assert.Equal(t, "unknown", f.ingest.bodies[1]["subjectId"])
}

func TestHandle_NoDataDoesNotForward(t *testing.T) {
	f := newFixture(t)

	_, err := f.shipper.Handle(context.Background(), &domain.Event{})
	require.ErrorIs(t, err, app_errors.ErrNoData)
	assert.Zero(t, f.ingest.count())
}

func TestHandle_SecretUnavailable(t *testing.T) {
	f := newFixture(t)
	f.store.MetadataErr = errors.New("forbidden")

	_, err := f.shipper.Handle(context.Background(), auditEvent("pet-a@x.com"))
	require.ErrorIs(t, err, app_errors.ErrSecretUnavailable)
	assert.Zero(t, f.ingest.count())
	assert.False(t, f.shipper.Ready())
}

func TestHandle_IdentityTableUnavailable(t *testing.T) {
	f := newFixture(t)
	f.store.DownloadErr = errors.New("not found")

	_, err := f.shipper.Handle(context.Background(), auditEvent("alice@example.org"))
	require.ErrorIs(t, err, app_errors.ErrIdentityTableUnavailable)
	assert.Zero(t, f.ingest.count())

	f.store.DownloadErr = nil
	res, err := f.shipper.Handle(context.Background(), auditEvent("alice@example.org"))
	require.NoError(t, err)
	assert.Equal(t, "subject-alice", res.Payload.SubjectID)
}

func TestHandle_ForwardFailurePropagates(t *testing.T) {
	f := newFixture(t)
	f.ingest.status = http.StatusInternalServerError

	_, err := f.shipper.Handle(context.Background(), auditEvent("pet-a@x.com"))
	require.ErrorIs(t, err, app_errors.ErrForwardFailure)
	assert.Equal(t, 1, f.ingest.count(), "forwarding must not be retried")
}
