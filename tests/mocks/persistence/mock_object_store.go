package persistence

import (
	"context"
	"fmt"
	"sync"
)

// MockObjectStore is an in-memory domain.ObjectStore that counts calls.
type MockObjectStore struct {
	mu            sync.Mutex
	metadata      map[string]map[string]string
	contents      map[string][]byte
	MetadataErr   error
	DownloadErr   error
	MetadataCalls int
	DownloadCalls int
}

func NewMockObjectStore() *MockObjectStore {
	return &MockObjectStore{
		metadata: make(map[string]map[string]string),
		contents: make(map[string][]byte),
	}
}

func objectPath(bucket, object string) string {
	return bucket + "/" + object
}

// PutMetadata sets the user metadata returned for an object.
func (m *MockObjectStore) PutMetadata(bucket, object string, metadata map[string]string) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.metadata[objectPath(bucket, object)] = metadata
}

// PutObject sets the contents returned for an object.
func (m *MockObjectStore) PutObject(bucket, object string, data []byte) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.contents[objectPath(bucket, object)] = data
}

func (m *MockObjectStore) ObjectMetadata(ctx context.Context, bucket, object string) (map[string]string, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.MetadataCalls++
	if m.MetadataErr != nil {
		return nil, m.MetadataErr
	}
	md, ok := m.metadata[objectPath(bucket, object)]
	if !ok {
		return nil, fmt.Errorf("mock: object not found: %s", objectPath(bucket, object))
	}
	return md, nil
}

func (m *MockObjectStore) Download(ctx context.Context, bucket, object string) ([]byte, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.DownloadCalls++
	if m.DownloadErr != nil {
		return nil, m.DownloadErr
	}
	data, ok := m.contents[objectPath(bucket, object)]
	if !ok {
		return nil, fmt.Errorf("mock: object not found: %s", objectPath(bucket, object))
	}
	return data, nil
}

// Calls returns the number of metadata and download calls so far.
func (m *MockObjectStore) Calls() (metadata, download int) {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.MetadataCalls, m.DownloadCalls
}
