// Package testutil provides an in-memory ObjectStore for adapter tests.
package testutil

import (
	"bytes"
	"context"
	"io"
	"sync"

	"github.com/mediaforge/assetstore"
)

// MemStore is a thread-safe in-memory assetstore.ObjectStore. It mirrors
// the S3 contract the adapter relies on: put overwrites, get on a missing
// key wraps ErrNotFound, delete of an absent key succeeds.
type MemStore struct {
	mu      sync.RWMutex
	objects map[string]*memObject

	gets    int
	puts    int
	deletes int

	// PutErr, when set, fails every Put whose key matches
	PutErr func(key string) error
}

type memObject struct {
	data []byte
	info assetstore.ObjectInfo
}

// NewMemStore creates an empty in-memory store
func NewMemStore() *MemStore {
	return &MemStore{objects: make(map[string]*memObject)}
}

// Put stores an object, overwriting an existing key
func (m *MemStore) Put(ctx context.Context, key string, body io.Reader, opts *assetstore.PutOptions) error {
	if err := ctx.Err(); err != nil {
		return &assetstore.StorageError{Op: "put", Key: key, Err: err}
	}
	if opts == nil {
		opts = &assetstore.PutOptions{}
	}

	data, err := io.ReadAll(body)
	if err != nil {
		return &assetstore.StorageError{Op: "put", Key: key, Err: err}
	}

	m.mu.Lock()
	defer m.mu.Unlock()
	m.puts++

	if m.PutErr != nil {
		if err := m.PutErr(key); err != nil {
			return &assetstore.StorageError{Op: "put", Key: key, Err: err}
		}
	}

	m.objects[key] = &memObject{
		data: data,
		info: assetstore.ObjectInfo{
			AcceptRanges:  "bytes",
			CacheControl:  opts.CacheControl,
			ContentLength: int64(len(data)),
			ContentType:   opts.ContentType,
			ETag:          `"mem"`,
		},
	}
	return nil
}

// Get retrieves a stored object or an error wrapping ErrNotFound
func (m *MemStore) Get(ctx context.Context, key string) (io.ReadCloser, assetstore.ObjectInfo, error) {
	if err := ctx.Err(); err != nil {
		return nil, assetstore.ObjectInfo{}, &assetstore.StorageError{Op: "get", Key: key, Err: err}
	}

	m.mu.Lock()
	m.gets++
	obj, ok := m.objects[key]
	m.mu.Unlock()

	if !ok {
		return nil, assetstore.ObjectInfo{}, &assetstore.StorageError{Op: "get", Key: key, Err: assetstore.ErrNotFound}
	}

	return io.NopCloser(bytes.NewReader(obj.data)), obj.info, nil
}

// Delete removes an object; absent keys are not an error
func (m *MemStore) Delete(ctx context.Context, key string) error {
	if err := ctx.Err(); err != nil {
		return &assetstore.StorageError{Op: "delete", Key: key, Err: err}
	}

	m.mu.Lock()
	defer m.mu.Unlock()
	m.deletes++
	delete(m.objects, key)
	return nil
}

// Keys returns all stored keys
func (m *MemStore) Keys() []string {
	m.mu.RLock()
	defer m.mu.RUnlock()
	keys := make([]string, 0, len(m.objects))
	for k := range m.objects {
		keys = append(keys, k)
	}
	return keys
}

// Data returns the stored payload for key, or nil
func (m *MemStore) Data(key string) []byte {
	m.mu.RLock()
	defer m.mu.RUnlock()
	if obj, ok := m.objects[key]; ok {
		return obj.data
	}
	return nil
}

// Calls reports the per-operation call counts
func (m *MemStore) Calls() (gets, puts, deletes int) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.gets, m.puts, m.deletes
}
