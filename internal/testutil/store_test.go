package testutil

import (
	"bytes"
	"context"
	"io"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mediaforge/assetstore"
)

func TestMemStoreContract(t *testing.T) {
	store := NewMemStore()
	ctx := context.Background()

	// Missing key wraps ErrNotFound
	_, _, err := store.Get(ctx, "missing")
	assert.True(t, assetstore.IsNotFound(err))

	// Put then get round trip
	require.NoError(t, store.Put(ctx, "k", bytes.NewReader([]byte("v")), &assetstore.PutOptions{ContentType: "text/plain"}))
	rc, info, err := store.Get(ctx, "k")
	require.NoError(t, err)
	got, err := io.ReadAll(rc)
	require.NoError(t, err)
	require.NoError(t, rc.Close())
	assert.Equal(t, []byte("v"), got)
	assert.Equal(t, "text/plain", info.ContentType)
	assert.Equal(t, int64(1), info.ContentLength)

	// Overwrite is silent
	require.NoError(t, store.Put(ctx, "k", bytes.NewReader([]byte("v2")), nil))
	assert.Equal(t, []byte("v2"), store.Data("k"))

	// Delete is idempotent
	require.NoError(t, store.Delete(ctx, "k"))
	require.NoError(t, store.Delete(ctx, "k"))

	gets, puts, deletes := store.Calls()
	assert.Equal(t, 2, gets)
	assert.Equal(t, 2, puts)
	assert.Equal(t, 2, deletes)
}

func TestMemStoreHonorsContext(t *testing.T) {
	store := NewMemStore()
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	assert.Error(t, store.Put(ctx, "k", bytes.NewReader(nil), nil))
	_, _, err := store.Get(ctx, "k")
	assert.Error(t, err)
	assert.Error(t, store.Delete(ctx, "k"))
}
