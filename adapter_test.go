package assetstore_test

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"image"
	"image/color"
	"image/png"
	"strings"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mediaforge/assetstore"
	"github.com/mediaforge/assetstore/internal/testutil"
)

func testConfig() *assetstore.Config {
	cfg := assetstore.DefaultConfig()
	cfg.Bucket = "media-test"
	cfg.PathPrefix = "content/images"
	return cfg
}

func testPNG(t *testing.T, w, h int) []byte {
	t.Helper()

	img := image.NewRGBA(image.Rect(0, 0, w, h))
	for y := 0; y < h; y++ {
		for x := 0; x < w; x++ {
			img.Set(x, y, color.RGBA{R: uint8(x), G: uint8(y), B: 200, A: 255})
		}
	}

	var buf bytes.Buffer
	require.NoError(t, png.Encode(&buf, img))
	return buf.Bytes()
}

// variantWaiter synchronizes tests with the detached variant group
type variantWaiter struct {
	wg   sync.WaitGroup
	mu   sync.Mutex
	errs []error
}

func newVariantWaiter(n int) *variantWaiter {
	w := &variantWaiter{}
	w.wg.Add(n)
	return w
}

func (w *variantWaiter) callback(v assetstore.Variant, err error) {
	w.mu.Lock()
	if err != nil {
		w.errs = append(w.errs, err)
	}
	w.mu.Unlock()
	w.wg.Done()
}

func TestNewRejectsInvalidConfig(t *testing.T) {
	cfg := assetstore.DefaultConfig() // no bucket
	_, err := assetstore.New(testutil.NewMemStore(), cfg)
	require.Error(t, err)
	assert.ErrorIs(t, err, assetstore.ErrInvalidConfig)
}

func TestSaveReturnsPublicURL(t *testing.T) {
	store := testutil.NewMemStore()
	adapter, err := assetstore.New(store, testConfig(), assetstore.WithWidths())
	require.NoError(t, err)

	data := testPNG(t, 64, 64)
	url, err := adapter.Save(context.Background(), assetstore.Upload{
		Name:        "photo.png",
		ContentType: "image/png",
		Body:        bytes.NewReader(data),
	}, "content/images/2026/08")
	require.NoError(t, err)

	assert.Equal(t, "https://media-test.s3.amazonaws.com/content/images/2026/08/photo.png", url)
	assert.Equal(t, data, store.Data("content/images/2026/08/photo.png"))
}

func TestSaveReadRoundTrip(t *testing.T) {
	store := testutil.NewMemStore()
	adapter, err := assetstore.New(store, testConfig(), assetstore.WithWidths())
	require.NoError(t, err)

	data := testPNG(t, 32, 32)
	url, err := adapter.Save(context.Background(), assetstore.Upload{
		Name:        "photo.png",
		ContentType: "image/png",
		Body:        bytes.NewReader(data),
	}, "")
	require.NoError(t, err)

	got, err := adapter.Read(context.Background(), url)
	require.NoError(t, err)
	assert.Equal(t, data, got)
}

func TestSaveAvoidsOverwrite(t *testing.T) {
	store := testutil.NewMemStore()
	adapter, err := assetstore.New(store, testConfig(), assetstore.WithWidths())
	require.NoError(t, err)

	first := []byte("first")
	second := []byte("second")

	url1, err := adapter.Save(context.Background(), assetstore.Upload{
		Name: "note.txt", ContentType: "text/plain", Body: bytes.NewReader(first),
	}, "docs")
	require.NoError(t, err)

	url2, err := adapter.Save(context.Background(), assetstore.Upload{
		Name: "note.txt", ContentType: "text/plain", Body: bytes.NewReader(second),
	}, "docs")
	require.NoError(t, err)

	assert.NotEqual(t, url1, url2)
	assert.True(t, strings.HasSuffix(url2, "/docs/note-1.txt"), "got %s", url2)
	assert.Equal(t, first, store.Data("docs/note.txt"))
	assert.Equal(t, second, store.Data("docs/note-1.txt"))
}

func TestSaveGeneratesVariants(t *testing.T) {
	store := testutil.NewMemStore()
	waiter := newVariantWaiter(2)

	adapter, err := assetstore.New(store, testConfig(),
		assetstore.WithWidths(480, 240),
		assetstore.WithVariantCallback(waiter.callback))
	require.NoError(t, err)

	_, err = adapter.Save(context.Background(), assetstore.Upload{
		Name:        "photo.png",
		ContentType: "image/png",
		Body:        bytes.NewReader(testPNG(t, 800, 600)),
	}, "2026/08")
	require.NoError(t, err)

	waiter.wg.Wait()
	assert.Empty(t, waiter.errs)
	assert.NotNil(t, store.Data("2026/08/size/w480/photo.jpg"))
	assert.NotNil(t, store.Data("2026/08/size/w240/photo.jpg"))
}

func TestSaveVariantFailureDoesNotFailSave(t *testing.T) {
	store := testutil.NewMemStore()
	waiter := newVariantWaiter(len(assetstore.DefaultWidths))

	adapter, err := assetstore.New(store, testConfig(),
		assetstore.WithVariantCallback(waiter.callback))
	require.NoError(t, err)

	// Corrupt source: every width fails to decode, the primary put still wins
	url, err := adapter.Save(context.Background(), assetstore.Upload{
		Name:        "broken.png",
		ContentType: "image/png",
		Body:        bytes.NewReader([]byte("not an image at all")),
	}, "2026/08")
	require.NoError(t, err)
	assert.Contains(t, url, "2026/08/broken.png")

	waiter.wg.Wait()
	assert.Len(t, waiter.errs, len(assetstore.DefaultWidths))
	assert.Equal(t, []byte("not an image at all"), store.Data("2026/08/broken.png"))
}

func TestSavePartialLadder(t *testing.T) {
	store := testutil.NewMemStore()
	store.PutErr = func(key string) error {
		// Fail the lower half of the ladder only
		for _, w := range []int{960, 480, 240} {
			if strings.Contains(key, fmt.Sprintf("/w%d/", w)) {
				return errors.New("upload rejected")
			}
		}
		return nil
	}

	widths := []int{1920, 1440, 960, 480, 240}
	waiter := newVariantWaiter(len(widths))

	adapter, err := assetstore.New(store, testConfig(),
		assetstore.WithWidths(widths...),
		assetstore.WithVariantCallback(waiter.callback))
	require.NoError(t, err)

	url, err := adapter.Save(context.Background(), assetstore.Upload{
		Name:        "photo.png",
		ContentType: "image/png",
		Body:        bytes.NewReader(testPNG(t, 2048, 1536)),
	}, "2026/08")
	require.NoError(t, err)
	assert.Contains(t, url, "2026/08/photo.png")

	waiter.wg.Wait()
	assert.Len(t, waiter.errs, 3)
	assert.NotNil(t, store.Data("2026/08/size/w1920/photo.jpg"))
	assert.NotNil(t, store.Data("2026/08/size/w1440/photo.jpg"))
	assert.Nil(t, store.Data("2026/08/size/w480/photo.jpg"))
}

func TestSavePrimaryPutFailurePropagates(t *testing.T) {
	store := testutil.NewMemStore()
	store.PutErr = func(key string) error {
		if !strings.Contains(key, "/size/") {
			return errors.New("service unavailable")
		}
		return nil
	}

	adapter, err := assetstore.New(store, testConfig(), assetstore.WithWidths())
	require.NoError(t, err)

	_, err = adapter.Save(context.Background(), assetstore.Upload{
		Name: "photo.png", ContentType: "image/png", Body: bytes.NewReader([]byte("x")),
	}, "2026/08")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "service unavailable")
}

func TestExistsLifecycle(t *testing.T) {
	store := testutil.NewMemStore()
	adapter, err := assetstore.New(store, testConfig(), assetstore.WithWidths())
	require.NoError(t, err)

	ctx := context.Background()

	assert.False(t, adapter.Exists(ctx, "photo.png", "2026/08"))

	_, err = adapter.Save(ctx, assetstore.Upload{
		Name: "photo.png", ContentType: "image/png", Body: bytes.NewReader([]byte("x")),
	}, "2026/08")
	require.NoError(t, err)

	assert.True(t, adapter.Exists(ctx, "photo.png", "2026/08"))

	assert.True(t, adapter.Delete(ctx, "photo.png", "2026/08"))
	assert.False(t, adapter.Exists(ctx, "photo.png", "2026/08"))
}

func TestDeleteAbsentKeyIsTrue(t *testing.T) {
	adapter, err := assetstore.New(testutil.NewMemStore(), testConfig(), assetstore.WithWidths())
	require.NoError(t, err)

	// The store contract treats deleting a missing key as success
	assert.True(t, adapter.Delete(context.Background(), "never-there.png", "2026/08"))
}

func TestDeleteUsesPrefixWhenDirEmpty(t *testing.T) {
	store := testutil.NewMemStore()
	adapter, err := assetstore.New(store, testConfig(), assetstore.WithWidths())
	require.NoError(t, err)

	ctx := context.Background()
	_, err = adapter.Save(ctx, assetstore.Upload{
		Name: "photo.png", ContentType: "image/png", Body: bytes.NewReader([]byte("x")),
	}, "")
	require.NoError(t, err)

	assert.NotNil(t, store.Data("content/images/photo.png"))
	assert.True(t, adapter.Delete(ctx, "photo.png", ""))
	assert.Nil(t, store.Data("content/images/photo.png"))
}

func TestReadRejectsForeignHost(t *testing.T) {
	store := testutil.NewMemStore()
	adapter, err := assetstore.New(store, testConfig(), assetstore.WithWidths())
	require.NoError(t, err)

	_, err = adapter.Read(context.Background(), "https://other-bucket.s3.amazonaws.com/photo.png")
	require.Error(t, err)
	assert.ErrorIs(t, err, assetstore.ErrNotOwned)
	assert.True(t, assetstore.IsNotOwned(err))

	// Never reaches the store
	gets, _, _ := store.Calls()
	assert.Zero(t, gets)
}

func TestReadStripsTrailingSlash(t *testing.T) {
	store := testutil.NewMemStore()
	adapter, err := assetstore.New(store, testConfig(), assetstore.WithWidths())
	require.NoError(t, err)

	ctx := context.Background()
	url, err := adapter.Save(ctx, assetstore.Upload{
		Name: "photo.png", ContentType: "image/png", Body: bytes.NewReader([]byte("x")),
	}, "2026/08")
	require.NoError(t, err)

	got, err := adapter.Read(ctx, url+"/")
	require.NoError(t, err)
	assert.Equal(t, []byte("x"), got)
}

func TestReadMissingObject(t *testing.T) {
	adapter, err := assetstore.New(testutil.NewMemStore(), testConfig(), assetstore.WithWidths())
	require.NoError(t, err)

	_, err = adapter.Read(context.Background(), "https://media-test.s3.amazonaws.com/nope.png")
	require.Error(t, err)
	assert.True(t, assetstore.IsNotFound(err))
}

func TestAssetHostOverride(t *testing.T) {
	cfg := testConfig()
	cfg.AssetHost = "https://cdn.example.com"

	store := testutil.NewMemStore()
	adapter, err := assetstore.New(store, cfg, assetstore.WithWidths())
	require.NoError(t, err)

	assert.Equal(t, "https://cdn.example.com", adapter.AssetHost())

	url, err := adapter.Save(context.Background(), assetstore.Upload{
		Name: "photo.png", ContentType: "image/png", Body: bytes.NewReader([]byte("x")),
	}, "2026/08")
	require.NoError(t, err)
	assert.Equal(t, "https://cdn.example.com/2026/08/photo.png", url)
}
