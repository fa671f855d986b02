package assetstore

import (
	"bytes"
	"context"
	"io"
	"strings"
	"sync"
	"time"

	"go.uber.org/zap"
)

// Adapter implements the Storage contract over one ObjectStore. All fields
// are read-only after construction, so concurrent Save/Read/Delete/Serve
// invocations need no locking.
type Adapter struct {
	store    ObjectStore
	bucket   string
	host     string
	prefix   string
	acl      string
	cache    string
	logger   *zap.Logger
	metrics  *Metrics
	variants *VariantGenerator

	onVariant func(Variant, error)
}

var _ Storage = (*Adapter)(nil)

// New builds an Adapter from a sanitized configuration and a store
// capability. The asset host is computed once here and is immutable for
// the adapter's lifetime.
func New(store ObjectStore, cfg *Config, opts ...Option) (*Adapter, error) {
	cfg = cfg.Sanitize()
	if err := ValidateConfig(cfg); err != nil {
		return nil, err
	}

	options := &Options{}
	for _, opt := range opts {
		opt(options)
	}
	options.applyDefaults()

	var variants *VariantGenerator
	if len(options.widths) > 0 {
		variants = NewVariantGenerator(options.resizer, options.widths)
	}

	return &Adapter{
		store:     store,
		bucket:    cfg.Bucket,
		host:      cfg.ResolvedAssetHost(),
		prefix:    cfg.PathPrefix,
		acl:       cfg.ACL,
		cache:     DefaultCacheControl,
		logger:    options.logger,
		metrics:   options.metrics,
		variants:  variants,
		onVariant: options.onVariant,
	}, nil
}

// AssetHost returns the public base URL this adapter's objects live under
func (a *Adapter) AssetHost() string {
	return a.host
}

// Save stores the upload under a collision-free key and returns its public
// URL. The primary put and the derivative pipeline run concurrently; only
// the primary put decides the outcome. Derivative failures are logged and
// never surface to the caller.
func (a *Adapter) Save(ctx context.Context, upload Upload, targetDir string) (string, error) {
	start := time.Now()

	dir := targetDir
	if dir == "" {
		dir = a.prefix
	}

	data, err := io.ReadAll(upload.Body)
	if err != nil {
		werr := &StorageError{Op: "save", Key: upload.Name, Err: err}
		a.metrics.observe("save", start, werr)
		return "", werr
	}

	key, err := UniqueKey(ctx, dir, upload.Name, a.probe)
	if err != nil {
		a.metrics.observe("save", start, err)
		return "", err
	}

	a.logger.Debug("saving object",
		zap.String("key", key),
		zap.String("content_type", upload.ContentType),
		zap.Int("size", len(data)))

	putErr := make(chan error, 1)
	go func() {
		putErr <- a.store.Put(ctx, key, bytes.NewReader(data), &PutOptions{
			ContentType:  upload.ContentType,
			CacheControl: a.cache,
			ACL:          a.acl,
		})
	}()

	a.spawnVariants(ctx, data, dir, baseName(key))

	if err := <-putErr; err != nil {
		a.metrics.observe("save", start, err)
		return "", wrapError("save", key, err)
	}

	a.metrics.observe("save", start, nil)
	a.metrics.observeBytes("save", int64(len(data)))

	return a.host + "/" + key, nil
}

// spawnVariants fires the derivative ladder as a detached task group: one
// goroutine per width, awaited only for logging. The group outlives the
// request, so it is decoupled from the caller's cancellation.
func (a *Adapter) spawnVariants(ctx context.Context, src []byte, dir, base string) {
	if a.variants == nil {
		return
	}

	detached := context.WithoutCancel(ctx)

	var wg sync.WaitGroup
	for _, width := range a.variants.Widths() {
		wg.Add(1)
		go func(width int) {
			defer wg.Done()
			v, err := a.uploadVariant(detached, src, dir, base, width)
			a.metrics.observeVariant(err)
			if err != nil {
				a.logger.Warn("variant generation failed",
					zap.String("base", base),
					zap.Int("width", width),
					zap.Error(err))
			}
			if a.onVariant != nil {
				a.onVariant(v, err)
			}
		}(width)
	}

	go func() {
		wg.Wait()
		a.logger.Debug("variant pipeline finished", zap.String("base", base))
	}()
}

func (a *Adapter) uploadVariant(ctx context.Context, src []byte, dir, base string, width int) (Variant, error) {
	v, err := a.variants.Render(src, dir, base, width)
	if err != nil {
		return Variant{Width: width}, err
	}

	err = a.store.Put(ctx, v.Key, bytes.NewReader(v.Data), &PutOptions{
		ContentType:  v.ContentType,
		CacheControl: a.cache,
		ACL:          a.acl,
	})
	if err != nil {
		return v, wrapError("save_variant", v.Key, err)
	}

	a.logger.Debug("variant stored",
		zap.String("key", v.Key),
		zap.Int("width", v.Width),
		zap.Int("size", len(v.Data)))

	return v, nil
}

// Exists reports whether fileName is present under targetDir. The probe is
// a full Get, not a metadata-only check; any failure, not-found included,
// degrades to false.
func (a *Adapter) Exists(ctx context.Context, fileName, targetDir string) bool {
	start := time.Now()

	dir := targetDir
	if dir == "" {
		dir = a.prefix
	}

	ok := a.probe(ctx, JoinKey(dir, fileName))
	a.metrics.observe("exists", start, nil)
	return ok
}

func (a *Adapter) probe(ctx context.Context, key string) bool {
	rc, _, err := a.store.Get(ctx, key)
	if err != nil {
		return false
	}
	rc.Close()
	return true
}

// Delete removes fileName under targetDir. Best effort and idempotent:
// any store failure degrades to false, nothing is surfaced as an error.
func (a *Adapter) Delete(ctx context.Context, fileName, targetDir string) bool {
	start := time.Now()

	dir := targetDir
	if dir == "" {
		dir = a.prefix
	}
	key := JoinKey(dir, fileName)

	if err := a.store.Delete(ctx, key); err != nil {
		a.logger.Warn("delete failed", zap.String("key", key), zap.Error(err))
		a.metrics.observe("delete", start, err)
		return false
	}

	a.metrics.observe("delete", start, nil)
	return true
}

// Read fetches the object behind a public URL or path owned by this
// adapter and buffers the whole payload in memory. Paths outside the
// adapter's asset host fail with ErrNotOwned before any store call.
func (a *Adapter) Read(ctx context.Context, pathOrURL string) ([]byte, error) {
	start := time.Now()

	p := strings.TrimRight(pathOrURL, `/\`)
	if !strings.HasPrefix(p, a.host) {
		err := &StorageError{Op: "read", Key: p, Err: ErrNotOwned}
		a.metrics.observe("read", start, err)
		return nil, err
	}

	key := NormalizeKey(strings.TrimPrefix(p, a.host))

	rc, _, err := a.store.Get(ctx, key)
	if err != nil {
		werr := wrapError("read", key, err)
		a.metrics.observe("read", start, werr)
		return nil, werr
	}
	defer rc.Close()

	data, err := io.ReadAll(rc)
	if err != nil {
		werr := wrapError("read", key, err)
		a.metrics.observe("read", start, werr)
		return nil, werr
	}

	a.metrics.observe("read", start, nil)
	a.metrics.observeBytes("read", int64(len(data)))
	return data, nil
}

// baseName returns the file name part of a key
func baseName(key string) string {
	if i := strings.LastIndexByte(key, '/'); i >= 0 {
		return key[i+1:]
	}
	return key
}
