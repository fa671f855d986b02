// Package assetstore persists uploaded media into a single S3-compatible
// bucket, derives canonical public URLs, fans out resized derivative assets
// and serves objects back over HTTP with the store-reported metadata.
package assetstore

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
)

// Domain Errors - use errors.Is for checking
var (
	// ErrNotFound indicates the requested object was not found
	ErrNotFound = errors.New("assetstore: object not found")

	// ErrNotOwned indicates a path that is not prefixed by this adapter's
	// asset host and therefore is not stored here
	ErrNotOwned = errors.New("assetstore: path not owned by this asset host")

	// ErrInvalidConfig indicates the adapter configuration is invalid
	ErrInvalidConfig = errors.New("assetstore: invalid configuration")

	// ErrTransport indicates a network/auth/service failure at the store
	ErrTransport = errors.New("assetstore: store transport failure")

	// ErrKeySpaceExhausted indicates the unique-filename probe cap was hit
	// without finding a free key
	ErrKeySpaceExhausted = errors.New("assetstore: unable to derive a unique key")
)

// StorageError wraps underlying errors with additional context
type StorageError struct {
	Op  string // operation that failed
	Key string // object key (if applicable)
	Err error  // underlying error
}

func (e *StorageError) Error() string {
	if e.Key != "" {
		return fmt.Sprintf("assetstore %s %q: %v", e.Op, e.Key, e.Err)
	}
	return fmt.Sprintf("assetstore %s: %v", e.Op, e.Err)
}

func (e *StorageError) Unwrap() error {
	return e.Err
}

// wrapError adds operation context without double-wrapping errors that
// already carry it.
func wrapError(op, key string, err error) error {
	var se *StorageError
	if errors.As(err, &se) {
		return err
	}
	return &StorageError{Op: op, Key: key, Err: err}
}

// IsNotFound checks if an error is or wraps ErrNotFound
func IsNotFound(err error) bool {
	return errors.Is(err, ErrNotFound)
}

// IsNotOwned checks if an error is or wraps ErrNotOwned
func IsNotOwned(err error) bool {
	return errors.Is(err, ErrNotOwned)
}

// PutOptions configures a single object write
type PutOptions struct {
	// ContentType specifies the MIME type of the object
	ContentType string

	// CacheControl sets the Cache-Control header stored with the object
	CacheControl string

	// ACL is the canned ACL applied to the object (e.g. "public-read")
	ACL string
}

// ObjectInfo carries the store-reported metadata returned alongside a Get.
// A conforming store may omit any field: string fields are empty when the
// store did not report them, ContentLength is negative when unknown.
type ObjectInfo struct {
	AcceptRanges       string
	CacheControl       string
	ContentDisposition string
	ContentEncoding    string
	ContentLanguage    string
	ContentLength      int64
	ContentRange       string
	ContentType        string
	ETag               string
}

// ObjectStore is the thin capability the adapter needs from the remote
// object store. Construction of an implementation takes already-resolved
// credentials/region/endpoint; discovery chains live behind it.
type ObjectStore interface {
	// Put stores an object under key, silently overwriting an existing one
	Put(ctx context.Context, key string, body io.Reader, opts *PutOptions) error

	// Get retrieves an object as a streaming reader plus its metadata.
	// A missing key yields an error wrapping ErrNotFound.
	Get(ctx context.Context, key string) (io.ReadCloser, ObjectInfo, error)

	// Delete removes an object; deleting an absent key is not an error
	Delete(ctx context.Context, key string) error
}

// Upload is one inbound asset, produced by the caller per upload and
// consumed exactly once.
type Upload struct {
	// Name is the requested file name (base name, may carry an extension)
	Name string

	// ContentType is the caller-declared MIME type
	ContentType string

	// Body is the asset payload
	Body io.Reader
}

// Handler is an HTTP request handler that reports failures to the host's
// error-translation layer instead of writing a response body itself.
type Handler func(w http.ResponseWriter, r *http.Request) error

// Storage is the adapter's entire public contract: the save/read/exists/
// delete operations consumed by the host's upload pipeline plus the Serve
// capability consumed by its HTTP routing layer.
type Storage interface {
	// Save stores the upload and returns its public URL. Derivative
	// generation runs detached; its failure never fails Save.
	Save(ctx context.Context, upload Upload, targetDir string) (string, error)

	// Exists reports whether fileName is present under targetDir. It probes
	// with a full Get, so it carries a read cost on hot paths.
	Exists(ctx context.Context, fileName, targetDir string) bool

	// Delete removes fileName under targetDir, best effort
	Delete(ctx context.Context, fileName, targetDir string) bool

	// Read fetches the object behind a public URL or path owned by this
	// adapter, buffering the whole payload in memory. Unsuitable for very
	// large objects.
	Read(ctx context.Context, pathOrURL string) ([]byte, error)

	// Serve returns a streaming request handler bound to this adapter
	Serve() Handler
}
