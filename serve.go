package assetstore

import (
	"io"
	"net/http"
	"strconv"
	"strings"
	"time"
)

// Serve returns a request handler bound to this adapter. The handler keys
// the store lookup off the adapter's path prefix plus the request path,
// relays the object stream straight to the response (memory footprint is
// one copy chunk, not the object size) and maps every store-reported
// metadata field onto a response header. On failure it writes nothing and
// returns a typed error for the host's error-translation layer: a missing
// object yields ErrNotFound, anything else a transport-classed error.
func (a *Adapter) Serve() Handler {
	prefix := strings.TrimSuffix(a.prefix, "/")

	return func(w http.ResponseWriter, r *http.Request) error {
		start := time.Now()

		key := NormalizeKey(prefix + r.URL.Path)

		rc, info, err := a.store.Get(r.Context(), key)
		if err != nil {
			werr := wrapError("serve", key, err)
			a.metrics.observe("serve", start, werr)
			return werr
		}
		defer rc.Close()

		writeObjectHeaders(w, info)

		// io.Copy pushes backpressure from the response sink onto the store
		// stream; a cancelled request context aborts the underlying fetch.
		n, err := io.Copy(w, rc)
		if err != nil {
			werr := wrapError("serve", key, err)
			a.metrics.observe("serve", start, werr)
			return werr
		}

		a.metrics.observe("serve", start, nil)
		a.metrics.observeBytes("serve", n)
		return nil
	}
}

// writeObjectHeaders maps each present ObjectInfo field to its response
// header. Absent fields are skipped entirely.
func writeObjectHeaders(w http.ResponseWriter, info ObjectInfo) {
	h := w.Header()

	if info.AcceptRanges != "" {
		h.Set("Accept-Ranges", info.AcceptRanges)
	}
	if info.CacheControl != "" {
		h.Set("Cache-Control", info.CacheControl)
	}
	if info.ContentDisposition != "" {
		h.Set("Content-Disposition", info.ContentDisposition)
	}
	if info.ContentEncoding != "" {
		h.Set("Content-Encoding", info.ContentEncoding)
	}
	if info.ContentLanguage != "" {
		h.Set("Content-Language", info.ContentLanguage)
	}
	if info.ContentLength >= 0 {
		h.Set("Content-Length", strconv.FormatInt(info.ContentLength, 10))
	}
	if info.ContentRange != "" {
		h.Set("Content-Range", info.ContentRange)
	}
	if info.ContentType != "" {
		h.Set("Content-Type", info.ContentType)
	}
	if info.ETag != "" {
		h.Set("ETag", info.ETag)
	}
}
