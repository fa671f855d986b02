// Package assetstore is a single-bucket media storage adapter for
// S3-compatible object stores.
//
// The adapter saves uploaded assets under collision-free keys, derives
// their canonical public URL from the configured (or computed) asset host,
// generates a ladder of resized derivatives without ever blocking the
// primary write, and serves originals back over HTTP with the metadata the
// store reports.
//
// Basic usage:
//
//	cfg := assetstore.DefaultConfig()
//	cfg.Bucket = "media"
//	cfg.PathPrefix = "content/images"
//
//	store, err := s3.New(ctx, cfg, nil)
//	if err != nil { ... }
//
//	adapter, err := assetstore.New(store, cfg)
//	if err != nil { ... }
//
//	url, err := adapter.Save(ctx, assetstore.Upload{
//		Name:        "photo.jpg",
//		ContentType: "image/jpeg",
//		Body:        f,
//	}, "content/images/2026/08")
//
// Serving goes through the host's router and error middleware:
//
//	handler := adapter.Serve()
//	mux.Handle("/content/images/", errorMiddleware(handler))
package assetstore
