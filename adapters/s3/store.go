package s3

import (
	"context"
	"io"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/aws/aws-sdk-go-v2/service/s3/types"
	"go.uber.org/zap"

	"github.com/mediaforge/assetstore"
)

// Store implements assetstore.ObjectStore against one bucket
type Store struct {
	client *s3.Client
	bucket string
	logger *zap.Logger
}

var _ assetstore.ObjectStore = (*Store)(nil)

// New creates a Store from an already-resolved configuration. Retry and
// backoff policy live in the underlying SDK transport; callers above this
// layer never retry.
func New(ctx context.Context, cfg *assetstore.Config, logger *zap.Logger) (*Store, error) {
	cfg = cfg.Sanitize()
	if err := assetstore.ValidateConfig(cfg); err != nil {
		return nil, err
	}

	if logger == nil {
		logger = zap.NewNop()
	}

	client, err := newS3Client(ctx, cfg, logger)
	if err != nil {
		return nil, err
	}

	return &Store{
		client: client,
		bucket: cfg.Bucket,
		logger: logger,
	}, nil
}

// Put stores an object, silently overwriting an existing key
func (s *Store) Put(ctx context.Context, key string, body io.Reader, opts *assetstore.PutOptions) error {
	if opts == nil {
		opts = &assetstore.PutOptions{}
	}

	input := &s3.PutObjectInput{
		Bucket: aws.String(s.bucket),
		Key:    aws.String(key),
		Body:   body,
	}

	if opts.ContentType != "" {
		input.ContentType = aws.String(opts.ContentType)
	}
	if opts.CacheControl != "" {
		input.CacheControl = aws.String(opts.CacheControl)
	}
	if opts.ACL != "" {
		input.ACL = types.ObjectCannedACL(opts.ACL)
	}

	if _, err := s.client.PutObject(ctx, input); err != nil {
		return mapError(err, "put", key)
	}

	s.logger.Debug("object stored", zap.String("key", key))
	return nil
}

// Get retrieves an object stream plus whichever metadata fields the store
// reported. Closing the returned reader releases the upstream connection;
// cancelling ctx aborts a fetch in flight.
func (s *Store) Get(ctx context.Context, key string) (io.ReadCloser, assetstore.ObjectInfo, error) {
	output, err := s.client.GetObject(ctx, &s3.GetObjectInput{
		Bucket: aws.String(s.bucket),
		Key:    aws.String(key),
	})
	if err != nil {
		return nil, assetstore.ObjectInfo{}, mapError(err, "get", key)
	}

	info := assetstore.ObjectInfo{
		AcceptRanges:       aws.ToString(output.AcceptRanges),
		CacheControl:       aws.ToString(output.CacheControl),
		ContentDisposition: aws.ToString(output.ContentDisposition),
		ContentEncoding:    aws.ToString(output.ContentEncoding),
		ContentLanguage:    aws.ToString(output.ContentLanguage),
		ContentLength:      -1,
		ContentRange:       aws.ToString(output.ContentRange),
		ContentType:        aws.ToString(output.ContentType),
		ETag:               aws.ToString(output.ETag),
	}
	if output.ContentLength != nil {
		info.ContentLength = aws.ToInt64(output.ContentLength)
	}

	return output.Body, info, nil
}

// Delete removes an object. The store treats deleting an absent key as
// success, which keeps the adapter's Delete idempotent.
func (s *Store) Delete(ctx context.Context, key string) error {
	_, err := s.client.DeleteObject(ctx, &s3.DeleteObjectInput{
		Bucket: aws.String(s.bucket),
		Key:    aws.String(key),
	})
	if err != nil {
		return mapError(err, "delete", key)
	}

	s.logger.Debug("object deleted", zap.String("key", key))
	return nil
}
