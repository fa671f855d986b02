package s3

import (
	"context"
	"errors"
	"strings"

	"github.com/aws/aws-sdk-go-v2/service/s3/types"
	"github.com/aws/smithy-go"

	"github.com/mediaforge/assetstore"
)

// mapError converts SDK errors to the adapter's domain errors. Missing
// objects become ErrNotFound; everything else is transport-classed, since
// this layer neither retries nor interprets service failures.
func mapError(err error, op, key string) error {
	if err == nil {
		return nil
	}

	if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
		return &assetstore.StorageError{Op: op, Key: key, Err: err}
	}

	var noSuchKey *types.NoSuchKey
	var notFound *types.NotFound
	if errors.As(err, &noSuchKey) || errors.As(err, &notFound) {
		return &assetstore.StorageError{Op: op, Key: key, Err: assetstore.ErrNotFound}
	}

	var apiErr smithy.APIError
	if errors.As(err, &apiErr) {
		switch apiErr.ErrorCode() {
		case "NoSuchKey", "NoSuchBucket", "NotFound":
			return &assetstore.StorageError{Op: op, Key: key, Err: assetstore.ErrNotFound}
		}
	}

	// Some S3-compatible services only surface the HTTP status text
	msg := strings.ToLower(err.Error())
	if strings.Contains(msg, "nosuchkey") || strings.Contains(msg, "not found") || strings.Contains(msg, "404") {
		return &assetstore.StorageError{Op: op, Key: key, Err: assetstore.ErrNotFound}
	}

	return &assetstore.StorageError{
		Op:  op,
		Key: key,
		Err: errors.Join(assetstore.ErrTransport, err),
	}
}
