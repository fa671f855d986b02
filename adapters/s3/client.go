// Package s3 implements the assetstore.ObjectStore capability on top of
// AWS S3 and S3-compatible services (MinIO, localstack, gofakes3).
package s3

import (
	"context"
	"fmt"
	"net/http"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/aws/retry"
	"github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/credentials"
	"github.com/aws/aws-sdk-go-v2/credentials/stscreds"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/aws/aws-sdk-go-v2/service/sts"
	"github.com/cenkalti/backoff/v4"
	"go.uber.org/zap"

	"github.com/mediaforge/assetstore"
)

// newS3Client builds the SDK client from an already-sanitized config.
// Explicit credentials win; without them the SDK default provider chain
// (env, shared config, instance profile) resolves credentials, and an
// optional RoleARN swaps in STS AssumeRole on top of either source.
func newS3Client(ctx context.Context, cfg *assetstore.Config, logger *zap.Logger) (*s3.Client, error) {
	awsConfig, credSource, err := buildAWSConfig(ctx, cfg)
	if err != nil {
		return nil, fmt.Errorf("build AWS config: %w", err)
	}

	logger.Debug("S3 client configured",
		zap.String("bucket", cfg.Bucket),
		zap.String("region", cfg.Region),
		zap.String("endpoint", cfg.Endpoint),
		zap.Bool("force_path_style", cfg.ForcePathStyle),
		zap.String("cred_source", credSource))

	client := s3.NewFromConfig(awsConfig, func(o *s3.Options) {
		if cfg.ForcePathStyle {
			o.UsePathStyle = true
		}

		if cfg.Endpoint != "" {
			o.BaseEndpoint = aws.String(cfg.GetEndpointURL())
			// S3-compatible services rarely understand the newer checksum
			// trailers, so only send checksums when an operation requires one
			o.RequestChecksumCalculation = aws.RequestChecksumCalculationWhenRequired
			o.ResponseChecksumValidation = aws.ResponseChecksumValidationWhenRequired
		}

		o.RetryMaxAttempts = cfg.MaxRetries
		o.RetryMode = aws.RetryModeAdaptive

		o.HTTPClient = &http.Client{
			Timeout: cfg.RequestTimeout,
		}
	})

	return client, nil
}

func buildAWSConfig(ctx context.Context, cfg *assetstore.Config) (aws.Config, string, error) {
	var options []func(*config.LoadOptions) error
	credSource := "sdk-default"

	if cfg.Region != "" {
		options = append(options, config.WithRegion(cfg.Region))
	}

	if cfg.AccessKey != "" && cfg.SecretKey != "" {
		options = append(options, config.WithCredentialsProvider(
			credentials.NewStaticCredentialsProvider(cfg.AccessKey, cfg.SecretKey, ""),
		))
		credSource = "static"
	}

	options = append(options, config.WithRetryer(func() aws.Retryer {
		return retry.NewStandard(func(o *retry.StandardOptions) {
			o.MaxAttempts = cfg.MaxRetries
			o.MaxBackoff = cfg.BackoffMax
			o.Backoff = backoffStrategy(cfg)
		})
	}))

	awsConfig, err := config.LoadDefaultConfig(ctx, options...)
	if err != nil {
		return aws.Config{}, credSource, fmt.Errorf("load AWS SDK config: %w", err)
	}

	if cfg.RoleARN != "" {
		stsClient := sts.NewFromConfig(awsConfig)
		provider := stscreds.NewAssumeRoleProvider(stsClient, cfg.RoleARN, func(o *stscreds.AssumeRoleOptions) {
			if cfg.ExternalID != "" {
				o.ExternalID = &cfg.ExternalID
			}
			o.RoleSessionName = "assetstore-assume-role"
		})
		awsConfig.Credentials = aws.NewCredentialsCache(provider)
		credSource = "assumed-role"
	}

	return awsConfig, credSource, nil
}

// backoffStrategy delays SDK retries with exponential backoff and jitter
func backoffStrategy(cfg *assetstore.Config) retry.BackoffDelayerFunc {
	return func(attempt int, err error) (time.Duration, error) {
		b := backoff.NewExponentialBackOff()
		b.InitialInterval = cfg.BackoffInitial
		b.MaxInterval = cfg.BackoffMax
		b.MaxElapsedTime = 0
		b.Multiplier = 2.0
		b.RandomizationFactor = 0.1
		b.Reset()

		var delay time.Duration
		for i := 0; i < attempt; i++ {
			delay = b.NextBackOff()
			if delay == backoff.Stop {
				break
			}
		}

		return delay, nil
	}
}
