package assetstore

import (
	"fmt"
	"strings"
	"time"
)

// Environment variables that override explicit configuration values.
const (
	EnvDefaultRegion  = "AWS_DEFAULT_REGION"
	EnvBucket         = "ASSETSTORE_BUCKET"
	EnvAssetHost      = "ASSETSTORE_ASSET_HOST"
	EnvPathPrefix     = "ASSETSTORE_PATH_PREFIX"
	EnvEndpoint       = "ASSETSTORE_ENDPOINT"
	EnvForcePathStyle = "ASSETSTORE_FORCE_PATH_STYLE"
	EnvACL            = "ASSETSTORE_ACL"
)

// DefaultCacheControl is the Cache-Control applied to originals and
// variants on save (30 days).
const DefaultCacheControl = "max-age=2592000"

// Config holds all adapter configuration options
type Config struct {
	// AccessKey is the access key ID. When AccessKey/SecretKey are absent
	// the SDK default credential chain is used instead.
	AccessKey string `mapstructure:"access_key" yaml:"access_key"`

	// SecretKey is the secret access key
	SecretKey string `mapstructure:"secret_key" yaml:"secret_key"`

	// Region is the store region (e.g. "eu-west-1")
	Region string `mapstructure:"region" yaml:"region" default:"us-east-1"`

	// Bucket is the single bucket this adapter targets (required)
	Bucket string `mapstructure:"bucket" yaml:"bucket"`

	// AssetHost is the base URL under which objects are publicly reachable.
	// Computed from ForcePathStyle/Region/Bucket when empty.
	AssetHost string `mapstructure:"asset_host" yaml:"asset_host"`

	// PathPrefix is prepended to object keys; stored without leading or
	// trailing slashes.
	PathPrefix string `mapstructure:"path_prefix" yaml:"path_prefix"`

	// Endpoint is a custom endpoint URL (for S3-compatible services)
	Endpoint string `mapstructure:"endpoint" yaml:"endpoint"`

	// ForcePathStyle forces host/bucket/key addressing
	ForcePathStyle bool `mapstructure:"force_path_style" yaml:"force_path_style" default:"false"`

	// ACL is the canned ACL applied to saved objects
	ACL string `mapstructure:"acl" yaml:"acl" default:"public-read"`

	// RoleARN optionally specifies an ARN to assume via STS. The already
	// resolved credentials are used as the source to authenticate to STS.
	RoleARN string `mapstructure:"role_arn" yaml:"role_arn"`

	// ExternalID is passed to STS AssumeRole when RoleARN is used
	ExternalID string `mapstructure:"external_id" yaml:"external_id"`

	// RequestTimeout is the timeout for individual store requests
	RequestTimeout time.Duration `mapstructure:"request_timeout" yaml:"request_timeout" default:"30s"`

	// MaxRetries is the maximum number of transport-level retry attempts
	MaxRetries int `mapstructure:"max_retries" yaml:"max_retries" default:"3"`

	// BackoffInitial is the initial transport backoff delay
	BackoffInitial time.Duration `mapstructure:"backoff_initial" yaml:"backoff_initial" default:"200ms"`

	// BackoffMax is the maximum transport backoff delay
	BackoffMax time.Duration `mapstructure:"backoff_max" yaml:"backoff_max" default:"5s"`

	// DisableSSL disables SSL for endpoint URLs given as bare hosts
	// (development only)
	DisableSSL bool `mapstructure:"disable_ssl" yaml:"disable_ssl" default:"false"`
}

// DefaultConfig returns a configuration with sensible defaults
func DefaultConfig() *Config {
	return &Config{
		Region:         "us-east-1",
		ACL:            "public-read",
		RequestTimeout: 30 * time.Second,
		MaxRetries:     3,
		BackoffInitial: 200 * time.Millisecond,
		BackoffMax:     5 * time.Second,
	}
}

// NewConfigFromLoader creates a Config using any loader able to unmarshal
// into a tagged struct (the host owns the actual file/flag parsing).
// Environment overrides, sanitization and validation are applied.
func NewConfigFromLoader(loader interface {
	Unmarshal(any) error
}, environ []string) (*Config, error) {
	cfg := DefaultConfig()
	if err := loader.Unmarshal(cfg); err != nil {
		return nil, err
	}

	cfg = cfg.Resolve(EnvSnapshot(environ)).Sanitize()
	if err := ValidateConfig(cfg); err != nil {
		return nil, err
	}

	return cfg, nil
}

// EnvSnapshot converts an os.Environ-style slice into a lookup map
func EnvSnapshot(environ []string) map[string]string {
	env := make(map[string]string, len(environ))
	for _, kv := range environ {
		if i := strings.IndexByte(kv, '='); i > 0 {
			env[kv[:i]] = kv[i+1:]
		}
	}
	return env
}

// Resolve applies environment overrides on top of the explicit values and
// returns the resolved copy. Environment variables win over explicit
// configuration for the fields they name. Pure: the receiver is not mutated.
func (cfg *Config) Resolve(env map[string]string) *Config {
	resolved := *cfg

	if v, ok := env[EnvDefaultRegion]; ok && v != "" {
		resolved.Region = v
	}
	if v, ok := env[EnvBucket]; ok && v != "" {
		resolved.Bucket = v
	}
	if v, ok := env[EnvAssetHost]; ok && v != "" {
		resolved.AssetHost = v
	}
	if v, ok := env[EnvPathPrefix]; ok && v != "" {
		resolved.PathPrefix = v
	}
	if v, ok := env[EnvEndpoint]; ok && v != "" {
		resolved.Endpoint = v
	}
	if v, ok := env[EnvForcePathStyle]; ok && v != "" {
		resolved.ForcePathStyle = v == "true" || v == "1"
	}
	if v, ok := env[EnvACL]; ok && v != "" {
		resolved.ACL = v
	}

	return &resolved
}

// Sanitize applies automatic fixes where possible and returns a sanitized
// copy without mutating the receiver.
func (cfg *Config) Sanitize() *Config {
	if cfg == nil {
		return DefaultConfig()
	}

	sanitized := *cfg

	if sanitized.Region == "" {
		sanitized.Region = "us-east-1"
	}
	if sanitized.ACL == "" {
		sanitized.ACL = "public-read"
	}
	if sanitized.RequestTimeout == 0 {
		sanitized.RequestTimeout = 30 * time.Second
	}
	if sanitized.MaxRetries == 0 {
		sanitized.MaxRetries = 3
	}
	if sanitized.BackoffInitial == 0 {
		sanitized.BackoffInitial = 200 * time.Millisecond
	}
	if sanitized.BackoffMax == 0 {
		sanitized.BackoffMax = 5 * time.Second
	}

	sanitized.PathPrefix = strings.Trim(sanitized.PathPrefix, "/")
	sanitized.AssetHost = strings.TrimSuffix(strings.TrimSpace(sanitized.AssetHost), "/")

	if sanitized.Endpoint != "" {
		sanitized.Endpoint = strings.TrimSpace(sanitized.Endpoint)
		sanitized.Endpoint = strings.TrimSuffix(sanitized.Endpoint, "/")
	}

	return &sanitized
}

// ValidateConfig checks the configuration invariants the adapter relies on
func ValidateConfig(cfg *Config) error {
	if cfg == nil {
		return fmt.Errorf("%w: configuration cannot be nil", ErrInvalidConfig)
	}

	var problems []string

	if cfg.Bucket == "" {
		problems = append(problems, "bucket cannot be empty")
	}

	// Disallow partially-specified explicit credentials
	if (cfg.AccessKey == "") != (cfg.SecretKey == "") {
		problems = append(problems, "access_key and secret_key must be set together")
	}

	if cfg.RequestTimeout < 0 {
		problems = append(problems, "request_timeout cannot be negative")
	}
	if cfg.MaxRetries < 0 {
		problems = append(problems, "max_retries cannot be negative")
	}
	if cfg.BackoffInitial > 0 && cfg.BackoffMax < cfg.BackoffInitial {
		problems = append(problems, "backoff_max must not be less than backoff_initial")
	}

	if strings.HasPrefix(cfg.PathPrefix, "/") || strings.HasSuffix(cfg.PathPrefix, "/") {
		problems = append(problems, "path_prefix must not start or end with '/'")
	}
	if strings.Contains(cfg.PathPrefix, "..") {
		problems = append(problems, "path_prefix cannot contain '..'")
	}

	if len(problems) > 0 {
		return fmt.Errorf("%w: %s", ErrInvalidConfig, strings.Join(problems, "; "))
	}

	return nil
}

// DefaultAssetHost derives the canonical public base URL for a bucket when
// no explicit asset host is configured. us-east-1 is the suffix-less
// default region of the store's URL scheme.
func DefaultAssetHost(bucket, region string, forcePathStyle bool) string {
	suffix := ""
	if region != "" && region != "us-east-1" {
		suffix = "." + region
	}

	if forcePathStyle {
		return fmt.Sprintf("https://s3%s.amazonaws.com/%s", suffix, bucket)
	}
	return fmt.Sprintf("https://%s.s3%s.amazonaws.com", bucket, suffix)
}

// ResolvedAssetHost returns the configured asset host, or the derived
// default when none was supplied.
func (cfg *Config) ResolvedAssetHost() string {
	if cfg.AssetHost != "" {
		return cfg.AssetHost
	}
	return DefaultAssetHost(cfg.Bucket, cfg.Region, cfg.ForcePathStyle)
}

// GetEndpointURL returns the full endpoint URL, adding a scheme when the
// endpoint was given as a bare host.
func (cfg *Config) GetEndpointURL() string {
	if cfg.Endpoint == "" {
		return ""
	}

	if strings.HasPrefix(cfg.Endpoint, "http://") || strings.HasPrefix(cfg.Endpoint, "https://") {
		return cfg.Endpoint
	}

	scheme := "https"
	if cfg.DisableSSL {
		scheme = "http"
	}
	return fmt.Sprintf("%s://%s", scheme, cfg.Endpoint)
}

// String returns a safe string representation (redacts secrets)
func (cfg *Config) String() string {
	return fmt.Sprintf("Config{Bucket:%s, Region:%s, Endpoint:%s, PathPrefix:%s, ForcePathStyle:%v, ACL:%s}",
		cfg.Bucket, cfg.Region, cfg.Endpoint, cfg.PathPrefix, cfg.ForcePathStyle, cfg.ACL)
}
