package blob

import (
	"context"
	"io"
	"time"
)

// ObjectInfo describes a single object in a bucket.
type ObjectInfo struct {
	// Key is the object key (path) within the bucket.
	Key string

	// ContentType is the stored MIME type, if the backend reports one.
	ContentType string

	// Size is the object size in bytes.
	Size int64
}

// Storage defines the capability set the gateway needs from an
// S3-compatible backend. All bucket names passed here are physical
// container names; logical-name resolution happens in the callers.
type Storage interface {
	// BucketExists reports whether the physical bucket exists.
	BucketExists(ctx context.Context, bucket string) (bool, error)

	// CreateBucket provisions a new physical bucket.
	CreateBucket(ctx context.Context, bucket string) error

	// SetPublicReadPolicy allows anonymous GetObject on all objects
	// in the bucket.
	SetPublicReadPolicy(ctx context.Context, bucket string) error

	// DeleteBucket removes an empty physical bucket.
	// Returns ErrBucketNotEmpty when objects remain.
	DeleteBucket(ctx context.Context, bucket string) error

	// ListObjects returns all objects in the bucket, recursively.
	ListObjects(ctx context.Context, bucket string) ([]ObjectInfo, error)

	// Get retrieves an object. The caller closes the returned reader.
	Get(ctx context.Context, bucket, key string) (io.ReadCloser, error)

	// Put uploads an object with a declared length and content type.
	Put(ctx context.Context, bucket, key string, r io.Reader, size int64, contentType string) error

	// Stat returns object metadata without downloading it.
	// Returns ErrNotFound when the object does not exist.
	Stat(ctx context.Context, bucket, key string) (*ObjectInfo, error)

	// Delete removes an object.
	Delete(ctx context.Context, bucket, key string) error

	// PresignGet returns a time-scoped GET URL for exactly one object.
	PresignGet(ctx context.Context, bucket, key string, expiry time.Duration) (string, error)

	// PresignPut returns a time-scoped PUT URL for exactly one object.
	PresignPut(ctx context.Context, bucket, key string, expiry time.Duration) (string, error)

	// PublicURL returns the unauthenticated URL of an object, usable
	// once the bucket carries the public-read policy.
	PublicURL(bucket, key string) string
}

// Config holds S3-compatible backend configuration.
type Config struct {
	// Endpoint is the backend URL (e.g. a MinIO server). Empty means AWS.
	Endpoint string `env:"S3_ENDPOINT"`

	// AccessKey is the access key ID (required).
	AccessKey string `env:"S3_ACCESS_KEY,required"`

	// SecretKey is the secret access key (required).
	SecretKey string `env:"S3_SECRET_KEY,required"`

	// Region is the backend region.
	Region string `env:"S3_REGION" envDefault:"us-east-1"`

	// PublicURL overrides the public URL prefix (CDN in front of the
	// backend). When empty, URLs are derived from the endpoint.
	PublicURL string `env:"S3_PUBLIC_URL"`

	// PathStyle enables path-style addressing (required for MinIO).
	PathStyle bool `env:"S3_PATH_STYLE" envDefault:"true"`
}

// applyDefaults fills in default values for empty config fields.
func (c *Config) applyDefaults() {
	if c.Region == "" {
		c.Region = DefaultRegion
	}
}

// validate checks that required configuration fields are set.
func (c *Config) validate() error {
	if c.AccessKey == "" {
		return ErrInvalidConfig
	}
	if c.SecretKey == "" {
		return ErrInvalidConfig
	}
	return nil
}

// DefaultRegion is used when no region is configured.
const DefaultRegion = "us-east-1"
