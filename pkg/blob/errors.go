package blob

import (
	"errors"
	"fmt"

	"github.com/aws/aws-sdk-go-v2/service/s3/types"
	"github.com/aws/smithy-go"
)

// Sentinel errors for backend operations.
var (
	ErrInvalidConfig = errors.New("blob: invalid configuration")

	ErrBucketNotFound = errors.New("blob: bucket not found")
	ErrBucketNotEmpty = errors.New("blob: bucket not empty")
	ErrBucketExists   = errors.New("blob: bucket already exists")

	ErrNotFound     = errors.New("blob: object not found")
	ErrAccessDenied = errors.New("blob: access denied")

	ErrUploadFailed  = errors.New("blob: upload failed")
	ErrDeleteFailed  = errors.New("blob: delete failed")
	ErrListFailed    = errors.New("blob: list failed")
	ErrPolicyFailed  = errors.New("blob: policy update failed")
	ErrPresignFailed = errors.New("blob: presign failed")
)

// wrapS3Error maps backend errors to sentinel errors. Uses %v (not %w)
// for the original error so callers match with errors.Is on sentinels
// rather than errors.As on AWS types.
func wrapS3Error(err error, fallback error) error {
	var apiErr smithy.APIError
	if errors.As(err, &apiErr) {
		switch apiErr.ErrorCode() {
		case "NoSuchKey", "NotFound":
			return fmt.Errorf("%w: %v", ErrNotFound, err)
		case "NoSuchBucket":
			return fmt.Errorf("%w: %v", ErrBucketNotFound, err)
		case "BucketNotEmpty":
			return fmt.Errorf("%w: %v", ErrBucketNotEmpty, err)
		case "BucketAlreadyExists", "BucketAlreadyOwnedByYou":
			return fmt.Errorf("%w: %v", ErrBucketExists, err)
		case "AccessDenied", "Forbidden":
			return fmt.Errorf("%w: %v", ErrAccessDenied, err)
		}
	}

	var noSuchKey *types.NoSuchKey
	if errors.As(err, &noSuchKey) {
		return fmt.Errorf("%w: %v", ErrNotFound, err)
	}
	var noSuchBucket *types.NoSuchBucket
	if errors.As(err, &noSuchBucket) {
		return fmt.Errorf("%w: %v", ErrBucketNotFound, err)
	}

	return fmt.Errorf("%w: %v", fallback, err)
}
