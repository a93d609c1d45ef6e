// Package blob provides a multi-bucket client for S3-compatible object
// storage backends (AWS S3, MinIO, and friends).
//
// Unlike a single-bucket uploader, this client manages bucket lifecycle
// (create, policy, delete) alongside object operations and presigned URL
// generation, because the gateway provisions one physical bucket per
// tenant namespace.
//
// Basic usage:
//
//	store, err := blob.New(blob.Config{
//		Endpoint:  "https://minio.internal:9000",
//		AccessKey: "...",
//		SecretKey: "...",
//		PathStyle: true,
//	})
//	if err != nil {
//		log.Fatal(err)
//	}
//
//	if err := store.CreateBucket(ctx, "acme-assets-1a2b3c4d"); err != nil {
//		log.Fatal(err)
//	}
//	url, err := store.PresignPut(ctx, "acme-assets-1a2b3c4d", "uploads/2025/01/report.pdf", time.Hour)
//
// # Error Handling
//
// Backend failures are normalized to sentinel errors (ErrNotFound,
// ErrBucketNotEmpty, ErrAccessDenied, ...) so callers can branch with
// errors.Is without importing AWS SDK types.
package blob
