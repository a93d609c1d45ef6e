package file

import (
	"time"

	"github.com/google/uuid"
)

// Record describes an object the system believes exists in a tenant's
// bucket. The bucket is referenced by logical name and resolved to its
// physical container at lookup time. A record exists if and only if the
// system believes the backing object exists; reconciliation restores
// that invariant after drift.
type Record struct {
	ID          uuid.UUID `json:"id"`
	ProjectID   uuid.UUID `json:"project_id"`
	BucketName  string    `json:"bucket_name"`
	ObjectKey   string    `json:"object_key"`
	Size        int64     `json:"size"`
	ContentType string    `json:"content_type"`
	Status      Status    `json:"status"`
	Detail      string    `json:"detail,omitempty"`
	DerivedKey  string    `json:"derived_key,omitempty"`
	CreatedAt   time.Time `json:"created_at"`
}

// Stats aggregates object count and total size for a group of records.
type Stats struct {
	Count     int64 `json:"count"`
	TotalSize int64 `json:"total_size"`
}

// UploadTicket is the response to an upload initiation: a presigned PUT
// URL scoped to exactly one object key, plus the public URL the object
// will have once uploaded.
type UploadTicket struct {
	UploadURL string `json:"upload_url"`
	ObjectKey string `json:"object_key"`
	FinalURL  string `json:"final_url"`
	ExpiresIn int64  `json:"expires_in"`
}

// AccessURL is a presigned GET URL with its expiry in seconds.
type AccessURL struct {
	URL       string `json:"url"`
	ExpiresIn int64  `json:"expires_in"`
}
