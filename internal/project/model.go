package project

import (
	"time"

	"github.com/google/uuid"
)

// Project is an isolated tenant owning buckets, files, and an API key.
type Project struct {
	ID        uuid.UUID `json:"id"`
	Name      string    `json:"name"`
	APIKey    string    `json:"api_key"`
	CreatedAt time.Time `json:"created_at"`
}

// Overview is a project together with its live usage aggregates,
// computed from the metadata store.
type Overview struct {
	Project
	BucketCount int64 `json:"bucket_count"`
	FileCount   int64 `json:"file_count"`
	TotalSize   int64 `json:"total_size"`
}

// CascadeResult reports the outcome of a cascading tenant delete.
type CascadeResult struct {
	ProjectID      uuid.UUID `json:"project_id"`
	ProjectName    string    `json:"project_name"`
	BucketsDeleted int       `json:"buckets_deleted"`
}
