package bucket

import (
	"time"

	"github.com/google/uuid"
)

// Bucket maps a tenant-scoped logical name to a globally unique
// physical container. The physical name is assigned once at creation
// and never changes, even across renames.
type Bucket struct {
	ID           uuid.UUID `json:"id"`
	ProjectID    uuid.UUID `json:"project_id"`
	Name         string    `json:"name"`
	PhysicalName string    `json:"physical_name"`
	CreatedAt    time.Time `json:"created_at"`
}

// Overview is a bucket with live aggregates computed from file
// metadata rather than a backend listing call.
type Overview struct {
	Bucket
	ObjectCount int64 `json:"object_count"`
	TotalSize   int64 `json:"total_size"`
}
