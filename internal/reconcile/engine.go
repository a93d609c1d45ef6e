// Package reconcile heals drift between the metadata store and the
// object-storage backend. The backend is the source of truth for
// existence; metadata is a cache that can drift after crashed uploads,
// out-of-band deletes, or manual backend edits.
package reconcile

import (
	"context"
	"log/slog"

	"github.com/google/uuid"

	"github.com/filecrate/filecrate/internal/bucket"
	"github.com/filecrate/filecrate/internal/file"
	"github.com/filecrate/filecrate/internal/metrics"
	"github.com/filecrate/filecrate/pkg/blob"
)

// defaultContentType is assigned to records reconstructed from a
// backend listing; a listing alone cannot reveal the real type.
const defaultContentType = "application/octet-stream"

// Result aggregates one reconciliation pass over a tenant.
// Running a second pass against an unchanged backend yields all zeros.
type Result struct {
	Added   int               `json:"added"`
	Removed int               `json:"removed"`
	Updated int               `json:"updated"`
	Errors  map[string]string `json:"errors,omitempty"`
}

// Engine compares metadata against backend ground truth per tenant and
// repairs the difference. It takes no locks and may race with
// concurrent uploads or deletes; such races are self-correcting on the
// next run.
type Engine struct {
	buckets bucket.Repository
	files   file.Repository
	store   blob.Storage
	log     *slog.Logger
}

// NewEngine wires a reconciliation engine with explicit dependencies.
func NewEngine(buckets bucket.Repository, files file.Repository, store blob.Storage, log *slog.Logger) *Engine {
	return &Engine{
		buckets: buckets,
		files:   files,
		store:   store,
		log:     log,
	}
}

// SyncProject reconciles every bucket of one tenant. Per-bucket
// failures are collected in Result.Errors keyed by logical bucket name
// and do not abort the remaining buckets.
func (e *Engine) SyncProject(ctx context.Context, projectID uuid.UUID) (*Result, error) {
	bkts, err := e.buckets.ListByProject(ctx, projectID)
	if err != nil {
		return nil, err
	}

	res := &Result{Errors: map[string]string{}}
	for _, b := range bkts {
		added, removed, updated, err := e.syncBucket(ctx, b)
		res.Added += added
		res.Removed += removed
		res.Updated += updated
		if err != nil {
			res.Errors[b.Name] = err.Error()
			e.log.WarnContext(ctx, "bucket sync failed",
				slog.String("bucket", b.Name),
				slog.String("physical", b.PhysicalName),
				slog.String("error", err.Error()),
			)
		}
	}

	metrics.ReconcileRecords.WithLabelValues("added").Add(float64(res.Added))
	metrics.ReconcileRecords.WithLabelValues("removed").Add(float64(res.Removed))
	metrics.ReconcileRecords.WithLabelValues("updated").Add(float64(res.Updated))

	e.log.InfoContext(ctx, "reconciliation finished",
		slog.String("project_id", projectID.String()),
		slog.Int("added", res.Added),
		slog.Int("removed", res.Removed),
		slog.Int("updated", res.Updated),
		slog.Int("failed_buckets", len(res.Errors)),
	)
	return res, nil
}

// syncBucket reconciles a single bucket. Partial progress counts even
// when a later step fails.
func (e *Engine) syncBucket(ctx context.Context, b bucket.Bucket) (added, removed, updated int, err error) {
	exists, err := e.store.BucketExists(ctx, b.PhysicalName)
	if err != nil {
		return 0, 0, 0, err
	}

	// Backend objects keyed by object key. A recreated container starts
	// empty; lost object bytes are not recoverable.
	backend := map[string]int64{}
	if !exists {
		if err := e.store.CreateBucket(ctx, b.PhysicalName); err != nil {
			return 0, 0, 0, err
		}
		if err := e.store.SetPublicReadPolicy(ctx, b.PhysicalName); err != nil {
			return 0, 0, 0, err
		}
		e.log.WarnContext(ctx, "recreated missing physical container",
			slog.String("physical", b.PhysicalName),
		)
	} else {
		objects, err := e.store.ListObjects(ctx, b.PhysicalName)
		if err != nil {
			return 0, 0, 0, err
		}
		for _, obj := range objects {
			backend[obj.Key] = obj.Size
		}
	}

	records, err := e.files.ListByBucket(ctx, b.ProjectID, b.Name)
	if err != nil {
		return 0, 0, 0, err
	}
	known := make(map[string]*file.Record, len(records))
	for i := range records {
		known[records[i].ObjectKey] = &records[i]
	}

	// Backend objects the metadata store has never heard of.
	for key, size := range backend {
		rec, ok := known[key]
		if !ok {
			newRec := &file.Record{
				ProjectID:   b.ProjectID,
				BucketName:  b.Name,
				ObjectKey:   key,
				Size:        size,
				ContentType: defaultContentType,
				Status:      file.StatusPending,
			}
			if err := e.files.Create(ctx, newRec); err != nil {
				return added, removed, updated, err
			}
			added++
			continue
		}
		// Size drifted; the processing status is left untouched, a size
		// mismatch alone does not imply a state change.
		if rec.Size != size {
			if err := e.files.UpdateSize(ctx, rec.ID, size); err != nil {
				return added, removed, updated, err
			}
			updated++
		}
	}

	// Metadata records whose backing object is gone.
	for key, rec := range known {
		if _, ok := backend[key]; ok {
			continue
		}
		if err := e.files.DeleteByID(ctx, rec.ID); err != nil {
			return added, removed, updated, err
		}
		removed++
	}

	return added, removed, updated, nil
}
