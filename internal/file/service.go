package file

import (
	"context"
	"log/slog"
	"time"

	"github.com/google/uuid"

	"github.com/filecrate/filecrate/internal/metrics"
	"github.com/filecrate/filecrate/pkg/blob"
)

// DefaultURLExpiry is the presigned URL lifetime when none is requested.
const DefaultURLExpiry = time.Hour

// Resolver translates a tenant's logical bucket name to its physical
// container name.
type Resolver interface {
	ResolvePhysical(ctx context.Context, projectID uuid.UUID, name string) (string, error)
}

// Trigger starts asynchronous processing for a file. Triggering is
// fire-and-forget: the upload path never waits on stage execution.
type Trigger interface {
	TriggerScan(ctx context.Context, fileID uuid.UUID) error
}

// Service implements the upload/access protocol: presigned write and
// read URLs, upload-completion bookkeeping, and file deletion.
type Service struct {
	repo      Repository
	resolver  Resolver
	store     blob.Storage
	trigger   Trigger
	urlExpiry time.Duration
	log       *slog.Logger
	now       func() time.Time
}

// NewService wires the upload/access protocol with explicit dependencies.
// A nil trigger disables pipeline processing (useful in tests).
func NewService(repo Repository, resolver Resolver, store blob.Storage, trigger Trigger, urlExpiry time.Duration, log *slog.Logger) *Service {
	if urlExpiry <= 0 {
		urlExpiry = DefaultURLExpiry
	}
	return &Service{
		repo:      repo,
		resolver:  resolver,
		store:     store,
		trigger:   trigger,
		urlExpiry: urlExpiry,
		log:       log,
		now:       time.Now,
	}
}

// InitUpload issues a PUT-scoped presigned URL for a fresh object key.
// No file record is written: the object does not exist until the client
// uploads against the returned URL and calls CompleteUpload.
func (s *Service) InitUpload(ctx context.Context, projectID uuid.UUID, bucketName, filename, folder string) (*UploadTicket, error) {
	physical, err := s.resolver.ResolvePhysical(ctx, projectID, bucketName)
	if err != nil {
		return nil, err
	}

	key := uploadKey(filename, folder, s.now().UTC())

	uploadURL, err := s.store.PresignPut(ctx, physical, key, s.urlExpiry)
	if err != nil {
		return nil, err
	}

	return &UploadTicket{
		UploadURL: uploadURL,
		ObjectKey: key,
		FinalURL:  s.store.PublicURL(physical, key),
		ExpiresIn: int64(s.urlExpiry.Seconds()),
	}, nil
}

// CompleteUpload records a finished client upload. The backend is
// statted for the authoritative size; when the stat fails (eventual
// consistency, restricted permissions) the client-declared size is
// trusted instead. That fallback is a known trust boundary.
// On success the processing pipeline is triggered asynchronously.
func (s *Service) CompleteUpload(ctx context.Context, projectID uuid.UUID, bucketName, key string, declaredSize int64, declaredType string) (*Record, error) {
	physical, err := s.resolver.ResolvePhysical(ctx, projectID, bucketName)
	if err != nil {
		return nil, err
	}

	size := declaredSize
	if info, err := s.store.Stat(ctx, physical, key); err != nil {
		s.log.WarnContext(ctx, "could not verify uploaded object, trusting declared size",
			slog.String("bucket", physical),
			slog.String("key", key),
			slog.String("error", err.Error()),
		)
	} else {
		size = info.Size
	}

	rec := &Record{
		ProjectID:   projectID,
		BucketName:  bucketName,
		ObjectKey:   key,
		Size:        size,
		ContentType: declaredType,
		Status:      StatusPending,
	}
	if err := s.repo.Create(ctx, rec); err != nil {
		return nil, err
	}
	metrics.UploadsCompleted.Inc()

	if s.trigger != nil {
		if err := s.trigger.TriggerScan(ctx, rec.ID); err != nil {
			// The record stands; a missed trigger is recoverable by re-running
			// the pipeline manually.
			s.log.ErrorContext(ctx, "failed to trigger processing",
				slog.String("file_id", rec.ID.String()),
				slog.String("error", err.Error()),
			)
		}
	}

	return rec, nil
}

// Delete removes the object from the backend and the file record.
// Either half can fail independently; the resulting inconsistency is
// healed by the next reconciliation run.
func (s *Service) Delete(ctx context.Context, projectID uuid.UUID, bucketName, key string) error {
	physical, err := s.resolver.ResolvePhysical(ctx, projectID, bucketName)
	if err != nil {
		return err
	}

	if err := s.store.Delete(ctx, physical, key); err != nil {
		s.log.WarnContext(ctx, "failed to delete object from backend",
			slog.String("bucket", physical),
			slog.String("key", key),
			slog.String("error", err.Error()),
		)
	}

	return s.repo.Delete(ctx, projectID, bucketName, key)
}

// AccessURL issues a GET-scoped presigned URL. Existence is checked
// against the backend itself rather than the metadata store, which may
// be stale.
func (s *Service) AccessURL(ctx context.Context, projectID uuid.UUID, bucketName, key string, expiry time.Duration) (*AccessURL, error) {
	physical, err := s.resolver.ResolvePhysical(ctx, projectID, bucketName)
	if err != nil {
		return nil, err
	}

	if _, err := s.store.Stat(ctx, physical, key); err != nil {
		return nil, ErrNotFound
	}

	if expiry <= 0 {
		expiry = s.urlExpiry
	}
	url, err := s.store.PresignGet(ctx, physical, key, expiry)
	if err != nil {
		return nil, err
	}

	return &AccessURL{
		URL:       url,
		ExpiresIn: int64(expiry.Seconds()),
	}, nil
}

// PublicURL returns the unauthenticated URL for an object in a
// public-read bucket.
func (s *Service) PublicURL(ctx context.Context, projectID uuid.UUID, bucketName, key string) (string, error) {
	physical, err := s.resolver.ResolvePhysical(ctx, projectID, bucketName)
	if err != nil {
		return "", err
	}
	return s.store.PublicURL(physical, key), nil
}

// Status returns the metadata record for a file, including its
// processing state, so clients can poll pipeline progress.
func (s *Service) Status(ctx context.Context, projectID uuid.UUID, bucketName, key string) (*Record, error) {
	return s.repo.Get(ctx, projectID, bucketName, key)
}
