package bucket

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/google/uuid"

	"github.com/filecrate/filecrate/pkg/blob"
	"github.com/filecrate/filecrate/pkg/slug"
)

// physicalAttempts bounds suffix regeneration on physical-name collision.
const physicalAttempts = 5

// slugMaxLen keeps physical names within the backend's 63-character
// bucket name limit: 36 (project id) + 1 + slug + 1 + 8 (suffix).
const slugMaxLen = 16

// FileStats carries per-bucket aggregates from the file metadata store.
type FileStats struct {
	ObjectCount int64
	TotalSize   int64
}

// StatsProvider supplies per-bucket aggregates without a backend
// listing call per request.
type StatsProvider interface {
	StatsByBucket(ctx context.Context, projectID uuid.UUID) (map[string]FileStats, error)
}

// Service owns the logical-to-physical namespace mapping and the
// lifecycle of the underlying physical containers.
type Service struct {
	repo  Repository
	store blob.Storage
	stats StatsProvider
	log   *slog.Logger
}

// NewService wires a namespace registry with explicit dependencies.
func NewService(repo Repository, store blob.Storage, stats StatsProvider, log *slog.Logger) *Service {
	return &Service{
		repo:  repo,
		store: store,
		stats: stats,
		log:   log,
	}
}

// Create provisions a new bucket for the tenant: derives a unique
// physical name, creates the container with a public-read object
// policy, and only then persists the mapping. A provisioning failure
// leaves no metadata row behind.
func (s *Service) Create(ctx context.Context, projectID uuid.UUID, name string) (*Bucket, error) {
	if _, err := s.repo.GetByName(ctx, projectID, name); err == nil {
		return nil, fmt.Errorf("%w: %s", ErrAlreadyExists, name)
	} else if !errors.Is(err, ErrNotFound) {
		return nil, err
	}

	physical, err := s.providePhysical(ctx, projectID, name)
	if err != nil {
		return nil, err
	}

	b := &Bucket{
		ProjectID:    projectID,
		Name:         name,
		PhysicalName: physical,
	}
	if err := s.repo.Create(ctx, b); err != nil {
		return nil, err
	}
	return b, nil
}

// providePhysical derives a globally unique physical name and creates
// the backing container with the public-read policy applied.
func (s *Service) providePhysical(ctx context.Context, projectID uuid.UUID, name string) (string, error) {
	for range physicalAttempts {
		physical := physicalName(projectID, name)

		exists, err := s.store.BucketExists(ctx, physical)
		if err != nil {
			return "", fmt.Errorf("%w: %v", ErrProvision, err)
		}
		if exists {
			// Suffix collision; roll a new one.
			continue
		}

		if err := s.store.CreateBucket(ctx, physical); err != nil {
			return "", fmt.Errorf("%w: %v", ErrProvision, err)
		}
		if err := s.store.SetPublicReadPolicy(ctx, physical); err != nil {
			return "", fmt.Errorf("%w: %v", ErrProvision, err)
		}
		return physical, nil
	}
	return "", fmt.Errorf("%w: no unique physical name after %d attempts", ErrProvision, physicalAttempts)
}

// physicalName builds "<project-id>-<slug>-<8-char suffix>".
func physicalName(projectID uuid.UUID, name string) string {
	suffix := uuid.NewString()[:8]
	return fmt.Sprintf("%s-%s-%s", projectID, slug.Make(name, slug.MaxLength(slugMaxLen)), suffix)
}

// Rename changes the logical name. The physical container is untouched.
func (s *Service) Rename(ctx context.Context, projectID uuid.UUID, oldName, newName string) (*Bucket, error) {
	b, err := s.repo.GetByName(ctx, projectID, oldName)
	if err != nil {
		return nil, err
	}
	if oldName == newName {
		return b, nil
	}

	if _, err := s.repo.GetByName(ctx, projectID, newName); err == nil {
		return nil, fmt.Errorf("%w: %s", ErrAlreadyExists, newName)
	} else if !errors.Is(err, ErrNotFound) {
		return nil, err
	}

	if err := s.repo.Rename(ctx, b.ID, newName); err != nil {
		return nil, err
	}
	b.Name = newName
	return b, nil
}

// Delete removes the physical container and the mapping. Fails with
// ErrNotEmpty while objects remain in the container.
func (s *Service) Delete(ctx context.Context, projectID uuid.UUID, name string) error {
	b, err := s.repo.GetByName(ctx, projectID, name)
	if err != nil {
		return err
	}

	if err := s.store.DeleteBucket(ctx, b.PhysicalName); err != nil {
		if errors.Is(err, blob.ErrBucketNotEmpty) {
			return ErrNotEmpty
		}
		return err
	}

	return s.repo.Delete(ctx, b.ID)
}

// List returns the tenant's buckets with live aggregates from file
// metadata. Ordering is unspecified.
func (s *Service) List(ctx context.Context, projectID uuid.UUID) ([]Overview, error) {
	bkts, err := s.repo.ListByProject(ctx, projectID)
	if err != nil {
		return nil, err
	}

	stats, err := s.stats.StatsByBucket(ctx, projectID)
	if err != nil {
		return nil, err
	}

	out := make([]Overview, 0, len(bkts))
	for _, b := range bkts {
		st := stats[b.Name]
		out = append(out, Overview{
			Bucket:      b,
			ObjectCount: st.ObjectCount,
			TotalSize:   st.TotalSize,
		})
	}
	return out, nil
}

// ResolvePhysical translates a logical name to the physical container
// name. Every file operation goes through this before touching storage.
func (s *Service) ResolvePhysical(ctx context.Context, projectID uuid.UUID, name string) (string, error) {
	b, err := s.repo.GetByName(ctx, projectID, name)
	if err != nil {
		return "", err
	}
	return b.PhysicalName, nil
}
