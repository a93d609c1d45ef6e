package project

import (
	"context"
	"log/slog"

	"github.com/google/uuid"
	"golang.org/x/sync/errgroup"

	"github.com/filecrate/filecrate/internal/bucket"
	"github.com/filecrate/filecrate/internal/file"
	"github.com/filecrate/filecrate/pkg/apikey"
	"github.com/filecrate/filecrate/pkg/blob"
)

// cascadeDeleteParallelism bounds concurrent object deletes during a
// tenant cascade so a large tenant cannot saturate the backend.
const cascadeDeleteParallelism = 8

// Service manages the tenant lifecycle: creation, key rotation,
// API-key authentication, and the cascading delete that removes every
// bucket, file record, and physical container a tenant owns.
type Service struct {
	repo    Repository
	buckets bucket.Repository
	files   file.Repository
	store   blob.Storage
	cache   KeyCache
	log     *slog.Logger
}

// NewService wires a project service with explicit dependencies.
func NewService(repo Repository, buckets bucket.Repository, files file.Repository, store blob.Storage, cache KeyCache, log *slog.Logger) *Service {
	if cache == nil {
		cache = NopKeyCache{}
	}
	return &Service{
		repo:    repo,
		buckets: buckets,
		files:   files,
		store:   store,
		cache:   cache,
		log:     log,
	}
}

// Create registers a new tenant with a generated API key.
// Returns ErrNameTaken when the name is already in use.
func (s *Service) Create(ctx context.Context, name string) (*Project, error) {
	p := &Project{
		Name:   name,
		APIKey: apikey.New(),
	}
	if err := s.repo.Create(ctx, p); err != nil {
		return nil, err
	}
	return p, nil
}

// List returns all tenants with their usage aggregates.
func (s *Service) List(ctx context.Context) ([]Overview, error) {
	return s.repo.List(ctx)
}

// Authenticate resolves a bare API key to exactly one tenant.
// Returns ErrInvalidKey when no tenant owns the key.
func (s *Service) Authenticate(ctx context.Context, key string) (*Project, error) {
	if key == "" {
		return nil, ErrInvalidKey
	}
	if p, ok := s.cache.Get(ctx, key); ok {
		return p, nil
	}

	p, err := s.repo.GetByAPIKey(ctx, key)
	if err != nil {
		return nil, ErrInvalidKey
	}
	s.cache.Set(ctx, key, p)
	return p, nil
}

// RegenerateKey rotates a tenant's API key. The old key stops
// authenticating immediately (modulo cache TTL).
func (s *Service) RegenerateKey(ctx context.Context, id uuid.UUID) (*Project, error) {
	p, err := s.repo.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}

	newKey := apikey.New()
	if err := s.repo.UpdateAPIKey(ctx, id, newKey); err != nil {
		return nil, err
	}
	s.cache.Invalidate(ctx, p.APIKey)

	p.APIKey = newKey
	return p, nil
}

// Delete removes a tenant and everything it owns. Physical cleanup is
// best effort: object and container deletes that fail are logged and
// skipped, while the database rows are removed unconditionally so the
// tenant is gone from the system's point of view either way. Orphaned
// containers this can leave behind are a known gap (they are no longer
// referenced by any mapping, so reconciliation will not see them).
func (s *Service) Delete(ctx context.Context, id uuid.UUID) (*CascadeResult, error) {
	p, err := s.repo.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}

	bkts, err := s.buckets.ListByProject(ctx, id)
	if err != nil {
		return nil, err
	}

	for _, b := range bkts {
		s.drainBucket(ctx, b.PhysicalName)
		if err := s.store.DeleteBucket(ctx, b.PhysicalName); err != nil {
			s.log.WarnContext(ctx, "cascade: failed to delete physical bucket",
				slog.String("bucket", b.PhysicalName),
				slog.String("error", err.Error()),
			)
		}
	}

	if _, err := s.files.DeleteAllForProject(ctx, id); err != nil {
		return nil, err
	}
	if _, err := s.buckets.DeleteAllForProject(ctx, id); err != nil {
		return nil, err
	}
	if err := s.repo.Delete(ctx, id); err != nil {
		return nil, err
	}
	s.cache.Invalidate(ctx, p.APIKey)

	return &CascadeResult{
		ProjectID:      id,
		ProjectName:    p.Name,
		BucketsDeleted: len(bkts),
	}, nil
}

// drainBucket deletes every object in a physical bucket, best effort.
func (s *Service) drainBucket(ctx context.Context, physical string) {
	objects, err := s.store.ListObjects(ctx, physical)
	if err != nil {
		s.log.WarnContext(ctx, "cascade: failed to list bucket",
			slog.String("bucket", physical),
			slog.String("error", err.Error()),
		)
		return
	}

	g := &errgroup.Group{}
	g.SetLimit(cascadeDeleteParallelism)
	for _, obj := range objects {
		g.Go(func() error {
			if err := s.store.Delete(ctx, physical, obj.Key); err != nil {
				s.log.WarnContext(ctx, "cascade: failed to delete object",
					slog.String("bucket", physical),
					slog.String("key", obj.Key),
					slog.String("error", err.Error()),
				)
			}
			// Individual failures never abort the remaining deletions.
			return nil
		})
	}
	_ = g.Wait()
}
