package file

import (
	"context"
	"sync"
	"time"

	"github.com/google/uuid"
)

// MemoryRepository is an in-memory Repository used in tests.
type MemoryRepository struct {
	mu      sync.RWMutex
	records map[uuid.UUID]Record
}

func NewMemoryRepository() *MemoryRepository {
	return &MemoryRepository{records: make(map[uuid.UUID]Record)}
}

func (r *MemoryRepository) Create(_ context.Context, rec *Record) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, existing := range r.records {
		if existing.ProjectID == rec.ProjectID &&
			existing.BucketName == rec.BucketName &&
			existing.ObjectKey == rec.ObjectKey {
			return ErrExists
		}
	}
	rec.ID = uuid.New()
	rec.CreatedAt = time.Now()
	r.records[rec.ID] = *rec
	return nil
}

func (r *MemoryRepository) Get(_ context.Context, projectID uuid.UUID, bucket, key string) (*Record, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	for _, rec := range r.records {
		if rec.ProjectID == projectID && rec.BucketName == bucket && rec.ObjectKey == key {
			rec := rec
			return &rec, nil
		}
	}
	return nil, ErrNotFound
}

func (r *MemoryRepository) GetByID(_ context.Context, id uuid.UUID) (*Record, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	rec, ok := r.records[id]
	if !ok {
		return nil, ErrNotFound
	}
	return &rec, nil
}

func (r *MemoryRepository) ListByBucket(_ context.Context, projectID uuid.UUID, bucket string) ([]Record, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	var out []Record
	for _, rec := range r.records {
		if rec.ProjectID == projectID && rec.BucketName == bucket {
			out = append(out, rec)
		}
	}
	return out, nil
}

func (r *MemoryRepository) Delete(_ context.Context, projectID uuid.UUID, bucket, key string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	for id, rec := range r.records {
		if rec.ProjectID == projectID && rec.BucketName == bucket && rec.ObjectKey == key {
			delete(r.records, id)
			return nil
		}
	}
	return ErrNotFound
}

func (r *MemoryRepository) DeleteByID(_ context.Context, id uuid.UUID) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.records[id]; !ok {
		return ErrNotFound
	}
	delete(r.records, id)
	return nil
}

func (r *MemoryRepository) DeleteAllForProject(_ context.Context, projectID uuid.UUID) (int64, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var n int64
	for id, rec := range r.records {
		if rec.ProjectID == projectID {
			delete(r.records, id)
			n++
		}
	}
	return n, nil
}

func (r *MemoryRepository) UpdateSize(_ context.Context, id uuid.UUID, size int64) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	rec, ok := r.records[id]
	if !ok {
		return ErrNotFound
	}
	rec.Size = size
	r.records[id] = rec
	return nil
}

func (r *MemoryRepository) UpdateStatus(_ context.Context, id uuid.UUID, status Status, detail string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	rec, ok := r.records[id]
	if !ok {
		return ErrNotFound
	}
	rec.Status = status
	rec.Detail = detail
	r.records[id] = rec
	return nil
}

func (r *MemoryRepository) SetDerived(_ context.Context, id uuid.UUID, status Status, derivedKey string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	rec, ok := r.records[id]
	if !ok {
		return ErrNotFound
	}
	rec.Status = status
	rec.DerivedKey = derivedKey
	r.records[id] = rec
	return nil
}

func (r *MemoryRepository) StatsByProject(_ context.Context, projectID uuid.UUID) (Stats, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	var stats Stats
	for _, rec := range r.records {
		if rec.ProjectID == projectID {
			stats.Count++
			stats.TotalSize += rec.Size
		}
	}
	return stats, nil
}

func (r *MemoryRepository) StatsByBucket(_ context.Context, projectID uuid.UUID) (map[string]Stats, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	out := make(map[string]Stats)
	for _, rec := range r.records {
		if rec.ProjectID == projectID {
			s := out[rec.BucketName]
			s.Count++
			s.TotalSize += rec.Size
			out[rec.BucketName] = s
		}
	}
	return out, nil
}

var _ Repository = (*MemoryRepository)(nil)
