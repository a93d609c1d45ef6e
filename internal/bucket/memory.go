package bucket

import (
	"context"
	"sync"
	"time"

	"github.com/google/uuid"
)

// MemoryRepository is an in-memory Repository used in tests.
type MemoryRepository struct {
	mu      sync.RWMutex
	buckets map[uuid.UUID]Bucket
}

func NewMemoryRepository() *MemoryRepository {
	return &MemoryRepository{buckets: make(map[uuid.UUID]Bucket)}
}

func (r *MemoryRepository) Create(_ context.Context, b *Bucket) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, existing := range r.buckets {
		if existing.ProjectID == b.ProjectID && existing.Name == b.Name {
			return ErrAlreadyExists
		}
	}
	b.ID = uuid.New()
	b.CreatedAt = time.Now()
	r.buckets[b.ID] = *b
	return nil
}

func (r *MemoryRepository) GetByName(_ context.Context, projectID uuid.UUID, name string) (*Bucket, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	for _, b := range r.buckets {
		if b.ProjectID == projectID && b.Name == name {
			b := b
			return &b, nil
		}
	}
	return nil, ErrNotFound
}

func (r *MemoryRepository) ListByProject(_ context.Context, projectID uuid.UUID) ([]Bucket, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	var out []Bucket
	for _, b := range r.buckets {
		if b.ProjectID == projectID {
			out = append(out, b)
		}
	}
	return out, nil
}

func (r *MemoryRepository) Rename(_ context.Context, id uuid.UUID, newName string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	b, ok := r.buckets[id]
	if !ok {
		return ErrNotFound
	}
	b.Name = newName
	r.buckets[id] = b
	return nil
}

func (r *MemoryRepository) Delete(_ context.Context, id uuid.UUID) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.buckets[id]; !ok {
		return ErrNotFound
	}
	delete(r.buckets, id)
	return nil
}

func (r *MemoryRepository) DeleteAllForProject(_ context.Context, projectID uuid.UUID) (int64, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var n int64
	for id, b := range r.buckets {
		if b.ProjectID == projectID {
			delete(r.buckets, id)
			n++
		}
	}
	return n, nil
}

var _ Repository = (*MemoryRepository)(nil)
