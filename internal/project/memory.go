package project

import (
	"context"
	"sync"
	"time"

	"github.com/google/uuid"
)

// MemoryRepository is an in-memory Repository used in tests. Aggregates
// in List are zero; tests asserting aggregates use the real store.
type MemoryRepository struct {
	mu       sync.RWMutex
	projects map[uuid.UUID]Project
}

func NewMemoryRepository() *MemoryRepository {
	return &MemoryRepository{projects: make(map[uuid.UUID]Project)}
}

func (r *MemoryRepository) Create(_ context.Context, p *Project) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, existing := range r.projects {
		if existing.Name == p.Name {
			return ErrNameTaken
		}
	}
	p.ID = uuid.New()
	p.CreatedAt = time.Now()
	r.projects[p.ID] = *p
	return nil
}

func (r *MemoryRepository) GetByID(_ context.Context, id uuid.UUID) (*Project, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	p, ok := r.projects[id]
	if !ok {
		return nil, ErrNotFound
	}
	return &p, nil
}

func (r *MemoryRepository) GetByAPIKey(_ context.Context, apiKey string) (*Project, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	for _, p := range r.projects {
		if p.APIKey == apiKey {
			p := p
			return &p, nil
		}
	}
	return nil, ErrNotFound
}

func (r *MemoryRepository) List(_ context.Context) ([]Overview, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	out := make([]Overview, 0, len(r.projects))
	for _, p := range r.projects {
		out = append(out, Overview{Project: p})
	}
	return out, nil
}

func (r *MemoryRepository) ListIDs(_ context.Context) ([]uuid.UUID, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	ids := make([]uuid.UUID, 0, len(r.projects))
	for id := range r.projects {
		ids = append(ids, id)
	}
	return ids, nil
}

func (r *MemoryRepository) UpdateAPIKey(_ context.Context, id uuid.UUID, apiKey string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	p, ok := r.projects[id]
	if !ok {
		return ErrNotFound
	}
	p.APIKey = apiKey
	r.projects[id] = p
	return nil
}

func (r *MemoryRepository) Delete(_ context.Context, id uuid.UUID) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.projects[id]; !ok {
		return ErrNotFound
	}
	delete(r.projects, id)
	return nil
}

var _ Repository = (*MemoryRepository)(nil)
