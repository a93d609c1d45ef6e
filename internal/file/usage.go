package file

import (
	"context"

	"github.com/google/uuid"

	"github.com/filecrate/filecrate/internal/bucket"
)

// UsageProvider adapts the file repository's aggregates to the
// namespace registry's StatsProvider interface.
type UsageProvider struct {
	repo Repository
}

// NewUsageProvider creates a StatsProvider backed by file metadata.
func NewUsageProvider(repo Repository) *UsageProvider {
	return &UsageProvider{repo: repo}
}

func (p *UsageProvider) StatsByBucket(ctx context.Context, projectID uuid.UUID) (map[string]bucket.FileStats, error) {
	stats, err := p.repo.StatsByBucket(ctx, projectID)
	if err != nil {
		return nil, err
	}
	out := make(map[string]bucket.FileStats, len(stats))
	for name, st := range stats {
		out[name] = bucket.FileStats{
			ObjectCount: st.Count,
			TotalSize:   st.TotalSize,
		}
	}
	return out, nil
}

var _ bucket.StatsProvider = (*UsageProvider)(nil)
