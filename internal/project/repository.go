package project

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"
)

// Repository persists projects.
type Repository interface {
	Create(ctx context.Context, p *Project) error
	GetByID(ctx context.Context, id uuid.UUID) (*Project, error)
	GetByAPIKey(ctx context.Context, apiKey string) (*Project, error)
	List(ctx context.Context) ([]Overview, error)
	ListIDs(ctx context.Context) ([]uuid.UUID, error)
	UpdateAPIKey(ctx context.Context, id uuid.UUID, apiKey string) error
	Delete(ctx context.Context, id uuid.UUID) error
}

// PgRepository is the PostgreSQL-backed Repository.
type PgRepository struct {
	pool *pgxpool.Pool
}

// NewRepository creates a PostgreSQL repository on the given pool.
func NewRepository(pool *pgxpool.Pool) *PgRepository {
	return &PgRepository{pool: pool}
}

const uniqueViolation = "23505"

func (r *PgRepository) Create(ctx context.Context, p *Project) error {
	err := r.pool.QueryRow(ctx,
		`INSERT INTO projects (name, api_key) VALUES ($1, $2)
		 RETURNING id, created_at`,
		p.Name, p.APIKey,
	).Scan(&p.ID, &p.CreatedAt)
	if err != nil {
		var pgErr *pgconn.PgError
		if errors.As(err, &pgErr) && pgErr.Code == uniqueViolation {
			return fmt.Errorf("%w: %s", ErrNameTaken, p.Name)
		}
		return fmt.Errorf("project: create: %w", err)
	}
	return nil
}

func (r *PgRepository) GetByID(ctx context.Context, id uuid.UUID) (*Project, error) {
	p := &Project{}
	err := r.pool.QueryRow(ctx,
		`SELECT id, name, api_key, created_at FROM projects WHERE id = $1`,
		id,
	).Scan(&p.ID, &p.Name, &p.APIKey, &p.CreatedAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("project: get by id: %w", err)
	}
	return p, nil
}

func (r *PgRepository) GetByAPIKey(ctx context.Context, apiKey string) (*Project, error) {
	p := &Project{}
	err := r.pool.QueryRow(ctx,
		`SELECT id, name, api_key, created_at FROM projects WHERE api_key = $1`,
		apiKey,
	).Scan(&p.ID, &p.Name, &p.APIKey, &p.CreatedAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("project: get by api key: %w", err)
	}
	return p, nil
}

// List returns all projects with bucket, file, and size aggregates in a
// single query, avoiding one aggregate round trip per project.
func (r *PgRepository) List(ctx context.Context) ([]Overview, error) {
	rows, err := r.pool.Query(ctx,
		`SELECT p.id, p.name, p.api_key, p.created_at,
		        COALESCE(b.bucket_count, 0),
		        COALESCE(f.file_count, 0),
		        COALESCE(f.total_size, 0)
		 FROM projects p
		 LEFT JOIN (
		     SELECT project_id, COUNT(*) AS bucket_count
		     FROM buckets GROUP BY project_id
		 ) b ON b.project_id = p.id
		 LEFT JOIN (
		     SELECT project_id, COUNT(*) AS file_count, SUM(size) AS total_size
		     FROM files GROUP BY project_id
		 ) f ON f.project_id = p.id
		 ORDER BY p.created_at`,
	)
	if err != nil {
		return nil, fmt.Errorf("project: list: %w", err)
	}
	defer rows.Close()

	var out []Overview
	for rows.Next() {
		var o Overview
		if err := rows.Scan(
			&o.ID, &o.Name, &o.APIKey, &o.CreatedAt,
			&o.BucketCount, &o.FileCount, &o.TotalSize,
		); err != nil {
			return nil, fmt.Errorf("project: list scan: %w", err)
		}
		out = append(out, o)
	}
	return out, rows.Err()
}

// ListIDs returns every project id, for fan-out jobs that iterate all
// tenants.
func (r *PgRepository) ListIDs(ctx context.Context) ([]uuid.UUID, error) {
	rows, err := r.pool.Query(ctx, `SELECT id FROM projects`)
	if err != nil {
		return nil, fmt.Errorf("project: list ids: %w", err)
	}
	defer rows.Close()

	var ids []uuid.UUID
	for rows.Next() {
		var id uuid.UUID
		if err := rows.Scan(&id); err != nil {
			return nil, fmt.Errorf("project: list ids scan: %w", err)
		}
		ids = append(ids, id)
	}
	return ids, rows.Err()
}

func (r *PgRepository) UpdateAPIKey(ctx context.Context, id uuid.UUID, apiKey string) error {
	tag, err := r.pool.Exec(ctx,
		`UPDATE projects SET api_key = $2 WHERE id = $1`,
		id, apiKey,
	)
	if err != nil {
		return fmt.Errorf("project: update api key: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}

func (r *PgRepository) Delete(ctx context.Context, id uuid.UUID) error {
	tag, err := r.pool.Exec(ctx, `DELETE FROM projects WHERE id = $1`, id)
	if err != nil {
		return fmt.Errorf("project: delete: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}

var _ Repository = (*PgRepository)(nil)
