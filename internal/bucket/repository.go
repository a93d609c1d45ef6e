package bucket

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"
)

// Repository persists logical-to-physical bucket mappings.
type Repository interface {
	Create(ctx context.Context, b *Bucket) error
	GetByName(ctx context.Context, projectID uuid.UUID, name string) (*Bucket, error)
	ListByProject(ctx context.Context, projectID uuid.UUID) ([]Bucket, error)
	Rename(ctx context.Context, id uuid.UUID, newName string) error
	Delete(ctx context.Context, id uuid.UUID) error
	DeleteAllForProject(ctx context.Context, projectID uuid.UUID) (int64, error)
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

func (r *PgRepository) Create(ctx context.Context, b *Bucket) error {
	err := r.pool.QueryRow(ctx,
		`INSERT INTO buckets (project_id, name, physical_name)
		 VALUES ($1, $2, $3)
		 RETURNING id, created_at`,
		b.ProjectID, b.Name, b.PhysicalName,
	).Scan(&b.ID, &b.CreatedAt)
	if err != nil {
		var pgErr *pgconn.PgError
		if errors.As(err, &pgErr) && pgErr.Code == uniqueViolation {
			return fmt.Errorf("%w: %s", ErrAlreadyExists, b.Name)
		}
		return fmt.Errorf("bucket: create: %w", err)
	}
	return nil
}

func (r *PgRepository) GetByName(ctx context.Context, projectID uuid.UUID, name string) (*Bucket, error) {
	b := &Bucket{}
	err := r.pool.QueryRow(ctx,
		`SELECT id, project_id, name, physical_name, created_at
		 FROM buckets WHERE project_id = $1 AND name = $2`,
		projectID, name,
	).Scan(&b.ID, &b.ProjectID, &b.Name, &b.PhysicalName, &b.CreatedAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("bucket: get by name: %w", err)
	}
	return b, nil
}

func (r *PgRepository) ListByProject(ctx context.Context, projectID uuid.UUID) ([]Bucket, error) {
	rows, err := r.pool.Query(ctx,
		`SELECT id, project_id, name, physical_name, created_at
		 FROM buckets WHERE project_id = $1`,
		projectID,
	)
	if err != nil {
		return nil, fmt.Errorf("bucket: list: %w", err)
	}
	defer rows.Close()

	var out []Bucket
	for rows.Next() {
		var b Bucket
		if err := rows.Scan(&b.ID, &b.ProjectID, &b.Name, &b.PhysicalName, &b.CreatedAt); err != nil {
			return nil, fmt.Errorf("bucket: list scan: %w", err)
		}
		out = append(out, b)
	}
	return out, rows.Err()
}

// Rename updates the logical name only. The physical name is immutable.
func (r *PgRepository) Rename(ctx context.Context, id uuid.UUID, newName string) error {
	tag, err := r.pool.Exec(ctx,
		`UPDATE buckets SET name = $2 WHERE id = $1`,
		id, newName,
	)
	if err != nil {
		var pgErr *pgconn.PgError
		if errors.As(err, &pgErr) && pgErr.Code == uniqueViolation {
			return fmt.Errorf("%w: %s", ErrAlreadyExists, newName)
		}
		return fmt.Errorf("bucket: rename: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}

func (r *PgRepository) Delete(ctx context.Context, id uuid.UUID) error {
	tag, err := r.pool.Exec(ctx, `DELETE FROM buckets WHERE id = $1`, id)
	if err != nil {
		return fmt.Errorf("bucket: delete: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}

func (r *PgRepository) DeleteAllForProject(ctx context.Context, projectID uuid.UUID) (int64, error) {
	tag, err := r.pool.Exec(ctx, `DELETE FROM buckets WHERE project_id = $1`, projectID)
	if err != nil {
		return 0, fmt.Errorf("bucket: delete all: %w", err)
	}
	return tag.RowsAffected(), nil
}

var _ Repository = (*PgRepository)(nil)
