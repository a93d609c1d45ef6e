package file

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"
)

// Repository persists file records. Besides the upload-completion path,
// its only writers are the reconciliation engine and the processing
// pipeline.
type Repository interface {
	Create(ctx context.Context, rec *Record) error
	Get(ctx context.Context, projectID uuid.UUID, bucket, key string) (*Record, error)
	GetByID(ctx context.Context, id uuid.UUID) (*Record, error)
	ListByBucket(ctx context.Context, projectID uuid.UUID, bucket string) ([]Record, error)
	Delete(ctx context.Context, projectID uuid.UUID, bucket, key string) error
	DeleteByID(ctx context.Context, id uuid.UUID) error
	DeleteAllForProject(ctx context.Context, projectID uuid.UUID) (int64, error)
	UpdateSize(ctx context.Context, id uuid.UUID, size int64) error
	UpdateStatus(ctx context.Context, id uuid.UUID, status Status, detail string) error
	SetDerived(ctx context.Context, id uuid.UUID, status Status, derivedKey string) error
	StatsByProject(ctx context.Context, projectID uuid.UUID) (Stats, error)
	StatsByBucket(ctx context.Context, projectID uuid.UUID) (map[string]Stats, error)
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

const recordColumns = `id, project_id, bucket_name, object_key, size, content_type,
	status, COALESCE(detail, ''), COALESCE(derived_key, ''), created_at`

func scanRecord(row pgx.Row) (*Record, error) {
	rec := &Record{}
	err := row.Scan(
		&rec.ID, &rec.ProjectID, &rec.BucketName, &rec.ObjectKey,
		&rec.Size, &rec.ContentType, &rec.Status, &rec.Detail,
		&rec.DerivedKey, &rec.CreatedAt,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, err
	}
	return rec, nil
}

func (r *PgRepository) Create(ctx context.Context, rec *Record) error {
	if rec.Status == "" {
		rec.Status = StatusPending
	}
	err := r.pool.QueryRow(ctx,
		`INSERT INTO files (project_id, bucket_name, object_key, size, content_type, status)
		 VALUES ($1, $2, $3, $4, $5, $6)
		 RETURNING id, created_at`,
		rec.ProjectID, rec.BucketName, rec.ObjectKey, rec.Size, rec.ContentType, rec.Status,
	).Scan(&rec.ID, &rec.CreatedAt)
	if err != nil {
		var pgErr *pgconn.PgError
		if errors.As(err, &pgErr) && pgErr.Code == uniqueViolation {
			return fmt.Errorf("%w: %s/%s", ErrExists, rec.BucketName, rec.ObjectKey)
		}
		return fmt.Errorf("file: create: %w", err)
	}
	return nil
}

func (r *PgRepository) Get(ctx context.Context, projectID uuid.UUID, bucket, key string) (*Record, error) {
	rec, err := scanRecord(r.pool.QueryRow(ctx,
		`SELECT `+recordColumns+` FROM files
		 WHERE project_id = $1 AND bucket_name = $2 AND object_key = $3`,
		projectID, bucket, key,
	))
	if err != nil {
		if errors.Is(err, ErrNotFound) {
			return nil, err
		}
		return nil, fmt.Errorf("file: get: %w", err)
	}
	return rec, nil
}

func (r *PgRepository) GetByID(ctx context.Context, id uuid.UUID) (*Record, error) {
	rec, err := scanRecord(r.pool.QueryRow(ctx,
		`SELECT `+recordColumns+` FROM files WHERE id = $1`,
		id,
	))
	if err != nil {
		if errors.Is(err, ErrNotFound) {
			return nil, err
		}
		return nil, fmt.Errorf("file: get by id: %w", err)
	}
	return rec, nil
}

func (r *PgRepository) ListByBucket(ctx context.Context, projectID uuid.UUID, bucket string) ([]Record, error) {
	rows, err := r.pool.Query(ctx,
		`SELECT `+recordColumns+` FROM files
		 WHERE project_id = $1 AND bucket_name = $2`,
		projectID, bucket,
	)
	if err != nil {
		return nil, fmt.Errorf("file: list: %w", err)
	}
	defer rows.Close()

	var out []Record
	for rows.Next() {
		rec, err := scanRecord(rows)
		if err != nil {
			return nil, fmt.Errorf("file: list scan: %w", err)
		}
		out = append(out, *rec)
	}
	return out, rows.Err()
}

func (r *PgRepository) Delete(ctx context.Context, projectID uuid.UUID, bucket, key string) error {
	tag, err := r.pool.Exec(ctx,
		`DELETE FROM files WHERE project_id = $1 AND bucket_name = $2 AND object_key = $3`,
		projectID, bucket, key,
	)
	if err != nil {
		return fmt.Errorf("file: delete: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}

func (r *PgRepository) DeleteByID(ctx context.Context, id uuid.UUID) error {
	tag, err := r.pool.Exec(ctx, `DELETE FROM files WHERE id = $1`, id)
	if err != nil {
		return fmt.Errorf("file: delete by id: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}

func (r *PgRepository) DeleteAllForProject(ctx context.Context, projectID uuid.UUID) (int64, error) {
	tag, err := r.pool.Exec(ctx, `DELETE FROM files WHERE project_id = $1`, projectID)
	if err != nil {
		return 0, fmt.Errorf("file: delete all: %w", err)
	}
	return tag.RowsAffected(), nil
}

func (r *PgRepository) UpdateSize(ctx context.Context, id uuid.UUID, size int64) error {
	_, err := r.pool.Exec(ctx, `UPDATE files SET size = $2 WHERE id = $1`, id, size)
	if err != nil {
		return fmt.Errorf("file: update size: %w", err)
	}
	return nil
}

func (r *PgRepository) UpdateStatus(ctx context.Context, id uuid.UUID, status Status, detail string) error {
	_, err := r.pool.Exec(ctx,
		`UPDATE files SET status = $2, detail = $3 WHERE id = $1`,
		id, status, detail,
	)
	if err != nil {
		return fmt.Errorf("file: update status: %w", err)
	}
	return nil
}

func (r *PgRepository) SetDerived(ctx context.Context, id uuid.UUID, status Status, derivedKey string) error {
	_, err := r.pool.Exec(ctx,
		`UPDATE files SET status = $2, derived_key = $3 WHERE id = $1`,
		id, status, derivedKey,
	)
	if err != nil {
		return fmt.Errorf("file: set derived: %w", err)
	}
	return nil
}

func (r *PgRepository) StatsByProject(ctx context.Context, projectID uuid.UUID) (Stats, error) {
	var st Stats
	err := r.pool.QueryRow(ctx,
		`SELECT COUNT(*), COALESCE(SUM(size), 0) FROM files WHERE project_id = $1`,
		projectID,
	).Scan(&st.Count, &st.TotalSize)
	if err != nil {
		return Stats{}, fmt.Errorf("file: stats by project: %w", err)
	}
	return st, nil
}

func (r *PgRepository) StatsByBucket(ctx context.Context, projectID uuid.UUID) (map[string]Stats, error) {
	rows, err := r.pool.Query(ctx,
		`SELECT bucket_name, COUNT(*), COALESCE(SUM(size), 0)
		 FROM files WHERE project_id = $1 GROUP BY bucket_name`,
		projectID,
	)
	if err != nil {
		return nil, fmt.Errorf("file: stats by bucket: %w", err)
	}
	defer rows.Close()

	out := make(map[string]Stats)
	for rows.Next() {
		var name string
		var st Stats
		if err := rows.Scan(&name, &st.Count, &st.TotalSize); err != nil {
			return nil, fmt.Errorf("file: stats scan: %w", err)
		}
		out[name] = st
	}
	return out, rows.Err()
}

var _ Repository = (*PgRepository)(nil)
