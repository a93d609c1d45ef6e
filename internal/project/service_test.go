package project_test

import (
	"context"
	"errors"
	"strings"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/require"

	"github.com/filecrate/filecrate/internal/bucket"
	"github.com/filecrate/filecrate/internal/file"
	"github.com/filecrate/filecrate/internal/project"
	"github.com/filecrate/filecrate/pkg/blob"
	"github.com/filecrate/filecrate/pkg/logger"
)

// flakyStore fails deletes for one object key.
type flakyStore struct {
	blob.Storage
	failKey string
}

func (f *flakyStore) Delete(ctx context.Context, bucket, key string) error {
	if key == f.failKey {
		return errors.New("simulated backend failure")
	}
	return f.Storage.Delete(ctx, bucket, key)
}

func TestServiceCreateAndAuthenticate(t *testing.T) {
	t.Parallel()

	repo := project.NewMemoryRepository()
	svc := project.NewService(repo, bucket.NewMemoryRepository(), file.NewMemoryRepository(), blob.NewMemoryStorage(), nil, logger.NewNope())

	p, err := svc.Create(context.Background(), "acme")
	require.NoError(t, err)
	require.NotEmpty(t, p.APIKey)

	_, err = svc.Create(context.Background(), "acme")
	require.ErrorIs(t, err, project.ErrNameTaken)

	t.Run("bare key resolves to exactly one tenant", func(t *testing.T) {
		got, err := svc.Authenticate(context.Background(), p.APIKey)
		require.NoError(t, err)
		require.Equal(t, p.ID, got.ID)
	})

	t.Run("unknown key rejected", func(t *testing.T) {
		_, err := svc.Authenticate(context.Background(), "nope")
		require.ErrorIs(t, err, project.ErrInvalidKey)
	})

	t.Run("empty key rejected", func(t *testing.T) {
		_, err := svc.Authenticate(context.Background(), "")
		require.ErrorIs(t, err, project.ErrInvalidKey)
	})
}

func TestServiceRegenerateKey(t *testing.T) {
	t.Parallel()

	repo := project.NewMemoryRepository()
	svc := project.NewService(repo, bucket.NewMemoryRepository(), file.NewMemoryRepository(), blob.NewMemoryStorage(), nil, logger.NewNope())

	p, err := svc.Create(context.Background(), "acme")
	require.NoError(t, err)
	oldKey := p.APIKey

	rotated, err := svc.RegenerateKey(context.Background(), p.ID)
	require.NoError(t, err)
	require.NotEqual(t, oldKey, rotated.APIKey)

	_, err = svc.Authenticate(context.Background(), oldKey)
	require.ErrorIs(t, err, project.ErrInvalidKey)

	got, err := svc.Authenticate(context.Background(), rotated.APIKey)
	require.NoError(t, err)
	require.Equal(t, p.ID, got.ID)
}

func TestServiceCascadeDelete(t *testing.T) {
	t.Parallel()

	repo := project.NewMemoryRepository()
	bucketRepo := bucket.NewMemoryRepository()
	fileRepo := file.NewMemoryRepository()
	mem := blob.NewMemoryStorage()
	store := &flakyStore{Storage: mem, failKey: "keep/stuck.bin"}
	svc := project.NewService(repo, bucketRepo, fileRepo, store, nil, logger.NewNope())

	p, err := svc.Create(context.Background(), "doomed")
	require.NoError(t, err)

	// Two buckets with objects and records; one object delete will fail.
	for _, name := range []string{"one", "two"} {
		physical := p.ID.String() + "-" + name + "-aaaa0000"
		require.NoError(t, bucketRepo.Create(context.Background(), &bucket.Bucket{
			ProjectID:    p.ID,
			Name:         name,
			PhysicalName: physical,
		}))
		require.NoError(t, mem.CreateBucket(context.Background(), physical))
		require.NoError(t, mem.Put(context.Background(), physical, "keep/stuck.bin", strings.NewReader("x"), 1, "application/octet-stream"))
		require.NoError(t, mem.Put(context.Background(), physical, "other.bin", strings.NewReader("y"), 1, "application/octet-stream"))
		require.NoError(t, fileRepo.Create(context.Background(), &file.Record{
			ProjectID:  p.ID,
			BucketName: name,
			ObjectKey:  "other.bin",
			Size:       1,
			Status:     file.StatusClean,
		}))
	}

	result, err := svc.Delete(context.Background(), p.ID)
	require.NoError(t, err)
	require.Equal(t, 2, result.BucketsDeleted)
	require.Equal(t, "doomed", result.ProjectName)

	// DB state is gone unconditionally, physical cleanup notwithstanding.
	_, err = repo.GetByID(context.Background(), p.ID)
	require.ErrorIs(t, err, project.ErrNotFound)

	bkts, err := bucketRepo.ListByProject(context.Background(), p.ID)
	require.NoError(t, err)
	require.Empty(t, bkts)

	n, err := fileRepo.DeleteAllForProject(context.Background(), p.ID)
	require.NoError(t, err)
	require.Zero(t, n)

	_, err = svc.Authenticate(context.Background(), p.APIKey)
	require.ErrorIs(t, err, project.ErrInvalidKey)
}

func TestServiceDeleteUnknownProject(t *testing.T) {
	t.Parallel()

	svc := project.NewService(project.NewMemoryRepository(), bucket.NewMemoryRepository(), file.NewMemoryRepository(), blob.NewMemoryStorage(), nil, logger.NewNope())
	_, err := svc.Delete(context.Background(), uuid.New())
	require.ErrorIs(t, err, project.ErrNotFound)
}
