package file_test

import (
	"context"
	"errors"
	"strings"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/require"

	"github.com/filecrate/filecrate/internal/file"
	"github.com/filecrate/filecrate/pkg/blob"
	"github.com/filecrate/filecrate/pkg/logger"
)

var errBucketMissing = errors.New("bucket missing")

type mapResolver map[string]string

func (m mapResolver) ResolvePhysical(_ context.Context, _ uuid.UUID, name string) (string, error) {
	physical, ok := m[name]
	if !ok {
		return "", errBucketMissing
	}
	return physical, nil
}

type recordingTrigger struct {
	ids []uuid.UUID
}

func (r *recordingTrigger) TriggerScan(_ context.Context, id uuid.UUID) error {
	r.ids = append(r.ids, id)
	return nil
}

type env struct {
	svc       *file.Service
	repo      *file.MemoryRepository
	store     *blob.MemoryStorage
	trigger   *recordingTrigger
	projectID uuid.UUID
}

func newEnv(t *testing.T) *env {
	t.Helper()

	store := blob.NewMemoryStorage()
	require.NoError(t, store.CreateBucket(context.Background(), "physical-docs"))

	repo := file.NewMemoryRepository()
	trigger := &recordingTrigger{}
	svc := file.NewService(repo, mapResolver{"docs": "physical-docs"}, store, trigger, time.Hour, logger.NewNope())

	return &env{
		svc:       svc,
		repo:      repo,
		store:     store,
		trigger:   trigger,
		projectID: uuid.New(),
	}
}

func TestInitUpload(t *testing.T) {
	t.Parallel()

	t.Run("issues put-scoped ticket without a record", func(t *testing.T) {
		t.Parallel()

		e := newEnv(t)
		ticket, err := e.svc.InitUpload(context.Background(), e.projectID, "docs", "report.pdf", "")
		require.NoError(t, err)

		require.Contains(t, ticket.UploadURL, "method=PUT")
		require.Contains(t, ticket.UploadURL, "expires=3600")
		require.True(t, strings.HasPrefix(ticket.ObjectKey, "uploads/"))
		require.True(t, strings.HasSuffix(ticket.ObjectKey, ".pdf"))
		require.Equal(t, "https://memory.local/physical-docs/"+ticket.ObjectKey, ticket.FinalURL)
		require.EqualValues(t, 3600, ticket.ExpiresIn)

		// The record only appears at completion.
		_, err = e.repo.Get(context.Background(), e.projectID, "docs", ticket.ObjectKey)
		require.ErrorIs(t, err, file.ErrNotFound)
	})

	t.Run("unknown bucket", func(t *testing.T) {
		t.Parallel()

		e := newEnv(t)
		_, err := e.svc.InitUpload(context.Background(), e.projectID, "ghost", "a.txt", "")
		require.ErrorIs(t, err, errBucketMissing)
	})
}

func TestCompleteUpload(t *testing.T) {
	t.Parallel()

	t.Run("backend size wins over declared", func(t *testing.T) {
		t.Parallel()

		e := newEnv(t)
		key := "uploads/2025/03/abc.txt"
		require.NoError(t, e.store.Put(context.Background(), "physical-docs", key, strings.NewReader("hello world"), 11, "text/plain"))

		rec, err := e.svc.CompleteUpload(context.Background(), e.projectID, "docs", key, 9999, "text/plain")
		require.NoError(t, err)
		require.EqualValues(t, 11, rec.Size)
		require.Equal(t, file.StatusPending, rec.Status)
		require.Equal(t, []uuid.UUID{rec.ID}, e.trigger.ids)
	})

	t.Run("declared size trusted when stat fails", func(t *testing.T) {
		t.Parallel()

		e := newEnv(t)
		rec, err := e.svc.CompleteUpload(context.Background(), e.projectID, "docs", "uploads/2025/03/ghost.txt", 123, "text/plain")
		require.NoError(t, err)
		require.EqualValues(t, 123, rec.Size)
		require.Equal(t, file.StatusPending, rec.Status)
	})
}

func TestAccessURL(t *testing.T) {
	t.Parallel()

	t.Run("presigns existing object", func(t *testing.T) {
		t.Parallel()

		e := newEnv(t)
		key := "uploads/2025/03/abc.txt"
		require.NoError(t, e.store.Put(context.Background(), "physical-docs", key, strings.NewReader("x"), 1, "text/plain"))

		access, err := e.svc.AccessURL(context.Background(), e.projectID, "docs", key, 5*time.Minute)
		require.NoError(t, err)
		require.Contains(t, access.URL, "method=GET")
		require.Contains(t, access.URL, "expires=300")
		require.EqualValues(t, 300, access.ExpiresIn)
	})

	t.Run("zero expiry falls back to default", func(t *testing.T) {
		t.Parallel()

		e := newEnv(t)
		key := "uploads/2025/03/abc.txt"
		require.NoError(t, e.store.Put(context.Background(), "physical-docs", key, strings.NewReader("x"), 1, "text/plain"))

		access, err := e.svc.AccessURL(context.Background(), e.projectID, "docs", key, 0)
		require.NoError(t, err)
		require.EqualValues(t, 3600, access.ExpiresIn)
	})

	t.Run("never-uploaded key", func(t *testing.T) {
		t.Parallel()

		e := newEnv(t)
		_, err := e.svc.AccessURL(context.Background(), e.projectID, "docs", "uploads/2025/03/nope.txt", 0)
		require.ErrorIs(t, err, file.ErrNotFound)
	})
}

func TestDelete(t *testing.T) {
	t.Parallel()

	e := newEnv(t)
	key := "uploads/2025/03/abc.txt"
	require.NoError(t, e.store.Put(context.Background(), "physical-docs", key, strings.NewReader("x"), 1, "text/plain"))
	_, err := e.svc.CompleteUpload(context.Background(), e.projectID, "docs", key, 1, "text/plain")
	require.NoError(t, err)

	require.NoError(t, e.svc.Delete(context.Background(), e.projectID, "docs", key))

	_, err = e.store.Stat(context.Background(), "physical-docs", key)
	require.ErrorIs(t, err, blob.ErrNotFound)
	_, err = e.repo.Get(context.Background(), e.projectID, "docs", key)
	require.ErrorIs(t, err, file.ErrNotFound)
}
