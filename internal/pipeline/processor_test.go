package pipeline_test

import (
	"context"
	"errors"
	"fmt"
	"io"
	"strings"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/require"

	"github.com/filecrate/filecrate/internal/bucket"
	"github.com/filecrate/filecrate/internal/file"
	"github.com/filecrate/filecrate/internal/pipeline"
	"github.com/filecrate/filecrate/pkg/blob"
	"github.com/filecrate/filecrate/pkg/logger"
)

// scriptedResolver maps logical names to physical ones and can be
// forced into an outage.
type scriptedResolver struct {
	physical map[string]string
	err      error
}

func (r *scriptedResolver) ResolvePhysical(_ context.Context, _ uuid.UUID, name string) (string, error) {
	if r.err != nil {
		return "", r.err
	}
	physical, ok := r.physical[name]
	if !ok {
		return "", fmt.Errorf("%w: %s", bucket.ErrNotFound, name)
	}
	return physical, nil
}

// fakeScanner scripts the scan engine's behavior.
type fakeScanner struct {
	reachable bool
	infected  bool
	signature string
	err       error
}

func (s *fakeScanner) Available(context.Context) bool { return s.reachable }

func (s *fakeScanner) Scan(_ context.Context, r io.Reader) (*pipeline.Verdict, error) {
	io.Copy(io.Discard, r)
	if s.err != nil {
		return nil, s.err
	}
	return &pipeline.Verdict{Infected: s.infected, Detail: s.signature}, nil
}

// rewriteStage is a deterministic sanitize stage for tests.
type rewriteStage struct {
	fail bool
}

func (*rewriteStage) Name() string              { return "sanitize" }
func (*rewriteStage) Suffix() string            { return "sanitized" }
func (*rewriteStage) OutputExt() string         { return "pdf" }
func (*rewriteStage) OutputContentType() string { return "application/pdf" }
func (*rewriteStage) DoneStatus() file.Status   { return file.StatusSanitized }
func (*rewriteStage) FailedStatus() file.Status { return file.StatusSanitizationFailed }

func (s *rewriteStage) Transform(_ context.Context, src []byte) ([]byte, error) {
	if s.fail {
		return nil, errors.New("corrupt document")
	}
	return append([]byte("sanitized:"), src...), nil
}

type world struct {
	proc      *pipeline.Processor
	files     *file.MemoryRepository
	store     *blob.MemoryStorage
	scanner   *fakeScanner
	resolver  *scriptedResolver
	projectID uuid.UUID
}

func newWorld(t *testing.T, scanner *fakeScanner, stageFails bool) *world {
	t.Helper()

	store := blob.NewMemoryStorage()
	require.NoError(t, store.CreateBucket(context.Background(), "physical-docs"))

	registry := pipeline.NewRegistry()
	registry.Register(pipeline.CategoryPDF, &rewriteStage{fail: stageFails})

	files := file.NewMemoryRepository()
	resolver := &scriptedResolver{physical: map[string]string{"docs": "physical-docs"}}
	proc := pipeline.NewProcessor(files, resolver, store, scanner, registry, logger.NewNope())

	return &world{
		proc:      proc,
		files:     files,
		store:     store,
		scanner:   scanner,
		resolver:  resolver,
		projectID: uuid.New(),
	}
}

func (w *world) upload(t *testing.T, key, contentType, content string) uuid.UUID {
	t.Helper()
	require.NoError(t, w.store.Put(context.Background(), "physical-docs", key, strings.NewReader(content), int64(len(content)), contentType))
	rec := &file.Record{
		ProjectID:   w.projectID,
		BucketName:  "docs",
		ObjectKey:   key,
		Size:        int64(len(content)),
		ContentType: contentType,
		Status:      file.StatusPending,
	}
	require.NoError(t, w.files.Create(context.Background(), rec))
	return rec.ID
}

func (w *world) record(t *testing.T, id uuid.UUID) *file.Record {
	t.Helper()
	rec, err := w.files.GetByID(context.Background(), id)
	require.NoError(t, err)
	return rec
}

func TestScan(t *testing.T) {
	t.Parallel()

	t.Run("clean file proceeds", func(t *testing.T) {
		t.Parallel()

		w := newWorld(t, &fakeScanner{reachable: true}, false)
		id := w.upload(t, "uploads/2025/03/doc.pdf", "application/pdf", "%PDF-1.4")

		proceed, err := w.proc.Scan(context.Background(), id)
		require.NoError(t, err)
		require.True(t, proceed)
		require.Equal(t, file.StatusClean, w.record(t, id).Status)
	})

	t.Run("infected file is terminal", func(t *testing.T) {
		t.Parallel()

		w := newWorld(t, &fakeScanner{reachable: true, infected: true, signature: "Eicar-Test-Signature"}, false)
		id := w.upload(t, "uploads/2025/03/bad.pdf", "application/pdf", "X5O!")

		proceed, err := w.proc.Scan(context.Background(), id)
		require.NoError(t, err)
		require.False(t, proceed)

		rec := w.record(t, id)
		require.Equal(t, file.StatusInfected, rec.Status)
		require.Equal(t, "Eicar-Test-Signature", rec.Detail)
	})

	t.Run("unreachable engine skips scan and proceeds", func(t *testing.T) {
		t.Parallel()

		w := newWorld(t, &fakeScanner{reachable: false}, false)
		id := w.upload(t, "uploads/2025/03/doc.pdf", "application/pdf", "%PDF-1.4")

		proceed, err := w.proc.Scan(context.Background(), id)
		require.NoError(t, err)
		require.True(t, proceed)
		// Neither infected nor error: the scan never happened.
		require.Equal(t, file.StatusPending, w.record(t, id).Status)
	})

	t.Run("scan failure records error status", func(t *testing.T) {
		t.Parallel()

		w := newWorld(t, &fakeScanner{reachable: true, err: errors.New("stream reset")}, false)
		id := w.upload(t, "uploads/2025/03/doc.pdf", "application/pdf", "%PDF-1.4")

		proceed, err := w.proc.Scan(context.Background(), id)
		require.NoError(t, err)
		require.False(t, proceed)
		require.Equal(t, file.StatusError, w.record(t, id).Status)
	})

	t.Run("duplicate trigger on terminal record is a no-op", func(t *testing.T) {
		t.Parallel()

		w := newWorld(t, &fakeScanner{reachable: true}, false)
		id := w.upload(t, "uploads/2025/03/doc.pdf", "application/pdf", "%PDF-1.4")
		require.NoError(t, w.files.UpdateStatus(context.Background(), id, file.StatusSanitized, ""))

		proceed, err := w.proc.Scan(context.Background(), id)
		require.NoError(t, err)
		require.False(t, proceed)
		require.Equal(t, file.StatusSanitized, w.record(t, id).Status)
	})

	t.Run("vanished record is dropped silently", func(t *testing.T) {
		t.Parallel()

		w := newWorld(t, &fakeScanner{reachable: true}, false)
		proceed, err := w.proc.Scan(context.Background(), uuid.New())
		require.NoError(t, err)
		require.False(t, proceed)
	})

	t.Run("missing bucket drops job quietly", func(t *testing.T) {
		t.Parallel()

		w := newWorld(t, &fakeScanner{reachable: true}, false)
		id := w.upload(t, "uploads/2025/03/doc.pdf", "application/pdf", "%PDF-1.4")
		delete(w.resolver.physical, "docs")

		proceed, err := w.proc.Scan(context.Background(), id)
		require.NoError(t, err)
		require.False(t, proceed)
		require.Equal(t, file.StatusPending, w.record(t, id).Status)
	})

	t.Run("resolver outage propagates for retry", func(t *testing.T) {
		t.Parallel()

		w := newWorld(t, &fakeScanner{reachable: true}, false)
		id := w.upload(t, "uploads/2025/03/doc.pdf", "application/pdf", "%PDF-1.4")
		w.resolver.err = errors.New("connection refused")

		proceed, err := w.proc.Scan(context.Background(), id)
		require.Error(t, err)
		require.False(t, proceed)
		// No terminal status written: a retry can still process the file.
		require.Equal(t, file.StatusPending, w.record(t, id).Status)
		require.Empty(t, w.record(t, id).Detail)
	})
}

func TestTransform(t *testing.T) {
	t.Parallel()

	t.Run("pdf flows pending to clean to sanitized", func(t *testing.T) {
		t.Parallel()

		w := newWorld(t, &fakeScanner{reachable: true}, false)
		id := w.upload(t, "uploads/2025/03/doc.pdf", "application/pdf", "%PDF-1.4 content")

		proceed, err := w.proc.Scan(context.Background(), id)
		require.NoError(t, err)
		require.True(t, proceed)

		require.NoError(t, w.proc.Transform(context.Background(), id))

		rec := w.record(t, id)
		require.Equal(t, file.StatusSanitized, rec.Status)
		require.Equal(t, "uploads/2025/03/doc_sanitized.pdf", rec.DerivedKey)

		info, err := w.store.Stat(context.Background(), "physical-docs", rec.DerivedKey)
		require.NoError(t, err)
		require.Equal(t, "application/pdf", info.ContentType)
	})

	t.Run("stage failure is terminal, not retried", func(t *testing.T) {
		t.Parallel()

		w := newWorld(t, &fakeScanner{reachable: true}, true)
		id := w.upload(t, "uploads/2025/03/doc.pdf", "application/pdf", "%PDF-1.4")
		require.NoError(t, w.files.UpdateStatus(context.Background(), id, file.StatusClean, ""))

		require.NoError(t, w.proc.Transform(context.Background(), id))

		rec := w.record(t, id)
		require.Equal(t, file.StatusSanitizationFailed, rec.Status)
		require.NotEmpty(t, rec.Detail)
		require.Empty(t, rec.DerivedKey)
	})

	t.Run("unmapped content type keeps scan status", func(t *testing.T) {
		t.Parallel()

		w := newWorld(t, &fakeScanner{reachable: true}, false)
		id := w.upload(t, "uploads/2025/03/data.bin", "application/octet-stream", "bytes")
		require.NoError(t, w.files.UpdateStatus(context.Background(), id, file.StatusClean, ""))

		require.NoError(t, w.proc.Transform(context.Background(), id))
		require.Equal(t, file.StatusClean, w.record(t, id).Status)
	})

	t.Run("missing bucket drops job quietly", func(t *testing.T) {
		t.Parallel()

		w := newWorld(t, &fakeScanner{reachable: true}, false)
		id := w.upload(t, "uploads/2025/03/doc.pdf", "application/pdf", "%PDF-1.4")
		require.NoError(t, w.files.UpdateStatus(context.Background(), id, file.StatusClean, ""))
		delete(w.resolver.physical, "docs")

		require.NoError(t, w.proc.Transform(context.Background(), id))
		require.Equal(t, file.StatusClean, w.record(t, id).Status)
	})

	t.Run("resolver outage propagates for retry", func(t *testing.T) {
		t.Parallel()

		w := newWorld(t, &fakeScanner{reachable: true}, false)
		id := w.upload(t, "uploads/2025/03/doc.pdf", "application/pdf", "%PDF-1.4")
		require.NoError(t, w.files.UpdateStatus(context.Background(), id, file.StatusClean, ""))
		w.resolver.err = errors.New("connection refused")

		require.Error(t, w.proc.Transform(context.Background(), id))

		rec := w.record(t, id)
		require.Equal(t, file.StatusClean, rec.Status)
		require.Empty(t, rec.DerivedKey)
	})
}
