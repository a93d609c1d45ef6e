package pipeline

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"

	"github.com/google/uuid"

	"github.com/filecrate/filecrate/internal/bucket"
	"github.com/filecrate/filecrate/internal/file"
	"github.com/filecrate/filecrate/internal/metrics"
	"github.com/filecrate/filecrate/pkg/blob"
)

// Processor executes the scan and transform stages against the file
// store. Stage outcomes are recorded as terminal file statuses; only
// infrastructure failures surface as errors, so callers can retry those
// without re-running completed stages.
type Processor struct {
	files    file.Repository
	resolver file.Resolver
	store    blob.Storage
	scanner  Scanner
	registry *Registry
	log      *slog.Logger
}

func NewProcessor(
	files file.Repository,
	resolver file.Resolver,
	store blob.Storage,
	scanner Scanner,
	registry *Registry,
	log *slog.Logger,
) *Processor {
	return &Processor{
		files:    files,
		resolver: resolver,
		store:    store,
		scanner:  scanner,
		registry: registry,
		log:      log,
	}
}

// Scan runs the malware scan for a file and reports whether processing
// should proceed to the transform stage. Files that vanished, reached a
// terminal status, or failed the scan do not proceed; an unreachable
// scan engine skips the scan and proceeds.
func (p *Processor) Scan(ctx context.Context, fileID uuid.UUID) (bool, error) {
	rec, err := p.files.GetByID(ctx, fileID)
	if errors.Is(err, file.ErrNotFound) {
		return false, nil
	}
	if err != nil {
		return false, err
	}
	if rec.Status.Terminal() {
		// Duplicate trigger for an already-processed file.
		return false, nil
	}

	physical, err := p.resolver.ResolvePhysical(ctx, rec.ProjectID, rec.BucketName)
	if errors.Is(err, bucket.ErrNotFound) {
		p.log.WarnContext(ctx, "bucket gone before scan, dropping job",
			slog.String("file_id", rec.ID.String()),
			slog.String("bucket", rec.BucketName))
		return false, nil
	}
	if err != nil {
		// Transient lookup failure; leave the job to the queue's retry.
		return false, fmt.Errorf("resolve bucket: %w", err)
	}

	if !p.scanner.Available(ctx) {
		p.log.WarnContext(ctx, "scan engine unreachable, skipping scan",
			slog.String("file_id", rec.ID.String()),
			slog.String("object_key", rec.ObjectKey))
		metrics.PipelineStages.WithLabelValues("scan", "skipped").Inc()
		return true, nil
	}

	body, err := p.store.Get(ctx, physical, rec.ObjectKey)
	if err != nil {
		return false, p.recordScanError(ctx, rec, fmt.Errorf("fetch object: %w", err))
	}
	verdict, err := p.scanner.Scan(ctx, body)
	body.Close()
	if err != nil {
		return false, p.recordScanError(ctx, rec, err)
	}

	if verdict.Infected {
		p.log.WarnContext(ctx, "infected file detected",
			slog.String("file_id", rec.ID.String()),
			slog.String("object_key", rec.ObjectKey),
			slog.String("signature", verdict.Detail))
		metrics.PipelineStages.WithLabelValues("scan", "infected").Inc()
		return false, p.files.UpdateStatus(ctx, rec.ID, file.StatusInfected, verdict.Detail)
	}

	metrics.PipelineStages.WithLabelValues("scan", "clean").Inc()
	if err := p.files.UpdateStatus(ctx, rec.ID, file.StatusClean, ""); err != nil {
		return false, err
	}
	return true, nil
}

func (p *Processor) recordScanError(ctx context.Context, rec *file.Record, cause error) error {
	p.log.ErrorContext(ctx, "scan failed",
		slog.String("file_id", rec.ID.String()),
		slog.String("object_key", rec.ObjectKey),
		slog.String("error", cause.Error()))
	metrics.PipelineStages.WithLabelValues("scan", "error").Inc()
	return p.files.UpdateStatus(ctx, rec.ID, file.StatusError, cause.Error())
}

// Transform runs the content-type stage for a file. Files with no stage
// for their category keep their scan status. Stage failures are recorded
// as the stage's failed status and are not retried.
func (p *Processor) Transform(ctx context.Context, fileID uuid.UUID) error {
	rec, err := p.files.GetByID(ctx, fileID)
	if errors.Is(err, file.ErrNotFound) {
		return nil
	}
	if err != nil {
		return err
	}
	if rec.Status.Terminal() {
		return nil
	}

	stage, ok := p.registry.For(Categorize(rec.ContentType))
	if !ok {
		return nil
	}

	physical, err := p.resolver.ResolvePhysical(ctx, rec.ProjectID, rec.BucketName)
	if errors.Is(err, bucket.ErrNotFound) {
		p.log.WarnContext(ctx, "bucket gone before transform, dropping job",
			slog.String("file_id", rec.ID.String()),
			slog.String("bucket", rec.BucketName))
		return nil
	}
	if err != nil {
		return fmt.Errorf("resolve bucket: %w", err)
	}

	body, err := p.store.Get(ctx, physical, rec.ObjectKey)
	if err != nil {
		return p.recordStageFailure(ctx, rec, stage, fmt.Errorf("fetch object: %w", err))
	}
	src, err := io.ReadAll(body)
	body.Close()
	if err != nil {
		return p.recordStageFailure(ctx, rec, stage, fmt.Errorf("read object: %w", err))
	}

	out, err := stage.Transform(ctx, src)
	if err != nil {
		return p.recordStageFailure(ctx, rec, stage, err)
	}

	derived := file.DerivedKey(rec.ObjectKey, stage.Suffix(), stage.OutputExt())
	err = p.store.Put(ctx, physical, derived, bytes.NewReader(out), int64(len(out)), stage.OutputContentType())
	if err != nil {
		return p.recordStageFailure(ctx, rec, stage, fmt.Errorf("store derived object: %w", err))
	}

	if err := p.files.SetDerived(ctx, rec.ID, stage.DoneStatus(), derived); err != nil {
		return err
	}
	metrics.PipelineStages.WithLabelValues(stage.Name(), "done").Inc()
	p.log.InfoContext(ctx, "stage completed",
		slog.String("stage", stage.Name()),
		slog.String("file_id", rec.ID.String()),
		slog.String("derived_key", derived))
	return nil
}

func (p *Processor) recordStageFailure(ctx context.Context, rec *file.Record, stage Stage, cause error) error {
	p.log.ErrorContext(ctx, "stage failed",
		slog.String("stage", stage.Name()),
		slog.String("file_id", rec.ID.String()),
		slog.String("object_key", rec.ObjectKey),
		slog.String("error", cause.Error()))
	metrics.PipelineStages.WithLabelValues(stage.Name(), "failed").Inc()
	return p.files.UpdateStatus(ctx, rec.ID, stage.FailedStatus(), cause.Error())
}
