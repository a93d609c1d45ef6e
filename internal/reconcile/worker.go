package reconcile

import (
	"context"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/riverqueue/river"
)

// Queue is the dedicated job queue for reconciliation work, kept apart
// from pipeline stages so a slow sweep cannot starve file processing.
const Queue = "reconcile"

// ProjectSource lists the tenants a sweep fans out over.
type ProjectSource interface {
	ListIDs(ctx context.Context) ([]uuid.UUID, error)
}

// SyncArgs reconciles a single tenant.
type SyncArgs struct {
	ProjectID uuid.UUID `json:"project_id"`
}

func (SyncArgs) Kind() string { return "reconcile.project" }

func (SyncArgs) InsertOpts() river.InsertOpts {
	return river.InsertOpts{
		Queue:       Queue,
		MaxAttempts: 3,
		UniqueOpts:  river.UniqueOpts{ByArgs: true},
	}
}

// SweepArgs reconciles every tenant; enqueued by the periodic schedule.
type SweepArgs struct{}

func (SweepArgs) Kind() string { return "reconcile.sweep" }

func (SweepArgs) InsertOpts() river.InsertOpts {
	return river.InsertOpts{Queue: Queue, MaxAttempts: 1}
}

// SyncWorker runs one tenant reconciliation.
type SyncWorker struct {
	river.WorkerDefaults[SyncArgs]
	engine *Engine
}

// NewSyncWorker creates a worker around the engine.
func NewSyncWorker(engine *Engine) *SyncWorker {
	return &SyncWorker{engine: engine}
}

func (w *SyncWorker) Work(ctx context.Context, job *river.Job[SyncArgs]) error {
	_, err := w.engine.SyncProject(ctx, job.Args.ProjectID)
	return err
}

// SweepWorker fans out one SyncArgs job per tenant.
type SweepWorker struct {
	river.WorkerDefaults[SweepArgs]
	projects ProjectSource
}

// NewSweepWorker creates a worker over the given project source.
func NewSweepWorker(projects ProjectSource) *SweepWorker {
	return &SweepWorker{projects: projects}
}

func (w *SweepWorker) Work(ctx context.Context, job *river.Job[SweepArgs]) error {
	ids, err := w.projects.ListIDs(ctx)
	if err != nil {
		return err
	}

	client := river.ClientFromContext[pgx.Tx](ctx)
	for _, id := range ids {
		if _, err := client.Insert(ctx, SyncArgs{ProjectID: id}, nil); err != nil {
			return err
		}
	}
	return nil
}
