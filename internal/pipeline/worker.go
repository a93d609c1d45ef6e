package pipeline

import (
	"context"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/riverqueue/river"
)

// Queue is the river queue pipeline jobs run on.
const Queue = "pipeline"

// ScanArgs identifies a file awaiting its malware scan.
type ScanArgs struct {
	FileID uuid.UUID `json:"file_id"`
}

func (ScanArgs) Kind() string { return "pipeline.scan" }

func (ScanArgs) InsertOpts() river.InsertOpts {
	return river.InsertOpts{
		Queue:       Queue,
		MaxAttempts: 3,
	}
}

// TransformArgs identifies a scanned file awaiting its content-type
// stage.
type TransformArgs struct {
	FileID uuid.UUID `json:"file_id"`
}

func (TransformArgs) Kind() string { return "pipeline.transform" }

func (TransformArgs) InsertOpts() river.InsertOpts {
	return river.InsertOpts{
		Queue:       Queue,
		MaxAttempts: 3,
	}
}

// ScanWorker runs the scan stage and chains the transform stage for
// files that passed.
type ScanWorker struct {
	river.WorkerDefaults[ScanArgs]
	proc *Processor
}

func NewScanWorker(proc *Processor) *ScanWorker {
	return &ScanWorker{proc: proc}
}

func (w *ScanWorker) Work(ctx context.Context, job *river.Job[ScanArgs]) error {
	proceed, err := w.proc.Scan(ctx, job.Args.FileID)
	if err != nil {
		return err
	}
	if !proceed {
		return nil
	}
	client := river.ClientFromContext[pgx.Tx](ctx)
	_, err = client.Insert(ctx, TransformArgs{FileID: job.Args.FileID}, nil)
	return err
}

// TransformWorker runs the content-type stage.
type TransformWorker struct {
	river.WorkerDefaults[TransformArgs]
	proc *Processor
}

func NewTransformWorker(proc *Processor) *TransformWorker {
	return &TransformWorker{proc: proc}
}

func (w *TransformWorker) Work(ctx context.Context, job *river.Job[TransformArgs]) error {
	return w.proc.Transform(ctx, job.Args.FileID)
}
