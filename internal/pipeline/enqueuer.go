package pipeline

import (
	"context"
	"fmt"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/riverqueue/river"
)

// Enqueuer starts pipeline processing by inserting scan jobs. It
// implements the upload trigger consumed by the file service.
type Enqueuer struct {
	client *river.Client[pgx.Tx]
}

func NewEnqueuer(client *river.Client[pgx.Tx]) *Enqueuer {
	return &Enqueuer{client: client}
}

func (e *Enqueuer) TriggerScan(ctx context.Context, fileID uuid.UUID) error {
	if _, err := e.client.Insert(ctx, ScanArgs{FileID: fileID}, nil); err != nil {
		return fmt.Errorf("pipeline: enqueue scan: %w", err)
	}
	return nil
}
