package workers

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/hibiken/asynq"
	"github.com/nikhilbhutani/datasource-admin/internal/datasource"
)

type Relayer interface {
	RelayPendingImports(ctx context.Context, grace time.Duration, limit int) (datasource.RelayResult, error)
}

// RelayWorker re-dispatches import jobs whose data source was committed but
// never handed to the queue.
type RelayWorker struct {
	relayer Relayer
	grace   time.Duration
	batch   int
}

func NewRelayWorker(relayer Relayer, grace time.Duration, batch int) *RelayWorker {
	return &RelayWorker{relayer: relayer, grace: grace, batch: batch}
}

func (w *RelayWorker) ProcessTask(ctx context.Context, t *asynq.Task) error {
	res, err := w.relayer.RelayPendingImports(ctx, w.grace, w.batch)
	if err != nil {
		return fmt.Errorf("relay pending imports: %w", err)
	}

	if res.Dispatched > 0 || res.Failed > 0 {
		slog.Info("relayed pending imports", "dispatched", res.Dispatched, "failed", res.Failed)
	}
	return nil
}
