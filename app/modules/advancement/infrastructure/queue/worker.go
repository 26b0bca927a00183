package advancementqueue

import (
	"context"
	"log/slog"

	"github.com/riverqueue/river"

	advancementservice "github.com/clipclash/clipclash-backend/app/modules/advancement/application"
	"github.com/clipclash/clipclash-backend/app/shared/attr"
)

// SlotCloseWorker runs scheduled advancement attempts.
type SlotCloseWorker struct {
	river.WorkerDefaults[SlotCloseJob]
	service advancementservice.Service
	logger  *slog.Logger
}

func NewSlotCloseWorker(service advancementservice.Service, logger *slog.Logger) *SlotCloseWorker {
	return &SlotCloseWorker{
		service: service,
		logger:  logger,
	}
}

// Work advances the tournament. Conflict and no-op outcomes complete the job:
// some other advancer already did the work, or the scheduled slot is no longer
// the one voting. Infrastructure errors are returned so river retries.
func (w *SlotCloseWorker) Work(ctx context.Context, job *river.Job[SlotCloseJob]) error {
	res, err := w.service.AdvanceSlot(ctx, advancementservice.TriggerScheduled)
	if err != nil {
		w.logger.ErrorContext(ctx, "Scheduled advancement failed",
			attr.String("slot_id", job.Args.SlotID),
			attr.String("outcome", string(res.Outcome)),
			attr.Error(err),
		)
		return err
	}

	w.logger.InfoContext(ctx, "Scheduled advancement completed",
		attr.String("slot_id", job.Args.SlotID),
		attr.String("outcome", string(res.Outcome)),
	)
	return nil
}
