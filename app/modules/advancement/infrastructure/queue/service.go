package advancementqueue

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/riverqueue/river"
	"github.com/riverqueue/river/riverdriver/riverpgxv5"
	"github.com/uptrace/bun"

	"github.com/clipclash/clipclash-backend/app/models"
	advancementservice "github.com/clipclash/clipclash-backend/app/modules/advancement/application"
	"github.com/clipclash/clipclash-backend/app/shared/attr"
)

// QueueService books and runs scheduled slot-close jobs.
type QueueService interface {
	advancementservice.SlotCloseScheduler
	// CancelSlotJobs cancels pending close jobs for a slot, for when a slot is
	// advanced manually ahead of schedule.
	CancelSlotJobs(ctx context.Context, slotID models.SlotID) error
	// GetScheduledJobs lists pending close jobs for a slot.
	GetScheduledJobs(ctx context.Context, slotID models.SlotID) ([]JobInfo, error)
	HealthCheck(ctx context.Context) error
	Start(ctx context.Context) error
	Stop(ctx context.Context) error
}

var _ QueueService = (*Service)(nil)

// Service handles slot-close scheduling using River.
type Service struct {
	client *river.Client[pgx.Tx]
	pool   *pgxpool.Pool
	db     *bun.DB
	logger *slog.Logger
}

// NewService builds the river client on its own pgx pool; river cannot share
// bun's database/sql connections.
func NewService(ctx context.Context, bunDB *bun.DB, logger *slog.Logger, dsn string, advancer advancementservice.Service) (*Service, error) {
	cfg, err := pgxpool.ParseConfig(dsn)
	if err != nil {
		return nil, fmt.Errorf("failed to parse DSN: %w", err)
	}
	pool, err := pgxpool.NewWithConfig(ctx, cfg)
	if err != nil {
		return nil, fmt.Errorf("failed to create pgx pool: %w", err)
	}
	if err := pool.Ping(ctx); err != nil {
		pool.Close()
		return nil, fmt.Errorf("failed to ping database: %w", err)
	}

	workers := river.NewWorkers()
	river.AddWorker(workers, NewSlotCloseWorker(advancer, logger))

	riverClient, err := river.NewClient(riverpgxv5.New(pool), &river.Config{
		Queues: map[string]river.QueueConfig{
			river.QueueDefault: {MaxWorkers: 10},
			"advancement":      {MaxWorkers: 1},
		},
		Workers: workers,
	})
	if err != nil {
		pool.Close()
		return nil, fmt.Errorf("failed to create River client: %w", err)
	}

	return &Service{
		client: riverClient,
		pool:   pool,
		db:     bunDB,
		logger: logger,
	}, nil
}

func (s *Service) Start(ctx context.Context) error {
	if err := s.client.Start(ctx); err != nil {
		return fmt.Errorf("failed to start River client: %w", err)
	}
	s.logger.InfoContext(ctx, "Advancement queue service started")
	return nil
}

func (s *Service) Stop(ctx context.Context) error {
	if err := s.client.Stop(ctx); err != nil {
		return fmt.Errorf("failed to stop River client: %w", err)
	}
	s.pool.Close()
	s.logger.InfoContext(ctx, "Advancement queue service stopped")
	return nil
}

// ScheduleSlotClose books one close job at the end of the slot's voting
// window. ByArgs uniqueness makes rebooking the same slot a no-op.
func (s *Service) ScheduleSlotClose(ctx context.Context, slotID models.SlotID, at time.Time) error {
	res, err := s.client.Insert(ctx, SlotCloseJob{SlotID: slotID.String()}, &river.InsertOpts{
		Queue:       "advancement",
		ScheduledAt: at,
		UniqueOpts: river.UniqueOpts{
			ByArgs: true,
		},
	})
	if err != nil {
		return fmt.Errorf("failed to schedule slot close job: %w", err)
	}

	s.logger.InfoContext(ctx, "Slot close job scheduled",
		attr.String("slot_id", slotID.String()),
		attr.Time("scheduled_at", at),
		attr.Int64("job_id", res.Job.ID),
	)
	return nil
}

func (s *Service) CancelSlotJobs(ctx context.Context, slotID models.SlotID) error {
	type riverJobRow struct {
		ID int64 `bun:"id"`
	}

	var jobs []riverJobRow
	err := s.db.NewSelect().
		Table("river_job").
		Column("id").
		Where("kind = ?", SlotCloseJob{}.Kind()).
		Where("state IN (?, ?)", "available", "scheduled").
		Where("args->>'slot_id' = ?", slotID.String()).
		Scan(ctx, &jobs)
	if err != nil {
		return fmt.Errorf("failed to query jobs for cancellation: %w", err)
	}

	for _, job := range jobs {
		if _, err := s.client.JobCancel(ctx, job.ID); err != nil {
			s.logger.WarnContext(ctx, "Failed to cancel slot close job",
				attr.Int64("job_id", job.ID),
				attr.Error(err),
			)
		}
	}
	return nil
}

func (s *Service) GetScheduledJobs(ctx context.Context, slotID models.SlotID) ([]JobInfo, error) {
	type riverJobRow struct {
		ID          int64      `bun:"id"`
		Kind        string     `bun:"kind"`
		State       string     `bun:"state"`
		ScheduledAt *time.Time `bun:"scheduled_at"`
		CreatedAt   time.Time  `bun:"created_at"`
		Attempt     int16      `bun:"attempt"`
		MaxAttempts int16      `bun:"max_attempts"`
	}

	var jobs []riverJobRow
	err := s.db.NewSelect().
		Table("river_job").
		Column("id", "kind", "state", "scheduled_at", "created_at", "attempt", "max_attempts").
		Where("kind = ?", SlotCloseJob{}.Kind()).
		Where("args->>'slot_id' = ?", slotID.String()).
		Order("scheduled_at ASC NULLS LAST", "created_at ASC").
		Scan(ctx, &jobs)
	if err != nil {
		return nil, fmt.Errorf("failed to query scheduled jobs: %w", err)
	}

	result := make([]JobInfo, len(jobs))
	for i, job := range jobs {
		scheduledAt := ""
		if job.ScheduledAt != nil {
			scheduledAt = job.ScheduledAt.Format(time.RFC3339)
		}
		result[i] = JobInfo{
			ID:          job.ID,
			Kind:        job.Kind,
			SlotID:      slotID.String(),
			State:       job.State,
			ScheduledAt: scheduledAt,
			CreatedAt:   job.CreatedAt.Format(time.RFC3339),
			Attempt:     int(job.Attempt),
			MaxAttempts: int(job.MaxAttempts),
		}
	}
	return result, nil
}

func (s *Service) HealthCheck(ctx context.Context) error {
	if s.client == nil {
		return fmt.Errorf("river client is nil")
	}
	var count int
	err := s.db.NewSelect().
		Table("river_job").
		ColumnExpr("COUNT(*)").
		Scan(ctx, &count)
	if err != nil {
		return fmt.Errorf("queue service health check failed: %w", err)
	}
	return nil
}
