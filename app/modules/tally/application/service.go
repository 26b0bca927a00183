package tallyservice

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"

	"github.com/clipclash/clipclash-backend/app/models"
	"github.com/clipclash/clipclash-backend/app/modules/tally/counter"
	tallydb "github.com/clipclash/clipclash-backend/app/modules/tally/infrastructure/repositories"
	"github.com/clipclash/clipclash-backend/app/shared/attr"
	"github.com/clipclash/clipclash-backend/app/shared/observability/tallymetrics"
)

// TallyService implements the Service interface.
type TallyService struct {
	store   counter.Store
	repo    tallydb.Repository
	logger  *slog.Logger
	metrics tallymetrics.TallyMetrics
	tracer  trace.Tracer
}

var _ Service = (*TallyService)(nil)

// NewTallyService creates a new TallyService.
func NewTallyService(
	store counter.Store,
	repo tallydb.Repository,
	logger *slog.Logger,
	metrics tallymetrics.TallyMetrics,
	tracer trace.Tracer,
) *TallyService {
	return &TallyService{
		store:   store,
		repo:    repo,
		logger:  logger,
		metrics: metrics,
		tracer:  tracer,
	}
}

// ForceSync reads the net totals for all items in one batch and writes them to
// the durable store as absolute values. Failures are collected into the result
// and never returned as errors: a stale durable value is preferable to a
// blocked caller.
func (s *TallyService) ForceSync(ctx context.Context, itemIDs []models.ItemID) (SyncResult, error) {
	ctx, span := s.tracer.Start(ctx, "ForceSync", trace.WithAttributes(
		attribute.Int("item_count", len(itemIDs)),
	))
	defer span.End()

	start := time.Now()
	defer func() {
		s.metrics.RecordSyncDuration(ctx, time.Since(start))
	}()
	s.metrics.RecordSyncAttempt(ctx, len(itemIDs))

	if len(itemIDs) == 0 {
		return SyncResult{}, nil
	}

	totals, err := s.store.ReadMany(ctx, itemIDs)
	if err != nil {
		s.logger.WarnContext(ctx, "Counter store read failed, durable values stay as-is",
			attr.ExtractCorrelationID(ctx),
			attr.Int("item_count", len(itemIDs)),
			attr.Error(err),
		)
		s.metrics.RecordSyncFailure(ctx)
		span.RecordError(err)
		return failAll(itemIDs, fmt.Sprintf("counter read failed: %v", err)), nil
	}

	rows := make([]tallydb.ItemTotals, 0, len(itemIDs))
	for _, id := range itemIDs {
		t := totals[id]
		rows = append(rows, tallydb.ItemTotals{
			ID:            id,
			VoteCount:     t.Count,
			WeightedScore: t.WeightedScore,
		})
	}

	if err := s.repo.SetVoteTotals(ctx, rows); err != nil {
		s.logger.WarnContext(ctx, "Durable totals write failed, callers proceed with previous values",
			attr.ExtractCorrelationID(ctx),
			attr.Int("item_count", len(itemIDs)),
			attr.Error(err),
		)
		s.metrics.RecordSyncFailure(ctx)
		span.RecordError(err)
		return failAll(itemIDs, fmt.Sprintf("durable write failed: %v", err)), nil
	}

	s.metrics.RecordSyncedItems(ctx, len(rows))
	s.logger.InfoContext(ctx, "Counter totals synchronized",
		attr.ExtractCorrelationID(ctx),
		attr.Int("synced", len(rows)),
	)

	return SyncResult{Synced: len(rows)}, nil
}

// ClearCounters drops counter state for items whose slot has been finalized.
func (s *TallyService) ClearCounters(ctx context.Context, itemIDs []models.ItemID) error {
	ctx, span := s.tracer.Start(ctx, "ClearCounters", trace.WithAttributes(
		attribute.Int("item_count", len(itemIDs)),
	))
	defer span.End()

	if len(itemIDs) == 0 {
		return nil
	}

	if err := s.store.Clear(ctx, itemIDs); err != nil {
		span.RecordError(err)
		return fmt.Errorf("failed to clear counters: %w", err)
	}

	s.logger.InfoContext(ctx, "Counter state cleared",
		attr.Int("item_count", len(itemIDs)),
	)
	return nil
}

func failAll(itemIDs []models.ItemID, reason string) SyncResult {
	errs := make([]ItemSyncError, 0, len(itemIDs))
	for _, id := range itemIDs {
		errs = append(errs, ItemSyncError{ItemID: id, Reason: reason})
	}
	return SyncResult{Errors: errs}
}
