package votingservice

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"

	"github.com/clipclash/clipclash-backend/app/eventbus"
	"github.com/clipclash/clipclash-backend/app/models"
	"github.com/clipclash/clipclash-backend/app/modules/tally/counter"
	votingdb "github.com/clipclash/clipclash-backend/app/modules/voting/infrastructure/repositories"
	"github.com/clipclash/clipclash-backend/app/shared/attr"
	"github.com/clipclash/clipclash-backend/app/shared/observability/votingmetrics"
	"github.com/clipclash/clipclash-backend/app/shared/results"
)

// quotaWindow is the rolling window the daily vote quota is measured over.
const quotaWindow = 24 * time.Hour

// VotingService implements the Service interface.
type VotingService struct {
	repo       votingdb.Repository
	store      counter.Store
	eventBus   eventbus.EventBus
	logger     *slog.Logger
	metrics    votingmetrics.VotingMetrics
	tracer     trace.Tracer
	node       models.NodeID
	dailyLimit int
	now        func() time.Time
}

var _ Service = (*VotingService)(nil)

// NewVotingService creates a new VotingService. The node id tags this
// process's counter writes; dailyLimit caps admitted votes per voter per
// rolling 24h.
func NewVotingService(
	repo votingdb.Repository,
	store counter.Store,
	eventBus eventbus.EventBus,
	logger *slog.Logger,
	metrics votingmetrics.VotingMetrics,
	tracer trace.Tracer,
	node models.NodeID,
	dailyLimit int,
) *VotingService {
	return &VotingService{
		repo:       repo,
		store:      store,
		eventBus:   eventBus,
		logger:     logger,
		metrics:    metrics,
		tracer:     tracer,
		node:       node,
		dailyLimit: dailyLimit,
		now:        time.Now,
	}
}

// serviceWrapper wraps an operation with tracing, metrics, logging, and panic
// recovery. Handled business failures pass through; only infrastructure
// errors surface as Go errors.
func serviceWrapper[S any, F any](
	s *VotingService,
	ctx context.Context,
	operationName string,
	voterID models.VoterID,
	itemID models.ItemID,
	op func(ctx context.Context) (results.OperationResult[S, F], error),
) (result results.OperationResult[S, F], err error) {
	ctx, span := s.tracer.Start(ctx, operationName, trace.WithAttributes(
		attribute.String("operation", operationName),
		attribute.String("voter_id", string(voterID)),
		attribute.String("item_id", itemID.String()),
	))
	defer span.End()

	startTime := time.Now()
	defer func() {
		s.metrics.RecordOperationDuration(ctx, operationName, time.Since(startTime))
	}()

	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("panic in %s: %v", operationName, r)
			s.logger.ErrorContext(ctx, "Critical panic recovered",
				attr.ExtractCorrelationID(ctx),
				attr.String("voter_id", string(voterID)),
				attr.String("item_id", itemID.String()),
				attr.Error(err),
			)
			span.RecordError(err)
			result = results.OperationResult[S, F]{}
		}
	}()

	result, err = op(ctx)
	if err != nil {
		wrappedErr := fmt.Errorf("%s: %w", operationName, err)
		s.logger.ErrorContext(ctx, "Operation failed with error",
			attr.ExtractCorrelationID(ctx),
			attr.String("operation", operationName),
			attr.String("voter_id", string(voterID)),
			attr.String("item_id", itemID.String()),
			attr.Error(wrappedErr),
		)
		span.RecordError(wrappedErr)
		return result, wrappedErr
	}

	return result, nil
}
