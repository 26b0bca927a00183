package votingservice

import (
	"context"
	"fmt"
	"time"

	"github.com/clipclash/clipclash-backend/app/models"
	"github.com/clipclash/clipclash-backend/app/modules/tally/counter"
)

// GetCounts returns live net totals for the given items, read straight from
// the counter store in one round trip.
func (s *VotingService) GetCounts(ctx context.Context, itemIDs []models.ItemID) (map[models.ItemID]counter.Totals, error) {
	start := time.Now()
	defer func() {
		s.metrics.RecordOperationDuration(ctx, "GetCounts", time.Since(start))
	}()

	if len(itemIDs) == 0 {
		return map[models.ItemID]counter.Totals{}, nil
	}

	totals, err := s.store.ReadMany(ctx, itemIDs)
	if err != nil {
		s.metrics.RecordCounterFailure(ctx, "read_many")
		return nil, fmt.Errorf("GetCounts: %w", err)
	}
	return totals, nil
}
