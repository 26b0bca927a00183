package votingservice

import (
	"context"

	"github.com/clipclash/clipclash-backend/app/models"
	"github.com/clipclash/clipclash-backend/app/modules/tally/counter"
)

// Service is the public voting surface of the core.
type Service interface {
	// CastVote validates and applies one vote. Admission rejections come back
	// as Failure payloads with a stable reason code; the returned error is
	// reserved for infrastructure failures.
	CastVote(ctx context.Context, voterID models.VoterID, itemID models.ItemID) (VoteOperationResult, error)
	// RetractVote soft-reverses an admitted vote with a compensating
	// decrement. The vote row itself is never deleted.
	RetractVote(ctx context.Context, voterID models.VoterID, itemID models.ItemID) (RetractOperationResult, error)
	// GetCounts returns live net totals straight from the counter store, for
	// freshness over durability.
	GetCounts(ctx context.Context, itemIDs []models.ItemID) (map[models.ItemID]counter.Totals, error)
}
