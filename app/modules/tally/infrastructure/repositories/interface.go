package tallydb

import (
	"context"

	"github.com/clipclash/clipclash-backend/app/models"
)

// ItemTotals is one row of a bulk absolute counter write.
type ItemTotals struct {
	ID            models.ItemID `bun:"id,type:uuid"`
	VoteCount     int64         `bun:"vote_count"`
	WeightedScore int64         `bun:"weighted_score"`
}

// Repository persists synchronized counter totals into the durable item rows.
type Repository interface {
	// SetVoteTotals writes absolute vote totals for all items in one
	// statement. Absolute, not relative: re-running with the same input
	// produces the same durable state.
	SetVoteTotals(ctx context.Context, totals []ItemTotals) error
}
