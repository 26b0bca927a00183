package votingdb

import (
	"context"
	"time"

	"github.com/clipclash/clipclash-backend/app/models"
)

// Repository is the durable-store surface the voting service needs.
//
// Error semantics:
//   - ErrNotFound: lookup matched no row
//   - ErrNoRowsAffected: conditional UPDATE matched no rows
type Repository interface {
	// GetVoter returns the voter projection, or ErrNotFound for voters the
	// profile store has never seen.
	GetVoter(ctx context.Context, voterID models.VoterID) (*models.Voter, error)
	GetItem(ctx context.Context, itemID models.ItemID) (*models.Item, error)
	GetSlot(ctx context.Context, slotID models.SlotID) (*models.Slot, error)
	// InsertVote atomically inserts the vote unless one already exists for the
	// (voter, item) pair. Returns false when the pair already voted; of two
	// concurrent calls exactly one returns true.
	InsertVote(ctx context.Context, vote *models.Vote) (bool, error)
	// HasVoted reports whether an admitted vote exists for the pair.
	HasVoted(ctx context.Context, voterID models.VoterID, itemID models.ItemID) (bool, error)
	// CountVotesSince counts a voter's admitted votes (including later
	// retracted ones) cast at or after the given instant.
	CountVotesSince(ctx context.Context, voterID models.VoterID, since time.Time) (int, error)
	GetVote(ctx context.Context, voterID models.VoterID, itemID models.ItemID) (*models.Vote, error)
	// MarkRetracted stamps retracted_at on a not-yet-retracted vote. Returns
	// ErrNoRowsAffected when the vote is missing or already retracted.
	MarkRetracted(ctx context.Context, voterID models.VoterID, itemID models.ItemID) error
}
