package advancementdb

import (
	"context"
	"time"

	"github.com/clipclash/clipclash-backend/app/models"
)

// Repository is the durable-store surface the coordinator advances slots
// through. Conditional writes return ErrNoRowsAffected when the expected
// precondition no longer holds, so the caller can tell a lost race from an
// infrastructure failure.
type Repository interface {
	// GetActiveSeason returns the single ACTIVE season. ErrNotFound when no
	// season is running.
	GetActiveSeason(ctx context.Context) (*models.Season, error)
	// GetActiveSeasonByTrack is the multi-track variant of GetActiveSeason.
	GetActiveSeasonByTrack(ctx context.Context, track string) (*models.Season, error)
	// FinishSeason moves an ACTIVE season to FINISHED.
	FinishSeason(ctx context.Context, seasonID models.SeasonID) error

	// GetVotingSlot returns the season's unique slot in VOTING status.
	GetVotingSlot(ctx context.Context, seasonID models.SeasonID) (*models.Slot, error)
	// LockSlot conditionally moves a slot from VOTING to LOCKED and stamps the
	// winner. ErrNoRowsAffected when the slot is no longer VOTING.
	LockSlot(ctx context.Context, slotID models.SlotID, winnerID models.ItemID) error
	// GetNextSlot returns the season's lowest-position slot that is still
	// UPCOMING or WAITING_FOR_CLIPS. ErrNotFound when the season is exhausted.
	GetNextSlot(ctx context.Context, seasonID models.SeasonID) (*models.Slot, error)
	// OpenSlot conditionally moves a pending slot into VOTING and stamps its
	// voting window.
	OpenSlot(ctx context.Context, slotID models.SlotID, startsAt, endsAt time.Time) error

	// GetActiveItems returns a slot's ACTIVE items in winner-first order:
	// weighted score desc, vote count desc, created_at asc, id asc.
	GetActiveItems(ctx context.Context, slotID models.SlotID) ([]models.Item, error)
	// LockItem conditionally moves an item from ACTIVE to LOCKED.
	LockItem(ctx context.Context, itemID models.ItemID) error
	// GetItemStatus re-reads a single item's status.
	GetItemStatus(ctx context.Context, itemID models.ItemID) (models.ItemStatus, error)
	// EliminateOthers moves every remaining ACTIVE item in the slot to
	// ELIMINATED and reports how many rows changed.
	EliminateOthers(ctx context.Context, slotID models.SlotID, winnerID models.ItemID) (int64, error)
}

// LockRepository is the TTL advisory lock the coordinator serializes on.
type LockRepository interface {
	// TryAcquire attempts to take the named lock. It never blocks; false means
	// another live holder owns it.
	TryAcquire(ctx context.Context, name, holder string, ttl time.Duration) (bool, error)
	// Release drops the lock if this holder still owns it. Releasing a lock
	// that expired and was re-acquired by someone else is a no-op.
	Release(ctx context.Context, name, holder string) error
}
