package tallyservice

import (
	"context"

	"github.com/clipclash/clipclash-backend/app/models"
)

// ItemSyncError reports one item the synchronizer could not fold into the
// durable store.
type ItemSyncError struct {
	ItemID models.ItemID
	Reason string
}

// SyncResult is the outcome of one synchronizer pass. A partial or failed pass
// is reported here, never raised: callers fall back to whatever values are
// already durable.
type SyncResult struct {
	Synced int
	Errors []ItemSyncError
}

// Failed reports whether nothing could be synchronized.
func (r SyncResult) Failed() bool { return r.Synced == 0 && len(r.Errors) > 0 }

// Service reconciles counter store state into the durable item rows.
type Service interface {
	// ForceSync folds the current net counter totals for the given items into
	// the durable store as absolute values. Idempotent for a fixed counter
	// state.
	ForceSync(ctx context.Context, itemIDs []models.ItemID) (SyncResult, error)
	// ClearCounters drops counter state for finalized items.
	ClearCounters(ctx context.Context, itemIDs []models.ItemID) error
}
