package advancementservice

import "context"

// Service drives the slot lifecycle forward.
type Service interface {
	// AdvanceSlot closes the current voting slot, locks the winner, eliminates
	// the rest and opens the next slot. Exactly one caller makes progress per
	// slot; everyone else observes OutcomeConflict. The returned error is
	// reserved for infrastructure failures, with one exception: OutcomeFatal
	// is paired with a non-nil error describing the inconsistency.
	AdvanceSlot(ctx context.Context, trigger string) (AdvanceResult, error)
}
