package advancementservice

import (
	"github.com/clipclash/clipclash-backend/app/models"
)

// Outcome classifies one advancement attempt. Everything except OutcomeFatal
// is a normal, retry-safe result.
type Outcome string

const (
	// OutcomeAdvanced means a winner was locked and the season moved forward.
	OutcomeAdvanced Outcome = "advanced"
	// OutcomeConflict means another advancer held the lock or won the slot
	// CAS; nothing was changed here.
	OutcomeConflict Outcome = "conflict"
	// OutcomeNoActiveSeason means there is nothing to advance.
	OutcomeNoActiveSeason Outcome = "no_active_season"
	// OutcomeNoActiveSlot means the season has no slot currently in voting.
	OutcomeNoActiveSlot Outcome = "no_active_slot"
	// OutcomeNoClips means the voting slot has no active items to pick a
	// winner from.
	OutcomeNoClips Outcome = "no_clips"
	// OutcomeFatal means the store was left in a state requiring operator
	// attention: the winner lock could not be confirmed after the slot was
	// already locked.
	OutcomeFatal Outcome = "fatal"
)

// Trigger names for metrics and audit logging.
const (
	TriggerScheduled = "scheduled"
	TriggerManual    = "manual"
)

// AdvanceResult is the outcome of one AdvanceSlot call.
type AdvanceResult struct {
	Outcome        Outcome
	SeasonID       models.SeasonID
	SlotID         models.SlotID
	WinnerItemID   models.ItemID
	Eliminated     int64
	NextSlotID     *models.SlotID
	SeasonFinished bool
}
