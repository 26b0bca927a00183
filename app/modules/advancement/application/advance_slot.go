package advancementservice

import (
	"context"
	"errors"
	"fmt"
	"time"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"

	"github.com/clipclash/clipclash-backend/app/eventbus"
	"github.com/clipclash/clipclash-backend/app/models"
	advancementdb "github.com/clipclash/clipclash-backend/app/modules/advancement/infrastructure/repositories"
	"github.com/clipclash/clipclash-backend/app/shared/attr"
)

// AdvanceSlot runs one advancement attempt end to end. All mutations happen
// behind the advance lock; losing the lock or the slot CAS is a clean
// conflict with no side effects.
func (s *AdvancementService) AdvanceSlot(ctx context.Context, trigger string) (result AdvanceResult, err error) {
	ctx, span := s.tracer.Start(ctx, "AdvanceSlot", trace.WithAttributes(
		attribute.String("trigger", trigger),
	))
	defer span.End()

	s.metrics.RecordAdvanceAttempt(ctx, trigger)
	startTime := time.Now()
	defer func() {
		s.metrics.RecordAdvanceDuration(ctx, time.Since(startTime))
		s.metrics.RecordAdvanceOutcome(ctx, string(result.Outcome))
	}()

	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("panic in AdvanceSlot: %v", r)
			s.logger.ErrorContext(ctx, "Critical panic recovered",
				attr.ExtractCorrelationID(ctx),
				attr.Error(err),
			)
			span.RecordError(err)
			result = AdvanceResult{Outcome: OutcomeFatal}
		}
	}()

	acquired, err := s.lock.TryAcquire(ctx, advanceLockName, s.cfg.Holder, s.cfg.LockTTL)
	if err != nil {
		span.RecordError(err)
		return AdvanceResult{}, fmt.Errorf("AdvanceSlot: %w", err)
	}
	if !acquired {
		s.metrics.RecordLockBusy(ctx)
		s.logger.InfoContext(ctx, "Advance lock busy, yielding",
			attr.String("trigger", trigger),
		)
		return AdvanceResult{Outcome: OutcomeConflict}, nil
	}
	defer func() {
		if releaseErr := s.lock.Release(context.WithoutCancel(ctx), advanceLockName, s.cfg.Holder); releaseErr != nil {
			s.logger.WarnContext(ctx, "Failed to release advance lock; TTL will reap it",
				attr.Error(releaseErr),
			)
		}
	}()

	result, err = s.advanceLocked(ctx, trigger)
	if err != nil {
		span.RecordError(err)
		return result, fmt.Errorf("AdvanceSlot: %w", err)
	}
	return result, nil
}

func (s *AdvancementService) advanceLocked(ctx context.Context, trigger string) (AdvanceResult, error) {
	season, err := s.resolveSeason(ctx)
	if err != nil {
		if errors.Is(err, advancementdb.ErrNotFound) {
			return AdvanceResult{Outcome: OutcomeNoActiveSeason}, nil
		}
		return AdvanceResult{}, err
	}

	slot, err := s.repo.GetVotingSlot(ctx, season.ID)
	if err != nil {
		if errors.Is(err, advancementdb.ErrNotFound) {
			return AdvanceResult{Outcome: OutcomeNoActiveSlot, SeasonID: season.ID}, nil
		}
		return AdvanceResult{}, err
	}

	items, err := s.loadSyncedItems(ctx, slot.ID)
	if err != nil {
		return AdvanceResult{}, err
	}
	if len(items) == 0 {
		s.logger.WarnContext(ctx, "Voting slot has no active clips, cannot advance",
			attr.String("slot_id", slot.ID.String()),
		)
		return AdvanceResult{Outcome: OutcomeNoClips, SeasonID: season.ID, SlotID: slot.ID}, nil
	}

	// First row under the repository's ordering is the winner; the ordering is
	// a total order, so ties resolve the same way on every node.
	winner := items[0]

	if err := s.repo.LockSlot(ctx, slot.ID, winner.ID); err != nil {
		if errors.Is(err, advancementdb.ErrNoRowsAffected) {
			s.logger.InfoContext(ctx, "Slot already locked by a concurrent advancer",
				attr.String("slot_id", slot.ID.String()),
			)
			return AdvanceResult{Outcome: OutcomeConflict, SeasonID: season.ID, SlotID: slot.ID}, nil
		}
		return AdvanceResult{}, err
	}

	if err := s.confirmWinnerLock(ctx, winner.ID); err != nil {
		s.logger.ErrorContext(ctx, "Winner lock could not be confirmed after slot lock; manual repair required",
			attr.String("slot_id", slot.ID.String()),
			attr.String("winner_item_id", winner.ID.String()),
			attr.Error(err),
		)
		return AdvanceResult{Outcome: OutcomeFatal, SeasonID: season.ID, SlotID: slot.ID, WinnerItemID: winner.ID},
			fmt.Errorf("winner lock not confirmed: %w", err)
	}

	eliminated, err := s.repo.EliminateOthers(ctx, slot.ID, winner.ID)
	if err != nil {
		s.logger.ErrorContext(ctx, "Elimination failed after winner lock; manual repair required",
			attr.String("slot_id", slot.ID.String()),
			attr.String("winner_item_id", winner.ID.String()),
			attr.Error(err),
		)
		return AdvanceResult{Outcome: OutcomeFatal, SeasonID: season.ID, SlotID: slot.ID, WinnerItemID: winner.ID},
			fmt.Errorf("eliminate losers: %w", err)
	}

	result := AdvanceResult{
		Outcome:      OutcomeAdvanced,
		SeasonID:     season.ID,
		SlotID:       slot.ID,
		WinnerItemID: winner.ID,
		Eliminated:   eliminated,
	}

	if err := s.openNextSlot(ctx, season, &result); err != nil {
		return AdvanceResult{}, err
	}

	s.finalizeSlot(ctx, slot, items, winner, result)

	s.logger.InfoContext(ctx, "Slot advanced",
		attr.String("trigger", trigger),
		attr.String("season_id", season.ID.String()),
		attr.String("slot_id", slot.ID.String()),
		attr.String("winner_item_id", winner.ID.String()),
		attr.Int64("eliminated", eliminated),
		attr.Bool("season_finished", result.SeasonFinished),
	)
	return result, nil
}

func (s *AdvancementService) resolveSeason(ctx context.Context) (*models.Season, error) {
	if s.cfg.MultiTrack {
		return s.repo.GetActiveSeasonByTrack(ctx, s.cfg.Track)
	}
	return s.repo.GetActiveSeason(ctx)
}

// loadSyncedItems folds live counter totals into the durable rows before
// ranking. Sync failure degrades to the last durable totals; it never blocks
// advancement.
func (s *AdvancementService) loadSyncedItems(ctx context.Context, slotID models.SlotID) ([]models.Item, error) {
	items, err := s.repo.GetActiveItems(ctx, slotID)
	if err != nil {
		return nil, err
	}
	if len(items) == 0 {
		return nil, nil
	}

	itemIDs := make([]models.ItemID, len(items))
	for i, it := range items {
		itemIDs[i] = it.ID
	}
	syncRes, err := s.tally.ForceSync(ctx, itemIDs)
	if err != nil || syncRes.Failed() {
		s.logger.WarnContext(ctx, "Pre-advance sync degraded, ranking on last durable totals",
			attr.String("slot_id", slotID.String()),
			attr.Int("sync_errors", len(syncRes.Errors)),
			attr.Error(err),
		)
		return items, nil
	}
	if len(syncRes.Errors) > 0 {
		s.logger.WarnContext(ctx, "Pre-advance sync partially failed",
			attr.String("slot_id", slotID.String()),
			attr.Int("sync_errors", len(syncRes.Errors)),
		)
	}

	// Re-read so the ranking reflects what was just synced.
	return s.repo.GetActiveItems(ctx, slotID)
}

// confirmWinnerLock applies the winner CAS and re-reads the row. A winner that
// is not LOCKED after both steps means some other writer touched it mid-flight.
func (s *AdvancementService) confirmWinnerLock(ctx context.Context, winnerID models.ItemID) error {
	if err := s.repo.LockItem(ctx, winnerID); err != nil && !errors.Is(err, advancementdb.ErrNoRowsAffected) {
		return err
	}
	status, err := s.repo.GetItemStatus(ctx, winnerID)
	if err != nil {
		return err
	}
	if status != models.ItemStatusLocked {
		return fmt.Errorf("winner %s is %s, expected %s", winnerID, status, models.ItemStatusLocked)
	}
	return nil
}

func (s *AdvancementService) openNextSlot(ctx context.Context, season *models.Season, result *AdvanceResult) error {
	next, err := s.repo.GetNextSlot(ctx, season.ID)
	if err != nil {
		if !errors.Is(err, advancementdb.ErrNotFound) {
			return err
		}
		if err := s.repo.FinishSeason(ctx, season.ID); err != nil && !errors.Is(err, advancementdb.ErrNoRowsAffected) {
			return err
		}
		result.SeasonFinished = true
		return nil
	}

	startsAt := s.now()
	endsAt := startsAt.Add(s.cfg.VotingWindow)
	if err := s.repo.OpenSlot(ctx, next.ID, startsAt, endsAt); err != nil {
		return err
	}
	result.NextSlotID = &next.ID

	if s.scheduler != nil {
		if err := s.scheduler.ScheduleSlotClose(ctx, next.ID, endsAt); err != nil {
			s.logger.WarnContext(ctx, "Failed to schedule slot close, relying on manual advance",
				attr.String("slot_id", next.ID.String()),
				attr.Error(err),
			)
		}
	}

	_ = s.eventBus.Publish(ctx, eventbus.TopicSlotOpened, SlotOpened{
		SeasonID:     season.ID,
		SlotID:       next.ID,
		Position:     next.Position,
		VotingEndsAt: endsAt,
	})
	return nil
}

// finalizeSlot clears counter state for the finalized items and announces the
// winner. Both are best effort; the advancement itself is already durable.
func (s *AdvancementService) finalizeSlot(ctx context.Context, slot *models.Slot, items []models.Item, winner models.Item, result AdvanceResult) {
	itemIDs := make([]models.ItemID, len(items))
	for i, it := range items {
		itemIDs[i] = it.ID
	}
	if err := s.tally.ClearCounters(ctx, itemIDs); err != nil {
		s.logger.WarnContext(ctx, "Failed to clear counters for finalized slot",
			attr.String("slot_id", slot.ID.String()),
			attr.Error(err),
		)
	}

	_ = s.eventBus.Publish(ctx, eventbus.TopicWinnerSelected, WinnerSelected{
		SeasonID:      result.SeasonID,
		SlotID:        slot.ID,
		WinnerItemID:  winner.ID,
		VoteCount:     winner.VoteCount,
		WeightedScore: winner.WeightedScore,
	})
}
