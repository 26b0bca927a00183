package votingservice

import (
	"context"
	"errors"
	"fmt"

	"github.com/clipclash/clipclash-backend/app/eventbus"
	"github.com/clipclash/clipclash-backend/app/models"
	votingdb "github.com/clipclash/clipclash-backend/app/modules/voting/infrastructure/repositories"
	"github.com/clipclash/clipclash-backend/app/shared/attr"
	"github.com/clipclash/clipclash-backend/app/shared/results"
)

// RetractVote soft-reverses an admitted vote while its slot is still open. The
// vote row stays in history with a retracted_at stamp; the counter store gets
// a compensating decrement.
func (s *VotingService) RetractVote(ctx context.Context, voterID models.VoterID, itemID models.ItemID) (RetractOperationResult, error) {
	return serviceWrapper(s, ctx, "RetractVote", voterID, itemID, func(ctx context.Context) (RetractOperationResult, error) {
		reject := func(reason ReasonCode) RetractOperationResult {
			s.metrics.RecordVoteRejected(ctx, string(reason))
			return results.FailureResult[VoteRetracted](VoteRejected{
				VoterID: voterID,
				ItemID:  itemID,
				Reason:  reason,
			})
		}

		vote, err := s.repo.GetVote(ctx, voterID, itemID)
		if errors.Is(err, votingdb.ErrNotFound) {
			return reject(ReasonVoteNotFound), nil
		}
		if err != nil {
			return RetractOperationResult{}, err
		}
		if vote.RetractedAt != nil {
			return reject(ReasonVoteNotFound), nil
		}

		item, err := s.repo.GetItem(ctx, itemID)
		if err != nil {
			return RetractOperationResult{}, fmt.Errorf("failed to load item: %w", err)
		}
		slot, err := s.repo.GetSlot(ctx, item.SlotID)
		if err != nil {
			return RetractOperationResult{}, fmt.Errorf("failed to load slot: %w", err)
		}
		if slot.Status != models.SlotStatusVoting {
			return reject(ReasonVotingExpired), nil
		}
		if slot.VotingEndsAt != nil && !s.now().Before(*slot.VotingEndsAt) {
			return reject(ReasonVotingExpired), nil
		}

		// Conditional stamp; of two concurrent retractions exactly one wins
		// and only the winner decrements.
		if err := s.repo.MarkRetracted(ctx, voterID, itemID); err != nil {
			if errors.Is(err, votingdb.ErrNoRowsAffected) {
				return reject(ReasonVoteNotFound), nil
			}
			return RetractOperationResult{}, err
		}

		if err := s.store.Decrement(ctx, itemID, vote.Weight, s.node); err != nil {
			s.metrics.RecordCounterFailure(ctx, "decrement")
			return RetractOperationResult{}, fmt.Errorf("vote retracted but counter decrement failed: %w", err)
		}

		retracted := VoteRetracted{VoterID: voterID, ItemID: itemID, Weight: vote.Weight}

		if err := s.eventBus.Publish(ctx, eventbus.TopicVoteRetracted, retracted); err != nil {
			s.logger.WarnContext(ctx, "Vote retracted but notification failed",
				attr.ExtractCorrelationID(ctx),
				attr.String("item_id", itemID.String()),
				attr.Error(err),
			)
		}

		s.metrics.RecordVoteRetracted(ctx)
		return results.SuccessResult[VoteRetracted, VoteRejected](retracted), nil
	})
}
