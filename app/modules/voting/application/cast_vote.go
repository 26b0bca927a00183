package votingservice

import (
	"context"
	"fmt"

	"github.com/clipclash/clipclash-backend/app/eventbus"
	"github.com/clipclash/clipclash-backend/app/models"
	"github.com/clipclash/clipclash-backend/app/shared/attr"
	"github.com/clipclash/clipclash-backend/app/shared/results"
)

// CastVote validates and applies one vote: admission checks, the atomic
// dedup-guarded vote insert, then the counter increment.
func (s *VotingService) CastVote(ctx context.Context, voterID models.VoterID, itemID models.ItemID) (VoteOperationResult, error) {
	s.metrics.RecordVoteAttempt(ctx)

	return serviceWrapper(s, ctx, "CastVote", voterID, itemID, func(ctx context.Context) (VoteOperationResult, error) {
		rejected, adm, err := s.checkAdmission(ctx, voterID, itemID)
		if err != nil {
			return VoteOperationResult{}, err
		}
		if rejected != nil {
			s.metrics.RecordVoteRejected(ctx, string(rejected.Reason))
			s.logger.InfoContext(ctx, "Vote rejected",
				attr.ExtractCorrelationID(ctx),
				attr.String("voter_id", string(voterID)),
				attr.String("item_id", itemID.String()),
				attr.String("reason", string(rejected.Reason)),
			)
			return results.FailureResult[VoteAccepted](*rejected), nil
		}

		inserted, err := s.repo.InsertVote(ctx, &models.Vote{
			VoterID:   voterID,
			ItemID:    itemID,
			Weight:    adm.weight,
			CreatedAt: s.now(),
		})
		if err != nil {
			return VoteOperationResult{}, err
		}
		if !inserted {
			// Lost the insert race to a concurrent request for the same pair.
			s.metrics.RecordVoteRejected(ctx, string(ReasonAlreadyVoted))
			return results.FailureResult[VoteAccepted](VoteRejected{
				VoterID: voterID,
				ItemID:  itemID,
				Reason:  ReasonAlreadyVoted,
			}), nil
		}

		if err := s.store.Increment(ctx, itemID, adm.weight, s.node); err != nil {
			// The vote row is durable but its counter delta is lost; the
			// synchronizer copies counters outward, it never rebuilds them
			// from vote rows. Surface the failure so the caller can retry.
			s.metrics.RecordCounterFailure(ctx, "increment")
			return VoteOperationResult{}, fmt.Errorf("vote recorded but counter increment failed: %w", err)
		}

		accepted := VoteAccepted{
			VoterID: voterID,
			ItemID:  itemID,
			SlotID:  adm.item.SlotID,
			Weight:  adm.weight,
		}

		if err := s.eventBus.Publish(ctx, eventbus.TopicVoteAccepted, accepted); err != nil {
			// Fire-and-forget; the notifier must never roll back a vote.
			s.logger.WarnContext(ctx, "Vote accepted but notification failed",
				attr.ExtractCorrelationID(ctx),
				attr.String("item_id", itemID.String()),
				attr.Error(err),
			)
		}

		s.metrics.RecordVoteAccepted(ctx)
		s.logger.InfoContext(ctx, "Vote admitted",
			attr.ExtractCorrelationID(ctx),
			attr.String("voter_id", string(voterID)),
			attr.String("item_id", itemID.String()),
			attr.Int64("weight", adm.weight),
		)

		return results.SuccessResult[VoteAccepted, VoteRejected](accepted), nil
	})
}
