package votingservice

import (
	"context"
	"errors"
	"fmt"

	"github.com/clipclash/clipclash-backend/app/models"
	votingdb "github.com/clipclash/clipclash-backend/app/modules/voting/infrastructure/repositories"
)

// admission is what the checks hand to the vote writer: the item under vote
// and the voter's weight.
type admission struct {
	item   *models.Item
	weight int64
}

// checkAdmission applies the admission checks in precedence order; the first
// failing check wins. A nil rejection means the vote may proceed to the atomic
// insert, which remains the real dedup gate — the HasVoted read here only
// fixes the precedence of ALREADY_VOTED over the quota check.
func (s *VotingService) checkAdmission(ctx context.Context, voterID models.VoterID, itemID models.ItemID) (*VoteRejected, *admission, error) {
	reject := func(reason ReasonCode) *VoteRejected {
		return &VoteRejected{VoterID: voterID, ItemID: itemID, Reason: reason}
	}

	weight := int64(1)
	voter, err := s.repo.GetVoter(ctx, voterID)
	switch {
	case errors.Is(err, votingdb.ErrNotFound):
		// Voters the profile store has never seen vote with default weight.
	case err != nil:
		return nil, nil, fmt.Errorf("failed to load voter: %w", err)
	case voter.Banned:
		return reject(ReasonUserBanned), nil, nil
	default:
		if voter.VoteWeight > 0 {
			weight = voter.VoteWeight
		}
	}

	item, err := s.repo.GetItem(ctx, itemID)
	if errors.Is(err, votingdb.ErrNotFound) {
		return reject(ReasonInvalidClipStatus), nil, nil
	}
	if err != nil {
		return nil, nil, fmt.Errorf("failed to load item: %w", err)
	}

	if item.SubmitterID == voterID {
		return reject(ReasonSelfVote), nil, nil
	}

	if item.Status != models.ItemStatusActive {
		return reject(ReasonInvalidClipStatus), nil, nil
	}

	slot, err := s.repo.GetSlot(ctx, item.SlotID)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to load slot: %w", err)
	}
	if slot.Status != models.SlotStatusVoting {
		return reject(ReasonVotingExpired), nil, nil
	}
	// A vote after the window has elapsed is rejected here even if the
	// coordinator has not run yet; this closes the boundary between an
	// in-flight vote and an in-flight advancement.
	if slot.VotingEndsAt != nil && !s.now().Before(*slot.VotingEndsAt) {
		return reject(ReasonVotingExpired), nil, nil
	}

	voted, err := s.repo.HasVoted(ctx, voterID, itemID)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to check existing vote: %w", err)
	}
	if voted {
		return reject(ReasonAlreadyVoted), nil, nil
	}

	count, err := s.repo.CountVotesSince(ctx, voterID, s.now().Add(-quotaWindow))
	if err != nil {
		return nil, nil, fmt.Errorf("failed to count recent votes: %w", err)
	}
	if count >= s.dailyLimit {
		return reject(ReasonVoteLimitReached), nil, nil
	}

	return nil, &admission{item: item, weight: weight}, nil
}
