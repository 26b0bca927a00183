package votingservice

import (
	"github.com/clipclash/clipclash-backend/app/models"
	"github.com/clipclash/clipclash-backend/app/shared/results"
)

// ReasonCode is a stable machine-readable admission rejection code. Callers
// branch on these, never on prose.
type ReasonCode string

const (
	ReasonUserBanned        ReasonCode = "USER_BANNED"
	ReasonSelfVote          ReasonCode = "SELF_VOTE_NOT_ALLOWED"
	ReasonInvalidClipStatus ReasonCode = "INVALID_CLIP_STATUS"
	ReasonVotingExpired     ReasonCode = "VOTING_EXPIRED"
	ReasonAlreadyVoted      ReasonCode = "ALREADY_VOTED"
	ReasonVoteLimitReached  ReasonCode = "VOTE_LIMIT_REACHED"
	ReasonVoteNotFound      ReasonCode = "VOTE_NOT_FOUND"
)

// VoteAccepted is the success payload of CastVote.
type VoteAccepted struct {
	VoterID models.VoterID `json:"voter_id"`
	ItemID  models.ItemID  `json:"item_id"`
	SlotID  models.SlotID  `json:"slot_id"`
	Weight  int64          `json:"weight"`
}

// VoteRejected is the handled-failure payload carrying the rejection reason.
type VoteRejected struct {
	VoterID models.VoterID `json:"voter_id"`
	ItemID  models.ItemID  `json:"item_id"`
	Reason  ReasonCode     `json:"reason"`
}

// VoteRetracted is the success payload of RetractVote.
type VoteRetracted struct {
	VoterID models.VoterID `json:"voter_id"`
	ItemID  models.ItemID  `json:"item_id"`
	Weight  int64          `json:"weight"`
}

// VoteOperationResult is the typed outcome of CastVote.
type VoteOperationResult = results.OperationResult[VoteAccepted, VoteRejected]

// RetractOperationResult is the typed outcome of RetractVote.
type RetractOperationResult = results.OperationResult[VoteRetracted, VoteRejected]
