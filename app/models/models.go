package models

import (
	"time"

	"github.com/uptrace/bun"
)

// Season is an ordered sequence of slots. Exactly one season is ACTIVE at a
// time; that invariant is owned by the season-management collaborator, the core
// only reads it.
type Season struct {
	bun.BaseModel `bun:"table:seasons,alias:sn"`
	ID            SeasonID     `bun:"id,pk,type:uuid"`
	Title         string       `bun:"title,notnull"`
	Status        SeasonStatus `bun:"status,notnull"`
	TotalSlots    int          `bun:"total_slots,notnull"`
	Track         string       `bun:"track,nullzero"`
	CreatedAt     time.Time    `bun:"created_at,nullzero,notnull,default:current_timestamp"`
	UpdatedAt     time.Time    `bun:"updated_at,nullzero,notnull,default:current_timestamp"`
}

// Slot is one voting round. At most one slot per season is in VOTING status;
// the coordinator's conditional writes keep it that way.
type Slot struct {
	bun.BaseModel  `bun:"table:slots,alias:sl"`
	ID             SlotID     `bun:"id,pk,type:uuid"`
	SeasonID       SeasonID   `bun:"season_id,notnull,type:uuid"`
	Position       int        `bun:"position,notnull"`
	Status         SlotStatus `bun:"status,notnull"`
	VotingStartsAt *time.Time `bun:"voting_starts_at,nullzero"`
	VotingEndsAt   *time.Time `bun:"voting_ends_at,nullzero"`
	WinnerItemID   *ItemID    `bun:"winner_item_id,nullzero,type:uuid"`
	CreatedAt      time.Time  `bun:"created_at,nullzero,notnull,default:current_timestamp"`
	UpdatedAt      time.Time  `bun:"updated_at,nullzero,notnull,default:current_timestamp"`
}

// Item is a submitted clip competing within a slot. VoteCount and WeightedScore
// are the durable copies of the counter store totals; they are only ever
// written by the synchronizer as absolute values.
type Item struct {
	bun.BaseModel `bun:"table:items,alias:i"`
	ID            ItemID     `bun:"id,pk,type:uuid"`
	SlotID        SlotID     `bun:"slot_id,notnull,type:uuid"`
	SubmitterID   VoterID    `bun:"submitter_id,notnull"`
	Status        ItemStatus `bun:"status,notnull"`
	VoteCount     int64      `bun:"vote_count,notnull,default:0"`
	WeightedScore int64      `bun:"weighted_score,notnull,default:0"`
	CreatedAt     time.Time  `bun:"created_at,nullzero,notnull,default:current_timestamp"`
	UpdatedAt     time.Time  `bun:"updated_at,nullzero,notnull,default:current_timestamp"`
}

// Vote is the immutable record of one admitted vote. The (voter_id, item_id)
// uniqueness constraint doubles as the concurrent dedup gate. A retracted vote
// keeps its row and gets a retracted_at stamp; the counter store receives a
// compensating decrement.
type Vote struct {
	bun.BaseModel `bun:"table:votes,alias:v"`
	VoterID       VoterID    `bun:"voter_id,pk"`
	ItemID        ItemID     `bun:"item_id,pk,type:uuid"`
	Weight        int64      `bun:"weight,notnull"`
	CreatedAt     time.Time  `bun:"created_at,nullzero,notnull,default:current_timestamp"`
	RetractedAt   *time.Time `bun:"retracted_at,nullzero"`
}

// Voter is the minimal projection of the external profile store the admission
// checker needs: ban state and vote weight.
type Voter struct {
	bun.BaseModel `bun:"table:voters,alias:vt"`
	ID            VoterID   `bun:"id,pk"`
	Banned        bool      `bun:"banned,notnull,default:false"`
	VoteWeight    int64     `bun:"vote_weight,notnull,default:1"`
	CreatedAt     time.Time `bun:"created_at,nullzero,notnull,default:current_timestamp"`
}

// AdvanceLock is a short-TTL mutual-exclusion row. The primary key on name is
// what makes acquisition an insert race; expired rows are deleted by the next
// acquirer, so a crashed holder needs no manual cleanup.
type AdvanceLock struct {
	bun.BaseModel `bun:"table:advance_locks,alias:al"`
	Name          string    `bun:"name,pk"`
	Holder        string    `bun:"holder,notnull"`
	ExpiresAt     time.Time `bun:"expires_at,notnull"`
	CreatedAt     time.Time `bun:"created_at,nullzero,notnull,default:current_timestamp"`
}
