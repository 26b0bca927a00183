package votingdb

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/uptrace/bun"

	"github.com/clipclash/clipclash-backend/app/models"
)

// VotingDBImpl is the concrete implementation of the Repository interface using bun.
type VotingDBImpl struct {
	DB *bun.DB
}

var _ Repository = (*VotingDBImpl)(nil)

func (db *VotingDBImpl) GetVoter(ctx context.Context, voterID models.VoterID) (*models.Voter, error) {
	voter := new(models.Voter)
	err := db.DB.NewSelect().
		Model(voter).
		Where("id = ?", voterID).
		Scan(ctx)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("failed to fetch voter %s: %w", voterID, err)
	}
	return voter, nil
}

func (db *VotingDBImpl) GetItem(ctx context.Context, itemID models.ItemID) (*models.Item, error) {
	item := new(models.Item)
	err := db.DB.NewSelect().
		Model(item).
		Where("id = ?", itemID).
		Scan(ctx)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("failed to fetch item %s: %w", itemID, err)
	}
	return item, nil
}

func (db *VotingDBImpl) GetSlot(ctx context.Context, slotID models.SlotID) (*models.Slot, error) {
	slot := new(models.Slot)
	err := db.DB.NewSelect().
		Model(slot).
		Where("id = ?", slotID).
		Scan(ctx)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("failed to fetch slot %s: %w", slotID, err)
	}
	return slot, nil
}

// InsertVote relies on the (voter_id, item_id) primary key: the insert and the
// existence check are one statement, so two concurrent calls cannot both win.
func (db *VotingDBImpl) InsertVote(ctx context.Context, vote *models.Vote) (bool, error) {
	res, err := db.DB.NewInsert().
		Model(vote).
		On("CONFLICT (voter_id, item_id) DO NOTHING").
		Exec(ctx)
	if err != nil {
		return false, fmt.Errorf("failed to insert vote: %w", err)
	}
	rows, err := res.RowsAffected()
	if err != nil {
		return false, fmt.Errorf("failed to read rows affected: %w", err)
	}
	return rows == 1, nil
}

func (db *VotingDBImpl) HasVoted(ctx context.Context, voterID models.VoterID, itemID models.ItemID) (bool, error) {
	exists, err := db.DB.NewSelect().
		Model((*models.Vote)(nil)).
		Where("voter_id = ? AND item_id = ?", voterID, itemID).
		Exists(ctx)
	if err != nil {
		return false, fmt.Errorf("failed to check existing vote: %w", err)
	}
	return exists, nil
}

func (db *VotingDBImpl) CountVotesSince(ctx context.Context, voterID models.VoterID, since time.Time) (int, error) {
	count, err := db.DB.NewSelect().
		Model((*models.Vote)(nil)).
		Where("voter_id = ? AND created_at >= ?", voterID, since).
		Count(ctx)
	if err != nil {
		return 0, fmt.Errorf("failed to count votes for %s: %w", voterID, err)
	}
	return count, nil
}

func (db *VotingDBImpl) GetVote(ctx context.Context, voterID models.VoterID, itemID models.ItemID) (*models.Vote, error) {
	vote := new(models.Vote)
	err := db.DB.NewSelect().
		Model(vote).
		Where("voter_id = ? AND item_id = ?", voterID, itemID).
		Scan(ctx)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("failed to fetch vote: %w", err)
	}
	return vote, nil
}

func (db *VotingDBImpl) MarkRetracted(ctx context.Context, voterID models.VoterID, itemID models.ItemID) error {
	res, err := db.DB.NewUpdate().
		Model((*models.Vote)(nil)).
		Set("retracted_at = now()").
		Where("voter_id = ? AND item_id = ? AND retracted_at IS NULL", voterID, itemID).
		Exec(ctx)
	if err != nil {
		return fmt.Errorf("failed to mark vote retracted: %w", err)
	}
	rows, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to read rows affected: %w", err)
	}
	if rows == 0 {
		return ErrNoRowsAffected
	}
	return nil
}
