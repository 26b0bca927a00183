package advancementdb

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/uptrace/bun"

	"github.com/clipclash/clipclash-backend/app/models"
)

// AdvancementDBImpl is the concrete implementation of the Repository interface using bun.
type AdvancementDBImpl struct {
	DB *bun.DB
}

var _ Repository = (*AdvancementDBImpl)(nil)

func (db *AdvancementDBImpl) GetActiveSeason(ctx context.Context) (*models.Season, error) {
	season := new(models.Season)
	err := db.DB.NewSelect().
		Model(season).
		Where("status = ?", models.SeasonStatusActive).
		Limit(1).
		Scan(ctx)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("failed to fetch active season: %w", err)
	}
	return season, nil
}

func (db *AdvancementDBImpl) GetActiveSeasonByTrack(ctx context.Context, track string) (*models.Season, error) {
	season := new(models.Season)
	err := db.DB.NewSelect().
		Model(season).
		Where("status = ?", models.SeasonStatusActive).
		Where("track = ?", track).
		Limit(1).
		Scan(ctx)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("failed to fetch active season for track %s: %w", track, err)
	}
	return season, nil
}

func (db *AdvancementDBImpl) FinishSeason(ctx context.Context, seasonID models.SeasonID) error {
	res, err := db.DB.NewUpdate().
		Model((*models.Season)(nil)).
		Set("status = ?", models.SeasonStatusFinished).
		Set("updated_at = now()").
		Where("id = ?", seasonID).
		Where("status = ?", models.SeasonStatusActive).
		Exec(ctx)
	if err != nil {
		return fmt.Errorf("failed to finish season %s: %w", seasonID, err)
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

func (db *AdvancementDBImpl) GetVotingSlot(ctx context.Context, seasonID models.SeasonID) (*models.Slot, error) {
	slot := new(models.Slot)
	err := db.DB.NewSelect().
		Model(slot).
		Where("season_id = ?", seasonID).
		Where("status = ?", models.SlotStatusVoting).
		Limit(1).
		Scan(ctx)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("failed to fetch voting slot for season %s: %w", seasonID, err)
	}
	return slot, nil
}

// LockSlot is the double-advance gate: the status predicate makes the
// transition first-writer-wins.
func (db *AdvancementDBImpl) LockSlot(ctx context.Context, slotID models.SlotID, winnerID models.ItemID) error {
	res, err := db.DB.NewUpdate().
		Model((*models.Slot)(nil)).
		Set("status = ?", models.SlotStatusLocked).
		Set("winner_item_id = ?", winnerID).
		Set("updated_at = now()").
		Where("id = ?", slotID).
		Where("status = ?", models.SlotStatusVoting).
		Exec(ctx)
	if err != nil {
		return fmt.Errorf("failed to lock slot %s: %w", slotID, err)
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

func (db *AdvancementDBImpl) GetNextSlot(ctx context.Context, seasonID models.SeasonID) (*models.Slot, error) {
	slot := new(models.Slot)
	err := db.DB.NewSelect().
		Model(slot).
		Where("season_id = ?", seasonID).
		Where("status IN (?)", bun.In([]models.SlotStatus{
			models.SlotStatusUpcoming,
			models.SlotStatusWaitingForClips,
		})).
		Order("position ASC").
		Limit(1).
		Scan(ctx)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("failed to fetch next slot for season %s: %w", seasonID, err)
	}
	return slot, nil
}

func (db *AdvancementDBImpl) OpenSlot(ctx context.Context, slotID models.SlotID, startsAt, endsAt time.Time) error {
	res, err := db.DB.NewUpdate().
		Model((*models.Slot)(nil)).
		Set("status = ?", models.SlotStatusVoting).
		Set("voting_starts_at = ?", startsAt).
		Set("voting_ends_at = ?", endsAt).
		Set("updated_at = now()").
		Where("id = ?", slotID).
		Where("status IN (?)", bun.In([]models.SlotStatus{
			models.SlotStatusUpcoming,
			models.SlotStatusWaitingForClips,
		})).
		Exec(ctx)
	if err != nil {
		return fmt.Errorf("failed to open slot %s: %w", slotID, err)
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

func (db *AdvancementDBImpl) GetActiveItems(ctx context.Context, slotID models.SlotID) ([]models.Item, error) {
	var items []models.Item
	err := db.DB.NewSelect().
		Model(&items).
		Where("slot_id = ?", slotID).
		Where("status = ?", models.ItemStatusActive).
		Order("weighted_score DESC", "vote_count DESC", "created_at ASC", "id ASC").
		Scan(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to fetch active items for slot %s: %w", slotID, err)
	}
	return items, nil
}

func (db *AdvancementDBImpl) LockItem(ctx context.Context, itemID models.ItemID) error {
	res, err := db.DB.NewUpdate().
		Model((*models.Item)(nil)).
		Set("status = ?", models.ItemStatusLocked).
		Set("updated_at = now()").
		Where("id = ?", itemID).
		Where("status = ?", models.ItemStatusActive).
		Exec(ctx)
	if err != nil {
		return fmt.Errorf("failed to lock item %s: %w", itemID, err)
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

func (db *AdvancementDBImpl) GetItemStatus(ctx context.Context, itemID models.ItemID) (models.ItemStatus, error) {
	var status models.ItemStatus
	err := db.DB.NewSelect().
		Model((*models.Item)(nil)).
		Column("status").
		Where("id = ?", itemID).
		Scan(ctx, &status)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return "", ErrNotFound
		}
		return "", fmt.Errorf("failed to fetch status of item %s: %w", itemID, err)
	}
	return status, nil
}

func (db *AdvancementDBImpl) EliminateOthers(ctx context.Context, slotID models.SlotID, winnerID models.ItemID) (int64, error) {
	res, err := db.DB.NewUpdate().
		Model((*models.Item)(nil)).
		Set("status = ?", models.ItemStatusEliminated).
		Set("updated_at = now()").
		Where("slot_id = ?", slotID).
		Where("id != ?", winnerID).
		Where("status = ?", models.ItemStatusActive).
		Exec(ctx)
	if err != nil {
		return 0, fmt.Errorf("failed to eliminate items in slot %s: %w", slotID, err)
	}
	rows, err := res.RowsAffected()
	if err != nil {
		return 0, fmt.Errorf("failed to read rows affected: %w", err)
	}
	return rows, nil
}
