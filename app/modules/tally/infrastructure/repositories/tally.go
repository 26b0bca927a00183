package tallydb

import (
	"context"
	"fmt"

	"github.com/uptrace/bun"

	"github.com/clipclash/clipclash-backend/app/models"
)

// TallyDBImpl is the concrete implementation of the Repository interface using bun.
type TallyDBImpl struct {
	DB *bun.DB
}

var _ Repository = (*TallyDBImpl)(nil)

func (db *TallyDBImpl) SetVoteTotals(ctx context.Context, totals []ItemTotals) error {
	if len(totals) == 0 {
		return nil
	}

	values := db.DB.NewValues(&totals)

	_, err := db.DB.NewUpdate().
		With("_totals", values).
		Model((*models.Item)(nil)).
		TableExpr("_totals").
		Set("vote_count = _totals.vote_count").
		Set("weighted_score = _totals.weighted_score").
		Set("updated_at = now()").
		Where("i.id = _totals.id").
		Exec(ctx)
	if err != nil {
		return fmt.Errorf("failed to set vote totals for %d items: %w", len(totals), err)
	}

	return nil
}
