package modelmigrations

import (
	"context"
	"fmt"

	"github.com/uptrace/bun"

	"github.com/clipclash/clipclash-backend/app/models"
)

func init() {
	Migrations.MustRegister(func(ctx context.Context, db *bun.DB) error {
		fmt.Println("Creating tournament tables...")

		for _, model := range []any{
			(*models.Season)(nil),
			(*models.Slot)(nil),
			(*models.Item)(nil),
			(*models.Vote)(nil),
			(*models.Voter)(nil),
			(*models.AdvanceLock)(nil),
		} {
			if _, err := db.NewCreateTable().Model(model).IfNotExists().Exec(ctx); err != nil {
				return err
			}
		}

		if _, err := db.NewCreateIndex().
			Model((*models.Slot)(nil)).
			Index("slots_season_position_idx").
			Unique().
			Column("season_id", "position").
			IfNotExists().
			Exec(ctx); err != nil {
			return err
		}

		if _, err := db.NewCreateIndex().
			Model((*models.Item)(nil)).
			Index("items_slot_status_idx").
			Column("slot_id", "status").
			IfNotExists().
			Exec(ctx); err != nil {
			return err
		}

		if _, err := db.NewCreateIndex().
			Model((*models.Vote)(nil)).
			Index("votes_voter_created_idx").
			Column("voter_id", "created_at").
			IfNotExists().
			Exec(ctx); err != nil {
			return err
		}

		fmt.Println("Tournament tables created successfully!")
		return nil
	}, func(ctx context.Context, db *bun.DB) error {
		fmt.Println("Dropping tournament tables...")

		for _, model := range []any{
			(*models.AdvanceLock)(nil),
			(*models.Voter)(nil),
			(*models.Vote)(nil),
			(*models.Item)(nil),
			(*models.Slot)(nil),
			(*models.Season)(nil),
		} {
			if _, err := db.NewDropTable().Model(model).IfExists().Exec(ctx); err != nil {
				return err
			}
		}

		fmt.Println("Tournament tables dropped successfully!")
		return nil
	})
}
