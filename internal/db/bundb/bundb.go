package bundb

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/uptrace/bun"
	"github.com/uptrace/bun/dialect/pgdialect"
	"github.com/uptrace/bun/driver/pgdriver"

	"github.com/clipclash/clipclash-backend/app/models"
)

// New opens a bun.DB over pgdriver and registers the tournament models.
func New(ctx context.Context, dsn string) (*bun.DB, error) {
	sqldb := sql.OpenDB(pgdriver.NewConnector(pgdriver.WithDSN(dsn)))
	if err := sqldb.PingContext(ctx); err != nil {
		return nil, fmt.Errorf("failed to ping database: %w", err)
	}

	db := bun.NewDB(sqldb, pgdialect.New())
	db.RegisterModel(
		(*models.Season)(nil),
		(*models.Slot)(nil),
		(*models.Item)(nil),
		(*models.Vote)(nil),
		(*models.Voter)(nil),
		(*models.AdvanceLock)(nil),
	)
	return db, nil
}
