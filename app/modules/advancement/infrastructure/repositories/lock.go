package advancementdb

import (
	"context"
	"fmt"
	"time"

	"github.com/uptrace/bun"

	"github.com/clipclash/clipclash-backend/app/models"
)

// LockDBImpl implements LockRepository on the advance_locks table. Acquisition
// is an insert race against the primary key: reaping expired rows first means a
// crashed holder blocks nobody past its TTL.
type LockDBImpl struct {
	DB *bun.DB
}

var _ LockRepository = (*LockDBImpl)(nil)

func (db *LockDBImpl) TryAcquire(ctx context.Context, name, holder string, ttl time.Duration) (bool, error) {
	_, err := db.DB.NewDelete().
		Model((*models.AdvanceLock)(nil)).
		Where("name = ?", name).
		Where("expires_at <= now()").
		Exec(ctx)
	if err != nil {
		return false, fmt.Errorf("failed to reap expired lock %s: %w", name, err)
	}

	lock := &models.AdvanceLock{
		Name:      name,
		Holder:    holder,
		ExpiresAt: time.Now().Add(ttl),
	}
	res, err := db.DB.NewInsert().
		Model(lock).
		On("CONFLICT (name) DO NOTHING").
		Exec(ctx)
	if err != nil {
		return false, fmt.Errorf("failed to acquire lock %s: %w", name, err)
	}
	rows, err := res.RowsAffected()
	if err != nil {
		return false, fmt.Errorf("failed to read rows affected: %w", err)
	}
	return rows == 1, nil
}

func (db *LockDBImpl) Release(ctx context.Context, name, holder string) error {
	_, err := db.DB.NewDelete().
		Model((*models.AdvanceLock)(nil)).
		Where("name = ?", name).
		Where("holder = ?", holder).
		Exec(ctx)
	if err != nil {
		return fmt.Errorf("failed to release lock %s: %w", name, err)
	}
	return nil
}
