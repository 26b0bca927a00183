package counter

import (
	"context"

	"github.com/nats-io/nats.go/jetstream"

	"github.com/clipclash/clipclash-backend/app/models"
)

// Totals is the net view of one item's counter state.
type Totals struct {
	Count         int64
	WeightedScore int64
}

// Store is the conflict-free vote counter. Writers from different nodes touch
// disjoint keys, so concurrent increments never coordinate; the net value is
// recoverable by summation regardless of arrival order. Retention is enforced
// by the backing bucket's TTL, which is safe because the durable store is the
// system of record once synchronized.
type Store interface {
	Increment(ctx context.Context, itemID models.ItemID, weight int64, node models.NodeID) error
	Decrement(ctx context.Context, itemID models.ItemID, weight int64, node models.NodeID) error
	Read(ctx context.Context, itemID models.ItemID) (Totals, error)
	ReadMany(ctx context.Context, itemIDs []models.ItemID) (map[models.ItemID]Totals, error)
	Clear(ctx context.Context, itemIDs []models.ItemID) error
}

// KeyValue is the slice of jetstream.KeyValue the store needs. Narrowed so
// tests can run against an in-memory fake.
type KeyValue interface {
	Get(ctx context.Context, key string) (jetstream.KeyValueEntry, error)
	Create(ctx context.Context, key string, value []byte, opts ...jetstream.KVCreateOpt) (uint64, error)
	Update(ctx context.Context, key string, value []byte, revision uint64) (uint64, error)
	Delete(ctx context.Context, key string, opts ...jetstream.KVDeleteOpt) error
	Keys(ctx context.Context, opts ...jetstream.WatchOpt) ([]string, error)
}

var _ KeyValue = (jetstream.KeyValue)(nil)
