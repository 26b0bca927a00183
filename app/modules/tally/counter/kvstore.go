package counter

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"strings"

	"github.com/nats-io/nats.go/jetstream"

	"github.com/clipclash/clipclash-backend/app/models"
	"github.com/clipclash/clipclash-backend/app/shared/attr"
)

const (
	keyPrefix = "ctr"
	// casRetries bounds the optimistic retry loop for same-writer contention.
	// Cross-writer increments touch disjoint keys and never enter it.
	casRetries = 8
)

// writerTotals is one writer's slice of the PN-counter: positive/negative
// count and positive/negative weight. Net totals are sums over all writers.
type writerTotals struct {
	PosCount  int64 `json:"pc"`
	NegCount  int64 `json:"nc"`
	PosWeight int64 `json:"pw"`
	NegWeight int64 `json:"nw"`
}

// KVStore implements Store on a JetStream KV bucket, one key per
// (item, writer) pair.
type KVStore struct {
	kv     KeyValue
	logger *slog.Logger
}

var _ Store = (*KVStore)(nil)

// NewKVStore creates a counter store over the given KV bucket.
func NewKVStore(kv KeyValue, logger *slog.Logger) *KVStore {
	return &KVStore{kv: kv, logger: logger}
}

// Increment records one admitted vote of the given weight for the item,
// attributed to the writing node.
func (s *KVStore) Increment(ctx context.Context, itemID models.ItemID, weight int64, node models.NodeID) error {
	return s.applyDelta(ctx, itemID, node, func(wt *writerTotals) {
		wt.PosCount++
		wt.PosWeight += weight
	})
}

// Decrement records a compensating reversal of one vote of the given weight.
func (s *KVStore) Decrement(ctx context.Context, itemID models.ItemID, weight int64, node models.NodeID) error {
	return s.applyDelta(ctx, itemID, node, func(wt *writerTotals) {
		wt.NegCount++
		wt.NegWeight += weight
	})
}

func (s *KVStore) applyDelta(ctx context.Context, itemID models.ItemID, node models.NodeID, mutate func(*writerTotals)) error {
	key := writerKey(itemID, node)

	for attempt := 0; attempt < casRetries; attempt++ {
		entry, err := s.kv.Get(ctx, key)
		if errors.Is(err, jetstream.ErrKeyNotFound) {
			var wt writerTotals
			mutate(&wt)
			data, err := json.Marshal(wt)
			if err != nil {
				return fmt.Errorf("failed to marshal counter entry: %w", err)
			}
			if _, err := s.kv.Create(ctx, key, data); err != nil {
				if errors.Is(err, jetstream.ErrKeyExists) {
					continue
				}
				return fmt.Errorf("failed to create counter entry %s: %w", key, err)
			}
			return nil
		}
		if err != nil {
			return fmt.Errorf("failed to read counter entry %s: %w", key, err)
		}

		var wt writerTotals
		if err := json.Unmarshal(entry.Value(), &wt); err != nil {
			return fmt.Errorf("corrupt counter entry %s: %w", key, err)
		}
		mutate(&wt)
		data, err := json.Marshal(wt)
		if err != nil {
			return fmt.Errorf("failed to marshal counter entry: %w", err)
		}
		if _, err := s.kv.Update(ctx, key, data, entry.Revision()); err != nil {
			if isWrongRevision(err) {
				continue
			}
			return fmt.Errorf("failed to update counter entry %s: %w", key, err)
		}
		return nil
	}

	return fmt.Errorf("counter update for item %s exceeded %d retries", itemID, casRetries)
}

// Read returns the net totals for one item.
func (s *KVStore) Read(ctx context.Context, itemID models.ItemID) (Totals, error) {
	many, err := s.ReadMany(ctx, []models.ItemID{itemID})
	if err != nil {
		return Totals{}, err
	}
	return many[itemID], nil
}

// ReadMany returns net totals for all requested items in one key listing.
// Items with no counter state come back as zero totals.
func (s *KVStore) ReadMany(ctx context.Context, itemIDs []models.ItemID) (map[models.ItemID]Totals, error) {
	totals := make(map[models.ItemID]Totals, len(itemIDs))
	prefixes := make(map[string]models.ItemID, len(itemIDs))
	for _, id := range itemIDs {
		totals[id] = Totals{}
		prefixes[itemPrefix(id)] = id
	}

	keys, err := s.kv.Keys(ctx)
	if err != nil {
		if errors.Is(err, jetstream.ErrNoKeysFound) {
			return totals, nil
		}
		return nil, fmt.Errorf("failed to list counter keys: %w", err)
	}

	for _, key := range keys {
		itemID, ok := matchPrefix(prefixes, key)
		if !ok {
			continue
		}
		entry, err := s.kv.Get(ctx, key)
		if err != nil {
			if errors.Is(err, jetstream.ErrKeyNotFound) {
				// Expired between listing and read.
				continue
			}
			return nil, fmt.Errorf("failed to read counter entry %s: %w", key, err)
		}
		var wt writerTotals
		if err := json.Unmarshal(entry.Value(), &wt); err != nil {
			s.logger.WarnContext(ctx, "Skipping corrupt counter entry",
				attr.String("key", key),
				attr.Error(err),
			)
			continue
		}
		agg := totals[itemID]
		agg.Count += wt.PosCount - wt.NegCount
		agg.WeightedScore += wt.PosWeight - wt.NegWeight
		totals[itemID] = agg
	}

	return totals, nil
}

// Clear deletes all counter state for the given items. Used once the owning
// slot is finalized and the durable store is authoritative.
func (s *KVStore) Clear(ctx context.Context, itemIDs []models.ItemID) error {
	prefixes := make(map[string]models.ItemID, len(itemIDs))
	for _, id := range itemIDs {
		prefixes[itemPrefix(id)] = id
	}

	keys, err := s.kv.Keys(ctx)
	if err != nil {
		if errors.Is(err, jetstream.ErrNoKeysFound) {
			return nil
		}
		return fmt.Errorf("failed to list counter keys: %w", err)
	}

	for _, key := range keys {
		if _, ok := matchPrefix(prefixes, key); !ok {
			continue
		}
		if err := s.kv.Delete(ctx, key); err != nil && !errors.Is(err, jetstream.ErrKeyNotFound) {
			return fmt.Errorf("failed to delete counter entry %s: %w", key, err)
		}
	}

	return nil
}

func itemPrefix(itemID models.ItemID) string {
	return fmt.Sprintf("%s.%s.", keyPrefix, itemID)
}

func writerKey(itemID models.ItemID, node models.NodeID) string {
	return itemPrefix(itemID) + sanitizeNode(node)
}

func matchPrefix(prefixes map[string]models.ItemID, key string) (models.ItemID, bool) {
	for prefix, id := range prefixes {
		if strings.HasPrefix(key, prefix) {
			return id, true
		}
	}
	return models.ItemID{}, false
}

// sanitizeNode maps a node id onto the KV key alphabet. Dots are the key
// separator and must not appear inside the writer segment.
func sanitizeNode(node models.NodeID) string {
	return strings.Map(func(r rune) rune {
		switch {
		case r >= 'a' && r <= 'z', r >= 'A' && r <= 'Z', r >= '0' && r <= '9', r == '-', r == '_':
			return r
		default:
			return '_'
		}
	}, string(node))
}

func isWrongRevision(err error) bool {
	var apiErr *jetstream.APIError
	return errors.As(err, &apiErr) && apiErr.ErrorCode == jetstream.JSErrCodeStreamWrongLastSequence
}
