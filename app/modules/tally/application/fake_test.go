package tallyservice

import (
	"context"
	"sync"

	"github.com/clipclash/clipclash-backend/app/models"
	"github.com/clipclash/clipclash-backend/app/modules/tally/counter"
	tallydb "github.com/clipclash/clipclash-backend/app/modules/tally/infrastructure/repositories"
)

// ------------------------
// Fake counter store
// ------------------------

// FakeCounterStore provides a programmable in-memory counter.Store.
type FakeCounterStore struct {
	mu     sync.Mutex
	totals map[models.ItemID]counter.Totals

	ReadManyFunc func(ctx context.Context, itemIDs []models.ItemID) (map[models.ItemID]counter.Totals, error)
	ClearFunc    func(ctx context.Context, itemIDs []models.ItemID) error
	Cleared      [][]models.ItemID
}

func NewFakeCounterStore() *FakeCounterStore {
	return &FakeCounterStore{totals: make(map[models.ItemID]counter.Totals)}
}

// Seed installs a net total for an item.
func (f *FakeCounterStore) Seed(itemID models.ItemID, count, weighted int64) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.totals[itemID] = counter.Totals{Count: count, WeightedScore: weighted}
}

func (f *FakeCounterStore) Increment(_ context.Context, itemID models.ItemID, weight int64, _ models.NodeID) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	t := f.totals[itemID]
	t.Count++
	t.WeightedScore += weight
	f.totals[itemID] = t
	return nil
}

func (f *FakeCounterStore) Decrement(_ context.Context, itemID models.ItemID, weight int64, _ models.NodeID) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	t := f.totals[itemID]
	t.Count--
	t.WeightedScore -= weight
	f.totals[itemID] = t
	return nil
}

func (f *FakeCounterStore) Read(ctx context.Context, itemID models.ItemID) (counter.Totals, error) {
	many, err := f.ReadMany(ctx, []models.ItemID{itemID})
	if err != nil {
		return counter.Totals{}, err
	}
	return many[itemID], nil
}

func (f *FakeCounterStore) ReadMany(ctx context.Context, itemIDs []models.ItemID) (map[models.ItemID]counter.Totals, error) {
	if f.ReadManyFunc != nil {
		return f.ReadManyFunc(ctx, itemIDs)
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	out := make(map[models.ItemID]counter.Totals, len(itemIDs))
	for _, id := range itemIDs {
		out[id] = f.totals[id]
	}
	return out, nil
}

func (f *FakeCounterStore) Clear(ctx context.Context, itemIDs []models.ItemID) error {
	f.mu.Lock()
	f.Cleared = append(f.Cleared, itemIDs)
	f.mu.Unlock()
	if f.ClearFunc != nil {
		return f.ClearFunc(ctx, itemIDs)
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	for _, id := range itemIDs {
		delete(f.totals, id)
	}
	return nil
}

var _ counter.Store = (*FakeCounterStore)(nil)

// ------------------------
// Fake tally repo
// ------------------------

// FakeTallyRepository records bulk total writes and can be programmed to fail.
type FakeTallyRepository struct {
	SetVoteTotalsFunc func(ctx context.Context, totals []tallydb.ItemTotals) error
	Writes            [][]tallydb.ItemTotals
}

func (f *FakeTallyRepository) SetVoteTotals(ctx context.Context, totals []tallydb.ItemTotals) error {
	f.Writes = append(f.Writes, totals)
	if f.SetVoteTotalsFunc != nil {
		return f.SetVoteTotalsFunc(ctx, totals)
	}
	return nil
}

var _ tallydb.Repository = (*FakeTallyRepository)(nil)
