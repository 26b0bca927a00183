package advancementservice

import (
	"context"
	"sync"
	"time"

	"github.com/clipclash/clipclash-backend/app/models"
	advancementdb "github.com/clipclash/clipclash-backend/app/modules/advancement/infrastructure/repositories"
	tallyservice "github.com/clipclash/clipclash-backend/app/modules/tally/application"
)

// FakeAdvancementRepository is a programmable in-memory Repository. The
// conditional writes carry real first-writer-wins semantics behind a mutex so
// concurrency tests exercise the same races the SQL predicates guard against.
type FakeAdvancementRepository struct {
	mu      sync.Mutex
	Seasons map[models.SeasonID]*models.Season
	Slots   map[models.SlotID]*models.Slot
	Items   map[models.ItemID]*models.Item

	GetActiveItemsFunc  func(ctx context.Context, slotID models.SlotID) ([]models.Item, error)
	LockSlotFunc        func(ctx context.Context, slotID models.SlotID, winnerID models.ItemID) error
	LockItemFunc        func(ctx context.Context, itemID models.ItemID) error
	GetItemStatusFunc   func(ctx context.Context, itemID models.ItemID) (models.ItemStatus, error)
	EliminateOthersFunc func(ctx context.Context, slotID models.SlotID, winnerID models.ItemID) (int64, error)
	OpenSlotFunc        func(ctx context.Context, slotID models.SlotID, startsAt, endsAt time.Time) error

	trace []string
}

var _ advancementdb.Repository = (*FakeAdvancementRepository)(nil)

func NewFakeAdvancementRepository() *FakeAdvancementRepository {
	return &FakeAdvancementRepository{
		Seasons: make(map[models.SeasonID]*models.Season),
		Slots:   make(map[models.SlotID]*models.Slot),
		Items:   make(map[models.ItemID]*models.Item),
	}
}

func (f *FakeAdvancementRepository) record(op string) {
	f.trace = append(f.trace, op)
}

// Trace returns the operations applied so far, in order.
func (f *FakeAdvancementRepository) Trace() []string {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]string(nil), f.trace...)
}

func (f *FakeAdvancementRepository) GetActiveSeason(_ context.Context) (*models.Season, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	for _, sn := range f.Seasons {
		if sn.Status == models.SeasonStatusActive {
			cp := *sn
			return &cp, nil
		}
	}
	return nil, advancementdb.ErrNotFound
}

func (f *FakeAdvancementRepository) GetActiveSeasonByTrack(_ context.Context, track string) (*models.Season, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	for _, sn := range f.Seasons {
		if sn.Status == models.SeasonStatusActive && sn.Track == track {
			cp := *sn
			return &cp, nil
		}
	}
	return nil, advancementdb.ErrNotFound
}

func (f *FakeAdvancementRepository) FinishSeason(_ context.Context, seasonID models.SeasonID) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.record("FinishSeason")
	sn, ok := f.Seasons[seasonID]
	if !ok || sn.Status != models.SeasonStatusActive {
		return advancementdb.ErrNoRowsAffected
	}
	sn.Status = models.SeasonStatusFinished
	return nil
}

func (f *FakeAdvancementRepository) GetVotingSlot(_ context.Context, seasonID models.SeasonID) (*models.Slot, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	for _, sl := range f.Slots {
		if sl.SeasonID == seasonID && sl.Status == models.SlotStatusVoting {
			cp := *sl
			return &cp, nil
		}
	}
	return nil, advancementdb.ErrNotFound
}

func (f *FakeAdvancementRepository) LockSlot(ctx context.Context, slotID models.SlotID, winnerID models.ItemID) error {
	if f.LockSlotFunc != nil {
		return f.LockSlotFunc(ctx, slotID, winnerID)
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	f.record("LockSlot")
	sl, ok := f.Slots[slotID]
	if !ok || sl.Status != models.SlotStatusVoting {
		return advancementdb.ErrNoRowsAffected
	}
	sl.Status = models.SlotStatusLocked
	sl.WinnerItemID = &winnerID
	return nil
}

func (f *FakeAdvancementRepository) GetNextSlot(_ context.Context, seasonID models.SeasonID) (*models.Slot, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	var next *models.Slot
	for _, sl := range f.Slots {
		if sl.SeasonID != seasonID {
			continue
		}
		if sl.Status != models.SlotStatusUpcoming && sl.Status != models.SlotStatusWaitingForClips {
			continue
		}
		if next == nil || sl.Position < next.Position {
			next = sl
		}
	}
	if next == nil {
		return nil, advancementdb.ErrNotFound
	}
	cp := *next
	return &cp, nil
}

func (f *FakeAdvancementRepository) OpenSlot(ctx context.Context, slotID models.SlotID, startsAt, endsAt time.Time) error {
	if f.OpenSlotFunc != nil {
		return f.OpenSlotFunc(ctx, slotID, startsAt, endsAt)
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	f.record("OpenSlot")
	sl, ok := f.Slots[slotID]
	if !ok || (sl.Status != models.SlotStatusUpcoming && sl.Status != models.SlotStatusWaitingForClips) {
		return advancementdb.ErrNoRowsAffected
	}
	sl.Status = models.SlotStatusVoting
	sl.VotingStartsAt = &startsAt
	sl.VotingEndsAt = &endsAt
	return nil
}

func (f *FakeAdvancementRepository) GetActiveItems(ctx context.Context, slotID models.SlotID) ([]models.Item, error) {
	if f.GetActiveItemsFunc != nil {
		return f.GetActiveItemsFunc(ctx, slotID)
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	var items []models.Item
	for _, it := range f.Items {
		if it.SlotID == slotID && it.Status == models.ItemStatusActive {
			items = append(items, *it)
		}
	}
	sortItemsWinnerFirst(items)
	return items, nil
}

func (f *FakeAdvancementRepository) LockItem(ctx context.Context, itemID models.ItemID) error {
	if f.LockItemFunc != nil {
		return f.LockItemFunc(ctx, itemID)
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	f.record("LockItem")
	it, ok := f.Items[itemID]
	if !ok || it.Status != models.ItemStatusActive {
		return advancementdb.ErrNoRowsAffected
	}
	it.Status = models.ItemStatusLocked
	return nil
}

func (f *FakeAdvancementRepository) GetItemStatus(ctx context.Context, itemID models.ItemID) (models.ItemStatus, error) {
	if f.GetItemStatusFunc != nil {
		return f.GetItemStatusFunc(ctx, itemID)
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	it, ok := f.Items[itemID]
	if !ok {
		return "", advancementdb.ErrNotFound
	}
	return it.Status, nil
}

func (f *FakeAdvancementRepository) EliminateOthers(ctx context.Context, slotID models.SlotID, winnerID models.ItemID) (int64, error) {
	if f.EliminateOthersFunc != nil {
		return f.EliminateOthersFunc(ctx, slotID, winnerID)
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	f.record("EliminateOthers")
	var eliminated int64
	for _, it := range f.Items {
		if it.SlotID == slotID && it.ID != winnerID && it.Status == models.ItemStatusActive {
			it.Status = models.ItemStatusEliminated
			eliminated++
		}
	}
	return eliminated, nil
}

// sortItemsWinnerFirst mirrors the repository's ranking order.
func sortItemsWinnerFirst(items []models.Item) {
	for i := 1; i < len(items); i++ {
		for j := i; j > 0 && itemRanksHigher(items[j], items[j-1]); j-- {
			items[j], items[j-1] = items[j-1], items[j]
		}
	}
}

func itemRanksHigher(a, b models.Item) bool {
	if a.WeightedScore != b.WeightedScore {
		return a.WeightedScore > b.WeightedScore
	}
	if a.VoteCount != b.VoteCount {
		return a.VoteCount > b.VoteCount
	}
	if !a.CreatedAt.Equal(b.CreatedAt) {
		return a.CreatedAt.Before(b.CreatedAt)
	}
	return a.ID.String() < b.ID.String()
}

// FakeLockRepository implements the advisory lock in memory with real TTL and
// mutual-exclusion semantics.
type FakeLockRepository struct {
	mu    sync.Mutex
	locks map[string]fakeLockRow

	TryAcquireFunc func(ctx context.Context, name, holder string, ttl time.Duration) (bool, error)
	ReleaseErr     error

	Acquired int
	Busy     int
	Released int
}

type fakeLockRow struct {
	holder    string
	expiresAt time.Time
}

var _ advancementdb.LockRepository = (*FakeLockRepository)(nil)

func NewFakeLockRepository() *FakeLockRepository {
	return &FakeLockRepository{locks: make(map[string]fakeLockRow)}
}

func (f *FakeLockRepository) TryAcquire(ctx context.Context, name, holder string, ttl time.Duration) (bool, error) {
	if f.TryAcquireFunc != nil {
		return f.TryAcquireFunc(ctx, name, holder, ttl)
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	if row, ok := f.locks[name]; ok && row.expiresAt.After(time.Now()) {
		f.Busy++
		return false, nil
	}
	f.locks[name] = fakeLockRow{holder: holder, expiresAt: time.Now().Add(ttl)}
	f.Acquired++
	return true, nil
}

func (f *FakeLockRepository) Release(_ context.Context, name, holder string) error {
	if f.ReleaseErr != nil {
		return f.ReleaseErr
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	if row, ok := f.locks[name]; ok && row.holder == holder {
		delete(f.locks, name)
		f.Released++
	}
	return nil
}

// FakeTallyService is a programmable stand-in for the synchronizer.
type FakeTallyService struct {
	mu sync.Mutex

	ForceSyncFunc func(ctx context.Context, itemIDs []models.ItemID) (tallyservice.SyncResult, error)
	ClearErr      error

	SyncCalls  [][]models.ItemID
	ClearCalls [][]models.ItemID
}

var _ tallyservice.Service = (*FakeTallyService)(nil)

func (f *FakeTallyService) ForceSync(ctx context.Context, itemIDs []models.ItemID) (tallyservice.SyncResult, error) {
	f.mu.Lock()
	f.SyncCalls = append(f.SyncCalls, append([]models.ItemID(nil), itemIDs...))
	f.mu.Unlock()
	if f.ForceSyncFunc != nil {
		return f.ForceSyncFunc(ctx, itemIDs)
	}
	return tallyservice.SyncResult{Synced: len(itemIDs)}, nil
}

func (f *FakeTallyService) ClearCounters(_ context.Context, itemIDs []models.ItemID) error {
	f.mu.Lock()
	f.ClearCalls = append(f.ClearCalls, append([]models.ItemID(nil), itemIDs...))
	f.mu.Unlock()
	return f.ClearErr
}

// FakeScheduler records slot-close bookings.
type FakeScheduler struct {
	mu sync.Mutex

	ScheduleErr error
	Scheduled   []scheduledClose
}

type scheduledClose struct {
	SlotID models.SlotID
	At     time.Time
}

func (f *FakeScheduler) ScheduleSlotClose(_ context.Context, slotID models.SlotID, at time.Time) error {
	if f.ScheduleErr != nil {
		return f.ScheduleErr
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	f.Scheduled = append(f.Scheduled, scheduledClose{SlotID: slotID, At: at})
	return nil
}

// FakeEventBus records published events.
type FakeEventBus struct {
	mu     sync.Mutex
	Events []publishedEvent
}

type publishedEvent struct {
	Topic   string
	Payload any
}

func (f *FakeEventBus) Publish(_ context.Context, topic string, payload any) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.Events = append(f.Events, publishedEvent{Topic: topic, Payload: payload})
	return nil
}

func (f *FakeEventBus) Close() error { return nil }

// Topics returns the published topic names in order.
func (f *FakeEventBus) Topics() []string {
	f.mu.Lock()
	defer f.mu.Unlock()
	topics := make([]string, len(f.Events))
	for i, ev := range f.Events {
		topics[i] = ev.Topic
	}
	return topics
}
