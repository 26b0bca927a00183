package votingservice

import (
	"context"
	"sync"
	"time"

	"github.com/clipclash/clipclash-backend/app/models"
	"github.com/clipclash/clipclash-backend/app/modules/tally/counter"
	votingdb "github.com/clipclash/clipclash-backend/app/modules/voting/infrastructure/repositories"
)

// ------------------------
// Fake voting repo
// ------------------------

// FakeVotingRepository provides a programmable stub for votingdb.Repository.
// InsertVote and MarkRetracted keep real atomic semantics over an in-memory
// vote set so concurrency tests exercise the actual race behavior.
type FakeVotingRepository struct {
	mu    sync.Mutex
	trace []string
	votes map[string]*models.Vote

	Voters map[models.VoterID]*models.Voter
	Items  map[models.ItemID]*models.Item
	Slots  map[models.SlotID]*models.Slot

	GetVoterFunc        func(ctx context.Context, voterID models.VoterID) (*models.Voter, error)
	GetItemFunc         func(ctx context.Context, itemID models.ItemID) (*models.Item, error)
	GetSlotFunc         func(ctx context.Context, slotID models.SlotID) (*models.Slot, error)
	InsertVoteFunc      func(ctx context.Context, vote *models.Vote) (bool, error)
	CountVotesSinceFunc func(ctx context.Context, voterID models.VoterID, since time.Time) (int, error)
}

func NewFakeVotingRepository() *FakeVotingRepository {
	return &FakeVotingRepository{
		votes:  make(map[string]*models.Vote),
		Voters: make(map[models.VoterID]*models.Voter),
		Items:  make(map[models.ItemID]*models.Item),
		Slots:  make(map[models.SlotID]*models.Slot),
	}
}

func (f *FakeVotingRepository) record(step string) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.trace = append(f.trace, step)
}

// Trace returns the sequence of method calls made to the fake.
func (f *FakeVotingRepository) Trace() []string {
	f.mu.Lock()
	defer f.mu.Unlock()
	out := make([]string, len(f.trace))
	copy(out, f.trace)
	return out
}

func voteKey(voterID models.VoterID, itemID models.ItemID) string {
	return string(voterID) + "|" + itemID.String()
}

func (f *FakeVotingRepository) GetVoter(ctx context.Context, voterID models.VoterID) (*models.Voter, error) {
	f.record("GetVoter")
	if f.GetVoterFunc != nil {
		return f.GetVoterFunc(ctx, voterID)
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	if voter, ok := f.Voters[voterID]; ok {
		return voter, nil
	}
	return nil, votingdb.ErrNotFound
}

func (f *FakeVotingRepository) GetItem(ctx context.Context, itemID models.ItemID) (*models.Item, error) {
	f.record("GetItem")
	if f.GetItemFunc != nil {
		return f.GetItemFunc(ctx, itemID)
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	if item, ok := f.Items[itemID]; ok {
		return item, nil
	}
	return nil, votingdb.ErrNotFound
}

func (f *FakeVotingRepository) GetSlot(ctx context.Context, slotID models.SlotID) (*models.Slot, error) {
	f.record("GetSlot")
	if f.GetSlotFunc != nil {
		return f.GetSlotFunc(ctx, slotID)
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	if slot, ok := f.Slots[slotID]; ok {
		return slot, nil
	}
	return nil, votingdb.ErrNotFound
}

func (f *FakeVotingRepository) InsertVote(ctx context.Context, vote *models.Vote) (bool, error) {
	f.record("InsertVote")
	if f.InsertVoteFunc != nil {
		return f.InsertVoteFunc(ctx, vote)
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	key := voteKey(vote.VoterID, vote.ItemID)
	if _, ok := f.votes[key]; ok {
		return false, nil
	}
	stored := *vote
	f.votes[key] = &stored
	return true, nil
}

func (f *FakeVotingRepository) HasVoted(_ context.Context, voterID models.VoterID, itemID models.ItemID) (bool, error) {
	f.record("HasVoted")
	f.mu.Lock()
	defer f.mu.Unlock()
	_, ok := f.votes[voteKey(voterID, itemID)]
	return ok, nil
}

func (f *FakeVotingRepository) CountVotesSince(ctx context.Context, voterID models.VoterID, since time.Time) (int, error) {
	f.record("CountVotesSince")
	if f.CountVotesSinceFunc != nil {
		return f.CountVotesSinceFunc(ctx, voterID, since)
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	count := 0
	for _, vote := range f.votes {
		if vote.VoterID == voterID && !vote.CreatedAt.Before(since) {
			count++
		}
	}
	return count, nil
}

func (f *FakeVotingRepository) GetVote(_ context.Context, voterID models.VoterID, itemID models.ItemID) (*models.Vote, error) {
	f.record("GetVote")
	f.mu.Lock()
	defer f.mu.Unlock()
	if vote, ok := f.votes[voteKey(voterID, itemID)]; ok {
		snapshot := *vote
		return &snapshot, nil
	}
	return nil, votingdb.ErrNotFound
}

func (f *FakeVotingRepository) MarkRetracted(_ context.Context, voterID models.VoterID, itemID models.ItemID) error {
	f.record("MarkRetracted")
	f.mu.Lock()
	defer f.mu.Unlock()
	vote, ok := f.votes[voteKey(voterID, itemID)]
	if !ok || vote.RetractedAt != nil {
		return votingdb.ErrNoRowsAffected
	}
	now := time.Now()
	vote.RetractedAt = &now
	return nil
}

var _ votingdb.Repository = (*FakeVotingRepository)(nil)

// ------------------------
// Fake counter store
// ------------------------

type FakeCounterStore struct {
	mu     sync.Mutex
	totals map[models.ItemID]counter.Totals

	IncrementFunc func(ctx context.Context, itemID models.ItemID, weight int64, node models.NodeID) error
	DecrementFunc func(ctx context.Context, itemID models.ItemID, weight int64, node models.NodeID) error
	ReadManyFunc  func(ctx context.Context, itemIDs []models.ItemID) (map[models.ItemID]counter.Totals, error)
}

func NewFakeCounterStore() *FakeCounterStore {
	return &FakeCounterStore{totals: make(map[models.ItemID]counter.Totals)}
}

func (f *FakeCounterStore) Totals(itemID models.ItemID) counter.Totals {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.totals[itemID]
}

func (f *FakeCounterStore) Increment(ctx context.Context, itemID models.ItemID, weight int64, node models.NodeID) error {
	if f.IncrementFunc != nil {
		return f.IncrementFunc(ctx, itemID, weight, node)
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	t := f.totals[itemID]
	t.Count++
	t.WeightedScore += weight
	f.totals[itemID] = t
	return nil
}

func (f *FakeCounterStore) Decrement(ctx context.Context, itemID models.ItemID, weight int64, node models.NodeID) error {
	if f.DecrementFunc != nil {
		return f.DecrementFunc(ctx, itemID, weight, node)
	}
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

func (f *FakeCounterStore) Clear(_ context.Context, itemIDs []models.ItemID) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	for _, id := range itemIDs {
		delete(f.totals, id)
	}
	return nil
}

var _ counter.Store = (*FakeCounterStore)(nil)

// ------------------------
// Fake event bus
// ------------------------

type publishedEvent struct {
	Topic   string
	Payload any
}

type FakeEventBus struct {
	mu     sync.Mutex
	Events []publishedEvent

	PublishFunc func(ctx context.Context, topic string, payload any) error
}

func (f *FakeEventBus) Publish(ctx context.Context, topic string, payload any) error {
	f.mu.Lock()
	f.Events = append(f.Events, publishedEvent{Topic: topic, Payload: payload})
	f.mu.Unlock()
	if f.PublishFunc != nil {
		return f.PublishFunc(ctx, topic, payload)
	}
	return nil
}

func (f *FakeEventBus) Close() error { return nil }
