package votingservice

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/clipclash/clipclash-backend/app/eventbus"
	"github.com/clipclash/clipclash-backend/app/models"
)

func castOrFail(t *testing.T, w *testWorld) {
	t.Helper()
	res, err := w.svc.CastVote(context.Background(), w.voterID, w.itemID)
	if err != nil || !res.IsSuccess() {
		t.Fatalf("seed vote failed: err=%v res=%+v", err, res)
	}
}

func TestVotingService_RetractVote_Success(t *testing.T) {
	ctx := context.Background()
	w := newTestWorld(t)
	castOrFail(t, w)

	res, err := w.svc.RetractVote(ctx, w.voterID, w.itemID)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !res.IsSuccess() {
		t.Fatalf("expected success, got %+v", res)
	}
	if got := w.store.Totals(w.itemID); got.Count != 0 || got.WeightedScore != 0 {
		t.Errorf("expected counter back to zero, got %+v", got)
	}

	var retracted int
	for _, ev := range w.bus.Events {
		if ev.Topic == eventbus.TopicVoteRetracted {
			retracted++
		}
	}
	if retracted != 1 {
		t.Errorf("expected one vote.retracted event, got %d", retracted)
	}
}

func TestVotingService_RetractVote_Rejections(t *testing.T) {
	ctx := context.Background()

	tests := []struct {
		name   string
		setup  func(w *testWorld)
		reason ReasonCode
	}{
		{
			name:   "no vote to retract",
			setup:  func(w *testWorld) {},
			reason: ReasonVoteNotFound,
		},
		{
			name: "already retracted",
			setup: func(w *testWorld) {
				castOrFail(t, w)
				if _, err := w.svc.RetractVote(ctx, w.voterID, w.itemID); err != nil {
					t.Fatalf("first retract: %v", err)
				}
			},
			reason: ReasonVoteNotFound,
		},
		{
			name: "slot locked after the vote landed",
			setup: func(w *testWorld) {
				castOrFail(t, w)
				w.repo.Slots[w.slotID].Status = models.SlotStatusLocked
			},
			reason: ReasonVotingExpired,
		},
		{
			name: "window elapsed after the vote landed",
			setup: func(w *testWorld) {
				castOrFail(t, w)
				past := time.Now().Add(-time.Minute)
				w.repo.Slots[w.slotID].VotingEndsAt = &past
			},
			reason: ReasonVotingExpired,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			w := newTestWorld(t)
			tt.setup(w)

			res, err := w.svc.RetractVote(ctx, w.voterID, w.itemID)
			if err != nil {
				t.Fatalf("rejection must not be an error: %v", err)
			}
			if !res.IsFailure() {
				t.Fatalf("expected failure, got %+v", res)
			}
			if res.Failure.Reason != tt.reason {
				t.Errorf("expected reason %s, got %s", tt.reason, res.Failure.Reason)
			}
		})
	}
}

// Concurrent retracts of the same vote: the conditional update admits one
// winner, so the counter is decremented exactly once.
func TestVotingService_RetractVote_ConcurrentSingleDecrement(t *testing.T) {
	ctx := context.Background()
	w := newTestWorld(t)
	castOrFail(t, w)

	const attempts = 16
	var wg sync.WaitGroup
	resCh := make(chan RetractOperationResult, attempts)
	for i := 0; i < attempts; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			res, err := w.svc.RetractVote(ctx, w.voterID, w.itemID)
			if err != nil {
				t.Errorf("unexpected error: %v", err)
				return
			}
			resCh <- res
		}()
	}
	wg.Wait()
	close(resCh)

	accepted := 0
	for res := range resCh {
		if res.IsSuccess() {
			accepted++
		}
	}
	if accepted != 1 {
		t.Errorf("expected exactly one successful retract, got %d", accepted)
	}
	if got := w.store.Totals(w.itemID); got.Count != 0 {
		t.Errorf("expected counter decremented exactly once, got %+v", got)
	}
}

func TestVotingService_RetractVote_RetractsOriginalWeight(t *testing.T) {
	ctx := context.Background()
	w := newTestWorld(t)
	w.repo.Voters[w.voterID] = &models.Voter{ID: w.voterID, VoteWeight: 4}
	castOrFail(t, w)

	if got := w.store.Totals(w.itemID); got.WeightedScore != 4 {
		t.Fatalf("expected weighted score 4 before retract, got %+v", got)
	}

	// Weight changes after the vote do not affect what gets backed out.
	w.repo.Voters[w.voterID].VoteWeight = 9

	res, err := w.svc.RetractVote(ctx, w.voterID, w.itemID)
	if err != nil || !res.IsSuccess() {
		t.Fatalf("retract failed: err=%v res=%+v", err, res)
	}
	if got := w.store.Totals(w.itemID); got.Count != 0 || got.WeightedScore != 0 {
		t.Errorf("expected totals back to zero, got %+v", got)
	}
}

func TestVotingService_RetractVote_CounterFailureSurfaces(t *testing.T) {
	ctx := context.Background()
	w := newTestWorld(t)
	castOrFail(t, w)

	w.store.DecrementFunc = func(context.Context, models.ItemID, int64, models.NodeID) error {
		return errors.New("kv unreachable")
	}
	if _, err := w.svc.RetractVote(ctx, w.voterID, w.itemID); err == nil {
		t.Fatal("expected infrastructure error when decrement fails")
	}
}
