package advancementservice

import (
	"context"
	"log/slog"
	"time"

	"go.opentelemetry.io/otel/trace"

	"github.com/clipclash/clipclash-backend/app/eventbus"
	"github.com/clipclash/clipclash-backend/app/models"
	advancementdb "github.com/clipclash/clipclash-backend/app/modules/advancement/infrastructure/repositories"
	tallyservice "github.com/clipclash/clipclash-backend/app/modules/tally/application"
	"github.com/clipclash/clipclash-backend/app/shared/observability/advancemetrics"
)

// advanceLockName serializes every advancer, scheduled or manual, on one row.
const advanceLockName = "advance-slot"

// SlotCloseScheduler books the trigger that closes a slot when its voting
// window lapses. The queue package implements it on river.
type SlotCloseScheduler interface {
	ScheduleSlotClose(ctx context.Context, slotID models.SlotID, at time.Time) error
}

// Config is the coordinator's slice of the runtime configuration.
type Config struct {
	// Holder identifies this process in the advance lock row.
	Holder string
	// LockTTL bounds how long a crashed advancer can block its successors.
	LockTTL time.Duration
	// VotingWindow is stamped onto each newly opened slot.
	VotingWindow time.Duration
	// MultiTrack selects per-track season resolution.
	MultiTrack bool
	// Track is the season track this instance advances when MultiTrack is set.
	Track string
}

// AdvancementService implements the Service interface.
type AdvancementService struct {
	repo      advancementdb.Repository
	lock      advancementdb.LockRepository
	tally     tallyservice.Service
	scheduler SlotCloseScheduler
	eventBus  eventbus.EventBus
	logger    *slog.Logger
	metrics   advancemetrics.AdvanceMetrics
	tracer    trace.Tracer
	cfg       Config

	now func() time.Time
}

var _ Service = (*AdvancementService)(nil)

func NewAdvancementService(
	repo advancementdb.Repository,
	lock advancementdb.LockRepository,
	tally tallyservice.Service,
	scheduler SlotCloseScheduler,
	eventBus eventbus.EventBus,
	logger *slog.Logger,
	metrics advancemetrics.AdvanceMetrics,
	tracer trace.Tracer,
	cfg Config,
) *AdvancementService {
	return &AdvancementService{
		repo:      repo,
		lock:      lock,
		tally:     tally,
		scheduler: scheduler,
		eventBus:  eventBus,
		logger:    logger,
		metrics:   metrics,
		tracer:    tracer,
		cfg:       cfg,
		now:       time.Now,
	}
}

// SetScheduler installs the slot-close scheduler after construction. The
// queue service and this service reference each other, so wiring happens in
// two phases.
func (s *AdvancementService) SetScheduler(scheduler SlotCloseScheduler) {
	s.scheduler = scheduler
}

// WinnerSelected is published on eventbus.TopicWinnerSelected once a winner is
// confirmed locked.
type WinnerSelected struct {
	SeasonID      models.SeasonID `json:"season_id"`
	SlotID        models.SlotID   `json:"slot_id"`
	WinnerItemID  models.ItemID   `json:"winner_item_id"`
	VoteCount     int64           `json:"vote_count"`
	WeightedScore int64           `json:"weighted_score"`
}

// SlotOpened is published on eventbus.TopicSlotOpened when the next slot
// enters voting.
type SlotOpened struct {
	SeasonID     models.SeasonID `json:"season_id"`
	SlotID       models.SlotID   `json:"slot_id"`
	Position     int             `json:"position"`
	VotingEndsAt time.Time       `json:"voting_ends_at"`
}
