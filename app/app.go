package app

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"time"

	"github.com/nats-io/nats.go"
	"github.com/nats-io/nats.go/jetstream"
	"github.com/uptrace/bun"

	"github.com/clipclash/clipclash-backend/app/eventbus"
	"github.com/clipclash/clipclash-backend/app/models"
	advancementservice "github.com/clipclash/clipclash-backend/app/modules/advancement/application"
	advancementqueue "github.com/clipclash/clipclash-backend/app/modules/advancement/infrastructure/queue"
	advancementdb "github.com/clipclash/clipclash-backend/app/modules/advancement/infrastructure/repositories"
	tallyservice "github.com/clipclash/clipclash-backend/app/modules/tally/application"
	"github.com/clipclash/clipclash-backend/app/modules/tally/counter"
	tallydb "github.com/clipclash/clipclash-backend/app/modules/tally/infrastructure/repositories"
	votingservice "github.com/clipclash/clipclash-backend/app/modules/voting/application"
	votingdb "github.com/clipclash/clipclash-backend/app/modules/voting/infrastructure/repositories"
	"github.com/clipclash/clipclash-backend/app/shared/attr"
	"github.com/clipclash/clipclash-backend/app/shared/observability"
	"github.com/clipclash/clipclash-backend/app/shared/observability/advancemetrics"
	"github.com/clipclash/clipclash-backend/app/shared/observability/tallymetrics"
	"github.com/clipclash/clipclash-backend/app/shared/observability/votingmetrics"
	"github.com/clipclash/clipclash-backend/config"
	"github.com/clipclash/clipclash-backend/internal/db/bundb"
)

// App owns every long-lived component of the voting core and wires them
// together at startup.
type App struct {
	Config *config.Config
	Obs    *observability.Observability

	VotingService      votingservice.Service
	TallyService       tallyservice.Service
	AdvancementService advancementservice.Service

	db     *bun.DB
	nc     *nats.Conn
	bus    eventbus.EventBus
	queue  *advancementqueue.Service
	server *http.Server
}

// New builds the full service graph. Nothing starts running until Run.
func New(ctx context.Context, cfg *config.Config) (*App, error) {
	obs := observability.New("clipclash", slog.LevelInfo)
	logger := obs.Logger

	db, err := bundb.New(ctx, cfg.Postgres.DSN)
	if err != nil {
		return nil, fmt.Errorf("failed to initialize database: %w", err)
	}

	nc, err := nats.Connect(cfg.NATS.URL)
	if err != nil {
		return nil, fmt.Errorf("failed to connect to NATS: %w", err)
	}

	js, err := jetstream.New(nc)
	if err != nil {
		nc.Close()
		return nil, fmt.Errorf("failed to initialize JetStream: %w", err)
	}
	kv, err := js.CreateOrUpdateKeyValue(ctx, jetstream.KeyValueConfig{
		Bucket: cfg.Tournament.CounterBucket,
		TTL:    cfg.Tournament.CounterRetention,
	})
	if err != nil {
		nc.Close()
		return nil, fmt.Errorf("failed to open counter bucket: %w", err)
	}

	bus, err := eventbus.NewEventBus(cfg.NATS.URL, logger)
	if err != nil {
		nc.Close()
		return nil, fmt.Errorf("failed to create event bus: %w", err)
	}

	store := counter.NewKVStore(kv, logger)

	tally := tallyservice.NewTallyService(
		store,
		&tallydb.TallyDBImpl{DB: db},
		logger,
		tallymetrics.NewTallyMetrics(obs.Registry),
		obs.Tracer,
	)

	voting := votingservice.NewVotingService(
		&votingdb.VotingDBImpl{DB: db},
		store,
		bus,
		logger,
		votingmetrics.NewVotingMetrics(obs.Registry),
		obs.Tracer,
		models.NodeID(cfg.Tournament.NodeID),
		cfg.Tournament.DailyVoteLimit,
	)

	advancement := advancementservice.NewAdvancementService(
		&advancementdb.AdvancementDBImpl{DB: db},
		&advancementdb.LockDBImpl{DB: db},
		tally,
		nil, // scheduler installed below
		bus,
		logger,
		advancemetrics.NewAdvanceMetrics(obs.Registry),
		obs.Tracer,
		advancementservice.Config{
			Holder:       cfg.Tournament.NodeID,
			LockTTL:      cfg.Tournament.LockTTL,
			VotingWindow: cfg.Tournament.VotingWindow,
			MultiTrack:   cfg.Tournament.MultiTrack,
			Track:        cfg.Tournament.Track,
		},
	)

	queue, err := advancementqueue.NewService(ctx, db, logger, cfg.Postgres.DSN, advancement)
	if err != nil {
		nc.Close()
		return nil, fmt.Errorf("failed to create queue service: %w", err)
	}
	advancement.SetScheduler(queue)

	a := &App{
		Config:             cfg,
		Obs:                obs,
		VotingService:      voting,
		TallyService:       tally,
		AdvancementService: advancement,
		db:                 db,
		nc:                 nc,
		bus:                bus,
		queue:              queue,
	}
	a.server = &http.Server{
		Addr:              cfg.HTTP.Addr,
		Handler:           a.router(),
		ReadHeaderTimeout: 10 * time.Second,
	}
	return a, nil
}

// Run starts the queue workers and the HTTP server and blocks until the
// context is cancelled or the server fails.
func (a *App) Run(ctx context.Context) error {
	logger := a.Obs.Logger

	if err := a.queue.Start(ctx); err != nil {
		return fmt.Errorf("failed to start queue service: %w", err)
	}

	errCh := make(chan error, 1)
	go func() {
		logger.InfoContext(ctx, "HTTP server listening", attr.String("addr", a.server.Addr))
		if err := a.server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			errCh <- err
		}
	}()

	select {
	case err := <-errCh:
		return fmt.Errorf("HTTP server failed: %w", err)
	case <-ctx.Done():
		return nil
	}
}

// Close shuts everything down in reverse dependency order.
func (a *App) Close(ctx context.Context) {
	logger := a.Obs.Logger

	shutdownCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), 15*time.Second)
	defer cancel()

	if err := a.server.Shutdown(shutdownCtx); err != nil {
		logger.Warn("HTTP server shutdown failed", attr.Error(err))
	}
	if err := a.queue.Stop(shutdownCtx); err != nil {
		logger.Warn("Queue service shutdown failed", attr.Error(err))
	}
	if err := a.bus.Close(); err != nil {
		logger.Warn("Event bus close failed", attr.Error(err))
	}
	a.nc.Close()
	if err := a.db.Close(); err != nil {
		logger.Warn("Database close failed", attr.Error(err))
	}
}
