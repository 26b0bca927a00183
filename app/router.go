package app

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"golang.org/x/time/rate"

	advancementhandlers "github.com/clipclash/clipclash-backend/app/modules/advancement/infrastructure/handlers"
	votinghandlers "github.com/clipclash/clipclash-backend/app/modules/voting/infrastructure/handlers"
)

func (a *App) router() http.Handler {
	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(middleware.Recoverer)

	voting := votinghandlers.NewVotingHandlers(a.VotingService, a.Obs.Logger)
	advancement := advancementhandlers.NewAdvancementHandlers(a.AdvancementService, a.Obs.Logger)
	voteLimiter := votinghandlers.NewClientRateLimiter(
		rate.Limit(a.Config.HTTP.VoteRatePerSecond),
		a.Config.HTTP.VoteRateBurst,
	)

	r.Route("/api", func(r chi.Router) {
		r.Group(func(r chi.Router) {
			r.Use(votinghandlers.RateLimitMiddleware(voteLimiter))
			r.Post("/votes", voting.CastVote)
			r.Delete("/votes", voting.RetractVote)
		})
		r.Get("/counts", voting.GetCounts)
		r.Post("/admin/advance", advancement.AdvanceSlot)
	})

	r.Get("/healthz", func(w http.ResponseWriter, r *http.Request) {
		if err := a.db.PingContext(r.Context()); err != nil {
			http.Error(w, "database unreachable", http.StatusServiceUnavailable)
			return
		}
		w.WriteHeader(http.StatusOK)
	})
	r.Handle("/metrics", promhttp.HandlerFor(a.Obs.Registry, promhttp.HandlerOpts{}))

	return r
}
