package competitionhandlers

import (
	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
)

// Mount registers the competition API on r.
func Mount(r chi.Router, h *CompetitionHandlers, verifier *TokenVerifier, limiter *IPRateLimiter) {
	r.Route("/api", func(r chi.Router) {
		r.Use(middleware.RequestID)
		r.Use(CorrelationMiddleware)
		r.Use(middleware.Recoverer)
		r.Use(RateLimitMiddleware(limiter))
		r.Use(AuthMiddleware(verifier))

		r.Route("/competitions", func(r chi.Router) {
			r.Post("/", h.HandleCreateCompetition)
			r.Route("/{competitionRef}", func(r chi.Router) {
				r.Get("/", h.HandleGetCompetition)
				r.Patch("/", h.HandleUpdateCompetition)
				r.Delete("/", h.HandleDeleteCompetition)
				r.Get("/rounds", h.HandleListRounds)
				r.Post("/rounds", h.HandleAddNonEventRound)
				r.Post("/events/{eventCode}/rounds", h.HandleAddRound)
				r.Post("/events/{eventCode}/refresh", h.HandleRefreshRoundCodes)
			})
		})

		r.Route("/rounds/{roundID}", func(r chi.Router) {
			r.Get("/", h.HandleGetRound)
			r.Patch("/", h.HandleUpdateRound)
			r.Delete("/", h.HandleRemoveRound)
			r.Post("/advance", h.HandleAdvanceCompetitors)
			r.Get("/results", h.HandleListResults)
			r.Get("/roster.xlsx", h.HandleExportRoster)
		})

		r.Put("/groups", h.HandlePutGroup)
	})
}
