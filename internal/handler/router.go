package handler

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"go.uber.org/zap"

	"github.com/sportfed/arena/internal/metrics"
	"github.com/sportfed/arena/internal/middleware"
	"github.com/sportfed/arena/internal/model"
	"github.com/sportfed/arena/internal/service"
)

// RouterConfig holds everything the HTTP surface is built from
type RouterConfig struct {
	Workflow    *service.Workflow
	Verifier    middleware.TokenVerifier
	RateLimiter *middleware.RateLimiter // optional
	Store       Pinger                  // optional
	Logger      *zap.Logger
	CORSOrigins []string
}

// NewRouter builds the API router
func NewRouter(cfg RouterConfig) http.Handler {
	logger := cfg.Logger
	if logger == nil {
		logger = zap.NewNop()
	}

	competitions := NewCompetitionHandler(cfg.Workflow)
	applications := NewApplicationHandler(cfg.Workflow)
	teams := NewTeamHandler(cfg.Workflow)
	health := NewHealthHandler(cfg.Store)

	r := chi.NewRouter()
	r.Use(
		middleware.RequestID,
		middleware.Recovery(logger),
		middleware.Logger(logger),
		middleware.CORS(cfg.CORSOrigins),
		metrics.InstrumentHandler,
	)
	r.NotFound(func(w http.ResponseWriter, r *http.Request) {
		WriteError(w, model.NewNotFoundError("route"))
	})

	r.Get("/health", health.Health)
	r.Method(http.MethodGet, "/metrics", metrics.Handler())

	r.Route("/v1", func(r chi.Router) {
		r.Use(middleware.Auth(cfg.Verifier))
		if cfg.RateLimiter != nil {
			r.Use(middleware.RateLimit(cfg.RateLimiter))
		}

		r.Post("/competitions", competitions.Create)
		r.Route("/competitions/{competitionId}", func(r chi.Router) {
			r.Get("/", competitions.Get)
			r.Delete("/", competitions.Delete)
			r.Post("/applications", applications.Submit)
			r.Get("/applications", applications.List)
			r.Get("/recruiting-teams", competitions.ListRecruitingTeams)
		})

		r.Route("/applications/{applicationId}", func(r chi.Router) {
			r.Patch("/status", applications.ChangeStatus)
			r.Post("/withdraw", applications.Withdraw)
			r.Put("/recruiting", applications.AdvertiseRecruiting)
			r.Delete("/recruiting", applications.CloseRecruiting)
		})

		r.Post("/teams", teams.Create)
		r.Get("/teams/mine", teams.Mine)
		r.Route("/teams/{teamId}", func(r chi.Router) {
			r.Get("/", teams.Get)
			r.Patch("/", teams.Rename)
			r.Delete("/", teams.Delete)
			r.Post("/members", teams.AddMember)
			r.Delete("/members/{memberId}", teams.RemoveMember)
			r.Post("/join-requests", teams.RequestToJoin)
			r.Get("/join-requests", teams.ListJoinRequests)
		})

		r.Post("/join-requests/{requestId}/accept", teams.Accept)
		r.Post("/join-requests/{requestId}/reject", teams.Reject)
	})

	return r
}
