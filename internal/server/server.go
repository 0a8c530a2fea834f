package server

import (
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/meltforce/gymtrack/internal/config"
	"github.com/meltforce/gymtrack/internal/ledger"
	"github.com/meltforce/gymtrack/internal/mcp"
	"github.com/meltforce/gymtrack/internal/storage"
	"github.com/meltforce/gymtrack/internal/workout"
	"tailscale.com/client/local"
)

// Server holds dependencies for HTTP handlers.
type Server struct {
	db      *storage.DB
	led     *ledger.Ledger
	tracker *workout.Tracker
	log     *slog.Logger
	devUser config.DevUserConfig
	lc      *local.Client
	router  chi.Router
}

// New creates a new Server with all routes configured.
func New(db *storage.DB, led *ledger.Ledger, tracker *workout.Tracker, devUser config.DevUserConfig, log *slog.Logger) *Server {
	s := &Server{
		db:      db,
		led:     led,
		tracker: tracker,
		log:     log,
		devUser: devUser,
		router:  chi.NewRouter(),
	}
	s.routes()
	return s
}

// SetTailscale switches identity resolution from the configured dev user to
// Tailscale whois lookups on the connecting address.
func (s *Server) SetTailscale(lc *local.Client) {
	s.lc = lc
}

// SetMCP mounts the MCP transport at /mcp. Requests pass through the same
// identity resolution as the REST API; the resolved profile becomes the
// tool-call user.
func (s *Server) SetMCP(h http.Handler) {
	wrapped := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		p, ok := mustProfile(w, r)
		if !ok {
			return
		}
		h.ServeHTTP(w, r.WithContext(mcp.WithUserID(r.Context(), p.ID)))
	})
	s.router.With(s.Identity).Mount("/mcp", wrapped)
}

// ServeHTTP implements http.Handler.
func (s *Server) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	s.router.ServeHTTP(w, r)
}

func (s *Server) routes() {
	s.router.Use(RequestLogging(s.log))
	s.router.Use(CORS)

	s.router.Route("/api/v1", func(r chi.Router) {
		r.Use(s.Identity)

		r.Get("/me", s.handleMe)

		r.Route("/plans", func(r chi.Router) {
			r.Get("/", s.handleListPlans)
			r.Post("/", s.handleCreatePlan)
			r.Get("/active", s.handleGetActivePlan)
			r.Delete("/active", s.handleDeactivatePlan)
			r.Get("/{id}", s.handleGetPlan)
			r.Put("/{id}", s.handleUpdatePlan)
			r.Delete("/{id}", s.handleDeletePlan)
			r.Post("/{id}/activate", s.handleActivatePlan)
		})

		r.Get("/days/{id}/exercises", s.handleDayExercises)
		r.Route("/exercises", func(r chi.Router) {
			r.Post("/", s.handleCreateExercise)
			r.Get("/{id}", s.handleGetExercise)
			r.Put("/{id}", s.handleUpdateExercise)
			r.Delete("/{id}", s.handleDeleteExercise)
		})

		r.Route("/session", func(r chi.Router) {
			r.Get("/", s.handleSessionSnapshot)
			r.Post("/load", s.handleSessionLoad)
			r.Post("/start", s.handleSessionStart)
			r.Post("/submit", s.handleSessionSubmit)
			r.Post("/advance", s.handleSessionAdvance)
			r.Post("/finish", s.handleSessionFinish)
			r.Post("/skip", s.handleSessionSkip)
			r.Post("/cancel", s.handleSessionCancel)
		})

		r.Get("/progress", s.handleListProgress)
		r.Get("/progress/{exerciseId}", s.handleExerciseProgress)
		r.Get("/progress/{exerciseId}/series", s.handleExerciseSeries)
		r.Get("/stats", s.handleStats)
	})
}
