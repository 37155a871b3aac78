/*
server.go - HTTP router and middleware configuration

PURPOSE:
  Configures the HTTP router (chi), middleware stack, and route definitions.
  This is the wiring layer that connects URLs to handlers.

ROUTER: chi
  Chi was chosen for:
  - Lightweight and fast
  - Context-based
  - Middleware support
  - RESTful route patterns

MIDDLEWARE STACK:
  1. CORS:          Cross-origin requests for the kiosk frontend
  2. RequestLogger: Structured JSON request logging (httplog over slog)
  3. Recoverer:     Panic recovery (500 instead of crash)
  4. Heartbeat:     Liveness probe on /ping

ROUTE GROUPS:
  /api/token            Rotating kiosk token
  /api/window           Check-in window status
  /api/checkins         Scan submission
  /api/employees/*      Profiles, history, bonuses, redemptions
  /api/rewards          Catalog
  /api/redemptions/*    Admin approval queue
  /api/leaderboard      Rankings by period

SEE ALSO:
  - handlers.go: Handler implementations
  - cmd/server/main.go: Server startup
*/
package api

import (
	"log/slog"
	"os"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"github.com/go-chi/httplog/v3"
)

// NewRouter creates a new router with all routes configured.
func NewRouter(h *Handler) *chi.Mux {
	r := chi.NewRouter()

	logFormat := httplog.SchemaECS.Concise(false)
	logger := slog.New(slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{
		ReplaceAttr: logFormat.ReplaceAttr,
	})).With(
		slog.String("app", "checkin-engine"),
	)

	r.Use(cors.Handler(cors.Options{
		AllowedOrigins:   []string{"http://localhost:5173", "http://localhost:8080"},
		AllowedMethods:   []string{"GET", "POST", "PUT", "DELETE", "OPTIONS"},
		AllowedHeaders:   []string{"Accept", "Authorization", "Content-Type"},
		AllowCredentials: true,
	}))
	r.Use(httplog.RequestLogger(logger, &httplog.Options{
		Level:  slog.LevelInfo,
		Schema: httplog.SchemaECS,
	}))
	r.Use(middleware.CleanPath)
	r.Use(middleware.Recoverer)
	r.Use(middleware.Heartbeat("/ping"))

	r.Route("/api", func(r chi.Router) {
		// Kiosk routes
		r.Get("/token", h.GetToken)
		r.Get("/window", h.GetWindow)
		r.Post("/checkins", h.PostCheckIn)

		// Employee routes
		r.Route("/employees", func(r chi.Router) {
			r.Get("/", h.ListEmployees)
			r.Post("/", h.CreateEmployee)
			r.Get("/{id}", h.GetEmployee)
			r.Get("/{id}/events", h.GetEvents)
			r.Post("/{id}/bonuses", h.GrantBonus)
			r.Post("/{id}/redemptions", h.Redeem)
		})

		// Reward routes
		r.Get("/rewards", h.ListRewards)

		// Redemption approval routes
		r.Route("/redemptions", func(r chi.Router) {
			r.Get("/pending", h.ListPendingRedemptions)
			r.Post("/{id}/approve", h.ApproveRedemption)
			r.Post("/{id}/reject", h.RejectRedemption)
		})

		// Leaderboard
		r.Get("/leaderboard", h.GetLeaderboard)
	})

	return r
}
