package routes

import (
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	chiMiddleware "github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/Dosada05/double-elimination/handlers"
	"github.com/Dosada05/double-elimination/middleware"
	"github.com/Dosada05/double-elimination/models"
)

type Handlers struct {
	Auth        *handlers.AuthHandler
	Tournament  *handlers.TournamentHandler
	Participant *handlers.ParticipantHandler
	WebSocket   *handlers.WebSocketHandler
}

type Options struct {
	JWTSecret      []byte
	AllowedOrigins []string
	// Gatherer serves /metrics when set.
	Gatherer prometheus.Gatherer
}

func SetupRoutes(router chi.Router, h Handlers, opts Options) {
	origins := opts.AllowedOrigins
	if len(origins) == 0 {
		origins = []string{"*"}
	}

	router.Use(chiMiddleware.RequestID)
	router.Use(chiMiddleware.RealIP)
	router.Use(chiMiddleware.Logger)
	router.Use(chiMiddleware.Recoverer)
	router.Use(cors.Handler(cors.Options{
		AllowedOrigins:   origins,
		AllowedMethods:   []string{"GET", "POST", "PUT", "OPTIONS"},
		AllowedHeaders:   []string{"Accept", "Authorization", "Content-Type"},
		AllowCredentials: false,
		MaxAge:           300,
	}))

	router.Get("/healthz", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
	})
	if opts.Gatherer != nil {
		router.Handle("/metrics", promhttp.HandlerFor(opts.Gatherer, promhttp.HandlerOpts{}))
	}

	router.Get("/ws/tournament", h.WebSocket.ServeWs)

	router.Group(func(r chi.Router) {
		r.Use(chiMiddleware.Timeout(15 * time.Second))

		r.Post("/auth/login", h.Auth.Login)
		r.Get("/participants", h.Participant.ListParticipants)

		r.Route("/tournament", func(r chi.Router) {
			r.Get("/", h.Tournament.GetTournament)
			r.Get("/matches", h.Tournament.ListMatches)
			r.Get("/standings", h.Tournament.GetStandings)
			r.Get("/config", h.Tournament.GetConfig)

			r.Group(func(r chi.Router) {
				r.Use(middleware.Authenticate(opts.JWTSecret))
				r.Use(middleware.Authorize(models.RoleOrganizer))

				r.Put("/config", h.Tournament.SaveConfig)
				r.Post("/start", h.Tournament.Start)
				r.Post("/matches/{matchID}/result", h.Tournament.SubmitResult)
				r.Post("/rounds/advance", h.Tournament.AdvanceRound)
			})
		})

		r.Group(func(r chi.Router) {
			r.Use(middleware.Authenticate(opts.JWTSecret))
			r.Use(middleware.Authorize(models.RoleOrganizer))

			r.Put("/participants", h.Participant.ReplaceParticipants)
		})
	})
}
