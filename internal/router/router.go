package router

import (
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/cors"
	"github.com/go-chi/httprate"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/rs/zerolog"

	"github.com/Jimix91/ticketflow/internal/config"
	"github.com/Jimix91/ticketflow/internal/handlers"
	"github.com/Jimix91/ticketflow/internal/middleware"
	"github.com/Jimix91/ticketflow/internal/models"
	"github.com/Jimix91/ticketflow/internal/repository/postgres"
	"github.com/Jimix91/ticketflow/internal/service"
)

func New(log zerolog.Logger, db *pgxpool.Pool, cfg config.Config) http.Handler {
	r := chi.NewRouter()

	r.Use(middleware.RequestLogger(log))
	r.Use(middleware.Recoverer(log))
	r.Use(cors.Handler(cors.Options{
		AllowedOrigins:   []string{cfg.Origin},
		AllowedMethods:   []string{"GET", "POST", "PUT", "PATCH", "DELETE", "OPTIONS"},
		AllowedHeaders:   []string{"Accept", "Authorization", "Content-Type"},
		AllowCredentials: true,
	}))
	r.Use(httprate.LimitByIP(200, time.Minute))
	r.Use(middleware.WithAuth(log, cfg))

	// Health
	r.Get("/healthz", handlers.Health())

	// Repos + handlers
	ticketRepo := postgres.NewTicketRepo(db)
	userRepo := postgres.NewUserRepo(db)
	authSvc := service.NewAuthService(userRepo, cfg.SessionSecret)

	ah := handlers.NewAuthHTTP(authSvc, userRepo)
	th := handlers.NewTicketHTTP(ticketRepo)
	uh := handlers.NewUserHTTP(userRepo)
	rh := handlers.NewReportsHTTP(ticketRepo)

	r.Route("/api", func(r chi.Router) {
		r.Route("/auth", func(r chi.Router) {
			r.Post("/register", ah.Register())
			r.Post("/login", ah.Login())
			r.Get("/me", ah.Me())
		})

		r.Route("/users", func(r chi.Router) {
			r.Use(middleware.RequireAuth)
			r.Get("/", uh.List())
			r.Patch("/me", uh.UpdateMe())
		})

		r.Route("/tickets", func(r chi.Router) {
			r.Use(middleware.RequireAuth)
			r.Get("/", th.List())
			r.Post("/", th.Create())
			r.Route("/{id}", func(r chi.Router) {
				r.Get("/", th.Get())
				r.Put("/", th.Update())
				r.Delete("/", th.Delete())
				r.Get("/comments", th.ListComments())
				r.Post("/comments", th.AddComment())
			})
		})

		r.Route("/reports", func(r chi.Router) {
			r.Use(middleware.RequireAuth)
			r.Use(middleware.RequireRoles(models.RoleAdmin))
			r.Get("/summary", rh.Summary())
		})
	})

	return r
}
