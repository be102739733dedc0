package api

import (
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	chimw "github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"

	"github.com/mediexplain/backend/internal/api/handlers"
	"github.com/mediexplain/backend/internal/api/middleware"
	"github.com/mediexplain/backend/internal/auth"
	"github.com/mediexplain/backend/internal/db"
	"github.com/mediexplain/backend/internal/pipeline"
	"github.com/mediexplain/backend/internal/storage"
)

func NewRouter(database *db.Database, jwtService *auth.JWTService, pl *pipeline.Service, audioStore *storage.AudioStore, corsOrigins []string) *chi.Mux {
	r := chi.NewRouter()

	// Global middleware
	r.Use(chimw.Recoverer)
	r.Use(chimw.RealIP)
	r.Use(middleware.Logger)
	r.Use(cors.Handler(middleware.CORSHandler(corsOrigins)))

	// Handlers
	authHandler := handlers.NewAuthHandler(database, jwtService)
	convertHandler := handlers.NewConvertHandler(database, pl, audioStore)
	historyHandler := handlers.NewHistoryHandler(database)
	settingsHandler := handlers.NewSettingsHandler(database)

	loginLimiter := middleware.NewRateLimiter(10, time.Minute)

	r.Route("/api", func(r chi.Router) {
		r.Get("/health", func(w http.ResponseWriter, _ *http.Request) {
			w.Header().Set("Content-Type", "application/json")
			w.Write([]byte(`{"status":"ok"}`))
		})

		// Auth (public, rate-limited, small bodies only)
		r.Group(func(r chi.Router) {
			r.Use(loginLimiter.Handler)
			r.Use(middleware.MaxBodySize(4 << 10))
			r.Post("/auth/login", authHandler.Login)
			r.Post("/auth/signup", authHandler.Signup)
		})

		// Protected routes
		r.Group(func(r chi.Router) {
			r.Use(middleware.AuthMiddleware(jwtService))

			// Session
			r.Get("/auth/me", authHandler.Me)
			r.Post("/auth/logout", authHandler.Logout)
			r.With(middleware.MaxBodySize(4 << 10)).Put("/auth/password", authHandler.ChangePassword)

			// Conversion
			r.Post("/convert", convertHandler.Convert)
			r.Get("/convert/audio/{id}", convertHandler.GetAudio)

			// History
			r.Get("/history", historyHandler.ListHistory)
			r.Get("/languages", historyHandler.Languages)

			// Settings (admin only)
			r.Group(func(r chi.Router) {
				r.Use(middleware.RequireRole("admin"))
				r.Get("/settings", settingsHandler.GetSettings)
				r.With(middleware.MaxBodySize(64 << 10)).Put("/settings", settingsHandler.UpdateSettings)
			})
		})
	})

	return r
}
