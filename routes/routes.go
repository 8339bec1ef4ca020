package routes

import (
	"net/http"
	"time"

	"github.com/Dosada05/live-scoring/handlers"
	"github.com/Dosada05/live-scoring/middleware"
	"github.com/Dosada05/live-scoring/models"
	"github.com/go-chi/chi/v5"
	chiMiddleware "github.com/go-chi/chi/v5/middleware" // Alias to avoid conflict
	"github.com/go-chi/cors"
)

func SetupRoutes(
	router *chi.Mux,
	verifier *middleware.TokenVerifier,
	allowedOrigins []string,
	matchHandler *handlers.MatchHandler,
	leaderboardHandler *handlers.LeaderboardHandler,
	performanceHandler *handlers.PerformanceHandler,
	webSocketHandler *handlers.WebSocketHandler,
	healthHandler *handlers.HealthHandler,
) {
	if len(allowedOrigins) == 0 {
		allowedOrigins = []string{"*"}
	}

	router.Use(chiMiddleware.RequestID)
	router.Use(chiMiddleware.RealIP)
	router.Use(chiMiddleware.Logger)
	router.Use(chiMiddleware.Recoverer)
	router.Use(cors.Handler(cors.Options{
		AllowedOrigins:   allowedOrigins,
		AllowedMethods:   []string{"GET", "POST", "PUT", "OPTIONS"},
		AllowedHeaders:   []string{"Accept", "Authorization", "Content-Type"},
		ExposedHeaders:   []string{"Link"},
		AllowCredentials: false,
		MaxAge:           300,
	}))

	router.Get("/health", healthHandler.HealthHandler)

	// websocket проверяет токен сам: браузер передаёт его в query
	router.Get("/ws", webSocketHandler.ServeWs)

	router.Route("/leaderboard", func(r chi.Router) {
		r.Use(chiMiddleware.Timeout(15 * time.Second))
		r.Get("/", leaderboardHandler.GetHandler)
		r.Get("/all", leaderboardHandler.AllHandler)
	})

	router.Group(func(r chi.Router) {
		r.Use(chiMiddleware.Timeout(15 * time.Second))
		r.Get("/players/{playerID}/performance", performanceHandler.PlayerHandler)
		r.Get("/teams/{teamID}/performance", performanceHandler.TeamHandler)
	})

	router.Route("/matches", func(r chi.Router) {
		r.Use(chiMiddleware.Timeout(15 * time.Second))

		// Публичные маршруты просмотра
		r.Get("/{sport}", matchHandler.ListHandler)
		r.Get("/{sport}/{matchID}", matchHandler.GetHandler)

		r.Group(func(r chi.Router) {
			r.Use(verifier.Authenticate)

			r.Post("/{sport}/{matchID}/events", matchHandler.SubmitEventHandler)

			r.With(middleware.Authorize(models.RoleAdmin, models.RoleOrganizer)).
				Post("/", matchHandler.CreateHandler)
			r.With(middleware.Authorize(models.RoleAdmin, models.RoleOrganizer)).
				Put("/{sport}/{matchID}/scorers", matchHandler.SetScorersHandler)
			r.With(middleware.Authorize(models.RoleAdmin)).
				Post("/{sport}/{matchID}/cancel", matchHandler.CancelHandler)
		})
	})

	router.NotFound(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusNotFound)
		_, _ = w.Write([]byte(`{"error":"the requested resource could not be found"}` + "\n"))
	})
}
