package routes

import (
	"net/http"

	"github.com/Dosada05/basketball-olympics/handlers"
	"github.com/Dosada05/basketball-olympics/middleware"
	"github.com/go-chi/chi/v5"
	chiMiddleware "github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
)

// SetupRoutes mounts the simulation API on router. With an empty jwtSecret
// every endpoint is public; otherwise starting, batching and deleting runs
// require a bearer token.
func SetupRoutes(
	router chi.Router,
	simulationHandler *handlers.SimulationHandler,
	webSocketHandler *handlers.WebSocketHandler,
	jwtSecret string,
) {
	router.Use(chiMiddleware.RequestID)
	router.Use(chiMiddleware.Logger)
	router.Use(chiMiddleware.Recoverer)
	router.Use(cors.Handler(cors.Options{
		AllowedOrigins:   []string{"https://*", "http://*"},
		AllowedMethods:   []string{"GET", "POST", "DELETE", "OPTIONS"},
		AllowedHeaders:   []string{"Accept", "Authorization", "Content-Type"},
		ExposedHeaders:   []string{"Location"},
		AllowCredentials: false,
		MaxAge:           300,
	}))

	protect := func(roles ...string) func(http.Handler) http.Handler {
		if jwtSecret == "" {
			return func(next http.Handler) http.Handler { return next }
		}
		authenticate := middleware.Authenticate([]byte(jwtSecret))
		if len(roles) == 0 {
			return authenticate
		}
		authorize := middleware.Authorize(roles...)
		return func(next http.Handler) http.Handler {
			return authenticate(authorize(next))
		}
	}

	router.Get("/health", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
	})

	router.Route("/simulations", func(r chi.Router) {
		r.With(protect()).Post("/", simulationHandler.StartHandler)
		r.With(protect(middleware.RoleOperator)).Post("/batch", simulationHandler.BatchHandler)

		r.Route("/{runID}", func(r chi.Router) {
			r.Get("/", simulationHandler.GetHandler)
			r.Get("/games", simulationHandler.GamesHandler)
			r.With(protect(middleware.RoleOperator)).Delete("/", simulationHandler.DeleteHandler)
		})
	})

	router.Get("/archive/medals", simulationHandler.ArchivedMedalsHandler)

	router.Get("/ws/simulations/{runID}", webSocketHandler.ServeWs)
}
