package handler

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"go.uber.org/zap"

	"github.com/BuzzLyutic/task-sync/internal/repo"
	"github.com/BuzzLyutic/task-sync/internal/service"
	"github.com/BuzzLyutic/task-sync/pkg/respond"
)

type RouterConfig struct {
	AllowedOrigins []string
	SecureCookie   bool
	// RequestLog enables chi's access log middleware.
	RequestLog bool
}

// NewRouter wires the item store API.
func NewRouter(store repo.Repository, tasks *service.TaskService, auth *service.AuthService, logger *zap.Logger, cfg RouterConfig) http.Handler {
	taskHandler := NewTaskHandler(tasks, logger)
	authHandler := NewAuthHandler(auth, logger, cfg.SecureCookie)

	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	if cfg.RequestLog {
		r.Use(middleware.Logger)
	}
	r.Use(middleware.Recoverer)
	if len(cfg.AllowedOrigins) > 0 {
		r.Use(cors.Handler(cors.Options{
			AllowedOrigins:   cfg.AllowedOrigins,
			AllowedMethods:   []string{http.MethodGet, http.MethodPost, http.MethodPut, http.MethodDelete, http.MethodOptions},
			AllowedHeaders:   []string{"Content-Type", "Idempotency-Key"},
			ExposedHeaders:   []string{"Set-Cookie"},
			AllowCredentials: true,
		}))
	}

	r.Get("/health", func(w http.ResponseWriter, r *http.Request) {
		if err := store.Ping(r.Context()); err != nil {
			respond.Error(w, r, http.StatusServiceUnavailable, "database unavailable")
			return
		}
		respond.JSON(w, r, http.StatusOK, map[string]string{"status": "ok"})
	})

	r.Route("/api", func(r chi.Router) {
		r.Post("/register", authHandler.Register)
		r.Post("/login", authHandler.Login)
		r.Post("/logout", authHandler.Logout)

		r.Group(func(r chi.Router) {
			r.Use(authHandler.RequireSession)
			r.Get("/items", taskHandler.List)
			r.Post("/add", taskHandler.Add)
			r.Put("/update", taskHandler.Update)
			r.Put("/mark", taskHandler.Mark)
			r.Delete("/delete", taskHandler.Delete)
			r.Get("/upcoming-tasks", taskHandler.Upcoming)
		})
	})

	return r
}
