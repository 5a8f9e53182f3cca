package api

import (
	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"github.com/taskhive/taskhive-be/internal/api/handlers"
	"github.com/taskhive/taskhive-be/internal/auth"
	"github.com/taskhive/taskhive-be/internal/models"
	"github.com/taskhive/taskhive-be/internal/services"
)

// NewRouter creates and configures a new Chi router.
func NewRouter(issuer *auth.TokenIssuer, userService services.UserServiceProvider, taskService services.TaskServiceProvider) *chi.Mux {
	r := chi.NewRouter()

	// Basic middleware stack
	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(middleware.Logger)
	r.Use(middleware.Recoverer)

	// CORS configuration for development
	r.Use(cors.Handler(cors.Options{
		AllowedOrigins:   []string{"http://localhost:3000"}, // Adjust for your frontend URL
		AllowedMethods:   []string{"GET", "POST", "PUT", "PATCH", "DELETE", "OPTIONS"},
		AllowedHeaders:   []string{"Accept", "Authorization", "Content-Type"},
		AllowCredentials: true,
		MaxAge:           300,
	}))

	// Initialize handlers
	userHandler := handlers.NewUserHandler(userService, issuer)
	taskHandler := handlers.NewTaskHandler(taskService)

	authenticated := issuer.Middleware()
	adminOnly := auth.RequireRole(models.RoleAdmin)

	// API versioning
	r.Route("/api/v1", func(r chi.Router) {
		r.Route("/users", func(r chi.Router) {
			r.Post("/register", userHandler.Register)
			r.Post("/login", userHandler.Login)

			r.Group(func(r chi.Router) {
				r.Use(authenticated)
				r.Get("/me", userHandler.GetMe)
				r.Put("/me", userHandler.UpdateMe)
				r.Delete("/me", userHandler.DeleteMe)
			})

			r.Route("/admin", func(r chi.Router) {
				r.Use(authenticated, adminOnly)
				r.Get("/all", userHandler.List)
				r.Get("/{id}", userHandler.Get)
				r.Patch("/{id}/role", userHandler.SetRole)
				r.Delete("/{id}", userHandler.Delete)
			})
		})

		r.Route("/tasks", func(r chi.Router) {
			r.Route("/admin", func(r chi.Router) {
				r.Use(authenticated, adminOnly)
				r.Get("/all", taskHandler.ListAll)
				r.Delete("/{id}", taskHandler.DeleteAny)
			})

			r.Group(func(r chi.Router) {
				r.Use(authenticated)
				r.Get("/", taskHandler.List)
				r.Post("/", taskHandler.Create)
				r.Get("/{id}", taskHandler.Get)
				r.Put("/{id}", taskHandler.Update)
				r.Delete("/{id}", taskHandler.Delete)
			})
		})
	})

	return r
}
