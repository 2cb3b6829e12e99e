package http

import (
	"log"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	httpSwagger "github.com/swaggo/http-swagger"

	"github.com/chatline/chatline/internal/auth"
	"github.com/chatline/chatline/internal/config"
	"github.com/chatline/chatline/internal/httputil"
	"github.com/chatline/chatline/internal/logging"
	"github.com/chatline/chatline/internal/message"
	"github.com/chatline/chatline/internal/ratelimit"
	"github.com/chatline/chatline/internal/storage"
)

// Per-window request budgets for the fixed 15-minute window.
const (
	authRequestBudget   = 20
	forgotRequestBudget = 2
)

// NewRouter creates and configures the HTTP router
func NewRouter(
	cfg *config.Config,
	authHandler *auth.Handler,
	authMiddleware *auth.Middleware,
	messageHandler *message.Handler,
	storageHandler *storage.Handler,
	rateLimiter *ratelimit.Limiter,
	logger *logging.Logger,
) *chi.Mux {
	r := chi.NewRouter()

	// CORS - must be first
	if len(cfg.Server.TrustedOrigins) > 0 {
		r.Use(cors.Handler(cors.Options{
			AllowedOrigins:   cfg.Server.TrustedOrigins,
			AllowedMethods:   []string{"GET", "POST", "PUT", "PATCH", "DELETE", "OPTIONS"},
			AllowedHeaders:   []string{"Accept", "Authorization", "Content-Type"},
			ExposedHeaders:   []string{"Content-Length"},
			AllowCredentials: true,
			MaxAge:           300, // 5 minutes
		}))
	}

	// Global middleware
	r.Use(SecurityHeaders)               // Security headers on all responses
	r.Use(middleware.Recoverer)          // Recover from panics
	r.Use(middleware.RequestID)          // Add request ID
	r.Use(middleware.RealIP)             // Set RemoteAddr to real IP
	r.Use(logging.RequestLogger(logger)) // Structured logging with request context
	r.Use(middleware.Compress(5))        // Compress responses

	// Public routes
	r.Get("/health", handleHealth)

	// Swagger UI - only in development
	// Production builds will not have this route at all
	if cfg.Server.IsDevelopment() {
		log.Println("Swagger UI enabled at /swagger/*")
		r.Get("/swagger/*", httpSwagger.WrapHandler)
	}

	// Session lifecycle (public). The rate limiter may reject these
	// before the handlers run.
	r.Group(func(r chi.Router) {
		r.Use(rateLimiter.Middleware("auth", authRequestBudget))
		r.Post("/signup", authHandler.Signup)
		r.Post("/login", authHandler.Login)
	})
	r.Group(func(r chi.Router) {
		r.Use(rateLimiter.Middleware("forgot_password", forgotRequestBudget))
		r.Post("/forgot-password", authHandler.ForgotPassword)
	})
	r.Post("/reset-password/{token}", authHandler.ResetPassword)
	r.Post("/logout", authHandler.Logout)

	// Protected routes (require authentication)
	r.Group(func(r chi.Router) {
		r.Use(authMiddleware.RequireAuth)
		r.Get("/check", authHandler.Check)
		r.Put("/update-profile", authHandler.UpdateProfile)
		r.Get("/users", messageHandler.ListUsers)
		r.Get("/messages/{userID}", messageHandler.GetConversation)
		r.Post("/messages", messageHandler.SendMessage)
		r.Post("/uploads/profile-picture", storageHandler.ProfilePictureUploadURL)
	})

	return r
}

// handleHealth is a simple health check endpoint
// @Summary      Health check
// @Description  Check if the API is running
// @Tags         health
// @Produce      json
// @Success      200 {object} map[string]string
// @Router       /health [get]
func handleHealth(w http.ResponseWriter, r *http.Request) {
	httputil.RespondJSON(w, map[string]string{"status": "api is running"}, http.StatusOK)
}
