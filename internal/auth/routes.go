package auth

import (
	"github.com/CLEPPathfinder/CP-Backend/internal/middleware"
	"github.com/go-chi/chi/v5"
	"golang.org/x/time/rate"
)

// SetupRoutes attaches the auth endpoints to r. Register and login sit behind
// a per-IP rate limiter; logout and profile require a valid bearer token.
func SetupRoutes(r chi.Router, h *Handler) {
	sessionFetcher := SessionInfo{DB: h.DB}
	limiter := middleware.NewRateLimiter(rate.Limit(1), 10)

	r.With(limiter.Middleware).Post("/register", h.RegisterHandler)
	r.With(limiter.Middleware).Post("/login", h.LoginHandler)
	r.Post("/cleanup-sessions", h.CleanupSessionsHandler)

	r.Group(func(r chi.Router) {
		r.Use(middleware.SessionMiddleware(sessionFetcher))
		r.Post("/logout", h.LogoutHandler)
		r.Get("/profile", h.ProfileHandler)
	})
}
