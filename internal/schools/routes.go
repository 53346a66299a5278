package schools

import (
	"github.com/CLEPPathfinder/CP-Backend/internal/middleware"
	"github.com/go-chi/chi/v5"
	"golang.org/x/time/rate"
)

// SetupRoutes attaches the public directory endpoints to r. Voting is the
// only write path, so it alone carries a per-IP rate limiter.
func SetupRoutes(r chi.Router, h *Handler) {
	limiter := middleware.NewRateLimiter(rate.Limit(1), 10)

	r.Get("/schools", h.ListSchoolsHandler)
	r.Get("/schools/search", h.SearchSchoolsHandler)
	r.Get("/schools/{id}", h.GetSchoolHandler)
	r.With(limiter.Middleware).Post("/schools/{id}/vote", h.VoteHandler)
	r.Get("/clep-exams", h.ListExamsHandler)
}
