package policies

import (
	"net/http"

	"github.com/CLEPPathfinder/CP-Backend/internal/middleware"
	"github.com/go-chi/chi/v5"
)

// SetupRoutes mounts the policy administration endpoints behind session auth.
func SetupRoutes(h *Handler, fetcher middleware.SessionFetcher) http.Handler {
	r := chi.NewRouter()
	r.Use(middleware.SessionMiddleware(fetcher))

	r.Get("/policies", h.ListPoliciesHandler)
	r.Post("/policies", h.CreatePolicyHandler)
	r.Put("/policies/{id}", h.UpdatePolicyHandler)
	r.Delete("/policies/{id}", h.DeletePolicyHandler)

	return r
}
