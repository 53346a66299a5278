package proxy

import (
	"bytes"
	"encoding/json"
	"io"
	"log"
	"net/http"
	"time"

	"github.com/CLEPPathfinder/CP-Backend/internal/httputil"
	"github.com/CLEPPathfinder/CP-Backend/internal/middleware"
	"github.com/go-chi/chi/v5"
)

// sessionCookieName is the httpOnly cookie the browser tier uses in place of
// the raw bearer token.
const sessionCookieName = "session_token"

// cookieMaxAge matches the backend's session lifetime.
const cookieMaxAge = 24 * 60 * 60

// Handler is the browser-facing tier. It forwards requests to the backend,
// translating the session cookie into an Authorization bearer header so the
// token never reaches browser scripts.
type Handler struct {
	Backend string
	Client  *http.Client
}

func NewHandler(backend string) *Handler {
	return &Handler{
		Backend: backend,
		Client:  &http.Client{Timeout: 10 * time.Second},
	}
}

// SetupRoutes mounts the browser-facing API surface.
func SetupRoutes(h *Handler) http.Handler {
	r := chi.NewRouter()

	r.Post("/api/auth/register", h.registerHandler)
	r.Post("/api/auth/login", h.loginHandler)
	r.Post("/api/auth/logout", h.logoutHandler)
	r.Get("/api/auth/session", h.sessionHandler)

	r.Get("/api/schools", h.forwardHandler("/api/schools"))
	r.Get("/api/schools/search", h.forwardHandler("/api/schools/search"))
	r.Get("/api/schools/{id}", h.forwardSchoolHandler)
	r.Post("/api/schools/{id}/vote", h.voteHandler)
	r.Get("/api/clep-exams", h.forwardHandler("/api/clep-exams"))

	r.Get("/api/admin/policies", h.adminHandler("/api/admin/policies"))
	r.Post("/api/admin/policies", h.adminHandler("/api/admin/policies"))
	r.Put("/api/admin/policies/{id}", h.adminPolicyByIDHandler)
	r.Delete("/api/admin/policies/{id}", h.adminPolicyByIDHandler)

	return r
}

func setSessionCookie(w http.ResponseWriter, token string) {
	http.SetCookie(w, &http.Cookie{
		Name:     sessionCookieName,
		Value:    token,
		Path:     "/",
		MaxAge:   cookieMaxAge,
		HttpOnly: true,
		SameSite: http.SameSiteLaxMode,
	})
}

func clearSessionCookie(w http.ResponseWriter) {
	http.SetCookie(w, &http.Cookie{
		Name:     sessionCookieName,
		Value:    "",
		Path:     "/",
		MaxAge:   -1,
		HttpOnly: true,
		SameSite: http.SameSiteLaxMode,
	})
}

func (h *Handler) sessionToken(r *http.Request) string {
	cookie, err := r.Cookie(sessionCookieName)
	if err != nil {
		return ""
	}
	return cookie.Value
}

// forward relays a request to the backend. A non-empty bearer is attached as
// the Authorization header.
func (h *Handler) forward(r *http.Request, method, path string, body io.Reader, bearer string) (*http.Response, error) {
	url := h.Backend + path
	if r.URL.RawQuery != "" {
		url += "?" + r.URL.RawQuery
	}

	req, err := http.NewRequestWithContext(r.Context(), method, url, body)
	if err != nil {
		return nil, err
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("X-Forwarded-For", middleware.ClientIP(r))
	if bearer != "" {
		req.Header.Set("Authorization", "Bearer "+bearer)
	}
	return h.Client.Do(req)
}

// relay copies the backend's status and JSON body straight through.
func relay(w http.ResponseWriter, resp *http.Response) {
	defer resp.Body.Close()
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(resp.StatusCode)
	_, _ = io.Copy(w, resp.Body)
}

// authResult is the slice of the backend's register/login response the proxy
// inspects before swallowing the raw token into a cookie.
type authResult struct {
	Message      string          `json:"message"`
	SessionToken string          `json:"sessionToken"`
	User         json.RawMessage `json:"user"`
	School       json.RawMessage `json:"school,omitempty"`
}

func (h *Handler) registerHandler(w http.ResponseWriter, r *http.Request) {
	h.authForward(w, r, "/api/register")
}

func (h *Handler) loginHandler(w http.ResponseWriter, r *http.Request) {
	h.authForward(w, r, "/api/login")
}

func (h *Handler) authForward(w http.ResponseWriter, r *http.Request, path string) {
	resp, err := h.forward(r, http.MethodPost, path, r.Body, "")
	if err != nil {
		log.Printf("[proxy] backend error: %v", err)
		httputil.WriteError(w, http.StatusBadGateway, "Backend unavailable")
		return
	}

	if resp.StatusCode >= 400 {
		relay(w, resp)
		return
	}
	defer resp.Body.Close()

	var result authResult
	if err := json.NewDecoder(resp.Body).Decode(&result); err != nil || result.SessionToken == "" {
		log.Printf("[proxy] unexpected auth response: %v", err)
		httputil.WriteError(w, http.StatusBadGateway, "Backend unavailable")
		return
	}

	setSessionCookie(w, result.SessionToken)

	out := map[string]any{"message": result.Message, "user": result.User}
	if len(result.School) > 0 {
		out["school"] = result.School
	}
	httputil.WriteJSON(w, resp.StatusCode, out)
}

func (h *Handler) logoutHandler(w http.ResponseWriter, r *http.Request) {
	if token := h.sessionToken(r); token != "" {
		resp, err := h.forward(r, http.MethodPost, "/api/logout", nil, token)
		if err != nil {
			log.Printf("[proxy] logout forward error: %v", err)
		} else {
			resp.Body.Close()
		}
	}

	// Idempotent from the browser's point of view regardless of backend state.
	clearSessionCookie(w)
	httputil.WriteJSON(w, http.StatusOK, map[string]string{"message": "Logout successful"})
}

func (h *Handler) sessionHandler(w http.ResponseWriter, r *http.Request) {
	token := h.sessionToken(r)
	if token == "" {
		httputil.WriteJSON(w, http.StatusUnauthorized, map[string]any{"authenticated": false})
		return
	}

	resp, err := h.forward(r, http.MethodGet, "/api/profile", nil, token)
	if err != nil {
		log.Printf("[proxy] session forward error: %v", err)
		httputil.WriteJSON(w, http.StatusInternalServerError, map[string]any{"authenticated": false})
		return
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		clearSessionCookie(w)
		httputil.WriteJSON(w, http.StatusUnauthorized, map[string]any{"authenticated": false})
		return
	}

	var profile struct {
		User json.RawMessage `json:"user"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&profile); err != nil {
		httputil.WriteJSON(w, http.StatusInternalServerError, map[string]any{"authenticated": false})
		return
	}

	httputil.WriteJSON(w, http.StatusOK, map[string]any{
		"authenticated": true,
		"user":          profile.User,
	})
}

// forwardHandler is a transparent GET passthrough for public directory paths.
func (h *Handler) forwardHandler(path string) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		resp, err := h.forward(r, http.MethodGet, path, nil, "")
		if err != nil {
			log.Printf("[proxy] backend error: %v", err)
			httputil.WriteError(w, http.StatusBadGateway, "Backend unavailable")
			return
		}
		relay(w, resp)
	}
}

func (h *Handler) forwardSchoolHandler(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	resp, err := h.forward(r, http.MethodGet, "/api/schools/"+id, nil, "")
	if err != nil {
		log.Printf("[proxy] backend error: %v", err)
		httputil.WriteError(w, http.StatusBadGateway, "Backend unavailable")
		return
	}
	relay(w, resp)
}

// voteHandler validates the vote and injects the caller's address, which the
// browser has no business supplying itself.
func (h *Handler) voteHandler(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")

	var req struct {
		VoteType     string `json:"voteType"`
		PreviousVote string `json:"previousVote"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		httputil.WriteError(w, http.StatusBadRequest, "Invalid request body")
		return
	}
	if req.VoteType != "upvote" && req.VoteType != "downvote" {
		httputil.WriteError(w, http.StatusBadRequest, "Invalid vote type. Must be 'upvote' or 'downvote'")
		return
	}

	payload, _ := json.Marshal(map[string]string{
		"voteType":     req.VoteType,
		"previousVote": req.PreviousVote,
		"userIp":       middleware.ClientIP(r),
	})

	resp, err := h.forward(r, http.MethodPost, "/api/schools/"+id+"/vote", bytes.NewReader(payload), "")
	if err != nil {
		log.Printf("[proxy] backend error: %v", err)
		httputil.WriteError(w, http.StatusBadGateway, "Backend unavailable")
		return
	}
	relay(w, resp)
}

func (h *Handler) adminHandler(path string) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		h.adminForward(w, r, path)
	}
}

func (h *Handler) adminPolicyByIDHandler(w http.ResponseWriter, r *http.Request) {
	h.adminForward(w, r, "/api/admin/policies/"+chi.URLParam(r, "id"))
}

func (h *Handler) adminForward(w http.ResponseWriter, r *http.Request, path string) {
	token := h.sessionToken(r)
	if token == "" {
		httputil.WriteError(w, http.StatusUnauthorized, "Unauthorized")
		return
	}

	resp, err := h.forward(r, r.Method, path, r.Body, token)
	if err != nil {
		log.Printf("[proxy] backend error: %v", err)
		httputil.WriteError(w, http.StatusBadGateway, "Backend unavailable")
		return
	}
	relay(w, resp)
}
