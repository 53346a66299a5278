package middleware

import (
	"context"
	"net"
	"net/http"
	"strings"
	"sync"
	"time"

	"github.com/CLEPPathfinder/CP-Backend/internal/httputil"
	"github.com/CLEPPathfinder/CP-Backend/internal/utils"
	"golang.org/x/time/rate"
)

// SessionFetcher resolves a bearer token to the identity it belongs to.
// Fetchers report an expired session by returning ErrSessionExpired after
// discarding the stale row.
type SessionFetcher interface {
	FindSessionByToken(token string) (utils.SessionData, error)
}

// BearerToken extracts the token from an "Authorization: Bearer <token>"
// header. Headers in any other shape yield no token.
func BearerToken(r *http.Request) string {
	const prefix = "Bearer "
	header := r.Header.Get("Authorization")
	if !strings.HasPrefix(header, prefix) {
		return ""
	}
	return strings.TrimSpace(strings.TrimPrefix(header, prefix))
}

func SessionMiddleware(fetcher SessionFetcher) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			token := BearerToken(r)
			if token == "" {
				httputil.WriteError(w, http.StatusUnauthorized, "Session token required")
				return
			}

			session, err := fetcher.FindSessionByToken(token)
			if err != nil {
				msg := "Invalid session"
				if err == ErrSessionExpired {
					msg = "Session expired"
				}
				httputil.WriteError(w, http.StatusUnauthorized, msg)
				return
			}

			if session.ExpiresAt.Before(time.Now()) {
				httputil.WriteError(w, http.StatusUnauthorized, "Session expired")
				return
			}

			ctx := context.WithValue(r.Context(), utils.ContextUserIDKey, session.UserID)
			ctx = context.WithValue(ctx, utils.ContextUsernameKey, session.Username)
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}

// ErrSessionExpired signals the token matched a session whose expiry has passed.
var ErrSessionExpired = errSessionExpired{}

type errSessionExpired struct{}

func (errSessionExpired) Error() string { return "session expired" }

var allowed = map[string]struct{}{
	"http://localhost:3000": {},
	"http://localhost:3001": {},
}

func CORSMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		origin := r.Header.Get("Origin")

		// Echo the origin back only if it's on our allow-list
		if _, ok := allowed[origin]; ok {
			w.Header().Set("Access-Control-Allow-Origin", origin)
			w.Header().Set("Vary", "Origin") // important for caches
			w.Header().Set("Access-Control-Allow-Credentials", "true")
			w.Header().Set("Access-Control-Allow-Methods",
				"GET, POST, PUT, PATCH, DELETE, OPTIONS")
			w.Header().Set("Access-Control-Allow-Headers",
				"Content-Type, Authorization")
		}

		if r.Method == http.MethodOptions {
			w.WriteHeader(http.StatusNoContent)
			return
		}
		next.ServeHTTP(w, r)
	})
}

// RateLimiter hands out one token-bucket limiter per client IP. Used on the
// endpoints that create rows on behalf of anonymous callers (register, login,
// vote).
type RateLimiter struct {
	mu       sync.Mutex
	limiters map[string]*rate.Limiter
	rate     rate.Limit
	burst    int
}

func NewRateLimiter(r rate.Limit, burst int) *RateLimiter {
	return &RateLimiter{
		limiters: make(map[string]*rate.Limiter),
		rate:     r,
		burst:    burst,
	}
}

func (rl *RateLimiter) limiterFor(ip string) *rate.Limiter {
	rl.mu.Lock()
	defer rl.mu.Unlock()
	lim, ok := rl.limiters[ip]
	if !ok {
		lim = rate.NewLimiter(rl.rate, rl.burst)
		rl.limiters[ip] = lim
	}
	return lim
}

func (rl *RateLimiter) Middleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		ip := ClientIP(r)
		if !rl.limiterFor(ip).Allow() {
			httputil.WriteError(w, http.StatusTooManyRequests, "Too many requests")
			return
		}
		next.ServeHTTP(w, r)
	})
}

// ClientIP returns the caller's address, preferring X-Forwarded-For when a
// proxy tier sits in front of the backend.
func ClientIP(r *http.Request) string {
	if fwd := r.Header.Get("X-Forwarded-For"); fwd != "" {
		if i := strings.Index(fwd, ","); i >= 0 {
			return strings.TrimSpace(fwd[:i])
		}
		return strings.TrimSpace(fwd)
	}
	host, _, err := net.SplitHostPort(r.RemoteAddr)
	if err != nil {
		return r.RemoteAddr
	}
	return host
}
