package handlers

import (
	"context"
	"log"
	"net/http"
	"time"

	"codearena/internal/security"
	"codearena/internal/validation"
)

// ContextKey is a custom type for context keys to avoid collisions
type ContextKey string

const UserContextKey ContextKey = "user"

// Middleware holds dependencies for middleware functions
type Middleware struct {
	verifier *security.TokenVerifier
	limiter  *security.RateLimiter
}

// NewMiddleware creates a new middleware instance. A nil limiter disables rate limiting.
func NewMiddleware(verifier *security.TokenVerifier, limiter *security.RateLimiter) *Middleware {
	return &Middleware{
		verifier: verifier,
		limiter:  limiter,
	}
}

// RequireUser resolves the calling user and rejects anonymous requests
func (m *Middleware) RequireUser(next http.HandlerFunc) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		userID, err := m.verifier.Identify(r)
		if err != nil {
			respondWithError(w, http.StatusUnauthorized, ErrUnauthorized, "", nil)
			return
		}
		if err := validation.ValidateUserID(userID); err != nil {
			respondWithServiceError(w, "", err)
			return
		}

		ctx := context.WithValue(r.Context(), UserContextKey, userID)
		next(w, r.WithContext(ctx))
	}
}

// RateLimit limits requests per user, or per client IP before a user is known
func (m *Middleware) RateLimit(next http.HandlerFunc) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if m.limiter == nil {
			next(w, r)
			return
		}

		key := GetUserIDFromContext(r.Context())
		if key == "" {
			key = "ip:" + security.GetClientIP(r)
		}
		if !m.limiter.Allow(key) {
			w.Header().Set("Retry-After", "60")
			respondWithError(w, http.StatusTooManyRequests, ErrTooManyRequests, "", nil)
			return
		}
		next(w, r)
	}
}

// Logging middleware logs HTTP requests
func Logging(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()

		// Call next handler
		next.ServeHTTP(w, r)

		// Log request
		log.Printf("%s %s %s", r.Method, r.URL.Path, time.Since(start))
	})
}

// GetUserIDFromContext retrieves the calling user id from the request context
func GetUserIDFromContext(ctx context.Context) string {
	userID, _ := ctx.Value(UserContextKey).(string)
	return userID
}
