package handlers

import (
	"context"
	"net/http"
	"time"

	"github.com/rs/zerolog/log"

	"cybercafe/internal/metrics"
	"cybercafe/internal/models"
	"cybercafe/internal/security"
	"cybercafe/internal/service"
)

// ContextKey is a custom type for context keys to avoid collisions
type ContextKey string

const (
	OperatorContextKey  ContextKey = "operator"
	SessionIDContextKey ContextKey = "session_id"
)

// Middleware holds dependencies for middleware functions
type Middleware struct {
	authService *service.AuthService
	csrf        *security.CSRF
	limiter     *security.RateLimiter
	proxies     security.TrustedProxies
	metrics     *metrics.Metrics
}

// NewMiddleware creates a new middleware instance
func NewMiddleware(
	authService *service.AuthService,
	csrf *security.CSRF,
	limiter *security.RateLimiter,
	proxies security.TrustedProxies,
	m *metrics.Metrics,
) *Middleware {
	return &Middleware{
		authService: authService,
		csrf:        csrf,
		limiter:     limiter,
		proxies:     proxies,
		metrics:     m,
	}
}

// RequireAuth is middleware that requires a valid operator session
func (m *Middleware) RequireAuth(next http.HandlerFunc) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		cookie, err := r.Cookie(security.SessionCookieName)
		if err != nil {
			http.Redirect(w, r, "/login", http.StatusSeeOther)
			return
		}

		operator, err := m.authService.ValidateSession(r.Context(), cookie.Value)
		if err != nil {
			http.SetCookie(w, security.ClearSessionCookie(r))
			http.Redirect(w, r, "/login", http.StatusSeeOther)
			return
		}

		ctx := context.WithValue(r.Context(), OperatorContextKey, operator)
		ctx = context.WithValue(ctx, SessionIDContextKey, cookie.Value)
		next(w, r.WithContext(ctx))
	}
}

// CSRFProtect rejects state-changing requests without a token bound to the
// operator session. It must run inside RequireAuth.
func (m *Middleware) CSRFProtect(next http.HandlerFunc) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		sessionID := GetSessionIDFromContext(r.Context())
		if !m.csrf.Valid(sessionID, security.RequestToken(r)) {
			log.Warn().Str("path", r.URL.Path).Msg("rejected request with invalid CSRF token")
			respondWithError(w, http.StatusForbidden, ErrInvalidCSRFToken, "", nil)
			return
		}
		next(w, r)
	}
}

// RateLimit limits attempts per client IP. Forwarding headers count only
// when the request arrives through a trusted proxy.
func (m *Middleware) RateLimit(next http.HandlerFunc) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ip := m.proxies.ClientIP(r)
		if !m.limiter.Allow(ip) {
			m.metrics.Login("limited")
			log.Warn().Str("ip", ip).Msg("login rate limit exceeded")
			respondWithError(w, http.StatusTooManyRequests, ErrTooManyAttempts, "", nil)
			return
		}
		next(w, r)
	}
}

type statusRecorder struct {
	http.ResponseWriter
	status int
}

func (sr *statusRecorder) WriteHeader(code int) {
	sr.status = code
	sr.ResponseWriter.WriteHeader(code)
}

// Logging middleware logs HTTP requests
func Logging(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		recorder := &statusRecorder{ResponseWriter: w, status: http.StatusOK}
		start := time.Now()

		next.ServeHTTP(recorder, r)

		log.Info().
			Str("method", r.Method).
			Str("path", r.URL.Path).
			Int("status", recorder.status).
			Dur("duration", time.Since(start)).
			Msg("request")
	})
}

// GetOperatorFromContext retrieves the signed-in operator from the request context
func GetOperatorFromContext(ctx context.Context) *models.Operator {
	operator, ok := ctx.Value(OperatorContextKey).(*models.Operator)
	if !ok {
		return nil
	}
	return operator
}

// GetSessionIDFromContext retrieves the operator session ID from the request context
func GetSessionIDFromContext(ctx context.Context) string {
	id, _ := ctx.Value(SessionIDContextKey).(string)
	return id
}
