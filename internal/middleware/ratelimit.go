package middleware

import (
	"log/slog"
	"math"
	"net"
	"net/http"
	"strconv"
	"strings"

	"github.com/DukeRupert/certum/internal/domain"
	"github.com/DukeRupert/certum/internal/handler"
	"github.com/DukeRupert/certum/internal/metrics"
	"github.com/DukeRupert/certum/internal/ratelimit"
)

// =============================================================================
// Rate Limit Middleware
// =============================================================================

// RateLimitMiddleware throttles requests per client IP using a token bucket.
// It guards the public webhook endpoints; per-user action limits live in the
// services.
type RateLimitMiddleware struct {
	limiter ratelimit.Limiter
	name    string
	logger  *slog.Logger
}

// NewRateLimitMiddleware creates a new rate limit middleware. name labels
// the metrics and logs.
func NewRateLimitMiddleware(limiter ratelimit.Limiter, name string, logger *slog.Logger) *RateLimitMiddleware {
	return &RateLimitMiddleware{
		limiter: limiter,
		name:    name,
		logger:  logger,
	}
}

// Limit returns middleware that rate limits requests.
//
// A limiter failure lets the request through: webhook senders retry, and
// dropping their deliveries would lose billing and user updates.
func (m *RateLimitMiddleware) Limit(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		clientIP := getClientIP(r)

		decision, err := m.limiter.Protect(r.Context(), clientIP, 1)
		if err != nil {
			metrics.RateLimited(m.name, "error")
			m.logger.Error("rate limiter failed", "ip", clientIP, "path", r.URL.Path, "error", err)
			next.ServeHTTP(w, r)
			return
		}

		if decision.IsDenied() {
			metrics.RateLimited(m.name, "denied")
			m.logger.Warn("rate limit exceeded",
				"ip", clientIP,
				"path", r.URL.Path,
				"method", r.Method,
			)

			retryAfter := int(math.Ceil(decision.RetryAfter.Seconds()))
			if retryAfter < 1 {
				retryAfter = 1
			}
			w.Header().Set("Retry-After", strconv.Itoa(retryAfter))
			handler.ErrorResponse(w, r, m.logger, domain.RateLimit(""))
			return
		}

		metrics.RateLimited(m.name, "allowed")
		next.ServeHTTP(w, r)
	})
}

// =============================================================================
// Helpers
// =============================================================================

// getClientIP extracts the client IP from the request, considering proxy headers.
func getClientIP(r *http.Request) string {
	// X-Forwarded-For can contain multiple IPs: client, proxy1, proxy2
	if xff := r.Header.Get("X-Forwarded-For"); xff != "" {
		ips := strings.Split(xff, ",")
		if clientIP := strings.TrimSpace(ips[0]); clientIP != "" {
			return clientIP
		}
	}

	// nginx
	if xri := r.Header.Get("X-Real-IP"); xri != "" {
		return strings.TrimSpace(xri)
	}

	ip, _, err := net.SplitHostPort(r.RemoteAddr)
	if err != nil {
		// RemoteAddr might not have a port
		return r.RemoteAddr
	}
	return ip
}
