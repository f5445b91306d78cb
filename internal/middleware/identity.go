// Package middleware contains HTTP middleware for the certum API.
//
// Middleware functions follow the standard Go pattern of wrapping http.Handler.
// They are designed to be composed using a middleware stack approach.
package middleware

import (
	"log/slog"
	"net/http"
	"strings"

	"github.com/DukeRupert/certum/internal/auth"
	"github.com/DukeRupert/certum/internal/handler"
)

// DefaultIdentityHeader carries the caller's user id when no header is
// configured.
const DefaultIdentityHeader = "X-User-Id"

// maxUserIDLength bounds the identity header value.
const maxUserIDLength = 255

// =============================================================================
// Identity Middleware
// =============================================================================

// IdentityMiddleware reads the authenticated user id from a header set by the
// auth gateway in front of this service. The gateway is trusted; this service
// never sees credentials.
type IdentityMiddleware struct {
	header string
	logger *slog.Logger
}

// NewIdentityMiddleware creates a new IdentityMiddleware. An empty header
// falls back to DefaultIdentityHeader.
func NewIdentityMiddleware(header string, logger *slog.Logger) *IdentityMiddleware {
	if header == "" {
		header = DefaultIdentityHeader
	}
	return &IdentityMiddleware{
		header: header,
		logger: logger,
	}
}

// WithUser stores the user id from the identity header in the request
// context. Requests without the header continue unauthenticated.
//
// The user id can be retrieved in handlers using:
//
//	userID := auth.UserIDFromContext(r.Context())
func (m *IdentityMiddleware) WithUser(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		userID := strings.TrimSpace(r.Header.Get(m.header))
		if len(userID) > maxUserIDLength {
			m.logger.Warn("identity header too long, ignoring", "length", len(userID))
			userID = ""
		}

		next.ServeHTTP(w, r.WithContext(auth.WithUserID(r.Context(), userID)))
	})
}

// RequireUser rejects requests without a user id with 401.
//
// IMPORTANT: This middleware must be used AFTER WithUser in the middleware chain.
func (m *IdentityMiddleware) RequireUser(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if auth.UserIDFromRequest(r) == "" {
			handler.UnauthorizedResponse(w, r, m.logger)
			return
		}
		next.ServeHTTP(w, r)
	})
}

// =============================================================================
// Middleware Stack Helpers
// =============================================================================

// Stack composes multiple middleware functions into a single middleware.
//
// Middleware is applied in the order provided, meaning the first middleware
// in the slice is the outermost (runs first on request, last on response).
//
// Example:
//
//	stack := Stack(loggingMw.Handler, identity.WithUser, identity.RequireUser)
//	mux.Handle("GET /api/usage", stack(usageHandler))
func Stack(middlewares ...func(http.Handler) http.Handler) func(http.Handler) http.Handler {
	return func(final http.Handler) http.Handler {
		for i := len(middlewares) - 1; i >= 0; i-- {
			final = middlewares[i](final)
		}
		return final
	}
}

// Ensure middleware functions have correct signature
var (
	_ func(http.Handler) http.Handler = (&IdentityMiddleware{}).WithUser
	_ func(http.Handler) http.Handler = (&IdentityMiddleware{}).RequireUser
)
