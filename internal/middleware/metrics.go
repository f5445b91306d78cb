package middleware

import (
	"crypto/sha256"
	"crypto/subtle"
	"net/http"
)

// MetricsAuthMiddleware guards the scrape endpoint with HTTP basic auth.
// With no credentials configured it lets every request through.
type MetricsAuthMiddleware struct {
	user, pass [sha256.Size]byte
	enabled    bool
}

func NewMetricsAuthMiddleware(username, password string) *MetricsAuthMiddleware {
	return &MetricsAuthMiddleware{
		user:    sha256.Sum256([]byte(username)),
		pass:    sha256.Sum256([]byte(password)),
		enabled: username != "" || password != "",
	}
}

func (m *MetricsAuthMiddleware) Handler(next http.Handler) http.Handler {
	if !m.enabled {
		return next
	}
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if !m.authorized(r) {
			w.Header().Set("WWW-Authenticate", `Basic realm="certum metrics", charset="UTF-8"`)
			w.Header().Set("Cache-Control", "no-store")
			http.Error(w, "Unauthorized", http.StatusUnauthorized)
			return
		}
		next.ServeHTTP(w, r)
	})
}

// authorized hashes both sides first so the comparison time does not depend
// on how long the configured credentials are.
func (m *MetricsAuthMiddleware) authorized(r *http.Request) bool {
	user, pass, ok := r.BasicAuth()
	if !ok {
		return false
	}
	u := sha256.Sum256([]byte(user))
	p := sha256.Sum256([]byte(pass))
	// Both comparisons always run.
	userOK := subtle.ConstantTimeCompare(u[:], m.user[:])
	passOK := subtle.ConstantTimeCompare(p[:], m.pass[:])
	return userOK&passOK == 1
}
