package middleware

import (
	"log/slog"
	"net/http"
	"strings"
	"time"

	"github.com/DukeRupert/certum/internal/auth"
)

// Paths that are polled by infrastructure and not worth a log line.
var quietPaths = map[string]bool{
	"/health":  true,
	"/metrics": true,
}

// Query parameters whose values never reach the logs.
var redactedParams = map[string]bool{
	"token":         true,
	"code":          true,
	"key":           true,
	"secret":        true,
	"signature":     true,
	"api_key":       true,
	"apikey":        true,
	"access_token":  true,
	"refresh_token": true,
}

// RequestLoggingMiddleware writes one log line per request.
type RequestLoggingMiddleware struct {
	logger *slog.Logger
}

func NewRequestLoggingMiddleware(logger *slog.Logger) *RequestLoggingMiddleware {
	return &RequestLoggingMiddleware{logger: logger}
}

// Handler must sit directly outside the ServeMux so the matched route
// pattern is visible once the request returns.
func (m *RequestLoggingMiddleware) Handler(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if quietPaths[r.URL.Path] {
			next.ServeHTTP(w, r)
			return
		}

		start := time.Now()
		rec := &statusRecorder{ResponseWriter: w}
		next.ServeHTTP(rec, r)

		m.logger.LogAttrs(r.Context(), levelFor(rec.status()), "request", requestAttrs(r, rec, time.Since(start))...)
	})
}

func requestAttrs(r *http.Request, rec *statusRecorder, elapsed time.Duration) []slog.Attr {
	attrs := []slog.Attr{
		slog.String("method", r.Method),
		slog.String("path", redactQuery(r.URL.Path, r.URL.RawQuery)),
		slog.Int("status", rec.status()),
		slog.Int64("bytes", rec.written),
		slog.Int64("duration_ms", elapsed.Milliseconds()),
		slog.String("ip", getClientIP(r)),
		slog.String("user_agent", r.UserAgent()),
	}
	if r.Pattern != "" {
		attrs = append(attrs, slog.String("route", r.Pattern))
	}
	if userID := auth.UserIDFromRequest(r); userID != "" {
		attrs = append(attrs, slog.String("user_id", userID))
	}
	return attrs
}

func levelFor(status int) slog.Level {
	if status >= http.StatusInternalServerError {
		return slog.LevelWarn
	}
	return slog.LevelInfo
}

// statusRecorder remembers the status and body size handlers write.
type statusRecorder struct {
	http.ResponseWriter
	code    int
	written int64
}

func (s *statusRecorder) WriteHeader(code int) {
	if s.code == 0 {
		s.code = code
	}
	s.ResponseWriter.WriteHeader(code)
}

func (s *statusRecorder) Write(b []byte) (int, error) {
	if s.code == 0 {
		s.code = http.StatusOK
	}
	n, err := s.ResponseWriter.Write(b)
	s.written += int64(n)
	return n, err
}

func (s *statusRecorder) status() int {
	if s.code == 0 {
		return http.StatusOK
	}
	return s.code
}

// Unwrap lets http.ResponseController reach Flush on streamed responses.
func (s *statusRecorder) Unwrap() http.ResponseWriter {
	return s.ResponseWriter
}

// redactQuery keeps the query order intact and blanks sensitive values.
// Pairs without a value are dropped.
func redactQuery(path, rawQuery string) string {
	if rawQuery == "" {
		return path
	}

	var b strings.Builder
	for pair := range strings.SplitSeq(rawQuery, "&") {
		name, value, ok := strings.Cut(pair, "=")
		if !ok {
			continue
		}
		if redactedParams[strings.ToLower(name)] {
			value = "[REDACTED]"
		}
		if b.Len() > 0 {
			b.WriteByte('&')
		}
		b.WriteString(name)
		b.WriteByte('=')
		b.WriteString(value)
	}

	if b.Len() == 0 {
		return path
	}
	return path + "?" + b.String()
}
