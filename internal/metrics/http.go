package metrics

import (
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// UnmatchedRoute labels every request no registered pattern serves, keeping
// the label set fixed whatever paths clients send.
const UnmatchedRoute = "unmatched"

// RouteResolver reports the registered pattern that would serve r.
// *http.ServeMux satisfies it.
type RouteResolver interface {
	Handler(r *http.Request) (h http.Handler, pattern string)
}

// Middleware records request count, latency and in-flight requests, labelled
// by the ServeMux pattern ("GET /api/interviews/{id}") rather than the raw
// path. The scrape endpoint itself is not recorded.
func Middleware(routes RouteResolver) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if r.URL.Path == "/metrics" {
				next.ServeHTTP(w, r)
				return
			}

			route := Route(routes, r)
			labels := prometheus.Labels{"route": route}
			instrumented := promhttp.InstrumentHandlerInFlight(HTTPRequestsInFlight,
				promhttp.InstrumentHandlerDuration(HTTPRequestDuration.MustCurryWith(labels),
					promhttp.InstrumentHandlerCounter(HTTPRequestsTotal.MustCurryWith(labels), next),
				),
			)
			instrumented.ServeHTTP(w, r)
		})
	}
}

// Route returns the pattern routes would dispatch r to, or UnmatchedRoute.
func Route(routes RouteResolver, r *http.Request) string {
	if routes == nil {
		return UnmatchedRoute
	}
	if _, pattern := routes.Handler(r); pattern != "" {
		return pattern
	}
	return UnmatchedRoute
}
