package metrics

import "time"

// EntitlementDecided records which rule decided an entitlement check.
func EntitlementDecided(resource, outcome string) {
	EntitlementDecisions.WithLabelValues(resource, outcome).Inc()
}

// PermissionLookupFailed records a billing lookup error absorbed as a non-grant.
func PermissionLookupFailed(resource string) {
	PermissionLookupErrors.WithLabelValues(resource).Inc()
}

// DemoIncremented records a demo counter increment attempt.
func DemoIncremented(resource string, err error) {
	status := "ok"
	if err != nil {
		status = "failed"
	}
	DemoIncrements.WithLabelValues(resource, status).Inc()
}

// RateLimited records a token bucket decision.
func RateLimited(action, result string) {
	RateLimitDecisions.WithLabelValues(action, result).Inc()
}

// AICallCompleted records the outcome and latency of an AI call.
func AICallCompleted(operation string, duration time.Duration, err error) {
	status := "success"
	if err != nil {
		status = "error"
	}
	AIAPICalls.WithLabelValues(operation, status).Inc()
	AICallDuration.WithLabelValues(operation).Observe(duration.Seconds())
}
