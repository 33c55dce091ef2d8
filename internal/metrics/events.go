package metrics

import "time"

// Integrity event reasons
const (
	ReasonMissingIdentity = "missing_identity"
	ReasonUndecodable     = "undecodable"
	ReasonMalformed       = "malformed"
)

// GatewayCall records the outcome of a gateway operation.
func GatewayCall(operation, status string) {
	GatewayCallsTotal.WithLabelValues(operation, status).Inc()
}

// IntegrityEvent records records dropped from a malformed response.
func IntegrityEvent(entity, reason string, dropped int) {
	IntegrityEventsTotal.WithLabelValues(entity, reason).Add(float64(dropped))
}

// ValidationFailed records a submission blocked locally or by the backend.
func ValidationFailed(entity, source string) {
	ValidationFailuresTotal.WithLabelValues(entity, source).Inc()
}

// SearchTransition records a search slot entering state.
func SearchTransition(slot, state string) {
	SearchTransitionsTotal.WithLabelValues(slot, state).Inc()
}

// SessionTransition records the session entering state.
func SessionTransition(state string) {
	SessionTransitionsTotal.WithLabelValues(state).Inc()
}

// TaskCompleted records a successful queued task.
func TaskCompleted(task string, duration time.Duration) {
	TasksTotal.WithLabelValues(task, "completed").Inc()
	TaskDuration.WithLabelValues(task).Observe(duration.Seconds())
}

// TaskFailed records a queued task that panicked or returned an error.
func TaskFailed(task string) {
	TasksTotal.WithLabelValues(task, "failed").Inc()
}
