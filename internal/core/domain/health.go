package domain

// HealthStatus is the overall service status.
type HealthStatus string

const (
	// StatusHealthy means every backend responded to a ping.
	StatusHealthy HealthStatus = "healthy"

	// StatusDegraded means at least one backend is unreachable.
	StatusDegraded HealthStatus = "degraded"
)

// Health is the reachability rollup across backends.
type Health struct {
	// Status is the aggregate: healthy only when all components are.
	Status HealthStatus `json:"status"`

	// Components maps component name (embedding, generation, index)
	// to an empty string when reachable or the failure detail otherwise.
	Components map[string]string `json:"components"`
}
