package observability

import "context"

// HealthStatus is the health state of a component or service.
type HealthStatus string

const (
	HealthStatusUp       HealthStatus = "up"
	HealthStatusDown     HealthStatus = "down"
	HealthStatusDegraded HealthStatus = "degraded"
)

// Health describes one component.
type Health struct {
	Name    string            `json:"name"`
	Status  HealthStatus      `json:"status"`
	Message string            `json:"message,omitempty"`
	Details map[string]string `json:"details,omitempty"`
}

// ServiceHealth is the body served by health endpoints.
type ServiceHealth struct {
	Service    string       `json:"service"`
	Status     HealthStatus `json:"status"`
	Version    string       `json:"version,omitempty"`
	Components []Health     `json:"components,omitempty"`
}

// HealthChecker is implemented by components that report their health.
type HealthChecker interface {
	CheckHealth(ctx context.Context) Health
}

// CheckAll runs every checker and folds the results into one ServiceHealth.
// Any down component makes the service down; any degraded one degrades it.
func CheckAll(ctx context.Context, service, version string, checkers ...HealthChecker) ServiceHealth {
	sh := ServiceHealth{Service: service, Status: HealthStatusUp, Version: version}
	for _, c := range checkers {
		h := c.CheckHealth(ctx)
		sh.Components = append(sh.Components, h)
		switch h.Status {
		case HealthStatusDown:
			sh.Status = HealthStatusDown
		case HealthStatusDegraded:
			if sh.Status != HealthStatusDown {
				sh.Status = HealthStatusDegraded
			}
		}
	}
	return sh
}

// Healthy reports whether the service can take traffic.
func (sh ServiceHealth) Healthy() bool {
	return sh.Status != HealthStatusDown
}
