package domain

// HealthStatus is returned by GET /healthz.
type HealthStatus struct {
	Status   string          `json:"status"` // healthy, degraded
	Services []ServiceHealth `json:"services"`
}

// ServiceHealth represents the health of an individual dependency.
type ServiceHealth struct {
	Name        string `json:"name"`
	Status      string `json:"status"`
	Detail      string `json:"detail,omitempty"`
	LastChecked string `json:"lastChecked"`
}

// FallbackSnapshot is returned by GET /api/metrics/fallbacks.
type FallbackSnapshot struct {
	Fallbacks      map[string]float64 `json:"fallbacks"`
	Submissions    map[string]float64 `json:"submissions"`
	SupersededLoad float64            `json:"supersededLoads"`
	CacheHitRate   float64            `json:"cacheHitRate"`
	OutboxPending  float64            `json:"outboxPending"`
}
