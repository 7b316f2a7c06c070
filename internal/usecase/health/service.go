// Package health reports readiness of the service's dependencies.
package health

import (
	"context"

	"github.com/matkb-cloud/matkb/internal/domain"
)

// Pinger checks chunk store connectivity.
type Pinger interface {
	Ping(ctx context.Context) error
}

// Status is the per-dependency health report.
type Status struct {
	Store    string `json:"store"`
	Provider string `json:"provider"`
	Healthy  bool   `json:"healthy"`
}

// Service checks the chunk store and the embedding provider.
type Service struct {
	store    Pinger
	provider domain.HealthChecker
}

// New creates a health service.
func New(store Pinger, provider domain.HealthChecker) *Service {
	return &Service{store: store, provider: provider}
}

// Check probes both dependencies. Healthy requires both to answer.
func (s *Service) Check(ctx context.Context) Status {
	st := Status{Store: "ok", Provider: "ok", Healthy: true}
	if err := s.store.Ping(ctx); err != nil {
		st.Store = err.Error()
		st.Healthy = false
	}
	if err := s.provider.HealthCheck(ctx); err != nil {
		st.Provider = err.Error()
		st.Healthy = false
	}
	return st
}
