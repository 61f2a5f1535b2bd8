package msgbus

import (
	"context"
	"errors"
	"time"
)

// StatusCode represents the health state of a registry
type StatusCode string

const (
	// StatusHealthy indicates the registry is ready for publish/subscribe
	StatusHealthy StatusCode = "healthy"
	// StatusUnhealthy indicates an eager registry that has not been initialized
	StatusUnhealthy StatusCode = "unhealthy"
)

// Status contains detailed status information for a registry
type Status struct {
	Code        StatusCode     `json:"status"`
	Message     string         `json:"message,omitempty"`
	Registry    string         `json:"registry"`
	RegistryID  string         `json:"registry_id"`
	Lazy        bool           `json:"lazy"`
	Ready       bool           `json:"ready"`
	Subscribers int            `json:"subscribers"`
	Buses       []BusInfo      `json:"buses"`
	Details     map[string]any `json:"details,omitempty"`
	CheckedAt   time.Time      `json:"checked_at"`
}

// IsHealthy returns true if the status code is healthy
func (s *Status) IsHealthy() bool {
	return s.Code == StatusHealthy
}

// Status returns a snapshot of the registry and its buses.
// A lazy registry is always healthy; an eager one is healthy once initialized.
func (r *Registry) Status(ctx context.Context) *Status {
	buses := r.Buses()
	result := &Status{
		Registry:   r.name,
		RegistryID: r.id,
		Lazy:       r.lazy,
		Ready:      r.Ready(),
		Buses:      buses,
		Details:    make(map[string]any),
		CheckedAt:  time.Now(),
	}
	for _, b := range buses {
		result.Subscribers += b.Subscribers
	}
	result.Details["buses"] = len(buses)

	switch {
	case !r.lazy && !result.Ready:
		result.Code = StatusUnhealthy
		result.Message = "registry is not initialized"
	default:
		result.Code = StatusHealthy
		result.Message = "registry is healthy"
	}
	return result
}

// Health performs a health check suitable for readiness probes.
// Returns nil if the registry is healthy, or an error describing the issue.
func (r *Registry) Health(ctx context.Context) error {
	status := r.Status(ctx)
	if status.Code == StatusUnhealthy {
		return errors.New(status.Message)
	}
	return nil
}
