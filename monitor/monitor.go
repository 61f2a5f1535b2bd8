// Package monitor exposes the state of a msgbus.Registry to operators.
//
// It provides:
//   - Snapshot: registry status as a protobuf Struct, shared by the HTTP and gRPC surfaces
//   - Collector: a Prometheus collector reporting buses and subscriber counts
//
// Example usage:
//
//	reg := msgbus.Default()
//
//	// Prometheus
//	prometheus.MustRegister(monitor.NewCollector(reg))
//
//	// HTTP
//	mux.Handle("/v1/msgbus/", monhttp.New(reg))
//
//	// gRPC
//	mongrpc.New(reg).Register(server)
package monitor

import (
	"context"
	"time"

	"github.com/rbaliyan/msgbus"
	"google.golang.org/protobuf/types/known/structpb"
)

// Registry is the part of *msgbus.Registry used by the monitor surfaces.
type Registry interface {
	Name() string
	Status(ctx context.Context) *msgbus.Status
	Buses() []msgbus.BusInfo
	ClearAll(ctx context.Context)
}

var _ Registry = (*msgbus.Registry)(nil)

// Snapshot converts the registry status into a protobuf Struct.
//
// Layout:
//
//	{
//	  "status": "healthy", "message": "...",
//	  "registry": "msgbus", "registry_id": "...",
//	  "lazy": true, "ready": false, "subscribers": 3,
//	  "checked_at": "2006-01-02T15:04:05Z",
//	  "buses": [{"id": "...", "name": "app.Ping", "subscribers": 2}, ...]
//	}
func Snapshot(ctx context.Context, r Registry) (*structpb.Struct, error) {
	status := r.Status(ctx)

	buses := make([]any, 0, len(status.Buses))
	for _, b := range status.Buses {
		buses = append(buses, map[string]any{
			"id":          b.ID,
			"name":        b.Name,
			"subscribers": b.Subscribers,
		})
	}

	return structpb.NewStruct(map[string]any{
		"status":      string(status.Code),
		"message":     status.Message,
		"registry":    status.Registry,
		"registry_id": status.RegistryID,
		"lazy":        status.Lazy,
		"ready":       status.Ready,
		"subscribers": status.Subscribers,
		"checked_at":  status.CheckedAt.UTC().Format(time.RFC3339Nano),
		"buses":       buses,
	})
}
