// Package http provides an HTTP handler for the monitor package using protoJSON.
package http

import (
	"log/slog"
	"net/http"

	"github.com/rbaliyan/msgbus/monitor"
	"google.golang.org/protobuf/encoding/protojson"
	"google.golang.org/protobuf/proto"
	"google.golang.org/protobuf/types/known/structpb"
)

// Route paths served by Handler
const (
	PathBuses  = "/v1/msgbus/buses"
	PathClear  = "/v1/msgbus/clear"
	PathHealth = "/v1/msgbus/health"
)

// Handler implements http.Handler for registry monitoring using protoJSON.
type Handler struct {
	registry  monitor.Registry
	mux       *http.ServeMux
	marshaler protojson.MarshalOptions
	logger    *slog.Logger
}

// New creates a new HTTP handler for r.
func New(r monitor.Registry) *Handler {
	h := &Handler{
		registry: r,
		mux:      http.NewServeMux(),
		marshaler: protojson.MarshalOptions{
			EmitUnpopulated: true,
			UseProtoNames:   true,
		},
		logger: slog.Default().With("component", "msgbus>monitor>http"),
	}

	// GET  /v1/msgbus/buses  - registry status with per-bus subscriber counts
	// POST /v1/msgbus/clear  - drop every subscription, returns status afterwards
	// GET  /v1/msgbus/health - 200 when healthy, 503 otherwise
	h.mux.HandleFunc(PathBuses, h.handleBuses)
	h.mux.HandleFunc(PathClear, h.handleClear)
	h.mux.HandleFunc(PathHealth, h.handleHealth)

	return h
}

// ServeHTTP implements http.Handler.
func (h *Handler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	h.mux.ServeHTTP(w, r)
}

// handleBuses handles GET /v1/msgbus/buses
func (h *Handler) handleBuses(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		h.writeError(w, http.StatusMethodNotAllowed, "method not allowed")
		return
	}
	h.writeSnapshot(w, r)
}

// handleClear handles POST /v1/msgbus/clear
func (h *Handler) handleClear(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		h.writeError(w, http.StatusMethodNotAllowed, "method not allowed")
		return
	}
	h.registry.ClearAll(r.Context())
	h.logger.Info("cleared all buses", "registry", h.registry.Name(), "remote", r.RemoteAddr)
	h.writeSnapshot(w, r)
}

// handleHealth handles GET /v1/msgbus/health
func (h *Handler) handleHealth(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		h.writeError(w, http.StatusMethodNotAllowed, "method not allowed")
		return
	}
	status := h.registry.Status(r.Context())
	msg, err := structpb.NewStruct(map[string]any{
		"status":  string(status.Code),
		"message": status.Message,
	})
	if err != nil {
		h.writeError(w, http.StatusInternalServerError, err.Error())
		return
	}
	code := http.StatusOK
	if !status.IsHealthy() {
		code = http.StatusServiceUnavailable
	}
	h.writeResponse(w, code, msg)
}

func (h *Handler) writeSnapshot(w http.ResponseWriter, r *http.Request) {
	snap, err := monitor.Snapshot(r.Context(), h.registry)
	if err != nil {
		h.writeError(w, http.StatusInternalServerError, err.Error())
		return
	}
	h.writeResponse(w, http.StatusOK, snap)
}

func (h *Handler) writeResponse(w http.ResponseWriter, code int, msg proto.Message) {
	data, err := h.marshaler.Marshal(msg)
	if err != nil {
		h.writeError(w, http.StatusInternalServerError, err.Error())
		return
	}

	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	w.Write(data)
}

func (h *Handler) writeError(w http.ResponseWriter, code int, message string) {
	body := &structpb.Struct{Fields: map[string]*structpb.Value{
		"error": structpb.NewStringValue(message),
	}}
	data, err := h.marshaler.Marshal(body)
	if err != nil {
		h.logger.Error("failed to encode error response", "error", err)
		data = []byte(`{"error":"internal error"}`)
	}

	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	w.Write(data)
}
