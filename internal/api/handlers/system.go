package handlers

import (
	"context"
	"net/http"

	"go.uber.org/zap"

	"github.com/ramonehamilton/bulkbuddy/internal/api/response"
	"github.com/ramonehamilton/bulkbuddy/internal/metrics"
	"github.com/ramonehamilton/bulkbuddy/internal/version"
)

// Pinger checks a dependency is reachable.
type Pinger interface {
	Ping(ctx context.Context) error
}

// SystemHandler serves health, version and metrics endpoints.
type SystemHandler struct {
	db      Pinger
	metrics *metrics.ServerMetrics
	clients func() int
	logger  *zap.Logger
}

// NewSystemHandler creates a new SystemHandler. clients reports the number
// of connected websocket clients and may be nil.
func NewSystemHandler(db Pinger, m *metrics.ServerMetrics, clients func() int, logger *zap.Logger) *SystemHandler {
	if clients == nil {
		clients = func() int { return 0 }
	}
	return &SystemHandler{db: db, metrics: m, clients: clients, logger: logger}
}

// HealthResponse is the body of the health endpoint.
type HealthResponse struct {
	Status   string `json:"status"`
	Version  string `json:"version"`
	Database string `json:"database"`
}

// Health reports whether the server and its database are usable.
func (h *SystemHandler) Health(w http.ResponseWriter, r *http.Request) {
	resp := HealthResponse{Status: "ok", Version: version.GetVersion(), Database: "ok"}
	status := http.StatusOK

	if err := h.db.Ping(r.Context()); err != nil {
		h.logger.Warn("health check failed", zap.Error(err))
		resp.Status = "degraded"
		resp.Database = "unreachable"
		status = http.StatusServiceUnavailable
	}

	response.JSON(w, status, resp)
}

// GetVersion returns build information.
func (h *SystemHandler) GetVersion(w http.ResponseWriter, r *http.Request) {
	response.Success(w, version.Get())
}

// MetricsResponse is the body of the metrics endpoint.
type MetricsResponse struct {
	*metrics.ServerStats
	WebSocketClients int `json:"websocket_clients"`
}

// GetMetrics returns request, analysis and Scryfall statistics.
func (h *SystemHandler) GetMetrics(w http.ResponseWriter, r *http.Request) {
	response.Success(w, MetricsResponse{
		ServerStats:      h.metrics.GetStats(),
		WebSocketClients: h.clients(),
	})
}
