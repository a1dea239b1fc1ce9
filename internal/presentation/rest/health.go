package rest

import (
	"encoding/json"
	"log/slog"
	"net/http"
	"time"

	"github.com/bibbank/scamshield/internal/application/usecase"
)

const serviceName = "scamshield"

// HealthHandler provides HTTP health check endpoints.
type HealthHandler struct {
	status    *usecase.GetScorerStatus
	logger    *slog.Logger
	startTime time.Time
}

// NewHealthHandler creates a new health check handler.
func NewHealthHandler(status *usecase.GetScorerStatus, logger *slog.Logger) *HealthHandler {
	return &HealthHandler{
		status:    status,
		logger:    logger,
		startTime: time.Now(),
	}
}

// HealthResponse is the JSON response for health checks.
type HealthResponse struct {
	Status  string `json:"status"`
	Service string `json:"service"`
	Uptime  string `json:"uptime"`
}

// ReadinessResponse is the JSON response for readiness checks.
type ReadinessResponse struct {
	Checks      map[string]string `json:"checks"`
	Status      string            `json:"status"`
	Service     string            `json:"service"`
	Strategy    string            `json:"strategy"`
	ModelLoaded bool              `json:"model_loaded"`
}

// RegisterRoutes registers health endpoints on the provided ServeMux.
func (h *HealthHandler) RegisterRoutes(mux *http.ServeMux) {
	mux.HandleFunc("GET /healthz", h.Healthz)
	mux.HandleFunc("GET /readyz", h.Readyz)
}

// Healthz handles liveness probe requests.
func (h *HealthHandler) Healthz(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, HealthResponse{
		Status:  "healthy",
		Service: serviceName,
		Uptime:  time.Since(h.startTime).Round(time.Second).String(),
	})
}

// Readyz handles readiness probe requests. It answers 503 until the scorer can serve.
func (h *HealthHandler) Readyz(w http.ResponseWriter, r *http.Request) {
	st := h.status.Execute(r.Context())

	resp := ReadinessResponse{
		Status:      "ready",
		Service:     serviceName,
		Strategy:    st.Strategy,
		ModelLoaded: st.ModelLoaded,
		Checks:      map[string]string{"scorer": "ok"},
	}
	code := http.StatusOK
	if !st.Ready {
		resp.Status = "not_ready"
		resp.Checks["scorer"] = "not ready"
		code = http.StatusServiceUnavailable
	}

	writeJSON(w, code, resp)
}

func writeJSON(w http.ResponseWriter, code int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	json.NewEncoder(w).Encode(v) //nolint:errcheck
}
