package http

import (
	"context"
	"net/http"
)

// GatewayHealthchecker probes the CPI gateway token endpoint.
type GatewayHealthchecker interface {
	Healthcheck(ctx context.Context) bool
}

type HealthHandler struct {
	gateway GatewayHealthchecker
}

func NewHealthHandler(gateway GatewayHealthchecker) *HealthHandler {
	return &HealthHandler{gateway: gateway}
}

func (h *HealthHandler) Check(w http.ResponseWriter, r *http.Request) {
	if !h.gateway.Healthcheck(r.Context()) {
		writeJSON(w, http.StatusServiceUnavailable, map[string]string{"status": "unavailable"})
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}
