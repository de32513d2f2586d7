package httpapi

import (
	"context"
	"net/http"
	"time"
)

// HealthCheck is one readiness dependency. A failing optional check degrades
// readiness without failing it.
type HealthCheck struct {
	Name     string
	Check    func(ctx context.Context) error
	Optional bool
}

type HealthHandler struct {
	checks  []HealthCheck
	version string
}

func NewHealthHandler(checks []HealthCheck, version string) *HealthHandler {
	return &HealthHandler{checks: checks, version: version}
}

type livenessResponse struct {
	Status  string `json:"status"`
	Version string `json:"version,omitempty"`
}

type readinessResponse struct {
	Status       string            `json:"status"`
	Version      string            `json:"version,omitempty"`
	Dependencies map[string]string `json:"dependencies"`
}

func (h *HealthHandler) Liveness(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, livenessResponse{Status: "ok", Version: h.version})
}

func (h *HealthHandler) Readiness(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), 2*time.Second)
	defer cancel()

	deps := make(map[string]string, len(h.checks))
	status := "ok"
	for _, c := range h.checks {
		checkCtx, checkCancel := context.WithTimeout(ctx, time.Second)
		err := c.Check(checkCtx)
		checkCancel()
		if err == nil {
			deps[c.Name] = "ok"
			continue
		}
		deps[c.Name] = "down"
		switch {
		case !c.Optional:
			status = "error"
		case status == "ok":
			status = "degraded"
		}
	}

	code := http.StatusOK
	if status == "error" {
		code = http.StatusServiceUnavailable
	}
	writeJSON(w, code, readinessResponse{Status: status, Version: h.version, Dependencies: deps})
}
