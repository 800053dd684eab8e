package controllers

import (
	"context"
	"net/http"
	"sort"
	"time"

	"github.com/quickkiraana/kiraana/pkg/logger"
	"github.com/quickkiraana/kiraana/pkg/response"
)

// Check probes one dependency.
type Check func(ctx context.Context) error

type HealthController struct {
	checks  map[string]Check
	timeout time.Duration
}

func NewHealthController(checks map[string]Check, timeout time.Duration) *HealthController {
	return &HealthController{checks: checks, timeout: timeout}
}

type healthBody struct {
	Status string            `json:"status"`
	Checks map[string]string `json:"checks,omitempty"`
}

// Health handles GET /healthz. Any failing check turns the answer into 503.
func (c *HealthController) Health(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), c.timeout)
	defer cancel()

	names := make([]string, 0, len(c.checks))
	for name := range c.checks {
		names = append(names, name)
	}
	sort.Strings(names)

	body := healthBody{Status: "ok", Checks: make(map[string]string, len(names))}
	status := http.StatusOK
	for _, name := range names {
		if err := c.checks[name](ctx); err != nil {
			logger.WithCtx(ctx).Warn("health check failed", "check", name, "error", err)
			body.Checks[name] = "down"
			body.Status = "degraded"
			status = http.StatusServiceUnavailable
			continue
		}
		body.Checks[name] = "up"
	}

	response.JSON(w, status, body)
}
