package controllers

import (
	"context"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/yigit/eduschedule/internal/app/models/dto"
)

// HealthCheck probes one dependency
type HealthCheck func(ctx context.Context) error

// HealthController reports whether the service can reach its dependencies
type HealthController struct {
	checks map[string]HealthCheck
}

// NewHealthController creates a HealthController; checks are keyed by dependency name
func NewHealthController(checks map[string]HealthCheck) *HealthController {
	return &HealthController{checks: checks}
}

// Health probes every dependency
// @Summary Health check
// @Description Pings the database and Redis
// @Tags health
// @Produce json
// @Success 200 {object} dto.APIResponse{data=map[string]string} "All dependencies reachable"
// @Failure 503 {object} dto.APIResponse{data=map[string]string} "A dependency is down"
// @Router /health [get]
func (h *HealthController) Health(ctx *gin.Context) {
	probeCtx, cancel := context.WithTimeout(ctx.Request.Context(), 2*time.Second)
	defer cancel()

	status := make(map[string]string, len(h.checks))
	healthy := true
	for name, check := range h.checks {
		if err := check(probeCtx); err != nil {
			status[name] = "down"
			healthy = false
			continue
		}
		status[name] = "up"
	}

	if !healthy {
		resp := dto.NewErrorResponse(dto.NewErrorDetail(dto.ErrorCodeUnavailable, "Service unavailable").
			WithSeverity(dto.ErrorSeverityCritical))
		resp.Data = status
		ctx.JSON(http.StatusServiceUnavailable, resp)
		return
	}
	ctx.JSON(http.StatusOK, dto.NewSuccessResponse(status, "ok"))
}
