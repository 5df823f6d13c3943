package handler

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/jadhstore/hypeauto/internal/healthcheck"
	"github.com/jadhstore/hypeauto/internal/scheduler"
	"github.com/jadhstore/hypeauto/internal/server/dto"
)

// HealthHandler 健康检查 Handler
type HealthHandler struct {
	sched         *scheduler.Scheduler
	healthChecker *healthcheck.HealthChecker
}

// NewHealthHandler 创建 HealthHandler
func NewHealthHandler(sched *scheduler.Scheduler, healthChecker *healthcheck.HealthChecker) *HealthHandler {
	return &HealthHandler{
		sched:         sched,
		healthChecker: healthChecker,
	}
}

// Health godoc
// @Summary 服务状态
// @Description 队列深度、在执行任务数与并发上限，实时取自调度器
// @Tags Health
// @Produce json
// @Success 200 {object} dto.HealthResponse
// @Router /health [get]
func (h *HealthHandler) Health(c *gin.Context) {
	stats := h.sched.Stats()
	c.JSON(http.StatusOK, dto.HealthResponse{
		Status:        "ok",
		QueueSize:     stats.QueueSize,
		ActiveTasks:   stats.ActiveTasks,
		MaxConcurrent: stats.MaxConcurrent,
	})
}

// Liveness godoc
// @Summary Liveness 检查
// @Description 服务存活检查，用于容器 liveness probe
// @Tags Health
// @Produce json
// @Success 200 {object} healthcheck.CheckResult
// @Router /healthz [get]
func (h *HealthHandler) Liveness(c *gin.Context) {
	if h.healthChecker == nil {
		c.String(http.StatusOK, "ok")
		return
	}
	c.JSON(http.StatusOK, h.healthChecker.LivenessCheck())
}

// Readiness godoc
// @Summary Readiness 检查
// @Description 服务就绪检查，检查浏览器执行器状态
// @Tags Health
// @Produce json
// @Success 200 {object} healthcheck.CheckResult
// @Failure 503 {object} healthcheck.CheckResult
// @Router /readyz [get]
func (h *HealthHandler) Readiness(c *gin.Context) {
	if h.healthChecker == nil {
		c.String(http.StatusOK, "ok")
		return
	}
	result := h.healthChecker.ReadinessCheck()
	if result.Status == "error" {
		c.JSON(http.StatusServiceUnavailable, result)
		return
	}
	c.JSON(http.StatusOK, result)
}
