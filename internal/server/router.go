package httpserver

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/jadhstore/hypeauto/internal/config"
	"github.com/jadhstore/hypeauto/internal/healthcheck"
	"github.com/jadhstore/hypeauto/internal/middleware"
	"github.com/jadhstore/hypeauto/internal/scheduler"
	"github.com/jadhstore/hypeauto/internal/server/handler"
	"github.com/jadhstore/hypeauto/internal/task"
)

type Deps struct {
	Cfg       *config.Config
	Scheduler *scheduler.Scheduler
	Store     *task.Store

	// HealthChecker 健康检查器（可选）
	HealthChecker *healthcheck.HealthChecker
}

// NewRouter 提供 Gin HTTP API
// @title HypeAuto API
// @version 1.0.0
// @description Hype Games PIN 自动兑换服务 API
// @schemes http https
func NewRouter(deps Deps) http.Handler {
	r := gin.New()
	r.Use(gin.Recovery())

	// 全局中间件
	r.Use(middleware.RequestIDMiddleware())
	r.Use(middleware.LoggingMiddleware())
	r.Use(middleware.PrometheusMiddleware())
	r.Use(middleware.PayloadSizeLimit(middleware.MaxPayloadSize))

	redeemHandler := handler.NewRedeemHandler(deps.Scheduler, deps.Store)
	healthHandler := handler.NewHealthHandler(deps.Scheduler, deps.HealthChecker)

	// 健康检查与 metrics 不做认证
	r.GET("/health", healthHandler.Health)
	r.GET("/healthz", healthHandler.Liveness)
	r.GET("/readyz", healthHandler.Readiness)
	r.GET("/metrics", gin.WrapH(promhttp.Handler()))

	// 业务路由全部要求 API key
	authed := r.Group("", middleware.APIKeyAuth(deps.Cfg.HTTP.APISecretKey))
	{
		authed.POST("/redeem", redeemHandler.Redeem)
		authed.POST("/redeem/sync", redeemHandler.RedeemSync)
		authed.POST("/redeem/batch", redeemHandler.RedeemBatch)
		authed.GET("/task/:task_id", middleware.ValidateTaskIDParam(), redeemHandler.GetTask)
	}

	return r
}
