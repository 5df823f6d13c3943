package main

import (
	"context"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"

	"github.com/jadhstore/hypeauto/internal/config"
	"github.com/jadhstore/hypeauto/internal/healthcheck"
	"github.com/jadhstore/hypeauto/internal/logger"
	"github.com/jadhstore/hypeauto/internal/redeemer"
	"github.com/jadhstore/hypeauto/internal/scheduler"
	httpserver "github.com/jadhstore/hypeauto/internal/server"
	"github.com/jadhstore/hypeauto/internal/task"
	"github.com/jadhstore/hypeauto/internal/webhook"
)

func main() {
	// .env 不存在时继续使用环境变量
	_ = godotenv.Load()

	// 初始化结构化日志（开发模式）
	if err := logger.Init(false); err != nil {
		os.Exit(1)
	}

	// 加载配置
	cfg, err := config.Load()
	if err != nil {
		logger.Fatal().Err(err).Msg("加载配置失败")
	}
	if err := cfg.Validate(); err != nil {
		logger.Fatal().Err(err).Msg("配置验证失败")
	}
	logger.SetLevel(cfg.Log.Level)

	logger.Info().
		Str("addr", cfg.HTTP.Addr()).
		Int("max_concurrent", cfg.Scheduler.MaxConcurrent).
		Dur("redeem_timeout", cfg.Scheduler.RedeemTimeout).
		Msg("HypeAuto 启动")

	// 浏览器执行器
	browser := redeemer.NewBrowser(cfg.Redeem)
	if err := browser.Start(context.Background()); err != nil {
		logger.Fatal().Err(err).Msg("启动浏览器失败")
	}
	defer browser.Stop()

	// 任务存储 + webhook 投递器 + 调度器
	store := task.NewStore()

	dispatcher := webhook.NewDispatcher(cfg.Webhook)
	store.SetNotify(dispatcher.Notify)
	dispatcher.Start()

	sched := scheduler.New(store, browser, cfg.Scheduler)
	sched.Start()

	healthChecker := healthcheck.NewHealthChecker(browser)

	httpSrv := &http.Server{
		Addr: cfg.HTTP.Addr(),
		Handler: httpserver.NewRouter(httpserver.Deps{
			Cfg:           cfg,
			Scheduler:     sched,
			Store:         store,
			HealthChecker: healthChecker,
		}),
		ReadHeaderTimeout: 5 * time.Second,
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	go func() {
		logger.Info().Str("addr", cfg.HTTP.Addr()).Msg("HTTP 服务监听")
		if err := httpSrv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logger.Fatal().Err(err).Msg("HTTP 服务错误")
		}
	}()

	<-ctx.Done()

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	// 先收口 HTTP，再停调度器，最后排空 webhook
	_ = httpSrv.Shutdown(shutdownCtx)
	sched.Stop()
	dispatcher.Stop()
	logger.Info().Msg("服务已优雅关闭")
}
