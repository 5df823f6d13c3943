package config

import (
	"fmt"
	"strings"
	"time"

	"github.com/spf13/viper"
)

// Config 应用配置。进程启动时构造一次，按引用传入调度器与 HTTP 层，
// 核心逻辑不读取任何全局环境状态。
type Config struct {
	HTTP      HTTPConfig
	Scheduler SchedulerConfig
	Webhook   WebhookConfig
	Redeem    RedeemConfig
	Log       LogConfig
}

// HTTPConfig HTTP 服务配置
type HTTPConfig struct {
	Port         int
	APISecretKey string
}

// SchedulerConfig 调度器配置
type SchedulerConfig struct {
	MaxConcurrent int
	RedeemTimeout time.Duration
}

// WebhookConfig Webhook 投递配置
type WebhookConfig struct {
	// URL 全局回调地址；任务级 webhook_url 优先。两者都为空时不投递。
	URL            string
	RequestTimeout time.Duration
}

// RedeemConfig 兑换表单固定参数（客户端不提供，原样透传给执行器）
type RedeemConfig struct {
	BaseURL     string
	Headless    bool
	Name        string
	BornAt      string
	Nationality string
}

// LogConfig 日志配置
type LogConfig struct {
	Level string
}

// Addr 返回 HTTP 监听地址
func (c HTTPConfig) Addr() string {
	return fmt.Sprintf(":%d", c.Port)
}

// Load 加载配置：.env 文件 + 环境变量（环境变量优先）。
func Load() (*Config, error) {
	v := viper.New()

	v.SetConfigName(".env")
	v.SetConfigType("env")
	v.AddConfigPath(".")
	v.AddConfigPath("..")
	v.AddConfigPath("../..")

	v.AutomaticEnv()

	// 配置文件可能不存在，只使用环境变量也是合法的
	_ = v.ReadInConfig()

	cfg := &Config{}

	// HTTP 配置
	cfg.HTTP.APISecretKey = v.GetString("API_SECRET_KEY")
	if cfg.HTTP.APISecretKey == "" {
		cfg.HTTP.APISecretKey = "change-me-in-production"
	}
	cfg.HTTP.Port = v.GetInt("PORT")
	if cfg.HTTP.Port == 0 {
		cfg.HTTP.Port = 8000
	}

	// 调度器配置
	cfg.Scheduler.MaxConcurrent = v.GetInt("MAX_CONCURRENT")
	if cfg.Scheduler.MaxConcurrent == 0 {
		cfg.Scheduler.MaxConcurrent = 3
	}
	if secs := v.GetInt("REDEEM_TIMEOUT"); secs > 0 {
		cfg.Scheduler.RedeemTimeout = time.Duration(secs) * time.Second
	} else {
		cfg.Scheduler.RedeemTimeout = 60 * time.Second
	}

	// Webhook 配置
	cfg.Webhook.URL = v.GetString("WEBHOOK_URL")
	cfg.Webhook.RequestTimeout = v.GetDuration("WEBHOOK_REQUEST_TIMEOUT")
	if cfg.Webhook.RequestTimeout == 0 {
		cfg.Webhook.RequestTimeout = 10 * time.Second
	}

	// 兑换表单固定参数
	cfg.Redeem.BaseURL = v.GetString("REDEEM_BASE_URL")
	if cfg.Redeem.BaseURL == "" {
		cfg.Redeem.BaseURL = "https://redeem.hype.games"
	}
	// HEADLESS 默认 true，只有显式 "false" 才关闭
	cfg.Redeem.Headless = strings.ToLower(v.GetString("HEADLESS")) != "false"
	cfg.Redeem.Name = v.GetString("REDEEM_NAME")
	if cfg.Redeem.Name == "" {
		cfg.Redeem.Name = "Juan Perez"
	}
	cfg.Redeem.BornAt = v.GetString("REDEEM_BORN_AT")
	if cfg.Redeem.BornAt == "" {
		cfg.Redeem.BornAt = "15/03/1995"
	}
	cfg.Redeem.Nationality = v.GetString("REDEEM_NATIONALITY")
	if cfg.Redeem.Nationality == "" {
		cfg.Redeem.Nationality = "CL"
	}

	// 日志配置
	cfg.Log.Level = v.GetString("LOG_LEVEL")
	if cfg.Log.Level == "" {
		cfg.Log.Level = "info"
	}

	return cfg, nil
}

// Validate 验证配置
func (c *Config) Validate() error {
	if c.HTTP.APISecretKey == "" {
		return fmt.Errorf("API_SECRET_KEY is required")
	}
	if c.HTTP.Port <= 0 || c.HTTP.Port > 65535 {
		return fmt.Errorf("PORT must be in 1-65535, got %d", c.HTTP.Port)
	}
	if c.Scheduler.MaxConcurrent <= 0 {
		return fmt.Errorf("MAX_CONCURRENT must be positive, got %d", c.Scheduler.MaxConcurrent)
	}
	if c.Scheduler.RedeemTimeout <= 0 {
		return fmt.Errorf("REDEEM_TIMEOUT must be positive")
	}
	if c.Redeem.BaseURL == "" {
		return fmt.Errorf("REDEEM_BASE_URL is required")
	}
	return nil
}
