package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	// HTTP 请求指标
	HTTPRequestsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "hypeauto_http_requests_total",
			Help: "Total number of HTTP requests",
		},
		[]string{"method", "path", "status"},
	)

	HTTPRequestDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "hypeauto_http_request_duration_seconds",
			Help:    "HTTP request latency in seconds",
			Buckets: prometheus.DefBuckets,
		},
		[]string{"method", "path"},
	)

	// 任务指标
	TasksSubmittedTotal = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "hypeauto_tasks_submitted_total",
			Help: "Total number of redemption tasks submitted",
		},
	)

	RedeemTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "hypeauto_redeem_total",
			Help: "Total number of completed redemptions by status and error kind",
		},
		[]string{"status", "error"},
	)

	RedeemDuration = promauto.NewHistogram(
		prometheus.HistogramOpts{
			Name:    "hypeauto_redeem_duration_seconds",
			Help:    "Redemption execution duration in seconds",
			Buckets: []float64{1, 2, 5, 10, 20, 30, 45, 60, 90, 120},
		},
	)

	// 调度器指标
	QueueSize = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "hypeauto_queue_size",
			Help: "Number of tasks waiting in the admission queue",
		},
	)

	ActiveTasks = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "hypeauto_active_tasks",
			Help: "Number of tasks currently executing",
		},
	)

	// Webhook 指标
	WebhookDeliveriesTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "hypeauto_webhook_deliveries_total",
			Help: "Total number of webhook delivery outcomes",
		},
		[]string{"outcome"},
	)

	// 错误指标
	ErrorsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "hypeauto_errors_total",
			Help: "Total number of errors",
		},
		[]string{"component", "type"},
	)
)

// RecordHTTPRequest 记录 HTTP 请求
func RecordHTTPRequest(method, path string, status int, duration float64) {
	HTTPRequestsTotal.WithLabelValues(method, path, statusClass(status)).Inc()
	HTTPRequestDuration.WithLabelValues(method, path).Observe(duration)
}

// RecordTaskSubmitted 记录任务提交
func RecordTaskSubmitted() {
	TasksSubmittedTotal.Inc()
}

// RecordRedeem 记录一次兑换完成
func RecordRedeem(status, errorKind string, duration float64) {
	RedeemTotal.WithLabelValues(status, errorKind).Inc()
	if duration > 0 {
		RedeemDuration.Observe(duration)
	}
}

// UpdateSchedulerStats 更新调度器队列/在执行数
func UpdateSchedulerStats(queueSize, active int) {
	QueueSize.Set(float64(queueSize))
	ActiveTasks.Set(float64(active))
}

// RecordWebhookDelivery 记录 webhook 投递结果（success/failed/dropped）
func RecordWebhookDelivery(outcome string) {
	WebhookDeliveriesTotal.WithLabelValues(outcome).Inc()
}

// RecordError 记录错误
func RecordError(component, errorType string) {
	ErrorsTotal.WithLabelValues(component, errorType).Inc()
}

// statusClass 将 HTTP 状态码转为类别
func statusClass(status int) string {
	switch {
	case status >= 200 && status < 300:
		return "2xx"
	case status >= 300 && status < 400:
		return "3xx"
	case status >= 400 && status < 500:
		return "4xx"
	case status >= 500:
		return "5xx"
	default:
		return "unknown"
	}
}
