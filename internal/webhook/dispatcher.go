package webhook

import (
	"bytes"
	"encoding/json"
	"fmt"
	"net/http"
	"sync"
	"time"

	"github.com/jadhstore/hypeauto/internal/config"
	"github.com/jadhstore/hypeauto/internal/logger"
	"github.com/jadhstore/hypeauto/internal/metrics"
	"github.com/jadhstore/hypeauto/internal/model"
	"github.com/jadhstore/hypeauto/internal/task"
)

// RetryConfig 投递重试配置
type RetryConfig struct {
	MaxRetries     int           // 最大重试次数，默认 3
	InitialBackoff time.Duration // 初始退避时间，默认 1秒
	MaxBackoff     time.Duration // 最大退避时间，默认 30秒
	BackoffFactor  float64       // 退避因子，默认 2.0（指数退避）
}

// DefaultRetryConfig 默认重试配置
func DefaultRetryConfig() RetryConfig {
	return RetryConfig{
		MaxRetries:     3,
		InitialBackoff: 1 * time.Second,
		MaxBackoff:     30 * time.Second,
		BackoffFactor:  2.0,
	}
}

// Event 一次待投递的终态结果
type Event struct {
	URL     string
	Outcome model.Outcome
}

// Dispatcher 终态结果的 webhook 投递器。
// 独立 worker 消费事件通道，投递失败带退避重试；入队永不阻塞调度路径，
// 通道满时丢弃并记日志（at-least-once 尽力而为，不对调用方承诺送达）。
type Dispatcher struct {
	globalURL string
	client    *http.Client
	retry     RetryConfig

	events chan Event
	stopCh chan struct{}
	wg     sync.WaitGroup
	once   sync.Once
}

// NewDispatcher 创建投递器
func NewDispatcher(cfg config.WebhookConfig) *Dispatcher {
	return &Dispatcher{
		globalURL: cfg.URL,
		client:    &http.Client{Timeout: cfg.RequestTimeout},
		retry:     DefaultRetryConfig(),
		events:    make(chan Event, 256),
		stopCh:    make(chan struct{}),
	}
}

// SetRetryConfig 覆盖重试配置（测试用）
func (d *Dispatcher) SetRetryConfig(rc RetryConfig) {
	d.retry = rc
}

// Start 启动投递 worker
func (d *Dispatcher) Start() {
	d.wg.Add(1)
	go d.worker()
}

// Stop 停止投递器：不再接收新事件，积压事件各做一次不重试的尽力投递。
func (d *Dispatcher) Stop() {
	d.once.Do(func() {
		close(d.stopCh)
	})
	d.wg.Wait()
}

// Notify 实现 task.NotifyFunc：任务进入终态时由 Store 调用。
// 任务级 webhook_url 优先，其次全局地址；两者皆空则不投递。
func (d *Dispatcher) Notify(t task.Task) {
	url := t.WebhookURL
	if url == "" {
		url = d.globalURL
	}
	if url == "" {
		return
	}

	ev := Event{URL: url, Outcome: t.Outcome()}
	select {
	case d.events <- ev:
	default:
		tlog := logger.WithTaskID(t.ID)
		tlog.Warn().Str("url", url).Msg("webhook 队列已满，事件被丢弃")
		metrics.RecordWebhookDelivery("dropped")
	}
}

func (d *Dispatcher) worker() {
	defer d.wg.Done()

	for {
		select {
		case ev := <-d.events:
			d.deliverWithRetry(ev)
		case <-d.stopCh:
			// 排空积压：每条只试一次，不做退避
			for {
				select {
				case ev := <-d.events:
					if err := d.post(ev); err != nil {
						logger.Warn().Err(err).Str("url", ev.URL).Msg("停机排空投递失败")
					}
				default:
					return
				}
			}
		}
	}
}

// deliverWithRetry 指数退避的有界重试投递。
func (d *Dispatcher) deliverWithRetry(ev Event) {
	log := logger.WithTaskID(ev.Outcome.TaskID)
	backoff := d.retry.InitialBackoff

	var lastErr error
	for attempt := 0; attempt <= d.retry.MaxRetries; attempt++ {
		if attempt > 0 {
			select {
			case <-time.After(backoff):
			case <-d.stopCh:
				return
			}

			backoff = time.Duration(float64(backoff) * d.retry.BackoffFactor)
			if backoff > d.retry.MaxBackoff {
				backoff = d.retry.MaxBackoff
			}
		}

		if err := d.post(ev); err == nil {
			if attempt > 0 {
				log.Info().Int("attempt", attempt+1).Str("url", ev.URL).Msg("webhook 重试成功")
			}
			metrics.RecordWebhookDelivery("success")
			return
		} else {
			lastErr = err
			log.Warn().Err(err).
				Int("attempt", attempt+1).
				Int("max_attempts", d.retry.MaxRetries+1).
				Str("url", ev.URL).
				Msg("webhook 投递失败")
		}
	}

	log.Error().Err(lastErr).Str("url", ev.URL).Msg("webhook 投递放弃，已达最大重试次数")
	metrics.RecordWebhookDelivery("failed")
}

// post 单次 POST 投递，2xx 视为成功。
func (d *Dispatcher) post(ev Event) error {
	body, err := json.Marshal(ev.Outcome)
	if err != nil {
		return fmt.Errorf("marshal outcome: %w", err)
	}

	resp, err := d.client.Post(ev.URL, "application/json", bytes.NewReader(body))
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return fmt.Errorf("webhook endpoint returned %d", resp.StatusCode)
	}
	return nil
}
