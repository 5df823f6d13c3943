package scheduler

import (
	"context"
	"fmt"
	"sync"

	"github.com/jadhstore/hypeauto/internal/config"
	"github.com/jadhstore/hypeauto/internal/logger"
	"github.com/jadhstore/hypeauto/internal/metrics"
	"github.com/jadhstore/hypeauto/internal/model"
	"github.com/jadhstore/hypeauto/internal/redeemer"
	"github.com/jadhstore/hypeauto/internal/task"
)

// Scheduler 调度引擎：从准入队列取任务、占用并发槽位、派发执行器调用、
// 把结果写回 task.Store。派发是 fire-and-continue 的，循环本身从不等待
// 单个兑换结束。
type Scheduler struct {
	store *task.Store
	exec  redeemer.Executor
	cfg   config.SchedulerConfig

	queue *fifoQueue
	// slots 计数信号量：长度即在执行中的任务数，容量即 MAX_CONCURRENT
	slots chan struct{}

	cancel context.CancelFunc
	wg     sync.WaitGroup
}

// Stats 健康计数。全部为队列与信号量的实时派生视图，不单独维护计数器。
type Stats struct {
	QueueSize     int `json:"queue_size"`
	ActiveTasks   int `json:"active_tasks"`
	MaxConcurrent int `json:"max_concurrent"`
}

// New 创建调度器
func New(store *task.Store, exec redeemer.Executor, cfg config.SchedulerConfig) *Scheduler {
	return &Scheduler{
		store: store,
		exec:  exec,
		cfg:   cfg,
		queue: newFIFOQueue(),
		slots: make(chan struct{}, cfg.MaxConcurrent),
	}
}

// Start 启动调度循环
func (s *Scheduler) Start() {
	ctx, cancel := context.WithCancel(context.Background())
	s.cancel = cancel
	s.wg.Add(1)
	go s.run(ctx)
	logger.Info().Int("max_concurrent", s.cfg.MaxConcurrent).
		Dur("redeem_timeout", s.cfg.RedeemTimeout).Msg("调度器已启动")
}

// Stop 停止调度循环。在执行中的任务随 ctx 取消收尾。
func (s *Scheduler) Stop() {
	if s.cancel != nil {
		s.cancel()
	}
	s.wg.Wait()
	logger.Info().Msg("调度器已停止")
}

// Submit 创建任务记录并入队，立即返回（不等待执行）。
func (s *Scheduler) Submit(p task.CreateParams) (task.Task, error) {
	t, err := s.store.Create(p)
	if err != nil {
		return task.Task{}, err
	}
	s.queue.Push(t.ID)
	metrics.RecordTaskSubmitted()
	s.updateGauges()

	tlog := logger.WithTaskID(t.ID)
	tlog.Info().
		Str("game_account_id", t.GameAccountID).
		Msg("任务已入队")
	return t, nil
}

// SubmitBatch 批量提交：先创建全部记录，再按入参顺序一次性入队，
// 保证批次对调度循环原子可见、不会出现乱序空洞。
// 批量路径一律使用服务端生成的 ID。
func (s *Scheduler) SubmitBatch(params []task.CreateParams) []task.Task {
	tasks := make([]task.Task, 0, len(params))
	ids := make([]string, 0, len(params))
	for _, p := range params {
		p.TaskID = "" // 强制服务端生成，创建不会失败
		t, _ := s.store.Create(p)
		tasks = append(tasks, t)
		ids = append(ids, t.ID)
		metrics.RecordTaskSubmitted()
	}
	s.queue.Push(ids...)
	s.updateGauges()

	logger.Info().Int("count", len(tasks)).Msg("批量任务已入队")
	return tasks
}

// Wait 阻塞到任务进入终态，返回终态快照。ctx 取消提前返回。
func (s *Scheduler) Wait(ctx context.Context, id string) (task.Task, error) {
	done, err := s.store.Done(id)
	if err != nil {
		return task.Task{}, err
	}
	select {
	case <-done:
		return s.store.Get(id)
	case <-ctx.Done():
		return task.Task{}, ctx.Err()
	}
}

// Stats 实时健康计数
func (s *Scheduler) Stats() Stats {
	return Stats{
		QueueSize:     s.queue.Len(),
		ActiveTasks:   len(s.slots),
		MaxConcurrent: s.cfg.MaxConcurrent,
	}
}

// run 调度主循环：队首出队 → 占槽 → 置 running → 并发派发。
func (s *Scheduler) run(ctx context.Context) {
	defer s.wg.Done()

	for {
		id, ok := s.queue.Pop(ctx)
		if !ok {
			return
		}

		select {
		case s.slots <- struct{}{}:
		case <-ctx.Done():
			return
		}

		if err := s.store.Transition(id, model.StatusRunning, nil); err != nil {
			// 正常流程不会走到这里
			tlog := logger.WithTaskID(id)
			tlog.Error().Err(err).Msg("任务置 running 失败")
			<-s.slots
			continue
		}
		s.updateGauges()

		go s.execute(ctx, id)
	}
}

// execute 单个任务的执行包装：限定超时、捕获 panic、写回终态。
// 无论哪条退出路径，槽位都在返回时释放。
func (s *Scheduler) execute(ctx context.Context, id string) {
	defer func() {
		<-s.slots
		s.updateGauges()
	}()

	t, err := s.store.Get(id)
	if err != nil {
		tlog := logger.WithTaskID(id)
		tlog.Error().Err(err).Msg("任务记录丢失")
		return
	}

	execCtx, cancel := context.WithTimeout(ctx, s.cfg.RedeemTimeout)
	defer cancel()

	resCh := make(chan model.Result, 1)
	go func() {
		defer func() {
			if r := recover(); r != nil {
				resCh <- model.Fail(model.ErrorUnknown, fmt.Sprintf("executor panic: %v", r))
			}
		}()
		resCh <- s.exec.Redeem(execCtx, redeemer.Request{
			Pin:           t.Pin,
			GameAccountID: t.GameAccountID,
		})
	}()

	var result model.Result
	select {
	case result = <-resCh:
	case <-execCtx.Done():
		// 超时即刻回收槽位，不再等待执行器真正返回。
		// 代价是底层动作可能短暂继续占用浏览器资源，换取调度循环的活性。
		result = model.Fail(model.ErrorTimeout,
			fmt.Sprintf("redeem exceeded %s budget", s.cfg.RedeemTimeout))
		result.Duration = s.cfg.RedeemTimeout
	}

	status := model.StatusFailed
	if result.Success {
		status = model.StatusSuccess
	}

	if err := s.store.Transition(id, status, &result); err != nil {
		tlog := logger.WithTaskID(id)
		tlog.Error().Err(err).Msg("写入终态失败")
		return
	}
	metrics.RecordRedeem(string(status), string(result.Error), result.Duration.Seconds())

	log := logger.WithTaskID(id)
	if result.Success {
		log.Info().Str("nickname", result.Nickname).
			Int("diamonds", result.Diamonds).
			Dur("duration", result.Duration).
			Msg("兑换成功")
	} else {
		log.Warn().Str("error", string(result.Error)).
			Str("error_message", result.ErrorMessage).
			Bool("return_pin", result.Error.ReturnPin()).
			Msg("兑换失败")
	}
}

func (s *Scheduler) updateGauges() {
	st := s.Stats()
	metrics.UpdateSchedulerStats(st.QueueSize, st.ActiveTasks)
}
