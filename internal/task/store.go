package task

import (
	"errors"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/jadhstore/hypeauto/internal/model"
)

var (
	// ErrNotFound 任务不存在
	ErrNotFound = errors.New("task not found")

	// ErrDuplicateSubmission 调用方指定的 task_id 已存在
	ErrDuplicateSubmission = errors.New("duplicate task_id")

	// ErrInvalidTransition 非法状态转换（终态回写或状态倒退）。
	// 正常调用方不应触发；出现即说明核心层存在 bug。
	ErrInvalidTransition = errors.New("invalid state transition")
)

// NotifyFunc 终态通知回调。状态提交后、锁外调用，每个任务恰好一次。
type NotifyFunc func(t Task)

// Store 任务记录的内存存储，任务生命周期的唯一事实来源。
// 记录在进程生命周期内不淘汰；内存上界由调用方的提交量决定。
type Store struct {
	mu    sync.RWMutex
	items map[string]*Task
	done  map[string]chan struct{} // 终态时 close，支撑同步等待

	notify NotifyFunc
}

// NewStore 创建 Store
func NewStore() *Store {
	return &Store{
		items: map[string]*Task{},
		done:  map[string]chan struct{}{},
	}
}

// SetNotify 设置终态通知回调。装配期调用一次，不支持并发修改。
func (s *Store) SetNotify(fn NotifyFunc) {
	s.notify = fn
}

// CreateParams 创建任务的参数。TaskID 可选，不填则由服务端生成。
type CreateParams struct {
	TaskID        string
	Pin           string
	GameAccountID string
	OrderID       string
	WebhookURL    string
}

// Create 创建任务记录，初始状态 queued。
// 服务端生成的 ID 由构造保证不重复；调用方自带 ID 冲突时返回 ErrDuplicateSubmission。
func (s *Store) Create(p CreateParams) (Task, error) {
	id := strings.TrimSpace(p.TaskID)
	if id == "" {
		id = uuid.NewString()
	}

	t := &Task{
		ID:            id,
		Pin:           p.Pin,
		GameAccountID: p.GameAccountID,
		OrderID:       p.OrderID,
		WebhookURL:    p.WebhookURL,
		Status:        model.StatusQueued,
		SubmittedAt:   time.Now(),
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if _, exists := s.items[id]; exists {
		return Task{}, ErrDuplicateSubmission
	}
	s.items[id] = t
	s.done[id] = make(chan struct{})
	return *t, nil
}

// Get 获取任务快照
func (s *Store) Get(id string) (Task, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	t, ok := s.items[id]
	if !ok {
		return Task{}, ErrNotFound
	}
	return *t, nil
}

// Len 当前记录总数
func (s *Store) Len() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.items)
}

// Transition 推进任务状态。只允许 queued→running→{success|failed}，
// 终态写入恰好一次，之后的写入全部拒绝（保护历史不被 webhook 重试等路径改写）。
// 进入终态时：先提交状态，再 close done 通道并触发终态通知。
func (s *Store) Transition(id string, next model.Status, result *model.Result) error {
	if !next.Valid() {
		return ErrInvalidTransition
	}

	s.mu.Lock()

	t, ok := s.items[id]
	if !ok {
		s.mu.Unlock()
		return ErrNotFound
	}
	if !t.Status.CanTransitionTo(next) {
		s.mu.Unlock()
		return ErrInvalidTransition
	}

	now := time.Now()
	t.Status = next
	switch {
	case next == model.StatusRunning:
		t.StartedAt = &now
	case next.Terminal():
		t.CompletedAt = &now
		t.Result = result
	}

	snapshot := *t
	doneCh := s.done[id]
	s.mu.Unlock()

	if next.Terminal() {
		close(doneCh)
		if s.notify != nil {
			s.notify(snapshot)
		}
	}
	return nil
}

// Done 返回任务的完成通道，终态时被 close。
func (s *Store) Done(id string) (<-chan struct{}, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	ch, ok := s.done[id]
	if !ok {
		return nil, ErrNotFound
	}
	return ch, nil
}
