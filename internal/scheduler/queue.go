package scheduler

import (
	"context"
	"sync"
)

// fifoQueue 准入队列：只保存 task_id 的无界 FIFO。
// 任务体存在 task.Store 里，队列内存只随待调度数量增长。
// 单消费者（调度循环），多生产者（HTTP handler）。
type fifoQueue struct {
	mu    sync.Mutex
	items []string
	wake  chan struct{}
}

func newFIFOQueue() *fifoQueue {
	return &fifoQueue{
		wake: make(chan struct{}, 1),
	}
}

// Push 追加一个或多个 id。持锁一次性追加，批量提交对读者原子可见、
// 顺序与入参一致。
func (q *fifoQueue) Push(ids ...string) {
	if len(ids) == 0 {
		return
	}
	q.mu.Lock()
	q.items = append(q.items, ids...)
	q.mu.Unlock()

	select {
	case q.wake <- struct{}{}:
	default:
	}
}

// Pop 弹出队首，队列为空时阻塞；ctx 取消返回 false。
func (q *fifoQueue) Pop(ctx context.Context) (string, bool) {
	for {
		q.mu.Lock()
		if len(q.items) > 0 {
			id := q.items[0]
			q.items = q.items[1:]
			q.mu.Unlock()
			return id, true
		}
		q.mu.Unlock()

		select {
		case <-ctx.Done():
			return "", false
		case <-q.wake:
		}
	}
}

// Len 当前队列长度
func (q *fifoQueue) Len() int {
	q.mu.Lock()
	defer q.mu.Unlock()
	return len(q.items)
}
