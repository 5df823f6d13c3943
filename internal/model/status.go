package model

// Status 任务状态枚举（用于 API/webhook/前端筛选）。
// 约定：
// - queued:  已入队（等待调度器分配执行槽位）
// - running: 正在执行兑换
// - success: 兑换成功
// - failed:  兑换失败（终态，不会自动重试）
//
// 状态只能单向前进：queued → running → {success|failed}。
type Status string

const (
	StatusQueued  Status = "queued"
	StatusRunning Status = "running"
	StatusSuccess Status = "success"
	StatusFailed  Status = "failed"
)

func (s Status) Valid() bool {
	switch s {
	case StatusQueued, StatusRunning, StatusSuccess, StatusFailed:
		return true
	default:
		return false
	}
}

// Terminal 判断是否为终态。终态一旦写入不允许再变更。
func (s Status) Terminal() bool {
	return s == StatusSuccess || s == StatusFailed
}

// CanTransitionTo 判断状态能否前进到 next。
// 只允许 queued→running 和 running→{success|failed}。
func (s Status) CanTransitionTo(next Status) bool {
	switch s {
	case StatusQueued:
		return next == StatusRunning
	case StatusRunning:
		return next == StatusSuccess || next == StatusFailed
	default:
		return false
	}
}
