package redeemer

import (
	"context"

	"github.com/jadhstore/hypeauto/internal/model"
)

// Request 一次兑换的输入。表单固定参数来自配置，不在请求里。
type Request struct {
	Pin           string
	GameAccountID string
}

// Executor 执行实际兑换动作的边界接口。
// 实现负责对失败做错误分类（model.ErrorType）；return_pin 映射由核心层持有。
// ctx 携带调度器下发的超时，实现应在 ctx 取消后尽快停止工作。
type Executor interface {
	Redeem(ctx context.Context, req Request) model.Result
}
