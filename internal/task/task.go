package task

import (
	"time"

	"github.com/jadhstore/hypeauto/internal/model"
)

// Task 一次 PIN 兑换任务的生命周期记录。
// Pin/GameAccountID/OrderID/WebhookURL 由调用方提供，创建后不可变；
// 核心层不解释其内容，只透传给执行器。
type Task struct {
	ID            string
	Pin           string
	GameAccountID string
	OrderID       string

	// WebhookURL 任务级回调地址，优先于全局配置；为空时回退全局地址。
	WebhookURL string

	Status model.Status

	// Result 仅在终态填充，填充后不再变更。
	Result *model.Result

	SubmittedAt time.Time
	StartedAt   *time.Time
	CompletedAt *time.Time
}

// Outcome 构造对外结果文档。终态查询与 webhook 投递都使用这一份。
func (t Task) Outcome() model.Outcome {
	out := model.Outcome{
		TaskID:        t.ID,
		Status:        t.Status,
		Pin:           t.Pin,
		GameAccountID: t.GameAccountID,
		OrderID:       t.OrderID,
	}
	if t.Result != nil {
		out.Nickname = t.Result.Nickname
		out.ProductName = t.Result.ProductName
		out.Diamonds = t.Result.Diamonds
		out.RedeemedAt = t.Result.RedeemedAt
		out.Error = t.Result.Error
		out.ErrorMessage = t.Result.ErrorMessage
		out.ReturnPin = t.Result.Error.ReturnPin()
		out.RedeemDurationMS = t.Result.Duration.Milliseconds()
	}
	return out
}
