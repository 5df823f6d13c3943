package model

import "time"

// Result 单次兑换执行的结构化结果，由 Action Executor 产出。
// 失败时 Error/ErrorMessage 填充；成功时填充业务字段。
type Result struct {
	Success      bool
	Error        ErrorType
	ErrorMessage string
	Nickname     string
	ProductName  string
	Diamonds     int
	RedeemedAt   string // RFC3339，成功时填充
	Duration     time.Duration
}

// Fail 构造失败结果。
func Fail(errType ErrorType, message string) Result {
	return Result{
		Success:      false,
		Error:        errType,
		ErrorMessage: message,
	}
}

// Succeed 构造成功结果，redeemed_at 取当前 UTC 时间。
func Succeed(nickname, productName string, diamonds int) Result {
	return Result{
		Success:     true,
		Nickname:    nickname,
		ProductName: productName,
		Diamonds:    diamonds,
		RedeemedAt:  time.Now().UTC().Format(time.RFC3339),
	}
}

// Outcome 对外的结果文档。webhook payload 与任务查询响应共用同一结构，
// 保证两条通知路径上字段完全一致。
type Outcome struct {
	TaskID           string    `json:"task_id"`
	Status           Status    `json:"status"`
	Pin              string    `json:"pin"`
	GameAccountID    string    `json:"game_account_id"`
	Nickname         string    `json:"nickname"`
	ProductName      string    `json:"product_name"`
	Diamonds         int       `json:"diamonds"`
	RedeemedAt       string    `json:"redeemed_at"`
	OrderID          string    `json:"order_id"`
	Error            ErrorType `json:"error"`
	ErrorMessage     string    `json:"error_message"`
	ReturnPin        bool      `json:"return_pin"`
	RedeemDurationMS int64     `json:"redeem_duration_ms"`
}
