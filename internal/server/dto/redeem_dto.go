package dto

import "github.com/jadhstore/hypeauto/internal/model"

// RedeemRequest 兑换请求。jadhstore 只发 pin + game_account_id，
// order_id 用于对账，webhook_url 可覆盖全局回调地址。
type RedeemRequest struct {
	Pin           string `json:"pin" binding:"required" example:"a1b2c3d4-e5f6-7890-abcd-ef1234567890"`
	GameAccountID string `json:"game_account_id" binding:"required" example:"123456789"`
	OrderID       string `json:"order_id" example:"ORD-2024-0001"`
	WebhookURL    string `json:"webhook_url" example:"https://jadhstore.example/webhook/redeem"`
}

// QueuedResponse 异步提交的立即确认
type QueuedResponse struct {
	TaskID        string       `json:"task_id"`
	Status        model.Status `json:"status" example:"queued"`
	Pin           string       `json:"pin"`
	GameAccountID string       `json:"game_account_id"`
	OrderID       string       `json:"order_id"`
}

// HealthResponse 健康检查响应
type HealthResponse struct {
	Status        string `json:"status" example:"ok"`
	QueueSize     int    `json:"queue_size"`
	ActiveTasks   int    `json:"active_tasks"`
	MaxConcurrent int    `json:"max_concurrent"`
}

// ErrorResponse 错误响应
type ErrorResponse struct {
	Error string `json:"error"`
}
