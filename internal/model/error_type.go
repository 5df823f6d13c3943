package model

// ErrorType 兑换失败的错误分类（封闭集合）。
// 由 Action Executor 边界产出、核心层透传；return_pin 映射表由核心层唯一持有。
type ErrorType string

const (
	ErrorNone           ErrorType = ""
	ErrorInvalidID      ErrorType = "invalid_id"       // 玩家 ID 被拒绝，PIN 未消耗
	ErrorPageError      ErrorType = "page_error"       // 页面技术性故障，PIN 未消耗
	ErrorTimeout        ErrorType = "timeout"          // 超出时间预算，PIN 未消耗
	ErrorPinExpired     ErrorType = "pin_expired"      // PIN 已过期/无效
	ErrorPinAlreadyUsed ErrorType = "pin_already_used" // PIN 此前已被消耗
	ErrorUnknown        ErrorType = "unknown"          // 结果不明确，保守认为可能已消耗
)

func (e ErrorType) Valid() bool {
	switch e {
	case ErrorNone, ErrorInvalidID, ErrorPageError, ErrorTimeout,
		ErrorPinExpired, ErrorPinAlreadyUsed, ErrorUnknown:
		return true
	default:
		return false
	}
}

// ReturnPin 返回该错误类型下 PIN 是否仍未消耗、可退回库存。
// 这张表是全系统唯一的映射来源，所有失败路径（异步/同步/批量）都必须经过这里。
// 注意 unknown 映射为 false：结果不明确时保守处理，不允许重新发放。
func (e ErrorType) ReturnPin() bool {
	switch e {
	case ErrorInvalidID, ErrorPageError, ErrorTimeout:
		return true
	default:
		return false
	}
}
