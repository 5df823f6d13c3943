package middleware

import (
	"net/http"
	"regexp"

	"github.com/gin-gonic/gin"
)

const (
	// MaxPayloadSize 最大 payload 大小（1MB，兑换请求都很小）
	MaxPayloadSize = 1 * 1024 * 1024

	// MaxBatchSize 批量提交的单次上限
	MaxBatchSize = 100
)

var (
	// TaskIDRegex TaskID 正则（字母数字连字符，1-64字符，覆盖 UUID）
	TaskIDRegex = regexp.MustCompile(`^[a-zA-Z0-9-]{1,64}$`)

	// PinRegex PIN 正则（字母数字连字符，4-64字符；内容本身不做解释）
	PinRegex = regexp.MustCompile(`^[a-zA-Z0-9-]{4,64}$`)
)

// PayloadSizeLimit Payload 大小限制中间件
func PayloadSizeLimit(maxSize int64) gin.HandlerFunc {
	return func(c *gin.Context) {
		if c.Request.ContentLength > maxSize {
			c.JSON(http.StatusRequestEntityTooLarge, gin.H{
				"error": "request body too large, limit is 1MB",
			})
			c.Abort()
			return
		}
		c.Next()
	}
}

// ValidateTaskID 验证 Task ID
func ValidateTaskID(taskID string) bool {
	return TaskIDRegex.MatchString(taskID)
}

// ValidatePin 验证 PIN 形态
func ValidatePin(pin string) bool {
	return PinRegex.MatchString(pin)
}

// ValidateTaskIDParam Gin 中间件：验证路径参数中的 task_id
func ValidateTaskIDParam() gin.HandlerFunc {
	return func(c *gin.Context) {
		taskID := c.Param("task_id")
		if taskID == "" {
			c.JSON(http.StatusBadRequest, gin.H{
				"error": "task_id 参数缺失",
			})
			c.Abort()
			return
		}

		if !ValidateTaskID(taskID) {
			c.JSON(http.StatusBadRequest, gin.H{
				"error": "task_id 格式无效，必须是1-64个字母、数字或连字符",
			})
			c.Abort()
			return
		}

		c.Next()
	}
}
