package middleware

import (
	"crypto/subtle"
	"net/http"

	"github.com/gin-gonic/gin"
)

// APIKeyHeader 认证头名称
const APIKeyHeader = "X-API-Key"

// APIKeyAuth API key 认证中间件。除健康检查与 metrics 外的所有路由都挂载。
// 比较使用常数时间实现，避免时序侧信道。
func APIKeyAuth(secretKey string) gin.HandlerFunc {
	return func(c *gin.Context) {
		key := c.GetHeader(APIKeyHeader)
		if key == "" || subtle.ConstantTimeCompare([]byte(key), []byte(secretKey)) != 1 {
			c.JSON(http.StatusUnauthorized, gin.H{
				"error": "invalid or missing API key",
			})
			c.Abort()
			return
		}
		c.Next()
	}
}
