package middleware

import (
	"net/http"
	"time"

	"github.com/anoixa/colab/api/common"
	"github.com/gin-gonic/gin"
)

// UserRateLimiter 按用户限流写操作，未识别身份的请求按 IP 计算
type UserRateLimiter struct {
	limiter *IPRateLimiter
}

// NewUserRateLimiter 创建每用户限流器
func NewUserRateLimiter(rps float64, burst int) *UserRateLimiter {
	return &UserRateLimiter{
		limiter: NewIPRateLimiter(rps, burst, 30*time.Minute),
	}
}

// Middleware 只对修改类请求计数
func (rl *UserRateLimiter) Middleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		switch c.Request.Method {
		case http.MethodGet, http.MethodHead, http.MethodOptions:
			c.Next()
			return
		}

		key := "ip:" + c.ClientIP()
		if userID, ok := GetUserID(c); ok {
			key = "user:" + userID
		}
		if !rl.limiter.Allow(key) {
			common.RespondErrorAbort(c, http.StatusTooManyRequests, "Too many requests")
			return
		}
		c.Next()
	}
}

func (rl *UserRateLimiter) StopCleanup() {
	rl.limiter.StopCleanup()
}
