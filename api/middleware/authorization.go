package middleware

import (
	"errors"
	"net/http"

	"github.com/anoixa/colab/api/common"
	"github.com/gin-gonic/gin"
)

var errAuthFormat = errors.New("Authorization field format error")

// RequireUser 要求请求已识别出用户
func RequireUser() gin.HandlerFunc {
	return func(c *gin.Context) {
		if _, ok := GetUserID(c); !ok {
			common.RespondErrorAbort(c, http.StatusUnauthorized, "Authentication required")
			return
		}
		c.Next()
	}
}
