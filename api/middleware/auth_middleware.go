package middleware

import (
	"net/http"
	"strings"

	"github.com/anoixa/colab/api/common"
	"github.com/anoixa/colab/internal/identity"
	"github.com/gin-gonic/gin"
)

const (
	ContextUserIDKey = "user_id"
	ContextClaimsKey = "identity_claims"
	AuthTypeKey      = "auth_type"

	AuthTypeJWT    = "jwt"
	AuthTypeHeader = "header"

	// HeaderUserID 开发模式下直接声明用户身份
	HeaderUserID = "X-User-ID"
)

// TokenVerifier 校验身份提供者签发的 token
type TokenVerifier interface {
	Verify(token string) (*identity.Claims, error)
}

// Identity 解析请求身份但不强制登录，需要登录的路由再叠加 RequireUser
// token 来自 Authorization: Bearer 头，浏览器 websocket 无法设置头，可以用 ?token=
// required=false 时没有 token 的请求可以用 X-User-ID 头声明身份
func Identity(verifier TokenVerifier, required bool) gin.HandlerFunc {
	return func(c *gin.Context) {
		token, err := bearerToken(c)
		if err != nil {
			common.RespondErrorAbort(c, http.StatusBadRequest, err.Error())
			return
		}

		if token != "" {
			if verifier == nil {
				common.RespondErrorAbort(c, http.StatusUnauthorized, "Identity verification is not configured")
				return
			}
			claims, err := verifier.Verify(token)
			if err != nil {
				common.RespondErrorAbort(c, http.StatusUnauthorized, "Invalid or expired token")
				return
			}
			c.Set(ContextUserIDKey, claims.Subject)
			c.Set(ContextClaimsKey, claims)
			c.Set(AuthTypeKey, AuthTypeJWT)
			c.Next()
			return
		}

		if !required {
			if userID := strings.TrimSpace(c.GetHeader(HeaderUserID)); userID != "" {
				c.Set(ContextUserIDKey, userID)
				c.Set(AuthTypeKey, AuthTypeHeader)
			}
		}
		c.Next()
	}
}

func bearerToken(c *gin.Context) (string, error) {
	authHeader := c.GetHeader("Authorization")
	if authHeader == "" {
		return c.Query("token"), nil
	}

	parts := strings.SplitN(authHeader, " ", 2)
	if len(parts) != 2 || !strings.EqualFold(parts[0], "Bearer") {
		return "", errAuthFormat
	}
	return strings.TrimSpace(parts[1]), nil
}

// GetUserID 返回当前请求的用户 ID
func GetUserID(c *gin.Context) (string, bool) {
	userID := c.GetString(ContextUserIDKey)
	return userID, userID != ""
}

// GetClaims 只有 token 认证的请求才有身份声明
func GetClaims(c *gin.Context) (*identity.Claims, bool) {
	val, ok := c.Get(ContextClaimsKey)
	if !ok {
		return nil, false
	}
	claims, ok := val.(*identity.Claims)
	return claims, ok
}
