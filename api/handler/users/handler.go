package users

import (
	"errors"
	"net/http"

	"github.com/anoixa/colab/api/common"
	"github.com/anoixa/colab/api/middleware"
	"github.com/anoixa/colab/internal/identity"
	"github.com/gin-gonic/gin"
	log "github.com/sirupsen/logrus"
)

// Handler 用户资料处理器
type Handler struct {
	svc *identity.Service
}

func NewHandler(svc *identity.Service) *Handler {
	return &Handler{svc: svc}
}

// syncRequest 没有 token 时（开发模式）用请求体补充资料
type syncRequest struct {
	Name    string `json:"name" binding:"max=255"`
	Email   string `json:"email" binding:"omitempty,email"`
	Picture string `json:"picture" binding:"omitempty,url"`
}

type addFriendRequest struct {
	FriendID string `json:"friendId" binding:"required"`
}

// SyncHandler POST /api/users/sync 登录后同步身份提供者的资料
func (h *Handler) SyncHandler(c *gin.Context) {
	claims, ok := middleware.GetClaims(c)
	if !ok {
		userID, _ := middleware.GetUserID(c)
		var req syncRequest
		if c.Request.ContentLength != 0 {
			if err := c.ShouldBindJSON(&req); err != nil {
				common.RespondError(c, http.StatusBadRequest, err.Error())
				return
			}
		}
		claims = &identity.Claims{Subject: userID, Name: req.Name, Email: req.Email, Picture: req.Picture}
	}

	user, err := h.svc.Sync(c.Request.Context(), claims)
	if err != nil {
		if errors.Is(err, identity.ErrInvalidToken) {
			common.RespondError(c, http.StatusUnauthorized, "Invalid identity")
			return
		}
		log.Errorf("[Users] Failed to sync user: %v", err)
		common.RespondError(c, http.StatusInternalServerError, "Failed to sync user")
		return
	}
	common.RespondSuccess(c, user)
}

// GetUserHandler GET /api/users/:id
func (h *Handler) GetUserHandler(c *gin.Context) {
	user, err := h.svc.GetUser(c.Request.Context(), c.Param("id"))
	if err != nil {
		if errors.Is(err, identity.ErrUserNotFound) {
			common.RespondError(c, http.StatusNotFound, "User not found")
			return
		}
		log.Errorf("[Users] Failed to get user: %v", err)
		common.RespondError(c, http.StatusInternalServerError, "Failed to get user")
		return
	}
	common.RespondSuccess(c, user)
}

// AddFriendHandler POST /api/users/:id/friends 只能修改自己的好友列表
func (h *Handler) AddFriendHandler(c *gin.Context) {
	userID, _ := middleware.GetUserID(c)
	if c.Param("id") != userID {
		common.RespondError(c, http.StatusForbidden, "Cannot modify another user's friends")
		return
	}

	var req addFriendRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		common.RespondError(c, http.StatusBadRequest, err.Error())
		return
	}

	user, err := h.svc.AddFriend(c.Request.Context(), userID, req.FriendID)
	if err != nil {
		switch {
		case errors.Is(err, identity.ErrSelfFriend):
			common.RespondError(c, http.StatusBadRequest, err.Error())
		case errors.Is(err, identity.ErrUserNotFound):
			common.RespondError(c, http.StatusNotFound, "User not found")
		default:
			log.Errorf("[Users] Failed to add friend: %v", err)
			common.RespondError(c, http.StatusInternalServerError, "Failed to add friend")
		}
		return
	}
	common.RespondSuccess(c, user)
}
