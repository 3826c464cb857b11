package collab

import (
	"net/http"

	"github.com/anoixa/colab/api/common"
	"github.com/anoixa/colab/api/middleware"
	"github.com/gin-gonic/gin"
)

type sendMessageRequest struct {
	RecipientID string `json:"recipientId" binding:"required"`
	Text        string `json:"text" binding:"required"`
}

// SendMessageHandler POST /api/messages
func (h *Handler) SendMessageHandler(c *gin.Context) {
	userID, _ := middleware.GetUserID(c)

	var req sendMessageRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		common.RespondError(c, http.StatusBadRequest, err.Error())
		return
	}

	msg, err := h.svc.SendMessage(c.Request.Context(), userID, req.RecipientID, req.Text)
	if err != nil {
		respondError(c, "send message", err)
		return
	}
	common.RespondCreated(c, msg)
}

// ConversationHandler GET /api/messages?with=
func (h *Handler) ConversationHandler(c *gin.Context) {
	userID, _ := middleware.GetUserID(c)

	msgs, err := h.svc.Conversation(c.Request.Context(), userID, c.Query("with"))
	if err != nil {
		respondError(c, "load conversation", err)
		return
	}
	common.RespondSuccess(c, msgs)
}
