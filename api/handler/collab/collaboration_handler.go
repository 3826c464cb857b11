package collab

import (
	"net/http"

	"github.com/anoixa/colab/api/common"
	"github.com/anoixa/colab/api/middleware"
	"github.com/anoixa/colab/database/models"
	"github.com/gin-gonic/gin"
)

type startCollaborationRequest struct {
	ArtworkType string `json:"artworkType" binding:"required"`
	IsPrivate   bool   `json:"isPrivate"`
}

// StartHandler POST /api/collaborations
func (h *Handler) StartHandler(c *gin.Context) {
	userID, _ := middleware.GetUserID(c)

	var req startCollaborationRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		common.RespondError(c, http.StatusBadRequest, err.Error())
		return
	}

	collab, err := h.svc.StartCollaboration(c.Request.Context(), userID, models.ArtworkType(req.ArtworkType), req.IsPrivate)
	if err != nil {
		respondError(c, "start collaboration", err)
		return
	}
	common.RespondCreated(c, collab)
}

// JoinHandler POST /api/collaborations/:id/join
func (h *Handler) JoinHandler(c *gin.Context) {
	collabID, ok := common.ParseUintParam(c, "id")
	if !ok {
		return
	}
	userID, _ := middleware.GetUserID(c)

	collab, err := h.svc.Join(c.Request.Context(), collabID, userID)
	if err != nil {
		respondError(c, "join collaboration", err)
		return
	}
	common.RespondSuccess(c, collab)
}

// MembersHandler GET /api/collaborations/:id/members
func (h *Handler) MembersHandler(c *gin.Context) {
	collabID, ok := common.ParseUintParam(c, "id")
	if !ok {
		return
	}

	members, err := h.svc.Members(c.Request.Context(), collabID)
	if err != nil {
		respondError(c, "list members", err)
		return
	}
	common.RespondSuccess(c, members)
}
