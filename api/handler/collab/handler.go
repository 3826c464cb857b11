package collab

import (
	"errors"
	"net/http"

	"github.com/anoixa/colab/api/common"
	svcCollab "github.com/anoixa/colab/internal/collab"
	"github.com/gin-gonic/gin"
	log "github.com/sirupsen/logrus"
)

// Handler 协作与私信处理器
type Handler struct {
	svc *svcCollab.Service
}

func NewHandler(svc *svcCollab.Service) *Handler {
	return &Handler{svc: svc}
}

func respondError(c *gin.Context, action string, err error) {
	switch {
	case errors.Is(err, svcCollab.ErrCollaborationNotFound):
		common.RespondError(c, http.StatusNotFound, "Collaboration not found")
	case errors.Is(err, svcCollab.ErrUserNotFound):
		common.RespondError(c, http.StatusNotFound, "User not found")
	case errors.Is(err, svcCollab.ErrForbidden):
		common.RespondError(c, http.StatusForbidden, err.Error())
	case errors.Is(err, svcCollab.ErrInvalidArtworkType),
		errors.Is(err, svcCollab.ErrEmptyMessage),
		errors.Is(err, svcCollab.ErrMessageTooLong),
		errors.Is(err, svcCollab.ErrInvalidRecipient):
		common.RespondError(c, http.StatusBadRequest, err.Error())
	default:
		log.Errorf("[Collab] Failed to %s: %v", action, err)
		common.RespondError(c, http.StatusInternalServerError, "Failed to "+action)
	}
}
