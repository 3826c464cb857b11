package artworks

import (
	"net/http"

	"github.com/anoixa/colab/api/common"
	"github.com/anoixa/colab/api/middleware"
	"github.com/gin-gonic/gin"
	log "github.com/sirupsen/logrus"
)

type createVisualArtRequest struct {
	Title string `json:"title" binding:"max=255"`
	Art   string `json:"art" binding:"required"`
}

// ListVisualArtHandler GET /visualart
func (h *Handler) ListVisualArtHandler(c *gin.Context) {
	items, err := h.svc.ListVisualArt(c.Request.Context())
	if err != nil {
		log.Errorf("[Artworks] Failed to list visual art: %v", err)
		common.RespondError(c, http.StatusInternalServerError, "Failed to list visual art")
		return
	}
	common.RespondSuccess(c, items)
}

// CreateVisualArtHandler POST /visualart，art 为画布导出的 data URL
func (h *Handler) CreateVisualArtHandler(c *gin.Context) {
	userID, _ := middleware.GetUserID(c)

	var req createVisualArtRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		common.RespondError(c, http.StatusBadRequest, err.Error())
		return
	}

	art, err := h.svc.CreateVisualArt(c.Request.Context(), userID, req.Title, req.Art)
	if err != nil {
		RespondCreateError(c, "visual art", err)
		return
	}
	common.RespondCreated(c, art)
}
