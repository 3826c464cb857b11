package artworks

import (
	"net/http"

	"github.com/anoixa/colab/api/common"
	"github.com/anoixa/colab/api/middleware"
	"github.com/gin-gonic/gin"
	log "github.com/sirupsen/logrus"
)

type createMusicRequest struct {
	SongTitle string `json:"songTitle" binding:"max=255"`
	Content   string `json:"content" binding:"required"`
}

type createSculptureRequest struct {
	Title   string `json:"title" binding:"max=255"`
	Content string `json:"content" binding:"required"`
}

// ListMusicHandler GET /music
func (h *Handler) ListMusicHandler(c *gin.Context) {
	items, err := h.svc.ListMusic(c.Request.Context())
	if err != nil {
		log.Errorf("[Artworks] Failed to list music: %v", err)
		common.RespondError(c, http.StatusInternalServerError, "Failed to list music")
		return
	}
	common.RespondSuccess(c, items)
}

// CreateMusicHandler POST /music
func (h *Handler) CreateMusicHandler(c *gin.Context) {
	userID, _ := middleware.GetUserID(c)

	var req createMusicRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		common.RespondError(c, http.StatusBadRequest, err.Error())
		return
	}

	music, err := h.svc.CreateMusic(c.Request.Context(), userID, req.SongTitle, req.Content)
	if err != nil {
		RespondCreateError(c, "music", err)
		return
	}
	common.RespondCreated(c, music)
}

// ListSculpturesHandler GET /sculpture
func (h *Handler) ListSculpturesHandler(c *gin.Context) {
	items, err := h.svc.ListSculptures(c.Request.Context())
	if err != nil {
		log.Errorf("[Artworks] Failed to list sculptures: %v", err)
		common.RespondError(c, http.StatusInternalServerError, "Failed to list sculptures")
		return
	}
	common.RespondSuccess(c, items)
}

// CreateSculptureHandler POST /sculpture
func (h *Handler) CreateSculptureHandler(c *gin.Context) {
	userID, _ := middleware.GetUserID(c)

	var req createSculptureRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		common.RespondError(c, http.StatusBadRequest, err.Error())
		return
	}

	sculpture, err := h.svc.CreateSculpture(c.Request.Context(), userID, req.Title, req.Content)
	if err != nil {
		RespondCreateError(c, "sculpture", err)
		return
	}
	common.RespondCreated(c, sculpture)
}
