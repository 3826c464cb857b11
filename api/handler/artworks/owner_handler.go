package artworks

import (
	"errors"
	"net/http"

	"github.com/anoixa/colab/api/common"
	"github.com/anoixa/colab/database/repo/users"
	svcArtworks "github.com/anoixa/colab/internal/artworks"
	"github.com/gin-gonic/gin"
	log "github.com/sirupsen/logrus"
)

// GetOwnerHandler GET /artwork/byId/:id 返回作品的作者
func (h *Handler) GetOwnerHandler(c *gin.Context) {
	artworkID, ok := common.ParseUintParam(c, "id")
	if !ok {
		return
	}

	user, err := h.svc.OwnerByArtwork(c.Request.Context(), artworkID)
	if err != nil {
		switch {
		case errors.Is(err, svcArtworks.ErrArtworkNotFound):
			common.RespondError(c, http.StatusNotFound, "Artwork not found")
		case errors.Is(err, users.ErrUserNotFound):
			common.RespondError(c, http.StatusNotFound, "Owner not found")
		default:
			log.Errorf("[Artworks] Failed to get owner of artwork %d: %v", artworkID, err)
			common.RespondError(c, http.StatusInternalServerError, "Failed to get artwork owner")
		}
		return
	}
	common.RespondSuccess(c, user)
}
