package stories

import (
	"errors"
	"net/http"

	"github.com/anoixa/colab/api/common"
	svcArtworks "github.com/anoixa/colab/internal/artworks"
	"github.com/anoixa/colab/internal/flipbook"
	"github.com/anoixa/colab/internal/media"
	"github.com/gin-gonic/gin"
	log "github.com/sirupsen/logrus"
)

// Handler 绘本与页面处理器
type Handler struct {
	artworks *svcArtworks.Service
	flipbook *flipbook.Service
	media    *media.Service
}

// NewHandler 创建绘本处理器
func NewHandler(artworks *svcArtworks.Service, flipbook *flipbook.Service, media *media.Service) *Handler {
	return &Handler{
		artworks: artworks,
		flipbook: flipbook,
		media:    media,
	}
}

func respondPageError(c *gin.Context, action string, err error) {
	switch {
	case errors.Is(err, flipbook.ErrStoryNotFound):
		common.RespondError(c, http.StatusNotFound, "Story not found")
	case errors.Is(err, flipbook.ErrPageNotFound):
		common.RespondError(c, http.StatusNotFound, "Page not found")
	case errors.Is(err, flipbook.ErrContentTooLong), errors.Is(err, flipbook.ErrInvalidPage):
		common.RespondError(c, http.StatusBadRequest, err.Error())
	default:
		log.Errorf("[Stories] Failed to %s: %v", action, err)
		common.RespondError(c, http.StatusInternalServerError, "Failed to "+action)
	}
}
