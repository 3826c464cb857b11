package artworks

import (
	"errors"
	"net/http"

	"github.com/anoixa/colab/api/common"
	svcArtworks "github.com/anoixa/colab/internal/artworks"
	"github.com/anoixa/colab/internal/media"
	"github.com/gin-gonic/gin"
	log "github.com/sirupsen/logrus"
)

// Handler 作品处理器
type Handler struct {
	svc *svcArtworks.Service
}

// NewHandler 创建新的作品处理器
func NewHandler(svc *svcArtworks.Service) *Handler {
	return &Handler{svc: svc}
}

// RespondCreateError 把创建作品时的错误映射为状态码，故事处理器也会用到
func RespondCreateError(c *gin.Context, what string, err error) {
	switch {
	case errors.Is(err, svcArtworks.ErrContentRequired),
		errors.Is(err, svcArtworks.ErrInvalidPages),
		errors.Is(err, media.ErrInvalidDataURL),
		errors.Is(err, media.ErrEmpty):
		common.RespondError(c, http.StatusBadRequest, err.Error())
	case errors.Is(err, media.ErrUnsupportedType):
		common.RespondError(c, http.StatusUnsupportedMediaType, err.Error())
	case errors.Is(err, media.ErrTooLarge):
		common.RespondError(c, http.StatusRequestEntityTooLarge, err.Error())
	default:
		log.Errorf("[Artworks] Failed to create %s: %v", what, err)
		common.RespondError(c, http.StatusInternalServerError, "Failed to create "+what)
	}
}
