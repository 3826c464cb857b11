package media

import (
	"errors"
	"net/http"
	"path"
	"strings"
	"time"

	"github.com/anoixa/colab/api/common"
	svcMedia "github.com/anoixa/colab/internal/media"
	"github.com/anoixa/colab/storage"
	"github.com/gin-gonic/gin"
	log "github.com/sirupsen/logrus"
)

// Handler 媒体文件处理器
type Handler struct {
	svc *svcMedia.Service
}

// NewHandler 创建媒体处理器
func NewHandler(svc *svcMedia.Service) *Handler {
	return &Handler{svc: svc}
}

// ServeHandler GET /media/*path
// 存储路径带随机文件名，内容不会变化，可以长期缓存
func (h *Handler) ServeHandler(c *gin.Context) {
	storagePath := strings.TrimPrefix(c.Param("path"), "/")
	if !storage.IsValidStoragePath(storagePath) {
		common.RespondError(c, http.StatusBadRequest, "Invalid media path")
		return
	}

	rs, mimeType, err := h.svc.Open(c.Request.Context(), storagePath)
	if err != nil {
		if errors.Is(err, svcMedia.ErrNotFound) {
			common.RespondError(c, http.StatusNotFound, "Media not found")
			return
		}
		log.Errorf("[Media] Failed to open %s: %v", storagePath, err)
		common.RespondError(c, http.StatusInternalServerError, "Failed to read media")
		return
	}
	if closer, ok := rs.(interface{ Close() error }); ok {
		defer closer.Close()
	}

	c.Header("Content-Type", mimeType)
	c.Header("Cache-Control", "public, max-age=31536000, immutable")
	c.Header("X-Content-Type-Options", "nosniff")
	http.ServeContent(c.Writer, c.Request, path.Base(storagePath), time.Time{}, rs)
}
