package feed

import (
	"net/http"
	"strconv"

	"github.com/anoixa/colab/api/common"
	svcFeed "github.com/anoixa/colab/internal/feed"
	"github.com/gin-gonic/gin"
	log "github.com/sirupsen/logrus"
)

// MaxLimit 单次请求允许的最大卡片数
const MaxLimit = 500

// Handler 动态流处理器
type Handler struct {
	composer *svcFeed.Composer
}

func NewHandler(composer *svcFeed.Composer) *Handler {
	return &Handler{composer: composer}
}

// GetFeedHandler GET /api/feed?limit=
func (h *Handler) GetFeedHandler(c *gin.Context) {
	limit := 0
	if raw := c.Query("limit"); raw != "" {
		n, err := strconv.Atoi(raw)
		if err != nil || n < 0 || n > MaxLimit {
			common.RespondError(c, http.StatusBadRequest, "Invalid limit")
			return
		}
		limit = n
	}

	cards, err := h.composer.Compose(c.Request.Context(), limit)
	if err != nil {
		log.Errorf("[Feed] Failed to compose feed: %v", err)
		common.RespondError(c, http.StatusInternalServerError, "Failed to load feed")
		return
	}
	common.RespondSuccess(c, cards)
}
