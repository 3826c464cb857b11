package relay

import (
	"net/http"
	"strings"

	"github.com/anoixa/colab/api/common"
	"github.com/anoixa/colab/api/middleware"
	svcRelay "github.com/anoixa/colab/internal/relay"
	"github.com/anoixa/colab/utils"
	"github.com/gin-gonic/gin"
	log "github.com/sirupsen/logrus"
)

// Handler 实时中继处理器
type Handler struct {
	hub *svcRelay.Hub
}

func NewHandler(hub *svcRelay.Hub) *Handler {
	return &Handler{hub: hub}
}

// ServeWSHandler GET /ws
// 匿名连接也允许，音频房间的参与者使用自己生成的 peer id
func (h *Handler) ServeWSHandler(c *gin.Context) {
	userID, _ := middleware.GetUserID(c)
	if err := h.hub.ServeWS(c.Writer, c.Request, userID); err != nil {
		// Upgrade 失败时已经写回了 HTTP 错误
		log.Debugf("[Relay] Websocket upgrade failed: %s", utils.SanitizeLogMessage(err.Error()))
	}
}

// PeersHandler GET /api/rooms/:id/peers 供后加入的参与者发起呼叫
func (h *Handler) PeersHandler(c *gin.Context) {
	roomID := strings.TrimSpace(c.Param("id"))
	if roomID == "" {
		common.RespondError(c, http.StatusBadRequest, "Invalid room id")
		return
	}
	common.RespondSuccess(c, gin.H{
		"roomId": roomID,
		"peers":  h.hub.Peers(roomID),
	})
}
