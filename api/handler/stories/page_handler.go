package stories

import (
	"net/http"
	"strconv"

	"github.com/anoixa/colab/api/common"
	"github.com/gin-gonic/gin"
)

type addPageRequest struct {
	StoryID uint   `json:"storyId" binding:"required"`
	Content string `json:"content"`
}

type pageContentRequest struct {
	Content *string `json:"content" binding:"required"`
}

// ListPagesHandler GET /api/pages?storyId=
func (h *Handler) ListPagesHandler(c *gin.Context) {
	storyID, err := strconv.ParseUint(c.Query("storyId"), 10, 64)
	if err != nil || storyID == 0 {
		common.RespondError(c, http.StatusBadRequest, "Invalid storyId")
		return
	}

	pages, err := h.flipbook.ListPages(c.Request.Context(), uint(storyID))
	if err != nil {
		respondPageError(c, "list pages", err)
		return
	}
	common.RespondSuccess(c, pages)
}

// AddPageHandler POST /api/pages 在绘本末尾追加一页
func (h *Handler) AddPageHandler(c *gin.Context) {
	var req addPageRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		common.RespondError(c, http.StatusBadRequest, err.Error())
		return
	}

	page, err := h.flipbook.AddPage(c.Request.Context(), req.StoryID, req.Content)
	if err != nil {
		respondPageError(c, "add page", err)
		return
	}
	common.RespondCreated(c, page)
}

// UpdatePageHandler PUT /api/pages/:id
func (h *Handler) UpdatePageHandler(c *gin.Context) {
	pageID, ok := common.ParseUintParam(c, "id")
	if !ok {
		return
	}

	var req pageContentRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		common.RespondError(c, http.StatusBadRequest, err.Error())
		return
	}

	page, err := h.flipbook.UpdatePage(c.Request.Context(), pageID, *req.Content)
	if err != nil {
		respondPageError(c, "update page", err)
		return
	}
	common.RespondSuccess(c, page)
}

// SavePageHandler PUT /api/stories/:id/pages/:number
// 只更新已有页面的内容，返回刷新后的完整页面列表
func (h *Handler) SavePageHandler(c *gin.Context) {
	storyID, ok := common.ParseUintParam(c, "id")
	if !ok {
		return
	}
	pageNumber, err := strconv.Atoi(c.Param("number"))
	if err != nil {
		common.RespondError(c, http.StatusBadRequest, "Invalid page number")
		return
	}

	var req pageContentRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		common.RespondError(c, http.StatusBadRequest, err.Error())
		return
	}

	pages, err := h.flipbook.SavePage(c.Request.Context(), storyID, pageNumber, *req.Content)
	if err != nil {
		respondPageError(c, "save page", err)
		return
	}
	common.RespondSuccess(c, pages)
}
