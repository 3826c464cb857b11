package stories

import (
	"errors"
	"net/http"

	"github.com/anoixa/colab/api/common"
	artworksHandler "github.com/anoixa/colab/api/handler/artworks"
	"github.com/anoixa/colab/api/middleware"
	svcArtworks "github.com/anoixa/colab/internal/artworks"
	"github.com/anoixa/colab/internal/media"
	"github.com/gin-gonic/gin"
	log "github.com/sirupsen/logrus"
)

type createStoryRequest struct {
	Title         string `json:"title" binding:"max=255"`
	CoverImage    string `json:"coverImage"`
	NumberOfPages int    `json:"numberOfPages" binding:"min=0"`
}

// ListStoriesHandler GET /api/stories
func (h *Handler) ListStoriesHandler(c *gin.Context) {
	stories, err := h.artworks.ListStories(c.Request.Context())
	if err != nil {
		log.Errorf("[Stories] Failed to list stories: %v", err)
		common.RespondError(c, http.StatusInternalServerError, "Failed to list stories")
		return
	}
	common.RespondSuccess(c, stories)
}

// CreateStoryHandler POST /api/stories
func (h *Handler) CreateStoryHandler(c *gin.Context) {
	userID, _ := middleware.GetUserID(c)

	var req createStoryRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		common.RespondError(c, http.StatusBadRequest, err.Error())
		return
	}

	story, err := h.artworks.CreateStory(c.Request.Context(), userID, svcArtworks.StoryInput{
		Title:         req.Title,
		CoverImage:    req.CoverImage,
		NumberOfPages: req.NumberOfPages,
	})
	if err != nil {
		artworksHandler.RespondCreateError(c, "story", err)
		return
	}
	common.RespondCreated(c, story)
}

// UploadCoverHandler POST /api/stories/upload，multipart 字段 coverImage
func (h *Handler) UploadCoverHandler(c *gin.Context) {
	fileHeader, err := c.FormFile("coverImage")
	if err != nil {
		common.RespondError(c, http.StatusBadRequest, "coverImage file is required")
		return
	}

	file, err := fileHeader.Open()
	if err != nil {
		common.RespondError(c, http.StatusBadRequest, "Failed to read uploaded file")
		return
	}
	defer file.Close()

	upload, err := h.media.UploadImage(c.Request.Context(), media.KindCover, file)
	if err != nil {
		switch {
		case errors.Is(err, media.ErrEmpty):
			common.RespondError(c, http.StatusBadRequest, err.Error())
		case errors.Is(err, media.ErrUnsupportedType):
			common.RespondError(c, http.StatusUnsupportedMediaType, err.Error())
		case errors.Is(err, media.ErrTooLarge):
			common.RespondError(c, http.StatusRequestEntityTooLarge, err.Error())
		default:
			log.Errorf("[Stories] Failed to upload cover: %v", err)
			common.RespondError(c, http.StatusInternalServerError, "Failed to upload cover image")
		}
		return
	}

	common.RespondSuccess(c, gin.H{"imageUrl": upload.URL})
}

// NarrationHandler GET /api/stories/:id/narration
func (h *Handler) NarrationHandler(c *gin.Context) {
	storyID, ok := common.ParseUintParam(c, "id")
	if !ok {
		return
	}

	narration, err := h.flipbook.ReadAloud(c.Request.Context(), storyID)
	if err != nil {
		respondPageError(c, "load narration", err)
		return
	}
	common.RespondSuccess(c, narration)
}
