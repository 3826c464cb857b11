package core

import (
	"net/http"

	"github.com/anoixa/colab/api/common"
	handlerArtworks "github.com/anoixa/colab/api/handler/artworks"
	handlerCollab "github.com/anoixa/colab/api/handler/collab"
	handlerFeed "github.com/anoixa/colab/api/handler/feed"
	handlerMedia "github.com/anoixa/colab/api/handler/media"
	handlerRelay "github.com/anoixa/colab/api/handler/relay"
	handlerStories "github.com/anoixa/colab/api/handler/stories"
	handlerUsers "github.com/anoixa/colab/api/handler/users"
	"github.com/anoixa/colab/api/middleware"
	"github.com/anoixa/colab/cache"
	"github.com/anoixa/colab/config"
	"github.com/anoixa/colab/database"
	"github.com/anoixa/colab/internal/artworks"
	"github.com/anoixa/colab/internal/collab"
	"github.com/anoixa/colab/internal/events"
	"github.com/anoixa/colab/internal/feed"
	"github.com/anoixa/colab/internal/flipbook"
	"github.com/anoixa/colab/internal/identity"
	"github.com/anoixa/colab/internal/media"
	"github.com/anoixa/colab/internal/relay"
	"github.com/anoixa/colab/internal/worker"
	"github.com/anoixa/colab/storage"
	"github.com/gin-gonic/gin"
)

// RouterDependencies 路由注册依赖
type RouterDependencies struct {
	Config   *config.Config
	Database database.Provider
	Cache    cache.Provider
	Storage  storage.Provider
	Verifier middleware.TokenVerifier

	Media    *media.Service
	Artworks *artworks.Service
	Flipbook *flipbook.Service
	Feed     *feed.Composer
	Identity *identity.Service
	Collab   *collab.Service
	Hub      *relay.Hub
	Events   events.Publisher

	APIRateLimiter   *middleware.IPRateLimiter
	WriteRateLimiter *middleware.UserRateLimiter
}

// RegisterRoutes 注册所有路由
func RegisterRoutes(router *gin.Engine, deps *RouterDependencies) {
	// 基础路由
	registerBasicRoutes(router, deps)

	// 作品与媒体，沿用前端已有的根路径
	registerArtworkRoutes(router, deps)

	// API 路由
	registerAPIRoutes(router, deps)
}

func (deps *RouterDependencies) identity() gin.HandlerFunc {
	return middleware.Identity(deps.Verifier, deps.Config.AuthRequired)
}

// registerBasicRoutes 注册基础路由
func registerBasicRoutes(router *gin.Engine, deps *RouterDependencies) {
	healthHandler := NewHealthHandler(deps.Database, deps.Cache, deps.Storage)
	router.GET("/health", healthHandler.Handle)

	router.GET("/version", func(context *gin.Context) {
		common.RespondSuccess(context, gin.H{
			"version": config.Version,
			"commit":  config.CommitHash,
		})
	})

	router.GET("/metrics", func(context *gin.Context) {
		metrics := middleware.GetMetrics()
		if deps.Hub != nil {
			metrics["relay"] = deps.Hub.Stats()
		}
		// 只有 Kafka 发布者有投递队列
		if q, ok := deps.Events.(interface{ Stats() worker.Stats }); ok {
			metrics["events"] = q.Stats()
		}
		context.JSON(http.StatusOK, metrics)
	})
}

// registerArtworkRoutes 注册作品、媒体和实时中继路由
func registerArtworkRoutes(router *gin.Engine, deps *RouterDependencies) {
	artworkHandler := handlerArtworks.NewHandler(deps.Artworks)
	mediaHandler := handlerMedia.NewHandler(deps.Media)
	relayHandler := handlerRelay.NewHandler(deps.Hub)

	public := router.Group("")
	public.Use(deps.APIRateLimiter.Middleware())
	public.Use(deps.identity())
	public.Use(deps.WriteRateLimiter.Middleware())
	{
		public.GET("/visualart", artworkHandler.ListVisualArtHandler)                              // GET /visualart
		public.POST("/visualart", middleware.RequireUser(), artworkHandler.CreateVisualArtHandler) // POST /visualart
		public.GET("/music", artworkHandler.ListMusicHandler)                                      // GET /music
		public.POST("/music", middleware.RequireUser(), artworkHandler.CreateMusicHandler)         // POST /music
		public.GET("/sculpture", artworkHandler.ListSculpturesHandler)                             // GET /sculpture
		public.POST("/sculpture", middleware.RequireUser(), artworkHandler.CreateSculptureHandler) // POST /sculpture
		public.GET("/artwork/byId/:id", artworkHandler.GetOwnerHandler)                            // GET /artwork/byId/{id}

		public.GET("/media/*path", mediaHandler.ServeHandler) // GET /media/{kind}/{yyyy}/{mm}/{dd}/{file}
		public.GET("/ws", relayHandler.ServeWSHandler)        // GET /ws
	}
}

// registerAPIRoutes 注册 API 路由
func registerAPIRoutes(router *gin.Engine, deps *RouterDependencies) {
	storyHandler := handlerStories.NewHandler(deps.Artworks, deps.Flipbook, deps.Media)
	feedHandler := handlerFeed.NewHandler(deps.Feed)
	userHandler := handlerUsers.NewHandler(deps.Identity)
	collabHandler := handlerCollab.NewHandler(deps.Collab)
	relayHandler := handlerRelay.NewHandler(deps.Hub)

	apiGroup := router.Group("/api")
	apiGroup.Use(func(context *gin.Context) { // 所有API禁止缓存
		context.Header("Cache-Control", "no-store")
		context.Next()
	})
	apiGroup.Use(deps.APIRateLimiter.Middleware())
	apiGroup.Use(deps.identity())
	apiGroup.Use(deps.WriteRateLimiter.Middleware())
	{
		apiGroup.GET("/feed", feedHandler.GetFeedHandler) // GET /api/feed?limit=

		storiesGroup := apiGroup.Group("/stories")
		{
			storiesGroup.GET("", storyHandler.ListStoriesHandler)                                          // GET /api/stories
			storiesGroup.POST("", middleware.RequireUser(), storyHandler.CreateStoryHandler)               // POST /api/stories
			storiesGroup.POST("/upload", middleware.RequireUser(), storyHandler.UploadCoverHandler)        // POST /api/stories/upload
			storiesGroup.GET("/:id/narration", storyHandler.NarrationHandler)                              // GET /api/stories/{id}/narration
			storiesGroup.PUT("/:id/pages/:number", middleware.RequireUser(), storyHandler.SavePageHandler) // PUT /api/stories/{id}/pages/{number}
		}

		pagesGroup := apiGroup.Group("/pages")
		{
			pagesGroup.GET("", storyHandler.ListPagesHandler)                                // GET /api/pages?storyId=
			pagesGroup.POST("", middleware.RequireUser(), storyHandler.AddPageHandler)       // POST /api/pages
			pagesGroup.PUT("/:id", middleware.RequireUser(), storyHandler.UpdatePageHandler) // PUT /api/pages/{id}
		}

		usersGroup := apiGroup.Group("/users")
		{
			usersGroup.POST("/sync", middleware.RequireUser(), userHandler.SyncHandler)             // POST /api/users/sync
			usersGroup.GET("/:id", userHandler.GetUserHandler)                                      // GET /api/users/{id}
			usersGroup.POST("/:id/friends", middleware.RequireUser(), userHandler.AddFriendHandler) // POST /api/users/{id}/friends
		}

		collabGroup := apiGroup.Group("/collaborations")
		collabGroup.Use(middleware.RequireUser())
		{
			collabGroup.POST("", collabHandler.StartHandler)              // POST /api/collaborations
			collabGroup.POST("/:id/join", collabHandler.JoinHandler)      // POST /api/collaborations/{id}/join
			collabGroup.GET("/:id/members", collabHandler.MembersHandler) // GET /api/collaborations/{id}/members
		}

		messagesGroup := apiGroup.Group("/messages")
		messagesGroup.Use(middleware.RequireUser())
		{
			messagesGroup.POST("", collabHandler.SendMessageHandler) // POST /api/messages
			messagesGroup.GET("", collabHandler.ConversationHandler) // GET /api/messages?with=
		}

		apiGroup.GET("/rooms/:id/peers", relayHandler.PeersHandler) // GET /api/rooms/{id}/peers
	}
}
