package core

import (
	"net/http"
	"time"

	"github.com/anoixa/colab/api/middleware"
	"github.com/anoixa/colab/config"
	"github.com/anoixa/colab/internal/app"
	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
)

// NewRouterDependencies 从容器收集路由依赖
func NewRouterDependencies(container *app.Container) *RouterDependencies {
	deps := &RouterDependencies{
		Config:   container.GetConfig(),
		Database: container.GetDatabaseProvider(),
		Cache:    container.GetCacheProvider(),
		Storage:  container.GetStorageProvider(),
		Media:    container.Media,
		Artworks: container.Artworks,
		Flipbook: container.Flipbook,
		Feed:     container.Feed,
		Identity: container.Identity,
		Collab:   container.Collab,
		Hub:      container.Hub,
		Events:   container.GetPublisher(),
	}
	// 避免把 nil 指针装进接口
	if container.Verifier != nil {
		deps.Verifier = container.Verifier
	}
	return deps
}

// 启动gin
func setupRouter(deps *RouterDependencies) (*gin.Engine, func()) {
	cfg := deps.Config
	router := gin.New()

	// 全局中间件
	// 仅在开发版本时启用 gin 日志
	if config.IsDevelopment() {
		router.Use(gin.Logger())
	} else {
		gin.SetMode(gin.ReleaseMode)
	}
	router.Use(gin.Recovery())

	allowOrigins := []string{cfg.BaseURL()}
	if cfg.RelayAllowedOrigin != "" && cfg.RelayAllowedOrigin != "*" {
		allowOrigins = append(allowOrigins, cfg.RelayAllowedOrigin)
	}
	router.Use(cors.New(cors.Config{
		AllowOrigins:     allowOrigins,
		AllowMethods:     []string{"GET", "POST", "PUT", "PATCH", "DELETE", "HEAD", "OPTIONS"},
		AllowHeaders:     []string{"Origin", "Content-Length", "Content-Type", "Authorization", middleware.HeaderUserID, middleware.HeaderRequestID},
		ExposeHeaders:    []string{middleware.HeaderRequestID},
		AllowCredentials: true,
		MaxAge:           12 * time.Hour,
	}))

	_ = router.SetTrustedProxies(nil)

	// 限制上传文件大小
	uploadLimit := int64(cfg.UploadMaxSizeMB) << 20
	if uploadLimit <= 0 {
		uploadLimit = 20 << 20
	}
	router.MaxMultipartMemory = uploadLimit

	// 并发限制
	concurrencyLimiter := middleware.NewConcurrencyLimiter(cfg.ServerMaxInFlight)
	router.Use(concurrencyLimiter.Middleware())

	// 请求体大小限制（data URL 经过 base64 编码会膨胀约 1/3）
	router.Use(middleware.BodyLimit(uploadLimit*2 + 1<<20))

	// 请求ID追踪
	router.Use(middleware.RequestID())

	// 基础监控指标
	router.Use(middleware.Metrics())

	// 速率限制
	deps.APIRateLimiter = middleware.NewIPRateLimiter(cfg.RateLimitApiRPS, cfg.RateLimitApiBurst, cfg.RateLimitExpireTime)
	deps.WriteRateLimiter = middleware.NewUserRateLimiter(cfg.RateLimitWriteRPS, cfg.RateLimitWriteBurst)
	cleanup := func() {
		deps.APIRateLimiter.StopCleanup()
		deps.WriteRateLimiter.StopCleanup()
	}

	RegisterRoutes(router, deps)

	return router, cleanup
}

// StartServer 创建 http.Server
// websocket 连接不受 WriteTimeout 影响，升级后由中继自己管理读写超时
func StartServer(deps *RouterDependencies) (*http.Server, func()) {
	cfg := deps.Config
	router, clean := setupRouter(deps)

	srv := &http.Server{
		Addr:         cfg.Addr(),
		Handler:      router,
		ReadTimeout:  cfg.ServerReadTimeout,
		WriteTimeout: cfg.ServerWriteTimeout,
		IdleTimeout:  cfg.ServerIdleTimeout,
	}

	return srv, clean
}
