package core

import (
	"context"
	"net/http"
	"time"

	"github.com/anoixa/colab/cache"
	"github.com/anoixa/colab/config"
	"github.com/anoixa/colab/database"
	"github.com/anoixa/colab/storage"
	"github.com/gin-gonic/gin"
)

var startTime = time.Now()

const healthCheckTimeout = 3 * time.Second

// HealthHandler 依赖组件健康检查
type HealthHandler struct {
	database database.Provider
	cache    cache.Provider
	storage  storage.Provider
}

func NewHealthHandler(db database.Provider, cacheProvider cache.Provider, storageProvider storage.Provider) *HealthHandler {
	return &HealthHandler{database: db, cache: cacheProvider, storage: storageProvider}
}

// Handle GET /health，任一检查失败返回 503
func (h *HealthHandler) Handle(c *gin.Context) {
	ctx, cancel := context.WithTimeout(c.Request.Context(), healthCheckTimeout)
	defer cancel()

	checks := gin.H{
		"database": checkDatabaseHealth(h.database),
		"cache":    checkCacheHealth(ctx, h.cache),
		"storage":  checkStorageHealth(ctx, h.storage),
	}

	httpStatus := http.StatusOK
	status := "ok"
	for _, result := range checks {
		if result != "ok" {
			httpStatus = http.StatusServiceUnavailable
			status = "degraded"
			break
		}
	}

	c.JSON(httpStatus, gin.H{
		"status":  status,
		"uptime":  time.Since(startTime).Round(time.Second).String(),
		"version": config.Version,
		"checks":  checks,
	})
}

func checkDatabaseHealth(provider database.Provider) string {
	if provider == nil {
		return "not initialized"
	}
	if err := provider.Ping(); err != nil {
		return "unavailable: " + err.Error()
	}
	return "ok"
}

func checkCacheHealth(ctx context.Context, provider cache.Provider) string {
	if provider == nil {
		return "not initialized"
	}
	if err := provider.Set(ctx, "health:probe", startTime.Unix(), 10*time.Second); err != nil {
		return "error: " + err.Error()
	}
	return "ok"
}

func checkStorageHealth(ctx context.Context, provider storage.Provider) string {
	if provider == nil {
		return "not initialized"
	}
	if err := provider.Health(ctx); err != nil {
		return "error: " + err.Error()
	}
	return "ok"
}
