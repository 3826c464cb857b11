package cache

import (
	"context"
	"fmt"
	"time"

	"github.com/anoixa/colab/cache/memory"
	"github.com/anoixa/colab/cache/redis"
	"github.com/anoixa/colab/config"
	goredis "github.com/go-redis/redis/v8"
	log "github.com/sirupsen/logrus"
)

// NewProvider 根据配置创建缓存提供者
// cache_type: memory（默认）| redis
func NewProvider(cfg *config.Config) (Provider, error) {
	switch cfg.CacheType {
	case "", "memory":
		p, err := memory.NewMemory(memory.DefaultConfig())
		if err != nil {
			return nil, fmt.Errorf("failed to create memory cache: %w", err)
		}
		log.Println("[Cache] Using in-memory cache")
		return p, nil

	case "redis":
		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		p, err := redis.NewRedis(ctx, cfg.CacheRedisAddr, cfg.CacheRedisPassword, cfg.CacheRedisDB)
		if err != nil {
			return nil, err
		}
		log.Printf("[Cache] Using redis cache at %s", cfg.CacheRedisAddr)
		return p, nil

	default:
		return nil, fmt.Errorf("unsupported cache type: %s", cfg.CacheType)
	}
}

// RedisClient 如果缓存后端是 redis，返回其客户端
func RedisClient(p Provider) (*goredis.Client, bool) {
	r, ok := p.(*redis.Redis)
	if !ok {
		return nil, false
	}
	return r.Client(), true
}
