package users

import (
	"context"
	"time"

	"github.com/anoixa/colab/cache"
	"github.com/anoixa/colab/database/models"
	log "github.com/sirupsen/logrus"
)

// DefaultCacheTTL 默认缓存过期时间
const DefaultCacheTTL = 5 * time.Minute

// CachedRepository 带缓存的用户仓库装饰器
type CachedRepository struct {
	repo  Store
	cache cache.Provider
	ttl   time.Duration
}

// NewCachedRepository 创建带缓存的用户仓库
func NewCachedRepository(repo Store, cache cache.Provider, ttl time.Duration) *CachedRepository {
	if ttl <= 0 {
		ttl = DefaultCacheTTL
	}
	return &CachedRepository{repo: repo, cache: cache, ttl: ttl}
}

// GetByID 获取用户（带缓存）
func (c *CachedRepository) GetByID(ctx context.Context, id string) (*models.User, error) {
	key := cache.User.BuildID(id)

	var cached models.User
	if err := c.cache.Get(ctx, key, &cached); err == nil {
		return &cached, nil
	}

	user, err := c.repo.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if err := c.cache.Set(ctx, key, user, c.ttl); err != nil {
		log.Printf("[CachedUserRepository] Failed to cache user %s: %v", id, err)
	}
	return user, nil
}

// Upsert 写库后清除缓存
func (c *CachedRepository) Upsert(ctx context.Context, user *models.User) error {
	if err := c.repo.Upsert(ctx, user); err != nil {
		return err
	}
	c.invalidate(ctx, user.ID)
	return nil
}

// EnsureExists 直接透传
func (c *CachedRepository) EnsureExists(ctx context.Context, id string) error {
	return c.repo.EnsureExists(ctx, id)
}

// AddFriend 写库后清除缓存
func (c *CachedRepository) AddFriend(ctx context.Context, userID, friendID string) (*models.User, error) {
	user, err := c.repo.AddFriend(ctx, userID, friendID)
	if err != nil {
		return nil, err
	}
	c.invalidate(ctx, userID)
	return user, nil
}

func (c *CachedRepository) invalidate(ctx context.Context, id string) {
	if err := c.cache.Delete(ctx, cache.User.BuildID(id)); err != nil {
		log.Printf("[CachedUserRepository] Failed to invalidate user %s: %v", id, err)
	}
}
