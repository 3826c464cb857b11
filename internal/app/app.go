package app

import (
	"context"
	"fmt"

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
	"github.com/anoixa/colab/internal/repositories"
	"github.com/anoixa/colab/storage"
	log "github.com/sirupsen/logrus"
)

// Container 依赖注入容器 - 管理所有服务的生命周期
type Container struct {
	config          *config.Config
	databaseFactory *database.Factory
	cacheProvider   cache.Provider
	storageProvider storage.Provider
	publisher       events.Publisher

	Repositories *repositories.Repositories
	Media        *media.Service
	Artworks     *artworks.Service
	Flipbook     *flipbook.Service
	Feed         *feed.Composer
	Identity     *identity.Service
	Verifier     *identity.Verifier // 未配置 auth_jwt_secret 时为 nil
	Collab       *collab.Service
	Hub          *relay.Hub
}

// NewContainer 创建新的依赖注入容器
func NewContainer(cfg *config.Config) *Container {
	return &Container{
		config: cfg,
	}
}

// Init 初始化所有服务
func (c *Container) Init() error {
	log.Println("[Container] Initializing...")

	if err := c.InitDatabase(); err != nil {
		return err
	}

	cacheProvider, err := cache.NewProvider(c.config)
	if err != nil {
		return fmt.Errorf("failed to initialize cache: %w", err)
	}
	c.cacheProvider = cacheProvider

	storageProvider, err := storage.NewProvider(c.config)
	if err != nil {
		return fmt.Errorf("failed to initialize storage: %w", err)
	}
	c.storageProvider = storageProvider

	c.publisher = events.NewPublisher(c.config)

	if err := c.InitServices(); err != nil {
		return err
	}

	log.Println("[Container] Initialized successfully")
	return nil
}

// InitDatabase 只初始化数据库，迁移命令也会用到
func (c *Container) InitDatabase() error {
	factory, err := database.NewFactory(c.config)
	if err != nil {
		return fmt.Errorf("failed to initialize database factory: %w", err)
	}
	c.databaseFactory = factory

	if err := factory.AutoMigrate(); err != nil {
		return fmt.Errorf("failed to migrate database: %w", err)
	}
	log.Println("[Container] Database initialized")
	return nil
}

// InitServices 组装仓库和业务服务
func (c *Container) InitServices() error {
	cfg := c.config
	c.Repositories = repositories.NewRepositories(c.databaseFactory.GetProvider(), c.cacheProvider, cfg.CacheOwnerTTL)

	c.Media = media.NewService(c.storageProvider, media.Config{
		MaxSizeBytes: int64(cfg.UploadMaxSizeMB) << 20,
		BaseURL:      cfg.MediaBaseURL(),
	})
	c.Artworks = artworks.NewService(c.Repositories.Artworks, c.Repositories.CachedUsers, c.Media, c.cacheProvider, cfg.CacheOwnerTTL, c.publisher)
	c.Flipbook = flipbook.NewService(c.Repositories.Stories, c.publisher)
	c.Feed = feed.NewComposer(c.Artworks, c.Artworks, c.Repositories.Stories, feed.Config{
		LookupConcurrency: cfg.FeedLookupConcurrency,
		LookupTimeout:     cfg.FeedLookupTimeout,
	})
	c.Identity = identity.NewService(c.Repositories.CachedUsers)
	c.Collab = collab.NewService(c.Repositories.Collaborations, c.Repositories.Messages, c.Repositories.CachedUsers, c.publisher)

	if cfg.AuthJWTSecret != "" {
		verifier, err := identity.NewVerifier(cfg.AuthJWTSecret, cfg.AuthIssuer)
		if err != nil {
			return fmt.Errorf("failed to initialize token verifier: %w", err)
		}
		c.Verifier = verifier
	} else if cfg.AuthRequired {
		return fmt.Errorf("auth_jwt_secret is required when auth_required is true")
	}

	var broker relay.Broker
	if client, ok := cache.RedisClient(c.cacheProvider); ok {
		broker = relay.NewRedisBroker(client, cfg.RelayRedisChannel)
	}
	c.Hub = relay.NewHub(relay.Config{
		SendBuffer:      cfg.RelaySendBuffer,
		MaxMessageBytes: cfg.RelayMaxMessageBytes(),
		PingPeriod:      cfg.RelayPingPeriod,
		AllowedOrigin:   cfg.RelayAllowedOrigin,
	}, broker)

	log.Println("[Container] Services initialized")
	return nil
}

// RunBackground 启动后台任务，ctx 取消时退出
func (c *Container) RunBackground(ctx context.Context) {
	go func() {
		if err := c.Hub.Run(ctx); err != nil && ctx.Err() == nil {
			log.Errorf("[Relay] hub stopped: %v", err)
		}
	}()
}

// GetConfig 获取配置
func (c *Container) GetConfig() *config.Config {
	return c.config
}

// GetDatabaseProvider 获取数据库提供者
func (c *Container) GetDatabaseProvider() database.Provider {
	if c.databaseFactory == nil {
		return nil
	}
	return c.databaseFactory.GetProvider()
}

// GetDatabaseFactory 获取数据库工厂
func (c *Container) GetDatabaseFactory() *database.Factory {
	return c.databaseFactory
}

// GetCacheProvider 获取缓存提供者
func (c *Container) GetCacheProvider() cache.Provider {
	return c.cacheProvider
}

// GetStorageProvider 获取存储提供者
func (c *Container) GetStorageProvider() storage.Provider {
	return c.storageProvider
}

// GetPublisher 获取事件发布者
func (c *Container) GetPublisher() events.Publisher {
	return c.publisher
}

// Close 关闭所有服务
func (c *Container) Close() error {
	log.Println("[Container] Closing...")

	if c.publisher != nil {
		if err := c.publisher.Close(); err != nil {
			log.Warnf("[Container] Error closing event publisher: %v", err)
		}
	}

	if c.cacheProvider != nil {
		if err := c.cacheProvider.Close(); err != nil {
			log.Warnf("[Container] Error closing cache: %v", err)
		}
	}

	if c.databaseFactory != nil {
		if err := c.databaseFactory.Close(); err != nil {
			log.Warnf("[Container] Error closing database factory: %v", err)
		}
	}

	log.Println("[Container] Closed")
	return nil
}
