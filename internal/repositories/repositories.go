package repositories

import (
	"time"

	"github.com/anoixa/colab/cache"
	"github.com/anoixa/colab/database"
	"github.com/anoixa/colab/database/repo/artworks"
	"github.com/anoixa/colab/database/repo/collaborations"
	"github.com/anoixa/colab/database/repo/messages"
	"github.com/anoixa/colab/database/repo/stories"
	"github.com/anoixa/colab/database/repo/users"
)

// Repositories 集中管理所有数据库仓库
type Repositories struct {
	Users          *users.Repository
	CachedUsers    users.Store
	Artworks       *artworks.Repository
	Stories        *stories.Repository
	Collaborations *collaborations.Repository
	Messages       *messages.Repository
}

// NewRepositories 创建所有仓库实例
// cacheProvider 为 nil 时用户查询直接访问数据库
func NewRepositories(provider database.Provider, cacheProvider cache.Provider, userTTL time.Duration) *Repositories {
	userRepo := users.NewRepository(provider)

	var cachedUsers users.Store = userRepo
	if cacheProvider != nil {
		cachedUsers = users.NewCachedRepository(userRepo, cacheProvider, userTTL)
	}

	return &Repositories{
		Users:          userRepo,
		CachedUsers:    cachedUsers,
		Artworks:       artworks.NewRepository(provider),
		Stories:        stories.NewRepository(provider),
		Collaborations: collaborations.NewRepository(provider),
		Messages:       messages.NewRepository(provider),
	}
}
