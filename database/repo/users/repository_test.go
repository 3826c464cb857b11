package users

import (
	"context"
	"testing"

	"github.com/anoixa/colab/cache/memory"
	"github.com/anoixa/colab/database/dbtest"
	"github.com/anoixa/colab/database/models"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRepository_UpsertKeepsFriends(t *testing.T) {
	repo := NewRepository(dbtest.NewProvider(t))
	ctx := context.Background()

	require.NoError(t, repo.Upsert(ctx, &models.User{ID: "a", Name: "Ada"}))
	require.NoError(t, repo.Upsert(ctx, &models.User{ID: "b", Name: "Bo"}))
	_, err := repo.AddFriend(ctx, "a", "b")
	require.NoError(t, err)

	// 再次登录刷新资料，不应清空好友
	require.NoError(t, repo.Upsert(ctx, &models.User{ID: "a", Name: "Ada L.", Picture: "p.png"}))

	got, err := repo.GetByID(ctx, "a")
	require.NoError(t, err)
	assert.Equal(t, "Ada L.", got.Name)
	assert.Equal(t, "p.png", got.Picture)
	assert.Equal(t, []string{"b"}, got.Friends)
}

func TestRepository_AddFriend(t *testing.T) {
	repo := NewRepository(dbtest.NewProvider(t))
	ctx := context.Background()
	require.NoError(t, repo.Upsert(ctx, &models.User{ID: "a"}))
	require.NoError(t, repo.Upsert(ctx, &models.User{ID: "b"}))

	u, err := repo.AddFriend(ctx, "a", "b")
	require.NoError(t, err)
	assert.True(t, u.HasFriend("b"))

	// 幂等
	u, err = repo.AddFriend(ctx, "a", "b")
	require.NoError(t, err)
	assert.Len(t, u.Friends, 1)

	_, err = repo.AddFriend(ctx, "a", "ghost")
	assert.ErrorIs(t, err, ErrUserNotFound)
	_, err = repo.AddFriend(ctx, "ghost", "a")
	assert.ErrorIs(t, err, ErrUserNotFound)
}

func TestRepository_EnsureExists(t *testing.T) {
	repo := NewRepository(dbtest.NewProvider(t))
	ctx := context.Background()

	require.NoError(t, repo.Upsert(ctx, &models.User{ID: "a", Name: "Ada"}))
	require.NoError(t, repo.EnsureExists(ctx, "a"))
	require.NoError(t, repo.EnsureExists(ctx, "new"))

	got, err := repo.GetByID(ctx, "a")
	require.NoError(t, err)
	assert.Equal(t, "Ada", got.Name)

	_, err = repo.GetByID(ctx, "new")
	assert.NoError(t, err)

	_, err = repo.GetByID(ctx, "missing")
	assert.ErrorIs(t, err, ErrUserNotFound)
}

func TestCachedRepository(t *testing.T) {
	repo := NewRepository(dbtest.NewProvider(t))
	mem, err := memory.NewMemory(memory.DefaultConfig())
	require.NoError(t, err)
	defer mem.Close()

	cached := NewCachedRepository(repo, mem, 0)
	ctx := context.Background()

	require.NoError(t, cached.Upsert(ctx, &models.User{ID: "a", Name: "Ada"}))
	got, err := cached.GetByID(ctx, "a")
	require.NoError(t, err)
	assert.Equal(t, "Ada", got.Name)

	// 绕过装饰器改库，缓存仍返回旧值
	require.NoError(t, repo.Upsert(ctx, &models.User{ID: "a", Name: "Changed"}))
	got, err = cached.GetByID(ctx, "a")
	require.NoError(t, err)
	assert.Equal(t, "Ada", got.Name)

	// 经过装饰器写入会失效缓存
	require.NoError(t, cached.Upsert(ctx, &models.User{ID: "a", Name: "Ada 2"}))
	got, err = cached.GetByID(ctx, "a")
	require.NoError(t, err)
	assert.Equal(t, "Ada 2", got.Name)

	_, err = cached.GetByID(ctx, "missing")
	assert.ErrorIs(t, err, ErrUserNotFound)
}
