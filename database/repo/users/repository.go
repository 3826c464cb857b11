package users

import (
	"context"
	"errors"
	"fmt"

	"github.com/anoixa/colab/database"
	"github.com/anoixa/colab/database/models"
	"github.com/anoixa/colab/database/repo/base"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// ErrUserNotFound 用户不存在
var ErrUserNotFound = errors.New("user not found")

// Store 用户仓库接口，CachedRepository 与 Repository 都实现它
type Store interface {
	GetByID(ctx context.Context, id string) (*models.User, error)
	Upsert(ctx context.Context, user *models.User) error
	EnsureExists(ctx context.Context, id string) error
	AddFriend(ctx context.Context, userID, friendID string) (*models.User, error)
}

// Repository 用户仓库
type Repository struct {
	*base.Repository[models.User]
	db database.Provider
}

// NewRepository 创建用户仓库
func NewRepository(db database.Provider) *Repository {
	return &Repository{
		Repository: base.NewRepository[models.User](db),
		db:         db,
	}
}

// GetByID 获取用户
func (r *Repository) GetByID(ctx context.Context, id string) (*models.User, error) {
	user, err := r.Repository.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if user == nil {
		return nil, fmt.Errorf("%w: %s", ErrUserNotFound, id)
	}
	return user, nil
}

// Upsert 首次登录创建，之后刷新资料字段；好友列表不被覆盖
func (r *Repository) Upsert(ctx context.Context, user *models.User) error {
	if user.Friends == nil {
		user.Friends = []string{}
	}
	return r.db.WithContext(ctx).Clauses(clause.OnConflict{
		Columns:   []clause.Column{{Name: "id"}},
		DoUpdates: clause.AssignmentColumns([]string{"name", "email", "picture", "updated_at"}),
	}).Create(user).Error
}

// EnsureExists 用户不存在时创建一个只有 ID 的占位记录
func (r *Repository) EnsureExists(ctx context.Context, id string) error {
	user := models.User{ID: id, Friends: []string{}}
	return r.db.WithContext(ctx).Clauses(clause.OnConflict{DoNothing: true}).Create(&user).Error
}

// AddFriend 把 friendID 加入 userID 的好友列表，重复添加无副作用
func (r *Repository) AddFriend(ctx context.Context, userID, friendID string) (*models.User, error) {
	var user models.User
	err := r.db.TransactionWithContext(ctx, func(tx *gorm.DB) error {
		if err := tx.Clauses(clause.Locking{Strength: "UPDATE"}).Where("id = ?", userID).First(&user).Error; err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return fmt.Errorf("%w: %s", ErrUserNotFound, userID)
			}
			return err
		}

		var count int64
		if err := tx.Model(&models.User{}).Where("id = ?", friendID).Count(&count).Error; err != nil {
			return err
		}
		if count == 0 {
			return fmt.Errorf("%w: %s", ErrUserNotFound, friendID)
		}

		if user.HasFriend(friendID) {
			return nil
		}
		user.Friends = append(user.Friends, friendID)
		return tx.Model(&user).Select("friends", "updated_at").Updates(&user).Error
	})
	if err != nil {
		return nil, err
	}
	return &user, nil
}
