// Package base 提供通用的 Repository 基类
package base

import (
	"context"
	"errors"

	"github.com/anoixa/colab/database"
	"gorm.io/gorm"
)

// Repository 通用仓库基类
type Repository[T any] struct {
	db database.Provider
}

// NewRepository 创建新的通用仓库
func NewRepository[T any](db database.Provider) *Repository[T] {
	return &Repository[T]{db: db}
}

// Create 创建记录
func (r *Repository[T]) Create(ctx context.Context, entity *T) error {
	return r.db.WithContext(ctx).Create(entity).Error
}

// GetByID 通过主键获取记录，不存在返回 nil, nil
func (r *Repository[T]) GetByID(ctx context.Context, id interface{}) (*T, error) {
	var entity T
	err := r.db.WithContext(ctx).Where("id = ?", id).First(&entity).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, err
	}
	return &entity, nil
}

// ListNewest 按创建时间倒序列出记录，limit <= 0 表示不限制
func (r *Repository[T]) ListNewest(ctx context.Context, limit int) ([]T, error) {
	var entities []T
	db := r.db.WithContext(ctx).Order("created_at desc").Order("id desc")
	if limit > 0 {
		db = db.Limit(limit)
	}
	err := db.Find(&entities).Error
	return entities, err
}
