package stories

import (
	"context"
	"errors"
	"fmt"

	"github.com/anoixa/colab/database"
	"github.com/anoixa/colab/database/models"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

var (
	ErrStoryNotFound = errors.New("story not found")
	ErrPageNotFound  = errors.New("page not found")
)

// Repository 绘本与页面仓库
type Repository struct {
	db database.Provider
}

// NewRepository 创建绘本仓库
func NewRepository(db database.Provider) *Repository {
	return &Repository{db: db}
}

// GetStory 获取绘本（不含页）
func (r *Repository) GetStory(ctx context.Context, storyID uint) (*models.Story, error) {
	var story models.Story
	if err := r.db.WithContext(ctx).First(&story, storyID).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, fmt.Errorf("%w: %d", ErrStoryNotFound, storyID)
		}
		return nil, err
	}
	return &story, nil
}

// ListPages 按页码升序返回页面
func (r *Repository) ListPages(ctx context.Context, storyID uint) ([]models.Page, error) {
	var pages []models.Page
	err := r.db.WithContext(ctx).
		Where("story_id = ?", storyID).
		Order("page_number asc").
		Find(&pages).Error
	return pages, err
}

// ListPagesForStories 批量获取多本绘本的页面，按 story_id 分组，组内页码升序
func (r *Repository) ListPagesForStories(ctx context.Context, storyIDs []uint) (map[uint][]models.Page, error) {
	result := make(map[uint][]models.Page, len(storyIDs))
	if len(storyIDs) == 0 {
		return result, nil
	}
	var pages []models.Page
	err := r.db.WithContext(ctx).
		Where("story_id IN ?", storyIDs).
		Order("story_id asc").
		Order("page_number asc").
		Find(&pages).Error
	if err != nil {
		return nil, err
	}
	for _, p := range pages {
		result[p.StoryID] = append(result[p.StoryID], p)
	}
	return result, nil
}

// AddPage 追加一页：锁定绘本，页码取 max+1，并同步 number_of_pages
func (r *Repository) AddPage(ctx context.Context, storyID uint, content string) (*models.Page, error) {
	var page models.Page
	err := r.db.TransactionWithContext(ctx, func(tx *gorm.DB) error {
		var story models.Story
		if err := tx.Clauses(clause.Locking{Strength: "UPDATE"}).First(&story, storyID).Error; err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return fmt.Errorf("%w: %d", ErrStoryNotFound, storyID)
			}
			return err
		}

		var maxNumber int
		if err := tx.Model(&models.Page{}).
			Where("story_id = ?", storyID).
			Select("COALESCE(MAX(page_number), 0)").
			Scan(&maxNumber).Error; err != nil {
			return fmt.Errorf("failed to compute next page number: %w", err)
		}

		page = models.Page{StoryID: storyID, PageNumber: maxNumber + 1, Content: content}
		if err := tx.Create(&page).Error; err != nil {
			return fmt.Errorf("failed to create page: %w", err)
		}

		return tx.Model(&story).Update("number_of_pages", page.PageNumber).Error
	})
	if err != nil {
		return nil, err
	}
	return &page, nil
}

// UpdateContentByNumber 按页码更新内容，只修改 content 列
func (r *Repository) UpdateContentByNumber(ctx context.Context, storyID uint, pageNumber int, content string) error {
	res := r.db.WithContext(ctx).
		Model(&models.Page{}).
		Where("story_id = ? AND page_number = ?", storyID, pageNumber).
		Update("content", content)
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return fmt.Errorf("%w: story %d page %d", ErrPageNotFound, storyID, pageNumber)
	}
	return nil
}

// UpdateContentByID 按页面 ID 更新内容并返回最新记录
func (r *Repository) UpdateContentByID(ctx context.Context, pageID uint, content string) (*models.Page, error) {
	var page models.Page
	err := r.db.TransactionWithContext(ctx, func(tx *gorm.DB) error {
		if err := tx.First(&page, pageID).Error; err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return fmt.Errorf("%w: id %d", ErrPageNotFound, pageID)
			}
			return err
		}
		page.Content = content
		return tx.Model(&page).Update("content", content).Error
	})
	if err != nil {
		return nil, err
	}
	return &page, nil
}
