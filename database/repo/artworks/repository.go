package artworks

import (
	"context"
	"errors"
	"fmt"

	"github.com/anoixa/colab/database"
	"github.com/anoixa/colab/database/models"
	"github.com/anoixa/colab/database/repo/base"
	"gorm.io/gorm"
)

// ErrArtworkNotFound 作品不存在
var ErrArtworkNotFound = errors.New("artwork not found")

// Repository 作品仓库，负责 Artwork 父表与各子类型表
type Repository struct {
	db         database.Provider
	artworks   *base.Repository[models.Artwork]
	visualArt  *base.Repository[models.VisualArt]
	music      *base.Repository[models.Music]
	sculptures *base.Repository[models.Sculpture]
	stories    *base.Repository[models.Story]
}

// NewRepository 创建作品仓库
func NewRepository(db database.Provider) *Repository {
	return &Repository{
		db:         db,
		artworks:   base.NewRepository[models.Artwork](db),
		visualArt:  base.NewRepository[models.VisualArt](db),
		music:      base.NewRepository[models.Music](db),
		sculptures: base.NewRepository[models.Sculpture](db),
		stories:    base.NewRepository[models.Story](db),
	}
}

// createArtwork 在事务中先写父表，再由 fn 写子表
func (r *Repository) createArtwork(ctx context.Context, userID string, typ models.ArtworkType, fn func(tx *gorm.DB, artworkID uint) error) (*models.Artwork, error) {
	artwork := &models.Artwork{Type: typ, UserID: userID}
	err := r.db.TransactionWithContext(ctx, func(tx *gorm.DB) error {
		if err := tx.Create(artwork).Error; err != nil {
			return fmt.Errorf("failed to create artwork: %w", err)
		}
		return fn(tx, artwork.ID)
	})
	if err != nil {
		return nil, err
	}
	return artwork, nil
}

// CreateVisualArt 创建 Artwork + VisualArt
func (r *Repository) CreateVisualArt(ctx context.Context, userID string, art *models.VisualArt) error {
	_, err := r.createArtwork(ctx, userID, models.ArtworkTypeVisualArt, func(tx *gorm.DB, artworkID uint) error {
		art.ArtworkID = artworkID
		return tx.Create(art).Error
	})
	return err
}

// CreateMusic 创建 Artwork + Music
func (r *Repository) CreateMusic(ctx context.Context, userID string, music *models.Music) error {
	_, err := r.createArtwork(ctx, userID, models.ArtworkTypeMusic, func(tx *gorm.DB, artworkID uint) error {
		music.ArtworkID = artworkID
		return tx.Create(music).Error
	})
	return err
}

// CreateSculpture 创建 Artwork + Sculpture
func (r *Repository) CreateSculpture(ctx context.Context, userID string, sculpture *models.Sculpture) error {
	_, err := r.createArtwork(ctx, userID, models.ArtworkTypeSculpture, func(tx *gorm.DB, artworkID uint) error {
		sculpture.ArtworkID = artworkID
		return tx.Create(sculpture).Error
	})
	return err
}

// CreateStory 创建 Artwork + Story，并预置 NumberOfPages 个空白页（1..n）
func (r *Repository) CreateStory(ctx context.Context, userID string, story *models.Story) error {
	_, err := r.createArtwork(ctx, userID, models.ArtworkTypeStory, func(tx *gorm.DB, artworkID uint) error {
		story.ArtworkID = artworkID
		if story.OriginalCreatorID == "" {
			story.OriginalCreatorID = userID
		}
		pages := make([]models.Page, 0, story.NumberOfPages)
		for i := 1; i <= story.NumberOfPages; i++ {
			pages = append(pages, models.Page{PageNumber: i})
		}
		story.Pages = nil
		if err := tx.Create(story).Error; err != nil {
			return err
		}
		if len(pages) == 0 {
			return nil
		}
		for i := range pages {
			pages[i].StoryID = story.ID
		}
		if err := tx.Create(&pages).Error; err != nil {
			return fmt.Errorf("failed to seed pages: %w", err)
		}
		story.Pages = pages
		return nil
	})
	return err
}

// GetArtwork 获取父表记录
func (r *Repository) GetArtwork(ctx context.Context, id uint) (*models.Artwork, error) {
	artwork, err := r.artworks.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if artwork == nil {
		return nil, fmt.Errorf("%w: %d", ErrArtworkNotFound, id)
	}
	return artwork, nil
}

// ListVisualArt 按创建时间倒序
func (r *Repository) ListVisualArt(ctx context.Context) ([]models.VisualArt, error) {
	return r.visualArt.ListNewest(ctx, 0)
}

// ListMusic 按创建时间倒序
func (r *Repository) ListMusic(ctx context.Context) ([]models.Music, error) {
	return r.music.ListNewest(ctx, 0)
}

// ListSculptures 按创建时间倒序
func (r *Repository) ListSculptures(ctx context.Context) ([]models.Sculpture, error) {
	return r.sculptures.ListNewest(ctx, 0)
}

// ListStories 按创建时间倒序，不带页
func (r *Repository) ListStories(ctx context.Context) ([]models.Story, error) {
	return r.stories.ListNewest(ctx, 0)
}
