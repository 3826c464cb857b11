// Package artworks 创建与查询四类作品
package artworks

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/anoixa/colab/cache"
	"github.com/anoixa/colab/database/models"
	artworkrepo "github.com/anoixa/colab/database/repo/artworks"
	"github.com/anoixa/colab/database/repo/users"
	"github.com/anoixa/colab/internal/events"
	"github.com/anoixa/colab/internal/media"
	"github.com/anoixa/colab/utils"
	log "github.com/sirupsen/logrus"
)

// MaxStoryPages 新建故事时允许预置的最大页数
const MaxStoryPages = 100

var (
	ErrArtworkNotFound = artworkrepo.ErrArtworkNotFound
	ErrContentRequired = errors.New("content is required")
	ErrInvalidPages    = errors.New("numberOfPages out of range")
)

// Store 作品持久化
type Store interface {
	CreateVisualArt(ctx context.Context, userID string, art *models.VisualArt) error
	CreateMusic(ctx context.Context, userID string, music *models.Music) error
	CreateSculpture(ctx context.Context, userID string, sculpture *models.Sculpture) error
	CreateStory(ctx context.Context, userID string, story *models.Story) error
	GetArtwork(ctx context.Context, id uint) (*models.Artwork, error)
	ListVisualArt(ctx context.Context) ([]models.VisualArt, error)
	ListMusic(ctx context.Context) ([]models.Music, error)
	ListSculptures(ctx context.Context) ([]models.Sculpture, error)
	ListStories(ctx context.Context) ([]models.Story, error)
}

// Uploader 把 data URL 转存为托管文件
type Uploader interface {
	UploadDataURL(ctx context.Context, kind, dataURL string, allowed ...utils.MediaClass) (*media.Upload, error)
}

// StoryInput 新建故事参数
type StoryInput struct {
	Title         string
	CoverImage    string
	NumberOfPages int
}

// Service 作品服务
type Service struct {
	store     Store
	users     users.Store
	uploader  Uploader
	cache     cache.Provider
	ownerTTL  time.Duration
	publisher events.Publisher
}

// NewService cacheProvider 可以为 nil
func NewService(store Store, userStore users.Store, uploader Uploader, cacheProvider cache.Provider, ownerTTL time.Duration, publisher events.Publisher) *Service {
	if ownerTTL <= 0 {
		ownerTTL = 5 * time.Minute
	}
	return &Service{
		store:     store,
		users:     userStore,
		uploader:  uploader,
		cache:     cacheProvider,
		ownerTTL:  ownerTTL,
		publisher: publisher,
	}
}

// hostContent data URL 上传后返回托管地址，其他内容（外链、文本）原样保存
func (s *Service) hostContent(ctx context.Context, kind, content string, allowed ...utils.MediaClass) (string, error) {
	content = strings.TrimSpace(content)
	if !media.IsDataURL(content) {
		return content, nil
	}
	up, err := s.uploader.UploadDataURL(ctx, kind, content, allowed...)
	if err != nil {
		return "", err
	}
	return up.URL, nil
}

// prepareOwner 作者可能尚未同步资料，先写占位记录保证外键成立
func (s *Service) prepareOwner(ctx context.Context, userID string) error {
	if err := s.users.EnsureExists(ctx, userID); err != nil {
		return fmt.Errorf("failed to ensure user %s: %w", userID, err)
	}
	return nil
}

func (s *Service) created(ctx context.Context, kind string, artworkID, id uint, userID string) {
	s.publisher.Publish(ctx, events.Event{
		Type:    events.TypeArtworkCreated,
		Subject: fmt.Sprintf("artwork:%d", artworkID),
		Data: map[string]interface{}{
			"kind":      kind,
			"id":        id,
			"artworkId": artworkID,
			"userId":    userID,
		},
	})
	log.Printf("[Artworks] Created %s %d (artwork %d) for user %s", kind, id, artworkID, userID)
}

// CreateVisualArt art 为画布导出的 data URL
func (s *Service) CreateVisualArt(ctx context.Context, userID, title, art string) (*models.VisualArt, error) {
	if strings.TrimSpace(art) == "" {
		return nil, ErrContentRequired
	}
	if err := s.prepareOwner(ctx, userID); err != nil {
		return nil, err
	}
	url, err := s.hostContent(ctx, media.KindVisualArt, art, utils.MediaClassImage)
	if err != nil {
		return nil, err
	}

	visual := &models.VisualArt{Title: title, Content: url, URL: url}
	if err := s.store.CreateVisualArt(ctx, userID, visual); err != nil {
		return nil, fmt.Errorf("failed to save visual art: %w", err)
	}
	s.created(ctx, "visualart", visual.ArtworkID, visual.ID, userID)
	return visual, nil
}

// CreateMusic content 可以是音频 data URL 或外部链接
func (s *Service) CreateMusic(ctx context.Context, userID, songTitle, content string) (*models.Music, error) {
	if strings.TrimSpace(content) == "" {
		return nil, ErrContentRequired
	}
	if err := s.prepareOwner(ctx, userID); err != nil {
		return nil, err
	}
	hosted, err := s.hostContent(ctx, media.KindMusic, content, utils.MediaClassAudio)
	if err != nil {
		return nil, err
	}

	music := &models.Music{SongTitle: songTitle, Content: hosted}
	if media.IsDataURL(content) {
		music.URL = hosted
	}
	if err := s.store.CreateMusic(ctx, userID, music); err != nil {
		return nil, fmt.Errorf("failed to save music: %w", err)
	}
	s.created(ctx, "music", music.ArtworkID, music.ID, userID)
	return music, nil
}

// CreateSculpture content 为场景描述或快照 data URL
func (s *Service) CreateSculpture(ctx context.Context, userID, title, content string) (*models.Sculpture, error) {
	if strings.TrimSpace(content) == "" {
		return nil, ErrContentRequired
	}
	if err := s.prepareOwner(ctx, userID); err != nil {
		return nil, err
	}
	hosted, err := s.hostContent(ctx, media.KindSculpture, content, utils.MediaClassImage)
	if err != nil {
		return nil, err
	}

	sculpture := &models.Sculpture{Title: title, Content: hosted}
	if err := s.store.CreateSculpture(ctx, userID, sculpture); err != nil {
		return nil, fmt.Errorf("failed to save sculpture: %w", err)
	}
	s.created(ctx, "sculpture", sculpture.ArtworkID, sculpture.ID, userID)
	return sculpture, nil
}

// CreateStory 同时预置 1..NumberOfPages 的空白页
func (s *Service) CreateStory(ctx context.Context, userID string, in StoryInput) (*models.Story, error) {
	if in.NumberOfPages < 0 || in.NumberOfPages > MaxStoryPages {
		return nil, fmt.Errorf("%w: %d", ErrInvalidPages, in.NumberOfPages)
	}
	if err := s.prepareOwner(ctx, userID); err != nil {
		return nil, err
	}
	cover, err := s.hostContent(ctx, media.KindCover, in.CoverImage, utils.MediaClassImage)
	if err != nil {
		return nil, err
	}

	story := &models.Story{
		Title:         strings.TrimSpace(in.Title),
		CoverImage:    cover,
		NumberOfPages: in.NumberOfPages,
	}
	if err := s.store.CreateStory(ctx, userID, story); err != nil {
		return nil, fmt.Errorf("failed to save story: %w", err)
	}
	s.created(ctx, "story", story.ArtworkID, story.ID, userID)
	return story, nil
}

func (s *Service) ListVisualArt(ctx context.Context) ([]models.VisualArt, error) {
	return s.store.ListVisualArt(ctx)
}

func (s *Service) ListMusic(ctx context.Context) ([]models.Music, error) {
	return s.store.ListMusic(ctx)
}

func (s *Service) ListSculptures(ctx context.Context) ([]models.Sculpture, error) {
	return s.store.ListSculptures(ctx)
}

func (s *Service) ListStories(ctx context.Context) ([]models.Story, error) {
	return s.store.ListStories(ctx)
}

// OwnerByArtwork 返回作品的作者
// 作品 -> 作者 ID 的映射不可变，单独缓存；用户资料走用户仓库自己的缓存
func (s *Service) OwnerByArtwork(ctx context.Context, artworkID uint) (*models.User, error) {
	key := cache.ArtworkOwner.BuildID(artworkID)

	var userID string
	if s.cache != nil {
		if err := s.cache.Get(ctx, key, &userID); err != nil && !cache.IsCacheMiss(err) {
			log.Warnf("[Artworks] Failed to read owner cache for artwork %d: %v", artworkID, err)
		}
	}

	if userID == "" {
		artwork, err := s.store.GetArtwork(ctx, artworkID)
		if err != nil {
			return nil, err
		}
		userID = artwork.UserID
		if s.cache != nil {
			if err := s.cache.Set(ctx, key, userID, s.ownerTTL); err != nil {
				log.Warnf("[Artworks] Failed to cache owner of artwork %d: %v", artworkID, err)
			}
		}
	}

	return s.users.GetByID(ctx, userID)
}
