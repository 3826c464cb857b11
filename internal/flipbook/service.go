package flipbook

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"unicode/utf8"

	"github.com/anoixa/colab/database/models"
	"github.com/anoixa/colab/database/repo/stories"
	"github.com/anoixa/colab/internal/events"
	"github.com/anoixa/colab/utils"
	log "github.com/sirupsen/logrus"
)

// MaxPageContent 单页文本最大字符数（与编辑器的输入上限一致）
const MaxPageContent = 310

var (
	ErrStoryNotFound  = stories.ErrStoryNotFound
	ErrPageNotFound   = stories.ErrPageNotFound
	ErrContentTooLong = errors.New("page content too long")
	ErrInvalidPage    = errors.New("page number must be positive")
)

// PageStore 页面持久化
type PageStore interface {
	GetStory(ctx context.Context, storyID uint) (*models.Story, error)
	ListPages(ctx context.Context, storyID uint) ([]models.Page, error)
	AddPage(ctx context.Context, storyID uint, content string) (*models.Page, error)
	UpdateContentByNumber(ctx context.Context, storyID uint, pageNumber int, content string) error
	UpdateContentByID(ctx context.Context, pageID uint, content string) (*models.Page, error)
}

// Service 翻页绘本编辑服务
type Service struct {
	store     PageStore
	publisher events.Publisher
}

// NewService 创建绘本编辑服务
func NewService(store PageStore, publisher events.Publisher) *Service {
	return &Service{
		store:     store,
		publisher: publisher,
	}
}

// SanitizeContent 去掉 HTML 标签并检查长度
func (s *Service) SanitizeContent(content string) (string, error) {
	clean := utils.PlainText(content)
	if utf8.RuneCountInString(clean) > MaxPageContent {
		return "", fmt.Errorf("%w: %d > %d", ErrContentTooLong, utf8.RuneCountInString(clean), MaxPageContent)
	}
	return clean, nil
}

// ListPages 按页码升序
func (s *Service) ListPages(ctx context.Context, storyID uint) ([]models.Page, error) {
	if _, err := s.store.GetStory(ctx, storyID); err != nil {
		return nil, err
	}
	return s.store.ListPages(ctx, storyID)
}

// AddPage 在末尾追加一页
func (s *Service) AddPage(ctx context.Context, storyID uint, content string) (*models.Page, error) {
	clean, err := s.SanitizeContent(content)
	if err != nil {
		return nil, err
	}
	page, err := s.store.AddPage(ctx, storyID, clean)
	if err != nil {
		return nil, fmt.Errorf("failed to add page to story %d: %w", storyID, err)
	}
	log.Printf("[Flipbook] Added page %d to story %d", page.PageNumber, storyID)
	return page, nil
}

// SavePage 按页码保存已有页面的内容，并返回刷新后的完整页面列表
// 新页面只能通过 AddPage 创建；并发保存同一页时后提交者生效
func (s *Service) SavePage(ctx context.Context, storyID uint, pageNumber int, content string) ([]models.Page, error) {
	if pageNumber <= 0 {
		return nil, ErrInvalidPage
	}
	clean, err := s.SanitizeContent(content)
	if err != nil {
		return nil, err
	}

	if err := s.store.UpdateContentByNumber(ctx, storyID, pageNumber, clean); err != nil {
		return nil, err
	}

	s.publisher.Publish(ctx, events.Event{
		Type:    events.TypePageSaved,
		Subject: fmt.Sprintf("story:%d", storyID),
		Data:    map[string]interface{}{"storyId": storyID, "pageNumber": pageNumber},
	})

	return s.store.ListPages(ctx, storyID)
}

// UpdatePage 按页面 ID 更新内容
func (s *Service) UpdatePage(ctx context.Context, pageID uint, content string) (*models.Page, error) {
	clean, err := s.SanitizeContent(content)
	if err != nil {
		return nil, err
	}
	page, err := s.store.UpdateContentByID(ctx, pageID, clean)
	if err != nil {
		return nil, err
	}

	s.publisher.Publish(ctx, events.Event{
		Type:    events.TypePageSaved,
		Subject: fmt.Sprintf("story:%d", page.StoryID),
		Data:    map[string]interface{}{"storyId": page.StoryID, "pageNumber": page.PageNumber},
	})
	return page, nil
}

// Narration 朗读稿
type Narration struct {
	StoryID uint     `json:"storyId"`
	Title   string   `json:"title"`
	Lines   []string `json:"lines"`
	Script  string   `json:"script"`
}

// ReadAloud 按页码顺序返回非空页面文本，语音合成由浏览器完成
func (s *Service) ReadAloud(ctx context.Context, storyID uint) (*Narration, error) {
	story, err := s.store.GetStory(ctx, storyID)
	if err != nil {
		return nil, err
	}
	pages, err := s.store.ListPages(ctx, storyID)
	if err != nil {
		return nil, err
	}

	n := &Narration{StoryID: storyID, Title: story.Title, Lines: []string{}}
	for _, p := range pages {
		if text := strings.TrimSpace(p.Content); text != "" {
			n.Lines = append(n.Lines, text)
		}
	}
	n.Script = strings.Join(n.Lines, "\n\n")
	return n, nil
}
