package feed

import (
	"context"
	"fmt"
	"sort"
	"strconv"
	"time"

	"github.com/anoixa/colab/database/models"
	log "github.com/sirupsen/logrus"
	"golang.org/x/sync/errgroup"
	"golang.org/x/sync/singleflight"
)

// Source 四类作品的数据源
type Source interface {
	ListVisualArt(ctx context.Context) ([]models.VisualArt, error)
	ListMusic(ctx context.Context) ([]models.Music, error)
	ListStories(ctx context.Context) ([]models.Story, error)
	ListSculptures(ctx context.Context) ([]models.Sculpture, error)
}

// OwnerLookup 通过作品 ID 查作者
type OwnerLookup interface {
	OwnerByArtwork(ctx context.Context, artworkID uint) (*models.User, error)
}

// PageLister 批量获取绘本页面
type PageLister interface {
	ListPagesForStories(ctx context.Context, storyIDs []uint) (map[uint][]models.Page, error)
}

// Config 组装参数
type Config struct {
	LookupConcurrency int
	LookupTimeout     time.Duration
}

// Composer 聚合四类作品为按时间倒序的卡片流
type Composer struct {
	source Source
	owners OwnerLookup
	pages  PageLister
	cfg    Config
	group  singleflight.Group
}

// NewComposer 创建 Composer，pages 可以为 nil
func NewComposer(source Source, owners OwnerLookup, pages PageLister, cfg Config) *Composer {
	if cfg.LookupConcurrency <= 0 {
		cfg.LookupConcurrency = 8
	}
	if cfg.LookupTimeout <= 0 {
		cfg.LookupTimeout = 2 * time.Second
	}
	return &Composer{source: source, owners: owners, pages: pages, cfg: cfg}
}

// Compose 并发拉取、合并排序、补全作者与页面；limit <= 0 表示不限制
func (c *Composer) Compose(ctx context.Context, limit int) ([]Card, error) {
	items, err := c.fetch(ctx)
	if err != nil {
		return nil, err
	}

	items = Merge(items)
	if limit > 0 && len(items) > limit {
		items = items[:limit]
	}

	cards := make([]Card, len(items))
	for i := range items {
		cards[i].Item = items[i]
	}

	c.attachOwners(ctx, cards)
	c.attachPages(ctx, cards)
	return cards, nil
}

// fetch 并发拉取四个集合，按 视觉艺术、雕塑、绘本、音乐 的顺序拼接
func (c *Composer) fetch(ctx context.Context) ([]Item, error) {
	var (
		visual     []models.VisualArt
		sculptures []models.Sculpture
		stories    []models.Story
		music      []models.Music
	)

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() (err error) {
		visual, err = c.source.ListVisualArt(gctx)
		return wrapFetch("visual art", err)
	})
	g.Go(func() (err error) {
		sculptures, err = c.source.ListSculptures(gctx)
		return wrapFetch("sculptures", err)
	})
	g.Go(func() (err error) {
		stories, err = c.source.ListStories(gctx)
		return wrapFetch("stories", err)
	})
	g.Go(func() (err error) {
		music, err = c.source.ListMusic(gctx)
		return wrapFetch("music", err)
	})
	if err := g.Wait(); err != nil {
		return nil, err
	}

	items := make([]Item, 0, len(visual)+len(sculptures)+len(stories)+len(music))
	for _, v := range visual {
		items = append(items, NewVisualArtItem(v))
	}
	for _, s := range sculptures {
		items = append(items, NewSculptureItem(s))
	}
	for _, s := range stories {
		items = append(items, NewStoryItem(s))
	}
	for _, m := range music {
		items = append(items, NewMusicItem(m))
	}
	return items, nil
}

func wrapFetch(what string, err error) error {
	if err != nil {
		return fmt.Errorf("failed to fetch %s: %w", what, err)
	}
	return nil
}

// Merge 按创建时间倒序稳定排序，时间相同保持原有拼接顺序
func Merge(items []Item) []Item {
	sort.SliceStable(items, func(i, j int) bool {
		return items[i].CreatedAt.After(items[j].CreatedAt)
	})
	return items
}

// attachOwners 限制并发地查询作者；失败的卡片降级而不是让整个 feed 失败
func (c *Composer) attachOwners(ctx context.Context, cards []Card) {
	var g errgroup.Group
	g.SetLimit(c.cfg.LookupConcurrency)

	for i := range cards {
		card := &cards[i]
		g.Go(func() error {
			owner, err := c.lookupOwner(ctx, card.ArtworkID)
			if err != nil {
				log.Printf("[Feed] Owner lookup failed for artwork %d: %v", card.ArtworkID, err)
				card.Owner = UnknownOwner()
				card.Degraded = true
				return nil
			}
			card.Owner = owner
			return nil
		})
	}
	_ = g.Wait()
}

func (c *Composer) lookupOwner(ctx context.Context, artworkID uint) (*Owner, error) {
	v, err, _ := c.group.Do(strconv.FormatUint(uint64(artworkID), 10), func() (interface{}, error) {
		lctx, cancel := context.WithTimeout(ctx, c.cfg.LookupTimeout)
		defer cancel()

		user, err := c.owners.OwnerByArtwork(lctx, artworkID)
		if err != nil {
			return nil, err
		}
		if user == nil {
			return nil, fmt.Errorf("artwork %d has no owner", artworkID)
		}
		return ownerFromUser(user), nil
	})
	if err != nil {
		return nil, err
	}
	// singleflight 的结果在调用方之间共享，复制一份
	owner := *v.(*Owner)
	return &owner, nil
}

// attachPages 为绘本卡片附上页面，失败只记日志
func (c *Composer) attachPages(ctx context.Context, cards []Card) {
	if c.pages == nil {
		return
	}
	var ids []uint
	for _, card := range cards {
		if card.Kind == KindStory {
			ids = append(ids, card.Story.ID)
		}
	}
	if len(ids) == 0 {
		return
	}

	byStory, err := c.pages.ListPagesForStories(ctx, ids)
	if err != nil {
		log.Printf("[Feed] Failed to load pages for %d stories: %v", len(ids), err)
		return
	}
	for i := range cards {
		if cards[i].Kind == KindStory {
			cards[i].Pages = byStory[cards[i].Story.ID]
		}
	}
}
