package feed

import (
	"time"

	"github.com/anoixa/colab/database/models"
)

// Kind 卡片类型标签，渲染端只看这个字段分支
type Kind string

const (
	KindVisualArt Kind = "visualart"
	KindMusic     Kind = "music"
	KindStory     Kind = "story"
	KindSculpture Kind = "sculpture"
)

// Item 带显式类型标签的作品条目，恰好一个载荷字段非空
// 只能通过 New*Item 构造
type Item struct {
	Kind      Kind      `json:"kind"`
	ArtworkID uint      `json:"artworkId"`
	CreatedAt time.Time `json:"createdAt"`

	VisualArt *models.VisualArt `json:"visualArt,omitempty"`
	Music     *models.Music     `json:"music,omitempty"`
	Story     *models.Story     `json:"story,omitempty"`
	Sculpture *models.Sculpture `json:"sculpture,omitempty"`
}

func NewVisualArtItem(v models.VisualArt) Item {
	return Item{Kind: KindVisualArt, ArtworkID: v.ArtworkID, CreatedAt: v.CreatedAt, VisualArt: &v}
}

func NewMusicItem(m models.Music) Item {
	return Item{Kind: KindMusic, ArtworkID: m.ArtworkID, CreatedAt: m.CreatedAt, Music: &m}
}

func NewStoryItem(s models.Story) Item {
	return Item{Kind: KindStory, ArtworkID: s.ArtworkID, CreatedAt: s.CreatedAt, Story: &s}
}

func NewSculptureItem(s models.Sculpture) Item {
	return Item{Kind: KindSculpture, ArtworkID: s.ArtworkID, CreatedAt: s.CreatedAt, Sculpture: &s}
}

// Owner 作者展示字段，不包含作者自身的时间戳
type Owner struct {
	ID      string `json:"id"`
	Name    string `json:"name"`
	Picture string `json:"picture"`
}

// UnknownOwner 作者查询失败时的占位
func UnknownOwner() *Owner {
	return &Owner{Name: "unknown"}
}

func ownerFromUser(u *models.User) *Owner {
	return &Owner{ID: u.ID, Name: u.Name, Picture: u.Picture}
}

// Card 条目 + 作者；绘本卡片附带按页码排序的页面
type Card struct {
	Item
	Owner    *Owner        `json:"owner"`
	Degraded bool          `json:"degraded,omitempty"`
	Pages    []models.Page `json:"pages,omitempty"`
}
