package models

import "time"

// ArtworkType 作品类型，创建后不可变
type ArtworkType string

const (
	ArtworkTypeVisualArt ArtworkType = "visual art"
	ArtworkTypeMusic     ArtworkType = "music"
	ArtworkTypeStory     ArtworkType = "story"
	ArtworkTypeSculpture ArtworkType = "sculpture"
)

// Valid 是否为已知类型
func (t ArtworkType) Valid() bool {
	switch t {
	case ArtworkTypeVisualArt, ArtworkTypeMusic, ArtworkTypeStory, ArtworkTypeSculpture:
		return true
	}
	return false
}

// Artwork 所有作品的父类型
type Artwork struct {
	ID        uint        `gorm:"primaryKey" json:"id"`
	Type      ArtworkType `gorm:"size:32;not null;index" json:"type"`
	UserID    string      `gorm:"size:191;not null;index" json:"userId"`
	User      *User       `gorm:"foreignKey:UserID" json:"-"`
	CreatedAt time.Time   `json:"createdAt"`
	UpdatedAt time.Time   `json:"updatedAt"`
}

type VisualArt struct {
	ID        uint      `gorm:"primaryKey" json:"id"`
	Title     string    `gorm:"size:255" json:"title"`
	Content   string    `gorm:"type:text" json:"content"`
	URL       string    `gorm:"size:1024" json:"url"`
	ArtworkID uint      `gorm:"not null;uniqueIndex" json:"artworkId"`
	Artwork   *Artwork  `gorm:"foreignKey:ArtworkID" json:"-"`
	CreatedAt time.Time `gorm:"index" json:"createdAt"`
	UpdatedAt time.Time `json:"updatedAt"`
}

type Music struct {
	ID        uint      `gorm:"primaryKey" json:"id"`
	SongTitle string    `gorm:"size:255" json:"songTitle"`
	Content   string    `gorm:"type:text" json:"content"`
	URL       string    `gorm:"size:1024" json:"url"`
	ArtworkID uint      `gorm:"not null;uniqueIndex" json:"artworkId"`
	Artwork   *Artwork  `gorm:"foreignKey:ArtworkID" json:"-"`
	CreatedAt time.Time `gorm:"index" json:"createdAt"`
	UpdatedAt time.Time `json:"updatedAt"`
}

func (Music) TableName() string {
	return "music"
}

type Sculpture struct {
	ID        uint      `gorm:"primaryKey" json:"id"`
	Title     string    `gorm:"size:255" json:"title"`
	Content   string    `gorm:"type:text" json:"content"`
	ArtworkID uint      `gorm:"not null;uniqueIndex" json:"artworkId"`
	Artwork   *Artwork  `gorm:"foreignKey:ArtworkID" json:"-"`
	CreatedAt time.Time `gorm:"index" json:"createdAt"`
	UpdatedAt time.Time `json:"updatedAt"`
}
