package models

import "time"

// Story 翻页绘本
type Story struct {
	ID                uint      `gorm:"primaryKey" json:"id"`
	Title             string    `gorm:"size:255" json:"title"`
	CoverImage        string    `gorm:"size:1024" json:"coverImage"`
	NumberOfPages     int       `gorm:"not null;default:0" json:"numberOfPages"`
	ArtworkID         uint      `gorm:"not null;uniqueIndex" json:"artworkId"`
	Artwork           *Artwork  `gorm:"foreignKey:ArtworkID" json:"-"`
	OriginalCreatorID string    `gorm:"size:191;index" json:"originalCreatorId"`
	Pages             []Page    `gorm:"foreignKey:StoryID" json:"pages,omitempty"`
	CreatedAt         time.Time `gorm:"index" json:"createdAt"`
	UpdatedAt         time.Time `json:"updatedAt"`
}

// Page 绘本页，page_number 从 1 开始，在同一本绘本内连续且唯一
type Page struct {
	ID         uint      `gorm:"primaryKey" json:"id"`
	PageNumber int       `gorm:"column:page_number;not null;uniqueIndex:idx_story_page,priority:2" json:"page_number"`
	Content    string    `gorm:"type:text" json:"content"`
	StoryID    uint      `gorm:"not null;uniqueIndex:idx_story_page,priority:1" json:"storyId"`
	CreatedAt  time.Time `json:"createdAt"`
	UpdatedAt  time.Time `json:"updatedAt"`
}
