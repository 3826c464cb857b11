package models

import "time"

type Collaboration struct {
	ID          uint        `gorm:"primaryKey" json:"id"`
	ArtworkType ArtworkType `gorm:"size:32;not null" json:"artworkType"`
	IsPrivate   bool        `gorm:"not null;default:false" json:"isPrivate"`
	OwnerID     string      `gorm:"size:191;not null;index" json:"ownerId"`
	CreatedAt   time.Time   `json:"createdAt"`
	UpdatedAt   time.Time   `json:"updatedAt"`
}

// UserCollaboration 协作成员关系
type UserCollaboration struct {
	ID              uint      `gorm:"primaryKey" json:"id"`
	UserID          string    `gorm:"size:191;not null;uniqueIndex:idx_user_collab,priority:2" json:"userId"`
	CollaborationID uint      `gorm:"not null;uniqueIndex:idx_user_collab,priority:1" json:"collaborationId"`
	CreatedAt       time.Time `json:"createdAt"`
}

// Message 用户之间的私信，不可编辑或删除
type Message struct {
	ID          uint      `gorm:"primaryKey" json:"id"`
	Text        string    `gorm:"type:text;not null" json:"text"`
	SenderID    string    `gorm:"size:191;not null;index:idx_message_pair,priority:1" json:"senderId"`
	RecipientID string    `gorm:"size:191;not null;index:idx_message_pair,priority:2" json:"recipientId"`
	CreatedAt   time.Time `gorm:"index" json:"createdAt"`
}

// All 需要自动迁移的全部模型
func All() []interface{} {
	return []interface{}{
		&User{},
		&Artwork{},
		&VisualArt{},
		&Music{},
		&Sculpture{},
		&Story{},
		&Page{},
		&Collaboration{},
		&UserCollaboration{},
		&Message{},
	}
}
