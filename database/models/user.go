package models

import "time"

// User 外部身份提供者的用户镜像，ID 为身份主体 (sub)
type User struct {
	ID        string    `gorm:"primaryKey;size:191" json:"id"`
	Name      string    `gorm:"size:255" json:"name"`
	Email     string    `gorm:"size:255;index" json:"email"`
	Picture   string    `gorm:"size:1024" json:"picture"`
	Friends   []string  `gorm:"serializer:json" json:"friends"`
	CreatedAt time.Time `json:"createdAt"`
	UpdatedAt time.Time `json:"updatedAt"`
}

// HasFriend 判断 id 是否在好友列表中
func (u *User) HasFriend(id string) bool {
	for _, f := range u.Friends {
		if f == id {
			return true
		}
	}
	return false
}
