package messages

import (
	"context"

	"github.com/anoixa/colab/database"
	"github.com/anoixa/colab/database/models"
	"github.com/anoixa/colab/database/repo/base"
)

// Repository 私信仓库
type Repository struct {
	*base.Repository[models.Message]
	db database.Provider
}

// NewRepository 创建私信仓库
func NewRepository(db database.Provider) *Repository {
	return &Repository{
		Repository: base.NewRepository[models.Message](db),
		db:         db,
	}
}

// Conversation 两个用户之间的全部私信，按时间正序
func (r *Repository) Conversation(ctx context.Context, a, b string, limit int) ([]models.Message, error) {
	var msgs []models.Message
	db := r.db.WithContext(ctx).
		Where("(sender_id = ? AND recipient_id = ?) OR (sender_id = ? AND recipient_id = ?)", a, b, b, a).
		Order("created_at asc").
		Order("id asc")
	if limit > 0 {
		db = db.Limit(limit)
	}
	err := db.Find(&msgs).Error
	return msgs, err
}
