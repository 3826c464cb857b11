package collaborations

import (
	"context"
	"errors"
	"fmt"

	"github.com/anoixa/colab/database"
	"github.com/anoixa/colab/database/models"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// ErrCollaborationNotFound 协作不存在
var ErrCollaborationNotFound = errors.New("collaboration not found")

// Repository 协作仓库
type Repository struct {
	db database.Provider
}

// NewRepository 创建协作仓库
func NewRepository(db database.Provider) *Repository {
	return &Repository{db: db}
}

// Create 创建协作并把发起人加入成员
func (r *Repository) Create(ctx context.Context, collab *models.Collaboration) error {
	return r.db.TransactionWithContext(ctx, func(tx *gorm.DB) error {
		if err := tx.Create(collab).Error; err != nil {
			return fmt.Errorf("failed to create collaboration: %w", err)
		}
		member := models.UserCollaboration{UserID: collab.OwnerID, CollaborationID: collab.ID}
		if err := tx.Create(&member).Error; err != nil {
			return fmt.Errorf("failed to add owner membership: %w", err)
		}
		return nil
	})
}

// GetByID 获取协作
func (r *Repository) GetByID(ctx context.Context, id uint) (*models.Collaboration, error) {
	var collab models.Collaboration
	if err := r.db.WithContext(ctx).First(&collab, id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, fmt.Errorf("%w: %d", ErrCollaborationNotFound, id)
		}
		return nil, err
	}
	return &collab, nil
}

// AddMember 加入协作，重复加入无副作用；返回是否新加入
func (r *Repository) AddMember(ctx context.Context, collabID uint, userID string) (bool, error) {
	member := models.UserCollaboration{UserID: userID, CollaborationID: collabID}
	res := r.db.WithContext(ctx).
		Clauses(clause.OnConflict{DoNothing: true}).
		Create(&member)
	if res.Error != nil {
		return false, res.Error
	}
	return res.RowsAffected > 0, nil
}

// Members 列出协作成员，按加入顺序
func (r *Repository) Members(ctx context.Context, collabID uint) ([]models.User, error) {
	var users []models.User
	err := r.db.WithContext(ctx).
		Model(&models.User{}).
		Joins("JOIN user_collaborations uc ON uc.user_id = users.id").
		Where("uc.collaboration_id = ?", collabID).
		Order("uc.id asc").
		Find(&users).Error
	return users, err
}
