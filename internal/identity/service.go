package identity

import (
	"context"
	"errors"
	"fmt"

	"github.com/anoixa/colab/database/models"
	"github.com/anoixa/colab/database/repo/users"
	"github.com/anoixa/colab/utils"
	log "github.com/sirupsen/logrus"
)

var (
	ErrUserNotFound = users.ErrUserNotFound
	ErrSelfFriend   = errors.New("cannot add yourself as a friend")
)

// Service 用户资料镜像
type Service struct {
	users users.Store
}

func NewService(store users.Store) *Service {
	return &Service{users: store}
}

// Sync 首次登录创建用户，之后刷新资料
func (s *Service) Sync(ctx context.Context, claims *Claims) (*models.User, error) {
	if claims == nil || claims.Subject == "" {
		return nil, ErrInvalidToken
	}

	user := &models.User{
		ID:      claims.Subject,
		Name:    claims.Name,
		Email:   claims.Email,
		Picture: claims.Picture,
	}
	if err := s.users.Upsert(ctx, user); err != nil {
		return nil, fmt.Errorf("failed to sync user %s: %w", claims.Subject, err)
	}
	log.Debugf("[Identity] Synced user %s (%s)", claims.Subject, utils.SanitizeLogUsername(claims.Name))

	return s.users.GetByID(ctx, claims.Subject)
}

func (s *Service) GetUser(ctx context.Context, id string) (*models.User, error) {
	return s.users.GetByID(ctx, id)
}

// AddFriend 单向添加好友，重复添加无副作用
func (s *Service) AddFriend(ctx context.Context, userID, friendID string) (*models.User, error) {
	if userID == friendID {
		return nil, ErrSelfFriend
	}
	return s.users.AddFriend(ctx, userID, friendID)
}
