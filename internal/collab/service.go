// Package collab 协作空间与用户私信
package collab

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"unicode/utf8"

	"github.com/anoixa/colab/database/models"
	"github.com/anoixa/colab/database/repo/collaborations"
	"github.com/anoixa/colab/database/repo/users"
	"github.com/anoixa/colab/internal/events"
	"github.com/anoixa/colab/utils"
	log "github.com/sirupsen/logrus"
)

// MaxMessageLength 私信最大字符数
const MaxMessageLength = 1000

// DefaultConversationLimit 单次返回的最大私信条数
const DefaultConversationLimit = 200

var (
	ErrCollaborationNotFound = collaborations.ErrCollaborationNotFound
	ErrUserNotFound          = users.ErrUserNotFound
	ErrForbidden             = errors.New("forbidden: private collaboration")
	ErrInvalidArtworkType    = errors.New("invalid artwork type")
	ErrEmptyMessage          = errors.New("message text is empty")
	ErrMessageTooLong        = errors.New("message text too long")
	ErrInvalidRecipient      = errors.New("invalid recipient")
)

// CollaborationStore 协作持久化
type CollaborationStore interface {
	Create(ctx context.Context, collab *models.Collaboration) error
	GetByID(ctx context.Context, id uint) (*models.Collaboration, error)
	AddMember(ctx context.Context, collabID uint, userID string) (bool, error)
	Members(ctx context.Context, collabID uint) ([]models.User, error)
}

// MessageStore 私信持久化
type MessageStore interface {
	Create(ctx context.Context, msg *models.Message) error
	Conversation(ctx context.Context, a, b string, limit int) ([]models.Message, error)
}

// Service 协作与私信服务
type Service struct {
	collabs   CollaborationStore
	messages  MessageStore
	users     users.Store
	publisher events.Publisher
}

func NewService(collabs CollaborationStore, messages MessageStore, userStore users.Store, publisher events.Publisher) *Service {
	return &Service{
		collabs:   collabs,
		messages:  messages,
		users:     userStore,
		publisher: publisher,
	}
}

// StartCollaboration 创建协作，发起人自动成为成员
func (s *Service) StartCollaboration(ctx context.Context, ownerID string, artworkType models.ArtworkType, isPrivate bool) (*models.Collaboration, error) {
	if !artworkType.Valid() {
		return nil, fmt.Errorf("%w: %q", ErrInvalidArtworkType, artworkType)
	}
	if err := s.users.EnsureExists(ctx, ownerID); err != nil {
		return nil, fmt.Errorf("failed to ensure user %s: %w", ownerID, err)
	}

	collab := &models.Collaboration{ArtworkType: artworkType, IsPrivate: isPrivate, OwnerID: ownerID}
	if err := s.collabs.Create(ctx, collab); err != nil {
		return nil, err
	}
	log.Printf("[Collab] User %s started %s collaboration %d (private=%t)", ownerID, artworkType, collab.ID, isPrivate)
	return collab, nil
}

// Join 加入协作，重复加入无副作用
// 私密协作只有发起人的好友可以加入
func (s *Service) Join(ctx context.Context, collabID uint, userID string) (*models.Collaboration, error) {
	collab, err := s.collabs.GetByID(ctx, collabID)
	if err != nil {
		return nil, err
	}

	if collab.IsPrivate && collab.OwnerID != userID {
		owner, err := s.users.GetByID(ctx, collab.OwnerID)
		if err != nil {
			return nil, fmt.Errorf("failed to load owner of collaboration %d: %w", collabID, err)
		}
		if !owner.HasFriend(userID) {
			return nil, ErrForbidden
		}
	}

	if err := s.users.EnsureExists(ctx, userID); err != nil {
		return nil, fmt.Errorf("failed to ensure user %s: %w", userID, err)
	}
	added, err := s.collabs.AddMember(ctx, collabID, userID)
	if err != nil {
		return nil, fmt.Errorf("failed to join collaboration %d: %w", collabID, err)
	}

	if added {
		s.publisher.Publish(ctx, events.Event{
			Type:    events.TypeCollaborationJoined,
			Subject: fmt.Sprintf("collaboration:%d", collabID),
			Data:    map[string]interface{}{"collaborationId": collabID, "userId": userID},
		})
	}
	return collab, nil
}

func (s *Service) Members(ctx context.Context, collabID uint) ([]models.User, error) {
	if _, err := s.collabs.GetByID(ctx, collabID); err != nil {
		return nil, err
	}
	return s.collabs.Members(ctx, collabID)
}

// SendMessage 发送私信，文本会去掉 HTML
func (s *Service) SendMessage(ctx context.Context, senderID, recipientID, text string) (*models.Message, error) {
	if recipientID == "" || recipientID == senderID {
		return nil, ErrInvalidRecipient
	}

	clean := strings.TrimSpace(utils.PlainText(text))
	if clean == "" {
		return nil, ErrEmptyMessage
	}
	if n := utf8.RuneCountInString(clean); n > MaxMessageLength {
		return nil, fmt.Errorf("%w: %d > %d", ErrMessageTooLong, n, MaxMessageLength)
	}

	if _, err := s.users.GetByID(ctx, recipientID); err != nil {
		return nil, err
	}
	if err := s.users.EnsureExists(ctx, senderID); err != nil {
		return nil, fmt.Errorf("failed to ensure user %s: %w", senderID, err)
	}

	msg := &models.Message{Text: clean, SenderID: senderID, RecipientID: recipientID}
	if err := s.messages.Create(ctx, msg); err != nil {
		return nil, fmt.Errorf("failed to save message: %w", err)
	}
	return msg, nil
}

// Conversation 两人之间的私信，按时间正序
func (s *Service) Conversation(ctx context.Context, a, b string) ([]models.Message, error) {
	if b == "" {
		return nil, ErrInvalidRecipient
	}
	return s.messages.Conversation(ctx, a, b, DefaultConversationLimit)
}
