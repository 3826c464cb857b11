package collab

import (
	"context"
	"strings"
	"testing"

	"github.com/anoixa/colab/database/dbtest"
	"github.com/anoixa/colab/database/models"
	"github.com/anoixa/colab/database/repo/collaborations"
	"github.com/anoixa/colab/database/repo/messages"
	"github.com/anoixa/colab/database/repo/users"
	"github.com/anoixa/colab/internal/events"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestService(t *testing.T) (*Service, *users.Repository, *events.Recorder) {
	t.Helper()
	db := dbtest.NewProvider(t)
	userRepo := users.NewRepository(db)
	recorder := events.NewRecorder()
	svc := NewService(collaborations.NewRepository(db), messages.NewRepository(db), userRepo, recorder)

	ctx := context.Background()
	for _, u := range []models.User{{ID: "owner", Name: "Owner"}, {ID: "friend", Name: "Friend"}, {ID: "stranger", Name: "Stranger"}} {
		u := u
		require.NoError(t, userRepo.Upsert(ctx, &u))
	}
	_, err := userRepo.AddFriend(ctx, "owner", "friend")
	require.NoError(t, err)
	return svc, userRepo, recorder
}

func memberIDs(users []models.User) []string {
	ids := make([]string, len(users))
	for i, u := range users {
		ids[i] = u.ID
	}
	return ids
}

func TestPublicCollaboration(t *testing.T) {
	svc, _, recorder := newTestService(t)
	ctx := context.Background()

	collab, err := svc.StartCollaboration(ctx, "owner", models.ArtworkTypeStory, false)
	require.NoError(t, err)

	_, err = svc.Join(ctx, collab.ID, "stranger")
	require.NoError(t, err)
	// 重复加入
	_, err = svc.Join(ctx, collab.ID, "stranger")
	require.NoError(t, err)

	members, err := svc.Members(ctx, collab.ID)
	require.NoError(t, err)
	assert.Equal(t, []string{"owner", "stranger"}, memberIDs(members))

	assert.Equal(t, []string{events.TypeCollaborationJoined}, recorder.Types())
}

func TestPrivateCollaborationIsFriendsOnly(t *testing.T) {
	svc, _, _ := newTestService(t)
	ctx := context.Background()

	collab, err := svc.StartCollaboration(ctx, "owner", models.ArtworkTypeVisualArt, true)
	require.NoError(t, err)

	_, err = svc.Join(ctx, collab.ID, "stranger")
	assert.ErrorIs(t, err, ErrForbidden)

	_, err = svc.Join(ctx, collab.ID, "friend")
	require.NoError(t, err)

	_, err = svc.Join(ctx, collab.ID, "owner")
	require.NoError(t, err)

	members, err := svc.Members(ctx, collab.ID)
	require.NoError(t, err)
	assert.Equal(t, []string{"owner", "friend"}, memberIDs(members))
}

func TestCollaborationErrors(t *testing.T) {
	svc, _, _ := newTestService(t)
	ctx := context.Background()

	_, err := svc.StartCollaboration(ctx, "owner", models.ArtworkType("poem"), false)
	assert.ErrorIs(t, err, ErrInvalidArtworkType)

	_, err = svc.Join(ctx, 404, "friend")
	assert.ErrorIs(t, err, ErrCollaborationNotFound)

	_, err = svc.Members(ctx, 404)
	assert.ErrorIs(t, err, ErrCollaborationNotFound)
}

func TestMessages(t *testing.T) {
	svc, _, _ := newTestService(t)
	ctx := context.Background()

	_, err := svc.SendMessage(ctx, "owner", "friend", "hi <b>there</b>")
	require.NoError(t, err)
	_, err = svc.SendMessage(ctx, "friend", "owner", "hello back")
	require.NoError(t, err)
	_, err = svc.SendMessage(ctx, "stranger", "owner", "unrelated")
	require.NoError(t, err)

	conv, err := svc.Conversation(ctx, "owner", "friend")
	require.NoError(t, err)
	require.Len(t, conv, 2)
	assert.Equal(t, "hi there", conv[0].Text)
	assert.Equal(t, "hello back", conv[1].Text)

	msg, err := svc.SendMessage(ctx, "owner", "friend", "&lt;img src=x onerror=alert(1)&gt;look")
	require.NoError(t, err)
	assert.Equal(t, "look", msg.Text)

	tests := []struct {
		name      string
		recipient string
		text      string
		wantErr   error
	}{
		{"empty", "friend", "   ", ErrEmptyMessage},
		{"only markup", "friend", "<script>alert(1)</script>", ErrEmptyMessage},
		{"only encoded markup", "friend", "&lt;script&gt;alert(1)&lt;/script&gt;", ErrEmptyMessage},
		{"too long", "friend", strings.Repeat("a", MaxMessageLength+1), ErrMessageTooLong},
		{"to self", "owner", "hi", ErrInvalidRecipient},
		{"no recipient", "", "hi", ErrInvalidRecipient},
		{"unknown recipient", "ghost", "hi", ErrUserNotFound},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := svc.SendMessage(ctx, "owner", tt.recipient, tt.text)
			assert.ErrorIs(t, err, tt.wantErr)
		})
	}
}
