package messages

import (
	"context"
	"testing"

	"github.com/anoixa/colab/database/dbtest"
	"github.com/anoixa/colab/database/models"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRepository_Conversation(t *testing.T) {
	repo := NewRepository(dbtest.NewProvider(t))
	ctx := context.Background()

	send := func(from, to, text string) {
		require.NoError(t, repo.Create(ctx, &models.Message{SenderID: from, RecipientID: to, Text: text}))
	}
	send("a", "b", "hi")
	send("b", "a", "hello")
	send("a", "c", "elsewhere")
	send("a", "b", "bye")

	msgs, err := repo.Conversation(ctx, "b", "a", 0)
	require.NoError(t, err)
	require.Len(t, msgs, 3)
	assert.Equal(t, []string{"hi", "hello", "bye"}, []string{msgs[0].Text, msgs[1].Text, msgs[2].Text})

	limited, err := repo.Conversation(ctx, "a", "b", 2)
	require.NoError(t, err)
	assert.Len(t, limited, 2)
}
