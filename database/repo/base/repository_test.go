package base

import (
	"context"
	"testing"
	"time"

	"github.com/anoixa/colab/database/dbtest"
	"github.com/anoixa/colab/database/models"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRepository(t *testing.T) {
	db := dbtest.NewProvider(t)
	repo := NewRepository[models.Message](db)
	ctx := context.Background()

	missing, err := repo.GetByID(ctx, 42)
	require.NoError(t, err)
	assert.Nil(t, missing)

	now := time.Now()
	first := &models.Message{Text: "first", SenderID: "a", RecipientID: "b", CreatedAt: now.Add(-time.Minute)}
	second := &models.Message{Text: "second", SenderID: "b", RecipientID: "a", CreatedAt: now}
	require.NoError(t, repo.Create(ctx, first))
	require.NoError(t, repo.Create(ctx, second))

	got, err := repo.GetByID(ctx, first.ID)
	require.NoError(t, err)
	require.NotNil(t, got)
	assert.Equal(t, "first", got.Text)

	newest, err := repo.ListNewest(ctx, 0)
	require.NoError(t, err)
	require.Len(t, newest, 2)
	assert.Equal(t, "second", newest[0].Text)

	limited, err := repo.ListNewest(ctx, 1)
	require.NoError(t, err)
	assert.Len(t, limited, 1)
}
