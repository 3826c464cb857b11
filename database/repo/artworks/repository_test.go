package artworks

import (
	"context"
	"testing"
	"time"

	"github.com/anoixa/colab/database/dbtest"
	"github.com/anoixa/colab/database/models"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRepository_CreateStorySeedsPages(t *testing.T) {
	db := dbtest.NewProvider(t)
	repo := NewRepository(db)
	ctx := context.Background()

	story := &models.Story{Title: "Moon", NumberOfPages: 3}
	require.NoError(t, repo.CreateStory(ctx, "u1", story))
	require.NotZero(t, story.ArtworkID)
	assert.Equal(t, "u1", story.OriginalCreatorID)
	require.Len(t, story.Pages, 3)

	var pages []models.Page
	require.NoError(t, db.DB().Where("story_id = ?", story.ID).Order("page_number").Find(&pages).Error)
	require.Len(t, pages, 3)
	for i, p := range pages {
		assert.Equal(t, i+1, p.PageNumber)
		assert.Empty(t, p.Content)
	}

	artwork, err := repo.GetArtwork(ctx, story.ArtworkID)
	require.NoError(t, err)
	assert.Equal(t, models.ArtworkTypeStory, artwork.Type)
	assert.Equal(t, "u1", artwork.UserID)
}

func TestRepository_CreateEachKind(t *testing.T) {
	repo := NewRepository(dbtest.NewProvider(t))
	ctx := context.Background()

	art := &models.VisualArt{Title: "Sun", Content: "http://x/a.png"}
	music := &models.Music{SongTitle: "Tune"}
	sculpture := &models.Sculpture{Title: "Clay"}
	require.NoError(t, repo.CreateVisualArt(ctx, "u1", art))
	require.NoError(t, repo.CreateMusic(ctx, "u2", music))
	require.NoError(t, repo.CreateSculpture(ctx, "u3", sculpture))

	tests := []struct {
		artworkID uint
		wantType  models.ArtworkType
		wantUser  string
	}{
		{art.ArtworkID, models.ArtworkTypeVisualArt, "u1"},
		{music.ArtworkID, models.ArtworkTypeMusic, "u2"},
		{sculpture.ArtworkID, models.ArtworkTypeSculpture, "u3"},
	}
	for _, tt := range tests {
		a, err := repo.GetArtwork(ctx, tt.artworkID)
		require.NoError(t, err)
		assert.Equal(t, tt.wantType, a.Type)
		assert.Equal(t, tt.wantUser, a.UserID)
	}

	_, err := repo.GetArtwork(ctx, 9999)
	assert.ErrorIs(t, err, ErrArtworkNotFound)
}

func TestRepository_ListNewestFirst(t *testing.T) {
	db := dbtest.NewProvider(t)
	repo := NewRepository(db)
	ctx := context.Background()

	base := time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)
	for i, title := range []string{"old", "new", "mid"} {
		art := &models.VisualArt{Title: title}
		require.NoError(t, repo.CreateVisualArt(ctx, "u1", art))
		offset := map[int]time.Duration{0: 0, 1: 2 * time.Hour, 2: time.Hour}[i]
		require.NoError(t, db.DB().Model(art).Update("created_at", base.Add(offset)).Error)
	}

	list, err := repo.ListVisualArt(ctx)
	require.NoError(t, err)
	require.Len(t, list, 3)
	assert.Equal(t, []string{"new", "mid", "old"}, []string{list[0].Title, list[1].Title, list[2].Title})
}
