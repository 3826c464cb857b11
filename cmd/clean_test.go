package cmd

import (
	"bytes"
	"context"
	"testing"

	"github.com/anoixa/colab/database/dbtest"
	"github.com/anoixa/colab/database/models"
	"github.com/anoixa/colab/storage"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCleanOrphanRecords(t *testing.T) {
	ctx := context.Background()
	db := dbtest.NewProvider(t).DB()
	story := seedStory(t, db)

	lonely := &models.Artwork{Type: models.ArtworkTypeMusic, UserID: "alice"}
	require.NoError(t, db.Create(lonely).Error)
	stray := &models.Page{PageNumber: 1, Content: "lost", StoryID: story.ID + 100}
	require.NoError(t, db.Create(stray).Error)
	membership := &models.UserCollaboration{UserID: "alice", CollaborationID: 42}
	require.NoError(t, db.Create(membership).Error)

	stats := &cleanStats{orphans: make(map[string][]uint)}
	require.NoError(t, cleanOrphanRecords(ctx, db, stats, true))
	assert.Equal(t, []uint{lonely.ID}, stats.orphans["artworks"])
	assert.Equal(t, []uint{stray.ID}, stats.orphans["pages"])
	assert.Equal(t, []uint{membership.ID}, stats.orphans["user_collaborations"])
	assert.Zero(t, stats.deleted)

	stats = &cleanStats{orphans: make(map[string][]uint)}
	require.NoError(t, cleanOrphanRecords(ctx, db, stats, false))
	assert.Equal(t, 3, stats.deleted)

	var pages int64
	require.NoError(t, db.Model(&models.Page{}).Count(&pages).Error)
	assert.Equal(t, int64(2), pages)
	var artworks int64
	require.NoError(t, db.Model(&models.Artwork{}).Count(&artworks).Error)
	assert.Equal(t, int64(1), artworks)
}

func TestCheckMediaReferences(t *testing.T) {
	ctx := context.Background()
	db := dbtest.NewProvider(t).DB()
	store, err := storage.NewLocalStorage(t.TempDir())
	require.NoError(t, err)
	require.NoError(t, store.SaveWithContext(ctx, "visualart/a.png", bytes.NewReader([]byte("png"))))

	base := "http://localhost:8000/media"
	require.NoError(t, db.Create(&models.User{ID: "alice"}).Error)
	for i, url := range []string{base + "/visualart/a.png", base + "/visualart/gone.png", "https://elsewhere.example/b.png"} {
		artwork := &models.Artwork{Type: models.ArtworkTypeVisualArt, UserID: "alice"}
		require.NoError(t, db.Create(artwork).Error)
		require.NoError(t, db.Create(&models.VisualArt{Title: string(rune('a' + i)), URL: url, ArtworkID: artwork.ID}).Error)
	}

	stats := &cleanStats{orphans: make(map[string][]uint)}
	require.NoError(t, checkMediaReferences(ctx, db, store, base, stats))
	require.Len(t, stats.missingMedia, 1)
	assert.Contains(t, stats.missingMedia[0], "gone.png")
}
