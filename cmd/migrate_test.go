package cmd

import (
	"context"
	"testing"

	"github.com/anoixa/colab/database/dbtest"
	"github.com/anoixa/colab/database/models"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMigrateData(t *testing.T) {
	source := dbtest.NewProvider(t).DB()
	target := dbtest.NewProvider(t).DB()

	owner := &models.User{ID: "alice", Name: "Alice", Friends: []string{"bob"}}
	require.NoError(t, source.Create(owner).Error)
	artwork := &models.Artwork{Type: models.ArtworkTypeStory, UserID: "alice"}
	require.NoError(t, source.Create(artwork).Error)
	story := &models.Story{Title: "Moon", NumberOfPages: 2, ArtworkID: artwork.ID, OriginalCreatorID: "alice"}
	require.NoError(t, source.Create(story).Error)
	require.NoError(t, source.Create(&[]models.Page{
		{PageNumber: 1, Content: "one", StoryID: story.ID},
		{PageNumber: 2, Content: "two", StoryID: story.ID},
	}).Error)

	stats, err := migrateData(context.Background(), source, target, 1, "skip")
	require.NoError(t, err)
	assert.Empty(t, stats.errors)
	assert.Equal(t, 1, stats.copied["users"])
	assert.Equal(t, 2, stats.copied["pages"])

	var user models.User
	require.NoError(t, target.First(&user, "id = ?", "alice").Error)
	assert.Equal(t, []string{"bob"}, user.Friends)

	var pages []models.Page
	require.NoError(t, target.Order("page_number").Find(&pages, "story_id = ?", story.ID).Error)
	require.Len(t, pages, 2)
	assert.Equal(t, "two", pages[1].Content)

	// 再跑一次 skip 不会报主键冲突
	_, err = migrateData(context.Background(), source, target, 10, "skip")
	require.NoError(t, err)
	var count int64
	require.NoError(t, target.Model(&models.Page{}).Count(&count).Error)
	assert.Equal(t, int64(2), count)
}

func TestMigrateDataOverwrite(t *testing.T) {
	source := dbtest.NewProvider(t).DB()
	target := dbtest.NewProvider(t).DB()

	require.NoError(t, source.Create(&models.User{ID: "alice", Name: "New"}).Error)
	require.NoError(t, target.Create(&models.User{ID: "alice", Name: "Old"}).Error)

	_, err := migrateData(context.Background(), source, target, 10, "overwrite")
	require.NoError(t, err)

	var user models.User
	require.NoError(t, target.First(&user, "id = ?", "alice").Error)
	assert.Equal(t, "New", user.Name)
}

func TestMigrateDataRejectsUnknownStrategy(t *testing.T) {
	source := dbtest.NewProvider(t).DB()
	target := dbtest.NewProvider(t).DB()

	_, err := migrateData(context.Background(), source, target, 10, "merge")
	assert.Error(t, err)
}
