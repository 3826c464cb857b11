package cmd

import (
	"bytes"
	"context"
	"testing"

	"github.com/anoixa/colab/database/dbtest"
	"github.com/anoixa/colab/database/models"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"
)

func seedStory(t *testing.T, db *gorm.DB) *models.Story {
	t.Helper()
	require.NoError(t, db.Create(&models.User{ID: "alice", Name: "Alice"}).Error)
	artwork := &models.Artwork{Type: models.ArtworkTypeStory, UserID: "alice"}
	require.NoError(t, db.Create(artwork).Error)
	story := &models.Story{Title: "Moon", NumberOfPages: 2, ArtworkID: artwork.ID, OriginalCreatorID: "alice"}
	require.NoError(t, db.Create(story).Error)
	require.NoError(t, db.Create(&[]models.Page{
		{PageNumber: 1, Content: "<p>one</p>", StoryID: story.ID},
		{PageNumber: 2, Content: "<p>two</p>", StoryID: story.ID},
	}).Error)
	require.NoError(t, db.Create(&models.Message{Text: "hi", SenderID: "alice", RecipientID: "bob"}).Error)
	return story
}

func TestBackupRestoreRoundTrip(t *testing.T) {
	ctx := context.Background()
	source := dbtest.NewProvider(t).DB()
	story := seedStory(t, source)

	var archive bytes.Buffer
	metadata, err := writeBackup(ctx, source, "sqlite", dataTables, &archive)
	require.NoError(t, err)
	assert.Len(t, metadata.Tables, len(dataTables))
	assert.Equal(t, int64(2), metadata.RecordCount["pages"])
	assert.Equal(t, int64(1), metadata.RecordCount["messages"])

	target := dbtest.NewProvider(t).DB()
	stats, err := restoreArchive(ctx, target, bytes.NewReader(archive.Bytes()), restoreOptions{})
	require.NoError(t, err)
	require.NotNil(t, stats.Metadata)
	assert.Equal(t, "sqlite", stats.Metadata.Database)
	assert.Equal(t, int64(2), stats.Restored["pages"])

	var pages []models.Page
	require.NoError(t, target.Order("page_number").Find(&pages, "story_id = ?", story.ID).Error)
	require.Len(t, pages, 2)
	assert.Equal(t, "<p>two</p>", pages[1].Content)

	// 默认 skip 策略，重复还原不重复写入
	_, err = restoreArchive(ctx, target, bytes.NewReader(archive.Bytes()), restoreOptions{})
	require.NoError(t, err)
	var count int64
	require.NoError(t, target.Model(&models.Message{}).Count(&count).Error)
	assert.Equal(t, int64(1), count)
}

func TestRestoreDryRunAndTableFilter(t *testing.T) {
	ctx := context.Background()
	source := dbtest.NewProvider(t).DB()
	seedStory(t, source)

	var archive bytes.Buffer
	_, err := writeBackup(ctx, source, "sqlite", dataTables, &archive)
	require.NoError(t, err)

	target := dbtest.NewProvider(t).DB()
	stats, err := restoreArchive(ctx, target, bytes.NewReader(archive.Bytes()), restoreOptions{dryRun: true})
	require.NoError(t, err)
	assert.Equal(t, int64(2), stats.Restored["pages"])

	var count int64
	require.NoError(t, target.Model(&models.Page{}).Count(&count).Error)
	assert.Zero(t, count)

	stats, err = restoreArchive(ctx, target, bytes.NewReader(archive.Bytes()), restoreOptions{tables: []string{"users"}})
	require.NoError(t, err)
	assert.Equal(t, map[string]int64{"users": 1}, stats.Restored)
	assert.Contains(t, stats.Skipped, "pages")
}

func TestRestoreTruncate(t *testing.T) {
	ctx := context.Background()
	source := dbtest.NewProvider(t).DB()
	require.NoError(t, source.Create(&models.User{ID: "alice", Name: "Alice"}).Error)

	var archive bytes.Buffer
	_, err := writeBackup(ctx, source, "sqlite", []dataTable{dataTables[0]}, &archive)
	require.NoError(t, err)

	target := dbtest.NewProvider(t).DB()
	require.NoError(t, target.Create(&models.User{ID: "mallory", Name: "Mallory"}).Error)

	_, err = restoreArchive(ctx, target, bytes.NewReader(archive.Bytes()), restoreOptions{tables: []string{"users"}, truncate: true})
	require.NoError(t, err)

	var ids []string
	require.NoError(t, target.Model(&models.User{}).Pluck("id", &ids).Error)
	assert.Equal(t, []string{"alice"}, ids)
}

func TestSelectTables(t *testing.T) {
	tables, err := selectTables([]string{"pages", "users"})
	require.NoError(t, err)
	require.Len(t, tables, 2)
	// 保持依赖顺序
	assert.Equal(t, "users", tables[0].name)
	assert.Equal(t, "pages", tables[1].name)

	_, err = selectTables([]string{"images"})
	assert.Error(t, err)
}
