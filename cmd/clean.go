package cmd

import (
	"context"
	"fmt"

	"github.com/anoixa/colab/config"
	"github.com/anoixa/colab/database/models"
	"github.com/anoixa/colab/storage"
	"github.com/anoixa/colab/utils"
	log "github.com/sirupsen/logrus"
	"github.com/spf13/cobra"
	"gorm.io/gorm"
)

// cleanCmd 清理数据库孤儿记录，检查失效的媒体引用
var cleanCmd = &cobra.Command{
	Use:   "clean",
	Short: "Clean orphan database records and report broken media references",
	Long: `Clean orphan database records and report broken media references.
This includes:
  - Delete artworks that have no visual art, music, sculpture or story row
  - Delete pages whose story no longer exists
  - Delete memberships whose collaboration no longer exists
  - Report media URLs whose stored file is missing`,
	Run: func(cmd *cobra.Command, args []string) {
		dryRun, _ := cmd.Flags().GetBool("dry-run")
		dbOnly, _ := cmd.Flags().GetBool("db-only")
		mediaOnly, _ := cmd.Flags().GetBool("media-only")

		if err := runClean(dryRun, dbOnly, mediaOnly); err != nil {
			log.Fatalf("Clean failed: %v", err)
		}
	},
}

func init() {
	rootCmd.AddCommand(cleanCmd)
	cleanCmd.Flags().Bool("dry-run", false, "Only show what would be cleaned, don't actually delete")
	cleanCmd.Flags().Bool("db-only", false, "Only clean orphan database records")
	cleanCmd.Flags().Bool("media-only", false, "Only check media references")
}

// cleanStats 清理统计信息
type cleanStats struct {
	orphans      map[string][]uint // 表名 -> 孤儿记录 ID
	deleted      int
	missingMedia []string
	errors       []string
}

// orphanRule 一类孤儿记录的判定条件
type orphanRule struct {
	table string
	model interface{}
	where string
}

var orphanRules = []orphanRule{
	{
		table: "artworks",
		model: &models.Artwork{},
		where: "NOT EXISTS (SELECT 1 FROM visual_arts WHERE visual_arts.artwork_id = artworks.id)" +
			" AND NOT EXISTS (SELECT 1 FROM music WHERE music.artwork_id = artworks.id)" +
			" AND NOT EXISTS (SELECT 1 FROM sculptures WHERE sculptures.artwork_id = artworks.id)" +
			" AND NOT EXISTS (SELECT 1 FROM stories WHERE stories.artwork_id = artworks.id)",
	},
	{
		table: "pages",
		model: &models.Page{},
		where: "NOT EXISTS (SELECT 1 FROM stories WHERE stories.id = pages.story_id)",
	},
	{
		table: "user_collaborations",
		model: &models.UserCollaboration{},
		where: "NOT EXISTS (SELECT 1 FROM collaborations WHERE collaborations.id = user_collaborations.collaboration_id)",
	},
}

// runClean 执行清理
func runClean(dryRun, dbOnly, mediaOnly bool) error {
	factory, err := openConfiguredDB()
	if err != nil {
		return err
	}
	defer func() { _ = factory.Close() }()
	db := factory.GetProvider().DB()

	ctx := context.Background()
	stats := &cleanStats{orphans: make(map[string][]uint)}

	if !mediaOnly {
		if err := cleanOrphanRecords(ctx, db, stats, dryRun); err != nil {
			stats.errors = append(stats.errors, fmt.Sprintf("clean orphan records failed: %v", err))
		}
	}

	if !dbOnly {
		cfg := config.Get()
		store, err := storage.NewProvider(cfg)
		if err != nil {
			return fmt.Errorf("failed to initialize storage: %w", err)
		}
		if err := checkMediaReferences(ctx, db, store, cfg.MediaBaseURL(), stats); err != nil {
			stats.errors = append(stats.errors, fmt.Sprintf("check media references failed: %v", err))
		}
	}

	printCleanStats(stats, dryRun)
	if len(stats.errors) > 0 {
		return fmt.Errorf("clean completed with %d errors", len(stats.errors))
	}
	return nil
}

// cleanOrphanRecords 查出并删除孤儿记录，dry-run 只统计
func cleanOrphanRecords(ctx context.Context, db *gorm.DB, stats *cleanStats, dryRun bool) error {
	for _, rule := range orphanRules {
		var ids []uint
		if err := db.WithContext(ctx).Model(rule.model).Where(rule.where).Pluck("id", &ids).Error; err != nil {
			return fmt.Errorf("%s: %w", rule.table, err)
		}
		if len(ids) == 0 {
			continue
		}
		stats.orphans[rule.table] = ids
		log.Printf("Found %d orphan records in %s", len(ids), rule.table)

		if dryRun {
			continue
		}
		result := db.WithContext(ctx).Where("id IN ?", ids).Delete(rule.model)
		if result.Error != nil {
			return fmt.Errorf("%s: %w", rule.table, result.Error)
		}
		stats.deleted += int(result.RowsAffected)
	}
	return nil
}

// checkMediaReferences 只检查托管在本服务下的 URL，外部链接跳过
func checkMediaReferences(ctx context.Context, db *gorm.DB, store storage.Provider, baseURL string, stats *cleanStats) error {
	type ref struct {
		ID  uint
		URL string
	}
	sources := []struct {
		table  string
		column string
	}{
		{"visual_arts", "url"},
		{"music", "url"},
		{"stories", "cover_image"},
	}

	for _, src := range sources {
		var refs []ref
		err := db.WithContext(ctx).Table(src.table).
			Select("id, "+src.column+" AS url").
			Where(src.column+" <> ''").
			Scan(&refs).Error
		if err != nil {
			return fmt.Errorf("%s: %w", src.table, err)
		}

		for _, r := range refs {
			path, ok := utils.MediaPathFromURL(baseURL, r.URL)
			if !ok {
				continue
			}
			if !storage.IsValidStoragePath(path) {
				stats.missingMedia = append(stats.missingMedia, fmt.Sprintf("%s#%d: %s", src.table, r.ID, r.URL))
				continue
			}
			exists, err := store.Exists(ctx, path)
			if err != nil {
				return fmt.Errorf("%s#%d: %w", src.table, r.ID, err)
			}
			if !exists {
				stats.missingMedia = append(stats.missingMedia, fmt.Sprintf("%s#%d: %s", src.table, r.ID, r.URL))
			}
		}
	}
	return nil
}

// printCleanStats 打印清理统计
func printCleanStats(stats *cleanStats, dryRun bool) {
	fmt.Println()
	fmt.Println("========================================")
	if dryRun {
		fmt.Println("       Clean Preview (dry-run)")
	} else {
		fmt.Println("       Clean Statistics")
	}
	fmt.Println("========================================")
	for _, rule := range orphanRules {
		fmt.Printf("%-22s %d\n", "Orphan "+rule.table+":", len(stats.orphans[rule.table]))
	}
	if !dryRun {
		fmt.Printf("%-22s %d\n", "Deleted records:", stats.deleted)
	}
	fmt.Printf("%-22s %d\n", "Missing media:", len(stats.missingMedia))
	fmt.Println("========================================")

	for _, m := range stats.missingMedia {
		fmt.Printf("  - %s\n", m)
	}
	if len(stats.errors) > 0 {
		fmt.Println("\nErrors encountered:")
		for _, err := range stats.errors {
			fmt.Printf("  - %s\n", err)
		}
	}
}
