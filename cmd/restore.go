package cmd

import (
	"archive/tar"
	"bufio"
	"compress/gzip"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/anoixa/colab/database/models"
	log "github.com/sirupsen/logrus"
	"github.com/spf13/cobra"
	"gorm.io/gorm"
)

// restoreCmd 数据库还原命令
var restoreCmd = &cobra.Command{
	Use:   "restore",
	Short: "Restore database from backup archive",
	Long: `Restore database from tar.gz backup archive created by backup command.

Example:
  # Restore from backup file
  colab restore --input ./data/backups/backup_20260214_222320.tar.gz

  # Restore with dry-run (preview only)
  colab restore --input ./backup.tar.gz --dry-run

  # Restore specific tables only
  colab restore --input ./backup.tar.gz --tables users,messages

  # Clear existing data before restore
  colab restore --input ./backup.tar.gz --truncate`,
	Run: func(cmd *cobra.Command, args []string) {
		inputFile, _ := cmd.Flags().GetString("input")
		tables, _ := cmd.Flags().GetStringSlice("tables")
		dryRun, _ := cmd.Flags().GetBool("dry-run")
		truncate, _ := cmd.Flags().GetBool("truncate")
		skipConfirm, _ := cmd.Flags().GetBool("yes")
		onConflict, _ := cmd.Flags().GetString("on-conflict")

		opts := restoreOptions{tables: tables, dryRun: dryRun, truncate: truncate, onConflict: onConflict}
		if err := runRestore(inputFile, opts, skipConfirm); err != nil {
			log.Fatalf("Restore failed: %v", err)
		}
	},
}

func init() {
	rootCmd.AddCommand(restoreCmd)
	restoreCmd.Flags().StringP("input", "i", "", "Input tar.gz backup file path (required)")
	restoreCmd.Flags().StringSliceP("tables", "t", []string{}, "Specific tables to restore (default: all)")
	restoreCmd.Flags().Bool("dry-run", false, "Preview restore without actually writing to database")
	restoreCmd.Flags().Bool("truncate", false, "Clear existing data before restore")
	restoreCmd.Flags().Bool("yes", false, "Skip confirmation prompt")
	restoreCmd.Flags().String("on-conflict", "skip", "Conflict resolution strategy: skip (default), overwrite, error")

	_ = restoreCmd.MarkFlagRequired("input")
}

type restoreOptions struct {
	tables     []string
	dryRun     bool
	truncate   bool
	onConflict string
}

// restoreStats 还原统计，dry-run 时 Restored 为归档中的记录数
type restoreStats struct {
	Metadata *backupMetadata
	Restored map[string]int64
	Skipped  []string
}

// runRestore 执行还原
func runRestore(inputFile string, opts restoreOptions, skipConfirm bool) error {
	file, err := os.Open(inputFile)
	if err != nil {
		return fmt.Errorf("backup file not found: %w", err)
	}
	defer func() { _ = file.Close() }()

	factory, err := openConfiguredDB()
	if err != nil {
		return err
	}
	defer func() { _ = factory.Close() }()

	if !opts.dryRun && !skipConfirm {
		fmt.Println("\nWarning: This will restore data from backup to the current database.")
		if opts.truncate {
			fmt.Println("Existing data will be TRUNCATED.")
		}
		fmt.Print("Do you want to continue? [y/N]: ")
		var response string
		_, _ = fmt.Scanln(&response)
		if response != "y" && response != "Y" {
			fmt.Println("Restore cancelled.")
			return nil
		}
	}

	log.Printf("Restoring from: %s", inputFile)
	stats, err := restoreArchive(context.Background(), factory.GetProvider().DB(), file, opts)
	if err != nil {
		return err
	}
	printRestoreSummary(stats, opts.dryRun)
	return nil
}

// restoreArchive 在一个事务中还原归档，任一表失败整体回滚
func restoreArchive(ctx context.Context, db *gorm.DB, r io.Reader, opts restoreOptions) (*restoreStats, error) {
	if opts.onConflict == "" {
		opts.onConflict = "skip"
	}
	conflict, err := conflictClause(opts.onConflict)
	if err != nil {
		return nil, err
	}
	selected, err := selectTables(opts.tables)
	if err != nil {
		return nil, err
	}
	byName := make(map[string]dataTable, len(selected))
	for _, t := range selected {
		byName[t.name] = t
	}

	gzReader, err := gzip.NewReader(r)
	if err != nil {
		return nil, fmt.Errorf("invalid backup archive: %w", err)
	}
	defer func() { _ = gzReader.Close() }()
	tarReader := tar.NewReader(gzReader)

	stats := &restoreStats{Restored: make(map[string]int64)}

	if !opts.dryRun {
		if err := db.AutoMigrate(models.All()...); err != nil {
			return nil, fmt.Errorf("failed to migrate schema: %w", err)
		}
	}

	err = db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		for {
			header, err := tarReader.Next()
			if errors.Is(err, io.EOF) {
				break
			}
			if err != nil {
				return fmt.Errorf("failed to read archive: %w", err)
			}

			if header.Name == backupMetadataName {
				var metadata backupMetadata
				if err := json.NewDecoder(tarReader).Decode(&metadata); err != nil {
					return fmt.Errorf("failed to read metadata: %w", err)
				}
				stats.Metadata = &metadata
				log.Printf("Backup version: %s, Database: %s, Timestamp: %s",
					metadata.Version, metadata.Database, metadata.Timestamp.Format("2006-01-02 15:04:05"))

				if opts.truncate && !opts.dryRun {
					if err := truncateTables(tx, selected); err != nil {
						return err
					}
				}
				continue
			}

			if stats.Metadata == nil {
				return errors.New("invalid backup archive: metadata.json must come first")
			}

			name := strings.TrimSuffix(header.Name, ".jsonl")
			t, ok := byName[name]
			if !ok {
				stats.Skipped = append(stats.Skipped, name)
				continue
			}

			var n int64
			if opts.dryRun {
				n, err = countLines(tarReader)
			} else {
				n, err = t.load(ctx, tx, tarReader, 100, conflict)
			}
			if err != nil {
				return fmt.Errorf("failed to restore table %s: %w", name, err)
			}
			stats.Restored[name] = n
			log.Printf("Restored %d records into table: %s", n, name)
		}

		if stats.Metadata == nil {
			return errors.New("invalid backup archive: missing metadata.json")
		}
		if opts.dryRun {
			return nil
		}
		return resetSequences(ctx, tx, selected)
	})
	if err != nil {
		return nil, err
	}
	return stats, nil
}

// truncateTables 按依赖逆序清空
func truncateTables(tx *gorm.DB, tables []dataTable) error {
	for i := len(tables) - 1; i >= 0; i-- {
		t := tables[i]
		if err := tx.Session(&gorm.Session{AllowGlobalUpdate: true}).Delete(t.model).Error; err != nil {
			return fmt.Errorf("failed to truncate %s: %w", t.name, err)
		}
		log.Printf("Truncated table: %s", t.name)
	}
	return nil
}

func countLines(r io.Reader) (int64, error) {
	scanner := bufio.NewScanner(r)
	scanner.Buffer(make([]byte, 64*1024), 64<<20)
	var n int64
	for scanner.Scan() {
		if len(scanner.Bytes()) > 0 {
			n++
		}
	}
	return n, scanner.Err()
}

// printRestoreSummary 打印还原统计
func printRestoreSummary(stats *restoreStats, dryRun bool) {
	fmt.Println()
	if dryRun {
		fmt.Println("Restore Preview (dry-run):")
	} else {
		fmt.Println("Restore Summary:")
	}
	fmt.Println("================")
	var total int64
	for _, t := range dataTables {
		n, ok := stats.Restored[t.name]
		if !ok {
			continue
		}
		total += n
		fmt.Printf("  - %s: %d records\n", t.name, n)
	}
	if len(stats.Skipped) > 0 {
		fmt.Printf("\nSkipped tables: %s\n", strings.Join(stats.Skipped, ", "))
	}
	fmt.Printf("\nTotal records: %d\n", total)
}
