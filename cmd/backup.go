package cmd

import (
	"archive/tar"
	"compress/gzip"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"time"

	"github.com/anoixa/colab/config"
	"github.com/anoixa/colab/database"
	log "github.com/sirupsen/logrus"
	"github.com/spf13/cobra"
	"gorm.io/gorm"
)

const backupMetadataName = "metadata.json"

// backupCmd 数据库备份命令
var backupCmd = &cobra.Command{
	Use:   "backup",
	Short: "Backup database to JSONL archive",
	Long: `Backup database to JSONL format and pack into tar.gz archive.

Example:
  # Backup to default file (./data/backups/backup_YYYYMMDD_HHMMSS.tar.gz)
  colab backup

  # Backup to specific file
  colab backup --output ./my-backup.tar.gz

  # Backup specific tables only
  colab backup --tables users,stories,pages`,
	Run: func(cmd *cobra.Command, args []string) {
		outputFile, _ := cmd.Flags().GetString("output")
		tables, _ := cmd.Flags().GetStringSlice("tables")

		if err := runBackup(outputFile, tables); err != nil {
			log.Fatalf("Backup failed: %v", err)
		}
	},
}

func init() {
	rootCmd.AddCommand(backupCmd)
	backupCmd.Flags().StringP("output", "o", "", "Output tar.gz file path (default: ./data/backups/backup_YYYYMMDD_HHMMSS.tar.gz)")
	backupCmd.Flags().StringSliceP("tables", "t", []string{}, "Specific tables to backup (default: all)")
}

// backupMetadata 备份元数据，归档中的第一个文件
type backupMetadata struct {
	Version     string           `json:"version"`
	Timestamp   time.Time        `json:"timestamp"`
	Database    string           `json:"database"`
	Tables      []string         `json:"tables"`
	RecordCount map[string]int64 `json:"record_count"`
}

// openConfiguredDB 按配置文件打开数据库
func openConfiguredDB() (*database.Factory, error) {
	config.InitConfig()
	factory, err := database.NewFactory(config.Get())
	if err != nil {
		return nil, fmt.Errorf("failed to initialize database: %w", err)
	}
	return factory, nil
}

// runBackup 执行备份
func runBackup(outputFile string, names []string) error {
	tables, err := selectTables(names)
	if err != nil {
		return err
	}

	factory, err := openConfiguredDB()
	if err != nil {
		return err
	}
	defer func() { _ = factory.Close() }()

	if outputFile == "" {
		timestamp := time.Now().Format("20060102_150405")
		outputFile = filepath.Join("./data/backups", fmt.Sprintf("backup_%s.tar.gz", timestamp))
	}
	if err := os.MkdirAll(filepath.Dir(outputFile), 0755); err != nil {
		return fmt.Errorf("failed to create output directory: %w", err)
	}

	file, err := os.Create(outputFile)
	if err != nil {
		return err
	}
	defer func() { _ = file.Close() }()

	log.Printf("Starting backup to: %s", outputFile)
	provider := factory.GetProvider()
	metadata, err := writeBackup(context.Background(), provider.DB(), provider.Name(), tables, file)
	if err != nil {
		_ = os.Remove(outputFile)
		return err
	}

	log.Printf("Backup completed successfully: %s", outputFile)
	printBackupSummary(metadata, outputFile)
	return nil
}

// writeBackup 先把每张表导出到临时文件，再按 metadata、表的顺序写入 tar.gz
func writeBackup(ctx context.Context, db *gorm.DB, dbName string, tables []dataTable, w io.Writer) (*backupMetadata, error) {
	metadata := &backupMetadata{
		Version:     config.Version,
		Timestamp:   time.Now(),
		Database:    dbName,
		RecordCount: make(map[string]int64),
	}

	tempDir, err := os.MkdirTemp("", "colab-backup-")
	if err != nil {
		return nil, fmt.Errorf("failed to create temp directory: %w", err)
	}
	defer func() { _ = os.RemoveAll(tempDir) }()

	for _, t := range tables {
		count, err := dumpToFile(ctx, db, t, filepath.Join(tempDir, t.name+".jsonl"))
		if err != nil {
			return nil, fmt.Errorf("failed to backup table %s: %w", t.name, err)
		}
		metadata.Tables = append(metadata.Tables, t.name)
		metadata.RecordCount[t.name] = count
		log.Printf("Backed up %d records from table: %s", count, t.name)
	}

	gzWriter := gzip.NewWriter(w)
	tarWriter := tar.NewWriter(gzWriter)

	meta, err := json.MarshalIndent(metadata, "", "  ")
	if err != nil {
		return nil, err
	}
	if err := writeTarEntry(tarWriter, backupMetadataName, int64(len(meta)), func(w io.Writer) error {
		_, err := w.Write(meta)
		return err
	}); err != nil {
		return nil, err
	}

	for _, name := range metadata.Tables {
		if err := addFileToTar(tarWriter, filepath.Join(tempDir, name+".jsonl")); err != nil {
			return nil, fmt.Errorf("failed to archive table %s: %w", name, err)
		}
	}

	if err := tarWriter.Close(); err != nil {
		return nil, err
	}
	if err := gzWriter.Close(); err != nil {
		return nil, err
	}
	return metadata, nil
}

func dumpToFile(ctx context.Context, db *gorm.DB, t dataTable, path string) (int64, error) {
	file, err := os.Create(path)
	if err != nil {
		return 0, err
	}
	defer func() { _ = file.Close() }()
	return t.dump(ctx, db, file, 500)
}

func addFileToTar(tw *tar.Writer, path string) error {
	file, err := os.Open(path)
	if err != nil {
		return err
	}
	defer func() { _ = file.Close() }()

	info, err := file.Stat()
	if err != nil {
		return err
	}
	return writeTarEntry(tw, filepath.Base(path), info.Size(), func(w io.Writer) error {
		_, err := io.Copy(w, file)
		return err
	})
}

func writeTarEntry(tw *tar.Writer, name string, size int64, write func(io.Writer) error) error {
	header := &tar.Header{
		Name:    name,
		Mode:    0644,
		Size:    size,
		ModTime: time.Now(),
	}
	if err := tw.WriteHeader(header); err != nil {
		return err
	}
	return write(tw)
}

// printBackupSummary 打印备份摘要
func printBackupSummary(metadata *backupMetadata, outputFile string) {
	fmt.Println("\nBackup Summary:")
	fmt.Println("===============")
	fmt.Printf("Version:    %s\n", metadata.Version)
	fmt.Printf("Timestamp:  %s\n", metadata.Timestamp.Format("2006-01-02 15:04:05"))
	fmt.Printf("Database:   %s\n", metadata.Database)
	fmt.Printf("Output:     %s\n", outputFile)
	fmt.Println("\nTables backed up:")
	var total int64
	for _, table := range metadata.Tables {
		count := metadata.RecordCount[table]
		total += count
		fmt.Printf("  - %s: %d records\n", table, count)
	}
	fmt.Printf("\nTotal records: %d\n", total)
}
