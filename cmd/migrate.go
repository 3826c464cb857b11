package cmd

import (
	"context"
	"fmt"
	"time"

	"github.com/anoixa/colab/database/models"
	log "github.com/sirupsen/logrus"
	"github.com/spf13/cobra"
	"gorm.io/driver/postgres"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

// migrateCmd 数据库迁移命令
var migrateCmd = &cobra.Command{
	Use:   "migrate",
	Short: "Database migration tools",
	Long:  `Create the schema in the configured database, or copy data from one database to another (e.g., SQLite to PostgreSQL).`,
}

// migrateSchemaCmd 在配置的数据库上建表
var migrateSchemaCmd = &cobra.Command{
	Use:   "schema",
	Short: "Create or update tables in the configured database",
	Run: func(cmd *cobra.Command, args []string) {
		factory, err := openConfiguredDB()
		if err != nil {
			log.Fatalf("Failed to connect to database: %v", err)
		}
		defer factory.Close()

		if err := factory.AutoMigrate(); err != nil {
			log.Fatalf("Schema migration failed: %v", err)
		}
		log.Printf("Schema of %s database is up to date", factory.GetProvider().Name())
	},
}

// migrateRunCmd 执行迁移命令
var migrateRunCmd = &cobra.Command{
	Use:   "run",
	Short: "Run database migration",
	Long: `Run database migration from source to target database.

Examples:
  # Migrate from SQLite to PostgreSQL
  colab migrate run --from-sqlite ./data/colab.db --to-postgres "host=localhost user=postgres password=secret dbname=colab port=5432"

  # Migrate with overwrite strategy (replace existing data)
  colab migrate run --from-sqlite ./data/colab.db --to-postgres "..." --on-conflict=overwrite

  # Stop on conflict
  colab migrate run --from-sqlite ./data/colab.db --to-postgres "..." --on-conflict=error`,
	Run: func(cmd *cobra.Command, args []string) {
		fromType, _ := cmd.Flags().GetString("from-type")
		toType, _ := cmd.Flags().GetString("to-type")
		fromDSN, _ := cmd.Flags().GetString("from-dsn")
		toDSN, _ := cmd.Flags().GetString("to-dsn")
		fromSQLite, _ := cmd.Flags().GetString("from-sqlite")
		toPostgres, _ := cmd.Flags().GetString("to-postgres")
		skipConfirm, _ := cmd.Flags().GetBool("yes")
		batchSize, _ := cmd.Flags().GetInt("batch-size")
		onConflict, _ := cmd.Flags().GetString("on-conflict")

		if fromSQLite != "" {
			fromType, fromDSN = "sqlite", fromSQLite
		}
		if toPostgres != "" {
			toType, toDSN = "postgres", toPostgres
		}

		if !skipConfirm && !confirm(onConflict) {
			fmt.Println("Migration cancelled.")
			return
		}

		if err := runMigration(fromType, toType, fromDSN, toDSN, batchSize, onConflict); err != nil {
			log.Fatalf("Migration failed: %v", err)
		}
	},
}

func init() {
	rootCmd.AddCommand(migrateCmd)
	migrateCmd.AddCommand(migrateSchemaCmd)
	migrateCmd.AddCommand(migrateRunCmd)

	migrateRunCmd.Flags().String("from-type", "", "Source database type (sqlite, postgres)")
	migrateRunCmd.Flags().String("to-type", "", "Target database type (sqlite, postgres)")
	migrateRunCmd.Flags().String("from-dsn", "", "Source database DSN/connection string")
	migrateRunCmd.Flags().String("to-dsn", "", "Target database DSN/connection string")
	migrateRunCmd.Flags().String("from-sqlite", "", "Source SQLite file path (shortcut)")
	migrateRunCmd.Flags().String("to-postgres", "", "Target PostgreSQL connection string (shortcut)")
	migrateRunCmd.Flags().Bool("yes", false, "Skip confirmation prompt")
	migrateRunCmd.Flags().Int("batch-size", 100, "Batch size for data migration")
	migrateRunCmd.Flags().String("on-conflict", "skip", "Conflict resolution strategy: skip (default), overwrite, error")
}

func confirm(onConflict string) bool {
	fmt.Println("\nWarning: This will migrate all data from source to target database.")
	fmt.Printf("Conflict resolution strategy: %s\n", onConflict)
	fmt.Println("Existing data in target database may be affected.")
	fmt.Print("Do you want to continue? [y/N]: ")
	var response string
	_, _ = fmt.Scanln(&response)
	return response == "y" || response == "Y"
}

// migrateStats 迁移统计，按表名记录复制的行数
type migrateStats struct {
	copied map[string]int
	errors []string
}

// runMigration 执行数据库迁移
func runMigration(fromType, toType, fromDSN, toDSN string, batchSize int, onConflict string) error {
	if fromType == "" || toType == "" {
		return fmt.Errorf("both --from-type and --to-type are required")
	}
	if fromDSN == "" || toDSN == "" {
		return fmt.Errorf("both --from-dsn and --to-dsn (or shortcuts) are required")
	}
	if fromType == toType && fromDSN == toDSN {
		return fmt.Errorf("source and target databases are the same")
	}

	log.Printf("Migrating from %s to %s", fromType, toType)
	log.Printf("Source: %s", maskDSN(fromDSN))
	log.Printf("Target: %s", maskDSN(toDSN))

	sourceDB, err := openDatabase(fromType, fromDSN)
	if err != nil {
		return fmt.Errorf("failed to connect to source database: %w", err)
	}
	defer closeDatabase(sourceDB)

	targetDB, err := openDatabase(toType, toDSN)
	if err != nil {
		return fmt.Errorf("failed to connect to target database: %w", err)
	}
	defer closeDatabase(targetDB)

	stats, err := migrateData(context.Background(), sourceDB, targetDB, batchSize, onConflict)
	if stats != nil {
		printMigrateStats(stats)
	}
	if err != nil {
		return err
	}
	if len(stats.errors) > 0 {
		return fmt.Errorf("migration completed with %d errors", len(stats.errors))
	}

	log.Println("Migration completed successfully!")
	return nil
}

// migrateData 建表后按外键依赖顺序复制全部数据
func migrateData(ctx context.Context, sourceDB, targetDB *gorm.DB, batchSize int, onConflict string) (*migrateStats, error) {
	conflict, err := conflictClause(onConflict)
	if err != nil {
		return nil, err
	}
	if batchSize <= 0 {
		batchSize = 100
	}

	log.Println("Migrating database schema...")
	if err := targetDB.AutoMigrate(models.All()...); err != nil {
		return nil, fmt.Errorf("failed to migrate schema: %w", err)
	}

	stats := &migrateStats{copied: make(map[string]int)}
	for _, t := range dataTables {
		log.Printf("Migrating %s...", t.name)
		n, err := t.copy(ctx, sourceDB, targetDB, batchSize, conflict)
		stats.copied[t.name] = n
		if err != nil {
			stats.errors = append(stats.errors, fmt.Sprintf("%s migration failed: %v", t.name, err))
			if onConflict == "error" {
				return stats, err
			}
		}
	}

	if err := resetSequences(ctx, targetDB, dataTables); err != nil {
		stats.errors = append(stats.errors, fmt.Sprintf("reset sequences failed: %v", err))
	}
	return stats, nil
}

// openDatabase 打开数据库连接
func openDatabase(dbType, dsn string) (*gorm.DB, error) {
	var dialector gorm.Dialector

	switch dbType {
	case "sqlite":
		dialector = sqlite.Open(dsn)
	case "postgres", "postgresql":
		dialector = postgres.Open(dsn)
	default:
		return nil, fmt.Errorf("unsupported database type: %s", dbType)
	}

	db, err := gorm.Open(dialector, &gorm.Config{
		Logger: logger.Default.LogMode(logger.Silent),
	})
	if err != nil {
		return nil, err
	}

	// 设置连接池
	sqlDB, err := db.DB()
	if err != nil {
		return nil, err
	}
	sqlDB.SetMaxOpenConns(25)
	sqlDB.SetMaxIdleConns(5)
	sqlDB.SetConnMaxLifetime(5 * time.Minute)

	return db, nil
}

func closeDatabase(db *gorm.DB) {
	if sqlDB, err := db.DB(); err == nil {
		_ = sqlDB.Close()
	}
}

// maskDSN 隐藏敏感信息
func maskDSN(dsn string) string {
	if len(dsn) > 50 {
		return dsn[:50] + "..."
	}
	return dsn
}

// printMigrateStats 打印迁移统计
func printMigrateStats(stats *migrateStats) {
	fmt.Println()
	fmt.Println("========================================")
	fmt.Println("       Migration Statistics")
	fmt.Println("========================================")
	for _, t := range dataTables {
		fmt.Printf("%-20s %d\n", t.name+":", stats.copied[t.name])
	}
	fmt.Println("========================================")

	if len(stats.errors) > 0 {
		fmt.Println("\nErrors encountered:")
		for _, err := range stats.errors {
			fmt.Printf("  - %s\n", err)
		}
	}
}
