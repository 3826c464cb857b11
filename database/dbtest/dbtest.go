// Package dbtest 为仓库与服务测试提供内存 SQLite 数据库
package dbtest

import (
	"fmt"
	"testing"

	"github.com/anoixa/colab/database"
	"github.com/anoixa/colab/database/models"
	"github.com/google/uuid"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

// NewProvider 每个测试一个独立的内存库，测试结束自动关闭
func NewProvider(t testing.TB) database.Provider {
	t.Helper()

	dsn := fmt.Sprintf("file:%s?mode=memory&cache=shared", uuid.NewString())
	db, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{
		Logger: logger.Default.LogMode(logger.Silent),
	})
	if err != nil {
		t.Fatalf("open sqlite: %v", err)
	}

	sqlDB, err := db.DB()
	if err != nil {
		t.Fatalf("sql db: %v", err)
	}
	// 单连接避免共享缓存的表锁冲突
	sqlDB.SetMaxOpenConns(1)

	if err := db.AutoMigrate(models.All()...); err != nil {
		t.Fatalf("auto migrate: %v", err)
	}

	provider := database.NewGormProviderFromDB(db, "sqlite")
	t.Cleanup(func() { _ = provider.Close() })
	return provider
}
