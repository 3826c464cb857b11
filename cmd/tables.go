package cmd

import (
	"bufio"
	"context"
	"encoding/json"
	"fmt"
	"io"

	"github.com/anoixa/colab/database/models"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// dataTable 一张需要迁移或备份的表
type dataTable struct {
	name string
	// serial 为 true 表示 uint 自增主键，PostgreSQL 写入后需要对齐序列
	serial bool
	model  interface{}
	copy   func(ctx context.Context, src, dst *gorm.DB, batchSize int, conflict clause.Expression) (int, error)
	dump   func(ctx context.Context, db *gorm.DB, w io.Writer, batchSize int) (int64, error)
	load   func(ctx context.Context, db *gorm.DB, r io.Reader, batchSize int, conflict clause.Expression) (int64, error)
}

func newDataTable[T any](name string, serial bool) dataTable {
	return dataTable{
		name:   name,
		serial: serial,
		model:  new(T),
		copy:   copyTable[T],
		dump:   dumpTable[T],
		load:   loadTable[T],
	}
}

// dataTables 按外键依赖排序，还原与迁移按此顺序写入，清空按逆序
var dataTables = []dataTable{
	newDataTable[models.User]("users", false),
	newDataTable[models.Artwork]("artworks", true),
	newDataTable[models.VisualArt]("visual_arts", true),
	newDataTable[models.Music]("music", true),
	newDataTable[models.Sculpture]("sculptures", true),
	newDataTable[models.Story]("stories", true),
	newDataTable[models.Page]("pages", true),
	newDataTable[models.Collaboration]("collaborations", true),
	newDataTable[models.UserCollaboration]("user_collaborations", true),
	newDataTable[models.Message]("messages", true),
}

// selectTables names 为空时返回全部表
func selectTables(names []string) ([]dataTable, error) {
	if len(names) == 0 {
		return dataTables, nil
	}
	wanted := make(map[string]bool, len(names))
	for _, n := range names {
		wanted[n] = true
	}
	var selected []dataTable
	for _, t := range dataTables {
		if wanted[t.name] {
			selected = append(selected, t)
			delete(wanted, t.name)
		}
	}
	for n := range wanted {
		return nil, fmt.Errorf("unknown table: %s", n)
	}
	return selected, nil
}

// conflictClause skip 忽略已存在的主键，overwrite 覆盖，error 直接插入让约束报错
func conflictClause(onConflict string) (clause.Expression, error) {
	switch onConflict {
	case "skip":
		return clause.OnConflict{DoNothing: true}, nil
	case "overwrite":
		return clause.OnConflict{UpdateAll: true}, nil
	case "error":
		return nil, nil
	default:
		return nil, fmt.Errorf("invalid on-conflict strategy: %s (must be skip, overwrite, or error)", onConflict)
	}
}

func insertBatch[T any](ctx context.Context, db *gorm.DB, batch []T, conflict clause.Expression) error {
	tx := db.WithContext(ctx).Omit(clause.Associations)
	if conflict != nil {
		tx = tx.Clauses(conflict)
	}
	return tx.Create(&batch).Error
}

// copyTable 按主键分批复制一张表，不加载关联
func copyTable[T any](ctx context.Context, src, dst *gorm.DB, batchSize int, conflict clause.Expression) (int, error) {
	copied := 0
	var batch []T
	result := src.WithContext(ctx).FindInBatches(&batch, batchSize, func(tx *gorm.DB, _ int) error {
		if err := insertBatch(ctx, dst, batch, conflict); err != nil {
			return err
		}
		copied += len(batch)
		return nil
	})
	return copied, result.Error
}

// dumpTable 每行一个 JSON 对象
func dumpTable[T any](ctx context.Context, db *gorm.DB, w io.Writer, batchSize int) (int64, error) {
	encoder := json.NewEncoder(w)
	var count int64
	var batch []T
	result := db.WithContext(ctx).FindInBatches(&batch, batchSize, func(tx *gorm.DB, _ int) error {
		for _, r := range batch {
			if err := encoder.Encode(r); err != nil {
				return err
			}
			count++
		}
		return nil
	})
	return count, result.Error
}

// loadTable 读取 JSONL 并分批写入
func loadTable[T any](ctx context.Context, db *gorm.DB, r io.Reader, batchSize int, conflict clause.Expression) (int64, error) {
	scanner := bufio.NewScanner(r)
	// 绘本页和作品内容可能很长
	scanner.Buffer(make([]byte, 64*1024), 64<<20)

	var loaded int64
	batch := make([]T, 0, batchSize)
	flush := func() error {
		if len(batch) == 0 {
			return nil
		}
		if err := insertBatch(ctx, db, batch, conflict); err != nil {
			return err
		}
		loaded += int64(len(batch))
		batch = batch[:0]
		return nil
	}

	line := 0
	for scanner.Scan() {
		line++
		if len(scanner.Bytes()) == 0 {
			continue
		}
		var record T
		if err := json.Unmarshal(scanner.Bytes(), &record); err != nil {
			return loaded, fmt.Errorf("line %d: %w", line, err)
		}
		batch = append(batch, record)
		if len(batch) >= batchSize {
			if err := flush(); err != nil {
				return loaded, err
			}
		}
	}
	if err := scanner.Err(); err != nil {
		return loaded, err
	}
	return loaded, flush()
}

// resetSequences 显式写入主键后 PostgreSQL 的自增序列不会前移，需要对齐到 MAX(id)
func resetSequences(ctx context.Context, db *gorm.DB, tables []dataTable) error {
	if db.Dialector.Name() != "postgres" {
		return nil
	}
	for _, t := range tables {
		if !t.serial {
			continue
		}
		sql := fmt.Sprintf("SELECT setval(pg_get_serial_sequence('%s', 'id'), COALESCE(MAX(id), 1), MAX(id) IS NOT NULL) FROM %s", t.name, t.name)
		if err := db.WithContext(ctx).Exec(sql).Error; err != nil {
			return fmt.Errorf("%s: %w", t.name, err)
		}
	}
	return nil
}
