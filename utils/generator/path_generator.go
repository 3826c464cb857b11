package generator

import (
	"fmt"
	"path"
	"strings"
	"time"

	"github.com/google/uuid"
)

// PathGenerator 分层路径生成器
// 路径格式: <kind>/YYYY/MM/DD/<id><ext>
type PathGenerator struct {
	newID func() string
}

// NewPathGenerator 创建路径生成器
func NewPathGenerator() *PathGenerator {
	return &PathGenerator{newID: func() string { return uuid.New().String() }}
}

// NewPathGeneratorWithIDs 使用自定义 ID 函数，测试用
func NewPathGeneratorWithIDs(newID func() string) *PathGenerator {
	return &PathGenerator{newID: newID}
}

// StorageIdentifiers 存储标识对
type StorageIdentifiers struct {
	Identifier  string // 业务标识符，不含扩展名
	StoragePath string // 存储路径，如 covers/2026/10/17/<uuid>.png
}

// Generate 为一个新上传的媒体文件生成存储路径
func (pg *PathGenerator) Generate(kind, ext string, uploadTime time.Time) StorageIdentifiers {
	kind = sanitizeKind(kind)
	if ext != "" && !strings.HasPrefix(ext, ".") {
		ext = "." + ext
	}
	id := pg.newID()
	return StorageIdentifiers{
		Identifier:  id,
		StoragePath: fmt.Sprintf("%s/%s/%s%s", kind, uploadTime.UTC().Format("2006/01/02"), id, strings.ToLower(ext)),
	}
}

// KindFromStoragePath 从存储路径解析媒体种类目录
func (pg *PathGenerator) KindFromStoragePath(storagePath string) string {
	parts := strings.Split(strings.TrimLeft(storagePath, "/"), "/")
	if len(parts) < 5 {
		return ""
	}
	return parts[0]
}

// IdentifierFromStoragePath 从存储路径提取标识符
func (pg *PathGenerator) IdentifierFromStoragePath(storagePath string) string {
	base := path.Base(storagePath)
	return strings.TrimSuffix(base, path.Ext(base))
}

func sanitizeKind(kind string) string {
	kind = strings.ToLower(strings.TrimSpace(kind))
	var sb strings.Builder
	for _, r := range kind {
		if (r >= 'a' && r <= 'z') || (r >= '0' && r <= '9') || r == '-' {
			sb.WriteRune(r)
		}
	}
	if sb.Len() == 0 {
		return "misc"
	}
	return sb.String()
}
