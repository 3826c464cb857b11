package storage

import (
	"context"
	"errors"
	"io"
)

// ErrNotFound 存储对象不存在
var ErrNotFound = errors.New("storage object not found")

// Provider 存储提供者接口
// 所有实现以存储路径（如 covers/2026/10/17/<uuid>.png）寻址
type Provider interface {
	// SaveWithContext 保存文件到存储
	SaveWithContext(ctx context.Context, storagePath string, file io.Reader) error

	// GetWithContext 从存储获取文件，不存在时返回 ErrNotFound
	GetWithContext(ctx context.Context, storagePath string) (io.ReadSeeker, error)

	// DeleteWithContext 从存储删除文件
	DeleteWithContext(ctx context.Context, storagePath string) error

	// Exists 检查文件是否存在
	Exists(ctx context.Context, storagePath string) (bool, error)

	// Health 检查存储健康状态
	Health(ctx context.Context) error

	// Name 返回存储名称
	Name() string
}
