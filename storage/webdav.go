package storage

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"os"
	"path"
	"strings"
	"time"

	"github.com/studio-b12/gowebdav"
)

// WebDAVConfig WebDAV 配置
type WebDAVConfig struct {
	URL      string
	Username string
	Password string
	RootPath string
	Timeout  time.Duration
}

// WebDAVStorage WebDAV 存储实现
// gowebdav 的调用不接受 context，这里用 goroutine + select 让调用方可以提前放弃
type WebDAVStorage struct {
	client   *gowebdav.Client
	baseURL  string
	rootPath string
}

// NewWebDAVStorage 创建 WebDAV 存储提供者
func NewWebDAVStorage(cfg WebDAVConfig) (*WebDAVStorage, error) {
	if cfg.URL == "" {
		return nil, fmt.Errorf("webdav URL is required")
	}

	client := gowebdav.NewClient(cfg.URL, cfg.Username, cfg.Password)
	if cfg.Timeout > 0 {
		client.SetTimeout(cfg.Timeout)
	}

	s := newWebDAVStorage(client, cfg.URL, cfg.RootPath)

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := s.Health(ctx); err != nil {
		return nil, fmt.Errorf("webdav connection test failed: %w", err)
	}
	return s, nil
}

func newWebDAVStorage(client *gowebdav.Client, baseURL, rootPath string) *WebDAVStorage {
	rootPath = strings.Trim(rootPath, "/")
	if rootPath != "" {
		rootPath = "/" + rootPath
	}
	return &WebDAVStorage{
		client:   client,
		baseURL:  strings.TrimRight(baseURL, "/"),
		rootPath: rootPath,
	}
}

// fullPath 生成完整的 WebDAV 路径
func (s *WebDAVStorage) fullPath(storagePath string) string {
	storagePath = strings.TrimLeft(storagePath, "/")
	if s.rootPath != "" {
		return s.rootPath + "/" + storagePath
	}
	return "/" + storagePath
}

// run 在 goroutine 中执行阻塞调用，ctx 取消时立即返回
func run(ctx context.Context, fn func() error) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	done := make(chan error, 1)
	go func() { done <- fn() }()

	select {
	case <-ctx.Done():
		return ctx.Err()
	case err := <-done:
		return err
	}
}

// SaveWithContext 保存文件到 WebDAV
func (s *WebDAVStorage) SaveWithContext(ctx context.Context, storagePath string, file io.Reader) error {
	if !IsValidStoragePath(storagePath) {
		return fmt.Errorf("invalid storage path: %s", storagePath)
	}
	fullPath := s.fullPath(storagePath)

	if dir := path.Dir(fullPath); dir != "/" && dir != "." {
		if err := run(ctx, func() error { return s.client.MkdirAll(dir, 0755) }); err != nil {
			return fmt.Errorf("failed to ensure parent directory for %s: %w", storagePath, err)
		}
	}

	data, err := io.ReadAll(file)
	if err != nil {
		return fmt.Errorf("failed to read file content: %w", err)
	}

	if err := run(ctx, func() error { return s.client.Write(fullPath, data, 0644) }); err != nil {
		return fmt.Errorf("failed to write file %s: %w", storagePath, err)
	}
	return nil
}

// GetWithContext 从 WebDAV 获取文件
func (s *WebDAVStorage) GetWithContext(ctx context.Context, storagePath string) (io.ReadSeeker, error) {
	fullPath := s.fullPath(storagePath)

	var data []byte
	err := run(ctx, func() error {
		var readErr error
		data, readErr = s.client.Read(fullPath)
		return readErr
	})
	if err != nil {
		if gowebdav.IsErrNotFound(err) {
			return nil, fmt.Errorf("%w: %s", ErrNotFound, storagePath)
		}
		return nil, fmt.Errorf("failed to read file %s: %w", storagePath, err)
	}
	return bytes.NewReader(data), nil
}

// DeleteWithContext 从 WebDAV 删除文件
func (s *WebDAVStorage) DeleteWithContext(ctx context.Context, storagePath string) error {
	fullPath := s.fullPath(storagePath)
	return run(ctx, func() error { return s.client.Remove(fullPath) })
}

// Exists 检查文件是否存在
func (s *WebDAVStorage) Exists(ctx context.Context, storagePath string) (bool, error) {
	fullPath := s.fullPath(storagePath)

	var info os.FileInfo
	err := run(ctx, func() error {
		var statErr error
		info, statErr = s.client.Stat(fullPath)
		return statErr
	})
	if err != nil {
		if gowebdav.IsErrNotFound(err) {
			return false, nil
		}
		return false, err
	}
	return info != nil, nil
}

// Health 检查存储健康状态
func (s *WebDAVStorage) Health(ctx context.Context) error {
	root := s.rootPath
	if root == "" {
		root = "/"
	}
	return run(ctx, func() error {
		_, err := s.client.ReadDir(root)
		return err
	})
}

// Name 返回存储名称
func (s *WebDAVStorage) Name() string {
	return "webdav"
}
