// Package media 上传并托管作品用到的图片与音频
package media

import (
	"bytes"
	"context"
	"encoding/base64"
	"errors"
	"fmt"
	"io"
	"net/url"
	"strings"
	"time"

	"github.com/anoixa/colab/storage"
	"github.com/anoixa/colab/utils"
	"github.com/anoixa/colab/utils/generator"
	"github.com/anoixa/colab/utils/validator"
	log "github.com/sirupsen/logrus"
)

// 媒体种类，同时作为存储路径的第一级目录
const (
	KindCover     = "covers"
	KindVisualArt = "visualart"
	KindMusic     = "music"
	KindSculpture = "sculpture"
)

var (
	ErrTooLarge        = errors.New("upload exceeds size limit")
	ErrEmpty           = errors.New("upload is empty")
	ErrInvalidDataURL  = errors.New("invalid data URL")
	ErrUnsupportedType = validator.ErrUnsupportedType
	ErrNotFound        = storage.ErrNotFound
)

// Config 上传配置
type Config struct {
	MaxSizeBytes int64
	BaseURL      string // 媒体公共访问前缀
}

// Upload 上传结果
type Upload struct {
	URL         string `json:"url"`
	StoragePath string `json:"storagePath"`
	MimeType    string `json:"mimeType"`
	Size        int64  `json:"size"`
	Width       int    `json:"width,omitempty"`
	Height      int    `json:"height,omitempty"`
}

// Service 媒体上传服务
type Service struct {
	storage storage.Provider
	paths   *generator.PathGenerator
	cfg     Config
	now     func() time.Time
}

func NewService(provider storage.Provider, cfg Config) *Service {
	if cfg.MaxSizeBytes <= 0 {
		cfg.MaxSizeBytes = 20 << 20
	}
	return &Service{
		storage: provider,
		paths:   generator.NewPathGenerator(),
		cfg:     cfg,
		now:     time.Now,
	}
}

// UploadImage 只接受 jpeg/png/gif/webp/bmp
func (s *Service) UploadImage(ctx context.Context, kind string, r io.Reader) (*Upload, error) {
	return s.upload(ctx, kind, r, utils.MediaClassImage)
}

// UploadDataURL 解码 data:<mime>;base64,<payload> 后上传
// 以探测到的真实类型为准，声明的 MIME 只用于快速拒绝
func (s *Service) UploadDataURL(ctx context.Context, kind, dataURL string, allowed ...utils.MediaClass) (*Upload, error) {
	declared, payload, err := s.decodeDataURL(dataURL)
	if err != nil {
		return nil, err
	}
	if len(allowed) == 0 {
		allowed = []utils.MediaClass{utils.MediaClassImage}
	}
	if declared != "" && !classAllowed(utils.ClassOf(declared), allowed) {
		return nil, fmt.Errorf("%w: %s", ErrUnsupportedType, declared)
	}
	return s.upload(ctx, kind, bytes.NewReader(payload), allowed...)
}

// Open 读取已保存的媒体文件，返回内容与 MIME 类型
func (s *Service) Open(ctx context.Context, storagePath string) (io.ReadSeeker, string, error) {
	rs, err := s.storage.GetWithContext(ctx, storagePath)
	if err != nil {
		return nil, "", err
	}
	mimeType, err := utils.SniffContentType(rs)
	if err != nil {
		return nil, "", fmt.Errorf("failed to sniff %s: %w", storagePath, err)
	}
	return rs, mimeType, nil
}

func (s *Service) upload(ctx context.Context, kind string, r io.Reader, allowed ...utils.MediaClass) (*Upload, error) {
	data, err := io.ReadAll(io.LimitReader(r, s.cfg.MaxSizeBytes+1))
	if err != nil {
		return nil, fmt.Errorf("failed to read upload: %w", err)
	}
	if len(data) == 0 {
		return nil, ErrEmpty
	}
	if int64(len(data)) > s.cfg.MaxSizeBytes {
		return nil, fmt.Errorf("%w: max %d bytes", ErrTooLarge, s.cfg.MaxSizeBytes)
	}

	rd := bytes.NewReader(data)
	res, err := validator.Inspect(rd)
	if err != nil {
		return nil, err
	}
	if !classAllowed(res.Class, allowed) {
		return nil, fmt.Errorf("%w: %s", ErrUnsupportedType, res.MimeType)
	}

	ids := s.paths.Generate(kind, res.Ext, s.now())
	if err := s.storage.SaveWithContext(ctx, ids.StoragePath, rd); err != nil {
		return nil, fmt.Errorf("failed to save %s to %s storage: %w", ids.StoragePath, s.storage.Name(), err)
	}
	log.Debugf("[Media] Saved %s (%s, %d bytes)", ids.StoragePath, res.MimeType, len(data))

	return &Upload{
		URL:         utils.BuildMediaURL(s.cfg.BaseURL, ids.StoragePath),
		StoragePath: ids.StoragePath,
		MimeType:    res.MimeType,
		Size:        int64(len(data)),
		Width:       res.Width,
		Height:      res.Height,
	}, nil
}

// decodeDataURL 返回声明的 MIME 与解码后的内容
func (s *Service) decodeDataURL(dataURL string) (string, []byte, error) {
	if !IsDataURL(dataURL) {
		return "", nil, ErrInvalidDataURL
	}
	header, payload, ok := strings.Cut(dataURL[len("data:"):], ",")
	if !ok {
		return "", nil, fmt.Errorf("%w: missing payload", ErrInvalidDataURL)
	}

	// base64 膨胀约 4/3，先按编码长度粗略拦截
	if int64(len(payload)) > s.cfg.MaxSizeBytes*4/3+4 {
		return "", nil, fmt.Errorf("%w: max %d bytes", ErrTooLarge, s.cfg.MaxSizeBytes)
	}

	params := strings.Split(header, ";")
	declared := utils.NormalizeMimeType(params[0])
	isBase64 := false
	for _, p := range params[1:] {
		if strings.EqualFold(strings.TrimSpace(p), "base64") {
			isBase64 = true
		}
	}

	if !isBase64 {
		raw, err := url.PathUnescape(payload)
		if err != nil {
			return "", nil, fmt.Errorf("%w: %v", ErrInvalidDataURL, err)
		}
		return declared, []byte(raw), nil
	}

	data, err := base64.StdEncoding.DecodeString(payload)
	if err != nil {
		data, err = base64.RawStdEncoding.DecodeString(strings.TrimRight(payload, "="))
		if err != nil {
			return "", nil, fmt.Errorf("%w: %v", ErrInvalidDataURL, err)
		}
	}
	return declared, data, nil
}

// IsDataURL 判断字符串是否为 data URL
func IsDataURL(s string) bool {
	return len(s) > len("data:") && strings.EqualFold(s[:len("data:")], "data:")
}

func classAllowed(class utils.MediaClass, allowed []utils.MediaClass) bool {
	for _, c := range allowed {
		if c == class {
			return true
		}
	}
	return false
}
