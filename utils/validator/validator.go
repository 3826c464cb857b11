package validator

import (
	"errors"
	"fmt"
	"image"
	_ "image/gif"
	_ "image/jpeg"
	_ "image/png"
	"io"

	"github.com/anoixa/colab/utils"
	_ "golang.org/x/image/bmp"
	_ "golang.org/x/image/webp"
)

var (
	ErrUnsupportedType = errors.New("unsupported media type")
	ErrCorruptImage    = errors.New("image content could not be decoded")
	ErrImageTooLarge   = errors.New("image dimensions exceed limit")
)

// MaxImagePixels 单张图片最大像素数
const MaxImagePixels = 64 * 1024 * 1024

// Result 校验结果
type Result struct {
	MimeType string
	Ext      string
	Class    utils.MediaClass
	Width    int
	Height   int
}

// Inspect 探测上传内容的类型；图片还会解码头部，确认尺寸合法
// 结束后流会被复位到开头
func Inspect(file io.ReadSeeker) (*Result, error) {
	mimeType, err := utils.SniffContentType(file)
	if err != nil {
		return nil, err
	}

	class := utils.ClassOf(mimeType)
	if class == "" {
		return nil, fmt.Errorf("%w: %s", ErrUnsupportedType, mimeType)
	}

	res := &Result{
		MimeType: mimeType,
		Ext:      utils.GetSafeExtension(mimeType),
		Class:    class,
	}
	if class != utils.MediaClassImage {
		return res, nil
	}

	cfg, _, err := image.DecodeConfig(file)
	if _, seekErr := file.Seek(0, io.SeekStart); seekErr != nil {
		return nil, fmt.Errorf("failed to reset stream: %w", seekErr)
	}
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrCorruptImage, err)
	}
	if cfg.Width <= 0 || cfg.Height <= 0 || cfg.Width*cfg.Height > MaxImagePixels {
		return nil, ErrImageTooLarge
	}
	res.Width, res.Height = cfg.Width, cfg.Height
	return res, nil
}
