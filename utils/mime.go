package utils

import (
	"fmt"
	"io"
	"net/http"
	"path/filepath"
	"strings"
)

// MediaClass 媒体大类
type MediaClass string

const (
	MediaClassImage MediaClass = "image"
	MediaClassAudio MediaClass = "audio"
)

// mimeToExtMap MIME类型到安全扩展名的映射
var mimeToExtMap = map[string]string{
	"image/jpeg": ".jpg",
	"image/png":  ".png",
	"image/gif":  ".gif",
	"image/webp": ".webp",
	"image/bmp":  ".bmp",
	"audio/mpeg": ".mp3",
	"audio/wave": ".wav",
	"audio/wav":  ".wav",
	"audio/ogg":  ".ogg",
	"audio/aiff": ".aiff",
}

// NormalizeMimeType 去除参数并转小写
func NormalizeMimeType(mimeType string) string {
	mimeType = strings.Split(mimeType, ";")[0]
	return strings.ToLower(strings.TrimSpace(mimeType))
}

// GetSafeExtension 根据MIME类型返回安全的文件扩展名
// 如果MIME类型不被允许，返回空字符串
func GetSafeExtension(mimeType string) string {
	if ext, ok := mimeToExtMap[NormalizeMimeType(mimeType)]; ok {
		return ext
	}
	return ""
}

// ClassOf 返回 MIME 类型所属的媒体大类，不被允许的类型返回空串
func ClassOf(mimeType string) MediaClass {
	mimeType = NormalizeMimeType(mimeType)
	if _, ok := mimeToExtMap[mimeType]; !ok {
		return ""
	}
	switch {
	case strings.HasPrefix(mimeType, "image/"):
		return MediaClassImage
	case strings.HasPrefix(mimeType, "audio/"):
		return MediaClassAudio
	}
	return ""
}

// GetExtensionFromFilename 从文件名获取扩展名（小写）
func GetExtensionFromFilename(filename string) string {
	return strings.ToLower(filepath.Ext(filename))
}

// SniffContentType 读取前 512 字节探测类型，之后把流复位
func SniffContentType(stream io.ReadSeeker) (string, error) {
	buffer := make([]byte, 512)

	n, err := stream.Read(buffer)
	if err != nil && err != io.EOF {
		return "", fmt.Errorf("failed to read stream for mime sniffing: %w", err)
	}

	contentType := http.DetectContentType(buffer[:n])

	_, err = stream.Seek(0, io.SeekStart)
	if err != nil {
		return "", fmt.Errorf("failed to seek stream back to start after sniffing: %w", err)
	}

	return NormalizeMimeType(contentType), nil
}
