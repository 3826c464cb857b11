package utils

import "strings"

// BuildMediaURL 拼接媒体文件的公共访问 URL
func BuildMediaURL(baseURL, storagePath string) string {
	return strings.TrimRight(baseURL, "/") + "/" + strings.TrimLeft(storagePath, "/")
}

// MediaPathFromURL BuildMediaURL 的逆操作，URL 不在 baseURL 下时返回 false
func MediaPathFromURL(baseURL, mediaURL string) (string, bool) {
	prefix := strings.TrimRight(baseURL, "/") + "/"
	if !strings.HasPrefix(mediaURL, prefix) {
		return "", false
	}
	path := strings.TrimPrefix(mediaURL, prefix)
	return path, path != ""
}
