package utils

import (
	"html"

	"github.com/microcosm-cc/bluemonday"
)

const maxSanitizePasses = 8

var plainTextPolicy = bluemonday.StrictPolicy()

// PlainText 去掉所有 HTML 标签并还原实体，返回纯文本
// 实体编码过的标签还原后会再次过滤，直到结果不再变化
func PlainText(s string) string {
	for i := 0; i < maxSanitizePasses; i++ {
		out := html.UnescapeString(plainTextPolicy.Sanitize(s))
		if out == s {
			return out
		}
		s = out
	}
	// 多层嵌套编码，保留转义后的形式
	return plainTextPolicy.Sanitize(s)
}
