package utils

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestPlainText(t *testing.T) {
	tests := []struct {
		name string
		in   string
		want string
	}{
		{name: "plain", in: "hello", want: "hello"},
		{name: "tags", in: "<b>bold</b> move", want: "bold move"},
		{name: "script", in: "<script>alert(1)</script>hi", want: "hi"},
		{name: "punctuation", in: "Tom & Jerry's \"day\"", want: "Tom & Jerry's \"day\""},
		{name: "encoded script", in: "&lt;script&gt;alert(1)&lt;/script&gt;", want: ""},
		{name: "encoded img", in: "&lt;img src=x onerror=alert(1)&gt;", want: ""},
		{name: "encoded tag around text", in: "&lt;b&gt;hi&lt;/b&gt;", want: "hi"},
		{name: "double encoded", in: "&amp;lt;script&amp;gt;alert(1)&amp;lt;/script&amp;gt;ok", want: "ok"},
		{name: "bare less than", in: "1 < 2", want: "1 < 2"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, PlainText(tt.in))
		})
	}
}

func TestPlainTextNeverReturnsMarkup(t *testing.T) {
	in := "<img src=x onerror=alert(1)>"
	for i := 0; i < 12; i++ {
		in = strings.ReplaceAll(in, "&", "&amp;")
		in = strings.ReplaceAll(strings.ReplaceAll(in, "<", "&lt;"), ">", "&gt;")
		out := PlainText(in)
		assert.NotContains(t, out, "<img")
		assert.NotContains(t, out, "onerror=alert(1)>")
	}
}
