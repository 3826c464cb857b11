package generator

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestPathGenerator_Generate(t *testing.T) {
	pg := NewPathGeneratorWithIDs(func() string { return "0b5f" })
	uploadTime := time.Date(2024, 1, 15, 10, 30, 0, 0, time.UTC)

	tests := []struct {
		name            string
		kind            string
		ext             string
		wantStoragePath string
	}{
		{name: "cover image", kind: "covers", ext: ".png", wantStoragePath: "covers/2024/01/15/0b5f.png"},
		{name: "ext without dot", kind: "music", ext: "mp3", wantStoragePath: "music/2024/01/15/0b5f.mp3"},
		{name: "upper ext", kind: "visualart", ext: ".JPG", wantStoragePath: "visualart/2024/01/15/0b5f.jpg"},
		{name: "dirty kind", kind: "../Etc ", ext: ".gif", wantStoragePath: "etc/2024/01/15/0b5f.gif"},
		{name: "empty kind", kind: "", ext: ".webp", wantStoragePath: "misc/2024/01/15/0b5f.webp"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := pg.Generate(tt.kind, tt.ext, uploadTime)
			assert.Equal(t, "0b5f", got.Identifier)
			assert.Equal(t, tt.wantStoragePath, got.StoragePath)
		})
	}
}

func TestPathGenerator_UniqueIDs(t *testing.T) {
	pg := NewPathGenerator()
	now := time.Now()
	a := pg.Generate("covers", ".png", now)
	b := pg.Generate("covers", ".png", now)
	assert.NotEqual(t, a.StoragePath, b.StoragePath)
}

func TestPathGenerator_Parse(t *testing.T) {
	pg := NewPathGenerator()
	assert.Equal(t, "covers", pg.KindFromStoragePath("covers/2024/01/15/abc.png"))
	assert.Equal(t, "", pg.KindFromStoragePath("abc.png"))
	assert.Equal(t, "abc", pg.IdentifierFromStoragePath("covers/2024/01/15/abc.png"))
}
