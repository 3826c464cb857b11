package storage

import (
	"bytes"
	"context"
	"io"
	"os"
	"path/filepath"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestLocal(t *testing.T) *LocalStorage {
	t.Helper()
	s, err := NewLocalStorage(t.TempDir())
	require.NoError(t, err)
	return s
}

func TestLocalStorage_RoundTrip(t *testing.T) {
	s := newTestLocal(t)
	ctx := context.Background()
	p := "covers/2026/10/17/abc.png"

	require.NoError(t, s.SaveWithContext(ctx, p, bytes.NewReader([]byte("cover"))))

	ok, err := s.Exists(ctx, p)
	require.NoError(t, err)
	assert.True(t, ok)

	r, err := s.GetWithContext(ctx, p)
	require.NoError(t, err)
	data, err := io.ReadAll(r)
	require.NoError(t, err)
	assert.Equal(t, "cover", string(data))
	if c, ok := r.(io.Closer); ok {
		_ = c.Close()
	}

	require.NoError(t, s.DeleteWithContext(ctx, p))
	ok, err = s.Exists(ctx, p)
	require.NoError(t, err)
	assert.False(t, ok)

	_, err = s.GetWithContext(ctx, p)
	assert.ErrorIs(t, err, ErrNotFound)
	assert.ErrorIs(t, s.DeleteWithContext(ctx, p), ErrNotFound)
}

func TestLocalStorage_NoTempLeftovers(t *testing.T) {
	s := newTestLocal(t)
	require.NoError(t, s.SaveWithContext(context.Background(), "music/a.mp3", bytes.NewReader([]byte("ID3"))))

	entries, err := os.ReadDir(filepath.Join(s.BasePath(), "music"))
	require.NoError(t, err)
	require.Len(t, entries, 1)
	assert.Equal(t, "a.mp3", entries[0].Name())
}

func TestLocalStorage_PathTraversal(t *testing.T) {
	s := newTestLocal(t)
	ctx := context.Background()

	for _, p := range []string{"../evil.png", "covers/../../evil.png", "/etc/passwd", "a/b c.png", ""} {
		t.Run(p, func(t *testing.T) {
			assert.Error(t, s.SaveWithContext(ctx, p, bytes.NewReader(nil)))
			_, err := s.GetWithContext(ctx, p)
			assert.Error(t, err)
			assert.Error(t, s.DeleteWithContext(ctx, p))
		})
	}
}

func TestLocalStorage_ConcurrentAccess(t *testing.T) {
	s := newTestLocal(t)
	ctx := context.Background()

	var wg sync.WaitGroup
	for i := 0; i < 10; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			assert.NoError(t, s.SaveWithContext(ctx, "same/file.png", bytes.NewReader([]byte("x"))))
		}()
	}
	wg.Wait()

	ok, err := s.Exists(ctx, "same/file.png")
	require.NoError(t, err)
	assert.True(t, ok)
}

func TestLocalStorage_CanceledContext(t *testing.T) {
	s := newTestLocal(t)
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	assert.ErrorIs(t, s.SaveWithContext(ctx, "a/b.png", bytes.NewReader(nil)), context.Canceled)
}

func TestIsValidStoragePath(t *testing.T) {
	tests := []struct {
		path string
		want bool
	}{
		{"covers/2026/10/17/0b5f.png", true},
		{"music/a-b_c.mp3", true},
		{"", false},
		{"/abs/path.png", false},
		{"a/../b.png", false},
		{"a/b?.png", false},
		{"中文.png", false},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, IsValidStoragePath(tt.path), tt.path)
	}
}
