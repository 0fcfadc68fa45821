package media

import (
	"context"
	"os"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLocalStore_UploadAndRemove(t *testing.T) {
	dir := t.TempDir()
	s := NewLocalStore(dir, "https://chat.example/", 1024)
	ctx := context.Background()

	url, err := s.Upload(ctx, strings.NewReader("hello"), "photo.PNG", "image/png")
	require.NoError(t, err)
	assert.True(t, strings.HasPrefix(url, "https://chat.example/api/uploads/"))
	assert.True(t, strings.HasSuffix(url, ".png"))

	name := strings.TrimPrefix(url, "https://chat.example/api/uploads/")
	path, err := s.Path(name)
	require.NoError(t, err)
	b, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Equal(t, "hello", string(b))

	require.NoError(t, s.Remove(ctx, url))
	assert.NoFileExists(t, path)
}

func TestLocalStore_TooLarge(t *testing.T) {
	dir := t.TempDir()
	s := NewLocalStore(dir, "http://localhost", 4)

	_, err := s.Upload(context.Background(), strings.NewReader("12345"), "a.bin", "")
	require.ErrorIs(t, err, ErrTooLarge)

	entries, err := os.ReadDir(dir)
	require.NoError(t, err)
	assert.Empty(t, entries)
}

func TestLocalStore_PathRejectsTraversal(t *testing.T) {
	s := NewLocalStore(t.TempDir(), "http://localhost", 0)
	for _, bad := range []string{"", "../etc/passwd", "a/b.png", "."} {
		_, err := s.Path(bad)
		assert.Error(t, err, bad)
	}
}
