package storage

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"regexp"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestImageKey(t *testing.T) {
	now := time.Date(2024, 3, 9, 14, 5, 7, 0, time.UTC)
	key := ImageKey(42, now)

	assert.Regexp(t, regexp.MustCompile(`^items/42/20240309_140507_[0-9a-f]{8}\.jpg$`), key)
	assert.NotEqual(t, key, ImageKey(42, now), "keys should be unique")
	assert.NoError(t, validateKey(key))
}

func TestValidateKey(t *testing.T) {
	for _, key := range []string{"", "/etc/passwd", "../secret", "items/../../x", "a//b", `items\x`, "."} {
		assert.ErrorIs(t, validateKey(key), ErrInvalidKey, "key %q", key)
	}
}

func TestLocalRoundTrip(t *testing.T) {
	dir := t.TempDir()
	s, err := NewLocal(dir)
	require.NoError(t, err)
	ctx := context.Background()

	require.NoError(t, s.Put(ctx, "items/1/photo.jpg", []byte("jpeg bytes"), "image/jpeg"))
	assert.FileExists(t, filepath.Join(dir, "items", "1", "photo.jpg"))

	data, err := s.Get(ctx, "items/1/photo.jpg")
	require.NoError(t, err)
	assert.Equal(t, []byte("jpeg bytes"), data)

	// No temp files are left behind.
	entries, err := os.ReadDir(filepath.Join(dir, "items", "1"))
	require.NoError(t, err)
	assert.Len(t, entries, 1)

	require.NoError(t, s.Delete(ctx, "items/1/photo.jpg"))
	_, err = s.Get(ctx, "items/1/photo.jpg")
	assert.True(t, errors.Is(err, ErrNotExist))
	assert.ErrorIs(t, s.Delete(ctx, "items/1/photo.jpg"), ErrNotExist)
}

func TestLocalRejectsEscapingKeys(t *testing.T) {
	s, err := NewLocal(t.TempDir())
	require.NoError(t, err)

	err = s.Put(context.Background(), "../outside.jpg", []byte("x"), "image/jpeg")
	assert.ErrorIs(t, err, ErrInvalidKey)
}
