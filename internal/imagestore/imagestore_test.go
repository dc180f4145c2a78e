package imagestore_test

import (
	"bytes"
	"image"
	"image/color"
	"image/png"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/world-in-pieces/wip-backend/internal/adapter"
	"github.com/world-in-pieces/wip-backend/internal/domain"
	"github.com/world-in-pieces/wip-backend/internal/imagestore"
)

func pngBytes(t *testing.T, w, h int) []byte {
	t.Helper()

	img := image.NewRGBA(image.Rect(0, 0, w, h))
	for y := 0; y < h; y++ {
		for x := 0; x < w; x++ {
			img.Set(x, y, color.RGBA{R: uint8(x % 256), G: uint8(y % 256), B: 128, A: 255})
		}
	}

	var buf bytes.Buffer
	require.NoError(t, png.Encode(&buf, img))
	return buf.Bytes()
}

func newStore(t *testing.T) (*imagestore.FileStore, string) {
	t.Helper()

	dir := t.TempDir()
	store, err := imagestore.NewFileStore(adapter.NewFileSystem(), adapter.NewImageCodec(), dir, "/images", 50)
	require.NoError(t, err)
	return store, dir
}

func TestFileStore_SaveUpload(t *testing.T) {
	store, dir := newStore(t)

	saved, err := store.SaveUpload(pngBytes(t, 200, 120))

	require.NoError(t, err)
	assert.NotEmpty(t, saved.ImageURL)
	assert.NotEmpty(t, saved.MiniImageURL)
	assert.NotEqual(t, saved.ImageURL, saved.MiniImageURL)

	// Both files exist on disk
	full := filepath.Join(dir, filepath.Base(saved.ImageURL))
	mini := filepath.Join(dir, filepath.Base(saved.MiniImageURL))
	_, err = os.Stat(full)
	assert.NoError(t, err)

	// The thumbnail is a 50x50 PNG with transparent corners
	raw, err := os.ReadFile(mini)
	require.NoError(t, err)
	img, err := png.Decode(bytes.NewReader(raw))
	require.NoError(t, err)
	assert.Equal(t, 50, img.Bounds().Dx())
	assert.Equal(t, 50, img.Bounds().Dy())
	_, _, _, a := img.At(0, 0).RGBA()
	assert.Equal(t, uint32(0), a)
	_, _, _, a = img.At(25, 25).RGBA()
	assert.NotEqual(t, uint32(0), a)
}

func TestFileStore_SaveUpload_Invalid(t *testing.T) {
	store, _ := newStore(t)

	_, err := store.SaveUpload(nil)
	assert.ErrorIs(t, err, domain.ErrNoImageProvided)

	_, err = store.SaveUpload([]byte("plain text, not an image"))
	assert.ErrorIs(t, err, domain.ErrInvalidFileFormat)
}

func TestFileStore_Clone(t *testing.T) {
	store, _ := newStore(t)

	saved, err := store.SaveUpload(pngBytes(t, 64, 64))
	require.NoError(t, err)

	clone, err := store.Clone(saved.ImageURL)

	require.NoError(t, err)
	assert.NotEqual(t, saved.ImageURL, clone.ImageURL)
	assert.NotEmpty(t, clone.MiniImageURL)
}

func TestFileStore_Delete(t *testing.T) {
	store, dir := newStore(t)

	saved, err := store.SaveUpload(pngBytes(t, 64, 64))
	require.NoError(t, err)

	store.Delete(saved.ImageURL, saved.MiniImageURL, "")

	_, err = os.Stat(filepath.Join(dir, filepath.Base(saved.ImageURL)))
	assert.True(t, os.IsNotExist(err))
	_, err = os.Stat(filepath.Join(dir, filepath.Base(saved.MiniImageURL)))
	assert.True(t, os.IsNotExist(err))
}
