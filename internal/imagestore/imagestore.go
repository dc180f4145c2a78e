package imagestore

import (
	"bytes"
	"fmt"
	"image"
	"image/color"
	"io"
	"path"
	"path/filepath"

	"github.com/gabriel-vasile/mimetype"
	"github.com/google/uuid"
	xdraw "golang.org/x/image/draw"

	"github.com/world-in-pieces/wip-backend/internal/adapter"
	"github.com/world-in-pieces/wip-backend/internal/domain"
)

// allowedTypes are the upload formats accepted for segment images
var allowedTypes = map[string]string{
	"image/png":  ".png",
	"image/jpeg": ".jpg",
}

// SavedImage points at one stored image pair
type SavedImage struct {
	// ImageURL is the public URL of the full image
	ImageURL string
	// MiniImageURL is the public URL of the circular thumbnail
	MiniImageURL string
}

// Store defines the interface for image storage to enable mocking
//
//go:generate mockgen -source=imagestore.go -destination=../mocks/imagestore.go -package=mocks -mock_names=Store=MockImageStore
type Store interface {
	// SaveUpload validates and stores an uploaded image plus its thumbnail
	SaveUpload(data []byte) (*SavedImage, error)

	// Clone copies a stored image into a fresh pair for another entity
	Clone(imageURL string) (*SavedImage, error)

	// Delete removes the files behind the given public URLs, best effort
	Delete(imageURLs ...string)
}

// FileStore implements Store on the local filesystem
type FileStore struct {
	fs       adapter.FileSystem
	codec    adapter.ImageCodec
	dir      string
	baseURL  string
	miniSize int
}

// NewFileStore creates a new filesystem image store rooted at dir
func NewFileStore(fs adapter.FileSystem, codec adapter.ImageCodec, dir, baseURL string, miniSize int) (*FileStore, error) {
	if err := fs.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("failed to create image directory: %w", err)
	}
	if miniSize <= 0 {
		miniSize = 50
	}

	return &FileStore{
		fs:       fs,
		codec:    codec,
		dir:      dir,
		baseURL:  baseURL,
		miniSize: miniSize,
	}, nil
}

func (s *FileStore) urlFor(name string) string {
	return path.Join(s.baseURL, name)
}

func (s *FileStore) pathFor(url string) string {
	return filepath.Join(s.dir, path.Base(url))
}

func (s *FileStore) writeFile(name string, data []byte) (string, error) {
	target := filepath.Join(s.dir, name)
	f, err := s.fs.Create(target)
	if err != nil {
		return "", fmt.Errorf("failed to create %s: %w", name, err)
	}
	if _, err := f.Write(data); err != nil {
		_ = f.Close()
		return "", fmt.Errorf("failed to write %s: %w", name, err)
	}
	if err := f.Close(); err != nil {
		return "", fmt.Errorf("failed to close %s: %w", name, err)
	}
	return target, nil
}

// cleanup removes partially written files after a failure
func (s *FileStore) cleanup(paths []string) {
	for _, p := range paths {
		_ = s.fs.Remove(p)
	}
}

// SaveUpload validates and stores an uploaded image plus its thumbnail.
// On any failure every file written so far is removed.
func (s *FileStore) SaveUpload(data []byte) (*SavedImage, error) {
	if len(data) == 0 {
		return nil, domain.ErrNoImageProvided
	}

	mtype := mimetype.Detect(data)
	ext, ok := allowedTypes[mtype.String()]
	if !ok {
		return nil, fmt.Errorf("%w: %s", domain.ErrInvalidFileFormat, mtype.String())
	}

	img, _, err := s.codec.Decode(bytes.NewReader(data))
	if err != nil {
		return nil, fmt.Errorf("%w: %v", domain.ErrInvalidFileFormat, err)
	}

	id := uuid.NewString()
	fullName := id + ext
	miniName := id + "_mini.png"

	var written []string

	fullPath, err := s.writeFile(fullName, data)
	if err != nil {
		return nil, err
	}
	written = append(written, fullPath)

	miniData, err := s.renderMini(img)
	if err != nil {
		s.cleanup(written)
		return nil, err
	}

	miniPath, err := s.writeFile(miniName, miniData)
	if err != nil {
		s.cleanup(written)
		return nil, err
	}
	written = append(written, miniPath)

	return &SavedImage{
		ImageURL:     s.urlFor(fullName),
		MiniImageURL: s.urlFor(miniName),
	}, nil
}

// Clone copies a stored image into a fresh pair for another entity
func (s *FileStore) Clone(imageURL string) (*SavedImage, error) {
	src, err := s.fs.Open(s.pathFor(imageURL))
	if err != nil {
		return nil, fmt.Errorf("failed to open source image: %w", err)
	}
	defer func() { _ = src.Close() }()

	data, err := io.ReadAll(src)
	if err != nil {
		return nil, fmt.Errorf("failed to read source image: %w", err)
	}

	return s.SaveUpload(data)
}

// Delete removes the files behind the given public URLs, best effort
func (s *FileStore) Delete(imageURLs ...string) {
	for _, url := range imageURLs {
		if url == "" {
			continue
		}
		_ = s.fs.Remove(s.pathFor(url))
	}
}

// renderMini scales the image to the thumbnail size and crops it to a circle
func (s *FileStore) renderMini(img image.Image) ([]byte, error) {
	size := s.miniSize

	scaled := image.NewRGBA(image.Rect(0, 0, size, size))
	xdraw.CatmullRom.Scale(scaled, scaled.Bounds(), img, img.Bounds(), xdraw.Over, nil)

	// Keep only the pixels inside the inscribed circle
	out := image.NewRGBA(scaled.Bounds())
	center := float64(size) / 2
	radius := center
	for y := 0; y < size; y++ {
		for x := 0; x < size; x++ {
			dx := float64(x) + 0.5 - center
			dy := float64(y) + 0.5 - center
			if dx*dx+dy*dy <= radius*radius {
				out.Set(x, y, scaled.At(x, y))
			} else {
				out.Set(x, y, color.Transparent)
			}
		}
	}

	var buf bytes.Buffer
	if err := s.codec.EncodePNG(&buf, out); err != nil {
		return nil, fmt.Errorf("failed to encode thumbnail: %w", err)
	}
	return buf.Bytes(), nil
}
