// Package media stores profile pictures on local disk, re-encoded to a
// bounded size so callers can hand in arbitrarily large source images.
package media

import (
	"errors"
	"fmt"
	"image"
	"os"
	"path/filepath"
	"sync"

	"image/jpeg"

	_ "image/gif"
	_ "image/png"

	xdraw "golang.org/x/image/draw"
)

// ErrUnsupportedFormat is returned when the source file is not a
// decodable jpeg, png or gif image.
var ErrUnsupportedFormat = errors.New("unsupported image format")

const (
	maxDimension = 300
	jpegQuality  = 85
)

// Store describes profile picture persistence.
type Store interface {
	// Save re-encodes the image at sourcePath and stores it as the
	// picture for userID, returning the stored path.
	Save(userID, sourcePath string) (string, error)
	// Remove deletes the stored picture for userID. Removing an absent
	// picture is a no-op.
	Remove(userID string) error
	// Path returns the location a stored picture would live at.
	Path(userID string) string
}

// DiskStore keeps one re-encoded jpeg per user under a root directory.
type DiskStore struct {
	root string
	mu   sync.Mutex
}

func NewDiskStore(root string) (*DiskStore, error) {
	if err := os.MkdirAll(root, 0o755); err != nil {
		return nil, fmt.Errorf("create pictures dir: %w", err)
	}
	return &DiskStore{root: root}, nil
}

func (s *DiskStore) Path(userID string) string {
	return filepath.Join(s.root, userID+".jpg")
}

func (s *DiskStore) Save(userID, sourcePath string) (string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	file, err := os.Open(sourcePath)
	if err != nil {
		return "", fmt.Errorf("open source image: %w", err)
	}
	defer file.Close()

	src, _, err := image.Decode(file)
	if err != nil {
		return "", fmt.Errorf("%w: %v", ErrUnsupportedFormat, err)
	}

	dst := scaleToFit(src, maxDimension)

	target := s.Path(userID)
	out, err := os.Create(target)
	if err != nil {
		return "", fmt.Errorf("create picture file: %w", err)
	}

	if err := jpeg.Encode(out, dst, &jpeg.Options{Quality: jpegQuality}); err != nil {
		out.Close()
		os.Remove(target)
		return "", fmt.Errorf("encode picture: %w", err)
	}
	if err := out.Close(); err != nil {
		return "", fmt.Errorf("close picture file: %w", err)
	}
	return target, nil
}

func (s *DiskStore) Remove(userID string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if err := os.Remove(s.Path(userID)); err != nil && !os.IsNotExist(err) {
		return fmt.Errorf("remove picture: %w", err)
	}
	return nil
}

// scaleToFit downscales src so both dimensions fit within limit,
// preserving aspect ratio. Images already within bounds are only
// re-encoded, never upscaled.
func scaleToFit(src image.Image, limit int) image.Image {
	bounds := src.Bounds()
	width, height := bounds.Dx(), bounds.Dy()
	if width <= limit && height <= limit {
		return src
	}

	ratio := float64(limit) / float64(width)
	if height > width {
		ratio = float64(limit) / float64(height)
	}
	newW := int(float64(width) * ratio)
	newH := int(float64(height) * ratio)
	if newW < 1 {
		newW = 1
	}
	if newH < 1 {
		newH = 1
	}

	dst := image.NewRGBA(image.Rect(0, 0, newW, newH))
	xdraw.ApproxBiLinear.Scale(dst, dst.Bounds(), src, bounds, xdraw.Over, nil)
	return dst
}
