package users

import (
	"bytes"
	"context"
	"fmt"
	"image"
	"image/jpeg"
	"os"
	"path/filepath"
	"time"

	// Register the decoders uploads commonly arrive in.
	_ "image/gif"
	_ "image/png"

	"golang.org/x/image/draw"

	"caixa/internal/core"
)

// PhotoStore persists processed user photos.
type PhotoStore interface {
	// Save processes the raw upload and returns the stored file name.
	Save(ctx context.Context, raw []byte, userID int64) (string, error)
	Remove(ctx context.Context, name string) error
}

const (
	photoSize    = 300
	photoQuality = 90
)

// FSPhotoStore stores photos on the local filesystem, center-cropped to a
// 300x300 JPEG.
type FSPhotoStore struct {
	Dir string
	now func() time.Time
}

// NewFSPhotoStore creates a filesystem photo store rooted at dir.
func NewFSPhotoStore(dir string) *FSPhotoStore {
	return &FSPhotoStore{Dir: dir, now: time.Now}
}

// Save decodes, cover-resizes and writes the upload. The file name embeds the
// user id and a timestamp so replacements never collide.
func (p *FSPhotoStore) Save(_ context.Context, raw []byte, userID int64) (string, error) {
	src, _, err := image.Decode(bytes.NewReader(raw))
	if err != nil {
		return "", &core.ValidationError{Fields: []string{"photo"}, Msg: "unsupported image format"}
	}

	dst := image.NewRGBA(image.Rect(0, 0, photoSize, photoSize))
	draw.CatmullRom.Scale(dst, dst.Bounds(), src, coverRect(src.Bounds()), draw.Src, nil)

	if err := os.MkdirAll(p.Dir, 0o755); err != nil {
		return "", fmt.Errorf("create upload directory: %w", err)
	}
	name := fmt.Sprintf("user-%d-%d.jpg", userID, p.now().UnixNano())
	f, err := os.Create(filepath.Join(p.Dir, name))
	if err != nil {
		return "", fmt.Errorf("create photo file: %w", err)
	}
	defer f.Close()

	if err := jpeg.Encode(f, dst, &jpeg.Options{Quality: photoQuality}); err != nil {
		return "", fmt.Errorf("encode photo: %w", err)
	}
	return name, nil
}

// Remove deletes a stored photo; a missing file is not an error.
func (p *FSPhotoStore) Remove(_ context.Context, name string) error {
	err := os.Remove(filepath.Join(p.Dir, filepath.Base(name)))
	if err != nil && !os.IsNotExist(err) {
		return err
	}
	return nil
}

// coverRect selects the largest centered square of the source, so scaling
// fills the target without distortion.
func coverRect(b image.Rectangle) image.Rectangle {
	w, h := b.Dx(), b.Dy()
	side := w
	if h < side {
		side = h
	}
	x0 := b.Min.X + (w-side)/2
	y0 := b.Min.Y + (h-side)/2
	return image.Rect(x0, y0, x0+side, y0+side)
}
