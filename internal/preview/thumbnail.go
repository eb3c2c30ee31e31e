package preview

import (
	"fmt"
	"os"
	"path"
	"path/filepath"

	"github.com/disintegration/imaging"

	"github.com/sgx-labs/certcat/internal/slug"
)

// Thumbnail geometry for card images on the published site.
const (
	ThumbWidth   = 800
	ThumbHeight  = 600
	ThumbQuality = 90
)

// ThumbRelPath returns the site-relative path of the JPEG derivative for a
// document preview.
func ThumbRelPath(root, id, name string) string {
	return path.Join(root, id, slug.Make(name)+"-thumb.jpg")
}

// MakeThumbnail derives a ThumbWidth x ThumbHeight JPEG from the image at
// src, cropping from the top so certificate headers stay visible. An existing
// dst is left alone and reported with created=false.
func MakeThumbnail(src, dst string) (created bool, err error) {
	if fileExists(dst) {
		return false, nil
	}
	img, err := imaging.Open(src)
	if err != nil {
		return false, fmt.Errorf("open %s: %w", filepath.Base(src), err)
	}
	thumb := imaging.Fill(img, ThumbWidth, ThumbHeight, imaging.Top, imaging.Lanczos)

	if err := os.MkdirAll(filepath.Dir(dst), 0o755); err != nil {
		return false, fmt.Errorf("create directory: %w", err)
	}
	tmp := dst + ".partial"
	f, err := os.Create(tmp)
	if err != nil {
		return false, err
	}
	if err := imaging.Encode(f, thumb, imaging.JPEG, imaging.JPEGQuality(ThumbQuality)); err != nil {
		_ = f.Close()
		_ = os.Remove(tmp)
		return false, fmt.Errorf("encode jpeg: %w", err)
	}
	if err := f.Close(); err != nil {
		_ = os.Remove(tmp)
		return false, err
	}
	if err := os.Rename(tmp, dst); err != nil {
		_ = os.Remove(tmp)
		return false, err
	}
	return true, nil
}

// Thumbnail derives the JPEG for a document preview that already exists in
// the cache and returns its site-relative path.
func (c *Cache) Thumbnail(id, name string) (rel string, created bool, err error) {
	rel = ThumbRelPath(c.opts.Root, id, name)
	created, err = MakeThumbnail(c.FilePath(id, name), c.abs(rel))
	return rel, created, err
}
