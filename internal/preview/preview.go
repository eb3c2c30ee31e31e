// Package preview manages the rendered first-page images of certificate
// documents. Previews are generated at most once: an artifact already on disk
// is never regenerated unless the cache is built with Force.
package preview

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path"
	"path/filepath"
	"strings"
	"time"

	"github.com/sgx-labs/certcat/internal/slug"
)

// Defaults used when Options leaves a field zero.
const (
	DefaultZoom    = 2.0
	DefaultTimeout = 60 * time.Second
)

// Renderer rasterizes page one of a PDF to target.
type Renderer interface {
	RenderFirstPage(ctx context.Context, pdf []byte, target string, zoom float64) error
}

// RenderError reports a document that could not be rasterized.
type RenderError struct {
	ID       string
	Document string
	Err      error
}

func (e *RenderError) Error() string {
	return fmt.Sprintf("render preview %s/%s: %v", e.ID, e.Document, e.Err)
}

func (e *RenderError) Unwrap() error {
	return e.Err
}

// Options configures a Cache.
type Options struct {
	// SiteRoot is the filesystem directory published paths are relative to.
	SiteRoot string
	// Root is the preview directory relative to SiteRoot, slash separated.
	Root    string
	Zoom    float64
	Timeout time.Duration
	// Force regenerates artifacts that already exist.
	Force bool
}

// Cache decides per document whether a preview must be rendered.
type Cache struct {
	opts     Options
	renderer Renderer
}

// NewCache returns a Cache rendering with r.
func NewCache(r Renderer, opts Options) *Cache {
	if opts.Zoom <= 0 {
		opts.Zoom = DefaultZoom
	}
	if opts.Timeout <= 0 {
		opts.Timeout = DefaultTimeout
	}
	opts.Root = strings.Trim(filepath.ToSlash(opts.Root), "/")
	return &Cache{opts: opts, renderer: r}
}

// RelPath returns the site-relative preview path for a document. It depends
// only on (root, id, name) because published pages link to it.
func RelPath(root, id, name string) string {
	return path.Join(root, id, slug.Make(name)+".png")
}

// PlaceholderPath is the conventional thumbnail used when a record has no
// documents to preview.
func PlaceholderPath(root, id string) string {
	return path.Join(root, id+"-thumb.png")
}

// Root returns the configured site-relative preview directory.
func (c *Cache) Root() string {
	return c.opts.Root
}

// RelPath returns the site-relative preview path for a document.
func (c *Cache) RelPath(id, name string) string {
	return RelPath(c.opts.Root, id, name)
}

// FilePath returns where on disk the preview for a document lives.
func (c *Cache) FilePath(id, name string) string {
	return c.abs(c.RelPath(id, name))
}

func (c *Cache) abs(rel string) string {
	return filepath.Join(c.opts.SiteRoot, filepath.FromSlash(rel))
}

// Exists reports whether the preview for a document is on disk.
func (c *Cache) Exists(id, name string) bool {
	return fileExists(c.FilePath(id, name))
}

// HasArtifacts reports whether id's preview directory holds at least one PNG.
func (c *Cache) HasArtifacts(id string) bool {
	if id == "" {
		return false
	}
	matches, err := filepath.Glob(filepath.Join(c.abs(path.Join(c.opts.Root, id)), "*.png"))
	return err == nil && len(matches) > 0
}

// FetchFunc loads document bytes. It is only called on a cache miss.
type FetchFunc func(ctx context.Context) ([]byte, error)

// Result describes the outcome of Ensure.
type Result struct {
	// Path is the site-relative preview path; it is set even on failure.
	Path    string
	Created bool
}

// Ensure makes sure the preview for (id, name) exists. A hit returns
// immediately without calling fetch. Fetch errors are returned unchanged;
// rendering failures are returned as *RenderError and leave no partial file.
func (c *Cache) Ensure(ctx context.Context, id, name string, fetch FetchFunc) (Result, error) {
	res := Result{Path: c.RelPath(id, name)}
	if id == "" {
		return res, errors.New("ensure preview: empty id")
	}
	target := c.FilePath(id, name)
	if !c.opts.Force && fileExists(target) {
		return res, nil
	}

	data, err := fetch(ctx)
	if err != nil {
		return res, err
	}

	if err := os.MkdirAll(filepath.Dir(target), 0o755); err != nil {
		return res, &RenderError{ID: id, Document: name, Err: fmt.Errorf("create directory: %w", err)}
	}

	rctx, cancel := context.WithTimeout(ctx, c.opts.Timeout)
	defer cancel()

	tmp := target + ".partial"
	// Left over from an interrupted run.
	_ = os.Remove(tmp)
	if err := c.renderer.RenderFirstPage(rctx, data, tmp, c.opts.Zoom); err != nil {
		_ = os.Remove(tmp)
		return res, &RenderError{ID: id, Document: name, Err: err}
	}
	if err := os.Rename(tmp, target); err != nil {
		_ = os.Remove(tmp)
		return res, &RenderError{ID: id, Document: name, Err: fmt.Errorf("move into place: %w", err)}
	}
	res.Created = true
	return res, nil
}

func fileExists(p string) bool {
	info, err := os.Stat(p)
	return err == nil && !info.IsDir()
}
