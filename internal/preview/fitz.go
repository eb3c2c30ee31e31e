package preview

import (
	"context"
	"fmt"
	"image"
	"os"

	"github.com/disintegration/imaging"
	"github.com/gen2brain/go-fitz"
)

// FitzRenderer rasterizes with MuPDF through github.com/gen2brain/go-fitz.
type FitzRenderer struct{}

// RenderFirstPage renders page one at 72*zoom DPI and writes it as PNG.
// MuPDF calls cannot be interrupted, so a context deadline abandons the
// render instead of waiting for it.
func (FitzRenderer) RenderFirstPage(ctx context.Context, pdf []byte, target string, zoom float64) error {
	return renderBounded(ctx, target, func() (image.Image, error) {
		return rasterizeFirstPage(pdf, zoom)
	})
}

func rasterizeFirstPage(pdf []byte, zoom float64) (image.Image, error) {
	doc, err := fitz.NewFromMemory(pdf)
	if err != nil {
		return nil, fmt.Errorf("open document: %w", err)
	}
	defer doc.Close()

	if doc.NumPage() < 1 {
		return nil, fmt.Errorf("document has no pages")
	}
	img, err := doc.ImageDPI(0, 72*zoom)
	if err != nil {
		return nil, fmt.Errorf("rasterize page 1: %w", err)
	}
	return img, nil
}

// renderBounded rasterizes under ctx and writes target only when the
// rasterizer finished in time. An abandoned rasterizer never touches disk.
func renderBounded(ctx context.Context, target string, rasterize func() (image.Image, error)) error {
	img, err := runBounded(ctx, rasterize)
	if err != nil {
		return err
	}
	f, err := os.Create(target)
	if err != nil {
		return err
	}
	if err := imaging.Encode(f, img, imaging.PNG); err != nil {
		_ = f.Close()
		return fmt.Errorf("encode png: %w", err)
	}
	return f.Close()
}

// runBounded runs fn and returns its result, or ctx's error if the context
// ends first.
func runBounded[T any](ctx context.Context, fn func() (T, error)) (T, error) {
	type result struct {
		v   T
		err error
	}
	done := make(chan result, 1)
	go func() {
		v, err := fn()
		done <- result{v, err}
	}()
	select {
	case r := <-done:
		return r.v, r.err
	case <-ctx.Done():
		var zero T
		return zero, fmt.Errorf("render aborted: %w", ctx.Err())
	}
}
