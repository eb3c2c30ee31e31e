// Package source lists and downloads certificate folders from a content
// repository.
package source

import (
	"context"
	"fmt"
	"strings"
)

// Entry types reported by ListFolder.
const (
	TypeFile = "file"
	TypeDir  = "dir"
)

// Entry is one item of a folder listing.
type Entry struct {
	Name string
	Path string
	Type string
	Size int64

	// DownloadLink fetches the raw bytes of a file; empty for directories.
	DownloadLink string
	// BrowseLink is the human-facing page for the entry.
	BrowseLink string
}

// IsDir reports whether the entry is a folder.
func (e Entry) IsDir() bool { return e.Type == TypeDir }

// IsPDF reports whether the entry is a PDF document.
func (e Entry) IsPDF() bool {
	return e.Type == TypeFile && strings.HasSuffix(strings.ToLower(e.Name), ".pdf")
}

// IsReadme reports whether the entry is a folder README.
func (e Entry) IsReadme() bool {
	return e.Type == TypeFile && strings.EqualFold(e.Name, "README.md")
}

// Provider lists folders and fetches file contents.
type Provider interface {
	ListFolder(ctx context.Context, path string) ([]Entry, error)
	Fetch(ctx context.Context, link string) ([]byte, error)
	// FolderLink returns the browse link of a folder.
	FolderLink(path string) string
}

// TransportError reports a failed listing or download.
type TransportError struct {
	Op         string
	URL        string
	StatusCode int
	Err        error
}

func (e *TransportError) Error() string {
	var b strings.Builder
	fmt.Fprintf(&b, "%s %s", e.Op, e.URL)
	if e.StatusCode != 0 {
		fmt.Fprintf(&b, ": HTTP %d", e.StatusCode)
	}
	if e.Err != nil {
		fmt.Fprintf(&b, ": %v", e.Err)
	}
	return b.String()
}

func (e *TransportError) Unwrap() error { return e.Err }
