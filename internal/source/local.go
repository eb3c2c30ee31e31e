package source

import (
	"context"
	"fmt"
	"io"
	"os"
	"path"
	"path/filepath"
	"slices"
	"strings"
)

// Local serves folders from a checkout on disk. Links are slash-separated
// paths relative to Root.
type Local struct {
	Root string
}

// ListFolder lists a folder below Root, sorted by name.
func (l Local) ListFolder(ctx context.Context, folder string) ([]Entry, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	dir, err := l.resolve(folder)
	if err != nil {
		return nil, &TransportError{Op: "list", URL: folder, Err: err}
	}
	des, err := os.ReadDir(dir)
	if err != nil {
		return nil, &TransportError{Op: "list", URL: folder, Err: err}
	}
	entries := make([]Entry, 0, len(des))
	for _, de := range des {
		if strings.HasPrefix(de.Name(), ".") {
			continue
		}
		rel := path.Join(strings.Trim(filepath.ToSlash(folder), "/"), de.Name())
		e := Entry{Name: de.Name(), Path: rel, BrowseLink: rel}
		if de.IsDir() {
			e.Type = TypeDir
		} else if de.Type().IsRegular() {
			e.Type = TypeFile
			e.DownloadLink = rel
			if info, err := de.Info(); err == nil {
				e.Size = info.Size()
			}
		} else {
			continue
		}
		entries = append(entries, e)
	}
	slices.SortFunc(entries, func(a, b Entry) int { return strings.Compare(a.Name, b.Name) })
	return entries, nil
}

// Fetch reads a file below Root.
func (l Local) Fetch(ctx context.Context, link string) ([]byte, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	p, err := l.resolve(link)
	if err != nil {
		return nil, &TransportError{Op: "fetch", URL: link, Err: err}
	}
	f, err := os.Open(p)
	if err != nil {
		return nil, &TransportError{Op: "fetch", URL: link, Err: err}
	}
	defer f.Close()
	data, err := io.ReadAll(io.LimitReader(f, MaxDocumentSize+1))
	if err != nil {
		return nil, &TransportError{Op: "fetch", URL: link, Err: err}
	}
	if int64(len(data)) > MaxDocumentSize {
		return nil, &TransportError{Op: "fetch", URL: link, Err: ErrTooLarge}
	}
	return data, nil
}

// FolderLink returns the folder path itself.
func (l Local) FolderLink(folder string) string {
	return strings.Trim(filepath.ToSlash(folder), "/")
}

// resolve maps a relative link to a path below Root, rejecting escapes.
func (l Local) resolve(rel string) (string, error) {
	clean := path.Clean("/" + filepath.ToSlash(rel))
	if strings.Contains(rel, "\x00") {
		return "", fmt.Errorf("path contains null byte")
	}
	return filepath.Join(l.Root, filepath.FromSlash(strings.TrimPrefix(clean, "/"))), nil
}
