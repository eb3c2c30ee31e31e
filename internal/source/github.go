package source

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"
)

const (
	// DefaultAPIBase is the public GitHub REST endpoint.
	DefaultAPIBase = "https://api.github.com"

	// DefaultWebBase is where browse links point.
	DefaultWebBase = "https://github.com"

	// DefaultListTimeout bounds a folder listing request.
	DefaultListTimeout = 60 * time.Second

	// DefaultDownloadTimeout bounds a document download.
	DefaultDownloadTimeout = 120 * time.Second

	// MaxListingSize is the maximum folder listing response size.
	MaxListingSize = 4 * 1024 * 1024 // 4 MB

	// MaxDocumentSize is the maximum size of a downloaded file.
	MaxDocumentSize = 64 * 1024 * 1024 // 64 MB
)

// ErrTooLarge is returned when a response exceeds its size limit.
var ErrTooLarge = errors.New("response too large")

// GitHubOptions configures a GitHub provider.
type GitHubOptions struct {
	Owner  string
	Repo   string
	Branch string

	APIBase string
	WebBase string
	Token   string

	ListTimeout     time.Duration
	DownloadTimeout time.Duration

	// Client overrides the HTTP client, mainly for tests.
	Client *http.Client
}

// GitHub reads folders through the GitHub Contents API.
type GitHub struct {
	opts   GitHubOptions
	client *http.Client
}

// NewGitHub returns a provider for one repository branch.
func NewGitHub(opts GitHubOptions) *GitHub {
	if opts.APIBase == "" {
		opts.APIBase = DefaultAPIBase
	}
	if opts.WebBase == "" {
		opts.WebBase = DefaultWebBase
	}
	if opts.Branch == "" {
		opts.Branch = "main"
	}
	if opts.ListTimeout <= 0 {
		opts.ListTimeout = DefaultListTimeout
	}
	if opts.DownloadTimeout <= 0 {
		opts.DownloadTimeout = DefaultDownloadTimeout
	}
	opts.APIBase = strings.TrimRight(opts.APIBase, "/")
	opts.WebBase = strings.TrimRight(opts.WebBase, "/")

	client := opts.Client
	if client == nil {
		client = &http.Client{
			CheckRedirect: func(req *http.Request, via []*http.Request) error {
				if len(via) >= 10 {
					return fmt.Errorf("too many redirects")
				}
				return nil
			},
		}
	}
	return &GitHub{opts: opts, client: client}
}

type contentItem struct {
	Name        string `json:"name"`
	Path        string `json:"path"`
	Type        string `json:"type"`
	Size        int64  `json:"size"`
	DownloadURL string `json:"download_url"`
	HTMLURL     string `json:"html_url"`
}

// ListFolder lists a folder. An empty path lists the repository root.
func (g *GitHub) ListFolder(ctx context.Context, folder string) ([]Entry, error) {
	u := fmt.Sprintf("%s/repos/%s/%s/contents/%s?ref=%s",
		g.opts.APIBase,
		url.PathEscape(g.opts.Owner),
		url.PathEscape(g.opts.Repo),
		escapePath(folder),
		url.QueryEscape(g.opts.Branch))

	body, err := g.get(ctx, "list", u, g.opts.ListTimeout, MaxListingSize, "application/vnd.github+json")
	if err != nil {
		return nil, err
	}

	var items []contentItem
	if err := json.Unmarshal(body, &items); err != nil {
		return nil, &TransportError{Op: "list", URL: u, Err: fmt.Errorf("decode listing: %w", err)}
	}
	entries := make([]Entry, 0, len(items))
	for _, it := range items {
		e := Entry{
			Name:         it.Name,
			Path:         it.Path,
			Type:         it.Type,
			Size:         it.Size,
			DownloadLink: it.DownloadURL,
			BrowseLink:   it.HTMLURL,
		}
		if e.BrowseLink == "" {
			if e.IsDir() {
				e.BrowseLink = g.FolderLink(it.Path)
			} else {
				e.BrowseLink = g.FileLink(it.Path)
			}
		}
		entries = append(entries, e)
	}
	return entries, nil
}

// Fetch downloads the raw contents behind a download link.
func (g *GitHub) Fetch(ctx context.Context, link string) ([]byte, error) {
	if link == "" {
		return nil, &TransportError{Op: "fetch", Err: errors.New("empty link")}
	}
	return g.get(ctx, "fetch", link, g.opts.DownloadTimeout, MaxDocumentSize, "")
}

// FolderLink returns the browse link of a folder.
func (g *GitHub) FolderLink(folder string) string {
	return g.browseLink("tree", folder)
}

// FileLink returns the browse link of a file.
func (g *GitHub) FileLink(file string) string {
	return g.browseLink("blob", file)
}

func (g *GitHub) browseLink(kind, p string) string {
	return fmt.Sprintf("%s/%s/%s/%s/%s/%s",
		g.opts.WebBase,
		url.PathEscape(g.opts.Owner),
		url.PathEscape(g.opts.Repo),
		kind,
		url.PathEscape(g.opts.Branch),
		escapePath(p))
}

func (g *GitHub) get(ctx context.Context, op, u string, timeout time.Duration, limit int64, accept string) ([]byte, error) {
	ctx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, u, nil)
	if err != nil {
		return nil, &TransportError{Op: op, URL: u, Err: err}
	}
	if accept != "" {
		req.Header.Set("Accept", accept)
	}
	if g.opts.Token != "" {
		req.Header.Set("Authorization", "Bearer "+g.opts.Token)
	}

	resp, err := g.client.Do(req)
	if err != nil {
		return nil, &TransportError{Op: op, URL: u, Err: err}
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		io.Copy(io.Discard, io.LimitReader(resp.Body, 64*1024))
		return nil, &TransportError{Op: op, URL: u, StatusCode: resp.StatusCode}
	}

	// SECURITY: limit response size
	body, err := io.ReadAll(io.LimitReader(resp.Body, limit+1))
	if err != nil {
		return nil, &TransportError{Op: op, URL: u, Err: err}
	}
	if int64(len(body)) > limit {
		return nil, &TransportError{Op: op, URL: u, Err: ErrTooLarge}
	}
	return body, nil
}

// escapePath escapes each segment of a slash-separated path.
func escapePath(p string) string {
	p = strings.Trim(p, "/")
	if p == "" {
		return ""
	}
	parts := strings.Split(p, "/")
	for i, s := range parts {
		parts[i] = url.PathEscape(s)
	}
	return strings.Join(parts, "/")
}
