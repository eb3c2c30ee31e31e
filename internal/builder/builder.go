// Package builder runs one incremental catalog build: it walks the source
// folders, builds fresh records, renders missing previews, merges with the
// persisted catalog and writes the result.
package builder

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"slices"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/sgx-labs/certcat/internal/catalog"
	"github.com/sgx-labs/certcat/internal/pdftext"
	"github.com/sgx-labs/certcat/internal/preview"
	"github.com/sgx-labs/certcat/internal/readme"
	"github.com/sgx-labs/certcat/internal/slug"
	"github.com/sgx-labs/certcat/internal/source"
)

// Stats summarizes one run.
type Stats struct {
	RunID            string `json:"run_id"`
	FoldersSeen      int    `json:"folders_seen"`
	New              int    `json:"new"`
	Updated          int    `json:"updated"`
	Unchanged        int    `json:"unchanged"`
	SkippedProcessed int    `json:"skipped_processed"`
	CarriedOver      int    `json:"carried_over"`
	NoDocuments      int    `json:"no_documents"`
	Failed           int    `json:"failed"`
	MetadataWarnings int    `json:"metadata_warnings"`
	PreviewsCreated  int    `json:"previews_created"`
	PreviewFailures  int    `json:"preview_failures"`
	DroppedOnLoad    int    `json:"dropped_on_load"`
	TotalRecords     int    `json:"total_records"`
	DryRun           bool   `json:"dry_run,omitempty"`
	Timestamp        string `json:"timestamp"`
}

// ProgressFunc is called before each folder is processed.
type ProgressFunc func(current, total int, folder string)

// Options control a run.
type Options struct {
	// OutputPath is the catalog file read at start and written at the end.
	OutputPath string
	// Root is the folder whose subfolders are certificates; empty means the
	// repository root.
	Root string
	// Rescan disables the processed-folder skip.
	Rescan bool
	// DryRun builds and merges but writes nothing: no previews, no catalog,
	// no lock file.
	DryRun bool

	Logger   *slog.Logger
	Progress ProgressFunc
	Now      func() time.Time
}

// Builder wires the content provider, preview cache and text extractor.
type Builder struct {
	provider source.Provider
	cache    *preview.Cache
	text     pdftext.Extractor
	opts     Options
}

// New returns a Builder. text may be nil to skip document text inference.
func New(provider source.Provider, cache *preview.Cache, text pdftext.Extractor, opts Options) *Builder {
	if opts.Logger == nil {
		opts.Logger = slog.New(slog.DiscardHandler)
	}
	if opts.Now == nil {
		opts.Now = time.Now
	}
	return &Builder{provider: provider, cache: cache, text: text, opts: opts}
}

// Run performs one build. Only failures that make the whole run meaningless
// are returned: lock contention, an unreadable prior catalog, an unlistable
// root folder, cancellation, or a failed catalog write. Per-folder problems
// are logged and counted in Stats.
func (b *Builder) Run(ctx context.Context) (*Stats, error) {
	runID := uuid.NewString()
	log := b.opts.Logger.With("run", runID)
	stats := &Stats{
		RunID:     runID,
		DryRun:    b.opts.DryRun,
		Timestamp: b.opts.Now().UTC().Format(time.RFC3339),
	}

	if !b.opts.DryRun {
		unlock, err := catalog.AcquireLock(b.opts.OutputPath, catalog.StaleLockAge)
		if err != nil {
			return stats, err
		}
		defer unlock()
	}

	existing, dropped, err := catalog.Load(b.opts.OutputPath)
	if err != nil {
		return stats, fmt.Errorf("load catalog: %w", err)
	}
	stats.DroppedOnLoad = dropped
	if dropped > 0 {
		log.Warn("dropped catalog entries without a usable id", "count", dropped)
	}
	known := make(map[string]bool, len(existing))
	for _, r := range existing {
		known[r.ID] = true
	}
	log.Info("loaded catalog", "path", b.opts.OutputPath, "records", len(existing))

	entries, err := b.provider.ListFolder(ctx, b.opts.Root)
	if err != nil {
		return stats, fmt.Errorf("list root folder: %w", err)
	}
	folders := make([]source.Entry, 0, len(entries))
	for _, e := range entries {
		if e.IsDir() {
			folders = append(folders, e)
		}
	}
	slices.SortStableFunc(folders, func(a, b source.Entry) int {
		return strings.Compare(strings.ToLower(a.Name), strings.ToLower(b.Name))
	})

	var fresh []catalog.Record
	for i, folder := range folders {
		if err := ctx.Err(); err != nil {
			return stats, err
		}
		stats.FoldersSeen++
		if b.opts.Progress != nil {
			b.opts.Progress(i+1, len(folders), folder.Name)
		}
		flog := log.With("folder", folder.Name)

		if id := slug.Make(folder.Name); !b.opts.Rescan && known[id] && b.cache.HasArtifacts(id) {
			stats.SkippedProcessed++
			flog.Debug("already processed, keeping stored record", "id", id)
			continue
		}

		rec, err := b.processFolder(ctx, folder, flog, stats)
		switch {
		case errors.Is(err, catalog.ErrNoDocuments):
			stats.NoDocuments++
			flog.Info("no PDF documents, skipping folder")
			continue
		case err != nil:
			if ctx.Err() != nil {
				return stats, ctx.Err()
			}
			stats.Failed++
			flog.Warn("folder failed", "error", err)
			continue
		}
		flog.Info("built record", "id", rec.ID, "documents", rec.DocumentCount)
		fresh = append(fresh, rec)
	}

	merged, report := catalog.MergeWithReport(existing, fresh, b.opts.Now())
	stats.New = report[catalog.Inserted]
	stats.Updated = report[catalog.Updated]
	stats.Unchanged = report[catalog.Unchanged]
	stats.CarriedOver = report[catalog.CarriedOver]
	stats.TotalRecords = len(merged)

	if b.opts.DryRun {
		log.Info("dry run, catalog not written", "records", len(merged))
		return stats, nil
	}
	if err := catalog.Write(b.opts.OutputPath, merged); err != nil {
		return stats, err
	}
	log.Info("wrote catalog", "path", b.opts.OutputPath, "records", len(merged))
	return stats, nil
}

// processFolder builds the fresh record for one folder and makes sure its
// previews exist.
func (b *Builder) processFolder(ctx context.Context, folder source.Entry, log *slog.Logger, stats *Stats) (catalog.Record, error) {
	items, err := b.provider.ListFolder(ctx, folder.Path)
	if err != nil {
		return catalog.Record{}, err
	}

	var readmeEntry *source.Entry
	var docs []catalog.DocumentInput
	downloads := make(map[string]string)
	for i := range items {
		it := items[i]
		switch {
		case it.IsReadme() && readmeEntry == nil:
			readmeEntry = &items[i]
		case it.IsPDF():
			docs = append(docs, catalog.DocumentInput{Name: it.Name, SourceLink: it.BrowseLink})
			downloads[it.Name] = it.DownloadLink
		}
	}

	if len(docs) == 0 {
		return catalog.Record{}, catalog.ErrNoDocuments
	}
	parsed, err := b.readReadme(ctx, readmeEntry, log, stats)
	if err != nil {
		return catalog.Record{}, err
	}
	id := catalog.DeriveID(folder.Name, parsed.Meta)
	if id == "" {
		return catalog.Record{}, catalog.ErrEmptyID
	}
	log = log.With("id", id)

	// Documents are downloaded at most once per run and only on demand.
	fetched := make(map[string][]byte)
	fetch := func(name string) preview.FetchFunc {
		return func(ctx context.Context) ([]byte, error) {
			if data, ok := fetched[name]; ok {
				return data, nil
			}
			data, err := b.provider.Fetch(ctx, downloads[name])
			if err != nil {
				return nil, err
			}
			fetched[name] = data
			return data, nil
		}
	}

	text := ""
	if src, ok := catalog.TextSource(docs); ok && b.text != nil {
		text = b.extractText(ctx, src.Name, fetch(src.Name), log)
	}

	if !b.opts.DryRun {
		for _, d := range catalog.SortDocuments(docs) {
			res, err := b.cache.Ensure(ctx, id, d.Name, fetch(d.Name))
			var rErr *preview.RenderError
			switch {
			case errors.As(err, &rErr):
				stats.PreviewFailures++
				log.Warn("preview render failed", "document", d.Name, "error", rErr.Err)
			case err != nil:
				stats.PreviewFailures++
				log.Warn("preview download failed", "document", d.Name, "error", err)
			case res.Created:
				stats.PreviewsCreated++
				log.Debug("preview created", "document", d.Name, "path", res.Path)
			}
		}
	}

	folderLink := b.provider.FolderLink(folder.Path)
	return catalog.BuildRecord(catalog.FolderInput{
		FolderName:  folder.Name,
		FolderLink:  folderLink,
		PreviewRoot: b.cache.Root(),
		Meta:        parsed.Meta,
		Body:        parsed.Body,
		Documents:   docs,
		Text:        text,
	})
}

// readReadme fetches and parses a README. A folder without one yields empty
// metadata so it still gets a record from defaults. A README that is listed
// but cannot be downloaded is an error: the defaults would otherwise replace
// the stored README values on merge.
func (b *Builder) readReadme(ctx context.Context, entry *source.Entry, log *slog.Logger, stats *Stats) (readme.Parsed, error) {
	if entry == nil {
		log.Debug("no README, using defaults")
		return readme.Parsed{Meta: readme.Metadata{}}, nil
	}
	data, err := b.provider.Fetch(ctx, entry.DownloadLink)
	if err != nil {
		return readme.Parsed{}, fmt.Errorf("fetch README: %w", err)
	}
	parsed := readme.Parse(string(data))
	if parsed.Warning != nil {
		stats.MetadataWarnings++
		log.Warn("malformed front matter, metadata ignored", "error", parsed.Warning)
	}
	return parsed, nil
}

func (b *Builder) extractText(ctx context.Context, name string, fetch preview.FetchFunc, log *slog.Logger) string {
	data, err := fetch(ctx)
	if err != nil {
		log.Warn("document download failed", "document", name, "error", err)
		return ""
	}
	text, err := b.text.Extract(data)
	if err != nil {
		log.Debug("text extraction failed", "document", name, "error", err)
		return ""
	}
	return text
}
