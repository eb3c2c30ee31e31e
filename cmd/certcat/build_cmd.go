package main

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"os"
	"os/signal"
	"path/filepath"

	"github.com/spf13/cobra"

	"github.com/sgx-labs/certcat/internal/builder"
	"github.com/sgx-labs/certcat/internal/catalog"
	"github.com/sgx-labs/certcat/internal/cli"
	"github.com/sgx-labs/certcat/internal/config"
	"github.com/sgx-labs/certcat/internal/pdftext"
	"github.com/sgx-labs/certcat/internal/preview"
	"github.com/sgx-labs/certcat/internal/source"
)

type buildOptions struct {
	forcePreviews bool
	rescan        bool
	dryRun        bool
	jsonOnly      bool
}

func buildCmd() *cobra.Command {
	var opts buildOptions
	cmd := &cobra.Command{
		Use:   "build",
		Short: "Update the catalog from the certificate repository",
		Long: `Lists every certificate folder, builds a record from its README and PDFs,
renders missing previews and merges the result into the existing catalog.
Folders already in the catalog with rendered previews are kept as they are
unless --rescan is given.`,
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt)
			defer stop()

			cfg, err := loadConfig()
			if err != nil {
				return err
			}
			if err := cfg.Validate(); err != nil {
				return userError(err.Error(), "run 'certcat config init' or set CERTCAT_OWNER and CERTCAT_REPO")
			}
			return runBuild(ctx, cfg, newProvider(cfg), preview.FitzRenderer{}, opts, cmd.OutOrStdout())
		},
	}
	cmd.Flags().BoolVar(&opts.forcePreviews, "force-previews", false, "Re-render previews even if they exist")
	cmd.Flags().BoolVar(&opts.rescan, "rescan", false, "Rebuild records for folders already in the catalog")
	cmd.Flags().BoolVar(&opts.dryRun, "dry-run", false, "Compute the catalog without writing previews or the catalog")
	cmd.Flags().BoolVar(&opts.jsonOnly, "json", false, "Print only the run statistics as JSON")
	return cmd
}

func runBuild(ctx context.Context, cfg *config.Config, provider source.Provider, renderer preview.Renderer, opts buildOptions, out io.Writer) error {
	logger := newLogger(os.Stderr, flags.verbose)
	cache := preview.NewCache(renderer, preview.Options{
		SiteRoot: cfg.Output.SiteRoot,
		Root:     cfg.Output.PreviewRoot,
		Zoom:     cfg.Render.Zoom,
		Timeout:  cfg.RenderTimeout(),
		Force:    opts.forcePreviews,
	})

	b := builder.New(provider, cache, pdftext.PDF{}, builder.Options{
		OutputPath: cfg.CatalogPath(),
		Root:       cfg.Source.Root,
		Rescan:     opts.rescan || opts.forcePreviews,
		DryRun:     opts.dryRun,
		Logger:     logger,
		Progress: func(current, total int, folder string) {
			if !flags.verbose && !opts.jsonOnly {
				fmt.Fprintf(os.Stderr, "\r  [%d/%d] %-40.40s", current, total, folder)
				if current == total {
					fmt.Fprintln(os.Stderr)
				}
			}
		},
	})

	stats, err := b.Run(ctx)
	if err != nil {
		if errors.Is(err, catalog.ErrLocked) {
			return userError(err.Error(), "another build is running; remove the .lock file if it crashed")
		}
		return err
	}

	if !opts.jsonOnly {
		printBuildSummary(out, cfg, stats)
	}
	data, err := json.MarshalIndent(stats, "", "  ")
	if err != nil {
		return fmt.Errorf("encode stats: %w", err)
	}
	fmt.Fprintln(out, string(data))
	return nil
}

func printBuildSummary(w io.Writer, cfg *config.Config, stats *builder.Stats) {
	title := "Catalog updated"
	if stats.DryRun {
		title = "Dry run (nothing written)"
	}
	cli.Header(w, title)
	cli.Box(w, cli.SummaryLines([]cli.Counter{
		{Label: "Folders", Value: stats.FoldersSeen},
		{Label: "New", Value: stats.New},
		{Label: "Updated", Value: stats.Updated},
		{Label: "Unchanged", Value: stats.Unchanged},
		{Label: "Already processed", Value: stats.SkippedProcessed},
		{Label: "Kept", Value: stats.CarriedOver},
		{Label: "Without PDFs", Value: stats.NoDocuments, Alert: true},
		{Label: "Failed", Value: stats.Failed, Alert: true},
		{Label: "Bad front matter", Value: stats.MetadataWarnings, Alert: true},
		{Label: "Previews created", Value: stats.PreviewsCreated},
		{Label: "Preview failures", Value: stats.PreviewFailures, Alert: true},
		{Label: "Total records", Value: stats.TotalRecords},
	}))
	fmt.Fprintf(w, "  Catalog:  %s\n", cli.ShortenHome(cfg.CatalogPath()))
	fmt.Fprintf(w, "  Previews: %s\n\n", cli.ShortenHome(filepath.Join(cfg.Output.SiteRoot, cfg.Output.PreviewRoot)))
}
