package main

import (
	"fmt"
	"io"

	"github.com/spf13/cobra"

	"github.com/sgx-labs/certcat/internal/catalog"
	"github.com/sgx-labs/certcat/internal/cli"
	"github.com/sgx-labs/certcat/internal/config"
	"github.com/sgx-labs/certcat/internal/preview"
)

func thumbsCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "thumbs",
		Short: "Derive 800x600 JPEG card images from rendered previews",
		Long: `For every catalog record, crops the preview of its primary document (or its
first document) to an 800x600 JPEG next to the PNG. Existing JPEGs are kept.`,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := loadConfig()
			if err != nil {
				return err
			}
			return runThumbs(cfg, cmd.OutOrStdout())
		},
	}
}

type thumbsResult struct {
	Created  int
	Existing int
	Missing  int
	Failed   int
}

func runThumbs(cfg *config.Config, out io.Writer) error {
	records, _, err := catalog.Load(cfg.CatalogPath())
	if err != nil {
		return err
	}
	cache := preview.NewCache(nil, preview.Options{SiteRoot: cfg.Output.SiteRoot, Root: cfg.Output.PreviewRoot})

	var res thumbsResult
	for _, r := range records {
		doc, ok := r.PrimaryDocument()
		if !ok {
			continue
		}
		if !cache.Exists(r.ID, doc.Name) {
			res.Missing++
			continue
		}
		rel, created, err := cache.Thumbnail(r.ID, doc.Name)
		switch {
		case err != nil:
			res.Failed++
			cli.Warn("%s: %v", r.ID, err)
		case created:
			res.Created++
			if flags.verbose {
				fmt.Fprintf(out, "  + %s\n", rel)
			}
		default:
			res.Existing++
		}
	}

	cli.Box(out, cli.SummaryLines([]cli.Counter{
		{Label: "Created", Value: res.Created},
		{Label: "Already present", Value: res.Existing},
		{Label: "No preview yet", Value: res.Missing, Alert: true},
		{Label: "Failed", Value: res.Failed, Alert: true},
	}))
	if res.Failed > 0 {
		return fmt.Errorf("%d thumbnails failed", res.Failed)
	}
	return nil
}
