package main

import (
	"encoding/json"
	"fmt"
	"io"

	"github.com/spf13/cobra"

	"github.com/sgx-labs/certcat/internal/catalog"
	"github.com/sgx-labs/certcat/internal/cli"
	"github.com/sgx-labs/certcat/internal/config"
	"github.com/sgx-labs/certcat/internal/preview"
)

func statsCmd() *cobra.Command {
	var jsonOut bool
	cmd := &cobra.Command{
		Use:   "stats",
		Short: "Summarize the current catalog",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := loadConfig()
			if err != nil {
				return err
			}
			return runStats(cfg, jsonOut, cmd.OutOrStdout())
		},
	}
	cmd.Flags().BoolVar(&jsonOut, "json", false, "Print the summary as JSON")
	return cmd
}

// catalogStats is the stats command output.
type catalogStats struct {
	catalog.Summary
	MissingPreviews []string `json:"missing_previews"`
}

func runStats(cfg *config.Config, jsonOut bool, out io.Writer) error {
	path := cfg.CatalogPath()
	records, dropped, err := catalog.Load(path)
	if err != nil {
		return userError(fmt.Sprintf("Cannot read catalog %s: %v", path, err), "fix or remove the file, then run 'certcat build'")
	}
	if dropped > 0 {
		cli.Warn("%d catalog entries without a usable id were ignored", dropped)
	}

	cache := preview.NewCache(nil, preview.Options{SiteRoot: cfg.Output.SiteRoot, Root: cfg.Output.PreviewRoot})
	stats := catalogStats{Summary: catalog.Summarize(records), MissingPreviews: []string{}}
	for _, r := range records {
		for _, d := range r.Documents {
			if !cache.Exists(r.ID, d.Name) {
				stats.MissingPreviews = append(stats.MissingPreviews, r.ID+"/"+d.Name)
			}
		}
	}

	if jsonOut {
		data, err := json.MarshalIndent(stats, "", "  ")
		if err != nil {
			return fmt.Errorf("encode stats: %w", err)
		}
		fmt.Fprintln(out, string(data))
		return nil
	}

	cli.Header(out, "Certificate catalog")
	cli.Section(out, "Totals")
	cli.Row(out, "Records", cli.FormatNumber(stats.Records))
	cli.Row(out, "Highlighted", cli.FormatNumber(stats.Highlighted))
	cli.Row(out, "Documents", cli.FormatNumber(stats.Documents))
	cli.Row(out, "Without year", cli.FormatNumber(stats.WithoutYear))
	cli.Row(out, "Missing previews", cli.FormatNumber(len(stats.MissingPreviews)))

	if len(stats.Categories) > 0 {
		cli.Section(out, "Categories")
		for _, g := range stats.Categories {
			cli.Row(out, g.Name, g.Count)
		}
	}
	if len(stats.Years) > 0 {
		cli.Section(out, "Years")
		for _, g := range stats.Years {
			cli.Row(out, g.Name, g.Count)
		}
	}
	if len(stats.MissingPreviews) > 0 {
		cli.Section(out, "Missing previews")
		for _, m := range stats.MissingPreviews {
			fmt.Fprintf(out, "  %s\n", m)
		}
		fmt.Fprintf(out, "\n  Run 'certcat build --rescan' to render them.\n")
	}
	fmt.Fprintln(out)
	return nil
}
