// Package main is the entrypoint for the certcat CLI.
package main

import (
	"fmt"
	"io"
	"log/slog"
	"os"

	"github.com/spf13/cobra"

	"github.com/sgx-labs/certcat/internal/config"
	"github.com/sgx-labs/certcat/internal/source"
)

// Version is set at build time via ldflags.
var Version = "dev"

// globalFlags are shared by every command.
type globalFlags struct {
	configPath string
	output     string
	siteRoot   string
	verbose    bool
}

var flags globalFlags

func main() {
	if err := newRootCmd().Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

func newRootCmd() *cobra.Command {
	root := &cobra.Command{
		Use:   "certcat",
		Short: "Incremental certificate catalog builder",
		Long:  "certcat reads certificate folders from a GitHub repository, renders previews and maintains a JSON catalog for a static site.",
		CompletionOptions: cobra.CompletionOptions{
			DisableDefaultCmd: true,
		},
		SilenceUsage:  true,
		SilenceErrors: true,
	}

	root.AddCommand(buildCmd())
	root.AddCommand(statsCmd())
	root.AddCommand(thumbsCmd())
	root.AddCommand(configCmd())
	root.AddCommand(versionCmd())

	root.PersistentFlags().StringVar(&flags.configPath, "config", "", "Config file (default .certcat/config.toml)")
	root.PersistentFlags().StringVar(&flags.output, "output", "", "Catalog JSON path (overrides config)")
	root.PersistentFlags().StringVar(&flags.siteRoot, "site-root", "", "Site root that previews are written under (overrides config)")
	root.PersistentFlags().BoolVarP(&flags.verbose, "verbose", "v", false, "Log every folder and preview")
	return root
}

func versionCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "version",
		Short: "Print the certcat version",
		RunE: func(cmd *cobra.Command, args []string) error {
			fmt.Fprintf(cmd.OutOrStdout(), "certcat %s\n", Version)
			return nil
		},
	}
}

// loadConfig loads configuration and applies the global flags on top.
func loadConfig() (*config.Config, error) {
	cfg, err := config.Load(flags.configPath)
	if err != nil {
		return nil, err
	}
	for _, w := range cfg.Warnings {
		fmt.Fprintf(os.Stderr, "  [WARN] %s\n", w)
	}
	if flags.output != "" {
		cfg.Output.Catalog = flags.output
	}
	if flags.siteRoot != "" {
		cfg.Output.SiteRoot = flags.siteRoot
	}
	return cfg, nil
}

// newLogger returns the run logger: text on stderr, debug with --verbose.
func newLogger(w io.Writer, verbose bool) *slog.Logger {
	level := slog.LevelInfo
	if verbose {
		level = slog.LevelDebug
	}
	return slog.New(slog.NewTextHandler(w, &slog.HandlerOptions{Level: level}))
}

// newProvider picks the local checkout when configured, GitHub otherwise.
func newProvider(cfg *config.Config) source.Provider {
	if cfg.Source.Local != "" {
		return source.Local{Root: cfg.Source.Local}
	}
	return source.NewGitHub(source.GitHubOptions{
		Owner:           cfg.Source.Owner,
		Repo:            cfg.Source.Repo,
		Branch:          cfg.Source.Branch,
		APIBase:         cfg.Source.APIBase,
		Token:           cfg.Source.Token,
		ListTimeout:     cfg.NetworkTimeout(),
		DownloadTimeout: cfg.DownloadTimeout(),
	})
}

// ---------- error helpers ----------

type certcatError struct {
	message string
	hint    string
}

func (e *certcatError) Error() string {
	return fmt.Sprintf("%s\n  Hint: %s", e.message, e.hint)
}

func userError(message, hint string) error {
	return &certcatError{message: message, hint: hint}
}
