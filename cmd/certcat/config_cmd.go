package main

import (
	"errors"
	"fmt"
	"os"
	"strings"

	"github.com/spf13/cobra"

	"github.com/sgx-labs/certcat/internal/config"
)

func configCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "config",
		Short: "Manage certcat configuration",
	}

	var owner, repo string
	var force bool
	initCmd := &cobra.Command{
		Use:   "init",
		Short: "Write a commented default config file",
		RunE: func(cmd *cobra.Command, args []string) error {
			cwd, err := os.Getwd()
			if err != nil {
				return err
			}
			path, err := config.GenerateConfig(cwd, owner, repo, force)
			if errors.Is(err, config.ErrConfigExists) {
				return userError(fmt.Sprintf("Config already exists at %s", path), "use --force to overwrite it")
			}
			if err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Wrote %s\n", path)
			return nil
		},
	}
	initCmd.Flags().StringVar(&owner, "owner", "", "GitHub user or organization that owns the certificate repository")
	initCmd.Flags().StringVar(&repo, "repo", "", "Certificate repository name")
	initCmd.Flags().BoolVar(&force, "force", false, "Overwrite an existing config file")
	cmd.AddCommand(initCmd)

	cmd.AddCommand(&cobra.Command{
		Use:   "show",
		Short: "Show effective configuration",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := loadConfig()
			if err != nil {
				return err
			}
			fmt.Fprintln(cmd.OutOrStdout(), cfg.Show())
			if err := cfg.Validate(); err != nil {
				fmt.Fprintf(cmd.OutOrStdout(), "# Problems:\n# %s\n", strings.ReplaceAll(err.Error(), "\n", "\n# "))
			}
			return nil
		},
	})

	cmd.AddCommand(&cobra.Command{
		Use:   "path",
		Short: "Print path to config file",
		RunE: func(cmd *cobra.Command, args []string) error {
			if flags.configPath != "" {
				fmt.Fprintln(cmd.OutOrStdout(), flags.configPath)
				return nil
			}
			cwd, err := os.Getwd()
			if err != nil {
				return err
			}
			fmt.Fprintln(cmd.OutOrStdout(), config.FilePath(cwd))
			return nil
		},
	})

	return cmd
}
