// Package config provides configuration for the certcat binary.
// Loads from: CLI flags > env vars > .env file > .certcat/config.toml > built-in defaults.
package config

import (
	"errors"
	"fmt"
	"os"
	"path"
	"path/filepath"
	"strings"
	"time"

	"github.com/BurntSushi/toml"
	"github.com/joho/godotenv"
)

const (
	// Dir is the per-site configuration directory.
	Dir = ".certcat"

	// FileName is the configuration file inside Dir.
	FileName = "config.toml"

	// EnvFile holds secrets such as GITHUB_TOKEN next to the site.
	EnvFile = ".env"
)

// Config holds all certcat configuration, loaded from TOML + env + flags.
type Config struct {
	Source  SourceConfig  `toml:"source"`
	Output  OutputConfig  `toml:"output"`
	Network NetworkConfig `toml:"network"`
	Render  RenderConfig  `toml:"render"`

	// Warnings collects non-fatal problems found while loading, such as
	// unknown keys in the config file.
	Warnings []string `toml:"-"`
	// Path is the config file that was loaded, if any.
	Path string `toml:"-"`
}

// SourceConfig describes where certificate folders come from.
type SourceConfig struct {
	Owner   string `toml:"owner"`
	Repo    string `toml:"repo"`
	Branch  string `toml:"branch"`
	APIBase string `toml:"api_base"`
	Root    string `toml:"root"`      // folder holding the certificate folders; "" = repository root
	Token   string `toml:"token"`     // prefer GITHUB_TOKEN over storing it here
	Local   string `toml:"local_dir"` // read folders from a local checkout instead of GitHub
}

// OutputConfig describes where results are written.
type OutputConfig struct {
	Catalog     string `toml:"catalog"`      // catalog JSON path
	SiteRoot    string `toml:"site_root"`    // directory previews are written under
	PreviewRoot string `toml:"preview_root"` // site-relative preview directory
}

// NetworkConfig bounds remote calls.
type NetworkConfig struct {
	TimeoutSeconds         int `toml:"timeout_seconds"`
	DownloadTimeoutSeconds int `toml:"download_timeout_seconds"`
}

// RenderConfig controls preview rendering.
type RenderConfig struct {
	Zoom           float64 `toml:"zoom"`
	TimeoutSeconds int     `toml:"timeout_seconds"`
}

// DefaultConfig returns a Config with all built-in defaults.
func DefaultConfig() *Config {
	return &Config{
		Source: SourceConfig{
			Branch:  "main",
			APIBase: "https://api.github.com",
		},
		Output: OutputConfig{
			Catalog:     "data/certificados.json",
			SiteRoot:    ".",
			PreviewRoot: "assets/img/certificados",
		},
		Network: NetworkConfig{
			TimeoutSeconds:         60,
			DownloadTimeoutSeconds: 120,
		},
		Render: RenderConfig{
			Zoom:           2.0,
			TimeoutSeconds: 60,
		},
	}
}

// NetworkTimeout bounds folder listings.
func (c *Config) NetworkTimeout() time.Duration {
	return time.Duration(c.Network.TimeoutSeconds) * time.Second
}

// DownloadTimeout bounds document downloads.
func (c *Config) DownloadTimeout() time.Duration {
	return time.Duration(c.Network.DownloadTimeoutSeconds) * time.Second
}

// RenderTimeout bounds rendering one preview.
func (c *Config) RenderTimeout() time.Duration {
	return time.Duration(c.Render.TimeoutSeconds) * time.Second
}

// CatalogPath resolves the catalog path against the site root when it is
// relative.
func (c *Config) CatalogPath() string {
	if filepath.IsAbs(c.Output.Catalog) {
		return c.Output.Catalog
	}
	return filepath.Join(c.Output.SiteRoot, c.Output.Catalog)
}

// Load merges all configuration sources: defaults < TOML file < .env < env vars.
// configPath may be empty, in which case .certcat/config.toml in the current
// directory is used when present. CLI flags are applied by the caller.
func Load(configPath string) (*Config, error) {
	cfg := DefaultConfig()

	if configPath == "" {
		configPath = FindConfigFile()
	} else if _, err := os.Stat(configPath); err != nil {
		return nil, fmt.Errorf("config %s: %w", configPath, err)
	}
	if configPath != "" {
		meta, err := toml.DecodeFile(configPath, cfg)
		if err != nil {
			return nil, fmt.Errorf("parse config %s: %w", configPath, err)
		}
		cfg.Path = configPath
		cfg.Warnings = append(cfg.Warnings, unknownKeyWarnings(meta, configPath)...)
	}

	// .env never overrides variables already set in the environment.
	if _, err := os.Stat(EnvFile); err == nil {
		if err := godotenv.Load(EnvFile); err != nil {
			cfg.Warnings = append(cfg.Warnings, fmt.Sprintf("could not load %s: %v", EnvFile, err))
		}
	}

	applyEnv(cfg)
	return cfg, nil
}

func applyEnv(cfg *Config) {
	if v := os.Getenv("GITHUB_TOKEN"); v != "" {
		cfg.Source.Token = v
	}
	if v := os.Getenv("CERTCAT_OWNER"); v != "" {
		cfg.Source.Owner = v
	}
	if v := os.Getenv("CERTCAT_REPO"); v != "" {
		cfg.Source.Repo = v
	}
	if v := os.Getenv("CERTCAT_BRANCH"); v != "" {
		cfg.Source.Branch = v
	}
	if v := os.Getenv("CERTCAT_API_BASE"); v != "" {
		cfg.Source.APIBase = v
	}
	if v := os.Getenv("CERTCAT_LOCAL_DIR"); v != "" {
		cfg.Source.Local = v
	}
	if v := os.Getenv("CERTCAT_OUTPUT"); v != "" {
		cfg.Output.Catalog = v
	}
	if v := os.Getenv("CERTCAT_SITE_ROOT"); v != "" {
		cfg.Output.SiteRoot = v
	}
	if v := os.Getenv("CERTCAT_PREVIEW_ROOT"); v != "" {
		cfg.Output.PreviewRoot = v
	}
}

// Validate reports every invalid setting at once.
func (c *Config) Validate() error {
	var errs []error
	if c.Source.Local == "" {
		if strings.TrimSpace(c.Source.Owner) == "" {
			errs = append(errs, errors.New("source.owner is required (or set CERTCAT_OWNER)"))
		}
		if strings.TrimSpace(c.Source.Repo) == "" {
			errs = append(errs, errors.New("source.repo is required (or set CERTCAT_REPO)"))
		}
		if strings.TrimSpace(c.Source.Branch) == "" {
			errs = append(errs, errors.New("source.branch cannot be empty"))
		}
	}
	if c.Output.Catalog == "" {
		errs = append(errs, errors.New("output.catalog cannot be empty"))
	}
	if c.Output.PreviewRoot == "" {
		errs = append(errs, errors.New("output.preview_root cannot be empty"))
	} else if filepath.IsAbs(c.Output.PreviewRoot) || path.IsAbs(filepath.ToSlash(c.Output.PreviewRoot)) {
		errs = append(errs, fmt.Errorf("output.preview_root must be relative to the site root (got %q)", c.Output.PreviewRoot))
	} else if strings.HasPrefix(path.Clean(filepath.ToSlash(c.Output.PreviewRoot)), "..") {
		errs = append(errs, fmt.Errorf("output.preview_root must stay inside the site root (got %q)", c.Output.PreviewRoot))
	}
	if c.Network.TimeoutSeconds <= 0 {
		errs = append(errs, fmt.Errorf("network.timeout_seconds must be positive (got %d)", c.Network.TimeoutSeconds))
	}
	if c.Network.DownloadTimeoutSeconds <= 0 {
		errs = append(errs, fmt.Errorf("network.download_timeout_seconds must be positive (got %d)", c.Network.DownloadTimeoutSeconds))
	}
	if c.Render.TimeoutSeconds <= 0 {
		errs = append(errs, fmt.Errorf("render.timeout_seconds must be positive (got %d)", c.Render.TimeoutSeconds))
	}
	if c.Render.Zoom <= 0 {
		errs = append(errs, fmt.Errorf("render.zoom must be positive (got %g)", c.Render.Zoom))
	}
	return errors.Join(errs...)
}

// FindConfigFile returns .certcat/config.toml in the current directory, or
// empty string if none exists.
func FindConfigFile() string {
	cwd, err := os.Getwd()
	if err != nil {
		return ""
	}
	p := FilePath(cwd)
	if _, err := os.Stat(p); err == nil {
		return p
	}
	return ""
}

// FilePath returns where the config file lives for a site directory.
func FilePath(siteDir string) string {
	return filepath.Join(siteDir, Dir, FileName)
}

// ErrConfigExists is returned by GenerateConfig when a file is already present.
var ErrConfigExists = errors.New("config file already exists")

// GenerateConfig writes a default .certcat/config.toml with comments. An
// existing file is kept unless overwrite is set.
func GenerateConfig(siteDir, owner, repo string, overwrite bool) (string, error) {
	configPath := FilePath(siteDir)
	if _, err := os.Stat(configPath); err == nil && !overwrite {
		return configPath, fmt.Errorf("%w: %s", ErrConfigExists, configPath)
	}
	if err := os.MkdirAll(filepath.Dir(configPath), 0o755); err != nil {
		return configPath, fmt.Errorf("create config dir: %w", err)
	}
	return configPath, os.WriteFile(configPath, []byte(generateTOMLContent(owner, repo)), 0o600)
}

func generateTOMLContent(owner, repo string) string {
	d := DefaultConfig()
	var b strings.Builder
	b.WriteString("# certcat configuration\n")
	b.WriteString("#\n")
	b.WriteString("# Priority: CLI flags > environment variables > .env > this file > built-in defaults\n")
	b.WriteString("# Environment variables: GITHUB_TOKEN, CERTCAT_OWNER, CERTCAT_REPO, CERTCAT_BRANCH,\n")
	b.WriteString("#   CERTCAT_API_BASE, CERTCAT_LOCAL_DIR, CERTCAT_OUTPUT, CERTCAT_SITE_ROOT,\n")
	b.WriteString("#   CERTCAT_PREVIEW_ROOT\n\n")

	b.WriteString("[source]\n")
	if owner != "" {
		fmt.Fprintf(&b, "owner = %q\n", owner)
	} else {
		b.WriteString("# owner = \"your-github-user\"\n")
	}
	if repo != "" {
		fmt.Fprintf(&b, "repo = %q\n", repo)
	} else {
		b.WriteString("# repo = \"certificates\"\n")
	}
	fmt.Fprintf(&b, "branch = %q\n", d.Source.Branch)
	fmt.Fprintf(&b, "api_base = %q\n", d.Source.APIBase)
	b.WriteString("# root = \"\"        # folder holding the certificate folders\n")
	b.WriteString("# local_dir = \"\"   # read a local checkout instead of GitHub\n")
	b.WriteString("# token: set GITHUB_TOKEN in the environment or in .env\n\n")

	b.WriteString("[output]\n")
	fmt.Fprintf(&b, "catalog = %q\n", d.Output.Catalog)
	fmt.Fprintf(&b, "site_root = %q\n", d.Output.SiteRoot)
	fmt.Fprintf(&b, "preview_root = %q\n\n", d.Output.PreviewRoot)

	b.WriteString("[network]\n")
	fmt.Fprintf(&b, "timeout_seconds = %d\n", d.Network.TimeoutSeconds)
	fmt.Fprintf(&b, "download_timeout_seconds = %d\n\n", d.Network.DownloadTimeoutSeconds)

	b.WriteString("[render]\n")
	fmt.Fprintf(&b, "zoom = %.1f\n", d.Render.Zoom)
	fmt.Fprintf(&b, "timeout_seconds = %d\n", d.Render.TimeoutSeconds)
	return b.String()
}

// Show returns the effective configuration as TOML with the token redacted.
func (c *Config) Show() string {
	shown := *c
	if shown.Source.Token != "" {
		shown.Source.Token = "<redacted>"
	}

	var b strings.Builder
	b.WriteString("# Effective certcat configuration (merged from all sources)\n")
	if c.Path != "" {
		fmt.Fprintf(&b, "# Loaded from %s\n", c.Path)
	}
	b.WriteString("\n")
	enc := toml.NewEncoder(&b)
	if err := enc.Encode(shown); err != nil {
		return fmt.Sprintf("# Error encoding config: %v\n", err)
	}
	return b.String()
}

// configSuggestions maps common wrong keys to the correct TOML key name.
var configSuggestions = map[string]string{
	"user":          "owner",
	"org":           "owner",
	"repository":    "repo",
	"ref":           "branch",
	"api_url":       "api_base",
	"apiurl":        "api_base",
	"github_token":  "token",
	"output":        "catalog",
	"json":          "catalog",
	"site":          "site_root",
	"previews":      "preview_root",
	"preview_dir":   "preview_root",
	"timeout":       "timeout_seconds",
	"download_time": "download_timeout_seconds",
	"scale":         "zoom",
	"local":         "local_dir",
}

// unknownKeyWarnings describes unrecognized config keys.
func unknownKeyWarnings(meta toml.MetaData, configPath string) []string {
	undecoded := meta.Undecoded()
	if len(undecoded) == 0 {
		return nil
	}

	fname := filepath.Base(configPath)
	warnings := make([]string, 0, len(undecoded))
	for _, key := range undecoded {
		keyStr := key.String()
		lastPart := key[len(key)-1]

		if suggestion, ok := configSuggestions[lastPart]; ok {
			warnings = append(warnings, fmt.Sprintf("unknown key %q in %s, did you mean %q?", keyStr, fname, suggestion))
		} else {
			warnings = append(warnings, fmt.Sprintf("unknown key %q in %s (will be ignored)", keyStr, fname))
		}
	}
	return warnings
}
