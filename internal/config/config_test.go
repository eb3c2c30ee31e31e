package config

import (
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/BurntSushi/toml"
)

var envKeys = []string{
	"GITHUB_TOKEN", "CERTCAT_OWNER", "CERTCAT_REPO", "CERTCAT_BRANCH",
	"CERTCAT_API_BASE", "CERTCAT_LOCAL_DIR", "CERTCAT_OUTPUT",
	"CERTCAT_SITE_ROOT", "CERTCAT_PREVIEW_ROOT",
}

// isolate runs the test in an empty directory with no certcat variables set.
func isolate(t *testing.T) string {
	t.Helper()
	for _, k := range envKeys {
		// Setenv registers the restore; the variable must be absent, not
		// empty, or godotenv will not fill it from .env.
		t.Setenv(k, "")
		os.Unsetenv(k)
	}
	dir := t.TempDir()
	t.Chdir(dir)
	return dir
}

func writeFile(t *testing.T, path, content string) {
	t.Helper()
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		t.Fatal(err)
	}
	if err := os.WriteFile(path, []byte(content), 0o600); err != nil {
		t.Fatal(err)
	}
}

func TestLoad_Defaults(t *testing.T) {
	isolate(t)
	cfg, err := Load("")
	if err != nil {
		t.Fatal(err)
	}
	if cfg.Path != "" {
		t.Errorf("no file expected, got %q", cfg.Path)
	}
	if cfg.Source.Branch != "main" || cfg.Output.PreviewRoot != "assets/img/certificados" {
		t.Errorf("unexpected defaults: %+v", cfg)
	}
	if cfg.NetworkTimeout() != 60*time.Second || cfg.DownloadTimeout() != 120*time.Second || cfg.RenderTimeout() != 60*time.Second {
		t.Errorf("timeouts = %v %v %v", cfg.NetworkTimeout(), cfg.DownloadTimeout(), cfg.RenderTimeout())
	}
	if cfg.CatalogPath() != filepath.Join(".", "data", "certificados.json") {
		t.Errorf("CatalogPath = %q", cfg.CatalogPath())
	}
}

func TestLoad_Layering(t *testing.T) {
	dir := isolate(t)
	writeFile(t, FilePath(dir), `
[source]
owner = "file-owner"
repo = "file-repo"
branch = "dev"

[render]
zoom = 3.0
`)
	writeFile(t, filepath.Join(dir, EnvFile), "GITHUB_TOKEN=from-dotenv\nCERTCAT_REPO=dotenv-repo\n")
	t.Setenv("CERTCAT_OWNER", "env-owner")

	cfg, err := Load("")
	if err != nil {
		t.Fatal(err)
	}
	t.Cleanup(func() {
		os.Unsetenv("GITHUB_TOKEN")
		os.Unsetenv("CERTCAT_REPO")
	})

	if cfg.Source.Owner != "env-owner" {
		t.Errorf("env should beat file: owner = %q", cfg.Source.Owner)
	}
	if cfg.Source.Repo != "dotenv-repo" {
		t.Errorf(".env should beat file: repo = %q", cfg.Source.Repo)
	}
	if cfg.Source.Token != "from-dotenv" {
		t.Errorf("token = %q", cfg.Source.Token)
	}
	if cfg.Source.Branch != "dev" || cfg.Render.Zoom != 3.0 {
		t.Errorf("file values lost: %+v", cfg)
	}
	if cfg.Render.TimeoutSeconds != 60 {
		t.Errorf("defaults lost for keys absent from file: %d", cfg.Render.TimeoutSeconds)
	}
}

func TestLoad_DotEnvDoesNotOverrideEnvironment(t *testing.T) {
	dir := isolate(t)
	writeFile(t, filepath.Join(dir, EnvFile), "CERTCAT_BRANCH=from-dotenv\n")
	t.Setenv("CERTCAT_BRANCH", "from-env")

	cfg, err := Load("")
	if err != nil {
		t.Fatal(err)
	}
	if cfg.Source.Branch != "from-env" {
		t.Errorf("branch = %q", cfg.Source.Branch)
	}
}

func TestLoad_ExplicitPath(t *testing.T) {
	dir := isolate(t)
	p := filepath.Join(dir, "custom.toml")
	writeFile(t, p, "[output]\ncatalog = \"out/c.json\"\n")

	cfg, err := Load(p)
	if err != nil {
		t.Fatal(err)
	}
	if cfg.Output.Catalog != "out/c.json" || cfg.Path != p {
		t.Errorf("cfg = %+v", cfg)
	}

	if _, err := Load(filepath.Join(dir, "missing.toml")); err == nil {
		t.Error("missing explicit config should be an error")
	}
}

func TestLoad_ParseError(t *testing.T) {
	dir := isolate(t)
	writeFile(t, FilePath(dir), "[source\nowner = ")
	if _, err := Load(""); err == nil || !strings.Contains(err.Error(), "parse config") {
		t.Errorf("expected parse error, got %v", err)
	}
}

func TestLoad_UnknownKeys(t *testing.T) {
	dir := isolate(t)
	writeFile(t, FilePath(dir), "[source]\nrepository = \"x\"\nfavorite_color = \"blue\"\n")

	cfg, err := Load("")
	if err != nil {
		t.Fatal(err)
	}
	if len(cfg.Warnings) != 2 {
		t.Fatalf("warnings = %q", cfg.Warnings)
	}
	joined := strings.Join(cfg.Warnings, "\n")
	if !strings.Contains(joined, `did you mean "repo"`) {
		t.Errorf("missing suggestion: %s", joined)
	}
	if !strings.Contains(joined, "favorite_color") || !strings.Contains(joined, "will be ignored") {
		t.Errorf("missing unknown-key warning: %s", joined)
	}
}

func TestValidate(t *testing.T) {
	valid := func() *Config {
		c := DefaultConfig()
		c.Source.Owner = "o"
		c.Source.Repo = "r"
		return c
	}

	tests := []struct {
		name    string
		mutate  func(*Config)
		wantErr string
	}{
		{"valid", func(*Config) {}, ""},
		{"missing owner", func(c *Config) { c.Source.Owner = "" }, "source.owner"},
		{"missing repo", func(c *Config) { c.Source.Repo = " " }, "source.repo"},
		{"local needs no repo", func(c *Config) { c.Source.Owner, c.Source.Repo, c.Source.Local = "", "", "certs" }, ""},
		{"absolute preview root", func(c *Config) { c.Output.PreviewRoot = "/var/www/img" }, "relative"},
		{"escaping preview root", func(c *Config) { c.Output.PreviewRoot = "../img" }, "inside the site root"},
		{"zero timeout", func(c *Config) { c.Network.TimeoutSeconds = 0 }, "network.timeout_seconds"},
		{"negative download timeout", func(c *Config) { c.Network.DownloadTimeoutSeconds = -1 }, "download_timeout_seconds"},
		{"zero render timeout", func(c *Config) { c.Render.TimeoutSeconds = 0 }, "render.timeout_seconds"},
		{"zero zoom", func(c *Config) { c.Render.Zoom = 0 }, "render.zoom"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			c := valid()
			tt.mutate(c)
			err := c.Validate()
			if tt.wantErr == "" {
				if err != nil {
					t.Errorf("unexpected error: %v", err)
				}
				return
			}
			if err == nil || !strings.Contains(err.Error(), tt.wantErr) {
				t.Errorf("error = %v, want mention of %q", err, tt.wantErr)
			}
		})
	}
}

func TestValidate_ReportsAllProblems(t *testing.T) {
	c := DefaultConfig()
	c.Render.Zoom = -1
	err := c.Validate()
	for _, want := range []string{"source.owner", "source.repo", "render.zoom"} {
		if err == nil || !strings.Contains(err.Error(), want) {
			t.Errorf("missing %q in %v", want, err)
		}
	}
}

func TestGenerateConfig(t *testing.T) {
	dir := isolate(t)
	p, err := GenerateConfig(dir, "ana", "certificados", false)
	if err != nil {
		t.Fatal(err)
	}

	cfg := DefaultConfig()
	meta, err := toml.DecodeFile(p, cfg)
	if err != nil {
		t.Fatalf("generated config does not parse: %v", err)
	}
	if len(meta.Undecoded()) != 0 {
		t.Errorf("generated config has unknown keys: %v", meta.Undecoded())
	}
	if cfg.Source.Owner != "ana" || cfg.Source.Repo != "certificados" {
		t.Errorf("owner/repo not written: %+v", cfg.Source)
	}
	if err := cfg.Validate(); err != nil {
		t.Errorf("generated config invalid: %v", err)
	}

	if _, err := GenerateConfig(dir, "x", "y", false); !errors.Is(err, ErrConfigExists) {
		t.Errorf("expected ErrConfigExists, got %v", err)
	}
	if _, err := GenerateConfig(dir, "x", "y", true); err != nil {
		t.Errorf("overwrite failed: %v", err)
	}
}

func TestShow_RedactsToken(t *testing.T) {
	c := DefaultConfig()
	c.Source.Owner = "ana"
	c.Source.Token = "ghp_supersecret"

	out := c.Show()
	if strings.Contains(out, "ghp_supersecret") {
		t.Error("token leaked in Show output")
	}
	if !strings.Contains(out, "<redacted>") || !strings.Contains(out, `owner = "ana"`) {
		t.Errorf("unexpected output:\n%s", out)
	}
	if c.Source.Token != "ghp_supersecret" {
		t.Error("Show modified the config")
	}
}
