package main

import (
	"bytes"
	"context"
	"encoding/json"
	"image"
	"image/color"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/disintegration/imaging"

	"github.com/sgx-labs/certcat/internal/builder"
	"github.com/sgx-labs/certcat/internal/catalog"
	"github.com/sgx-labs/certcat/internal/config"
	"github.com/sgx-labs/certcat/internal/source"
)

// pngRenderer writes a small real PNG so thumbnails can be derived from it.
type pngRenderer struct{ calls int }

func (r *pngRenderer) RenderFirstPage(ctx context.Context, pdf []byte, target string, zoom float64) error {
	r.calls++
	img := image.NewNRGBA(image.Rect(0, 0, 900, 1200))
	for y := 0; y < 1200; y += 4 {
		for x := 0; x < 900; x += 4 {
			img.Set(x, y, color.NRGBA{R: 30, G: 60, B: 90, A: 255})
		}
	}
	f, err := os.Create(target)
	if err != nil {
		return err
	}
	defer f.Close()
	return imaging.Encode(f, img, imaging.PNG)
}

func resetFlags(t *testing.T) {
	t.Helper()
	old := flags
	flags = globalFlags{}
	t.Cleanup(func() { flags = old })
}

// testSite lays out a local certificate checkout and an empty site.
func testSite(t *testing.T) *config.Config {
	t.Helper()
	certs := t.TempDir()
	files := map[string]string{
		"sql-basico/README.md":        "---\ntitulo: SQL Básico\nano: 2022\n---\n## 📌 Descrição curta\nConsultas.\n",
		"sql-basico/Formacao SQL.pdf": "not really a pdf",
		"power-bi/dashboard.pdf":      "not really a pdf",
		"rascunhos/notas.md":          "draft",
	}
	for name, content := range files {
		p := filepath.Join(certs, filepath.FromSlash(name))
		if err := os.MkdirAll(filepath.Dir(p), 0o755); err != nil {
			t.Fatal(err)
		}
		if err := os.WriteFile(p, []byte(content), 0o644); err != nil {
			t.Fatal(err)
		}
	}

	cfg := config.DefaultConfig()
	cfg.Source.Local = certs
	cfg.Output.SiteRoot = t.TempDir()
	return cfg
}

func TestRunBuild_LocalSource(t *testing.T) {
	resetFlags(t)
	cfg := testSite(t)
	renderer := &pngRenderer{}
	var out bytes.Buffer

	if err := runBuild(context.Background(), cfg, newProvider(cfg), renderer, buildOptions{jsonOnly: true}, &out); err != nil {
		t.Fatalf("runBuild: %v", err)
	}

	var stats builder.Stats
	if err := json.Unmarshal(out.Bytes(), &stats); err != nil {
		t.Fatalf("output is not stats JSON: %v\n%s", err, out.String())
	}
	if stats.New != 2 || stats.NoDocuments != 1 || stats.PreviewsCreated != 2 {
		t.Errorf("stats = %+v", stats)
	}
	if renderer.calls != 2 {
		t.Errorf("renderer calls = %d", renderer.calls)
	}

	records, _, err := catalog.Load(cfg.CatalogPath())
	if err != nil {
		t.Fatal(err)
	}
	if len(records) != 2 || records[0].ID != "power-bi" || records[1].Title != "SQL Básico" {
		t.Errorf("records = %+v", records)
	}
	if records[0].Category != "Business Intelligence" {
		t.Errorf("category = %q", records[0].Category)
	}

	out.Reset()
	if err := runBuild(context.Background(), cfg, newProvider(cfg), renderer, buildOptions{}, &out); err != nil {
		t.Fatal(err)
	}
	if renderer.calls != 2 {
		t.Errorf("second build rendered again: %d", renderer.calls)
	}
	if !strings.Contains(out.String(), "Already processed") {
		t.Errorf("summary missing skip count:\n%s", out.String())
	}
}

func TestRunStats(t *testing.T) {
	resetFlags(t)
	cfg := testSite(t)
	records := []catalog.Record{
		{ID: "a", Title: "A", Category: "Programming", Year: "2023", Highlighted: true, Documents: []catalog.DocumentRef{{Name: "a.pdf"}}},
		{ID: "b", Title: "B", Category: "Programming"},
	}
	if err := catalog.Write(cfg.CatalogPath(), records); err != nil {
		t.Fatal(err)
	}

	var out bytes.Buffer
	if err := runStats(cfg, true, &out); err != nil {
		t.Fatal(err)
	}
	var got catalogStats
	if err := json.Unmarshal(out.Bytes(), &got); err != nil {
		t.Fatal(err)
	}
	if got.Records != 2 || got.Highlighted != 1 || got.WithoutYear != 1 {
		t.Errorf("summary = %+v", got.Summary)
	}
	if len(got.MissingPreviews) != 1 || got.MissingPreviews[0] != "a/a.pdf" {
		t.Errorf("missing previews = %v", got.MissingPreviews)
	}

	out.Reset()
	if err := runStats(cfg, false, &out); err != nil {
		t.Fatal(err)
	}
	if !strings.Contains(out.String(), "Programming") {
		t.Errorf("text output missing category:\n%s", out.String())
	}
}

func TestRunStats_CorruptCatalog(t *testing.T) {
	resetFlags(t)
	cfg := testSite(t)
	os.MkdirAll(filepath.Dir(cfg.CatalogPath()), 0o755)
	os.WriteFile(cfg.CatalogPath(), []byte("{"), 0o644)
	err := runStats(cfg, false, &bytes.Buffer{})
	if err == nil || !strings.Contains(err.Error(), "Hint:") {
		t.Errorf("expected user error, got %v", err)
	}
}

func TestRunThumbs(t *testing.T) {
	resetFlags(t)
	cfg := testSite(t)
	if err := runBuild(context.Background(), cfg, newProvider(cfg), &pngRenderer{}, buildOptions{jsonOnly: true}, &bytes.Buffer{}); err != nil {
		t.Fatal(err)
	}

	var out bytes.Buffer
	if err := runThumbs(cfg, &out); err != nil {
		t.Fatalf("runThumbs: %v", err)
	}
	thumb := filepath.Join(cfg.Output.SiteRoot, "assets", "img", "certificados", "sql-basico", "formacao-sql-thumb.jpg")
	img, err := imaging.Open(thumb)
	if err != nil {
		t.Fatalf("thumbnail missing: %v", err)
	}
	if b := img.Bounds(); b.Dx() != 800 || b.Dy() != 600 {
		t.Errorf("thumbnail is %dx%d", b.Dx(), b.Dy())
	}

	out.Reset()
	if err := runThumbs(cfg, &out); err != nil {
		t.Fatal(err)
	}
	if !strings.Contains(out.String(), "Already present") {
		t.Errorf("second run should report existing thumbnails:\n%s", out.String())
	}
}

func TestNewProvider(t *testing.T) {
	cfg := config.DefaultConfig()
	cfg.Source.Owner, cfg.Source.Repo = "o", "r"
	if _, ok := newProvider(cfg).(*source.GitHub); !ok {
		t.Error("expected GitHub provider")
	}
	cfg.Source.Local = t.TempDir()
	if _, ok := newProvider(cfg).(source.Local); !ok {
		t.Error("expected local provider")
	}
}

func TestVersionCmd(t *testing.T) {
	resetFlags(t)
	root := newRootCmd()
	var out bytes.Buffer
	root.SetOut(&out)
	root.SetArgs([]string{"version"})
	if err := root.Execute(); err != nil {
		t.Fatal(err)
	}
	if got := out.String(); got != "certcat dev\n" {
		t.Errorf("version output = %q", got)
	}
}

func TestConfigInitAndShow(t *testing.T) {
	resetFlags(t)
	t.Setenv("GITHUB_TOKEN", "ghp_test_token")
	t.Chdir(t.TempDir())

	run := func(args ...string) (string, error) {
		root := newRootCmd()
		var out bytes.Buffer
		root.SetOut(&out)
		root.SetArgs(args)
		err := root.Execute()
		return out.String(), err
	}

	if _, err := run("config", "init", "--owner", "ana", "--repo", "certificados"); err != nil {
		t.Fatalf("config init: %v", err)
	}
	if _, err := run("config", "init"); err == nil || !strings.Contains(err.Error(), "--force") {
		t.Errorf("second init should refuse without --force, got %v", err)
	}

	out, err := run("config", "show")
	if err != nil {
		t.Fatal(err)
	}
	if strings.Contains(out, "ghp_test_token") {
		t.Error("token printed by config show")
	}
	if !strings.Contains(out, `owner = "ana"`) {
		t.Errorf("config show output:\n%s", out)
	}
}

func TestBuildCmd_InvalidConfig(t *testing.T) {
	resetFlags(t)
	for _, k := range []string{"CERTCAT_OWNER", "CERTCAT_REPO", "CERTCAT_LOCAL_DIR"} {
		t.Setenv(k, "")
	}
	t.Chdir(t.TempDir())

	root := newRootCmd()
	root.SetOut(&bytes.Buffer{})
	root.SetArgs([]string{"build"})
	err := root.Execute()
	if err == nil || !strings.Contains(err.Error(), "source.owner") {
		t.Errorf("expected validation error, got %v", err)
	}
}
