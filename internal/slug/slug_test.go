package slug

import (
	"regexp"
	"strings"
	"testing"
)

func TestMake(t *testing.T) {
	tests := []struct {
		name string
		in   string
		want string
	}{
		{"plain", "Python Fundamentals", "python-fundamentals"},
		{"pdf suffix", "Certificado Final.PDF", "certificado-final"},
		{"accents", "Formação em Ciência de Dados", "formacao-em-ciencia-de-dados"},
		{"punctuation", "Power BI: Dashboards (2023)!", "power-bi-dashboards-2023"},
		{"hyphen runs", "a -- b --- c", "a-b-c"},
		{"underscore kept", "data_science 101", "data_science-101"},
		{"leading and trailing junk", "  --Excel--  ", "excel"},
		{"unknown accent dropped", "Año señal", "ao-seal"},
		{"empty", "", ""},
		{"fully stripped", "!!! ??? ", ""},
		{"only extension", ".pdf", ""},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := Make(tt.in); got != tt.want {
				t.Errorf("Make(%q) = %q, want %q", tt.in, got, tt.want)
			}
		})
	}
}

func TestMake_Truncates(t *testing.T) {
	in := strings.Repeat("abcdefghi ", 10)
	got := Make(in)
	if len(got) > MaxLength {
		t.Fatalf("len = %d, want <= %d", len(got), MaxLength)
	}
	if strings.HasSuffix(got, "-") {
		t.Errorf("truncated slug ends with hyphen: %q", got)
	}
	// 50th byte falls on a hyphen: "abcdefghi-" repeated five times.
	if got != "abcdefghi-abcdefghi-abcdefghi-abcdefghi-abcdefghi" {
		t.Errorf("unexpected truncation: %q", got)
	}
}

func TestMake_PostgradTitle(t *testing.T) {
	valid := regexp.MustCompile(`^[a-z0-9-]+$`)
	in := "Pós-Graduação – Gestão!!.pdf"

	got := Make(in)
	if got == "" {
		t.Fatal("expected non-empty slug")
	}
	if !valid.MatchString(got) {
		t.Errorf("slug %q has characters outside [a-z0-9-]", got)
	}
	if strings.HasPrefix(got, "-") || strings.HasSuffix(got, "-") {
		t.Errorf("slug %q has leading or trailing hyphen", got)
	}
	if len(got) > MaxLength {
		t.Errorf("slug %q longer than %d", got, MaxLength)
	}
	if got != "pos-graduacao-gestao" {
		t.Errorf("Make(%q) = %q", in, got)
	}
	if again := Make(in); again != got {
		t.Errorf("not deterministic: %q then %q", got, again)
	}
}
