// Package infer holds the heuristic fallbacks used when a README does not
// provide a field: category from the folder name, and year, duration and
// institution from document text.
package infer

import (
	"regexp"
	"slices"
	"strings"

	"golang.org/x/text/cases"
	"golang.org/x/text/language"
)

// CategoryOther is returned when no rule matches.
const CategoryOther = "Other"

// Rule maps a set of lowercase keywords to a label. Keywords of one or two
// characters ("r", "ai") must match a whole word; longer keywords match as
// substrings of the name with separators turned into spaces.
type Rule struct {
	Label    string
	Keywords []string
}

// Matches reports whether any keyword occurs in name.
func (r Rule) Matches(name string) bool {
	normalized := normalizeName(name)
	words := strings.Fields(normalized)
	for _, kw := range r.Keywords {
		if len(kw) <= 2 {
			if slices.Contains(words, kw) {
				return true
			}
			continue
		}
		if strings.Contains(normalized, kw) {
			return true
		}
	}
	return false
}

func normalizeName(name string) string {
	s := strings.ToLower(name)
	s = strings.NewReplacer("-", " ", "_", " ", ".", " ").Replace(s)
	return strings.Join(strings.Fields(s), " ")
}

// CategoryRules is evaluated in order and the first match wins. Names often
// match several groups ("python-for-machine-learning"), so the order is part
// of the contract.
var CategoryRules = []Rule{
	{"Programming", []string{"python", "sql", "java", "programming", "programação", "programacao", "r"}},
	{"Business Intelligence", []string{"power bi", "powerbi", "tableau", "visualizacao", "visualização", "bi"}},
	{"Machine Learning", []string{"machine learning", "deep learning", "ml", "ai", "ia"}},
	{"Data Science", []string{"data science", "ciência de dados", "ciencia de dados", "analytics"}},
	{"Productivity", []string{"excel", "office"}},
	{"Cloud Computing", []string{"aws", "azure", "cloud", "gcp"}},
}

// Category classifies a folder name.
func Category(folderName string) string {
	for _, r := range CategoryRules {
		if r.Matches(folderName) {
			return r.Label
		}
	}
	return CategoryOther
}

// Institutions are searched in order as case-insensitive substrings.
var Institutions = []string{
	"Data Science Academy",
	"Coursera",
	"Udemy",
	"USP",
	"ESALQ",
	"Alura",
	"Microsoft",
	"Google",
	"AWS",
	"IBM",
}

var (
	yearPattern     = regexp.MustCompile(`\b(20\d{2})\b`)
	durationPattern = regexp.MustCompile(`(?i)(\d+)\s*(?:horas?|h\b)`)
)

// Year returns the first four-digit year between 2000 and 2099 in text.
func Year(text string) string {
	if m := yearPattern.FindStringSubmatch(text); m != nil {
		return m[1]
	}
	return ""
}

// Duration returns the first workload mention ("40 horas", "120h") as
// "<n> hours".
func Duration(text string) string {
	if m := durationPattern.FindStringSubmatch(text); m != nil {
		return m[1] + " hours"
	}
	return ""
}

// Institution returns the first known institution mentioned in text.
func Institution(text string) string {
	lower := strings.ToLower(text)
	for _, inst := range Institutions {
		if strings.Contains(lower, strings.ToLower(inst)) {
			return inst
		}
	}
	return ""
}

// Facts are the values recovered from a document's text.
type Facts struct {
	Year        string
	Duration    string
	Institution string
}

// FromText extracts all facts from document text.
func FromText(text string) Facts {
	if text == "" {
		return Facts{}
	}
	return Facts{
		Year:        Year(text),
		Duration:    Duration(text),
		Institution: Institution(text),
	}
}

// Title turns a folder name into a display title: separators become spaces
// and each word is capitalized.
func Title(folderName string) string {
	s := strings.NewReplacer("-", " ", "_", " ").Replace(folderName)
	return cases.Title(language.Und).String(strings.Join(strings.Fields(s), " "))
}

// Description synthesizes a short description when the README has none.
func Description(title, institution string) string {
	d := "Certification in " + title
	if institution != "" {
		d += " from " + institution
	}
	return d
}

// First returns the first non-empty value.
func First(values ...string) string {
	for _, v := range values {
		if v != "" {
			return v
		}
	}
	return ""
}
