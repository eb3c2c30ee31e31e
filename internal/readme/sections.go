package readme

import (
	"regexp"
	"strings"
)

// Headings that introduce the description sections, in lookup order.
var (
	ShortDescriptionHeadings = []string{"📌 Descrição curta", "Short description"}
	FullDescriptionHeadings  = []string{"📖 Descrição completa", "Full description"}
)

// ExtractSection returns the trimmed text under the level-two heading that
// matches heading exactly, up to the next level-two heading or the end of
// body. It returns "" when the heading is absent.
func ExtractSection(body, heading string) string {
	re, err := regexp.Compile(`(?ms)^##[ \t]+` + regexp.QuoteMeta(heading) + `[ \t]*\r?\n(.*?)(?:^##\s|\z)`)
	if err != nil {
		return ""
	}
	m := re.FindStringSubmatch(body)
	if m == nil {
		return ""
	}
	return strings.TrimSpace(m[1])
}

// FirstSection returns the first non-empty section among headings.
func FirstSection(body string, headings []string) string {
	for _, h := range headings {
		if s := ExtractSection(body, h); s != "" {
			return s
		}
	}
	return ""
}
