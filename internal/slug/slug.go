// Package slug derives stable, filesystem- and URL-safe identifiers from
// folder and document names.
package slug

import (
	"regexp"
	"strings"
)

// MaxLength caps identifiers so preview paths stay well below OS path limits.
const MaxLength = 50

// accents is the fixed transliteration table. Identifiers already published
// depend on it, so entries must not be added or changed.
var accents = strings.NewReplacer(
	"ã", "a", "á", "a", "â", "a", "à", "a",
	"é", "e", "ê", "e", "è", "e",
	"í", "i", "î", "i", "ì", "i",
	"ó", "o", "ô", "o", "õ", "o", "ò", "o",
	"ú", "u", "û", "u", "ù", "u",
	"ç", "c",
)

var (
	pdfSuffix     = regexp.MustCompile(`(?i)\.pdf$`)
	disallowed    = regexp.MustCompile(`[^a-z0-9_\s-]`)
	whitespaceRun = regexp.MustCompile(`\s+`)
	hyphenRun     = regexp.MustCompile(`-+`)
)

// Make returns the slug for text. The result only contains [a-z0-9_-], never
// starts or ends with a hyphen and is at most MaxLength bytes. It may be
// empty; callers must reject an empty slug rather than index on it.
func Make(text string) string {
	s := strings.TrimSpace(strings.ToLower(text))
	s = pdfSuffix.ReplaceAllString(s, "")
	s = accents.Replace(s)
	s = disallowed.ReplaceAllString(s, "")
	s = whitespaceRun.ReplaceAllString(strings.TrimSpace(s), "-")
	s = hyphenRun.ReplaceAllString(s, "-")
	if len(s) > MaxLength {
		s = s[:MaxLength]
	}
	return strings.Trim(s, "-")
}
