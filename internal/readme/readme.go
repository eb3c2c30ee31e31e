// Package readme parses certificate folder READMEs: an optional front-matter
// block followed by a markdown body with well-known sections.
package readme

import (
	"fmt"
	"strings"

	"github.com/adrg/frontmatter"
	"gopkg.in/yaml.v3"
)

// Delimiter opens and closes the front-matter block.
const Delimiter = "---"

// Parsed holds the result of parsing a README.
type Parsed struct {
	Meta Metadata
	Body string
	// Warning is set when a front-matter block was present but could not be
	// decoded. Meta is empty in that case and Body is still usable.
	Warning error
}

// MalformedMetadataError reports a front-matter block that failed to decode.
type MalformedMetadataError struct {
	Err error
}

func (e *MalformedMetadataError) Error() string {
	return fmt.Sprintf("malformed front matter: %v", e.Err)
}

func (e *MalformedMetadataError) Unwrap() error {
	return e.Err
}

// Parse splits text into metadata and body. It never fails: text without a
// leading delimiter, or with an unclosed block, is returned as the body with
// empty metadata.
func Parse(text string) Parsed {
	if !strings.HasPrefix(text, Delimiter) {
		return Parsed{Meta: Metadata{}, Body: text}
	}
	parts := strings.SplitN(text, Delimiter, 3)
	if len(parts) < 3 {
		return Parsed{Meta: Metadata{}, Body: text}
	}
	body := strings.TrimLeft(parts[2], "\n")

	raw := map[string]any{}
	rest, err := frontmatter.Parse(strings.NewReader(text), &raw)
	if err != nil {
		return Parsed{Meta: Metadata{}, Body: body, Warning: &MalformedMetadataError{Err: err}}
	}
	if len(rest) < len(text) {
		return Parsed{Meta: newMetadata(raw), Body: strings.TrimLeft(string(rest), "\n")}
	}

	// Delimiters not on their own lines: decode the split block directly.
	raw = map[string]any{}
	if err := yaml.Unmarshal([]byte(parts[1]), &raw); err != nil {
		return Parsed{Meta: Metadata{}, Body: body, Warning: &MalformedMetadataError{Err: err}}
	}
	return Parsed{Meta: newMetadata(raw), Body: body}
}
