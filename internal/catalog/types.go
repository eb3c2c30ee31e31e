// Package catalog builds, merges and persists certificate records.
package catalog

// Defaults applied when a README leaves the field empty.
const (
	DefaultKind   = "Formation"
	DefaultStatus = "Completed"
)

// Record is one catalog entry, derived from a single source folder.
type Record struct {
	ID               string        `json:"id"`
	Title            string        `json:"title"`
	Kind             string        `json:"kind"`
	Institution      string        `json:"institution"`
	Category         string        `json:"category"`
	Duration         string        `json:"duration"`
	Highlighted      bool          `json:"highlighted"`
	Thumbnail        string        `json:"thumbnail"`
	Skills           []string      `json:"skills"`
	ShortDescription string        `json:"shortDescription"`
	FullDescription  string        `json:"fullDescription"`
	Documents        []DocumentRef `json:"documents"`
	DocumentCount    int           `json:"documentCount"`
	SourceFolderLink string        `json:"sourceFolderLink"`
	Status           string        `json:"status"`
	Year             string        `json:"year"`
	LastUpdated      string        `json:"lastUpdated,omitempty"`

	// highlightSet records whether Highlighted came from the README rather
	// than the default. Only meaningful on freshly built records.
	highlightSet bool
}

// DocumentRef points at one PDF of a folder and its rendered preview.
type DocumentRef struct {
	Name        string `json:"name"`
	SourceLink  string `json:"sourceLink"`
	PreviewPath string `json:"previewPath"`
	IsPrimary   bool   `json:"isPrimary"`
}

// HighlightExplicit reports whether the highlighted flag was set by the
// README that produced this record.
func (r Record) HighlightExplicit() bool {
	return r.highlightSet
}

// PrimaryDocument returns the primary document, or the first one when no
// document is marked primary. ok is false for an empty list.
func (r Record) PrimaryDocument() (doc DocumentRef, ok bool) {
	if len(r.Documents) == 0 {
		return DocumentRef{}, false
	}
	for _, d := range r.Documents {
		if d.IsPrimary {
			return d, true
		}
	}
	return r.Documents[0], true
}
