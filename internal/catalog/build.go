package catalog

import (
	"slices"
	"strings"

	"github.com/sgx-labs/certcat/internal/infer"
	"github.com/sgx-labs/certcat/internal/preview"
	"github.com/sgx-labs/certcat/internal/readme"
	"github.com/sgx-labs/certcat/internal/slug"
)

// primaryMarkers identify the main certificate among a folder's documents.
var primaryMarkers = []string{"formação", "formacao", "formation"}

// FolderInput is everything BuildRecord needs to know about one folder.
type FolderInput struct {
	FolderName  string
	FolderLink  string
	PreviewRoot string
	Meta        readme.Metadata
	Body        string
	Documents   []DocumentInput

	// Text is the extracted text of the document chosen by TextSource.
	// Empty when extraction failed or was skipped.
	Text string
}

// DocumentInput is a PDF as listed by the content provider.
type DocumentInput struct {
	Name       string
	SourceLink string
}

// DeriveID returns the record id for a folder: the README override when
// present, otherwise the folder name slug.
func DeriveID(folderName string, meta readme.Metadata) string {
	if id := slug.Make(meta.String(readme.KeyID)); id != "" {
		return id
	}
	return slug.Make(folderName)
}

// SortDocuments orders documents by lowercase name, then by name.
func SortDocuments(docs []DocumentInput) []DocumentInput {
	out := slices.Clone(docs)
	slices.SortStableFunc(out, func(a, b DocumentInput) int {
		if c := strings.Compare(strings.ToLower(a.Name), strings.ToLower(b.Name)); c != 0 {
			return c
		}
		return strings.Compare(a.Name, b.Name)
	})
	return out
}

// IsPrimaryName reports whether a document name carries a primary marker.
func IsPrimaryName(name string) bool {
	lower := strings.ToLower(name)
	for _, m := range primaryMarkers {
		if strings.Contains(lower, m) {
			return true
		}
	}
	return false
}

// TextSource picks the document whose text feeds inference: the primary
// document, else the first in sort order. ok is false for no documents.
func TextSource(docs []DocumentInput) (DocumentInput, bool) {
	sorted := SortDocuments(docs)
	if len(sorted) == 0 {
		return DocumentInput{}, false
	}
	for _, d := range sorted {
		if IsPrimaryName(d.Name) {
			return d, true
		}
	}
	return sorted[0], true
}

// BuildRecord assembles the record for one folder. Front matter wins over
// values inferred from document text, which win over defaults.
func BuildRecord(in FolderInput) (Record, error) {
	meta := in.Meta
	if meta == nil {
		meta = readme.Metadata{}
	}
	id := DeriveID(in.FolderName, meta)
	if id == "" {
		return Record{}, ErrEmptyID
	}
	if len(in.Documents) == 0 {
		return Record{}, ErrNoDocuments
	}

	sorted := SortDocuments(in.Documents)
	docs := make([]DocumentRef, len(sorted))
	primary := -1
	for i, d := range sorted {
		docs[i] = DocumentRef{
			Name:        d.Name,
			SourceLink:  d.SourceLink,
			PreviewPath: preview.RelPath(in.PreviewRoot, id, d.Name),
		}
		if primary < 0 && IsPrimaryName(d.Name) {
			primary = i
			docs[i].IsPrimary = true
		}
	}

	facts := infer.FromText(in.Text)
	title := infer.First(meta.String(readme.KeyTitle), infer.Title(in.FolderName))
	institution := infer.First(meta.String(readme.KeyInstitution), facts.Institution)

	short := infer.First(
		readme.FirstSection(in.Body, readme.ShortDescriptionHeadings),
		infer.Description(title, institution),
	)
	full := infer.First(readme.FirstSection(in.Body, readme.FullDescriptionHeadings), short)

	thumb := meta.String(readme.KeyThumbnail)
	if thumb == "" {
		thumb = thumbnailFor(docs, primary, in.PreviewRoot, id)
	}

	highlighted, highlightSet := meta.Bool(readme.KeyHighlighted)

	skills := meta.Strings(readme.KeySkills)
	if skills == nil {
		skills = []string{}
	}

	return Record{
		ID:               id,
		Title:            title,
		Kind:             infer.First(meta.String(readme.KeyKind), DefaultKind),
		Institution:      institution,
		Category:         infer.First(meta.String(readme.KeyCategory), infer.Category(in.FolderName)),
		Duration:         infer.First(meta.String(readme.KeyDuration), facts.Duration),
		Highlighted:      highlighted,
		Thumbnail:        thumb,
		Skills:           skills,
		ShortDescription: short,
		FullDescription:  full,
		Documents:        docs,
		DocumentCount:    len(docs),
		SourceFolderLink: in.FolderLink,
		Status:           DefaultStatus,
		Year:             infer.First(meta.String(readme.KeyYear), facts.Year),
		highlightSet:     highlightSet,
	}, nil
}

// thumbnailFor picks the primary preview, then the first document's preview,
// then the conventional placeholder.
func thumbnailFor(docs []DocumentRef, primary int, root, id string) string {
	if primary >= 0 {
		return docs[primary].PreviewPath
	}
	if len(docs) > 0 {
		return docs[0].PreviewPath
	}
	return preview.PlaceholderPath(root, id)
}
