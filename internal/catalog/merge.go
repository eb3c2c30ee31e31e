package catalog

import (
	"reflect"
	"slices"
	"strings"
	"time"
)

// MergeOutcome classifies what Merge did with one id.
type MergeOutcome int

const (
	CarriedOver MergeOutcome = iota
	Inserted
	Updated
	Unchanged
)

func (o MergeOutcome) String() string {
	switch o {
	case CarriedOver:
		return "carried-over"
	case Inserted:
		return "inserted"
	case Updated:
		return "updated"
	case Unchanged:
		return "unchanged"
	}
	return "unknown"
}

// MergeReport counts ids per outcome.
type MergeReport map[MergeOutcome]int

// Merge folds fresh records into the existing catalog. Ids present only in
// existing are kept untouched and ids present only in fresh are inserted.
// For shared ids every non-empty fresh value replaces the stored one and
// documents are merged by name; the result is stamped with now unless it
// equals the stored record. The returned slice keeps existing order followed
// by new ids in fresh order.
func Merge(existing, fresh []Record, now time.Time) []Record {
	out, _ := MergeWithReport(existing, fresh, now)
	return out
}

// MergeWithReport is Merge plus a count of what happened to each id.
func MergeWithReport(existing, fresh []Record, now time.Time) ([]Record, MergeReport) {
	report := MergeReport{}
	out := make([]Record, 0, len(existing)+len(fresh))
	index := make(map[string]int, len(existing)+len(fresh))
	for _, r := range existing {
		if _, dup := index[r.ID]; dup {
			continue
		}
		index[r.ID] = len(out)
		out = append(out, r)
	}
	touched := make(map[string]MergeOutcome, len(fresh))

	stamp := now.UTC().Format(time.RFC3339)
	for _, f := range fresh {
		i, ok := index[f.ID]
		if !ok {
			index[f.ID] = len(out)
			f.DocumentCount = len(f.Documents)
			f.highlightSet = false
			out = append(out, f)
			touched[f.ID] = Inserted
			continue
		}
		merged := mergeRecord(out[i], f)
		if sameContent(merged, out[i]) {
			if _, seen := touched[f.ID]; !seen {
				touched[f.ID] = Unchanged
			}
			continue
		}
		merged.LastUpdated = stamp
		out[i] = merged
		if touched[f.ID] != Inserted {
			touched[f.ID] = Updated
		}
	}

	for _, r := range out {
		if o, ok := touched[r.ID]; ok {
			report[o]++
		} else {
			report[CarriedOver]++
		}
	}
	return out, report
}

func mergeRecord(old, fresh Record) Record {
	m := old
	m.highlightSet = false
	pick := func(dst *string, v string) {
		if v != "" {
			*dst = v
		}
	}
	pick(&m.Title, fresh.Title)
	pick(&m.Kind, fresh.Kind)
	pick(&m.Institution, fresh.Institution)
	pick(&m.Category, fresh.Category)
	pick(&m.Duration, fresh.Duration)
	pick(&m.Thumbnail, fresh.Thumbnail)
	pick(&m.ShortDescription, fresh.ShortDescription)
	pick(&m.FullDescription, fresh.FullDescription)
	pick(&m.SourceFolderLink, fresh.SourceFolderLink)
	pick(&m.Status, fresh.Status)
	pick(&m.Year, fresh.Year)
	if len(fresh.Skills) > 0 {
		m.Skills = slices.Clone(fresh.Skills)
	}
	if fresh.highlightSet {
		m.Highlighted = fresh.Highlighted
	}
	m.Documents = mergeDocuments(old.Documents, fresh.Documents)
	m.DocumentCount = len(m.Documents)
	return m
}

// mergeDocuments unions two document lists by name, fresh entries replacing
// same-named ones, and re-marks the primary document.
func mergeDocuments(old, fresh []DocumentRef) []DocumentRef {
	byName := make(map[string]DocumentRef, len(old)+len(fresh))
	for _, d := range old {
		byName[d.Name] = d
	}
	for _, d := range fresh {
		byName[d.Name] = d
	}
	docs := make([]DocumentRef, 0, len(byName))
	for _, d := range byName {
		docs = append(docs, d)
	}
	slices.SortFunc(docs, func(a, b DocumentRef) int {
		if c := strings.Compare(strings.ToLower(a.Name), strings.ToLower(b.Name)); c != 0 {
			return c
		}
		return strings.Compare(a.Name, b.Name)
	})
	primary := false
	for i := range docs {
		docs[i].IsPrimary = !primary && IsPrimaryName(docs[i].Name)
		if docs[i].IsPrimary {
			primary = true
		}
	}
	return docs
}

// sameContent compares two records ignoring the update stamp and the
// nil/empty distinction of slices.
func sameContent(a, b Record) bool {
	norm := func(r Record) Record {
		r.LastUpdated = ""
		r.highlightSet = false
		if len(r.Skills) == 0 {
			r.Skills = nil
		}
		if len(r.Documents) == 0 {
			r.Documents = nil
		}
		return r
	}
	return reflect.DeepEqual(norm(a), norm(b))
}
