package catalog

import (
	"cmp"
	"slices"
)

// Summary is an aggregate view of a catalog.
type Summary struct {
	Records      int            `json:"records"`
	Highlighted  int            `json:"highlighted"`
	Documents    int            `json:"documents"`
	WithoutYear  int            `json:"without_year"`
	Categories   []GroupCount   `json:"categories"`
	Years        []GroupCount   `json:"years"`
	Institutions map[string]int `json:"institutions"`
}

// GroupCount is the number of records sharing one value.
type GroupCount struct {
	Name  string `json:"name"`
	Count int    `json:"count"`
}

// Summarize counts records by category, year and institution.
func Summarize(records []Record) Summary {
	s := Summary{Records: len(records), Institutions: map[string]int{}}
	categories := map[string]int{}
	years := map[string]int{}
	for _, r := range records {
		if r.Highlighted {
			s.Highlighted++
		}
		s.Documents += len(r.Documents)
		categories[r.Category]++
		if r.Year == "" {
			s.WithoutYear++
		} else {
			years[r.Year]++
		}
		if r.Institution != "" {
			s.Institutions[r.Institution]++
		}
	}
	s.Categories = groups(categories, func(a, b GroupCount) int {
		if c := cmp.Compare(b.Count, a.Count); c != 0 {
			return c
		}
		return cmp.Compare(a.Name, b.Name)
	})
	s.Years = groups(years, func(a, b GroupCount) int { return cmp.Compare(b.Name, a.Name) })
	return s
}

func groups(m map[string]int, order func(a, b GroupCount) int) []GroupCount {
	out := make([]GroupCount, 0, len(m))
	for name, n := range m {
		out = append(out, GroupCount{Name: name, Count: n})
	}
	slices.SortFunc(out, order)
	return out
}
