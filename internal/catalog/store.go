package catalog

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"slices"
	"strings"

	"github.com/natefinch/atomic"
)

// Load reads a persisted catalog. A missing file is an empty catalog.
// Entries without an id and repeated ids are dropped and counted; a file
// that is not a JSON array of records is an error.
func Load(path string) (records []Record, dropped int, err error) {
	data, err := os.ReadFile(path)
	if errors.Is(err, os.ErrNotExist) {
		return []Record{}, 0, nil
	}
	if err != nil {
		return nil, 0, fmt.Errorf("read catalog: %w", err)
	}
	if len(bytes.TrimSpace(data)) == 0 {
		return []Record{}, 0, nil
	}

	var raw []Record
	if err := json.Unmarshal(data, &raw); err != nil {
		return nil, 0, fmt.Errorf("parse catalog %s: %w", path, err)
	}
	seen := make(map[string]bool, len(raw))
	records = make([]Record, 0, len(raw))
	for _, r := range raw {
		if r.ID == "" || seen[r.ID] {
			dropped++
			continue
		}
		seen[r.ID] = true
		records = append(records, r)
	}
	return records, dropped, nil
}

// Sort orders records highlighted first, then by case-insensitive title,
// then by id.
func Sort(records []Record) {
	slices.SortStableFunc(records, func(a, b Record) int {
		if a.Highlighted != b.Highlighted {
			if a.Highlighted {
				return -1
			}
			return 1
		}
		if c := strings.Compare(strings.ToLower(a.Title), strings.ToLower(b.Title)); c != 0 {
			return c
		}
		return strings.Compare(a.ID, b.ID)
	})
}

// Encode returns the sorted catalog as indented JSON. Non-ASCII text and
// HTML characters are written verbatim.
func Encode(records []Record) ([]byte, error) {
	sorted := slices.Clone(records)
	Sort(sorted)
	for i := range sorted {
		sorted[i].DocumentCount = len(sorted[i].Documents)
		if sorted[i].Skills == nil {
			sorted[i].Skills = []string{}
		}
		if sorted[i].Documents == nil {
			sorted[i].Documents = []DocumentRef{}
		}
	}
	if sorted == nil {
		sorted = []Record{}
	}

	var buf bytes.Buffer
	enc := json.NewEncoder(&buf)
	enc.SetEscapeHTML(false)
	enc.SetIndent("", "  ")
	if err := enc.Encode(sorted); err != nil {
		return nil, fmt.Errorf("encode catalog: %w", err)
	}
	return buf.Bytes(), nil
}

// Write persists the catalog atomically: readers see either the previous
// file or the complete new one.
func Write(path string, records []Record) error {
	data, err := Encode(records)
	if err != nil {
		return err
	}
	if dir := filepath.Dir(path); dir != "." {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return fmt.Errorf("create catalog directory: %w", err)
		}
	}
	if err := atomic.WriteFile(path, bytes.NewReader(data)); err != nil {
		return fmt.Errorf("write catalog: %w", err)
	}
	return nil
}
