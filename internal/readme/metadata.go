package readme

import (
	"fmt"
	"strconv"
	"strings"
	"time"
)

// Recognized front-matter keys. Portuguese keys come first because existing
// READMEs use them; the English spelling is accepted as an alias.
var (
	KeyID          = []string{"id"}
	KeyTitle       = []string{"titulo", "title"}
	KeyKind        = []string{"tipo", "kind"}
	KeyInstitution = []string{"instituicao", "institution"}
	KeyCategory    = []string{"categoria", "category"}
	KeyDuration    = []string{"duracao", "duration"}
	KeyHighlighted = []string{"destaque", "highlighted"}
	KeyThumbnail   = []string{"thumbnail"}
	KeySkills      = []string{"competencias", "skills"}
	KeyYear        = []string{"ano", "year"}
)

// Metadata is the decoded front-matter block with lowercased keys.
type Metadata map[string]any

func newMetadata(raw map[string]any) Metadata {
	m := make(Metadata, len(raw))
	for k, v := range raw {
		m[strings.ToLower(strings.TrimSpace(k))] = v
	}
	return m
}

func (m Metadata) lookup(keys []string) (any, bool) {
	for _, k := range keys {
		if v, ok := m[k]; ok && v != nil {
			return v, true
		}
	}
	return nil, false
}

// String returns the first non-empty scalar among keys, rendered as text.
func (m Metadata) String(keys []string) string {
	for _, k := range keys {
		if s := scalarString(m[k]); s != "" {
			return s
		}
	}
	return ""
}

// Bool returns the value of the first present key and whether any key was
// present with a recognizable boolean.
func (m Metadata) Bool(keys []string) (value, ok bool) {
	v, found := m.lookup(keys)
	if !found {
		return false, false
	}
	switch b := v.(type) {
	case bool:
		return b, true
	case int:
		return b != 0, true
	case string:
		switch strings.ToLower(strings.TrimSpace(b)) {
		case "true", "yes", "sim", "1":
			return true, true
		case "false", "no", "nao", "não", "0", "":
			return false, true
		}
	}
	return false, false
}

// Strings returns a sequence value. A scalar is split on commas so
// "competencias: Python, SQL" works like a YAML list.
func (m Metadata) Strings(keys []string) []string {
	v, found := m.lookup(keys)
	if !found {
		return nil
	}
	var out []string
	switch list := v.(type) {
	case []any:
		for _, item := range list {
			if s := scalarString(item); s != "" {
				out = append(out, s)
			}
		}
	case []string:
		for _, s := range list {
			if s = strings.TrimSpace(s); s != "" {
				out = append(out, s)
			}
		}
	default:
		for _, s := range strings.Split(scalarString(v), ",") {
			if s = strings.TrimSpace(s); s != "" {
				out = append(out, s)
			}
		}
	}
	return out
}

func scalarString(v any) string {
	switch s := v.(type) {
	case nil:
		return ""
	case string:
		return strings.TrimSpace(s)
	case int:
		return strconv.Itoa(s)
	case int64:
		return strconv.FormatInt(s, 10)
	case uint64:
		return strconv.FormatUint(s, 10)
	case float64:
		return strconv.FormatFloat(s, 'f', -1, 64)
	case bool:
		return strconv.FormatBool(s)
	case time.Time:
		return s.Format("2006-01-02")
	case []any, map[string]any, map[any]any:
		return ""
	default:
		return strings.TrimSpace(fmt.Sprint(s))
	}
}
