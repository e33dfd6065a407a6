package resource

import "strings"

// SearchState is the operator's free-text search.
type SearchState struct {
	Term   string
	Fields []string
}

// Active reports whether the term narrows anything.
func (s SearchState) Active() bool {
	return strings.TrimSpace(s.Term) != ""
}

// Filter keeps the entities where at least one of fields contains term, ignoring case and
// surrounding whitespace. A blank term returns c untouched. Only scalar values are searched.
func Filter(c Collection, term string, fields []string) Collection {
	needle := strings.ToLower(strings.TrimSpace(term))
	if needle == "" {
		return c
	}

	out := make(Collection, 0, len(c))
	for _, e := range c {
		if matches(e, needle, fields) {
			out = append(out, e)
		}
	}
	return out
}

func matches(e Entity, needle string, fields []string) bool {
	for _, f := range fields {
		v, ok := e[f]
		if !ok || v == nil {
			continue
		}
		s, ok := stringify(v)
		if !ok {
			continue
		}
		if strings.Contains(strings.ToLower(strings.TrimSpace(s)), needle) {
			return true
		}
	}
	return false
}
