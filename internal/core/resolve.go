package core

import "strings"

// headerIndex maps trimmed, lowercased header names to the row's original keys.
type headerIndex map[string]string

// makeHeaderIndex builds a case-insensitive index over a row's headers.
// When headers differ only in case, a non-empty value is preferred, then
// the lexically smaller header.
func makeHeaderIndex(values map[string]string) headerIndex {
	idx := make(headerIndex, len(values))
	for h := range values {
		key := strings.ToLower(strings.TrimSpace(h))
		prev, ok := idx[key]
		if ok {
			prevEmpty := strings.TrimSpace(values[prev]) == ""
			curEmpty := strings.TrimSpace(values[h]) == ""
			if curEmpty && !prevEmpty {
				continue
			}
			if curEmpty == prevEmpty && prev < h {
				continue
			}
		}
		idx[key] = h
	}
	return idx
}

// lookup returns the trimmed value under a case-insensitive header name.
func (idx headerIndex) lookup(values map[string]string, name string) (string, bool) {
	h, ok := idx[strings.ToLower(strings.TrimSpace(name))]
	if !ok {
		return "", false
	}
	v := strings.TrimSpace(values[h])
	return v, v != ""
}

// Resolve maps a Source Row onto the template's fields.
//
// For each field, in declaration order: a case-insensitive exact header
// match with a non-empty value wins; otherwise the field's aliases are tried
// in listed order and the first non-empty match wins; otherwise the field
// is omitted. Values are returned raw, before coercion.
func Resolve(row SourceRow, tpl EntityTemplate) map[string]string {
	idx := makeHeaderIndex(row.Values)
	out := make(map[string]string, len(tpl.Fields))

	for _, field := range tpl.Fields {
		if v, ok := idx.lookup(row.Values, field); ok {
			out[field] = v
			continue
		}
		for _, alias := range tpl.Aliases[field] {
			if v, ok := idx.lookup(row.Values, alias); ok {
				out[field] = v
				break
			}
		}
	}

	return out
}
