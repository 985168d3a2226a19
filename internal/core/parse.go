package core

// parse.go turns raw input into Source Rows.
//
// Two entry points share the RowReader output shape:
//   - ParseDelimited: delimited text (comma, semicolon, tab). The first record
//     is the header; data lines whose cell count differs from the header are
//     silently dropped and counted in RowReader.Skipped.
//   - ParseStructured: a JSON object or an array of JSON objects. Each
//     object's own keys become the row headers.
//
// Rows are produced lazily, once. A RowReader cannot be rewound.

import (
	"bytes"
	"encoding/csv"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"strings"
	"unicode/utf8"
)

// RowReader yields Source Rows one at a time.
type RowReader struct {
	next    func() (SourceRow, error)
	skipped int
	done    bool
}

// Next returns the next row, or io.EOF once the input is exhausted.
func (r *RowReader) Next() (SourceRow, error) {
	if r.done {
		return SourceRow{}, io.EOF
	}
	row, err := r.next()
	if err != nil {
		r.done = true
	}
	return row, err
}

// Skipped returns the number of data lines dropped so far because their
// cell count did not match the header.
func (r *RowReader) Skipped() int {
	return r.skipped
}

// emptyReader yields no rows.
func emptyReader() *RowReader {
	return &RowReader{next: func() (SourceRow, error) { return SourceRow{}, io.EOF }}
}

// ParseDelimiter converts a user-supplied delimiter to a rune.
// Accepts a single character, the escape `\t`, or the word "tab".
// An empty string selects a comma.
func ParseDelimiter(s string) (rune, error) {
	switch strings.ToLower(s) {
	case "":
		return ',', nil
	case `\t`, "\t", "tab":
		return '\t', nil
	}

	r, size := utf8.DecodeRuneInString(s)
	if size != len(s) || r == utf8.RuneError || r == '"' || r == '\r' || r == '\n' {
		return 0, ErrInvalidDelimiter(s)
	}
	return r, nil
}

// ParseDelimited parses delimited text into rows keyed by header.
// Each row's Position is its 1-based physical line number.
func ParseDelimited(text, delimiter string) (*RowReader, error) {
	comma, err := ParseDelimiter(delimiter)
	if err != nil {
		return nil, err
	}

	cr := csv.NewReader(strings.NewReader(text))
	cr.Comma = comma
	cr.FieldsPerRecord = -1
	cr.LazyQuotes = true

	header, err := cr.Read()
	if errors.Is(err, io.EOF) {
		return emptyReader(), nil
	}
	if err != nil {
		return nil, ErrInputMalformed(fmt.Errorf("read header: %w", err))
	}

	headers := make([]string, len(header))
	for i, h := range header {
		headers[i] = CleanCell(h)
	}

	rr := &RowReader{}
	rr.next = func() (SourceRow, error) {
		for {
			rec, err := cr.Read()
			if errors.Is(err, io.EOF) {
				return SourceRow{}, io.EOF
			}

			var perr *csv.ParseError
			if errors.As(err, &perr) {
				rr.skipped++
				continue
			}
			if err != nil {
				return SourceRow{}, err
			}

			if len(rec) != len(headers) {
				rr.skipped++
				continue
			}

			line, _ := cr.FieldPos(0)
			values := make(map[string]string, len(headers))
			for i, h := range headers {
				v := CleanCell(rec[i])
				if prev, ok := values[h]; ok && prev != "" {
					continue // first non-empty column wins for repeated headers
				}
				values[h] = v
			}
			return SourceRow{Position: line, Values: values}, nil
		}
	}

	return rr, nil
}

// ParseStructured parses a JSON document holding one object or an array
// of objects. Each row's Position is its 1-based element number.
func ParseStructured(data []byte) (*RowReader, error) {
	if len(bytes.TrimSpace(data)) == 0 {
		return emptyReader(), nil
	}

	objects, err := decodeObjects(data)
	if err != nil {
		return nil, ErrInputMalformed(err)
	}
	return objectReader(objects), nil
}

// objectReader yields one row per decoded object.
func objectReader(objects []map[string]any) *RowReader {
	i := 0
	rr := &RowReader{}
	rr.next = func() (SourceRow, error) {
		if i >= len(objects) {
			return SourceRow{}, io.EOF
		}
		obj := objects[i]
		i++
		return SourceRow{Position: i, Values: stringifyObject(obj)}, nil
	}
	return rr
}

// decodeObjects decodes data as an object or an array of objects.
func decodeObjects(data []byte) ([]map[string]any, error) {
	dec := json.NewDecoder(bytes.NewReader(data))
	dec.UseNumber()

	var doc any
	if err := dec.Decode(&doc); err != nil {
		return nil, err
	}
	if _, err := dec.Token(); !errors.Is(err, io.EOF) {
		return nil, fmt.Errorf("unexpected data after document")
	}

	return asObjects(doc)
}

// asObjects accepts a decoded object or array of objects.
func asObjects(doc any) ([]map[string]any, error) {
	switch v := doc.(type) {
	case map[string]any:
		return []map[string]any{v}, nil
	case []any:
		out := make([]map[string]any, 0, len(v))
		for i, el := range v {
			obj, ok := el.(map[string]any)
			if !ok {
				return nil, fmt.Errorf("element %d is not an object", i+1)
			}
			out = append(out, obj)
		}
		return out, nil
	default:
		return nil, fmt.Errorf("document must be an object or an array of objects")
	}
}

// stringifyObject converts decoded JSON values to raw strings.
// Nulls are dropped; nested values are re-encoded as JSON text.
func stringifyObject(obj map[string]any) map[string]string {
	values := make(map[string]string, len(obj))
	for k, v := range obj {
		switch tv := v.(type) {
		case nil:
			continue
		case string:
			values[k] = tv
		case json.Number:
			values[k] = tv.String()
		case bool:
			if tv {
				values[k] = "true"
			} else {
				values[k] = "false"
			}
		default:
			b, err := json.Marshal(tv)
			if err != nil {
				continue
			}
			values[k] = string(b)
		}
	}
	return values
}
