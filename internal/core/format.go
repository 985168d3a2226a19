package core

import (
	"bytes"
	"path/filepath"
	"strings"
)

// Format is the shape of an input document.
type Format string

const (
	FormatDelimited Format = "csv"
	FormatDocument  Format = "json"
)

// ParseFormat maps a user supplied format name to a Format.
func ParseFormat(name string) (Format, error) {
	switch strings.ToLower(strings.TrimSpace(name)) {
	case "csv", "tsv", "txt", "delimited":
		return FormatDelimited, nil
	case "json":
		return FormatDocument, nil
	}
	return "", ErrUnsupportedFormat(name)
}

// DetectFormat infers the format of an upload from, in order, the file
// extension, the content type and the first non-blank byte of data.
// Anything that does not look like JSON is treated as delimited text.
func DetectFormat(filename, contentType string, data []byte) Format {
	switch strings.ToLower(filepath.Ext(filename)) {
	case ".json":
		return FormatDocument
	case ".csv", ".tsv", ".txt":
		return FormatDelimited
	}

	ct := strings.ToLower(contentType)
	switch {
	case strings.Contains(ct, "json"):
		return FormatDocument
	case strings.Contains(ct, "csv"), strings.Contains(ct, "tab-separated"):
		return FormatDelimited
	}

	trimmed := bytes.TrimLeft(bytes.TrimPrefix(data, []byte("\xef\xbb\xbf")), " \t\r\n")
	if len(trimmed) > 0 && (trimmed[0] == '{' || trimmed[0] == '[') {
		return FormatDocument
	}
	return FormatDelimited
}

// DefaultDelimiter returns the delimiter implied by a file name: a tab for
// .tsv files, otherwise empty, which ParseDelimiter reads as a comma.
func DefaultDelimiter(filename string) string {
	if strings.EqualFold(filepath.Ext(filename), ".tsv") {
		return "\t"
	}
	return ""
}
