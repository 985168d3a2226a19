package core

// decode.go normalizes raw input bytes to UTF-8 text before parsing.
//
// Exports from legacy bookkeeping systems arrive in whatever encoding the
// exporting desktop used:
//   - UTF-8 with a BOM (Excel "CSV UTF-8")
//   - UTF-16 LE/BE with a BOM (Excel "Unicode Text")
//   - Windows-1252 / Latin-1 (older ERPs)
//
// DecodeText detects these and always returns valid UTF-8.

import (
	"bytes"
	"fmt"
	"unicode/utf8"

	"golang.org/x/text/encoding/charmap"
	"golang.org/x/text/encoding/unicode"
	"golang.org/x/text/transform"
)

var (
	bomUTF8    = []byte{0xEF, 0xBB, 0xBF}
	bomUTF16LE = []byte{0xFF, 0xFE}
	bomUTF16BE = []byte{0xFE, 0xFF}
)

// DecodeText converts raw input to a UTF-8 string.
// A leading BOM is always removed.
func DecodeText(data []byte) (string, error) {
	switch {
	case len(data) == 0:
		return "", nil

	case bytes.HasPrefix(data, bomUTF8):
		return string(data[len(bomUTF8):]), nil

	case bytes.HasPrefix(data, bomUTF16LE), bytes.HasPrefix(data, bomUTF16BE):
		// ExpectBOM consumes the BOM and picks the byte order from it.
		dec := unicode.UTF16(unicode.LittleEndian, unicode.ExpectBOM).NewDecoder()
		out, _, err := transform.Bytes(dec, data)
		if err != nil {
			return "", fmt.Errorf("decode UTF-16: %w", err)
		}
		return string(out), nil

	case utf8.Valid(data):
		return string(data), nil
	}

	out, _, err := transform.Bytes(charmap.Windows1252.NewDecoder(), data)
	if err != nil {
		return "", fmt.Errorf("decode Windows-1252: %w", err)
	}
	return string(out), nil
}
