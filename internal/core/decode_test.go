package core

import (
	"testing"

	"golang.org/x/text/encoding/charmap"
	"golang.org/x/text/encoding/unicode"
)

func TestDecodeText(t *testing.T) {
	utf16le, err := unicode.UTF16(unicode.LittleEndian, unicode.UseBOM).NewEncoder().Bytes([]byte("nome\nJoão\n"))
	if err != nil {
		t.Fatal(err)
	}
	utf16be, err := unicode.UTF16(unicode.BigEndian, unicode.UseBOM).NewEncoder().Bytes([]byte("nome\nJoão\n"))
	if err != nil {
		t.Fatal(err)
	}
	latin, err := charmap.Windows1252.NewEncoder().Bytes([]byte("nome\nJoão\n"))
	if err != nil {
		t.Fatal(err)
	}

	tests := []struct {
		name  string
		input []byte
		want  string
	}{
		{"empty", nil, ""},
		{"plain utf-8", []byte("nome\nJoão\n"), "nome\nJoão\n"},
		{"utf-8 with BOM", append([]byte{0xEF, 0xBB, 0xBF}, "nome\nJoão\n"...), "nome\nJoão\n"},
		{"utf-16 LE with BOM", utf16le, "nome\nJoão\n"},
		{"utf-16 BE with BOM", utf16be, "nome\nJoão\n"},
		{"windows-1252", latin, "nome\nJoão\n"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := DecodeText(tt.input)
			if err != nil {
				t.Fatalf("DecodeText() error = %v", err)
			}
			if got != tt.want {
				t.Errorf("DecodeText() = %q, want %q", got, tt.want)
			}
		})
	}
}
