package core

import (
	"errors"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgtype"
)

func TestCleanCell(t *testing.T) {
	tests := []struct {
		name  string
		input string
		want  string
	}{
		{"simple string unchanged", "hello", "hello"},
		{"empty string", "", ""},
		{"surrounded by whitespace", "  hello  ", "hello"},
		{"Excel formula with quotes", `="hello"`, "hello"},
		{"Excel formula keeps leading zeros", `="0012"`, "0012"},
		{"surrounding double quotes", `"hello"`, "hello"},
		{"surrounding single quotes", `'hello'`, "hello"},
		{"whitespace inside quotes", `" hello "`, "hello"},
		{"bare formula untouched", "=SUM(A1)", "=SUM(A1)"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := CleanCell(tt.input); got != tt.want {
				t.Errorf("CleanCell(%q) = %q, want %q", tt.input, got, tt.want)
			}
		})
	}
}

func TestParseNumber(t *testing.T) {
	tests := []struct {
		input  string
		want   float64
		wantOK bool
	}{
		{"42", 42, true},
		{"-42", -42, true},
		{"3.14", 3.14, true},
		{"1234.56", 1234.56, true},
		{"12,5", 12.5, true},
		{"1.234,56", 1234.56, true},
		{"1,234.56", 1234.56, true},
		{"R$ 1.500,00", 1500, true},
		{"$ 1,500.00", 1500, true},
		{"1,234,567", 1234567, true},
		{"1.234.567", 1234567, true},
		{"1.234", 1.234, true},
		{"  7  ", 7, true},
		{"1.5E+3", 1500, true},
		{"1e-7", 1e-7, true},
		{"1e+21", 1e21, true},
		{"-2.5e2", -250, true},
		{"", 0, false},
		{"abc", 0, false},
		{"--", 0, false},
	}

	for _, tt := range tests {
		t.Run(tt.input, func(t *testing.T) {
			got, ok := ParseNumber(tt.input)
			if ok != tt.wantOK {
				t.Fatalf("ParseNumber(%q) ok = %v, want %v", tt.input, ok, tt.wantOK)
			}
			if got != tt.want {
				t.Errorf("ParseNumber(%q) = %v, want %v", tt.input, got, tt.want)
			}
		})
	}
}

func TestCoerceNumber_UnparseableIsZero(t *testing.T) {
	if got := CoerceNumber("n/a"); got != 0 {
		t.Errorf("CoerceNumber(n/a) = %v, want 0", got)
	}
}

func TestCoerceDate(t *testing.T) {
	tests := []struct {
		input  string
		want   string
		wantOK bool
	}{
		{"2024-01-15", "2024-01-15", true},
		{"15/01/2024", "2024-01-15", true},
		{"31/01/2024", "2024-01-31", true},
		{"not-a-date", "", false},
		{"5/1/2024", "2024-01-05", true},
		{" 31/12/2023 ", "2023-12-31", true},
		{"29/02/2024", "2024-02-29", true},
		{"31/02/2024", "", false},
		{"2024-13-01", "", false},
		{"2024/01/15", "", false},
		{"01-15-2024", "", false},
		{"", "", false},
	}

	for _, tt := range tests {
		t.Run(tt.input, func(t *testing.T) {
			got, ok := CoerceDate(tt.input)
			if ok != tt.wantOK || got != tt.want {
				t.Errorf("CoerceDate(%q) = (%q, %v), want (%q, %v)", tt.input, got, ok, tt.want, tt.wantOK)
			}
		})
	}
}

func coerceTemplate() EntityTemplate {
	return EntityTemplate{
		Key:      "entries",
		Fields:   []string{"description", "amount", "due_date", "status"},
		Required: []string{"description"},
		Defaults: map[string]any{"status": "pending", "amount": 0.0},
		Normalizers: map[string]func(string) string{
			"status": func(s string) string {
				if s == "?" {
					return ""
				}
				return s + "!"
			},
		},
	}
}

func TestCoerce(t *testing.T) {
	tpl := coerceTemplate()

	tests := []struct {
		name string
		raw  map[string]string
		want MappedRecord
	}{
		{
			name: "numbers and dates normalized",
			raw:  map[string]string{"description": "Rent", "amount": "1.234,56", "due_date": "15/01/2024", "status": "paid"},
			want: MappedRecord{"description": "Rent", "amount": 1234.56, "due_date": "2024-01-15", "status": "paid!"},
		},
		{
			name: "defaults fill absent fields",
			raw:  map[string]string{"description": "Rent"},
			want: MappedRecord{"description": "Rent", "amount": 0.0, "status": "pending"},
		},
		{
			name: "unparseable number becomes zero",
			raw:  map[string]string{"description": "Rent", "amount": "abc"},
			want: MappedRecord{"description": "Rent", "amount": 0.0, "status": "pending"},
		},
		{
			name: "invalid date is dropped",
			raw:  map[string]string{"description": "Rent", "due_date": "someday"},
			want: MappedRecord{"description": "Rent", "amount": 0.0, "status": "pending"},
		},
		{
			name: "normalizer returning empty drops the value",
			raw:  map[string]string{"description": "Rent", "status": "?"},
			want: MappedRecord{"description": "Rent", "amount": 0.0, "status": "pending"},
		},
		{
			name: "fields outside the template are ignored",
			raw:  map[string]string{"description": "Rent", "color": "blue"},
			want: MappedRecord{"description": "Rent", "amount": 0.0, "status": "pending"},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := Coerce(tt.raw, tpl, false)
			if err != nil {
				t.Fatalf("Coerce() error = %v", err)
			}
			if len(got) != len(tt.want) {
				t.Fatalf("Coerce() = %v, want %v", got, tt.want)
			}
			for k, v := range tt.want {
				if got[k] != v {
					t.Errorf("Coerce()[%q] = %v (%T), want %v (%T)", k, got[k], got[k], v, v)
				}
			}
		})
	}
}

func TestCoerce_Strict(t *testing.T) {
	tpl := coerceTemplate()

	_, err := Coerce(map[string]string{"description": "Rent", "amount": "abc"}, tpl, true)
	var cerr *CoercionError
	if !errors.As(err, &cerr) {
		t.Fatalf("Coerce() error = %v, want *CoercionError", err)
	}
	if want := `invalid number: amount="abc"`; cerr.Error() != want {
		t.Errorf("Error() = %q, want %q", cerr.Error(), want)
	}

	rec, err := Coerce(map[string]string{"description": "Rent", "amount": "10,5"}, tpl, true)
	if err != nil {
		t.Fatalf("Coerce() with valid number error = %v", err)
	}
	if rec["amount"] != 10.5 {
		t.Errorf("amount = %v, want 10.5", rec["amount"])
	}
}

func TestToPgText(t *testing.T) {
	tests := []struct {
		name      string
		input     any
		wantValid bool
		want      string
	}{
		{"string", "hello", true, "hello"},
		{"trimmed", "  hi  ", true, "hi"},
		{"whitespace only", "   ", false, ""},
		{"nil", nil, false, ""},
		{"number", 12.5, true, "12.5"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := ToPgText(tt.input)
			if got.Valid != tt.wantValid || got.String != tt.want {
				t.Errorf("ToPgText(%v) = %+v, want {%q %v}", tt.input, got, tt.want, tt.wantValid)
			}
		})
	}
}

func TestToPgDate(t *testing.T) {
	got := ToPgDate("2024-01-15")
	if !got.Valid {
		t.Fatal("ToPgDate(2024-01-15) invalid")
	}
	if want := time.Date(2024, 1, 15, 0, 0, 0, 0, time.UTC); !got.Time.Equal(want) {
		t.Errorf("ToPgDate() time = %v, want %v", got.Time, want)
	}

	for _, in := range []any{"15/01/2024", "", nil, 42} {
		if ToPgDate(in).Valid {
			t.Errorf("ToPgDate(%v) should be invalid", in)
		}
	}
}

func TestToPgNumeric(t *testing.T) {
	tests := []struct {
		name      string
		input     any
		wantValid bool
		want      float64
	}{
		{"float", 1234.56, true, 1234.56},
		{"int", 7, true, 7},
		{"negative", -0.5, true, -0.5},
		{"locale string", "1.234,56", true, 1234.56},
		{"garbage string", "abc", false, 0},
		{"nil", nil, false, 0},
		{"bool", true, false, 0},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := ToPgNumeric(tt.input)
			if got.Valid != tt.wantValid {
				t.Fatalf("ToPgNumeric(%v).Valid = %v, want %v", tt.input, got.Valid, tt.wantValid)
			}
			if !tt.wantValid {
				return
			}
			f, err := got.Float64Value()
			if err != nil {
				t.Fatalf("Float64Value() error = %v", err)
			}
			if f.Float64 != tt.want {
				t.Errorf("ToPgNumeric(%v) = %v, want %v", tt.input, f.Float64, tt.want)
			}
		})
	}
}

func TestFromPgValue(t *testing.T) {
	ts := time.Date(2024, 1, 15, 10, 30, 0, 0, time.UTC)
	id := uuid.MustParse("0b6c3a52-6f5e-4c1e-9a51-2d1f3c7e8a90")

	var num pgtype.Numeric
	if err := num.Scan("19.90"); err != nil {
		t.Fatal(err)
	}

	tests := []struct {
		name   string
		column string
		input  any
		want   any
	}{
		{"date column", "due_date", ts, "2024-01-15"},
		{"timestamp column", "created_at", ts, "2024-01-15T10:30:00Z"},
		{"numeric", "amount", num, 19.9},
		{"uuid", "id", [16]byte(id), id.String()},
		{"text", "name", "Ana", "Ana"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := FromPgValue(tt.column, tt.input); got != tt.want {
				t.Errorf("FromPgValue(%q, %v) = %v, want %v", tt.column, tt.input, got, tt.want)
			}
		})
	}
}

func TestPgUUID(t *testing.T) {
	s := "0b6c3a52-6f5e-4c1e-9a51-2d1f3c7e8a90"
	if got := PgUUIDToString(ToPgUUID(s)); got != s {
		t.Errorf("round trip = %q, want %q", got, s)
	}
	if ToPgUUID("").Valid || ToPgUUID("nope").Valid {
		t.Error("empty and malformed ids should be invalid")
	}
	if got := PgUUIDToString(pgtype.UUID{}); got != "" {
		t.Errorf("PgUUIDToString(invalid) = %q, want empty", got)
	}
}
