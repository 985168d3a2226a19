package core

// convert.go normalizes raw cell values into canonical numbers and dates,
// and converts mapped values into PostgreSQL types for the store.
//
// Legacy exports mix locales freely:
//   - "1.234,56" (pt-BR) and "1,234.56" (en-US) for the same amount
//   - currency prefixes such as "R$" or "$"
//   - DD/MM/YYYY next to ISO dates
//   - Excel formula wrappers (="0012")
//
// Unparseable numbers become 0 unless strict mode is on; unparseable dates
// are dropped so that the field falls back to having no value.

import (
	"fmt"
	"regexp"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgtype"
	"github.com/shopspring/decimal"
)

// NumericFields are coerced to numbers for every entity.
var NumericFields = map[string]bool{
	"amount":          true,
	"paid_amount":     true,
	"quantity":        true,
	"min_quantity":    true,
	"cost_price":      true,
	"sale_price":      true,
	"initial_balance": true,
	"day_of_month":    true,
	"interest":        true,
	"discount":        true,
	"installment":     true,
	"installments":    true,
}

// DateFields are coerced to YYYY-MM-DD for every entity.
var DateFields = map[string]bool{
	"due_date":     true,
	"payment_date": true,
	"issue_date":   true,
	"start_date":   true,
	"end_date":     true,
	"birth_date":   true,
}

var (
	isoDateRegex = regexp.MustCompile(`^\d{4}-\d{2}-\d{2}$`)
	brDateRegex  = regexp.MustCompile(`^\d{1,2}/\d{1,2}/\d{4}$`)
)

// CleanCell removes common export artifacts from a cell value:
// - Trims whitespace
// - Removes Excel formula prefix (="...")
// - Removes surrounding quotes
func CleanCell(s string) string {
	s = strings.TrimSpace(s)

	if strings.HasPrefix(s, "=\"") && strings.HasSuffix(s, "\"") {
		s = s[2 : len(s)-1]
	}

	s = strings.Trim(s, `"'`)
	return strings.TrimSpace(s)
}

// cleanNumber strips everything but digits, separators and minus signs,
// then rewrites the separators so the result uses '.' as decimal point.
//
// When both ',' and '.' appear, whichever comes last is the decimal
// separator and the other is a thousands separator. A lone ',' is a
// decimal separator. Repeated '.' without ',' are thousands separators.
func cleanNumber(s string) string {
	var b strings.Builder
	b.Grow(len(s))
	for _, r := range s {
		if (r >= '0' && r <= '9') || r == '.' || r == ',' || r == '-' {
			b.WriteRune(r)
		}
	}
	s = b.String()

	lastComma := strings.LastIndex(s, ",")
	lastPeriod := strings.LastIndex(s, ".")

	switch {
	case lastComma >= 0 && lastPeriod >= 0 && lastPeriod < lastComma:
		s = strings.ReplaceAll(s, ".", "")
		s = strings.Replace(s, ",", ".", 1)
	case lastComma >= 0 && lastPeriod >= 0:
		s = strings.ReplaceAll(s, ",", "")
	case lastComma >= 0:
		if strings.Count(s, ",") == 1 {
			s = strings.Replace(s, ",", ".", 1)
		} else {
			s = strings.ReplaceAll(s, ",", "")
		}
	case strings.Count(s, ".") > 1:
		s = strings.ReplaceAll(s, ".", "")
	}
	return s
}

// ParseNumber parses a locale-ambiguous numeric string.
// Plain decimal and exponent forms ("1.5E+3", "1e-7") are read as is;
// anything else goes through cleanNumber. Returns false if nothing numeric
// remains after cleanup.
func ParseNumber(s string) (float64, bool) {
	s = strings.TrimSpace(s)
	if d, err := decimal.NewFromString(s); err == nil {
		return d.InexactFloat64(), true
	}

	cleaned := cleanNumber(s)
	if cleaned == "" {
		return 0, false
	}
	d, err := decimal.NewFromString(cleaned)
	if err != nil {
		return 0, false
	}
	return d.InexactFloat64(), true
}

// CoerceNumber parses a numeric string, yielding 0 for unparseable input.
func CoerceNumber(s string) float64 {
	n, _ := ParseNumber(s)
	return n
}

// CoerceDate converts DD/MM/YYYY or YYYY-MM-DD to YYYY-MM-DD.
// Returns false for any other shape or for an impossible calendar date.
func CoerceDate(s string) (string, bool) {
	s = strings.TrimSpace(s)

	var layout string
	switch {
	case isoDateRegex.MatchString(s):
		layout = "2006-01-02"
	case brDateRegex.MatchString(s):
		layout = "2/1/2006"
	default:
		return "", false
	}

	t, err := time.Parse(layout, s)
	if err != nil {
		return "", false
	}
	return t.Format("2006-01-02"), true
}

// CoercionError reports numeric fields that could not be parsed in strict mode.
type CoercionError struct {
	Fields []string
	Values []string
}

func (e *CoercionError) Error() string {
	parts := make([]string, len(e.Fields))
	for i := range e.Fields {
		parts[i] = fmt.Sprintf("%s=%q", e.Fields[i], e.Values[i])
	}
	return "invalid number: " + strings.Join(parts, ", ")
}

// Coerce normalizes a resolved record in template field order:
// normalizers first, then numeric and date coercion, then defaults.
// With strict set, unparseable numbers produce a *CoercionError instead of 0.
func Coerce(raw map[string]string, tpl EntityTemplate, strict bool) (MappedRecord, error) {
	rec := make(MappedRecord, len(tpl.Fields))
	var bad *CoercionError

	for _, field := range tpl.Fields {
		v, ok := raw[field]
		if !ok {
			continue
		}

		if norm := tpl.Normalizers[field]; norm != nil {
			v = norm(v)
			if v == "" {
				continue
			}
		}

		switch {
		case NumericFields[field]:
			n, ok := ParseNumber(v)
			if !ok && strict {
				if bad == nil {
					bad = &CoercionError{}
				}
				bad.Fields = append(bad.Fields, field)
				bad.Values = append(bad.Values, v)
				continue
			}
			rec[field] = n
		case DateFields[field]:
			if d, ok := CoerceDate(v); ok {
				rec[field] = d
			}
		default:
			rec[field] = v
		}
	}

	if bad != nil {
		return nil, bad
	}

	for field, def := range tpl.Defaults {
		if _, ok := rec[field]; !ok {
			rec[field] = def
		}
	}

	return rec, nil
}

// ToPgText converts a value to pgtype.Text.
// Returns invalid if the value is nil or only whitespace.
func ToPgText(v any) pgtype.Text {
	if v == nil {
		return pgtype.Text{Valid: false}
	}
	s := strings.TrimSpace(fmt.Sprint(v))
	if s == "" {
		return pgtype.Text{Valid: false}
	}
	return pgtype.Text{String: s, Valid: true}
}

// ToPgDate converts a canonical YYYY-MM-DD value to pgtype.Date.
func ToPgDate(v any) pgtype.Date {
	s, ok := v.(string)
	if !ok {
		return pgtype.Date{Valid: false}
	}
	t, err := time.Parse("2006-01-02", strings.TrimSpace(s))
	if err != nil {
		return pgtype.Date{Valid: false}
	}
	return pgtype.Date{Time: t, Valid: true}
}

// ToPgNumeric converts a float64 (or numeric string) to pgtype.Numeric.
func ToPgNumeric(v any) pgtype.Numeric {
	var d decimal.Decimal
	switch n := v.(type) {
	case float64:
		d = decimal.NewFromFloat(n)
	case int:
		d = decimal.NewFromInt(int64(n))
	case string:
		f, ok := ParseNumber(n)
		if !ok {
			return pgtype.Numeric{Valid: false}
		}
		d = decimal.NewFromFloat(f)
	default:
		return pgtype.Numeric{Valid: false}
	}

	var num pgtype.Numeric
	if err := num.Scan(d.String()); err != nil {
		return pgtype.Numeric{Valid: false}
	}
	return num
}

// FromPgValue converts a column value read from the store into the canonical
// mapped-record form: date fields as YYYY-MM-DD, other timestamps as RFC 3339,
// numerics as float64, UUIDs as strings.
func FromPgValue(column string, v any) any {
	switch tv := v.(type) {
	case time.Time:
		if DateFields[column] {
			return tv.Format("2006-01-02")
		}
		return tv.UTC().Format(time.RFC3339)
	case pgtype.Numeric:
		f, err := tv.Float64Value()
		if err != nil || !f.Valid {
			return nil
		}
		return f.Float64
	case [16]byte:
		return PgUUIDToString(pgtype.UUID{Bytes: tv, Valid: true})
	default:
		return v
	}
}

// ToPgUUID converts a string to pgtype.UUID.
// Returns invalid if the string is empty or not a valid UUID.
func ToPgUUID(s string) pgtype.UUID {
	if s == "" {
		return pgtype.UUID{Valid: false}
	}
	parsed, err := uuid.Parse(s)
	if err != nil {
		return pgtype.UUID{Valid: false}
	}
	return pgtype.UUID{Bytes: parsed, Valid: true}
}

// PgUUIDToString converts a pgtype.UUID to its string representation.
// Returns empty string if the UUID is invalid.
func PgUUIDToString(u pgtype.UUID) string {
	if !u.Valid {
		return ""
	}
	return uuid.UUID(u.Bytes).String()
}
