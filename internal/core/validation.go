package core

// validation.go enforces each template's required-field subset.
//
// Validation runs on the coerced record, so a required date field whose
// value was unparseable counts as missing. Records that fail validation
// never reach the duplicate detector or the store.

import (
	"fmt"
	"strings"
)

// MissingFieldsError lists the required fields absent from a record.
type MissingFieldsError struct {
	Fields []string
}

func (e *MissingFieldsError) Error() string {
	return fmt.Sprintf("missing required field(s): %s", strings.Join(e.Fields, ", "))
}

// Validate checks that every required field of tpl is present in rec.
// Returns a *MissingFieldsError naming the absent fields in template order.
func Validate(rec MappedRecord, tpl EntityTemplate) error {
	var missing []string
	for _, field := range tpl.Required {
		v, ok := rec[field]
		if !ok || isBlank(v) {
			missing = append(missing, field)
		}
	}
	if len(missing) > 0 {
		return &MissingFieldsError{Fields: missing}
	}
	return nil
}

// isBlank reports whether v is nil or a whitespace-only string.
func isBlank(v any) bool {
	switch tv := v.(type) {
	case nil:
		return true
	case string:
		return strings.TrimSpace(tv) == ""
	default:
		return false
	}
}
