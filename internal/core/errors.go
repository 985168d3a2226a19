package core

import (
	"fmt"
	"net/http"
	"strings"

	goerrors "github.com/goliatone/go-errors"
)

// Text codes carried by batch-fatal error envelopes.
const (
	TextCodeUnknownEntity    = "IMPORT_UNKNOWN_ENTITY"
	TextCodeInputEmpty       = "IMPORT_INPUT_EMPTY"
	TextCodeInputMalformed   = "IMPORT_INPUT_MALFORMED"
	TextCodeInvalidDelimiter = "IMPORT_INVALID_DELIMITER"
	TextCodeInProgress       = "IMPORT_IN_PROGRESS"
	TextCodeTooManyImports   = "IMPORT_TOO_MANY"
	TextCodeInvalidTenant    = "IMPORT_INVALID_TENANT"
	TextCodeRecordNotFound   = "RECORD_NOT_FOUND"
	TextCodeDependencyCycle  = "ENTITY_DEPENDENCY_CYCLE"
	TextCodeUnsupported      = "IMPORT_UNSUPPORTED_FORMAT"
)

// ErrUnknownEntity reports a lookup of an unregistered entity key.
func ErrUnknownEntity(key string) error {
	return goerrors.New("unknown entity: "+key, goerrors.CategoryNotFound).
		WithCode(http.StatusNotFound).
		WithTextCode(TextCodeUnknownEntity).
		WithMetadata(map[string]any{"entity": key})
}

// ErrInputEmpty reports that parsing produced zero rows.
func ErrInputEmpty() error {
	return goerrors.New("empty input: no rows to import", goerrors.CategoryBadInput).
		WithCode(http.StatusBadRequest).
		WithTextCode(TextCodeInputEmpty)
}

// ErrInputMalformed wraps a structured document parse failure.
func ErrInputMalformed(cause error) error {
	return goerrors.Wrap(cause, goerrors.CategoryBadInput, "malformed input document").
		WithCode(http.StatusBadRequest).
		WithTextCode(TextCodeInputMalformed)
}

// ErrInvalidDelimiter reports a delimiter that is not a single character.
func ErrInvalidDelimiter(delim string) error {
	return goerrors.New("invalid delimiter: "+delim, goerrors.CategoryBadInput).
		WithCode(http.StatusBadRequest).
		WithTextCode(TextCodeInvalidDelimiter)
}

// ErrInvalidTenant reports a missing or malformed tenant identity.
func ErrInvalidTenant(tenantID string) error {
	return goerrors.New("invalid tenant id: "+tenantID, goerrors.CategoryBadInput).
		WithCode(http.StatusBadRequest).
		WithTextCode(TextCodeInvalidTenant)
}

// ErrUnsupportedFormat reports an input format other than delimited text or JSON.
func ErrUnsupportedFormat(format string) error {
	return goerrors.New("unsupported format: "+format, goerrors.CategoryBadInput).
		WithCode(http.StatusUnsupportedMediaType).
		WithTextCode(TextCodeUnsupported)
}

// ErrRecordNotFound reports a single-record delete that matched nothing.
func ErrRecordNotFound(entityKey, id string) error {
	return goerrors.New(fmt.Sprintf("record not found: %s/%s", entityKey, id), goerrors.CategoryNotFound).
		WithCode(http.StatusNotFound).
		WithTextCode(TextCodeRecordNotFound).
		WithMetadata(map[string]any{"entity": entityKey, "id": id})
}

// ErrDependencyCycle reports templates whose references form a cycle.
func ErrDependencyCycle(keys []string) error {
	return goerrors.New("entity references form a cycle: "+strings.Join(keys, ", "), goerrors.CategoryInternal).
		WithCode(http.StatusInternalServerError).
		WithTextCode(TextCodeDependencyCycle)
}

// ErrImportInProgress reports a second batch for a tenant that already has one running.
var ErrImportInProgress = goerrors.New("import already in progress for this tenant", goerrors.CategoryConflict).
	WithCode(http.StatusConflict).
	WithTextCode(TextCodeInProgress)

// ErrTooManyImports is returned when all import slots are occupied and the
// wait timeout expires. Clients should retry after a short delay.
var ErrTooManyImports = goerrors.New("too many concurrent imports, please try again later", goerrors.CategoryRateLimit).
	WithCode(http.StatusServiceUnavailable).
	WithTextCode(TextCodeTooManyImports)

// HasTextCode reports whether err carries a go-errors envelope with code.
func HasTextCode(err error, code string) bool {
	var rich *goerrors.Error
	if !goerrors.As(err, &rich) {
		return false
	}
	return rich.TextCode == code
}

// HTTPStatus returns the status code attached to an error envelope, or
// fallback when err carries none.
func HTTPStatus(err error, fallback int) int {
	var rich *goerrors.Error
	if goerrors.As(err, &rich) && rich.Code != 0 {
		return rich.Code
	}
	return fallback
}
