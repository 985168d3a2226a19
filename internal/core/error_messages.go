// Package core provides the structured-data import engine.
//
// # Error Codes Reference
//
// This file defines user-friendly error messages with codes for support reference.
// Users can quote the code to support staff for faster diagnosis.
//
// Errors carrying a go-errors envelope (see errors.go) are mapped by their
// text code first. Everything else is matched against the pattern table.
//
// # Import Errors (IMP001-IMP099)
//
//	IMP001 - Empty input: The file contains no data rows
//	         Action: Check that the file has a header line and at least one row
//	         Text code: IMPORT_INPUT_EMPTY
//
//	IMP002 - Malformed input: The document could not be read
//	         Action: Upload a JSON object or an array of JSON objects
//	         Text code: IMPORT_INPUT_MALFORMED
//
//	IMP003 - Invalid delimiter: The delimiter must be a single character
//	         Action: Use a comma, a semicolon or tab
//	         Text code: IMPORT_INVALID_DELIMITER
//
//	IMP004 - Unknown entity: The data type is not importable
//	         Action: Pick one of the listed data types
//	         Text code: IMPORT_UNKNOWN_ENTITY
//
//	IMP005 - Import in progress: Another import is running for this account
//	         Action: Wait for it to finish and try again
//	         Text code: IMPORT_IN_PROGRESS
//
//	IMP006 - System busy: Too many imports in progress
//	         Action: Please wait a moment and try again
//	         Text code: IMPORT_TOO_MANY
//
//	IMP007 - Invalid account: The tenant id is missing or malformed
//	         Action: Send a valid X-Tenant-ID header
//	         Text code: IMPORT_INVALID_TENANT
//
//	IMP008 - Record not found: Nothing matched the given id
//	         Action: Refresh the list and try again
//	         Text code: RECORD_NOT_FOUND
//
//	IMP009 - Unsupported format: Only delimited text and JSON are accepted
//	         Action: Upload a CSV, TSV or JSON file
//	         Text code: IMPORT_UNSUPPORTED_FORMAT
//
// # Database Errors (DB001-DB099)
//
//	DB001 - Duplicate key             Patterns: "duplicate key"
//	DB002 - Unique constraint         Patterns: "unique constraint", "violates unique"
//	DB003 - Foreign key               Patterns: "foreign key constraint", "violates foreign key"
//	DB004 - Connection refused        Patterns: "connection refused"
//	DB005 - Connection reset          Patterns: "connection reset"
//	DB006 - Timeout                   Patterns: "timeout"
//	DB007 - Deadlock                  Patterns: "deadlock"
//	DB008 - Not null                  Patterns: "violates not-null"
//	DB009 - Invalid value             Patterns: "invalid input syntax"
//
// # Record Errors (VAL001-VAL099)
//
//	VAL001 - Required field           Patterns: "missing required field"
//	VAL002 - Invalid number           Patterns: "invalid number"
//	VAL003 - Duplicate record         Patterns: "duplicate:"
//	VAL004 - Duplicate check failed   Patterns: "duplicate check"
//
// # Request Errors (REQ001-REQ099)
//
//	REQ001 - File too large           Patterns: "request body too large", "file too large"
//	REQ002 - No file                  Patterns: "no file provided"
//	REQ003 - Request cancelled        Patterns: "context canceled"
//	REQ004 - Request timeout          Patterns: "context deadline exceeded"
//	RATE001 - Rate limited            Patterns: "rate limit"
//
// # Default Error (ERR000)
//
// Fallback when no specific pattern matches. Support staff should check
// application logs for the original technical error.
//
// # Pattern Matching
//
// Error patterns are matched case-insensitively using strings.Contains.
// The first matching pattern wins, so more specific patterns come first.
package core

import (
	"fmt"
	"strings"

	goerrors "github.com/goliatone/go-errors"
)

// UserMessage provides user-friendly error information with actionable guidance.
type UserMessage struct {
	Message string // What happened (user-friendly)
	Action  string // What to do about it
	Code    string // Error code for support reference
}

// textCodeMessages maps go-errors text codes to user messages.
var textCodeMessages = map[string]UserMessage{
	TextCodeInputEmpty: {
		Message: "The file contains no data rows",
		Action:  "Check that the file has a header line and at least one row",
		Code:    "IMP001",
	},
	TextCodeInputMalformed: {
		Message: "The document could not be read",
		Action:  "Upload a JSON object or an array of JSON objects",
		Code:    "IMP002",
	},
	TextCodeInvalidDelimiter: {
		Message: "The delimiter must be a single character",
		Action:  "Use a comma, a semicolon or tab",
		Code:    "IMP003",
	},
	TextCodeUnknownEntity: {
		Message: "This data type cannot be imported",
		Action:  "Pick one of the listed data types",
		Code:    "IMP004",
	},
	TextCodeInProgress: {
		Message: "Another import is running for this account",
		Action:  "Wait for it to finish and try again",
		Code:    "IMP005",
	},
	TextCodeTooManyImports: {
		Message: "System is busy processing other imports",
		Action:  "Please wait a moment and try again",
		Code:    "IMP006",
	},
	TextCodeInvalidTenant: {
		Message: "The account id is missing or malformed",
		Action:  "Send a valid X-Tenant-ID header",
		Code:    "IMP007",
	},
	TextCodeRecordNotFound: {
		Message: "Record not found",
		Action:  "Refresh the list and try again",
		Code:    "IMP008",
	},
	TextCodeUnsupported: {
		Message: "This file format is not supported",
		Action:  "Upload a CSV, TSV or JSON file",
		Code:    "IMP009",
	},
}

// errorPattern defines a pattern to match and its corresponding user message.
type errorPattern struct {
	pattern string
	msg     UserMessage
}

// errorPatterns maps technical error patterns (case-insensitive) to user messages.
// The first matching pattern wins, so order matters.
var errorPatterns = []errorPattern{
	// Store constraint errors
	{"duplicate key", UserMessage{"A record with this key already exists", "Review the file for repeated records", "DB001"}},
	{"unique constraint", UserMessage{"This value must be unique but already exists", "Check for duplicate entries in your file", "DB002"}},
	{"violates unique", UserMessage{"A duplicate value was found", "Review your data for duplicate key values", "DB002"}},
	{"foreign key constraint", UserMessage{"Referenced record does not exist", "Import the referenced records first", "DB003"}},
	{"violates foreign key", UserMessage{"Referenced record does not exist", "Import the referenced records first", "DB003"}},
	{"violates not-null", UserMessage{"A value the database requires is missing", "Fill in the empty column and import again", "DB008"}},
	{"invalid input syntax", UserMessage{"A value has the wrong format for its column", "Check numbers, dates and ids in the failing rows", "DB009"}},

	// Store connection errors
	{"connection refused", UserMessage{"Unable to connect to database", "Please try again in a few moments", "DB004"}},
	{"connection reset", UserMessage{"Database connection was interrupted", "Please try again", "DB005"}},
	{"timeout", UserMessage{"Operation timed out", "Try a smaller file or try again later", "DB006"}},
	{"deadlock", UserMessage{"Database was busy with conflicting operations", "Please try again", "DB007"}},

	// Record errors
	{"missing required field", UserMessage{"Required field is empty", "Ensure all required columns have values", "VAL001"}},
	{"invalid number", UserMessage{"Invalid number format detected", "Use digits with a comma or period as decimal separator", "VAL002"}},
	{"duplicate check", UserMessage{"Could not check for existing records", "Try again; nothing was saved for this row", "VAL004"}},
	{"duplicate:", UserMessage{"Record already exists", "No action needed; the existing record was kept", "VAL003"}},

	// Request errors
	{"request body too large", UserMessage{"File exceeds maximum size limit", "Split the file into smaller chunks", "REQ001"}},
	{"file too large", UserMessage{"File exceeds maximum size limit", "Split the file into smaller chunks", "REQ001"}},
	{"no file provided", UserMessage{"No file was selected", "Please select a file to import", "REQ002"}},
	{"context canceled", UserMessage{"Request was cancelled", "Please try again", "REQ003"}},
	{"context deadline exceeded", UserMessage{"Request timed out", "Try a smaller file or check your connection", "REQ004"}},
	{"rate limit", UserMessage{"Too many requests", "Please wait a moment before trying again", "RATE001"}},
}

// defaultMessage is returned when no pattern matches (ERR000).
var defaultMessage = UserMessage{
	Message: "An unexpected error occurred",
	Action:  "Please try again or contact support",
	Code:    "ERR000",
}

// MapError converts a technical error to a user-friendly message.
// Errors with a known go-errors text code map directly; otherwise the first
// matching pattern wins, and ERR000 is the fallback.
func MapError(err error) UserMessage {
	if err == nil {
		return UserMessage{}
	}

	var rich *goerrors.Error
	if goerrors.As(err, &rich) {
		if msg, ok := textCodeMessages[rich.TextCode]; ok {
			return msg
		}
	}

	errStr := strings.ToLower(err.Error())
	for _, ep := range errorPatterns {
		if strings.Contains(errStr, ep.pattern) {
			return ep.msg
		}
	}

	return defaultMessage
}

// FormatUserError creates a formatted error string for display.
// The format is: "Message (Code: XXX). Action"
func FormatUserError(err error) string {
	msg := MapError(err)
	if msg.Message == "" {
		return ""
	}
	return fmt.Sprintf("%s (Code: %s). %s", msg.Message, msg.Code, msg.Action)
}

// IsUserFacing reports whether err maps to a specific message rather than
// the generic ERR000 fallback.
func IsUserFacing(err error) bool {
	if err == nil {
		return false
	}
	return MapError(err).Code != defaultMessage.Code
}
