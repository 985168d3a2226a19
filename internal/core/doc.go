// Package core provides the business logic for importing structured records.
//
// The package knows nothing about HTTP or the command line; the web server
// and the importer CLI drive the same [Service].
//
// # Entity Registry
//
// Each importable entity is described by an [EntityTemplate] registered at
// init time with [Register]. A template lists the target fields, the
// required subset, header aliases, defaults, natural keys used for
// duplicate detection and the entities it references:
//
//	core.Register(core.EntityTemplate{
//	    Key:         "contacts",
//	    Fields:      []string{"name", "document", "email"},
//	    Required:    []string{"name"},
//	    Aliases:     map[string][]string{"name": {"nome", "razao_social"}},
//	    NaturalKeys: []string{"document", "email"},
//	})
//
// # Import Pipeline
//
// Input bytes are decoded ([DecodeText]), split into Source Rows
// ([ParseDelimited], [ParseStructured]) and driven one at a time through
// [Resolve], [Coerce], [Validate], the [DuplicateDetector] and the [Store].
// Every row yields exactly one Outcome; the batch result aggregates them.
// A single tenant runs one batch at a time, see [ImportLimiter].
//
// [Service.PreviewDelimited] and [Service.PreviewDocument] run the same
// pipeline against an in-memory overlay and persist nothing.
//
// # Lifecycle
//
// [Service.ExportAll], [Service.RestoreBackup] and the delete operations
// work across every registered entity. Ordering between entities comes from
// [DeletionOrder], derived from each template's References.
//
// # Error Handling
//
// Batch-level failures are go-errors envelopes carrying an HTTP status and a
// text code. [MapError] turns any error into a [UserError] with a support
// code:
//
//   - IMP001-IMP009: batch-level import errors
//   - VAL001-VAL004: record validation
//   - DB001-DB009: store errors
//   - REQ001-REQ004, RATE001: request errors
package core
