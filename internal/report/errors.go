package report

import "errors"

// Domain errors for export generation.
var (
	// ErrNoRecords means the user has nothing to export. A user-visible
	// condition, not a system fault.
	ErrNoRecords = errors.New("no records to export")

	// ErrTemplateNotFound means the fixed-layout template is missing.
	// Fatal for the request, never retried.
	ErrTemplateNotFound = errors.New("template file not found")
)
