// Package handlers defines the error codes returned by the operator API.
//
// Codes are lowercase snake_case and stable; clients branch on them rather
// than on message text. Every error response carries an HTTP status and one
// of these codes (see fail in response.go).
package handlers

const (
	ErrCodeBadRequest       = "bad_request"
	ErrCodeNotFound         = "not_found"
	ErrCodeMethodNotAllowed = "method_not_allowed"
	ErrCodeRateLimited      = "too_many_requests"
	ErrCodeInternal         = "internal_error"

	// Domain-specific:
	ErrCodeListFailed      = "list_failed"
	ErrCodeJournalDisabled = "journal_disabled"
)
