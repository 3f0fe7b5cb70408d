// Package services implements the homework status bot: response validation,
// status parsing, the polling loop, and read access to the cycle journal.
// This file centralizes service-level error values returned to the handler
// layer, which maps them to HTTP results.
package services

import "errors"

var (
	// ErrCycleNotFound indicates that no journal row has the requested id.
	ErrCycleNotFound = errors.New("cycle not found")

	// ErrJournalDisabled is returned by journal reads when JOURNAL_ENABLED is off.
	ErrJournalDisabled = errors.New("cycle journal is disabled")
)
