// Package handlers exposes the read-only operator endpoints:
//   - GET /status        (last cycle snapshot and polling cadence)
//   - GET /verdicts      (the status → verdict table)
//   - GET /cycles        (journal, paginated, ETag support)
//   - GET /cycles/{id}   (one journal row)
//
// Handlers are transport-thin: they validate input, call services, and
// translate results into HTTP responses.
package handlers

import (
	"context"
	"time"

	"github.com/tbourn/homework-bot/internal/domain"
)

// CycleService is the journal read contract consumed by the handlers.
type CycleService interface {
	// Enabled reports whether the journal is configured.
	Enabled() bool
	// ListPage returns a page of cycles matching outcome and the total.
	ListPage(ctx context.Context, outcome string, page, pageSize int) ([]domain.Cycle, int64, error)
	// Get returns one cycle by ID.
	Get(ctx context.Context, id string) (*domain.Cycle, error)
	// Stats returns the count and newest StartedAt for ETag generation.
	Stats(ctx context.Context, outcome string) (int64, *time.Time, error)
}

// StatusSource exposes the poller's in-memory state.
type StatusSource interface {
	Last() (domain.Cycle, bool)
	RetryPeriod() time.Duration
}

// Handlers groups the operator endpoints.
type Handlers struct {
	cycles CycleService
	status StatusSource
}

// New constructs Handlers bound to the given services.
func New(cycles CycleService, status StatusSource) *Handlers {
	return &Handlers{cycles: cycles, status: status}
}

//
// DTOs
//

// Pagination carries pagination metadata for list responses.
type Pagination struct {
	Page       int   `json:"page"`
	PageSize   int   `json:"page_size"`
	Total      int64 `json:"total"`
	TotalPages int   `json:"total_pages"`
	HasNext    bool  `json:"has_next"`
}

// ListCyclesResponse wraps a page of cycles and pagination information.
type ListCyclesResponse struct {
	Cycles     []domain.Cycle `json:"cycles"`
	Pagination Pagination     `json:"pagination"`
}

// StatusResponse describes the polling loop as seen by the operator.
type StatusResponse struct {
	RetryPeriodSeconds float64       `json:"retry_period_seconds"`
	JournalEnabled     bool          `json:"journal_enabled"`
	LastCycle          *domain.Cycle `json:"last_cycle"`
	NextCycleAt        *time.Time    `json:"next_cycle_at,omitempty"`
}

// VerdictItem is one row of the verdict table.
type VerdictItem struct {
	Status  string `json:"status"`
	Verdict string `json:"verdict"`
}
