// Package services – CycleService
//
// CycleService is the read side of the cycle journal used by the operator
// API. It applies pagination defaults and maps missing rows and a disabled
// journal to service errors so handlers can translate them consistently.
package services

import (
	"context"
	"errors"
	"time"

	"gorm.io/gorm"

	"github.com/tbourn/homework-bot/internal/domain"
)

// CycleRepo defines the repository contract required by CycleService.
type CycleRepo interface {
	// GetCycle fetches one cycle by ID.
	GetCycle(ctx context.Context, db *gorm.DB, id string) (*domain.Cycle, error)

	// CountCycles returns the number of cycles with the outcome ("" for all).
	CountCycles(ctx context.Context, db *gorm.DB, outcome string) (int64, error)

	// ListCyclesPage returns a page of cycles, newest first.
	ListCyclesPage(ctx context.Context, db *gorm.DB, outcome string, offset, limit int) ([]domain.Cycle, error)

	// CyclesStats returns the count and newest StartedAt for ETag generation.
	CyclesStats(ctx context.Context, db *gorm.DB, outcome string) (int64, *time.Time, error)
}

// CycleService provides journal reads. A nil DB means the journal is off.
type CycleService struct {
	DB   *gorm.DB
	Repo CycleRepo
}

// NewCycleService constructs a CycleService.
func NewCycleService(db *gorm.DB, r CycleRepo) *CycleService {
	return &CycleService{DB: db, Repo: r}
}

// Enabled reports whether journal reads are possible.
func (s *CycleService) Enabled() bool { return s != nil && s.DB != nil && s.Repo != nil }

// ListPage returns a page of cycles and the total matching outcome.
// Invalid page/pageSize fall back to 1 and 20.
func (s *CycleService) ListPage(ctx context.Context, outcome string, page, pageSize int) ([]domain.Cycle, int64, error) {
	if !s.Enabled() {
		return nil, 0, ErrJournalDisabled
	}
	if page < 1 {
		page = 1
	}
	if pageSize <= 0 {
		pageSize = 20
	}
	offset := (page - 1) * pageSize

	total, err := s.Repo.CountCycles(ctx, s.DB, outcome)
	if err != nil {
		return nil, 0, err
	}
	if total == 0 {
		return []domain.Cycle{}, 0, nil
	}

	items, err := s.Repo.ListCyclesPage(ctx, s.DB, outcome, offset, pageSize)
	return items, total, err
}

// Get returns one cycle or ErrCycleNotFound.
func (s *CycleService) Get(ctx context.Context, id string) (*domain.Cycle, error) {
	if !s.Enabled() {
		return nil, ErrJournalDisabled
	}
	c, err := s.Repo.GetCycle(ctx, s.DB, id)
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, ErrCycleNotFound
	}
	return c, err
}

// Stats returns the count and newest StartedAt of cycles matching outcome.
func (s *CycleService) Stats(ctx context.Context, outcome string) (int64, *time.Time, error) {
	if !s.Enabled() {
		return 0, nil, ErrJournalDisabled
	}
	return s.Repo.CyclesStats(ctx, s.DB, outcome)
}
