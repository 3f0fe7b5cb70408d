// Package repo implements the cycle journal on GORM. This file provides
// repository functions for the Cycle model.
//
// All functions are context-aware and accept a *gorm.DB handle. They follow
// the "thin repository" approach: no business logic, only persistence and
// query composition. A missing row yields ErrNotFound; other database errors
// are propagated as-is.
//
// List functions accept an optional outcome filter; "" matches every row.
// Results are ordered newest first (started_at, then id, descending).
package repo

import (
	"context"
	"errors"

	"gorm.io/gorm"

	"github.com/tbourn/homework-bot/internal/domain"
)

// ErrNotFound is returned when a requested record does not exist.
// It aliases gorm.ErrRecordNotFound.
var ErrNotFound = gorm.ErrRecordNotFound

// CreateCycle inserts one finished cycle. The caller assigns the ID.
func CreateCycle(ctx context.Context, db *gorm.DB, c *domain.Cycle) error {
	if c.ID == "" {
		return errors.New("cycle id is required")
	}
	return db.WithContext(ctx).Create(c).Error
}

// GetCycle fetches a cycle by ID, or ErrNotFound.
func GetCycle(ctx context.Context, db *gorm.DB, id string) (*domain.Cycle, error) {
	var c domain.Cycle
	if err := db.WithContext(ctx).Where("id = ?", id).First(&c).Error; err != nil {
		return nil, err
	}
	return &c, nil
}

// LatestCycle returns the most recently started cycle, or ErrNotFound when
// the journal is empty.
func LatestCycle(ctx context.Context, db *gorm.DB) (*domain.Cycle, error) {
	var c domain.Cycle
	err := db.WithContext(ctx).
		Order("started_at desc").
		Order("id desc").
		First(&c).Error
	if err != nil {
		return nil, err
	}
	return &c, nil
}

// CountCycles returns the number of journaled cycles with the given outcome.
func CountCycles(ctx context.Context, db *gorm.DB, outcome string) (int64, error) {
	var total int64
	err := byOutcome(db.WithContext(ctx).Model(&domain.Cycle{}), outcome).
		Count(&total).Error
	return total, err
}

// ListCyclesPage returns a page of cycles, newest first. Use CountCycles for
// the total.
func ListCyclesPage(ctx context.Context, db *gorm.DB, outcome string, offset, limit int) ([]domain.Cycle, error) {
	var out []domain.Cycle
	err := byOutcome(db.WithContext(ctx), outcome).
		Order("started_at desc").
		Order("id desc").
		Offset(offset).
		Limit(limit).
		Find(&out).Error
	return out, err
}

func byOutcome(q *gorm.DB, outcome string) *gorm.DB {
	if outcome == "" {
		return q
	}
	return q.Where("outcome = ?", outcome)
}

// Journal records cycles into the database. It satisfies services.Journal.
type Journal struct {
	DB *gorm.DB
}

// NewJournal returns a Journal writing to db.
func NewJournal(db *gorm.DB) *Journal { return &Journal{DB: db} }

// Record inserts c.
func (j *Journal) Record(ctx context.Context, c domain.Cycle) error {
	return CreateCycle(ctx, j.DB, &c)
}
