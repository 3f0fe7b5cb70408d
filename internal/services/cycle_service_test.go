package services

import (
	"context"
	"errors"
	"testing"
	"time"

	"gorm.io/gorm"

	"github.com/tbourn/homework-bot/internal/domain"
)

// ----- Fake repo -----

type fakeCycleRepo struct {
	getID    string
	getCycle *domain.Cycle
	getErr   error

	countOutcome string
	countTotal   int64
	countErr     error

	pageOutcome string
	pageOffset  int
	pageLimit   int
	pageItems   []domain.Cycle
	pageErr     error
	pageCalled  bool

	statsCount int64
	statsMax   *time.Time
	statsErr   error
}

func (r *fakeCycleRepo) GetCycle(ctx context.Context, db *gorm.DB, id string) (*domain.Cycle, error) {
	r.getID = id
	return r.getCycle, r.getErr
}

func (r *fakeCycleRepo) CountCycles(ctx context.Context, db *gorm.DB, outcome string) (int64, error) {
	r.countOutcome = outcome
	return r.countTotal, r.countErr
}

func (r *fakeCycleRepo) ListCyclesPage(ctx context.Context, db *gorm.DB, outcome string, offset, limit int) ([]domain.Cycle, error) {
	r.pageCalled = true
	r.pageOutcome, r.pageOffset, r.pageLimit = outcome, offset, limit
	return r.pageItems, r.pageErr
}

func (r *fakeCycleRepo) CyclesStats(ctx context.Context, db *gorm.DB, outcome string) (int64, *time.Time, error) {
	return r.statsCount, r.statsMax, r.statsErr
}

func newCycleSvc(r *fakeCycleRepo) *CycleService {
	return NewCycleService(&gorm.DB{}, r)
}

// ----- Tests -----

func TestCycleService_ListPage_DefaultsAndOffset(t *testing.T) {
	r := &fakeCycleRepo{countTotal: 45, pageItems: []domain.Cycle{{ID: "a"}, {ID: "b"}}}
	s := newCycleSvc(r)

	items, total, err := s.ListPage(context.Background(), "failed", 0, 0)
	if err != nil {
		t.Fatalf("ListPage: %v", err)
	}
	if total != 45 || len(items) != 2 {
		t.Fatalf("got total=%d items=%d", total, len(items))
	}
	if r.pageOffset != 0 || r.pageLimit != 20 || r.pageOutcome != "failed" || r.countOutcome != "failed" {
		t.Fatalf("unexpected repo args: %+v", r)
	}

	if _, _, err := s.ListPage(context.Background(), "", 3, 10); err != nil {
		t.Fatalf("ListPage: %v", err)
	}
	if r.pageOffset != 20 || r.pageLimit != 10 {
		t.Fatalf("offset/limit = %d/%d; want 20/10", r.pageOffset, r.pageLimit)
	}
}

func TestCycleService_ListPage_EmptySkipsPageQuery(t *testing.T) {
	r := &fakeCycleRepo{countTotal: 0}
	items, total, err := newCycleSvc(r).ListPage(context.Background(), "", 1, 20)
	if err != nil || total != 0 || items == nil || len(items) != 0 {
		t.Fatalf("got items=%v total=%d err=%v", items, total, err)
	}
	if r.pageCalled {
		t.Fatalf("page query should be skipped when count is 0")
	}
}

func TestCycleService_ListPage_CountError(t *testing.T) {
	boom := errors.New("db down")
	_, _, err := newCycleSvc(&fakeCycleRepo{countErr: boom}).ListPage(context.Background(), "", 1, 20)
	if !errors.Is(err, boom) {
		t.Fatalf("err = %v; want %v", err, boom)
	}
}

func TestCycleService_Get(t *testing.T) {
	r := &fakeCycleRepo{getCycle: &domain.Cycle{ID: "x"}}
	c, err := newCycleSvc(r).Get(context.Background(), "x")
	if err != nil || c.ID != "x" || r.getID != "x" {
		t.Fatalf("Get = %+v, %v", c, err)
	}

	r = &fakeCycleRepo{getErr: gorm.ErrRecordNotFound}
	if _, err := newCycleSvc(r).Get(context.Background(), "y"); !errors.Is(err, ErrCycleNotFound) {
		t.Fatalf("err = %v; want ErrCycleNotFound", err)
	}
}

func TestCycleService_Stats(t *testing.T) {
	ts := time.Date(2025, 1, 1, 0, 0, 0, 0, time.UTC)
	n, maxAt, err := newCycleSvc(&fakeCycleRepo{statsCount: 7, statsMax: &ts}).Stats(context.Background(), "")
	if err != nil || n != 7 || maxAt == nil || !maxAt.Equal(ts) {
		t.Fatalf("Stats = %d, %v, %v", n, maxAt, err)
	}
}

func TestCycleService_Disabled(t *testing.T) {
	for name, s := range map[string]*CycleService{
		"nil service": nil,
		"nil db":      NewCycleService(nil, &fakeCycleRepo{}),
	} {
		t.Run(name, func(t *testing.T) {
			if s.Enabled() {
				t.Fatal("Enabled() should be false")
			}
			if _, _, err := s.ListPage(context.Background(), "", 1, 20); !errors.Is(err, ErrJournalDisabled) {
				t.Fatalf("ListPage err = %v", err)
			}
			if _, err := s.Get(context.Background(), "x"); !errors.Is(err, ErrJournalDisabled) {
				t.Fatalf("Get err = %v", err)
			}
			if _, _, err := s.Stats(context.Background(), ""); !errors.Is(err, ErrJournalDisabled) {
				t.Fatalf("Stats err = %v", err)
			}
		})
	}
}
