package handlers

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"testing"
	"time"

	"github.com/gin-gonic/gin"

	sqlite "github.com/glebarez/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"

	"github.com/tbourn/homework-bot/internal/domain"
	"github.com/tbourn/homework-bot/internal/ids"
	"github.com/tbourn/homework-bot/internal/repo"
	"github.com/tbourn/homework-bot/internal/services"
)

// ---------- test DB + repo shim ----------

func newCycleDB(t *testing.T) *gorm.DB {
	t.Helper()
	dsn := filepath.Join(t.TempDir(), fmt.Sprintf("cycle_handlers_%d.db", time.Now().UnixNano()))
	db, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{
		Logger: logger.Default.LogMode(logger.Silent),
	})
	if err != nil {
		t.Fatalf("open sqlite: %v", err)
	}
	t.Cleanup(func() {
		if sqlDB, err := db.DB(); err == nil {
			_ = sqlDB.Close()
		}
	})
	if err := repo.AutoMigrate(db); err != nil {
		t.Fatalf("migrate: %v", err)
	}
	return db
}

// testCycleRepo implements services.CycleRepo using the repo package (like router.go).
type testCycleRepo struct{}

func (testCycleRepo) GetCycle(ctx context.Context, db *gorm.DB, id string) (*domain.Cycle, error) {
	return repo.GetCycle(ctx, db, id)
}

func (testCycleRepo) CountCycles(ctx context.Context, db *gorm.DB, outcome string) (int64, error) {
	return repo.CountCycles(ctx, db, outcome)
}

func (testCycleRepo) ListCyclesPage(ctx context.Context, db *gorm.DB, outcome string, offset, limit int) ([]domain.Cycle, error) {
	return repo.ListCyclesPage(ctx, db, outcome, offset, limit)
}

func (testCycleRepo) CyclesStats(ctx context.Context, db *gorm.DB, outcome string) (int64, *time.Time, error) {
	return repo.CyclesStats(ctx, db, outcome)
}

func seed(t *testing.T, db *gorm.DB, outcomes ...string) []domain.Cycle {
	t.Helper()
	base := time.Date(2025, 6, 1, 8, 0, 0, 0, time.UTC)
	var out []domain.Cycle
	for i, o := range outcomes {
		start := base.Add(time.Duration(i) * 10 * time.Minute)
		c := domain.Cycle{ID: ids.NewCycleID(start), FromDate: start.Unix(), StartedAt: start, FinishedAt: start.Add(time.Second), Outcome: o}
		if err := repo.CreateCycle(context.Background(), db, &c); err != nil {
			t.Fatalf("seed: %v", err)
		}
		out = append(out, c)
	}
	return out
}

type stubStatus struct {
	last  domain.Cycle
	found bool
	retry time.Duration
}

func (s stubStatus) Last() (domain.Cycle, bool)  { return s.last, s.found }
func (s stubStatus) RetryPeriod() time.Duration { return s.retry }

func newRouter(h *Handlers) *gin.Engine {
	gin.SetMode(gin.TestMode)
	r := gin.New()
	r.GET("/cycles", h.ListCycles)
	r.GET("/cycles/:id", h.GetCycle)
	r.GET("/status", h.GetStatus)
	r.GET("/verdicts", h.ListVerdicts)
	return r
}

func get(r http.Handler, path string, hdr ...string) *httptest.ResponseRecorder {
	w := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodGet, path, nil)
	for i := 0; i+1 < len(hdr); i += 2 {
		req.Header.Set(hdr[i], hdr[i+1])
	}
	r.ServeHTTP(w, req)
	return w
}

// ---------- /cycles ----------

func TestListCycles_PaginationAndETag(t *testing.T) {
	db := newCycleDB(t)
	seeded := seed(t, db, domain.OutcomeIdle, domain.OutcomeFailed, domain.OutcomeNotified)
	r := newRouter(New(services.NewCycleService(db, testCycleRepo{}), stubStatus{}))

	w := get(r, "/cycles?page=1&page_size=2")
	if w.Code != http.StatusOK {
		t.Fatalf("status=%d body=%s", w.Code, w.Body.String())
	}
	var resp ListCyclesResponse
	if err := json.Unmarshal(w.Body.Bytes(), &resp); err != nil {
		t.Fatalf("json: %v", err)
	}
	if len(resp.Cycles) != 2 || resp.Cycles[0].ID != seeded[2].ID {
		t.Fatalf("want newest first, got %+v", resp.Cycles)
	}
	p := resp.Pagination
	if p.Total != 3 || p.TotalPages != 2 || !p.HasNext || p.PageSize != 2 {
		t.Fatalf("pagination = %+v", p)
	}

	etag := w.Header().Get("ETag")
	if etag == "" {
		t.Fatalf("missing ETag")
	}
	if w := get(r, "/cycles?page=1&page_size=2", "If-None-Match", etag); w.Code != http.StatusNotModified {
		t.Fatalf("If-None-Match should yield 304, got %d", w.Code)
	}

	// A new cycle invalidates the tag.
	seed(t, db, domain.OutcomeIdle, domain.OutcomeIdle, domain.OutcomeIdle, domain.OutcomeIdle)
	if w := get(r, "/cycles?page=1&page_size=2", "If-None-Match", etag); w.Code != http.StatusOK {
		t.Fatalf("stale ETag should yield 200, got %d", w.Code)
	}
}

func TestListCycles_OutcomeFilter(t *testing.T) {
	db := newCycleDB(t)
	seed(t, db, domain.OutcomeIdle, domain.OutcomeFailed, domain.OutcomeFailed)
	r := newRouter(New(services.NewCycleService(db, testCycleRepo{}), stubStatus{}))

	w := get(r, "/cycles?outcome=failed")
	var resp ListCyclesResponse
	if err := json.Unmarshal(w.Body.Bytes(), &resp); err != nil {
		t.Fatalf("json: %v", err)
	}
	if resp.Pagination.Total != 2 || len(resp.Cycles) != 2 {
		t.Fatalf("filtered = %+v", resp)
	}

	if w := get(r, "/cycles?outcome=exploded"); w.Code != http.StatusBadRequest {
		t.Fatalf("bad outcome should be 400, got %d", w.Code)
	}
}

func TestListCycles_EmptyJournal(t *testing.T) {
	db := newCycleDB(t)
	r := newRouter(New(services.NewCycleService(db, testCycleRepo{}), stubStatus{}))

	w := get(r, "/cycles")
	var resp ListCyclesResponse
	if err := json.Unmarshal(w.Body.Bytes(), &resp); err != nil {
		t.Fatalf("json: %v", err)
	}
	if resp.Cycles == nil || len(resp.Cycles) != 0 || resp.Pagination.TotalPages != 0 || resp.Pagination.HasNext {
		t.Fatalf("unexpected empty response: %s", w.Body.String())
	}
}

type failingCycles struct{}

func (failingCycles) Enabled() bool { return true }
func (failingCycles) ListPage(context.Context, string, int, int) ([]domain.Cycle, int64, error) {
	return nil, 0, errors.New("db down")
}
func (failingCycles) Stats(context.Context, string) (int64, *time.Time, error) {
	return 0, nil, errors.New("db down")
}
func (failingCycles) Get(context.Context, string) (*domain.Cycle, error) {
	return nil, errors.New("db down")
}

func TestListCycles_ServiceError(t *testing.T) {
	r := newRouter(New(failingCycles{}, stubStatus{}))
	w := get(r, "/cycles")
	if w.Code != http.StatusInternalServerError {
		t.Fatalf("status=%d", w.Code)
	}
	var resp ErrorResponse
	_ = json.Unmarshal(w.Body.Bytes(), &resp)
	if resp.Code != ErrCodeListFailed {
		t.Fatalf("code = %q", resp.Code)
	}
	if w.Header().Get("ETag") != "" {
		t.Fatalf("no ETag when stats fail")
	}
}

func TestCycles_JournalDisabled(t *testing.T) {
	for _, svc := range []CycleService{nil, services.NewCycleService(nil, testCycleRepo{})} {
		r := newRouter(New(svc, stubStatus{}))
		for _, p := range []string{"/cycles", "/cycles/" + ids.NewCycleID(time.Now())} {
			w := get(r, p)
			if w.Code != http.StatusServiceUnavailable {
				t.Fatalf("%s: status=%d", p, w.Code)
			}
			var resp ErrorResponse
			_ = json.Unmarshal(w.Body.Bytes(), &resp)
			if resp.Code != ErrCodeJournalDisabled {
				t.Fatalf("%s: code = %q", p, resp.Code)
			}
		}
	}
}

// ---------- /cycles/:id ----------

func TestGetCycle(t *testing.T) {
	db := newCycleDB(t)
	seeded := seed(t, db, domain.OutcomeNotified)
	r := newRouter(New(services.NewCycleService(db, testCycleRepo{}), stubStatus{}))

	w := get(r, "/cycles/"+seeded[0].ID)
	if w.Code != http.StatusOK {
		t.Fatalf("status=%d", w.Code)
	}
	var got domain.Cycle
	if err := json.Unmarshal(w.Body.Bytes(), &got); err != nil || got.ID != seeded[0].ID {
		t.Fatalf("body = %s (%v)", w.Body.String(), err)
	}

	if w := get(r, "/cycles/not-a-ulid"); w.Code != http.StatusBadRequest {
		t.Fatalf("malformed id should be 400, got %d", w.Code)
	}
	if w := get(r, "/cycles/"+ids.NewCycleID(time.Now())); w.Code != http.StatusNotFound {
		t.Fatalf("absent id should be 404, got %d", w.Code)
	}
}

func TestGetCycle_ServiceError(t *testing.T) {
	r := newRouter(New(failingCycles{}, stubStatus{}))
	if w := get(r, "/cycles/"+ids.NewCycleID(time.Now())); w.Code != http.StatusInternalServerError {
		t.Fatalf("status=%d", w.Code)
	}
}

// ---------- /status, /verdicts ----------

func TestGetStatus(t *testing.T) {
	r := newRouter(New(nil, stubStatus{retry: 10 * time.Minute}))
	w := get(r, "/status")
	var resp StatusResponse
	if err := json.Unmarshal(w.Body.Bytes(), &resp); err != nil {
		t.Fatalf("json: %v", err)
	}
	if resp.LastCycle != nil || resp.NextCycleAt != nil || resp.RetryPeriodSeconds != 600 || resp.JournalEnabled {
		t.Fatalf("before first cycle: %+v", resp)
	}
	if w.Header().Get("Cache-Control") != "no-store" {
		t.Fatalf("status must not be cached")
	}

	fin := time.Date(2025, 6, 1, 8, 0, 1, 0, time.UTC)
	last := domain.Cycle{ID: ids.NewCycleID(fin), StartedAt: fin.Add(-time.Second), FinishedAt: fin, Outcome: domain.OutcomeIdle}
	r = newRouter(New(services.NewCycleService(newCycleDB(t), testCycleRepo{}), stubStatus{last: last, found: true, retry: time.Minute}))
	w = get(r, "/status")
	resp = StatusResponse{}
	if err := json.Unmarshal(w.Body.Bytes(), &resp); err != nil {
		t.Fatalf("json: %v", err)
	}
	if resp.LastCycle == nil || resp.LastCycle.ID != last.ID || !resp.JournalEnabled {
		t.Fatalf("after a cycle: %+v", resp)
	}
	if resp.NextCycleAt == nil || !resp.NextCycleAt.Equal(fin.Add(time.Minute)) {
		t.Fatalf("next cycle at = %v", resp.NextCycleAt)
	}
}

func TestListVerdicts(t *testing.T) {
	r := newRouter(New(nil, stubStatus{}))
	w := get(r, "/verdicts")
	var items []VerdictItem
	if err := json.Unmarshal(w.Body.Bytes(), &items); err != nil {
		t.Fatalf("json: %v", err)
	}
	if len(items) != 3 || items[0].Status != "approved" || items[1].Status != "rejected" || items[2].Status != "reviewing" {
		t.Fatalf("verdicts = %+v", items)
	}
	if items[0].Verdict != "Работа проверена: ревьюеру всё понравилось. Ура!" {
		t.Fatalf("approved verdict = %q", items[0].Verdict)
	}
}
