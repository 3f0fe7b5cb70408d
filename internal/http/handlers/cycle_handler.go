package handlers

import (
	"errors"
	"fmt"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/tbourn/homework-bot/internal/domain"
	"github.com/tbourn/homework-bot/internal/ids"
	"github.com/tbourn/homework-bot/internal/services"
	"github.com/tbourn/homework-bot/internal/utils"
)

const (
	defaultPageSize = 20
	maxPageSize     = 100
)

func validOutcome(o string) bool {
	switch o {
	case "", domain.OutcomeIdle, domain.OutcomeNotified, domain.OutcomeFailed:
		return true
	}
	return false
}

// ListCycles godoc
// @ID          listCycles
// @Summary     List polling cycles (paginated)
// @Description Returns journaled cycles, newest first. A weak ETag over the matching count and newest start time allows 304 responses.
// @Tags        Cycles
// @Produce     json
//
// @Param       If-None-Match  header  string  false "Return 304 if ETag matches"  example(W/\"cycles::1:20:3:0\")
// @Param       page           query   int     false "Page number"                  minimum(1) default(1)
// @Param       page_size      query   int     false "Items per page"               minimum(1) maximum(100) default(20)
// @Param       outcome        query   string  false "Filter by outcome"            Enums(idle, notified, failed)
//
// @Success     200  {object} handlers.ListCyclesResponse
// @Header      200  {string} ETag  "Weak ETag for current result"
// @Success     304  {string} string "Not Modified"
// @Failure     400  {object} handlers.ErrorResponse "Bad outcome filter"
// @Failure     500  {object} handlers.ErrorResponse "Internal error"
// @Failure     503  {object} handlers.ErrorResponse "Journal disabled"
// @Router      /cycles [get]
func (h *Handlers) ListCycles(c *gin.Context) {
	if h.cycles == nil || !h.cycles.Enabled() {
		fail(c, http.StatusServiceUnavailable, ErrCodeJournalDisabled, services.ErrJournalDisabled.Error())
		return
	}
	ctx := c.Request.Context()
	page, pageSize := utils.Page(c.Query("page"), c.Query("page_size"), defaultPageSize, maxPageSize)
	outcome := c.Query("outcome")
	if !validOutcome(outcome) {
		fail(c, http.StatusBadRequest, ErrCodeBadRequest, "outcome must be one of idle, notified, failed")
		return
	}

	// ETag pre-check (best effort).
	if count, maxTS, err := h.cycles.Stats(ctx, outcome); err == nil {
		var ts int64
		if maxTS != nil {
			ts = maxTS.UnixNano()
		}
		etag := fmt.Sprintf(`W/"cycles:%s:%d:%d:%d:%d"`, outcome, page, pageSize, count, ts)
		c.Header("ETag", etag)
		if inm := c.GetHeader("If-None-Match"); inm != "" && inm == etag {
			c.Status(http.StatusNotModified)
			return
		}
	}

	items, total, err := h.cycles.ListPage(ctx, outcome, page, pageSize)
	if err != nil {
		fail(c, http.StatusInternalServerError, ErrCodeListFailed, err.Error())
		return
	}

	totalPages := utils.TotalPages(total, pageSize)
	ok(c, http.StatusOK, ListCyclesResponse{
		Cycles: items,
		Pagination: Pagination{
			Page:       page,
			PageSize:   pageSize,
			Total:      total,
			TotalPages: totalPages,
			HasNext:    page < totalPages,
		},
	})
}

// GetCycle godoc
// @ID          getCycle
// @Summary     Get one polling cycle
// @Tags        Cycles
// @Produce     json
// @Param       id   path      string  true  "Cycle ULID"
// @Success     200  {object}  domain.Cycle
// @Failure     400  {object}  handlers.ErrorResponse "Malformed id"
// @Failure     404  {object}  handlers.ErrorResponse "Not found"
// @Failure     503  {object}  handlers.ErrorResponse "Journal disabled"
// @Router      /cycles/{id} [get]
func (h *Handlers) GetCycle(c *gin.Context) {
	if h.cycles == nil || !h.cycles.Enabled() {
		fail(c, http.StatusServiceUnavailable, ErrCodeJournalDisabled, services.ErrJournalDisabled.Error())
		return
	}
	id := c.Param("id")
	if !ids.Valid(id) {
		fail(c, http.StatusBadRequest, ErrCodeBadRequest, "cycle id must be a ULID")
		return
	}

	cy, err := h.cycles.Get(c.Request.Context(), id)
	switch {
	case errors.Is(err, services.ErrCycleNotFound):
		fail(c, http.StatusNotFound, ErrCodeNotFound, "cycle not found")
	case err != nil:
		fail(c, http.StatusInternalServerError, ErrCodeInternal, err.Error())
	default:
		ok(c, http.StatusOK, cy)
	}
}
