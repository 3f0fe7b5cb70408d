package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/tbourn/homework-bot/internal/domain"
)

// GetStatus godoc
// @ID          getStatus
// @Summary     Polling loop status
// @Description Returns the last cycle (null before the first one finishes), the retry period, and when the next cycle is due.
// @Tags        Status
// @Produce     json
// @Success     200  {object}  handlers.StatusResponse
// @Router      /status [get]
func (h *Handlers) GetStatus(c *gin.Context) {
	resp := StatusResponse{
		RetryPeriodSeconds: h.status.RetryPeriod().Seconds(),
		JournalEnabled:     h.cycles != nil && h.cycles.Enabled(),
	}
	if last, found := h.status.Last(); found {
		resp.LastCycle = &last
		next := last.FinishedAt.Add(h.status.RetryPeriod())
		resp.NextCycleAt = &next
	}
	c.Header("Cache-Control", "no-store")
	ok(c, http.StatusOK, resp)
}

// ListVerdicts godoc
// @ID          listVerdicts
// @Summary     Verdict table
// @Description Returns the review status to verdict text table, sorted by status.
// @Tags        Status
// @Produce     json
// @Success     200  {array}  handlers.VerdictItem
// @Router      /verdicts [get]
func (h *Handlers) ListVerdicts(c *gin.Context) {
	statuses := domain.Statuses()
	out := make([]VerdictItem, 0, len(statuses))
	for _, s := range statuses {
		v, err := domain.Verdict(s)
		if err != nil {
			fail(c, http.StatusInternalServerError, ErrCodeInternal, err.Error())
			return
		}
		out = append(out, VerdictItem{Status: s, Verdict: v})
	}
	ok(c, http.StatusOK, out)
}
