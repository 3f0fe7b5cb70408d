// Package services – Poller
//
// Poller runs the bot's main loop: one cycle fetches statuses changed since
// "now", validates the answer, turns the most recent homework into a chat
// message, and delivers it. Any failure inside a cycle is reported to the
// same chat and the loop carries on after the retry period.
package services

import (
	"context"
	"errors"
	"sync"
	"time"

	"github.com/rs/zerolog/log"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"

	"github.com/tbourn/homework-bot/internal/domain"
	"github.com/tbourn/homework-bot/internal/ids"
)

var tracer = otel.Tracer("github.com/tbourn/homework-bot/internal/services")

// DefaultRetryPeriod is the pause between cycles when none is configured.
const DefaultRetryPeriod = 600 * time.Second

// APIClient fetches the status API answer for a from_date timestamp.
type APIClient interface {
	GetAPIAnswer(ctx context.Context, fromDate int64) (domain.APIResponse, error)
}

// Notifier delivers chat text. It reports delivery and never fails.
type Notifier interface {
	SendMessage(ctx context.Context, text string) bool
}

// Journal persists finished cycles. The poller never reads from it.
type Journal interface {
	Record(ctx context.Context, c domain.Cycle) error
}

// PollerConfig wires a Poller. Journal and Now are optional.
type PollerConfig struct {
	Client      APIClient
	Notifier    Notifier
	Journal     Journal
	RetryPeriod time.Duration
	Now         func() time.Time
}

// Poller runs polling cycles sequentially and keeps the last one in memory
// for the operator API.
type Poller struct {
	client   APIClient
	notifier Notifier
	journal  Journal
	retry    time.Duration
	now      func() time.Time

	mu      sync.RWMutex
	last    domain.Cycle
	hasLast bool
}

// NewPoller constructs a Poller, defaulting the retry period and clock.
func NewPoller(cfg PollerConfig) *Poller {
	p := &Poller{
		client:   cfg.Client,
		notifier: cfg.Notifier,
		journal:  cfg.Journal,
		retry:    cfg.RetryPeriod,
		now:      cfg.Now,
	}
	if p.retry <= 0 {
		p.retry = DefaultRetryPeriod
	}
	if p.now == nil {
		p.now = time.Now
	}
	return p
}

// RetryPeriod returns the pause between cycles.
func (p *Poller) RetryPeriod() time.Duration { return p.retry }

// Run executes cycles until ctx is cancelled, waiting the retry period after
// each one. It returns ctx.Err().
func (p *Poller) Run(ctx context.Context) error {
	log.Info().Dur("retry_period", p.retry).Msg("polling started")

	for {
		if err := ctx.Err(); err != nil {
			log.Info().Msg("polling stopped")
			return err
		}
		p.RunCycle(ctx)

		timer := time.NewTimer(p.retry)
		select {
		case <-ctx.Done():
		case <-timer.C:
		}
		timer.Stop()
	}
}

// RunCycle performs one fetch, validate, parse, notify pass and returns the
// journal record for it. Errors never escape: they are logged, sent to the
// chat as a failure report, and stored on the returned Cycle.
func (p *Poller) RunCycle(ctx context.Context) domain.Cycle {
	start := p.now()
	ctx, span := tracer.Start(ctx, "Poller.RunCycle")
	defer span.End()

	c := domain.Cycle{
		ID:        ids.NewCycleID(start),
		FromDate:  start.Unix(),
		StartedAt: start,
	}

	msg, err := p.poll(ctx, &c)
	notified := false
	switch {
	case err != nil && ctx.Err() != nil && errors.Is(err, ctx.Err()):
		// Shutdown interrupted the request; nothing to report to the chat.
		c.Outcome = domain.OutcomeFailed
		c.ErrorKind = domain.KindOf(err).String()
		c.Error = err.Error()
		log.Info().Err(err).Msg("polling cycle interrupted")

	case err != nil:
		c.Outcome = domain.OutcomeFailed
		c.ErrorKind = domain.KindOf(err).String()
		c.Error = err.Error()
		c.Message = domain.FailureMessage(err)
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		log.Error().Err(err).Str("kind", c.ErrorKind).Msg("polling cycle failed")

		c.Delivered = p.notifier.SendMessage(ctx, c.Message)
		notified = true

	case msg == "":
		c.Outcome = domain.OutcomeIdle
		log.Debug().Int64("from_date", c.FromDate).Msg("no status changes")

	default:
		c.Outcome = domain.OutcomeNotified
		c.Message = msg
		c.Delivered = p.notifier.SendMessage(ctx, msg)
		notified = true
	}
	c.FinishedAt = p.now()

	span.SetAttributes(
		attribute.String("cycle.id", c.ID),
		attribute.String("cycle.outcome", c.Outcome),
		attribute.Bool("cycle.delivered", c.Delivered),
	)
	observeCycle(c, notified)
	p.setLast(c)

	if p.journal != nil {
		if jerr := p.journal.Record(context.WithoutCancel(ctx), c); jerr != nil {
			log.Error().Err(jerr).Str("cycle_id", c.ID).Msg("failed to record cycle")
		}
	}
	return c
}

// poll returns the status message for the newest homework, "" when the
// answer lists none, or the first error encountered.
func (p *Poller) poll(ctx context.Context, c *domain.Cycle) (string, error) {
	resp, err := p.client.GetAPIAnswer(ctx, c.FromDate)
	if err != nil {
		return "", err
	}
	list, err := CheckResponse(resp)
	if err != nil {
		return "", err
	}
	if len(list) == 0 {
		return "", nil
	}

	if rec, ok := list[0].(domain.HomeworkRecord); ok {
		c.HomeworkName, _ = rec[domain.FieldHomeworkName].(string)
		c.Status, _ = rec[domain.FieldStatus].(string)
	}
	return ParseStatus(list[0])
}

// Last returns the most recent cycle, if any has run.
func (p *Poller) Last() (domain.Cycle, bool) {
	p.mu.RLock()
	defer p.mu.RUnlock()
	return p.last, p.hasLast
}

func (p *Poller) setLast(c domain.Cycle) {
	p.mu.Lock()
	p.last = c
	p.hasLast = true
	p.mu.Unlock()
}
