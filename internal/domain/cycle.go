// Package domain defines the core types of the homework status bot: the
// verdict table, the status API contract, the error taxonomy, and the Cycle
// journal entity persisted with GORM.
package domain

import "time"

// Cycle outcomes.
const (
	OutcomeIdle     = "idle"     // no homework in the response
	OutcomeNotified = "notified" // a status message was produced
	OutcomeFailed   = "failed"   // the cycle raised an error and reported it
)

// Cycle records one iteration of the polling loop: fetch, validate, parse,
// notify. Rows are append-only and are never read back by the loop.
//
// Fields:
//   - ID: ULID primary key (time-sortable, char(26)).
//   - FromDate: the from_date UNIX timestamp sent upstream.
//   - StartedAt / FinishedAt: wall-clock bounds of the cycle.
//   - Outcome: idle, notified, or failed.
//   - HomeworkName / Status: the first homework record, when one was parsed.
//   - Message: the chat text produced (status message or failure report).
//   - ErrorKind / Error: the failure classification and text, if any.
//   - Delivered: whether the chat message reached Telegram.
type Cycle struct {
	ID           string    `json:"id"            gorm:"type:char(26);primaryKey"`
	FromDate     int64     `json:"from_date"     gorm:"not null"`
	StartedAt    time.Time `json:"started_at"    gorm:"not null;index:idx_cycles_started"`
	FinishedAt   time.Time `json:"finished_at"`
	Outcome      string    `json:"outcome"       gorm:"type:varchar(16);not null;index;check:outcome IN ('idle','notified','failed')"`
	HomeworkName string    `json:"homework_name,omitempty" gorm:"type:varchar(255)"`
	Status       string    `json:"status,omitempty"        gorm:"type:varchar(32)"`
	Message      string    `json:"message,omitempty"       gorm:"type:text"`
	ErrorKind    string    `json:"error_kind,omitempty"    gorm:"type:varchar(16)"`
	Error        string    `json:"error,omitempty"         gorm:"type:text"`
	Delivered    bool      `json:"delivered"     gorm:"not null;default:false"`
}

// TableName returns the database table name for Cycle.
func (Cycle) TableName() string { return "cycles" }

// Duration reports how long the cycle took.
func (c Cycle) Duration() time.Duration {
	if c.FinishedAt.IsZero() {
		return 0
	}
	return c.FinishedAt.Sub(c.StartedAt)
}
