package entities

import "time"

// SessionStatus represents the final state of a generation session.
type SessionStatus string

// Session statuses.
const (
	SessionRunning   SessionStatus = "running"
	SessionCompleted SessionStatus = "completed"
	SessionCancelled SessionStatus = "cancelled"
	SessionFailed    SessionStatus = "failed"
)

// Session records one generation run over one input document.
type Session struct {
	ID           string        `json:"id"`
	Model        string        `json:"model"`
	Source       string        `json:"source"`
	Status       SessionStatus `json:"status"`
	CardsEmitted int           `json:"cards_emitted"`
	SpansSkipped int           `json:"spans_skipped"`
	Error        string        `json:"error,omitempty"`
	StartedAt    time.Time     `json:"started_at"`
	FinishedAt   *time.Time    `json:"finished_at,omitempty"`
}

// Duration returns how long the session ran, or zero if it is still running.
func (s *Session) Duration() time.Duration {
	if s.FinishedAt == nil {
		return 0
	}
	return s.FinishedAt.Sub(s.StartedAt)
}
