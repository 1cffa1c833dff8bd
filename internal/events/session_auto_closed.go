package events

import "time"

const SessionAutoClosedTopic = "hr.time.session.v1"

// SessionAutoClosedEvent is emitted when the daily sweep force-completes a
// session that was left open past the cutoff.
type SessionAutoClosedEvent struct {
	EventType        string    `json:"event_type"`
	SessionID        string    `json:"session_id"`
	EmployeeID       string    `json:"employee_id"`
	SessionDate      string    `json:"session_date"`
	TotalWorkSeconds int64     `json:"total_work_seconds"`
	OccurredAt       time.Time `json:"occurred_at"`
}
