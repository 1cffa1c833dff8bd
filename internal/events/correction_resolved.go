package events

import "time"

const CorrectionResolvedTopic = "hr.time.correction.v1"

// CorrectionResolvedEvent is emitted through the outbox when an admin
// approves or rejects a time correction request. Downstream consumers
// (notification delivery) react to it; the session/request mutation never
// waits on them.
type CorrectionResolvedEvent struct {
	EventType   string    `json:"event_type"`
	RequestID   string    `json:"request_id"`
	EmployeeID  string    `json:"employee_id"`
	RequestDate string    `json:"request_date"`
	Status      string    `json:"status"`
	ReviewerID  string    `json:"reviewer_id"`
	OccurredAt  time.Time `json:"occurred_at"`
}
