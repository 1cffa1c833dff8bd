package correction

import (
	"encoding/json"
	"time"
)

type CreateCorrectionRequest struct {
	RequestDate      string     `json:"request_date" binding:"required"`
	SessionID        *string    `json:"session_id" binding:"omitempty,uuid"`
	IssueType        string     `json:"issue_type" binding:"required,oneof=MISSED_PUNCH BREAK_NOT_RESUMED"`
	ProposedClockIn  *time.Time `json:"proposed_clock_in"`
	ProposedClockOut *time.Time `json:"proposed_clock_out"`
	Reason           string     `json:"reason" binding:"required"`
}

type ReviewCorrectionRequest struct {
	Notes *string `json:"notes" binding:"omitempty,max=500"`
}

type CorrectionResponse struct {
	ID               string     `json:"id"`
	ReferenceCode    string     `json:"reference_code"`
	EmployeeID       string     `json:"employee_id"`
	EmployeeName     string     `json:"employee_name,omitempty"`
	TargetSessionID  *string    `json:"target_session_id"`
	RequestDate      string     `json:"request_date"`
	IssueType        string     `json:"issue_type"`
	ProposedClockIn  *time.Time `json:"proposed_clock_in"`
	ProposedClockOut *time.Time `json:"proposed_clock_out"`
	Reason           string     `json:"reason"`
	Status           string     `json:"status"`
	ReviewerID       *string    `json:"reviewer_id"`
	ReviewedAt       *time.Time `json:"reviewed_at"`
	ReviewNotes      *string    `json:"review_notes"`
	CreatedAt        time.Time  `json:"created_at"`
}

type AuditEntryResponse struct {
	ID             string          `json:"id"`
	RequestID      string          `json:"request_id"`
	Action         string          `json:"action"`
	PerformedBy    string          `json:"performed_by"`
	BeforeSnapshot json.RawMessage `json:"before_snapshot"`
	AfterSnapshot  json.RawMessage `json:"after_snapshot"`
	Notes          *string         `json:"notes"`
	CreatedAt      time.Time       `json:"created_at"`
}

type ListQuery struct {
	Status string `form:"status" binding:"omitempty,oneof=PENDING APPROVED REJECTED"`
	Page   int    `form:"page,default=1" binding:"omitempty,min=1"`
	Limit  int    `form:"limit,default=20" binding:"omitempty,min=1,max=100"`
}

type AdminListQuery struct {
	EmployeeID string `form:"employee_id" binding:"omitempty,uuid"`
	Status     string `form:"status" binding:"omitempty,oneof=PENDING APPROVED REJECTED"`
	From       string `form:"from"`
	To         string `form:"to"`
	Page       int    `form:"page,default=1" binding:"omitempty,min=1"`
	Limit      int    `form:"limit,default=20" binding:"omitempty,min=1,max=100"`
}
