package correction

import (
	"time"

	"go-timetrack/internal/session"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

const (
	StatusPending  = "PENDING"
	StatusApproved = "APPROVED"
	StatusRejected = "REJECTED"
)

const (
	IssueMissedPunch     = "MISSED_PUNCH"
	IssueBreakNotResumed = "BREAK_NOT_RESUMED"
)

const (
	AuditActionCreated  = "CREATED"
	AuditActionApproved = "APPROVED"
	AuditActionRejected = "REJECTED"
)

type CorrectionRequest struct {
	ID            uuid.UUID `gorm:"column:id;type:uuid;primaryKey;default:gen_random_uuid()"`
	ReferenceCode string    `gorm:"column:reference_code;type:varchar(20);uniqueIndex:uq_corrections_reference_code"`
	EmployeeID    uuid.UUID `gorm:"column:employee_id;type:uuid;not null;index:idx_corrections_employee_date"`

	TargetSessionID *uuid.UUID `gorm:"column:target_session_id;type:uuid"`
	RequestDate     time.Time  `gorm:"column:request_date;type:date;not null;index:idx_corrections_employee_date"`
	IssueType       string     `gorm:"column:issue_type;type:varchar(30);not null"`

	ProposedClockIn  *time.Time `gorm:"column:proposed_clock_in;type:timestamptz"`
	ProposedClockOut *time.Time `gorm:"column:proposed_clock_out;type:timestamptz"`
	Reason           string     `gorm:"column:reason;type:text;not null"`

	// One PENDING request per (employee_id, request_date); backed by the
	// partial unique index uq_corrections_pending.
	Status      string     `gorm:"column:status;type:varchar(20);not null;default:PENDING;index"`
	ReviewerID  *uuid.UUID `gorm:"column:reviewer_id;type:uuid"`
	ReviewedAt  *time.Time `gorm:"column:reviewed_at;type:timestamptz"`
	ReviewNotes *string    `gorm:"column:review_notes;type:text"`

	CreatedAt time.Time      `gorm:"column:created_at"`
	UpdatedAt time.Time      `gorm:"column:updated_at"`
	DeletedAt gorm.DeletedAt `gorm:"column:deleted_at;index"`

	Employee *session.EmployeeRef `gorm:"foreignKey:EmployeeID;references:ID"`
}

func (CorrectionRequest) TableName() string {
	return "correction_requests"
}

// CorrectionAuditEntry is an append-only record of one action taken on a
// correction request, with JSON snapshots of the affected session before
// and after the mutation. Entries are never updated or deleted.
type CorrectionAuditEntry struct {
	ID          uuid.UUID `gorm:"column:id;type:uuid;primaryKey;default:gen_random_uuid()"`
	RequestID   uuid.UUID `gorm:"column:request_id;type:uuid;not null;index:idx_correction_audit_request"`
	Action      string    `gorm:"column:action;type:varchar(20);not null"`
	PerformedBy uuid.UUID `gorm:"column:performed_by;type:uuid;not null"`

	BeforeSnapshot []byte  `gorm:"column:before_snapshot;type:jsonb"`
	AfterSnapshot  []byte  `gorm:"column:after_snapshot;type:jsonb"`
	Notes          *string `gorm:"column:notes;type:text"`

	CreatedAt time.Time `gorm:"column:created_at"`
}

func (CorrectionAuditEntry) TableName() string {
	return "correction_audit_entries"
}
