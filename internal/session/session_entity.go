package session

import (
	"database/sql/driver"
	"encoding/json"
	"fmt"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

const (
	StatusActive    = "ACTIVE"
	StatusPaused    = "PAUSED"
	StatusCompleted = "COMPLETED"
)

// PauseInterval is one break inside a session. PauseEnd is nil while the
// break is still running; absence is the signal, never a sentinel time.
type PauseInterval struct {
	PauseStart time.Time  `json:"pause_start"`
	PauseEnd   *time.Time `json:"pause_end,omitempty"`
}

// PauseIntervals is the ordered break list, persisted as a JSONB column.
type PauseIntervals []PauseInterval

func (p PauseIntervals) Value() (driver.Value, error) {
	if len(p) == 0 {
		return nil, nil
	}
	return json.Marshal(p)
}

func (p *PauseIntervals) Scan(value any) error {
	if value == nil {
		*p = nil
		return nil
	}
	switch v := value.(type) {
	case []byte:
		return json.Unmarshal(v, p)
	case string:
		return json.Unmarshal([]byte(v), p)
	default:
		return fmt.Errorf("unsupported pause_intervals type %T", value)
	}
}

// openIndex returns the index of the trailing open interval, or -1.
func (p PauseIntervals) openIndex() int {
	if n := len(p); n > 0 && p[n-1].PauseEnd == nil {
		return n - 1
	}
	return -1
}

type Session struct {
	ID          uuid.UUID  `gorm:"column:id;type:uuid;primaryKey;default:gen_random_uuid()"`
	EmployeeID  uuid.UUID  `gorm:"column:employee_id;type:uuid;not null;index:idx_sessions_employee_date"`
	SessionDate time.Time  `gorm:"column:session_date;type:date;not null;index:idx_sessions_employee_date"`
	ClockIn     time.Time  `gorm:"column:clock_in;type:timestamptz;not null"`
	ClockOut    *time.Time `gorm:"column:clock_out;type:timestamptz"`

	// At most one ACTIVE/PAUSED row per (employee_id, session_date); backed
	// by the partial unique index uq_sessions_open.
	Status         string         `gorm:"column:status;type:varchar(20);not null;default:ACTIVE;index"`
	PauseIntervals PauseIntervals `gorm:"column:pause_intervals;type:jsonb"`

	TotalWorkSeconds  int64 `gorm:"column:total_work_seconds;not null;default:0"`
	TotalPauseSeconds int64 `gorm:"column:total_pause_seconds;not null;default:0"`

	Notes *string `gorm:"column:notes;type:text"`

	CreatedAt time.Time      `gorm:"column:created_at"`
	UpdatedAt time.Time      `gorm:"column:updated_at"`
	DeletedAt gorm.DeletedAt `gorm:"column:deleted_at;index"`

	Employee *EmployeeRef `gorm:"foreignKey:EmployeeID;references:ID"`
}

func (Session) TableName() string {
	return "sessions"
}

// IsOpen reports whether the session still accrues time.
func (s *Session) IsOpen() bool {
	return s.Status == StatusActive || s.Status == StatusPaused
}

// EmployeeRef is the minimal identity slice joined into admin listings.
type EmployeeRef struct {
	ID       uuid.UUID `gorm:"type:uuid;primaryKey"`
	FullName string    `gorm:"column:full_name"`
	Email    string    `gorm:"column:email"`
	Role     string    `gorm:"column:role"`
}

func (EmployeeRef) TableName() string {
	return "employees"
}
