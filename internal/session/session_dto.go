package session

import "time"

type PauseIntervalResponse struct {
	PauseStart time.Time  `json:"pause_start"`
	PauseEnd   *time.Time `json:"pause_end"`
}

type SessionResponse struct {
	ID                string                  `json:"id"`
	EmployeeID        string                  `json:"employee_id"`
	EmployeeName      string                  `json:"employee_name,omitempty"`
	SessionDate       string                  `json:"session_date"`
	ClockIn           time.Time               `json:"clock_in"`
	ClockOut          *time.Time              `json:"clock_out"`
	Status            string                  `json:"status"`
	PauseIntervals    []PauseIntervalResponse `json:"pause_intervals"`
	TotalWorkSeconds  int64                   `json:"total_work_seconds"`
	TotalPauseSeconds int64                   `json:"total_pause_seconds"`
	Notes             *string                 `json:"notes,omitempty"`
}

type CurrentSessionResponse struct {
	HasActiveSession bool             `json:"has_active_session"`
	Session          *SessionResponse `json:"session"`
}

type HistoryQuery struct {
	From   string `form:"from"`
	To     string `form:"to"`
	Status string `form:"status" binding:"omitempty,oneof=ACTIVE PAUSED COMPLETED"`
	Page   int    `form:"page,default=1" binding:"omitempty,min=1"`
	Limit  int    `form:"limit,default=20" binding:"omitempty,min=1,max=100"`
}

type AdminHistoryQuery struct {
	EmployeeID string `form:"employee_id" binding:"omitempty,uuid"`
	From       string `form:"from"`
	To         string `form:"to"`
	Status     string `form:"status" binding:"omitempty,oneof=ACTIVE PAUSED COMPLETED"`
	Page       int    `form:"page,default=1" binding:"omitempty,min=1"`
	Limit      int    `form:"limit,default=20" binding:"omitempty,min=1,max=100"`
}

type StatisticsQuery struct {
	From string `form:"from"`
	To   string `form:"to"`
}

type StatisticsResponse struct {
	From              string  `json:"from"`
	To                string  `json:"to"`
	DaysWorked        int     `json:"days_worked"`
	TotalWorkSeconds  int64   `json:"total_work_seconds"`
	TotalPauseSeconds int64   `json:"total_pause_seconds"`
	AvgWorkSeconds    float64 `json:"avg_work_seconds_per_day"`
	TodayWorkSeconds  int64   `json:"today_work_seconds"`
	TodayPauseSeconds int64   `json:"today_pause_seconds"`
	CurrentStatus     string  `json:"current_status"`
}
