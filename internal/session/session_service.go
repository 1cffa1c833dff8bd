// Package session implements daily work tracking. Each employee holds at
// most one open session per date, moving through:
//
//	(none) --ClockIn--> ACTIVE --Pause--> PAUSED
//	PAUSED --Resume--> ACTIVE
//	ACTIVE|PAUSED --ClockOut / auto-closure--> COMPLETED
//
// "(none)" is implicit: it is the absence of an ACTIVE or PAUSED row for
// the employee and date. COMPLETED is terminal for the state machine; only
// an approved correction may amend a completed session.
package session

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	sessionerrors "go-timetrack/internal/session/errors"
	"go-timetrack/internal/shared/clock"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
	"golang.org/x/sync/singleflight"
	"gorm.io/gorm"
)

const statsCacheTTL = 60 * time.Second

//go:generate mockgen -source=session_service.go -destination=mock/session_service_mock.go -package=mock
type Service interface {
	ClockIn(ctx context.Context, employeeID string) (SessionResponse, error)
	Pause(ctx context.Context, employeeID string) (SessionResponse, error)
	Resume(ctx context.Context, employeeID string) (SessionResponse, error)
	ClockOut(ctx context.Context, employeeID string) (SessionResponse, error)
	Current(ctx context.Context, employeeID string) (CurrentSessionResponse, error)
	History(ctx context.Context, employeeID string, q HistoryQuery) ([]SessionResponse, int64, error)
	AllSessions(ctx context.Context, q AdminHistoryQuery) ([]SessionResponse, int64, error)
	ByDate(ctx context.Context, employeeID, date string) ([]SessionResponse, error)
	Statistics(ctx context.Context, employeeID string, q StatisticsQuery) (StatisticsResponse, error)
}

type service struct {
	db    *gorm.DB
	repo  Repository
	clock clock.Clock
	rdb   *redis.Client
	group singleflight.Group
}

func NewService(db *gorm.DB, repo Repository, clk clock.Clock, rdb *redis.Client) Service {
	return &service{db: db, repo: repo, clock: clk, rdb: rdb}
}

func (s *service) today() (now, day time.Time) {
	now = s.clock.Now()
	day = time.Date(now.Year(), now.Month(), now.Day(), 0, 0, 0, 0, time.UTC)
	return now, day
}

func (s *service) ClockIn(ctx context.Context, employeeID string) (SessionResponse, error) {
	empID, err := uuid.Parse(employeeID)
	if err != nil {
		return SessionResponse{}, sessionerrors.ErrInvalidEmployeeID
	}

	tx := s.db.WithContext(ctx).Begin()
	if tx.Error != nil {
		return SessionResponse{}, tx.Error
	}
	defer tx.Rollback()

	qtx := s.repo.WithTx(tx)
	now, day := s.today()

	_, err = qtx.FindOpenByEmployeeAndDateForUpdate(ctx, employeeID, day)
	if err == nil {
		return SessionResponse{}, sessionerrors.ErrAlreadyActive
	}
	if !errors.Is(err, gorm.ErrRecordNotFound) {
		return SessionResponse{}, err
	}

	row := &Session{
		ID:          uuid.New(),
		EmployeeID:  empID,
		SessionDate: day,
		ClockIn:     now,
		Status:      StatusActive,
	}
	if err := qtx.Create(ctx, row); err != nil {
		// The partial unique index catches the race two concurrent
		// clock-ins can still produce after the row lock check.
		return SessionResponse{}, mapRepositoryError(err)
	}
	if err := tx.Commit().Error; err != nil {
		return SessionResponse{}, mapRepositoryError(err)
	}

	s.invalidateStats(ctx, employeeID)
	return s.mapToResponse(*row, now), nil
}

func (s *service) Pause(ctx context.Context, employeeID string) (SessionResponse, error) {
	if _, err := uuid.Parse(employeeID); err != nil {
		return SessionResponse{}, sessionerrors.ErrInvalidEmployeeID
	}

	tx := s.db.WithContext(ctx).Begin()
	if tx.Error != nil {
		return SessionResponse{}, tx.Error
	}
	defer tx.Rollback()

	qtx := s.repo.WithTx(tx)
	now, day := s.today()

	row, err := qtx.FindOpenByEmployeeAndDateForUpdate(ctx, employeeID, day)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return SessionResponse{}, sessionerrors.ErrNoActiveSession
		}
		return SessionResponse{}, err
	}
	if row.Status == StatusPaused {
		return SessionResponse{}, sessionerrors.ErrAlreadyPaused
	}

	row.PauseIntervals = append(row.PauseIntervals, PauseInterval{PauseStart: now})
	row.Status = StatusPaused

	if err := qtx.Update(ctx, row); err != nil {
		return SessionResponse{}, err
	}
	if err := tx.Commit().Error; err != nil {
		return SessionResponse{}, err
	}
	s.invalidateStats(ctx, employeeID)
	return s.mapToResponse(*row, now), nil
}

func (s *service) Resume(ctx context.Context, employeeID string) (SessionResponse, error) {
	if _, err := uuid.Parse(employeeID); err != nil {
		return SessionResponse{}, sessionerrors.ErrInvalidEmployeeID
	}

	tx := s.db.WithContext(ctx).Begin()
	if tx.Error != nil {
		return SessionResponse{}, tx.Error
	}
	defer tx.Rollback()

	qtx := s.repo.WithTx(tx)
	now, day := s.today()

	row, err := qtx.FindOpenByEmployeeAndDateForUpdate(ctx, employeeID, day)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return SessionResponse{}, sessionerrors.ErrNoActiveSession
		}
		return SessionResponse{}, err
	}
	if row.Status != StatusPaused {
		return SessionResponse{}, sessionerrors.ErrNotPaused
	}

	if i := row.PauseIntervals.openIndex(); i >= 0 {
		end := now
		row.PauseIntervals[i].PauseEnd = &end
	}
	row.Status = StatusActive

	if err := qtx.Update(ctx, row); err != nil {
		return SessionResponse{}, err
	}
	if err := tx.Commit().Error; err != nil {
		return SessionResponse{}, err
	}
	s.invalidateStats(ctx, employeeID)
	return s.mapToResponse(*row, now), nil
}

func (s *service) ClockOut(ctx context.Context, employeeID string) (SessionResponse, error) {
	if _, err := uuid.Parse(employeeID); err != nil {
		return SessionResponse{}, sessionerrors.ErrInvalidEmployeeID
	}

	tx := s.db.WithContext(ctx).Begin()
	if tx.Error != nil {
		return SessionResponse{}, tx.Error
	}
	defer tx.Rollback()

	qtx := s.repo.WithTx(tx)
	now, day := s.today()

	row, err := qtx.FindOpenByEmployeeAndDateForUpdate(ctx, employeeID, day)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return SessionResponse{}, sessionerrors.ErrNoActiveSession
		}
		return SessionResponse{}, err
	}

	// Clocking out of a paused session closes the trailing break at the
	// same instant, so the pause runs right up to clock_out.
	if err := Finalize(row, now); err != nil {
		return SessionResponse{}, err
	}

	if err := qtx.Update(ctx, row); err != nil {
		return SessionResponse{}, err
	}
	if err := tx.Commit().Error; err != nil {
		return SessionResponse{}, err
	}

	s.invalidateStats(ctx, employeeID)
	return s.mapToResponse(*row, now), nil
}

func (s *service) Current(ctx context.Context, employeeID string) (CurrentSessionResponse, error) {
	if _, err := uuid.Parse(employeeID); err != nil {
		return CurrentSessionResponse{}, sessionerrors.ErrInvalidEmployeeID
	}

	now, day := s.today()
	row, err := s.repo.FindOpenByEmployeeAndDate(ctx, employeeID, day)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return CurrentSessionResponse{HasActiveSession: false}, nil
		}
		return CurrentSessionResponse{}, err
	}

	resp := s.mapToResponse(*row, now)
	return CurrentSessionResponse{HasActiveSession: true, Session: &resp}, nil
}

func (s *service) History(ctx context.Context, employeeID string, q HistoryQuery) ([]SessionResponse, int64, error) {
	if _, err := uuid.Parse(employeeID); err != nil {
		return nil, 0, sessionerrors.ErrInvalidEmployeeID
	}

	from, to, err := parseDateRange(q.From, q.To)
	if err != nil {
		return nil, 0, err
	}

	rows, total, err := s.repo.List(ctx, ListFilter{
		EmployeeID: employeeID,
		From:       from,
		To:         to,
		Status:     q.Status,
		Offset:     (q.Page - 1) * q.Limit,
		Limit:      q.Limit,
	})
	if err != nil {
		return nil, 0, err
	}
	return s.mapAll(rows), total, nil
}

func (s *service) AllSessions(ctx context.Context, q AdminHistoryQuery) ([]SessionResponse, int64, error) {
	from, to, err := parseDateRange(q.From, q.To)
	if err != nil {
		return nil, 0, err
	}

	rows, total, err := s.repo.List(ctx, ListFilter{
		EmployeeID:      q.EmployeeID,
		From:            from,
		To:              to,
		Status:          q.Status,
		Offset:          (q.Page - 1) * q.Limit,
		Limit:           q.Limit,
		IncludeEmployee: true,
	})
	if err != nil {
		return nil, 0, err
	}
	return s.mapAll(rows), total, nil
}

func (s *service) ByDate(ctx context.Context, employeeID, date string) ([]SessionResponse, error) {
	if _, err := uuid.Parse(employeeID); err != nil {
		return nil, sessionerrors.ErrInvalidEmployeeID
	}
	day, err := time.Parse("2006-01-02", date)
	if err != nil {
		return nil, sessionerrors.ErrInvalidDateFormat
	}

	rows, err := s.repo.FindByEmployeeAndDate(ctx, employeeID, day)
	if err != nil {
		return nil, err
	}
	return s.mapAll(rows), nil
}

// Statistics aggregates completed sessions over a date range. Default
// range queries are cached in Redis and deduplicated via singleflight so
// a dashboard storm hits Postgres once.
func (s *service) Statistics(ctx context.Context, employeeID string, q StatisticsQuery) (StatisticsResponse, error) {
	if _, err := uuid.Parse(employeeID); err != nil {
		return StatisticsResponse{}, sessionerrors.ErrInvalidEmployeeID
	}

	now, _ := s.today()
	defaultRange := q.From == "" && q.To == ""

	from := time.Date(now.Year(), now.Month(), 1, 0, 0, 0, 0, time.UTC)
	to := time.Date(now.Year(), now.Month(), now.Day(), 0, 0, 0, 0, time.UTC)
	if q.From != "" {
		parsed, err := time.Parse("2006-01-02", q.From)
		if err != nil {
			return StatisticsResponse{}, sessionerrors.ErrInvalidDateFormat
		}
		from = parsed
	}
	if q.To != "" {
		parsed, err := time.Parse("2006-01-02", q.To)
		if err != nil {
			return StatisticsResponse{}, sessionerrors.ErrInvalidDateFormat
		}
		to = parsed
	}
	if from.After(to) {
		return StatisticsResponse{}, sessionerrors.ErrInvalidDateRange
	}

	cacheKey := statsCacheKey(employeeID)
	if defaultRange && s.rdb != nil {
		if cached, err := s.rdb.Get(ctx, cacheKey).Bytes(); err == nil {
			var resp StatisticsResponse
			if json.Unmarshal(cached, &resp) == nil {
				return resp, nil
			}
		}
	}

	v, err, _ := s.group.Do(fmt.Sprintf("stats:%s:%s:%s", employeeID, from.Format("2006-01-02"), to.Format("2006-01-02")), func() (any, error) {
		rows, err := s.repo.ListCompletedInRange(ctx, employeeID, from, to)
		if err != nil {
			return nil, err
		}

		resp := StatisticsResponse{
			From:          from.Format("2006-01-02"),
			To:            to.Format("2006-01-02"),
			CurrentStatus: "NONE",
		}
		days := make(map[string]struct{}, len(rows))
		for _, row := range rows {
			days[row.SessionDate.Format("2006-01-02")] = struct{}{}
			resp.TotalWorkSeconds += row.TotalWorkSeconds
			resp.TotalPauseSeconds += row.TotalPauseSeconds
		}
		resp.DaysWorked = len(days)
		if resp.DaysWorked > 0 {
			resp.AvgWorkSeconds = float64(resp.TotalWorkSeconds) / float64(resp.DaysWorked)
		}

		today := time.Date(now.Year(), now.Month(), now.Day(), 0, 0, 0, 0, time.UTC)
		todayRows, err := s.repo.FindByEmployeeAndDate(ctx, employeeID, today)
		if err != nil {
			return nil, err
		}
		for _, row := range todayRows {
			work, pause, cerr := ComputeTotals(row.ClockIn, row.ClockOut, row.PauseIntervals, now)
			if cerr != nil {
				continue
			}
			resp.TodayWorkSeconds += work
			resp.TodayPauseSeconds += pause
			if row.IsOpen() {
				resp.CurrentStatus = row.Status
			}
		}
		return resp, nil
	})
	if err != nil {
		return StatisticsResponse{}, err
	}
	resp := v.(StatisticsResponse)

	if defaultRange && s.rdb != nil {
		if payload, err := json.Marshal(resp); err == nil {
			s.rdb.Set(ctx, cacheKey, payload, statsCacheTTL)
		}
	}
	return resp, nil
}

func statsCacheKey(employeeID string) string {
	return "sessions:stats:" + employeeID
}

func (s *service) invalidateStats(ctx context.Context, employeeID string) {
	if s.rdb != nil {
		s.rdb.Del(ctx, statsCacheKey(employeeID))
	}
}

func parseDateRange(fromStr, toStr string) (*time.Time, *time.Time, error) {
	var from, to *time.Time
	if fromStr != "" {
		parsed, err := time.Parse("2006-01-02", fromStr)
		if err != nil {
			return nil, nil, sessionerrors.ErrInvalidDateFormat
		}
		from = &parsed
	}
	if toStr != "" {
		parsed, err := time.Parse("2006-01-02", toStr)
		if err != nil {
			return nil, nil, sessionerrors.ErrInvalidDateFormat
		}
		to = &parsed
	}
	if from != nil && to != nil && from.After(*to) {
		return nil, nil, sessionerrors.ErrInvalidDateRange
	}
	return from, to, nil
}

func (s *service) mapAll(rows []Session) []SessionResponse {
	now := s.clock.Now()
	res := make([]SessionResponse, len(rows))
	for i, row := range rows {
		res[i] = s.mapToResponse(row, now)
	}
	return res
}

// mapToResponse renders a session; open sessions get live totals computed
// against asOf instead of the cached columns.
func (s *service) mapToResponse(row Session, asOf time.Time) SessionResponse {
	resp := SessionResponse{
		ID:                row.ID.String(),
		EmployeeID:        row.EmployeeID.String(),
		SessionDate:       row.SessionDate.Format("2006-01-02"),
		ClockIn:           row.ClockIn,
		ClockOut:          row.ClockOut,
		Status:            row.Status,
		TotalWorkSeconds:  row.TotalWorkSeconds,
		TotalPauseSeconds: row.TotalPauseSeconds,
		Notes:             row.Notes,
	}
	if row.Employee != nil {
		resp.EmployeeName = row.Employee.FullName
	}
	resp.PauseIntervals = make([]PauseIntervalResponse, len(row.PauseIntervals))
	for i, iv := range row.PauseIntervals {
		resp.PauseIntervals[i] = PauseIntervalResponse{PauseStart: iv.PauseStart, PauseEnd: iv.PauseEnd}
	}
	if row.IsOpen() {
		if work, pause, err := ComputeTotals(row.ClockIn, row.ClockOut, row.PauseIntervals, asOf); err == nil {
			resp.TotalWorkSeconds = work
			resp.TotalPauseSeconds = pause
		}
	}
	return resp
}
