package session

import (
	"context"
	"testing"
	"time"

	sessionerrors "go-timetrack/internal/session/errors"
	"go-timetrack/internal/shared/clock"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/postgres"
	"gorm.io/gorm"
)

type fakeRepo struct {
	createFn                func(ctx context.Context, s *Session) error
	updateFn                func(ctx context.Context, s *Session) error
	findByIDFn              func(ctx context.Context, id string) (*Session, error)
	findOpenFn              func(ctx context.Context, employeeID string, date time.Time) (*Session, error)
	findByEmployeeAndDateFn func(ctx context.Context, employeeID string, date time.Time) ([]Session, error)
	listOpenByDateFn        func(ctx context.Context, date time.Time) ([]Session, error)
	listFn                  func(ctx context.Context, filter ListFilter) ([]Session, int64, error)
	listCompletedInRangeFn  func(ctx context.Context, employeeID string, from, to time.Time) ([]Session, error)
}

func (f *fakeRepo) WithTx(tx *gorm.DB) Repository                { return f }
func (f *fakeRepo) Create(ctx context.Context, s *Session) error { return f.createFn(ctx, s) }
func (f *fakeRepo) Update(ctx context.Context, s *Session) error { return f.updateFn(ctx, s) }
func (f *fakeRepo) FindByID(ctx context.Context, id string) (*Session, error) {
	return f.findByIDFn(ctx, id)
}
func (f *fakeRepo) FindByIDForUpdate(ctx context.Context, id string) (*Session, error) {
	return f.findByIDFn(ctx, id)
}
func (f *fakeRepo) FindOpenByEmployeeAndDate(ctx context.Context, employeeID string, date time.Time) (*Session, error) {
	return f.findOpenFn(ctx, employeeID, date)
}
func (f *fakeRepo) FindOpenByEmployeeAndDateForUpdate(ctx context.Context, employeeID string, date time.Time) (*Session, error) {
	return f.findOpenFn(ctx, employeeID, date)
}
func (f *fakeRepo) FindByEmployeeAndDate(ctx context.Context, employeeID string, date time.Time) ([]Session, error) {
	return f.findByEmployeeAndDateFn(ctx, employeeID, date)
}
func (f *fakeRepo) ListOpenByDate(ctx context.Context, date time.Time) ([]Session, error) {
	return f.listOpenByDateFn(ctx, date)
}
func (f *fakeRepo) List(ctx context.Context, filter ListFilter) ([]Session, int64, error) {
	return f.listFn(ctx, filter)
}
func (f *fakeRepo) ListCompletedInRange(ctx context.Context, employeeID string, from, to time.Time) ([]Session, error) {
	return f.listCompletedInRangeFn(ctx, employeeID, from, to)
}

func newGormMock(t *testing.T) (*gorm.DB, sqlmock.Sqlmock) {
	t.Helper()
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	t.Cleanup(func() { db.Close() })

	gdb, err := gorm.Open(postgres.New(postgres.Config{
		Conn:                 db,
		PreferSimpleProtocol: true,
	}), &gorm.Config{DisableAutomaticPing: true})
	require.NoError(t, err)
	return gdb, mock
}

func TestService_ClockIn(t *testing.T) {
	gdb, mock := newGormMock(t)
	employeeID := uuid.New().String()
	now := at(9, 0)

	var saved *Session
	repo := &fakeRepo{}
	repo.findOpenFn = func(ctx context.Context, eid string, date time.Time) (*Session, error) {
		if saved == nil {
			return nil, gorm.ErrRecordNotFound
		}
		return saved, nil
	}
	repo.createFn = func(ctx context.Context, s *Session) error { saved = s; return nil }

	svc := NewService(gdb, repo, clock.At(now), nil)

	mock.ExpectBegin()
	mock.ExpectCommit()
	resp, err := svc.ClockIn(context.Background(), employeeID)
	require.NoError(t, err)
	assert.Equal(t, StatusActive, resp.Status)
	assert.Equal(t, "2026-03-10", resp.SessionDate)
	assert.Equal(t, employeeID, resp.EmployeeID)
	assert.Equal(t, int64(0), resp.TotalWorkSeconds)

	// Second clock-in the same day is rejected.
	mock.ExpectBegin()
	mock.ExpectRollback()
	_, err = svc.ClockIn(context.Background(), employeeID)
	assert.ErrorIs(t, err, sessionerrors.ErrAlreadyActive)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestService_PauseAndResume(t *testing.T) {
	gdb, mock := newGormMock(t)
	employeeID := uuid.New()
	now := at(12, 0)

	current := &Session{
		ID:          uuid.New(),
		EmployeeID:  employeeID,
		SessionDate: time.Date(2026, 3, 10, 0, 0, 0, 0, time.UTC),
		ClockIn:     at(9, 0),
		Status:      StatusActive,
	}
	repo := &fakeRepo{}
	repo.findOpenFn = func(ctx context.Context, eid string, date time.Time) (*Session, error) {
		return current, nil
	}
	repo.updateFn = func(ctx context.Context, s *Session) error { current = s; return nil }

	svc := NewService(gdb, repo, clock.At(now), nil)

	mock.ExpectBegin()
	mock.ExpectRollback()
	_, err := svc.Resume(context.Background(), employeeID.String())
	assert.ErrorIs(t, err, sessionerrors.ErrNotPaused)

	mock.ExpectBegin()
	mock.ExpectCommit()
	resp, err := svc.Pause(context.Background(), employeeID.String())
	require.NoError(t, err)
	assert.Equal(t, StatusPaused, resp.Status)
	require.Len(t, current.PauseIntervals, 1)
	assert.Nil(t, current.PauseIntervals[0].PauseEnd)

	mock.ExpectBegin()
	mock.ExpectRollback()
	_, err = svc.Pause(context.Background(), employeeID.String())
	assert.ErrorIs(t, err, sessionerrors.ErrAlreadyPaused)

	mock.ExpectBegin()
	mock.ExpectCommit()
	resp, err = svc.Resume(context.Background(), employeeID.String())
	require.NoError(t, err)
	assert.Equal(t, StatusActive, resp.Status)
	require.NotNil(t, current.PauseIntervals[0].PauseEnd)
	assert.Equal(t, now, *current.PauseIntervals[0].PauseEnd)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestService_Pause_NoActiveSession(t *testing.T) {
	gdb, mock := newGormMock(t)

	repo := &fakeRepo{}
	repo.findOpenFn = func(ctx context.Context, eid string, date time.Time) (*Session, error) {
		return nil, gorm.ErrRecordNotFound
	}

	svc := NewService(gdb, repo, clock.At(at(12, 0)), nil)

	mock.ExpectBegin()
	mock.ExpectRollback()
	_, err := svc.Pause(context.Background(), uuid.New().String())
	assert.ErrorIs(t, err, sessionerrors.ErrNoActiveSession)
}

func TestService_ClockOut_WhilePaused(t *testing.T) {
	gdb, mock := newGormMock(t)
	employeeID := uuid.New()
	now := at(17, 0)

	current := &Session{
		ID:          uuid.New(),
		EmployeeID:  employeeID,
		SessionDate: time.Date(2026, 3, 10, 0, 0, 0, 0, time.UTC),
		ClockIn:     at(9, 0),
		Status:      StatusPaused,
		PauseIntervals: PauseIntervals{
			{PauseStart: at(12, 0)},
		},
	}
	repo := &fakeRepo{}
	repo.findOpenFn = func(ctx context.Context, eid string, date time.Time) (*Session, error) {
		return current, nil
	}
	repo.updateFn = func(ctx context.Context, s *Session) error { current = s; return nil }

	svc := NewService(gdb, repo, clock.At(now), nil)

	mock.ExpectBegin()
	mock.ExpectCommit()
	resp, err := svc.ClockOut(context.Background(), employeeID.String())
	require.NoError(t, err)

	assert.Equal(t, StatusCompleted, resp.Status)
	assert.Equal(t, int64(10800), resp.TotalWorkSeconds)
	assert.Equal(t, int64(18000), resp.TotalPauseSeconds)
	require.NotNil(t, resp.ClockOut)
	assert.Equal(t, now, *resp.ClockOut)
}

func TestService_Current(t *testing.T) {
	gdb, _ := newGormMock(t)
	employeeID := uuid.New()
	now := at(10, 0)

	repo := &fakeRepo{}
	repo.findOpenFn = func(ctx context.Context, eid string, date time.Time) (*Session, error) {
		return nil, gorm.ErrRecordNotFound
	}

	svc := NewService(gdb, repo, clock.At(now), nil)
	resp, err := svc.Current(context.Background(), employeeID.String())
	require.NoError(t, err)
	assert.False(t, resp.HasActiveSession)
	assert.Nil(t, resp.Session)

	// Live totals are derived as of now for an open session.
	repo.findOpenFn = func(ctx context.Context, eid string, date time.Time) (*Session, error) {
		return &Session{
			ID:          uuid.New(),
			EmployeeID:  employeeID,
			SessionDate: time.Date(2026, 3, 10, 0, 0, 0, 0, time.UTC),
			ClockIn:     at(9, 0),
			Status:      StatusActive,
		}, nil
	}
	resp, err = svc.Current(context.Background(), employeeID.String())
	require.NoError(t, err)
	assert.True(t, resp.HasActiveSession)
	require.NotNil(t, resp.Session)
	assert.Equal(t, int64(3600), resp.Session.TotalWorkSeconds)
}

func TestService_Statistics(t *testing.T) {
	gdb, _ := newGormMock(t)
	employeeID := uuid.New()
	now := at(17, 0)

	repo := &fakeRepo{}
	repo.listCompletedInRangeFn = func(ctx context.Context, eid string, from, to time.Time) ([]Session, error) {
		day1 := time.Date(2026, 3, 2, 0, 0, 0, 0, time.UTC)
		day2 := time.Date(2026, 3, 3, 0, 0, 0, 0, time.UTC)
		return []Session{
			{SessionDate: day1, TotalWorkSeconds: 28800, TotalPauseSeconds: 1800, Status: StatusCompleted},
			{SessionDate: day1, TotalWorkSeconds: 3600, TotalPauseSeconds: 0, Status: StatusCompleted},
			{SessionDate: day2, TotalWorkSeconds: 27000, TotalPauseSeconds: 3600, Status: StatusCompleted},
		}, nil
	}
	repo.findByEmployeeAndDateFn = func(ctx context.Context, eid string, date time.Time) ([]Session, error) {
		return []Session{
			{EmployeeID: employeeID, SessionDate: date, ClockIn: at(9, 0), Status: StatusActive},
		}, nil
	}

	svc := NewService(gdb, repo, clock.At(now), nil)
	resp, err := svc.Statistics(context.Background(), employeeID.String(), StatisticsQuery{})
	require.NoError(t, err)

	assert.Equal(t, 2, resp.DaysWorked)
	assert.Equal(t, int64(59400), resp.TotalWorkSeconds)
	assert.Equal(t, int64(5400), resp.TotalPauseSeconds)
	assert.InDelta(t, 29700.0, resp.AvgWorkSeconds, 0.01)
	assert.Equal(t, "2026-03-01", resp.From)
	assert.Equal(t, "2026-03-10", resp.To)
	assert.Equal(t, int64(28800), resp.TodayWorkSeconds)
	assert.Equal(t, int64(0), resp.TodayPauseSeconds)
	assert.Equal(t, StatusActive, resp.CurrentStatus)

	_, err = svc.Statistics(context.Background(), employeeID.String(), StatisticsQuery{From: "2026-03-10", To: "2026-03-01"})
	assert.ErrorIs(t, err, sessionerrors.ErrInvalidDateRange)
}

func TestService_History_InvalidDate(t *testing.T) {
	gdb, _ := newGormMock(t)
	repo := &fakeRepo{}
	svc := NewService(gdb, repo, clock.At(at(10, 0)), nil)

	_, _, err := svc.History(context.Background(), uuid.New().String(), HistoryQuery{From: "10-03-2026", Page: 1, Limit: 20})
	assert.ErrorIs(t, err, sessionerrors.ErrInvalidDateFormat)
}
