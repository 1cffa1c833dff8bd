package session_test

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"

	"go-timetrack/internal/session"
	sessionerrors "go-timetrack/internal/session/errors"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
)

type fakeService struct {
	clockInFn     func(ctx context.Context, employeeID string) (session.SessionResponse, error)
	pauseFn       func(ctx context.Context, employeeID string) (session.SessionResponse, error)
	resumeFn      func(ctx context.Context, employeeID string) (session.SessionResponse, error)
	clockOutFn    func(ctx context.Context, employeeID string) (session.SessionResponse, error)
	currentFn     func(ctx context.Context, employeeID string) (session.CurrentSessionResponse, error)
	historyFn     func(ctx context.Context, employeeID string, q session.HistoryQuery) ([]session.SessionResponse, int64, error)
	allSessionsFn func(ctx context.Context, q session.AdminHistoryQuery) ([]session.SessionResponse, int64, error)
	byDateFn      func(ctx context.Context, employeeID, date string) ([]session.SessionResponse, error)
	statisticsFn  func(ctx context.Context, employeeID string, q session.StatisticsQuery) (session.StatisticsResponse, error)
}

func (f *fakeService) ClockIn(ctx context.Context, employeeID string) (session.SessionResponse, error) {
	return f.clockInFn(ctx, employeeID)
}
func (f *fakeService) Pause(ctx context.Context, employeeID string) (session.SessionResponse, error) {
	return f.pauseFn(ctx, employeeID)
}
func (f *fakeService) Resume(ctx context.Context, employeeID string) (session.SessionResponse, error) {
	return f.resumeFn(ctx, employeeID)
}
func (f *fakeService) ClockOut(ctx context.Context, employeeID string) (session.SessionResponse, error) {
	return f.clockOutFn(ctx, employeeID)
}
func (f *fakeService) Current(ctx context.Context, employeeID string) (session.CurrentSessionResponse, error) {
	return f.currentFn(ctx, employeeID)
}
func (f *fakeService) History(ctx context.Context, employeeID string, q session.HistoryQuery) ([]session.SessionResponse, int64, error) {
	return f.historyFn(ctx, employeeID, q)
}
func (f *fakeService) AllSessions(ctx context.Context, q session.AdminHistoryQuery) ([]session.SessionResponse, int64, error) {
	return f.allSessionsFn(ctx, q)
}
func (f *fakeService) ByDate(ctx context.Context, employeeID, date string) ([]session.SessionResponse, error) {
	return f.byDateFn(ctx, employeeID, date)
}
func (f *fakeService) Statistics(ctx context.Context, employeeID string, q session.StatisticsQuery) (session.StatisticsResponse, error) {
	return f.statisticsFn(ctx, employeeID, q)
}

func TestHandler_ClockIn(t *testing.T) {
	gin.SetMode(gin.TestMode)
	employeeID := uuid.New().String()

	svc := &fakeService{
		clockInFn: func(ctx context.Context, eid string) (session.SessionResponse, error) {
			assert.Equal(t, employeeID, eid)
			return session.SessionResponse{ID: uuid.New().String(), EmployeeID: eid, Status: session.StatusActive}, nil
		},
	}

	h := session.NewHandler(svc)

	w := httptest.NewRecorder()
	c, _ := gin.CreateTestContext(w)
	c.Set("employee_id", employeeID)
	c.Request = httptest.NewRequest(http.MethodPost, "/tracker/clock-in", nil)
	h.ClockIn(c)
	assert.Equal(t, http.StatusCreated, w.Code)
	assert.Contains(t, w.Body.String(), session.StatusActive)
}

func TestHandler_ClockIn_Conflict(t *testing.T) {
	gin.SetMode(gin.TestMode)

	svc := &fakeService{
		clockInFn: func(ctx context.Context, eid string) (session.SessionResponse, error) {
			return session.SessionResponse{}, sessionerrors.ErrAlreadyActive
		},
	}

	h := session.NewHandler(svc)

	w := httptest.NewRecorder()
	c, _ := gin.CreateTestContext(w)
	c.Set("employee_id", uuid.New().String())
	c.Request = httptest.NewRequest(http.MethodPost, "/tracker/clock-in", nil)
	h.ClockIn(c)
	assert.Equal(t, http.StatusConflict, w.Code)
	assert.Contains(t, w.Body.String(), "ALREADY_ACTIVE")
}

func TestHandler_Current(t *testing.T) {
	gin.SetMode(gin.TestMode)

	svc := &fakeService{
		currentFn: func(ctx context.Context, eid string) (session.CurrentSessionResponse, error) {
			return session.CurrentSessionResponse{HasActiveSession: false}, nil
		},
	}

	h := session.NewHandler(svc)

	w := httptest.NewRecorder()
	c, _ := gin.CreateTestContext(w)
	c.Set("employee_id", uuid.New().String())
	c.Request = httptest.NewRequest(http.MethodGet, "/tracker/current", nil)
	h.Current(c)
	assert.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), "\"has_active_session\":false")
}

func TestHandler_MyHistory(t *testing.T) {
	gin.SetMode(gin.TestMode)
	employeeID := uuid.New().String()

	svc := &fakeService{
		historyFn: func(ctx context.Context, eid string, q session.HistoryQuery) ([]session.SessionResponse, int64, error) {
			assert.Equal(t, 2, q.Page)
			assert.Equal(t, 10, q.Limit)
			return []session.SessionResponse{{ID: uuid.New().String()}}, 11, nil
		},
	}

	h := session.NewHandler(svc)

	w := httptest.NewRecorder()
	c, _ := gin.CreateTestContext(w)
	c.Set("employee_id", employeeID)
	c.Request = httptest.NewRequest(http.MethodGet, "/tracker/my-history?page=2&limit=10", nil)
	h.MyHistory(c)
	assert.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), "\"meta\"")
}

func TestHandler_MyHistory_BadStatus(t *testing.T) {
	gin.SetMode(gin.TestMode)

	h := session.NewHandler(&fakeService{})

	w := httptest.NewRecorder()
	c, _ := gin.CreateTestContext(w)
	c.Set("employee_id", uuid.New().String())
	c.Request = httptest.NewRequest(http.MethodGet, "/tracker/my-history?status=SLEEPING", nil)
	h.MyHistory(c)
	assert.Equal(t, http.StatusBadRequest, w.Code)
	assert.Contains(t, w.Body.String(), "INVALID_INPUT")
	assert.Contains(t, w.Body.String(), "Status is invalid")
}

func TestHandler_ByDate_MissingParam(t *testing.T) {
	gin.SetMode(gin.TestMode)

	h := session.NewHandler(&fakeService{})

	w := httptest.NewRecorder()
	c, _ := gin.CreateTestContext(w)
	c.Set("employee_id", uuid.New().String())
	c.Request = httptest.NewRequest(http.MethodGet, "/tracker/by-date", nil)
	h.ByDate(c)
	assert.Equal(t, http.StatusBadRequest, w.Code)
	assert.Contains(t, w.Body.String(), "Date is required")
}
