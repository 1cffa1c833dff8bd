package session

import (
	"testing"
	"time"

	sessionerrors "go-timetrack/internal/session/errors"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func at(hour, min int) time.Time {
	return time.Date(2026, 3, 10, hour, min, 0, 0, time.UTC)
}

func ptr(t time.Time) *time.Time { return &t }

func TestComputeTotals_FullDayWithLunch(t *testing.T) {
	clockIn := at(9, 0)
	clockOut := at(17, 0)
	intervals := PauseIntervals{
		{PauseStart: at(12, 0), PauseEnd: ptr(at(12, 30))},
	}

	work, pause, err := ComputeTotals(clockIn, &clockOut, intervals, clockOut)
	require.NoError(t, err)
	assert.Equal(t, int64(27000), work)
	assert.Equal(t, int64(1800), pause)
	assert.Equal(t, int64(clockOut.Sub(clockIn).Seconds()), work+pause)
}

func TestComputeTotals_ClockOutWhilePaused(t *testing.T) {
	// Break started at noon and never resumed; clock-out caps the open
	// interval so the whole afternoon counts as pause.
	clockIn := at(9, 0)
	clockOut := at(17, 0)
	intervals := PauseIntervals{
		{PauseStart: at(12, 0), PauseEnd: ptr(at(17, 0))},
	}

	work, pause, err := ComputeTotals(clockIn, &clockOut, intervals, clockOut)
	require.NoError(t, err)
	assert.Equal(t, int64(10800), work)
	assert.Equal(t, int64(18000), pause)
}

func TestComputeTotals_LiveSession(t *testing.T) {
	clockIn := at(9, 0)
	intervals := PauseIntervals{
		{PauseStart: at(10, 0), PauseEnd: ptr(at(10, 15))},
		{PauseStart: at(12, 0)}, // still on break
	}

	asOf := at(12, 30)
	work, pause, err := ComputeTotals(clockIn, nil, intervals, asOf)
	require.NoError(t, err)
	assert.Equal(t, int64(2700), pause) // 15min + 30min running
	assert.Equal(t, int64(asOf.Sub(clockIn).Seconds())-2700, work)
}

func TestComputeTotals_PauseClippedToWindow(t *testing.T) {
	clockIn := at(9, 0)
	clockOut := at(10, 0)
	// Interval leaks past clock-out; only the in-window part counts.
	intervals := PauseIntervals{
		{PauseStart: at(9, 30), PauseEnd: ptr(at(11, 0))},
	}

	work, pause, err := ComputeTotals(clockIn, &clockOut, intervals, clockOut)
	require.NoError(t, err)
	assert.Equal(t, int64(1800), pause)
	assert.Equal(t, int64(1800), work)
}

func TestComputeTotals_WorkNeverNegative(t *testing.T) {
	clockIn := at(9, 0)
	clockOut := at(9, 30)
	intervals := PauseIntervals{
		{PauseStart: at(9, 0), PauseEnd: ptr(at(9, 30))},
	}

	work, pause, err := ComputeTotals(clockIn, &clockOut, intervals, clockOut)
	require.NoError(t, err)
	assert.Equal(t, int64(0), work)
	assert.Equal(t, int64(1800), pause)
}

func TestComputeTotals_ClockOutBeforeClockIn(t *testing.T) {
	clockIn := at(9, 0)
	clockOut := at(8, 0)

	_, _, err := ComputeTotals(clockIn, &clockOut, nil, clockOut)
	assert.ErrorIs(t, err, sessionerrors.ErrInvalidTimeRange)
}

func TestValidateIntervals(t *testing.T) {
	clockIn := at(9, 0)
	clockOut := at(17, 0)

	tests := []struct {
		name      string
		clockOut  *time.Time
		intervals PauseIntervals
		wantErr   error
	}{
		{
			name: "ordered and closed",
			intervals: PauseIntervals{
				{PauseStart: at(10, 0), PauseEnd: ptr(at(10, 15))},
				{PauseStart: at(12, 0), PauseEnd: ptr(at(12, 30))},
			},
		},
		{
			name: "trailing open pause on live session",
			intervals: PauseIntervals{
				{PauseStart: at(12, 0)},
			},
		},
		{
			name:     "open pause on completed session",
			clockOut: &clockOut,
			intervals: PauseIntervals{
				{PauseStart: at(12, 0)},
			},
			wantErr: sessionerrors.ErrInvalidPauseInterval,
		},
		{
			name: "pause before clock in",
			intervals: PauseIntervals{
				{PauseStart: at(8, 30), PauseEnd: ptr(at(9, 30))},
			},
			wantErr: sessionerrors.ErrInvalidPauseInterval,
		},
		{
			name: "overlapping intervals",
			intervals: PauseIntervals{
				{PauseStart: at(10, 0), PauseEnd: ptr(at(11, 0))},
				{PauseStart: at(10, 30), PauseEnd: ptr(at(11, 30))},
			},
			wantErr: sessionerrors.ErrInvalidPauseInterval,
		},
		{
			name:     "pause past clock out",
			clockOut: &clockOut,
			intervals: PauseIntervals{
				{PauseStart: at(16, 0), PauseEnd: ptr(at(18, 0))},
			},
			wantErr: sessionerrors.ErrInvalidPauseInterval,
		},
		{
			name: "open pause not last",
			intervals: PauseIntervals{
				{PauseStart: at(10, 0)},
				{PauseStart: at(12, 0), PauseEnd: ptr(at(12, 30))},
			},
			wantErr: sessionerrors.ErrInvalidPauseInterval,
		},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			err := ValidateIntervals(clockIn, tc.clockOut, tc.intervals)
			if tc.wantErr != nil {
				assert.ErrorIs(t, err, tc.wantErr)
			} else {
				assert.NoError(t, err)
			}
		})
	}
}

func TestFinalize_CapsOpenPause(t *testing.T) {
	s := &Session{
		ClockIn: at(9, 0),
		Status:  StatusPaused,
		PauseIntervals: PauseIntervals{
			{PauseStart: at(12, 0)},
		},
	}

	require.NoError(t, Finalize(s, at(17, 0)))

	assert.Equal(t, StatusCompleted, s.Status)
	require.NotNil(t, s.ClockOut)
	assert.Equal(t, at(17, 0), *s.ClockOut)
	require.NotNil(t, s.PauseIntervals[0].PauseEnd)
	assert.Equal(t, at(17, 0), *s.PauseIntervals[0].PauseEnd)
	assert.Equal(t, int64(10800), s.TotalWorkSeconds)
	assert.Equal(t, int64(18000), s.TotalPauseSeconds)
}

func TestFinalize_BeforeClockIn(t *testing.T) {
	s := &Session{ClockIn: at(9, 0), Status: StatusActive}
	assert.ErrorIs(t, Finalize(s, at(8, 0)), sessionerrors.ErrInvalidTimeRange)
}
