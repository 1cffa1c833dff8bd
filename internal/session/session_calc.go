package session

import (
	"time"

	sessionerrors "go-timetrack/internal/session/errors"
)

// ValidateIntervals checks ordering and bounds of a pause list against the
// session window. Rules:
//
//   - intervals are sorted by pause_start and never overlap
//   - no pause_start precedes clock_in
//   - closed intervals end at or after their start
//   - when clock_out is set, no interval extends past it and none may be open
//   - only the last interval may be open
func ValidateIntervals(clockIn time.Time, clockOut *time.Time, intervals PauseIntervals) error {
	prevEnd := clockIn
	for i, iv := range intervals {
		if iv.PauseStart.Before(clockIn) {
			return sessionerrors.ErrInvalidPauseInterval
		}
		if iv.PauseStart.Before(prevEnd) {
			return sessionerrors.ErrInvalidPauseInterval
		}
		if iv.PauseEnd == nil {
			if i != len(intervals)-1 || clockOut != nil {
				return sessionerrors.ErrInvalidPauseInterval
			}
			continue
		}
		if iv.PauseEnd.Before(iv.PauseStart) {
			return sessionerrors.ErrInvalidPauseInterval
		}
		if clockOut != nil && iv.PauseEnd.After(*clockOut) {
			return sessionerrors.ErrInvalidPauseInterval
		}
		prevEnd = *iv.PauseEnd
	}
	return nil
}

// ComputeTotals derives work and pause durations in whole seconds. For an
// open session asOf stands in for clock_out, so callers get live figures.
// Pause time is clipped to the [clock_in, end] window and work time never
// goes negative, which keeps the identity
//
//	work + pause == end - clock_in
//
// as long as the pause list passes ValidateIntervals.
func ComputeTotals(clockIn time.Time, clockOut *time.Time, intervals PauseIntervals, asOf time.Time) (workSeconds, pauseSeconds int64, err error) {
	end := asOf
	if clockOut != nil {
		end = *clockOut
	}
	if end.Before(clockIn) {
		return 0, 0, sessionerrors.ErrInvalidTimeRange
	}

	var pause int64
	for _, iv := range intervals {
		ivEnd := end
		if iv.PauseEnd != nil {
			ivEnd = *iv.PauseEnd
		}
		start := iv.PauseStart
		if start.Before(clockIn) {
			start = clockIn
		}
		if ivEnd.After(end) {
			ivEnd = end
		}
		if d := int64(ivEnd.Sub(start).Seconds()); d > 0 {
			pause += d
		}
	}

	work := int64(end.Sub(clockIn).Seconds()) - pause
	if work < 0 {
		work = 0
	}
	return work, pause, nil
}

// Finalize closes a session at the given instant: a trailing open pause is
// capped at that instant, clock_out is stamped, totals are cached on the
// row and the status moves to COMPLETED. Idempotent for already completed
// sessions only through the caller's state checks; Finalize itself assumes
// the session is open.
func Finalize(s *Session, at time.Time) error {
	if at.Before(s.ClockIn) {
		return sessionerrors.ErrInvalidTimeRange
	}
	if i := s.PauseIntervals.openIndex(); i >= 0 {
		end := at
		if end.Before(s.PauseIntervals[i].PauseStart) {
			end = s.PauseIntervals[i].PauseStart
		}
		s.PauseIntervals[i].PauseEnd = &end
	}
	out := at
	s.ClockOut = &out
	if err := ValidateIntervals(s.ClockIn, s.ClockOut, s.PauseIntervals); err != nil {
		return err
	}
	work, pause, err := ComputeTotals(s.ClockIn, s.ClockOut, s.PauseIntervals, at)
	if err != nil {
		return err
	}
	s.TotalWorkSeconds = work
	s.TotalPauseSeconds = pause
	s.Status = StatusCompleted
	return nil
}
