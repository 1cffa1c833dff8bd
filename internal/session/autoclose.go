package session

import (
	"context"
	"encoding/json"
	"errors"
	"time"

	"go-timetrack/internal/events"
	"go-timetrack/internal/messaging/kafka"
	"go-timetrack/internal/shared/clock"

	"github.com/google/uuid"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

// Sweeper force-completes sessions still open at the configured local
// cutoff (e.g. 23:55 Asia/Kolkata). It runs once per day and is safe to
// run alongside live clock-outs: each session is re-checked under a row
// lock before it is touched.
type Sweeper struct {
	db     *gorm.DB
	repo   Repository
	outbox kafka.OutboxRepository
	clock  clock.Clock
	logger *zap.Logger

	cutoffHour   int
	cutoffMinute int
	location     *time.Location
}

func NewSweeper(db *gorm.DB, repo Repository, outbox kafka.OutboxRepository, clk clock.Clock, cutoffHour, cutoffMinute int, loc *time.Location) *Sweeper {
	return &Sweeper{
		db:           db,
		repo:         repo,
		outbox:       outbox,
		clock:        clk,
		logger:       zap.L().Named("session.sweeper"),
		cutoffHour:   cutoffHour,
		cutoffMinute: cutoffMinute,
		location:     loc,
	}
}

// Run blocks until ctx is cancelled, firing SweepDay at each daily cutoff.
// A worker started after today's cutoff has already missed its tick, so it
// sweeps once immediately, with the cutoff instant as the close time, before
// settling into the daily schedule.
func (w *Sweeper) Run(ctx context.Context) {
	w.logger.Info("session sweeper started",
		zap.Int("cutoff_hour", w.cutoffHour),
		zap.Int("cutoff_minute", w.cutoffMinute),
		zap.String("timezone", w.location.String()),
	)

	if cutoff, missed := w.missedCutoff(w.clock.Now()); missed {
		w.sweep(ctx, cutoff)
	}

	for {
		cutoff := w.nextCutoff(w.clock.Now())
		timer := time.NewTimer(cutoff.Sub(w.clock.Now()))

		select {
		case <-ctx.Done():
			timer.Stop()
			w.logger.Info("session sweeper stopped")
			return
		case <-timer.C:
			w.sweep(ctx, cutoff)
		}
	}
}

func (w *Sweeper) sweep(ctx context.Context, cutoff time.Time) {
	closed, err := w.SweepDay(ctx, cutoff)
	if err != nil {
		w.logger.Error("sweep failed", zap.Error(err))
		return
	}
	w.logger.Info("sweep finished",
		zap.String("cutoff", cutoff.Format(time.RFC3339)),
		zap.Int("sessions_closed", closed),
	)
}

// nextCutoff returns the first cutoff instant strictly after now.
func (w *Sweeper) nextCutoff(now time.Time) time.Time {
	local := now.In(w.location)
	cutoff := time.Date(local.Year(), local.Month(), local.Day(), w.cutoffHour, w.cutoffMinute, 0, 0, w.location)
	if !cutoff.After(local) {
		cutoff = cutoff.AddDate(0, 0, 1)
	}
	return cutoff
}

// missedCutoff reports today's cutoff when now already lies past it: the
// tick this process would have fired on had it been running.
func (w *Sweeper) missedCutoff(now time.Time) (time.Time, bool) {
	local := now.In(w.location)
	cutoff := time.Date(local.Year(), local.Month(), local.Day(), w.cutoffHour, w.cutoffMinute, 0, 0, w.location)
	if cutoff.After(local) {
		return time.Time{}, false
	}
	return cutoff, true
}

// SweepDay closes every session of the cutoff's local date that is still
// ACTIVE or PAUSED. Open pauses are capped at the cutoff before totals are
// cached, and an auto-close event is queued in the same transaction as the
// row update. A failure on one session is logged and does not stop the
// rest of the sweep.
func (w *Sweeper) SweepDay(ctx context.Context, cutoff time.Time) (int, error) {
	day := cutoff.In(w.location)
	date := time.Date(day.Year(), day.Month(), day.Day(), 0, 0, 0, 0, time.UTC)
	cutoffUTC := cutoff.UTC()

	rows, err := w.repo.ListOpenByDate(ctx, date)
	if err != nil {
		return 0, err
	}

	closed := 0
	for _, row := range rows {
		done, err := w.closeOne(ctx, row.ID.String(), cutoffUTC)
		if err != nil {
			w.logger.Error("auto close failed",
				zap.String("session_id", row.ID.String()),
				zap.String("employee_id", row.EmployeeID.String()),
				zap.Error(err),
			)
			continue
		}
		if done {
			closed++
		}
	}
	return closed, nil
}

func (w *Sweeper) closeOne(ctx context.Context, sessionID string, cutoff time.Time) (bool, error) {
	tx := w.db.WithContext(ctx).Begin()
	if tx.Error != nil {
		return false, tx.Error
	}
	defer tx.Rollback()

	qtx := w.repo.WithTx(tx)

	row, err := qtx.FindByIDForUpdate(ctx, sessionID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return false, nil
		}
		return false, err
	}
	// An employee may have clocked out between the listing and the lock.
	if !row.IsOpen() {
		return false, nil
	}

	at := cutoff
	if at.Before(row.ClockIn) {
		at = row.ClockIn
	}
	if err := Finalize(row, at); err != nil {
		return false, err
	}
	if err := qtx.Update(ctx, row); err != nil {
		return false, err
	}

	payload, err := json.Marshal(events.SessionAutoClosedEvent{
		EventType:        "session.auto_closed",
		SessionID:        row.ID.String(),
		EmployeeID:       row.EmployeeID.String(),
		SessionDate:      row.SessionDate.Format("2006-01-02"),
		TotalWorkSeconds: row.TotalWorkSeconds,
		OccurredAt:       cutoff,
	})
	if err != nil {
		return false, err
	}
	if err := w.outbox.WithTx(tx).Create(ctx, kafka.OutboxEvent{
		ID:            uuid.NewString(),
		RequestID:     uuid.NewString(),
		AggregateType: "session",
		AggregateID:   row.ID.String(),
		EventType:     "session.auto_closed",
		Topic:         events.SessionAutoClosedTopic,
		Payload:       payload,
		Status:        kafka.OutboxStatusPending,
	}); err != nil {
		return false, err
	}

	return true, tx.Commit().Error
}
