package session

import (
	"context"
	"encoding/json"
	"testing"
	"time"

	"go-timetrack/internal/events"
	"go-timetrack/internal/messaging/kafka"
	"go-timetrack/internal/shared/clock"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"
)

type fakeOutbox struct {
	created []kafka.OutboxEvent
}

func (f *fakeOutbox) WithTx(tx *gorm.DB) kafka.OutboxRepository { return f }
func (f *fakeOutbox) Create(ctx context.Context, event kafka.OutboxEvent) error {
	f.created = append(f.created, event)
	return nil
}
func (f *fakeOutbox) ListPending(ctx context.Context, limit int) ([]kafka.OutboxEvent, error) {
	return nil, nil
}
func (f *fakeOutbox) MarkSent(ctx context.Context, id string) error           { return nil }
func (f *fakeOutbox) MarkFailed(ctx context.Context, id, reason string) error { return nil }

func TestSweeper_NextCutoff(t *testing.T) {
	loc, err := time.LoadLocation("Asia/Kolkata")
	require.NoError(t, err)

	w := NewSweeper(nil, nil, nil, clock.Real{}, 23, 55, loc)

	// 10:00 UTC is 15:30 IST, so the cutoff is later the same IST day.
	now := time.Date(2026, 3, 10, 10, 0, 0, 0, time.UTC)
	cutoff := w.nextCutoff(now)
	assert.Equal(t, time.Date(2026, 3, 10, 23, 55, 0, 0, loc), cutoff)

	// Just past the cutoff it rolls to the next day.
	cutoff = w.nextCutoff(cutoff.Add(time.Minute))
	assert.Equal(t, time.Date(2026, 3, 11, 23, 55, 0, 0, loc), cutoff)

	// Before the cutoff nothing was missed; after it, today's cutoff is due.
	_, missed := w.missedCutoff(now)
	assert.False(t, missed)
	due, missed := w.missedCutoff(time.Date(2026, 3, 10, 23, 59, 0, 0, loc))
	assert.True(t, missed)
	assert.Equal(t, time.Date(2026, 3, 10, 23, 55, 0, 0, loc), due)
}

func TestSweeper_LateStartSweepsImmediately(t *testing.T) {
	gdb, mock := newGormMock(t)
	loc, err := time.LoadLocation("Asia/Kolkata")
	require.NoError(t, err)

	row := &Session{
		ID:          uuid.New(),
		EmployeeID:  uuid.New(),
		SessionDate: time.Date(2026, 3, 10, 0, 0, 0, 0, time.UTC),
		ClockIn:     time.Date(2026, 3, 10, 3, 30, 0, 0, time.UTC), // 09:00 IST
		Status:      StatusActive,
	}

	repo := &fakeRepo{}
	repo.listOpenByDateFn = func(ctx context.Context, date time.Time) ([]Session, error) {
		return []Session{*row}, nil
	}
	repo.findByIDFn = func(ctx context.Context, id string) (*Session, error) {
		s := *row
		return &s, nil
	}
	updated := make(chan Session, 1)
	repo.updateFn = func(ctx context.Context, s *Session) error {
		updated <- *s
		return nil
	}

	outbox := &fakeOutbox{}
	// The worker comes up four minutes after the cutoff it should have
	// fired on; the open session still gets closed at the cutoff instant.
	start := time.Date(2026, 3, 10, 23, 59, 0, 0, loc)
	w := NewSweeper(gdb, repo, outbox, clock.At(start), 23, 55, loc)

	mock.ExpectBegin()
	mock.ExpectCommit()

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	go w.Run(ctx)

	select {
	case s := <-updated:
		assert.Equal(t, StatusCompleted, s.Status)
		require.NotNil(t, s.ClockOut)
		assert.True(t, s.ClockOut.Equal(time.Date(2026, 3, 10, 23, 55, 0, 0, loc).UTC()))
	case <-time.After(2 * time.Second):
		t.Fatal("startup sweep never ran")
	}
}

func TestSweeper_SweepDay(t *testing.T) {
	gdb, mock := newGormMock(t)
	loc, err := time.LoadLocation("Asia/Kolkata")
	require.NoError(t, err)

	open := map[string]*Session{}
	active := &Session{
		ID:          uuid.New(),
		EmployeeID:  uuid.New(),
		SessionDate: time.Date(2026, 3, 10, 0, 0, 0, 0, time.UTC),
		ClockIn:     time.Date(2026, 3, 10, 3, 30, 0, 0, time.UTC), // 09:00 IST
		Status:      StatusActive,
	}
	paused := &Session{
		ID:          uuid.New(),
		EmployeeID:  uuid.New(),
		SessionDate: time.Date(2026, 3, 10, 0, 0, 0, 0, time.UTC),
		ClockIn:     time.Date(2026, 3, 10, 4, 0, 0, 0, time.UTC),
		Status:      StatusPaused,
		PauseIntervals: PauseIntervals{
			{PauseStart: time.Date(2026, 3, 10, 6, 30, 0, 0, time.UTC)},
		},
	}
	open[active.ID.String()] = active
	open[paused.ID.String()] = paused

	repo := &fakeRepo{}
	repo.listOpenByDateFn = func(ctx context.Context, date time.Time) ([]Session, error) {
		return []Session{*active, *paused}, nil
	}
	repo.findByIDFn = func(ctx context.Context, id string) (*Session, error) {
		if s, ok := open[id]; ok {
			return s, nil
		}
		return nil, gorm.ErrRecordNotFound
	}
	updated := map[string]Session{}
	repo.updateFn = func(ctx context.Context, s *Session) error {
		updated[s.ID.String()] = *s
		return nil
	}

	outbox := &fakeOutbox{}
	w := NewSweeper(gdb, repo, outbox, clock.Real{}, 23, 55, loc)

	cutoff := time.Date(2026, 3, 10, 23, 55, 0, 0, loc)
	mock.ExpectBegin()
	mock.ExpectCommit()
	mock.ExpectBegin()
	mock.ExpectCommit()

	closed, err := w.SweepDay(context.Background(), cutoff)
	require.NoError(t, err)
	assert.Equal(t, 2, closed)
	require.Len(t, updated, 2)

	for _, s := range updated {
		assert.Equal(t, StatusCompleted, s.Status)
		require.NotNil(t, s.ClockOut)
		assert.True(t, s.ClockOut.Equal(cutoff.UTC()))
	}

	// The dangling pause ends exactly at the cutoff.
	repaired := updated[paused.ID.String()]
	require.Len(t, repaired.PauseIntervals, 1)
	require.NotNil(t, repaired.PauseIntervals[0].PauseEnd)
	assert.True(t, repaired.PauseIntervals[0].PauseEnd.Equal(cutoff.UTC()))

	require.Len(t, outbox.created, 2)
	for _, ev := range outbox.created {
		assert.Equal(t, events.SessionAutoClosedTopic, ev.Topic)
		assert.Equal(t, "session.auto_closed", ev.EventType)
		var payload events.SessionAutoClosedEvent
		require.NoError(t, json.Unmarshal(ev.Payload, &payload))
		assert.Equal(t, "2026-03-10", payload.SessionDate)
	}
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestSweeper_SkipsAlreadyClosed(t *testing.T) {
	gdb, mock := newGormMock(t)
	loc := time.UTC

	row := &Session{
		ID:          uuid.New(),
		EmployeeID:  uuid.New(),
		SessionDate: time.Date(2026, 3, 10, 0, 0, 0, 0, time.UTC),
		ClockIn:     time.Date(2026, 3, 10, 9, 0, 0, 0, time.UTC),
		Status:      StatusActive,
	}

	repo := &fakeRepo{}
	repo.listOpenByDateFn = func(ctx context.Context, date time.Time) ([]Session, error) {
		return []Session{*row}, nil
	}
	// By the time the sweep grabs the lock the employee has clocked out.
	repo.findByIDFn = func(ctx context.Context, id string) (*Session, error) {
		done := *row
		done.Status = StatusCompleted
		return &done, nil
	}
	repo.updateFn = func(ctx context.Context, s *Session) error {
		t.Fatal("completed session must not be rewritten")
		return nil
	}

	outbox := &fakeOutbox{}
	w := NewSweeper(gdb, repo, outbox, clock.Real{}, 23, 55, loc)

	mock.ExpectBegin()
	mock.ExpectRollback()
	closed, err := w.SweepDay(context.Background(), time.Date(2026, 3, 10, 23, 55, 0, 0, loc))
	require.NoError(t, err)
	assert.Equal(t, 0, closed)
	assert.Empty(t, outbox.created)
}
