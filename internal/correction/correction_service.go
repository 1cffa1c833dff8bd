package correction

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"

	correctionerrors "go-timetrack/internal/correction/errors"
	"go-timetrack/internal/events"
	"go-timetrack/internal/messaging/kafka"
	"go-timetrack/internal/session"
	sessionerrors "go-timetrack/internal/session/errors"
	"go-timetrack/internal/shared/apperror"
	"go-timetrack/internal/shared/clock"
	"go-timetrack/internal/shared/counter"

	"github.com/google/uuid"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

const minReasonLength = 10

//go:generate mockgen -source=correction_service.go -destination=mock/correction_service_mock.go -package=mock
type Service interface {
	Create(ctx context.Context, employeeID string, req CreateCorrectionRequest) (CorrectionResponse, error)
	GetByID(ctx context.Context, actorID, id string, canReadAll bool) (CorrectionResponse, error)
	ListMine(ctx context.Context, employeeID string, q ListQuery) ([]CorrectionResponse, int64, error)
	ListAll(ctx context.Context, q AdminListQuery) ([]CorrectionResponse, int64, error)
	Approve(ctx context.Context, reviewerID, id string, req ReviewCorrectionRequest) (CorrectionResponse, error)
	Reject(ctx context.Context, reviewerID, id string, req ReviewCorrectionRequest) (CorrectionResponse, error)
	AuditLog(ctx context.Context, actorID, id string, canReadAll bool) ([]AuditEntryResponse, error)
}

type service struct {
	db       *gorm.DB
	repo     Repository
	sessions session.Repository
	counter  counter.Repository
	outbox   kafka.OutboxRepository
	clock    clock.Clock
	logger   *zap.Logger
}

func NewService(
	db *gorm.DB,
	repo Repository,
	sessions session.Repository,
	counterRepo counter.Repository,
	outbox kafka.OutboxRepository,
	clk clock.Clock,
) Service {
	return &service{
		db:       db,
		repo:     repo,
		sessions: sessions,
		counter:  counterRepo,
		outbox:   outbox,
		clock:    clk,
		logger:   zap.L().Named("correction.service"),
	}
}

func (s *service) Create(ctx context.Context, employeeID string, req CreateCorrectionRequest) (CorrectionResponse, error) {
	empID, err := uuid.Parse(employeeID)
	if err != nil {
		return CorrectionResponse{}, correctionerrors.ErrInvalidEmployeeID
	}

	requestDate, err := time.Parse("2006-01-02", req.RequestDate)
	if err != nil {
		return CorrectionResponse{}, correctionerrors.ErrInvalidDateFormat
	}

	now := s.clock.Now()
	today := time.Date(now.Year(), now.Month(), now.Day(), 0, 0, 0, 0, time.UTC)
	if requestDate.After(today) {
		return CorrectionResponse{}, correctionerrors.ErrFutureDate
	}

	if len(strings.TrimSpace(req.Reason)) < minReasonLength {
		return CorrectionResponse{}, correctionerrors.ErrReasonTooShort
	}
	if req.ProposedClockIn == nil && req.ProposedClockOut == nil {
		return CorrectionResponse{}, correctionerrors.ErrMissingProposedTime
	}
	if req.ProposedClockIn != nil && req.ProposedClockOut != nil && !req.ProposedClockOut.After(*req.ProposedClockIn) {
		return CorrectionResponse{}, correctionerrors.ErrInvalidProposedRange
	}
	if req.IssueType == IssueBreakNotResumed && req.ProposedClockOut == nil {
		return CorrectionResponse{}, correctionerrors.ErrResumeTimeRequired
	}

	tx := s.db.WithContext(ctx).Begin()
	if tx.Error != nil {
		return CorrectionResponse{}, tx.Error
	}
	defer tx.Rollback()

	qtx := s.repo.WithTx(tx)

	_, err = qtx.FindPendingByEmployeeAndDate(ctx, employeeID, requestDate)
	if err == nil {
		return CorrectionResponse{}, correctionerrors.ErrPendingRequestExists
	}
	if !errors.Is(err, gorm.ErrRecordNotFound) {
		return CorrectionResponse{}, err
	}

	target, err := s.resolveTarget(ctx, s.sessions.WithTx(tx), employeeID, req.SessionID, requestDate)
	if err != nil {
		return CorrectionResponse{}, err
	}

	seq, err := s.counter.GetNextValue(ctx, "correction_request")
	if err != nil {
		return CorrectionResponse{}, err
	}

	row := &CorrectionRequest{
		ID:               uuid.New(),
		ReferenceCode:    fmt.Sprintf("TCR-%05d", seq),
		EmployeeID:       empID,
		RequestDate:      requestDate,
		IssueType:        req.IssueType,
		ProposedClockIn:  req.ProposedClockIn,
		ProposedClockOut: req.ProposedClockOut,
		Reason:           strings.TrimSpace(req.Reason),
		Status:           StatusPending,
	}
	if target != nil {
		row.TargetSessionID = &target.ID
	}

	if err := qtx.Create(ctx, row); err != nil {
		return CorrectionResponse{}, mapRepositoryError(err)
	}
	if err := s.writeAudit(ctx, qtx, row.ID, AuditActionCreated, empID, target, nil, nil); err != nil {
		return CorrectionResponse{}, err
	}
	if err := tx.Commit().Error; err != nil {
		return CorrectionResponse{}, mapRepositoryError(err)
	}

	s.logger.Info("correction request created",
		zap.String("request_id", row.ID.String()),
		zap.String("reference_code", row.ReferenceCode),
		zap.String("employee_id", employeeID),
		zap.String("issue_type", row.IssueType),
	)
	return mapToResponse(*row), nil
}

// resolveTarget picks the session a request applies to: the explicitly
// named one when the caller passed a session id, otherwise the first
// session of the requested date. A missing session is fine for
// MISSED_PUNCH (approval may create one) so nil, nil is a valid result.
func (s *service) resolveTarget(ctx context.Context, sessions session.Repository, employeeID string, sessionID *string, date time.Time) (*session.Session, error) {
	if sessionID != nil {
		target, err := sessions.FindByID(ctx, *sessionID)
		if err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return nil, correctionerrors.ErrNoSessionForDate
			}
			return nil, err
		}
		if target.EmployeeID.String() != employeeID {
			return nil, apperror.ErrForbidden
		}
		return target, nil
	}

	rows, err := sessions.FindByEmployeeAndDate(ctx, employeeID, date)
	if err != nil {
		return nil, err
	}
	if len(rows) == 0 {
		return nil, nil
	}
	return &rows[0], nil
}

func (s *service) GetByID(ctx context.Context, actorID, id string, canReadAll bool) (CorrectionResponse, error) {
	if _, err := uuid.Parse(id); err != nil {
		return CorrectionResponse{}, correctionerrors.ErrInvalidRequestID
	}

	row, err := s.repo.FindByID(ctx, id)
	if err != nil {
		return CorrectionResponse{}, mapRepositoryError(err)
	}
	if !canReadAll && row.EmployeeID.String() != actorID {
		return CorrectionResponse{}, correctionerrors.ErrRequestNotFound
	}
	return mapToResponse(*row), nil
}

func (s *service) ListMine(ctx context.Context, employeeID string, q ListQuery) ([]CorrectionResponse, int64, error) {
	if _, err := uuid.Parse(employeeID); err != nil {
		return nil, 0, correctionerrors.ErrInvalidEmployeeID
	}

	rows, total, err := s.repo.List(ctx, ListFilter{
		EmployeeID: employeeID,
		Status:     q.Status,
		Offset:     (q.Page - 1) * q.Limit,
		Limit:      q.Limit,
	})
	if err != nil {
		return nil, 0, err
	}
	return mapAll(rows), total, nil
}

func (s *service) ListAll(ctx context.Context, q AdminListQuery) ([]CorrectionResponse, int64, error) {
	var from, to *time.Time
	if q.From != "" {
		parsed, err := time.Parse("2006-01-02", q.From)
		if err != nil {
			return nil, 0, correctionerrors.ErrInvalidDateFormat
		}
		from = &parsed
	}
	if q.To != "" {
		parsed, err := time.Parse("2006-01-02", q.To)
		if err != nil {
			return nil, 0, correctionerrors.ErrInvalidDateFormat
		}
		to = &parsed
	}

	rows, total, err := s.repo.List(ctx, ListFilter{
		EmployeeID:      q.EmployeeID,
		Status:          q.Status,
		From:            from,
		To:              to,
		Offset:          (q.Page - 1) * q.Limit,
		Limit:           q.Limit,
		IncludeEmployee: true,
	})
	if err != nil {
		return nil, 0, err
	}
	return mapAll(rows), total, nil
}

func (s *service) Approve(ctx context.Context, reviewerID, id string, req ReviewCorrectionRequest) (CorrectionResponse, error) {
	revID, err := uuid.Parse(reviewerID)
	if err != nil {
		return CorrectionResponse{}, correctionerrors.ErrInvalidReviewerID
	}
	if _, err := uuid.Parse(id); err != nil {
		return CorrectionResponse{}, correctionerrors.ErrInvalidRequestID
	}

	tx := s.db.WithContext(ctx).Begin()
	if tx.Error != nil {
		return CorrectionResponse{}, tx.Error
	}
	defer tx.Rollback()

	qtx := s.repo.WithTx(tx)
	stx := s.sessions.WithTx(tx)
	now := s.clock.Now()

	row, err := qtx.FindByIDForUpdate(ctx, id)
	if err != nil {
		return CorrectionResponse{}, mapRepositoryError(err)
	}
	if row.Status != StatusPending {
		return CorrectionResponse{}, correctionerrors.ErrAlreadyReviewed
	}

	// An admin repairing their own past day must not leave today's live
	// session straddling the mutation: close it first so the correction
	// applies to settled state.
	if row.EmployeeID == revID {
		if err := s.finalizeLiveSession(ctx, stx, reviewerID, now); err != nil {
			return CorrectionResponse{}, err
		}
	}

	before, after, err := s.applyCorrection(ctx, stx, row)
	if err != nil {
		return CorrectionResponse{}, err
	}

	row.Status = StatusApproved
	row.ReviewerID = &revID
	row.ReviewedAt = &now
	row.ReviewNotes = req.Notes

	if err := qtx.Update(ctx, row); err != nil {
		return CorrectionResponse{}, err
	}
	if err := s.writeAudit(ctx, qtx, row.ID, AuditActionApproved, revID, before, after, req.Notes); err != nil {
		return CorrectionResponse{}, err
	}
	if err := s.queueResolvedEvent(ctx, tx, row, now); err != nil {
		return CorrectionResponse{}, err
	}
	if err := tx.Commit().Error; err != nil {
		return CorrectionResponse{}, err
	}

	s.logger.Info("correction request approved",
		zap.String("request_id", row.ID.String()),
		zap.String("reviewer_id", reviewerID),
	)
	return mapToResponse(*row), nil
}

func (s *service) Reject(ctx context.Context, reviewerID, id string, req ReviewCorrectionRequest) (CorrectionResponse, error) {
	revID, err := uuid.Parse(reviewerID)
	if err != nil {
		return CorrectionResponse{}, correctionerrors.ErrInvalidReviewerID
	}
	if _, err := uuid.Parse(id); err != nil {
		return CorrectionResponse{}, correctionerrors.ErrInvalidRequestID
	}

	tx := s.db.WithContext(ctx).Begin()
	if tx.Error != nil {
		return CorrectionResponse{}, tx.Error
	}
	defer tx.Rollback()

	qtx := s.repo.WithTx(tx)
	now := s.clock.Now()

	row, err := qtx.FindByIDForUpdate(ctx, id)
	if err != nil {
		return CorrectionResponse{}, mapRepositoryError(err)
	}
	if row.Status != StatusPending {
		return CorrectionResponse{}, correctionerrors.ErrAlreadyReviewed
	}

	row.Status = StatusRejected
	row.ReviewerID = &revID
	row.ReviewedAt = &now
	row.ReviewNotes = req.Notes

	if err := qtx.Update(ctx, row); err != nil {
		return CorrectionResponse{}, err
	}
	if err := s.writeAudit(ctx, qtx, row.ID, AuditActionRejected, revID, nil, nil, req.Notes); err != nil {
		return CorrectionResponse{}, err
	}
	if err := s.queueResolvedEvent(ctx, tx, row, now); err != nil {
		return CorrectionResponse{}, err
	}
	if err := tx.Commit().Error; err != nil {
		return CorrectionResponse{}, err
	}

	s.logger.Info("correction request rejected",
		zap.String("request_id", row.ID.String()),
		zap.String("reviewer_id", reviewerID),
	)
	return mapToResponse(*row), nil
}

func (s *service) AuditLog(ctx context.Context, actorID, id string, canReadAll bool) ([]AuditEntryResponse, error) {
	if _, err := uuid.Parse(id); err != nil {
		return nil, correctionerrors.ErrInvalidRequestID
	}

	row, err := s.repo.FindByID(ctx, id)
	if err != nil {
		return nil, mapRepositoryError(err)
	}
	if !canReadAll && row.EmployeeID.String() != actorID {
		return nil, correctionerrors.ErrRequestNotFound
	}

	entries, err := s.repo.ListAuditEntries(ctx, id)
	if err != nil {
		return nil, err
	}

	res := make([]AuditEntryResponse, len(entries))
	for i, e := range entries {
		res[i] = AuditEntryResponse{
			ID:             e.ID.String(),
			RequestID:      e.RequestID.String(),
			Action:         e.Action,
			PerformedBy:    e.PerformedBy.String(),
			BeforeSnapshot: e.BeforeSnapshot,
			AfterSnapshot:  e.AfterSnapshot,
			Notes:          e.Notes,
			CreatedAt:      e.CreatedAt,
		}
	}
	return res, nil
}

// finalizeLiveSession force-completes the reviewer's open session for
// today, if any. Used by the self-correction guard.
func (s *service) finalizeLiveSession(ctx context.Context, stx session.Repository, employeeID string, now time.Time) error {
	today := time.Date(now.Year(), now.Month(), now.Day(), 0, 0, 0, 0, time.UTC)
	live, err := stx.FindOpenByEmployeeAndDateForUpdate(ctx, employeeID, today)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil
		}
		return err
	}
	if err := session.Finalize(live, now); err != nil {
		return err
	}
	return stx.Update(ctx, live)
}

// applyCorrection mutates the target session per the request's issue type
// and returns the before and after states for the audit trail. Every
// mutated session is re-validated against the pause interval rules before
// it is written; a proposal that breaks them fails the approval.
func (s *service) applyCorrection(ctx context.Context, stx session.Repository, row *CorrectionRequest) (before, after *session.Session, err error) {
	var target *session.Session
	if row.TargetSessionID != nil {
		target, err = stx.FindByIDForUpdate(ctx, row.TargetSessionID.String())
		if err != nil && !errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil, err
		}
	} else {
		rows, ferr := stx.FindByEmployeeAndDate(ctx, row.EmployeeID.String(), row.RequestDate)
		if ferr != nil {
			return nil, nil, ferr
		}
		if len(rows) > 0 {
			target, err = stx.FindByIDForUpdate(ctx, rows[0].ID.String())
			if err != nil {
				return nil, nil, err
			}
		}
	}

	if target != nil {
		snapshot := *target
		before = &snapshot
	}

	switch row.IssueType {
	case IssueBreakNotResumed:
		after, err = s.repairBreak(ctx, stx, row, target)
	default:
		after, err = s.repairPunch(ctx, stx, row, target)
	}
	return before, after, err
}

// repairPunch handles MISSED_PUNCH: fill in the missing punch(es) on the
// existing session, or create a completed one when no session exists for
// the date.
func (s *service) repairPunch(ctx context.Context, stx session.Repository, row *CorrectionRequest, target *session.Session) (*session.Session, error) {
	if target == nil {
		if row.ProposedClockIn == nil {
			return nil, correctionerrors.ErrClockInRequired
		}
		created := &session.Session{
			ID:          uuid.New(),
			EmployeeID:  row.EmployeeID,
			SessionDate: row.RequestDate,
			ClockIn:     *row.ProposedClockIn,
			Status:      session.StatusActive,
		}
		if row.ProposedClockOut != nil {
			if err := session.Finalize(created, *row.ProposedClockOut); err != nil {
				return nil, err
			}
		}
		if err := stx.Create(ctx, created); err != nil {
			return nil, err
		}
		return created, nil
	}

	if row.ProposedClockIn != nil {
		target.ClockIn = *row.ProposedClockIn
	}
	if row.ProposedClockOut != nil {
		if target.ClockOut != nil {
			// Moving an existing clock-out: no open pause to cap, just
			// restamp and recompute.
			if !row.ProposedClockOut.After(target.ClockIn) {
				return nil, sessionerrors.ErrInvalidTimeRange
			}
			target.ClockOut = row.ProposedClockOut
			target.Status = session.StatusCompleted
			if err := session.ValidateIntervals(target.ClockIn, target.ClockOut, target.PauseIntervals); err != nil {
				return nil, err
			}
			work, pause, err := session.ComputeTotals(target.ClockIn, target.ClockOut, target.PauseIntervals, *target.ClockOut)
			if err != nil {
				return nil, err
			}
			target.TotalWorkSeconds = work
			target.TotalPauseSeconds = pause
		} else {
			if err := session.Finalize(target, *row.ProposedClockOut); err != nil {
				return nil, err
			}
		}
	} else {
		// Only clock_in moved; the pause list must still fit the new window.
		if err := session.ValidateIntervals(target.ClockIn, target.ClockOut, target.PauseIntervals); err != nil {
			return nil, err
		}
		if target.ClockOut != nil {
			if !target.ClockOut.After(target.ClockIn) {
				return nil, sessionerrors.ErrInvalidTimeRange
			}
			work, pause, err := session.ComputeTotals(target.ClockIn, target.ClockOut, target.PauseIntervals, *target.ClockOut)
			if err != nil {
				return nil, err
			}
			target.TotalWorkSeconds = work
			target.TotalPauseSeconds = pause
		}
	}

	if err := stx.Update(ctx, target); err != nil {
		return nil, err
	}
	return target, nil
}

// repairBreak handles BREAK_NOT_RESUMED: close the dangling pause at the
// proposed time. If the session had no clock_out it goes back to ACTIVE;
// a completed session gets its totals recomputed.
func (s *service) repairBreak(ctx context.Context, stx session.Repository, row *CorrectionRequest, target *session.Session) (*session.Session, error) {
	if target == nil {
		return nil, correctionerrors.ErrNoSessionForDate
	}
	if len(target.PauseIntervals) == 0 {
		return nil, correctionerrors.ErrNoOpenPause
	}

	idx := -1
	for i := len(target.PauseIntervals) - 1; i >= 0; i-- {
		if target.PauseIntervals[i].PauseEnd == nil {
			idx = i
			break
		}
	}
	if idx == -1 {
		// All intervals closed but the session stuck in PAUSED: repair
		// the last one.
		if target.Status != session.StatusPaused {
			return nil, correctionerrors.ErrNoOpenPause
		}
		idx = len(target.PauseIntervals) - 1
	}

	if row.ProposedClockIn != nil {
		target.PauseIntervals[idx].PauseStart = *row.ProposedClockIn
	}
	end := *row.ProposedClockOut
	target.PauseIntervals[idx].PauseEnd = &end

	if target.ClockOut == nil {
		target.Status = session.StatusActive
	} else {
		target.Status = session.StatusCompleted
	}

	if err := session.ValidateIntervals(target.ClockIn, target.ClockOut, target.PauseIntervals); err != nil {
		return nil, err
	}
	if target.ClockOut != nil {
		work, pause, err := session.ComputeTotals(target.ClockIn, target.ClockOut, target.PauseIntervals, *target.ClockOut)
		if err != nil {
			return nil, err
		}
		target.TotalWorkSeconds = work
		target.TotalPauseSeconds = pause
	}

	if err := stx.Update(ctx, target); err != nil {
		return nil, err
	}
	return target, nil
}

func (s *service) writeAudit(ctx context.Context, qtx Repository, requestID uuid.UUID, action string, performedBy uuid.UUID, before, after *session.Session, notes *string) error {
	entry := &CorrectionAuditEntry{
		ID:          uuid.New(),
		RequestID:   requestID,
		Action:      action,
		PerformedBy: performedBy,
		Notes:       notes,
	}
	if before != nil {
		payload, err := json.Marshal(snapshotOf(before))
		if err != nil {
			return err
		}
		entry.BeforeSnapshot = payload
	}
	if after != nil {
		payload, err := json.Marshal(snapshotOf(after))
		if err != nil {
			return err
		}
		entry.AfterSnapshot = payload
	}
	return qtx.CreateAuditEntry(ctx, entry)
}

// sessionSnapshot is the audit trail's view of a session.
type sessionSnapshot struct {
	SessionID         string                 `json:"session_id"`
	SessionDate       string                 `json:"session_date"`
	ClockIn           time.Time              `json:"clock_in"`
	ClockOut          *time.Time             `json:"clock_out"`
	Status            string                 `json:"status"`
	PauseIntervals    session.PauseIntervals `json:"pause_intervals"`
	TotalWorkSeconds  int64                  `json:"total_work_seconds"`
	TotalPauseSeconds int64                  `json:"total_pause_seconds"`
}

func snapshotOf(s *session.Session) sessionSnapshot {
	return sessionSnapshot{
		SessionID:         s.ID.String(),
		SessionDate:       s.SessionDate.Format("2006-01-02"),
		ClockIn:           s.ClockIn,
		ClockOut:          s.ClockOut,
		Status:            s.Status,
		PauseIntervals:    s.PauseIntervals,
		TotalWorkSeconds:  s.TotalWorkSeconds,
		TotalPauseSeconds: s.TotalPauseSeconds,
	}
}

func (s *service) queueResolvedEvent(ctx context.Context, tx *gorm.DB, row *CorrectionRequest, now time.Time) error {
	var reviewerID string
	if row.ReviewerID != nil {
		reviewerID = row.ReviewerID.String()
	}
	payload, err := json.Marshal(events.CorrectionResolvedEvent{
		EventType:   "correction.resolved",
		RequestID:   row.ID.String(),
		EmployeeID:  row.EmployeeID.String(),
		RequestDate: row.RequestDate.Format("2006-01-02"),
		Status:      row.Status,
		ReviewerID:  reviewerID,
		OccurredAt:  now,
	})
	if err != nil {
		return err
	}
	return s.outbox.WithTx(tx).Create(ctx, kafka.OutboxEvent{
		ID:            uuid.NewString(),
		RequestID:     uuid.NewString(),
		AggregateType: "correction_request",
		AggregateID:   row.ID.String(),
		EventType:     "correction.resolved",
		Topic:         events.CorrectionResolvedTopic,
		Payload:       payload,
		Status:        kafka.OutboxStatusPending,
	})
}

func mapAll(rows []CorrectionRequest) []CorrectionResponse {
	res := make([]CorrectionResponse, len(rows))
	for i, row := range rows {
		res[i] = mapToResponse(row)
	}
	return res
}

func mapToResponse(row CorrectionRequest) CorrectionResponse {
	resp := CorrectionResponse{
		ID:               row.ID.String(),
		ReferenceCode:    row.ReferenceCode,
		EmployeeID:       row.EmployeeID.String(),
		RequestDate:      row.RequestDate.Format("2006-01-02"),
		IssueType:        row.IssueType,
		ProposedClockIn:  row.ProposedClockIn,
		ProposedClockOut: row.ProposedClockOut,
		Reason:           row.Reason,
		Status:           row.Status,
		ReviewedAt:       row.ReviewedAt,
		ReviewNotes:      row.ReviewNotes,
		CreatedAt:        row.CreatedAt,
	}
	if row.TargetSessionID != nil {
		v := row.TargetSessionID.String()
		resp.TargetSessionID = &v
	}
	if row.ReviewerID != nil {
		v := row.ReviewerID.String()
		resp.ReviewerID = &v
	}
	if row.Employee != nil {
		resp.EmployeeName = row.Employee.FullName
	}
	return resp
}
