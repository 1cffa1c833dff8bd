package correctionerrors

import (
	"net/http"

	"go-timetrack/internal/shared/apperror"
)

var (
	ErrRequestNotFound = apperror.New(
		"CORRECTION_NOT_FOUND",
		"Correction request not found.",
		http.StatusNotFound,
	)

	ErrAlreadyReviewed = apperror.New(
		"ALREADY_REVIEWED",
		"This correction request has already been reviewed.",
		http.StatusConflict,
	)

	ErrPendingRequestExists = apperror.New(
		"PENDING_REQUEST_EXISTS",
		"A pending correction request already exists for this date.",
		http.StatusConflict,
	)

	ErrFutureDate = apperror.New(
		"FUTURE_DATE",
		"Corrections cannot target a future date.",
		http.StatusBadRequest,
	)

	ErrReasonTooShort = apperror.New(
		"REASON_TOO_SHORT",
		"The reason must be at least 10 characters long.",
		http.StatusBadRequest,
	)

	ErrMissingProposedTime = apperror.New(
		"MISSING_PROPOSED_TIME",
		"At least one proposed time must be provided.",
		http.StatusBadRequest,
	)

	ErrResumeTimeRequired = apperror.New(
		"MISSING_PROPOSED_TIME",
		"A proposed resume time is required for an unresumed break.",
		http.StatusBadRequest,
	)

	ErrClockInRequired = apperror.New(
		"MISSING_PROPOSED_TIME",
		"A proposed clock-in is required when no session exists for the date.",
		http.StatusBadRequest,
	)

	ErrInvalidProposedRange = apperror.New(
		"INVALID_TIME_RANGE",
		"The proposed clock-out must be after the proposed clock-in.",
		http.StatusBadRequest,
	)

	ErrNoOpenPause = apperror.New(
		"NO_OPEN_PAUSE",
		"The target session has no break to repair.",
		http.StatusConflict,
	)

	ErrNoSessionForDate = apperror.New(
		"SESSION_NOT_FOUND",
		"No session found for the requested date.",
		http.StatusNotFound,
	)

	ErrInvalidEmployeeID = apperror.New(
		apperror.CodeInvalidInput,
		"Invalid employee id.",
		http.StatusBadRequest,
	)

	ErrInvalidReviewerID = apperror.New(
		apperror.CodeInvalidInput,
		"Invalid reviewer id.",
		http.StatusBadRequest,
	)

	ErrInvalidRequestID = apperror.New(
		apperror.CodeInvalidInput,
		"Invalid correction request id.",
		http.StatusBadRequest,
	)

	ErrInvalidDateFormat = apperror.New(
		apperror.CodeInvalidInput,
		"Invalid date, expected YYYY-MM-DD.",
		http.StatusBadRequest,
	)
)
