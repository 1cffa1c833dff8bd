package sessionerrors

import (
	"net/http"

	"go-timetrack/internal/shared/apperror"
)

var (
	ErrAlreadyActive = apperror.New(
		"ALREADY_ACTIVE",
		"An active session already exists for today. Clock out before starting a new one.",
		http.StatusConflict,
	)

	ErrAlreadyPaused = apperror.New(
		"ALREADY_PAUSED",
		"The session is already paused.",
		http.StatusConflict,
	)

	ErrNoActiveSession = apperror.New(
		"NO_ACTIVE_SESSION",
		"No active session found for today.",
		http.StatusNotFound,
	)

	ErrNotPaused = apperror.New(
		"NOT_PAUSED",
		"The session is not paused.",
		http.StatusConflict,
	)

	ErrSessionNotFound = apperror.New(
		"SESSION_NOT_FOUND",
		"Session not found.",
		http.StatusNotFound,
	)

	ErrInvalidTimeRange = apperror.New(
		"INVALID_TIME_RANGE",
		"Clock-out must not be earlier than clock-in.",
		http.StatusBadRequest,
	)

	ErrInvalidPauseInterval = apperror.New(
		"INVALID_PAUSE_INTERVAL",
		"Pause intervals must be ordered, non-overlapping and inside the session window.",
		http.StatusBadRequest,
	)

	ErrInvalidEmployeeID = apperror.New(
		apperror.CodeInvalidInput,
		"Invalid employee id.",
		http.StatusBadRequest,
	)

	ErrInvalidSessionID = apperror.New(
		apperror.CodeInvalidInput,
		"Invalid session id.",
		http.StatusBadRequest,
	)

	ErrInvalidDateFormat = apperror.New(
		apperror.CodeInvalidInput,
		"Invalid date, expected YYYY-MM-DD.",
		http.StatusBadRequest,
	)

	ErrInvalidDateRange = apperror.New(
		apperror.CodeInvalidInput,
		"The from date must not be after the to date.",
		http.StatusBadRequest,
	)
)
