package apperrors

import (
	"errors"
	"fmt"
)

// Error kinds. Every domain failure wraps exactly one of these so the
// HTTP layer can pick a status code with errors.Is.
var (
	ErrNotFound         = errors.New("resource not found")
	ErrInvalidRange     = errors.New("date outside registration window")
	ErrInvalidInterval  = errors.New("end time must be after start time")
	ErrScheduleConflict = errors.New("session overlaps an existing session")
	ErrCapacityExceeded = errors.New("session capacity reached")
	ErrTemporalConflict = errors.New("operation not allowed for past sessions")
	ErrInvalidState     = errors.New("operation not valid for current session state")
	ErrInvalidArgument  = errors.New("invalid argument")
	ErrBadRequest       = errors.New("bad request")
	ErrPermissionDenied = errors.New("permission denied")
	ErrValidationFailed = errors.New("validation failed")
	ErrResourceBusy     = errors.New("resource busy")
)

// Entity lookups. Repositories return these so callers can tell what was missing.
var (
	ErrCourseNotFound  = NewCustomError(ErrNotFound, "Course not found").WithDetails(map[string]interface{}{"resource": "course"})
	ErrSessionNotFound = NewCustomError(ErrNotFound, "Session not found").WithDetails(map[string]interface{}{"resource": "session"})
	ErrUserNotFound    = NewCustomError(ErrNotFound, "User not found").WithDetails(map[string]interface{}{"resource": "user"})
)

// Authentication errors
var (
	ErrTokenExpired  = errors.New("token expired")
	ErrTokenInvalid  = errors.New("invalid token")
	ErrInvalidFormat = errors.New("invalid token format")
)

// NewResourceNotFoundError creates a not-found error naming the missing entity
func NewResourceNotFoundError(message string) error {
	return &CustomError{
		Err:     ErrNotFound,
		Message: message,
	}
}

// NewInvalidRangeError reports which registration bound the date violates
func NewInvalidRangeError(bound, boundValue, date string) error {
	var msg string
	if bound == "registrationStartDate" {
		msg = fmt.Sprintf("Session date %s is before course registration start date %s", date, boundValue)
	} else {
		msg = fmt.Sprintf("Session date %s is after course registration end date %s", date, boundValue)
	}
	return NewCustomError(ErrInvalidRange, msg).WithDetails(map[string]interface{}{
		"bound":      bound,
		"boundValue": boundValue,
		"date":       date,
	})
}

// NewCapacityExceededError reports the course session cap
func NewCapacityExceededError(maxSessions int) error {
	return NewCustomError(ErrCapacityExceeded, fmt.Sprintf("Course allows maximum %d sessions", maxSessions)).
		WithDetails(map[string]interface{}{"maxSessions": maxSessions})
}

// NewInvalidIntervalError reports an empty or inverted time interval
func NewInvalidIntervalError(start, end string) error {
	return NewCustomError(ErrInvalidInterval, "End time must be after start time").
		WithDetails(map[string]interface{}{"startTime": start, "endTime": end})
}

// NewScheduleConflictError reports the session the candidate collides with.
// conflictingID is zero when the storage constraint caught the overlap.
func NewScheduleConflictError(conflictingID int64, start, end string) error {
	details := map[string]interface{}{}
	if conflictingID > 0 {
		details["conflictingSessionId"] = conflictingID
		details["conflictingStartTime"] = start
		details["conflictingEndTime"] = end
	}
	return NewCustomError(ErrScheduleConflict, "Session time conflicts with an existing session for this course").
		WithDetails(details)
}

// NewTemporalConflictError creates an error for operations forbidden on past sessions
func NewTemporalConflictError(message string) error {
	return NewCustomError(ErrTemporalConflict, message)
}

// NewInvalidStateError creates an error for operations not valid for the session state
func NewInvalidStateError(message string) error {
	return NewCustomError(ErrInvalidState, message)
}

// NewInvalidStudentsError names the students that are not on the course roster
func NewInvalidStudentsError(studentIDs []int64) error {
	return NewCustomError(ErrInvalidArgument, "Invalid students in attendance data").
		WithDetails(map[string]interface{}{"invalidStudentIds": studentIDs})
}

// NewResourceBusyError reports that a shared resource could not be locked in time
func NewResourceBusyError(message string, cause error) error {
	return &CustomError{
		Err:     fmt.Errorf("%w: %v", ErrResourceBusy, cause),
		Message: message,
	}
}

// NewBadRequestError creates a new custom error for bad request with a message
func NewBadRequestError(message string) error {
	return &CustomError{
		Err:     ErrBadRequest,
		Message: message,
	}
}

// NewForbiddenError creates a new custom error for permission denied with a message
func NewForbiddenError(message string) error {
	return &CustomError{
		Err:     ErrPermissionDenied,
		Message: message,
	}
}

// Is returns whether target matches any of the errors in errList
func Is(err, target error, errList ...error) bool {
	if errors.Is(err, target) {
		return true
	}

	for _, e := range errList {
		if errors.Is(err, e) {
			return true
		}
	}

	return false
}

// CustomError represents application-specific errors with additional context
type CustomError struct {
	Err     error
	Message string
	Details map[string]interface{}
}

// Error implements error interface
func (e *CustomError) Error() string {
	if e.Message != "" {
		return e.Message
	}
	if e.Err != nil {
		return e.Err.Error()
	}
	return "unknown error"
}

// Unwrap implements errors.Unwrap interface
func (e *CustomError) Unwrap() error {
	return e.Err
}

// NewCustomError creates a CustomError with underlying error
func NewCustomError(err error, message string) *CustomError {
	return &CustomError{
		Err:     err,
		Message: message,
	}
}

// WithDetails adds context details to the error
func (e *CustomError) WithDetails(details map[string]interface{}) *CustomError {
	e.Details = details
	return e
}

// AsCustomError extracts the outermost CustomError from err, if any
func AsCustomError(err error) (*CustomError, bool) {
	var ce *CustomError
	if errors.As(err, &ce) {
		return ce, true
	}
	return nil, false
}
