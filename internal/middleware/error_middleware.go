package middleware

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/yigit/eduschedule/internal/app/models/dto"
	"github.com/yigit/eduschedule/internal/pkg/apperrors"
	"github.com/yigit/eduschedule/internal/pkg/logger"
)

// errorMapping pairs an error kind with its HTTP status and API code
type errorMapping struct {
	kind   error
	status int
	code   dto.ErrorCode
}

// Order matters only for errors wrapping several kinds; the first match wins.
var errorMappings = []errorMapping{
	{apperrors.ErrNotFound, http.StatusNotFound, dto.ErrorCodeResourceNotFound},
	{apperrors.ErrInvalidRange, http.StatusBadRequest, dto.ErrorCodeInvalidRange},
	{apperrors.ErrInvalidInterval, http.StatusBadRequest, dto.ErrorCodeInvalidInterval},
	{apperrors.ErrScheduleConflict, http.StatusBadRequest, dto.ErrorCodeScheduleConflict},
	{apperrors.ErrCapacityExceeded, http.StatusBadRequest, dto.ErrorCodeCapacityExceeded},
	{apperrors.ErrTemporalConflict, http.StatusBadRequest, dto.ErrorCodeTemporalConflict},
	{apperrors.ErrInvalidState, http.StatusBadRequest, dto.ErrorCodeInvalidState},
	{apperrors.ErrInvalidArgument, http.StatusBadRequest, dto.ErrorCodeInvalidArgument},
	{apperrors.ErrBadRequest, http.StatusBadRequest, dto.ErrorCodeBadRequest},
	{apperrors.ErrValidationFailed, http.StatusBadRequest, dto.ErrorCodeValidationFailed},
	{apperrors.ErrPermissionDenied, http.StatusForbidden, dto.ErrorCodeForbidden},
	{apperrors.ErrTokenExpired, http.StatusUnauthorized, dto.ErrorCodeExpiredToken},
	{apperrors.ErrTokenInvalid, http.StatusUnauthorized, dto.ErrorCodeInvalidToken},
	{apperrors.ErrInvalidFormat, http.StatusUnauthorized, dto.ErrorCodeInvalidToken},
	{apperrors.ErrResourceBusy, http.StatusServiceUnavailable, dto.ErrorCodeUnavailable},
}

// HandleAPIError handles common API errors and returns appropriate responses
func HandleAPIError(c *gin.Context, err error) {
	for _, m := range errorMappings {
		if !errors.Is(err, m.kind) {
			continue
		}

		detail := dto.NewErrorDetail(m.code, err.Error())
		if ce, ok := apperrors.AsCustomError(err); ok && len(ce.Details) > 0 {
			detail = detail.WithDetails(ce.Details)
		}
		if m.status == http.StatusServiceUnavailable {
			detail = detail.WithSeverity(dto.ErrorSeverityWarning)
		}
		c.AbortWithStatusJSON(m.status, dto.NewErrorResponse(detail))
		return
	}

	// Unclassified: log the cause, answer generically
	logger.Error().
		Err(err).
		Str("method", c.Request.Method).
		Str("path", c.Request.URL.Path).
		Str("requestID", c.GetString(RequestIDKey)).
		Msg("Unhandled error")

	detail := dto.NewErrorDetail(dto.ErrorCodeInternalServer, "Internal server error").
		WithSeverity(dto.ErrorSeverityCritical)
	if gin.IsDebugging() {
		detail = detail.WithDebugInfo("%v", err)
	}
	c.AbortWithStatusJSON(http.StatusInternalServerError, dto.NewErrorResponse(detail))
}
