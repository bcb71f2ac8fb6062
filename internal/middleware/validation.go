package middleware

import (
	"encoding/json"
	"errors"
	"net/http"
	"reflect"
	"strings"
	"sync"

	"github.com/gin-gonic/gin"
	"github.com/gin-gonic/gin/binding"
	"github.com/go-playground/validator/v10"
	"github.com/yigit/eduschedule/internal/app/models/dto"
	"github.com/yigit/eduschedule/internal/pkg/validation"
)

var registerOnce sync.Once

// RegisterValidators adds the custom rules to gin's binding validator and makes
// field errors report JSON names. Safe to call more than once.
func RegisterValidators() error {
	var err error
	registerOnce.Do(func() {
		v, ok := binding.Validator.Engine().(*validator.Validate)
		if !ok {
			err = errors.New("unexpected binding validator engine")
			return
		}
		v.RegisterTagNameFunc(func(f reflect.StructField) string {
			name := strings.SplitN(f.Tag.Get("json"), ",", 2)[0]
			if name == "-" {
				return ""
			}
			return name
		})
		err = validation.Register(v)
	})
	return err
}

// BindingError answers 400 for a request that failed to bind or validate
func BindingError(c *gin.Context, err error) {
	var verrs validator.ValidationErrors
	if errors.As(err, &verrs) {
		fields := dto.NewValidationErrors()
		for _, e := range verrs {
			fields.AddError(fieldPath(e), formatValidationError(e))
		}
		detail := dto.NewErrorDetail(dto.ErrorCodeValidationFailed, "Validation failed").
			WithDetails(fields)
		if len(fields.Errors) == 1 {
			detail = detail.WithField(fields.Errors[0].Field)
		}
		c.AbortWithStatusJSON(http.StatusBadRequest, dto.NewErrorResponse(detail))
		return
	}

	message := "Invalid request body"
	var typeErr *json.UnmarshalTypeError
	if errors.As(err, &typeErr) {
		message = typeErr.Field + " has the wrong type"
	}
	detail := dto.NewErrorDetail(dto.ErrorCodeBadRequest, message)
	if gin.IsDebugging() {
		detail = detail.WithDebugInfo("%v", err)
	}
	c.AbortWithStatusJSON(http.StatusBadRequest, dto.NewErrorResponse(detail))
}

// fieldPath drops the root struct name: "CreateSessionRequest.startTime" becomes "startTime"
func fieldPath(e validator.FieldError) string {
	ns := e.Namespace()
	if i := strings.Index(ns, "."); i >= 0 {
		return ns[i+1:]
	}
	return e.Field()
}

// formatValidationError creates a human-readable validation error message
func formatValidationError(e validator.FieldError) string {
	switch e.Tag() {
	case "required":
		return e.Field() + " is required"
	case "min":
		return e.Field() + " must be at least " + e.Param()
	case "max":
		return e.Field() + " must be at most " + e.Param()
	case "gt":
		return e.Field() + " must be greater than " + e.Param()
	case "oneof":
		return e.Field() + " must be one of: " + e.Param()
	case validation.TagClock:
		return e.Field() + " must be a clock time (HH:MM)"
	case validation.TagCalendarDate:
		return e.Field() + " must be a calendar date (YYYY-MM-DD)"
	default:
		return e.Field() + " validation failed: " + e.Tag()
	}
}
