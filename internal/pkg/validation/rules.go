package validation

import (
	"regexp"
	"time"

	"github.com/go-playground/validator/v10"
)

// Validation rule patterns
var (
	// ClockPattern accepts HH:MM or HH:MM:SS on a 24 hour clock
	ClockPattern = `^([01]\d|2[0-3]):[0-5]\d(:[0-5]\d)?$`

	// CalendarDatePattern accepts YYYY-MM-DD
	CalendarDatePattern = `^\d{4}-\d{2}-\d{2}$`
)

// CompiledPatterns caches compiled regex patterns for better performance
var CompiledPatterns = struct {
	Clock        *regexp.Regexp
	CalendarDate *regexp.Regexp
}{
	Clock:        regexp.MustCompile(ClockPattern),
	CalendarDate: regexp.MustCompile(CalendarDatePattern),
}

// Custom tag names usable in binding struct tags
const (
	TagClock        = "clock"
	TagCalendarDate = "calendardate"
)

// IsClock reports whether s is a time of day such as 09:30
func IsClock(s string) bool {
	return CompiledPatterns.Clock.MatchString(s)
}

// IsCalendarDate reports whether s is an existing calendar day such as 2025-02-28
func IsCalendarDate(s string) bool {
	if !CompiledPatterns.CalendarDate.MatchString(s) {
		return false
	}
	_, err := time.Parse("2006-01-02", s)
	return err == nil
}

func clockRule(fl validator.FieldLevel) bool {
	return IsClock(fl.Field().String())
}

func calendarDateRule(fl validator.FieldLevel) bool {
	return IsCalendarDate(fl.Field().String())
}

// Register adds the custom rules to v
func Register(v *validator.Validate) error {
	if err := v.RegisterValidation(TagClock, clockRule); err != nil {
		return err
	}
	return v.RegisterValidation(TagCalendarDate, calendarDateRule)
}
