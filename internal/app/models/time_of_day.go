package models

import (
	"encoding/json"
	"fmt"
	"time"
)

// referenceDay anchors time-of-day values so only the clock part is compared
var referenceDay = time.Date(2000, time.January, 1, 0, 0, 0, 0, time.UTC)

// TimeOfDay is a wall-clock time within a single day, stored as seconds since midnight
type TimeOfDay int

const secondsPerDay = 24 * 60 * 60

// ParseTimeOfDay accepts "15:04" or "15:04:05"
func ParseTimeOfDay(s string) (TimeOfDay, error) {
	for _, layout := range []string{"15:04", "15:04:05"} {
		if t, err := time.Parse(layout, s); err == nil {
			return TimeOfDay(t.Hour()*3600 + t.Minute()*60 + t.Second()), nil
		}
	}
	return 0, fmt.Errorf("invalid time of day %q, expected HH:MM or HH:MM:SS", s)
}

// NewTimeOfDay builds a TimeOfDay from its components
func NewTimeOfDay(hour, minute, second int) TimeOfDay {
	return TimeOfDay(hour*3600 + minute*60 + second)
}

// Valid reports whether t lies within a single day
func (t TimeOfDay) Valid() bool {
	return t >= 0 && t < secondsPerDay
}

// OnReferenceDay places t on a fixed calendar day
func (t TimeOfDay) OnReferenceDay() time.Time {
	return referenceDay.Add(time.Duration(t) * time.Second)
}

// Before reports whether t is strictly earlier than u
func (t TimeOfDay) Before(u TimeOfDay) bool {
	return t.OnReferenceDay().Before(u.OnReferenceDay())
}

// Sub returns the duration t-u
func (t TimeOfDay) Sub(u TimeOfDay) time.Duration {
	return t.OnReferenceDay().Sub(u.OnReferenceDay())
}

// Microseconds converts t to the representation used by Postgres TIME columns
func (t TimeOfDay) Microseconds() int64 {
	return int64(t) * int64(time.Second/time.Microsecond)
}

// TimeOfDayFromMicroseconds is the inverse of Microseconds, dropping sub-second precision
func TimeOfDayFromMicroseconds(us int64) TimeOfDay {
	return TimeOfDay(us / int64(time.Second/time.Microsecond))
}

func (t TimeOfDay) String() string {
	h := int(t) / 3600
	m := (int(t) % 3600) / 60
	s := int(t) % 60
	if s == 0 {
		return fmt.Sprintf("%02d:%02d", h, m)
	}
	return fmt.Sprintf("%02d:%02d:%02d", h, m, s)
}

// MarshalJSON renders the clock value as a string
func (t TimeOfDay) MarshalJSON() ([]byte, error) {
	return json.Marshal(t.String())
}

// UnmarshalJSON parses "HH:MM" or "HH:MM:SS"
func (t *TimeOfDay) UnmarshalJSON(data []byte) error {
	var s string
	if err := json.Unmarshal(data, &s); err != nil {
		return err
	}
	parsed, err := ParseTimeOfDay(s)
	if err != nil {
		return err
	}
	*t = parsed
	return nil
}
