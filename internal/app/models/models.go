package models

// RoleType defines the user role type
type RoleType string

const (
	RoleAdmin   RoleType = "ADMIN"
	RoleTeacher RoleType = "TEACHER"
	RoleStudent RoleType = "STUDENT"
)

// Valid reports whether r is a known role
func (r RoleType) Valid() bool {
	switch r {
	case RoleAdmin, RoleTeacher, RoleStudent:
		return true
	}
	return false
}

// SessionStatus is the lifecycle state of a course session
type SessionStatus string

const (
	SessionScheduled SessionStatus = "scheduled"
	SessionCompleted SessionStatus = "completed"
	SessionCancelled SessionStatus = "cancelled"
)

// Valid reports whether s is a known session status
func (s SessionStatus) Valid() bool {
	switch s {
	case SessionScheduled, SessionCompleted, SessionCancelled:
		return true
	}
	return false
}

// AttendanceStatus is the recorded presence of a student in a session
type AttendanceStatus string

const (
	AttendancePresent AttendanceStatus = "present"
	AttendanceAbsent  AttendanceStatus = "absent"
	AttendanceLate    AttendanceStatus = "late"
	AttendanceExcused AttendanceStatus = "excused"
)

// AttendanceStatuses lists every attendance status in display order
var AttendanceStatuses = []AttendanceStatus{
	AttendancePresent,
	AttendanceAbsent,
	AttendanceLate,
	AttendanceExcused,
}

// Valid reports whether s is a known attendance status
func (s AttendanceStatus) Valid() bool {
	switch s {
	case AttendancePresent, AttendanceAbsent, AttendanceLate, AttendanceExcused:
		return true
	}
	return false
}

// EnrollmentStatus is the state of a student's enrollment in a course
type EnrollmentStatus string

const (
	EnrollmentActive    EnrollmentStatus = "active"
	EnrollmentInactive  EnrollmentStatus = "inactive"
	EnrollmentCompleted EnrollmentStatus = "completed"
	EnrollmentDropped   EnrollmentStatus = "dropped"
)
