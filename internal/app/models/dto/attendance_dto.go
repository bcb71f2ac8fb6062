package dto

import "time"

// AttendanceRecordRequest is one student's entry in a marking batch
type AttendanceRecordRequest struct {
	StudentID int64   `json:"studentId" binding:"required,gt=0" example:"15"`
	Status    string  `json:"status" binding:"required,oneof=present absent late excused" example:"present"`
	Notes     *string `json:"notes,omitempty" binding:"omitempty,max=500" example:"arrived with a doctor's note"`
}

// MarkAttendanceRequest is the body of PUT /sessions/{sessionId}/attendance.
// TeacherID is only read for admins; teachers always mark as themselves.
type MarkAttendanceRequest struct {
	TeacherID *int64                    `json:"teacherId,omitempty" binding:"omitempty,gt=0" example:"7"`
	Records   []AttendanceRecordRequest `json:"records" binding:"required,dive"`
}

// AttendanceEntry is one roster line of the reconciled attendance view
type AttendanceEntry struct {
	StudentID   int64      `json:"studentId" example:"15"`
	StudentName string     `json:"studentName" example:"Ali Demir"`
	Status      string     `json:"status" example:"absent" enums:"present,absent,late,excused"`
	Notes       *string    `json:"notes"`
	MarkedAt    *time.Time `json:"markedAt"`
	MarkedBy    *int64     `json:"markedBy"`
}

// SessionAttendanceView is the roster of a session joined with its attendance rows
type SessionAttendanceView struct {
	Session *SessionResponse  `json:"session"`
	Records []AttendanceEntry `json:"records"`
}

// StatusCounts counts attendance rows by status
type StatusCounts struct {
	Present int `json:"present"`
	Absent  int `json:"absent"`
	Late    int `json:"late"`
	Excused int `json:"excused"`
}

// StudentAttendanceStats is the per-student breakdown inside course statistics
type StudentAttendanceStats struct {
	StudentID   int64        `json:"studentId" example:"15"`
	StudentName string       `json:"studentName" example:"Ali Demir"`
	Counts      StatusCounts `json:"counts"`
}

// CourseAttendanceStats aggregates attendance over all sessions of a course
type CourseAttendanceStats struct {
	CourseID      int64                    `json:"courseId" example:"3"`
	TotalSessions int                      `json:"totalSessions" example:"12"`
	Overall       StatusCounts             `json:"overall"`
	Students      []StudentAttendanceStats `json:"students"`
}
