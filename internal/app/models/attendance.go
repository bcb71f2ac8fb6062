package models

import "time"

// Attendance is the recorded status of one student in one session
type Attendance struct {
	ID        int64            `json:"id" db:"id"`
	SessionID int64            `json:"sessionId" db:"session_id"`
	StudentID int64            `json:"studentId" db:"student_id"`
	Status    AttendanceStatus `json:"status" db:"status"`
	Notes     *string          `json:"notes,omitempty" db:"notes"`
	MarkedBy  int64            `json:"markedBy" db:"marked_by"`
	MarkedAt  time.Time        `json:"markedAt" db:"marked_at"`
}

// AttendanceCount is one aggregated row: how often a student had a status in a course
type AttendanceCount struct {
	StudentID   int64            `db:"student_id"`
	StudentName string           `db:"student_name"`
	Status      AttendanceStatus `db:"status"`
	Count       int              `db:"count"`
}
