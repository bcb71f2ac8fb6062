package models

import "time"

// Session is a single scheduled meeting of a course
type Session struct {
	ID        int64         `json:"id" db:"id"`
	CourseID  int64         `json:"courseId" db:"course_id"`
	TeacherID int64         `json:"teacherId" db:"teacher_id"`
	Date      time.Time     `json:"date" db:"session_date"`
	StartTime TimeOfDay     `json:"startTime" db:"start_time"`
	EndTime   TimeOfDay     `json:"endTime" db:"end_time"`
	Status    SessionStatus `json:"status" db:"status"`
	CreatedAt time.Time     `json:"createdAt" db:"created_at"`
	UpdatedAt time.Time     `json:"updatedAt" db:"updated_at"`
}

// Overlaps applies the half-open test: [s.start, s.end) and [start, end) intersect
func (s *Session) Overlaps(start, end TimeOfDay) bool {
	return s.StartTime.Before(end) && start.Before(s.EndTime)
}

// Duration is the session length on a shared reference day
func (s *Session) Duration() time.Duration {
	return s.EndTime.Sub(s.StartTime)
}
